package iso9660

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Joliet escape sequences for UCS-2 levels 1 to 3.
const (
	JolietLevel1 = "%/@"
	JolietLevel2 = "%/C"
	JolietLevel3 = "%/E"
)

// Options configures the ISO image creation.
type Options struct {
	VolumeIdentifierISO          string `yaml:"volume_id"`              // PVD, max 32 d-characters
	VolumeIdentifierJoliet       string `yaml:"joliet_volume_id"`       // SVD, max 16 UCS-2 characters
	SystemIdentifier             string `yaml:"system_id"`              // PVD/SVD, max 32 a-characters
	PublisherIdentifierISO       string `yaml:"publisher"`              // PVD, max 128 a-characters
	PublisherIdentifierJoliet    string `yaml:"joliet_publisher"`       // SVD, max 64 UCS-2 characters
	DataPreparerIdentifierISO    string `yaml:"data_preparer"`          // PVD, max 128 a-characters
	DataPreparerIdentifierJoliet string `yaml:"joliet_data_preparer"`   // SVD, max 64 UCS-2 characters
	ApplicationIdentifierISO     string `yaml:"application"`            // PVD, max 128 a-characters
	ApplicationIdentifierJoliet  string `yaml:"joliet_application"`     // SVD, max 64 UCS-2 characters
	JolietEscapeSequence         string `yaml:"joliet_escape_sequence"` // one of JolietLevel1..3

	// RecordingTime stamps the volume descriptors. Zero means the time of the build.
	RecordingTime time.Time `yaml:"recording_time"`
}

// DefaultOptions returns a new Options struct with sensible defaults.
func DefaultOptions() *Options {
	return &Options{
		VolumeIdentifierISO:         "ISO_VOLUME",
		VolumeIdentifierJoliet:      "JOLIET_VOLUME",
		SystemIdentifier:            " ",
		PublisherIdentifierISO:      "discimage",
		ApplicationIdentifierISO:    "discimage",
		ApplicationIdentifierJoliet: "discimage joliet",
		JolietEscapeSequence:        JolietLevel3,
	}
}

// LoadOptions reads a YAML options file. Keys missing from the file keep
// their DefaultOptions value.
func LoadOptions(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read options file")
	}
	opts := DefaultOptions()
	if err := yaml.UnmarshalStrict(data, opts); err != nil {
		return nil, errors.Wrapf(err, "parse options file %s", path)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}

// Validate reports option values the image format cannot carry.
func (o *Options) Validate() error {
	switch o.JolietEscapeSequence {
	case JolietLevel1, JolietLevel2, JolietLevel3:
	default:
		return errors.Errorf("unsupported joliet escape sequence %q", o.JolietEscapeSequence)
	}
	if len(o.VolumeIdentifierISO) > 32 {
		return errors.Errorf("volume identifier %q is longer than 32 characters", o.VolumeIdentifierISO)
	}
	return nil
}
