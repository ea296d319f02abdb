package iso9660

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlesthegreat77/discimage/extent"
)

// ISOBuilder orchestrates the creation of an ISO 9660 / Joliet image.
//
// The image is laid out in two passes: every extent is placed first, then
// content that refers to other extents (path tables, directory listings,
// volume descriptors) is serialized while the image is streamed out.
type ISOBuilder struct {
	sourceDir      string
	outputFilename string
	options        *Options
	fileEntries    []fileEntry // all scanned files and directories, root first
	dirs           []int       // directory handle -> index in fileEntries

	volumes      [numVolumes]volumeLayout
	totalSectors uint32
	recorded     time.Time // timestamp of the volume descriptors
}

// NewBuilder returns a new ISOBuilder for sourceDir writing to outputFilename.
// If opts is nil, DefaultOptions() is used.
func NewBuilder(sourceDir, outputFilename string, opts *Options) *ISOBuilder {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &ISOBuilder{
		sourceDir:      sourceDir,
		outputFilename: outputFilename,
		options:        opts,
	}
}

// MarkFileNamesAsHidden flags entries whose original filename matches any of
// the provided names as hidden. It must be called after ScanSourceDirectory.
// Names that cannot be hidden are reported together in the returned error;
// every other name is still applied.
func (b *ISOBuilder) MarkFileNamesAsHidden(fileNamesToHide ...string) error {
	if len(fileNamesToHide) == 0 {
		return nil
	}
	if len(b.fileEntries) == 0 {
		return errors.New("source directory has not been scanned")
	}

	var problems []string
	for _, name := range fileNamesToHide {
		if name == "" || name == "." || name == ".." {
			logrus.Warnf("cannot hide navigational or empty name %q", name)
			problems = append(problems, fmt.Sprintf("%q (invalid)", name))
			continue
		}

		found := false
		for i := 1; i < len(b.fileEntries); i++ { // the root has no name
			if b.fileEntries[i].originalName == name {
				b.fileEntries[i].isHidden = true
				found = true
			}
		}
		if !found {
			logrus.Warnf("no entry named %q to hide", name)
			problems = append(problems, name+" (not found)")
		}
	}

	if len(problems) > 0 {
		return errors.Errorf("could not hide: %s", strings.Join(problems, ", "))
	}
	return nil
}

// Build constructs the ISO image and writes it to the output file. On
// failure the partial output file is removed.
func (b *ISOBuilder) Build() (err error) {
	isoFile, err := os.Create(b.outputFilename)
	if err != nil {
		return errors.Wrapf(err, "create output file %s", b.outputFilename)
	}
	defer func() {
		if closeErr := isoFile.Close(); err == nil && closeErr != nil {
			err = errors.Wrap(closeErr, "close output file")
		}
		if err != nil {
			if rmErr := os.Remove(b.outputFilename); rmErr != nil {
				logrus.Warnf("removing incomplete output file %s: %v", b.outputFilename, rmErr)
			} else {
				logrus.Debugf("removed incomplete output file %s", b.outputFilename)
			}
		}
	}()

	w := bufio.NewWriterSize(isoFile, 16*SectorSize)
	n, err := b.WriteTo(w)
	if err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return errors.Wrap(err, "flush output file")
	}
	logrus.Infof("wrote %s: %d sectors (%d bytes)", b.outputFilename, b.totalSectors, n)
	return nil
}

// WriteTo lays out the image and streams it to w.
func (b *ISOBuilder) WriteTo(w io.Writer) (int64, error) {
	if len(b.fileEntries) == 0 {
		if err := b.ScanSourceDirectory(); err != nil {
			return 0, errors.Wrap(err, "scanning source directory")
		}
	}
	if err := b.options.Validate(); err != nil {
		return 0, err
	}
	if err := b.calculateLayout(); err != nil {
		return 0, errors.Wrap(err, "calculating ISO layout")
	}
	extents, err := b.extents()
	if err != nil {
		return 0, errors.Wrap(err, "assembling image extents")
	}
	n, err := extent.WriteTo(w, extents, sectorOffset(b.totalSectors))
	if err != nil {
		return n, errors.Wrap(err, "writing image")
	}
	return n, nil
}
