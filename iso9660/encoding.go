package iso9660

import (
	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

var (
	// PrimaryEncoding encodes identifiers of the primary (ISO 9660) volume.
	// Names are sanitized to d-characters before encoding.
	PrimaryEncoding encoding.Encoding = charmap.ISO8859_1

	// JolietEncoding encodes identifiers of the Joliet supplementary volume
	// as UCS-2 big endian without a byte order mark.
	JolietEncoding encoding.Encoding = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
)

// rootIdentifier is the identifier of the root directory in path tables and
// in the root directory record of a volume descriptor, whatever the encoding.
var rootIdentifier = []byte{0x00}

// encodeName encodes name with enc.
func encodeName(enc encoding.Encoding, name string) ([]byte, error) {
	b, err := enc.NewEncoder().Bytes([]byte(name))
	if err != nil {
		return nil, errors.Wrapf(err, "encode %q", name)
	}
	return b, nil
}

// encodeIdentifier encodes a directory identifier for a path table record.
func encodeIdentifier(enc encoding.Encoding, name string, isRoot bool) ([]byte, error) {
	if isRoot {
		return rootIdentifier, nil
	}
	id, err := encodeName(enc, name)
	if err != nil {
		return nil, configErrorf("directory identifier: %v", err)
	}
	if len(id) == 0 {
		return nil, configErrorf("empty identifier for non-root directory")
	}
	if len(id) > maxIdentifierLen {
		return nil, configErrorf("identifier %q encodes to %d bytes, limit %d", name, len(id), maxIdentifierLen)
	}
	return id, nil
}
