// Package wim decodes the fixed-size resource records of Windows Imaging
// (WIM) archives.
package wim

import (
	"encoding/binary"
	"encoding/hex"
	"io"
	"strings"

	digest "github.com/opencontainers/go-digest"
	"github.com/pkg/errors"
)

const (
	// ShortResourceHeaderSize is the encoded size of a ShortResourceHeader.
	ShortResourceHeaderSize = 24
	// ResourceInfoSize is the encoded size of a ResourceInfo.
	ResourceInfoSize = ShortResourceHeaderSize + 26
	// FingerprintSize is the length of a resource's SHA-1 hash.
	FingerprintSize = 20
)

// SHA1 is the digest algorithm of resource fingerprints. go-digest does not
// register it, so digests built with it are for display: Validate and
// Verifier report digest.ErrDigestUnsupported.
const SHA1 digest.Algorithm = "sha1"

// ErrFormat is returned for records that are too short to decode.
var ErrFormat = errors.New("malformed wim record")

// ResourceFlags describe how a resource is stored.
type ResourceFlags byte

const (
	ResourceFree       ResourceFlags = 0x01
	ResourceMetadata   ResourceFlags = 0x02
	ResourceCompressed ResourceFlags = 0x04
	ResourceSpanned    ResourceFlags = 0x08
)

func (f ResourceFlags) String() string {
	var names []string
	for _, flag := range []struct {
		bit  ResourceFlags
		name string
	}{
		{ResourceFree, "free"},
		{ResourceMetadata, "metadata"},
		{ResourceCompressed, "compressed"},
		{ResourceSpanned, "spanned"},
	} {
		if f&flag.bit != 0 {
			names = append(names, flag.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// ShortResourceHeader locates a resource inside the archive.
type ShortResourceHeader struct {
	CompressedSize int64 // 56-bit on disk
	Flags          ResourceFlags
	FileOffset     int64
	OriginalSize   int64
}

// Fingerprint is the SHA-1 hash of a resource's uncompressed content.
type Fingerprint [FingerprintSize]byte

func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// Digest renders the fingerprint as an algorithm-prefixed digest.
func (f Fingerprint) Digest() digest.Digest {
	return digest.NewDigestFromEncoded(SHA1, f.String())
}

// ResourceInfo is one entry of the archive's resource table.
type ResourceInfo struct {
	Header     ShortResourceHeader
	PartNumber uint16
	RefCount   uint32
	Hash       Fingerprint
}

// Decode parses a ResourceInfo from the start of buf. Bytes past
// ResourceInfoSize are ignored.
func Decode(buf []byte) (ResourceInfo, error) {
	if len(buf) < ResourceInfoSize {
		return ResourceInfo{}, errors.Wrapf(ErrFormat, "resource info needs %d bytes, got %d", ResourceInfoSize, len(buf))
	}

	var info ResourceInfo
	info.Header = decodeShortResourceHeader(buf[:ShortResourceHeaderSize])
	rest := buf[ShortResourceHeaderSize:]
	info.PartNumber = binary.LittleEndian.Uint16(rest[0:2])
	info.RefCount = binary.LittleEndian.Uint32(rest[2:6])
	copy(info.Hash[:], rest[6:6+FingerprintSize])
	return info, nil
}

// ReadResourceInfo reads and decodes exactly one record from r.
func ReadResourceInfo(r io.Reader) (ResourceInfo, error) {
	buf := make([]byte, ResourceInfoSize)
	n, err := io.ReadFull(r, buf)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return ResourceInfo{}, errors.Wrapf(ErrFormat, "short resource info: read %d of %d bytes", n, ResourceInfoSize)
	}
	if err != nil {
		return ResourceInfo{}, errors.Wrap(err, "read resource info")
	}
	return Decode(buf)
}

func decodeShortResourceHeader(b []byte) ShortResourceHeader {
	// the compressed size occupies the low seven bytes of the first word and
	// the flags the eighth
	word := binary.LittleEndian.Uint64(b[0:8])
	return ShortResourceHeader{
		CompressedSize: int64(word & 0x00FFFFFFFFFFFFFF),
		Flags:          ResourceFlags(b[7]),
		FileOffset:     int64(binary.LittleEndian.Uint64(b[8:16])),
		OriginalSize:   int64(binary.LittleEndian.Uint64(b[16:24])),
	}
}
