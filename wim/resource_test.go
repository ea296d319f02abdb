package wim

import (
	"bytes"
	"testing"

	digest "github.com/opencontainers/go-digest"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeZeroHeader(t *testing.T) {
	buf := make([]byte, ShortResourceHeaderSize)
	buf = append(buf, 0x01, 0x00)
	buf = append(buf, 0x02, 0x00, 0x00, 0x00)
	buf = append(buf, make([]byte, FingerprintSize)...)
	require.Len(t, buf, ResourceInfoSize)

	info, err := Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, uint16(1), info.PartNumber)
	assert.Equal(t, uint32(2), info.RefCount)
	assert.Equal(t, Fingerprint{}, info.Hash)
	assert.Equal(t, ShortResourceHeader{}, info.Header)
}

func TestDecodeFields(t *testing.T) {
	buf := []byte{
		// compressed size 0x0123456789AB, flags metadata|compressed
		0xAB, 0x89, 0x67, 0x45, 0x23, 0x01, 0x00, 0x06,
		// file offset 0x1000
		0x00, 0x10, 0, 0, 0, 0, 0, 0,
		// original size 0x2000
		0x00, 0x20, 0, 0, 0, 0, 0, 0,
		// part number 0x0102
		0x02, 0x01,
		// ref count 0x0A0B0C0D
		0x0D, 0x0C, 0x0B, 0x0A,
	}
	hash := bytes.Repeat([]byte{0xEE}, FingerprintSize)
	buf = append(buf, hash...)
	buf = append(buf, 0xFF) // trailing bytes are ignored

	info, err := Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, int64(0x0123456789AB), info.Header.CompressedSize)
	assert.Equal(t, ResourceMetadata|ResourceCompressed, info.Header.Flags)
	assert.Equal(t, int64(0x1000), info.Header.FileOffset)
	assert.Equal(t, int64(0x2000), info.Header.OriginalSize)
	assert.Equal(t, uint16(0x0102), info.PartNumber)
	assert.Equal(t, uint32(0x0A0B0C0D), info.RefCount)
	assert.Equal(t, hash, info.Hash[:])

	// the decoded record does not alias the input
	buf[ShortResourceHeaderSize+6] = 0
	assert.Equal(t, byte(0xEE), info.Hash[0])
}

func TestDecodeShortBuffer(t *testing.T) {
	for _, n := range []int{0, 1, ShortResourceHeaderSize, ResourceInfoSize - 1} {
		_, err := Decode(make([]byte, n))
		assert.True(t, errors.Is(err, ErrFormat), "length %d", n)
	}
}

func TestReadResourceInfo(t *testing.T) {
	buf := make([]byte, ResourceInfoSize)
	buf[ShortResourceHeaderSize] = 3
	info, err := ReadResourceInfo(bytes.NewReader(buf))
	require.NoError(t, err)
	assert.Equal(t, uint16(3), info.PartNumber)

	_, err = ReadResourceInfo(bytes.NewReader(buf[:10]))
	assert.True(t, errors.Is(err, ErrFormat))
	_, err = ReadResourceInfo(bytes.NewReader(nil))
	assert.True(t, errors.Is(err, ErrFormat))
}

func TestFingerprintDigest(t *testing.T) {
	var f Fingerprint
	f[0], f[19] = 0xAB, 0x01
	d := f.Digest()
	assert.Equal(t, SHA1, d.Algorithm())
	assert.Equal(t, "ab00000000000000000000000000000000000001", d.Encoded())
	assert.Equal(t, "sha1:ab00000000000000000000000000000000000001", d.String())

	// rendering only, go-digest has no sha1 hash registered
	assert.False(t, SHA1.Available())
	assert.Equal(t, digest.ErrDigestUnsupported, d.Validate())
}

func TestResourceFlagsString(t *testing.T) {
	assert.Equal(t, "none", ResourceFlags(0).String())
	assert.Equal(t, "metadata|compressed", (ResourceMetadata | ResourceCompressed).String())
	assert.Equal(t, "free|spanned", (ResourceFree | ResourceSpanned).String())
}
