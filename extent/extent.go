// Package extent models regions of a disc image whose content is produced
// only when the image writer reaches them.
//
// An Extent knows its position and length up front, so a layout pass can
// place it before any content exists. The writer then drives each extent
// through Prepare, a run of sequential Reads, and Release, which keeps at most
// one region's content in memory at a time.
package extent

import (
	"io"

	"github.com/pkg/errors"
)

var (
	// ErrNotPrepared is returned by Read when the extent holds no content.
	ErrNotPrepared = errors.New("extent not prepared")

	// ErrOutOfRange is returned by Read for offsets outside the extent.
	ErrOutOfRange = errors.New("offset outside extent")
)

// Extent is a deferred content region of an image.
//
// Offsets passed to Read are absolute image offsets. Implementations are not
// safe for concurrent use.
type Extent interface {
	// Start is the absolute offset of the first byte.
	Start() int64
	// Length is the number of bytes the extent covers.
	Length() int64
	// Prepare materializes the content.
	Prepare() error
	// Read copies content starting at diskOffset into p and returns the
	// number of bytes copied.
	Read(diskOffset int64, p []byte) (int, error)
	// Release discards the content. Prepare must be called again before
	// further reads.
	Release()
}

// State tracks the content lifecycle of an extent.
type State int

const (
	Unprepared State = iota
	Prepared
	Released
)

func (s State) String() string {
	switch s {
	case Unprepared:
		return "unprepared"
	case Prepared:
		return "prepared"
	case Released:
		return "released"
	default:
		return "unknown"
	}
}

// ReadCache implements the Read contract over a fully materialized buffer
// that begins at start.
func ReadCache(start int64, cache []byte, diskOffset int64, p []byte) (int, error) {
	rel := diskOffset - start
	if rel < 0 || rel > int64(len(cache)) {
		return 0, errors.Wrapf(ErrOutOfRange, "offset %d, extent [%d, %d)", diskOffset, start, start+int64(len(cache)))
	}
	if rel == int64(len(cache)) && len(p) > 0 {
		return 0, io.EOF
	}
	return copy(p, cache[rel:]), nil
}

// End returns the offset one past the last byte of e.
func End(e Extent) int64 {
	return e.Start() + e.Length()
}
