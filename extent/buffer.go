package extent

import (
	"github.com/pkg/errors"
)

// Buffer is an extent backed by an in-memory byte slice.
//
// A Buffer created with NewLazyBuffer produces its bytes on Prepare and drops
// them on Release. Generated content shorter than the extent is zero padded.
type Buffer struct {
	start  int64
	length int64
	build  func() ([]byte, error)

	state State
	data  []byte
}

// NewBuffer returns an extent holding data at start.
func NewBuffer(start int64, data []byte) *Buffer {
	return &Buffer{
		start:  start,
		length: int64(len(data)),
		build:  func() ([]byte, error) { return data, nil },
	}
}

// NewLazyBuffer returns an extent of length bytes at start whose content is
// generated by build each time the extent is prepared.
func NewLazyBuffer(start, length int64, build func() ([]byte, error)) *Buffer {
	return &Buffer{start: start, length: length, build: build}
}

func (b *Buffer) Start() int64  { return b.start }
func (b *Buffer) Length() int64 { return b.length }

// State reports where the buffer is in its lifecycle.
func (b *Buffer) State() State { return b.state }

func (b *Buffer) Prepare() error {
	data, err := b.build()
	if err != nil {
		return errors.Wrapf(err, "generate extent at %d", b.start)
	}
	if int64(len(data)) > b.length {
		return errors.Errorf("extent at %d: generated %d bytes, allocated %d", b.start, len(data), b.length)
	}
	if int64(len(data)) < b.length {
		padded := make([]byte, b.length)
		copy(padded, data)
		data = padded
	}
	b.data = data
	b.state = Prepared
	return nil
}

func (b *Buffer) Read(diskOffset int64, p []byte) (int, error) {
	if b.state != Prepared {
		return 0, errors.Wrapf(ErrNotPrepared, "buffer at %d is %s", b.start, b.state)
	}
	return ReadCache(b.start, b.data, diskOffset, p)
}

func (b *Buffer) Release() {
	b.data = nil
	b.state = Released
}
