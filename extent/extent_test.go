package extent

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferLifecycle(t *testing.T) {
	calls := 0
	b := NewLazyBuffer(100, 8, func() ([]byte, error) {
		calls++
		return []byte("abc"), nil
	})
	assert.Equal(t, int64(100), b.Start())
	assert.Equal(t, int64(8), b.Length())
	assert.Equal(t, Unprepared, b.State())

	_, err := b.Read(100, make([]byte, 4))
	assert.True(t, errors.Is(err, ErrNotPrepared))

	require.NoError(t, b.Prepare())
	assert.Equal(t, Prepared, b.State())

	p := make([]byte, 16)
	n, err := b.Read(100, p)
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.Equal(t, []byte("abc\x00\x00\x00\x00\x00"), p[:n])

	n, err = b.Read(101, p[:2])
	require.NoError(t, err)
	assert.Equal(t, []byte("bc"), p[:n])

	_, err = b.Read(108, p)
	assert.Equal(t, io.EOF, err)

	_, err = b.Read(99, p)
	assert.True(t, errors.Is(err, ErrOutOfRange))

	b.Release()
	assert.Equal(t, Released, b.State())
	_, err = b.Read(100, p)
	assert.True(t, errors.Is(err, ErrNotPrepared))

	require.NoError(t, b.Prepare())
	assert.Equal(t, 2, calls)
}

func TestBufferOverrun(t *testing.T) {
	b := NewLazyBuffer(0, 2, func() ([]byte, error) {
		return []byte("too long"), nil
	})
	assert.Error(t, b.Prepare())
	assert.Equal(t, Unprepared, b.State())
}

func TestFileExtent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))

	e := NewFile(2048, 11, path)
	_, err := e.Read(2048, make([]byte, 4))
	assert.True(t, errors.Is(err, ErrNotPrepared))

	require.NoError(t, e.Prepare())
	p := make([]byte, 32)
	n, err := e.Read(2054, p)
	require.NoError(t, err)
	assert.Equal(t, "world", string(p[:n]))

	_, err = e.Read(2059, p)
	assert.Equal(t, io.EOF, err)
	e.Release()

	stale := NewFile(0, 5, path)
	assert.Error(t, stale.Prepare())
}

func TestWriteToFillsGaps(t *testing.T) {
	extents := []Extent{
		NewBuffer(6, []byte("xyz")),
		NewBuffer(2, []byte("ab")),
	}
	var out bytes.Buffer
	n, err := WriteTo(&out, extents, 12)
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)
	assert.Equal(t, []byte("\x00\x00ab\x00\x00xyz\x00\x00\x00"), out.Bytes())

	for _, e := range extents {
		assert.Equal(t, Released, e.(*Buffer).State())
	}
}

func TestWriteToRejectsBadLayout(t *testing.T) {
	tests := []struct {
		name    string
		extents []Extent
		total   int64
	}{
		{"overlap", []Extent{NewBuffer(0, []byte("abcd")), NewBuffer(2, []byte("ef"))}, 8},
		{"past end", []Extent{NewBuffer(6, []byte("abcd"))}, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := WriteTo(io.Discard, tt.extents, tt.total)
			assert.Error(t, err)
		})
	}
}

func TestWriteToPropagatesPrepareError(t *testing.T) {
	failing := NewLazyBuffer(0, 4, func() ([]byte, error) {
		return nil, errors.New("boom")
	})
	_, err := WriteTo(io.Discard, []Extent{failing}, 4)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "unprepared", Unprepared.String())
	assert.Equal(t, "prepared", Prepared.String())
	assert.Equal(t, "released", Released.String())
}
