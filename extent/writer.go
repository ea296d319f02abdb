package extent

import (
	"io"
	"sort"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// chunkSize bounds the copy buffer and the zero-fill writes.
const chunkSize = 2048 * 128

// WriteTo streams an image of total bytes to w. Extents are emitted in
// offset order; bytes not covered by any extent are written as zeros.
//
// Each extent is prepared immediately before its bytes are needed and
// released as soon as they are written.
func WriteTo(w io.Writer, extents []Extent, total int64) (int64, error) {
	ordered := make([]Extent, len(extents))
	copy(ordered, extents)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Start() < ordered[j].Start()
	})

	var pos int64
	for i, e := range ordered {
		if e.Start() < pos {
			return pos, errors.Errorf("extent at %d overlaps previous extent ending at %d", e.Start(), pos)
		}
		if End(e) > total {
			return pos, errors.Errorf("extent [%d, %d) exceeds image size %d", e.Start(), End(e), total)
		}
		n, err := writeZeros(w, e.Start()-pos)
		pos += n
		if err != nil {
			return pos, errors.Wrapf(err, "zero fill up to %d", e.Start())
		}

		logrus.Debugf("writing extent %d/%d at %d (%d bytes)", i+1, len(ordered), e.Start(), e.Length())
		n, err = copyExtent(w, e)
		pos += n
		if err != nil {
			return pos, err
		}
	}

	n, err := writeZeros(w, total-pos)
	pos += n
	if err != nil {
		return pos, errors.Wrap(err, "writing final image padding")
	}
	return pos, nil
}

// copyExtent runs one extent through its Prepare/Read/Release cycle.
func copyExtent(w io.Writer, e Extent) (int64, error) {
	if e.Length() == 0 {
		return 0, nil
	}
	if err := e.Prepare(); err != nil {
		return 0, errors.Wrapf(err, "prepare extent at %d", e.Start())
	}
	defer e.Release()

	size := int64(chunkSize)
	if e.Length() < size {
		size = e.Length()
	}
	buf := make([]byte, size)

	var written int64
	for written < e.Length() {
		want := e.Length() - written
		if want > size {
			want = size
		}
		n, err := e.Read(e.Start()+written, buf[:want])
		if n > 0 {
			m, werr := w.Write(buf[:n])
			written += int64(m)
			if werr != nil {
				return written, errors.Wrapf(werr, "write extent at %d", e.Start())
			}
			if m != n {
				return written, errors.Wrapf(io.ErrShortWrite, "extent at %d: wrote %d/%d", e.Start(), m, n)
			}
		}
		if err != nil && err != io.EOF {
			return written, errors.Wrapf(err, "read extent at %d", e.Start()+written)
		}
		if n == 0 {
			return written, errors.Errorf("extent at %d ended after %d of %d bytes", e.Start(), written, e.Length())
		}
	}
	return written, nil
}

func writeZeros(w io.Writer, count int64) (int64, error) {
	if count <= 0 {
		return 0, nil
	}
	size := int64(chunkSize)
	if count < size {
		size = count
	}
	zeros := make([]byte, size)

	var written int64
	for written < count {
		chunk := count - written
		if chunk > size {
			chunk = size
		}
		n, err := w.Write(zeros[:chunk])
		written += int64(n)
		if err != nil {
			return written, err
		}
	}
	return written, nil
}
