package extent

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// File is an extent whose content is read from a file on disk. The file is
// held open only between Prepare and Release.
type File struct {
	start  int64
	length int64
	path   string

	state State
	f     *os.File
}

// NewFile returns an extent of length bytes at start, read from path.
func NewFile(start, length int64, path string) *File {
	return &File{start: start, length: length, path: path}
}

func (e *File) Start() int64  { return e.start }
func (e *File) Length() int64 { return e.length }

func (e *File) Prepare() error {
	f, err := os.Open(e.path)
	if err != nil {
		return errors.Wrapf(err, "open %s", e.path)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return errors.Wrapf(err, "stat %s", e.path)
	}
	if info.Size() != e.length {
		f.Close()
		return errors.Errorf("size of %s changed: scanned %d, now %d", e.path, e.length, info.Size())
	}
	e.f = f
	e.state = Prepared
	return nil
}

func (e *File) Read(diskOffset int64, p []byte) (int, error) {
	if e.state != Prepared {
		return 0, errors.Wrapf(ErrNotPrepared, "file extent %s is %s", e.path, e.state)
	}
	rel := diskOffset - e.start
	if rel < 0 || rel > e.length {
		return 0, errors.Wrapf(ErrOutOfRange, "offset %d, extent [%d, %d)", diskOffset, e.start, e.start+e.length)
	}
	remaining := e.length - rel
	if remaining == 0 && len(p) > 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > remaining {
		p = p[:remaining]
	}
	if len(p) == 0 {
		return 0, nil
	}
	n, err := e.f.ReadAt(p, rel)
	if err == io.EOF && n == len(p) {
		err = nil
	}
	return n, err
}

func (e *File) Release() {
	if e.f != nil {
		if err := e.f.Close(); err != nil {
			logrus.WithError(err).Warnf("close %s", e.path)
		}
		e.f = nil
	}
	e.state = Released
}
