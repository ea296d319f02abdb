package iso9660

import (
	"math"
	"os"
	"path"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ScanSourceDirectory scans the input directory structure and populates b.fileEntries.
// This can be called explicitly by the user or implicitly by Build.
func (b *ISOBuilder) ScanSourceDirectory() error {
	b.fileEntries = nil
	absPath, err := filepath.Abs(b.sourceDir)
	if err != nil {
		return errors.Wrapf(err, "absolute path for source %q", b.sourceDir)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return errors.Wrap(err, "stat source directory")
	}
	if !info.IsDir() {
		return errors.Errorf("source %q is not a directory", absPath)
	}

	b.fileEntries = append(b.fileEntries, fileEntry{
		diskPath:    absPath,
		isoPath:     "/",
		modTime:     info.ModTime(),
		isDir:       true,
		parentIndex: 0, // the root's parent is itself
	})
	if err := b.scanDirectory(0); err != nil {
		b.fileEntries = nil
		return err
	}
	logrus.Debugf("scanned %s: %d entries", absPath, len(b.fileEntries))
	return nil
}

// scanDirectory appends the children of the directory entry at parentIndex,
// depth first.
func (b *ISOBuilder) scanDirectory(parentIndex int) error {
	parent := b.fileEntries[parentIndex]
	osEntries, err := os.ReadDir(parent.diskPath)
	if err != nil {
		return errors.Wrapf(err, "read directory %s", parent.diskPath)
	}

	for _, osEntry := range osEntries {
		diskPath := filepath.Join(parent.diskPath, osEntry.Name())
		info, err := osEntry.Info()
		if err != nil {
			return errors.Wrapf(err, "info for %s", diskPath)
		}

		fe := fileEntry{
			originalName: osEntry.Name(),
			diskPath:     diskPath,
			isoPath:      path.Join(parent.isoPath, osEntry.Name()),
			modTime:      info.ModTime(),
			parentIndex:  parentIndex,
		}
		switch {
		case info.IsDir():
			fe.isDir = true
		case info.Mode().IsRegular():
			if info.Size() > math.MaxUint32 {
				return errors.Errorf("%s is %d bytes, larger than a single extent can describe", diskPath, info.Size())
			}
			fe.dataSize = uint32(info.Size())
		default:
			logrus.Warnf("skipping %s: not a regular file or directory (%s)", diskPath, info.Mode().Type())
			continue
		}

		b.fileEntries = append(b.fileEntries, fe)
		index := len(b.fileEntries) - 1
		b.fileEntries[parentIndex].children = append(b.fileEntries[parentIndex].children, index)
		if fe.isDir {
			if err := b.scanDirectory(index); err != nil {
				return err
			}
		}
	}
	return nil
}
