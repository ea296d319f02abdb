package iso9660

import (
	"bytes"
	"encoding/binary"
	"sort"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding"

	"github.com/charlesthegreat77/discimage/extent"
)

// NoParent marks the root in DirectoryEntry.Parent.
const NoParent = -1

// DirectoryEntry describes one directory for a path table.
//
// Entries are addressed by their index (handle) in the slice passed to
// NewPathTable; Parent holds the parent's handle.
type DirectoryEntry struct {
	Name   string // identifier before encoding; ignored for the root
	Parent int    // handle of the parent directory, NoParent for the root
}

// PathTable is the deferred extent holding one path table (ECMA-119 9.4).
//
// The table is serialized on Prepare, once every directory's extent location
// is known, and dropped on Release. Directory numbers follow the format
// order: by depth, then by the order of the parent, then by identifier.
type PathTable struct {
	byteOrder binary.ByteOrder
	enc       encoding.Encoding
	dirs      []DirectoryEntry
	locations map[int]uint32
	start     int64
	length    int64

	tree *directoryTree

	state     extent.State
	readCache []byte
	numbers   []uint16
}

var _ extent.Extent = (*PathTable)(nil)

// NewPathTable returns a path table extent at absolute offset start.
// byteOrder selects the L-type (little endian) or M-type (big endian) table.
// locations must hold the extent sector of every entry in dirs.
func NewPathTable(byteOrder binary.ByteOrder, enc encoding.Encoding, dirs []DirectoryEntry, locations map[int]uint32, start int64) (*PathTable, error) {
	tree, err := newDirectoryTree(enc, dirs)
	if err != nil {
		return nil, err
	}
	for h := range dirs {
		if _, ok := locations[h]; !ok {
			return nil, configErrorf("no extent location for directory %d (%q)", h, dirs[h].Name)
		}
	}
	return &PathTable{
		byteOrder: byteOrder,
		enc:       enc,
		dirs:      dirs,
		locations: locations,
		start:     start,
		length:    tree.size(),
		tree:      tree,
	}, nil
}

// PathTableSize returns the byte length of the path table for dirs. It needs
// no extent locations, so a layout pass can reserve space for the table
// before directories are placed.
func PathTableSize(enc encoding.Encoding, dirs []DirectoryEntry) (int64, error) {
	tree, err := newDirectoryTree(enc, dirs)
	if err != nil {
		return 0, err
	}
	return tree.size(), nil
}

func (pt *PathTable) Start() int64  { return pt.start }
func (pt *PathTable) Length() int64 { return pt.length }

// State reports where the table is in its lifecycle.
func (pt *PathTable) State() extent.State { return pt.state }

// Prepare numbers the directories and serializes the table.
func (pt *PathTable) Prepare() error {
	order, err := pt.tree.order()
	if err != nil {
		return err
	}

	numbers := make([]uint16, len(pt.dirs))
	cache := make([]byte, 0, pt.length)
	for i, h := range order {
		numbers[h] = uint16(i + 1)
		parentNum := uint16(1) // the root is its own parent
		if p := pt.dirs[h].Parent; p != NoParent {
			parentNum = numbers[p]
		}
		cache = appendPathTableRecord(cache, pt.byteOrder, pt.tree.idents[h], pt.locations[h], parentNum)
	}
	if int64(len(cache)) != pt.length {
		return errors.Errorf("path table serialized to %d bytes, expected %d", len(cache), pt.length)
	}

	logrus.Debugf("path table at %d (%s): %d directories, %d bytes", pt.start, pt.byteOrder, len(order), len(cache))
	pt.readCache = cache
	pt.numbers = numbers
	pt.state = extent.Prepared
	return nil
}

// Read copies table bytes starting at the absolute offset diskOffset.
func (pt *PathTable) Read(diskOffset int64, p []byte) (int, error) {
	if pt.state != extent.Prepared {
		return 0, errors.Wrapf(extent.ErrNotPrepared, "path table at %d is %s", pt.start, pt.state)
	}
	return extent.ReadCache(pt.start, pt.readCache, diskOffset, p)
}

// Release drops the serialized table.
func (pt *PathTable) Release() {
	pt.readCache = nil
	pt.numbers = nil
	pt.state = extent.Released
}

// DirectoryNumber returns the number assigned to the entry with the given
// handle. It is only available while the table is prepared.
func (pt *PathTable) DirectoryNumber(handle int) (uint16, bool) {
	if pt.state != extent.Prepared || handle < 0 || handle >= len(pt.numbers) {
		return 0, false
	}
	return pt.numbers[handle], true
}

// directoryTree is the validated, encoded form of a directory entry list.
type directoryTree struct {
	root     int
	idents   [][]byte
	children [][]int // handles, in input order
}

func newDirectoryTree(enc encoding.Encoding, dirs []DirectoryEntry) (*directoryTree, error) {
	if len(dirs) == 0 {
		return nil, configErrorf("no directories")
	}
	if len(dirs) > maxDirectories {
		return nil, configErrorf("%d directories, a path table holds at most %d", len(dirs), maxDirectories)
	}

	t := &directoryTree{
		root:     NoParent,
		idents:   make([][]byte, len(dirs)),
		children: make([][]int, len(dirs)),
	}
	for h, d := range dirs {
		switch {
		case d.Parent == NoParent:
			if t.root != NoParent {
				return nil, configErrorf("directories %d and %d are both roots", t.root, h)
			}
			t.root = h
		case d.Parent < 0 || d.Parent >= len(dirs):
			return nil, configErrorf("directory %d (%q) has unknown parent %d", h, d.Name, d.Parent)
		default:
			t.children[d.Parent] = append(t.children[d.Parent], h)
		}

		id, err := encodeIdentifier(enc, d.Name, d.Parent == NoParent)
		if err != nil {
			return nil, errors.Wrapf(err, "directory %d", h)
		}
		t.idents[h] = id
	}
	if t.root == NoParent {
		return nil, configErrorf("no root directory")
	}

	// with a single root and in-range parents, anything unreachable from the
	// root sits on a cycle
	reached := 0
	queue := []int{t.root}
	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]
		reached++
		queue = append(queue, t.children[h]...)
	}
	if reached != len(dirs) {
		return nil, configErrorf("%d directories are not reachable from the root", len(dirs)-reached)
	}
	return t, nil
}

func (t *directoryTree) size() int64 {
	var total int64
	for _, id := range t.idents {
		total += int64(pathTableRecordSize(id))
	}
	return total
}

// order returns the handles in path table order. Walking the tree breadth
// first and visiting each directory's children by identifier yields depth
// order, parents in their own table order, then identifiers.
func (t *directoryTree) order() ([]int, error) {
	order := make([]int, 0, len(t.idents))
	order = append(order, t.root)
	for i := 0; i < len(order); i++ {
		h := order[i]
		kids := append([]int(nil), t.children[h]...)
		sort.SliceStable(kids, func(a, b int) bool {
			return bytes.Compare(t.idents[kids[a]], t.idents[kids[b]]) < 0
		})
		for k := 1; k < len(kids); k++ {
			if bytes.Equal(t.idents[kids[k-1]], t.idents[kids[k]]) {
				return nil, configErrorf("directories %d and %d share identifier %q under directory %d",
					kids[k-1], kids[k], t.idents[kids[k]], h)
			}
		}
		order = append(order, kids...)
	}
	return order, nil
}

func pathTableRecordSize(identifier []byte) int {
	n := ptRecFixedPartSize + len(identifier)
	if len(identifier)%2 != 0 {
		n++
	}
	return n
}

// appendPathTableRecord appends one record (ECMA-119 9.4) to dst.
func appendPathTableRecord(dst []byte, order binary.ByteOrder, identifier []byte, location uint32, parent uint16) []byte {
	var fixed [ptRecFixedPartSize]byte
	fixed[0] = byte(len(identifier))
	fixed[1] = 0 // extended attribute record length
	order.PutUint32(fixed[2:6], location)
	order.PutUint16(fixed[6:8], parent)

	dst = append(dst, fixed[:]...)
	dst = append(dst, identifier...)
	if len(identifier)%2 != 0 {
		dst = append(dst, 0)
	}
	return dst
}
