package iso9660

import (
	"bytes"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// calculateLayout determines names, sizes and sector locations of every
// structure in the image. Path table sectors are reserved from the table
// sizes alone; the tables themselves are built once all directories are placed.
func (b *ISOBuilder) calculateLayout() error {
	b.recorded = b.options.RecordingTime
	if b.recorded.IsZero() {
		b.recorded = time.Now()
	}

	b.dirs = b.dirs[:0]
	for i := range b.fileEntries {
		fe := &b.fileEntries[i]
		fe.dirHandle = -1
		if fe.isDir {
			fe.dirHandle = len(b.dirs)
			b.dirs = append(b.dirs, i)
		}
	}

	for v := primaryVolume; v < numVolumes; v++ {
		if err := b.assignNames(v); err != nil {
			return errors.Wrapf(err, "assigning %s names", v)
		}
		b.calculateDirectoryExtentSizes(v)
	}

	lba := uint32(terminatorSector + 1)
	for v := primaryVolume; v < numVolumes; v++ {
		size, err := PathTableSize(v.encoding(), b.pathTableEntries(v))
		if err != nil {
			return errors.Wrapf(err, "sizing %s path table", v)
		}
		sectors := sectorsToContainBytes(size)
		vl := &b.volumes[v]
		vl.pathTableSize = size
		vl.lPathTable, lba = lba, lba+sectors
		vl.lPathTable2, lba = lba, lba+sectors
		vl.mPathTable, lba = lba, lba+sectors
		vl.mPathTable2, lba = lba, lba+sectors
	}

	lba = b.assignContentSectors(lba)
	b.totalSectors = lba + 1 // one trailing padding sector
	logrus.Debugf("layout: %d entries, %d directories, %d sectors", len(b.fileEntries), len(b.dirs), b.totalSectors)
	return nil
}

// assignNames derives the identifier of every entry for volume v and makes
// sibling identifiers unique.
func (b *ISOBuilder) assignNames(v volume) error {
	for i := range b.fileEntries {
		fe := &b.fileEntries[i]
		switch {
		case i == 0:
			fe.name[v] = ""
		case v == jolietVolume:
			fe.name[v] = truncateJolietName(fe.originalName)
		case fe.isDir:
			fe.name[v] = sanitizeISO9660Name(fe.originalName, true)
		default:
			fe.name[v] = sanitizeISO9660Name(fe.originalName, false) + ";1"
		}
	}

	for _, d := range b.dirs {
		if err := b.uniquifyChildNames(d, v); err != nil {
			return err
		}
	}

	for i := range b.fileEntries {
		fe := &b.fileEntries[i]
		if i == 0 {
			fe.ident[v] = rootIdentifier
		}
		if len(fe.ident[v]) > maxIdentifierLen-drFixedPartSize {
			return errors.Errorf("identifier of %s is %d bytes, too long for a directory record", fe.isoPath, len(fe.ident[v]))
		}
		fe.drSize[v] = directoryRecordSize(fe.ident[v])
	}
	return nil
}

// uniquifyChildNames encodes the identifiers of the children of a directory
// and renames children until no two identifiers are equal. Names that differ
// as strings can still encode alike, e.g. invalid UTF-8 in Joliet.
func (b *ISOBuilder) uniquifyChildNames(dirIndex int, v volume) error {
	mangle := mangleISO9660Name
	if v == jolietVolume {
		mangle = mangleJolietName
	}
	encode := func(fe *fileEntry, name string) ([]byte, error) {
		id, err := encodeName(v.encoding(), name)
		if err != nil {
			return nil, errors.Wrapf(err, "entry %s", fe.isoPath)
		}
		return id, nil
	}

	children := b.fileEntries[dirIndex].children
	taken := make(map[string]bool, len(children))
	for _, c := range children {
		fe := &b.fileEntries[c]
		id, err := encode(fe, fe.name[v])
		if err != nil {
			return err
		}
		fe.ident[v] = id
		taken[string(id)] = true
	}

	seen := make(map[string]bool, len(taken))
	for _, c := range children {
		fe := &b.fileEntries[c]
		if !seen[string(fe.ident[v])] {
			seen[string(fe.ident[v])] = true
			continue
		}
		name, id := fe.name[v], fe.ident[v]
		for n := 1; taken[string(id)]; n++ {
			name = mangle(fe.name[v], n)
			var err error
			if id, err = encode(fe, name); err != nil {
				return err
			}
		}
		logrus.Warnf("%s name %q of %s collides with a sibling, using %q", v, fe.name[v], fe.isoPath, name)
		fe.name[v], fe.ident[v] = name, id
		taken[string(id)] = true
		seen[string(id)] = true
	}
	return nil
}

// sortedChildren returns the children of a directory in directory record
// order for volume v.
func (b *ISOBuilder) sortedChildren(dirIndex int, v volume) []int {
	kids := append([]int(nil), b.fileEntries[dirIndex].children...)
	sort.SliceStable(kids, func(i, j int) bool {
		return bytes.Compare(b.fileEntries[kids[i]].ident[v], b.fileEntries[kids[j]].ident[v]) < 0
	})
	return kids
}

// calculateDirectoryExtentSizes computes the sector-aligned listing size of
// every directory for volume v.
func (b *ISOBuilder) calculateDirectoryExtentSizes(v volume) {
	for _, d := range b.dirs {
		sizes := []int{directoryRecordSize(dotIdentifier), directoryRecordSize(dotDotIdentifier)}
		for _, c := range b.sortedChildren(d, v) {
			sizes = append(sizes, b.fileEntries[c].drSize[v])
		}
		listing := listingSize(sizes)
		b.fileEntries[d].extentSize[v] = sectorsToContainBytes(int64(listing)) * SectorSize
	}
}

// assignContentSectors places primary directory listings, then file data,
// then Joliet directory listings, starting at startLBA.
func (b *ISOBuilder) assignContentSectors(startLBA uint32) uint32 {
	lba := startLBA
	for _, d := range b.dirs {
		fe := &b.fileEntries[d]
		fe.sector[primaryVolume] = lba
		lba += fe.extentSize[primaryVolume] / SectorSize
	}
	for i := range b.fileEntries {
		fe := &b.fileEntries[i]
		if fe.isDir {
			continue
		}
		// both volumes describe the same data
		fe.sector[primaryVolume], fe.sector[jolietVolume] = lba, lba
		fe.extentSize[primaryVolume], fe.extentSize[jolietVolume] = fe.dataSize, fe.dataSize
		lba += sectorsToContainFileBytes(fe.dataSize)
	}
	for _, d := range b.dirs {
		fe := &b.fileEntries[d]
		fe.sector[jolietVolume] = lba
		lba += fe.extentSize[jolietVolume] / SectorSize
	}
	return lba
}

// pathTableEntries returns the directory list of volume v, indexed by
// directory handle.
func (b *ISOBuilder) pathTableEntries(v volume) []DirectoryEntry {
	entries := make([]DirectoryEntry, len(b.dirs))
	for h, d := range b.dirs {
		fe := b.fileEntries[d]
		parent := NoParent
		if d != 0 {
			parent = b.fileEntries[fe.parentIndex].dirHandle
		}
		entries[h] = DirectoryEntry{Name: fe.name[v], Parent: parent}
	}
	return entries
}

func (b *ISOBuilder) pathTableLocations(v volume) map[int]uint32 {
	locations := make(map[int]uint32, len(b.dirs))
	for h, d := range b.dirs {
		locations[h] = b.fileEntries[d].sector[v]
	}
	return locations
}
