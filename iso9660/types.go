package iso9660

import (
	"time"

	"golang.org/x/text/encoding"
)

// volume selects one of the two directory hierarchies written to the image.
type volume int

const (
	primaryVolume volume = iota // ISO 9660, described by the PVD
	jolietVolume                // Joliet, described by the SVD
	numVolumes
)

func (v volume) String() string {
	if v == jolietVolume {
		return "joliet"
	}
	return "iso9660"
}

func (v volume) encoding() encoding.Encoding {
	if v == jolietVolume {
		return JolietEncoding
	}
	return PrimaryEncoding
}

func (v volume) descriptorType() byte {
	if v == jolietVolume {
		return vdTypeSupplementary
	}
	return vdTypePrimary
}

func (v volume) descriptorSector() uint32 {
	if v == jolietVolume {
		return svdSector
	}
	return pvdSector
}

// fileEntry is a scanned file or directory from the source tree.
type fileEntry struct {
	originalName string // last path component on disk, "" for the root
	diskPath     string
	isoPath      string // path relative to the image root
	modTime      time.Time

	isDir       bool
	parentIndex int   // index in ISOBuilder.fileEntries; the root is its own parent
	children    []int // indices of child entries
	dirHandle   int   // position in ISOBuilder.dirs, -1 for files
	isHidden    bool
	dataSize    uint32 // files only

	// per volume, indexed by volume
	name       [numVolumes]string // identifier before encoding
	ident      [numVolumes][]byte // encoded identifier as written to records
	drSize     [numVolumes]int    // length of this entry's record in its parent's listing
	extentSize [numVolumes]uint32 // dirs: sector-aligned listing size; files: dataSize
	sector     [numVolumes]uint32 // LBA of the listing (dirs) or the data (files, same for both)
}

// volumeLayout is the path table placement of one volume.
type volumeLayout struct {
	pathTableSize int64
	lPathTable    uint32
	lPathTable2   uint32
	mPathTable    uint32
	mPathTable2   uint32
}
