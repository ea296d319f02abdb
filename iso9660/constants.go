package iso9660

const (
	SectorSize             = 2048
	JolietMaxFilenameChars = 64
	SystemAreaNumSectors   = 16 // # of blank sectors at the beginning of the ISO

	// sectors of the volume descriptor set, directly after the system area
	pvdSector        = SystemAreaNumSectors
	svdSector        = SystemAreaNumSectors + 1
	terminatorSector = SystemAreaNumSectors + 2

	vdTypePrimary       byte = 1
	vdTypeSupplementary byte = 2 // Joliet
	vdTypeTerminator    byte = 255

	// drFixedPartSize is the size of a Directory Record excluding identifier-related fields
	// (ECMA-119 Section 9.1)
	drFixedPartSize = 33
	// ptRecFixedPartSize is the size of a Path Table Record excluding identifier-related fields
	// (LenDI (1), ExtAttrLen (1), LocExtent (4), ParentDirNum (2))
	// (ECMA-119 Section 9.4)
	ptRecFixedPartSize = 8

	// maxIdentifierLen is the largest value the 1-byte LenDI field can hold.
	maxIdentifierLen = 255
	// maxDirectories is the largest directory number a path table can hold.
	maxDirectories = 0xFFFF
)
