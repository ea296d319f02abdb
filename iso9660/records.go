package iso9660

import (
	"time"

	"github.com/pkg/errors"
)

// File flag bits of a directory record (ECMA-119 9.1.6).
const (
	flagHidden    byte = 0x01
	flagDirectory byte = 0x02
)

var (
	dotIdentifier    = []byte{0x00} // the directory itself
	dotDotIdentifier = []byte{0x01} // its parent
)

// directoryRecord is one entry of a directory listing (ECMA-119 9.1).
type directoryRecord struct {
	extent     uint32 // LBA of the file data or directory listing
	dataLength uint32
	recorded   time.Time
	flags      byte
	identifier []byte
}

// directoryRecordSize is the padded length of a record carrying identifier.
func directoryRecordSize(identifier []byte) int {
	n := drFixedPartSize + len(identifier)
	if n%2 != 0 {
		n++
	}
	return n
}

// appendTo appends the encoded record to dst.
func (r *directoryRecord) appendTo(dst []byte) []byte {
	rec := make([]byte, directoryRecordSize(r.identifier))
	rec[0] = byte(len(rec))
	rec[1] = 0 // extended attribute record length
	putBothEndian32(rec[2:10], r.extent)
	putBothEndian32(rec[10:18], r.dataLength)
	putRecordingTime(rec[18:25], r.recorded)
	rec[25] = r.flags
	rec[26] = 0 // file unit size, no interleaving
	rec[27] = 0 // interleave gap size

	putBothEndian16(rec[28:32], 1) // volume sequence number
	rec[32] = byte(len(r.identifier))
	copy(rec[33:], r.identifier)
	return append(dst, rec...)
}

// recordFor describes the entry at index i of volume v under the given
// identifier. Only an entry's own record in its parent's listing carries
// the hidden flag.
func (b *ISOBuilder) recordFor(i int, v volume, identifier []byte, own bool) directoryRecord {
	fe := &b.fileEntries[i]
	r := directoryRecord{
		extent:     fe.sector[v],
		dataLength: fe.extentSize[v],
		recorded:   fe.modTime,
		identifier: identifier,
	}
	if fe.isDir {
		r.flags |= flagDirectory
	}
	if own && fe.isHidden {
		r.flags |= flagHidden
	}
	return r
}

// listingSize returns the bytes taken by records of the given sizes, laid
// out so that no record crosses a sector boundary (ECMA-119 6.8.1.1).
func listingSize(recordSizes []int) int {
	pos := 0
	for _, n := range recordSizes {
		if off := pos % SectorSize; off+n > SectorSize {
			pos += SectorSize - off
		}
		pos += n
	}
	return pos
}

// directoryListing serializes the listing of the directory at index
// dirIndex for volume v: ".", "..", then the children in identifier order.
func (b *ISOBuilder) directoryListing(dirIndex int, v volume) ([]byte, error) {
	dir := &b.fileEntries[dirIndex]
	records := []directoryRecord{
		b.recordFor(dirIndex, v, dotIdentifier, false),
		b.recordFor(dir.parentIndex, v, dotDotIdentifier, false), // the root's parent is itself
	}
	for _, c := range b.sortedChildren(dirIndex, v) {
		records = append(records, b.recordFor(c, v, b.fileEntries[c].ident[v], true))
	}

	buf := make([]byte, 0, dir.extentSize[v])
	for i := range records {
		n := directoryRecordSize(records[i].identifier)
		if off := len(buf) % SectorSize; off+n > SectorSize {
			buf = append(buf, make([]byte, SectorSize-off)...)
		}
		buf = records[i].appendTo(buf)
	}
	if uint32(len(buf)) > dir.extentSize[v] {
		return nil, errors.Errorf("%s listing of %s is %d bytes, allocated %d", v, dir.isoPath, len(buf), dir.extentSize[v])
	}
	return buf, nil
}
