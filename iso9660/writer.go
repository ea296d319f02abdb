package iso9660

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/charlesthegreat77/discimage/extent"
)

// extents returns every content region of the laid out image. The system
// area needs none; the writer fills it with zeros.
func (b *ISOBuilder) extents() ([]extent.Extent, error) {
	var out []extent.Extent
	for v := primaryVolume; v < numVolumes; v++ {
		out = append(out, extent.NewLazyBuffer(sectorOffset(v.descriptorSector()), SectorSize, func() ([]byte, error) {
			return b.volumeDescriptor(v)
		}))
	}
	out = append(out, extent.NewBuffer(sectorOffset(terminatorSector), volumeDescriptorTerminator()))

	for v := primaryVolume; v < numVolumes; v++ {
		entries := b.pathTableEntries(v)
		locations := b.pathTableLocations(v)
		vl := b.volumes[v]
		for _, table := range []struct {
			order binary.ByteOrder
			lba   uint32
		}{
			{binary.LittleEndian, vl.lPathTable},
			{binary.LittleEndian, vl.lPathTable2},
			{binary.BigEndian, vl.mPathTable},
			{binary.BigEndian, vl.mPathTable2},
		} {
			pt, err := NewPathTable(table.order, v.encoding(), entries, locations, sectorOffset(table.lba))
			if err != nil {
				return nil, errors.Wrapf(err, "%s path table at sector %d", v, table.lba)
			}
			out = append(out, pt)
		}
	}

	for v := primaryVolume; v < numVolumes; v++ {
		for _, d := range b.dirs {
			fe := b.fileEntries[d]
			out = append(out, extent.NewLazyBuffer(sectorOffset(fe.sector[v]), int64(fe.extentSize[v]), func() ([]byte, error) {
				return b.directoryListing(d, v)
			}))
		}
	}

	for _, fe := range b.fileEntries {
		if !fe.isDir && fe.dataSize > 0 {
			out = append(out, extent.NewFile(sectorOffset(fe.sector[primaryVolume]), int64(fe.dataSize), fe.diskPath))
		}
	}
	return out, nil
}
