package iso9660

import (
	"encoding/binary"
	"time"

	"github.com/pkg/errors"
)

const standardIdentifier = "CD001"

// descriptorHeader writes the 7-byte header common to all volume
// descriptors (ECMA-119 8.1).
func descriptorHeader(sector []byte, vdType byte) {
	sector[0] = vdType
	copy(sector[1:6], standardIdentifier)
	sector[6] = 1 // version
}

// volumeDescriptor generates the PVD (primary volume) or the Joliet SVD
// sector. Both share the layout of ECMA-119 8.4; they differ in the escape
// sequences and in how identifiers are encoded.
func (b *ISOBuilder) volumeDescriptor(v volume) ([]byte, error) {
	o := b.options
	sector := make([]byte, SectorSize)
	descriptorHeader(sector, v.descriptorType())

	// byte 7: unused in the PVD, volume flags (0) in the SVD
	fillString(sector[8:40], o.SystemIdentifier)

	ids := []struct {
		field   []byte
		primary string
		joliet  string
	}{
		{sector[40:72], o.VolumeIdentifierISO, o.VolumeIdentifierJoliet},
		{sector[190:318], "", ""}, // volume set
		{sector[318:446], o.PublisherIdentifierISO, o.PublisherIdentifierJoliet},
		{sector[446:574], o.DataPreparerIdentifierISO, o.DataPreparerIdentifierJoliet},
		{sector[574:702], o.ApplicationIdentifierISO, o.ApplicationIdentifierJoliet},
		{sector[702:739], "", ""}, // copyright file
		{sector[739:776], "", ""}, // abstract file
		{sector[776:813], "", ""}, // bibliographic file
	}
	for _, id := range ids {
		if v == primaryVolume {
			fillString(id.field, id.primary)
			continue
		}
		if err := fillUCS2(id.field, id.joliet); err != nil {
			return nil, errors.Wrap(err, "joliet descriptor identifier")
		}
	}

	putBothEndian32(sector[80:88], b.totalSectors)
	if v == jolietVolume {
		copy(sector[88:120], o.JolietEscapeSequence)
	}
	putBothEndian16(sector[120:124], 1) // volume set size
	putBothEndian16(sector[124:128], 1) // volume sequence number
	putBothEndian16(sector[128:132], SectorSize)

	vl := b.volumes[v]
	putBothEndian32(sector[132:140], uint32(vl.pathTableSize))
	binary.LittleEndian.PutUint32(sector[140:144], vl.lPathTable)
	binary.LittleEndian.PutUint32(sector[144:148], vl.lPathTable2)
	binary.BigEndian.PutUint32(sector[148:152], vl.mPathTable)
	binary.BigEndian.PutUint32(sector[152:156], vl.mPathTable2)

	root := b.recordFor(0, v, rootIdentifier, false)
	rootRecord := root.appendTo(nil)
	if len(rootRecord) != 34 {
		return nil, errors.Errorf("%s root directory record is %d bytes, expected 34", v, len(rootRecord))
	}
	copy(sector[156:190], rootRecord)

	// creation, modification, expiration (not specified) and effective time
	copy(sector[813:830], formatTimestamp(b.recorded))
	copy(sector[830:847], formatTimestamp(b.recorded))
	copy(sector[847:864], formatTimestamp(time.Time{}))
	copy(sector[864:881], formatTimestamp(b.recorded))

	sector[881] = 1 // file structure version
	return sector, nil
}

// volumeDescriptorTerminator generates the VD Set Terminator sector (ECMA-119 8.3).
func volumeDescriptorTerminator() []byte {
	sector := make([]byte, SectorSize)
	descriptorHeader(sector, vdTypeTerminator)
	return sector
}
