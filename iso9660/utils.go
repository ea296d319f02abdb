package iso9660

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/sirupsen/logrus"
)

// sectorsToContainBytes calculates the number of sectors needed to hold byteSize data.
// Returns 0 if byteSize is 0.
func sectorsToContainBytes(byteSize int64) uint32 {
	return uint32((byteSize + SectorSize - 1) / SectorSize)
}

// sectorsToContainFileBytes calculates sectors needed for file data.
// An empty file still gets one sector so its extent points at a block of its own.
func sectorsToContainFileBytes(size uint32) uint32 {
	if size == 0 {
		return 1
	}
	return sectorsToContainBytes(int64(size))
}

func sectorOffset(lba uint32) int64 {
	return int64(lba) * SectorSize
}

// dCharacters upper-cases s, replaces everything outside A-Z, 0-9 and '_'
// with '_' and truncates the result to limit characters.
func dCharacters(s string, limit int) string {
	var sb strings.Builder
	for _, r := range strings.ToUpper(s) {
		if sb.Len() == limit {
			break
		}
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			sb.WriteRune(r)
		} else {
			sb.WriteByte('_')
		}
	}
	return sb.String()
}

// sanitizeISO9660Name converts a name to ISO 9660 level 1: at most 8
// characters for directories, 8.3 for files. The ";1" version suffix of
// files is added by the caller.
func sanitizeISO9660Name(originalName string, isDirectory bool) string {
	if isDirectory {
		if name := dCharacters(originalName, 8); name != "" {
			return name
		}
		return "DIR"
	}

	base, ext := originalName, ""
	// a leading dot (".bashrc") or a trailing one does not start an extension
	if dot := strings.LastIndex(originalName, "."); dot > 0 && dot < len(originalName)-1 {
		base, ext = originalName[:dot], originalName[dot+1:]
	}
	base = dCharacters(base, 8)
	ext = dCharacters(ext, 3)
	switch {
	case base == "":
		return "FILE"
	case ext == "":
		return base
	default:
		return base + "." + ext
	}
}

// mangleISO9660Name derives the n-th alternative of a sanitized name that
// collides with a sibling, keeping the 8.3 limits and the version suffix.
func mangleISO9660Name(name string, n int) string {
	version := ""
	if i := strings.IndexByte(name, ';'); i >= 0 {
		name, version = name[:i], name[i:]
	}
	ext := ""
	if i := strings.IndexByte(name, '.'); i >= 0 {
		name, ext = name[:i], name[i:]
	}
	suffix := strconv.Itoa(n)
	if keep := 8 - len(suffix); len(name) > keep {
		name = name[:keep]
	}
	return name + suffix + ext + version
}

// utf16Units is the number of UTF-16 code units r takes in a Joliet
// identifier; characters outside the Basic Multilingual Plane take a
// surrogate pair.
func utf16Units(r rune) int {
	if r > 0xFFFF && r <= unicode.MaxRune {
		return 2
	}
	return 1
}

// truncateUTF16 cuts s to at most limit UTF-16 code units without splitting
// a surrogate pair. Invalid UTF-8 becomes U+FFFD, as the encoder does.
func truncateUTF16(s string, limit int) (string, bool) {
	var sb strings.Builder
	units := 0
	for _, r := range s {
		n := utf16Units(r)
		if units+n > limit {
			return sb.String(), true
		}
		units += n
		sb.WriteRune(r)
	}
	return sb.String(), false
}

// truncateJolietName truncates a name longer than JolietMaxFilenameChars
// UTF-16 code units.
func truncateJolietName(originalName string) string {
	truncated, cut := truncateUTF16(originalName, JolietMaxFilenameChars)
	if !cut {
		return originalName
	}
	logrus.Warnf("joliet name %q truncated to %q (%d char limit)", originalName, truncated, JolietMaxFilenameChars)
	return truncated
}

// mangleJolietName derives the n-th alternative of a colliding Joliet name.
func mangleJolietName(name string, n int) string {
	suffix := fmt.Sprintf("~%d", n)
	name, _ = truncateUTF16(name, JolietMaxFilenameChars-len(suffix))
	return name + suffix
}

// formatTimestamp creates a 17-byte volume descriptor timestamp
// (ECMA-119 8.4.26.1). The zero time is encoded as "not specified".
func formatTimestamp(t time.Time) []byte {
	ts := make([]byte, 17)
	if t.IsZero() {
		copy(ts, "0000000000000000")
		return ts
	}
	t = t.UTC()
	copy(ts, fmt.Sprintf("%04d%02d%02d%02d%02d%02d%02d",
		t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond()/1e7))
	return ts // GMT offset byte stays 0
}

// putRecordingTime writes the 7-byte directory record timestamp (ECMA-119 9.1.5).
func putRecordingTime(dst []byte, t time.Time) {
	t = t.UTC()
	dst[0] = byte(t.Year() - 1900)
	dst[1] = byte(t.Month())
	dst[2] = byte(t.Day())
	dst[3] = byte(t.Hour())
	dst[4] = byte(t.Minute())
	dst[5] = byte(t.Second())
	dst[6] = 0
}

// putBothEndian16 writes v little endian then big endian (ECMA-119 7.2.3).
func putBothEndian16(dst []byte, v uint16) {
	binary.LittleEndian.PutUint16(dst[0:2], v)
	binary.BigEndian.PutUint16(dst[2:4], v)
}

// putBothEndian32 writes v little endian then big endian (ECMA-119 7.3.3).
func putBothEndian32(dst []byte, v uint32) {
	binary.LittleEndian.PutUint32(dst[0:4], v)
	binary.BigEndian.PutUint32(dst[4:8], v)
}

// fillString fills dst with s, truncated or padded with spaces.
func fillString(dst []byte, s string) {
	n := copy(dst, s)
	for i := n; i < len(dst); i++ {
		dst[i] = ' '
	}
}

// fillUCS2 fills dst with s encoded as UCS-2 big endian, truncated to whole
// characters and padded with UCS-2 spaces. An odd trailing byte stays zero.
func fillUCS2(dst []byte, s string) error {
	s, _ = truncateUTF16(s, len(dst)/2)
	encoded, err := encodeName(JolietEncoding, s)
	if err != nil {
		return err
	}
	n := copy(dst, encoded)
	for ; n+1 < len(dst); n += 2 {
		dst[n], dst[n+1] = 0x00, ' '
	}
	return nil
}
