package iso9660

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeISO9660Name(t *testing.T) {
	tests := []struct {
		name  string
		isDir bool
		want  string
	}{
		{"hello.txt", false, "HELLO.TXT"},
		{"README", false, "README"},
		{"my file-name.tar.gz", false, "MY_FILE_.GZ"},
		{".bashrc", false, "_BASHRC"},
		{"trailing.", false, "TRAILING"},
		{"archive.jpeg", false, "ARCHIVE.JPE"},
		{"émoji.txt", false, "_MOJI.TXT"},
		{"docs", true, "DOCS"},
		{"verylongdirectory", true, "VERYLONG"},
		{"v1.2", true, "V1_2"},
		{"", true, "DIR"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeISO9660Name(tt.name, tt.isDir), "%q dir=%v", tt.name, tt.isDir)
	}
}

func TestMangleNames(t *testing.T) {
	assert.Equal(t, "LONGFIL1.TXT;1", mangleISO9660Name("LONGFILE.TXT;1", 1))
	assert.Equal(t, "A12;1", mangleISO9660Name("A;1", 12))
	assert.Equal(t, "DOCS2", mangleISO9660Name("DOCS", 2))
	assert.Equal(t, "LONGFI10", mangleISO9660Name("LONGFILE", 10))

	assert.Equal(t, "name~3", mangleJolietName("name", 3))
	long := strings.Repeat("x", JolietMaxFilenameChars)
	mangled := mangleJolietName(long, 1)
	assert.Len(t, []rune(mangled), JolietMaxFilenameChars)
	assert.True(t, strings.HasSuffix(mangled, "~1"))
}

func TestTruncateJolietName(t *testing.T) {
	assert.Equal(t, "short.txt", truncateJolietName("short.txt"))
	long := strings.Repeat("é", JolietMaxFilenameChars+6)
	assert.Equal(t, strings.Repeat("é", JolietMaxFilenameChars), truncateJolietName(long))

	face := "\U0001F600"
	assert.Equal(t, strings.Repeat(face, 32), truncateJolietName(strings.Repeat(face, 60)))
	// a surrogate pair that does not fit is dropped whole
	edge := strings.Repeat("a", JolietMaxFilenameChars-1)
	assert.Equal(t, edge, truncateJolietName(edge+face))
	assert.Equal(t, strings.Repeat(face, 31)+"~1", mangleJolietName(strings.Repeat(face, 32), 1))
}

func TestListingSize(t *testing.T) {
	assert.Equal(t, 0, listingSize(nil))
	assert.Equal(t, 68, listingSize([]int{34, 34}))

	sizes := make([]int, 61)
	for i := range sizes {
		sizes[i] = 34
	}
	// 60 records fill 2040 bytes; the 61st would straddle the sector
	assert.Equal(t, SectorSize+34, listingSize(sizes))

	assert.Equal(t, SectorSize, listingSize([]int{1024, 1024}))
}

func TestSectorHelpers(t *testing.T) {
	assert.Equal(t, uint32(0), sectorsToContainBytes(0))
	assert.Equal(t, uint32(1), sectorsToContainBytes(1))
	assert.Equal(t, uint32(1), sectorsToContainBytes(SectorSize))
	assert.Equal(t, uint32(2), sectorsToContainBytes(SectorSize+1))
	assert.Equal(t, uint32(1), sectorsToContainFileBytes(0))
	assert.Equal(t, uint32(3), sectorsToContainFileBytes(2*SectorSize+5))
	assert.Equal(t, int64(19*SectorSize), sectorOffset(19))
}

func TestTimestamps(t *testing.T) {
	ts := formatTimestamp(time.Date(2024, 1, 2, 3, 4, 5, 670000000, time.UTC))
	assert.Equal(t, append([]byte("2024010203040567"), 0), ts)
	assert.Equal(t, append([]byte("0000000000000000"), 0), formatTimestamp(time.Time{}))

	rec := make([]byte, 7)
	putRecordingTime(rec, time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("x", 3600)))
	assert.Equal(t, []byte{124, 1, 2, 2, 4, 5, 0}, rec)
}

func TestEndianHelpers(t *testing.T) {
	b := make([]byte, 8)
	putBothEndian32(b, 0x01020304)
	assert.Equal(t, []byte{4, 3, 2, 1, 1, 2, 3, 4}, b)

	putBothEndian16(b[:4], 0x0102)
	assert.Equal(t, []byte{2, 1, 1, 2}, b[:4])
}

func TestFillHelpers(t *testing.T) {
	b := make([]byte, 6)
	fillString(b, "ab")
	assert.Equal(t, []byte("ab    "), b)
	fillString(b, "abcdefgh")
	assert.Equal(t, []byte("abcdef"), b)

	u := make([]byte, 5)
	require.NoError(t, fillUCS2(u, "abc"))
	assert.Equal(t, []byte{0, 'a', 0, 'b', 0}, u)

	u = make([]byte, 7)
	require.NoError(t, fillUCS2(u, "a"))
	assert.Equal(t, []byte{0, 'a', 0, ' ', 0, ' ', 0}, u)

	u = make([]byte, 6)
	require.NoError(t, fillUCS2(u, "ab\U0001F600"))
	assert.Equal(t, []byte{0, 'a', 0, 'b', 0, ' '}, u)
}
