package dirent_test

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fatdrv/fat16/dirent"
)

func entry(name, ext string, attrib byte, cluster uint16, size uint32) []byte {
	raw := make([]byte, 32)
	copy(raw[0:8], padRight(name, 8))
	copy(raw[8:11], padRight(ext, 3))
	raw[11] = attrib
	raw[26] = byte(cluster)
	raw[27] = byte(cluster >> 8)
	raw[28] = byte(size)
	raw[29] = byte(size >> 8)
	raw[30] = byte(size >> 16)
	raw[31] = byte(size >> 24)
	return raw
}

func padRight(s string, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = ' '
	}
	copy(out, s)
	return out
}

func TestFormatNameWithExtension(t *testing.T) {
	require.Equal(t, "HELLO.TXT", dirent.FormatName(padRight("HELLO", 8), padRight("TXT", 3)))
}

func TestFormatNameWithoutExtension(t *testing.T) {
	require.Equal(t, "README", dirent.FormatName(padRight("README", 8), padRight("", 3)))
}

func TestParseRegularFile(t *testing.T) {
	raw := entry("HELLO", "TXT", 0, 2, 5)
	e, err := dirent.Parse(raw)
	require.NoError(t, err)

	require.Equal(t, "HELLO.TXT", e.Name())
	require.EqualValues(t, 5, e.Size())
	require.EqualValues(t, 2, e.FirstCluster())
	require.False(t, e.IsDir())
}

func TestParseDirectoryAttribute(t *testing.T) {
	raw := entry("SUBDIR", "", dirent.AttrDirectory, 5, 0)
	e, err := dirent.Parse(raw)
	require.NoError(t, err)

	require.True(t, e.IsDir())
	require.True(t, e.IsDirectory())
}

func TestParseVolumeLabelAttribute(t *testing.T) {
	raw := entry("TESTVOL", "", dirent.AttrVolumeLabel, 0, 0)
	e, err := dirent.Parse(raw)
	require.NoError(t, err)

	require.True(t, e.IsVolumeLabel())
}

func TestNameMarkerDetectsEndAndDeleted(t *testing.T) {
	end := entry("", "", 0, 0, 0)
	end[0] = 0x00
	require.Equal(t, dirent.MarkerEndOfDirectory, dirent.NameMarker(end))

	deleted := entry("OLDFILE", "TXT", 0, 2, 5)
	deleted[0] = 0xE5
	require.Equal(t, dirent.MarkerDeleted, dirent.NameMarker(deleted))

	live := entry("FILE", "TXT", 0, 2, 5)
	require.Equal(t, dirent.MarkerNone, dirent.NameMarker(live))
}

func TestModTimeDecodesPackedDateAndTime(t *testing.T) {
	raw := entry("HELLO", "TXT", 0, 2, 5)
	// LastModifiedDate (raw[24:26]): year 2020 (1980+40=0x28 -> 0101000),
	// month 7, day 28 -> 0b0101000_0111_11100 = 0x50FC.
	binary.LittleEndian.PutUint16(raw[24:26], 0x50FC)
	// LastModifiedTime (raw[22:24]): hours 13, minutes 30, seconds/2 15
	// (30s) -> 0b01101_011110_01111 = 0x6BCF.
	binary.LittleEndian.PutUint16(raw[22:24], 0x6BCF)

	e, err := dirent.Parse(raw)
	require.NoError(t, err)

	mt := e.ModTime()
	require.Equal(t, 2020, mt.Year())
	require.Equal(t, time.Month(7), mt.Month())
	require.Equal(t, 28, mt.Day())
	require.Equal(t, 13, mt.Hour())
	require.Equal(t, 30, mt.Minute())
	require.Equal(t, 30, mt.Second())
}

func TestParseRejectsWrongSize(t *testing.T) {
	_, err := dirent.Parse(make([]byte, 10))
	require.Error(t, err)
}
