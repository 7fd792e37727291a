package dir_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fatdrv/fat16"
	"github.com/fatdrv/fat16/block"
	"github.com/fatdrv/fat16/dir"
	"github.com/fatdrv/fat16/dirent"
	"github.com/fatdrv/fat16/internal/testimage"
	"github.com/fatdrv/fat16/volume"
)

func mountImage(t *testing.T, b *testimage.Builder) *volume.Volume {
	t.Helper()
	path := b.WriteTempFile(t)
	dev, err := block.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { dev.Close() })

	v, err := volume.Mount(dev, 0)
	require.NoError(t, err)
	return v
}

func TestOpenRejectsNonRootPath(t *testing.T) {
	b := testimage.NewBuilder()
	v := mountImage(t, b)

	_, err := dir.Open(v, "subdir")
	require.Error(t, err)
}

func TestOpenAcceptsRoot(t *testing.T) {
	b := testimage.NewBuilder()
	v := mountImage(t, b)

	d, err := dir.Open(v, `\`)
	require.NoError(t, err)
	require.NoError(t, d.Close())
}

// TestReadSkipsFreeAndDeletedSlots covers S5: slot 0 is 0x00 (end marker,
// but still skipped rather than halting the scan), slot 1 is a live file,
// slot 2 is deleted (0xE5), slot 3 is a live file.
func TestReadSkipsFreeAndDeletedSlots(t *testing.T) {
	b := testimage.NewBuilder()

	freeSlot := make([]byte, 32)
	b.SetRawDirEntry(0, freeSlot)
	b.SetDirEntry(1, "FIRST", "TXT", 0, 2, 1)

	deletedSlot := make([]byte, 32)
	deletedSlot[0] = 0xE5
	b.SetRawDirEntry(2, deletedSlot)
	b.SetDirEntry(3, "SECOND", "TXT", 0, 3, 1)

	v := mountImage(t, b)
	d, err := dir.Open(v, `\`)
	require.NoError(t, err)

	var entry dirent.DirEntry

	ok, err := d.Read(&entry)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "FIRST.TXT", entry.Name())

	ok, err = d.Read(&entry)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "SECOND.TXT", entry.Name())

	ok, err = d.Read(&entry)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestReadSkipsVolumeLabel(t *testing.T) {
	b := testimage.NewBuilder()
	b.SetDirEntry(0, "TESTVOL", "", dirent.AttrVolumeLabel, 0, 0)
	b.SetDirEntry(1, "REAL", "TXT", 0, 2, 1)

	v := mountImage(t, b)
	d, err := dir.Open(v, `\`)
	require.NoError(t, err)

	var entry dirent.DirEntry
	ok, err := d.Read(&entry)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "REAL.TXT", entry.Name())

	ok, err = d.Read(&entry)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestFindFileResolvesByName(t *testing.T) {
	b := testimage.NewBuilder()
	b.SetDirEntry(0, "HELLO", "TXT", 0, 2, 5)
	b.SetClusterData(2, []byte("HELLO"))

	v := mountImage(t, b)
	entry, err := dir.FindFile(v, "HELLO.TXT")
	require.NoError(t, err)
	require.EqualValues(t, 5, entry.Size())
	require.EqualValues(t, 2, entry.FirstCluster())
}

func TestFindFileNotFound(t *testing.T) {
	b := testimage.NewBuilder()
	v := mountImage(t, b)

	_, err := dir.FindFile(v, "NOPE.TXT")
	require.Error(t, err)
}

func TestFindFileDirectoryFails(t *testing.T) {
	b := testimage.NewBuilder()
	b.SetDirEntry(0, "SUBDIR", "", dirent.AttrDirectory, 5, 0)

	v := mountImage(t, b)
	_, err := dir.FindFile(v, "SUBDIR")
	require.Error(t, err)
	require.ErrorIs(t, err, fat16.ErrIsDir)
}
