package block_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"

	"github.com/fatdrv/fat16/block"
)

func writeTempImage(t *testing.T, sectors int) string {
	t.Helper()
	f, err := os.CreateTemp("", "fat16-block-*.img")
	require.NoError(t, err)
	t.Cleanup(func() { os.Remove(f.Name()) })
	defer f.Close()

	data := make([]byte, sectors*512)
	for i := range data {
		data[i] = byte(i % 251)
	}
	_, err = f.Write(data)
	require.NoError(t, err)
	return f.Name()
}

func TestOpenMeasuresWholeSectorsOnly(t *testing.T) {
	f, err := os.CreateTemp("", "fat16-block-partial-*.img")
	require.NoError(t, err)
	defer os.Remove(f.Name())
	_, err = f.Write(make([]byte, 512+100))
	require.NoError(t, err)
	f.Close()

	dev, err := block.Open(f.Name())
	require.NoError(t, err)
	defer dev.Close()

	require.EqualValues(t, 1, dev.SectorCount(), "trailing partial sector must be excluded")
}

func TestOpenNonexistentFails(t *testing.T) {
	_, err := block.Open("/nonexistent/path/to/an/image.img")
	require.Error(t, err)
}

func TestReadExactSectors(t *testing.T) {
	path := writeTempImage(t, 4)
	dev, err := block.Open(path)
	require.NoError(t, err)
	defer dev.Close()

	buf := make([]byte, 512*2)
	n, err := dev.Read(1, buf, 2)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	expected := make([]byte, 512*2)
	for i := range expected {
		expected[i] = byte((i + 512) % 251)
	}
	require.Equal(t, expected, buf)
}

func TestReadPastEndFailsRange(t *testing.T) {
	path := writeTempImage(t, 2)
	dev, err := block.Open(path)
	require.NoError(t, err)
	defer dev.Close()

	buf := make([]byte, 512*2)
	_, err = dev.Read(1, buf, 2)
	require.Error(t, err)
}

func TestOpenReadSeekerWrapsInMemoryImage(t *testing.T) {
	data := make([]byte, 512*3)
	for i := range data {
		data[i] = byte(i % 251)
	}

	dev, err := block.OpenReadSeeker(bytesextra.NewReadWriteSeeker(data), 3)
	require.NoError(t, err)
	defer dev.Close()

	require.EqualValues(t, 3, dev.SectorCount())

	buf := make([]byte, 512)
	n, err := dev.Read(2, buf, 1)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	expected := make([]byte, 512)
	for i := range expected {
		expected[i] = byte((i + 1024) % 251)
	}
	require.Equal(t, expected, buf)
}

func TestCloseThenReadFails(t *testing.T) {
	path := writeTempImage(t, 1)
	dev, err := block.Open(path)
	require.NoError(t, err)
	require.NoError(t, dev.Close())

	buf := make([]byte, 512)
	_, err = dev.Read(0, buf, 1)
	require.Error(t, err)
}
