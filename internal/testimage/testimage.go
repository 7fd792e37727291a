// Package testimage builds small synthetic FAT16 disk images in memory for
// use by the package test suites in this module. It plays the same role as
// the teacher's top-level "testing" package, but synthesizes images
// byte-by-byte instead of decompressing embedded fixtures, since this
// module has no existing corpus of FAT16 images to embed.
package testimage

import (
	"encoding/binary"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// Builder assembles a minimal, valid FAT16 boot sector, FAT tables, root
// directory, and data region that can be written to a temp file and mounted
// by volume.Mount.
type Builder struct {
	BytesPerSector    uint16
	SectorsPerCluster uint8
	ReservedSectors   uint16
	FATCount          uint8
	RootDirCapacity   uint16
	SectorsPerFAT     uint16
	TotalClusters     uint16 // number of data clusters to allocate room for

	fatEntries map[uint16]uint16
	dirEntries map[int][]byte
	clusters   map[uint16][]byte
}

// NewBuilder returns a Builder pre-populated with the geometry from spec.md
// scenario S1: 512-byte sectors, 1 sector/cluster, 1 reserved sector, 2
// FATs of 9 sectors each, and a 224-entry root directory.
func NewBuilder() *Builder {
	return &Builder{
		BytesPerSector:    512,
		SectorsPerCluster: 1,
		ReservedSectors:   1,
		FATCount:          2,
		RootDirCapacity:   224,
		SectorsPerFAT:     9,
		TotalClusters:     16,
		fatEntries:        map[uint16]uint16{},
		dirEntries:        map[int][]byte{},
		clusters:          map[uint16][]byte{},
	}
}

// SetFATEntry records the value of FAT cell `cluster`, mirrored identically
// into every FAT copy.
func (b *Builder) SetFATEntry(cluster uint16, value uint16) *Builder {
	b.fatEntries[cluster] = value
	return b
}

// SetDirEntry writes a 32-byte directory entry at root directory slot
// `index`. name and ext are space-padded/truncated to 8 and 3 bytes.
func (b *Builder) SetDirEntry(index int, name, ext string, attrib byte, firstCluster uint16, size uint32) *Builder {
	entry := make([]byte, 32)
	copy(entry[0:8], padRight(name, 8))
	copy(entry[8:11], padRight(ext, 3))
	entry[11] = attrib
	binary.LittleEndian.PutUint16(entry[26:28], firstCluster)
	binary.LittleEndian.PutUint32(entry[28:32], size)
	b.dirEntries[index] = entry
	return b
}

// SetRawDirEntry installs an already-encoded 32-byte entry verbatim, for
// tests that need to exercise unusual first-byte markers (0x00, 0xE5).
func (b *Builder) SetRawDirEntry(index int, entry []byte) *Builder {
	if len(entry) != 32 {
		panic("directory entry must be exactly 32 bytes")
	}
	cp := make([]byte, 32)
	copy(cp, entry)
	b.dirEntries[index] = cp
	return b
}

// SetClusterData installs the raw contents of data cluster `cluster`
// (index >= 2).
func (b *Builder) SetClusterData(cluster uint16, data []byte) *Builder {
	b.clusters[cluster] = data
	return b
}

func padRight(s string, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = ' '
	}
	copy(out, s)
	return out
}

func (b *Builder) sectorsPerDir() uint16 {
	return uint16((uint32(b.RootDirCapacity)*32 + uint32(b.BytesPerSector) - 1) / uint32(b.BytesPerSector))
}

func (b *Builder) dataRegionSector() uint32 {
	return uint32(b.ReservedSectors) + uint32(b.FATCount)*uint32(b.SectorsPerFAT) + uint32(b.sectorsPerDir())
}

// Bytes assembles the full disk image.
func (b *Builder) Bytes() []byte {
	totalSectors := b.dataRegionSector() + uint32(b.TotalClusters)*uint32(b.SectorsPerCluster)
	image := make([]byte, totalSectors*uint32(b.BytesPerSector))

	boot := image[0:b.BytesPerSector]
	boot[0], boot[1], boot[2] = 0xEB, 0x3C, 0x90
	copy(boot[3:11], []byte("FAT16TST"))
	binary.LittleEndian.PutUint16(boot[11:13], b.BytesPerSector)
	boot[13] = b.SectorsPerCluster
	binary.LittleEndian.PutUint16(boot[14:16], b.ReservedSectors)
	boot[16] = b.FATCount
	binary.LittleEndian.PutUint16(boot[17:19], b.RootDirCapacity)
	binary.LittleEndian.PutUint16(boot[19:21], uint16(totalSectors))
	binary.LittleEndian.PutUint16(boot[22:24], b.SectorsPerFAT)
	binary.LittleEndian.PutUint32(boot[39:43], 0xDEADBEEF) // serial number
	copy(boot[43:54], padRight("TESTVOL", 11))
	copy(boot[54:62], padRight("FAT16", 8))
	binary.LittleEndian.PutUint16(boot[510:512], 0xAA55)

	fatBytes := make([]byte, uint32(b.SectorsPerFAT)*uint32(b.BytesPerSector))
	binary.LittleEndian.PutUint16(fatBytes[0:2], 0xFFF8) // media descriptor cell
	binary.LittleEndian.PutUint16(fatBytes[2:4], 0xFFFF)  // fat_table[1], EOC marker
	for cluster, value := range b.fatEntries {
		offset := int(cluster) * 2
		binary.LittleEndian.PutUint16(fatBytes[offset:offset+2], value)
	}

	for i := 0; i < int(b.FATCount); i++ {
		start := (uint32(b.ReservedSectors) + uint32(i)*uint32(b.SectorsPerFAT)) * uint32(b.BytesPerSector)
		copy(image[start:], fatBytes)
	}

	dirStart := (uint32(b.ReservedSectors) + uint32(b.FATCount)*uint32(b.SectorsPerFAT)) * uint32(b.BytesPerSector)
	for index, entry := range b.dirEntries {
		offset := dirStart + uint32(index)*32
		copy(image[offset:offset+32], entry)
	}

	dataStart := b.dataRegionSector() * uint32(b.BytesPerSector)
	for cluster, data := range b.clusters {
		clusterOffset := dataStart + uint32(cluster-2)*uint32(b.SectorsPerCluster)*uint32(b.BytesPerSector)
		copy(image[clusterOffset:], data)
	}

	return image
}

// CorruptFATCopy flips a single byte inside FAT copy `fatIndex`, after the
// fixed cells used for the media descriptor and EOC marker, so the copy
// disagrees with its siblings without breaking chain-walking semantics.
func (b *Builder) CorruptFATCopy(image []byte, fatIndex int) {
	start := (uint32(b.ReservedSectors) + uint32(fatIndex)*uint32(b.SectorsPerFAT)) * uint32(b.BytesPerSector)
	image[start+16] ^= 0xFF
}

// WriteTempFile writes the built image to a temp file and returns its path.
// The file is removed automatically when the test completes.
func (b *Builder) WriteTempFile(t *testing.T) string {
	t.Helper()
	return WriteTempFile(t, b.Bytes())
}

// WriteTempFile writes arbitrary image bytes to a temp file and returns its
// path, removing it when the test completes.
func WriteTempFile(t *testing.T, data []byte) string {
	t.Helper()
	f, err := os.CreateTemp("", "fat16-image-*.img")
	require.NoError(t, err)
	t.Cleanup(func() { os.Remove(f.Name()) })

	_, err = f.Write(data)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return f.Name()
}
