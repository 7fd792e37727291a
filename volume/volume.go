// Package volume mounts a FAT12/16 volume on top of a block device: it
// parses and validates the boot sector, derives the on-disk geometry, and
// cross-checks redundant FAT copies for agreement.
package volume

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/fatdrv/fat16"
	"github.com/fatdrv/fat16/block"
)

// Volume is a mounted FAT12/16 volume: the parsed boot sector plus the
// geometry derived from it. A Volume borrows its block.Device for its
// lifetime; the device must outlive the volume and must not be closed while
// the volume is in use.
type Volume struct {
	device *block.Device
	boot   BootSector

	volumeStart     uint32
	volumeSize      uint32
	fatPositions    []uint32
	dirPosition     uint32
	sectorsPerDir   uint32
	dataCluster2    uint32
	bytesPerCluster uint32
}

// Mount reads the boot sector at firstSector on bd, validates it, derives
// the volume's geometry, and cross-checks every FAT copy for agreement.
//
// Mount fails with fat16.ErrInvalid if the boot sector's 0xAA55 signature is
// missing, if the FAT copies disagree, or if fat_count is zero. It fails
// with fat16.ErrRange if the volume's declared size exceeds the device's.
func Mount(bd *block.Device, firstSector uint32) (*Volume, error) {
	if bd == nil {
		return nil, fat16.ErrBadArgument.WithMessage("nil block device")
	}

	sectorBuf := make([]byte, fat16.SectorSize)
	if _, err := bd.Read(firstSector, sectorBuf, 1); err != nil {
		return nil, err
	}

	boot, err := parseBootSector(sectorBuf)
	if err != nil {
		return nil, err
	}

	if boot.FATCount == 0 {
		return nil, fat16.ErrInvalid.WithMessage("fat_count must be at least 1")
	}

	volumeSize := uint32(boot.LogicalSectors16)
	if volumeSize == 0 {
		volumeSize = boot.LogicalSectors32
	}
	if volumeSize > bd.SectorCount() {
		return nil, fat16.ErrRange.WithMessage("volume_size exceeds the size of the disk")
	}

	fatPositions := make([]uint32, boot.FATCount)
	for i := range fatPositions {
		fatPositions[i] = firstSector + uint32(boot.ReservedSectors) + uint32(i)*uint32(boot.SectorsPerFAT)
	}

	dirPosition := firstSector + uint32(boot.ReservedSectors) + uint32(boot.FATCount)*uint32(boot.SectorsPerFAT)
	sectorsPerDir := ceilDiv(uint32(boot.RootDirCapacity)*32, uint32(boot.BytesPerSector))
	dataCluster2 := dirPosition + sectorsPerDir
	bytesPerCluster := uint32(boot.SectorsPerCluster) * uint32(boot.BytesPerSector)

	v := &Volume{
		device:          bd,
		boot:            boot,
		volumeStart:     firstSector,
		volumeSize:      volumeSize,
		fatPositions:    fatPositions,
		dirPosition:     dirPosition,
		sectorsPerDir:   sectorsPerDir,
		dataCluster2:    dataCluster2,
		bytesPerCluster: bytesPerCluster,
	}

	if err := v.checkFATsAgree(); err != nil {
		return nil, err
	}

	return v, nil
}

func ceilDiv(numerator, denominator uint32) uint32 {
	return (numerator + denominator - 1) / denominator
}

// checkFATsAgree reads every adjacent pair of FAT copies in full and
// compares them byte-for-byte. Every disagreeing pair is collected into a
// single fat16.ErrInvalid via multierror, rather than failing on the first
// mismatch, so a caller diagnosing a corrupted image sees the whole picture
// at once.
func (v *Volume) checkFATsAgree() error {
	fatSize := uint32(v.boot.SectorsPerFAT) * uint32(v.boot.BytesPerSector)
	sectorsPerFAT := uint32(v.boot.SectorsPerFAT)

	var mismatches *multierror.Error
	for i := 0; i < len(v.fatPositions)-1; i++ {
		first := make([]byte, fatSize)
		second := make([]byte, fatSize)

		if _, err := v.device.Read(v.fatPositions[i], first, sectorsPerFAT); err != nil {
			return err
		}
		if _, err := v.device.Read(v.fatPositions[i+1], second, sectorsPerFAT); err != nil {
			return err
		}

		if !bytesEqual(first, second) {
			mismatches = multierror.Append(mismatches,
				fmt.Errorf("FAT #%d and FAT #%d disagree", i, i+1))
		}
	}

	if mismatches != nil {
		return fat16.ErrInvalid.WrapError(mismatches)
	}
	return nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Close releases the volume's in-memory state. It does not close the
// underlying block.Device, which the caller owns.
func (v *Volume) Close() error {
	return nil
}

// Device returns the block device the volume was mounted on.
func (v *Volume) Device() *block.Device {
	return v.device
}

// DirPosition returns the first sector of the root directory region.
func (v *Volume) DirPosition() uint32 {
	return v.dirPosition
}

// SectorsPerDir returns the number of sectors occupied by the root
// directory region.
func (v *Volume) SectorsPerDir() uint32 {
	return v.sectorsPerDir
}

// RootDirCapacity returns the number of 32-byte directory entry slots in
// the root directory.
func (v *Volume) RootDirCapacity() uint16 {
	return v.boot.RootDirCapacity
}

// DataCluster2 returns the sector address of cluster index 2, the first
// cluster of the data region.
func (v *Volume) DataCluster2() uint32 {
	return v.dataCluster2
}

// SectorsPerCluster returns the number of sectors in a single cluster.
func (v *Volume) SectorsPerCluster() uint8 {
	return v.boot.SectorsPerCluster
}

// BytesPerSector returns the size, in bytes, of a sector on this volume.
func (v *Volume) BytesPerSector() uint16 {
	return v.boot.BytesPerSector
}

// BytesPerCluster returns the size, in bytes, of a single cluster.
func (v *Volume) BytesPerCluster() uint32 {
	return v.bytesPerCluster
}

// FirstFATPosition returns the sector address of FAT copy #0.
func (v *Volume) FirstFATPosition() uint32 {
	return v.fatPositions[0]
}

// SectorsPerFAT returns the number of sectors occupied by a single FAT
// copy.
func (v *Volume) SectorsPerFAT() uint16 {
	return v.boot.SectorsPerFAT
}

// VolumeSize returns the volume's size in sectors, as declared by the boot
// sector.
func (v *Volume) VolumeSize() uint32 {
	return v.volumeSize
}

// VolumeStart returns the first sector of the volume within the block
// device.
func (v *Volume) VolumeStart() uint32 {
	return v.volumeStart
}

// Stat is a read-only snapshot of the volume's derived geometry and boot
// sector metadata, analogous in spirit to the teacher's disko.FSStat but
// trimmed to what a read-only FAT16 mount can report.
type Stat struct {
	FATCount          uint8
	SectorsPerCluster uint8
	BytesPerCluster   uint32
	RootDirCapacity   uint16
	VolumeSize        uint32
	SerialNumber      uint32
	Label             string
}

// Stat returns a snapshot of the volume's geometry.
func (v *Volume) Stat() Stat {
	return Stat{
		FATCount:          v.boot.FATCount,
		SectorsPerCluster: v.boot.SectorsPerCluster,
		BytesPerCluster:   v.bytesPerCluster,
		RootDirCapacity:   v.boot.RootDirCapacity,
		VolumeSize:        v.volumeSize,
		SerialNumber:      v.boot.SerialNumber,
		Label:             v.boot.Label,
	}
}
