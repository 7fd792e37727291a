package volume

import (
	"bytes"
	"encoding/binary"

	"github.com/fatdrv/fat16"
)

// bootSignature is the value the last two bytes of a valid boot sector must
// hold.
const bootSignature = 0xAA55

// rawBootSector is the on-disk, packed representation of the 512-byte boot
// sector, deserialised field-by-field rather than overlaid as a C struct so
// that decoding stays portable across host endianness. Field sizes and
// order follow the classic FAT12/16 BIOS Parameter Block layout.
type rawBootSector struct {
	JumpCode          [3]byte
	OEMName           [8]byte
	BytesPerSector    uint16
	SectorsPerCluster uint8
	ReservedSectors   uint16
	FATCount          uint8
	RootDirCapacity   uint16
	LogicalSectors16  uint16
	Media             uint8
	SectorsPerFAT     uint16
	SectorsPerTrack   uint16
	NumHeads          uint16
	HiddenSectors     uint32
	LogicalSectors32  uint32
	DriveNumber       uint8
	Reserved1         uint8
	ExtBootSignature  uint8
	SerialNumber      uint32
	Label             [11]byte
	FSID              [8]byte
	BootCode          [448]byte
	Signature         uint16
}

// BootSector is the parsed, user-friendly form of the boot sector's BPB
// fields. The geometry derived from them is computed by Mount and held on
// Volume.
type BootSector struct {
	BytesPerSector    uint16
	SectorsPerCluster uint8
	ReservedSectors   uint16
	FATCount          uint8
	RootDirCapacity   uint16
	LogicalSectors16  uint16
	SectorsPerFAT     uint16
	HiddenSectors     uint32
	LogicalSectors32  uint32
	SerialNumber      uint32
	Label             string
	FSID              string
}

// parseBootSector decodes exactly fat16.SectorSize bytes into a BootSector,
// failing fat16.ErrInvalid if the 0xAA55 signature is missing.
func parseBootSector(sector []byte) (BootSector, error) {
	if len(sector) != fat16.SectorSize {
		return BootSector{}, fat16.ErrBadArgument.WithMessage("boot sector must be exactly one sector")
	}

	var raw rawBootSector
	if err := binary.Read(bytes.NewReader(sector), binary.LittleEndian, &raw); err != nil {
		return BootSector{}, fat16.ErrIO.WrapError(err)
	}

	if raw.Signature != bootSignature {
		return BootSector{}, fat16.ErrInvalid.WithMessage("boot sector signature is not 0xAA55")
	}

	return BootSector{
		BytesPerSector:    raw.BytesPerSector,
		SectorsPerCluster: raw.SectorsPerCluster,
		ReservedSectors:   raw.ReservedSectors,
		FATCount:          raw.FATCount,
		RootDirCapacity:   raw.RootDirCapacity,
		LogicalSectors16:  raw.LogicalSectors16,
		SectorsPerFAT:     raw.SectorsPerFAT,
		HiddenSectors:     raw.HiddenSectors,
		LogicalSectors32:  raw.LogicalSectors32,
		SerialNumber:      raw.SerialNumber,
		Label:             trimTrailingSpaces(raw.Label[:]),
		FSID:              trimTrailingSpaces(raw.FSID[:]),
	}, nil
}

func trimTrailingSpaces(b []byte) string {
	end := len(b)
	for end > 0 && b[end-1] == ' ' {
		end--
	}
	return string(b[:end])
}
