// Package dirent parses 32-byte FAT directory entries and formats their
// 8.3 on-disk names into the conventional "NAME.EXT" form.
package dirent

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/fatdrv/fat16"
)

// Size is the size, in bytes, of a single directory entry slot.
const Size = 32

// Attribute bit flags, per the FAT12/16 on-disk format.
const (
	AttrReadOnly    = 0x01
	AttrHidden      = 0x02
	AttrSystem      = 0x04
	AttrVolumeLabel = 0x08
	AttrDirectory   = 0x10
	AttrArchive     = 0x20
)

// DirEntry is the parsed, user-friendly form of a 32-byte directory entry.
type DirEntry struct {
	name              string
	Attributes        uint8
	CreationTenths    uint8
	CreationTime      uint16
	CreationDate      uint16
	LastAccessedDate  uint16
	HighClusterIndex  uint16
	LastModifiedTime  uint16
	LastModifiedDate  uint16
	LowClusterIndex   uint16
	size              uint32
}

// Marker identifies the special meaning, if any, of a directory entry
// slot's first name byte.
type Marker int

const (
	// MarkerNone indicates a normal, in-use entry.
	MarkerNone Marker = iota
	// MarkerEndOfDirectory indicates the first byte of the name is 0x00:
	// this slot, and every slot after it, has never been used.
	MarkerEndOfDirectory
	// MarkerDeleted indicates the first byte of the name is 0xE5: the slot
	// held a file that has since been deleted.
	MarkerDeleted
)

// NameMarker inspects the first byte of a raw 32-byte slot without fully
// parsing it, so callers can decide whether to skip the slot.
func NameMarker(raw []byte) Marker {
	switch raw[0] {
	case 0x00:
		return MarkerEndOfDirectory
	case 0xE5:
		return MarkerDeleted
	default:
		return MarkerNone
	}
}

// Parse decodes a 32-byte directory entry slot and computes its formatted
// name. It does not interpret the first-byte markers handled by
// NameMarker; callers are expected to check those first when that
// distinction matters (see fat16/dir and fat16/file).
func Parse(raw []byte) (DirEntry, error) {
	if len(raw) != Size {
		return DirEntry{}, fat16.ErrBadArgument.WithMessage("directory entry must be exactly 32 bytes")
	}

	e := DirEntry{
		Attributes:       raw[11],
		CreationTenths:   raw[13],
		CreationTime:     binary.LittleEndian.Uint16(raw[14:16]),
		CreationDate:     binary.LittleEndian.Uint16(raw[16:18]),
		LastAccessedDate: binary.LittleEndian.Uint16(raw[18:20]),
		HighClusterIndex: binary.LittleEndian.Uint16(raw[20:22]),
		LastModifiedTime: binary.LittleEndian.Uint16(raw[22:24]),
		LastModifiedDate: binary.LittleEndian.Uint16(raw[24:26]),
		LowClusterIndex:  binary.LittleEndian.Uint16(raw[26:28]),
		size:             binary.LittleEndian.Uint32(raw[28:32]),
	}
	e.name = FormatName(raw[0:8], raw[8:11])
	return e, nil
}

// FormatName trims trailing spaces from the 8-byte name field and, if the
// 3-byte extension field is present, appends it after a separating '.'.
func FormatName(nameField, extField []byte) string {
	name := strings.TrimRight(string(nameField), " ")
	if extField[0] != ' ' {
		ext := strings.TrimRight(string(extField), " ")
		return name + "." + ext
	}
	return name
}

// Name returns the formatted "NAME.EXT" name of the entry.
func (e DirEntry) Name() string { return e.name }

// Size returns the file size in bytes as recorded in the directory entry.
func (e DirEntry) Size() int64 { return int64(e.size) }

// FirstCluster returns the starting cluster of the entry's data, combining
// the high and low cluster index fields. On FAT12/16, HighClusterIndex must
// be 0.
func (e DirEntry) FirstCluster() uint32 {
	return (uint32(e.HighClusterIndex) << 16) | uint32(e.LowClusterIndex)
}

// IsDir reports whether the entry's directory attribute bit is set.
func (e DirEntry) IsDir() bool { return e.Attributes&AttrDirectory != 0 }

// IsDirectory is an alias for IsDir, matching the attribute name used by
// the on-disk format.
func (e DirEntry) IsDirectory() bool { return e.IsDir() }

// IsVolumeLabel reports whether the entry's volume-label attribute bit is
// set.
func (e DirEntry) IsVolumeLabel() bool { return e.Attributes&AttrVolumeLabel != 0 }

// IsReadOnly reports whether the entry's read-only attribute bit is set.
func (e DirEntry) IsReadOnly() bool { return e.Attributes&AttrReadOnly != 0 }

// IsHidden reports whether the entry's hidden attribute bit is set.
func (e DirEntry) IsHidden() bool { return e.Attributes&AttrHidden != 0 }

// IsSystem reports whether the entry's system attribute bit is set.
func (e DirEntry) IsSystem() bool { return e.Attributes&AttrSystem != 0 }

// IsArchive reports whether the entry's archive attribute bit is set.
func (e DirEntry) IsArchive() bool { return e.Attributes&AttrArchive != 0 }

// ModTime decodes LastModifiedDate and LastModifiedTime into a time.Time,
// in the local timezone implied by the on-disk fields (FAT timestamps
// carry no timezone of their own).
func (e DirEntry) ModTime() time.Time {
	return dosTimestamp(e.LastModifiedDate, e.LastModifiedTime)
}

// dosDate converts a packed FAT date field (bits 15-9 year since 1980,
// 8-5 month, 4-0 day) into a time.Time at midnight.
func dosDate(value uint16) time.Time {
	day := int(value & 0x1f)
	month := time.Month((value >> 5) & 0x0f)
	year := 1980 + int(value>>9)
	return time.Date(year, month, day, 0, 0, 0, 0, time.Local)
}

// dosTimestamp converts a packed FAT date/time pair (bits 15-11 hours,
// 10-5 minutes, 4-0 seconds/2) into a time.Time.
func dosTimestamp(datePart, timePart uint16) time.Time {
	d := dosDate(datePart)
	seconds := int(timePart&0x1f) * 2
	minutes := int((timePart >> 5) & 0x3f)
	hours := int(timePart >> 11)
	return time.Date(d.Year(), d.Month(), d.Day(), hours, minutes, seconds, 0, time.Local)
}
