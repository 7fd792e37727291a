// Package dir implements root-directory enumeration and name resolution for
// a mounted FAT12/16 volume (spec §4.3). Only the root directory is
// supported; there is no support for descending into subdirectories.
package dir

import (
	"github.com/fatdrv/fat16"
	"github.com/fatdrv/fat16/dirent"
	"github.com/fatdrv/fat16/volume"
)

// rootPath is the sole directory path this driver accepts.
const rootPath = `\`

// readRegion reads the entire root directory region of v into memory.
func readRegion(v *volume.Volume) ([]byte, error) {
	buf := make([]byte, v.SectorsPerDir()*uint32(v.BytesPerSector()))
	if _, err := v.Device().Read(v.DirPosition(), buf, v.SectorsPerDir()); err != nil {
		return nil, err
	}
	return buf, nil
}

func slotAt(region []byte, index int) []byte {
	return region[index*dirent.Size : (index+1)*dirent.Size]
}

// FindFile resolves name against the root directory of v. name is compared
// byte-for-byte against each entry's formatted 8.3 name; the caller is
// expected to supply the uppercase, dotted form (e.g. "HELLO.TXT").
//
// The scan does not stop at the first end-of-directory marker (0x00): every
// slot up to the root directory's capacity is checked, so a sparse
// directory (one with holes before live entries) still resolves correctly.
// It returns fat16.ErrIsDir if name resolves to a directory or volume-label
// entry, and fat16.ErrNotFound if no slot matches.
func FindFile(v *volume.Volume, name string) (dirent.DirEntry, error) {
	if v == nil {
		return dirent.DirEntry{}, fat16.ErrBadArgument.WithMessage("nil volume")
	}

	region, err := readRegion(v)
	if err != nil {
		return dirent.DirEntry{}, err
	}

	capacity := int(v.RootDirCapacity())
	for i := 0; i < capacity; i++ {
		slot := slotAt(region, i)
		if dirent.NameMarker(slot) == dirent.MarkerDeleted {
			continue
		}

		entry, err := dirent.Parse(slot)
		if err != nil {
			return dirent.DirEntry{}, err
		}

		if entry.Name() != name {
			continue
		}
		if entry.IsDirectory() || entry.IsVolumeLabel() {
			return dirent.DirEntry{}, fat16.ErrIsDir.WithMessage(name)
		}
		return entry, nil
	}

	return dirent.DirEntry{}, fat16.ErrNotFound.WithMessage(name)
}

// View enumerates the entries of the root directory across successive Read
// calls. It holds no cursor beyond a count of entries already delivered:
// each Read re-scans the whole region from the start, which is cheap for a
// fixed-size root directory and avoids any aliasing between the on-disk
// state and a cached snapshot.
type View struct {
	volume          *volume.Volume
	deliveredCount  int
}

// Open opens a directory view on path, which must be exactly "\" (the
// root); any other path fails with fat16.ErrNotFound, since this driver
// does not support subdirectories.
func Open(v *volume.Volume, path string) (*View, error) {
	if v == nil {
		return nil, fat16.ErrBadArgument.WithMessage("nil volume")
	}
	if path != rootPath {
		return nil, fat16.ErrNotFound.WithMessage("only the root directory (\\) can be opened")
	}
	return &View{volume: v}, nil
}

// Read advances the view and fills out with the next visible directory
// entry. It returns (true, nil) when out was filled, (false, nil) when the
// directory has been fully enumerated, and (false, err) on failure.
//
// A visible entry is one whose first name byte is neither 0x00 nor 0xE5,
// and which does not carry the volume-label attribute. The scan walks
// every slot in index order and skips non-visible ones with a continue,
// never a break, matching the on-disk enumeration semantics of this format
// (see DESIGN.md).
func (d *View) Read(out *dirent.DirEntry) (bool, error) {
	if d == nil || out == nil {
		return false, fat16.ErrBadArgument.WithMessage("nil view or output entry")
	}

	region, err := readRegion(d.volume)
	if err != nil {
		return false, err
	}

	capacity := int(d.volume.RootDirCapacity())
	visibleCount := 0
	for i := 0; i < capacity; i++ {
		slot := slotAt(region, i)
		switch dirent.NameMarker(slot) {
		case dirent.MarkerEndOfDirectory, dirent.MarkerDeleted:
			continue
		}

		entry, err := dirent.Parse(slot)
		if err != nil {
			return false, err
		}
		if entry.IsVolumeLabel() {
			continue
		}

		visibleCount++
		if visibleCount <= d.deliveredCount {
			continue
		}

		*out = entry
		d.deliveredCount++
		return true, nil
	}

	return false, nil
}

// Close releases the view's in-memory state.
func (d *View) Close() error {
	return nil
}
