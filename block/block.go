// Package block wraps a disk image as a raw, sector-addressable block
// device. It performs no caching: every Read does a physical seek and read.
package block

import (
	"io"
	"os"

	"github.com/fatdrv/fat16"
)

// Device is a read-only view of a disk image in fixed-size sectors. The
// image may be backed by an open file or, for tests, an in-memory
// io.ReadSeeker such as one built by github.com/xaionaro-go/bytesextra.
//
// Device is not safe for concurrent use: every Read seeks the underlying
// stream before reading, so concurrent callers would race on the stream
// position. Callers that need parallel access should open separate
// Devices over the same backing image.
type Device struct {
	rs          io.ReadSeeker
	closer      io.Closer
	sectorCount uint32
}

// Open opens the image file at path read-only and measures it in whole
// sectors. Any trailing partial sector is unaddressable and excluded from
// SectorCount.
func Open(path string) (*Device, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fat16.ErrNotFound.WrapError(err)
		}
		return nil, fat16.ErrIO.WrapError(err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fat16.ErrIO.WrapError(err)
	}

	return &Device{
		rs:          f,
		closer:      f,
		sectorCount: uint32(info.Size() / fat16.SectorSize),
	}, nil
}

// OpenReadSeeker wraps an already-open io.ReadSeeker as a Device with the
// given sector count, for backing stores that don't come from a named
// file, such as an in-memory image built for testing. The Device does not
// take ownership of rs for closing purposes unless rs also implements
// io.Closer.
func OpenReadSeeker(rs io.ReadSeeker, sectorCount uint32) (*Device, error) {
	if rs == nil {
		return nil, fat16.ErrBadArgument.WithMessage("nil read seeker")
	}
	d := &Device{rs: rs, sectorCount: sectorCount}
	if c, ok := rs.(io.Closer); ok {
		d.closer = c
	}
	return d, nil
}

// SectorCount returns the total number of whole, addressable sectors on
// the device.
func (d *Device) SectorCount() uint32 {
	return d.sectorCount
}

// Read transfers n whole sectors starting at firstSector into buf, which
// must be at least n*fat16.SectorSize bytes long. It returns the number of
// sectors read, which is always n on success.
func (d *Device) Read(firstSector uint32, buf []byte, n uint32) (uint32, error) {
	if d == nil || d.rs == nil {
		return 0, fat16.ErrBadArgument.WithMessage("block device is not open")
	}
	if n == 0 {
		return 0, nil
	}
	if uint64(firstSector)+uint64(n) > uint64(d.sectorCount) {
		return 0, fat16.ErrRange.WithMessage("read extends past end of disk")
	}

	needed := int64(n) * fat16.SectorSize
	if int64(len(buf)) < needed {
		return 0, fat16.ErrBadArgument.WithMessage("buffer too small for requested sectors")
	}

	offset := int64(firstSector) * fat16.SectorSize
	if _, err := d.rs.Seek(offset, io.SeekStart); err != nil {
		return 0, fat16.ErrIO.WrapError(err)
	}

	if _, err := io.ReadFull(d.rs, buf[:needed]); err != nil {
		return 0, fat16.ErrIO.WrapError(err)
	}

	return n, nil
}

// Close releases the underlying resource, if the Device owns one. Devices
// opened over a bare io.ReadSeeker that isn't also an io.Closer have
// nothing to release; Close only marks them closed. In either case later
// Read and Close calls fail with fat16.ErrBadArgument.
func (d *Device) Close() error {
	if d == nil || d.rs == nil {
		return fat16.ErrBadArgument.WithMessage("block device is not open")
	}
	d.rs = nil
	if d.closer == nil {
		return nil
	}
	c := d.closer
	d.closer = nil
	if err := c.Close(); err != nil {
		return fat16.ErrIO.WrapError(err)
	}
	return nil
}
