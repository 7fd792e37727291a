// Package fat16 implements a read-only driver for FAT12/16-style disk
// images: sector-granular block I/O, boot sector and FAT parsing, root
// directory resolution, and cluster-chain file reads with seek.
//
// The package is split the way the on-disk format is layered: fat16/block
// wraps the host file as a raw sector device, fat16/volume mounts a volume
// on top of it and derives its geometry, fat16/dirent parses 32-byte
// directory entries, fat16/dir enumerates the root directory, and
// fat16/file walks cluster chains and streams file bytes.
package fat16

import "fmt"

// SectorSize is the fixed size, in bytes, of a sector on the disk image.
const SectorSize = 512

// Kind identifies the category of failure an operation in this module can
// report. It implements error so it can be used directly as a sentinel with
// errors.Is.
type Kind string

const (
	// ErrBadArgument is returned when a required handle or buffer was nil
	// or otherwise missing.
	ErrBadArgument = Kind("bad argument")
	// ErrNotFound is returned when a path does not name the root directory,
	// or a file name is absent from the root directory.
	ErrNotFound = Kind("not found")
	// ErrIsDir is returned when a name resolves to a directory or
	// volume-label entry where a file was expected.
	ErrIsDir = Kind("is a directory")
	// ErrRange is returned when a read or seek would cross the end of the
	// disk, volume, or cluster chain.
	ErrRange = Kind("out of range")
	// ErrInvalid is returned for an unrecognized seek whence, a boot sector
	// signature mismatch, or disagreeing FAT copies.
	ErrInvalid = Kind("invalid data")
	// ErrIO is returned when the underlying host file read failed.
	ErrIO = Kind("i/o error")
	// ErrNoMem is returned when an internal allocation could not be
	// satisfied. No call site in this module can currently trigger it; see
	// DESIGN.md.
	ErrNoMem = Kind("allocation failed")
)

func (k Kind) Error() string {
	return string(k)
}

// WithMessage returns a DriverError of this kind carrying an additional
// message for context.
func (k Kind) WithMessage(message string) DriverError {
	return driverError{kind: k, message: fmt.Sprintf("%s: %s", string(k), message)}
}

// WrapError returns a DriverError of this kind that wraps an underlying
// error, e.g. one surfaced by the host's os package.
func (k Kind) WrapError(err error) DriverError {
	return driverError{kind: k, message: fmt.Sprintf("%s: %s", string(k), err.Error()), wrapped: err}
}

// DriverError is the error type returned by every fallible operation in this
// module. Callers can recover the failure category with errors.Is against
// the Err* Kind constants.
type DriverError interface {
	error
	Kind() Kind
	Unwrap() error
}

type driverError struct {
	kind    Kind
	message string
	wrapped error
}

func (e driverError) Error() string {
	return e.message
}

func (e driverError) Kind() Kind {
	return e.kind
}

// Unwrap exposes the Kind as the sentinel for errors.Is, or the wrapped
// error if one was supplied via WrapError.
func (e driverError) Unwrap() error {
	if e.wrapped != nil {
		return e.wrapped
	}
	return e.kind
}

// Is reports whether target is this error's Kind, so errors.Is matches the
// Kind sentinel even when Unwrap returns an error supplied via WrapError.
func (e driverError) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.kind
}
