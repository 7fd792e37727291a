// Package file implements the cluster-chain walker (spec §4.4) and the file
// read/seek engine (spec §4.5) layered on top of fat16/dir and fat16/volume.
package file

import (
	"io"

	"github.com/fatdrv/fat16"
	"github.com/fatdrv/fat16/dir"
	"github.com/fatdrv/fat16/volume"
)

// Stream is an open handle on a file's data, addressed through its cluster
// chain rather than directly through the directory entry that named it.
type Stream struct {
	volume *volume.Volume
	name   string

	fileSize             uint32
	clusters             []uint32
	clustersSizeInBytes  uint32

	currentPosition          uint32
	currentCluster           int
	currentPositionInCluster uint32
}

// Open resolves name in the root directory of v and builds a Stream over
// its cluster chain. It fails with fat16.ErrNotFound if the name doesn't
// resolve, and fat16.ErrIsDir if it names a directory or volume label.
func Open(v *volume.Volume, name string) (*Stream, error) {
	entry, err := dir.FindFile(v, name)
	if err != nil {
		return nil, err
	}

	fatTable, err := loadFAT(v)
	if err != nil {
		return nil, err
	}

	clusters, err := buildChain(v, fatTable, uint16(entry.FirstCluster()))
	if err != nil {
		return nil, err
	}

	return &Stream{
		volume:              v,
		name:                entry.Name(),
		fileSize:            uint32(entry.Size()),
		clusters:            clusters,
		clustersSizeInBytes: uint32(len(clusters)) * v.BytesPerCluster(),
	}, nil
}

// Name returns the file's formatted "NAME.EXT" name.
func (s *Stream) Name() string { return s.name }

// Size returns the file size in bytes, as recorded in its directory entry.
func (s *Stream) Size() int64 { return int64(s.fileSize) }

// Read implements io.Reader: a plain byte-oriented read of elemSize 1.
// Unlike ReadElements, Read returns io.EOF once the cursor has reached the
// end of the file, matching the conventional Go reader contract.
func (s *Stream) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	n, err := s.readElements(p, 1, len(p))
	if err != nil {
		return n, err
	}
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

// ReadElements reads up to len(buf)/elemSize elements of elemSize bytes
// each into buf, stopping at the end of the file (spec §4.5). It returns
// the number of *complete* elements read; a final partial element, when
// the file ends mid-element, still advances the cursor to end-of-file but
// is not counted. At end-of-file, ReadElements returns (0, nil), not
// io.EOF — callers that want conventional EOF semantics should use Read.
func (s *Stream) ReadElements(buf []byte, elemSize int) (int, error) {
	if elemSize <= 0 {
		return 0, fat16.ErrBadArgument.WithMessage("elemSize must be positive")
	}
	count := len(buf) / elemSize
	return s.readElements(buf, elemSize, count)
}

// readElements is the shared engine behind Read and ReadElements. It
// stages a single per-call cluster buffer and reloads it only when the
// cursor crosses into a new cluster, mirroring the source's reuse of one
// cluster_buf across an entire call.
func (s *Stream) readElements(dst []byte, elemSize, maxCount int) (int, error) {
	if s.currentPosition >= s.fileSize {
		return 0, nil
	}

	bytesPerCluster := int(s.volume.BytesPerCluster())
	clusterBuf := make([]byte, bytesPerCluster)
	loadedCluster := -1

	ensureLoaded := func() error {
		if loadedCluster == s.currentCluster {
			return nil
		}
		if s.currentCluster < 0 || s.currentCluster >= len(s.clusters) {
			return fat16.ErrRange.WithMessage("cursor has run past the end of the cluster chain")
		}
		lba := s.volume.DataCluster2() + (s.clusters[s.currentCluster]-2)*uint32(s.volume.SectorsPerCluster())
		if _, err := s.volume.Device().Read(lba, clusterBuf, uint32(s.volume.SectorsPerCluster())); err != nil {
			return err
		}
		loadedCluster = s.currentCluster
		return nil
	}

	elementsRead := 0
	written := 0
	for elementsRead < maxCount {
		remainingInFile := s.fileSize - s.currentPosition
		if remainingInFile == 0 {
			break
		}

		toCopy := elemSize
		partial := false
		if uint32(toCopy) > remainingInFile {
			toCopy = int(remainingInFile)
			partial = true
		}

		copied := 0
		for copied < toCopy {
			if err := ensureLoaded(); err != nil {
				return elementsRead, err
			}
			avail := bytesPerCluster - int(s.currentPositionInCluster)
			n := toCopy - copied
			if n > avail {
				n = avail
			}
			copy(dst[written+copied:written+copied+n], clusterBuf[int(s.currentPositionInCluster):int(s.currentPositionInCluster)+n])

			copied += n
			s.currentPosition += uint32(n)
			s.currentPositionInCluster += uint32(n)
			if int(s.currentPositionInCluster) >= bytesPerCluster {
				s.currentPositionInCluster = 0
				s.currentCluster++
			}
		}

		written += toCopy
		if partial {
			break
		}
		elementsRead++
	}

	return elementsRead, nil
}

// Seek repositions the cursor per whence (io.SeekStart, io.SeekCurrent, or
// io.SeekEnd) plus offset, and fails with fat16.ErrRange unless the
// resulting position satisfies 0 <= position < clusters_size_in_bytes
// (spec §4.5). Note that clusters_size_in_bytes, not file_size, bounds the
// seek range: for a zero-cluster (empty) file this means no seek target is
// ever valid, which matches the source faithfully rather than special-
// casing it.
func (s *Stream) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
		base = 0
	case io.SeekCurrent:
		base = int64(s.currentPosition)
	case io.SeekEnd:
		base = int64(s.fileSize)
	default:
		return 0, fat16.ErrInvalid.WithMessage("unknown seek whence")
	}

	target := base + offset
	if target < 0 || target >= int64(s.clustersSizeInBytes) {
		return 0, fat16.ErrRange.WithMessage("seek target out of range")
	}

	s.currentPosition = uint32(target)
	bytesPerCluster := s.volume.BytesPerCluster()
	s.currentCluster = int(s.currentPosition / bytesPerCluster)
	s.currentPositionInCluster = s.currentPosition % bytesPerCluster
	return target, nil
}

// Close releases the stream's in-memory state. It does not close the
// underlying volume or block device, which the caller owns.
func (s *Stream) Close() error {
	return nil
}
