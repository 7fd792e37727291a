package file

import (
	"encoding/binary"

	"github.com/fatdrv/fat16"
	"github.com/fatdrv/fat16/volume"
)

// lastCluster is the lowest FAT16 cluster value that unconditionally marks
// end-of-chain, regardless of what the volume's own EOC marker happens to
// be (spec §4.4 step 3 / §9).
const lastCluster = 0xFFF8

// loadFAT reads FAT copy #0 in full and interprets it as a little-endian
// u16 table.
func loadFAT(v *volume.Volume) ([]uint16, error) {
	byteLen := uint32(v.SectorsPerFAT()) * uint32(v.BytesPerSector())
	raw := make([]byte, byteLen)
	if _, err := v.Device().Read(v.FirstFATPosition(), raw, uint32(v.SectorsPerFAT())); err != nil {
		return nil, err
	}

	table := make([]uint16, len(raw)/2)
	for i := range table {
		table[i] = binary.LittleEndian.Uint16(raw[i*2 : i*2+2])
	}
	return table, nil
}

// buildChain walks the FAT starting from firstCluster and returns the
// ordered list of physical clusters belonging to the chain. A
// firstCluster of 0 or 1 yields an empty chain (spec §4.4 step 2).
//
// The chain's own declared end-of-chain value, fatTable[1], is honored as
// the primary sentinel, but any value >= 0xFFF8 also terminates the walk
// for robustness against images whose fatTable[1] doesn't match the
// standard sentinel (spec §9). The walk is capped at volume_size /
// sectors_per_cluster entries; exceeding the cap fails fat16.ErrInvalid
// rather than allocating without bound, since the source has no cycle
// detection of its own.
func buildChain(v *volume.Volume, fatTable []uint16, firstCluster uint16) ([]uint32, error) {
	if firstCluster == 0 || firstCluster == 1 {
		return nil, nil
	}
	if len(fatTable) < 2 {
		return nil, fat16.ErrInvalid.WithMessage("FAT table too small to contain an EOC marker")
	}

	eocMarker := fatTable[1]

	maxChainLength := uint32(len(fatTable))
	if v.SectorsPerCluster() > 0 && v.VolumeSize() > 0 {
		maxChainLength = v.VolumeSize() / uint32(v.SectorsPerCluster())
	}

	var clusters []uint32
	current := firstCluster
	for {
		clusters = append(clusters, uint32(current))
		if uint32(len(clusters)) > maxChainLength {
			return nil, fat16.ErrInvalid.WithMessage("cluster chain exceeds volume capacity; likely a cycle")
		}
		if int(current) >= len(fatTable) {
			return nil, fat16.ErrInvalid.WithMessage("cluster chain references an out-of-range FAT entry")
		}

		next := fatTable[current]
		if next == eocMarker || next == 0 || next >= lastCluster {
			break
		}
		current = next
	}
	return clusters, nil
}
