package nodeindex

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"
)

// Each entry: lat (int32) + lon (int32) = 8 bytes, fixed-point at 1e7.
// Coordinates are stored at offset = nodeID * 8, giving O(1) lookup.
const entrySize = 8

// latBias shifts stored latitudes so a written entry is never zero. Raw
// latitudes span ±9e8 in fixed point; biased values span 1e8..1.9e9,
// leaving the zero-filled sparse file to mean "absent" even for a node
// at exactly (0, 0).
const latBias = 1_000_000_000

// MmapIndex is a memory-mapped id -> coordinate index backed by a sparse
// file. It bounds resident memory when reconstructing ways against node
// tables too large to hold in a Go map.
type MmapIndex struct {
	file     *os.File
	data     mmap.MMap
	size     int64
	writable bool
}

// CreateMmapIndex creates a writable index sized for node ids up to
// maxID. The backing file is sparse; disk usage grows only with written
// entries.
func CreateMmapIndex(path string, maxID int64) (*MmapIndex, error) {
	if maxID < 0 {
		maxID = 0
	}
	size := (maxID + 1) * entrySize

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create index file: %w", err)
	}
	if err := f.Truncate(size); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to size index file: %w", err)
	}

	data, err := mmap.MapRegion(f, int(size), mmap.RDWR, 0, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to mmap index file: %w", err)
	}

	return &MmapIndex{file: f, data: data, size: size, writable: true}, nil
}

// OpenMmapIndex opens an existing index read-only.
func OpenMmapIndex(path string) (*MmapIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to mmap index file: %w", err)
	}

	return &MmapIndex{file: f, data: data, size: info.Size()}, nil
}

// Put stores a node's coordinates. Ids outside the sized range are
// ignored.
func (m *MmapIndex) Put(nodeID int64, lat, lon float64) {
	offset := nodeID * entrySize
	if nodeID < 0 || offset+entrySize > m.size {
		return
	}

	// Fixed-point, 7 decimal places: OSM's native coordinate resolution.
	latInt := int32(lat*1e7) + latBias
	lonInt := int32(lon * 1e7)

	binary.LittleEndian.PutUint32(m.data[offset:], uint32(latInt))
	binary.LittleEndian.PutUint32(m.data[offset+4:], uint32(lonInt))
}

// Get retrieves a node's coordinates. A zero lat word reads as absent;
// written entries always carry the bias.
func (m *MmapIndex) Get(nodeID int64) (lat, lon float64, ok bool) {
	offset := nodeID * entrySize
	if nodeID < 0 || offset+entrySize > m.size {
		return 0, 0, false
	}

	latInt := int32(binary.LittleEndian.Uint32(m.data[offset:]))
	if latInt == 0 {
		return 0, 0, false
	}
	latInt -= latBias
	lonInt := int32(binary.LittleEndian.Uint32(m.data[offset+4:]))

	return float64(latInt) / 1e7, float64(lonInt) / 1e7, true
}

// Flush forces written entries to disk.
func (m *MmapIndex) Flush() error {
	if !m.writable {
		return nil
	}
	return m.data.Flush()
}

// Close unmaps and closes the index. The backing file stays on disk.
func (m *MmapIndex) Close() error {
	if err := m.data.Unmap(); err != nil {
		m.file.Close()
		return err
	}
	return m.file.Close()
}
