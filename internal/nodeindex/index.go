// Package nodeindex provides id -> coordinate lookups for way
// reconstruction: a map for ordinary node tables and a memory-mapped
// variant for very large ones.
package nodeindex

// CoordSource resolves a node id to a WGS84 coordinate.
type CoordSource interface {
	Get(nodeID int64) (lat, lon float64, ok bool)
}

type coord struct {
	lat, lon float64
}

// MapIndex is a map-backed CoordSource.
type MapIndex struct {
	coords map[int64]coord
}

// NewMapIndex creates an empty map index with room for n entries.
func NewMapIndex(n int) *MapIndex {
	return &MapIndex{coords: make(map[int64]coord, n)}
}

// Put stores a node's coordinates.
func (m *MapIndex) Put(nodeID int64, lat, lon float64) {
	m.coords[nodeID] = coord{lat: lat, lon: lon}
}

// Get retrieves a node's coordinates.
func (m *MapIndex) Get(nodeID int64) (lat, lon float64, ok bool) {
	c, ok := m.coords[nodeID]
	return c.lat, c.lon, ok
}
