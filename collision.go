package server

import (
	"fmt"
	"sort"
)

type vec2 struct {
	X float64
	Y float64
}

// CollisionMap is the static walkability grid for one map, plus the named
// hazard-zone membership grids the fog controller escalates through. It is
// built once at startup and shared read-only by every room.
type CollisionMap struct {
	width    int
	height   int
	tileSize int

	// walkable[y][x] is false for blocked tiles.
	walkable [][]bool

	zones     map[string][][]bool
	zoneNames []string // ascending order; fixes zone-overlap precedence
	finalZone string
}

// NewCollisionMap builds a map from a walkability grid. The grid must be
// height rows of width columns.
func NewCollisionMap(width, height, tileSize int, walkable [][]bool) (*CollisionMap, error) {
	if width <= 0 || height <= 0 || tileSize <= 0 {
		return nil, fmt.Errorf("collision map: invalid dimensions %dx%d tile %d", width, height, tileSize)
	}
	if len(walkable) != height {
		return nil, fmt.Errorf("collision map: expected %d rows, got %d", height, len(walkable))
	}
	for y, row := range walkable {
		if len(row) != width {
			return nil, fmt.Errorf("collision map: row %d has %d columns, expected %d", y, len(row), width)
		}
	}
	return &CollisionMap{
		width:    width,
		height:   height,
		tileSize: tileSize,
		walkable: walkable,
		zones:    make(map[string][][]bool),
	}, nil
}

// AddZone registers a hazard-zone membership grid under the given name.
func (m *CollisionMap) AddZone(name string, grid [][]bool) error {
	if len(grid) != m.height {
		return fmt.Errorf("zone %q: expected %d rows, got %d", name, m.height, len(grid))
	}
	for y, row := range grid {
		if len(row) != m.width {
			return fmt.Errorf("zone %q: row %d has %d columns, expected %d", name, y, len(row), m.width)
		}
	}
	if _, exists := m.zones[name]; !exists {
		m.zoneNames = append(m.zoneNames, name)
		sort.Strings(m.zoneNames)
	}
	m.zones[name] = grid
	return nil
}

// SetFinalZone marks the zone the escalation schedule always activates last.
func (m *CollisionMap) SetFinalZone(name string) error {
	if _, ok := m.zones[name]; !ok {
		return fmt.Errorf("final zone %q is not a registered zone", name)
	}
	m.finalZone = name
	return nil
}

// Wall reports whether the pixel position is outside the map or covered by a
// blocked tile.
func (m *CollisionMap) Wall(x, y float64) bool {
	if x < 0 || y < 0 || x >= m.PixelWidth() || y >= m.PixelHeight() {
		return true
	}
	tx := int(x) / m.tileSize
	ty := int(y) / m.tileSize
	if tx < 0 || tx >= m.width || ty < 0 || ty >= m.height {
		return true
	}
	return !m.walkable[ty][tx]
}

// WallInArea is a conservative area test: it probes the four points offset by
// ±radius on each axis. The monster movement code uses it to avoid steering
// bodies into walls without scanning every covered tile.
func (m *CollisionMap) WallInArea(centerX, centerY, radius float64) bool {
	return m.Wall(centerX-radius, centerY) ||
		m.Wall(centerX+radius, centerY) ||
		m.Wall(centerX, centerY-radius) ||
		m.Wall(centerX, centerY+radius)
}

// ZoneAt returns the name of the hazard zone covering the point, or "" when
// the point is outside every zone. Overlaps resolve to the first zone in
// ascending name order so lookups stay deterministic.
func (m *CollisionMap) ZoneAt(x, y float64) string {
	if x < 0 || y < 0 || x >= m.PixelWidth() || y >= m.PixelHeight() {
		return ""
	}
	tx := int(x) / m.tileSize
	ty := int(y) / m.tileSize
	for _, name := range m.zoneNames {
		if m.zones[name][ty][tx] {
			return name
		}
	}
	return ""
}

// InAnyZone reports whether the point lies inside at least one hazard zone.
func (m *CollisionMap) InAnyZone(x, y float64) bool {
	return m.ZoneAt(x, y) != ""
}

// ZoneNames returns every registered zone name in ascending order.
func (m *CollisionMap) ZoneNames() []string {
	names := make([]string, len(m.zoneNames))
	copy(names, m.zoneNames)
	return names
}

// FinalZone returns the designated last-activated zone, or "" if unset.
func (m *CollisionMap) FinalZone() string { return m.finalZone }

// PixelWidth returns the map width in pixels.
func (m *CollisionMap) PixelWidth() float64 { return float64(m.width * m.tileSize) }

// PixelHeight returns the map height in pixels.
func (m *CollisionMap) PixelHeight() float64 { return float64(m.height * m.tileSize) }

// TileSize returns the tile edge length in pixels.
func (m *CollisionMap) TileSize() int { return m.tileSize }
