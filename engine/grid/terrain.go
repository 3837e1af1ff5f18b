package grid

import "math"

// TerrainKind defines the terrain of a cell
type TerrainKind uint8

const (
	TerrainPlain TerrainKind = iota
	TerrainHighland
	TerrainForest
	TerrainWater
	TerrainMountain
	TerrainLava
)

var terrainNames = [...]string{"plain", "highland", "forest", "water", "mountain", "lava"}

func (t TerrainKind) String() string {
	if int(t) < len(terrainNames) {
		return terrainNames[t]
	}
	return "unknown"
}

// Walkable reports whether ground movers can stand on this terrain.
// Water is not walkable; swimmers and flyers are handled by Grid.Traversable.
func (t TerrainKind) Walkable() bool {
	switch t {
	case TerrainPlain, TerrainHighland, TerrainForest:
		return true
	}
	return false
}

// MoveCost returns the movement cost multiplier for entering this terrain.
// Impassable kinds cost +Inf so they never win a path comparison.
func (t TerrainKind) MoveCost() float64 {
	switch t {
	case TerrainPlain, TerrainWater:
		return 1.0
	case TerrainHighland:
		return 1.2
	case TerrainForest:
		return 1.5
	}
	return math.Inf(1)
}
