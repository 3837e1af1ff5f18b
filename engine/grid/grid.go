package grid

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/zwm-666/wargrid/engine/core"
)

// Caps describes the movement capabilities a traversability check is made for.
type Caps struct {
	Swim bool
	Fly  bool
}

// Cell is a single map cell. Terrain is authoritative: walkability and
// movement cost derive from it. Building and Units are runtime occupancy
// and never persisted.
type Cell struct {
	Terrain  TerrainKind       `json:"terrain"`
	Resource core.ResourceKind `json:"resource,omitempty"`
	Amount   int               `json:"amount,omitempty"`

	Building core.EntityID `json:"-"`
	Units    int           `json:"-"`
}

// StartPos defines a suggested player start position
type StartPos struct {
	PlayerSlot int `json:"player_slot"`
	X          int `json:"x"`
	Y          int `json:"y"`
}

// Grid is the game map: a Width x Height field of cells in row-major order.
// Cell (x, y) covers the world-space square [x, x+1) x [y, y+1).
type Grid struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Seed   int64  `json:"seed"`
	Cells  []Cell `json:"cells"`

	StartPositions []StartPos `json:"start_positions"`
}

// New creates an empty grid of plain terrain.
func New(name string, width, height int) *Grid {
	return &Grid{
		Name:   name,
		Width:  width,
		Height: height,
		Cells:  make([]Cell, width*height),
	}
}

// At returns a pointer to the cell at (x, y), or nil when out of bounds.
func (g *Grid) At(x, y int) *Cell {
	if x < 0 || y < 0 || x >= g.Width || y >= g.Height {
		return nil
	}
	return &g.Cells[y*g.Width+x]
}

// InBounds checks if coordinates are within map bounds
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.Width && y < g.Height
}

// Traversable reports whether a mover with the given capabilities may
// occupy (x, y). Flyers pass everywhere in bounds, swimmers add water,
// everyone else needs walkable terrain free of buildings.
func (g *Grid) Traversable(x, y int, caps Caps) bool {
	c := g.At(x, y)
	if c == nil {
		return false
	}
	if caps.Fly {
		return true
	}
	if c.Terrain == TerrainWater {
		return caps.Swim
	}
	return c.Terrain.Walkable() && c.Building == 0
}

// CostAt returns the movement cost multiplier for entering (x, y).
// Flyers ignore terrain entirely.
func (g *Grid) CostAt(x, y int, caps Caps) float64 {
	if caps.Fly {
		return 1.0
	}
	c := g.At(x, y)
	if c == nil {
		return math.Inf(1)
	}
	return c.Terrain.MoveCost()
}

// PlaceBuilding marks a w x h footprint with origin (x, y) as occupied by
// the given entity. Returns false without writing anything if any cell is
// out of bounds, not walkable, or already occupied.
func (g *Grid) PlaceBuilding(x, y, w, h int, id core.EntityID) bool {
	for cy := y; cy < y+h; cy++ {
		for cx := x; cx < x+w; cx++ {
			c := g.At(cx, cy)
			if c == nil || !c.Terrain.Walkable() || c.Building != 0 {
				return false
			}
		}
	}
	for cy := y; cy < y+h; cy++ {
		for cx := x; cx < x+w; cx++ {
			g.At(cx, cy).Building = id
		}
	}
	return true
}

// ReleaseBuilding clears the occupancy of the given entity from a footprint.
func (g *Grid) ReleaseBuilding(x, y, w, h int, id core.EntityID) {
	for cy := y; cy < y+h; cy++ {
		for cx := x; cx < x+w; cx++ {
			if c := g.At(cx, cy); c != nil && c.Building == id {
				c.Building = 0
			}
		}
	}
}

// AddUnit increments the unit occupancy count of a cell.
func (g *Grid) AddUnit(x, y int) {
	if c := g.At(x, y); c != nil {
		c.Units++
	}
}

// RemoveUnit decrements the unit occupancy count of a cell.
func (g *Grid) RemoveUnit(x, y int) {
	if c := g.At(x, y); c != nil && c.Units > 0 {
		c.Units--
	}
}

// neighborOffsets orders the four orthogonal steps before the diagonals.
var neighborOffsets = [8][2]int{
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
	{1, 1}, {1, -1}, {-1, 1}, {-1, -1},
}

// Neighbors returns the coordinates of the in-bounds cells adjacent to
// (x, y), orthogonal ones first. Traversability is not checked here.
func (g *Grid) Neighbors(x, y int, diagonals bool) [][2]int {
	n := 4
	if diagonals {
		n = 8
	}
	out := make([][2]int, 0, n)
	for _, d := range neighborOffsets[:n] {
		nx, ny := x+d[0], y+d[1]
		if g.InBounds(nx, ny) {
			out = append(out, [2]int{nx, ny})
		}
	}
	return out
}

// CellToWorld converts cell coordinates to the world position of the cell
// center.
func (g *Grid) CellToWorld(x, y int) (wx, wy float64) {
	return float64(x) + 0.5, float64(y) + 0.5
}

// WorldToCell converts a world position to the containing cell coordinates,
// clamped to the grid bounds. Out-of-range positions map to edge cells
// rather than failing.
func (g *Grid) WorldToCell(wx, wy float64) (x, y int) {
	x = min(max(int(math.Floor(wx)), 0), g.Width-1)
	y = min(max(int(math.Floor(wy)), 0), g.Height-1)
	return x, y
}

// TakeResource removes up to want units of deposit from (x, y) and returns
// the kind and the amount actually taken.
func (g *Grid) TakeResource(x, y, want int) (core.ResourceKind, int) {
	c := g.At(x, y)
	if c == nil || c.Resource == core.ResourceNone || c.Amount <= 0 {
		return core.ResourceNone, 0
	}
	took := want
	if took > c.Amount {
		took = c.Amount
	}
	c.Amount -= took
	kind := c.Resource
	if c.Amount == 0 {
		c.Resource = core.ResourceNone
	}
	return kind, took
}

// SaveJSON saves the grid to a JSON file
func (g *Grid) SaveJSON(path string) error {
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadJSON loads a grid from a JSON file
func LoadJSON(path string) (*Grid, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var g Grid
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, err
	}
	if g.Width <= 0 || g.Height <= 0 || len(g.Cells) != g.Width*g.Height {
		return nil, fmt.Errorf("grid %q: cell count %d does not match %dx%d",
			g.Name, len(g.Cells), g.Width, g.Height)
	}
	return &g, nil
}
