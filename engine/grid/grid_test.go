package grid

import (
	"path/filepath"
	"testing"

	"github.com/zwm-666/wargrid/engine/core"
)

func TestTerrainMoveCost(t *testing.T) {
	tests := []struct {
		terrain  TerrainKind
		walkable bool
		cost     float64
	}{
		{TerrainPlain, true, 1.0},
		{TerrainHighland, true, 1.2},
		{TerrainForest, true, 1.5},
		{TerrainWater, false, 1.0},
		{TerrainMountain, false, 0}, // cost checked as +Inf below
		{TerrainLava, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.terrain.String(), func(t *testing.T) {
			if got := tt.terrain.Walkable(); got != tt.walkable {
				t.Errorf("Walkable() = %v, want %v", got, tt.walkable)
			}
			cost := tt.terrain.MoveCost()
			if tt.walkable || tt.terrain == TerrainWater {
				if cost != tt.cost {
					t.Errorf("MoveCost() = %v, want %v", cost, tt.cost)
				}
			} else if !isInf(cost) {
				t.Errorf("MoveCost() = %v, want +Inf", cost)
			}
		})
	}
}

func isInf(f float64) bool { return f > 1e300 }

func TestTraversableByCapability(t *testing.T) {
	g := New("caps", 4, 1)
	g.At(0, 0).Terrain = TerrainPlain
	g.At(1, 0).Terrain = TerrainWater
	g.At(2, 0).Terrain = TerrainMountain
	g.At(3, 0).Terrain = TerrainPlain
	g.At(3, 0).Building = 42

	ground := Caps{}
	swim := Caps{Swim: true}
	fly := Caps{Fly: true}

	tests := []struct {
		name string
		x    int
		caps Caps
		want bool
	}{
		{"ground on plain", 0, ground, true},
		{"ground on water", 1, ground, false},
		{"swimmer on water", 1, swim, true},
		{"swimmer on mountain", 2, swim, false},
		{"flyer on mountain", 2, fly, true},
		{"ground on building", 3, ground, false},
		{"swimmer on building", 3, swim, false},
		{"flyer over building", 3, fly, true},
		{"out of bounds", 9, fly, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.Traversable(tt.x, 0, tt.caps); got != tt.want {
				t.Errorf("Traversable(%d, 0, %+v) = %v, want %v", tt.x, tt.caps, got, tt.want)
			}
		})
	}
}

func TestNeighborsStayInBounds(t *testing.T) {
	g := New("nb", 4, 4)
	if n := len(g.Neighbors(1, 1, true)); n != 8 {
		t.Fatalf("center with diagonals = %d neighbours, want 8", n)
	}
	if n := len(g.Neighbors(1, 1, false)); n != 4 {
		t.Fatalf("center orthogonal = %d neighbours, want 4", n)
	}
	if n := len(g.Neighbors(0, 0, true)); n != 3 {
		t.Fatalf("corner with diagonals = %d neighbours, want 3", n)
	}
	if n := len(g.Neighbors(0, 0, false)); n != 2 {
		t.Fatalf("corner orthogonal = %d neighbours, want 2", n)
	}
	if got := g.Neighbors(0, 0, false)[0]; got != [2]int{1, 0} {
		t.Fatalf("first neighbour = %v, want [1 0] (orthogonals lead)", got)
	}
}

func TestPlaceBuildingIsAtomic(t *testing.T) {
	g := New("footprint", 8, 8)
	g.At(4, 2).Terrain = TerrainWater // blocks the second placement

	if !g.PlaceBuilding(0, 0, 3, 3, 7) {
		t.Fatal("clear 3x3 footprint should be accepted")
	}
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			if g.At(x, y).Building != 7 {
				t.Fatalf("cell (%d,%d) not marked", x, y)
			}
		}
	}

	// Overlapping an existing building is refused outright.
	if g.PlaceBuilding(2, 2, 3, 3, 8) {
		t.Fatal("overlapping placement should be refused")
	}
	// A footprint touching water is refused and no cell may be written.
	if g.PlaceBuilding(3, 1, 3, 3, 9) {
		t.Fatal("placement over water should be refused")
	}
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if b := g.At(x, y).Building; b != 0 && b != 7 {
				t.Fatalf("refused placement wrote cell (%d,%d) = %d", x, y, b)
			}
		}
	}

	g.ReleaseBuilding(0, 0, 3, 3, 7)
	if g.At(1, 1).Building != 0 {
		t.Fatal("release should clear the footprint")
	}
}

func TestTakeResourceDepletes(t *testing.T) {
	g := New("mine", 2, 1)
	c := g.At(0, 0)
	c.Resource = core.ResourceGold
	c.Amount = 25

	kind, got := g.TakeResource(0, 0, 10)
	if kind != core.ResourceGold || got != 10 {
		t.Fatalf("TakeResource = %q %d, want gold 10", kind, got)
	}
	kind, got = g.TakeResource(0, 0, 20)
	if kind != core.ResourceGold || got != 15 {
		t.Fatalf("second take = %q %d, want gold 15 (clamped)", kind, got)
	}
	if c.Resource != core.ResourceNone || c.Amount != 0 {
		t.Fatalf("cell after depletion = %q %d, want cleared", c.Resource, c.Amount)
	}
	if _, got := g.TakeResource(0, 0, 5); got != 0 {
		t.Fatalf("take from empty cell = %d, want 0", got)
	}
}

func TestWorldCellConversion(t *testing.T) {
	g := New("conv", 10, 10)

	wx, wy := g.CellToWorld(3, 7)
	if wx != 3.5 || wy != 7.5 {
		t.Fatalf("CellToWorld(3,7) = (%v,%v), want (3.5,7.5)", wx, wy)
	}
	if x, y := g.WorldToCell(wx, wy); x != 3 || y != 7 {
		t.Fatalf("WorldToCell(center) = (%d,%d), want (3,7)", x, y)
	}
	// Positions on the seam belong to the higher cell.
	if x, _ := g.WorldToCell(4.0, 0.5); x != 4 {
		t.Fatalf("WorldToCell(4.0) = %d, want 4", x)
	}
	// Out-of-range positions clamp to the edge cells.
	if x, y := g.WorldToCell(-2.5, 3.0); x != 0 || y != 3 {
		t.Fatalf("WorldToCell(-2.5, 3) = (%d,%d), want (0,3)", x, y)
	}
	if x, y := g.WorldToCell(99.0, 10.0); x != 9 || y != 9 {
		t.Fatalf("WorldToCell(99, 10) = (%d,%d), want (9,9)", x, y)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	g := Generate("rt", 24, 24, 99, 2)
	path := filepath.Join(t.TempDir(), "map.json")
	if err := g.SaveJSON(path); err != nil {
		t.Fatalf("SaveJSON: %v", err)
	}
	loaded, err := LoadJSON(path)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	if loaded.Width != g.Width || loaded.Height != g.Height || loaded.Seed != g.Seed {
		t.Fatalf("header mismatch: %dx%d seed %d", loaded.Width, loaded.Height, loaded.Seed)
	}
	for i := range g.Cells {
		if loaded.Cells[i].Terrain != g.Cells[i].Terrain ||
			loaded.Cells[i].Resource != g.Cells[i].Resource ||
			loaded.Cells[i].Amount != g.Cells[i].Amount {
			t.Fatalf("cell %d differs after round trip", i)
		}
	}
	if len(loaded.StartPositions) != len(g.StartPositions) {
		t.Fatalf("start positions lost: %d vs %d", len(loaded.StartPositions), len(g.StartPositions))
	}
}

func TestLoadRejectsTruncatedGrid(t *testing.T) {
	g := New("bad", 4, 4)
	g.Cells = g.Cells[:10]
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := g.SaveJSON(path); err != nil {
		t.Fatalf("SaveJSON: %v", err)
	}
	if _, err := LoadJSON(path); err == nil {
		t.Fatal("LoadJSON should reject a grid with missing cells")
	}
}
