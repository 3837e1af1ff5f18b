package systems

import (
	"github.com/zwm-666/wargrid/engine/core"
	"github.com/zwm-666/wargrid/engine/grid"
)

// FogState represents visibility of a cell for one player
type FogState uint8

const (
	FogShroud   FogState = iota // never seen
	FogExplored                 // seen before but not now
	FogVisible                  // currently visible
)

// FogOfWar is one player's visibility map, row-major like the grid.
// Explored cells never revert to shroud.
type FogOfWar struct {
	Width, Height int
	Grid          []FogState
	PlayerID      int
}

func NewFogOfWar(w, h, playerID int) *FogOfWar {
	return &FogOfWar{
		Width:    w,
		Height:   h,
		Grid:     make([]FogState, w*h),
		PlayerID: playerID,
	}
}

// At returns the fog state at (x, y). Out of bounds reads as shroud.
func (f *FogOfWar) At(x, y int) FogState {
	if x < 0 || y < 0 || x >= f.Width || y >= f.Height {
		return FogShroud
	}
	return f.Grid[y*f.Width+x]
}

// IsVisible returns true if the cell is currently in sight
func (f *FogOfWar) IsVisible(x, y int) bool {
	return f.At(x, y) == FogVisible
}

// IsExplored returns true if the cell has ever been seen
func (f *FogOfWar) IsExplored(x, y int) bool {
	return f.At(x, y) != FogShroud
}

// defaultFogInterval spaces out full recomputes. Sight rarely changes
// enough within half a second to matter.
const defaultFogInterval = 0.5

// FogSystem recomputes fog of war for every player on an interval.
type FogSystem struct {
	Fogs    map[int]*FogOfWar // playerID -> fog
	Players *core.PlayerManager
	World   *grid.Grid

	// Interval is seconds between recomputes. Zero means the default.
	Interval float64

	timer float64
}

func NewFogSystem(g *grid.Grid, pm *core.PlayerManager) *FogSystem {
	fs := &FogSystem{
		Fogs:    make(map[int]*FogOfWar),
		Players: pm,
		World:   g,
	}
	for _, p := range pm.Players {
		fs.Fogs[p.ID] = NewFogOfWar(g.Width, g.Height, p.ID)
	}
	return fs
}

func (s *FogSystem) Priority() int { return 40 }

func (s *FogSystem) interval() float64 {
	if s.Interval > 0 {
		return s.Interval
	}
	return defaultFogInterval
}

func (s *FogSystem) Update(w *core.World, dt float64) {
	s.timer -= dt
	if s.timer > 0 {
		return
	}
	s.timer = s.interval()
	for _, p := range s.Players.Players {
		s.Recompute(w, p.ID)
	}
}

// FogFor returns the player's fog map, creating an all-shroud map on
// first use.
func (s *FogSystem) FogFor(playerID int) *FogOfWar {
	f, ok := s.Fogs[playerID]
	if !ok {
		f = NewFogOfWar(s.World.Width, s.World.Height, playerID)
		s.Fogs[playerID] = f
	}
	return f
}

// Recompute rebuilds one player's visibility: every visible cell demotes
// to explored, then each living entity the player owns reveals a disc of
// its sight range. Sight is not shared between allies.
func (s *FogSystem) Recompute(w *core.World, playerID int) {
	fog := s.FogFor(playerID)
	for i := range fog.Grid {
		if fog.Grid[i] == FogVisible {
			fog.Grid[i] = FogExplored
		}
	}

	for _, id := range w.Query(core.CompPosition, core.CompVision, core.CompOwner) {
		own := w.Get(id, core.CompOwner).(*core.Owner)
		if own.PlayerID != playerID || !entityAlive(w, id) {
			continue
		}
		pos := w.Get(id, core.CompPosition).(*core.Position)
		vis := w.Get(id, core.CompVision).(*core.Vision)
		cx, cy := s.World.WorldToCell(pos.X, pos.Y)
		reveal(fog, cx, cy, vis.Range)
	}
}

// reveal marks the disc around (cx, cy) visible.
func reveal(fog *FogOfWar, cx, cy, r int) {
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy > r*r {
				continue
			}
			tx, ty := cx+dx, cy+dy
			if tx >= 0 && ty >= 0 && tx < fog.Width && ty < fog.Height {
				fog.Grid[ty*fog.Width+tx] = FogVisible
			}
		}
	}
}

// EntityVisibleTo reports whether a player can currently see an entity.
// Own and allied entities are always visible. Enemy entities need a
// visible cell, and an active cloak hides them outright because the
// stealth pass already broke the cloak of anything a detector can see.
func (s *FogSystem) EntityVisibleTo(w *core.World, playerID int, id core.EntityID) bool {
	own, ok := w.Get(id, core.CompOwner).(*core.Owner)
	if !ok {
		return false
	}
	if s.Players.AreAllies(playerID, own.PlayerID) {
		return true
	}
	if v, ok := w.Get(id, core.CompVision).(*core.Vision); ok && v.CloakActive {
		return false
	}
	pos, ok := w.Get(id, core.CompPosition).(*core.Position)
	if !ok {
		return false
	}
	cx, cy := s.World.WorldToCell(pos.X, pos.Y)
	return s.FogFor(playerID).IsVisible(cx, cy)
}

// entityAlive filters out dead units and destroyed buildings without
// assuming which of the two the entity is.
func entityAlive(w *core.World, id core.EntityID) bool {
	if u, ok := w.Get(id, core.CompUnit).(*core.Unit); ok && u.State == core.UnitDead {
		return false
	}
	if b, ok := w.Get(id, core.CompBuilding).(*core.Building); ok && b.State == core.BuildingDestroyed {
		return false
	}
	if h, ok := w.Get(id, core.CompHealth).(*core.Health); ok && h.Current <= 0 {
		return false
	}
	return true
}
