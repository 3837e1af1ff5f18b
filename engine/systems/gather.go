package systems

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/zwm-666/wargrid/engine/core"
	"github.com/zwm-666/wargrid/engine/grid"
	"github.com/zwm-666/wargrid/pkg/logger"
)

// dropoffRange is how close to a building footprint a gatherer must stand
// to deliver. Diagonal adjacency is about 0.71 from the footprint edge.
const dropoffRange = 1.0

// GatherSystem manages resource gathering: workers walk to a deposit,
// harvest until full, carry the load to an own building and credit the
// ledger. Combat orders interrupt the cycle; the worker resumes from
// idle once it is free again.
type GatherSystem struct {
	Grid   *grid.Grid
	Units  *UnitSystem
	Ledger core.ResourceLedger
	Bus    *core.EventBus

	log *logrus.Entry
}

func NewGatherSystem(g *grid.Grid, units *UnitSystem, ledger core.ResourceLedger, bus *core.EventBus) *GatherSystem {
	return &GatherSystem{
		Grid:   g,
		Units:  units,
		Ledger: ledger,
		Bus:    bus,
		log:    logger.WithComponent("gather"),
	}
}

func (s *GatherSystem) Priority() int { return 15 }

func (s *GatherSystem) Update(w *core.World, dt float64) {
	ids := w.Query(core.CompGatherer, core.CompUnit, core.CompPosition, core.CompOwner)
	for _, id := range ids {
		g := w.Get(id, core.CompGatherer).(*core.Gatherer)
		u := w.Get(id, core.CompUnit).(*core.Unit)
		if u.State == core.UnitDead {
			continue
		}
		pos := w.Get(id, core.CompPosition).(*core.Position)
		own := w.Get(id, core.CompOwner).(*core.Owner)

		switch g.State {
		case core.GatherIdle:
			s.seek(w, id, g, u, pos)

		case core.GatherToDeposit:
			if u.State == core.UnitMoving {
				continue
			}
			if u.State != core.UnitIdle {
				g.State = core.GatherIdle // interrupted, resume later
				continue
			}
			cx, cy := s.Grid.WorldToCell(pos.X, pos.Y)
			if g.HasTarget && cx == g.TargetX && cy == g.TargetY && s.depositUsable(g) {
				g.State = core.GatherHarvest
			} else {
				g.State = core.GatherIdle
			}

		case core.GatherHarvest:
			s.harvest(w, id, g, u, pos, dt)

		case core.GatherToDropoff:
			if u.State == core.UnitMoving {
				continue
			}
			if u.State != core.UnitIdle {
				g.State = core.GatherIdle
				continue
			}
			if s.atDropoff(w, pos, own.PlayerID) {
				g.State = core.GatherDeliver
			} else {
				// Fell short, walk again.
				s.orderDropoff(w, id, g, pos, own.PlayerID)
			}

		case core.GatherDeliver:
			if u.State != core.UnitIdle {
				g.State = core.GatherIdle
				continue
			}
			s.deliver(w, id, g, own.PlayerID)
		}
	}
}

// seek decides what an idle gatherer does next: deliver a full load, or
// walk to the remembered or nearest deposit.
func (s *GatherSystem) seek(w *core.World, id core.EntityID, g *core.Gatherer, u *core.Unit, pos *core.Position) {
	if u.State != core.UnitIdle {
		return // busy with an outside order
	}
	if g.Carrying >= g.Capacity {
		own := w.Get(id, core.CompOwner).(*core.Owner)
		s.orderDropoff(w, id, g, pos, own.PlayerID)
		return
	}
	if !g.HasTarget || !s.depositUsable(g) {
		tx, ty, ok := s.nearestDeposit(pos, g.Kind, g.Carrying > 0)
		if !ok {
			if g.Carrying > 0 {
				own := w.Get(id, core.CompOwner).(*core.Owner)
				s.orderDropoff(w, id, g, pos, own.PlayerID)
			}
			return
		}
		g.TargetX, g.TargetY = tx, ty
		g.HasTarget = true
	}
	wx, wy := s.Grid.CellToWorld(g.TargetX, g.TargetY)
	if s.Units.OrderMove(w, id, wx, wy) {
		g.State = core.GatherToDeposit
	} else {
		g.HasTarget = false
	}
}

// harvest accumulates fractional work and pulls whole units out of the
// deposit. A load of a different kind is delivered before switching.
func (s *GatherSystem) harvest(w *core.World, id core.EntityID, g *core.Gatherer, u *core.Unit, pos *core.Position, dt float64) {
	if u.State != core.UnitIdle {
		g.State = core.GatherIdle
		return
	}
	cell := s.Grid.At(g.TargetX, g.TargetY)
	if cell == nil || cell.Resource == core.ResourceNone || cell.Amount <= 0 {
		g.HasTarget = false
		if g.Carrying > 0 {
			own := w.Get(id, core.CompOwner).(*core.Owner)
			s.orderDropoff(w, id, g, pos, own.PlayerID)
		} else {
			g.State = core.GatherIdle
		}
		return
	}
	if g.Carrying > 0 && g.Kind != cell.Resource {
		own := w.Get(id, core.CompOwner).(*core.Owner)
		s.orderDropoff(w, id, g, pos, own.PlayerID)
		return
	}

	g.Carry += g.Rate * dt
	want := int(g.Carry)
	if want < 1 {
		return
	}
	if space := g.Capacity - g.Carrying; want > space {
		want = space
	}
	g.Carry -= float64(want)
	kind, took := s.Grid.TakeResource(g.TargetX, g.TargetY, want)
	if took > 0 {
		g.Kind = kind
		g.Carrying += took
	}
	if g.Carrying >= g.Capacity || took < want {
		if took < want {
			g.HasTarget = false // deposit ran dry
		}
		own := w.Get(id, core.CompOwner).(*core.Owner)
		if g.Carrying > 0 {
			s.orderDropoff(w, id, g, pos, own.PlayerID)
		} else {
			g.State = core.GatherIdle
		}
	}
}

// deliver credits the ledger with the carried load.
func (s *GatherSystem) deliver(w *core.World, id core.EntityID, g *core.Gatherer, playerID int) {
	if g.Carrying > 0 && g.Kind != core.ResourceNone {
		s.Ledger.Add(playerID, g.Kind, g.Carrying)
		s.Bus.Emit(core.Event{
			Type:    core.EvtResourceGathered,
			Tick:    w.TickCount,
			Payload: core.ResourceGatheredEvent{PlayerID: playerID, Kind: g.Kind, Amount: g.Carrying},
		})
		s.log.WithFields(logrus.Fields{"unit": id, "player": playerID, "kind": g.Kind, "amount": g.Carrying}).
			Debug("load delivered")
	}
	g.Carrying = 0
	g.Kind = core.ResourceNone
	g.State = core.GatherIdle
}

// depositUsable reports whether the remembered deposit still holds
// something the gatherer can stack with its current load.
func (s *GatherSystem) depositUsable(g *core.Gatherer) bool {
	cell := s.Grid.At(g.TargetX, g.TargetY)
	if cell == nil || cell.Resource == core.ResourceNone || cell.Amount <= 0 {
		return false
	}
	return g.Carrying == 0 || g.Kind == cell.Resource
}

// nearestDeposit scans the whole map for the closest deposit. With
// matchKind set only deposits of the given kind count.
func (s *GatherSystem) nearestDeposit(pos *core.Position, kind core.ResourceKind, matchKind bool) (int, int, bool) {
	fx, fy := s.Grid.WorldToCell(pos.X, pos.Y)
	bestDist := math.MaxFloat64
	bx, by := -1, -1
	for y := 0; y < s.Grid.Height; y++ {
		for x := 0; x < s.Grid.Width; x++ {
			cell := s.Grid.At(x, y)
			if cell.Resource == core.ResourceNone || cell.Amount <= 0 {
				continue
			}
			if matchKind && cell.Resource != kind {
				continue
			}
			dx := float64(x - fx)
			dy := float64(y - fy)
			d := dx*dx + dy*dy
			if d < bestDist {
				bestDist = d
				bx, by = x, y
			}
		}
	}
	return bx, by, bx >= 0
}

// orderDropoff walks the gatherer toward the nearest own building. The
// pathfinder lands it on a free cell next to the footprint.
func (s *GatherSystem) orderDropoff(w *core.World, id core.EntityID, g *core.Gatherer, pos *core.Position, playerID int) {
	bid := s.nearestBuilding(w, pos, playerID)
	if bid == 0 {
		g.State = core.GatherIdle
		return
	}
	b := w.Get(bid, core.CompBuilding).(*core.Building)
	wx, wy := s.Grid.CellToWorld(b.CellX+b.SizeX/2, b.CellY+b.SizeY/2)
	if s.Units.OrderMove(w, id, wx, wy) {
		g.State = core.GatherToDropoff
	} else {
		g.State = core.GatherIdle
	}
}

func (s *GatherSystem) nearestBuilding(w *core.World, pos *core.Position, playerID int) core.EntityID {
	var best core.EntityID
	bestDist := math.MaxFloat64
	for _, bid := range w.Query(core.CompBuilding, core.CompPosition, core.CompOwner) {
		if w.Get(bid, core.CompOwner).(*core.Owner).PlayerID != playerID {
			continue
		}
		b := w.Get(bid, core.CompBuilding).(*core.Building)
		if b.State == core.BuildingDestroyed {
			continue
		}
		d := rectDistance(pos.X, pos.Y, float64(b.CellX), float64(b.CellY), float64(b.CellX+b.SizeX), float64(b.CellY+b.SizeY))
		if d < bestDist {
			bestDist = d
			best = bid
		}
	}
	return best
}

// atDropoff reports whether the gatherer stands next to any own building.
func (s *GatherSystem) atDropoff(w *core.World, pos *core.Position, playerID int) bool {
	for _, bid := range w.Query(core.CompBuilding, core.CompPosition, core.CompOwner) {
		if w.Get(bid, core.CompOwner).(*core.Owner).PlayerID != playerID {
			continue
		}
		b := w.Get(bid, core.CompBuilding).(*core.Building)
		if b.State == core.BuildingDestroyed {
			continue
		}
		d := rectDistance(pos.X, pos.Y, float64(b.CellX), float64(b.CellY), float64(b.CellX+b.SizeX), float64(b.CellY+b.SizeY))
		if d <= dropoffRange {
			return true
		}
	}
	return false
}
