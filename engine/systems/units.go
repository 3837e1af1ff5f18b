package systems

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/zwm-666/wargrid/engine/core"
	"github.com/zwm-666/wargrid/engine/gamedata"
	"github.com/zwm-666/wargrid/engine/grid"
	"github.com/zwm-666/wargrid/engine/pathfind"
	"github.com/zwm-666/wargrid/pkg/logger"
)

const (
	// deathGrace keeps a dead unit in the world briefly before removal.
	deathGrace = 1.0
	// followRepathInterval throttles path recomputation while chasing.
	followRepathInterval = 0.5
	// unitBodyRadius shrinks the center distance between units so melee
	// reaches diagonal neighbours.
	unitBodyRadius = 0.5
)

// UnitSystem advances every unit's state machine: movement along paths,
// chasing, attacking, regeneration, death and removal.
type UnitSystem struct {
	Grid     *grid.Grid
	Finder   *pathfind.Finder
	Resolver *Resolver
	Tech     *TechLedger
	Players  *core.PlayerManager
	Bus      *core.EventBus

	// Buildings handles demolition when an attack brings a structure to
	// zero health. Wired by the match after both systems exist.
	Buildings *BuildingSystem

	log *logrus.Entry
}

func NewUnitSystem(g *grid.Grid, finder *pathfind.Finder, resolver *Resolver, tech *TechLedger, players *core.PlayerManager, bus *core.EventBus) *UnitSystem {
	return &UnitSystem{
		Grid:     g,
		Finder:   finder,
		Resolver: resolver,
		Tech:     tech,
		Players:  players,
		Bus:      bus,
		log:      logger.WithComponent("units"),
	}
}

func (s *UnitSystem) Priority() int { return 10 }

func (s *UnitSystem) Update(w *core.World, dt float64) {
	ids := w.Query(core.CompUnit, core.CompPosition)
	for _, id := range ids {
		u := w.Get(id, core.CompUnit).(*core.Unit)

		if u.State == core.UnitDead {
			u.Grace -= dt
			if u.Grace <= 0 {
				w.Destroy(id)
			}
			continue
		}

		p := w.Get(id, core.CompPosition).(*core.Position)
		s.regenerate(w, id, u, dt)

		var wep *core.Weapon
		if wc := w.Get(id, core.CompWeapon); wc != nil {
			wep = wc.(*core.Weapon)
			if wep.Cooldown > 0 {
				wep.Cooldown -= dt
			}
		}

		switch u.State {
		case core.UnitIdle:
			// No orders. Stays put until told otherwise.
		case core.UnitMoving:
			m, ok := w.Get(id, core.CompMover).(*core.Mover)
			if !ok {
				u.State = core.UnitIdle
				continue
			}
			if s.step(w, id, u, p, m, dt) {
				u.State = core.UnitIdle
			}
		case core.UnitFollowing:
			s.follow(w, id, u, p, dt)
		case core.UnitAttacking:
			s.fight(w, id, u, p, wep)
		}
	}
}

// ---- Orders ----

// OrderMove replaces the unit's current activity with a move to the given
// world position. Returns false, leaving the unit idle in place, when the
// unit is dead or no path exists.
func (s *UnitSystem) OrderMove(w *core.World, id core.EntityID, wx, wy float64) bool {
	u, ok := w.Get(id, core.CompUnit).(*core.Unit)
	if !ok || u.State == core.UnitDead {
		return false
	}
	p, pok := w.Get(id, core.CompPosition).(*core.Position)
	m, mok := w.Get(id, core.CompMover).(*core.Mover)
	if !pok || !mok {
		return false
	}

	u.Target = 0
	cx, cy := s.Grid.WorldToCell(wx, wy)
	if !s.pathTo(id, p, m, cx, cy) {
		m.Path, m.PathIdx = nil, 0
		u.State = core.UnitIdle
		return false
	}
	u.State = core.UnitMoving
	return true
}

// OrderAttack replaces the unit's current activity with an attack on the
// target entity. The unit chases when out of range. Returns false for dead
// attackers, invalid or hidden targets, and weaponless units.
func (s *UnitSystem) OrderAttack(w *core.World, id, target core.EntityID) bool {
	u, ok := w.Get(id, core.CompUnit).(*core.Unit)
	if !ok || u.State == core.UnitDead || target == id {
		return false
	}
	if _, armed := w.Get(id, core.CompWeapon).(*core.Weapon); !armed {
		return false
	}
	if !s.validTarget(w, target) {
		return false
	}
	if s.hiddenFrom(w, id, target) {
		return false
	}
	p, pok := w.Get(id, core.CompPosition).(*core.Position)
	if !pok {
		return false
	}

	u.Target = target
	u.Repath = 0
	s.clearPath(w, id)
	if s.inAttackRange(w, id, u, p) {
		u.State = core.UnitAttacking
	} else {
		u.State = core.UnitFollowing
	}
	return true
}

// OrderStop cancels the current activity. Dead units ignore it.
func (s *UnitSystem) OrderStop(w *core.World, id core.EntityID) {
	u, ok := w.Get(id, core.CompUnit).(*core.Unit)
	if !ok || u.State == core.UnitDead {
		return
	}
	s.clearOrders(w, id, u)
}

// ---- State handlers ----

// step advances along the current path and reports whether it is finished.
// A waypoint that became blocked triggers one replan to the original goal;
// failing that, the path is dropped.
func (s *UnitSystem) step(w *core.World, id core.EntityID, u *core.Unit, p *core.Position, m *core.Mover, dt float64) bool {
	if m.PathIdx >= len(m.Path) {
		m.Path, m.PathIdx = nil, 0
		return true
	}
	caps := capsOf(m)
	wp := m.Path[m.PathIdx]
	if !s.Grid.Traversable(wp.X, wp.Y, caps) {
		goal := m.Path[len(m.Path)-1]
		if !s.pathTo(id, p, m, goal.X, goal.Y) {
			m.Path, m.PathIdx = nil, 0
			return true
		}
		return false
	}

	tx, ty := s.Grid.CellToWorld(wp.X, wp.Y)
	dx, dy := tx-p.X, ty-p.Y
	dist := math.Hypot(dx, dy)
	stepLen := s.effectiveSpeed(w, id, u, m) * dt

	if stepLen >= dist {
		s.relocate(p, tx, ty)
		m.PathIdx++
		if m.PathIdx >= len(m.Path) {
			m.Path, m.PathIdx = nil, 0
			return true
		}
		return false
	}
	p.Facing = math.Atan2(dy, dx)
	s.relocate(p, p.X+dx/dist*stepLen, p.Y+dy/dist*stepLen)
	return false
}

func (s *UnitSystem) follow(w *core.World, id core.EntityID, u *core.Unit, p *core.Position, dt float64) {
	if !s.validTarget(w, u.Target) {
		s.clearOrders(w, id, u)
		return
	}
	if s.inAttackRange(w, id, u, p) {
		u.State = core.UnitAttacking
		s.clearPath(w, id)
		return
	}
	m, ok := w.Get(id, core.CompMover).(*core.Mover)
	if !ok {
		s.clearOrders(w, id, u)
		return
	}

	u.Repath -= dt
	done := s.step(w, id, u, p, m, dt)
	if u.Repath <= 0 || done {
		u.Repath = followRepathInterval
		if tp, ok := w.Get(u.Target, core.CompPosition).(*core.Position); ok {
			cx, cy := s.Grid.WorldToCell(tp.X, tp.Y)
			s.pathTo(id, p, m, cx, cy)
		}
	}
}

func (s *UnitSystem) fight(w *core.World, id core.EntityID, u *core.Unit, p *core.Position, wep *core.Weapon) {
	if !s.validTarget(w, u.Target) {
		s.clearOrders(w, id, u)
		return
	}
	if wep == nil {
		s.clearOrders(w, id, u)
		return
	}
	if !s.inAttackRange(w, id, u, p) {
		u.State = core.UnitFollowing
		u.Repath = 0
		return
	}

	if tp, ok := w.Get(u.Target, core.CompPosition).(*core.Position); ok {
		p.Facing = p.AngleTo(tp)
	}
	if wep.Cooldown > 0 {
		return
	}

	base, interval := s.attackStats(w, id, u, wep)
	dealt := ApplyDamage(w, u.Target, base, wep.Kind, s.Resolver, s.Tech, s.Bus)
	wep.Cooldown = interval
	if dealt > 0 && targetDown(w, u.Target) {
		s.handleKill(w, id, u.Target)
		u.Target = 0
		u.State = core.UnitIdle
	}
}

// ---- Death ----

// killUnit moves a unit into the dead state: orders are dropped, cell
// occupancy is released, and the entity lingers for a short grace period.
func (s *UnitSystem) killUnit(w *core.World, id, killer core.EntityID) {
	u, ok := w.Get(id, core.CompUnit).(*core.Unit)
	if !ok || u.State == core.UnitDead {
		return
	}
	u.State = core.UnitDead
	u.Grace = deathGrace
	u.Target = 0
	s.clearPath(w, id)
	if h, ok := w.Get(id, core.CompHealth).(*core.Health); ok {
		h.Current = 0
	}
	if p, ok := w.Get(id, core.CompPosition).(*core.Position); ok {
		cx, cy := s.Grid.WorldToCell(p.X, p.Y)
		s.Grid.RemoveUnit(cx, cy)
	}

	playerID := 0
	if o, ok := w.Get(id, core.CompOwner).(*core.Owner); ok {
		playerID = o.PlayerID
	}
	s.Bus.Emit(core.Event{
		Type:    core.EvtUnitDied,
		Tick:    w.TickCount,
		Payload: core.UnitDiedEvent{ID: id, TypeID: u.TypeID, PlayerID: playerID, Killer: killer},
	})
	s.log.WithFields(logrus.Fields{"id": id, "type": u.TypeID, "player": playerID}).Debug("unit died")
}

func (s *UnitSystem) handleKill(w *core.World, attacker, target core.EntityID) {
	if w.Has(target, core.CompUnit) {
		s.killUnit(w, target, attacker)
		return
	}
	if w.Has(target, core.CompBuilding) && s.Buildings != nil {
		s.Buildings.demolish(w, target, attacker)
	}
}

// ---- Helpers ----

func (s *UnitSystem) regenerate(w *core.World, id core.EntityID, u *core.Unit, dt float64) {
	h, ok := w.Get(id, core.CompHealth).(*core.Health)
	if !ok || h.Regen <= 0 || h.Current <= 0 || h.Current >= h.Max {
		return
	}
	regen := h.Regen
	if s.Tech != nil {
		if o, ok := w.Get(id, core.CompOwner).(*core.Owner); ok {
			regen = s.Tech.ModifiedValue(o.PlayerID, regen, gamedata.StatRegen, u.Category, u.TypeID)
		}
	}
	h.RegenCarry += regen * dt
	whole := int(h.RegenCarry)
	if whole <= 0 {
		return
	}
	h.RegenCarry -= float64(whole)
	before := h.Current
	h.Current += whole
	if h.Current > h.Max {
		h.Current = h.Max
	}
	s.Bus.Emit(core.Event{
		Type:    core.EvtHealthChanged,
		Tick:    w.TickCount,
		Payload: core.HealthChangedEvent{ID: id, Before: before, After: h.Current},
	})
}

func (s *UnitSystem) effectiveSpeed(w *core.World, id core.EntityID, u *core.Unit, m *core.Mover) float64 {
	if s.Tech == nil {
		return m.Speed
	}
	o, ok := w.Get(id, core.CompOwner).(*core.Owner)
	if !ok {
		return m.Speed
	}
	return s.Tech.ModifiedValue(o.PlayerID, m.Speed, gamedata.StatMoveSpeed, u.Category, u.TypeID)
}

func (s *UnitSystem) attackStats(w *core.World, id core.EntityID, u *core.Unit, wep *core.Weapon) (base int, interval float64) {
	dmg := float64(wep.Damage)
	if s.Tech != nil {
		if o, ok := w.Get(id, core.CompOwner).(*core.Owner); ok {
			dmg = s.Tech.ModifiedValue(o.PlayerID, dmg, gamedata.StatAttackDamage, u.Category, u.TypeID)
		}
	}
	interval = wep.Interval
	if b, ok := w.Get(id, core.CompBerserk).(*core.Berserk); ok && b.Active {
		dmg *= 1 + b.DamageBonus
		if b.SpeedBonus > 0 {
			interval /= 1 + b.SpeedBonus
		}
	}
	return int(math.Round(dmg)), interval
}

// validTarget accepts entities that still exist with health left and are
// not already dead or destroyed.
func (s *UnitSystem) validTarget(w *core.World, id core.EntityID) bool {
	if id == 0 || !w.Exists(id) {
		return false
	}
	h, ok := w.Get(id, core.CompHealth).(*core.Health)
	if !ok || h.Current <= 0 {
		return false
	}
	if u, ok := w.Get(id, core.CompUnit).(*core.Unit); ok && u.State == core.UnitDead {
		return false
	}
	if b, ok := w.Get(id, core.CompBuilding).(*core.Building); ok && b.State == core.BuildingDestroyed {
		return false
	}
	return true
}

// hiddenFrom reports whether the target is cloaked against the attacker.
func (s *UnitSystem) hiddenFrom(w *core.World, attacker, target core.EntityID) bool {
	v, ok := w.Get(target, core.CompVision).(*core.Vision)
	if !ok || !v.CloakActive {
		return false
	}
	ao, aok := w.Get(attacker, core.CompOwner).(*core.Owner)
	to, tok := w.Get(target, core.CompOwner).(*core.Owner)
	if !aok || !tok {
		return true
	}
	return !s.Players.AreAllies(ao.PlayerID, to.PlayerID)
}

func (s *UnitSystem) inAttackRange(w *core.World, id core.EntityID, u *core.Unit, p *core.Position) bool {
	wep, ok := w.Get(id, core.CompWeapon).(*core.Weapon)
	if !ok {
		return false
	}
	rng := wep.Range
	if s.Tech != nil {
		if o, ok := w.Get(id, core.CompOwner).(*core.Owner); ok {
			rng = s.Tech.ModifiedValue(o.PlayerID, rng, gamedata.StatAttackRange, u.Category, u.TypeID)
		}
	}
	return attackGap(w, p, u.Target) <= rng+1e-9
}

// attackGap measures the distance left between an attacker position and a
// target: edge distance for building footprints, center distance minus the
// body radius for units.
func attackGap(w *core.World, p *core.Position, target core.EntityID) float64 {
	tp, ok := w.Get(target, core.CompPosition).(*core.Position)
	if !ok {
		return math.Inf(1)
	}
	if b, ok := w.Get(target, core.CompBuilding).(*core.Building); ok {
		return rectDistance(p.X, p.Y, float64(b.CellX), float64(b.CellY), float64(b.CellX+b.SizeX), float64(b.CellY+b.SizeY))
	}
	d := p.DistanceTo(tp) - unitBodyRadius
	if d < 0 {
		return 0
	}
	return d
}

func rectDistance(px, py, x0, y0, x1, y1 float64) float64 {
	dx := math.Max(math.Max(x0-px, 0), px-x1)
	dy := math.Max(math.Max(y0-py, 0), py-y1)
	return math.Hypot(dx, dy)
}

func (s *UnitSystem) pathTo(id core.EntityID, p *core.Position, m *core.Mover, cx, cy int) bool {
	sx, sy := s.Grid.WorldToCell(p.X, p.Y)
	caps := capsOf(m)
	path := s.Finder.FindPath(sx, sy, cx, cy, caps)
	if path == nil {
		return false
	}
	if caps.Fly {
		// Uniform cost in the air, so cutting waypoints is safe.
		path = s.Finder.SmoothPath(path, caps)
	}
	m.Path = make([]core.TilePos, len(path))
	for i, pt := range path {
		m.Path[i] = core.TilePos{X: pt.X, Y: pt.Y}
	}
	m.PathIdx = 0
	if len(m.Path) > 1 && m.Path[0].X == sx && m.Path[0].Y == sy {
		m.PathIdx = 1
	}
	return true
}

// relocate moves a position and keeps per-cell unit occupancy in sync.
func (s *UnitSystem) relocate(p *core.Position, nx, ny float64) {
	ox, oy := s.Grid.WorldToCell(p.X, p.Y)
	cx, cy := s.Grid.WorldToCell(nx, ny)
	if ox != cx || oy != cy {
		s.Grid.RemoveUnit(ox, oy)
		s.Grid.AddUnit(cx, cy)
	}
	p.X, p.Y = nx, ny
}

func (s *UnitSystem) clearOrders(w *core.World, id core.EntityID, u *core.Unit) {
	u.Target = 0
	u.State = core.UnitIdle
	s.clearPath(w, id)
}

func (s *UnitSystem) clearPath(w *core.World, id core.EntityID) {
	if m, ok := w.Get(id, core.CompMover).(*core.Mover); ok {
		m.Path, m.PathIdx = nil, 0
	}
}

func targetDown(w *core.World, id core.EntityID) bool {
	h, ok := w.Get(id, core.CompHealth).(*core.Health)
	return ok && h.Current <= 0
}

func capsOf(m *core.Mover) grid.Caps {
	return grid.Caps{Swim: m.CanSwim, Fly: m.CanFly}
}
