package systems

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/zwm-666/wargrid/engine/core"
	"github.com/zwm-666/wargrid/engine/gamedata"
	"github.com/zwm-666/wargrid/engine/grid"
	"github.com/zwm-666/wargrid/pkg/logger"
)

// cancelRefundRate is the fraction of each cost component returned when a
// queued job is cancelled, rounded half up per resource kind.
const cancelRefundRate = 0.75

// Spawner places finished units into the world. The entity factory
// implements it; tests substitute their own.
type Spawner interface {
	SpawnUnit(w *core.World, typeID string, wx, wy float64, playerID int) core.EntityID
}

// BuildingSystem advances building lifecycles and production queues, and
// fires defensive buildings at enemies in range.
type BuildingSystem struct {
	Grid     *grid.Grid
	Catalog  *gamedata.Catalog
	Ledger   core.ResourceLedger
	Resolver *Resolver
	Tech     *TechLedger
	Players  *core.PlayerManager
	Bus      *core.EventBus
	Spawner  Spawner

	// Units issues rally move orders for freshly spawned units and runs
	// the death path when tower fire kills something.
	Units *UnitSystem

	log *logrus.Entry
}

func NewBuildingSystem(g *grid.Grid, catalog *gamedata.Catalog, ledger core.ResourceLedger, resolver *Resolver, tech *TechLedger, players *core.PlayerManager, bus *core.EventBus, spawner Spawner) *BuildingSystem {
	return &BuildingSystem{
		Grid:     g,
		Catalog:  catalog,
		Ledger:   ledger,
		Resolver: resolver,
		Tech:     tech,
		Players:  players,
		Bus:      bus,
		Spawner:  spawner,
		log:      logger.WithComponent("buildings"),
	}
}

func (s *BuildingSystem) Priority() int { return 20 }

func (s *BuildingSystem) Update(w *core.World, dt float64) {
	ids := w.Query(core.CompBuilding, core.CompPosition)
	for _, id := range ids {
		b := w.Get(id, core.CompBuilding).(*core.Building)
		switch b.State {
		case core.BuildingUnderConstruction:
			// Construction over time is not modelled yet; the state
			// exists so saves and future build mechanics have a slot.
			b.State = core.BuildingReady
		case core.BuildingReady:
			if p, ok := w.Get(id, core.CompProduction).(*core.Production); ok && len(p.Queue) > 0 {
				b.State = core.BuildingProducing
			}
		case core.BuildingProducing:
			s.produce(w, id, b, dt)
		case core.BuildingDestroyed:
			// Terminal. The entity leaves the world in demolish.
		}

		if b.State != core.BuildingDestroyed {
			s.towerFire(w, id, b, dt)
		}
	}
}

// ---- Production ----

// produce counts down the head job only. Finished units spawn near the
// building and walk to the rally point when one is set. A fully blocked
// spawn area holds the queue until a cell frees up.
func (s *BuildingSystem) produce(w *core.World, id core.EntityID, b *core.Building, dt float64) {
	prod, ok := w.Get(id, core.CompProduction).(*core.Production)
	if !ok || len(prod.Queue) == 0 {
		b.State = core.BuildingReady
		return
	}
	head := &prod.Queue[0]
	head.Remaining -= dt
	if head.Remaining > 0 {
		return
	}

	playerID := 0
	if o, ok := w.Get(id, core.CompOwner).(*core.Owner); ok {
		playerID = o.PlayerID
	}

	// Finished units appear at the definition's spawn offset, or the south
	// edge midpoint; the factory ring-searches from there for a free cell.
	spawnX, spawnY := b.CellX+b.SizeX/2, b.CellY+b.SizeY
	if bdef := s.Catalog.Building(b.TypeID); bdef != nil && bdef.Spawn != nil {
		spawnX, spawnY = b.CellX+bdef.Spawn.X, b.CellY+bdef.Spawn.Y
	}
	sx, sy := s.Grid.CellToWorld(spawnX, spawnY)
	uid := s.Spawner.SpawnUnit(w, head.TypeID, sx, sy, playerID)
	if uid == 0 {
		head.Remaining = 0 // blocked: retry next tick
		return
	}
	if prod.HasRally && s.Units != nil {
		rx, ry := s.Grid.CellToWorld(prod.Rally.X, prod.Rally.Y)
		s.Units.OrderMove(w, uid, rx, ry)
	}

	prod.Queue = prod.Queue[1:]
	if len(prod.Queue) == 0 {
		b.State = core.BuildingReady
	}
	s.Bus.Emit(core.Event{
		Type:    core.EvtProductionChanged,
		Tick:    w.TickCount,
		Payload: core.ProductionChangedEvent{Building: id, PlayerID: playerID, QueueLen: len(prod.Queue)},
	})
	s.log.WithFields(logrus.Fields{"building": id, "unit": uid, "player": playerID}).
		Debug("production complete")
}

// Enqueue appends a production job. The full cost is charged up front;
// any failed precondition leaves the ledger untouched.
func (s *BuildingSystem) Enqueue(w *core.World, id core.EntityID, unitType string) bool {
	b, ok := w.Get(id, core.CompBuilding).(*core.Building)
	if !ok || (b.State != core.BuildingReady && b.State != core.BuildingProducing) {
		return false
	}
	prod, ok := w.Get(id, core.CompProduction).(*core.Production)
	if !ok || len(prod.Queue) >= prod.Capacity {
		return false
	}
	if !containsString(prod.Producible, unitType) {
		return false
	}
	udef := s.Catalog.Unit(unitType)
	if udef == nil {
		return false
	}
	o, ok := w.Get(id, core.CompOwner).(*core.Owner)
	if !ok || !s.Ledger.Spend(o.PlayerID, udef.Cost) {
		return false
	}

	prod.Queue = append(prod.Queue, core.BuildJob{
		TypeID:    unitType,
		Remaining: udef.BuildTime,
		Total:     udef.BuildTime,
	})
	if b.State == core.BuildingReady {
		b.State = core.BuildingProducing
	}
	s.Bus.Emit(core.Event{
		Type:    core.EvtProductionChanged,
		Tick:    w.TickCount,
		Payload: core.ProductionChangedEvent{Building: id, PlayerID: o.PlayerID, QueueLen: len(prod.Queue)},
	})
	return true
}

// Cancel removes the queue entry at index and refunds 75% of each cost
// component, rounded half up per resource kind.
func (s *BuildingSystem) Cancel(w *core.World, id core.EntityID, index int) bool {
	prod, ok := w.Get(id, core.CompProduction).(*core.Production)
	if !ok || index < 0 || index >= len(prod.Queue) {
		return false
	}
	b, ok := w.Get(id, core.CompBuilding).(*core.Building)
	if !ok {
		return false
	}
	o, ok := w.Get(id, core.CompOwner).(*core.Owner)
	if !ok {
		return false
	}

	job := prod.Queue[index]
	prod.Queue = append(prod.Queue[:index], prod.Queue[index+1:]...)
	if udef := s.Catalog.Unit(job.TypeID); udef != nil {
		for kind, amount := range udef.Cost {
			refund := int(math.Round(float64(amount) * cancelRefundRate))
			s.Ledger.Add(o.PlayerID, kind, refund)
		}
	}
	if len(prod.Queue) == 0 && b.State == core.BuildingProducing {
		b.State = core.BuildingReady
	}
	s.Bus.Emit(core.Event{
		Type:    core.EvtProductionChanged,
		Tick:    w.TickCount,
		Payload: core.ProductionChangedEvent{Building: id, PlayerID: o.PlayerID, QueueLen: len(prod.Queue)},
	})
	return true
}

// SetRally points finished units at a cell.
func (s *BuildingSystem) SetRally(w *core.World, id core.EntityID, cx, cy int) bool {
	prod, ok := w.Get(id, core.CompProduction).(*core.Production)
	if !ok || !s.Grid.InBounds(cx, cy) {
		return false
	}
	prod.Rally = core.TilePos{X: cx, Y: cy}
	prod.HasRally = true
	return true
}

// ---- Placement ----

// Place creates a building with its footprint origin at (cellX, cellY)
// without charging the owner. Returns 0, false when the definition is
// unknown or the footprint is not free walkable ground.
func (s *BuildingSystem) Place(w *core.World, typeID string, cellX, cellY, playerID int) (core.EntityID, bool) {
	bdef := s.Catalog.Building(typeID)
	if bdef == nil {
		return 0, false
	}
	id := w.Spawn()
	if !s.Grid.PlaceBuilding(cellX, cellY, bdef.SizeX, bdef.SizeY, id) {
		w.Destroy(id)
		return 0, false
	}

	maxHP := bdef.MaxHealth
	if s.Tech != nil {
		maxHP = int(math.Round(s.Tech.ModifiedValue(playerID, float64(bdef.MaxHealth), gamedata.StatMaxHealth, bdef.Category, typeID)))
	}

	b := &core.Building{
		TypeID:   typeID,
		Category: bdef.Category,
		State:    core.BuildingUnderConstruction,
		CellX:    cellX,
		CellY:    cellY,
		SizeX:    bdef.SizeX,
		SizeY:    bdef.SizeY,
	}
	w.Attach(id, b)
	w.Attach(id, &core.Position{
		X: float64(cellX) + float64(bdef.SizeX)/2,
		Y: float64(cellY) + float64(bdef.SizeY)/2,
	})
	w.Attach(id, &core.Health{Current: maxHP, Max: maxHP})
	w.Attach(id, &core.Armor{Kind: bdef.ArmorKind, Value: bdef.Armor})
	w.Attach(id, &core.Owner{PlayerID: playerID})
	w.Attach(id, &core.Vision{Range: bdef.Sight, Detect: bdef.Detect})
	if len(bdef.Producible) > 0 {
		w.Attach(id, &core.Production{
			Capacity:   bdef.QueueCap,
			Producible: append([]string(nil), bdef.Producible...),
		})
	}
	if bdef.Damage > 0 {
		w.Attach(id, &core.Weapon{
			Damage:   bdef.Damage,
			Kind:     bdef.AttackKind,
			Range:    bdef.AttackRange,
			Interval: bdef.AttackInterval,
		})
	}

	// Construction over time is out of scope: placement completes at
	// once, leaving the under-construction state as a pass-through.
	b.State = core.BuildingReady

	s.Bus.Emit(core.Event{
		Type:    core.EvtBuildingPlaced,
		Tick:    w.TickCount,
		Payload: core.BuildingPlacedEvent{ID: id, TypeID: typeID, PlayerID: playerID},
	})
	s.log.WithFields(logrus.Fields{"building": id, "type": typeID, "player": playerID, "x": cellX, "y": cellY}).
		Info("building placed")
	return id, true
}

// Buy places a building and charges its full cost. Placement is validated
// before any spending.
func (s *BuildingSystem) Buy(w *core.World, typeID string, cellX, cellY, playerID int) (core.EntityID, bool) {
	bdef := s.Catalog.Building(typeID)
	if bdef == nil || !s.Ledger.CanAfford(playerID, bdef.Cost) {
		return 0, false
	}
	id, ok := s.Place(w, typeID, cellX, cellY, playerID)
	if !ok {
		return 0, false
	}
	s.Ledger.Spend(playerID, bdef.Cost)
	return id, true
}

// ---- Destruction ----

// demolish runs the destruction path: queued jobs are cancelled with their
// refunds, then the footprint frees up and the entity leaves the world.
func (s *BuildingSystem) demolish(w *core.World, id, killer core.EntityID) {
	b, ok := w.Get(id, core.CompBuilding).(*core.Building)
	if !ok || b.State == core.BuildingDestroyed {
		return
	}
	b.State = core.BuildingDestroyed
	if h, ok := w.Get(id, core.CompHealth).(*core.Health); ok {
		h.Current = 0
	}

	if prod, ok := w.Get(id, core.CompProduction).(*core.Production); ok {
		for len(prod.Queue) > 0 {
			s.cancelDestroyed(w, id, prod)
		}
	}
	s.Grid.ReleaseBuilding(b.CellX, b.CellY, b.SizeX, b.SizeY, id)

	playerID := 0
	if o, ok := w.Get(id, core.CompOwner).(*core.Owner); ok {
		playerID = o.PlayerID
	}
	s.Bus.Emit(core.Event{
		Type:    core.EvtBuildingDestroyed,
		Tick:    w.TickCount,
		Payload: core.BuildingDestroyedEvent{ID: id, TypeID: b.TypeID, PlayerID: playerID},
	})
	s.log.WithFields(logrus.Fields{"building": id, "type": b.TypeID, "player": playerID, "killer": killer}).
		Info("building destroyed")
	w.Destroy(id)
}

// cancelDestroyed refunds the head job without the state bookkeeping of
// Cancel, which refuses destroyed buildings.
func (s *BuildingSystem) cancelDestroyed(w *core.World, id core.EntityID, prod *core.Production) {
	job := prod.Queue[0]
	prod.Queue = prod.Queue[1:]
	o, ok := w.Get(id, core.CompOwner).(*core.Owner)
	if !ok {
		return
	}
	if udef := s.Catalog.Unit(job.TypeID); udef != nil {
		for kind, amount := range udef.Cost {
			refund := int(math.Round(float64(amount) * cancelRefundRate))
			s.Ledger.Add(o.PlayerID, kind, refund)
		}
	}
	s.Bus.Emit(core.Event{
		Type:    core.EvtProductionChanged,
		Tick:    w.TickCount,
		Payload: core.ProductionChangedEvent{Building: id, PlayerID: o.PlayerID, QueueLen: len(prod.Queue)},
	})
}

// ---- Defense ----

// towerFire lets armed buildings shoot the nearest visible enemy unit in
// range. Buildings never chase, so out-of-range enemies are simply left
// alone.
func (s *BuildingSystem) towerFire(w *core.World, id core.EntityID, b *core.Building, dt float64) {
	wep, ok := w.Get(id, core.CompWeapon).(*core.Weapon)
	if !ok {
		return
	}
	if wep.Cooldown > 0 {
		wep.Cooldown -= dt
	}
	if wep.Cooldown > 0 {
		return
	}
	o, ok := w.Get(id, core.CompOwner).(*core.Owner)
	if !ok {
		return
	}
	detect := false
	if v, ok := w.Get(id, core.CompVision).(*core.Vision); ok {
		detect = v.Detect
	}

	rng := wep.Range
	if s.Tech != nil {
		rng = s.Tech.ModifiedValue(o.PlayerID, rng, gamedata.StatAttackRange, b.Category, b.TypeID)
	}

	var bestID core.EntityID
	bestDist := math.MaxFloat64
	for _, tid := range w.Query(core.CompUnit, core.CompPosition, core.CompOwner) {
		tu := w.Get(tid, core.CompUnit).(*core.Unit)
		if tu.State == core.UnitDead {
			continue
		}
		to := w.Get(tid, core.CompOwner).(*core.Owner)
		if s.Players.AreAllies(o.PlayerID, to.PlayerID) {
			continue
		}
		if v, ok := w.Get(tid, core.CompVision).(*core.Vision); ok && v.CloakActive && !detect {
			continue
		}
		tp := w.Get(tid, core.CompPosition).(*core.Position)
		d := rectDistance(tp.X, tp.Y, float64(b.CellX), float64(b.CellY), float64(b.CellX+b.SizeX), float64(b.CellY+b.SizeY))
		if d <= rng && d < bestDist {
			bestDist = d
			bestID = tid
		}
	}
	if bestID == 0 {
		return
	}

	base := float64(wep.Damage)
	if s.Tech != nil {
		base = s.Tech.ModifiedValue(o.PlayerID, base, gamedata.StatAttackDamage, b.Category, b.TypeID)
	}
	dealt := ApplyDamage(w, bestID, int(math.Round(base)), wep.Kind, s.Resolver, s.Tech, s.Bus)
	wep.Cooldown = wep.Interval
	if dealt > 0 && targetDown(w, bestID) && s.Units != nil {
		s.Units.killUnit(w, bestID, id)
	}
}
