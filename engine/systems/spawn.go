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

// spawnSearchRadius bounds the ring search for a free cell around a
// requested spawn point.
const spawnSearchRadius = 6

// EntityFactory builds units from catalog definitions. It implements
// Spawner for the production pipeline.
type EntityFactory struct {
	Grid    *grid.Grid
	Finder  *pathfind.Finder
	Catalog *gamedata.Catalog
	Tech    *TechLedger
	Bus     *core.EventBus

	log *logrus.Entry
}

func NewEntityFactory(g *grid.Grid, finder *pathfind.Finder, catalog *gamedata.Catalog, tech *TechLedger, bus *core.EventBus) *EntityFactory {
	return &EntityFactory{
		Grid:    g,
		Finder:  finder,
		Catalog: catalog,
		Tech:    tech,
		Bus:     bus,
		log:     logger.WithComponent("spawn"),
	}
}

// SpawnUnit creates a unit of the given type at or near the world point.
// Returns 0 when the type is unknown or no traversable cell exists within
// the search radius. Max health upgrades bake in at spawn time; other
// stat upgrades apply live.
func (f *EntityFactory) SpawnUnit(w *core.World, typeID string, wx, wy float64, playerID int) core.EntityID {
	udef := f.Catalog.Unit(typeID)
	if udef == nil {
		return 0
	}
	caps := grid.Caps{Swim: udef.CanSwim, Fly: udef.CanFly}
	cx, cy := f.Grid.WorldToCell(wx, wy)
	if !f.Grid.Traversable(cx, cy, caps) {
		p, ok := f.Finder.NearestTraversable(cx, cy, spawnSearchRadius, caps)
		if !ok {
			return 0
		}
		cx, cy = p.X, p.Y
	}

	maxHP := udef.MaxHealth
	if f.Tech != nil {
		maxHP = int(math.Round(f.Tech.ModifiedValue(playerID, float64(udef.MaxHealth), gamedata.StatMaxHealth, udef.Category, typeID)))
	}

	id := w.Spawn()
	px, py := f.Grid.CellToWorld(cx, cy)
	w.Attach(id, &core.Position{X: px, Y: py})
	w.Attach(id, &core.Health{Current: maxHP, Max: maxHP, Regen: udef.Regen})
	w.Attach(id, &core.Armor{Kind: udef.ArmorKind, Value: udef.Armor})
	w.Attach(id, &core.Mover{Speed: udef.Speed, CanSwim: udef.CanSwim, CanFly: udef.CanFly})
	w.Attach(id, &core.Unit{TypeID: typeID, Category: udef.Category, State: core.UnitIdle})
	w.Attach(id, &core.Owner{PlayerID: playerID})
	w.Attach(id, &core.Vision{
		Range:       udef.Sight,
		Cloak:       udef.Cloak,
		Detect:      udef.Detect,
		CloakActive: udef.Cloak,
	})
	if udef.Damage > 0 {
		w.Attach(id, &core.Weapon{
			Damage:   udef.Damage,
			Kind:     udef.AttackKind,
			Range:    udef.AttackRange,
			Interval: udef.AttackInterval,
		})
	}
	if udef.Gather != nil {
		w.Attach(id, &core.Gatherer{
			State:    core.GatherIdle,
			Capacity: udef.Gather.Capacity,
			Rate:     udef.Gather.Rate,
		})
	}
	if udef.Berserk != nil {
		w.Attach(id, &core.Berserk{
			Threshold:   udef.Berserk.Threshold,
			DamageBonus: udef.Berserk.DamageBonus,
			SpeedBonus:  udef.Berserk.SpeedBonus,
		})
	}
	f.Grid.AddUnit(cx, cy)

	f.Bus.Emit(core.Event{
		Type:    core.EvtUnitSpawned,
		Tick:    w.TickCount,
		Payload: core.UnitSpawnedEvent{ID: id, TypeID: typeID, PlayerID: playerID},
	})
	f.log.WithFields(logrus.Fields{"unit": id, "type": typeID, "player": playerID}).
		Debug("unit spawned")
	return id
}
