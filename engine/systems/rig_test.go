package systems

import (
	"io"
	"testing"

	"github.com/zwm-666/wargrid/engine/core"
	"github.com/zwm-666/wargrid/engine/gamedata"
	"github.com/zwm-666/wargrid/engine/grid"
	"github.com/zwm-666/wargrid/engine/pathfind"
	"github.com/zwm-666/wargrid/pkg/logger"
)

// rig wires every system around a flat test map, mirroring how a match
// assembles them.
type rig struct {
	world   *core.World
	grid    *grid.Grid
	bus     *core.EventBus
	players *core.PlayerManager
	bank    *core.Bank
	catalog *gamedata.Catalog
	finder  *pathfind.Finder
	tech    *TechLedger
	factory *EntityFactory
	units   *UnitSystem
	builds  *BuildingSystem
	gather  *GatherSystem
	fog     *FogSystem
}

func newRig(t *testing.T, width, height int) *rig {
	t.Helper()
	logger.Log.SetOutput(io.Discard)

	world := core.NewWorld(20)
	bus := core.NewEventBus()
	players := core.NewPlayerManager()
	players.AddPlayer(&core.Player{ID: 1, Name: "alpha"})
	players.AddPlayer(&core.Player{ID: 2, Name: "beta"})
	bank := core.NewBank()
	catalog := testCatalog(t)
	g := grid.New("rig", width, height)
	finder := pathfind.NewFinder(g)
	resolver := NewResolver(catalog.Multipliers)
	tech := NewTechLedger(catalog, bank, bus)
	factory := NewEntityFactory(g, finder, catalog, tech, bus)
	units := NewUnitSystem(g, finder, resolver, tech, players, bus)
	builds := NewBuildingSystem(g, catalog, bank, resolver, tech, players, bus, factory)
	units.Buildings = builds
	builds.Units = units
	gather := NewGatherSystem(g, units, bank, bus)
	fog := NewFogSystem(g, players)

	world.AddSystem(NewStealthSystem(players))
	world.AddSystem(NewBerserkSystem())
	world.AddSystem(units)
	world.AddSystem(gather)
	world.AddSystem(builds)
	world.AddSystem(fog)

	return &rig{
		world:   world,
		grid:    g,
		bus:     bus,
		players: players,
		bank:    bank,
		catalog: catalog,
		finder:  finder,
		tech:    tech,
		factory: factory,
		units:   units,
		builds:  builds,
		gather:  gather,
		fog:     fog,
	}
}

// tick runs n fixed steps and delivers queued events after each, the way
// a match does.
func (r *rig) tick(n int) {
	dt := 1.0 / r.world.TickRate
	for i := 0; i < n; i++ {
		r.world.Tick(dt)
		r.bus.Dispatch()
	}
}

func (r *rig) spawn(t *testing.T, typeID string, cx, cy, player int) core.EntityID {
	t.Helper()
	wx, wy := r.grid.CellToWorld(cx, cy)
	id := r.factory.SpawnUnit(r.world, typeID, wx, wy, player)
	if id == 0 {
		t.Fatalf("SpawnUnit(%s at %d,%d) failed", typeID, cx, cy)
	}
	return id
}

func (r *rig) place(t *testing.T, typeID string, cx, cy, player int) core.EntityID {
	t.Helper()
	id, ok := r.builds.Place(r.world, typeID, cx, cy, player)
	if !ok {
		t.Fatalf("Place(%s at %d,%d) failed", typeID, cx, cy)
	}
	return id
}

func (r *rig) fund(player, gold, wood int) {
	r.bank.Add(player, core.ResourceGold, gold)
	r.bank.Add(player, core.ResourceWood, wood)
}

func (r *rig) addDeposit(cx, cy int, kind core.ResourceKind, amount int) {
	c := r.grid.At(cx, cy)
	c.Resource = kind
	c.Amount = amount
}

func (r *rig) health(t *testing.T, id core.EntityID) *core.Health {
	t.Helper()
	h, ok := r.world.Get(id, core.CompHealth).(*core.Health)
	if !ok {
		t.Fatalf("entity %d has no health", id)
	}
	return h
}

func (r *rig) unit(t *testing.T, id core.EntityID) *core.Unit {
	t.Helper()
	u, ok := r.world.Get(id, core.CompUnit).(*core.Unit)
	if !ok {
		t.Fatalf("entity %d has no unit state", id)
	}
	return u
}

func (r *rig) pos(t *testing.T, id core.EntityID) *core.Position {
	t.Helper()
	p, ok := r.world.Get(id, core.CompPosition).(*core.Position)
	if !ok {
		t.Fatalf("entity %d has no position", id)
	}
	return p
}

// testCatalog builds a small catalog with round numbers so expected
// values stay readable in assertions.
func testCatalog(t *testing.T) *gamedata.Catalog {
	t.Helper()
	c := &gamedata.Catalog{
		Units: map[string]*gamedata.UnitData{
			"grunt": {
				Name: "Grunt", Category: "infantry",
				Cost: core.CostMap{core.ResourceGold: 50}, BuildTime: 2,
				MaxHealth: 60,
				Damage:    10, AttackKind: core.AttackNormal, AttackRange: 1.0, AttackInterval: 1.0,
				ArmorKind: core.ArmorMedium, Armor: 0,
				Speed: 4, Sight: 6,
			},
			"archer": {
				Name: "Archer", Category: "ranged",
				Cost: core.CostMap{core.ResourceGold: 40, core.ResourceWood: 10}, BuildTime: 2,
				MaxHealth: 40,
				Damage:    8, AttackKind: core.AttackPierce, AttackRange: 5.0, AttackInterval: 1.0,
				ArmorKind: core.ArmorLight, Armor: 0,
				Speed: 4, Sight: 7,
			},
			"worker": {
				Name: "Worker", Category: "worker",
				Cost: core.CostMap{core.ResourceGold: 30}, BuildTime: 1,
				MaxHealth: 30,
				ArmorKind: core.ArmorNone,
				Speed:     4, Sight: 5,
				Gather: &gamedata.GatherParams{Capacity: 10, Rate: 10},
			},
			"shade": {
				Name: "Shade", Category: "infantry",
				Cost: core.CostMap{core.ResourceGold: 50, core.ResourceWood: 50}, BuildTime: 2,
				MaxHealth: 35,
				Damage:    6, AttackKind: core.AttackPierce, AttackRange: 1.0, AttackInterval: 1.0,
				ArmorKind: core.ArmorLight, Armor: 0,
				Speed: 4, Sight: 6,
				Cloak: true,
			},
			"seer": {
				Name: "Seer", Category: "support",
				Cost: core.CostMap{core.ResourceGold: 70}, BuildTime: 2,
				MaxHealth: 45,
				ArmorKind: core.ArmorNone,
				Speed:     4, Sight: 8,
				Detect: true,
			},
			"maniac": {
				Name: "Maniac", Category: "infantry",
				Cost: core.CostMap{core.ResourceGold: 55}, BuildTime: 2,
				MaxHealth: 100, Regen: 2,
				Damage: 10, AttackKind: core.AttackNormal, AttackRange: 1.0, AttackInterval: 1.0,
				ArmorKind: core.ArmorMedium, Armor: 0,
				Speed: 4, Sight: 6,
				Berserk: &gamedata.BerserkParams{Threshold: 0.5, DamageBonus: 0.5, SpeedBonus: 0.25},
			},
			"ram": {
				Name: "Ram", Category: "siege",
				Cost: core.CostMap{core.ResourceGold: 80, core.ResourceWood: 40}, BuildTime: 3,
				MaxHealth: 80,
				Damage:    60, AttackKind: core.AttackSiege, AttackRange: 1.5, AttackInterval: 1.0,
				ArmorKind: core.ArmorHeavy, Armor: 1,
				Speed: 3, Sight: 5,
			},
		},
		Buildings: map[string]*gamedata.BuildingData{
			"hall": {
				Name: "Hall", Category: "main",
				Cost: core.CostMap{core.ResourceGold: 200, core.ResourceWood: 100}, BuildTime: 10,
				MaxHealth: 400,
				ArmorKind: core.ArmorFortified, Armor: 2,
				SizeX:     2, SizeY: 2, Sight: 8,
				Producible: []string{"worker"}, QueueCap: 3,
			},
			"barracks": {
				Name: "Barracks", Category: "military",
				Cost: core.CostMap{core.ResourceGold: 100, core.ResourceWood: 50}, BuildTime: 8,
				MaxHealth: 300,
				ArmorKind: core.ArmorFortified, Armor: 1,
				SizeX:     2, SizeY: 2, Sight: 6,
				Producible: []string{"grunt", "archer", "shade", "maniac", "seer", "ram"}, QueueCap: 2,
			},
			"spire": {
				Name: "Spire", Category: "defense",
				Cost: core.CostMap{core.ResourceGold: 50, core.ResourceWood: 50}, BuildTime: 5,
				MaxHealth: 150,
				ArmorKind: core.ArmorFortified, Armor: 1,
				SizeX:     1, SizeY: 1, Sight: 8,
				Damage: 12, AttackKind: core.AttackPierce, AttackRange: 6.0, AttackInterval: 1.0,
				Detect: true,
			},
		},
		Techs: map[string]*gamedata.TechData{
			"sharpen": {
				Name: "Sharpen", Cost: core.CostMap{core.ResourceGold: 100},
				Effects: []gamedata.TechEffect{{Stat: gamedata.StatAttackDamage, Value: 2}},
			},
			"hone": {
				Name: "Hone", Cost: core.CostMap{core.ResourceGold: 150},
				Requires: []string{"sharpen"},
				Effects:  []gamedata.TechEffect{{Stat: gamedata.StatAttackDamage, Value: 0.1, Percent: true}},
			},
			"vigor": {
				Name: "Vigor", Cost: core.CostMap{core.ResourceWood: 80},
				Effects: []gamedata.TechEffect{{Stat: gamedata.StatMaxHealth, Value: 20, Category: "infantry"}},
			},
		},
		Multipliers: gamedata.DefaultMultipliers(),
	}
	for id, u := range c.Units {
		u.ID = id
	}
	for id, b := range c.Buildings {
		b.ID = id
	}
	for id, tech := range c.Techs {
		tech.ID = id
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("test catalog invalid: %v", err)
	}
	return c
}
