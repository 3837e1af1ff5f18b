// Package sim assembles a full playable match from the engine packages:
// map, world, systems, players, banks, and optional AI controllers. A
// match runs on a single goroutine; every system executes synchronously
// inside Tick and nothing here takes locks.
package sim

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/zwm-666/wargrid/engine/ai"
	"github.com/zwm-666/wargrid/engine/core"
	"github.com/zwm-666/wargrid/engine/gamedata"
	"github.com/zwm-666/wargrid/engine/grid"
	"github.com/zwm-666/wargrid/engine/pathfind"
	"github.com/zwm-666/wargrid/engine/systems"
	"github.com/zwm-666/wargrid/pkg/logger"
)

const (
	defaultMapSize   = 64
	defaultTickRate  = 20.0
	defaultStartGold = 500
	defaultStartWood = 250

	startWorkers     = 3
	defeatCheckEvery = 20 // ticks between defeat sweeps
)

// PlayerSetup declares one participant.
type PlayerSetup struct {
	ID   int
	Name string
	Team int
	AI   bool
	// Doctrine overrides the default AI rule set; ignored for humans.
	Doctrine *ai.Doctrine
}

// Config carries everything NewMatch needs. Zero values fall back to
// sensible defaults; Players is the only required field.
type Config struct {
	MapWidth    int
	MapHeight   int
	Seed        int64
	TickRate    float64
	FogInterval float64
	StartGold   int
	StartWood   int
	Catalog     *gamedata.Catalog
	Players     []PlayerSetup
}

func (c *Config) applyDefaults() {
	if c.MapWidth <= 0 {
		c.MapWidth = defaultMapSize
	}
	if c.MapHeight <= 0 {
		c.MapHeight = defaultMapSize
	}
	if c.TickRate <= 0 {
		c.TickRate = defaultTickRate
	}
	if c.StartGold == 0 && c.StartWood == 0 {
		c.StartGold = defaultStartGold
		c.StartWood = defaultStartWood
	}
	if c.Catalog == nil {
		c.Catalog = gamedata.Default()
	}
}

func (c *Config) validate() error {
	if len(c.Players) == 0 {
		return fmt.Errorf("a match needs at least one player")
	}
	if len(c.Players) > 4 {
		return fmt.Errorf("map generation supports up to 4 players, got %d", len(c.Players))
	}
	seen := make(map[int]bool)
	for _, ps := range c.Players {
		if seen[ps.ID] {
			return fmt.Errorf("duplicate player id %d", ps.ID)
		}
		seen[ps.ID] = true
	}
	return c.Catalog.Validate()
}

// Match is one running game: the world with its systems and the players
// acting in it. Not safe for concurrent use; drive it from one goroutine.
type Match struct {
	ID      string
	Grid    *grid.Grid
	World   *core.World
	Bus     *core.EventBus
	Players *core.PlayerManager
	Bank    *core.Bank
	Catalog *gamedata.Catalog
	Finder  *pathfind.Finder

	Factory *systems.EntityFactory
	Units   *systems.UnitSystem
	Builds  *systems.BuildingSystem
	Tech    *systems.TechLedger
	Gather  *systems.GatherSystem
	Fog     *systems.FogSystem
	AI      *ai.AISystem

	log *logrus.Entry
}

// NewMatch generates the map, wires every system, funds the players, and
// plants their starting bases.
func NewMatch(cfg Config) (*Match, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	g := grid.Generate("skirmish", cfg.MapWidth, cfg.MapHeight, cfg.Seed, len(cfg.Players))
	if len(g.StartPositions) < len(cfg.Players) {
		return nil, fmt.Errorf("generated map has %d start positions for %d players",
			len(g.StartPositions), len(cfg.Players))
	}
	// Generation numbers slots 0..n-1; rebind them to the configured ids
	// so controllers and fog lookups address players directly.
	for i := range cfg.Players {
		g.StartPositions[i].PlayerSlot = cfg.Players[i].ID
	}

	world := core.NewWorld(cfg.TickRate)
	bus := core.NewEventBus()
	players := core.NewPlayerManager()
	bank := core.NewBank()
	finder := pathfind.NewFinder(g)
	resolver := systems.NewResolver(cfg.Catalog.Multipliers)
	tech := systems.NewTechLedger(cfg.Catalog, bank, bus)
	factory := systems.NewEntityFactory(g, finder, cfg.Catalog, tech, bus)
	units := systems.NewUnitSystem(g, finder, resolver, tech, players, bus)
	builds := systems.NewBuildingSystem(g, cfg.Catalog, bank, resolver, tech, players, bus, factory)
	units.Buildings = builds
	builds.Units = units
	gather := systems.NewGatherSystem(g, units, bank, bus)
	fog := systems.NewFogSystem(g, players)
	if cfg.FogInterval > 0 {
		fog.Interval = cfg.FogInterval
	}

	world.AddSystem(systems.NewStealthSystem(players))
	world.AddSystem(systems.NewBerserkSystem())
	world.AddSystem(units)
	world.AddSystem(gather)
	world.AddSystem(builds)
	world.AddSystem(fog)

	aisys := ai.NewAISystem()
	svc := ai.Services{
		Grid:    g,
		Catalog: cfg.Catalog,
		Players: players,
		Bank:    bank,
		Units:   units,
		Builds:  builds,
		Tech:    tech,
		Fog:     fog,
	}
	for _, ps := range cfg.Players {
		players.AddPlayer(&core.Player{ID: ps.ID, Name: ps.Name, TeamID: ps.Team, IsAI: ps.AI})
		bank.Add(ps.ID, core.ResourceGold, cfg.StartGold)
		bank.Add(ps.ID, core.ResourceWood, cfg.StartWood)
		if ps.AI {
			aisys.Controllers = append(aisys.Controllers,
				ai.NewAIController(ps.ID, ps.Doctrine, svc, cfg.Seed))
		}
	}
	world.AddSystem(aisys)

	m := &Match{
		ID:      uuid.New().String(),
		Grid:    g,
		World:   world,
		Bus:     bus,
		Players: players,
		Bank:    bank,
		Catalog: cfg.Catalog,
		Finder:  finder,
		Factory: factory,
		Units:   units,
		Builds:  builds,
		Tech:    tech,
		Gather:  gather,
		Fog:     fog,
		AI:      aisys,
		log:     logger.WithComponent("sim"),
	}

	for i, ps := range cfg.Players {
		if err := m.setupBase(ps.ID, g.StartPositions[i]); err != nil {
			return nil, err
		}
	}

	m.log.WithFields(logrus.Fields{
		"match":   m.ID,
		"map":     fmt.Sprintf("%dx%d", g.Width, g.Height),
		"seed":    cfg.Seed,
		"players": len(cfg.Players),
	}).Info("match created")
	return m, nil
}

// Tick advances the simulation one fixed step and delivers the events it
// produced. Implements core.Ticker, so a core.GameLoop can drive a match.
func (m *Match) Tick(dt float64) {
	m.World.Tick(dt)
	m.Bus.Dispatch()
	if m.World.TickCount%defeatCheckEvery == 0 {
		m.checkDefeats()
	}
}

// setupBase plants a player's first gatherer-training building on the
// start position and staffs it.
func (m *Match) setupBase(playerID int, sp grid.StartPos) error {
	hallType := m.baseBuildingType()
	if hallType == "" {
		return fmt.Errorf("catalog has no building able to train a gatherer")
	}
	bdef := m.Catalog.Building(hallType)
	ox, oy := sp.X-bdef.SizeX/2, sp.Y-bdef.SizeY/2

	hall, ok := m.Builds.Place(m.World, hallType, ox, oy, playerID)
	for r := 1; r <= 4 && !ok; r++ {
		// terrain noise can crowd a corner; slide outward until it fits
		for dy := -r; dy <= r && !ok; dy++ {
			for dx := -r; dx <= r && !ok; dx++ {
				if max(abs(dx), abs(dy)) != r {
					continue
				}
				hall, ok = m.Builds.Place(m.World, hallType, ox+dx, oy+dy, playerID)
			}
		}
	}
	if !ok {
		return fmt.Errorf("no ground for a %s near (%d,%d) for player %d",
			hallType, sp.X, sp.Y, playerID)
	}

	workerType := m.gathererTypeOf(hallType)
	b := m.World.Get(hall, core.CompBuilding).(*core.Building)
	for i := 0; i < startWorkers; i++ {
		wx, wy := m.Grid.CellToWorld(b.CellX+i%b.SizeX, b.CellY+b.SizeY)
		m.Factory.SpawnUnit(m.World, workerType, wx, wy, playerID)
	}
	return nil
}

// baseBuildingType picks the catalog's starting building: the first type
// in id order that can train a gatherer.
func (m *Match) baseBuildingType() string {
	ids := make([]string, 0, len(m.Catalog.Buildings))
	for id := range m.Catalog.Buildings {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if m.gathererTypeOf(id) != "" {
			return id
		}
	}
	return ""
}

func (m *Match) gathererTypeOf(buildingID string) string {
	bdef := m.Catalog.Building(buildingID)
	if bdef == nil {
		return ""
	}
	for _, u := range bdef.Producible {
		if udef := m.Catalog.Unit(u); udef != nil && udef.Gather != nil {
			return u
		}
	}
	return ""
}

// checkDefeats flags players with nothing left standing. Corpses in
// their death grace and destroyed buildings do not count as holdings.
func (m *Match) checkDefeats() {
	holdings := make(map[int]int)
	for _, id := range m.World.Query(core.CompOwner) {
		if !m.holding(id) {
			continue
		}
		own := m.World.Get(id, core.CompOwner).(*core.Owner)
		holdings[own.PlayerID]++
	}
	for _, p := range m.Players.Players {
		if p.Defeated || holdings[p.ID] > 0 {
			continue
		}
		p.Defeated = true
		m.log.WithFields(logrus.Fields{"match": m.ID, "player": p.ID, "name": p.Name}).
			Info("player defeated")
	}
}

func (m *Match) holding(id core.EntityID) bool {
	if u, ok := m.World.Get(id, core.CompUnit).(*core.Unit); ok {
		return u.State != core.UnitDead
	}
	if b, ok := m.World.Get(id, core.CompBuilding).(*core.Building); ok {
		return b.State != core.BuildingDestroyed
	}
	return false
}

// ActivePlayers returns the ids of players still in the game.
func (m *Match) ActivePlayers() []int {
	var ids []int
	for _, p := range m.Players.Players {
		if !p.Defeated {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

// Winner reports the last player standing. Only meaningful for matches
// with at least two players.
func (m *Match) Winner() (int, bool) {
	active := m.ActivePlayers()
	if len(active) == 1 && len(m.Players.Players) > 1 {
		return active[0], true
	}
	return 0, false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
