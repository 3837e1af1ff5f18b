// Command skirmish runs AI matches without a renderer and prints a report
// of what happened. Useful for balance passes and for soaking the simulation
// at full speed.
package main

import (
	"flag"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/zwm-666/wargrid/engine/ai"
	"github.com/zwm-666/wargrid/engine/core"
	"github.com/zwm-666/wargrid/engine/gamedata"
	"github.com/zwm-666/wargrid/engine/sim"
	"github.com/zwm-666/wargrid/pkg/logger"
)

var playerNames = [...]string{"north", "east", "south", "west"}

type runStats struct {
	runIndex int
	seed     int64

	ticks          uint64
	winner         int
	decided        bool
	firstBloodTick int

	spawned  int
	placed   int
	research int
	losses   map[int]int
	razed    map[int]int
	gathered map[core.ResourceKind]int
}

func main() {
	var (
		runs        int
		ticks       int
		seedBase    int64
		seedStep    int64
		mapSize     int
		players     int
		scenario    string
		catalogPath string
		verbose     bool
	)
	flag.IntVar(&runs, "runs", 3, "number of matches to simulate")
	flag.IntVar(&ticks, "ticks", 6000, "tick cap per match")
	flag.Int64Var(&seedBase, "seed-base", 1, "map seed for run 1")
	flag.Int64Var(&seedStep, "seed-step", 1, "seed increment between runs")
	flag.IntVar(&mapSize, "map", 64, "map width and height in cells")
	flag.IntVar(&players, "players", 2, "number of AI players (2-4)")
	flag.StringVar(&scenario, "scenario", "skirmish", "doctrine script: skirmish, rush or siege")
	flag.StringVar(&catalogPath, "catalog", "", "JSON unit catalog, built-in set when empty")
	flag.BoolVar(&verbose, "v", false, "log simulation events")
	flag.Parse()

	logger.Init()
	if verbose {
		logger.Log.SetLevel(logrus.DebugLevel)
	} else {
		logger.Log.SetLevel(logrus.WarnLevel)
	}

	if runs <= 0 || ticks <= 0 {
		fmt.Println("error: -runs and -ticks must be > 0")
		return
	}
	if players < 2 || players > len(playerNames) {
		fmt.Printf("error: -players must be between 2 and %d\n", len(playerNames))
		return
	}
	if scenario != "skirmish" && scenario != "rush" && scenario != "siege" {
		fmt.Printf("error: unsupported scenario %q (supported: skirmish, rush, siege)\n", scenario)
		return
	}

	catalog := gamedata.Default()
	if catalogPath != "" {
		var err error
		catalog, err = gamedata.Load(catalogPath)
		if err != nil {
			fmt.Printf("error: load catalog: %v\n", err)
			return
		}
	}

	fmt.Printf("=== Skirmish Report ===\n")
	fmt.Printf("scenario=%s runs=%d ticks=%d map=%dx%d players=%d seed_base=%d seed_step=%d\n\n",
		scenario, runs, ticks, mapSize, mapSize, players, seedBase, seedStep)

	all := make([]runStats, 0, runs)
	for i := 0; i < runs; i++ {
		seed := seedBase + int64(i)*seedStep
		rs, err := runMatch(i+1, seed, ticks, mapSize, players, scenario, catalog)
		if err != nil {
			fmt.Printf("error: run %d: %v\n", i+1, err)
			return
		}
		all = append(all, rs)
		printRun(rs)
	}
	printAggregate(all)
}

var rushBook = ai.MustCompile([]*ai.Rule{
	{Name: "defend-base", Priority: 100, Posture: ai.PostureDefend, ConditionSrc: "BaseThreat > 0"},
	{Name: "early-push", Priority: 50, Posture: ai.PostureAttack, ConditionSrc: "ArmyCount >= 4"},
	{Name: "expand", Priority: 10, Posture: ai.PostureExpand, ConditionSrc: "true"},
})

var holdBook = ai.MustCompile([]*ai.Rule{
	{Name: "hold-ground", Priority: 1, Posture: ai.PostureDefend, ConditionSrc: "true"},
})

// doctrineFor maps a scenario to per-slot rule books. Slot order matches
// player order, so siege arms the first player and digs the rest in.
func doctrineFor(scenario string, slot int) *ai.Doctrine {
	switch scenario {
	case "rush":
		return rushBook
	case "siege":
		if slot == 0 {
			return rushBook
		}
		return holdBook
	default:
		return nil
	}
}

func runMatch(runIndex int, seed int64, ticks, mapSize, players int, scenario string, catalog *gamedata.Catalog) (runStats, error) {
	setup := make([]sim.PlayerSetup, players)
	for i := range setup {
		setup[i] = sim.PlayerSetup{
			ID:       i + 1,
			Name:     playerNames[i],
			Team:     i + 1,
			AI:       true,
			Doctrine: doctrineFor(scenario, i),
		}
	}
	m, err := sim.NewMatch(sim.Config{
		MapWidth:  mapSize,
		MapHeight: mapSize,
		Seed:      seed,
		Catalog:   catalog,
		Players:   setup,
	})
	if err != nil {
		return runStats{}, err
	}

	rs := runStats{
		runIndex:       runIndex,
		seed:           seed,
		firstBloodTick: -1,
		losses:         make(map[int]int),
		razed:          make(map[int]int),
		gathered:       make(map[core.ResourceKind]int),
	}
	m.Bus.On(core.EvtUnitSpawned, func(e core.Event) { rs.spawned++ })
	m.Bus.On(core.EvtBuildingPlaced, func(e core.Event) { rs.placed++ })
	m.Bus.On(core.EvtResearchCompleted, func(e core.Event) { rs.research++ })
	m.Bus.On(core.EvtUnitDied, func(e core.Event) {
		d := e.Payload.(core.UnitDiedEvent)
		rs.losses[d.PlayerID]++
		if rs.firstBloodTick < 0 {
			rs.firstBloodTick = int(e.Tick)
		}
	})
	m.Bus.On(core.EvtBuildingDestroyed, func(e core.Event) {
		d := e.Payload.(core.BuildingDestroyedEvent)
		rs.razed[d.PlayerID]++
	})
	m.Bus.On(core.EvtResourceGathered, func(e core.Event) {
		g := e.Payload.(core.ResourceGatheredEvent)
		rs.gathered[g.Kind] += g.Amount
	})

	dt := 1.0 / m.World.TickRate
	for t := 0; t < ticks; t++ {
		m.Tick(dt)
		if winner, over := m.Winner(); over {
			rs.winner = winner
			rs.decided = true
			break
		}
	}
	rs.ticks = m.World.TickCount
	return rs, nil
}

func printRun(rs runStats) {
	fmt.Printf("--- Run %d (seed=%d) ---\n", rs.runIndex, rs.seed)
	if rs.decided {
		fmt.Printf("result: %s wins at tick %d\n", playerNames[rs.winner-1], rs.ticks)
	} else {
		fmt.Printf("result: undecided after %d ticks\n", rs.ticks)
	}
	fmt.Printf("first_blood: %s\n", tickString(rs.firstBloodTick))
	fmt.Printf("economy: %s research=%d\n", gatheredString(rs.gathered), rs.research)
	fmt.Printf("forces: spawned=%d placed=%d losses=%s razed=%s\n",
		rs.spawned, rs.placed, perPlayerString(rs.losses), perPlayerString(rs.razed))
	fmt.Println()
}

func printAggregate(all []runStats) {
	wins := make(map[int]int)
	undecided := 0
	var totalTicks uint64
	bloodTicks := make([]int, 0, len(all))
	var totalSpawned, totalLost, totalResearch int
	gathered := make(map[core.ResourceKind]int)

	for _, rs := range all {
		if rs.decided {
			wins[rs.winner]++
		} else {
			undecided++
		}
		totalTicks += rs.ticks
		if rs.firstBloodTick >= 0 {
			bloodTicks = append(bloodTicks, rs.firstBloodTick)
		}
		totalSpawned += rs.spawned
		totalResearch += rs.research
		for _, n := range rs.losses {
			totalLost += n
		}
		for kind, n := range rs.gathered {
			gathered[kind] += n
		}
	}

	fmt.Println("=== Aggregate ===")
	fmt.Printf("runs=%d undecided=%d wins=%s\n", len(all), undecided, perPlayerString(wins))
	fmt.Printf("avg_ticks=%.0f avg_first_blood=%s\n",
		float64(totalTicks)/float64(len(all)), avgTickString(bloodTicks))
	fmt.Printf("avg_per_run: spawned=%.1f lost=%.1f research=%.1f %s\n",
		avg(totalSpawned, len(all)), avg(totalLost, len(all)), avg(totalResearch, len(all)),
		avgGatheredString(gathered, len(all)))
}

func tickString(t int) string {
	if t < 0 {
		return "n/a"
	}
	return fmt.Sprintf("tick %d", t)
}

func gatheredString(g map[core.ResourceKind]int) string {
	parts := make([]string, 0, len(core.ResourceKinds))
	for _, kind := range core.ResourceKinds {
		parts = append(parts, fmt.Sprintf("%s=%d", kind, g[kind]))
	}
	return strings.Join(parts, " ")
}

func avgGatheredString(g map[core.ResourceKind]int, runs int) string {
	parts := make([]string, 0, len(core.ResourceKinds))
	for _, kind := range core.ResourceKinds {
		parts = append(parts, fmt.Sprintf("%s=%.1f", kind, avg(g[kind], runs)))
	}
	return strings.Join(parts, " ")
}

func perPlayerString(m map[int]int) string {
	if len(m) == 0 {
		return "none"
	}
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("%s=%d", playerNames[id-1], m[id]))
	}
	return strings.Join(parts, " ")
}

func avg(sum, n int) float64 {
	if n <= 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

func avgTickString(vals []int) string {
	if len(vals) == 0 {
		return "n/a"
	}
	sum := 0
	for _, v := range vals {
		sum += v
	}
	return fmt.Sprintf("%.1f", float64(sum)/float64(len(vals)))
}
