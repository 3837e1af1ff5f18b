// Package ai drives computer players. Each controller wakes on a fixed
// interval and snapshots the world into a doctrine environment before
// acting through the same system entry points a human player's commands
// use. It never touches components the systems own.
package ai

import (
	"math"
	"math/rand"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/zwm-666/wargrid/engine/core"
	"github.com/zwm-666/wargrid/engine/gamedata"
	"github.com/zwm-666/wargrid/engine/grid"
	"github.com/zwm-666/wargrid/engine/systems"
	"github.com/zwm-666/wargrid/pkg/logger"
)

const (
	defaultThinkInterval = 1.0

	workerTarget = 5   // keep this many gatherers alive
	richGold     = 800 // above this the bank buys the expensive option

	baseRadius       = 8.0 // threat scan distance around the base
	regroupRadius    = 6.0 // defenders rally within this of the base
	siteSearchRadius = 9   // ring search limit for new buildings
)

// Services bundles the engine hooks a controller acts through.
type Services struct {
	Grid    *grid.Grid
	Catalog *gamedata.Catalog
	Players *core.PlayerManager
	Bank    core.ResourceLedger
	Units   *systems.UnitSystem
	Builds  *systems.BuildingSystem
	Tech    *systems.TechLedger
	Fog     *systems.FogSystem
}

// AIController runs one computer player.
type AIController struct {
	PlayerID int
	Doctrine *Doctrine

	ThinkInterval float64

	grid    *grid.Grid
	catalog *gamedata.Catalog
	players *core.PlayerManager
	bank    core.ResourceLedger
	units   *systems.UnitSystem
	builds  *systems.BuildingSystem
	tech    *systems.TechLedger
	fog     *systems.FogSystem

	posture    Posture
	thinkTimer float64
	rng        *rand.Rand
	log        *logrus.Entry
}

// NewAIController wires a controller for one player. A nil doctrine gets
// the default rule set. The seed keeps wave jitter reproducible between
// runs of the same match.
func NewAIController(playerID int, doctrine *Doctrine, svc Services, seed int64) *AIController {
	if doctrine == nil {
		doctrine = DefaultDoctrine()
	}
	return &AIController{
		PlayerID:      playerID,
		Doctrine:      doctrine,
		ThinkInterval: defaultThinkInterval,
		grid:          svc.Grid,
		catalog:       svc.Catalog,
		players:       svc.Players,
		bank:          svc.Bank,
		units:         svc.Units,
		builds:        svc.Builds,
		tech:          svc.Tech,
		fog:           svc.Fog,
		rng:           rand.New(rand.NewSource(seed + int64(playerID))),
		log:           logger.WithComponent("ai").WithField("player", playerID),
	}
}

// AISystem steps every registered controller from the world clock.
type AISystem struct {
	Controllers []*AIController
}

func NewAISystem(controllers ...*AIController) *AISystem {
	return &AISystem{Controllers: controllers}
}

func (s *AISystem) Priority() int { return 60 }

func (s *AISystem) Update(w *core.World, dt float64) {
	for _, c := range s.Controllers {
		c.thinkTimer -= dt
		if c.thinkTimer > 0 {
			continue
		}
		c.thinkTimer = c.ThinkInterval
		c.Think(w)
	}
}

// Think runs one decision pass: observe, pick a posture, keep the economy
// and production fed, then act on the posture.
func (ai *AIController) Think(w *core.World) {
	p := ai.players.GetPlayer(ai.PlayerID)
	if p == nil || p.Defeated {
		return
	}

	env := ai.observe(w)
	posture, rule := ai.Doctrine.Decide(env)
	if posture != ai.posture {
		ai.posture = posture
		ai.log.WithFields(logrus.Fields{"posture": posture.String(), "rule": rule}).Debug("posture change")
	}

	ai.keepWorkers(w, env)
	ai.keepProduction(w, env)
	ai.research(w)

	switch ai.posture {
	case PostureAttack:
		ai.attack(w)
	case PostureDefend:
		ai.defend(w)
	}
}

// observe snapshots the facts doctrine conditions read. Enemy knowledge
// goes through the fog filter so the controller cannot cheat.
func (ai *AIController) observe(w *core.World) Env {
	env := Env{
		Gold:      ai.bank.Balance(ai.PlayerID, core.ResourceGold),
		Wood:      ai.bank.Balance(ai.PlayerID, core.ResourceWood),
		TechCount: len(ai.tech.Unlocked(ai.PlayerID)),
		Counts:    make(map[string]int),
	}

	for _, id := range w.Query(core.CompUnit, core.CompOwner) {
		u := w.Get(id, core.CompUnit).(*core.Unit)
		if u.State == core.UnitDead {
			continue
		}
		own := w.Get(id, core.CompOwner).(*core.Owner)
		if own.PlayerID != ai.PlayerID {
			if !env.EnemySighted && !ai.players.AreAllies(ai.PlayerID, own.PlayerID) &&
				ai.fog.EntityVisibleTo(w, ai.PlayerID, id) {
				env.EnemySighted = true
			}
			continue
		}
		env.Counts[u.TypeID]++
		switch {
		case w.Has(id, core.CompGatherer):
			env.WorkerCount++
		case w.Has(id, core.CompWeapon):
			env.ArmyCount++
		}
	}

	for _, id := range w.Query(core.CompBuilding, core.CompOwner) {
		b := w.Get(id, core.CompBuilding).(*core.Building)
		if b.State == core.BuildingDestroyed {
			continue
		}
		own := w.Get(id, core.CompOwner).(*core.Owner)
		if own.PlayerID != ai.PlayerID {
			if !env.EnemySighted && !ai.players.AreAllies(ai.PlayerID, own.PlayerID) &&
				ai.fog.EntityVisibleTo(w, ai.PlayerID, id) {
				env.EnemySighted = true
			}
			continue
		}
		env.Counts[b.TypeID]++
	}

	if bx, by, ok := ai.basePos(w); ok {
		env.BaseThreat = ThreatAssessment(w, ai.players, ai.PlayerID, bx, by, baseRadius)
	}
	return env
}

// ---- Economy & production ----

// keepWorkers tops the economy up to the worker target. One queue slot
// per think, so army spending still gets its turn.
func (ai *AIController) keepWorkers(w *core.World, env Env) {
	if env.WorkerCount >= workerTarget {
		return
	}
	for _, id := range ai.ownProduction(w) {
		prod := w.Get(id, core.CompProduction).(*core.Production)
		if len(prod.Queue) > 0 {
			continue
		}
		for _, typeID := range prod.Producible {
			udef := ai.catalog.Unit(typeID)
			if udef == nil || udef.Gather == nil {
				continue
			}
			if ai.builds.Enqueue(w, id, typeID) {
				return
			}
		}
	}
}

// keepProduction feeds idle army queues and buys the first production
// building when the player has none that trains fighters.
func (ai *AIController) keepProduction(w *core.World, env Env) {
	for _, id := range ai.ownProduction(w) {
		prod := w.Get(id, core.CompProduction).(*core.Production)
		if len(prod.Queue) > 0 {
			continue
		}
		if typeID := ai.pickArmyUnit(prod.Producible, env); typeID != "" {
			ai.builds.Enqueue(w, id, typeID)
		}
	}

	if ai.hasArmyBuilding(w) {
		return
	}
	typeID := ai.pickArmyBuilding()
	if typeID == "" {
		return
	}
	if bx, by, ok := ai.basePos(w); ok {
		cx, cy := ai.grid.WorldToCell(bx, by)
		ai.siteAndBuy(w, typeID, cx, cy)
	}
}

// ownProduction lists the player's living production buildings in stable
// id order.
func (ai *AIController) ownProduction(w *core.World) []core.EntityID {
	var ids []core.EntityID
	for _, id := range w.Query(core.CompBuilding, core.CompProduction, core.CompOwner) {
		own := w.Get(id, core.CompOwner).(*core.Owner)
		b := w.Get(id, core.CompBuilding).(*core.Building)
		if own.PlayerID != ai.PlayerID || b.State == core.BuildingDestroyed {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// pickArmyUnit chooses what to train from a producible list. Cheap bodies
// early, the priciest affordable type once the bank runs a surplus.
func (ai *AIController) pickArmyUnit(producible []string, env Env) string {
	type option struct {
		id   string
		cost int
	}
	var opts []option
	for _, typeID := range producible {
		udef := ai.catalog.Unit(typeID)
		if udef == nil || udef.Damage <= 0 || udef.Gather != nil {
			continue
		}
		if !ai.bank.CanAfford(ai.PlayerID, udef.Cost) {
			continue
		}
		opts = append(opts, option{typeID, totalCost(udef.Cost)})
	}
	if len(opts) == 0 {
		return ""
	}
	sort.Slice(opts, func(i, j int) bool {
		if opts[i].cost != opts[j].cost {
			return opts[i].cost < opts[j].cost
		}
		return opts[i].id < opts[j].id
	})
	if env.Gold > richGold && env.ArmyCount > 3 {
		return opts[len(opts)-1].id
	}
	return opts[0].id
}

// pickArmyBuilding returns the cheapest affordable building type able to
// train an armed unit.
func (ai *AIController) pickArmyBuilding() string {
	bestID := ""
	bestCost := 0
	for id, bdef := range ai.catalog.Buildings {
		if !ai.trainsFighters(bdef) || !ai.bank.CanAfford(ai.PlayerID, bdef.Cost) {
			continue
		}
		c := totalCost(bdef.Cost)
		if bestID == "" || c < bestCost || (c == bestCost && id < bestID) {
			bestID, bestCost = id, c
		}
	}
	return bestID
}

func (ai *AIController) trainsFighters(bdef *gamedata.BuildingData) bool {
	for _, typeID := range bdef.Producible {
		if udef := ai.catalog.Unit(typeID); udef != nil && udef.Damage > 0 && udef.Gather == nil {
			return true
		}
	}
	return false
}

func (ai *AIController) hasArmyBuilding(w *core.World) bool {
	for _, id := range w.Query(core.CompBuilding, core.CompProduction, core.CompOwner) {
		own := w.Get(id, core.CompOwner).(*core.Owner)
		b := w.Get(id, core.CompBuilding).(*core.Building)
		if own.PlayerID != ai.PlayerID || b.State == core.BuildingDestroyed {
			continue
		}
		if bdef := ai.catalog.Building(b.TypeID); bdef != nil && ai.trainsFighters(bdef) {
			return true
		}
	}
	return false
}

// siteAndBuy walks rings around the anchor cell until a footprint fits.
// Buy validates placement before spending, so failed candidates cost
// nothing.
func (ai *AIController) siteAndBuy(w *core.World, typeID string, cx, cy int) core.EntityID {
	for r := 2; r <= siteSearchRadius; r++ {
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				if max(abs(dx), abs(dy)) != r {
					continue
				}
				if !ai.grid.Traversable(cx+dx, cy+dy, grid.Caps{}) {
					continue
				}
				if id, ok := ai.builds.Buy(w, typeID, cx+dx, cy+dy, ai.PlayerID); ok {
					return id
				}
			}
		}
	}
	return 0
}

// research unlocks one affordable technology per think, cheapest first.
// It runs after unit spending, so the army keeps first claim on funds.
func (ai *AIController) research(w *core.World) {
	bestID := ""
	bestCost := 0
	for id, td := range ai.catalog.Techs {
		if !ai.tech.CanUnlock(ai.PlayerID, id) {
			continue
		}
		c := totalCost(td.Cost)
		if bestID == "" || c < bestCost || (c == bestCost && id < bestID) {
			bestID, bestCost = id, c
		}
	}
	if bestID != "" {
		ai.tech.Unlock(w, ai.PlayerID, bestID)
	}
}

// ---- Combat postures ----

// attack sends the army at the best-known enemy location: the nearest
// sighted enemy first, the enemy start position as the standing guess.
// Units already fighting are left alone.
func (ai *AIController) attack(w *core.World) {
	targetID, tx, ty, found := ai.findTarget(w)
	if !found {
		return
	}
	for _, id := range ai.armyUnits(w) {
		u := w.Get(id, core.CompUnit).(*core.Unit)
		if u.State == core.UnitAttacking || u.State == core.UnitFollowing {
			continue
		}
		if targetID != 0 && ai.units.OrderAttack(w, id, targetID) {
			continue
		}
		if u.State != core.UnitIdle {
			continue
		}
		ai.orderMoveSpread(w, id, tx, ty)
	}
}

// defend focuses the closest intruder and pulls stragglers back to the
// base.
func (ai *AIController) defend(w *core.World) {
	bx, by, ok := ai.basePos(w)
	if !ok {
		return
	}
	intruder := ai.nearestIntruder(w, bx, by)
	for _, id := range ai.armyUnits(w) {
		u := w.Get(id, core.CompUnit).(*core.Unit)
		if u.State == core.UnitAttacking || u.State == core.UnitFollowing {
			continue
		}
		if intruder != 0 && ai.units.OrderAttack(w, id, intruder) {
			continue
		}
		pos := w.Get(id, core.CompPosition).(*core.Position)
		if math.Hypot(pos.X-bx, pos.Y-by) <= regroupRadius {
			continue
		}
		ai.orderMoveSpread(w, id, bx, by)
	}
}

// orderMoveSpread moves a unit to a jittered goal near a point. The
// jitter spreads groups so they do not stack on one cell; a few retries
// cover goals that land on blocked ground.
func (ai *AIController) orderMoveSpread(w *core.World, id core.EntityID, tx, ty float64) bool {
	for try := 0; try < 3; try++ {
		ox := tx + float64(ai.rng.Intn(5)-2)
		oy := ty + float64(ai.rng.Intn(5)-2)
		if ai.units.OrderMove(w, id, ox, oy) {
			return true
		}
	}
	return false
}

// findTarget picks the sighted enemy nearest the base, falling back to an
// enemy start position when nothing is visible. Ties break to the lowest
// entity id so repeated thinks stay stable.
func (ai *AIController) findTarget(w *core.World) (core.EntityID, float64, float64, bool) {
	ax, ay, anchored := ai.basePos(w)
	best := core.EntityID(0)
	bestD := math.Inf(1)
	var bx, by float64
	for _, id := range w.Query(core.CompPosition, core.CompOwner) {
		own := w.Get(id, core.CompOwner).(*core.Owner)
		if ai.players.AreAllies(ai.PlayerID, own.PlayerID) {
			continue
		}
		if !alive(w, id) || !ai.fog.EntityVisibleTo(w, ai.PlayerID, id) {
			continue
		}
		pos := w.Get(id, core.CompPosition).(*core.Position)
		d := 0.0
		if anchored {
			d = math.Hypot(pos.X-ax, pos.Y-ay)
		}
		if best == 0 || d < bestD || (d == bestD && id < best) {
			best, bestD, bx, by = id, d, pos.X, pos.Y
		}
	}
	if best != 0 {
		return best, bx, by, true
	}
	for _, sp := range ai.grid.StartPositions {
		if sp.PlayerSlot != ai.PlayerID && !ai.players.AreAllies(ai.PlayerID, sp.PlayerSlot) {
			wx, wy := ai.grid.CellToWorld(sp.X, sp.Y)
			return 0, wx, wy, true
		}
	}
	return 0, 0, 0, false
}

// nearestIntruder returns the closest living enemy within the base
// threat radius, or 0.
func (ai *AIController) nearestIntruder(w *core.World, bx, by float64) core.EntityID {
	best := core.EntityID(0)
	bestD := math.Inf(1)
	for _, id := range w.Query(core.CompPosition, core.CompOwner) {
		own := w.Get(id, core.CompOwner).(*core.Owner)
		if ai.players.AreAllies(ai.PlayerID, own.PlayerID) {
			continue
		}
		if !alive(w, id) || !ai.fog.EntityVisibleTo(w, ai.PlayerID, id) {
			continue
		}
		pos := w.Get(id, core.CompPosition).(*core.Position)
		d := math.Hypot(pos.X-bx, pos.Y-by)
		if d > baseRadius {
			continue
		}
		if d < bestD || (d == bestD && (best == 0 || id < best)) {
			best, bestD = id, d
		}
	}
	return best
}

// armyUnits lists the player's living armed units, workers excluded, in
// stable id order.
func (ai *AIController) armyUnits(w *core.World) []core.EntityID {
	var ids []core.EntityID
	for _, id := range w.Query(core.CompUnit, core.CompOwner, core.CompWeapon) {
		own := w.Get(id, core.CompOwner).(*core.Owner)
		u := w.Get(id, core.CompUnit).(*core.Unit)
		if own.PlayerID != ai.PlayerID || u.State == core.UnitDead || w.Has(id, core.CompGatherer) {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// basePos anchors threat checks and defensive rallies: the lowest-id own
// production building, then the player's start position.
func (ai *AIController) basePos(w *core.World) (float64, float64, bool) {
	best := core.EntityID(0)
	for _, id := range w.Query(core.CompBuilding, core.CompProduction, core.CompOwner) {
		own := w.Get(id, core.CompOwner).(*core.Owner)
		b := w.Get(id, core.CompBuilding).(*core.Building)
		if own.PlayerID != ai.PlayerID || b.State == core.BuildingDestroyed {
			continue
		}
		if best == 0 || id < best {
			best = id
		}
	}
	if best != 0 {
		if pos, ok := w.Get(best, core.CompPosition).(*core.Position); ok {
			return pos.X, pos.Y, true
		}
	}
	for _, sp := range ai.grid.StartPositions {
		if sp.PlayerSlot == ai.PlayerID {
			wx, wy := ai.grid.CellToWorld(sp.X, sp.Y)
			return wx, wy, true
		}
	}
	return 0, 0, false
}

// ThreatAssessment sums enemy weapon damage near a point, scaled down
// linearly with distance. Allies and the dead contribute nothing.
func ThreatAssessment(w *core.World, pm *core.PlayerManager, playerID int, wx, wy, radius float64) float64 {
	threat := 0.0
	for _, id := range w.Query(core.CompPosition, core.CompWeapon, core.CompOwner) {
		own := w.Get(id, core.CompOwner).(*core.Owner)
		if pm.AreAllies(playerID, own.PlayerID) {
			continue
		}
		if !alive(w, id) {
			continue
		}
		pos := w.Get(id, core.CompPosition).(*core.Position)
		d := math.Hypot(pos.X-wx, pos.Y-wy)
		if d <= radius {
			wep := w.Get(id, core.CompWeapon).(*core.Weapon)
			threat += float64(wep.Damage) * (1.0 - d/radius)
		}
	}
	return threat
}

func alive(w *core.World, id core.EntityID) bool {
	if u, ok := w.Get(id, core.CompUnit).(*core.Unit); ok && u.State == core.UnitDead {
		return false
	}
	if b, ok := w.Get(id, core.CompBuilding).(*core.Building); ok && b.State == core.BuildingDestroyed {
		return false
	}
	if h, ok := w.Get(id, core.CompHealth).(*core.Health); ok {
		return h.Current > 0
	}
	return w.Exists(id)
}

func totalCost(cost core.CostMap) int {
	total := 0
	for _, amount := range cost {
		total += amount
	}
	return total
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
