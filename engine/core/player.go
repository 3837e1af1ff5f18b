package core

// ---- Resources ----

// ResourceKind names a stockpiled resource. String-typed so cost maps and
// deposits serialize as readable JSON keys.
type ResourceKind string

const (
	ResourceNone ResourceKind = ""
	ResourceGold ResourceKind = "gold"
	ResourceWood ResourceKind = "wood"
)

// ResourceKinds lists every stockpiled kind.
var ResourceKinds = []ResourceKind{ResourceGold, ResourceWood}

// CostMap is a price in one or more resource kinds.
type CostMap map[ResourceKind]int

// ---- Players ----

// Player represents a game player
type Player struct {
	ID       int
	Name     string
	TeamID   int // 0 = no team, only self-allied
	IsAI     bool
	Defeated bool
}

// PlayerManager manages all players in a game
type PlayerManager struct {
	Players []*Player
}

func NewPlayerManager() *PlayerManager {
	return &PlayerManager{}
}

func (pm *PlayerManager) AddPlayer(p *Player) {
	pm.Players = append(pm.Players, p)
}

func (pm *PlayerManager) GetPlayer(id int) *Player {
	for _, p := range pm.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// AreAllies checks if two players are allied. A player is always allied
// with itself; team 0 means unaligned.
func (pm *PlayerManager) AreAllies(a, b int) bool {
	if a == b {
		return true
	}
	pa := pm.GetPlayer(a)
	pb := pm.GetPlayer(b)
	if pa == nil || pb == nil {
		return false
	}
	return pa.TeamID != 0 && pa.TeamID == pb.TeamID
}

// ---- Ledger ----

// ResourceLedger tracks per-player stockpiles. Spend is all-or-nothing: a
// cost is either charged in full across every kind or not at all.
type ResourceLedger interface {
	Balance(player int, kind ResourceKind) int
	CanAfford(player int, cost CostMap) bool
	Spend(player int, cost CostMap) bool
	Add(player int, kind ResourceKind, amount int)
}

// Bank is the in-memory ledger used by matches.
type Bank struct {
	balances map[int]map[ResourceKind]int
}

func NewBank() *Bank {
	return &Bank{balances: make(map[int]map[ResourceKind]int)}
}

func (b *Bank) Balance(player int, kind ResourceKind) int {
	return b.balances[player][kind]
}

func (b *Bank) CanAfford(player int, cost CostMap) bool {
	for kind, amount := range cost {
		if b.balances[player][kind] < amount {
			return false
		}
	}
	return true
}

func (b *Bank) Spend(player int, cost CostMap) bool {
	if !b.CanAfford(player, cost) {
		return false
	}
	for kind, amount := range cost {
		b.balances[player][kind] -= amount
	}
	return true
}

func (b *Bank) Add(player int, kind ResourceKind, amount int) {
	if kind == ResourceNone || amount <= 0 {
		return
	}
	if b.balances[player] == nil {
		b.balances[player] = make(map[ResourceKind]int)
	}
	b.balances[player][kind] += amount
}
