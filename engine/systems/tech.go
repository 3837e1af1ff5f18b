package systems

import (
	"github.com/sirupsen/logrus"

	"github.com/zwm-666/wargrid/engine/core"
	"github.com/zwm-666/wargrid/engine/gamedata"
	"github.com/zwm-666/wargrid/pkg/logger"
)

// TechLedger tracks which technologies each player has unlocked and folds
// their effects into stat queries. Unlock order is preserved so repeated
// queries fold effects identically.
type TechLedger struct {
	Catalog *gamedata.Catalog
	Ledger  core.ResourceLedger
	Bus     *core.EventBus

	unlocked map[int][]string
	owned    map[int]map[string]bool
	log      *logrus.Entry
}

func NewTechLedger(catalog *gamedata.Catalog, ledger core.ResourceLedger, bus *core.EventBus) *TechLedger {
	return &TechLedger{
		Catalog:  catalog,
		Ledger:   ledger,
		Bus:      bus,
		unlocked: make(map[int][]string),
		owned:    make(map[int]map[string]bool),
		log:      logger.WithComponent("tech"),
	}
}

// Has reports whether a player owns a technology.
func (t *TechLedger) Has(player int, techID string) bool {
	return t.owned[player][techID]
}

// Unlocked returns the player's technologies in unlock order.
func (t *TechLedger) Unlocked(player int) []string {
	return t.unlocked[player]
}

// CanUnlock checks definition, duplicates, prerequisites and affordability
// without charging anything.
func (t *TechLedger) CanUnlock(player int, techID string) bool {
	td := t.Catalog.Tech(techID)
	if td == nil || t.Has(player, techID) {
		return false
	}
	for _, req := range td.Requires {
		if !t.Has(player, req) {
			return false
		}
	}
	return t.Ledger.CanAfford(player, td.Cost)
}

// Unlock researches a technology for a player: prerequisites must be owned
// and the full cost is charged. Effects apply from the next stat query on.
func (t *TechLedger) Unlock(w *core.World, player int, techID string) bool {
	if !t.CanUnlock(player, techID) {
		return false
	}
	td := t.Catalog.Tech(techID)
	if !t.Ledger.Spend(player, td.Cost) {
		return false
	}
	if t.owned[player] == nil {
		t.owned[player] = make(map[string]bool)
	}
	t.owned[player][techID] = true
	t.unlocked[player] = append(t.unlocked[player], techID)

	t.Bus.Emit(core.Event{
		Type:    core.EvtResearchCompleted,
		Tick:    w.TickCount,
		Payload: core.ResearchCompletedEvent{PlayerID: player, TechID: techID},
	})
	t.log.WithFields(logrus.Fields{"player": player, "tech": techID}).Info("research completed")
	return true
}

// ModifiedValue folds every matching unlocked effect into a base stat:
// flat bonuses sum, then percent bonuses scale the total.
//
//	value = (base + sum(flat)) * (1 + sum(percent))
//
// Category and unit filters on an effect restrict which queries it matches;
// empty filters match everything.
func (t *TechLedger) ModifiedValue(player int, base float64, stat gamedata.Stat, category, unitID string) float64 {
	flat, pct := 0.0, 0.0
	for _, techID := range t.unlocked[player] {
		td := t.Catalog.Tech(techID)
		if td == nil {
			continue
		}
		for _, eff := range td.Effects {
			if eff.Stat != stat {
				continue
			}
			if eff.Category != "" && eff.Category != category {
				continue
			}
			if len(eff.UnitIDs) > 0 && !containsString(eff.UnitIDs, unitID) {
				continue
			}
			if eff.Percent {
				pct += eff.Value
			} else {
				flat += eff.Value
			}
		}
	}
	return (base + flat) * (1 + pct)
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
