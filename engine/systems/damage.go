package systems

import (
	"math"

	"github.com/zwm-666/wargrid/engine/core"
	"github.com/zwm-666/wargrid/engine/gamedata"
)

// siegeStructureBonus scales siege attacks against buildings before the
// multiplier table and armor are applied.
const siegeStructureBonus = 1.5

// Resolver computes final damage from the multiplier table. The table is
// fixed at match start.
type Resolver struct {
	Table gamedata.MultiplierTable
}

func NewResolver(table gamedata.MultiplierTable) *Resolver {
	if table == nil {
		table = gamedata.DefaultMultipliers()
	}
	return &Resolver{Table: table}
}

// Resolve applies the damage pipeline:
//
//	final = max(1, round(base * table[attack][armor]) - armorValue)
//
// The multiplier scales first and armor subtracts after; every landed hit
// deals at least 1.
func (r *Resolver) Resolve(base int, atk core.AttackKind, armorKind core.ArmorKind, armorValue int) int {
	mult := r.Table.Multiplier(atk, armorKind)
	dmg := int(math.Round(float64(base)*mult)) - armorValue
	if dmg < 1 {
		dmg = 1
	}
	return dmg
}

// ApplyDamage runs one hit against any entity with health and returns the
// damage dealt, or 0 when the target cannot take damage. Death handling is
// the caller's job: check for zero health afterwards.
func ApplyDamage(w *core.World, target core.EntityID, base int, atk core.AttackKind, r *Resolver, tech *TechLedger, bus *core.EventBus) int {
	hc := w.Get(target, core.CompHealth)
	if hc == nil {
		return 0
	}
	h := hc.(*core.Health)
	if h.Current <= 0 {
		return 0
	}

	armorKind := core.ArmorNone
	armorValue := 0
	if ac := w.Get(target, core.CompArmor); ac != nil {
		a := ac.(*core.Armor)
		armorKind = a.Kind
		armorValue = a.Value
	}

	category, typeID := "", ""
	isBuilding := false
	if uc := w.Get(target, core.CompUnit); uc != nil {
		u := uc.(*core.Unit)
		if u.State == core.UnitDead {
			return 0
		}
		category, typeID = u.Category, u.TypeID
	}
	if bc := w.Get(target, core.CompBuilding); bc != nil {
		b := bc.(*core.Building)
		if b.State == core.BuildingDestroyed {
			return 0
		}
		category, typeID = b.Category, b.TypeID
		isBuilding = true
	}

	if tech != nil {
		if oc := w.Get(target, core.CompOwner); oc != nil {
			owner := oc.(*core.Owner)
			armorValue = int(math.Round(tech.ModifiedValue(owner.PlayerID, float64(armorValue), gamedata.StatArmor, category, typeID)))
		}
	}

	if isBuilding && atk == core.AttackSiege {
		base = int(math.Round(float64(base) * siegeStructureBonus))
	}

	dmg := r.Resolve(base, atk, armorKind, armorValue)
	before := h.Current
	h.Current -= dmg
	if h.Current < 0 {
		h.Current = 0
	}
	bus.Emit(core.Event{
		Type:    core.EvtHealthChanged,
		Tick:    w.TickCount,
		Payload: core.HealthChangedEvent{ID: target, Before: before, After: h.Current},
	})
	return dmg
}
