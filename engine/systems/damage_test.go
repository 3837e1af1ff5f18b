package systems

import (
	"testing"

	"github.com/zwm-666/wargrid/engine/core"
	"github.com/zwm-666/wargrid/engine/gamedata"
)

func TestResolveMultiplierThenArmor(t *testing.T) {
	r := NewResolver(nil)

	tests := []struct {
		name  string
		base  int
		atk   core.AttackKind
		armor core.ArmorKind
		value int
		want  int
	}{
		// round(10 * 0.5) - 3 = 2
		{"pierce into heavy", 10, core.AttackPierce, core.ArmorHeavy, 3, 2},
		// 1.5 bonus pairs multiply before armor subtracts
		{"normal into medium", 10, core.AttackNormal, core.ArmorMedium, 0, 15},
		// round(2 * 0.35) = 1, armor would push it negative
		{"hits always land for one", 2, core.AttackPierce, core.ArmorFortified, 10, 1},
		// unlisted pairing falls back to x1.0
		{"open table pairing", 10, core.AttackNormal, core.ArmorLight, 2, 8},
		{"rounding is half up", 9, core.AttackPierce, core.ArmorMedium, 0, 7}, // 6.75 -> 7
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Resolve(tt.base, tt.atk, tt.armor, tt.value); got != tt.want {
				t.Errorf("Resolve(%d, %s, %s, %d) = %d, want %d",
					tt.base, tt.atk, tt.armor, tt.value, got, tt.want)
			}
		})
	}
}

func TestResolveEmptyTableDefaultsToOne(t *testing.T) {
	r := &Resolver{Table: gamedata.MultiplierTable{}}
	if got := r.Resolve(10, core.AttackMagic, core.ArmorHeavy, 0); got != 10 {
		t.Errorf("Resolve with empty table = %d, want 10", got)
	}
}

func TestApplyDamageSiegeBonusAgainstBuildings(t *testing.T) {
	rig := newRig(t, 10, 10)
	w := rig.world

	id := w.Spawn()
	w.Attach(id, &core.Building{TypeID: "hall", Category: "main", State: core.BuildingReady, SizeX: 2, SizeY: 2})
	w.Attach(id, &core.Health{Current: 100, Max: 100})
	w.Attach(id, &core.Armor{Kind: core.ArmorFortified, Value: 2})
	w.Attach(id, &core.Owner{PlayerID: 1})

	// base 20 siege: 20 * 1.5 = 30, table 1.5 -> 45, armor 2 -> 43
	dealt := ApplyDamage(w, id, 20, core.AttackSiege, rig.units.Resolver, rig.tech, rig.bus)
	if dealt != 43 {
		t.Fatalf("siege damage = %d, want 43", dealt)
	}
	if h := rig.health(t, id); h.Current != 57 {
		t.Errorf("health after siege hit = %d, want 57", h.Current)
	}
}

func TestApplyDamageSiegeBonusSkipsUnits(t *testing.T) {
	rig := newRig(t, 10, 10)
	w := rig.world

	id := w.Spawn()
	w.Attach(id, &core.Unit{TypeID: "grunt", State: core.UnitIdle})
	w.Attach(id, &core.Health{Current: 100, Max: 100})
	w.Attach(id, &core.Armor{Kind: core.ArmorMedium, Value: 0})

	// base 20 siege vs medium: round(20 * 0.5) = 10, no structure bonus
	if dealt := ApplyDamage(w, id, 20, core.AttackSiege, rig.units.Resolver, rig.tech, rig.bus); dealt != 10 {
		t.Errorf("siege vs unit = %d, want 10", dealt)
	}
}

func TestApplyDamageRefusesDeadTargets(t *testing.T) {
	rig := newRig(t, 10, 10)
	w := rig.world

	id := w.Spawn()
	w.Attach(id, &core.Unit{TypeID: "grunt", State: core.UnitDead})
	w.Attach(id, &core.Health{Current: 10, Max: 60})
	if dealt := ApplyDamage(w, id, 10, core.AttackNormal, rig.units.Resolver, rig.tech, rig.bus); dealt != 0 {
		t.Errorf("damage on dead unit = %d, want 0", dealt)
	}

	drained := w.Spawn()
	w.Attach(drained, &core.Health{Current: 0, Max: 60})
	if dealt := ApplyDamage(w, drained, 10, core.AttackNormal, rig.units.Resolver, rig.tech, rig.bus); dealt != 0 {
		t.Errorf("damage on zero health = %d, want 0", dealt)
	}

	if dealt := ApplyDamage(w, 9999, 10, core.AttackNormal, rig.units.Resolver, rig.tech, rig.bus); dealt != 0 {
		t.Errorf("damage on missing entity = %d, want 0", dealt)
	}
}

func TestApplyDamageClampsHealthAtZero(t *testing.T) {
	rig := newRig(t, 10, 10)
	w := rig.world

	id := w.Spawn()
	w.Attach(id, &core.Health{Current: 5, Max: 60})

	var changes []core.HealthChangedEvent
	rig.bus.On(core.EvtHealthChanged, func(e core.Event) {
		changes = append(changes, e.Payload.(core.HealthChangedEvent))
	})

	ApplyDamage(w, id, 50, core.AttackNormal, rig.units.Resolver, rig.tech, rig.bus)
	rig.bus.Dispatch()

	if h := rig.health(t, id); h.Current != 0 {
		t.Errorf("health = %d, want 0", h.Current)
	}
	if len(changes) != 1 {
		t.Fatalf("got %d health events, want 1", len(changes))
	}
	if changes[0].Before != 5 || changes[0].After != 0 {
		t.Errorf("health event = %d -> %d, want 5 -> 0", changes[0].Before, changes[0].After)
	}
}

func TestApplyDamageIgnoresUnrelatedTech(t *testing.T) {
	rig := newRig(t, 10, 10)
	w := rig.world
	rig.fund(1, 0, 80)
	if !rig.tech.Unlock(w, 1, "vigor") {
		t.Fatal("vigor unlock failed")
	}
	// vigor has no armor effect, so damage is unchanged
	id := rig.spawn(t, "grunt", 2, 2, 1)
	if dealt := ApplyDamage(w, id, 10, core.AttackPierce, rig.units.Resolver, rig.tech, rig.bus); dealt != 8 {
		// round(10 * 0.75) - 0 = 8 against medium armor
		t.Errorf("damage with unrelated tech = %d, want 8", dealt)
	}
}
