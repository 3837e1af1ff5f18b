package systems

import (
	"math"
	"testing"

	"github.com/zwm-666/wargrid/engine/core"
	"github.com/zwm-666/wargrid/engine/gamedata"
)

func TestUnlockChargesAndRecords(t *testing.T) {
	rig := newRig(t, 8, 8)
	rig.fund(1, 300, 0)

	var completed []core.ResearchCompletedEvent
	rig.bus.On(core.EvtResearchCompleted, func(e core.Event) {
		completed = append(completed, e.Payload.(core.ResearchCompletedEvent))
	})

	if !rig.tech.Unlock(rig.world, 1, "sharpen") {
		t.Fatal("sharpen unlock failed")
	}
	rig.bus.Dispatch()

	if got := rig.bank.Balance(1, core.ResourceGold); got != 200 {
		t.Errorf("gold after unlock = %d, want 200", got)
	}
	if !rig.tech.Has(1, "sharpen") {
		t.Error("sharpen not recorded as owned")
	}
	if rig.tech.Has(2, "sharpen") {
		t.Error("unlock leaked to another player")
	}
	if len(completed) != 1 || completed[0].TechID != "sharpen" || completed[0].PlayerID != 1 {
		t.Errorf("research events = %+v, want one sharpen for player 1", completed)
	}
}

func TestUnlockRequiresPrerequisites(t *testing.T) {
	rig := newRig(t, 8, 8)
	rig.fund(1, 1000, 0)

	if rig.tech.Unlock(rig.world, 1, "hone") {
		t.Fatal("hone unlocked without sharpen")
	}
	if got := rig.bank.Balance(1, core.ResourceGold); got != 1000 {
		t.Errorf("failed unlock charged gold: %d", got)
	}

	if !rig.tech.Unlock(rig.world, 1, "sharpen") {
		t.Fatal("sharpen unlock failed")
	}
	if !rig.tech.Unlock(rig.world, 1, "hone") {
		t.Fatal("hone unlock failed after sharpen")
	}
}

func TestUnlockRejectsDuplicatesAndUnknown(t *testing.T) {
	rig := newRig(t, 8, 8)
	rig.fund(1, 1000, 0)

	if !rig.tech.Unlock(rig.world, 1, "sharpen") {
		t.Fatal("first unlock failed")
	}
	if rig.tech.Unlock(rig.world, 1, "sharpen") {
		t.Error("second unlock of the same tech succeeded")
	}
	if got := rig.bank.Balance(1, core.ResourceGold); got != 900 {
		t.Errorf("gold = %d, want 900 after a single charge", got)
	}
	if rig.tech.Unlock(rig.world, 1, "warp_drive") {
		t.Error("unknown tech unlocked")
	}
}

func TestUnlockNeedsFunds(t *testing.T) {
	rig := newRig(t, 8, 8)
	rig.fund(1, 99, 0)
	if rig.tech.CanUnlock(1, "sharpen") {
		t.Error("CanUnlock with 99 gold, cost is 100")
	}
	if rig.tech.Unlock(rig.world, 1, "sharpen") {
		t.Error("unlock succeeded without funds")
	}
}

func TestModifiedValueFoldsFlatThenPercent(t *testing.T) {
	rig := newRig(t, 8, 8)
	rig.fund(1, 1000, 0)
	rig.tech.Unlock(rig.world, 1, "sharpen") // +2 flat
	rig.tech.Unlock(rig.world, 1, "hone")    // +10%

	got := rig.tech.ModifiedValue(1, 10, gamedata.StatAttackDamage, "infantry", "grunt")
	if math.Abs(got-13.2) > 1e-9 {
		t.Errorf("ModifiedValue = %v, want 13.2 ((10+2)*1.1)", got)
	}

	// Other players and other stats stay at base.
	if got := rig.tech.ModifiedValue(2, 10, gamedata.StatAttackDamage, "infantry", "grunt"); got != 10 {
		t.Errorf("other player ModifiedValue = %v, want 10", got)
	}
	if got := rig.tech.ModifiedValue(1, 3, gamedata.StatMoveSpeed, "infantry", "grunt"); got != 3 {
		t.Errorf("unrelated stat ModifiedValue = %v, want 3", got)
	}
}

func TestModifiedValueRespectsCategoryFilter(t *testing.T) {
	rig := newRig(t, 8, 8)
	rig.fund(1, 0, 80)
	rig.tech.Unlock(rig.world, 1, "vigor") // +20 max health, infantry only

	if got := rig.tech.ModifiedValue(1, 60, gamedata.StatMaxHealth, "infantry", "grunt"); got != 80 {
		t.Errorf("infantry max health = %v, want 80", got)
	}
	if got := rig.tech.ModifiedValue(1, 40, gamedata.StatMaxHealth, "ranged", "archer"); got != 40 {
		t.Errorf("ranged max health = %v, want 40", got)
	}
}

func TestMaxHealthUpgradeAppliesAtSpawn(t *testing.T) {
	rig := newRig(t, 10, 10)
	rig.fund(1, 0, 80)
	rig.tech.Unlock(rig.world, 1, "vigor")

	grunt := rig.spawn(t, "grunt", 2, 2, 1)
	if h := rig.health(t, grunt); h.Current != 80 || h.Max != 80 {
		t.Errorf("upgraded grunt health = %d/%d, want 80/80", h.Current, h.Max)
	}

	archer := rig.spawn(t, "archer", 4, 2, 1)
	if h := rig.health(t, archer); h.Max != 40 {
		t.Errorf("archer max health = %d, want 40 (filter is infantry only)", h.Max)
	}

	// Already spawned units keep their current maximum.
	enemy := rig.spawn(t, "grunt", 6, 2, 2)
	if h := rig.health(t, enemy); h.Max != 60 {
		t.Errorf("enemy grunt max health = %d, want 60", h.Max)
	}
}
