package core

import "testing"

func TestBankSpendIsAllOrNothing(t *testing.T) {
	bank := NewBank()
	bank.Add(1, ResourceGold, 100)
	bank.Add(1, ResourceWood, 20)

	cost := CostMap{ResourceGold: 50, ResourceWood: 30}
	if bank.CanAfford(1, cost) {
		t.Fatal("20 wood cannot cover a 30 wood cost")
	}
	if bank.Spend(1, cost) {
		t.Fatal("Spend should refuse an unaffordable cost")
	}
	if got := bank.Balance(1, ResourceGold); got != 100 {
		t.Fatalf("gold = %d after refused spend, want 100 untouched", got)
	}

	if !bank.Spend(1, CostMap{ResourceGold: 50, ResourceWood: 20}) {
		t.Fatal("affordable cost should be charged")
	}
	if g, w := bank.Balance(1, ResourceGold), bank.Balance(1, ResourceWood); g != 50 || w != 0 {
		t.Fatalf("balances after spend = %d gold, %d wood, want 50, 0", g, w)
	}
}

func TestBankTracksPlayersSeparately(t *testing.T) {
	bank := NewBank()
	bank.Add(1, ResourceGold, 100)
	bank.Add(2, ResourceGold, 40)

	if !bank.Spend(1, CostMap{ResourceGold: 80}) {
		t.Fatal("player 1 has 100 gold")
	}
	if got := bank.Balance(2, ResourceGold); got != 40 {
		t.Fatalf("player 2 balance = %d, want 40", got)
	}
	if bank.Balance(3, ResourceGold) != 0 {
		t.Fatal("unknown player balance should read zero")
	}
}

func TestAreAllies(t *testing.T) {
	pm := NewPlayerManager()
	pm.AddPlayer(&Player{ID: 1, TeamID: 1})
	pm.AddPlayer(&Player{ID: 2, TeamID: 1})
	pm.AddPlayer(&Player{ID: 3, TeamID: 2})
	pm.AddPlayer(&Player{ID: 4, TeamID: 0})
	pm.AddPlayer(&Player{ID: 5, TeamID: 0})

	tests := []struct {
		name string
		a, b int
		want bool
	}{
		{"same player", 1, 1, true},
		{"same team", 1, 2, true},
		{"different teams", 1, 3, false},
		{"unaligned pair", 4, 5, false},
		{"unaligned self", 4, 4, true},
		{"unknown player", 1, 99, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pm.AreAllies(tt.a, tt.b); got != tt.want {
				t.Errorf("AreAllies(%d, %d) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestKindValidity(t *testing.T) {
	for _, k := range AttackKinds {
		if !k.Valid() {
			t.Errorf("attack kind %q should be valid", k)
		}
	}
	if AttackKind("bludgeon").Valid() {
		t.Error("unknown attack kind accepted")
	}
	for _, k := range ArmorKinds {
		if !k.Valid() {
			t.Errorf("armor kind %q should be valid", k)
		}
	}
	if ArmorKind("paper").Valid() {
		t.Error("unknown armor kind accepted")
	}
}
