package ai

import "testing"

func TestCompileRejectsBadConditions(t *testing.T) {
	if _, err := Compile([]*Rule{{Name: "broken", ConditionSrc: "ArmyCount >"}}); err == nil {
		t.Fatal("expected a compile error for a malformed condition")
	}
	if _, err := Compile([]*Rule{{Name: "numeric", ConditionSrc: "ArmyCount + 1"}}); err == nil {
		t.Fatal("expected a compile error for a non-bool condition")
	}
}

func TestDecidePicksHighestPriorityMatch(t *testing.T) {
	d := MustCompile([]*Rule{
		{Name: "attack", Priority: 50, Posture: PostureAttack, ConditionSrc: "ArmyCount >= 8"},
		{Name: "defend", Priority: 100, Posture: PostureDefend, ConditionSrc: "BaseThreat > 0"},
	})

	posture, rule := d.Decide(Env{ArmyCount: 10, BaseThreat: 12})
	if posture != PostureDefend || rule != "defend" {
		t.Fatalf("got %v via %q, want defend via the defend rule", posture, rule)
	}

	posture, rule = d.Decide(Env{ArmyCount: 10})
	if posture != PostureAttack || rule != "attack" {
		t.Fatalf("got %v via %q, want attack once the threat clears", posture, rule)
	}
}

func TestDecideFallsBackToExpand(t *testing.T) {
	d := MustCompile([]*Rule{
		{Name: "attack", Priority: 50, Posture: PostureAttack, ConditionSrc: "ArmyCount >= 8"},
	})
	posture, rule := d.Decide(Env{ArmyCount: 1})
	if posture != PostureExpand || rule != "" {
		t.Fatalf("got %v via %q, want the expand fallback", posture, rule)
	}
}

func TestConditionsSeeTypeCounts(t *testing.T) {
	d := MustCompile([]*Rule{
		{Name: "mass-grunts", Priority: 10, Posture: PostureAttack, ConditionSrc: `Count("grunt") >= 3`},
	})
	if posture, _ := d.Decide(Env{Counts: map[string]int{"grunt": 4}}); posture != PostureAttack {
		t.Fatalf("got %v, want attack with four grunts", posture)
	}
	if posture, _ := d.Decide(Env{Counts: map[string]int{"grunt": 1}}); posture != PostureExpand {
		t.Fatalf("got %v, want expand with one grunt", posture)
	}
}

func TestDefaultDoctrineBehaviour(t *testing.T) {
	d := DefaultDoctrine()
	cases := []struct {
		name string
		env  Env
		want Posture
	}{
		{"quiet start", Env{WorkerCount: 3}, PostureExpand},
		{"base under fire", Env{BaseThreat: 20, ArmyCount: 12}, PostureDefend},
		{"critical mass", Env{ArmyCount: 8}, PostureAttack},
		{"early contact", Env{ArmyCount: 5, EnemySighted: true}, PostureAttack},
		{"contact but thin", Env{ArmyCount: 2, EnemySighted: true}, PostureExpand},
	}
	for _, tc := range cases {
		if got, _ := d.Decide(tc.env); got != tc.want {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}
