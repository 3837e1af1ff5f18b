package ai

import (
	"fmt"
	"sort"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Posture is the strategic stance a controller holds between thinks.
type Posture uint8

const (
	PostureExpand Posture = iota // grow the economy and the army
	PostureAttack                // push toward the enemy base
	PostureDefend                // pull the army home
)

var postureNames = [...]string{"expand", "attack", "defend"}

func (p Posture) String() string {
	if int(p) < len(postureNames) {
		return postureNames[p]
	}
	return "unknown"
}

// Env is the snapshot of game facts a doctrine condition may read. It is
// rebuilt from scratch before every decision, so conditions stay pure.
// Enemy facts are fog-filtered: a condition never sees what the player
// could not.
type Env struct {
	ArmyCount    int     // living armed units, workers excluded
	WorkerCount  int     // living gatherers
	Gold         int     // bank balances at think time
	Wood         int
	EnemySighted bool    // any enemy currently visible
	BaseThreat   float64 // enemy firepower near the base, distance-weighted
	TechCount    int     // technologies unlocked so far

	Counts map[string]int // own living units and buildings by type id
}

// Count returns how many own units or buildings of one type are alive.
func (e Env) Count(typeID string) int { return e.Counts[typeID] }

// Rule binds a condition to the posture it selects. Conditions are expr
// sources evaluated against Env; the highest-priority rule that holds
// wins the decision.
type Rule struct {
	Name         string  `json:"name"`
	Priority     int     `json:"priority"`
	Posture      Posture `json:"posture"`
	ConditionSrc string  `json:"condition"` // expr source, kept for serialization

	program *vm.Program // compiled bytecode
}

// Doctrine is a compiled, priority-ordered rule set. Compile once, decide
// every think.
type Doctrine struct {
	rules []*Rule
}

// Compile builds a doctrine, compiling every condition into expr bytecode
// and sorting the rules by descending priority. A single bad condition
// fails the whole set.
func Compile(rules []*Rule) (*Doctrine, error) {
	for _, r := range rules {
		prog, err := expr.Compile(r.ConditionSrc, expr.Env(Env{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("compile rule %q: %w", r.Name, err)
		}
		r.program = prog
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].Priority > rules[j].Priority })
	return &Doctrine{rules: rules}, nil
}

// MustCompile is Compile for static rule sets known to be valid.
func MustCompile(rules []*Rule) *Doctrine {
	d, err := Compile(rules)
	if err != nil {
		panic(err)
	}
	return d
}

// Decide returns the posture of the highest-priority rule whose condition
// holds, plus the rule name for logging. With no match the controller
// falls back to expanding.
func (d *Doctrine) Decide(env Env) (Posture, string) {
	for _, r := range d.rules {
		out, err := vm.Run(r.program, env)
		if err != nil {
			continue
		}
		if hold, ok := out.(bool); ok && hold {
			return r.Posture, r.Name
		}
	}
	return PostureExpand, ""
}

// DefaultDoctrine is the baseline rule set: defend the base whenever it
// is under fire, commit once the army reaches critical mass, probe early
// if the enemy shows first, expand otherwise.
func DefaultDoctrine() *Doctrine {
	return MustCompile([]*Rule{
		{Name: "defend-base", Priority: 100, Posture: PostureDefend, ConditionSrc: "BaseThreat > 0"},
		{Name: "press-attack", Priority: 50, Posture: PostureAttack, ConditionSrc: "ArmyCount >= 8"},
		{Name: "probe-attack", Priority: 40, Posture: PostureAttack, ConditionSrc: "EnemySighted && ArmyCount >= 5"},
		{Name: "expand", Priority: 10, Posture: PostureExpand, ConditionSrc: "true"},
	})
}
