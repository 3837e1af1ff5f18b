package gamedata

import (
	"fmt"

	"github.com/zwm-666/wargrid/engine/core"
)

// Stat names a numeric attribute that tech effects can modify.
type Stat string

const (
	StatAttackDamage Stat = "attack_damage"
	StatAttackRange  Stat = "attack_range"
	StatMoveSpeed    Stat = "move_speed"
	StatMaxHealth    Stat = "max_health"
	StatArmor        Stat = "armor"
	StatRegen        Stat = "regen"
)

var knownStats = map[Stat]bool{
	StatAttackDamage: true,
	StatAttackRange:  true,
	StatMoveSpeed:    true,
	StatMaxHealth:    true,
	StatArmor:        true,
	StatRegen:        true,
}

func (s Stat) Valid() bool { return knownStats[s] }

// GatherParams enables resource gathering for a unit type.
type GatherParams struct {
	Capacity int     `json:"capacity"`
	Rate     float64 `json:"rate"` // resource units per second
}

// BerserkParams enables the low-health rage trait for a unit type.
type BerserkParams struct {
	Threshold   float64 `json:"threshold"`    // health ratio activating the trait
	DamageBonus float64 `json:"damage_bonus"` // fraction added to damage
	SpeedBonus  float64 `json:"speed_bonus"`  // fraction removed from attack interval
}

// UnitData is the static definition of a unit type.
type UnitData struct {
	ID       string       `json:"-"`
	Name     string       `json:"name"`
	Category string       `json:"category"`
	Cost     core.CostMap `json:"cost"`

	BuildTime float64 `json:"build_time"`
	MaxHealth int     `json:"max_health"`
	Regen     float64 `json:"regen,omitempty"`

	Damage         int             `json:"damage,omitempty"`
	AttackKind     core.AttackKind `json:"attack_kind,omitempty"`
	AttackRange    float64         `json:"attack_range,omitempty"`
	AttackInterval float64         `json:"attack_interval,omitempty"`

	ArmorKind core.ArmorKind `json:"armor_kind"`
	Armor     int            `json:"armor"`

	Speed   float64 `json:"speed"`
	Sight   int     `json:"sight"`
	CanSwim bool    `json:"can_swim,omitempty"`
	CanFly  bool    `json:"can_fly,omitempty"`
	Cloak   bool    `json:"cloak,omitempty"`
	Detect  bool    `json:"detect,omitempty"`

	Gather  *GatherParams  `json:"gather,omitempty"`
	Berserk *BerserkParams `json:"berserk,omitempty"`
}

// BuildingData is the static definition of a building type.
type BuildingData struct {
	ID       string       `json:"-"`
	Name     string       `json:"name"`
	Category string       `json:"category"`
	Cost     core.CostMap `json:"cost"`

	BuildTime float64 `json:"build_time"`
	MaxHealth int     `json:"max_health"`

	ArmorKind core.ArmorKind `json:"armor_kind"`
	Armor     int            `json:"armor"`

	SizeX int `json:"size_x"`
	SizeY int `json:"size_y"`
	Sight int `json:"sight"`

	Producible []string `json:"producible,omitempty"`
	QueueCap   int      `json:"queue_cap,omitempty"`

	// Defensive buildings carry attack stats; zero damage means unarmed.
	Damage         int             `json:"damage,omitempty"`
	AttackKind     core.AttackKind `json:"attack_kind,omitempty"`
	AttackRange    float64         `json:"attack_range,omitempty"`
	AttackInterval float64         `json:"attack_interval,omitempty"`
	Detect         bool            `json:"detect,omitempty"`

	// Spawn overrides where finished units appear, as a cell offset from
	// the footprint origin. Nil means the south edge midpoint.
	Spawn *SpawnOffset `json:"spawn,omitempty"`
}

// SpawnOffset is a cell offset relative to a building's footprint origin.
type SpawnOffset struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// TechEffect is one stat modifier granted by a technology. Empty Category
// and UnitIDs match every unit.
type TechEffect struct {
	Stat     Stat     `json:"stat"`
	Value    float64  `json:"value"`
	Percent  bool     `json:"percent,omitempty"`
	Category string   `json:"category,omitempty"`
	UnitIDs  []string `json:"unit_ids,omitempty"`
}

// TechData is the static definition of a researchable technology.
type TechData struct {
	ID       string       `json:"-"`
	Name     string       `json:"name"`
	Cost     core.CostMap `json:"cost"`
	Requires []string     `json:"requires,omitempty"`
	Effects  []TechEffect `json:"effects"`
}

// MultiplierTable maps attack kind x armor kind to a damage multiplier.
// Missing pairs default to 1.0, so the table stays open for new kinds.
type MultiplierTable map[core.AttackKind]map[core.ArmorKind]float64

// Multiplier returns the factor for an attack/armor pairing.
func (t MultiplierTable) Multiplier(atk core.AttackKind, armor core.ArmorKind) float64 {
	if row, ok := t[atk]; ok {
		if m, ok := row[armor]; ok {
			return m
		}
	}
	return 1.0
}

// Catalog bundles every static definition a match needs.
type Catalog struct {
	Units       map[string]*UnitData     `json:"units"`
	Buildings   map[string]*BuildingData `json:"buildings"`
	Techs       map[string]*TechData     `json:"techs"`
	Multipliers MultiplierTable          `json:"multipliers"`
}

// Unit returns the unit definition for id, or nil.
func (c *Catalog) Unit(id string) *UnitData { return c.Units[id] }

// Building returns the building definition for id, or nil.
func (c *Catalog) Building(id string) *BuildingData { return c.Buildings[id] }

// Tech returns the tech definition for id, or nil.
func (c *Catalog) Tech(id string) *TechData { return c.Techs[id] }

// Validate checks internal consistency: kinds are known, references point
// at existing definitions, numbers make sense, tech requirements are
// acyclic. Returns the first problem found.
func (c *Catalog) Validate() error {
	for id, u := range c.Units {
		if err := validateUnit(id, u); err != nil {
			return err
		}
	}
	for id, b := range c.Buildings {
		if err := c.validateBuilding(id, b); err != nil {
			return err
		}
	}
	for id, tech := range c.Techs {
		if err := c.validateTech(id, tech); err != nil {
			return err
		}
	}
	if err := c.checkTechCycles(); err != nil {
		return err
	}
	for atk, row := range c.Multipliers {
		if !atk.Valid() {
			return fmt.Errorf("multipliers: unknown attack kind %q", atk)
		}
		for armor, m := range row {
			if !armor.Valid() {
				return fmt.Errorf("multipliers[%s]: unknown armor kind %q", atk, armor)
			}
			if m <= 0 {
				return fmt.Errorf("multipliers[%s][%s]: factor %v must be positive", atk, armor, m)
			}
		}
	}
	return nil
}

func validateUnit(id string, u *UnitData) error {
	if u.MaxHealth <= 0 {
		return fmt.Errorf("unit %q: max_health %d must be positive", id, u.MaxHealth)
	}
	if u.BuildTime <= 0 {
		return fmt.Errorf("unit %q: build_time %v must be positive", id, u.BuildTime)
	}
	if u.Speed < 0 {
		return fmt.Errorf("unit %q: negative speed", id)
	}
	if err := validateCost(u.Cost); err != nil {
		return fmt.Errorf("unit %q: %w", id, err)
	}
	if u.Damage > 0 {
		if !u.AttackKind.Valid() {
			return fmt.Errorf("unit %q: unknown attack kind %q", id, u.AttackKind)
		}
		if u.AttackInterval <= 0 {
			return fmt.Errorf("unit %q: attack_interval %v must be positive", id, u.AttackInterval)
		}
		if u.AttackRange <= 0 {
			return fmt.Errorf("unit %q: attack_range %v must be positive", id, u.AttackRange)
		}
	}
	if !u.ArmorKind.Valid() {
		return fmt.Errorf("unit %q: unknown armor kind %q", id, u.ArmorKind)
	}
	if g := u.Gather; g != nil {
		if g.Capacity <= 0 || g.Rate <= 0 {
			return fmt.Errorf("unit %q: gather capacity and rate must be positive", id)
		}
	}
	if b := u.Berserk; b != nil {
		if b.Threshold <= 0 || b.Threshold > 1 {
			return fmt.Errorf("unit %q: berserk threshold %v must be in (0,1]", id, b.Threshold)
		}
	}
	return nil
}

func (c *Catalog) validateBuilding(id string, b *BuildingData) error {
	if b.MaxHealth <= 0 {
		return fmt.Errorf("building %q: max_health %d must be positive", id, b.MaxHealth)
	}
	if b.SizeX < 1 || b.SizeY < 1 {
		return fmt.Errorf("building %q: footprint %dx%d must be at least 1x1", id, b.SizeX, b.SizeY)
	}
	if err := validateCost(b.Cost); err != nil {
		return fmt.Errorf("building %q: %w", id, err)
	}
	if !b.ArmorKind.Valid() {
		return fmt.Errorf("building %q: unknown armor kind %q", id, b.ArmorKind)
	}
	if len(b.Producible) > 0 && b.QueueCap < 1 {
		return fmt.Errorf("building %q: producible list without queue capacity", id)
	}
	for _, uid := range b.Producible {
		if c.Units[uid] == nil {
			return fmt.Errorf("building %q: producible unit %q not defined", id, uid)
		}
	}
	if b.Damage > 0 {
		if !b.AttackKind.Valid() {
			return fmt.Errorf("building %q: unknown attack kind %q", id, b.AttackKind)
		}
		if b.AttackInterval <= 0 || b.AttackRange <= 0 {
			return fmt.Errorf("building %q: armed building needs positive range and interval", id)
		}
	}
	return nil
}

func (c *Catalog) validateTech(id string, tech *TechData) error {
	if err := validateCost(tech.Cost); err != nil {
		return fmt.Errorf("tech %q: %w", id, err)
	}
	for _, req := range tech.Requires {
		if req == id {
			return fmt.Errorf("tech %q requires itself", id)
		}
		if c.Techs[req] == nil {
			return fmt.Errorf("tech %q: requirement %q not defined", id, req)
		}
	}
	for i, eff := range tech.Effects {
		if !eff.Stat.Valid() {
			return fmt.Errorf("tech %q: effect %d has unknown stat %q", id, i, eff.Stat)
		}
		if eff.Percent && eff.Value <= -1 {
			return fmt.Errorf("tech %q: effect %d percent value %v would zero the stat", id, i, eff.Value)
		}
	}
	return nil
}

func validateCost(cost core.CostMap) error {
	for kind, amount := range cost {
		if kind == core.ResourceNone {
			return fmt.Errorf("cost names an empty resource kind")
		}
		if amount < 0 {
			return fmt.Errorf("cost of %q is negative", kind)
		}
	}
	return nil
}

// checkTechCycles walks the requirement graph depth-first.
func (c *Catalog) checkTechCycles() error {
	const (
		unseen = 0
		active = 1
		done   = 2
	)
	state := make(map[string]int, len(c.Techs))
	var visit func(id string) error
	visit = func(id string) error {
		switch state[id] {
		case active:
			return fmt.Errorf("tech requirement cycle through %q", id)
		case done:
			return nil
		}
		state[id] = active
		for _, req := range c.Techs[id].Requires {
			if c.Techs[req] == nil {
				continue // reported by validateTech
			}
			if err := visit(req); err != nil {
				return err
			}
		}
		state[id] = done
		return nil
	}
	for id := range c.Techs {
		if err := visit(id); err != nil {
			return err
		}
	}
	return nil
}
