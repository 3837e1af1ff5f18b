package core

import "math"

// ---- Position & Transform ----

// Position represents a world position in continuous map space. Cell (x, y)
// spans [x, x+1), so a unit standing mid-cell has fractional coordinates.
type Position struct {
	X, Y   float64
	Facing float64 // direction in radians (0 = east)
}

func (p *Position) Type() ComponentType { return CompPosition }

// DistanceTo returns euclidean distance to another position
func (p *Position) DistanceTo(other *Position) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// AngleTo returns the angle from this position to another
func (p *Position) AngleTo(other *Position) float64 {
	return math.Atan2(other.Y-p.Y, other.X-p.X)
}

// TilePos represents integer cell coordinates
type TilePos struct {
	X, Y int
}

// ---- Health & Combat ----

// Health represents hit points. Regeneration is fractional per second and
// carried between ticks so slow regen still lands whole points.
type Health struct {
	Current    int
	Max        int
	Regen      float64 // hit points per second
	RegenCarry float64 // accumulated fraction below one point
}

func (h *Health) Type() ComponentType { return CompHealth }

func (h *Health) Ratio() float64 {
	if h.Max <= 0 {
		return 0
	}
	return float64(h.Current) / float64(h.Max)
}

// AttackKind classifies a weapon for the damage multiplier table.
type AttackKind string

const (
	AttackNormal AttackKind = "normal"
	AttackPierce AttackKind = "pierce"
	AttackMagic  AttackKind = "magic"
	AttackSiege  AttackKind = "siege"
	AttackHero   AttackKind = "hero"
)

// AttackKinds lists every valid attack kind.
var AttackKinds = []AttackKind{AttackNormal, AttackPierce, AttackMagic, AttackSiege, AttackHero}

func (k AttackKind) Valid() bool {
	for _, v := range AttackKinds {
		if k == v {
			return true
		}
	}
	return false
}

// ArmorKind classifies a defender for the damage multiplier table.
type ArmorKind string

const (
	ArmorNone      ArmorKind = "none"
	ArmorLight     ArmorKind = "light"
	ArmorMedium    ArmorKind = "medium"
	ArmorHeavy     ArmorKind = "heavy"
	ArmorFortified ArmorKind = "fortified"
	ArmorDivine    ArmorKind = "divine"
)

// ArmorKinds lists every valid armor kind.
var ArmorKinds = []ArmorKind{ArmorNone, ArmorLight, ArmorMedium, ArmorHeavy, ArmorFortified, ArmorDivine}

func (k ArmorKind) Valid() bool {
	for _, v := range ArmorKinds {
		if k == v {
			return true
		}
	}
	return false
}

// Weapon represents attack capability
type Weapon struct {
	Damage   int
	Kind     AttackKind
	Range    float64 // in cell units
	Interval float64 // seconds between attacks
	Cooldown float64 // seconds until the next attack is allowed
}

func (w *Weapon) Type() ComponentType { return CompWeapon }

// Armor represents defensive stats
type Armor struct {
	Kind  ArmorKind
	Value int // flat reduction subtracted after the multiplier
}

func (a *Armor) Type() ComponentType { return CompArmor }

// ---- Movement ----

// Mover represents movement capability
type Mover struct {
	Speed   float64   // cells per second
	CanSwim bool      // may enter water cells
	CanFly  bool      // ignores terrain entirely
	Path    []TilePos // current path, start cell first
	PathIdx int       // index of the waypoint being approached
}

func (m *Mover) Type() ComponentType { return CompMover }

// ---- Unit State ----

type UnitState uint8

const (
	UnitIdle UnitState = iota
	UnitMoving
	UnitAttacking
	UnitFollowing
	UnitDead
)

var unitStateNames = [...]string{"idle", "moving", "attacking", "following", "dead"}

func (s UnitState) String() string {
	if int(s) < len(unitStateNames) {
		return unitStateNames[s]
	}
	return "unknown"
}

// Unit carries the combat state machine of a mobile entity.
type Unit struct {
	TypeID   string
	Category string // stat-modifier filter group, e.g. "infantry"
	State    UnitState
	Target   EntityID // current attack/follow target, 0 = none
	Grace    float64  // seconds left in the world after death
	Repath   float64  // seconds until a following unit recomputes its path
}

func (u *Unit) Type() ComponentType { return CompUnit }

// ---- Building & Production ----

type BuildingState uint8

const (
	BuildingUnderConstruction BuildingState = iota
	BuildingReady
	BuildingProducing
	BuildingDestroyed
)

var buildingStateNames = [...]string{"under_construction", "ready", "producing", "destroyed"}

func (s BuildingState) String() string {
	if int(s) < len(buildingStateNames) {
		return buildingStateNames[s]
	}
	return "unknown"
}

// Building represents a structure occupying a footprint of cells. Armed
// buildings additionally carry a Weapon component.
type Building struct {
	TypeID   string
	Category string
	State    BuildingState
	CellX    int // footprint origin
	CellY    int
	SizeX    int
	SizeY    int
}

func (b *Building) Type() ComponentType { return CompBuilding }

// BuildJob is one queued production order.
type BuildJob struct {
	TypeID    string
	Remaining float64 // seconds of build time left, counts down at the head only
	Total     float64
}

// Production represents a building that can produce units
type Production struct {
	Queue      []BuildJob
	Capacity   int      // maximum queue length
	Producible []string // unit type ids this building may train
	Rally      TilePos  // rally point for finished units
	HasRally   bool
}

func (p *Production) Type() ComponentType { return CompProduction }

// ---- Vision ----

// Vision represents sight range and stealth interplay.
type Vision struct {
	Range       int  // sight range in cells
	Cloak       bool // hidden from enemies without a detector nearby
	Detect      bool // reveals cloaked enemies within sight range
	CloakActive bool // runtime: currently hidden
}

func (v *Vision) Type() ComponentType { return CompVision }

// ---- Ownership ----

// Owner identifies which player owns this entity
type Owner struct {
	PlayerID int
}

func (o *Owner) Type() ComponentType { return CompOwner }

// ---- Gathering ----

type GatherState uint8

const (
	GatherIdle GatherState = iota
	GatherToDeposit
	GatherHarvest
	GatherToDropoff
	GatherDeliver
)

var gatherStateNames = [...]string{"idle", "to_deposit", "harvest", "to_dropoff", "deliver"}

func (s GatherState) String() string {
	if int(s) < len(gatherStateNames) {
		return gatherStateNames[s]
	}
	return "unknown"
}

// Gatherer represents a resource-gathering unit
type Gatherer struct {
	State     GatherState
	Capacity  int
	Rate      float64 // resource units per second
	Carrying  int
	Kind      ResourceKind // kind currently carried
	Carry     float64      // accumulated fraction below one unit
	TargetX   int          // deposit cell being worked
	TargetY   int
	HasTarget bool
}

func (g *Gatherer) Type() ComponentType { return CompGatherer }

// ---- Traits ----

// Berserk raises attack output while health is at or below the threshold.
type Berserk struct {
	Threshold   float64 // health ratio at or below which the trait is active
	DamageBonus float64 // fraction added to attack damage
	SpeedBonus  float64 // fraction removed from the attack interval
	Active      bool
}

func (b *Berserk) Type() ComponentType { return CompBerserk }
