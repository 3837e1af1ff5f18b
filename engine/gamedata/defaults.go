package gamedata

import "github.com/zwm-666/wargrid/engine/core"

// Default returns the built-in catalog. Every call builds a fresh copy, so
// callers may tweak it without affecting each other.
func Default() *Catalog {
	c := &Catalog{
		Units: map[string]*UnitData{
			"peasant": {
				Name: "Peasant", Category: "worker",
				Cost: core.CostMap{core.ResourceGold: 75}, BuildTime: 15,
				MaxHealth: 220, Regen: 0.25,
				Damage: 5, AttackKind: core.AttackNormal, AttackRange: 1.0, AttackInterval: 2.0,
				ArmorKind: core.ArmorNone, Armor: 0,
				Speed: 2.5, Sight: 6,
				Gather: &GatherParams{Capacity: 10, Rate: 2.5},
			},
			"footman": {
				Name: "Footman", Category: "infantry",
				Cost: core.CostMap{core.ResourceGold: 135}, BuildTime: 20,
				MaxHealth: 420, Regen: 0.25,
				Damage: 12, AttackKind: core.AttackNormal, AttackRange: 1.0, AttackInterval: 1.35,
				ArmorKind: core.ArmorMedium, Armor: 2,
				Speed: 2.7, Sight: 7,
			},
			"archer": {
				Name: "Archer", Category: "ranged",
				Cost: core.CostMap{core.ResourceGold: 130, core.ResourceWood: 10}, BuildTime: 20,
				MaxHealth: 245, Regen: 0.25,
				Damage: 14, AttackKind: core.AttackPierce, AttackRange: 5.5, AttackInterval: 1.5,
				ArmorKind: core.ArmorLight, Armor: 0,
				Speed: 2.9, Sight: 8,
			},
			"berserker": {
				Name: "Berserker", Category: "infantry",
				Cost: core.CostMap{core.ResourceGold: 180, core.ResourceWood: 30}, BuildTime: 24,
				MaxHealth: 540, Regen: 0.5,
				Damage: 18, AttackKind: core.AttackNormal, AttackRange: 1.0, AttackInterval: 1.3,
				ArmorKind: core.ArmorMedium, Armor: 1,
				Speed: 3.0, Sight: 7,
				Berserk: &BerserkParams{Threshold: 0.4, DamageBonus: 0.5, SpeedBonus: 0.25},
			},
			"rogue": {
				Name: "Rogue", Category: "infantry",
				Cost: core.CostMap{core.ResourceGold: 160}, BuildTime: 22,
				MaxHealth: 300, Regen: 0.25,
				Damage: 16, AttackKind: core.AttackPierce, AttackRange: 1.0, AttackInterval: 1.1,
				ArmorKind: core.ArmorLight, Armor: 0,
				Speed: 3.2, Sight: 7,
				Cloak: true,
			},
			"knight": {
				Name: "Knight", Category: "cavalry",
				Cost: core.CostMap{core.ResourceGold: 245, core.ResourceWood: 60}, BuildTime: 30,
				MaxHealth: 835, Regen: 0.5,
				Damage: 28, AttackKind: core.AttackNormal, AttackRange: 1.0, AttackInterval: 1.4,
				ArmorKind: core.ArmorHeavy, Armor: 5,
				Speed: 3.5, Sight: 7,
			},
			"raider": {
				Name: "Raider", Category: "cavalry",
				Cost: core.CostMap{core.ResourceGold: 200, core.ResourceWood: 40}, BuildTime: 26,
				MaxHealth: 500, Regen: 0.5,
				Damage: 20, AttackKind: core.AttackNormal, AttackRange: 1.0, AttackInterval: 1.3,
				ArmorKind: core.ArmorMedium, Armor: 2,
				Speed: 3.4, Sight: 7,
				CanSwim: true,
			},
			"catapult": {
				Name: "Catapult", Category: "siege",
				Cost: core.CostMap{core.ResourceGold: 220, core.ResourceWood: 110}, BuildTime: 35,
				MaxHealth: 400,
				Damage:    60, AttackKind: core.AttackSiege, AttackRange: 8.0, AttackInterval: 3.5,
				ArmorKind: core.ArmorHeavy, Armor: 2,
				Speed: 1.9, Sight: 6,
			},
			"gryphon": {
				Name: "Gryphon Rider", Category: "air",
				Cost: core.CostMap{core.ResourceGold: 280, core.ResourceWood: 70}, BuildTime: 40,
				MaxHealth: 650, Regen: 0.5,
				Damage: 32, AttackKind: core.AttackMagic, AttackRange: 4.5, AttackInterval: 2.2,
				ArmorKind: core.ArmorLight, Armor: 0,
				Speed: 4.0, Sight: 9,
				CanFly: true, Detect: true,
			},
		},
		Buildings: map[string]*BuildingData{
			"town_hall": {
				Name: "Town Hall", Category: "main",
				Cost: core.CostMap{core.ResourceGold: 385, core.ResourceWood: 205}, BuildTime: 120,
				MaxHealth: 1500,
				ArmorKind: core.ArmorFortified, Armor: 5,
				SizeX: 3, SizeY: 3, Sight: 8,
				Producible: []string{"peasant"}, QueueCap: 5,
			},
			"barracks": {
				Name: "Barracks", Category: "military",
				Cost: core.CostMap{core.ResourceGold: 160, core.ResourceWood: 110}, BuildTime: 70,
				MaxHealth: 1200,
				ArmorKind: core.ArmorFortified, Armor: 5,
				SizeX: 3, SizeY: 3, Sight: 6,
				Producible: []string{"footman", "archer", "berserker", "rogue"}, QueueCap: 7,
			},
			"workshop": {
				Name: "Workshop", Category: "military",
				Cost: core.CostMap{core.ResourceGold: 140, core.ResourceWood: 140}, BuildTime: 70,
				MaxHealth: 1000,
				ArmorKind: core.ArmorFortified, Armor: 4,
				SizeX: 3, SizeY: 3, Sight: 6,
				Producible: []string{"catapult", "raider", "knight"}, QueueCap: 7,
			},
			"aviary": {
				Name: "Aviary", Category: "military",
				Cost: core.CostMap{core.ResourceGold: 150, core.ResourceWood: 190}, BuildTime: 80,
				MaxHealth: 900,
				ArmorKind: core.ArmorFortified, Armor: 4,
				SizeX: 3, SizeY: 3, Sight: 6,
				Producible: []string{"gryphon"}, QueueCap: 7,
			},
			"watchtower": {
				Name: "Watchtower", Category: "defense",
				Cost: core.CostMap{core.ResourceGold: 30, core.ResourceWood: 80}, BuildTime: 55,
				MaxHealth: 500,
				ArmorKind: core.ArmorFortified, Armor: 3,
				SizeX: 1, SizeY: 1, Sight: 9,
				Damage: 22, AttackKind: core.AttackPierce, AttackRange: 7.0, AttackInterval: 0.9,
				Detect: true,
			},
		},
		Techs: map[string]*TechData{
			"attack_upgrade_1": {
				Name: "Forged Blades",
				Cost: core.CostMap{core.ResourceGold: 100, core.ResourceWood: 50},
				Effects: []TechEffect{
					{Stat: StatAttackDamage, Value: 2},
				},
			},
			"attack_upgrade_2": {
				Name: "Runed Blades",
				Cost: core.CostMap{core.ResourceGold: 200, core.ResourceWood: 100},
				Requires: []string{"attack_upgrade_1"},
				Effects: []TechEffect{
					{Stat: StatAttackDamage, Value: 3},
				},
			},
			"speed_upgrade": {
				Name: "Swift Boots",
				Cost: core.CostMap{core.ResourceGold: 150},
				Effects: []TechEffect{
					{Stat: StatMoveSpeed, Value: 0.10, Percent: true},
				},
			},
			"armor_plating": {
				Name: "Plate Armor",
				Cost: core.CostMap{core.ResourceGold: 150, core.ResourceWood: 75},
				Effects: []TechEffect{
					{Stat: StatArmor, Value: 2, Category: "infantry"},
					{Stat: StatArmor, Value: 2, Category: "cavalry"},
				},
			},
			"ranger_training": {
				Name: "Ranger Training",
				Cost: core.CostMap{core.ResourceGold: 120, core.ResourceWood: 60},
				Effects: []TechEffect{
					{Stat: StatAttackRange, Value: 0.15, Percent: true, Category: "ranged"},
					{Stat: StatMaxHealth, Value: 40, UnitIDs: []string{"archer"}},
				},
			},
		},
		Multipliers: DefaultMultipliers(),
	}
	fillIDs(c)
	return c
}

// DefaultMultipliers returns the built-in damage table. Pairs not listed
// fall back to 1.0 at lookup time.
func DefaultMultipliers() MultiplierTable {
	return MultiplierTable{
		core.AttackNormal: {
			core.ArmorMedium: 1.5, core.ArmorFortified: 0.7, core.ArmorDivine: 0.05,
		},
		core.AttackPierce: {
			core.ArmorLight: 2.0, core.ArmorMedium: 0.75, core.ArmorHeavy: 0.5,
			core.ArmorFortified: 0.35, core.ArmorDivine: 0.05,
		},
		core.AttackMagic: {
			core.ArmorLight: 1.25, core.ArmorMedium: 0.75, core.ArmorHeavy: 2.0,
			core.ArmorFortified: 0.35, core.ArmorDivine: 0.05,
		},
		core.AttackSiege: {
			core.ArmorMedium: 0.5, core.ArmorFortified: 1.5, core.ArmorDivine: 0.05,
		},
		core.AttackHero: {
			core.ArmorFortified: 0.5, core.ArmorDivine: 0.05,
		},
	}
}

func fillIDs(c *Catalog) {
	for id, u := range c.Units {
		u.ID = id
	}
	for id, b := range c.Buildings {
		b.ID = id
	}
	for id, t := range c.Techs {
		t.ID = id
	}
}
