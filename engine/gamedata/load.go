package gamedata

import (
	"encoding/json"
	"fmt"
	"os"
)

// Load reads a catalog from a JSON file and validates it. IDs come from
// the map keys, so definitions never repeat their own id.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	if c.Units == nil {
		c.Units = map[string]*UnitData{}
	}
	if c.Buildings == nil {
		c.Buildings = map[string]*BuildingData{}
	}
	if c.Techs == nil {
		c.Techs = map[string]*TechData{}
	}
	if c.Multipliers == nil {
		c.Multipliers = DefaultMultipliers()
	}
	fillIDs(&c)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return &c, nil
}

// Save writes a catalog as indented JSON, the same shape Load reads.
func (c *Catalog) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
