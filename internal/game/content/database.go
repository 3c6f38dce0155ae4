package content

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Database aggregates every loaded template registry. The combat engine holds
// a read-only reference to one Database for the lifetime of an encounter.
type Database struct {
	Monsters   map[string]*MonsterTemplate
	Spells     map[string]*SpellTemplate
	Items      map[string]*ItemTemplate
	Conditions map[string]*ConditionTemplate
}

// NewDatabase creates an empty Database.
func NewDatabase() *Database {
	return &Database{
		Monsters:   make(map[string]*MonsterTemplate),
		Spells:     make(map[string]*SpellTemplate),
		Items:      make(map[string]*ItemTemplate),
		Conditions: make(map[string]*ConditionTemplate),
	}
}

// validated is the contract every template type satisfies.
type validated interface {
	Validate() error
}

// decodeStrict parses data into out, rejecting unknown YAML fields, then
// validates the result.
func decodeStrict(data []byte, path string, out validated) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("parsing %q: %w", path, err)
	}
	if err := out.Validate(); err != nil {
		return fmt.Errorf("validating %q: %w", path, err)
	}
	return nil
}

// loadDir reads every *.yaml file in dir, decoding each into a fresh T.
func loadDir[T validated](dir string, fresh func() T) ([]T, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading content dir %q: %w", dir, err)
	}
	var out []T
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		t := fresh()
		if err := decodeStrict(data, path, t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// Load reads all four template directories into a Database and verifies every
// cross-reference resolves.
//
// Precondition: each directory must be readable.
// Postcondition: Returns a fully-resolved Database or an error; on error the
// partial result is discarded.
func Load(monstersDir, spellsDir, itemsDir, conditionsDir string) (*Database, error) {
	db := NewDatabase()

	conditions, err := loadDir(conditionsDir, func() *ConditionTemplate { return &ConditionTemplate{} })
	if err != nil {
		return nil, err
	}
	for _, c := range conditions {
		if _, dup := db.Conditions[c.ID]; dup {
			return nil, fmt.Errorf("duplicate condition template id %q", c.ID)
		}
		db.Conditions[c.ID] = c
	}

	items, err := loadDir(itemsDir, func() *ItemTemplate { return &ItemTemplate{} })
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		if _, dup := db.Items[it.ID]; dup {
			return nil, fmt.Errorf("duplicate item template id %q", it.ID)
		}
		db.Items[it.ID] = it
	}

	spells, err := loadDir(spellsDir, func() *SpellTemplate { return &SpellTemplate{} })
	if err != nil {
		return nil, err
	}
	for _, s := range spells {
		if _, dup := db.Spells[s.ID]; dup {
			return nil, fmt.Errorf("duplicate spell template id %q", s.ID)
		}
		db.Spells[s.ID] = s
	}

	monsters, err := loadDir(monstersDir, func() *MonsterTemplate { return &MonsterTemplate{} })
	if err != nil {
		return nil, err
	}
	for _, m := range monsters {
		if _, dup := db.Monsters[m.ID]; dup {
			return nil, fmt.Errorf("duplicate monster template id %q", m.ID)
		}
		db.Monsters[m.ID] = m
	}

	if err := db.ResolveReferences(); err != nil {
		return nil, err
	}
	return db, nil
}

// ResolveReferences verifies that every condition, item, and loot reference
// in the database points at a template that exists.
//
// Postcondition: Returns nil iff the engine can trust every lookup to succeed.
func (db *Database) ResolveReferences() error {
	for _, s := range db.Spells {
		if c := s.Effect.Condition; c != "" {
			if _, ok := db.Conditions[c]; !ok {
				return fmt.Errorf("spell %q references unknown condition %q", s.ID, c)
			}
		}
	}
	for _, it := range db.Items {
		if c := it.Effect.Condition; c != "" {
			if _, ok := db.Conditions[c]; !ok {
				return fmt.Errorf("item %q references unknown condition %q", it.ID, c)
			}
		}
	}
	for _, m := range db.Monsters {
		for i, a := range m.Attacks {
			if a.Condition != "" {
				if _, ok := db.Conditions[a.Condition]; !ok {
					return fmt.Errorf("monster %q attack[%d] references unknown condition %q", m.ID, i, a.Condition)
				}
			}
		}
		for i, drop := range m.Loot.Items {
			if _, ok := db.Items[drop.ItemID]; !ok {
				return fmt.Errorf("monster %q loot item[%d] references unknown item %q", m.ID, i, drop.ItemID)
			}
		}
	}
	return nil
}
