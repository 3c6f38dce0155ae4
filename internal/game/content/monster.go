package content

import (
	"fmt"

	"github.com/emberfall-rpg/emberfall/internal/game/dice"
)

// AttackDef is one attack in a combatant's attack list. Monsters define
// several; player characters get one derived from equipment.
type AttackDef struct {
	Name string `yaml:"name"`
	// Damage is a dice expression, e.g. "1d8+2".
	Damage string `yaml:"damage"`
	// Condition is an optional rider condition template ID applied on hit.
	Condition string `yaml:"condition"`

	damageExpr dice.Expression
}

// DamageExpr returns the parsed damage expression.
// Precondition: the owning template passed Validate, or Compile was called.
func (a *AttackDef) DamageExpr() dice.Expression { return a.damageExpr }

// Compile parses the damage expression. Template attacks compile during
// Validate; attacks assembled in code or loaded from the roster store call
// this directly.
func (a *AttackDef) Compile() error {
	if a.Name == "" {
		return fmt.Errorf("attack must have a name")
	}
	expr, err := dice.Parse(a.Damage)
	if err != nil {
		return fmt.Errorf("attack %q: %w", a.Name, err)
	}
	a.damageExpr = expr
	return nil
}

func (a *AttackDef) validate(owner string, i int) error {
	if a.Name == "" {
		return fmt.Errorf("%s: attack[%d] must have a name", owner, i)
	}
	if a.Damage == "" {
		return fmt.Errorf("%s: attack[%d] must have a damage expression", owner, i)
	}
	expr, err := dice.Parse(a.Damage)
	if err != nil {
		return fmt.Errorf("%s: attack[%d]: %w", owner, i, err)
	}
	a.damageExpr = expr
	return nil
}

// CurrencyDrop defines the range of a currency an encounter group can yield.
type CurrencyDrop struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// ItemDrop defines a single item entry in a loot table with a drop chance.
type ItemDrop struct {
	ItemID string  `yaml:"item"`
	Chance float64 `yaml:"chance"`
}

// LootTable defines the possible post-victory drops for a monster template.
type LootTable struct {
	Gold  CurrencyDrop `yaml:"gold"`
	Gems  CurrencyDrop `yaml:"gems"`
	Items []ItemDrop   `yaml:"items"`
}

// Validate checks the loot table's invariants. An empty table is valid.
func (lt *LootTable) Validate() error {
	for _, c := range []struct {
		name string
		d    CurrencyDrop
	}{{"gold", lt.Gold}, {"gems", lt.Gems}} {
		if c.d.Min < 0 {
			return fmt.Errorf("loot table: %s min must be >= 0, got %d", c.name, c.d.Min)
		}
		if c.d.Min > c.d.Max {
			return fmt.Errorf("loot table: %s min (%d) must be <= max (%d)", c.name, c.d.Min, c.d.Max)
		}
	}
	for i, item := range lt.Items {
		if item.ItemID == "" {
			return fmt.Errorf("loot table: item[%d] must have a non-empty item id", i)
		}
		if item.Chance <= 0 || item.Chance > 1.0 {
			return fmt.Errorf("loot table: item[%d] chance must be in (0, 1.0], got %f", i, item.Chance)
		}
	}
	return nil
}

// MonsterTemplate defines a reusable monster archetype loaded from YAML.
type MonsterTemplate struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Level       int    `yaml:"level"`
	MaxHP       int    `yaml:"max_hp"`
	ArmorClass  int    `yaml:"armor_class"`
	Speed       int    `yaml:"speed"`
	Accuracy    int    `yaml:"accuracy"`
	// DamageBonus is added to every physical attack's damage roll.
	DamageBonus int `yaml:"damage_bonus"`
	// Experience is the award value when this monster is defeated.
	Experience int         `yaml:"experience"`
	Attacks    []AttackDef `yaml:"attacks"`
	// AttacksPerTurn is how many discrete attacks resolve in one attack
	// action; defaults to 1.
	AttacksPerTurn int `yaml:"attacks_per_turn"`
	// SpecialThreshold is the percent chance (0-100) the monster prefers an
	// attack with a rider condition when it has one.
	SpecialThreshold int `yaml:"special_threshold"`
	// Strategy names the target-selection policy: "lowest-hp" (default),
	// "highest-threat", or "random".
	Strategy string    `yaml:"strategy"`
	Loot     LootTable `yaml:"loot"`
}

// Validate checks the template's invariants.
//
// Postcondition: Returns nil iff all fields are well formed; AttacksPerTurn
// and Strategy are defaulted when unset.
func (t *MonsterTemplate) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("monster template: id must not be empty")
	}
	owner := fmt.Sprintf("monster template %q", t.ID)
	if t.Name == "" {
		return fmt.Errorf("%s: name must not be empty", owner)
	}
	if t.Level < 1 {
		return fmt.Errorf("%s: level must be >= 1", owner)
	}
	if t.MaxHP < 1 {
		return fmt.Errorf("%s: max_hp must be >= 1", owner)
	}
	if t.Speed < 1 {
		return fmt.Errorf("%s: speed must be >= 1", owner)
	}
	if t.Experience < 0 {
		return fmt.Errorf("%s: experience must be >= 0", owner)
	}
	if len(t.Attacks) == 0 {
		return fmt.Errorf("%s: must define at least one attack", owner)
	}
	for i := range t.Attacks {
		if err := t.Attacks[i].validate(owner, i); err != nil {
			return err
		}
	}
	if t.AttacksPerTurn == 0 {
		t.AttacksPerTurn = 1
	}
	if t.AttacksPerTurn < 1 {
		return fmt.Errorf("%s: attacks_per_turn must be >= 1", owner)
	}
	if t.SpecialThreshold < 0 || t.SpecialThreshold > 100 {
		return fmt.Errorf("%s: special_threshold must be in [0, 100]", owner)
	}
	switch t.Strategy {
	case "":
		t.Strategy = "lowest-hp"
	case "lowest-hp", "highest-threat", "random":
	default:
		return fmt.Errorf("%s: unknown strategy %q", owner, t.Strategy)
	}
	if err := t.Loot.Validate(); err != nil {
		return fmt.Errorf("%s: %w", owner, err)
	}
	return nil
}
