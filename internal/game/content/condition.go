// Package content provides the read-only YAML definitions the combat engine
// consumes: monster, spell, item, and condition templates. Definitions are
// loaded and validated up front; the engine assumes every reference resolves.
package content

import (
	"fmt"
)

// ConditionKind classifies what a condition does each round.
type ConditionKind string

const (
	// KindStatModifier adjusts a stat for the condition's duration.
	KindStatModifier ConditionKind = "stat-modifier"
	// KindDamageOverTime deals Magnitude damage on each ledger tick.
	KindDamageOverTime ConditionKind = "damage-over-time"
	// KindHealOverTime restores Magnitude hit points on each ledger tick.
	KindHealOverTime ConditionKind = "heal-over-time"
	// KindDisable prevents the target from acting while active.
	KindDisable ConditionKind = "disable"
)

// StatKind names a modifiable combat stat.
type StatKind string

const (
	StatSpeed      StatKind = "speed"
	StatArmorClass StatKind = "armor_class"
	StatAccuracy   StatKind = "accuracy"
	StatDamage     StatKind = "damage"
)

// ConditionTemplate is the static definition of a timed combat modifier,
// loaded from YAML.
type ConditionTemplate struct {
	ID          string        `yaml:"id"`
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Kind        ConditionKind `yaml:"kind"`
	// Stat is the stat affected; required for stat-modifier conditions.
	Stat StatKind `yaml:"stat"`
	// Magnitude is the stat delta or the per-round damage/heal amount.
	Magnitude int `yaml:"magnitude"`
	// Duration is the default duration in rounds.
	Duration int `yaml:"duration"`
	// Exclusive conditions replace an existing instance of the same template
	// on the same target instead of stacking alongside it.
	Exclusive bool `yaml:"exclusive"`
	// Optional Lua hook sources, run in the scripting sandbox.
	OnApply  string `yaml:"on_apply"`
	OnTick   string `yaml:"on_tick"`
	OnRemove string `yaml:"on_remove"`
}

// Validate checks the template's invariants.
//
// Postcondition: Returns nil iff ID and Name are set, Kind is known, Duration
// >= 1, and stat-modifier templates name a valid stat.
func (c *ConditionTemplate) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("condition template: id must not be empty")
	}
	if c.Name == "" {
		return fmt.Errorf("condition template %q: name must not be empty", c.ID)
	}
	switch c.Kind {
	case KindStatModifier:
		switch c.Stat {
		case StatSpeed, StatArmorClass, StatAccuracy, StatDamage:
		default:
			return fmt.Errorf("condition template %q: unknown stat %q", c.ID, c.Stat)
		}
		if c.Magnitude == 0 {
			return fmt.Errorf("condition template %q: stat-modifier magnitude must not be 0", c.ID)
		}
	case KindDamageOverTime, KindHealOverTime:
		if c.Magnitude < 1 {
			return fmt.Errorf("condition template %q: %s magnitude must be >= 1", c.ID, c.Kind)
		}
	case KindDisable:
		// Disable conditions are always exclusive: "asleep twice" is still asleep.
		if !c.Exclusive {
			return fmt.Errorf("condition template %q: disable conditions must be exclusive", c.ID)
		}
	default:
		return fmt.Errorf("condition template %q: unknown kind %q", c.ID, c.Kind)
	}
	if c.Duration < 1 {
		return fmt.Errorf("condition template %q: duration must be >= 1 round", c.ID)
	}
	return nil
}
