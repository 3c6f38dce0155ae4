package content

import (
	"fmt"

	"github.com/emberfall-rpg/emberfall/internal/game/dice"
)

// SpellSchool identifies which casting tradition a spell belongs to.
type SpellSchool string

const (
	SchoolArcane SpellSchool = "arcane"
	SchoolDivine SpellSchool = "divine"
)

// SpellContext restricts where a spell may be cast.
type SpellContext string

const (
	ContextAny       SpellContext = "any"
	ContextCombat    SpellContext = "combat"
	ContextNonCombat SpellContext = "noncombat"
	ContextOutdoor   SpellContext = "outdoor"
)

// TargetShape describes who a spell or item effect lands on.
type TargetShape string

const (
	TargetEnemy      TargetShape = "enemy"
	TargetEnemyGroup TargetShape = "enemy-group"
	TargetAlly       TargetShape = "ally"
	TargetSelf       TargetShape = "self"
)

// EffectKind is what an effect does when it lands.
type EffectKind string

const (
	EffectDamage    EffectKind = "damage"
	EffectHeal      EffectKind = "heal"
	EffectCondition EffectKind = "condition"
)

// Effect is the resolved payload of a spell or usable item.
type Effect struct {
	Kind EffectKind `yaml:"kind"`
	// Amount is the dice expression for damage/heal effects, e.g. "3d6".
	Amount string `yaml:"amount"`
	// Condition is a condition template ID; required for condition effects,
	// optional as a rider on damage effects.
	Condition string `yaml:"condition"`

	// amountExpr is Amount parsed once at load time.
	amountExpr dice.Expression
}

// AmountExpr returns the parsed dice expression for Amount.
// Precondition: the owning template passed Validate.
func (e *Effect) AmountExpr() dice.Expression { return e.amountExpr }

// validate parses Amount and checks kind-specific requirements.
func (e *Effect) validate(owner string) error {
	switch e.Kind {
	case EffectDamage, EffectHeal:
		if e.Amount == "" {
			return fmt.Errorf("%s: %s effect requires an amount", owner, e.Kind)
		}
		expr, err := dice.Parse(e.Amount)
		if err != nil {
			return fmt.Errorf("%s: parsing amount: %w", owner, err)
		}
		e.amountExpr = expr
		if e.Kind == EffectHeal && e.Condition != "" {
			return fmt.Errorf("%s: heal effects cannot carry a rider condition", owner)
		}
	case EffectCondition:
		if e.Condition == "" {
			return fmt.Errorf("%s: condition effect requires a condition id", owner)
		}
		if e.Amount != "" {
			return fmt.Errorf("%s: condition effect must not set an amount", owner)
		}
	default:
		return fmt.Errorf("%s: unknown effect kind %q", owner, e.Kind)
	}
	return nil
}

// SpellTemplate is the static definition of a spell, loaded from YAML.
type SpellTemplate struct {
	ID          string       `yaml:"id"`
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	School      SpellSchool  `yaml:"school"`
	// Level is the spell's rank within its school; the character level gate
	// derives from it.
	Level int `yaml:"level"`
	// SPCost is the spell point cost; 0 in YAML defaults to Level.
	SPCost int `yaml:"sp_cost"`
	// GemCost is the material cost deducted from the party gem pool.
	GemCost int          `yaml:"gem_cost"`
	Context SpellContext `yaml:"context"`
	Target  TargetShape  `yaml:"target"`
	Effect  Effect       `yaml:"effect"`
}

// Validate checks the template's invariants and parses the effect amount.
//
// Postcondition: Returns nil iff all fields are well formed; SPCost is
// defaulted to Level when unset.
func (s *SpellTemplate) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("spell template: id must not be empty")
	}
	if s.Name == "" {
		return fmt.Errorf("spell template %q: name must not be empty", s.ID)
	}
	switch s.School {
	case SchoolArcane, SchoolDivine:
	default:
		return fmt.Errorf("spell template %q: unknown school %q", s.ID, s.School)
	}
	if s.Level < 1 {
		return fmt.Errorf("spell template %q: level must be >= 1", s.ID)
	}
	if s.SPCost < 0 {
		return fmt.Errorf("spell template %q: sp_cost must be >= 0", s.ID)
	}
	if s.SPCost == 0 {
		s.SPCost = s.Level
	}
	if s.GemCost < 0 {
		return fmt.Errorf("spell template %q: gem_cost must be >= 0", s.ID)
	}
	switch s.Context {
	case ContextAny, ContextCombat, ContextNonCombat, ContextOutdoor:
	default:
		return fmt.Errorf("spell template %q: unknown context %q", s.ID, s.Context)
	}
	switch s.Target {
	case TargetEnemy, TargetEnemyGroup, TargetAlly, TargetSelf:
	default:
		return fmt.Errorf("spell template %q: unknown target %q", s.ID, s.Target)
	}
	if err := s.Effect.validate(fmt.Sprintf("spell template %q", s.ID)); err != nil {
		return err
	}
	return nil
}
