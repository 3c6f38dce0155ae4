package content

import "fmt"

// ItemTemplate defines a usable (charged or consumable) item loaded from YAML.
// Equipment stat bonuses are baked into the roster snapshot by the content
// layer; the engine only cares about usable effects.
type ItemTemplate struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	// Charges is how many uses a fresh instance carries. 0 marks a
	// single-use consumable that is removed from inventory when used.
	Charges int          `yaml:"charges"`
	Context SpellContext `yaml:"context"`
	Target  TargetShape  `yaml:"target"`
	Effect  Effect       `yaml:"effect"`
}

// Consumable reports whether the item is destroyed by a single use.
func (t *ItemTemplate) Consumable() bool { return t.Charges == 0 }

// Validate checks the template's invariants and parses the effect amount.
func (t *ItemTemplate) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("item template: id must not be empty")
	}
	owner := fmt.Sprintf("item template %q", t.ID)
	if t.Name == "" {
		return fmt.Errorf("%s: name must not be empty", owner)
	}
	if t.Charges < 0 {
		return fmt.Errorf("%s: charges must be >= 0", owner)
	}
	switch t.Context {
	case ContextAny, ContextCombat, ContextNonCombat, ContextOutdoor:
	default:
		return fmt.Errorf("%s: unknown context %q", owner, t.Context)
	}
	switch t.Target {
	case TargetEnemy, TargetEnemyGroup, TargetAlly, TargetSelf:
	default:
		return fmt.Errorf("%s: unknown target %q", owner, t.Target)
	}
	if err := t.Effect.validate(owner); err != nil {
		return err
	}
	return nil
}
