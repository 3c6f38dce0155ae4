// Package party models the player side of an encounter: characters, their
// classes and progression, and the shared party roster with its pooled
// currencies.
package party

import (
	"fmt"

	"github.com/emberfall-rpg/emberfall/internal/game/content"
)

// Class is a playable character class.
type Class string

const (
	ClassKnight   Class = "knight"
	ClassPaladin  Class = "paladin"
	ClassArcher   Class = "archer"
	ClassCleric   Class = "cleric"
	ClassSorcerer Class = "sorcerer"
	ClassRobber   Class = "robber"
)

// Classes lists every playable class.
var Classes = []Class{ClassKnight, ClassPaladin, ClassArcher, ClassCleric, ClassSorcerer, ClassRobber}

// Valid reports whether c is a known class.
func (c Class) Valid() bool {
	switch c {
	case ClassKnight, ClassPaladin, ClassArcher, ClassCleric, ClassSorcerer, ClassRobber:
		return true
	}
	return false
}

// School returns the spell school the class can cast from, or "" for
// non-casters. Paladins and archers are hybrid casters.
func (c Class) School() content.SpellSchool {
	switch c {
	case ClassCleric, ClassPaladin:
		return content.SchoolDivine
	case ClassSorcerer, ClassArcher:
		return content.SchoolArcane
	}
	return ""
}

// hybrid reports whether the class trades casting strength for arms.
func (c Class) hybrid() bool {
	return c == ClassPaladin || c == ClassArcher
}

// RequiredLevel returns the character level needed to cast a spell of the
// given rank, or ok=false if the class can never cast from that school. Pure
// casters unlock rank n at level 2n-1; hybrids lag behind and cast nothing
// before level 3.
func (c Class) RequiredLevel(school content.SpellSchool, spellLevel int) (int, bool) {
	if c.School() != school {
		return 0, false
	}
	level := 2*spellLevel - 1
	if c.hybrid() {
		level += 2
		if level < 3 {
			level = 3
		}
	}
	return level, true
}

// MaxInventory is how many item instances one character can carry.
const MaxInventory = 12

// ItemInstance is one carried copy of an item template.
type ItemInstance struct {
	ItemID string
	// ChargesLeft is remaining uses for charged items; always 1 for
	// consumables.
	ChargesLeft int
}

// ActiveCondition is a condition that outlived an encounter and stays on the
// character until it runs out or something removes it. The next encounter
// picks it up with its saved magnitude and remaining duration.
type ActiveCondition struct {
	ConditionID string
	Magnitude   int
	Remaining   int
}

// Character is a persistent party member. Combat-transient state (current
// stats) lives in the encounter, not here; the encounter writes back HP, SP,
// inventory, and surviving conditions when it ends.
type Character struct {
	ID    string
	Name  string
	Class Class
	Level int

	MaxHP int
	HP    int
	MaxSP int
	SP    int

	ArmorClass  int
	Speed       int
	Accuracy    int
	DamageBonus int

	// Attack is the melee profile derived from equipped weapons.
	Attack         content.AttackDef
	AttacksPerTurn int

	Experience  int
	KnownSpells []string
	Inventory   []ItemInstance
	Conditions  []ActiveCondition
}

// Validate checks the character's invariants.
func (c *Character) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("character: id must not be empty")
	}
	if c.Name == "" {
		return fmt.Errorf("character %q: name must not be empty", c.ID)
	}
	if !c.Class.Valid() {
		return fmt.Errorf("character %q: unknown class %q", c.ID, c.Class)
	}
	if c.Level < 1 {
		return fmt.Errorf("character %q: level must be >= 1", c.ID)
	}
	if c.MaxHP < 1 {
		return fmt.Errorf("character %q: max hp must be >= 1", c.ID)
	}
	if c.HP < 0 || c.HP > c.MaxHP {
		return fmt.Errorf("character %q: hp %d outside [0, %d]", c.ID, c.HP, c.MaxHP)
	}
	if c.MaxSP < 0 {
		return fmt.Errorf("character %q: max sp must be >= 0", c.ID)
	}
	if c.SP < 0 || c.SP > c.MaxSP {
		return fmt.Errorf("character %q: sp %d outside [0, %d]", c.ID, c.SP, c.MaxSP)
	}
	if c.Speed < 1 {
		return fmt.Errorf("character %q: speed must be >= 1", c.ID)
	}
	if c.AttacksPerTurn < 1 {
		return fmt.Errorf("character %q: attacks per turn must be >= 1", c.ID)
	}
	if len(c.Inventory) > MaxInventory {
		return fmt.Errorf("character %q: inventory holds %d items, max is %d", c.ID, len(c.Inventory), MaxInventory)
	}
	if err := c.Attack.Compile(); err != nil {
		return fmt.Errorf("character %q: %w", c.ID, err)
	}
	return nil
}

// Conscious reports whether the character can participate in an encounter.
func (c *Character) Conscious() bool { return c.HP > 0 }

// Knows reports whether the character has learned the given spell.
func (c *Character) Knows(spellID string) bool {
	for _, id := range c.KnownSpells {
		if id == spellID {
			return true
		}
	}
	return false
}

// FindItem returns the index of the first inventory instance of itemID, or
// -1 when the character carries none.
func (c *Character) FindItem(itemID string) int {
	for i, inst := range c.Inventory {
		if inst.ItemID == itemID {
			return i
		}
	}
	return -1
}

// AddItem appends one instance of the template to the inventory.
//
// Postcondition: Returns false and leaves the inventory unchanged when it is
// already full.
func (c *Character) AddItem(tpl *content.ItemTemplate) bool {
	if len(c.Inventory) >= MaxInventory {
		return false
	}
	charges := tpl.Charges
	if tpl.Consumable() {
		charges = 1
	}
	c.Inventory = append(c.Inventory, ItemInstance{ItemID: tpl.ID, ChargesLeft: charges})
	return true
}

// RemoveItem deletes the inventory entry at index i, preserving order.
// Precondition: i is a valid index.
func (c *Character) RemoveItem(i int) {
	c.Inventory = append(c.Inventory[:i], c.Inventory[i+1:]...)
}
