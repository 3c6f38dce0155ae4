// Package encounter implements deterministic turn-based combat resolution:
// initiative scheduling, action validation and resolution, the timed
// condition ledger, monster decision policies, and post-victory rewards.
// All randomness flows through an injected dice source.
package encounter

import (
	"fmt"

	"github.com/emberfall-rpg/emberfall/internal/game/content"
	"github.com/emberfall-rpg/emberfall/internal/game/party"
)

// Side distinguishes the two opposing groups in an encounter.
type Side int

const (
	SidePlayers Side = iota
	SideMonsters
)

func (s Side) String() string {
	if s == SidePlayers {
		return "players"
	}
	return "monsters"
}

// Opponent returns the other side.
func (s Side) Opponent() Side {
	if s == SidePlayers {
		return SideMonsters
	}
	return SidePlayers
}

// Slot addresses one combatant by side and registration index. Slots are
// stable for the whole encounter, even after defeat.
type Slot struct {
	Side  Side
	Index int
}

func (s Slot) String() string { return fmt.Sprintf("%s[%d]", s.Side, s.Index) }

// Status is a combatant's participation state.
type Status int

const (
	StatusActive Status = iota
	StatusDefeated
	StatusFled
)

// Combatant is the in-encounter view of one fighter. Base stats are frozen
// at registration; current stats are recomputed from base plus active
// condition modifiers.
type Combatant struct {
	Slot Slot
	Name string

	Level int

	MaxHP int
	HP    int
	MaxSP int
	SP    int

	baseSpeed       int
	baseArmorClass  int
	baseAccuracy    int
	baseDamageBonus int

	Speed       int
	ArmorClass  int
	Accuracy    int
	DamageBonus int

	Attacks        []content.AttackDef
	AttacksPerTurn int

	Status Status

	// Threat accumulates damage dealt, for the highest-threat policy.
	Threat int

	// Character is set for player combatants; encounter results are written
	// back to it when combat ends.
	Character *party.Character
	// Template is set for monster combatants.
	Template *content.MonsterTemplate
}

func newPlayerCombatant(c *party.Character, index int) *Combatant {
	cb := &Combatant{
		Slot:            Slot{Side: SidePlayers, Index: index},
		Name:            c.Name,
		Level:           c.Level,
		MaxHP:           c.MaxHP,
		HP:              c.HP,
		MaxSP:           c.MaxSP,
		SP:              c.SP,
		baseSpeed:       c.Speed,
		baseArmorClass:  c.ArmorClass,
		baseAccuracy:    c.Accuracy,
		baseDamageBonus: c.DamageBonus,
		Attacks:         []content.AttackDef{c.Attack},
		AttacksPerTurn:  c.AttacksPerTurn,
		Character:       c,
	}
	cb.resetStats()
	return cb
}

func newMonsterCombatant(tpl *content.MonsterTemplate, index int, name string) *Combatant {
	cb := &Combatant{
		Slot:            Slot{Side: SideMonsters, Index: index},
		Name:            name,
		Level:           tpl.Level,
		MaxHP:           tpl.MaxHP,
		HP:              tpl.MaxHP,
		baseSpeed:       tpl.Speed,
		baseArmorClass:  tpl.ArmorClass,
		baseAccuracy:    tpl.Accuracy,
		baseDamageBonus: tpl.DamageBonus,
		Attacks:         tpl.Attacks,
		AttacksPerTurn:  tpl.AttacksPerTurn,
		Template:        tpl,
	}
	cb.resetStats()
	return cb
}

// IsPlayer reports whether the combatant belongs to the player side.
func (c *Combatant) IsPlayer() bool { return c.Slot.Side == SidePlayers }

// Active reports whether the combatant is still fighting.
func (c *Combatant) Active() bool { return c.Status == StatusActive }

// resetStats restores current stats to their base values.
func (c *Combatant) resetStats() {
	c.Speed = c.baseSpeed
	c.ArmorClass = c.baseArmorClass
	c.Accuracy = c.baseAccuracy
	c.DamageBonus = c.baseDamageBonus
}

// applyDamage subtracts amount from HP, clamping at zero.
//
// Postcondition: Returns true when the hit defeated the combatant; Status is
// updated accordingly.
func (c *Combatant) applyDamage(amount int) bool {
	if amount < 0 {
		amount = 0
	}
	c.HP -= amount
	if c.HP <= 0 {
		c.HP = 0
		c.Status = StatusDefeated
		return true
	}
	return false
}

// applyHealing adds amount to HP, clamping at MaxHP.
// Precondition: the combatant is active; healing never revives the defeated.
func (c *Combatant) applyHealing(amount int) int {
	if amount < 0 {
		amount = 0
	}
	healed := amount
	if c.HP+healed > c.MaxHP {
		healed = c.MaxHP - c.HP
	}
	c.HP += healed
	return healed
}
