package encounter

import (
	"sort"

	"github.com/emberfall-rpg/emberfall/internal/game/dice"
)

// Handicap records which side, if either, sprang the encounter.
type Handicap int

const (
	// HandicapEven: both sides saw each other; pure initiative order.
	HandicapEven Handicap = iota
	// HandicapPlayers: the party ambushed the monsters and acts first.
	HandicapPlayers
	// HandicapMonsters: the monsters ambushed the party and act first.
	HandicapMonsters
)

func (h Handicap) String() string {
	switch h {
	case HandicapPlayers:
		return "players-advantage"
	case HandicapMonsters:
		return "monsters-advantage"
	}
	return "even"
}

// initiativeEntry pairs a slot with its rolled initiative for one round.
type initiativeEntry struct {
	slot       Slot
	initiative int
}

// rollInitiative produces the acting order for one round: each active,
// non-disabled combatant rolls current speed plus 1d(initiativeDie), sorted
// descending. Ties break in favor of players, then lower registration index.
// On the first round of a handicapped encounter the advantaged side acts
// first regardless of rolls, with the ambush speed bonus added to its rolls.
func rollInitiative(combatants []*Combatant, src dice.Source, initiativeDie int, handicap Handicap, ambushBonus int) []Slot {
	entries := make([]initiativeEntry, 0, len(combatants))
	for _, c := range combatants {
		if !c.Active() {
			continue
		}
		roll := c.Speed + dice.RollDie(src, initiativeDie)
		if advantaged(c.Slot.Side, handicap) {
			roll += ambushBonus
		}
		entries = append(entries, initiativeEntry{slot: c.Slot, initiative: roll})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if handicap != HandicapEven {
			aAdv, bAdv := advantaged(a.slot.Side, handicap), advantaged(b.slot.Side, handicap)
			if aAdv != bAdv {
				return aAdv
			}
		}
		if a.initiative != b.initiative {
			return a.initiative > b.initiative
		}
		if a.slot.Side != b.slot.Side {
			return a.slot.Side == SidePlayers
		}
		return a.slot.Index < b.slot.Index
	})

	order := make([]Slot, len(entries))
	for i, e := range entries {
		order[i] = e.slot
	}
	return order
}

func advantaged(side Side, h Handicap) bool {
	return (h == HandicapPlayers && side == SidePlayers) ||
		(h == HandicapMonsters && side == SideMonsters)
}
