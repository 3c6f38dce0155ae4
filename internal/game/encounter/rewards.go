package encounter

import (
	"go.uber.org/zap"

	"github.com/emberfall-rpg/emberfall/internal/game/content"
)

// MemberAward is one character's share of the victory experience.
type MemberAward struct {
	CharacterID string
	Experience  int
	// Levels is how many levels the award granted, filled in during
	// write-back.
	Levels int
}

// Drop is one item that fell from the defeated side.
type Drop struct {
	ItemID      string
	CharacterID string
	// LeftBehind is set when no one had room to carry the item.
	LeftBehind bool
}

// Summary is the reward record of a victorious encounter.
type Summary struct {
	Rounds     int
	Experience int
	Members    []MemberAward
	Gold       int
	Gems       int
	Drops      []Drop
}

// computeRewards tallies experience, currency, and item drops from every
// defeated monster. Experience splits evenly across the members who stood
// their ground; the remainder goes one point at a time to the earliest
// recipients, so the shares always sum exactly to the total.
func (e *Encounter) computeRewards() *Summary {
	s := &Summary{Rounds: e.round}

	for _, m := range e.monsters {
		if m.Status != StatusDefeated {
			continue
		}
		tpl := m.Template
		s.Experience += tpl.Experience
		s.Gold += e.rollRange(tpl.Loot.Gold)
		s.Gems += e.rollRange(tpl.Loot.Gems)
		for _, drop := range tpl.Loot.Items {
			if e.roller.Source().Intn(100) >= int(drop.Chance*100) {
				continue
			}
			s.Drops = append(s.Drops, e.assignDrop(drop.ItemID))
		}
	}

	var recipients []*Combatant
	for _, p := range e.players {
		if p.Status != StatusFled {
			recipients = append(recipients, p)
		}
	}
	if n := len(recipients); n > 0 {
		per := s.Experience / n
		rem := s.Experience % n
		for i, p := range recipients {
			award := MemberAward{CharacterID: p.Character.ID, Experience: per}
			if i < rem {
				award.Experience++
			}
			s.Members = append(s.Members, award)
		}
	}

	e.logger.Info("rewards computed",
		zap.Int("experience", s.Experience),
		zap.Int("gold", s.Gold),
		zap.Int("gems", s.Gems),
		zap.Int("drops", len(s.Drops)))
	return s
}

// rollRange draws a uniform value from a currency drop's inclusive range.
func (e *Encounter) rollRange(d content.CurrencyDrop) int {
	if d.Max <= 0 {
		return 0
	}
	if d.Max == d.Min {
		return d.Max
	}
	return d.Min + e.roller.Source().Intn(d.Max-d.Min+1)
}

// assignDrop hands an item to the first standing member with room. An item
// nobody can carry is recorded as left behind.
func (e *Encounter) assignDrop(itemID string) Drop {
	tpl := e.db.Items[itemID]
	for _, p := range e.players {
		if p.Status != StatusActive {
			continue
		}
		if p.Character.AddItem(tpl) {
			return Drop{ItemID: itemID, CharacterID: p.Character.ID}
		}
	}
	return Drop{ItemID: itemID, LeftBehind: true}
}
