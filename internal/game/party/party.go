package party

import (
	"fmt"
)

// MaxMembers is the hard cap on active party size; an encounter side can
// never field more.
const MaxMembers = 6

// Party is the active adventuring group plus the reserve roster. Gold and
// gems are pooled at the party level.
type Party struct {
	Members []*Character
	// Reserve holds characters beyond the active cap; they sit out encounters
	// but stay on the save.
	Reserve []*Character

	Gold int
	Gems int
}

// New creates an empty party.
func New() *Party {
	return &Party{}
}

// AddMember validates the character and places it in the active party, or in
// the reserve roster when the active party is already full.
//
// Postcondition: Returns whether the character went to the active party, and
// an error only when the character is invalid or its ID is already present.
func (p *Party) AddMember(c *Character) (active bool, err error) {
	if err := c.Validate(); err != nil {
		return false, err
	}
	if p.find(c.ID) != nil {
		return false, fmt.Errorf("party already contains character %q", c.ID)
	}
	if len(p.Members) < MaxMembers {
		p.Members = append(p.Members, c)
		return true, nil
	}
	p.Reserve = append(p.Reserve, c)
	return false, nil
}

// RemoveMember moves the named active member out of the party entirely and
// returns it. The first reserve character, if any, is promoted into the
// vacated slot.
func (p *Party) RemoveMember(id string) (*Character, error) {
	for i, m := range p.Members {
		if m.ID != id {
			continue
		}
		p.Members = append(p.Members[:i], p.Members[i+1:]...)
		if len(p.Reserve) > 0 {
			p.Members = append(p.Members, p.Reserve[0])
			p.Reserve = p.Reserve[1:]
		}
		return m, nil
	}
	return nil, fmt.Errorf("no active member %q", id)
}

// Swap exchanges an active member with a reserve character.
func (p *Party) Swap(activeID, reserveID string) error {
	ai := -1
	for i, m := range p.Members {
		if m.ID == activeID {
			ai = i
			break
		}
	}
	if ai < 0 {
		return fmt.Errorf("no active member %q", activeID)
	}
	for i, r := range p.Reserve {
		if r.ID != reserveID {
			continue
		}
		p.Members[ai], p.Reserve[i] = p.Reserve[i], p.Members[ai]
		return nil
	}
	return fmt.Errorf("no reserve character %q", reserveID)
}

// Conscious returns the active members still able to fight.
func (p *Party) Conscious() []*Character {
	var out []*Character
	for _, m := range p.Members {
		if m.Conscious() {
			out = append(out, m)
		}
	}
	return out
}

// Wiped reports whether every active member is down.
func (p *Party) Wiped() bool { return len(p.Conscious()) == 0 }

func (p *Party) find(id string) *Character {
	for _, m := range p.Members {
		if m.ID == id {
			return m
		}
	}
	for _, r := range p.Reserve {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// Member returns the active member with the given ID, or nil.
func (p *Party) Member(id string) *Character {
	for _, m := range p.Members {
		if m.ID == id {
			return m
		}
	}
	return nil
}
