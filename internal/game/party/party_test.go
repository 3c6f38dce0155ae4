package party_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/emberfall-rpg/emberfall/internal/game/content"
	"github.com/emberfall-rpg/emberfall/internal/game/party"
)

func makeCharacter(id string, class party.Class) *party.Character {
	return &party.Character{
		ID:             id,
		Name:           id,
		Class:          class,
		Level:          1,
		MaxHP:          10,
		HP:             10,
		MaxSP:          6,
		SP:             6,
		ArmorClass:     10,
		Speed:          5,
		AttacksPerTurn: 1,
		Attack:         content.AttackDef{Name: "fists", Damage: "1d2"},
	}
}

func TestClassSchools(t *testing.T) {
	assert.Equal(t, content.SchoolArcane, party.ClassSorcerer.School())
	assert.Equal(t, content.SchoolArcane, party.ClassArcher.School())
	assert.Equal(t, content.SchoolDivine, party.ClassCleric.School())
	assert.Equal(t, content.SchoolDivine, party.ClassPaladin.School())
	assert.Empty(t, party.ClassKnight.School())
	assert.Empty(t, party.ClassRobber.School())
}

func TestRequiredLevel(t *testing.T) {
	tests := []struct {
		class      party.Class
		school     content.SpellSchool
		spellLevel int
		want       int
		ok         bool
	}{
		{party.ClassSorcerer, content.SchoolArcane, 1, 1, true},
		{party.ClassSorcerer, content.SchoolArcane, 4, 7, true},
		{party.ClassCleric, content.SchoolDivine, 3, 5, true},
		// Hybrids lag two levels behind pure casters and cast nothing
		// before level 3.
		{party.ClassArcher, content.SchoolArcane, 1, 3, true},
		{party.ClassPaladin, content.SchoolDivine, 2, 5, true},
		{party.ClassPaladin, content.SchoolArcane, 1, 0, false},
		{party.ClassKnight, content.SchoolDivine, 1, 0, false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%s/%d", tt.class, tt.school, tt.spellLevel), func(t *testing.T) {
			got, ok := tt.class.RequiredLevel(tt.school, tt.spellLevel)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAddMemberOverflowsToReserve(t *testing.T) {
	p := party.New()
	for i := 0; i < party.MaxMembers; i++ {
		active, err := p.AddMember(makeCharacter(fmt.Sprintf("pc-%d", i), party.ClassKnight))
		require.NoError(t, err)
		assert.True(t, active)
	}

	active, err := p.AddMember(makeCharacter("pc-extra", party.ClassRobber))
	require.NoError(t, err)
	assert.False(t, active, "seventh member should land in the reserve roster")
	assert.Len(t, p.Members, party.MaxMembers)
	require.Len(t, p.Reserve, 1)
	assert.Equal(t, "pc-extra", p.Reserve[0].ID)
}

func TestAddMemberRejectsDuplicates(t *testing.T) {
	p := party.New()
	_, err := p.AddMember(makeCharacter("pc-1", party.ClassKnight))
	require.NoError(t, err)
	_, err = p.AddMember(makeCharacter("pc-1", party.ClassCleric))
	require.Error(t, err)
}

func TestRemoveMemberPromotesReserve(t *testing.T) {
	p := party.New()
	for i := 0; i < party.MaxMembers+1; i++ {
		_, err := p.AddMember(makeCharacter(fmt.Sprintf("pc-%d", i), party.ClassKnight))
		require.NoError(t, err)
	}

	removed, err := p.RemoveMember("pc-2")
	require.NoError(t, err)
	assert.Equal(t, "pc-2", removed.ID)
	assert.Len(t, p.Members, party.MaxMembers)
	assert.Empty(t, p.Reserve)
	assert.NotNil(t, p.Member("pc-6"), "reserve character should be promoted")
}

func TestSwap(t *testing.T) {
	p := party.New()
	for i := 0; i < party.MaxMembers+1; i++ {
		_, err := p.AddMember(makeCharacter(fmt.Sprintf("pc-%d", i), party.ClassKnight))
		require.NoError(t, err)
	}

	require.NoError(t, p.Swap("pc-0", "pc-6"))
	assert.Nil(t, p.Member("pc-0"))
	assert.NotNil(t, p.Member("pc-6"))
	assert.Equal(t, "pc-0", p.Reserve[0].ID)

	assert.Error(t, p.Swap("pc-0", "pc-6"), "pc-0 is no longer active")
}

func TestInventory(t *testing.T) {
	c := makeCharacter("pc-1", party.ClassRobber)
	potion := &content.ItemTemplate{ID: "potion", Name: "Potion"}
	wand := &content.ItemTemplate{ID: "wand", Name: "Wand", Charges: 5}

	require.True(t, c.AddItem(potion))
	require.True(t, c.AddItem(wand))
	assert.Equal(t, 1, c.Inventory[0].ChargesLeft, "consumables carry one use")
	assert.Equal(t, 5, c.Inventory[1].ChargesLeft)

	for len(c.Inventory) < party.MaxInventory {
		require.True(t, c.AddItem(potion))
	}
	assert.False(t, c.AddItem(potion), "full inventory rejects new items")

	i := c.FindItem("wand")
	require.Equal(t, 1, i)
	c.RemoveItem(i)
	assert.Equal(t, -1, c.FindItem("wand"))
}

func TestProgressionThresholds(t *testing.T) {
	assert.Equal(t, 0, party.ThresholdFor(1))
	assert.Equal(t, 500, party.ThresholdFor(2))
	assert.Equal(t, 1000, party.ThresholdFor(3))
	assert.Equal(t, 2000, party.ThresholdFor(4))

	assert.Equal(t, 1, party.LevelFor(0))
	assert.Equal(t, 1, party.LevelFor(499))
	assert.Equal(t, 2, party.LevelFor(500))
	assert.Equal(t, 3, party.LevelFor(1999))
}

func TestApplyExperience(t *testing.T) {
	c := makeCharacter("pc-1", party.ClassSorcerer)

	assert.Equal(t, 0, c.ApplyExperience(499))
	assert.Equal(t, 1, c.Level)

	assert.Equal(t, 1, c.ApplyExperience(1))
	assert.Equal(t, 2, c.Level)

	// A large award can grant several levels at once.
	assert.Equal(t, 2, c.ApplyExperience(1500))
	assert.Equal(t, 4, c.Level)
}

func TestApplyExperienceNeverLowersLevel(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c := makeCharacter("pc-1", party.ClassKnight)
		c.Level = rapid.IntRange(1, 10).Draw(t, "level")
		c.Experience = party.ThresholdFor(c.Level)
		before := c.Level
		gained := c.ApplyExperience(rapid.IntRange(0, 100_000).Draw(t, "award"))
		assert.GreaterOrEqual(t, gained, 0)
		assert.Equal(t, before+gained, c.Level)
		assert.Equal(t, party.LevelFor(c.Experience), c.Level)
	})
}
