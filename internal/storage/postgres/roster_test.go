package postgres_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberfall-rpg/emberfall/internal/game/content"
	"github.com/emberfall-rpg/emberfall/internal/game/party"
	"github.com/emberfall-rpg/emberfall/internal/storage/postgres"
	"github.com/emberfall-rpg/emberfall/internal/testutil"
)

func rosterCharacter(name string) *party.Character {
	return &party.Character{
		Name:           name,
		Class:          party.ClassKnight,
		Level:          1,
		MaxHP:          20,
		HP:             20,
		MaxSP:          4,
		SP:             4,
		ArmorClass:     12,
		Speed:          6,
		AttacksPerTurn: 1,
		Attack:         content.AttackDef{Name: "sword", Damage: "1d6"},
		KnownSpells:    []string{},
	}
}

func TestRosterRoundTrip(t *testing.T) {
	pc := testutil.NewPostgresContainer(t)
	pc.ApplyMigrations(t)
	repo := postgres.NewRosterRepository(pc.RawPool)
	ctx := context.Background()

	partyID, err := repo.CreateParty(ctx, "lanterns")
	require.NoError(t, err)

	// Seven characters: the capacity rule routes the last to the reserve
	// roster at checkout.
	for i := 0; i < party.MaxMembers+1; i++ {
		c := rosterCharacter(fmt.Sprintf("pc-%d", i))
		require.NoError(t, c.Validate())
		require.NoError(t, repo.AddCharacter(ctx, partyID, c))
		assert.NotEmpty(t, c.ID)
	}

	p, err := repo.CheckoutParty(ctx, partyID)
	require.NoError(t, err)
	assert.Len(t, p.Members, party.MaxMembers)
	require.Len(t, p.Reserve, 1)
	assert.Equal(t, "pc-6", p.Reserve[0].Name)
	assert.Equal(t, "pc-0", p.Members[0].Name, "position order survives the round trip")

	// Simulate encounter results and write them back.
	p.Gold = 150
	p.Gems = 3
	p.Members[0].HP = 5
	p.Members[0].SP = 1
	p.Members[0].ApplyExperience(600)
	p.Members[1].Inventory = append(p.Members[1].Inventory, party.ItemInstance{ItemID: "tonic", ChargesLeft: 1})
	p.Members[0].Conditions = []party.ActiveCondition{{ConditionID: "poison", Magnitude: 3, Remaining: 2}}
	require.NoError(t, repo.WriteBack(ctx, partyID, p))

	reloaded, err := repo.CheckoutParty(ctx, partyID)
	require.NoError(t, err)
	assert.Equal(t, 150, reloaded.Gold)
	assert.Equal(t, 3, reloaded.Gems)
	assert.Equal(t, 5, reloaded.Members[0].HP)
	assert.Equal(t, 1, reloaded.Members[0].SP)
	assert.Equal(t, 600, reloaded.Members[0].Experience)
	assert.Equal(t, 2, reloaded.Members[0].Level)
	require.Len(t, reloaded.Members[1].Inventory, 1)
	assert.Equal(t, "tonic", reloaded.Members[1].Inventory[0].ItemID)
	require.Len(t, reloaded.Members[0].Conditions, 1)
	assert.Equal(t, party.ActiveCondition{ConditionID: "poison", Magnitude: 3, Remaining: 2},
		reloaded.Members[0].Conditions[0])

	// A later write-back with the condition gone clears the stored row.
	reloaded.Members[0].Conditions = nil
	require.NoError(t, repo.WriteBack(ctx, partyID, reloaded))
	again, err := repo.CheckoutParty(ctx, partyID)
	require.NoError(t, err)
	assert.Empty(t, again.Members[0].Conditions)
}

func TestCreatePartyRejectsDuplicateNames(t *testing.T) {
	pc := testutil.NewPostgresContainer(t)
	pc.ApplyMigrations(t)
	repo := postgres.NewRosterRepository(pc.RawPool)
	ctx := context.Background()

	_, err := repo.CreateParty(ctx, "lanterns")
	require.NoError(t, err)
	_, err = repo.CreateParty(ctx, "lanterns")
	assert.ErrorIs(t, err, postgres.ErrPartyNameTaken)
}

func TestCheckoutPartyNotFound(t *testing.T) {
	pc := testutil.NewPostgresContainer(t)
	pc.ApplyMigrations(t)
	repo := postgres.NewRosterRepository(pc.RawPool)

	_, err := repo.CheckoutParty(context.Background(), "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, postgres.ErrPartyNotFound)
}

func TestWriteBackIsTransactional(t *testing.T) {
	pc := testutil.NewPostgresContainer(t)
	pc.ApplyMigrations(t)
	repo := postgres.NewRosterRepository(pc.RawPool)
	ctx := context.Background()

	partyID, err := repo.CreateParty(ctx, "lanterns")
	require.NoError(t, err)
	c := rosterCharacter("pc-0")
	require.NoError(t, c.Validate())
	require.NoError(t, repo.AddCharacter(ctx, partyID, c))

	p, err := repo.CheckoutParty(ctx, partyID)
	require.NoError(t, err)
	p.Gold = 75
	// A negative charge count violates a check constraint mid-transaction.
	p.Members[0].Inventory = append(p.Members[0].Inventory, party.ItemInstance{ItemID: "tonic", ChargesLeft: -1})
	require.Error(t, repo.WriteBack(ctx, partyID, p))

	reloaded, err := repo.CheckoutParty(ctx, partyID)
	require.NoError(t, err)
	assert.Zero(t, reloaded.Gold, "failed write-back leaves the stored roster untouched")
	assert.Empty(t, reloaded.Members[0].Inventory)
}

func TestValidateItems(t *testing.T) {
	pc := testutil.NewPostgresContainer(t)
	pc.ApplyMigrations(t)
	repo := postgres.NewRosterRepository(pc.RawPool)
	ctx := context.Background()

	partyID, err := repo.CreateParty(ctx, "lanterns")
	require.NoError(t, err)
	c := rosterCharacter("pc-0")
	c.Inventory = []party.ItemInstance{{ItemID: "ghost-item", ChargesLeft: 1}}
	require.NoError(t, c.Validate())
	require.NoError(t, repo.AddCharacter(ctx, partyID, c))

	db := content.NewDatabase()
	err = repo.ValidateItems(ctx, db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost-item")

	db.Items["ghost-item"] = &content.ItemTemplate{ID: "ghost-item", Name: "Ghost Item"}
	assert.NoError(t, repo.ValidateItems(ctx, db))
}
