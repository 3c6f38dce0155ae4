package encounter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/emberfall-rpg/emberfall/internal/game/content"
	"github.com/emberfall-rpg/emberfall/internal/game/party"
)

func ledgerFixture(t *testing.T) (*Ledger, *Combatant) {
	t.Helper()
	c := newPlayerCombatant(&party.Character{
		ID: "pc", Name: "pc", Class: party.ClassKnight, Level: 1,
		MaxHP: 20, HP: 20, ArmorClass: 12, Speed: 6, AttacksPerTurn: 1,
	}, 0)
	l := newLedger(nil, zap.NewNop(), func() int { return 1 })
	return l, c
}

func mustTemplate(t *testing.T, tpl *content.ConditionTemplate) *content.ConditionTemplate {
	t.Helper()
	require.NoError(t, tpl.Validate())
	return tpl
}

func TestLedgerStatModifiersStack(t *testing.T) {
	l, c := ledgerFixture(t)
	haste := mustTemplate(t, &content.ConditionTemplate{
		ID: "haste", Name: "Haste", Kind: content.KindStatModifier,
		Stat: content.StatSpeed, Magnitude: 3, Duration: 2,
	})
	slow := mustTemplate(t, &content.ConditionTemplate{
		ID: "slow", Name: "Slow", Kind: content.KindStatModifier,
		Stat: content.StatSpeed, Magnitude: -4, Duration: 2,
	})

	require.NoError(t, l.Apply(c, haste))
	assert.Equal(t, 9, c.Speed)
	require.NoError(t, l.Apply(c, slow))
	assert.Equal(t, 5, c.Speed, "non-exclusive modifiers stack")
	assert.Len(t, l.Conditions(c.Slot), 2)
}

func TestLedgerSpeedNeverDropsBelowOne(t *testing.T) {
	l, c := ledgerFixture(t)
	mire := mustTemplate(t, &content.ConditionTemplate{
		ID: "mire", Name: "Mire", Kind: content.KindStatModifier,
		Stat: content.StatSpeed, Magnitude: -50, Duration: 2,
	})
	require.NoError(t, l.Apply(c, mire))
	assert.Equal(t, 1, c.Speed)
}

func TestLedgerExclusiveReplacesInstead(t *testing.T) {
	l, c := ledgerFixture(t)
	ward := mustTemplate(t, &content.ConditionTemplate{
		ID: "ward", Name: "Ward", Kind: content.KindStatModifier,
		Stat: content.StatArmorClass, Magnitude: 2, Duration: 3, Exclusive: true,
	})

	require.NoError(t, l.Apply(c, ward))
	insts := l.Conditions(c.Slot)
	require.Len(t, insts, 1)
	insts[0].Magnitude = 5
	insts[0].Remaining = 1

	// Reapplying keeps the larger magnitude, and the later application's
	// duration wins regardless of direction.
	require.NoError(t, l.Apply(c, ward))
	insts = l.Conditions(c.Slot)
	require.Len(t, insts, 1)
	assert.Equal(t, 5, insts[0].Magnitude)
	assert.Equal(t, 3, insts[0].Remaining)
	assert.Equal(t, 17, c.ArmorClass)

	insts[0].Remaining = 5
	require.NoError(t, l.Apply(c, ward))
	insts = l.Conditions(c.Slot)
	require.Len(t, insts, 1)
	assert.Equal(t, 3, insts[0].Remaining, "a shorter reapplication still resets the clock")
}

func TestLedgerExpireRemovesOnlyTheNamedCondition(t *testing.T) {
	l, c := ledgerFixture(t)
	ward := mustTemplate(t, &content.ConditionTemplate{
		ID: "ward", Name: "Ward", Kind: content.KindStatModifier,
		Stat: content.StatArmorClass, Magnitude: 2, Duration: 3, Exclusive: true,
	})
	haste := mustTemplate(t, &content.ConditionTemplate{
		ID: "haste", Name: "Haste", Kind: content.KindStatModifier,
		Stat: content.StatSpeed, Magnitude: 3, Duration: 2,
	})
	require.NoError(t, l.Apply(c, ward))
	require.NoError(t, l.Apply(c, haste))

	require.NoError(t, l.Expire(c, "ward"))
	assert.Equal(t, 12, c.ArmorClass, "expiring the ward drops its modifier")
	assert.Equal(t, 9, c.Speed, "unrelated conditions survive")
	require.Len(t, l.Conditions(c.Slot), 1)
	assert.Equal(t, "haste", l.Conditions(c.Slot)[0].Template.ID)
}

func TestLedgerRestoreSkipsHooksAndKeepsSavedState(t *testing.T) {
	applied := 0
	counting := hookFunc(func(_ string, st HookState) (HookState, error) {
		applied++
		return st, nil
	})
	l := newLedger(counting, zap.NewNop(), func() int { return 1 })
	c := newPlayerCombatant(&party.Character{
		ID: "pc", Name: "pc", Class: party.ClassKnight, Level: 1,
		MaxHP: 20, HP: 20, ArmorClass: 12, Speed: 6, AttacksPerTurn: 1,
	}, 0)

	ward := mustTemplate(t, &content.ConditionTemplate{
		ID: "ward", Name: "Ward", Kind: content.KindStatModifier,
		Stat: content.StatArmorClass, Magnitude: 2, Duration: 3, Exclusive: true,
		OnApply: "return state",
	})
	l.Restore(c, ward, 4, 1)
	assert.Zero(t, applied, "restore must not re-run on_apply")
	require.Len(t, l.Conditions(c.Slot), 1)
	assert.Equal(t, 4, l.Conditions(c.Slot)[0].Magnitude)
	assert.Equal(t, 1, l.Conditions(c.Slot)[0].Remaining)
	assert.Equal(t, 16, c.ArmorClass)
}

func TestLedgerTickDamageAndExpiry(t *testing.T) {
	l, c := ledgerFixture(t)
	poison := mustTemplate(t, &content.ConditionTemplate{
		ID: "poison", Name: "Poison", Kind: content.KindDamageOverTime,
		Magnitude: 3, Duration: 2,
	})
	require.NoError(t, l.Apply(c, poison))

	res, err := l.Tick(c)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Damage)
	assert.Empty(t, res.Expired)
	assert.Equal(t, 17, c.HP)

	res, err = l.Tick(c)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Damage)
	assert.Equal(t, []string{"poison"}, res.Expired)
	assert.Equal(t, 14, c.HP)
	assert.Empty(t, l.Conditions(c.Slot))
}

func TestLedgerTickHealingClampsAtMax(t *testing.T) {
	l, c := ledgerFixture(t)
	c.HP = 18
	regen := mustTemplate(t, &content.ConditionTemplate{
		ID: "regen", Name: "Regeneration", Kind: content.KindHealOverTime,
		Magnitude: 5, Duration: 3,
	})
	require.NoError(t, l.Apply(c, regen))

	res, err := l.Tick(c)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Healing, "healing reports only what actually landed")
	assert.Equal(t, c.MaxHP, c.HP)
}

func TestLedgerTickDefeatClearsEverything(t *testing.T) {
	l, c := ledgerFixture(t)
	c.HP = 2
	poison := mustTemplate(t, &content.ConditionTemplate{
		ID: "poison", Name: "Poison", Kind: content.KindDamageOverTime,
		Magnitude: 5, Duration: 4,
	})
	regen := mustTemplate(t, &content.ConditionTemplate{
		ID: "regen", Name: "Regeneration", Kind: content.KindHealOverTime,
		Magnitude: 5, Duration: 4,
	})
	require.NoError(t, l.Apply(c, poison))
	require.NoError(t, l.Apply(c, regen))

	res, err := l.Tick(c)
	require.NoError(t, err)
	assert.True(t, res.Defeated)
	assert.Equal(t, 0, c.HP, "a combatant downed mid-tick stays down")
	assert.Equal(t, StatusDefeated, c.Status)
	assert.Empty(t, l.Conditions(c.Slot), "defeat clears the whole condition set")
	assert.ElementsMatch(t, []string{"poison", "regen"}, res.Expired)
}

func TestLedgerDisabled(t *testing.T) {
	l, c := ledgerFixture(t)
	sleep := mustTemplate(t, &content.ConditionTemplate{
		ID: "sleep", Name: "Sleep", Kind: content.KindDisable,
		Duration: 1, Exclusive: true,
	})

	assert.False(t, l.Disabled(c.Slot))
	require.NoError(t, l.Apply(c, sleep))
	assert.True(t, l.Disabled(c.Slot))

	_, err := l.Tick(c)
	require.NoError(t, err)
	assert.False(t, l.Disabled(c.Slot))
}

type hookFunc func(source string, st HookState) (HookState, error)

func (f hookFunc) Eval(source string, st HookState) (HookState, error) { return f(source, st) }

func TestLedgerHooksAdjustInstances(t *testing.T) {
	halved := hookFunc(func(_ string, st HookState) (HookState, error) {
		st.Magnitude /= 2
		return st, nil
	})
	l := newLedger(halved, zap.NewNop(), func() int { return 1 })
	c := newPlayerCombatant(&party.Character{
		ID: "pc", Name: "pc", Class: party.ClassKnight, Level: 1,
		MaxHP: 20, HP: 20, ArmorClass: 12, Speed: 6, AttacksPerTurn: 1,
	}, 0)

	burn := mustTemplate(t, &content.ConditionTemplate{
		ID: "burn", Name: "Burn", Kind: content.KindDamageOverTime,
		Magnitude: 8, Duration: 2, OnApply: "return state",
	})
	require.NoError(t, l.Apply(c, burn))
	insts := l.Conditions(c.Slot)
	require.Len(t, insts, 1)
	assert.Equal(t, 4, insts[0].Magnitude, "on_apply hooks can rescale a condition")
}
