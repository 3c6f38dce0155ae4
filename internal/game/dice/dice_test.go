package dice_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/emberfall-rpg/emberfall/internal/game/dice"
)

func TestRollResult_Total(t *testing.T) {
	r := dice.RollResult{Expression: "2d6+3", Dice: []int{4, 5}, Modifier: 3}
	assert.Equal(t, 12, r.Total())
}

func TestRollResult_Total_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		faces := rapid.SliceOf(rapid.IntRange(1, 20)).Draw(rt, "dice")
		modifier := rapid.IntRange(-10, 10).Draw(rt, "modifier")
		r := dice.RollResult{Expression: "x", Dice: faces, Modifier: modifier}
		want := modifier
		for _, d := range faces {
			want += d
		}
		assert.Equal(rt, want, r.Total())
	})
}

func TestCryptoSource_Range(t *testing.T) {
	src := dice.NewCryptoSource()
	for i := 0; i < 100; i++ {
		v := src.Intn(10)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 10)
	}
}

func TestCryptoSource_PanicsOnNonPositive(t *testing.T) {
	src := dice.NewCryptoSource()
	assert.Panics(t, func() { src.Intn(0) })
}

func TestSequenceSource_Replays(t *testing.T) {
	src := dice.NewSequenceSource(5, 2, 7, 3)
	assert.Equal(t, 5, dice.RollDie(src, 10))
	assert.Equal(t, 2, dice.RollDie(src, 10))
	assert.Equal(t, 7, dice.RollDie(src, 10))
	assert.Equal(t, 3, dice.RollDie(src, 10))
	// Wraps around.
	assert.Equal(t, 5, dice.RollDie(src, 10))
}

func TestSequenceSource_ClampsToDieSize(t *testing.T) {
	src := dice.NewSequenceSource(9)
	assert.Equal(t, 6, dice.RollDie(src, 6))
}

func TestSequenceSource_Remaining(t *testing.T) {
	src := dice.NewSequenceSource(1, 2, 3)
	assert.Equal(t, 3, src.Remaining())
	src.Intn(6)
	assert.Equal(t, 2, src.Remaining())
}

func TestRoll_UsesEverySlot(t *testing.T) {
	src := dice.NewSequenceSource(3, 4)
	r := dice.Roll(dice.MustParse("2d6+1"), src)
	require.Equal(t, []int{3, 4}, r.Dice)
	assert.Equal(t, 8, r.Total())
}

func TestRollExpr_ParseError(t *testing.T) {
	_, err := dice.RollExpr("banana", dice.NewSequenceSource(1))
	assert.Error(t, err)
}

func TestRoller_LogsAndRolls(t *testing.T) {
	roller := dice.NewRoller(dice.NewSequenceSource(6), zap.NewNop())
	r, err := roller.RollExpr("1d8+2")
	require.NoError(t, err)
	assert.Equal(t, 8, r.Total())
}

func TestRoll_Property_TotalWithinBounds(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		count := rapid.IntRange(1, 8).Draw(rt, "count")
		sides := rapid.IntRange(2, 20).Draw(rt, "sides")
		src := dice.NewCryptoSource()
		r := dice.Roll(dice.Expression{Raw: "x", Count: count, Sides: sides}, src)
		assert.GreaterOrEqual(rt, r.Total(), count)
		assert.LessOrEqual(rt, r.Total(), count*sides)
	})
}
