package dice_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/emberfall-rpg/emberfall/internal/game/dice"
)

func TestParse_Valid(t *testing.T) {
	tests := []struct {
		expr string
		want dice.Expression
	}{
		{"d20", dice.Expression{Raw: "d20", Count: 1, Sides: 20}},
		{"2d6", dice.Expression{Raw: "2d6", Count: 2, Sides: 6}},
		{"2d6+3", dice.Expression{Raw: "2d6+3", Count: 2, Sides: 6, Modifier: 3}},
		{"4d8-2", dice.Expression{Raw: "4d8-2", Count: 4, Sides: 8, Modifier: -2}},
		{"1D10", dice.Expression{Raw: "1D10", Count: 1, Sides: 10}},
	}
	for _, tc := range tests {
		got, err := dice.Parse(tc.expr)
		require.NoError(t, err, "expr=%q", tc.expr)
		assert.Equal(t, tc.want, got, "expr=%q", tc.expr)
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, expr := range []string{"", "20", "0d6", "-1d6", "2d1", "2dx", "2d6+x"} {
		_, err := dice.Parse(expr)
		assert.Error(t, err, "expr=%q should fail", expr)
	}
}

func TestMustParse_PanicsOnInvalid(t *testing.T) {
	assert.Panics(t, func() { dice.MustParse("nope") })
}

func TestParse_Property_RoundTripsCanonicalForms(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		count := rapid.IntRange(1, 20).Draw(rt, "count")
		sides := rapid.IntRange(2, 100).Draw(rt, "sides")
		mod := rapid.IntRange(-20, 20).Draw(rt, "mod")

		s := fmt.Sprintf("%dd%d", count, sides)
		if mod > 0 {
			s += fmt.Sprintf("+%d", mod)
		} else if mod < 0 {
			s += fmt.Sprintf("%d", mod)
		}

		got, err := dice.Parse(s)
		require.NoError(rt, err)
		assert.Equal(rt, count, got.Count)
		assert.Equal(rt, sides, got.Sides)
		assert.Equal(rt, mod, got.Modifier)
	})
}
