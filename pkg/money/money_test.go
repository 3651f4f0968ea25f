package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRound2UsesBankersRounding(t *testing.T) {
	tests := map[string]string{
		"2.345": "2.34",
		"2.355": "2.36",
		"2.3":   "2.30",
		"10":    "10.00",
		"0.005": "0.00",
		"0.015": "0.02",
	}
	for in, want := range tests {
		assert.Equal(t, want, Format(Round2(MustParse(in))), "round2(%s)", in)
	}
}

func TestFormatAvoidsFloatDrift(t *testing.T) {
	sum := Sum(MustParse("0.1"), MustParse("0.2"))
	assert.Equal(t, "0.30", Format(sum))
	assert.True(t, sum.Equal(MustParse("0.3")))
}

func TestLineTotalRoundsUnitFirst(t *testing.T) {
	got := LineTotal(MustParse("3.333"), 3)
	assert.Equal(t, "9.99", Format(got))
}

func TestParse(t *testing.T) {
	d, err := Parse(" 12.50 ")
	require.NoError(t, err)
	assert.True(t, d.Equal(decimal.RequireFromString("12.5")))

	zero, err := Parse("")
	require.NoError(t, err)
	assert.True(t, zero.IsZero())

	_, err = Parse("twelve")
	assert.Error(t, err)
}

func TestDisplay(t *testing.T) {
	assert.Equal(t, "5.50 USD", Display(MustParse("5.5"), "USD"))
}
