package valueobject

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRate(t *testing.T) {
	t.Run("from decimal", func(t *testing.T) {
		r := NewRate(decimal.NewFromFloat(0.01))
		assert.Equal(t, "1.0000%", r.String())
	})

	t.Run("from percent", func(t *testing.T) {
		r := NewRateFromPercent(decimal.NewFromFloat(1.5))
		assert.True(t, r.Value().Equal(decimal.NewFromFloat(0.015)))
	})

	t.Run("from string", func(t *testing.T) {
		r, err := NewRateFromString("0.02")
		require.NoError(t, err)
		assert.True(t, r.Value().Equal(decimal.NewFromFloat(0.02)))
	})

	t.Run("from invalid string", func(t *testing.T) {
		_, err := NewRateFromString("x")
		assert.Error(t, err)
	})
}

func TestRate_Factor(t *testing.T) {
	r := NewRateFromFloat(0.01)
	assert.True(t, r.Factor().Equal(decimal.NewFromFloat(1.01)))
}

func TestRate_ApplyTo(t *testing.T) {
	r := NewRateFromFloat(0.01)
	m := NewMoneyBRLFromFloat(12000)

	interest := r.ApplyTo(m)
	assert.Equal(t, "120.00", interest.StringFixed(2))
}

func TestRate_Grow(t *testing.T) {
	r := NewRateFromFloat(0.05)
	m := NewMoneyBRLFromFloat(1000)

	grown := r.Grow(m)
	assert.Equal(t, "1050.00", grown.StringFixed(2))
}

func TestRate_Predicates(t *testing.T) {
	assert.True(t, NewRateFromFloat(0).IsZero())
	assert.True(t, NewRateFromFloat(-0.01).IsNegative())
}
