package valueobject

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Rate is a value object representing a periodic rate expressed as a
// decimal fraction (0.01 = 1% per period). It is used both for interest
// rates and for monetary correction index variations.
type Rate struct {
	value decimal.Decimal
}

// NewRate creates a Rate from a decimal fraction
func NewRate(value decimal.Decimal) Rate {
	return Rate{value: value}
}

// NewRateFromFloat creates a Rate from a float64 fraction
func NewRateFromFloat(value float64) Rate {
	return Rate{value: decimal.NewFromFloat(value)}
}

// NewRateFromString creates a Rate from a string fraction
func NewRateFromString(value string) (Rate, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return Rate{}, fmt.Errorf("invalid rate string: %w", err)
	}
	return Rate{value: d}, nil
}

// NewRateFromPercent creates a Rate from a percentage value (1.0 = 1%)
func NewRateFromPercent(percent decimal.Decimal) Rate {
	return Rate{value: percent.Div(decimal.NewFromInt(100))}
}

// Value returns the underlying decimal fraction
func (r Rate) Value() decimal.Decimal {
	return r.value
}

// Percent returns the rate as a percentage value (0.01 -> 1.0)
func (r Rate) Percent() decimal.Decimal {
	return r.value.Mul(decimal.NewFromInt(100))
}

// IsZero returns true if the rate is zero
func (r Rate) IsZero() bool {
	return r.value.IsZero()
}

// IsNegative returns true if the rate is negative
func (r Rate) IsNegative() bool {
	return r.value.IsNegative()
}

// Factor returns the growth factor (1 + r) for one period
func (r Rate) Factor() decimal.Decimal {
	return decimal.NewFromInt(1).Add(r.value)
}

// ApplyTo returns amount multiplied by this rate
func (r Rate) ApplyTo(m Money) Money {
	return m.Multiply(r.value)
}

// Grow returns amount multiplied by (1 + r)
func (r Rate) Grow(m Money) Money {
	return m.Multiply(r.Factor())
}

// String returns the rate as a percentage string
func (r Rate) String() string {
	return r.Percent().StringFixed(4) + "%"
}
