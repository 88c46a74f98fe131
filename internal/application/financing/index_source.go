package financing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// IndexValue is one period's value of a monetary correction index
type IndexValue struct {
	Code          string          // index code, e.g. "IPCA", "IGPM"
	Value         decimal.Decimal // fractional rate, 0.005 means 0.5%
	ReferenceDate time.Time
}

// IndexSource supplies correction index values. Fetching the value from its
// actual publisher is outside this service; implementations only hand back
// values that were previously stored.
type IndexSource interface {
	// Latest returns the most recent value for an index code, or nil when
	// no value is available
	Latest(ctx context.Context, code string) (*IndexValue, error)

	// Store records an externally supplied index value
	Store(ctx context.Context, value IndexValue) error
}
