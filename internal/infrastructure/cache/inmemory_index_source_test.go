package cache

import (
	"context"
	"testing"
	"time"

	appfinancing "github.com/loanbook/backend/internal/application/financing"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryIndexSource_Latest(t *testing.T) {
	t.Run("returns nil when nothing stored", func(t *testing.T) {
		source := NewInMemoryIndexSource()

		value, err := source.Latest(context.Background(), "IPCA")

		assert.NoError(t, err)
		assert.Nil(t, value)
	})

	t.Run("returns stored value", func(t *testing.T) {
		source := NewInMemoryIndexSource()
		stored := appfinancing.IndexValue{
			Code:          "IPCA",
			Value:         decimal.NewFromFloat(0.005),
			ReferenceDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		}
		require.NoError(t, source.Store(context.Background(), stored))

		value, err := source.Latest(context.Background(), "IPCA")

		require.NoError(t, err)
		require.NotNil(t, value)
		assert.Equal(t, "IPCA", value.Code)
		assert.True(t, value.Value.Equal(decimal.NewFromFloat(0.005)))
		assert.Equal(t, stored.ReferenceDate, value.ReferenceDate)
	})

	t.Run("codes are isolated", func(t *testing.T) {
		source := NewInMemoryIndexSource()
		require.NoError(t, source.Store(context.Background(), appfinancing.IndexValue{
			Code:          "IPCA",
			Value:         decimal.NewFromFloat(0.004),
			ReferenceDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		}))

		value, err := source.Latest(context.Background(), "IGPM")

		assert.NoError(t, err)
		assert.Nil(t, value)
	})
}

func TestInMemoryIndexSource_Store(t *testing.T) {
	t.Run("replaces earlier value for the same code", func(t *testing.T) {
		source := NewInMemoryIndexSource()
		ctx := context.Background()

		require.NoError(t, source.Store(ctx, appfinancing.IndexValue{
			Code:          "IPCA",
			Value:         decimal.NewFromFloat(0.004),
			ReferenceDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		}))
		require.NoError(t, source.Store(ctx, appfinancing.IndexValue{
			Code:          "IPCA",
			Value:         decimal.NewFromFloat(0.006),
			ReferenceDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		}))

		value, err := source.Latest(ctx, "IPCA")

		require.NoError(t, err)
		require.NotNil(t, value)
		assert.True(t, value.Value.Equal(decimal.NewFromFloat(0.006)))
	})

	t.Run("returned value is a copy", func(t *testing.T) {
		source := NewInMemoryIndexSource()
		ctx := context.Background()

		require.NoError(t, source.Store(ctx, appfinancing.IndexValue{
			Code:          "IPCA",
			Value:         decimal.NewFromFloat(0.005),
			ReferenceDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		}))

		first, err := source.Latest(ctx, "IPCA")
		require.NoError(t, err)
		first.Value = decimal.NewFromFloat(9.99)

		second, err := source.Latest(ctx, "IPCA")
		require.NoError(t, err)
		assert.True(t, second.Value.Equal(decimal.NewFromFloat(0.005)))
	})
}
