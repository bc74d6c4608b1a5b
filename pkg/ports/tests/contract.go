package tests

import (
	"context"
	"testing"

	"github.com/aretw0/tilbot/pkg/domain"
	"github.com/aretw0/tilbot/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// FixtureTable is the table every provider under contract must be seeded with.
const FixtureTable = "colors"

// FixtureRows returns the rows of FixtureTable.
func FixtureRows() []domain.Row {
	return []domain.Row{
		{"name": "red", "hex": "#ff0000"},
		{"name": "green", "hex": "#00ff00"},
		{"name": "blue", "hex": "#0000ff"},
	}
}

// RunDataProviderContract is a reusable test suite that verifies if an adapter complies with ports.DataProvider.
// The provider must be seeded with FixtureRows under FixtureTable.
func RunDataProviderContract(t *testing.T, provider ports.DataProvider) {
	t.Helper()
	ctx := context.Background()

	t.Run("RandomRow_ReturnsFixtureRow", func(t *testing.T) {
		for i := 0; i < 10; i++ {
			row, err := provider.RandomRow(ctx, FixtureTable)
			require.NoError(t, err)
			require.NotNil(t, row)
			assert.Contains(t, []string{"red", "green", "blue"}, row["name"])
			assert.NotEmpty(t, row["hex"])
		}
	})

	t.Run("RandomRow_UnknownTable", func(t *testing.T) {
		row, err := provider.RandomRow(ctx, "does-not-exist")
		if err == nil {
			assert.Nil(t, row, "unknown table must not yield a row")
			return
		}
		assert.ErrorIs(t, err, domain.ErrTableNotFound)
	})

	t.Run("RowMatches_Found", func(t *testing.T) {
		ok, err := provider.RowMatches(ctx, FixtureTable, "name", "green")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("RowMatches_CaseInsensitive", func(t *testing.T) {
		ok, err := provider.RowMatches(ctx, FixtureTable, "name", "BLUE")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("RowMatches_NotFound", func(t *testing.T) {
		ok, err := provider.RowMatches(ctx, FixtureTable, "name", "purple")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("RowMatches_NoSubstring", func(t *testing.T) {
		ok, err := provider.RowMatches(ctx, FixtureTable, "name", "re")
		require.NoError(t, err)
		assert.False(t, ok, "matching is equality, not containment")
	})

	t.Run("RowMatches_UnknownColumn", func(t *testing.T) {
		for _, value := range []string{"red", "weight"} {
			ok, err := provider.RowMatches(ctx, FixtureTable, "weight", value)
			if err == nil {
				assert.False(t, ok, "unknown column must not match %q", value)
			}
		}
	})

	t.Run("Canceled_Context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := provider.RowMatches(cctx, FixtureTable, "name", "red")
		assert.Error(t, err, "a canceled query must fail rather than report a result")
	})
}
