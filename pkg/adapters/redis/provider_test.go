package redis_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/tilbot/pkg/adapters/redis"
	"github.com/aretw0/tilbot/pkg/domain"
	"github.com/aretw0/tilbot/pkg/ports/tests"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, opts ...redis.Option) (*redis.Provider, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	p := redis.NewFromClient(client, opts...)
	t.Cleanup(func() { _ = p.Close() })
	return p, mr
}

func TestRedisProvider_Contract(t *testing.T) {
	p, _ := setup(t)
	require.NoError(t, p.Import(context.Background(), tests.FixtureTable, tests.FixtureRows()))
	tests.RunDataProviderContract(t, p)
}

func TestRedisProvider_Prefix(t *testing.T) {
	p, mr := setup(t, redis.WithPrefix("custom:app:"))
	ctx := context.Background()

	require.NoError(t, p.Import(ctx, "fruits", []domain.Row{{"name": "Apple"}}))

	assert.True(t, mr.Exists("custom:app:tables"), "Expected table registry with custom prefix")
	assert.True(t, mr.Exists("custom:app:table:fruits"))
	assert.True(t, mr.Exists("custom:app:index:fruits:name"))

	members, err := mr.SMembers("custom:app:index:fruits:name")
	require.NoError(t, err)
	assert.Equal(t, []string{"apple"}, members)
}

func TestRedisProvider_ImportReplaces(t *testing.T) {
	p, mr := setup(t, redis.WithRand(func(int) int { return 0 }))
	ctx := context.Background()

	require.NoError(t, p.Import(ctx, "t", []domain.Row{{"old": "x"}}))
	require.NoError(t, p.Import(ctx, "t", []domain.Row{{"name": "new"}}))

	assert.False(t, mr.Exists("tilbot:data:index:t:old"), "stale column index must be dropped")

	row, err := p.RandomRow(ctx, "t")
	require.NoError(t, err)
	assert.Equal(t, domain.Row{"name": "new"}, row)

	ok, err := p.RowMatches(ctx, "t", "old", "x")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisProvider_EmptyTable(t *testing.T) {
	p, _ := setup(t)
	ctx := context.Background()

	require.NoError(t, p.Import(ctx, "empty", nil))

	row, err := p.RandomRow(ctx, "empty")
	assert.NoError(t, err)
	assert.Nil(t, row)

	_, err = p.RandomRow(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrTableNotFound)
}

func TestRedisProvider_ConnectionError(t *testing.T) {
	p, mr := setup(t)
	mr.Close()

	_, err := p.RowMatches(context.Background(), "colors", "name", "red")
	assert.Error(t, err)
}
