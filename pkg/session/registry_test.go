package session_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/tilbot/internal/runtime"
	"github.com/aretw0/tilbot/pkg/domain"
	"github.com/aretw0/tilbot/pkg/dsl"
	"github.com/aretw0/tilbot/pkg/ports"
	"github.com/aretw0/tilbot/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func starter(t *testing.T) session.StartFunc {
	t.Helper()
	project := dsl.New("1")
	project.Add("1").Text("hi").On("x", "1")
	built := project.MustBuild()

	discard := ports.DelivererFunc(func(context.Context, string, domain.Message) error { return nil })
	return func(id string) (*runtime.Session, error) {
		return runtime.Start(id, built, discard, runtime.WithSettleDelay(0))
	}
}

func TestRegistry_StartGetClose(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := session.NewRegistry()
	s, err := r.Start("a", starter(t))
	require.NoError(t, err)
	assert.Equal(t, "a", s.ID())

	got, err := r.Get("a")
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, err = r.Start("a", starter(t))
	assert.ErrorIs(t, err, session.ErrSessionExists)

	require.NoError(t, r.Close("a"))
	_, err = r.Get("a")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.ErrorIs(t, r.Close("a"), domain.ErrSessionNotFound)

	require.NoError(t, r.Shutdown(context.Background()))
}

func TestRegistry_ForgetsStoppedSessions(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := session.NewRegistry()
	s, err := r.Start("a", starter(t))
	require.NoError(t, err)

	require.NoError(t, s.Close())
	assert.Eventually(t, func() bool { return r.Len() == 0 }, time.Second, 5*time.Millisecond)

	// The ID is free again.
	_, err = r.Start("a", starter(t))
	require.NoError(t, err)
	require.NoError(t, r.Shutdown(context.Background()))
}

func TestRegistry_StartError(t *testing.T) {
	r := session.NewRegistry()
	boom := errors.New("boom")
	_, err := r.Start("a", func(string) (*runtime.Session, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_Limit(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := session.NewRegistry(session.WithLimit(1))
	_, err := r.Start("a", starter(t))
	require.NoError(t, err)
	_, err = r.Start("b", starter(t))
	assert.ErrorIs(t, err, session.ErrRegistryFull)

	require.NoError(t, r.Shutdown(context.Background()))
}

func TestRegistry_ConcurrentStartSameID(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := session.NewRegistry()
	start := starter(t)
	var created atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Start("race", start); err == nil {
				created.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), created.Load(), "exactly one Start must win")
	require.NoError(t, r.Shutdown(context.Background()))
}

func TestRegistry_ListAndShutdown(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := session.NewRegistry()
	for i := 3; i > 0; i-- {
		_, err := r.Start(fmt.Sprintf("s%d", i), starter(t))
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"s1", "s2", "s3"}, r.List())

	require.NoError(t, r.Shutdown(context.Background()))
	assert.Empty(t, r.List())
}
