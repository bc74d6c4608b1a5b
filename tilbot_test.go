package tilbot_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/tilbot"
	"github.com/aretw0/tilbot/internal/logging"
	"github.com/aretw0/tilbot/pkg/domain"
	"github.com/aretw0/tilbot/pkg/dsl"
	"github.com/aretw0/tilbot/pkg/ports"
	"github.com/aretw0/tilbot/pkg/project"
	"github.com/aretw0/tilbot/pkg/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const projectJSON = `{
  "name": "yes-no",
  "starting_block_id": 1,
  "blocks": {
    "1": {"type": "MC", "content": "Continue?", "connectors": [
      {"label": "Yes", "targets": [2]},
      {"label": "No", "targets": [3]}
    ]},
    "2": {"type": "Text", "content": "Great", "connectors": []},
    "3": {"type": "Text", "content": "Bye", "connectors": []}
  }
}`

func discard() ports.Deliverer {
	return ports.DelivererFunc(func(context.Context, string, domain.Message) error { return nil })
}

func TestNew_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := tilbot.New(ctx, nil)
	assert.Error(t, err)

	boom := errors.New("boom")
	_, err = tilbot.New(ctx, ports.ProjectLoaderFunc(func(context.Context) (*domain.Project, error) {
		return nil, boom
	}))
	assert.ErrorIs(t, err, boom)

	_, err = tilbot.New(ctx, ports.StaticLoader(&domain.Project{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid project")
	assert.NotEmpty(t, project.ValidationErrors(err))
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "project.json")
	require.NoError(t, os.WriteFile(path, []byte(projectJSON), 0o644))

	engine, err := tilbot.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "yes-no", engine.Project().Name)
	assert.Equal(t, domain.BlockID("1"), engine.Project().StartingBlockID)
}

func TestNew_LogsLintWarnings(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWriter(&buf, slog.LevelDebug, "text")

	b := dsl.New("1")
	b.Add("1").Text("hi")
	b.Add("orphan").Text("nobody comes here")
	loader, err := b.Loader()
	require.NoError(t, err)

	_, err = tilbot.New(context.Background(), loader, tilbot.WithLogger(logger))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "project lint")
	assert.Contains(t, buf.String(), "orphan")
}

func TestEngine_Hooks(t *testing.T) {
	b := dsl.New("1")
	b.Add("1").Auto("step").Then("2")
	b.Add("2").Text("done")
	loader, err := b.Loader()
	require.NoError(t, err)

	var engineEmits, sessionEmits atomic.Int32
	engine, err := tilbot.New(context.Background(), loader,
		tilbot.WithSettleDelay(time.Millisecond),
		tilbot.WithLifecycleHooks(domain.LifecycleHooks{
			OnEmit: func(context.Context, *domain.EmitEvent) { engineEmits.Add(1) },
		}),
	)
	require.NoError(t, err)

	s, err := engine.Start("s1", discard(), tilbot.WithSessionHooks(domain.LifecycleHooks{
		OnEmit: func(context.Context, *domain.EmitEvent) { sessionEmits.Add(1) },
	}))
	require.NoError(t, err)
	defer s.Close()

	assert.Eventually(t, func() bool {
		return engineEmits.Load() == 2 && sessionEmits.Load() == 2
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, domain.StatusTerminal, s.State().Status)
}

func TestEngine_SessionsAreIndependent(t *testing.T) {
	engine, err := tilbot.New(context.Background(), ports.StaticLoader(mustParse(t)))
	require.NoError(t, err)

	a, err := engine.Start("a", discard())
	require.NoError(t, err)
	defer a.Close()
	b, err := engine.Start("b", discard())
	require.NoError(t, err)
	defer b.Close()

	ctx := context.Background()
	out, err := a.Receive(ctx, "Yes")
	require.NoError(t, err)
	assert.True(t, out.Matched)

	assert.Eventually(t, func() bool { return a.State().CurrentBlockID == "2" }, time.Second, 5*time.Millisecond)
	assert.Equal(t, domain.BlockID("1"), b.State().CurrentBlockID)
}

func TestEngine_RunLocal(t *testing.T) {
	engine, err := tilbot.New(context.Background(), ports.StaticLoader(mustParse(t)))
	require.NoError(t, err)

	var out safeBuffer
	r := runner.NewRunner(runner.WithIO(strings.NewReader("No\n"), &out))

	done := make(chan error, 1)
	go func() { done <- engine.RunLocal(context.Background(), "local", r) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("RunLocal did not return")
	}
	assert.Contains(t, out.String(), "Continue?")
	assert.Contains(t, out.String(), "Bye")
}

func mustParse(t *testing.T) *domain.Project {
	t.Helper()
	p, err := project.Parse([]byte(projectJSON))
	require.NoError(t, err)
	return p
}

type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
