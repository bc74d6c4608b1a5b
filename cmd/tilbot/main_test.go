package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const greetProject = `
name: greet
starting_block_id: 1
blocks:
  1:
    type: MC
    content: Hello?
    connectors:
      - label: Hi
        targets: [2]
  2:
    type: Text
    content: Welcome aboard
    connectors: []
`

func execute(t *testing.T, in string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(in))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeProject(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "project.yaml")
	require.NoError(t, os.WriteFile(path, []byte(greetProject), 0o644))
	return path
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "tilbot version dev")
}

func TestValidate(t *testing.T) {
	out, err := execute(t, "", "validate", writeProject(t))
	require.NoError(t, err)
	assert.Contains(t, out, "Project is valid!")

	_, err = execute(t, "", "validate", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "validation failed")
}

func TestGraph(t *testing.T) {
	out, err := execute(t, "", "graph", writeProject(t))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "graph TD"))
}

func TestRun(t *testing.T) {
	t.Setenv("TILBOT_SETTLE_DELAY", "0s")
	out, err := execute(t, "Hi\n", "run", writeProject(t))
	require.NoError(t, err)
	assert.Contains(t, out, "Hello?")
	assert.Contains(t, out, "Welcome aboard")
}

func TestUnknownDriver(t *testing.T) {
	_, err := execute(t, "", "graph", "--data", "postgres", writeProject(t))
	assert.ErrorContains(t, err, "unknown driver")
}
