package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/tilbot/pkg/adapters/file"
	"github.com/aretw0/tilbot/pkg/adapters/memory"
	"github.com/aretw0/tilbot/pkg/domain"
	"github.com/aretw0/tilbot/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTable(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestProvider_Contract(t *testing.T) {
	dir := t.TempDir()
	writeTable(t, dir, "colors.csv", "name,hex\nred,#ff0000\ngreen,#00ff00\nblue,#0000ff\n")

	p, err := file.Open(dir)
	require.NoError(t, err)
	tests.RunDataProviderContract(t, p)
}

func TestProvider_Parsing(t *testing.T) {
	dir := t.TempDir()
	writeTable(t, dir, "fruits.csv", "\ufeffname, color\napple, red|green\n\"pear, ripe\"\n")
	writeTable(t, dir, "empty.csv", "")
	writeTable(t, dir, "notes.txt", "ignored")

	p, err := file.Open(dir, file.WithMemoryOptions(memory.WithRand(func(int) int { return 0 })))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"fruits", "empty"}, p.Tables())

	row, err := p.RandomRow(context.Background(), "fruits")
	require.NoError(t, err)
	assert.Equal(t, domain.Row{"name": "apple", "color": "red|green"}, row)

	ok, err := p.RowMatches(context.Background(), "fruits", "name", "PEAR, RIPE")
	require.NoError(t, err)
	assert.True(t, ok, "short records are padded and quoted fields kept")

	row, err = p.RandomRow(context.Background(), "empty")
	assert.NoError(t, err)
	assert.Nil(t, row)
}

func TestProvider_Reload(t *testing.T) {
	dir := t.TempDir()
	writeTable(t, dir, "colors.csv", "name\nred\n")

	p, err := file.Open(dir)
	require.NoError(t, err)

	writeTable(t, dir, "colors.csv", "name\nteal\n")
	require.NoError(t, p.Reload())

	ok, err := p.RowMatches(context.Background(), "colors", "name", "teal")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOpen_Errors(t *testing.T) {
	_, err := file.Open(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	dir := t.TempDir()
	writeTable(t, dir, "bad.csv", "name\n\"unterminated\n")
	_, err = file.Open(dir)
	assert.Error(t, err)
}
