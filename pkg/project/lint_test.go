package project

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLint(t *testing.T) {
	doc := `{
  "starting_block_id": 1,
  "blocks": {
    "1": {"type": "MC", "connectors": [
      {"label": "go", "targets": [2]},
      {"label": "ghost", "targets": [42]},
      {"label": "[else]", "targets": [2]},
      {"label": "none", "targets": []}
    ]},
    "2": {"type": "Group", "starting_block_id": "a", "blocks": {
      "a": {"type": "Text", "connectors": [{"label": "[else]", "targets": [-1]}]}
    }, "connectors": []},
    "orphan": {"type": "Text", "connectors": [{"label": "x", "targets": [-1, 1]}]},
    "t": {"type": "Trigger", "connectors": [{"label": "help", "targets": [1]}]}
  }
}`
	warnings := Lint(mustParse(t, doc))

	var got []string
	for _, w := range warnings {
		got = append(got, w.String())
	}
	joined := strings.Join(got, "\n")

	assert.Contains(t, joined, `blocks/1/connectors/1: target "42" does not exist`)
	assert.Contains(t, joined, "blocks/1/connectors/2: [else] is never used by MC blocks")
	assert.Contains(t, joined, "blocks/1/connectors/3: connector has no target")
	assert.Contains(t, joined, `blocks/2/blocks/a: exits group "2" but no group connector has from_id "a"`)
	assert.Contains(t, joined, "blocks/orphan: block is unreachable")
	assert.Contains(t, joined, "blocks/orphan/connectors/0: exit target at project root is ignored")
	assert.Contains(t, joined, "blocks/orphan/connectors/0: only the first of multiple targets is followed")
	assert.NotContains(t, joined, "blocks/t: block is unreachable")
}

func TestLint_Clean(t *testing.T) {
	doc := `{"starting_block_id": 1, "blocks": {
  "1": {"type": "Text", "connectors": [{"label": "[else]", "targets": [2]}]},
  "2": {"type": "Text", "connectors": []}
}}`
	assert.Empty(t, Lint(mustParse(t, doc)))
	assert.Nil(t, Lint(nil))
}
