package runtime

import (
	"strings"

	"github.com/aretw0/tilbot/pkg/domain"
)

// inputPlaceholder is replaced by a captured string value.
const inputPlaceholder = "[input]"

// Render fills the first placeholder of content.
//   - input is a row: the placeholder names a column of it.
//   - input is a non-empty string: the literal [input] token is replaced.
//   - otherwise a [table.column] placeholder reads a row bound in vars.
//
// Unresolved placeholders are left as they are.
func Render(content string, input any, vars *Variables) string {
	loc := tagPattern.FindStringSubmatchIndex(content)
	if loc == nil {
		return content
	}
	name := content[loc[2]:loc[3]]

	switch v := input.(type) {
	case domain.Row:
		if val, ok := v.Column(name); ok {
			return content[:loc[0]] + val + content[loc[1]:]
		}
		return content
	case string:
		if v != "" {
			return strings.Replace(content, inputPlaceholder, v, 1)
		}
	}

	parts := strings.Split(name, ".")
	if len(parts) != 2 || vars == nil {
		return content
	}
	row, ok := vars.Row(parts[0])
	if !ok {
		return content
	}
	val, ok := row.Column(parts[1])
	if !ok {
		return content
	}
	return content[:loc[0]] + val + content[loc[1]:]
}

// BuildMessage assembles the outbound message of a block.
func BuildMessage(block *domain.Block, content string) domain.Message {
	msg := domain.Message{Type: block.Type, Content: content}

	switch block.Type {
	case domain.BlockMC:
		options := make([]string, 0, len(block.Connectors))
		for _, c := range block.Connectors {
			options = append(options, c.Label)
		}
		msg.Params.Options = options
	case domain.BlockList:
		textInput, numberInput := block.TextInput, block.NumberInput
		msg.Params.Options = block.Items
		msg.Params.TextInput = &textInput
		msg.Params.NumberInput = &numberInput
	case domain.BlockAutoComplete:
		msg.Params.Options = block.Options
	}
	return msg
}
