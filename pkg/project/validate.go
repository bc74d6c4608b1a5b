package project

import (
	"errors"
	"fmt"

	"github.com/aretw0/tilbot/pkg/domain"
)

// Validate checks the structure a session relies on before it starts:
// starting ids that resolve, known block types and well formed groups.
// Dangling connector targets are not errors here; they fail at runtime
// and are reported by Lint.
func Validate(p *domain.Project) error {
	if p == nil {
		return errors.New("project is nil")
	}

	var errs []error
	validateGraph(&p.Graph, "", 0, &errs)

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

func validateGraph(g *domain.Graph, where string, depth int, errs *[]error) {
	if depth > MaxDepth {
		*errs = append(*errs, &ValidationError{Where: where, Reason: fmt.Sprintf("groups nested deeper than %d levels", MaxDepth)})
		return
	}

	switch {
	case g.StartingBlockID == "":
		*errs = append(*errs, &ValidationError{Where: join(where, "starting_block_id"), Reason: "required"})
	case g.StartingBlockID == domain.ExitSentinel:
		*errs = append(*errs, &ValidationError{Where: join(where, "starting_block_id"), Reason: "cannot be the exit sentinel"})
	default:
		start, ok := g.Block(g.StartingBlockID)
		if !ok {
			*errs = append(*errs, &ValidationError{
				Where:  join(where, "starting_block_id"),
				Reason: fmt.Sprintf("block %q not found", g.StartingBlockID),
			})
		} else if start.Type == domain.BlockTrigger {
			*errs = append(*errs, &ValidationError{
				Where:  join(where, "starting_block_id"),
				Reason: "a Trigger block cannot start a graph",
			})
		}
	}

	g.Each(func(b *domain.Block) bool {
		at := join(where, "blocks", string(b.ID))
		if b.ID == domain.ExitSentinel {
			*errs = append(*errs, &ValidationError{Where: at, Reason: "block id is reserved for group exit"})
		}
		if !b.Type.Valid() {
			*errs = append(*errs, &ValidationError{Where: join(at, "type"), Reason: fmt.Sprintf("unknown block type %q", b.Type)})
			return true
		}
		if b.IsGroup() {
			if b.Body == nil || len(b.Body.Blocks) == 0 {
				*errs = append(*errs, &ValidationError{Where: join(at, "blocks"), Reason: "group has no blocks"})
				return true
			}
			validateGraph(b.Body, at, depth+1, errs)
		}
		return true
	})
}
