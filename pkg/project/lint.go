package project

import (
	"fmt"

	"github.com/aretw0/tilbot/pkg/domain"
)

// Warning is a problem that does not stop a project from loading
// but is likely to stall or fail a conversation.
type Warning struct {
	Where   string
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Where, w.Message)
}

// Lint reports suspicious constructs in a valid project.
func Lint(p *domain.Project) []Warning {
	if p == nil {
		return nil
	}
	var out []Warning
	lintGraph(&p.Graph, "", true, &out)
	return out
}

func lintGraph(g *domain.Graph, where string, root bool, out *[]Warning) {
	reached := reachable(g)

	g.Each(func(b *domain.Block) bool {
		at := join(where, "blocks", string(b.ID))

		if _, ok := reached[b.ID]; !ok && b.Type != domain.BlockTrigger {
			*out = append(*out, Warning{Where: at, Message: "block is unreachable from the starting block"})
		}

		elses := 0
		for i, c := range b.Connectors {
			cat := fmt.Sprintf("%s/connectors/%d", at, i)
			if c.IsElse() {
				elses++
				if elses == 2 {
					*out = append(*out, Warning{Where: cat, Message: "more than one [else] connector; only the first is used"})
				}
				if b.Type == domain.BlockMC {
					*out = append(*out, Warning{Where: cat, Message: "[else] is never used by MC blocks"})
				}
			}

			target, ok := c.Target()
			switch {
			case !ok:
				*out = append(*out, Warning{Where: cat, Message: "connector has no target and is never followed"})
			case target == domain.ExitSentinel:
				if root {
					*out = append(*out, Warning{Where: cat, Message: "exit target at project root is ignored"})
				}
			default:
				if _, found := g.Block(target); !found {
					*out = append(*out, Warning{Where: cat, Message: fmt.Sprintf("target %q does not exist", target)})
				}
			}
			if len(c.Targets) > 1 {
				*out = append(*out, Warning{Where: cat, Message: "only the first of multiple targets is followed"})
			}
		}

		if b.IsGroup() && b.Body != nil {
			lintGroupExits(b, at, out)
			lintGraph(b.Body, at, false, out)
		}
		return true
	})
}

// lintGroupExits flags inner exits that no boundary connector of the group picks up.
func lintGroupExits(group *domain.Block, where string, out *[]Warning) {
	handled := make(map[domain.BlockID]bool)
	for _, c := range group.Connectors {
		if c.FromID != "" {
			handled[c.FromID] = true
		}
	}
	group.Body.Each(func(b *domain.Block) bool {
		for _, c := range b.Connectors {
			if t, ok := c.Target(); ok && t == domain.ExitSentinel && !handled[b.ID] {
				*out = append(*out, Warning{
					Where:   join(where, "blocks", string(b.ID)),
					Message: fmt.Sprintf("exits group %q but no group connector has from_id %q", group.ID, b.ID),
				})
				return true
			}
		}
		return true
	})
}

func reachable(g *domain.Graph) map[domain.BlockID]struct{} {
	seen := make(map[domain.BlockID]struct{})
	queue := []domain.BlockID{g.StartingBlockID}

	// Triggers are entry points of their own.
	g.Each(func(b *domain.Block) bool {
		if b.Type == domain.BlockTrigger {
			queue = append(queue, b.ID)
		}
		return true
	})

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if _, ok := seen[id]; ok {
			continue
		}
		b, ok := g.Block(id)
		if !ok {
			continue
		}
		seen[id] = struct{}{}
		for _, c := range b.Connectors {
			if t, ok := c.Target(); ok {
				queue = append(queue, t)
			}
		}
	}
	return seen
}
