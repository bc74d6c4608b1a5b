package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/tilbot/pkg/domain"
)

// maxLabel bounds how much block content is shown inside a node.
const maxLabel = 40

// GraphOverlay marks the block a session currently sits on.
type GraphOverlay struct {
	Path    []domain.BlockID
	Current domain.BlockID
}

// GenerateMermaid produces a Mermaid flowchart of a project.
// Groups become subgraphs. Shapes follow the block type:
//   - Starting block: ((Circle))
//   - MC: {Rhombus}
//   - Text, List, AutoComplete: [/Parallelogram/]
//   - Auto: [[Subroutine]]
//   - Trigger: >Flag]
//
// Trigger edges are dotted. An exit from inside a group is drawn straight to
// the target of the group's matching boundary connector.
func GenerateMermaid(p *domain.Project, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	if p == nil {
		return sb.String()
	}

	var edges []string
	writeGraph(&sb, &edges, &p.Graph, nil, nil, "    ")

	for _, e := range edges {
		sb.WriteString(e)
	}

	if overlay != nil && overlay.Current != "" {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		fmt.Fprintf(&sb, "    class %s current;\n", nodeID(overlay.Path, overlay.Current))
	}
	return sb.String()
}

// writeGraph writes the nodes of g and collects its edges. parent is the group
// block owning g, nil at the root.
func writeGraph(sb *strings.Builder, edges *[]string, g *domain.Graph, path []domain.BlockID, parent *domain.Block, indent string) {
	g.Each(func(b *domain.Block) bool {
		id := nodeID(path, b.ID)
		label := nodeLabel(b)

		if b.IsGroup() {
			fmt.Fprintf(sb, "%ssubgraph %s[\"%s\"]\n", indent, id, label)
			inner := append(append([]domain.BlockID{}, path...), b.ID)
			writeGraph(sb, edges, b.Body, inner, b, indent+"    ")
			fmt.Fprintf(sb, "%send\n", indent)
		} else {
			opener, closer := shape(b, b.ID == g.StartingBlockID)
			fmt.Fprintf(sb, "%s%s%s\"%s\"%s\n", indent, id, opener, label, closer)
		}

		for _, c := range b.Connectors {
			if b.IsGroup() && c.FromID != "" {
				// Drawn from the inner block that exits.
				continue
			}
			to, ok := c.Target()
			if !ok {
				continue
			}
			from := id
			toPath := path
			if to == domain.ExitSentinel {
				if parent == nil {
					continue
				}
				boundary := boundaryTarget(parent, b.ID)
				if boundary == "" {
					continue
				}
				to = boundary
				toPath = path[:len(path)-1]
			}
			*edges = append(*edges, edge(from, nodeID(toPath, to), c.Label, b.Type == domain.BlockTrigger))
		}
		return true
	})
}

func boundaryTarget(group *domain.Block, from domain.BlockID) domain.BlockID {
	for _, c := range group.Connectors {
		if c.FromID != from {
			continue
		}
		if to, ok := c.Target(); ok && to != domain.ExitSentinel {
			return to
		}
	}
	return ""
}

func shape(b *domain.Block, start bool) (string, string) {
	switch {
	case start:
		return "((", "))"
	case b.Type == domain.BlockMC:
		return "{", "}"
	case b.Type == domain.BlockAuto:
		return "[[", "]]"
	case b.Type == domain.BlockTrigger:
		return ">", "]"
	case b.Type == domain.BlockText, b.Type == domain.BlockList, b.Type == domain.BlockAutoComplete:
		return "[/", "/]"
	}
	return "[", "]"
}

func edge(from, to, label string, trigger bool) string {
	if label == "" {
		if trigger {
			return fmt.Sprintf("    %s -.-> %s\n", from, to)
		}
		return fmt.Sprintf("    %s --> %s\n", from, to)
	}
	label = escape(label)
	if trigger {
		return fmt.Sprintf("    %s -. \"%s\" .-> %s\n", from, label, to)
	}
	return fmt.Sprintf("    %s -- \"%s\" --> %s\n", from, label, to)
}

func nodeLabel(b *domain.Block) string {
	content := strings.Join(strings.Fields(b.Content), " ")
	if r := []rune(content); len(r) > maxLabel {
		content = string(r[:maxLabel]) + "..."
	}
	if content == "" {
		return escape(string(b.ID))
	}
	return escape(string(b.ID) + ": " + content)
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

// nodeID makes block ids unique across nesting levels and safe for Mermaid.
func nodeID(path []domain.BlockID, id domain.BlockID) string {
	parts := make([]string, 0, len(path)+2)
	parts = append(parts, "b")
	for _, p := range path {
		parts = append(parts, sanitizeMermaidID(string(p)))
	}
	parts = append(parts, sanitizeMermaidID(string(id)))
	return strings.Join(parts, "_")
}

func sanitizeMermaidID(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		}
		return '_'
	}, id)
}
