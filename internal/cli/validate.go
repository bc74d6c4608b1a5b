package cli

import (
	"github.com/aretw0/tilbot/internal/presentation/graph"
	"github.com/aretw0/tilbot/pkg/project"
)

// Validate loads the project at path and returns its lint warnings.
// Structural errors are returned as an error listing every problem.
func Validate(path string) ([]project.Warning, error) {
	p, err := project.Load(path)
	if err != nil {
		return nil, err
	}
	return project.Lint(p), nil
}

// Mermaid renders the project at path as a Mermaid flowchart.
func Mermaid(path string) (string, error) {
	p, err := project.Load(path)
	if err != nil {
		return "", err
	}
	return graph.GenerateMermaid(p, nil), nil
}
