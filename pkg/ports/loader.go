package ports

import (
	"context"

	"github.com/aretw0/tilbot/pkg/domain"
)

// ProjectLoader supplies the project document once, at session start.
// This allows the source (file, embedded asset, remote store) to be decoupled.
type ProjectLoader interface {
	Load(ctx context.Context) (*domain.Project, error)
}

// ProjectLoaderFunc adapts a plain function to a ProjectLoader.
type ProjectLoaderFunc func(ctx context.Context) (*domain.Project, error)

// Load calls f.
func (f ProjectLoaderFunc) Load(ctx context.Context) (*domain.Project, error) {
	return f(ctx)
}

// StaticLoader returns a loader that always yields p.
func StaticLoader(p *domain.Project) ProjectLoader {
	return ProjectLoaderFunc(func(context.Context) (*domain.Project, error) {
		return p, nil
	})
}
