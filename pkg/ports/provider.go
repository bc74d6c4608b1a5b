package ports

import (
	"context"

	"github.com/aretw0/tilbot/pkg/domain"
)

// DataProvider answers the two external table queries the engine needs.
// Implementations may be backed by local files, a database or a remote service;
// both calls may block and must honour ctx cancellation.
type DataProvider interface {
	// RandomRow returns a random row of table, or (nil, nil) when the table is empty.
	RandomRow(ctx context.Context, table string) (domain.Row, error)

	// RowMatches reports whether table has a row whose column matches value.
	// Matching is case-insensitive equality.
	RowMatches(ctx context.Context, table, column, value string) (bool, error)
}
