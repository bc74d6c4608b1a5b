package runtime

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/tilbot/pkg/domain"
	"github.com/aretw0/tilbot/pkg/ports"
)

// lookups wraps the External Data Provider with logging and hooks.
// A failed query is never fatal; callers treat it as "no match" or "none".
type lookups struct {
	provider  ports.DataProvider
	logger    *slog.Logger
	hooks     domain.LifecycleHooks
	sessionID string
}

func (l *lookups) randomRow(ctx context.Context, table string) domain.Row {
	if l.provider == nil {
		l.report(ctx, "random_row", table, "", false, domain.ErrNoProvider)
		return nil
	}
	row, err := l.provider.RandomRow(ctx, table)
	l.report(ctx, "random_row", table, "", row != nil, err)
	if err != nil {
		return nil
	}
	return row
}

func (l *lookups) rowMatches(ctx context.Context, table, column, value string) (bool, error) {
	if l.provider == nil {
		l.report(ctx, "row_matches", table, column, false, domain.ErrNoProvider)
		return false, domain.ErrNoProvider
	}
	found, err := l.provider.RowMatches(ctx, table, column, value)
	l.report(ctx, "row_matches", table, column, found, err)
	return found, err
}

func (l *lookups) report(ctx context.Context, kind, table, column string, found bool, err error) {
	if err != nil {
		l.logger.Warn("external query failed", "kind", kind, "table", table, "column", column, "err", err)
	}
	if l.hooks.OnLookup != nil {
		l.hooks.OnLookup(ctx, &domain.LookupEvent{
			EventBase: domain.EventBase{
				Timestamp: time.Now(),
				Type:      domain.EventLookup,
				SessionID: l.sessionID,
			},
			Kind:   kind,
			Table:  table,
			Column: column,
			Found:  found,
			Err:    err,
		})
	}
}
