package runtime

import (
	"context"
	"log/slog"
	"regexp"

	"github.com/aretw0/tilbot/pkg/domain"
)

// randomPattern recognizes the [random(table)] variable source.
var randomPattern = regexp.MustCompile(`(?i)^random\(([^)]*)\)`)

// applyEvents runs the side effects of a selected connector in declaration order.
// Message events are informational. Variable events bind a literal value or,
// for [random(table)], a random row; a failed lookup leaves the variable as is.
func applyEvents(ctx context.Context, events []domain.Event, vars *Variables, l *lookups, logger *slog.Logger) {
	for _, e := range events {
		switch e.Type {
		case domain.EventMessage:
			logger.Debug("message event", "message", e.Message)

		case domain.EventVariable:
			sub := tagPattern.FindStringSubmatch(e.VarValue)
			if sub == nil {
				vars.Set(e.VarName, e.VarValue)
				continue
			}
			random := randomPattern.FindStringSubmatch(sub[1])
			if random == nil {
				logger.Warn("unsupported variable source", "var_name", e.VarName, "var_value", e.VarValue)
				continue
			}
			if row := l.randomRow(ctx, random[1]); row != nil {
				vars.Set(e.VarName, row)
			}

		default:
			logger.Warn("unknown connector event", "type", e.Type)
		}
	}
}
