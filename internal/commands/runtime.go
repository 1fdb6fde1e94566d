package commands

import (
	"context"
	"time"

	"github.com/goliatone/go-cms-composer/internal/logging"
	"github.com/goliatone/go-cms-composer/pkg/interfaces"
)

// Execution budgets for page commands. A save translates every new prop for
// every sibling locale before it writes, so it runs under the longer budget.
const (
	DefaultCommandTimeout = 30 * time.Second
	SaveCommandTimeout    = 2 * time.Minute
)

// commandContext prepares the context a page command runs under. A nil ctx
// falls back to Background, a positive timeout bounds the run and the command
// fields are annotated so context-aware loggers in the editing service and
// the sync engine tag their entries with the originating command.
func commandContext(ctx context.Context, timeout time.Duration, fields map[string]any) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = logging.ContextWithFields(ctx, fields)
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// commandLogger returns logger, or the no-op logger when none was configured.
func commandLogger(logger interfaces.Logger) interfaces.Logger {
	if logger == nil {
		return logging.NoOp()
	}
	return logger
}
