package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"visionpipe/internal/logging"
	"visionpipe/internal/media"
)

// Step is one unit of worker processing. Run receives the document being
// processed and mutates it in place; the worker persists the result.
type Step struct {
	Name string
	Run  func(ctx context.Context, doc *media.Document) error
}

// Run executes steps in order, stopping at the first error. The returned
// error is annotated with the failing step's name.
func Run(ctx context.Context, logger *slog.Logger, doc *media.Document, steps []Step) error {
	if logger == nil {
		logger = logging.NewNop()
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		started := time.Now()
		if err := step.Run(ctx, doc); err != nil {
			return fmt.Errorf("step %s: %w", step.Name, err)
		}
		logger.Debug("step complete",
			logging.String("step", step.Name),
			logging.Duration("elapsed", time.Since(started)),
		)
	}
	return nil
}
