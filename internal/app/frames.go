package app

import (
	"context"
	"errors"
	"time"

	"github.com/jaennil/guide_helper/backend/terrain/internal/streaming"
	"github.com/jaennil/guide_helper/backend/terrain/internal/usecase"
	"github.com/jaennil/guide_helper/backend/terrain/pkg/config"
	"github.com/jaennil/guide_helper/backend/terrain/pkg/logger"
)

// errFramesDone ends the run once the configured frame duration is over.
var errFramesDone = errors.New("frame duration elapsed")

type frameLoop struct {
	cfg       config.Frame
	driver    *streaming.Driver
	flyer     *Flyer
	dumps     *usecase.TileDumpUseCase
	dumpEvery int
	logger    logger.Logger
}

// run ticks the driver at the configured rate. It owns the driver for as
// long as it runs.
func (f *frameLoop) run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / time.Duration(f.cfg.Rate))
	defer ticker.Stop()

	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		elapsed := time.Since(start)
		if f.cfg.Duration > 0 && elapsed >= f.cfg.Duration {
			return errFramesDone
		}

		stats := f.driver.Frame(ctx, f.flyer.Camera(elapsed))

		if stats.Frame%uint64(f.cfg.Rate) == 0 {
			f.logger.Debug("frame",
				"frame", stats.Frame,
				"nodes", stats.Nodes,
				"entering", stats.Entering,
				"leaving", stats.Leaving,
				"queue", stats.QueueDepth,
				"took", stats.FrameTime,
			)
		}

		if f.dumps != nil && f.dumpEvery > 0 && stats.Frame%uint64(f.dumpEvery) == 0 {
			if _, err := f.dumps.DumpAll(f.driver); err != nil {
				f.logger.Error("periodic dump failed", "frame", stats.Frame, "error", err)
			}
		}
	}
}
