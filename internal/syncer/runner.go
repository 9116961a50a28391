package syncer

import (
	"context"
	"fmt"
	"syncwatch/internal/model"

	"go.uber.org/zap"
)

// Runner performs the baseline and then hands over to the monitor.
//
// A failed baseline is logged and the monitor starts anyway, keeping the
// watch alive; with Strict set the failure aborts instead. A baseline that
// only tripped over vanished files counts as done.
type Runner struct {
	baseline *Baseline
	monitor  *Monitor
	strict   bool
	log      *zap.Logger
}

func NewRunner(b *Baseline, m *Monitor, strict bool, log *zap.Logger) *Runner {
	return &Runner{baseline: b, monitor: m, strict: strict, log: log}
}

func (r *Runner) Run(ctx context.Context) error {
	result := r.baseline.Run(ctx)
	r.monitor.record(result)

	if result.Status() == model.StatusFailed {
		if r.strict {
			r.monitor.stats.SetState(StateStopped)
			return fmt.Errorf("%w: %w", ErrBaselineFailed, result.Err)
		}

		r.log.Warn("destination may be out of date, watching anyway",
			zap.Error(result.Err))
	}

	if ctx.Err() != nil {
		r.monitor.stats.SetState(StateStopped)
		return nil
	}

	return r.monitor.Run(ctx)
}
