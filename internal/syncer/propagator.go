package syncer

import (
	"context"
	"syncwatch/internal/model"
	"syncwatch/internal/transfer"

	"go.uber.org/zap"
)

// Propagator turns one accepted change into exactly one relative-mode
// transfer. It never batches, and it waits for the transfer to finish.
type Propagator struct {
	spec       model.WatchSpec
	transferer transfer.Transferer
	log        *zap.Logger
}

func NewPropagator(spec model.WatchSpec, t transfer.Transferer, log *zap.Logger) *Propagator {
	return &Propagator{spec: spec, transferer: t, log: log}
}

func (p *Propagator) Propagate(ctx context.Context, event model.ChangeEvent, change model.RelativeChange) model.SyncResult {
	req := transfer.Request{
		Sources:  []string{change.Source()},
		Dest:     p.spec.DestRoot,
		Relative: true,
		Checksum: p.spec.UseChecksum,
		Progress: p.spec.Transfer.Progress,
		Excludes: p.spec.IgnoreList,
	}

	res, err := p.transferer.Transfer(ctx, req)
	result := model.SyncResult{
		Kind:   model.KindChange,
		Event:  &event,
		Source: change.Source(),
		Dest:   p.spec.DestRoot,
	}
	complete(&result, res, err)

	fields := []zap.Field{
		zap.String("op", string(event.Op)),
		zap.String("path", change.RelativePath),
		zap.Duration("took", result.Duration),
	}
	switch result.Status() {
	case model.StatusSuccess:
		p.log.Info("synced", fields...)
	case model.StatusVanished:
		p.log.Warn("source vanished before transfer",
			append(fields, zap.Int("exit_code", result.ExitCode))...)
	default:
		p.log.Error("sync failed",
			append(fields, zap.Int("exit_code", result.ExitCode), zap.Error(result.Err))...)
	}

	return result
}

func complete(result *model.SyncResult, res *transfer.Result, err error) {
	result.Err = err
	if res == nil {
		if err != nil {
			result.ExitCode = -1
		}
		return
	}

	result.ExitCode = res.ExitCode
	result.Duration = res.Duration
	result.Vanished = res.Vanished()
}
