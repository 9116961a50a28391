package syncer

import (
	"context"
	"syncwatch/internal/model"
	"syncwatch/internal/transfer"

	"go.uber.org/zap"
)

// Baseline mirrors the whole source tree once, before any change is
// propagated.
type Baseline struct {
	spec       model.WatchSpec
	transferer transfer.Transferer
	log        *zap.Logger
}

func NewBaseline(spec model.WatchSpec, t transfer.Transferer, log *zap.Logger) *Baseline {
	return &Baseline{spec: spec, transferer: t, log: log}
}

func (b *Baseline) Run(ctx context.Context) model.SyncResult {
	req := transfer.Request{
		Sources:  []string{b.spec.SourceRoot},
		Dest:     b.spec.DestRoot,
		Checksum: b.spec.UseChecksum,
		Progress: b.spec.Transfer.Progress,
		Delete:   b.spec.Transfer.Delete,
		Excludes: b.spec.IgnoreList,
	}

	b.log.Info("starting full sync",
		zap.String("src", b.spec.SourceRoot),
		zap.String("dst", b.spec.DestRoot),
		zap.Bool("checksum", req.Checksum),
		zap.Bool("delete", req.Delete))

	res, err := b.transferer.Transfer(ctx, req)
	result := model.SyncResult{
		Kind:   model.KindBaseline,
		Source: b.spec.SourceRoot,
		Dest:   b.spec.DestRoot,
	}
	complete(&result, res, err)

	if result.Err != nil {
		b.log.Error("full sync failed",
			zap.Int("exit_code", result.ExitCode),
			zap.Error(result.Err))
	} else {
		b.log.Info("full sync done",
			zap.Duration("took", result.Duration))
	}

	return result
}
