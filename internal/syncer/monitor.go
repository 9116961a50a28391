package syncer

import (
	"context"
	"fmt"
	"syncwatch/internal/model"
	"syncwatch/internal/pipeline"
	"syncwatch/internal/relative"

	"go.uber.org/zap"
)

// Monitor pulls change events one at a time and pushes each accepted one
// through to a transfer before it looks at the next. Transfers therefore
// happen in the order the events arrived and never overlap.
type Monitor struct {
	spec       model.WatchSpec
	subscribe  SubscribeFunc
	filter     pipeline.EventFilter
	propagator *Propagator
	recorder   Recorder
	stats      *Stats
	log        *zap.Logger
}

type Option func(*Monitor)

func WithFilter(f pipeline.EventFilter) Option {
	return func(m *Monitor) {
		m.filter = f
	}
}

func WithRecorder(r Recorder) Option {
	return func(m *Monitor) {
		m.recorder = r
	}
}

func WithStats(s *Stats) Option {
	return func(m *Monitor) {
		m.stats = s
	}
}

func NewMonitor(spec model.WatchSpec, subscribe SubscribeFunc, p *Propagator, log *zap.Logger, opts ...Option) *Monitor {
	m := &Monitor{
		spec:       spec,
		subscribe:  subscribe,
		propagator: p,
		log:        log,
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.filter == nil {
		m.filter = pipeline.NewExistsFilter()
	}
	if m.stats == nil {
		m.stats = NewStats(spec, nil)
	}

	return m
}

func (m *Monitor) Stats() *Stats {
	return m.stats
}

// Run subscribes to the event source and handles events until ctx is
// done (nil) or the source fails (error wrapping ErrSubscriptionLost).
func (m *Monitor) Run(ctx context.Context) error {
	src, err := m.subscribe()
	if err != nil {
		m.stats.SetState(StateStopped)
		return fmt.Errorf("%w: failed to subscribe: %w", ErrSubscriptionLost, err)
	}
	defer src.Stop()

	m.stats.SetState(StateWatching)
	m.log.Info("watching for changes",
		zap.String("src", m.spec.SourceRoot),
		zap.String("dst", m.spec.DestRoot),
		zap.String("mode", m.spec.Mode()))

	events := src.Events()
	for {
		select {
		case <-ctx.Done():
			m.stats.SetState(StateStopped)
			m.log.Info("monitor stopped")
			return nil

		case event, ok := <-events:
			if !ok {
				m.stats.SetState(StateStopped)
				if err := src.Err(); err != nil {
					return fmt.Errorf("%w: %w", ErrSubscriptionLost, err)
				}
				return ErrSubscriptionLost
			}

			m.handle(ctx, event)
		}
	}
}

func (m *Monitor) handle(ctx context.Context, event model.ChangeEvent) {
	defer m.stats.SetState(StateWatching)
	m.stats.SetState(StateFiltering)

	if !m.filter.Accept(event) {
		m.stats.RecordEvent(false)
		m.log.Debug("dropped event for missing path",
			zap.String("op", string(event.Op)),
			zap.String("path", event.Path))
		return
	}

	change, err := relative.Relativize(m.spec.SourceRoot, event.Path)
	if err != nil {
		m.stats.RecordEvent(false)
		m.log.Debug("dropped event",
			zap.String("path", event.Path),
			zap.Error(err))
		return
	}

	m.stats.RecordEvent(true)
	m.stats.SetState(StatePropagating)
	m.record(m.propagator.Propagate(ctx, event, change))
}

func (m *Monitor) record(result model.SyncResult) {
	m.stats.RecordSync(result)

	if m.recorder == nil {
		return
	}

	if err := m.recorder.Save(result); err != nil {
		m.log.Warn("failed to save history",
			zap.Error(err))
	}
}
