// Package watcher provides the event sources feeding the sync monitor: a
// recursive fsnotify watcher and a polling scanner for file systems where
// native notifications are unreliable.
package watcher

import (
	"errors"
	"syncwatch/internal/model"
	"syncwatch/internal/pipeline"
	"time"

	"go.uber.org/zap"
)

var ErrClosed = errors.New("event source closed unexpectedly")

type Source interface {
	Events() <-chan model.ChangeEvent
	Err() error
	Stop()
}

type Options struct {
	BufferSize   int
	PollInterval time.Duration
	Matcher      *pipeline.Matcher
}

const (
	defaultBufferSize   = 100
	defaultPollInterval = time.Second
)

func (o Options) withDefaults() Options {
	if o.BufferSize <= 0 {
		o.BufferSize = defaultBufferSize
	}
	if o.PollInterval <= 0 {
		o.PollInterval = defaultPollInterval
	}

	return o
}

// NewSource starts watching spec.SourceRoot in the mode spec asks for.
// Exclusions are applied here so excluded paths never reach the monitor.
func NewSource(spec model.WatchSpec, bufferSize int, log *zap.Logger) (Source, error) {
	opts := Options{
		BufferSize:   bufferSize,
		PollInterval: spec.PollInterval,
		Matcher:      pipeline.NewMatcher(spec.SourceRoot, spec.Exclude, spec.IgnoreList),
	}

	if spec.Poll {
		p := NewPoller(opts, log)
		if err := p.Watch(spec.SourceRoot); err != nil {
			return nil, err
		}
		return p, nil
	}

	w, err := New(opts, log)
	if err != nil {
		return nil, err
	}

	if err := w.Watch(spec.SourceRoot); err != nil {
		w.Stop()
		return nil, err
	}

	return w, nil
}
