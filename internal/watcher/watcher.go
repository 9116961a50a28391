package watcher

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"syncwatch/internal/model"
	"syncwatch/internal/pipeline"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

type Watcher struct {
	fw       *fsnotify.Watcher
	matcher  *pipeline.Matcher
	log      *zap.Logger
	eventCh  chan model.ChangeEvent
	doneCh   chan struct{}
	stopOnce sync.Once

	mu  sync.Mutex
	err error
}

func New(opts Options, log *zap.Logger) (*Watcher, error) {
	opts = opts.withDefaults()

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	return &Watcher{
		fw:      fw,
		matcher: opts.Matcher,
		log:     log,
		eventCh: make(chan model.ChangeEvent, opts.BufferSize),
		doneCh:  make(chan struct{}),
	}, nil
}

func (w *Watcher) Watch(dir string) error {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	if _, err := os.Stat(absDir); err != nil {
		return fmt.Errorf("source directory not found: %w", err)
	}

	if err := w.addRecursive(absDir, false); err != nil {
		return err
	}

	go w.run()

	w.log.Info("watcher started",
		zap.String("dir", absDir))
	return nil
}

// addRecursive watches dir and every directory below it. With emit set,
// entries already present are reported as created: a directory that was
// just created may have been filled before its watch was in place.
func (w *Watcher) addRecursive(dir string, emit bool) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if emit && errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return err
		}

		if path != dir && w.matcher.Match(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if err := w.fw.Add(path); err != nil {
				return fmt.Errorf("failed to watch %s: %w", path, err)
			}
			w.log.Debug("watching directory",
				zap.String("path", path))
		}

		if emit && path != dir {
			if !w.emit(model.ChangeEvent{Op: model.OpCreate, Path: path, Time: time.Now()}) {
				return filepath.SkipAll
			}
		}

		return nil
	})
}

func (w *Watcher) run() {
	defer close(w.eventCh)

	for {
		select {
		case <-w.doneCh:
			w.log.Info("watcher stopping")
			return

		case fsEvent, ok := <-w.fw.Events:
			if !ok {
				w.fail(ErrClosed)
				return
			}

			if !w.handle(fsEvent) {
				return
			}

		case err, ok := <-w.fw.Errors:
			if !ok {
				w.fail(ErrClosed)
				return
			}

			if errors.Is(err, fsnotify.ErrEventOverflow) {
				w.log.Warn("kernel event queue overflowed, some changes were missed",
					zap.Error(err))
				continue
			}

			w.log.Error("watcher error",
				zap.Error(err))
		}
	}
}

func (w *Watcher) handle(fsEvent fsnotify.Event) bool {
	op := toOp(fsEvent.Op)
	if op == "" || w.matcher.Match(fsEvent.Name) {
		return true
	}

	if !w.emit(model.ChangeEvent{Op: op, Path: fsEvent.Name, Time: time.Now()}) {
		return false
	}

	if fsEvent.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(fsEvent.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(fsEvent.Name, true); err != nil {
				w.log.Warn("failed to watch new directory",
					zap.String("path", fsEvent.Name),
					zap.Error(err))
			} else {
				w.log.Debug("added new directory to watch",
					zap.String("path", fsEvent.Name))
			}
		}
	}

	return true
}

// emit blocks until the monitor takes the event. Dropping here would
// lose a change for good.
func (w *Watcher) emit(event model.ChangeEvent) bool {
	select {
	case w.eventCh <- event:
		return true
	case <-w.doneCh:
		return false
	}
}

func (w *Watcher) fail(err error) {
	select {
	case <-w.doneCh:
		return
	default:
	}

	w.mu.Lock()
	w.err = err
	w.mu.Unlock()

	w.log.Error("watcher failed",
		zap.Error(err))
}

func (w *Watcher) Events() <-chan model.ChangeEvent {
	return w.eventCh
}

// Err reports why the event channel was closed; nil after Stop.
func (w *Watcher) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.doneCh)
		_ = w.fw.Close()
	})
}

func toOp(op fsnotify.Op) model.EventOp {
	switch {
	case op.Has(fsnotify.Create):
		return model.OpCreate
	case op.Has(fsnotify.Write):
		return model.OpWrite
	case op.Has(fsnotify.Remove):
		return model.OpRemove
	case op.Has(fsnotify.Rename):
		return model.OpRename
	default:
		return ""
	}
}
