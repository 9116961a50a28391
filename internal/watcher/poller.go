package watcher

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"syncwatch/internal/model"
	"syncwatch/internal/pipeline"
	"time"

	"go.uber.org/zap"
)

type entry struct {
	size    int64
	modTime time.Time
	mode    fs.FileMode
}

// Poller rescans the tree every interval and reports the differences.
// Directory modification times are not compared, only their presence.
type Poller struct {
	root     string
	interval time.Duration
	matcher  *pipeline.Matcher
	log      *zap.Logger
	last     map[string]entry
	eventCh  chan model.ChangeEvent
	doneCh   chan struct{}
	stopOnce sync.Once

	mu  sync.Mutex
	err error
}

func NewPoller(opts Options, log *zap.Logger) *Poller {
	opts = opts.withDefaults()

	return &Poller{
		interval: opts.PollInterval,
		matcher:  opts.Matcher,
		log:      log,
		eventCh:  make(chan model.ChangeEvent, opts.BufferSize),
		doneCh:   make(chan struct{}),
	}
}

func (p *Poller) Watch(dir string) error {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	p.root = absDir
	p.last, err = p.scan()
	if err != nil {
		return err
	}

	go p.run()

	p.log.Info("poller started",
		zap.String("dir", absDir),
		zap.Duration("interval", p.interval),
		zap.Int("entries", len(p.last)))
	return nil
}

func (p *Poller) run() {
	defer close(p.eventCh)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.doneCh:
			p.log.Info("poller stopping")
			return

		case <-ticker.C:
			next, err := p.scan()
			if err != nil {
				p.fail(err)
				return
			}

			for _, event := range diff(p.last, next, time.Now()) {
				select {
				case p.eventCh <- event:
				case <-p.doneCh:
					return
				}
			}
			p.last = next
		}
	}
}

func (p *Poller) scan() (map[string]entry, error) {
	snapshot := make(map[string]entry)

	err := filepath.WalkDir(p.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == p.root {
				return err
			}
			// Vanished or unreadable mid-walk; the next scan settles it.
			return nil
		}

		if path == p.root {
			return nil
		}

		if p.matcher.Match(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}

		snapshot[path] = entry{
			size:    info.Size(),
			modTime: info.ModTime(),
			mode:    info.Mode(),
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", p.root, err)
	}

	return snapshot, nil
}

// diff returns events in path order so that a parent directory is always
// reported before its children.
func diff(prev, next map[string]entry, now time.Time) []model.ChangeEvent {
	var events []model.ChangeEvent

	for path, cur := range next {
		old, ok := prev[path]
		switch {
		case !ok:
			events = append(events, model.ChangeEvent{Op: model.OpCreate, Path: path, Time: now})
		case cur.mode.IsDir() && old.mode.IsDir():
		case cur.size != old.size || !cur.modTime.Equal(old.modTime) || cur.mode != old.mode:
			events = append(events, model.ChangeEvent{Op: model.OpWrite, Path: path, Time: now})
		}
	}

	for path := range prev {
		if _, ok := next[path]; !ok {
			events = append(events, model.ChangeEvent{Op: model.OpRemove, Path: path, Time: now})
		}
	}

	slices.SortFunc(events, func(a, b model.ChangeEvent) int {
		return strings.Compare(a.Path, b.Path)
	})

	return events
}

func (p *Poller) fail(err error) {
	select {
	case <-p.doneCh:
		return
	default:
	}

	if errors.Is(err, fs.ErrNotExist) {
		err = fmt.Errorf("%w: %w", ErrClosed, err)
	}

	p.mu.Lock()
	p.err = err
	p.mu.Unlock()

	p.log.Error("poller failed",
		zap.Error(err))
}

func (p *Poller) Events() <-chan model.ChangeEvent {
	return p.eventCh
}

func (p *Poller) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		close(p.doneCh)
	})
}
