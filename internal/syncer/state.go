package syncer

import (
	"sync"
	"syncwatch/internal/metrics"
	"syncwatch/internal/model"
	"time"
)

type State int32

const (
	StateIdle State = iota
	StateWatching
	StateFiltering
	StatePropagating
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateWatching:
		return "WATCHING"
	case StateFiltering:
		return "FILTERING"
	case StatePropagating:
		return "PROPAGATING"
	case StateStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// Stats is written by the monitor goroutine and read by the status API.
type Stats struct {
	mu          sync.RWMutex
	src         string
	dst         string
	mode        string
	state       State
	startedAt   time.Time
	received    int
	dropped     int
	synced      int
	failed      int
	lastSync    *time.Time
	baselineErr string
	metrics     *metrics.Collector
}

func NewStats(spec model.WatchSpec, m *metrics.Collector) *Stats {
	return &Stats{
		src:       spec.SourceRoot,
		dst:       spec.DestRoot,
		mode:      spec.Mode(),
		state:     StateIdle,
		startedAt: time.Now(),
		metrics:   m,
	}
}

func (s *Stats) SetState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()

	s.metrics.SetState(int(state))
}

func (s *Stats) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Stats) RecordEvent(accepted bool) {
	s.mu.Lock()
	s.received++
	if !accepted {
		s.dropped++
	}
	s.mu.Unlock()

	if accepted {
		s.metrics.EventAccepted()
	} else {
		s.metrics.EventDropped()
	}
}

func (s *Stats) RecordSync(result model.SyncResult) {
	s.mu.Lock()
	s.lastSync = new(time.Now())
	if result.Err != nil {
		s.failed++
	} else {
		s.synced++
	}
	if result.Kind == model.KindBaseline {
		s.baselineErr = ""
		if result.Err != nil {
			s.baselineErr = result.Err.Error()
		}
	}
	s.mu.Unlock()

	s.metrics.ObserveTransfer(result.Kind, result.Status(), result.Duration)
}

func (s *Stats) Snapshot() model.MonitorSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return model.MonitorSnapshot{
		State:       s.state.String(),
		Source:      s.src,
		Dest:        s.dst,
		Mode:        s.mode,
		StartedAt:   s.startedAt,
		Received:    s.received,
		Dropped:     s.dropped,
		Synced:      s.synced,
		Failed:      s.failed,
		LastSync:    s.lastSync,
		BaselineErr: s.baselineErr,
	}
}
