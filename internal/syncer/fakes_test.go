package syncer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"syncwatch/internal/model"
	"syncwatch/internal/transfer"
	"time"
)

type fakeSource struct {
	ch      chan model.ChangeEvent
	err     error
	stopped atomic.Bool
}

func newFakeSource(events ...model.ChangeEvent) *fakeSource {
	s := &fakeSource{ch: make(chan model.ChangeEvent, len(events)+1)}
	for _, ev := range events {
		s.ch <- ev
	}
	return s
}

func (s *fakeSource) Events() <-chan model.ChangeEvent { return s.ch }
func (s *fakeSource) Err() error                       { return s.err }
func (s *fakeSource) Stop()                            { s.stopped.Store(true) }

func (s *fakeSource) subscribe() (EventSource, error) { return s, nil }

// fakeTransferer records every request and tracks how many run at once.
type fakeTransferer struct {
	TransferFunc func(ctx context.Context, req transfer.Request) (*transfer.Result, error)
	Delay        time.Duration

	mu          sync.Mutex
	calls       []transfer.Request
	inflight    atomic.Int32
	maxInflight atomic.Int32
}

func (f *fakeTransferer) Transfer(ctx context.Context, req transfer.Request) (*transfer.Result, error) {
	n := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		cur := f.maxInflight.Load()
		if n <= cur || f.maxInflight.CompareAndSwap(cur, n) {
			break
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()

	if f.Delay > 0 {
		time.Sleep(f.Delay)
	}

	if f.TransferFunc != nil {
		return f.TransferFunc(ctx, req)
	}
	return &transfer.Result{ExitCode: 0, Duration: time.Millisecond}, nil
}

func (f *fakeTransferer) Calls() []transfer.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]transfer.Request(nil), f.calls...)
}

type fakeRecorder struct {
	mu      sync.Mutex
	results []model.SyncResult
	err     error
}

func (r *fakeRecorder) Save(result model.SyncResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
	return r.err
}

func failing(code int, stderr string) func(context.Context, transfer.Request) (*transfer.Result, error) {
	return func(context.Context, transfer.Request) (*transfer.Result, error) {
		err := errors.Join(transfer.ErrTransferFailed, errors.New(stderr))
		return &transfer.Result{ExitCode: code, Stderr: stderr, Err: err}, err
	}
}
