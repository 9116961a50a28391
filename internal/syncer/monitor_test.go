package syncer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"syncwatch/internal/model"
	"syncwatch/internal/pipeline"
	"syncwatch/internal/transfer"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newSpec(t *testing.T) model.WatchSpec {
	t.Helper()

	spec, err := model.NewWatchSpec(t.TempDir(), t.TempDir())
	require.NoError(t, err)
	return spec
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func event(path string) model.ChangeEvent {
	return model.ChangeEvent{Op: model.OpWrite, Path: path, Time: time.Now()}
}

// runUntilDrained feeds the events and returns once the monitor has seen
// the source close.
func runUntilDrained(t *testing.T, m *Monitor) {
	t.Helper()

	err := m.Run(context.Background())
	require.ErrorIs(t, err, ErrSubscriptionLost)
}

func TestMonitor_PropagatesOneScopedTransfer(t *testing.T) {
	spec := newSpec(t)
	changed := filepath.Join(spec.SourceRoot, "dir", "y.txt")
	writeFile(t, changed, "y")

	src := newFakeSource(event(changed))
	close(src.ch)

	tr := &fakeTransferer{}
	m := NewMonitor(spec, src.subscribe, NewPropagator(spec, tr, zap.NewNop()), zap.NewNop())
	runUntilDrained(t, m)

	calls := tr.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, []string{spec.SourceRoot + "." + string(filepath.Separator) + filepath.Join("dir", "y.txt")}, calls[0].Sources)
	assert.Equal(t, spec.DestRoot, calls[0].Dest)
	assert.True(t, calls[0].Relative)
	assert.False(t, calls[0].Delete)
	assert.True(t, src.stopped.Load())
}

func TestMonitor_DropsMissingPath(t *testing.T) {
	spec := newSpec(t)

	src := newFakeSource(event(filepath.Join(spec.SourceRoot, "ghost.txt")))
	close(src.ch)

	tr := &fakeTransferer{}
	m := NewMonitor(spec, src.subscribe, NewPropagator(spec, tr, zap.NewNop()), zap.NewNop())
	runUntilDrained(t, m)

	assert.Empty(t, tr.Calls())
	snap := m.Stats().Snapshot()
	assert.Equal(t, 1, snap.Received)
	assert.Equal(t, 1, snap.Dropped)
}

func TestMonitor_DropsPathOutsideRoot(t *testing.T) {
	spec := newSpec(t)
	outside := filepath.Join(t.TempDir(), "elsewhere.txt")
	writeFile(t, outside, "x")

	src := newFakeSource(event(outside))
	close(src.ch)

	tr := &fakeTransferer{}
	m := NewMonitor(spec, src.subscribe, NewPropagator(spec, tr, zap.NewNop()), zap.NewNop())
	runUntilDrained(t, m)

	assert.Empty(t, tr.Calls())
}

func TestMonitor_TransfersAreSequential(t *testing.T) {
	spec := newSpec(t)
	path := filepath.Join(spec.SourceRoot, "x.txt")
	writeFile(t, path, "x")

	e1, e2 := event(path), event(path)
	src := newFakeSource(e1, e2)
	close(src.ch)

	var order []time.Time
	tr := &fakeTransferer{Delay: 20 * time.Millisecond}
	tr.TransferFunc = func(context.Context, transfer.Request) (*transfer.Result, error) {
		order = append(order, time.Now())
		return &transfer.Result{}, nil
	}

	m := NewMonitor(spec, src.subscribe, NewPropagator(spec, tr, zap.NewNop()), zap.NewNop())
	runUntilDrained(t, m)

	assert.Len(t, tr.Calls(), 2)
	assert.Equal(t, int32(1), tr.maxInflight.Load())
	require.Len(t, order, 2)
	assert.True(t, order[1].Sub(order[0]) >= tr.Delay, "second transfer started before the first finished")
}

func TestMonitor_FailedTransferDoesNotStopLoop(t *testing.T) {
	spec := newSpec(t)
	a := filepath.Join(spec.SourceRoot, "a.txt")
	b := filepath.Join(spec.SourceRoot, "b.txt")
	writeFile(t, a, "a")
	writeFile(t, b, "b")

	src := newFakeSource(event(a), event(b))
	close(src.ch)

	calls := 0
	tr := &fakeTransferer{}
	tr.TransferFunc = func(ctx context.Context, req transfer.Request) (*transfer.Result, error) {
		calls++
		if calls == 1 {
			return failing(23, "rsync: send_files failed: Permission denied (13)")(ctx, req)
		}
		return &transfer.Result{}, nil
	}

	core, logs := observer.New(zapcore.InfoLevel)
	m := NewMonitor(spec, src.subscribe, NewPropagator(spec, tr, zap.New(core)), zap.NewNop())
	runUntilDrained(t, m)

	assert.Len(t, tr.Calls(), 2)
	snap := m.Stats().Snapshot()
	assert.Equal(t, 1, snap.Failed)
	assert.Equal(t, 1, snap.Synced)
	assert.Equal(t, 1, logs.FilterMessage("sync failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("synced").Len())
}

func TestMonitor_VanishedSourceIsWarning(t *testing.T) {
	spec := newSpec(t)
	path := filepath.Join(spec.SourceRoot, "x.txt")
	writeFile(t, path, "x")

	src := newFakeSource(event(path))
	close(src.ch)

	tr := &fakeTransferer{TransferFunc: failing(24, "file has vanished")}
	core, logs := observer.New(zapcore.InfoLevel)
	rec := &fakeRecorder{}

	m := NewMonitor(spec, src.subscribe, NewPropagator(spec, tr, zap.New(core)), zap.NewNop(), WithRecorder(rec))
	runUntilDrained(t, m)

	require.Len(t, rec.results, 1)
	assert.Equal(t, model.StatusVanished, rec.results[0].Status())
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.WarnLevel).Len())
	assert.Zero(t, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
}

func TestMonitor_SourceFailureIsFatal(t *testing.T) {
	spec := newSpec(t)
	boom := errors.New("inotify gone")

	src := newFakeSource()
	src.err = boom
	close(src.ch)

	m := NewMonitor(spec, src.subscribe, NewPropagator(spec, &fakeTransferer{}, zap.NewNop()), zap.NewNop())
	err := m.Run(context.Background())

	assert.ErrorIs(t, err, ErrSubscriptionLost)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StateStopped, m.Stats().State())
}

func TestMonitor_SubscribeFailure(t *testing.T) {
	spec := newSpec(t)
	boom := errors.New("too many open files")

	subscribe := func() (EventSource, error) { return nil, boom }
	m := NewMonitor(spec, subscribe, NewPropagator(spec, &fakeTransferer{}, zap.NewNop()), zap.NewNop())

	err := m.Run(context.Background())
	assert.ErrorIs(t, err, ErrSubscriptionLost)
	assert.ErrorIs(t, err, boom)
}

func TestMonitor_StopsOnCancel(t *testing.T) {
	spec := newSpec(t)
	src := newFakeSource()

	m := NewMonitor(spec, src.subscribe, NewPropagator(spec, &fakeTransferer{}, zap.NewNop()), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	require.Eventually(t, func() bool {
		return m.Stats().State() == StateWatching
	}, 5*time.Second, 5*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("monitor did not stop")
	}
	assert.Equal(t, StateStopped, m.Stats().State())
	assert.True(t, src.stopped.Load())
}

func TestMonitor_RecorderErrorIsLogged(t *testing.T) {
	spec := newSpec(t)
	path := filepath.Join(spec.SourceRoot, "x.txt")
	writeFile(t, path, "x")

	src := newFakeSource(event(path), event(path))
	close(src.ch)

	tr := &fakeTransferer{}
	rec := &fakeRecorder{err: errors.New("database is locked")}
	core, logs := observer.New(zapcore.WarnLevel)

	m := NewMonitor(spec, src.subscribe, NewPropagator(spec, tr, zap.NewNop()), zap.New(core), WithRecorder(rec))
	runUntilDrained(t, m)

	assert.Len(t, tr.Calls(), 2)
	assert.Len(t, rec.results, 2)
	assert.Equal(t, 2, logs.FilterMessage("failed to save history").Len())
}

func TestMonitor_CustomFilter(t *testing.T) {
	spec := newSpec(t)
	path := filepath.Join(spec.SourceRoot, "x.txt")
	writeFile(t, path, "x")

	src := newFakeSource(event(path))
	close(src.ch)

	tr := &fakeTransferer{}
	reject := pipeline.FilterFunc(func(model.ChangeEvent) bool { return false })

	m := NewMonitor(spec, src.subscribe, NewPropagator(spec, tr, zap.NewNop()), zap.NewNop(), WithFilter(reject))
	runUntilDrained(t, m)

	assert.Empty(t, tr.Calls())
}
