package repository

import (
	"errors"
	"path/filepath"
	"syncwatch/internal/db"
	"syncwatch/internal/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T) *HistoryRepository {
	t.Helper()

	gdb, err := db.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })

	return NewHistoryRepository(gdb)
}

func TestHistoryRepository(t *testing.T) {
	repo := newRepo(t)

	results := []model.SyncResult{
		{Kind: model.KindBaseline, Source: "/a/", Dest: "/b/", Duration: time.Second},
		{Kind: model.KindChange, Source: "/a/./x.txt", Dest: "/b/", ExitCode: 24, Vanished: true, Err: errors.New("vanished")},
		{Kind: model.KindChange, Source: "/a/./y.txt", Dest: "/b/", ExitCode: 23, Err: errors.New("permission denied")},
	}
	for _, r := range results {
		require.NoError(t, repo.Save(r))
	}

	recent, err := repo.GetRecent(2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "/a/./y.txt", recent[0].Source)
	assert.Equal(t, model.StatusFailed, recent[0].Status)
	assert.Equal(t, "permission denied", recent[0].ErrMsg)
	assert.Equal(t, model.StatusVanished, recent[1].Status)

	failed, err := repo.GetFailed(10)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, 23, failed[0].ExitCode)

	stats, err := repo.GetStats()
	require.NoError(t, err)
	assert.Equal(t, Stats{Total: 3, Success: 1, Vanished: 1, Failed: 1}, stats)
}
