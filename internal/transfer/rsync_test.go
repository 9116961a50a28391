package transfer

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func requireRsync(t *testing.T) *Rsync {
	t.Helper()

	r := NewRsync(zap.NewNop())
	if err := r.Available(); err != nil {
		t.Skipf("rsync not available: %v", err)
	}

	return r
}

func TestRsync_Args(t *testing.T) {
	r := NewRsync(zap.NewNop(), WithExtraArgs("--itemize-changes"))

	t.Run("baseline", func(t *testing.T) {
		args := r.Args(Request{
			Sources:  []string{"/a/"},
			Dest:     "/b/",
			Delete:   true,
			Excludes: []string{".git", "*.swp"},
		})

		assert.Equal(t, []string{
			"--archive", "--delete",
			"--exclude=.git", "--exclude=*.swp",
			"--itemize-changes",
			"--", "/a/", "/b/",
		}, args)
	})

	t.Run("relative change", func(t *testing.T) {
		args := r.Args(Request{
			Sources:  []string{"/a/./dir/y.txt"},
			Dest:     "/b/",
			Relative: true,
			Checksum: true,
			Progress: true,
		})

		assert.Equal(t, []string{
			"--archive", "--relative", "--checksum", "--progress",
			"--itemize-changes",
			"--", "/a/./dir/y.txt", "/b/",
		}, args)
	})
}

func TestIsVanished(t *testing.T) {
	tests := []struct {
		name   string
		code   int
		stderr string
		want   bool
	}{
		{"vanished exit", 24, "", true},
		{"partial with missing source", 23, `rsync: link_stat "/a/./x" failed: No such file or directory (2)`, true},
		{"partial permission denied", 23, `rsync: send_files failed to open "/a/x": Permission denied (13)`, false},
		{"syntax error", 1, "", false},
		{"success", 0, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isVanished(tt.code, tt.stderr))
		})
	}
}

func TestResult_Vanished(t *testing.T) {
	var nilResult *Result
	assert.False(t, nilResult.Vanished())
	assert.False(t, (&Result{ExitCode: 24}).Vanished())
	assert.True(t, (&Result{ExitCode: 24, Err: ErrTransferFailed}).Vanished())
}

func TestRsync_NonZeroExit(t *testing.T) {
	if _, err := exec.LookPath("false"); err != nil {
		t.Skip("false not available")
	}

	r := NewRsync(zap.NewNop(), WithProgram("false"))
	result, err := r.Transfer(context.Background(), Request{Sources: []string{"/a/"}, Dest: "/b/"})

	require.ErrorIs(t, err, ErrTransferFailed)
	require.NotNil(t, result)
	assert.Equal(t, 1, result.ExitCode)
	assert.False(t, result.Vanished())
}

func TestRsync_MissingProgram(t *testing.T) {
	r := NewRsync(zap.NewNop(), WithProgram("definitely-not-rsync-binary"))
	assert.Error(t, r.Available())

	result, err := r.Transfer(context.Background(), Request{Sources: []string{"/a/"}, Dest: "/b/"})
	require.ErrorIs(t, err, ErrTransferFailed)
	assert.Equal(t, -1, result.ExitCode)
}

func TestRsync_RejectsEmptyRequest(t *testing.T) {
	r := NewRsync(zap.NewNop())
	_, err := r.Transfer(context.Background(), Request{Dest: "/b/"})
	assert.ErrorIs(t, err, ErrTransferFailed)
}

func TestRsync_FullTree(t *testing.T) {
	r := requireRsync(t)

	src := t.TempDir() + string(filepath.Separator)
	dst := t.TempDir() + string(filepath.Separator)
	require.NoError(t, os.WriteFile(filepath.Join(src, "x.txt"), []byte("hello"), 0644))

	_, err := r.Transfer(context.Background(), Request{Sources: []string{src}, Dest: dst})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dst, "x.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestRsync_RelativeKeepsSubtree(t *testing.T) {
	r := requireRsync(t)

	src := t.TempDir() + string(filepath.Separator)
	dst := t.TempDir() + string(filepath.Separator)
	require.NoError(t, os.MkdirAll(filepath.Join(src, "dir"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "dir", "y.txt"), []byte("y"), 0644))

	_, err := r.Transfer(context.Background(), Request{
		Sources:  []string{src + "./dir/y.txt"},
		Dest:     dst,
		Relative: true,
	})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dst, "dir", "y.txt"))
	require.NoError(t, err)
	assert.Equal(t, "y", string(data))
	assert.NoFileExists(t, filepath.Join(dst, "y.txt"))
}

func TestRsync_VanishedSource(t *testing.T) {
	r := requireRsync(t)

	src := t.TempDir() + string(filepath.Separator)
	dst := t.TempDir() + string(filepath.Separator)

	result, err := r.Transfer(context.Background(), Request{
		Sources:  []string{src + "./ghost.txt"},
		Dest:     dst,
		Relative: true,
	})
	require.ErrorIs(t, err, ErrTransferFailed)
	assert.True(t, result.Vanished())
}
