package model

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

type TransferOptions struct {
	Progress bool
	Delete   bool
}

// WatchSpec is built once at startup and passed by value; nothing
// modifies it afterwards.
type WatchSpec struct {
	SourceRoot   string
	DestRoot     string
	Exclude      *regexp.Regexp
	IgnoreList   []string
	UseChecksum  bool
	Poll         bool
	PollInterval time.Duration
	Transfer     TransferOptions
}

func (s WatchSpec) Mode() string {
	if s.Poll {
		return "poll"
	}

	return "notify"
}

// NewWatchSpec resolves both roots and makes sure each ends in a path
// separator. Remote rsync destinations (host:path) are kept as given.
func NewWatchSpec(src, dst string) (WatchSpec, error) {
	if src == "" || dst == "" {
		return WatchSpec{}, fmt.Errorf("source and destination are required")
	}

	absSrc, err := filepath.Abs(src)
	if err != nil {
		return WatchSpec{}, fmt.Errorf("invalid src path: %w", err)
	}

	info, err := os.Stat(absSrc)
	if err != nil {
		return WatchSpec{}, fmt.Errorf("source directory not found: %w", err)
	}
	if !info.IsDir() {
		return WatchSpec{}, fmt.Errorf("source %s is not a directory", absSrc)
	}

	if !IsRemote(dst) {
		dst, err = filepath.Abs(dst)
		if err != nil {
			return WatchSpec{}, fmt.Errorf("invalid dst path: %w", err)
		}
	}

	return WatchSpec{
		SourceRoot: WithTrailingSeparator(absSrc),
		DestRoot:   WithTrailingSeparator(dst),
	}, nil
}

func WithTrailingSeparator(path string) string {
	if strings.HasSuffix(path, "/") || strings.HasSuffix(path, string(filepath.Separator)) {
		return path
	}

	return path + string(filepath.Separator)
}

// IsRemote reports whether dst uses rsync's host:path syntax. A colon
// after the first slash, or a Windows drive letter, does not count.
func IsRemote(dst string) bool {
	i := strings.Index(dst, ":")
	if i <= 0 {
		return false
	}
	if i == 1 && filepath.VolumeName(dst) != "" {
		return false
	}

	return !strings.ContainsAny(dst[:i], `/\`)
}
