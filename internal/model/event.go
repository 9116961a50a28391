package model

import (
	"path/filepath"
	"time"
)

type EventOp string

const (
	OpCreate EventOp = "CREATE"
	OpWrite  EventOp = "WRITE"
	OpRemove EventOp = "REMOVE"
	OpRename EventOp = "RENAME"
)

// ChangeEvent is a single notification that Path, somewhere under the
// watch root, was created, modified or removed.
type ChangeEvent struct {
	Op   EventOp
	Path string
	Time time.Time
}

// RelativeMarker separates the part of a source path rsync --relative
// should drop from the part it reproduces at the destination.
const RelativeMarker = "." + string(filepath.Separator)

// RelativeChange is a changed path split at the watch root boundary.
// Root+RelativePath always equals the original absolute path.
type RelativeChange struct {
	Root         string
	RelativePath string
}

func (c RelativeChange) Path() string {
	return c.Root + c.RelativePath
}

// Source renders the change as an rsync --relative source argument,
// e.g. "/a/./dir/y.txt".
func (c RelativeChange) Source() string {
	return WithTrailingSeparator(c.Root) + RelativeMarker + c.RelativePath
}

type SyncKind string

const (
	KindBaseline SyncKind = "BASELINE"
	KindChange   SyncKind = "CHANGE"
)

// SyncResult is the outcome of one transfer invocation.
type SyncResult struct {
	Kind     SyncKind
	Event    *ChangeEvent
	Source   string
	Dest     string
	ExitCode int
	Vanished bool
	Duration time.Duration
	Err      error
}

func (r SyncResult) Status() SyncStatus {
	switch {
	case r.Err == nil:
		return StatusSuccess
	case r.Vanished:
		return StatusVanished
	default:
		return StatusFailed
	}
}
