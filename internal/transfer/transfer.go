// Package transfer drives rsync, the primitive that actually moves data
// from the source tree to the destination.
package transfer

import (
	"context"
	"errors"
	"time"
)

var ErrTransferFailed = errors.New("transfer failed")

// Request describes one rsync invocation. Sources are passed verbatim,
// so a relative request carries the "/root/./sub/path" form.
type Request struct {
	Sources  []string
	Dest     string
	Relative bool
	Checksum bool
	Progress bool
	Delete   bool
	Excludes []string
}

type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
	Err      error
}

// Vanished reports whether the failure only came from source files that
// disappeared before rsync got to them.
func (r *Result) Vanished() bool {
	if r == nil || r.Err == nil {
		return false
	}

	return isVanished(r.ExitCode, r.Stderr)
}

type Transferer interface {
	Transfer(ctx context.Context, req Request) (*Result, error)
}

type TransferFunc func(ctx context.Context, req Request) (*Result, error)

func (fn TransferFunc) Transfer(ctx context.Context, req Request) (*Result, error) {
	return fn(ctx, req)
}
