package transfer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	exitPartial  = 23
	exitVanished = 24
)

type Options struct {
	Program      string
	ExtraArgs    []string
	StdoutWriter io.Writer
	StderrWriter io.Writer
}

type Option func(*Options)

func WithProgram(program string) Option {
	return func(o *Options) {
		if program != "" {
			o.Program = program
		}
	}
}

func WithExtraArgs(args ...string) Option {
	return func(o *Options) {
		o.ExtraArgs = append(o.ExtraArgs, args...)
	}
}

// WithConsole streams rsync's own output, which is where --progress
// lines end up.
func WithConsole(stdout, stderr io.Writer) Option {
	return func(o *Options) {
		o.StdoutWriter = stdout
		o.StderrWriter = stderr
	}
}

func Stdio() Option {
	return WithConsole(os.Stdout, os.Stderr)
}

type Rsync struct {
	opts Options
	log  *zap.Logger
}

func NewRsync(log *zap.Logger, opts ...Option) *Rsync {
	o := Options{Program: "rsync"}
	for _, opt := range opts {
		opt(&o)
	}

	return &Rsync{opts: o, log: log}
}

// Available checks that the rsync binary can be found.
func (r *Rsync) Available() error {
	if _, err := exec.LookPath(r.opts.Program); err != nil {
		return fmt.Errorf("transfer program %q not found: %w", r.opts.Program, err)
	}

	return nil
}

func (r *Rsync) Args(req Request) []string {
	args := []string{"--archive"}

	if req.Relative {
		args = append(args, "--relative")
	}
	if req.Checksum {
		args = append(args, "--checksum")
	}
	if req.Progress {
		args = append(args, "--progress")
	}
	if req.Delete {
		args = append(args, "--delete")
	}
	for _, pattern := range req.Excludes {
		args = append(args, "--exclude="+pattern)
	}

	args = append(args, r.opts.ExtraArgs...)
	args = append(args, "--")
	args = append(args, req.Sources...)
	args = append(args, req.Dest)

	return args
}

// Transfer runs rsync once and waits for it. A non-zero exit is returned
// as an error wrapping ErrTransferFailed, with the Result still filled in.
func (r *Rsync) Transfer(ctx context.Context, req Request) (*Result, error) {
	if len(req.Sources) == 0 || req.Dest == "" {
		return nil, fmt.Errorf("%w: sources and dest are required", ErrTransferFailed)
	}

	args := r.Args(req)
	cmd := exec.CommandContext(ctx, r.opts.Program, args...)

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = writers(&stdoutBuf, r.opts.StdoutWriter)
	cmd.Stderr = writers(&stderrBuf, r.opts.StderrWriter)

	r.log.Debug("running transfer",
		zap.String("program", r.opts.Program),
		zap.Strings("args", args))

	start := time.Now()
	err := cmd.Run()

	result := &Result{
		Stdout:   stdoutBuf.String(),
		Stderr:   stderrBuf.String(),
		Duration: time.Since(start),
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		result.ExitCode = 0
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	default:
		result.ExitCode = -1
	}

	if err != nil {
		result.Err = fmt.Errorf("%w: %s exited with %d: %w", ErrTransferFailed, r.opts.Program, result.ExitCode, err)
		return result, result.Err
	}

	return result, nil
}

func writers(buf *bytes.Buffer, extra io.Writer) io.Writer {
	if extra == nil {
		return buf
	}

	return io.MultiWriter(buf, extra)
}

func isVanished(exitCode int, stderr string) bool {
	switch exitCode {
	case exitVanished:
		return true
	case exitPartial:
		return strings.Contains(stderr, "No such file or directory") ||
			strings.Contains(stderr, "vanished")
	default:
		return false
	}
}
