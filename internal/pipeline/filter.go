package pipeline

import (
	"errors"
	"io/fs"
	"os"
	"syscall"
	"syncwatch/internal/model"
)

type EventFilter interface {
	Accept(event model.ChangeEvent) bool
}

// ExistsFilter drops events for paths that are gone by the time they are
// looked at, e.g. editor swap files that were created and removed again.
// A parent that was replaced by a regular file counts as gone too.
type ExistsFilter struct {
	lstat func(string) (os.FileInfo, error)
}

func NewExistsFilter() *ExistsFilter {
	return &ExistsFilter{lstat: os.Lstat}
}

func (f *ExistsFilter) Accept(event model.ChangeEvent) bool {
	_, err := f.lstat(event.Path)
	return !errors.Is(err, fs.ErrNotExist) && !errors.Is(err, syscall.ENOTDIR)
}

type FilterFunc func(event model.ChangeEvent) bool

func (fn FilterFunc) Accept(event model.ChangeEvent) bool {
	return fn(event)
}
