package syncer

import (
	"errors"
	"syncwatch/internal/model"
)

var (
	ErrSubscriptionLost = errors.New("event source subscription lost")
	ErrBaselineFailed   = errors.New("baseline synchronization failed")
)

type EventSource interface {
	Events() <-chan model.ChangeEvent
	Err() error
	Stop()
}

// SubscribeFunc opens the event source. The monitor calls it once, after
// the baseline has run.
type SubscribeFunc func() (EventSource, error)

type Recorder interface {
	Save(result model.SyncResult) error
}
