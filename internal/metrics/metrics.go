package metrics

import (
	"syncwatch/internal/model"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "syncwatch"

// Collector is safe to use as a nil pointer; every method is then a no-op.
type Collector struct {
	events    *prometheus.CounterVec
	transfers *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	state     prometheus.Gauge
}

func New(reg prometheus.Registerer) *Collector {
	f := promauto.With(reg)

	return &Collector{
		events: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Change events received from the event source, by filter outcome.",
		}, []string{"outcome"}),
		transfers: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transfers_total",
			Help:      "Transfer invocations, by kind and status.",
		}, []string{"kind", "status"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transfer_duration_seconds",
			Help:      "Wall time of transfer invocations.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}, []string{"kind"}),
		state: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "monitor_state",
			Help:      "Current monitor state (0 idle, 1 watching, 2 filtering, 3 propagating, 4 stopped).",
		}),
	}
}

func (c *Collector) EventAccepted() {
	if c == nil {
		return
	}
	c.events.WithLabelValues("accepted").Inc()
}

func (c *Collector) EventDropped() {
	if c == nil {
		return
	}
	c.events.WithLabelValues("dropped").Inc()
}

func (c *Collector) ObserveTransfer(kind model.SyncKind, status model.SyncStatus, d time.Duration) {
	if c == nil {
		return
	}
	c.transfers.WithLabelValues(string(kind), string(status)).Inc()
	c.duration.WithLabelValues(string(kind)).Observe(d.Seconds())
}

func (c *Collector) SetState(state int) {
	if c == nil {
		return
	}
	c.state.Set(float64(state))
}
