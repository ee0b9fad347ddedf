// Package metrics exposes Prometheus collectors for PTY session traffic.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors shared by all sessions of a process.
type Metrics struct {
	BytesRead      prometheus.Counter
	ChunksRead     prometheus.Counter
	BytesWritten   prometheus.Counter
	WriteErrors    prometheus.Counter
	ResizeErrors   prometheus.Counter
	SessionsOpen   prometheus.Gauge
	SessionsClosed *prometheus.CounterVec
	LogDropped     prometheus.Counter
}

// New registers the collectors with reg. A nil reg leaves them unregistered,
// which is what tests and short-lived tools want.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		BytesRead: factory.NewCounter(prometheus.CounterOpts{
			Name: "ravencore_pty_read_bytes_total",
			Help: "Bytes read from PTYs",
		}),
		ChunksRead: factory.NewCounter(prometheus.CounterOpts{
			Name: "ravencore_pty_read_chunks_total",
			Help: "Chunks forwarded by reader goroutines",
		}),
		BytesWritten: factory.NewCounter(prometheus.CounterOpts{
			Name: "ravencore_pty_write_bytes_total",
			Help: "Bytes written to PTYs",
		}),
		WriteErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "ravencore_pty_write_errors_total",
			Help: "Failed PTY writes",
		}),
		ResizeErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "ravencore_pty_resize_errors_total",
			Help: "Failed PTY resizes",
		}),
		SessionsOpen: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ravencore_sessions_open",
			Help: "Sessions whose PTY is still connected",
		}),
		SessionsClosed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ravencore_sessions_closed_total",
			Help: "Sessions that left the open state, by final state",
		}, []string{"state"}),
		LogDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "ravencore_session_log_dropped_total",
			Help: "Session log entries evicted by the size bound",
		}),
	}
}
