package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the session server collectors.
type Metrics struct {
	subscribers prometheus.Gauge
	frames      *prometheus.CounterVec
	frameBytes  prometheus.Counter
	events      *prometheus.CounterVec
	dropped     prometheus.Counter
}

// NewMetrics registers the server collectors with reg under namespace.
// A nil reg uses the default registerer.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "vtree"
	}
	factory := promauto.With(reg)

	return &Metrics{
		subscribers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "subscribers",
			Help:      "Number of connected websocket subscribers",
		}),
		frames: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "frames_sent_total",
			Help:      "Frames written to subscribers by frame type",
		}, []string{"type"}),
		frameBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "frame_bytes_sent_total",
			Help:      "Bytes written to subscribers",
		}),
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "events_total",
			Help:      "Event frames received by outcome",
		}, []string{"outcome"}),
		dropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "subscribers_dropped_total",
			Help:      "Subscribers disconnected because their send queue was full",
		}),
	}
}

func (m *Metrics) frameSent(data []byte) {
	if m == nil || len(data) == 0 {
		return
	}
	m.frames.WithLabelValues(frameTypeOf(data)).Inc()
	m.frameBytes.Add(float64(len(data)))
}

func (m *Metrics) event(outcome string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(outcome).Inc()
}

func (m *Metrics) subscriberAdded() {
	if m != nil {
		m.subscribers.Inc()
	}
}

func (m *Metrics) subscriberRemoved() {
	if m != nil {
		m.subscribers.Dec()
	}
}

func (m *Metrics) subscriberDropped() {
	if m != nil {
		m.dropped.Inc()
	}
}
