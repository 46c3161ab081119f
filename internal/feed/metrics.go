package feed

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics are the feed server's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	FramesTotal   *prometheus.CounterVec // labels: result=ok|too_short|bad_marker|checksum_mismatch|payload_too_short
	RecordsTotal  *prometheus.CounterVec // labels: kind=heart_rate|metadata
	Subscribers   prometheus.Gauge
	DroppedEvents prometheus.Counter
	LastHeartRate prometheus.Gauge
}

// NewMetrics registers the feed collectors, plus the Go and process
// collectors, on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		FramesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "whoomp_frames_total",
			Help: "Frames received by the feed, by parse result.",
		}, []string{"result"}),
		RecordsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "whoomp_records_total",
			Help: "Decoded records by kind.",
		}, []string{"kind"}),
		Subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "whoomp_ws_subscribers",
			Help: "Current number of websocket subscribers.",
		}),
		DroppedEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "whoomp_ws_dropped_events_total",
			Help: "Events dropped because a subscriber was too slow.",
		}),
		LastHeartRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "whoomp_heart_rate_bpm",
			Help: "Most recent decoded heart rate.",
		}),
	}
	reg.MustRegister(m.FramesTotal, m.RecordsTotal, m.Subscribers, m.DroppedEvents, m.LastHeartRate)
	return m
}

// Registry returns the registry the collectors live in.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus exposition handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
