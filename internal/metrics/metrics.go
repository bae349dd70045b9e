package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for the dashboard service.
// A nil *Metrics is valid and records nothing, so components can be built
// without a registry in tests.
type Metrics struct {
	// Feed
	EventsTotal   *prometheus.CounterVec // labels: kind
	DroppedEvents *prometheus.CounterVec // labels: reason
	LastEventTS   prometheus.Gauge

	// WebSocket sessions
	WSClients      prometheus.Gauge
	WSSendDrops    prometheus.Counter
	RendersTotal   prometheus.Counter
	RenderDuration prometheus.Histogram

	// REST
	HTTPRequests *prometheus.CounterVec   // labels: route, method, code
	HTTPDuration *prometheus.HistogramVec // labels: route

	// Outbound config/feed publishes
	PublishErrors *prometheus.CounterVec // labels: channel
}

// NewMetrics creates all metrics and registers them with reg. A nil reg
// uses the default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		EventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_feed_events_total",
			Help: "Feed events processed, by outcome kind",
		}, []string{"kind"}),
		DroppedEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_feed_dropped_total",
			Help: "Feed events dropped, by reason",
		}, []string{"reason"}),
		LastEventTS: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_feed_last_event_timestamp_seconds",
			Help: "Unix time of the last feed event",
		}),
		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_ws_clients",
			Help: "Connected WebSocket clients",
		}),
		WSSendDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dashboard_ws_send_drops_total",
			Help: "Messages dropped because a client send buffer was full",
		}),
		RendersTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dashboard_renders_total",
			Help: "Dashboard tables rendered",
		}),
		RenderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dashboard_render_duration_seconds",
			Help:    "Time to build one dashboard table",
			Buckets: []float64{0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_http_requests_total",
			Help: "REST requests by route, method and status code",
		}, []string{"route", "method", "code"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dashboard_http_request_duration_seconds",
			Help:    "REST request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		PublishErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_publish_errors_total",
			Help: "Failed Redis publishes by channel",
		}, []string{"channel"}),
	}

	reg.MustRegister(
		m.EventsTotal,
		m.DroppedEvents,
		m.LastEventTS,
		m.WSClients,
		m.WSSendDrops,
		m.RendersTotal,
		m.RenderDuration,
		m.HTTPRequests,
		m.HTTPDuration,
		m.PublishErrors,
	)
	return m
}

// ObserveEvent counts one feed event; reason is only used for drops.
func (m *Metrics) ObserveEvent(kind, reason string) {
	if m == nil {
		return
	}
	m.EventsTotal.WithLabelValues(kind).Inc()
	if reason != "" {
		m.DroppedEvents.WithLabelValues(reason).Inc()
	}
	m.LastEventTS.SetToCurrentTime()
}

// ClientConnected adjusts the WS client gauge by delta.
func (m *Metrics) ClientConnected(delta int) {
	if m == nil {
		return
	}
	m.WSClients.Add(float64(delta))
}

// SendDropped counts a message dropped for a slow client.
func (m *Metrics) SendDropped() {
	if m == nil {
		return
	}
	m.WSSendDrops.Inc()
}

// ObserveRender records one table build.
func (m *Metrics) ObserveRender(d time.Duration) {
	if m == nil {
		return
	}
	m.RendersTotal.Inc()
	m.RenderDuration.Observe(d.Seconds())
}

// ObserveHTTP records one REST request.
func (m *Metrics) ObserveHTTP(route, method string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(d.Seconds())
}

// PublishFailed counts a failed publish on channel.
func (m *Metrics) PublishFailed(channel string) {
	if m == nil {
		return
	}
	m.PublishErrors.WithLabelValues(channel).Inc()
}
