package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gophrt"

// Poll results used as the "result" label.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Client records polling metrics on a private registry. A nil *Client is a no-op.
type Client struct {
	registry     *prometheus.Registry
	polls        *prometheus.CounterVec
	samples      *prometheus.CounterVec
	cursor       *prometheus.GaugeVec
	delay        *prometheus.GaugeVec
	pollDuration *prometheus.HistogramVec
}

// New creates a Client with every collector registered.
func New() *Client {
	c := &Client{
		registry: prometheus.NewRegistry(),
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_total",
			Help:      "Consecutive polls of the real-time API by result.",
		}, []string{"kind", "result"}),
		samples: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_total",
			Help:      "Samples produced from real-time responses.",
		}, []string{"kind"}),
		cursor: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cursor_timestamp",
			Help:      "Timestamp the next consecutive poll starts from.",
		}, []string{"kind"}),
		delay: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "aggregate_delay_seconds",
			Help:      "Processing lag reported by the last response.",
		}, []string{"kind"}),
		pollDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "poll_duration_seconds",
			Help:      "Latency of consecutive polls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
	}

	c.registry.MustRegister(c.polls, c.samples, c.cursor, c.delay, c.pollDuration)
	return c
}

// ObservePoll records one poll attempt and its latency.
func (c *Client) ObservePoll(kind string, took time.Duration, err error) {
	if c == nil {
		return
	}

	result := ResultOK
	if err != nil {
		result = ResultError
	}
	c.polls.WithLabelValues(kind, result).Inc()
	c.pollDuration.WithLabelValues(kind).Observe(took.Seconds())
}

// ObserveResponse records the cursor, the delay and the number of samples of a successful poll.
func (c *Client) ObserveResponse(kind string, timestamp, aggregateDelay uint64, samples int) {
	if c == nil {
		return
	}

	c.cursor.WithLabelValues(kind).Set(float64(timestamp))
	c.delay.WithLabelValues(kind).Set(float64(aggregateDelay))
	c.samples.WithLabelValues(kind).Add(float64(samples))
}

// Handler exposes the registry in the Prometheus text format.
func (c *Client) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
