package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type PrometheusCollector struct {
	// Counters
	proxyRequestsTotal *prometheus.CounterVec
	proxyBytesTotal    prometheus.Counter
	tokenAttemptsTotal *prometheus.CounterVec
	relayMessagesTotal *prometheus.CounterVec

	// Gauges
	relaySessionsActive prometheus.Gauge

	// Histograms
	upstreamFetchDuration  prometheus.Histogram
	channelRequestDuration prometheus.Histogram
}

func NewPrometheusCollector() *PrometheusCollector {
	return &PrometheusCollector{
		proxyRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "streamgate_proxy_requests_total",
			Help: "Proxy fetch requests by outcome",
		}, []string{"outcome"}),

		proxyBytesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "streamgate_proxy_bytes_total",
			Help: "Total bytes relayed through the proxy fetch endpoint",
		}),

		tokenAttemptsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "streamgate_token_attempts_total",
			Help: "Playback token negotiation attempts by profile and outcome",
		}, []string{"profile", "outcome"}),

		relayMessagesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "streamgate_relay_messages_total",
			Help: "Messages forwarded by the transcription relay, by direction",
		}, []string{"direction"}),

		relaySessionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "streamgate_relay_sessions_active",
			Help: "Currently open transcription relay sessions",
		}),

		upstreamFetchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "streamgate_upstream_fetch_duration_seconds",
			Help:    "Duration of upstream HTTP fetches",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 15},
		}),

		channelRequestDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "streamgate_channel_request_duration_seconds",
			Help:    "Duration of full channel-info requests",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
	}
}

func (c *PrometheusCollector) ProxyRequest(outcome string) {
	c.proxyRequestsTotal.WithLabelValues(outcome).Inc()
}

func (c *PrometheusCollector) ProxyBytes(n int64) {
	if n > 0 {
		c.proxyBytesTotal.Add(float64(n))
	}
}

func (c *PrometheusCollector) TokenAttempt(profile, outcome string) {
	c.tokenAttemptsTotal.WithLabelValues(profile, outcome).Inc()
}

func (c *PrometheusCollector) RelayMessage(direction string) {
	c.relayMessagesTotal.WithLabelValues(direction).Inc()
}

func (c *PrometheusCollector) RelaySessionOpened() {
	c.relaySessionsActive.Inc()
}

func (c *PrometheusCollector) RelaySessionClosed() {
	c.relaySessionsActive.Dec()
}

func (c *PrometheusCollector) ObserveUpstreamFetch(d time.Duration) {
	c.upstreamFetchDuration.Observe(d.Seconds())
}

func (c *PrometheusCollector) ObserveChannelRequest(d time.Duration) {
	c.channelRequestDuration.Observe(d.Seconds())
}
