package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type PrometheusCollector struct {
	// Gauges
	connectionsActive prometheus.Gauge
	channelsActive    prometheus.Gauge

	// Counters
	channelsCreatedTotal  prometheus.Counter
	channelsExpiredTotal  prometheus.Counter
	signalsForwardedTotal *prometheus.CounterVec
	chatMessagesTotal     prometheus.Counter
	errorsTotal           *prometheus.CounterVec
}

// NewPrometheusCollector registers the relay's metrics with reg. Pass
// prometheus.DefaultRegisterer in production.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	factory := promauto.With(reg)

	return &PrometheusCollector{
		connectionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "beamcast_connections_active",
			Help: "Number of live websocket connections",
		}),

		channelsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "beamcast_channels_active",
			Help: "Number of live (non-expired) channels",
		}),

		channelsCreatedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "beamcast_channels_created_total",
			Help: "Total number of channels created by broadcasters",
		}),

		channelsExpiredTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "beamcast_channels_expired_total",
			Help: "Total number of channels dropped by TTL expiry",
		}),

		signalsForwardedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "beamcast_signals_forwarded_total",
			Help: "Total handshake messages forwarded, by kind",
		}, []string{"kind"}),

		chatMessagesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "beamcast_chat_messages_total",
			Help: "Total chat messages relayed to broadcasters",
		}),

		errorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "beamcast_errors_total",
			Help: "Total errors reported to senders, by code",
		}, []string{"code"}),
	}
}

func (c *PrometheusCollector) SetConnectionsActive(n int) {
	c.connectionsActive.Set(float64(n))
}

func (c *PrometheusCollector) SetChannelsActive(n int) {
	c.channelsActive.Set(float64(n))
}

func (c *PrometheusCollector) IncChannelsCreated() {
	c.channelsCreatedTotal.Inc()
}

func (c *PrometheusCollector) IncChannelsExpired() {
	c.channelsExpiredTotal.Inc()
}

func (c *PrometheusCollector) IncSignalForwarded(kind string) {
	c.signalsForwardedTotal.WithLabelValues(kind).Inc()
}

func (c *PrometheusCollector) IncChatMessages() {
	c.chatMessagesTotal.Inc()
}

func (c *PrometheusCollector) IncError(code string) {
	c.errorsTotal.WithLabelValues(code).Inc()
}
