package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bnema/karmabot/internal/domain"
	"github.com/bnema/karmabot/internal/ports"
)

const namespace = "karmabot"

// Metrics records bot activity as Prometheus collectors.
type Metrics struct {
	linesReceived  prometheus.Counter
	protocolErrors *prometheus.CounterVec
	commands       *prometheus.CounterVec
	storeErrors    prometheus.Counter
	storeDuration  *prometheus.HistogramVec
	reconnects     prometheus.Counter
	connected      prometheus.Gauge
}

var _ ports.Telemetry = (*Metrics)(nil)

// NewMetrics creates the collectors and registers them on registerer.
func NewMetrics(registerer prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		linesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_received_total",
			Help:      "Inbound IRC lines read from the server.",
		}),
		protocolErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "protocol_errors_total",
			Help:      "Inbound lines skipped as oversized or malformed.",
		}, []string{"kind"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Chat commands executed, by kind.",
		}, []string{"kind"}),
		storeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_errors_total",
			Help:      "Karma store calls that failed.",
		}),
		storeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_duration_seconds",
			Help:      "Karma store call latency.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"op"}),
		reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconnects_total",
			Help:      "Reconnect attempts after a lost connection.",
		}),
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connected",
			Help:      "1 while a registered session is active.",
		}),
	}

	for _, collector := range []prometheus.Collector{
		m.linesReceived,
		m.protocolErrors,
		m.commands,
		m.storeErrors,
		m.storeDuration,
		m.reconnects,
		m.connected,
	} {
		if err := registerer.Register(collector); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *Metrics) LineReceived() {
	m.linesReceived.Inc()
}

func (m *Metrics) ProtocolError(kind string) {
	m.protocolErrors.WithLabelValues(kind).Inc()
}

func (m *Metrics) CommandExecuted(kind domain.CommandKind) {
	m.commands.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) StoreCall(op string, elapsed time.Duration, err error) {
	m.storeDuration.WithLabelValues(op).Observe(elapsed.Seconds())
	if err != nil {
		m.storeErrors.Inc()
	}
}

func (m *Metrics) SessionConnected(connected bool) {
	if connected {
		m.connected.Set(1)
		return
	}
	m.connected.Set(0)
}

func (m *Metrics) Reconnecting() {
	m.reconnects.Inc()
}
