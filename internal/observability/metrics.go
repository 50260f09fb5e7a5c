package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the bot.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	ActiveSessions    prometheus.Gauge
	QueueOps          *prometheus.CounterVec
	SelectionOutcomes *prometheus.CounterVec
	Notifications     *prometheus.CounterVec
	ResolverCalls     *prometheus.CounterVec
	CommandRuns       *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// NewMetrics registers the instruments with reg. A nil reg means the
// default Prometheus registry.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	} else if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}
	f := promauto.With(reg)

	return &Metrics{
		ActiveSessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of guilds with a live voice session.",
		}),
		QueueOps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queue_operations_total",
			Help:      "Queue operations by operation and result.",
		}, []string{"op", "result"}),
		SelectionOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "selection_outcomes_total",
			Help:      "Interactive selection flows by outcome.",
		}, []string{"outcome"}),
		Notifications: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "now_playing_notifications_total",
			Help:      "Now playing notifications by result.",
		}, []string{"result"}),
		ResolverCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolver_calls_total",
			Help:      "Resolver gateway calls by operation and result.",
		}, []string{"op", "result"}),
		CommandRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "command_runs_total",
			Help:      "Command invocations by command and result.",
		}, []string{"command", "result"}),
		gatherer: gatherer,
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.ActiveSessions.Inc()
}

func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.ActiveSessions.Dec()
}

// QueueOp counts one queue operation.
func (m *Metrics) QueueOp(op string, err error) {
	if m == nil {
		return
	}
	m.QueueOps.WithLabelValues(op, result(err)).Inc()
}

// Selection counts a finished selection flow by outcome name.
func (m *Metrics) Selection(outcome string) {
	if m == nil {
		return
	}
	m.SelectionOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Notification(err error) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) ResolverCall(op string, err error) {
	if m == nil {
		return
	}
	m.ResolverCalls.WithLabelValues(op, result(err)).Inc()
}

func (m *Metrics) CommandRun(name string, err error) {
	if m == nil {
		return
	}
	m.CommandRuns.WithLabelValues(name, result(err)).Inc()
}

// Handler serves the registry the metrics were registered with.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == prometheus.DefaultGatherer {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
