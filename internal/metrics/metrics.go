package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the order flow counters. Each instance registers on its own
// registry so tests can build as many as they like.
type Metrics struct {
	Registry      *prometheus.Registry
	OrdersPlaced  prometheus.Counter
	Aborts        *prometheus.CounterVec
	Compensations *prometheus.CounterVec
	FlagFailures  prometheus.Counter
	Notifications *prometheus.CounterVec
	Remaining     prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		OrdersPlaced: factory.NewCounter(prometheus.CounterOpts{
			Name: "swagportal_orders_placed_total",
			Help: "Orders that completed placement",
		}),
		Aborts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "swagportal_order_aborts_total",
			Help: "Aborted placements by kind",
		}, []string{"kind"}),
		Compensations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "swagportal_inventory_compensations_total",
			Help: "Inventory releases after a failed order write, by outcome",
		}, []string{"outcome"}),
		FlagFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "swagportal_user_flag_failures_total",
			Help: "Orders whose user flag update failed after the order was written",
		}),
		Notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "swagportal_notifications_total",
			Help: "Notification attempts by channel and outcome",
		}, []string{"channel", "outcome"}),
		Remaining: factory.NewGauge(prometheus.GaugeOpts{
			Name: "swagportal_inventory_remaining",
			Help: "Last observed available quantity",
		}),
	}
}

func (m *Metrics) OrderPlaced(remaining int) {
	m.OrdersPlaced.Inc()
	m.Remaining.Set(float64(remaining))
}

func (m *Metrics) Aborted(kind string) {
	m.Aborts.WithLabelValues(kind).Inc()
}

func (m *Metrics) Compensated(ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	m.Compensations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) FlagFailed() {
	m.FlagFailures.Inc()
}

func (m *Metrics) Notified(channel string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "failed"
	}
	m.Notifications.WithLabelValues(channel, outcome).Inc()
}
