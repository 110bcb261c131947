// Package observability exposes the relay's Prometheus instruments.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	RelayedMessages   *prometheus.CounterVec
	DeliveryMisses    prometheus.Counter
	PersistFailures   prometheus.Counter
	ConnectedSessions prometheus.Gauge
	AdminConnected    prometheus.Gauge
	ProcessCPUPercent prometheus.Gauge
	ProcessResident   prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RelayedMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_messages_total",
			Help: "Chat messages relayed, by kind.",
		}, []string{"kind"}),
		DeliveryMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "relay_delivery_miss_total",
			Help: "Messages whose recipient was offline at send time.",
		}),
		PersistFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "relay_persist_failures_total",
			Help: "Asynchronous message appends that failed.",
		}),
		ConnectedSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "relay_connected_sessions",
			Help: "Live socket sessions, authenticated or not.",
		}),
		AdminConnected: factory.NewGauge(prometheus.GaugeOpts{
			Name: "relay_admin_connected",
			Help: "1 while the single admin slot is held.",
		}),
		ProcessCPUPercent: factory.NewGauge(prometheus.GaugeOpts{
			Name: "relay_process_cpu_percent",
			Help: "Server process CPU usage.",
		}),
		ProcessResident: factory.NewGauge(prometheus.GaugeOpts{
			Name: "relay_process_resident_bytes",
			Help: "Server process resident memory.",
		}),
	}
}
