package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the Prometheus instruments for the simulation loop and
// the subscription feed, registered on a dedicated registry.
type Collector struct {
	registry *prometheus.Registry

	TicksTotal          prometheus.Counter
	BroadcastsTotal     prometheus.Counter
	VehiclesServedTotal prometheus.Counter
	TotalRevenue        prometheus.Gauge
	QueueLength         prometheus.Gauge
	Subscribers         prometheus.Gauge
}

// NewCollector registers the simulation metrics on a fresh registry.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	ticks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "simulation_ticks_total",
		Help: "Total number of executed simulation ticks.",
	})
	broadcasts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "simulation_broadcasts_total",
		Help: "Total number of feed broadcasts that reached at least one subscriber.",
	})
	served := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "simulation_vehicles_served_total",
		Help: "Total number of vehicles whose fueling visit finished.",
	})
	revenue := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "simulation_total_revenue",
		Help: "Current accumulated station revenue.",
	})
	queueLength := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "simulation_queue_length",
		Help: "Current number of vehicles waiting in the queue.",
	})
	subscribers := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "feed_subscribers",
		Help: "Current number of websocket subscribers.",
	})

	registry.MustRegister(ticks, broadcasts, served, revenue, queueLength, subscribers)

	return &Collector{
		registry:            registry,
		TicksTotal:          ticks,
		BroadcastsTotal:     broadcasts,
		VehiclesServedTotal: served,
		TotalRevenue:        revenue,
		QueueLength:         queueLength,
		Subscribers:         subscribers,
	}
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
