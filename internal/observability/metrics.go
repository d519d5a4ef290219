// README: Prometheus metrics for the API and the metering scheduler.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ReservationsCreated = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ecoscoot", Name: "reservations_created_total", Help: "Reservations created"})
	ReservationsExpired = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ecoscoot", Name: "reservations_expired_total", Help: "Reservations expired by the sweep"})
	RidesStarted        = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ecoscoot", Name: "rides_started_total", Help: "Rides started"})
	RidesEnded          = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ecoscoot", Name: "rides_ended_total", Help: "Rides ended, by actor"},
		[]string{"actor"},
	)

	MeterCharges = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ecoscoot", Name: "meter_charges_total", Help: "Per-minute charges applied by the scheduler"})
	MeterErrors  = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ecoscoot", Name: "meter_errors_total", Help: "Per-ride errors during a metering sweep"})
	MeterTick    = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "ecoscoot",
		Name:      "meter_tick_duration_seconds",
		Help:      "Duration of one metering sweep over all active rides",
		Buckets:   prometheus.DefBuckets,
	})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ecoscoot", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
)
