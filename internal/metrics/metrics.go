package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "karaoke",
			Name:      "booking_created_total",
			Help:      "Count of bookings created by initial status.",
		},
		[]string{"status"},
	)

	bookingRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "karaoke",
			Name:      "booking_rejected_total",
			Help:      "Count of booking requests rejected by reason.",
		},
		[]string{"reason"},
	)

	statusChanged = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "karaoke",
			Name:      "booking_status_changed_total",
			Help:      "Count of booking status transitions by target status.",
		},
		[]string{"status"},
	)

	priceCacheMiss = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "karaoke",
			Name:      "price_rule_cache_miss_total",
			Help:      "Count of price-rule lookups that fell through to the database.",
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookingCreated, bookingRejected, statusChanged, priceCacheMiss)
	})
}

func IncBookingCreated(status string) {
	bookingCreated.WithLabelValues(status).Inc()
}

func IncBookingRejected(reason string) {
	bookingRejected.WithLabelValues(reason).Inc()
}

func IncStatusChanged(status string) {
	statusChanged.WithLabelValues(status).Inc()
}

func IncPriceCacheMiss() {
	priceCacheMiss.Inc()
}
