package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saltandlight_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "saltandlight_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	prayerInteractionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saltandlight_prayer_interactions_total",
			Help: "Prayer interactions by type and outcome.",
		},
		[]string{"type", "result"},
	)
	notificationsCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saltandlight_prayer_notifications_created_total",
			Help: "Prayer notifications inserted, by notification type.",
		},
		[]string{"type"},
	)
	notificationDeliveryErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saltandlight_notification_delivery_errors_total",
			Help: "Failed push or event deliveries.",
		},
		[]string{"channel"},
	)
	metricsOnce sync.Once
)

func InitMetrics(reg prometheus.Registerer) {
	metricsOnce.Do(func() {
		reg.MustRegister(
			httpRequestsTotal,
			httpRequestDuration,
			prayerInteractionsTotal,
			notificationsCreatedTotal,
			notificationDeliveryErrorsTotal,
		)
	})
}

func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unknown"
	}
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// IncPrayerInteraction counts an interaction attempt. result is "created",
// "noop" or "removed".
func IncPrayerInteraction(interactionType, result string) {
	prayerInteractionsTotal.WithLabelValues(interactionType, result).Inc()
}

func AddNotificationsCreated(notificationType string, n int) {
	if n <= 0 {
		return
	}
	notificationsCreatedTotal.WithLabelValues(notificationType).Add(float64(n))
}

func IncDeliveryError(channel string) {
	notificationDeliveryErrorsTotal.WithLabelValues(channel).Inc()
}
