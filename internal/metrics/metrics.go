package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "phishsim_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "phishsim_http_request_duration_seconds",
			Help:    "Histogram of response durations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	// TrackingEvents counts first occurrences only
	TrackingEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "phishsim_tracking_events_total",
			Help: "Number of first-occurrence open, click and submit events",
		},
		[]string{"kind"},
	)

	EmailsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "phishsim_emails_total",
			Help: "Campaign emails by delivery outcome",
		},
		[]string{"outcome"},
	)
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(RequestCount, RequestDuration, TrackingEvents, EmailsSent)
}
