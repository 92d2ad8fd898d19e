package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

var (
	GatewayRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_requests_total",
			Help: "Total number of upstream platform requests by HTTP status",
		},
		[]string{"status"},
	)
	TokenRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "token_refreshes_total",
			Help: "Total number of OAuth token refreshes by result",
		},
		[]string{"result"},
	)
	TrackingEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracking_events_total",
			Help: "Total number of tracking events by type and outcome",
		},
		[]string{"type", "result"},
	)
	UpstreamDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "upstream_request_duration_seconds",
			Help:    "Duration of upstream platform requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func InitMetrics() {
	for _, c := range []prometheus.Collector{GatewayRequests, TokenRefreshes, TrackingEvents, UpstreamDuration} {
		if err := prometheus.Register(c); err != nil {
			log.Error().Err(err).Msg("Failed to register metric")
		}
	}
}
