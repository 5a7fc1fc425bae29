package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	EventsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "booking_events_published_total",
		Help: "Booking events acknowledged by the broker",
	})
	PublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "booking_events_publish_failures_total",
		Help: "Booking events that failed delivery after broker-side retries",
	})
	EventsConsumed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "booking_events_consumed_total",
		Help: "Booking events handed to the history writer",
	})
	DuplicatesSuppressed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "booking_events_duplicates_suppressed_total",
		Help: "Redelivered booking events dropped by idempotent persistence",
	})
)

// Serve exposes /metrics on its own port, detached from the service port.
func Serve(port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		addr := fmt.Sprintf(":%d", port)
		log.Info().Str("addr", addr).Msg("Metrics server started")
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Error().Err(err).Msg("Metrics server failed")
		}
	}()
}
