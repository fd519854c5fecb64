package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tastebook_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tastebook_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	placeRecomputes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tastebook_place_recomputes_total",
		Help: "Place aggregate recomputations by result",
	}, []string{"result"})

	placeRecomputeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tastebook_place_recompute_duration_seconds",
		Help:    "Duration of place aggregate recomputations",
		Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
	})

	compositeVisits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tastebook_composite_visits_total",
		Help: "Visits created together with their foods, by result",
	}, []string{"result"})

	foodGetOrCreate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tastebook_food_get_or_create_total",
		Help: "Food lookups by name during composite visits, by outcome (matched, created, raced)",
	}, []string{"outcome"})

	scopeDenials = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tastebook_scope_denials_total",
		Help: "Writes refused by the household scoping policy, by reason",
	}, []string{"reason"})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, route, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	httpRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

// ObserveRecompute records one place aggregate recomputation
func ObserveRecompute(result string, duration time.Duration) {
	placeRecomputes.WithLabelValues(result).Inc()
	placeRecomputeDuration.Observe(duration.Seconds())
}

// ObserveCompositeVisit records the outcome of a composite visit transaction
func ObserveCompositeVisit(result string) {
	compositeVisits.WithLabelValues(result).Inc()
}

// ObserveFoodResolution records how a food named in a composite visit was resolved
func ObserveFoodResolution(outcome string) {
	foodGetOrCreate.WithLabelValues(outcome).Inc()
}

// ObserveScopeDenial records a write refused by the scoping policy
func ObserveScopeDenial(reason string) {
	scopeDenials.WithLabelValues(reason).Inc()
}
