// Package metrics holds the Prometheus counters for the click pipeline.
// HTTP request metrics live in the transport middleware.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Persistence stages.
const (
	StageDedupe    = "dedupe"
	StageInsert    = "insert"
	StageIncrement = "increment"
	StagePublish   = "publish"
)

// Geo lookup sources and results.
const (
	GeoSourceHeaders  = "headers"
	GeoSourcePrivate  = "private"
	GeoSourceCache    = "cache"
	GeoSourceProvider = "provider"

	GeoResultHit   = "hit"
	GeoResultEmpty = "empty"
	GeoResultError = "error"
)

var (
	clicksTracked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clicktrack_clicks_tracked_total",
			Help: "Click events persisted, split by whether they counted as unique",
		},
		[]string{"unique"},
	)

	rateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clicktrack_rate_limited_total",
			Help: "Requests rejected by a rate limiter",
		},
		[]string{"limiter"},
	)

	geoLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clicktrack_geo_lookups_total",
			Help: "Geo resolutions by source and result",
		},
		[]string{"source", "result"},
	)

	persistenceFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clicktrack_persistence_failures_total",
			Help: "Tracking steps that failed without failing the request",
		},
		[]string{"stage"},
	)
)

func ClickTracked(unique bool) {
	clicksTracked.WithLabelValues(strconv.FormatBool(unique)).Inc()
}

func RateLimited(limiter string) {
	rateLimited.WithLabelValues(limiter).Inc()
}

func GeoLookup(source, result string) {
	geoLookups.WithLabelValues(source, result).Inc()
}

func PersistenceFailure(stage string) {
	persistenceFailures.WithLabelValues(stage).Inc()
}
