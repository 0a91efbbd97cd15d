// Package metrics defines prometheus metrics to expose
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "docclassify_request_duration_seconds",
			Help:    "Total time taken for HTTP requests in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint", "method"},
	)

	ResponseCodes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docclassify_response_codes_total",
			Help: "HTTP responses by endpoint and status code",
		},
		[]string{"endpoint", "status"},
	)

	ClassifyDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "docclassify_classify_duration_seconds",
			Help:    "Time spent inside the classifier in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"algorithm"},
	)

	ClassifyCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docclassify_classify_total",
			Help: "Classification requests by algorithm and outcome",
		},
		[]string{"algorithm", "outcome"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docclassify_cache_lookups_total",
			Help: "Response cache lookups by result",
		},
		[]string{"result"},
	)

	OpenStreams = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "docclassify_open_streams",
			Help: "Currently open classification websocket streams",
		},
	)
)
