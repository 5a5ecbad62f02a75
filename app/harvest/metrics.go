package harvest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	listingFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cima_listing_fetches_total",
		Help: "Listing page fetches by source and result.",
	}, []string{"source", "result"})

	detailFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cima_detail_fetches_total",
		Help: "Detail page fetches by result.",
	}, []string{"result"})

	reconciledItems = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cima_reconciled_items_total",
		Help: "Reconciled candidates by outcome.",
	}, []string{"outcome"})

	pipelineRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cima_pipeline_runs_total",
		Help: "Pipeline runs by result.",
	}, []string{"result"})

	pipelineDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cima_pipeline_duration_seconds",
		Help:    "Duration of completed pipeline runs.",
		Buckets: []float64{5, 15, 30, 60, 120, 300, 600, 1200, 2400},
	})
)
