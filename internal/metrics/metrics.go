package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AssessmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deal_assessments_total",
			Help: "Assessments produced, by the path that produced them",
		},
		[]string{"source"},
	)

	LLMFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_fallbacks_total",
			Help: "LLM calls replaced by the heuristic scorer, by reason",
		},
		[]string{"reason"},
	)

	LLMParseTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_parse_total",
			Help: "Outcome of parsing model output",
		},
		[]string{"status"},
	)

	LLMRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_request_duration_seconds",
			Help:    "Duration of outbound LLM completion calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	DealsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "deals_created_total",
			Help: "Deals created",
		},
	)
)
