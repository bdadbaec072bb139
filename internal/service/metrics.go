package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	formCommitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "op_form_commits_total",
			Help: "Committed form changes by kind (create, update).",
		},
		[]string{"kind"},
	)

	formCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "op_form_cache_hits_total",
		Help: "Form lookups served from the cache.",
	})
	formCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "op_form_cache_misses_total",
		Help: "Form lookups that went to the repository.",
	})
)
