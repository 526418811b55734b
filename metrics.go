package satchip

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	projCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "satchip_proj_cache_hits_total",
		Help: "The total number of hits on the projection cache",
	})
	projCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "satchip_proj_cache_misses_total",
		Help: "The total number of misses on the projection cache",
	})
	projCacheEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "satchip_proj_cache_evictions_total",
		Help: "The total number of evictions from the projection cache",
	})
	gridCacheRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "satchip_grid_cache_requests_total",
		Help: "The total number of requests to the grid cache",
	})
	gridCacheBuilds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "satchip_grid_cache_builds_total",
		Help: "The total number of grids built by the grid cache",
	})
	labelChipsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "satchip_label_chips_processed_total",
		Help: "The total number of label chips sampled",
	})
	labelChipsKept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "satchip_label_chips_kept_total",
		Help: "The total number of label chips with at least one non-zero label",
	})
)
