package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StoreOperations tracks load/save calls by backend and result
	StoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "breeds_store_operations_total",
			Help: "Total number of persisted state operations",
		},
		[]string{"backend", "operation", "result"}, // result: "ok", "miss", "error"
	)

	// StoreSize tracks the size of the last saved document by backend
	StoreSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "breeds_store_size_bytes",
			Help: "Size of the last persisted state document in bytes",
		},
		[]string{"backend"},
	)
)

func observe(backend, operation string, err error) {
	result := "ok"
	switch {
	case err == nil:
	case err == ErrNotFound:
		result = "miss"
	default:
		result = "error"
	}
	StoreOperations.WithLabelValues(backend, operation, result).Inc()
}
