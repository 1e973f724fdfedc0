// Package inmemory keeps latency statistics in process memory.
package inmemory

import (
	"sync"

	"github.com/EEWBot/webhook-benchmark/model"
)

// GaugeStorage is a mutex-guarded cumulative gauge. It is never reset.
type GaugeStorage struct {
	gauge model.Gauge
	mu    sync.Mutex
}

// NewGaugeStorage returns an empty aggregator.
func NewGaugeStorage() *GaugeStorage {
	return &GaugeStorage{gauge: model.NewGauge()}
}

// Append records one latency sample. Safe for concurrent use.
func (store *GaugeStorage) Append(ms int64) {
	store.mu.Lock()
	defer store.mu.Unlock()

	store.gauge.Append(ms)
}

// Snapshot returns a copy of the current statistics.
func (store *GaugeStorage) Snapshot() model.Gauge {
	store.mu.Lock()
	defer store.mu.Unlock()

	return store.gauge
}
