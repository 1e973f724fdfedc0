package inmemory

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/EEWBot/webhook-benchmark/model"
)

// ShardedGaugeStorage spreads appends over several locks and merges them on read.
// Snapshot takes every shard lock before copying, so the result is a single point in time.
type ShardedGaugeStorage struct {
	shards []shard
	next   atomic.Uint64
}

type shard struct {
	mu    sync.Mutex
	gauge model.Gauge
	_     [40]byte
}

// NewShardedGaugeStorage creates n shards; n <= 0 uses GOMAXPROCS.
func NewShardedGaugeStorage(n int) *ShardedGaugeStorage {
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	s := &ShardedGaugeStorage{shards: make([]shard, n)}
	for i := range s.shards {
		s.shards[i].gauge = model.NewGauge()
	}
	return s
}

// Append records one sample on the next shard in turn.
func (store *ShardedGaugeStorage) Append(ms int64) {
	sh := &store.shards[store.next.Add(1)%uint64(len(store.shards))]
	sh.mu.Lock()
	sh.gauge.Append(ms)
	sh.mu.Unlock()
}

// Snapshot merges all shards.
func (store *ShardedGaugeStorage) Snapshot() model.Gauge {
	for i := range store.shards {
		store.shards[i].mu.Lock()
	}
	out := model.NewGauge()
	for i := range store.shards {
		out.Merge(store.shards[i].gauge)
	}
	for i := range store.shards {
		store.shards[i].mu.Unlock()
	}
	return out
}
