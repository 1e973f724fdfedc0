// Package storage defines where latency samples are kept.
package storage

import (
	"context"
	"time"

	"github.com/EEWBot/webhook-benchmark/model"
)

// Latency is the aggregator delivery workers feed and the reporter reads.
type Latency interface {
	Append(ms int64)
	Snapshot() model.Gauge
}

// Archive persists point-in-time snapshots.
type Archive interface {
	SaveSnapshot(ctx context.Context, takenAt time.Time, g model.Gauge) error
	Ping(ctx context.Context) error
}
