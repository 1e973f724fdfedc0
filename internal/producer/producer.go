// Package producer emits delivery jobs at a fixed global rate.
package producer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/EEWBot/webhook-benchmark/model"
	"go.uber.org/zap"
)

// Enqueuer is the send side of a job queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, job model.Job) error
}

// Producer cycles over its targets forever, enqueuing one job per tick.
type Producer struct {
	targets  []*url.URL
	interval time.Duration
	jobCtx   *model.Context
	identity string
	queue    Enqueuer
	logger   *zap.SugaredLogger
}

// Payload builds the request body sent to every webhook.
func Payload(message string) ([]byte, error) {
	return json.Marshal(map[string]string{"content": message})
}

// New creates a producer. jobCtx is shared by every emitted job.
func New(targets []*url.URL, interval time.Duration, jobCtx *model.Context, q Enqueuer, logger *zap.SugaredLogger) (*Producer, error) {
	if len(targets) == 0 {
		return nil, errors.New("producer needs at least one target")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("invalid send interval %s", interval)
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Producer{
		targets:  targets,
		interval: interval,
		jobCtx:   jobCtx,
		identity: model.DefaultIdentity,
		queue:    q,
		logger:   logger,
	}, nil
}

// Run emits jobs until ctx is cancelled, returning nil in that case.
// A failed enqueue, such as on a closed queue, ends the run with an error
// that callers treat as fatal.
func (p *Producer) Run(ctx context.Context) error {
	t := time.NewTicker(p.interval)
	defer t.Stop()

	p.logger.Infow("load producer started",
		"targets", len(p.targets),
		"interval", p.interval,
	)

	for cycle := 1; ; cycle++ {
		p.logger.Debugw("iteration start", "cycle", cycle)

		for _, target := range p.targets {
			select {
			case <-ctx.Done():
				return nil
			case <-t.C:
			}

			job := model.NewJob(p.jobCtx, target, p.identity)
			if err := p.queue.Enqueue(ctx, job); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("enqueue job for %s: %w", target.Redacted(), err)
			}
		}
	}
}
