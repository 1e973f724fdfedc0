// Package delivery drains the job queue and POSTs each job to its webhook,
// feeding the measured round-trip time into the latency aggregator.
package delivery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/EEWBot/webhook-benchmark/internal/queue"
	"github.com/EEWBot/webhook-benchmark/model"
	"github.com/EEWBot/webhook-benchmark/storage"
	"go.uber.org/zap"
)

// IdentityHeader carries Job.Identity on every delivery.
const IdentityHeader = "X-Identity"

// dequeueBackoff is the pause after a transient dequeue error.
var dequeueBackoff = time.Second

// Dequeuer is the consuming side of the job queue.
type Dequeuer interface {
	Dequeue(ctx context.Context) (model.Job, error)
}

// Config controls the shape of the worker pool.
type Config struct {
	SenderIPs  []string
	Multiplier int
	Timeout    time.Duration
}

// Pool runs Multiplier workers per sender IP.
type Pool struct {
	clients    []*http.Client
	multiplier int
	source     Dequeuer
	sink       storage.Latency
	logger     *zap.SugaredLogger
}

func New(cfg Config, source Dequeuer, sink storage.Latency, logger *zap.SugaredLogger) (*Pool, error) {
	if source == nil || sink == nil {
		return nil, errors.New("delivery needs a queue and a latency sink")
	}
	if cfg.Multiplier <= 0 {
		return nil, fmt.Errorf("invalid multiplier %d", cfg.Multiplier)
	}

	ips := cfg.SenderIPs
	if len(ips) == 0 {
		ips = []string{""}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	clients := make([]*http.Client, 0, len(ips))
	for _, ip := range ips {
		hc, err := NewHTTPClient(ip, timeout)
		if err != nil {
			return nil, err
		}
		clients = append(clients, hc)
	}

	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return &Pool{
		clients:    clients,
		multiplier: cfg.Multiplier,
		source:     source,
		sink:       sink,
		logger:     logger,
	}, nil
}

// Workers is the number of goroutines Run starts.
func (p *Pool) Workers() int {
	return len(p.clients) * p.multiplier
}

// Run blocks until ctx is cancelled or the queue is closed and drained.
func (p *Pool) Run(ctx context.Context) error {
	p.logger.Infow("delivery workers started", "clients", len(p.clients), "workers", p.Workers())

	var wg sync.WaitGroup
	for _, hc := range p.clients {
		for range p.multiplier {
			wg.Add(1)
			go func() {
				defer wg.Done()
				p.worker(ctx, hc)
			}()
		}
	}
	wg.Wait()
	return nil
}

func (p *Pool) worker(ctx context.Context, hc *http.Client) {
	for {
		job, err := p.source.Dequeue(ctx)
		switch {
		case err == nil:
			p.Deliver(ctx, hc, job)
		case errors.Is(err, queue.ErrClosed), ctx.Err() != nil:
			return
		default:
			p.logger.Warnw("dequeue failed", "error", err)
			t := time.NewTimer(dequeueBackoff)
			select {
			case <-ctx.Done():
				t.Stop()
				return
			case <-t.C:
			}
		}
	}
}

// Deliver sends one job and records its latency. Failed deliveries are
// recorded as well; jobs past their retry budget are dropped unsent.
func (p *Pool) Deliver(ctx context.Context, hc *http.Client, job model.Job) {
	if job.Target == nil {
		p.logger.Warnw("dropping job without target", "identity", job.Identity)
		return
	}
	if job.Exhausted() {
		p.logger.Warnw("dropping exhausted job",
			"target", job.Target.Redacted(), "identity", job.Identity, "retry_count", job.RetryCount)
		return
	}

	var body []byte
	if job.Context != nil {
		body = job.Context.Body
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, job.Target.String(), bytes.NewReader(body))
	if err != nil {
		p.logger.Warnw("build delivery request", "target", job.Target.Redacted(), "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(IdentityHeader, job.Identity)

	start := time.Now()
	resp, err := hc.Do(req)
	if err == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}
	elapsed := time.Since(start).Milliseconds()

	if ctx.Err() != nil {
		return
	}
	p.sink.Append(elapsed)

	switch {
	case err != nil:
		p.logger.Debugw("delivery failed", "target", job.Target.Redacted(), "elapsed_ms", elapsed, "error", err)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		p.logger.Debugw("delivery rejected", "target", job.Target.Redacted(), "elapsed_ms", elapsed, "status", resp.StatusCode)
	}
}
