// Package reporter periodically publishes latency snapshots to a webhook.
package reporter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/EEWBot/webhook-benchmark/model"
	"github.com/EEWBot/webhook-benchmark/storage"
	"go.uber.org/zap"
)

const (
	// DefaultWarmUp is the pause before the first report.
	DefaultWarmUp = 60 * time.Second

	userAgent = "BenchmarkResultReporter/0.1.0"
)

// Config describes where and how often reports are sent.
type Config struct {
	WebhookURL string
	Interval   time.Duration
	WarmUp     time.Duration // zero means DefaultWarmUp
	Timeout    time.Duration
	Client     *http.Client
}

// Reporter sends a snapshot of the latency aggregator on every tick.
type Reporter struct {
	webhookURL string
	interval   time.Duration
	warmUp     time.Duration
	client     *http.Client
	source     storage.Latency
	archives   []storage.Archive
	logger     *zap.SugaredLogger
}

// New validates cfg and builds a reporter. Archives, if any, receive every snapshot too.
func New(cfg Config, source storage.Latency, logger *zap.SugaredLogger, archives ...storage.Archive) (*Reporter, error) {
	webhookURL := strings.TrimSpace(cfg.WebhookURL)
	if webhookURL == "" {
		return nil, errors.New("report webhook url is required")
	}
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("invalid report interval %s", cfg.Interval)
	}

	warmUp := cfg.WarmUp
	if warmUp <= 0 {
		warmUp = DefaultWarmUp
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	hc := cfg.Client
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}

	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return &Reporter{
		webhookURL: webhookURL,
		interval:   cfg.Interval,
		warmUp:     warmUp,
		client:     hc,
		source:     source,
		archives:   archives,
		logger:     logger,
	}, nil
}

// Run waits out the warm-up, reports once, then reports on every interval tick
// until ctx is cancelled. Failed reports are logged and never stop the loop.
func (r *Reporter) Run(ctx context.Context) error {
	warm := time.NewTimer(r.warmUp)
	select {
	case <-ctx.Done():
		warm.Stop()
		return nil
	case <-warm.C:
	}

	t := time.NewTicker(r.interval)
	defer t.Stop()

	for {
		r.tick(ctx)

		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
}

func (r *Reporter) tick(ctx context.Context) {
	takenAt := time.Now()
	g := r.source.Snapshot()

	if err := r.Report(ctx, g); err != nil {
		r.logger.Errorw("failed to send new metrics report", "error", err)
	} else {
		r.logger.Infow("metrics report sent", "count", g.Count)
	}

	for _, a := range r.archives {
		if err := a.SaveSnapshot(ctx, takenAt, g); err != nil {
			r.logger.Errorw("failed to archive snapshot", "error", err)
		}
	}
}

// Report posts one formatted snapshot to the webhook.
func (r *Reporter) Report(ctx context.Context, g model.Gauge) error {
	body, err := json.Marshal(FormatReport(g))
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create report request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("connection error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("http error: %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
