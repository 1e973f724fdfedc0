package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/EEWBot/webhook-benchmark/internal/buildinfo"
	"github.com/EEWBot/webhook-benchmark/internal/config"
	"github.com/EEWBot/webhook-benchmark/internal/delivery"
	"github.com/EEWBot/webhook-benchmark/internal/producer"
	"github.com/EEWBot/webhook-benchmark/internal/queue"
	"github.com/EEWBot/webhook-benchmark/internal/reporter"
	"github.com/EEWBot/webhook-benchmark/internal/server"
	"github.com/EEWBot/webhook-benchmark/internal/targets"
	"github.com/EEWBot/webhook-benchmark/model"
	"github.com/EEWBot/webhook-benchmark/storage"
	"github.com/EEWBot/webhook-benchmark/storage/inmemory"
	"github.com/EEWBot/webhook-benchmark/storage/postgres"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.NewBenchConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer func() { _ = cfg.Logger.Sync() }()

	buildinfo.Log(cfg.Logger)

	if err := cfg.Validate(); err != nil {
		cfg.Logger.Fatalw("invalid configuration", "error", err)
	}

	if err := run(ctx, cfg); err != nil {
		cfg.Logger.Fatalw("benchmark stopped", "error", err)
	}
	cfg.Logger.Info("benchmark stopped")
}

// run wires every component and blocks until ctx is cancelled or one of them fails.
func run(ctx context.Context, cfg *config.BenchConfig) error {
	logger := cfg.Logger

	urls, err := targets.Load(cfg.Targets)
	if err != nil {
		return fmt.Errorf("load targets: %w", err)
	}

	body, err := producer.Payload(cfg.Message)
	if err != nil {
		return fmt.Errorf("build payload: %w", err)
	}
	jobCtx := model.NewContext(body, 0)

	q, err := openQueue(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := q.Close(); err != nil {
			logger.Warnw("close queue", "error", err)
		}
	}()

	latency := newLatency(cfg.Shards)

	var (
		archives []storage.Archive
		pinger   server.Pinger
	)
	if cfg.DatabaseDsn != "" {
		pg, err := postgres.NewPostgresStorage(ctx, cfg.DatabaseDsn)
		if err != nil {
			return fmt.Errorf("open snapshot archive: %w", err)
		}
		defer pg.Close()
		archives = append(archives, pg)
		pinger = pg
	}

	logger.Infow("benchmark config",
		"targets", len(urls),
		"send_interval", cfg.SendInterval,
		"report_interval", cfg.ReportInterval,
		"sender_ips", cfg.SenderIPs,
		"multiplier", cfg.Multiplier,
		"redis", cfg.RedisAddr != "",
		"archive", cfg.DatabaseDsn != "",
		"control_plane", cfg.Addr,
	)

	prod, err := producer.New(urls, cfg.SendInterval, jobCtx, q, logger)
	if err != nil {
		return err
	}
	rep, err := reporter.New(reporter.Config{
		WebhookURL: cfg.ReportIn,
		Interval:   cfg.ReportInterval,
		Timeout:    cfg.ClientTimeout,
	}, latency, logger, archives...)
	if err != nil {
		return err
	}
	pool, err := delivery.New(delivery.Config{
		SenderIPs:  cfg.SenderIPs,
		Multiplier: cfg.Multiplier,
		Timeout:    cfg.ClientTimeout,
	}, q, latency, logger)
	if err != nil {
		return err
	}

	var srv *server.Server
	if cfg.Addr != "" {
		srv, err = server.NewServer(q, latency, pinger, server.Config{
			Addr:          cfg.Addr,
			Key:           cfg.Key,
			TrustedSubnet: cfg.TrustedSubnet,
			DefaultBody:   body,
		}, logger)
		if err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return prod.Run(gctx) })
	g.Go(func() error { return rep.Run(gctx) })
	g.Go(func() error { return pool.Run(gctx) })
	if srv != nil {
		g.Go(func() error { return srv.Run(gctx) })
	}

	return g.Wait()
}

func openQueue(ctx context.Context, cfg *config.BenchConfig) (queue.Queue, error) {
	if cfg.RedisAddr == "" {
		return queue.NewChanQueue(cfg.QueueSize), nil
	}
	q, err := queue.NewRedisQueue(ctx, queue.RedisOptions{
		Addr:   cfg.RedisAddr,
		Stream: cfg.RedisStream,
	})
	if err != nil {
		return nil, fmt.Errorf("open redis queue: %w", err)
	}
	return q, nil
}

func newLatency(shards int) storage.Latency {
	if shards == 1 {
		return inmemory.NewGaugeStorage()
	}
	return inmemory.NewShardedGaugeStorage(shards)
}
