// Package server is the benchmark's HTTP control plane: it accepts ad-hoc jobs
// and exposes the live latency snapshot.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/EEWBot/webhook-benchmark/internal/queue"
	"github.com/EEWBot/webhook-benchmark/internal/server/middleware"
	"github.com/EEWBot/webhook-benchmark/model"
	"github.com/EEWBot/webhook-benchmark/storage"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

type Enqueuer interface {
	Enqueue(ctx context.Context, job model.Job) error
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Config struct {
	Addr          string
	Key           string // HMAC key; empty disables signing
	TrustedSubnet string // CIDR; empty admits everyone
	DefaultBody   []byte // Payload for jobs submitted without one
}

// JobRequest is the body of POST /jobs.
type JobRequest struct {
	Target     string          `json:"target"`
	Identity   string          `json:"identity,omitempty"`
	Body       json.RawMessage `json:"body,omitempty"`
	RetryLimit int             `json:"retry_limit,omitempty"`
}

// JobResponse is returned once a job is queued.
type JobResponse struct {
	Identity string `json:"identity"`
}

type Server struct {
	queue  Enqueuer
	stats  storage.Latency
	pinger Pinger
	config Config
	logger *zap.SugaredLogger
	router http.Handler
}

// NewServer wires the router. pinger may be nil when nothing needs health checks.
func NewServer(q Enqueuer, stats storage.Latency, pinger Pinger, cfg Config, logger *zap.SugaredLogger) (*Server, error) {
	if q == nil || stats == nil {
		return nil, errors.New("server needs a queue and a latency source")
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	trusted, err := middleware.TrustedCIDR(cfg.TrustedSubnet)
	if err != nil {
		return nil, err
	}

	srv := &Server{queue: q, stats: stats, pinger: pinger, config: cfg, logger: logger}

	router := chi.NewRouter()
	router.Use(chiMiddleware.StripSlashes)
	router.Use(middleware.LogMiddleware(logger))
	router.Use(trusted)
	router.Use(middleware.VerifyHashMiddleware(cfg.Key))
	router.Use(middleware.DecompressMiddleware)
	router.Use(middleware.CompressMiddleware)

	router.Post("/jobs", srv.EnqueueJobHandler)
	router.Get("/stats", srv.StatsHandler)
	router.Get("/ping", srv.PingHandler)

	srv.router = router
	return srv, nil
}

func (srv *Server) Handler() http.Handler {
	return srv.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (srv *Server) Run(ctx context.Context) error {
	hs := &http.Server{
		Addr:              srv.config.Addr,
		Handler:           srv.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		srv.logger.Infow("control plane listening", "addr", srv.config.Addr)
		errCh <- hs.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("control plane: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("control plane shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("control plane: %w", err)
	}
	return nil
}

func (srv *Server) EnqueueJobHandler(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		http.Error(w, "unsupported content type", http.StatusUnsupportedMediaType)
		return
	}

	var req JobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	target, err := url.Parse(req.Target)
	if err != nil || (target.Scheme != "http" && target.Scheme != "https") || target.Host == "" {
		http.Error(w, "target must be an absolute http(s) url", http.StatusBadRequest)
		return
	}
	if req.RetryLimit < 0 {
		http.Error(w, "retry_limit must not be negative", http.StatusBadRequest)
		return
	}

	body := srv.config.DefaultBody
	if len(req.Body) > 0 {
		body = []byte(req.Body)
	}
	identity := req.Identity
	if identity == "" {
		identity = uuid.NewString()
	}

	job := model.NewJob(model.NewContext(body, req.RetryLimit), target, identity)
	if err := srv.queue.Enqueue(r.Context(), job); err != nil {
		if errors.Is(err, queue.ErrClosed) {
			http.Error(w, "queue closed", http.StatusServiceUnavailable)
			return
		}
		srv.logger.Errorw("failed to enqueue job", "target", target.Redacted(), "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, srv.logger, http.StatusAccepted, JobResponse{Identity: identity})
}

func (srv *Server) StatsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, srv.logger, http.StatusOK, srv.stats.Snapshot().Stats())
}

func (srv *Server) PingHandler(w http.ResponseWriter, r *http.Request) {
	if srv.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := srv.pinger.Ping(ctx); err != nil {
			srv.logger.Errorw("ping failed", "error", err)
			http.Error(w, "storage unavailable", http.StatusInternalServerError)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("OK"))
}

func writeJSON(w http.ResponseWriter, logger *zap.SugaredLogger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Errorw("failed to write response JSON", "error", err)
	}
}
