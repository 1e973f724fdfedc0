package server

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/EEWBot/webhook-benchmark/internal/queue"
	"github.com/EEWBot/webhook-benchmark/internal/utils"
	"github.com/EEWBot/webhook-benchmark/model"
	"github.com/EEWBot/webhook-benchmark/storage/inmemory"
	"github.com/EEWBot/webhook-benchmark/storage/mocks"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var defaultBody = []byte(`{"content":"Hello World!"}`)

type mockPinger struct {
	mock.Mock
}

func (m *mockPinger) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type failingQueue struct{ err error }

func (f failingQueue) Enqueue(context.Context, model.Job) error { return f.err }

func newTestServer(t *testing.T, q Enqueuer, cfg Config, pinger Pinger) (*Server, *inmemory.GaugeStorage) {
	t.Helper()
	if cfg.DefaultBody == nil {
		cfg.DefaultBody = defaultBody
	}
	stats := inmemory.NewGaugeStorage()
	srv, err := NewServer(q, stats, pinger, cfg, nil)
	require.NoError(t, err)
	return srv, stats
}

func do(t *testing.T, h http.Handler, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

var jsonHeader = map[string]string{"Content-Type": "application/json"}

func TestEnqueueJobHandler(t *testing.T) {
	q := queue.NewChanQueue(4)
	srv, _ := newTestServer(t, q, Config{}, nil)

	rr := do(t, srv.Handler(), http.MethodPost, "/jobs",
		`{"target":"https://example.com/hook","identity":"manual#1","body":{"content":"hi"},"retry_limit":2}`, jsonHeader)
	require.Equal(t, http.StatusAccepted, rr.Code)

	var resp JobResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, "manual#1", resp.Identity)

	job, err := q.Dequeue(context.Background())
	require.NoError(t, err)
	require.Equal(t, "https://example.com/hook", job.Target.String())
	require.Equal(t, "manual#1", job.Identity)
	require.Equal(t, 0, job.RetryCount)
	require.Equal(t, 2, job.Context.RetryLimit)
	require.JSONEq(t, `{"content":"hi"}`, string(job.Context.Body))
}

func TestEnqueueJobHandler_Defaults(t *testing.T) {
	q := queue.NewChanQueue(4)
	srv, _ := newTestServer(t, q, Config{}, nil)

	rr := do(t, srv.Handler(), http.MethodPost, "/jobs/", `{"target":"http://localhost:9000/a"}`,
		map[string]string{"Content-Type": "application/json; charset=utf-8"})
	require.Equal(t, http.StatusAccepted, rr.Code)

	var resp JobResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	_, err := uuid.Parse(resp.Identity)
	require.NoError(t, err)

	job, err := q.Dequeue(context.Background())
	require.NoError(t, err)
	require.Equal(t, resp.Identity, job.Identity)
	require.Equal(t, defaultBody, job.Context.Body)
	require.Zero(t, job.Context.RetryLimit)
}

func TestEnqueueJobHandler_BadRequests(t *testing.T) {
	srv, _ := newTestServer(t, queue.NewChanQueue(1), Config{}, nil)

	tests := []struct {
		name   string
		body   string
		header map[string]string
		want   int
	}{
		{"wrong content type", `{"target":"http://x"}`, map[string]string{"Content-Type": "text/plain"}, http.StatusUnsupportedMediaType},
		{"invalid json", `{"target":`, jsonHeader, http.StatusBadRequest},
		{"missing target", `{}`, jsonHeader, http.StatusBadRequest},
		{"relative target", `{"target":"/hook"}`, jsonHeader, http.StatusBadRequest},
		{"unsupported scheme", `{"target":"ftp://example.com/x"}`, jsonHeader, http.StatusBadRequest},
		{"negative retry limit", `{"target":"http://x/y","retry_limit":-1}`, jsonHeader, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv.Handler(), http.MethodPost, "/jobs", tt.body, tt.header)
			require.Equal(t, tt.want, rr.Code)
		})
	}

	rr := do(t, srv.Handler(), http.MethodGet, "/jobs", "", nil)
	require.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestEnqueueJobHandler_QueueErrors(t *testing.T) {
	q := queue.NewChanQueue(1)
	require.NoError(t, q.Close())
	srv, _ := newTestServer(t, q, Config{}, nil)
	rr := do(t, srv.Handler(), http.MethodPost, "/jobs", `{"target":"http://x/y"}`, jsonHeader)
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)

	srv, _ = newTestServer(t, failingQueue{err: errors.New("redis down")}, Config{}, nil)
	rr = do(t, srv.Handler(), http.MethodPost, "/jobs", `{"target":"http://x/y"}`, jsonHeader)
	require.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestStatsHandler(t *testing.T) {
	srv, stats := newTestServer(t, queue.NewChanQueue(1), Config{}, nil)

	rr := do(t, srv.Handler(), http.MethodGet, "/stats", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	require.JSONEq(t, `{"count":0,"best_ms":null,"avg_ms":null,"worst_ms":null}`, rr.Body.String())

	stats.Append(10)
	stats.Append(20)
	rr = do(t, srv.Handler(), http.MethodGet, "/stats", "", map[string]string{"Accept-Encoding": "gzip"})
	require.Equal(t, "gzip", rr.Header().Get("Content-Encoding"))
	gr, err := gzip.NewReader(bytes.NewReader(rr.Body.Bytes()))
	require.NoError(t, err)
	raw, err := io.ReadAll(gr)
	require.NoError(t, err)
	require.JSONEq(t, `{"count":2,"best_ms":10,"avg_ms":15,"worst_ms":20}`, string(raw))
}

func TestStatsHandler_ReadsOneSnapshot(t *testing.T) {
	ctrl := gomock.NewController(t)
	stats := mocks.NewMockLatency(ctrl)

	g := model.NewGauge()
	g.Append(7)
	stats.EXPECT().Snapshot().Return(g).Times(1)

	srv, err := NewServer(queue.NewChanQueue(1), stats, nil, Config{}, nil)
	require.NoError(t, err)

	rr := do(t, srv.Handler(), http.MethodGet, "/stats", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"count":1,"best_ms":7,"avg_ms":7,"worst_ms":7}`, rr.Body.String())
}

func TestPingHandler(t *testing.T) {
	srv, _ := newTestServer(t, queue.NewChanQueue(1), Config{}, nil)
	rr := do(t, srv.Handler(), http.MethodGet, "/ping", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	healthy := &mockPinger{}
	healthy.On("Ping", mock.Anything).Return(nil).Once()
	srv, _ = newTestServer(t, queue.NewChanQueue(1), Config{}, healthy)
	rr = do(t, srv.Handler(), http.MethodGet, "/ping", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	healthy.AssertExpectations(t)

	broken := &mockPinger{}
	broken.On("Ping", mock.Anything).Return(errors.New("connection refused")).Once()
	srv, _ = newTestServer(t, queue.NewChanQueue(1), Config{}, broken)
	rr = do(t, srv.Handler(), http.MethodGet, "/ping", "", nil)
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	broken.AssertExpectations(t)
}

func TestServer_TrustedSubnetAndKey(t *testing.T) {
	_, err := NewServer(queue.NewChanQueue(1), inmemory.NewGaugeStorage(), nil, Config{TrustedSubnet: "bogus"}, nil)
	require.Error(t, err)

	key := "secret"
	srv, _ := newTestServer(t, queue.NewChanQueue(1), Config{Key: key, TrustedSubnet: "10.0.0.0/8"}, nil)

	rr := do(t, srv.Handler(), http.MethodGet, "/stats", "", map[string]string{"X-Real-IP": "192.0.2.1"})
	require.Equal(t, http.StatusForbidden, rr.Code)

	body := `{"target":"http://x/y"}`
	rr = do(t, srv.Handler(), http.MethodPost, "/jobs", body, map[string]string{
		"Content-Type": "application/json",
		"X-Real-IP":    "10.1.2.3",
	})
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, srv.Handler(), http.MethodPost, "/jobs", body, map[string]string{
		"Content-Type":   "application/json",
		"X-Real-IP":      "10.1.2.3",
		utils.HashHeader: utils.CalculateHash([]byte(body), key),
	})
	require.Equal(t, http.StatusAccepted, rr.Code)
	require.True(t, utils.VerifyHash(rr.Body.Bytes(), key, rr.Header().Get(utils.HashHeader)))
}

func TestNewServer_Validation(t *testing.T) {
	_, err := NewServer(nil, inmemory.NewGaugeStorage(), nil, Config{}, nil)
	require.Error(t, err)
	_, err = NewServer(queue.NewChanQueue(1), nil, nil, Config{}, nil)
	require.Error(t, err)
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	srv, _ := newTestServer(t, queue.NewChanQueue(1), Config{Addr: "127.0.0.1:0"}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(shutdownTimeout + time.Second):
		t.Fatal("server did not stop")
	}
}

func TestRun_ListenError(t *testing.T) {
	srv, _ := newTestServer(t, queue.NewChanQueue(1), Config{Addr: "256.0.0.1:bad"}, nil)
	err := srv.Run(context.Background())
	require.Error(t, err)
}
