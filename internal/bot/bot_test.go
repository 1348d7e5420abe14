package bot

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/virevo/virevo/internal/bot/tasks"
	"github.com/virevo/virevo/internal/config"
	"github.com/virevo/virevo/internal/logger"
)

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()
	srv := NewServer(":0", nil, logger.Discard())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Server is healthy", rec.Body.String())
}

func TestWebhookRouteOnlyWhenConfigured(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	webhook := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	})

	withHook := NewServer(":0", webhook, logger.Discard())
	rec := httptest.NewRecorder()
	withHook.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int32(1), hits.Load())

	without := NewServer(":0", nil, logger.Discard())
	rec = httptest.NewRecorder()
	without.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()
	srv := NewServer(":0", nil, logger.Discard())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServerServeAndShutdown(t *testing.T) {
	t.Parallel()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := NewServer(ln.Addr().String(), nil, logger.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln, time.Second) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "Server is healthy", string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestSchedulerSkipsDisabledAndUnknownTasks(t *testing.T) {
	t.Parallel()

	cfg := &config.SchedulerConfig{Tasks: map[string]config.TaskConfig{
		"enabled":  {Enabled: true, Schedule: "30 14 * * *"},
		"disabled": {Enabled: false, Schedule: "30 14 * * *"},
		"unknown":  {Enabled: true, Schedule: "30 14 * * *"},
		"invalid":  {Enabled: true, Schedule: "not a cron"},
	}}
	noop := func(context.Context) error { return nil }
	taskMap := map[string]tasks.ScheduledTaskFunc{"enabled": noop, "disabled": noop, "invalid": noop}

	s, err := NewScheduler(logger.Discard(), cfg, time.UTC, taskMap, nil)
	require.NoError(t, err)
	require.NoError(t, s.Start())
	t.Cleanup(func() { _ = s.Stop() })

	assert.Equal(t, []string{"enabled"}, s.Jobs())
	assert.Error(t, s.Start())
}

func TestSchedulerRunRecordsFailures(t *testing.T) {
	t.Parallel()

	s, err := NewScheduler(logger.Discard(), &config.SchedulerConfig{}, nil, nil, nil)
	require.NoError(t, err)

	called := false
	s.run("failing", func(context.Context) error {
		called = true
		return errors.New("boom")
	})
	assert.True(t, called)
	assert.NoError(t, s.Stop())
}

func TestBotRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	s, err := NewScheduler(logger.Discard(), &config.SchedulerConfig{}, nil, nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	listen := func(ctx context.Context) { <-ctx.Done() }
	b := NewBot(logger.Discard(), listen, config.TelegramModePolling, s, nil, time.Second)

	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("bot did not stop")
	}
}

func TestBotRunFailsWhenListenerExits(t *testing.T) {
	t.Parallel()

	s, err := NewScheduler(logger.Discard(), &config.SchedulerConfig{}, nil, nil, nil)
	require.NoError(t, err)

	b := NewBot(logger.Discard(), func(context.Context) {}, config.TelegramModePolling, s, nil, time.Second)
	assert.Error(t, b.Run(context.Background()))
}
