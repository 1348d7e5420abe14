package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/virevo/virevo/internal/metrics"
)

// ErrCircuitOpen indicates the backend has been failing and calls are short-circuited.
var ErrCircuitOpen = gobreaker.ErrOpenState

// GuardConfig tunes the per-call timeout and circuit breaker.
type GuardConfig struct {
	Name        string
	Timeout     time.Duration
	MaxFailures int
	Cooldown    time.Duration
}

// Guarded wraps a Client with a per-call timeout, a circuit breaker and metrics.
// It never retries.
type Guarded struct {
	next    Client
	name    string
	timeout time.Duration
	cb      *gobreaker.CircuitBreaker
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewGuarded returns next wrapped in a Guarded client.
func NewGuarded(next Client, cfg GuardConfig, m *metrics.Metrics, log *slog.Logger) *Guarded {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = time.Minute
	}
	if log == nil {
		log = slog.Default()
	}
	logger := log.With("component", "llm", "backend", cfg.Name)

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(cfg.MaxFailures) //nolint:gosec // small positive config value
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
		// Caller cancellation says nothing about backend health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	}

	return &Guarded{
		next:    next,
		name:    cfg.Name,
		timeout: cfg.Timeout,
		cb:      gobreaker.NewCircuitBreaker(settings),
		metrics: m,
		logger:  logger,
	}
}

// Complete runs the wrapped completion under the timeout and breaker.
func (g *Guarded) Complete(ctx context.Context, req *Request) (string, error) {
	startTime := time.Now()

	out, err := g.cb.Execute(func() (interface{}, error) {
		callCtx := ctx
		if g.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, g.timeout)
			defer cancel()
		}
		return g.next.Complete(callCtx, req)
	})

	duration := time.Since(startTime)
	if err != nil {
		status := "error"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			status = "short_circuit"
		}
		g.metrics.LLM(g.name, status, duration)
		g.metrics.Error("llm")
		g.logger.WarnContext(ctx, "LLM completion failed", "status", status, "duration", duration, "error", err)
		return "", fmt.Errorf("llm completion: %w", err)
	}

	g.metrics.LLM(g.name, "ok", duration)
	g.logger.DebugContext(ctx, "LLM completion succeeded", "duration", duration)
	text, _ := out.(string)
	return text, nil
}

// State reports the breaker state, e.g. "closed" or "open".
func (g *Guarded) State() string {
	return g.cb.State().String()
}
