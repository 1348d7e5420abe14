// Package llm is a thin text-completion client over OpenAI-compatible
// endpoints (Groq by default) and Google Gemini.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/virevo/virevo/internal/config"
	"github.com/virevo/virevo/internal/metrics"
)

// ErrEmptyResponse is returned when the backend answers with no text.
var ErrEmptyResponse = errors.New("llm returned an empty response")

// Role identifies the author of a context turn.
type Role string

// Context turn roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one prior conversation turn passed as context.
type Message struct {
	Role    Role
	Content string
}

// Request is a single completion request.
type Request struct {
	SystemPrompt string
	Context      []Message
	UserText     string
	Temperature  float32
	MaxTokens    int
}

// Client completes a prompt and returns the first choice's text.
type Client interface {
	Complete(ctx context.Context, req *Request) (string, error)
}

// NewClient builds the configured backend wrapped with a timeout and circuit breaker.
func NewClient(ctx context.Context, cfg config.AIConfig, m *metrics.Metrics, log *slog.Logger) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("llm API key is required")
	}

	var (
		backend Client
		err     error
	)
	switch cfg.Backend {
	case "openai":
		backend = newOpenAIClient(cfg)
	case "gemini":
		backend, err = newGeminiClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown llm backend %q", cfg.Backend)
	}

	log.Info("LLM client initialized", "component", "llm", "backend", cfg.Backend, "model", cfg.Model)
	return NewGuarded(backend, GuardConfig{
		Name:        cfg.Backend,
		Timeout:     cfg.Timeout,
		MaxFailures: cfg.BreakerMaxFailures,
		Cooldown:    cfg.BreakerCooldown,
	}, m, log), nil
}

func validateRequest(req *Request) error {
	if req == nil {
		return fmt.Errorf("nil llm request")
	}
	if strings.TrimSpace(req.UserText) == "" {
		return fmt.Errorf("llm request has empty user text")
	}
	return nil
}
