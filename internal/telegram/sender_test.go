package telegram

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/virevo/virevo/internal/config"
	"github.com/virevo/virevo/internal/logger"
)

type fakeClient struct {
	calls []*bot.SendMessageParams
	errs  []error
}

func (f *fakeClient) SendMessage(_ context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	f.calls = append(f.calls, params)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &models.Message{ID: len(f.calls)}, nil
}

func TestSenderSendsMarkdown(t *testing.T) {
	t.Parallel()
	client := &fakeClient{}
	s := NewSender(client, logger.Discard())

	require.NoError(t, s.Send(context.Background(), 42, "*hi*"))

	require.Len(t, client.calls, 1)
	assert.Equal(t, int64(42), client.calls[0].ChatID)
	assert.Equal(t, "*hi*", client.calls[0].Text)
	assert.Equal(t, models.ParseModeMarkdownV1, client.calls[0].ParseMode)
}

func TestSenderFallsBackToPlainText(t *testing.T) {
	t.Parallel()
	parseErr := fmt.Errorf("%w, %s", bot.ErrorBadRequest, "Bad Request: can't parse entities: Can't find end of the entity starting at byte offset 1")
	client := &fakeClient{errs: []error{parseErr, nil}}
	s := NewSender(client, logger.Discard())

	require.NoError(t, s.Send(context.Background(), 1, "a*b"))

	require.Len(t, client.calls, 2)
	assert.Empty(t, client.calls[1].ParseMode)
}

func TestSenderDoesNotResendOtherErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
	}{
		{"blocked", fmt.Errorf("%w, %s", bot.ErrorForbidden, "Forbidden: bot was blocked by the user")},
		{"rate limited", &bot.TooManyRequestsError{Message: "too many requests", RetryAfter: 3}},
		{"other bad request", fmt.Errorf("%w, %s", bot.ErrorBadRequest, "Bad Request: chat not found")},
		{"timeout", context.DeadlineExceeded},
		{"transport", errors.New("connection reset by peer")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			client := &fakeClient{errs: []error{tt.err}}
			s := NewSender(client, logger.Discard())

			err := s.Send(context.Background(), 1, "x")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.err)
			assert.Len(t, client.calls, 1)
		})
	}
}

func TestOptions(t *testing.T) {
	t.Parallel()

	polling := Options(config.TelegramConfig{Mode: config.TelegramModePolling}, nil, nil)
	assert.Len(t, polling, 1)

	webhook := Options(config.TelegramConfig{Mode: config.TelegramModeWebhook, WebhookSecret: "s"}, nil,
		func(context.Context, *bot.Bot, *models.Update) {})
	assert.Len(t, webhook, 3)
}

func TestApplyMiddlewareOrder(t *testing.T) {
	t.Parallel()

	var order []string
	mw := func(name string) bot.Middleware {
		return func(next bot.HandlerFunc) bot.HandlerFunc {
			return func(ctx context.Context, b *bot.Bot, u *models.Update) {
				order = append(order, name)
				next(ctx, b, u)
			}
		}
	}
	h := applyMiddleware(func(context.Context, *bot.Bot, *models.Update) {
		order = append(order, "handler")
	}, []bot.Middleware{mw("outer"), mw("inner")})

	h(context.Background(), nil, &models.Update{})
	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestTokenPrefix(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "12345678...", tokenPrefix("12345678:ABC"))
	assert.Equal(t, "***", tokenPrefix("short"))
}
