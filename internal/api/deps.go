package api

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/virevo/virevo/internal/auth"
	"github.com/virevo/virevo/internal/config"
	"github.com/virevo/virevo/internal/metrics"
	"github.com/virevo/virevo/internal/mongodb"
)

// AccountStore persists web accounts.
type AccountStore interface {
	FindByEmail(ctx context.Context, email string) (*mongodb.Account, error)
	FindByID(ctx context.Context, id string) (*mongodb.Account, error)
	EmailTaken(ctx context.Context, email string) (bool, error)
	AnonymousNameTaken(ctx context.Context, name string) (bool, error)
	Create(ctx context.Context, acc *mongodb.Account) error
	SetPasswordByEmail(ctx context.Context, email, hash string) error
	SetPasswordByID(ctx context.Context, id primitive.ObjectID, hash string) error
	LinkGoogle(ctx context.Context, id primitive.ObjectID, googleID string) error
	UpdateProfile(ctx context.Context, id primitive.ObjectID, u mongodb.ProfileUpdate) (*mongodb.Account, error)
	List(ctx context.Context, page mongodb.Page, exclude primitive.ObjectID) ([]mongodb.Account, int64, error)
	CountByRole(ctx context.Context) (map[string]int64, error)
}

// ChatStore reads chats and messages.
type ChatStore interface {
	History(ctx context.Context, userID primitive.ObjectID) ([]mongodb.ChatSummary, error)
	IsParticipant(ctx context.Context, chatID, userID primitive.ObjectID) (bool, error)
	Messages(ctx context.Context, chatID primitive.ObjectID, page mongodb.Page) ([]mongodb.Message, int64, error)
}

// OTPStore keeps one-time codes.
type OTPStore interface {
	Save(ctx context.Context, email, code string) error
	Consume(ctx context.Context, email, code string) (bool, error)
}

// RefreshStore tracks the current refresh token id of each account.
type RefreshStore interface {
	Issue(ctx context.Context, accountID, tokenID string) error
	Rotate(ctx context.Context, accountID, oldID, newID string) (bool, error)
	Revoke(ctx context.Context, accountID string) error
}

// OTPMailer delivers one-time codes.
type OTPMailer interface {
	SendOTP(ctx context.Context, to, code string) error
}

// Deps holds everything the API handlers need.
type Deps struct {
	Logger   *slog.Logger
	Config   *config.Config
	Accounts AccountStore
	Chats    ChatStore
	OTP      OTPStore
	Refresh  RefreshStore
	Mailer   OTPMailer
	Tokens   *auth.Tokens
	Metrics  *metrics.Metrics
	Now      func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now().UTC()
}
