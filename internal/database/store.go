package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// ErrUnknownUser is returned when a write references a user that was never created.
var ErrUnknownUser = errors.New("unknown user")

// Store defines the interface for check-in persistence.
// Methods accept context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// GetUser returns the user with the given Telegram user ID. Returns nil, nil if not found.
	GetUser(ctx context.Context, userID int64) (*User, error)

	// CreateUser inserts the user if no user with the same user ID exists.
	CreateUser(ctx context.Context, user *User) error

	// ListUsers returns every enrolled user ordered by enrolment.
	ListUsers(ctx context.Context) ([]*User, error)

	// SaveResponse appends a record to the user's DailyResponse for date, creating the
	// day if needed. An unanswered question whose text is still open that day is not
	// duplicated; saved reports whether a record was written.
	SaveResponse(ctx context.Context, userID int64, date, question, answer string, at time.Time) (saved bool, err error)

	// GetDailyResponse returns the user's DailyResponse for date with its records. Returns nil, nil if none.
	GetDailyResponse(ctx context.Context, userID int64, date string) (*DailyResponse, error)

	// GetDailyResponses returns the user's DailyResponses with start <= date <= end, ordered by date.
	GetDailyResponses(ctx context.Context, userID int64, start, end string) ([]*DailyResponse, error)

	// ListUsersWithoutAnswer returns users that have a DailyResponse for date with no answered record.
	ListUsersWithoutAnswer(ctx context.Context, date string) ([]*User, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewStore creates a new Store implementation backed by sqlx.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) GetUser(ctx context.Context, userID int64) (*User, error) {
	var u User
	err := s.db.GetContext(ctx, &u, `SELECT * FROM users WHERE user_id = ?`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}
	return &u, nil
}

func (s *sqlxStore) CreateUser(ctx context.Context, user *User) error {
	if user == nil {
		return fmt.Errorf("cannot create nil user")
	}
	if user.UserID == 0 {
		return fmt.Errorf("user must have a non-zero user_id")
	}
	if user.ChatType == "" {
		user.ChatType = ChatTypePrivate
	}

	now := s.now()
	user.CreatedAt = now
	user.UpdatedAt = now

	query := `
        INSERT INTO users (user_id, chat_id, name, chat_type, group_id, created_at, updated_at)
        VALUES (:user_id, :chat_id, :name, :chat_type, :group_id, :created_at, :updated_at)
        ON CONFLICT (user_id) DO NOTHING;
    `
	if _, err := s.db.NamedExecContext(ctx, query, user); err != nil {
		s.logger.ErrorContext(ctx, "Error creating user", "user_id", user.UserID, "error", err)
		return fmt.Errorf("failed to create user %d: %w", user.UserID, err)
	}
	return nil
}

func (s *sqlxStore) ListUsers(ctx context.Context) ([]*User, error) {
	var users []*User
	if err := s.db.SelectContext(ctx, &users, `SELECT * FROM users ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *sqlxStore) SaveResponse(ctx context.Context, userID int64, date, question, answer string, at time.Time) (bool, error) {
	if question == "" {
		return false, fmt.Errorf("response must have a question")
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return false, fmt.Errorf("invalid response date %q: %w", date, err)
	}
	if strings.TrimSpace(answer) == "" {
		answer = ""
	}
	if at.IsZero() {
		at = s.now()
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
		}
	}()

	var exists bool
	if err := tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM users WHERE user_id = ?)`, userID); err != nil {
		return false, fmt.Errorf("failed to check user %d: %w", userID, err)
	}
	if !exists {
		return false, fmt.Errorf("%w: %d", ErrUnknownUser, userID)
	}

	// First writer wins; a concurrent insert for the same day is ignored.
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO daily_responses (user_id, date, created_at) VALUES (?, ?, ?) ON CONFLICT (user_id, date) DO NOTHING`,
		userID, date, s.now()); err != nil {
		return false, fmt.Errorf("failed to ensure daily response: %w", err)
	}

	var dayID int64
	if err := tx.GetContext(ctx, &dayID,
		`SELECT id FROM daily_responses WHERE user_id = ? AND date = ?`, userID, date); err != nil {
		return false, fmt.Errorf("failed to load daily response: %w", err)
	}

	if answer == "" {
		var latest sql.NullString
		err := tx.GetContext(ctx, &latest,
			`SELECT answer FROM responses WHERE daily_response_id = ? AND question = ? ORDER BY id DESC LIMIT 1`,
			dayID, question)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return false, fmt.Errorf("failed to check open question: %w", err)
		}
		if err == nil && strings.TrimSpace(latest.String) == "" {
			s.logger.DebugContext(ctx, "Skipping duplicate open question", "user_id", userID, "date", date)
			return false, nil
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO responses (daily_response_id, question, answer, timestamp) VALUES (?, ?, ?, ?)`,
		dayID, question, answer, at.UTC()); err != nil {
		return false, fmt.Errorf("failed to insert response: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit response: %w", err)
	}
	return true, nil
}

func (s *sqlxStore) GetDailyResponse(ctx context.Context, userID int64, date string) (*DailyResponse, error) {
	days, err := s.GetDailyResponses(ctx, userID, date, date)
	if err != nil {
		return nil, err
	}
	if len(days) == 0 {
		return nil, nil
	}
	return days[0], nil
}

func (s *sqlxStore) GetDailyResponses(ctx context.Context, userID int64, start, end string) ([]*DailyResponse, error) {
	var days []*DailyResponse
	err := s.db.SelectContext(ctx, &days,
		`SELECT * FROM daily_responses WHERE user_id = ? AND date >= ? AND date <= ? ORDER BY date`,
		userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily responses for user %d: %w", userID, err)
	}
	if len(days) == 0 {
		return nil, nil
	}

	ids := make([]int64, len(days))
	byID := make(map[int64]*DailyResponse, len(days))
	for i, d := range days {
		ids[i] = d.ID
		byID[d.ID] = d
	}

	query, args, err := sqlx.In(`SELECT * FROM responses WHERE daily_response_id IN (?) ORDER BY id`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build responses query: %w", err)
	}
	var responses []Response
	if err := s.db.SelectContext(ctx, &responses, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to get responses for user %d: %w", userID, err)
	}
	for _, r := range responses {
		if d, ok := byID[r.DailyResponseID]; ok {
			d.Responses = append(d.Responses, r)
		}
	}
	return days, nil
}

func (s *sqlxStore) ListUsersWithoutAnswer(ctx context.Context, date string) ([]*User, error) {
	var users []*User
	err := s.db.SelectContext(ctx, &users, `
        SELECT u.* FROM users u
        JOIN daily_responses d ON d.user_id = u.user_id AND d.date = ?
        WHERE NOT EXISTS (
            SELECT 1 FROM responses r
            WHERE r.daily_response_id = d.id AND TRIM(r.answer) <> ''
        )
        ORDER BY u.id`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list users without answer on %s: %w", date, err)
	}
	return users, nil
}

// RunSQLMaintenance performs database maintenance tasks like VACUUM and ANALYZE.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Running SQL maintenance")
	for _, stmt := range []string{"VACUUM", "ANALYZE", "PRAGMA optimize"} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to run %s: %w", stmt, err)
		}
	}
	return nil
}
