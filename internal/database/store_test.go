package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) Store {
	t.Helper()
	db, err := NewDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { CloseDB(db) })
	return NewStore(db, nil)
}

func seedUser(t *testing.T, s Store, userID int64) {
	t.Helper()
	require.NoError(t, s.CreateUser(context.Background(), &User{
		UserID: userID, ChatID: userID, Name: "Sam", ChatType: ChatTypePrivate,
	}))
}

func TestCreateAndGetUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)

	u, err := s.GetUser(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, u)

	seedUser(t, s, 42)
	// Creating twice is a no-op.
	seedUser(t, s, 42)

	u, err = s.GetUser(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, int64(42), u.ChatID)
	assert.Equal(t, "Sam", u.Name)
	assert.False(t, u.CreatedAt.IsZero())

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestSaveResponseRequiresUser(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	_, err := s.SaveResponse(context.Background(), 7, "2025-03-10", "Q", "", time.Time{})
	assert.ErrorIs(t, err, ErrUnknownUser)
}

func TestSaveResponseOneDayPerDate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	seedUser(t, s, 1)

	for _, q := range []string{"A", "B", "C"} {
		_, err := s.SaveResponse(ctx, 1, "2025-03-10", q, "", time.Time{})
		require.NoError(t, err)
	}
	_, err := s.SaveResponse(ctx, 1, "2025-03-11", "A", "", time.Time{})
	require.NoError(t, err)

	days, err := s.GetDailyResponses(ctx, 1, "2025-01-01", "2025-12-31")
	require.NoError(t, err)
	require.Len(t, days, 2)

	dates := map[string]bool{}
	for _, d := range days {
		assert.False(t, dates[d.Date], "duplicate date %s", d.Date)
		dates[d.Date] = true
	}
	assert.Len(t, days[0].Responses, 3)
	assert.Len(t, days[1].Responses, 1)
}

func TestSaveResponseOpenQuestionDedup(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	seedUser(t, s, 1)
	const day = "2025-03-10"

	steps := []struct {
		question string
		answer   string
		want     bool
	}{
		{"What did you learn today?", "", true},
		{"What did you learn today?", "", false},
		{"What did you learn today?", "   ", false},
		{"What did you learn today?", "Go generics", true},
		{"What did you learn today?", "", true},
		{"What did you learn today?", "", false},
	}
	for i, step := range steps {
		saved, err := s.SaveResponse(ctx, 1, day, step.question, step.answer, time.Time{})
		require.NoError(t, err)
		assert.Equal(t, step.want, saved, "step %d", i)
	}

	d, err := s.GetDailyResponse(ctx, 1, day)
	require.NoError(t, err)
	require.NotNil(t, d)
	require.Len(t, d.Responses, 3)

	// No two unanswered records with the same text while both are open.
	open := 0
	for _, r := range d.Responses {
		if !r.Answered() {
			open++
		}
	}
	assert.Equal(t, 2, open)
	q, ok := d.LatestOpenQuestion()
	assert.True(t, ok)
	assert.Equal(t, "What did you learn today?", q)
}

func TestListUsersWithoutAnswer(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	const day = "2025-03-10"

	seedUser(t, s, 1)
	seedUser(t, s, 2)
	seedUser(t, s, 3)

	_, err := s.SaveResponse(ctx, 1, day, "Q", "", time.Time{})
	require.NoError(t, err)
	_, err = s.SaveResponse(ctx, 2, day, "Q", "", time.Time{})
	require.NoError(t, err)
	_, err = s.SaveResponse(ctx, 2, day, "Q", "answered", time.Time{})
	require.NoError(t, err)

	users, err := s.ListUsersWithoutAnswer(ctx, day)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, int64(1), users[0].UserID)
}

func TestGetDailyResponsesRange(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	seedUser(t, s, 1)

	for _, day := range []string{"2025-03-09", "2025-03-10", "2025-03-15", "2025-04-20", "2025-04-21"} {
		_, err := s.SaveResponse(ctx, 1, day, "Q", "A", time.Time{})
		require.NoError(t, err)
	}

	days, err := s.GetDailyResponses(ctx, 1, "2025-03-10", "2025-04-20")
	require.NoError(t, err)
	require.Len(t, days, 3)
	assert.Equal(t, "2025-03-10", days[0].Date)
	assert.Equal(t, "2025-04-20", days[2].Date)

	none, err := s.GetDailyResponses(ctx, 1, "2024-01-01", "2024-01-31")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRunSQLMaintenance(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	assert.NoError(t, s.RunSQLMaintenance(context.Background()))
	assert.NoError(t, s.Ping(context.Background()))
}
