package checkin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/virevo/virevo/internal/config"
	"github.com/virevo/virevo/internal/database"
	"github.com/virevo/virevo/internal/llm"
	"github.com/virevo/virevo/internal/logger"
)

// MockLLM is a mock type for the llm.Client interface
type MockLLM struct {
	mock.Mock
}

func (m *MockLLM) Complete(ctx context.Context, req *llm.Request) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

type sentMessage struct {
	ChatID int64
	Text   string
}

type recordingSender struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (s *recordingSender) Send(_ context.Context, chatID int64, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentMessage{chatID, text})
	return s.err
}

func (s *recordingSender) texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.sent))
	for i, m := range s.sent {
		out[i] = m.Text
	}
	return out
}

var fixedNow = time.Date(2025, time.March, 12, 10, 0, 0, 0, time.UTC)

type harness struct {
	engine *Engine
	store  database.Store
	llm    *MockLLM
	sender *recordingSender
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db, err := database.NewDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.CloseDB(db) })

	opts, err := OptionsFromConfig(config.Default())
	require.NoError(t, err)

	h := &harness{
		store:  database.NewStore(db, nil),
		llm:    &MockLLM{},
		sender: &recordingSender{},
	}
	h.engine = NewEngine(h.store, h.llm, h.sender, opts, nil, logger.Discard(),
		WithClock(func() time.Time { return fixedNow }),
		WithPicker(func(int) int { return 0 }),
	)
	return h
}

func (h *harness) enroll(t *testing.T, userID int64) {
	t.Helper()
	require.NoError(t, h.store.CreateUser(context.Background(), &database.User{
		UserID: userID, ChatID: userID, Name: "Ada", ChatType: database.ChatTypePrivate,
	}))
}

func (h *harness) say(t *testing.T, userID int64, text string) Branch {
	t.Helper()
	branch, err := h.engine.HandleMessage(context.Background(), Inbound{
		UserID: userID, ChatID: userID, Name: "Ada", ChatType: database.ChatTypePrivate, Text: text,
	})
	require.NoError(t, err)
	return branch
}

func (h *harness) today(t *testing.T, userID int64) *database.DailyResponse {
	t.Helper()
	d, err := h.store.GetDailyResponse(context.Background(), userID, "2025-03-12")
	require.NoError(t, err)
	return d
}

func TestHandleMessageIgnoresGroupsAndEmptyText(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	branch, err := h.engine.HandleMessage(context.Background(), Inbound{UserID: 1, ChatID: -100, ChatType: "group", Text: "hello"})
	require.NoError(t, err)
	assert.Equal(t, BranchIgnored, branch)

	branch, err = h.engine.HandleMessage(context.Background(), Inbound{UserID: 1, ChatID: 1, ChatType: "private", Text: "   "})
	require.NoError(t, err)
	assert.Equal(t, BranchIgnored, branch)

	assert.Empty(t, h.sender.texts())
	u, err := h.store.GetUser(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestHandleMessageFirstContact(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	assert.Equal(t, BranchFirstContact, h.say(t, 5, "hi"))

	assert.Equal(t, []string{config.DefaultOpeningQuestions[0]}, h.sender.texts())
	u, err := h.store.GetUser(context.Background(), 5)
	require.NoError(t, err)
	require.NotNil(t, u)

	day := h.today(t, 5)
	require.NotNil(t, day)
	require.Len(t, day.Responses, 1)
	assert.Equal(t, config.DefaultOpeningQuestions[0], day.Responses[0].Question)
	assert.False(t, day.Responses[0].Answered())
	h.llm.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestEnroll(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	in := Inbound{UserID: 5, ChatID: 50, Name: "Ada", ChatType: database.ChatTypePrivate, Text: "/start"}

	enrolled, err := h.engine.Enroll(ctx, in)
	require.NoError(t, err)
	assert.True(t, enrolled)
	assert.Equal(t, []string{config.DefaultOpeningQuestions[0]}, h.sender.texts())

	day := h.today(t, 5)
	require.NotNil(t, day)
	require.Len(t, day.Responses, 1)
	assert.False(t, day.Responses[0].Answered())

	// Known users are not touched again.
	enrolled, err = h.engine.Enroll(ctx, in)
	require.NoError(t, err)
	assert.False(t, enrolled)
	assert.Len(t, h.sender.texts(), 1)
	assert.Len(t, h.today(t, 5).Responses, 1)

	// Groups never enroll.
	enrolled, err = h.engine.Enroll(ctx, Inbound{UserID: 6, ChatID: -100, ChatType: "group", Text: "/start"})
	require.NoError(t, err)
	assert.False(t, enrolled)
	u, err := h.store.GetUser(ctx, 6)
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestHandleMessageGoodbyeWritesNothing(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.enroll(t, 1)
	_, err := h.store.SaveResponse(context.Background(), 1, "2025-03-12", "Q", "", fixedNow)
	require.NoError(t, err)
	before := h.today(t, 1)

	for _, text := range []string{"bye", "Thanks a lot!", "ok see you tomorrow"} {
		assert.Equal(t, BranchGoodbye, h.say(t, 1, text))
	}

	assert.Equal(t, before, h.today(t, 1))
	for _, text := range h.sender.texts() {
		assert.Contains(t, config.DefaultFarewells, text)
	}
	h.llm.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestHandleMessageInvalidRange(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.enroll(t, 1)

	assert.Equal(t, BranchInvalidRange, h.say(t, 1, "perf 99-99"))

	assert.Equal(t, []string{config.DefaultMessages.InvalidRange}, h.sender.texts())
	assert.Nil(t, h.today(t, 1))
	h.llm.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestHandleMessagePerformanceNoDays(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.enroll(t, 1)

	assert.Equal(t, BranchPerformance, h.say(t, 1, "perf 10-3 to 20-4"))

	assert.Equal(t, []string{
		"⏳ Fetching performance from *2025-03-10* to *2025-04-20*...",
		config.DefaultMessages.NoResponses,
	}, h.sender.texts())
	h.llm.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestHandleMessagePerformanceNotEnoughData(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.enroll(t, 1)
	ctx := context.Background()

	_, err := h.store.SaveResponse(ctx, 1, "2025-03-10", "Q1", "A1", fixedNow)
	require.NoError(t, err)
	_, err = h.store.SaveResponse(ctx, 1, "2025-03-10", "Q2", "A2", fixedNow)
	require.NoError(t, err)
	_, err = h.store.SaveResponse(ctx, 1, "2025-03-10", "Q3", "A3", fixedNow)
	require.NoError(t, err)

	h.say(t, 1, "perf 10-3 to 12-3")

	texts := h.sender.texts()
	require.Len(t, texts, 2)
	assert.Equal(t, config.DefaultMessages.NotEnoughData, texts[1])
	h.llm.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestHandleMessagePerformanceCallsLLMOnce(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.enroll(t, 1)
	ctx := context.Background()

	_, err := h.store.SaveResponse(ctx, 1, "2025-03-10", "What did you learn today?", "Goroutines", fixedNow)
	require.NoError(t, err)
	_, err = h.store.SaveResponse(ctx, 1, "2025-03-10", "Which part?", "", fixedNow)
	require.NoError(t, err)
	_, err = h.store.SaveResponse(ctx, 1, "2025-03-11", "Missed", "No response", fixedNow)
	require.NoError(t, err)

	h.llm.On("Complete", mock.Anything, mock.MatchedBy(func(req *llm.Request) bool {
		return req.SystemPrompt == config.DefaultEvaluationPrompt &&
			req.MaxTokens == config.DefaultAIEvaluationMaxTokens &&
			strings.Contains(req.UserText, "🗓️ *Date Range:* 2025-03-10 to 2025-03-12") &&
			strings.Contains(req.UserText, "❓ *Which part?*\n➡️ No response") &&
			strings.Contains(req.UserText, "🚫 *Missed Days:* 1")
	})).Return("Score: 72/100", nil).Once()

	h.say(t, 1, "perf 10-3 to 12-3")

	h.llm.AssertNumberOfCalls(t, "Complete", 1)
	texts := h.sender.texts()
	require.Len(t, texts, 2)
	assert.Equal(t, fmt.Sprintf(config.DefaultMessages.SummaryTemplate, "Score: 72/100"), texts[1])
	assert.Equal(t, "🔹 *Performance Summary* 🔹\n\nScore: 72/100\n\n📌 Keep up the effort! 💪", texts[1])
}

func TestHandleMessagePerformanceLLMFailure(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.enroll(t, 1)
	ctx := context.Background()
	for _, d := range []string{"2025-03-10", "2025-03-11"} {
		for _, q := range []string{"Q1", "Q2"} {
			_, err := h.store.SaveResponse(ctx, 1, d, q, "A", fixedNow)
			require.NoError(t, err)
		}
	}
	h.llm.On("Complete", mock.Anything, mock.Anything).Return("", errors.New("timeout")).Once()

	h.say(t, 1, "perf 12-3")

	texts := h.sender.texts()
	require.Len(t, texts, 2)
	assert.Equal(t, config.DefaultMessages.EvaluationError, texts[1])
}

func TestHandleMessageAnswersOpenQuestion(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.enroll(t, 1)
	_, err := h.store.SaveResponse(context.Background(), 1, "2025-03-12", "Hello! What did you learn today?", "", fixedNow)
	require.NoError(t, err)

	assert.Equal(t, BranchAnswer, h.say(t, 1, "Channels in Go"))

	// The last record was unanswered, so no follow-up is requested.
	h.llm.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
	assert.Empty(t, h.sender.texts())

	day := h.today(t, 1)
	require.Len(t, day.Responses, 2)
	assert.Equal(t, "Hello! What did you learn today?", day.Responses[1].Question)
	assert.Equal(t, "Channels in Go", day.Responses[1].Answer)
}

func TestHandleMessageDefaultQuestionWhenNothingOpen(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.enroll(t, 1)

	h.say(t, 1, "I read about SQLite WAL")

	day := h.today(t, 1)
	require.Len(t, day.Responses, 1)
	assert.Equal(t, config.DefaultQuestion, day.Responses[0].Question)
}

func TestHandleMessageFollowUp(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.enroll(t, 1)
	ctx := context.Background()
	_, err := h.store.SaveResponse(ctx, 1, "2025-03-12", "What did you learn today?", "", fixedNow)
	require.NoError(t, err)
	_, err = h.store.SaveResponse(ctx, 1, "2025-03-12", "What did you learn today?", "Blender", fixedNow)
	require.NoError(t, err)

	h.llm.On("Complete", mock.Anything, mock.MatchedBy(func(req *llm.Request) bool {
		return req.UserText == "modeling mostly" &&
			req.MaxTokens == config.DefaultAIFollowUpMaxTokens &&
			len(req.Context) == 2 &&
			req.Context[0].Role == llm.RoleAssistant &&
			req.Context[1].Content == "Blender"
	})).Return("Modeling, animation, or texturing? 🎨", nil).Once()

	h.say(t, 1, "modeling mostly")

	assert.Equal(t, []string{"Modeling, animation, or texturing? 🎨"}, h.sender.texts())
	day := h.today(t, 1)
	require.Len(t, day.Responses, 4)
	assert.Equal(t, "Modeling, animation, or texturing? 🎨", day.Responses[2].Question)
	assert.False(t, day.Responses[2].Answered())
	// Nothing was open before the follow-up, so the answer goes to the default question.
	assert.Equal(t, config.DefaultQuestion, day.Responses[3].Question)
	assert.Equal(t, "modeling mostly", day.Responses[3].Answer)

	// The next message answers the follow-up; the regenerated question repeats and is skipped.
	h.llm.On("Complete", mock.Anything, mock.MatchedBy(func(req *llm.Request) bool {
		return req.UserText == "mostly texturing"
	})).Return("Modeling, animation, or texturing? 🎨", nil).Once()
	h.say(t, 1, "mostly texturing")
	assert.Len(t, h.sender.texts(), 1)
	day = h.today(t, 1)
	assert.Equal(t, "Modeling, animation, or texturing? 🎨", day.Last().Question)
	assert.Equal(t, "mostly texturing", day.Last().Answer)
}

func TestHandleMessageSkipsRepeatedFollowUp(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.enroll(t, 1)
	_, err := h.store.SaveResponse(context.Background(), 1, "2025-03-12", "What did you learn today?", "Go", fixedNow)
	require.NoError(t, err)

	h.llm.On("Complete", mock.Anything, mock.Anything).Return("What did you learn today?", nil).Once()

	h.say(t, 1, "more Go")

	assert.Empty(t, h.sender.texts())
	day := h.today(t, 1)
	require.Len(t, day.Responses, 2)
	assert.Equal(t, "more Go", day.Last().Answer)
}

func TestHandleMessageFollowUpFailureStillStoresAnswer(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.enroll(t, 1)
	_, err := h.store.SaveResponse(context.Background(), 1, "2025-03-12", "Q", "A", fixedNow)
	require.NoError(t, err)

	h.llm.On("Complete", mock.Anything, mock.Anything).Return("", errors.New("boom")).Once()

	h.say(t, 1, "something else")

	assert.Equal(t, []string{config.DefaultMessages.FollowUpError}, h.sender.texts())
	day := h.today(t, 1)
	require.Len(t, day.Responses, 2)
	assert.Equal(t, "something else", day.Last().Answer)
}

func TestHandleMessageReportsSendFailure(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.sender.err = errors.New("blocked by user")

	branch, err := h.engine.HandleMessage(context.Background(), Inbound{UserID: 9, ChatID: 9, ChatType: "private", Text: "hi"})
	assert.Equal(t, BranchFirstContact, branch)
	assert.Error(t, err)

	// The opening question is still recorded.
	day := h.today(t, 9)
	require.NotNil(t, day)
	assert.Len(t, day.Responses, 1)
}

func TestEvaluateUnknownUser(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	r := DateRange{Start: fixedNow.AddDate(0, 0, -6), End: fixedNow}
	assert.Equal(t, config.DefaultMessages.UserNotFound, h.engine.Evaluate(context.Background(), 404, r))
}
