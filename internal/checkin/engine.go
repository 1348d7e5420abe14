// Package checkin implements the daily learning check-in conversation:
// first contact, sign-offs, performance summaries and free-form answers.
package checkin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/virevo/virevo/internal/config"
	"github.com/virevo/virevo/internal/database"
	"github.com/virevo/virevo/internal/llm"
	"github.com/virevo/virevo/internal/metrics"
)

// Sender delivers a text message to a chat.
type Sender interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// Inbound is a text message received from a user.
type Inbound struct {
	UserID   int64
	ChatID   int64
	Name     string
	ChatType string
	GroupID  int64
	Text     string
}

// Branch names the path HandleMessage took.
type Branch string

// Branches of HandleMessage.
const (
	BranchIgnored      Branch = "ignored"
	BranchFirstContact Branch = "first_contact"
	BranchGoodbye      Branch = "goodbye"
	BranchPerformance  Branch = "performance"
	BranchInvalidRange Branch = "invalid_range"
	BranchAnswer       Branch = "answer"
)

// Prompt is a system prompt with its sampling settings.
type Prompt struct {
	System      string
	Temperature float32
	MaxTokens   int
}

// Options configures an Engine.
type Options struct {
	Location        *time.Location
	Epoch           time.Time
	DefaultQuestion string
	MissedAnswer    string
	MinDays         int
	MinResponses    int
	Phrases         Phrases
	Messages        config.MessagesConfig
	FollowUp        Prompt
	Evaluation      Prompt
}

// OptionsFromConfig builds engine options from the loaded configuration.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	epoch, err := time.Parse(database.DateLayout, cfg.Checkin.Epoch)
	if err != nil {
		return Options{}, fmt.Errorf("invalid check-in epoch %q: %w", cfg.Checkin.Epoch, err)
	}
	return Options{
		Location:        cfg.Location(),
		Epoch:           epoch,
		DefaultQuestion: cfg.Checkin.DefaultQuestion,
		MissedAnswer:    cfg.Checkin.MissedAnswer,
		MinDays:         cfg.Checkin.MinEvaluationDays,
		MinResponses:    cfg.Checkin.MinEvaluationResponses,
		Phrases: Phrases{
			Openers:   cfg.Checkin.OpeningQuestions,
			Weekend:   cfg.Checkin.WeekendQuestions,
			Farewells: cfg.Checkin.Farewells,
			Goodbyes:  cfg.Checkin.GoodbyePhrases,
		},
		Messages: cfg.Messages,
		FollowUp: Prompt{
			System:      cfg.AI.FollowUpPrompt,
			Temperature: cfg.AI.Temperature,
			MaxTokens:   cfg.AI.FollowUpMaxTokens,
		},
		Evaluation: Prompt{
			System:      cfg.AI.EvaluationPrompt,
			Temperature: cfg.AI.Temperature,
			MaxTokens:   cfg.AI.EvaluationMaxTokens,
		},
	}, nil
}

// EngineOption customises an Engine.
type EngineOption func(*Engine)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// WithPicker replaces the random index source used for phrase pools.
func WithPicker(pick func(n int) int) EngineOption {
	return func(e *Engine) { e.opts.Phrases.pick = pick }
}

// Engine handles inbound check-in messages.
type Engine struct {
	store   database.Store
	llm     llm.Client
	sender  Sender
	opts    Options
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewEngine creates an Engine.
func NewEngine(store database.Store, client llm.Client, sender Sender, opts Options, m *metrics.Metrics, log *slog.Logger, options ...EngineOption) *Engine {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if log == nil {
		log = slog.Default()
	}
	e := &Engine{
		store:   store,
		llm:     client,
		sender:  sender,
		opts:    opts,
		metrics: m,
		logger:  log.With("component", "checkin"),
		now:     time.Now,
	}
	for _, o := range options {
		o(e)
	}
	return e
}

// Phrases returns the engine's phrase pools.
func (e *Engine) Phrases() Phrases { return e.opts.Phrases }

// Today returns the current calendar date in the engine's timezone.
func (e *Engine) Today() time.Time {
	return e.now().In(e.opts.Location)
}

// TodayDate returns Today formatted as YYYY-MM-DD.
func (e *Engine) TodayDate() string {
	return e.Today().Format(database.DateLayout)
}

// HandleMessage runs the check-in conversation for one inbound message.
// Upstream failures are replaced with canned replies; the returned error
// reports send or store failures for logging only.
func (e *Engine) HandleMessage(ctx context.Context, in Inbound) (Branch, error) {
	text := strings.TrimSpace(in.Text)
	if in.ChatType != database.ChatTypePrivate || text == "" || in.UserID == 0 {
		e.metrics.Incoming(string(BranchIgnored))
		return BranchIgnored, nil
	}
	log := e.logger.With("user_id", in.UserID, "chat_id", in.ChatID)

	user, err := e.store.GetUser(ctx, in.UserID)
	if err != nil {
		e.metrics.Error("store")
		return BranchIgnored, fmt.Errorf("failed to load user: %w", err)
	}

	var branch Branch
	switch {
	case user == nil:
		branch = BranchFirstContact
		err = e.firstContact(ctx, in)
	case e.opts.Phrases.IsGoodbye(text):
		branch = BranchGoodbye
		err = e.send(ctx, in.ChatID, e.opts.Phrases.Farewell())
	default:
		if q, ok := MatchPerfQuery(text); ok {
			branch, err = e.performance(ctx, in, q)
		} else {
			branch = BranchAnswer
			err = e.answer(ctx, in, text)
		}
	}

	e.metrics.Incoming(string(branch))
	if err != nil {
		log.WarnContext(ctx, "Check-in message handled with errors", "branch", branch, "error", err)
	} else {
		log.DebugContext(ctx, "Check-in message handled", "branch", branch)
	}
	return branch, err
}

// Enroll runs the first-contact branch for an unseen private-chat user and
// reports whether the user was new. Known users are left untouched, so a
// command such as /start never lands as an answer.
func (e *Engine) Enroll(ctx context.Context, in Inbound) (bool, error) {
	if in.ChatType != database.ChatTypePrivate || in.UserID == 0 {
		return false, nil
	}

	user, err := e.store.GetUser(ctx, in.UserID)
	if err != nil {
		e.metrics.Error("store")
		return false, fmt.Errorf("failed to load user: %w", err)
	}
	if user != nil {
		return false, nil
	}

	err = e.firstContact(ctx, in)
	e.metrics.Incoming(string(BranchFirstContact))
	if err != nil {
		e.logger.WarnContext(ctx, "Enrollment finished with errors", "user_id", in.UserID, "error", err)
	}
	return true, err
}

func (e *Engine) firstContact(ctx context.Context, in Inbound) error {
	user := &database.User{
		UserID:   in.UserID,
		ChatID:   in.ChatID,
		Name:     in.Name,
		ChatType: in.ChatType,
	}
	if in.GroupID != 0 {
		user.GroupID.Int64, user.GroupID.Valid = in.GroupID, true
	}
	if err := e.store.CreateUser(ctx, user); err != nil {
		e.metrics.Error("store")
		return fmt.Errorf("failed to create user: %w", err)
	}

	question := e.opts.Phrases.Opener()
	sendErr := e.send(ctx, in.ChatID, question)
	_, saveErr := e.store.SaveResponse(ctx, in.UserID, e.TodayDate(), question, "", e.now())
	if saveErr != nil {
		e.metrics.Error("store")
		saveErr = fmt.Errorf("failed to save opening question: %w", saveErr)
	}
	return errors.Join(sendErr, saveErr)
}

func (e *Engine) performance(ctx context.Context, in Inbound, q PerfQuery) (Branch, error) {
	r, err := ParseDateRange(q, e.Today(), e.opts.Epoch)
	if err != nil {
		return BranchInvalidRange, e.send(ctx, in.ChatID, e.opts.Messages.InvalidRange)
	}

	fetchErr := e.send(ctx, in.ChatID, fmt.Sprintf(e.opts.Messages.Fetching, r.StartDate(), r.EndDate()))
	result := e.Evaluate(ctx, in.UserID, r)
	return BranchPerformance, errors.Join(fetchErr, e.send(ctx, in.ChatID, result))
}

// Evaluate returns the reply for a performance query over r. It calls the LLM
// at most once and only when the range holds enough data.
func (e *Engine) Evaluate(ctx context.Context, userID int64, r DateRange) string {
	log := e.logger.With("user_id", userID, "start", r.StartDate(), "end", r.EndDate())

	user, err := e.store.GetUser(ctx, userID)
	if err != nil {
		e.metrics.Error("store")
		log.ErrorContext(ctx, "Failed to load user for evaluation", "error", err)
		return e.opts.Messages.EvaluationError
	}
	if user == nil {
		return e.opts.Messages.UserNotFound
	}

	days, err := e.store.GetDailyResponses(ctx, userID, r.StartDate(), r.EndDate())
	if err != nil {
		e.metrics.Error("store")
		log.ErrorContext(ctx, "Failed to load daily responses", "error", err)
		return e.opts.Messages.EvaluationError
	}
	if len(days) == 0 {
		return e.opts.Messages.NoResponses
	}

	transcript := BuildTranscript(r, days, e.opts.MissedAnswer)
	if transcript.Days < e.opts.MinDays || transcript.Responses < e.opts.MinResponses {
		log.InfoContext(ctx, "Not enough data to evaluate", "days", transcript.Days, "responses", transcript.Responses)
		return e.opts.Messages.NotEnoughData
	}

	summary, err := e.llm.Complete(ctx, &llm.Request{
		SystemPrompt: e.opts.Evaluation.System,
		UserText:     transcript.Text,
		Temperature:  e.opts.Evaluation.Temperature,
		MaxTokens:    e.opts.Evaluation.MaxTokens,
	})
	if err != nil {
		log.ErrorContext(ctx, "Performance evaluation failed", "error", err)
		return e.opts.Messages.EvaluationError
	}
	return fmt.Sprintf(e.opts.Messages.SummaryTemplate, summary)
}

func (e *Engine) answer(ctx context.Context, in Inbound, text string) error {
	today := e.TodayDate()
	day, err := e.store.GetDailyResponse(ctx, in.UserID, today)
	if err != nil {
		e.metrics.Error("store")
		return fmt.Errorf("failed to load today's responses: %w", err)
	}

	// The open question is taken from the snapshot, before any follow-up is stored.
	target, ok := day.LatestOpenQuestion()
	if !ok {
		target = e.opts.DefaultQuestion
	}

	var errs []error
	if last := day.Last(); last != nil && last.Answered() {
		errs = append(errs, e.followUp(ctx, in, day, text))
	}

	if _, err := e.store.SaveResponse(ctx, in.UserID, today, target, text, e.now()); err != nil {
		e.metrics.Error("store")
		errs = append(errs, fmt.Errorf("failed to save answer: %w", err))
	}
	return errors.Join(errs...)
}

func (e *Engine) followUp(ctx context.Context, in Inbound, day *database.DailyResponse, text string) error {
	req := &llm.Request{
		SystemPrompt: e.opts.FollowUp.System,
		UserText:     text,
		Temperature:  e.opts.FollowUp.Temperature,
		MaxTokens:    e.opts.FollowUp.MaxTokens,
	}
	for _, pair := range day.AnsweredPairs(2) {
		req.Context = append(req.Context,
			llm.Message{Role: llm.RoleAssistant, Content: pair.Question},
			llm.Message{Role: llm.RoleUser, Content: pair.Answer},
		)
	}

	question, err := e.llm.Complete(ctx, req)
	if err != nil {
		reply := e.opts.Messages.FollowUpError
		if errors.Is(err, llm.ErrEmptyResponse) {
			reply = e.opts.Messages.FollowUpFallback
		}
		e.logger.WarnContext(ctx, "Follow-up generation failed", "user_id", in.UserID, "error", err)
		return e.send(ctx, in.ChatID, reply)
	}

	if day.Asked(question) {
		e.logger.DebugContext(ctx, "Skipping repeated follow-up", "user_id", in.UserID)
		return nil
	}

	sendErr := e.send(ctx, in.ChatID, question)
	_, saveErr := e.store.SaveResponse(ctx, in.UserID, day.Date, question, "", e.now())
	if saveErr != nil {
		e.metrics.Error("store")
		saveErr = fmt.Errorf("failed to save follow-up: %w", saveErr)
	}
	return errors.Join(sendErr, saveErr)
}

func (e *Engine) send(ctx context.Context, chatID int64, text string) error {
	if err := e.sender.Send(ctx, chatID, text); err != nil {
		e.metrics.Outgoing("error")
		e.metrics.Error("telegram")
		return fmt.Errorf("failed to send message to chat %d: %w", chatID, err)
	}
	e.metrics.Outgoing("ok")
	return nil
}
