package database

import (
	"database/sql"
	"strings"
	"time"
)

// DateLayout is the calendar-date format used for DailyResponse.Date.
const DateLayout = "2006-01-02"

// Chat types reported by Telegram.
const (
	ChatTypePrivate    = "private"
	ChatTypeGroup      = "group"
	ChatTypeSupergroup = "supergroup"
	ChatTypeChannel    = "channel"
)

// User is a Telegram user enrolled in the daily check-in.
type User struct {
	ID        int64         `db:"id"`
	UserID    int64         `db:"user_id"`
	ChatID    int64         `db:"chat_id"`
	Name      string        `db:"name"`
	ChatType  string        `db:"chat_type"`
	GroupID   sql.NullInt64 `db:"group_id"`
	CreatedAt time.Time     `db:"created_at"`
	UpdatedAt time.Time     `db:"updated_at"`
}

// DailyResponse groups one user's question/answer records for a calendar day.
type DailyResponse struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	Date      string    `db:"date"`
	CreatedAt time.Time `db:"created_at"`

	Responses []Response `db:"-"`
}

// Response is a single append-only question/answer record.
// An empty Answer means the question is still waiting for a reply.
type Response struct {
	ID              int64     `db:"id"`
	DailyResponseID int64     `db:"daily_response_id"`
	Question        string    `db:"question"`
	Answer          string    `db:"answer"`
	Timestamp       time.Time `db:"timestamp"`
}

// Answered reports whether the record carries a non-blank answer.
func (r Response) Answered() bool {
	return strings.TrimSpace(r.Answer) != ""
}

// Last returns the most recent record of the day, or nil.
func (d *DailyResponse) Last() *Response {
	if d == nil || len(d.Responses) == 0 {
		return nil
	}
	return &d.Responses[len(d.Responses)-1]
}

// LatestOpenQuestion returns the most recent question that is still open,
// i.e. whose latest record with the same text is unanswered.
func (d *DailyResponse) LatestOpenQuestion() (string, bool) {
	if d == nil {
		return "", false
	}
	seen := make(map[string]bool, len(d.Responses))
	for i := len(d.Responses) - 1; i >= 0; i-- {
		r := d.Responses[i]
		if seen[r.Question] {
			continue
		}
		seen[r.Question] = true
		if !r.Answered() {
			return r.Question, true
		}
	}
	return "", false
}

// Asked reports whether question was already asked that day.
func (d *DailyResponse) Asked(question string) bool {
	if d == nil {
		return false
	}
	for _, r := range d.Responses {
		if r.Question == question {
			return true
		}
	}
	return false
}

// AnsweredPairs returns up to n of the most recent answered records, oldest first.
func (d *DailyResponse) AnsweredPairs(n int) []Response {
	if d == nil || n <= 0 {
		return nil
	}
	var out []Response
	for i := len(d.Responses) - 1; i >= 0 && len(out) < n; i-- {
		if d.Responses[i].Answered() {
			out = append(out, d.Responses[i])
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
