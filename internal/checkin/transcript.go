package checkin

import (
	"fmt"
	"strings"

	"github.com/virevo/virevo/internal/database"
)

const noResponse = "No response"

// Transcript is the text sent to the evaluator along with simple counts.
type Transcript struct {
	Text       string
	Days       int
	Responses  int
	MissedDays int
}

// BuildTranscript renders days as a dated question/answer listing.
// A day counts as missed when any of its records carries missedAnswer.
func BuildTranscript(r DateRange, days []*database.DailyResponse, missedAnswer string) Transcript {
	var body strings.Builder
	t := Transcript{Days: len(days)}

	for _, day := range days {
		fmt.Fprintf(&body, "📅 *Date:* %s\n", day.Date)
		missed := false
		for _, resp := range day.Responses {
			answer := strings.TrimSpace(resp.Answer)
			if answer == "" {
				answer = noResponse
			}
			if resp.Answer == missedAnswer {
				missed = true
			}
			fmt.Fprintf(&body, "❓ *%s*\n➡️ %s\n\n", resp.Question, answer)
			t.Responses++
		}
		if missed {
			t.MissedDays++
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 *Performance Evaluation* 📊\n\n🗓️ *Date Range:* %s to %s\n", r.StartDate(), r.EndDate())
	fmt.Fprintf(&sb, "🚫 *Missed Days:* %d\n\n", t.MissedDays)
	sb.WriteString(body.String())
	t.Text = sb.String()
	return t
}
