package checkin

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/virevo/virevo/internal/database"
)

func TestBuildTranscript(t *testing.T) {
	t.Parallel()

	r := DateRange{
		Start: time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC),
	}
	days := []*database.DailyResponse{
		{Date: "2025-03-01", Responses: []database.Response{
			{Question: "What did you learn today?", Answer: "Generics"},
			{Question: "Any examples?", Answer: "  "},
		}},
		{Date: "2025-03-02", Responses: []database.Response{
			{Question: "Missed", Answer: "No response"},
		}},
	}

	tr := BuildTranscript(r, days, "No response")

	assert.Equal(t, 2, tr.Days)
	assert.Equal(t, 3, tr.Responses)
	assert.Equal(t, 1, tr.MissedDays)
	assert.Equal(t, "📊 *Performance Evaluation* 📊\n\n"+
		"🗓️ *Date Range:* 2025-03-01 to 2025-03-03\n"+
		"🚫 *Missed Days:* 1\n\n"+
		"📅 *Date:* 2025-03-01\n"+
		"❓ *What did you learn today?*\n➡️ Generics\n\n"+
		"❓ *Any examples?*\n➡️ No response\n\n"+
		"📅 *Date:* 2025-03-02\n"+
		"❓ *Missed*\n➡️ No response\n\n", tr.Text)
}
