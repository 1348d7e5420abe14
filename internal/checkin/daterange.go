package checkin

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/virevo/virevo/internal/database"
)

// ErrInvalidDateRange is returned for day/month pairs that do not form a valid range.
var ErrInvalidDateRange = errors.New("invalid date range")

// trailingWindow is the number of days before the given date included when no "to" is present.
const trailingWindow = 6

var perfPattern = regexp.MustCompile(`(?i)^perf\s+(\d{1,2})(?:-(\d{1,2}))?(?:\s+to\s+(\d{1,2})(?:-(\d{1,2}))?)?$`)

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// StartDate formats Start as YYYY-MM-DD.
func (r DateRange) StartDate() string { return r.Start.Format(database.DateLayout) }

// EndDate formats End as YYYY-MM-DD.
func (r DateRange) EndDate() string { return r.End.Format(database.DateLayout) }

// PerfQuery holds the raw groups of a "perf" command.
type PerfQuery struct {
	StartDay   string
	StartMonth string
	EndDay     string
	EndMonth   string
}

// MatchPerfQuery reports whether text is a performance query and returns its groups.
func MatchPerfQuery(text string) (PerfQuery, bool) {
	m := perfPattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return PerfQuery{}, false
	}
	return PerfQuery{StartDay: m[1], StartMonth: m[2], EndDay: m[3], EndMonth: m[4]}, true
}

// ParseDateRange resolves q against today's date in the year of now.
// A missing start month is the current month, a missing end day is the start day,
// and a missing end month is the start month. Without an end the range is the
// seven days ending on the given date. The start never precedes epoch.
func ParseDateRange(q PerfQuery, now, epoch time.Time) (DateRange, error) {
	year := now.Year()

	startMonth := q.StartMonth
	if startMonth == "" {
		startMonth = fmt.Sprint(int(now.Month()))
	}
	endDay := q.EndDay
	if endDay == "" {
		endDay = q.StartDay
	}
	endMonth := q.EndMonth
	if endMonth == "" {
		endMonth = startMonth
	}

	start, err := parseDay(year, startMonth, q.StartDay)
	if err != nil {
		return DateRange{}, err
	}
	end, err := parseDay(year, endMonth, endDay)
	if err != nil {
		return DateRange{}, err
	}

	if q.EndDay == "" {
		start = start.AddDate(0, 0, -trailingWindow)
	}

	epochDay := time.Date(epoch.Year(), epoch.Month(), epoch.Day(), 0, 0, 0, 0, time.UTC)
	if start.Before(epochDay) {
		start = epochDay
	}
	if end.Before(start) {
		return DateRange{}, fmt.Errorf("%w: end %s before start %s", ErrInvalidDateRange,
			end.Format(database.DateLayout), start.Format(database.DateLayout))
	}
	return DateRange{Start: start, End: end}, nil
}

// parseDay validates a zero-padded date by round-tripping it through time.Parse.
func parseDay(year int, month, day string) (time.Time, error) {
	s := fmt.Sprintf("%04d-%s-%s", year, pad2(month), pad2(day))
	t, err := time.Parse(database.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s", ErrInvalidDateRange, s)
	}
	return t, nil
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
