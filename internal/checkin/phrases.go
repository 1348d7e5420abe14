package checkin

import (
	"math/rand/v2"
	"strings"
	"time"
)

// Phrases holds the fixed text pools the bot draws from.
type Phrases struct {
	Openers   []string
	Weekend   []string
	Farewells []string
	Goodbyes  []string

	// pick returns an index in [0, n). Defaults to math/rand.
	pick func(n int) int
}

func (p Phrases) choose(pool []string) string {
	if len(pool) == 0 {
		return ""
	}
	pick := p.pick
	if pick == nil {
		pick = rand.IntN
	}
	return pool[pick(len(pool))]
}

// Opener returns a random opening question.
func (p Phrases) Opener() string { return p.choose(p.Openers) }

// Farewell returns a random farewell.
func (p Phrases) Farewell() string { return p.choose(p.Farewells) }

// WeekendFollowUp returns a weekend question on Saturday and Sunday, or "" otherwise.
func (p Phrases) WeekendFollowUp(day time.Time) string {
	switch day.Weekday() {
	case time.Saturday, time.Sunday:
		return p.choose(p.Weekend)
	default:
		return ""
	}
}

// IsGoodbye reports whether text contains any sign-off phrase, ignoring case.
func (p Phrases) IsGoodbye(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range p.Goodbyes {
		if phrase != "" && strings.Contains(lower, strings.ToLower(phrase)) {
			return true
		}
	}
	return false
}
