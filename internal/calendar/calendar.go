// Package calendar supplies the accounting-period keys used for trade
// quotas and the US equity trading-day check. All decisions are dated
// in US Eastern time regardless of where the process runs.
package calendar

import (
	"fmt"
	"strings"
	"time"
)

// Period selects the quota accounting window.
type Period string

const (
	PeriodMonth Period = "month"
	PeriodWeek  Period = "week"
)

func ParsePeriod(s string) (Period, error) {
	switch Period(strings.ToLower(strings.TrimSpace(s))) {
	case PeriodMonth, "":
		return PeriodMonth, nil
	case PeriodWeek:
		return PeriodWeek, nil
	default:
		return "", fmt.Errorf("calendar: unknown quota period %q (want month or week)", s)
	}
}

// Clock abstracts "now" so quota rollover and wash-trade windows can be
// pinned in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }

var eastern = loadEastern()

// Eastern returns the US market timezone.
func Eastern() *time.Location { return eastern }

func loadEastern() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		// Containers without tzdata fall back to a fixed offset; quota
		// keys shift by at most one hour around DST transitions.
		return time.FixedZone("ET", -5*3600)
	}
	return loc
}

// EasternDate collapses an instant to its US-Eastern calendar day.
func EasternDate(t time.Time) time.Time {
	et := t.In(eastern)
	return time.Date(et.Year(), et.Month(), et.Day(), 0, 0, 0, 0, eastern)
}

// PeriodKey returns the accounting-period identifier for t: "2006-01"
// for monthly quotas, ISO-week "2006-W02" for weekly ones.
func PeriodKey(p Period, t time.Time) string {
	et := t.In(eastern)
	switch p {
	case PeriodWeek:
		year, week := et.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	default:
		return et.Format("2006-01")
	}
}
