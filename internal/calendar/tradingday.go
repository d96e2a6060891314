package calendar

import "time"

// IsTradingDay reports whether the US equity market is open on the
// Eastern calendar day containing t. Weekends and federal market
// holidays (with weekend observance shifts) are closed days.
func IsTradingDay(t time.Time) bool {
	day := EasternDate(t)
	switch day.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	_, holiday := marketHolidays(day.Year())[monthDay(day)]
	return !holiday
}

type ymd struct {
	m time.Month
	d int
}

func monthDay(t time.Time) ymd { return ymd{t.Month(), t.Day()} }

// marketHolidays returns NYSE closure dates for a year, already shifted
// to their observed weekday (Saturday observes Friday, Sunday observes
// Monday).
func marketHolidays(year int) map[ymd]struct{} {
	dates := []time.Time{
		observed(time.Date(year, time.January, 1, 0, 0, 0, 0, eastern)), // New Year's Day
		nthWeekday(year, time.January, time.Monday, 3),                  // MLK Day
		nthWeekday(year, time.February, time.Monday, 3),                 // Presidents' Day
		goodFriday(year),                                                  //
		lastWeekday(year, time.May, time.Monday),                          // Memorial Day
		observed(time.Date(year, time.June, 19, 0, 0, 0, 0, eastern)),     // Juneteenth
		observed(time.Date(year, time.July, 4, 0, 0, 0, 0, eastern)),      // Independence Day
		nthWeekday(year, time.September, time.Monday, 1),                  // Labor Day
		nthWeekday(year, time.November, time.Thursday, 4),                 // Thanksgiving
		observed(time.Date(year, time.December, 25, 0, 0, 0, 0, eastern)), // Christmas
	}
	out := make(map[ymd]struct{}, len(dates))
	for _, d := range dates {
		out[monthDay(d)] = struct{}{}
	}
	return out
}

func observed(d time.Time) time.Time {
	switch d.Weekday() {
	case time.Saturday:
		return d.AddDate(0, 0, -1)
	case time.Sunday:
		return d.AddDate(0, 0, 1)
	}
	return d
}

func nthWeekday(year int, month time.Month, weekday time.Weekday, n int) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, eastern)
	offset := (int(weekday) - int(first.Weekday()) + 7) % 7
	return first.AddDate(0, 0, offset+(n-1)*7)
}

func lastWeekday(year int, month time.Month, weekday time.Weekday) time.Time {
	last := time.Date(year, month+1, 1, 0, 0, 0, 0, eastern).AddDate(0, 0, -1)
	offset := (int(last.Weekday()) - int(weekday) + 7) % 7
	return last.AddDate(0, 0, -offset)
}

// goodFriday derives the Friday before Easter using the Gregorian
// computus (Meeus/Jones/Butcher).
func goodFriday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	easter := time.Date(year, time.Month(month), day, 0, 0, 0, 0, eastern)
	return easter.AddDate(0, 0, -2)
}
