package domain

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a civil calendar date without time of day or zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate normalizes its arguments the way time.Date does.
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf returns the civil date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, NewValidationError("date", fmt.Sprintf("invalid date %q, want YYYY-MM-DD", s))
	}
	return DateOf(t), nil
}

func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) String() string {
	return d.Time().Format(dateLayout)
}

func (d Date) IsZero() bool { return d == Date{} }

// AddDays returns the date n days after d.
func (d Date) AddDays(n int) Date {
	return NewDate(d.Year, d.Month, d.Day+n)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// CalendarID names a liturgical calendar.
type CalendarID string

const (
	CalendarBCP1979 CalendarID = "bcp1979"
	CalendarLFF2018 CalendarID = "lff2018"

	DefaultCalendar = CalendarBCP1979
)

func (c CalendarID) String() string { return string(c) }

func (c CalendarID) IsValid() bool {
	switch c {
	case CalendarBCP1979, CalendarLFF2018:
		return true
	}
	return false
}

// AlternateObservance is the request value that selects a day's alternate observance.
const AlternateObservance = "alternate"

// HolyDay is a feast falling on a given date.
type HolyDay struct {
	Feast string `json:"feast"`
	Name  string `json:"name"`
	Rank  Rank   `json:"rank"`
}

// LiturgicalDay is the calendar's answer for one date.
type LiturgicalDay struct {
	Date                Date      `json:"date"`
	Evening             bool      `json:"evening"`
	Season              string    `json:"season,omitempty"`
	Week                string    `json:"week,omitempty"`
	Observed            string    `json:"observed"`
	ObservedName        string    `json:"observed_name,omitempty"`
	Alternate           *string   `json:"alternate,omitempty"`
	Rank                Rank      `json:"rank,omitempty"`
	HolyDays            []HolyDay `json:"holy_days,omitempty"`
	AlternativeServices []string  `json:"alternative_services,omitempty"`
}

// ObservedFor returns the observance to use. The alternate is chosen only when
// requested and present; otherwise the primary observance stands.
func (d LiturgicalDay) ObservedFor(alternate string) string {
	if alternate == AlternateObservance && d.Alternate != nil {
		return *d.Alternate
	}
	return d.Observed
}

// HolyDaysOfRank returns the holy days with exactly the given rank.
func (d LiturgicalDay) HolyDaysOfRank(rank Rank) []HolyDay {
	var out []HolyDay
	for _, h := range d.HolyDays {
		if h.Rank == rank {
			out = append(out, h)
		}
	}
	return out
}
