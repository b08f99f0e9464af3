// Package calendarview builds the month view of the liturgical calendar.
package calendarview

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/graph-gophers/dataloader/v7"

	"github.com/heartmarshall/commonprayer-backend/internal/domain"
)

const (
	maxBatch = 62
	wait     = 2 * time.Millisecond
)

type calendarProvider interface {
	LiturgicalDays(ctx context.Context, calendar domain.CalendarID, dates []domain.Date) ([]domain.LiturgicalDay, error)
}

// Request selects one month of one calendar.
type Request struct {
	Calendar string
	Year     int
	Month    int
	// BlackLetter includes optional observances in each day's entry.
	BlackLetter bool
}

// Validate checks the year, month and calendar id. An empty calendar is
// allowed and selects the service default.
func (r Request) Validate() error {
	var errs []domain.FieldError
	if r.Year < 1 || r.Year > 9999 {
		errs = append(errs, domain.FieldError{Field: "year", Message: "must be between 1 and 9999"})
	}
	if r.Month < 1 || r.Month > 12 {
		errs = append(errs, domain.FieldError{Field: "month", Message: "must be between 1 and 12"})
	}
	if r.Calendar != "" && !domain.CalendarID(r.Calendar).IsValid() {
		errs = append(errs, domain.FieldError{Field: "calendar", Message: fmt.Sprintf("unknown calendar %q", r.Calendar)})
	}
	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// Feast is a named observance.
type Feast struct {
	Feast string `json:"feast"`
	Name  string `json:"name"`
}

// Listing is the principal observance shown on a day.
type Listing struct {
	Observed string      `json:"observed"`
	Name     string      `json:"name"`
	Rank     domain.Rank `json:"rank"`
}

// DayEntry is one civil day of the month view.
type DayEntry struct {
	Date domain.Date `json:"date"`
	// Listing is set for days ranked holy day or higher.
	Listing         *Listing `json:"listing,omitempty"`
	Alternatives    []Feast  `json:"alternatives,omitempty"`
	BlackLetterDays []Feast  `json:"black_letter_days,omitempty"`
	// Notes are ember days and similar observances that are not feasts.
	Notes []Feast `json:"notes,omitempty"`
}

// Month is the month view.
type Month struct {
	Calendar domain.CalendarID `json:"calendar"`
	Year     int               `json:"year"`
	Month    int               `json:"month"`
	Days     []DayEntry        `json:"days"`
}

// Service assembles month views from the calendar provider.
type Service struct {
	calendar        calendarProvider
	defaultCalendar domain.CalendarID
	log             *slog.Logger
}

func NewService(logger *slog.Logger, calendar calendarProvider, defaultCalendar domain.CalendarID) *Service {
	if defaultCalendar == "" {
		defaultCalendar = domain.DefaultCalendar
	}
	return &Service{
		calendar:        calendar,
		defaultCalendar: defaultCalendar,
		log:             logger.With("service", "calendarview"),
	}
}

// Month looks up every civil day of the requested month. Lookups are issued
// individually and coalesced into batch calls to the provider.
func (s *Service) Month(ctx context.Context, req Request) (*Month, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	calendar := s.defaultCalendar
	if req.Calendar != "" {
		calendar = domain.CalendarID(req.Calendar)
	}

	loader := newDayLoader(s.calendar)

	first := domain.NewDate(req.Year, time.Month(req.Month), 1)
	var thunks []dataloader.Thunk[domain.LiturgicalDay]
	for d := first; d.Month == first.Month && d.Year == first.Year; d = d.AddDays(1) {
		thunks = append(thunks, loader.Load(ctx, dayKey{Calendar: calendar, Date: d}))
	}

	days := make([]DayEntry, 0, len(thunks))
	for _, thunk := range thunks {
		day, err := thunk()
		if err != nil {
			return nil, fmt.Errorf("calendarview: %s %04d-%02d: %w", calendar, req.Year, req.Month, err)
		}
		days = append(days, entryFor(day, req.BlackLetter))
	}

	s.log.DebugContext(ctx, "month view built",
		slog.String("calendar", calendar.String()),
		slog.Int("year", req.Year),
		slog.Int("month", req.Month),
	)

	return &Month{Calendar: calendar, Year: req.Year, Month: req.Month, Days: days}, nil
}

func entryFor(day domain.LiturgicalDay, blackLetter bool) DayEntry {
	e := DayEntry{Date: day.Date}

	if day.Rank.AtLeast(domain.RankHolyDay) {
		e.Listing = &Listing{
			Observed: day.Observed,
			Name:     firstNonEmpty(day.ObservedName, day.Observed),
			Rank:     day.Rank,
		}
	}

	for _, feast := range day.AlternativeServices {
		e.Alternatives = append(e.Alternatives, Feast{Feast: feast, Name: feastName(day, feast)})
	}
	if blackLetter {
		for _, h := range day.HolyDaysOfRank(domain.RankOptionalObservance) {
			e.BlackLetterDays = append(e.BlackLetterDays, Feast{Feast: h.Feast, Name: firstNonEmpty(h.Name, h.Feast)})
		}
	}
	for _, h := range day.HolyDaysOfRank(domain.RankEmberDay) {
		e.Notes = append(e.Notes, Feast{Feast: h.Feast, Name: firstNonEmpty(h.Name, h.Feast)})
	}
	return e
}

func feastName(day domain.LiturgicalDay, feast string) string {
	for _, h := range day.HolyDays {
		if h.Feast == feast && h.Name != "" {
			return h.Name
		}
	}
	return feast
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
