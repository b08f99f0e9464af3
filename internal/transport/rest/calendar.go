package rest

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/heartmarshall/commonprayer-backend/internal/domain"
	"github.com/heartmarshall/commonprayer-backend/internal/service/calendarview"
)

type calendarService interface {
	Month(ctx context.Context, req calendarview.Request) (*calendarview.Month, error)
}

// CalendarHandler serves month views of a liturgical calendar.
type CalendarHandler struct {
	calendar calendarService
	log      *slog.Logger
}

// NewCalendarHandler creates a CalendarHandler.
func NewCalendarHandler(calendar calendarService, logger *slog.Logger) *CalendarHandler {
	return &CalendarHandler{calendar: calendar, log: logger.With("handler", "calendar")}
}

// Month handles GET /api/calendar/{calendar}/{year}/{month}?blackletter=false.
func (h *CalendarHandler) Month(w http.ResponseWriter, r *http.Request) {
	var errs []domain.FieldError
	year, err := strconv.Atoi(r.PathValue("year"))
	if err != nil {
		errs = append(errs, domain.FieldError{Field: "year", Message: "must be a number"})
	}
	month, err := strconv.Atoi(r.PathValue("month"))
	if err != nil {
		errs = append(errs, domain.FieldError{Field: "month", Message: "must be a number"})
	}
	blackLetter := true
	if v := r.URL.Query().Get("blackletter"); v != "" {
		blackLetter, err = strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, domain.FieldError{Field: "blackletter", Message: "must be a boolean"})
		}
	}
	if len(errs) > 0 {
		handleError(h.log, w, r, domain.NewValidationErrors(errs))
		return
	}

	result, err := h.calendar.Month(r.Context(), calendarview.Request{
		Calendar:    r.PathValue("calendar"),
		Year:        year,
		Month:       month,
		BlackLetter: blackLetter,
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
