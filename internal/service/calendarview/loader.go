package calendarview

import (
	"context"
	"fmt"

	"github.com/graph-gophers/dataloader/v7"

	"github.com/heartmarshall/commonprayer-backend/internal/domain"
)

type dayKey struct {
	Calendar domain.CalendarID
	Date     domain.Date
}

// newDayLoader creates a loader that groups keys by calendar and issues one
// provider call per calendar. A loader caches for its own lifetime only.
func newDayLoader(calendar calendarProvider) *dataloader.Loader[dayKey, domain.LiturgicalDay] {
	return dataloader.NewBatchedLoader(
		newDaysBatchFn(calendar),
		dataloader.WithWait[dayKey, domain.LiturgicalDay](wait),
		dataloader.WithBatchCapacity[dayKey, domain.LiturgicalDay](maxBatch),
	)
}

func newDaysBatchFn(calendar calendarProvider) dataloader.BatchFunc[dayKey, domain.LiturgicalDay] {
	return func(ctx context.Context, keys []dayKey) []*dataloader.Result[domain.LiturgicalDay] {
		results := make([]*dataloader.Result[domain.LiturgicalDay], len(keys))

		byCalendar := make(map[domain.CalendarID][]int)
		var order []domain.CalendarID
		for i, k := range keys {
			if _, ok := byCalendar[k.Calendar]; !ok {
				order = append(order, k.Calendar)
			}
			byCalendar[k.Calendar] = append(byCalendar[k.Calendar], i)
		}

		for _, cal := range order {
			positions := byCalendar[cal]
			dates := make([]domain.Date, len(positions))
			for j, pos := range positions {
				dates[j] = keys[pos].Date
			}

			days, err := calendar.LiturgicalDays(ctx, cal, dates)
			if err == nil && len(days) != len(dates) {
				err = fmt.Errorf("calendar returned %d days for %d dates", len(days), len(dates))
			}
			for j, pos := range positions {
				if err != nil {
					results[pos] = &dataloader.Result[domain.LiturgicalDay]{Error: err}
					continue
				}
				results[pos] = &dataloader.Result[domain.LiturgicalDay]{Data: days[j]}
			}
		}
		return results
	}
}
