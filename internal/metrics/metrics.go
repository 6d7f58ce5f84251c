// Package metrics computes derived values from the current contents of a
// resource list. Every function is pure and is meant to be recomputed on
// each render.
package metrics

import (
	"fmt"
	"time"

	"github.com/synergysphere/sphere/internal/models"
)

// DueSoonDays is the window counted as "due soon" in a Summary.
const DueSoonDays = 7

// CountByStatus returns how many items have the given status.
func CountByStatus(items []models.Resource, status models.Status) int {
	n := 0
	for _, r := range items {
		if r.Status == status {
			n++
		}
	}
	return n
}

// DaysUntilDue returns the number of calendar days from today until due.
// Zero means due today and a negative value means overdue by that many days.
// ok is false when due is absent or not a valid date.
//
// Only calendar dates count. A due timestamp is first moved to today's time
// zone and then treated as its date, so anything due later today is 0.
func DaysUntilDue(today time.Time, due models.Date) (days int, ok bool) {
	if due.IsZero() || !due.Valid() {
		return 0, false
	}
	start := models.DateOf(today).Time()
	diff := due.In(today.Location()).Time().Sub(start)
	// Both ends are UTC midnights, so the difference is a whole number of days.
	return int(diff / (24 * time.Hour)), true
}

// FormatDue renders the result of DaysUntilDue for display.
func FormatDue(days int, ok bool) string {
	switch {
	case !ok:
		return "no due date"
	case days == 0:
		return "due today"
	case days == 1:
		return "1 day left"
	case days > 1:
		return fmt.Sprintf("%d days left", days)
	case days == -1:
		return "1 day overdue"
	default:
		return fmt.Sprintf("%d days overdue", -days)
	}
}

// DueLabel combines DaysUntilDue and FormatDue, reporting an unparsable
// date as unknown rather than absent.
func DueLabel(today time.Time, due models.Date) string {
	if !due.IsZero() && !due.Valid() {
		return "unknown"
	}
	return FormatDue(DaysUntilDue(today, due))
}

// Summary aggregates the headline numbers shown above a dashboard list.
type Summary struct {
	Total       int
	ByStatus    map[models.Status]int
	Overdue     int
	DueSoon     int
	AvgProgress int
}

// Summarize computes a Summary for items as of today. Completed items are
// never counted as overdue or due soon.
func Summarize(items []models.Resource, today time.Time) Summary {
	s := Summary{
		Total:    len(items),
		ByStatus: make(map[models.Status]int, len(models.Statuses)),
	}
	for _, st := range models.Statuses {
		s.ByStatus[st] = CountByStatus(items, st)
	}

	progress := 0
	for _, r := range items {
		progress += r.Progress
		if r.Status == models.StatusCompleted {
			continue
		}
		days, ok := DaysUntilDue(today, r.DueDate)
		if !ok {
			continue
		}
		if days < 0 {
			s.Overdue++
		} else if days <= DueSoonDays {
			s.DueSoon++
		}
	}
	if len(items) > 0 {
		s.AvgProgress = progress / len(items)
	}
	return s
}
