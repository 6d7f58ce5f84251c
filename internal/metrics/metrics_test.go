package metrics

import (
	"testing"
	"time"

	"github.com/synergysphere/sphere/internal/models"
)

func TestDaysUntilDue(t *testing.T) {
	today := time.Date(2025, time.March, 10, 15, 45, 0, 0, time.UTC)
	day := 24 * time.Hour

	tests := []struct {
		name   string
		due    models.Date
		want   int
		wantOK bool
	}{
		{"today", models.DateOf(today), 0, true},
		{"in three days", models.DateOf(today.Add(3 * day)), 3, true},
		{"two days ago", models.DateOf(today.Add(-2 * day)), -2, true},
		{"absent", models.Date{}, 0, false},
		{"unparsable", models.ParseDate("soon"), 0, false},
		{"across month", models.NewDate(2025, time.April, 1), 22, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DaysUntilDue(today, tt.due)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("days = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDaysUntilDueIgnoresLocalTimeOfDay(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	// 23:30 local on the 10th is still the 10th for the user.
	today := time.Date(2025, time.March, 10, 23, 30, 0, 0, loc)
	got, ok := DaysUntilDue(today, models.NewDate(2025, time.March, 11))
	if !ok || got != 1 {
		t.Errorf("Expected 1 day, got %d (ok=%v)", got, ok)
	}
}

func TestDaysUntilDueTimestamp(t *testing.T) {
	today := time.Date(2025, time.March, 10, 1, 0, 0, 0, time.UTC)

	// Only the date counts: 23:00 two days out is still two days.
	if got, _ := DaysUntilDue(today, models.ParseDate("2025-03-12T23:00:00Z")); got != 2 {
		t.Errorf("Expected 2 days, got %d", got)
	}
	if got, _ := DaysUntilDue(today, models.ParseDate("2025-03-10T18:00:00Z")); got != 0 {
		t.Errorf("Expected due today, got %d", got)
	}

	// 22:00 UTC-5 on the 10th is already the 11th for a UTC viewer.
	due := models.ParseDate("2025-03-10T22:00:00-05:00")
	if got, _ := DaysUntilDue(today, due); got != 1 {
		t.Errorf("Expected 1 day in UTC, got %d", got)
	}
	west := time.Date(2025, time.March, 10, 8, 0, 0, 0, time.FixedZone("UTC-5", -5*60*60))
	if got, _ := DaysUntilDue(west, due); got != 0 {
		t.Errorf("Expected due today in UTC-5, got %d", got)
	}
}

func TestFormatDue(t *testing.T) {
	tests := []struct {
		days int
		ok   bool
		want string
	}{
		{0, false, "no due date"},
		{0, true, "due today"},
		{1, true, "1 day left"},
		{5, true, "5 days left"},
		{-1, true, "1 day overdue"},
		{-4, true, "4 days overdue"},
	}
	for _, tt := range tests {
		if got := FormatDue(tt.days, tt.ok); got != tt.want {
			t.Errorf("FormatDue(%d, %v) = %q, want %q", tt.days, tt.ok, got, tt.want)
		}
	}
	if got := DueLabel(time.Now(), models.ParseDate("someday")); got != "unknown" {
		t.Errorf("Expected unknown for bad date, got %q", got)
	}
}

func TestCountByStatusAndSummarize(t *testing.T) {
	today := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	items := []models.Resource{
		{ID: "1", Status: models.StatusPlanning, Progress: 0, DueDate: models.NewDate(2025, time.March, 12)},
		{ID: "2", Status: models.StatusInProgress, Progress: 50, DueDate: models.NewDate(2025, time.March, 1)},
		{ID: "3", Status: models.StatusInProgress, Progress: 70},
		{ID: "4", Status: models.StatusCompleted, Progress: 100, DueDate: models.NewDate(2025, time.February, 1)},
		{ID: "5", Status: models.StatusReview, Progress: 80, DueDate: models.ParseDate("bogus")},
	}

	if got := CountByStatus(items, models.StatusInProgress); got != 2 {
		t.Errorf("Expected 2 in progress, got %d", got)
	}
	if got := CountByStatus(nil, models.StatusPlanning); got != 0 {
		t.Errorf("Expected 0 for empty list, got %d", got)
	}

	s := Summarize(items, today)
	if s.Total != 5 {
		t.Errorf("Expected total 5, got %d", s.Total)
	}
	if s.ByStatus[models.StatusCompleted] != 1 || s.ByStatus[models.StatusReview] != 1 {
		t.Errorf("Unexpected status counts: %v", s.ByStatus)
	}
	if s.Overdue != 1 {
		t.Errorf("Expected 1 overdue, got %d", s.Overdue)
	}
	if s.DueSoon != 1 {
		t.Errorf("Expected 1 due soon, got %d", s.DueSoon)
	}
	if s.AvgProgress != 60 {
		t.Errorf("Expected average progress 60, got %d", s.AvgProgress)
	}

	if empty := Summarize(nil, today); empty.Total != 0 || empty.AvgProgress != 0 {
		t.Errorf("Unexpected empty summary: %+v", empty)
	}
}
