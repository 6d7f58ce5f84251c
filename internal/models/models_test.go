package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestIDAcceptsNumbersAndStrings(t *testing.T) {
	var r Resource
	if err := json.Unmarshal([]byte(`{"id":7,"name":"X","created_by":"u-1"}`), &r); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if r.ID != "7" {
		t.Errorf("Expected id 7, got %q", r.ID)
	}
	if r.CreatedBy != "u-1" {
		t.Errorf("Expected created_by u-1, got %q", r.CreatedBy)
	}

	data, err := json.Marshal(struct {
		A ID `json:"a"`
		B ID `json:"b"`
	}{A: "42", B: "abc-1"})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `{"a":42,"b":"abc-1"}` {
		t.Errorf("Unexpected encoding: %s", data)
	}
}

func TestResourceDefaultsOnDecode(t *testing.T) {
	var r Resource
	if err := json.Unmarshal([]byte(`{"id":1,"name":"A","progress":140}`), &r); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if r.Status != StatusPlanning {
		t.Errorf("Expected default status Planning, got %q", r.Status)
	}
	if r.Priority != PriorityMedium {
		t.Errorf("Expected default priority Medium, got %q", r.Priority)
	}
	if r.Progress != 100 {
		t.Errorf("Expected progress clamped to 100, got %d", r.Progress)
	}
	if !r.DueDate.IsZero() {
		t.Errorf("Expected no due date, got %q", r.DueDate)
	}
}

func TestResourceDecodeNormalizesEnums(t *testing.T) {
	var items []Resource
	data := `[
		{"id":1,"name":"a","status":"in_progress","priority":"HIGH"},
		{"id":2,"name":"b","status":"To-Do","priority":"low"},
		{"id":3,"name":"c","status":"Blocked","priority":"urgent"}
	]`
	if err := json.Unmarshal([]byte(data), &items); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	want := []struct {
		status   Status
		priority Priority
	}{
		{StatusInProgress, PriorityHigh},
		{StatusPlanning, PriorityLow},
		{"Blocked", "urgent"},
	}
	for i, w := range want {
		if items[i].Status != w.status || items[i].Priority != w.priority {
			t.Errorf("item %d = %q/%q, want %q/%q", i, items[i].Status, items[i].Priority, w.status, w.priority)
		}
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in    string
		zero  bool
		valid bool
		want  string
	}{
		{in: "", zero: true},
		{in: "2025-03-09", valid: true, want: "2025-03-09"},
		{in: "2025-03-09T18:30:00Z", valid: true, want: "2025-03-09"},
		{in: "2025-03-09T18:30:00", valid: true, want: "2025-03-09"},
		{in: "next tuesday", want: "next tuesday"},
		{in: "2025-02-30", want: "2025-02-30"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d := ParseDate(tt.in)
			if d.IsZero() != tt.zero {
				t.Errorf("IsZero = %v, want %v", d.IsZero(), tt.zero)
			}
			if d.Valid() != tt.valid {
				t.Errorf("Valid = %v, want %v", d.Valid(), tt.valid)
			}
			if d.String() != tt.want {
				t.Errorf("String = %q, want %q", d.String(), tt.want)
			}
		})
	}
}

func TestDateJSONNeverFails(t *testing.T) {
	var r Resource
	if err := json.Unmarshal([]byte(`{"name":"A","due_date":"garbage"}`), &r); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if r.DueDate.Valid() {
		t.Error("Expected invalid date")
	}
	if err := json.Unmarshal([]byte(`{"name":"A","due_date":12}`), &r); err != nil {
		t.Fatalf("Unmarshal of numeric date failed: %v", err)
	}
	if r.DueDate.Valid() || r.DueDate.IsZero() {
		t.Error("Expected present but invalid date")
	}

	data, _ := json.Marshal(Resource{Name: "A", DueDate: NewDate(2024, time.December, 1)})
	var back map[string]interface{}
	json.Unmarshal(data, &back)
	if back["due_date"] != "2024-12-01" {
		t.Errorf("Expected due_date 2024-12-01, got %v", back["due_date"])
	}
	data, _ = json.Marshal(Resource{Name: "A"})
	json.Unmarshal(data, &back)
	if back["due_date"] != nil {
		t.Errorf("Expected null due_date, got %v", back["due_date"])
	}
}

func TestParseStatus(t *testing.T) {
	for in, want := range map[string]Status{
		"Planning":    StatusPlanning,
		"in progress": StatusInProgress,
		"in_progress": StatusInProgress,
		"InProgress":  StatusInProgress,
		"REVIEW":      StatusReview,
		"completed":   StatusCompleted,
		"To-Do":       StatusPlanning,
		"Done":        StatusCompleted,
	} {
		got, err := ParseStatus(in)
		if err != nil {
			t.Errorf("ParseStatus(%q) error: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseStatus(%q) = %q, want %q", in, got, want)
		}
	}

	_, err := ParseStatus("archived")
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "status" {
		t.Errorf("Expected status ValidationError, got %v", err)
	}
}

func TestParseProgress(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"", 0, false},
		{"40", 40, false},
		{" 75% ", 75, false},
		{"-5", 0, false},
		{"250", 100, false},
		{"ten", 0, true},
		{"4.5", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseProgress(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseProgress(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseProgress(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestValidateDraft(t *testing.T) {
	r := NewResource()
	r.Name = "   "
	err := ValidateDraft(KindProject, r)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	if verr.Message != "Project name is required" {
		t.Errorf("Unexpected message %q", verr.Message)
	}

	r.Name = "Launch"
	if err := ValidateDraft(KindProject, r); err != nil {
		t.Errorf("Expected valid draft, got %v", err)
	}
	r.Progress = 101
	if err := ValidateDraft(KindTask, r); err == nil {
		t.Error("Expected progress out of range to be rejected")
	}
}

func TestCloneIsDeep(t *testing.T) {
	r := Resource{ID: "1", Name: "A", Members: []Member{{ID: "1", Name: "Ann"}}}
	c := r.Clone()
	c.Members[0].Name = "Bob"
	c.Name = "B"
	if r.Members[0].Name != "Ann" || r.Name != "A" {
		t.Error("Clone shares state with the original")
	}
	if r.MemberCount() != 1 {
		t.Errorf("Expected 1 member, got %d", r.MemberCount())
	}
	if (Resource{}).MemberCount() != 1 {
		t.Error("Expected implicit single member")
	}
}
