package audit

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/synergysphere/sphere/internal/store"
)

func TestHashInputs(t *testing.T) {
	a := HashInputs(map[string]string{"email": "ann@example.com"})
	b := HashInputs(map[string]string{"email": "ann@example.com"})
	c := HashInputs(map[string]string{"email": "bo@example.com"})
	if a != b {
		t.Error("Expected equal inputs to hash equally")
	}
	if a == c {
		t.Error("Expected different inputs to hash differently")
	}
	if len(a) != 64 {
		t.Errorf("Expected hex sha256, got %q", a)
	}
	if got := HashInputs(func() {}); got != "hash_error" {
		t.Errorf("Expected hash_error for unencodable input, got %q", got)
	}
}

func TestRecordWritesToStore(t *testing.T) {
	s, err := store.New(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer s.Close()

	r := NewRecorder(s, nil)
	ctx := context.Background()
	r.Record(ctx, "task.create", map[string]string{"name": "Docs"}, OutcomeSuccess, "1", "7", "")
	r.Record(ctx, "task.update", map[string]string{"name": ""}, Outcome(errors.New("bad")), "1", "7", "Task name is required")

	entries, err := s.ListAudit(ctx, 10)
	if err != nil {
		t.Fatalf("ListAudit failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].Action != "task.update" || entries[0].Outcome != OutcomeFailure || entries[0].Details != "Task name is required" {
		t.Errorf("Unexpected newest entry %+v", entries[0])
	}
	if entries[1].ResourceID != "7" || entries[1].InputsHash != HashInputs(map[string]string{"name": "Docs"}) {
		t.Errorf("Unexpected oldest entry %+v", entries[1])
	}
	if entries[1].ID == "" || entries[1].CreatedAt.IsZero() {
		t.Errorf("Expected id and timestamp, got %+v", entries[1])
	}
}

type failingWriter struct{}

func (failingWriter) WriteAudit(ctx context.Context, e store.AuditEntry) (*store.AuditEntry, error) {
	return nil, errors.New("disk full")
}

func TestRecordSwallowsWriteErrors(t *testing.T) {
	r := NewRecorder(failingWriter{}, nil)
	r.Record(context.Background(), "user.login", nil, OutcomeSuccess, "1", "", "")
}
