package store

import (
	"context"
	"fmt"
	"testing"
)

func TestAuditLog(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()
	ctx := context.Background()

	entries, err := s.ListAudit(ctx, 0)
	if err != nil {
		t.Fatalf("ListAudit failed: %v", err)
	}
	if entries == nil || len(entries) != 0 {
		t.Errorf("Expected empty slice, got %#v", entries)
	}

	for i := 0; i < 5; i++ {
		e, err := s.WriteAudit(ctx, AuditEntry{Action: "task.create", InputsHash: "h", Outcome: "success", ResourceID: fmt.Sprint(i)})
		if err != nil {
			t.Fatalf("WriteAudit failed: %v", err)
		}
		if e.ID == "" || e.CreatedAt.IsZero() {
			t.Errorf("Expected id and timestamp, got %+v", e)
		}
	}

	entries, err = s.ListAudit(ctx, 2)
	if err != nil {
		t.Fatalf("ListAudit failed: %v", err)
	}
	if len(entries) != 2 || entries[0].ResourceID != "4" || entries[1].ResourceID != "3" {
		t.Errorf("Expected newest two entries, got %+v", entries)
	}
}
