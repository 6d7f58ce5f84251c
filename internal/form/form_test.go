package form

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/synergysphere/sphere/internal/api"
	"github.com/synergysphere/sphere/internal/liststore"
	"github.com/synergysphere/sphere/internal/models"
)

// fakeWriter records calls and returns canned results.
type fakeWriter struct {
	creates []models.Resource
	updates []models.Resource
	result  *models.Resource
	err     error
}

func (w *fakeWriter) Create(ctx context.Context, kind models.Kind, r models.Resource) (*models.Resource, error) {
	w.creates = append(w.creates, r)
	return w.result, w.err
}

func (w *fakeWriter) Update(ctx context.Context, kind models.Kind, r models.Resource) (*models.Resource, error) {
	w.updates = append(w.updates, r)
	return w.result, w.err
}

func TestCreateDefaults(t *testing.T) {
	f := NewCreate(models.KindProject, "1")
	d := f.Draft()
	if d.Status != models.StatusPlanning || d.Priority != models.PriorityMedium || d.Progress != 0 || d.Name != "" || d.Description != "" {
		t.Errorf("Unexpected defaults: %+v", d)
	}
	if f.State() != Editing || !f.IsOpen() {
		t.Errorf("Expected open editing form, got %s open=%v", f.State(), f.IsOpen())
	}
}

func TestSubmitEmptyNameMakesNoCall(t *testing.T) {
	for _, name := range []string{"", "   ", "\t"} {
		f := NewCreate(models.KindProject, "1")
		f.SetName(name)
		w := &fakeWriter{}
		store := liststore.New(models.KindProject)

		_, err := f.Submit(context.Background(), w, store)

		var verr *models.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("name %q: expected ValidationError, got %v", name, err)
		}
		if len(w.creates) != 0 {
			t.Errorf("name %q: expected no network call, got %d", name, len(w.creates))
		}
		if f.State() != Editing {
			t.Errorf("name %q: expected Editing, got %s", name, f.State())
		}
		if f.Message() != "Project name is required" {
			t.Errorf("name %q: unexpected message %q", name, f.Message())
		}
	}
}

func TestCreateSuccessAppendsAndResets(t *testing.T) {
	store := liststore.New(models.KindProject)
	w := &fakeWriter{result: &models.Resource{ID: "7", Name: "X", Status: models.StatusPlanning, Priority: models.PriorityMedium}}

	f := NewCreate(models.KindProject, "42")
	f.SetName("  X ")
	f.SetStatus(models.StatusPlanning)

	saved, err := f.Submit(context.Background(), w, store)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if saved.ID != "7" {
		t.Errorf("Expected saved id 7, got %s", saved.ID)
	}

	if len(w.creates) != 1 {
		t.Fatalf("Expected one create call, got %d", len(w.creates))
	}
	sent := w.creates[0]
	if sent.Name != "X" || sent.CreatedBy != "42" || !sent.ID.IsZero() {
		t.Errorf("Unexpected payload: %+v", sent)
	}

	items := store.Items()
	if len(items) != 1 || items[0].ID != "7" {
		t.Errorf("Expected store [{id:7}], got %+v", items)
	}
	if f.State() != Succeeded || f.IsOpen() {
		t.Errorf("Expected closed Succeeded form, got %s open=%v", f.State(), f.IsOpen())
	}
	if f.Draft().Name != "" {
		t.Errorf("Expected draft reset, got %+v", f.Draft())
	}
}

func TestCreateFailureKeepsDraft(t *testing.T) {
	store := liststore.New(models.KindTask)
	w := &fakeWriter{err: &api.ServerError{Op: "create task", StatusCode: 400, Message: "Project is archived"}}

	f := NewCreate(models.KindTask, "1")
	f.SetName("Write docs")
	f.SetProgress(20)

	if _, err := f.Submit(context.Background(), w, store); err == nil {
		t.Fatal("Expected error")
	}
	if f.State() != Editing || !f.Failed() {
		t.Errorf("Expected failed submission back in Editing, got %s failed=%v", f.State(), f.Failed())
	}
	if f.Message() != "Project is archived" {
		t.Errorf("Expected server message, got %q", f.Message())
	}
	if d := f.Draft(); d.Name != "Write docs" || d.Progress != 20 {
		t.Errorf("Draft not retained: %+v", d)
	}
	if !f.IsOpen() {
		t.Error("Form should stay open after failure")
	}
	if store.Len() != 0 {
		t.Error("Store should be unchanged after failure")
	}

	var serr *api.ServerError
	if !errors.As(f.Err(), &serr) || serr.StatusCode != 400 {
		t.Errorf("Expected ServerError from Err, got %v", f.Err())
	}

	f.SetDescription("for v2")
	w.err = nil
	w.result = &models.Resource{ID: "3", Name: "Write docs"}
	if _, err := f.Submit(context.Background(), w, store); err != nil {
		t.Fatalf("Retry failed: %v", err)
	}
	if store.Len() != 1 {
		t.Errorf("Expected 1 item after retry, got %d", store.Len())
	}
	if f.Failed() || f.Err() != nil {
		t.Error("Expected failure cleared after retry")
	}
}

func TestFailureWithoutMessageUsesFallback(t *testing.T) {
	f := NewCreate(models.KindTask, "1")
	f.SetName("A")
	f.Begin()
	f.Complete(nil, &api.ServerError{StatusCode: 500}, liststore.New(models.KindTask))
	if f.Message() != api.GenericFailure+" (status 500)" {
		t.Errorf("Unexpected fallback message %q", f.Message())
	}

	f2 := NewCreate(models.KindTask, "1")
	f2.SetName("A")
	f2.Begin()
	f2.Complete(nil, nil, liststore.New(models.KindTask))
	if !f2.Failed() {
		t.Error("Expected failure for empty response")
	}
}

func TestSubmitWhileSubmittingIsNoop(t *testing.T) {
	f := NewCreate(models.KindProject, "1")
	f.SetName("A")

	if _, err := f.Begin(); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if !f.Busy() {
		t.Error("Expected Busy while submitting")
	}
	if _, err := f.Begin(); !errors.Is(err, ErrBusy) {
		t.Errorf("Expected ErrBusy on second Begin, got %v", err)
	}
	if err := f.SetName("B"); !errors.Is(err, ErrBusy) {
		t.Errorf("Expected edits refused while busy, got %v", err)
	}

	w := &fakeWriter{}
	if _, err := f.Submit(context.Background(), w, liststore.New(models.KindProject)); !errors.Is(err, ErrBusy) {
		t.Errorf("Expected ErrBusy from Submit, got %v", err)
	}
	if len(w.creates) != 0 {
		t.Errorf("Expected no duplicate network call, got %d", len(w.creates))
	}
}

func TestCompleteWithoutBegin(t *testing.T) {
	f := NewCreate(models.KindProject, "1")
	if err := f.Complete(&models.Resource{ID: "1"}, nil, liststore.New(models.KindProject)); !errors.Is(err, ErrNotSubmitting) {
		t.Errorf("Expected ErrNotSubmitting, got %v", err)
	}
}

func TestEditScenario(t *testing.T) {
	store := liststore.New(models.KindTask)
	store.Set([]models.Resource{
		{ID: "1", Name: "A", Progress: 10},
		{ID: "2", Name: "B", Progress: 60},
	})

	orig, _ := store.Get("1")
	f := NewEdit(models.KindTask, orig)
	f.SetName("A2")
	f.SetProgress(40)

	// The store is untouched until commit.
	if cur, _ := store.Get("1"); cur.Name != "A" {
		t.Fatalf("Draft edit leaked into store: %+v", cur)
	}

	w := &fakeWriter{result: &models.Resource{ID: "1", Name: "A2", Progress: 40}}
	if _, err := f.Submit(context.Background(), w, store); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if len(w.updates) != 1 || w.updates[0].ID != "1" {
		t.Fatalf("Expected update of id 1, got %+v", w.updates)
	}

	items := store.Items()
	if items[0].Name != "A2" || items[0].Progress != 40 {
		t.Errorf("Record not replaced: %+v", items[0])
	}
	if !items[1].Equal(models.Resource{ID: "2", Name: "B", Progress: 60}) {
		t.Errorf("Other record changed: %+v", items[1])
	}
	if f.IsOpen() || f.State() != Succeeded {
		t.Errorf("Expected closed Succeeded form, got %s open=%v", f.State(), f.IsOpen())
	}
}

func TestEditOfVanishedRecordFails(t *testing.T) {
	store := liststore.New(models.KindTask)
	f := NewEdit(models.KindTask, models.Resource{ID: "9", Name: "Ghost"})
	w := &fakeWriter{result: &models.Resource{ID: "9", Name: "Ghost"}}

	_, err := f.Submit(context.Background(), w, store)
	if !errors.Is(err, liststore.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
	if !f.Failed() || f.State() != Editing {
		t.Errorf("Expected failure, got %s failed=%v", f.State(), f.Failed())
	}
}

func TestUpdateFieldSet(t *testing.T) {
	f := NewCreate(models.KindTask, "1")
	steps := []struct {
		field Field
		value string
	}{
		{FieldName, "Ship it"},
		{FieldDescription, "final push"},
		{FieldStatus, "in progress"},
		{FieldPriority, "high"},
		{FieldDueDate, "2025-06-01"},
		{FieldProgress, "150"},
	}
	for _, s := range steps {
		if err := f.Update(s.field, s.value); err != nil {
			t.Fatalf("Update(%s, %q) failed: %v", s.field, s.value, err)
		}
	}
	d := f.Draft()
	if d.Name != "Ship it" || d.Description != "final push" || d.Status != models.StatusInProgress ||
		d.Priority != models.PriorityHigh || d.DueDate != models.NewDate(2025, time.June, 1) || d.Progress != 100 {
		t.Errorf("Unexpected draft: %+v", d)
	}
	if f.Value(FieldProgress) != "100" || f.Value(FieldStatus) != "In Progress" {
		t.Errorf("Unexpected values %q %q", f.Value(FieldProgress), f.Value(FieldStatus))
	}

	for _, bad := range []struct {
		field Field
		value string
	}{
		{FieldStatus, "archived"},
		{FieldPriority, "urgent"},
		{FieldDueDate, "tomorrow"},
		{FieldProgress, "lots"},
		{Field("owner"), "me"},
	} {
		var verr *models.ValidationError
		if err := f.Update(bad.field, bad.value); !errors.As(err, &verr) {
			t.Errorf("Update(%s, %q): expected ValidationError, got %v", bad.field, bad.value, err)
		}
	}
	if f.Draft().Progress != 100 || f.Draft().Status != models.StatusInProgress {
		t.Error("Rejected updates changed the draft")
	}

	if err := f.Update(FieldDueDate, ""); err != nil || !f.Draft().DueDate.IsZero() {
		t.Errorf("Expected due date cleared, got %v %q", err, f.Draft().DueDate)
	}
}

func TestReopenCreateFormStartsFresh(t *testing.T) {
	store := liststore.New(models.KindProject)
	f := NewCreate(models.KindProject, "1")
	f.SetName("A")
	f.Submit(context.Background(), &fakeWriter{result: &models.Resource{ID: "1", Name: "A"}}, store)

	f.Open()
	if f.State() != Editing || !f.IsOpen() || f.Draft().Name != "" {
		t.Errorf("Unexpected reopened form: %s open=%v draft=%+v", f.State(), f.IsOpen(), f.Draft())
	}

	f.Close()
	if _, err := f.Begin(); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
}

func TestReopenAfterFailureKeepsDraft(t *testing.T) {
	store := liststore.New(models.KindProject)
	w := &fakeWriter{err: &api.ServerError{StatusCode: 500, Message: "db down"}}
	f := NewCreate(models.KindProject, "1")
	f.SetName("Keep me")
	f.SetProgress(30)
	f.Submit(context.Background(), w, store)

	f.Close()
	f.Open()
	if d := f.Draft(); d.Name != "Keep me" || d.Progress != 30 {
		t.Errorf("Expected draft kept across close, got %+v", d)
	}
	if f.Failed() || f.Message() != "" {
		t.Errorf("Expected reopened form cleared of the old failure, got %q", f.Message())
	}
}

func TestReopenWhileSubmitting(t *testing.T) {
	store := liststore.New(models.KindProject)
	f := NewCreate(models.KindProject, "1")
	f.SetName("Keep me")
	if _, err := f.Begin(); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}

	f.Close()
	f.Open()
	if !f.IsOpen() || !f.Busy() {
		t.Fatalf("Expected open busy form, got open=%v %s", f.IsOpen(), f.State())
	}

	f.Complete(nil, &api.ServerError{StatusCode: 500, Message: "db down"}, store)
	if !f.IsOpen() || f.Message() != "db down" {
		t.Errorf("Expected open form showing failure, got open=%v %q", f.IsOpen(), f.Message())
	}
	if _, err := f.Begin(); err != nil {
		t.Errorf("Expected retry to begin, got %v", err)
	}
}

func TestCreateAlreadyInStoreReplaces(t *testing.T) {
	store := liststore.New(models.KindTask)
	store.Set([]models.Resource{{ID: "1", Name: "A"}, {ID: "2", Name: "B"}})

	f := NewCreate(models.KindTask, "1")
	f.SetName("B")
	w := &fakeWriter{result: &models.Resource{ID: "2", Name: "B", Progress: 10}}
	if _, err := f.Submit(context.Background(), w, store); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if f.State() != Succeeded || f.Failed() {
		t.Errorf("Expected success, got %s failed=%v", f.State(), f.Failed())
	}
	items := store.Items()
	if len(items) != 2 || items[1].Progress != 10 {
		t.Errorf("Expected record replaced in place, got %+v", items)
	}
}
