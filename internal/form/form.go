// Package form implements the create/edit form contract: a typed draft that
// is validated locally, submitted wholesale to the backend, and folded back
// into a list store on success.
//
// State transitions:
//
//	Editing    --Begin (name present)--> Submitting
//	Editing    --Begin (name blank)----> Editing    (validation message)
//	Submitting --Complete(ok)----------> Succeeded  (store updated, form closed)
//	Submitting --Complete(err)---------> Failed --> Editing (message, draft kept)
//	Succeeded  --Open------------------> Editing    (draft reset)
//
// Failed is transient: a failed submission lands back in Editing with
// Failed reporting true until the next Begin or Open.
package form

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/synergysphere/sphere/internal/api"
	"github.com/synergysphere/sphere/internal/liststore"
	"github.com/synergysphere/sphere/internal/models"
)

// State is the lifecycle position of a form.
type State int

const (
	Editing State = iota
	Submitting
	Succeeded
)

func (s State) String() string {
	switch s {
	case Editing:
		return "editing"
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Mode says whether a form creates a new record or edits an existing one.
type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

var (
	// ErrBusy is returned by Begin while a submission is in flight.
	ErrBusy = errors.New("form is already submitting")
	// ErrNotSubmitting is returned by Complete when no submission is pending.
	ErrNotSubmitting = errors.New("form is not submitting")
	// ErrClosed is returned when acting on a closed form.
	ErrClosed = errors.New("form is closed")
)

// Writer sends a draft to the backend and returns the canonical record.
type Writer interface {
	Create(ctx context.Context, kind models.Kind, r models.Resource) (*models.Resource, error)
	Update(ctx context.Context, kind models.Kind, r models.Resource) (*models.Resource, error)
}

// Sink receives committed records. liststore.Store implements it.
type Sink interface {
	Append(r models.Resource) error
	Replace(r models.Resource) error
}

// Form holds a draft and its submission state.
type Form struct {
	kind      models.Kind
	mode      Mode
	createdBy models.ID
	draft     models.Resource
	state     State
	message   string
	lastErr   error
	open      bool
}

// NewCreate returns an open create form with default field values.
// createdBy is stamped on the draft at submission time.
func NewCreate(kind models.Kind, createdBy models.ID) *Form {
	return &Form{
		kind:      kind,
		mode:      ModeCreate,
		createdBy: createdBy,
		draft:     models.NewResource(),
		open:      true,
	}
}

// NewEdit returns an open edit form seeded with a copy of r, so changes to
// the draft do not reach the store until they are committed.
func NewEdit(kind models.Kind, r models.Resource) *Form {
	return &Form{
		kind:  kind,
		mode:  ModeEdit,
		draft: r.Clone(),
		open:  true,
	}
}

// Kind returns the resource kind being edited.
func (f *Form) Kind() models.Kind { return f.kind }

// Mode returns whether this is a create or edit form.
func (f *Form) Mode() Mode { return f.mode }

// State returns the current state.
func (f *Form) State() State { return f.state }

// Busy reports whether a submission is in flight. Submit controls should be
// disabled while it is true.
func (f *Form) Busy() bool { return f.state == Submitting }

// IsOpen reports whether the form is showing.
func (f *Form) IsOpen() bool { return f.open }

// Message returns the validation or server message to display, if any.
func (f *Form) Message() string { return f.message }

// Failed reports whether the last submission failed. The form is back in
// Editing and may be submitted again.
func (f *Form) Failed() bool { return f.lastErr != nil }

// Err returns the error of the last failed submission, or nil.
func (f *Form) Err() error { return f.lastErr }

// Draft returns a copy of the current draft.
func (f *Form) Draft() models.Resource { return f.draft.Clone() }

// Open shows the form again after it was closed. A create form starts from
// defaults only after a successful submission; a failed draft is kept. A
// submission still in flight is left to complete into the reopened form.
func (f *Form) Open() {
	f.open = true
	if f.state == Submitting {
		return
	}
	if f.mode == ModeCreate && f.state == Succeeded {
		f.draft = models.NewResource()
	}
	f.state = Editing
	f.message = ""
	f.lastErr = nil
}

// Close hides the form. An in-flight submission still completes.
func (f *Form) Close() {
	f.open = false
}

// Begin validates the draft and moves to Submitting, returning the payload
// to send. On a validation failure the form stays in Editing with a message
// and no request must be made.
func (f *Form) Begin() (models.Resource, error) {
	if !f.open {
		return models.Resource{}, ErrClosed
	}
	if f.state == Submitting {
		return models.Resource{}, ErrBusy
	}
	f.state = Editing
	if err := models.ValidateDraft(f.kind, f.draft); err != nil {
		f.message = api.UserMessage(err)
		return models.Resource{}, err
	}

	payload := f.draft.Clone()
	payload.Name = strings.TrimSpace(payload.Name)
	if f.mode == ModeCreate {
		payload.ID = ""
		payload.CreatedBy = f.createdBy
	}
	f.state = Submitting
	f.message = ""
	f.lastErr = nil
	return payload, nil
}

// Complete folds the result of a submission back in. On success the saved
// record is appended (create) or replaced (edit) in sink, the form closes,
// and a create form resets to defaults. On failure the draft is kept and the
// message is set from err.
//
// A created record that is already in sink (a reload raced the response)
// replaces the existing element. If the sink rejects the record, for
// example an edit of a record that is no longer in the list, the form
// fails with that message.
func (f *Form) Complete(saved *models.Resource, err error, sink Sink) error {
	if f.state != Submitting {
		return ErrNotSubmitting
	}
	if err == nil && saved == nil {
		err = fmt.Errorf("%s: empty response", f.kind)
	}
	if err != nil {
		f.fail(err)
		return err
	}

	var sinkErr error
	if f.mode == ModeCreate {
		sinkErr = sink.Append(*saved)
		if errors.Is(sinkErr, liststore.ErrDuplicateID) {
			sinkErr = sink.Replace(*saved)
		}
	} else {
		sinkErr = sink.Replace(*saved)
	}
	if sinkErr != nil {
		f.fail(sinkErr)
		return sinkErr
	}

	f.state = Succeeded
	f.message = ""
	f.open = false
	if f.mode == ModeCreate {
		f.draft = models.NewResource()
	} else {
		f.draft = saved.Clone()
	}
	return nil
}

// Submit runs Begin, the backend call and Complete in one step.
func (f *Form) Submit(ctx context.Context, w Writer, sink Sink) (*models.Resource, error) {
	payload, err := f.Begin()
	if err != nil {
		return nil, err
	}
	var saved *models.Resource
	if f.mode == ModeCreate {
		saved, err = w.Create(ctx, f.kind, payload)
	} else {
		saved, err = w.Update(ctx, f.kind, payload)
	}
	if err := f.Complete(saved, err, sink); err != nil {
		return nil, err
	}
	return saved, nil
}

func (f *Form) fail(err error) {
	f.state = Editing
	f.lastErr = err
	f.message = api.UserMessage(err)
	if f.message == "" {
		f.message = api.GenericFailure
	}
}
