package form

import (
	"fmt"

	"github.com/synergysphere/sphere/internal/models"
)

// Field names an editable draft field.
type Field string

const (
	FieldName        Field = "name"
	FieldDescription Field = "description"
	FieldStatus      Field = "status"
	FieldPriority    Field = "priority"
	FieldDueDate     Field = "due_date"
	FieldProgress    Field = "progress"
)

// Fields lists the editable fields in display order.
var Fields = []Field{FieldName, FieldDescription, FieldStatus, FieldPriority, FieldDueDate, FieldProgress}

// Label returns the field's display label.
func (fl Field) Label() string {
	switch fl {
	case FieldName:
		return "Name"
	case FieldDescription:
		return "Description"
	case FieldStatus:
		return "Status"
	case FieldPriority:
		return "Priority"
	case FieldDueDate:
		return "Due date"
	case FieldProgress:
		return "Progress"
	default:
		return string(fl)
	}
}

// Value returns the draft's current value of a field as text.
func (f *Form) Value(fl Field) string {
	switch fl {
	case FieldName:
		return f.draft.Name
	case FieldDescription:
		return f.draft.Description
	case FieldStatus:
		return string(f.draft.Status)
	case FieldPriority:
		return string(f.draft.Priority)
	case FieldDueDate:
		return f.draft.DueDate.String()
	case FieldProgress:
		return fmt.Sprintf("%d", f.draft.Progress)
	default:
		return ""
	}
}

// Update sets a field from text input. Only the known field set is
// accepted; values that cannot be parsed are rejected and leave the draft
// unchanged.
func (f *Form) Update(fl Field, value string) error {
	switch fl {
	case FieldName:
		return f.SetName(value)
	case FieldDescription:
		return f.SetDescription(value)
	case FieldStatus:
		st, err := models.ParseStatus(value)
		if err != nil {
			return err
		}
		return f.SetStatus(st)
	case FieldPriority:
		p, err := models.ParsePriority(value)
		if err != nil {
			return err
		}
		return f.SetPriority(p)
	case FieldDueDate:
		d := models.ParseDate(value)
		if !d.IsZero() && !d.Valid() {
			return &models.ValidationError{Field: string(FieldDueDate), Message: "due date must be YYYY-MM-DD"}
		}
		return f.SetDueDate(d)
	case FieldProgress:
		p, err := models.ParseProgress(value)
		if err != nil {
			return err
		}
		return f.SetProgress(p)
	default:
		return &models.ValidationError{Field: string(fl), Message: "unknown field"}
	}
}

// SetName sets the draft name.
func (f *Form) SetName(v string) error {
	return f.edit(func(r *models.Resource) { r.Name = v })
}

// SetDescription sets the draft description.
func (f *Form) SetDescription(v string) error {
	return f.edit(func(r *models.Resource) { r.Description = v })
}

// SetStatus sets the draft status.
func (f *Form) SetStatus(v models.Status) error {
	return f.edit(func(r *models.Resource) { r.Status = v })
}

// SetPriority sets the draft priority.
func (f *Form) SetPriority(v models.Priority) error {
	return f.edit(func(r *models.Resource) { r.Priority = v })
}

// SetDueDate sets the draft due date. The zero Date clears it.
func (f *Form) SetDueDate(v models.Date) error {
	return f.edit(func(r *models.Resource) { r.DueDate = v })
}

// SetProgress sets the draft progress, clamped to [0, 100].
func (f *Form) SetProgress(v int) error {
	return f.edit(func(r *models.Resource) { r.Progress = models.ClampProgress(v) })
}

// edit applies a change to the draft. Edits are refused while submitting.
func (f *Form) edit(apply func(*models.Resource)) error {
	if f.state == Submitting {
		return ErrBusy
	}
	apply(&f.draft)
	return nil
}
