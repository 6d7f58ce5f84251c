package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/synergysphere/sphere/internal/api"
	"github.com/synergysphere/sphere/internal/form"
	"github.com/synergysphere/sphere/internal/models"
)

// FormEditor renders one text input per draft field on top of a form.Form.
type FormEditor struct {
	form   *form.Form
	inputs []textinput.Model
	focus  int
	note   string
}

// NewFormEditor seeds inputs from the form's draft.
func NewFormEditor(f *form.Form) *FormEditor {
	e := &FormEditor{form: f}
	for _, fl := range form.Fields {
		ti := textinput.New()
		ti.CharLimit = 256
		ti.Width = 40
		ti.Prompt = ""
		ti.Placeholder = placeholder(fl)
		ti.SetValue(f.Value(fl))
		e.inputs = append(e.inputs, ti)
	}
	e.inputs[0].Focus()
	return e
}

func placeholder(fl form.Field) string {
	switch fl {
	case form.FieldStatus:
		parts := make([]string, len(models.Statuses))
		for i, s := range models.Statuses {
			parts[i] = string(s)
		}
		return strings.Join(parts, " | ")
	case form.FieldPriority:
		parts := make([]string, len(models.Priorities))
		for i, p := range models.Priorities {
			parts[i] = string(p)
		}
		return strings.Join(parts, " | ")
	case form.FieldDueDate:
		return "YYYY-MM-DD"
	case form.FieldProgress:
		return "0-100"
	default:
		return ""
	}
}

// Form returns the underlying form.
func (e *FormEditor) Form() *form.Form { return e.form }

// Next moves focus to the following field, wrapping around.
func (e *FormEditor) Next() {
	e.setFocus((e.focus + 1) % len(e.inputs))
}

// Prev moves focus to the previous field, wrapping around.
func (e *FormEditor) Prev() {
	e.setFocus((e.focus - 1 + len(e.inputs)) % len(e.inputs))
}

func (e *FormEditor) setFocus(i int) {
	e.inputs[e.focus].Blur()
	e.focus = i
	e.inputs[e.focus].Focus()
}

// SetValue sets the text of a field's input.
func (e *FormEditor) SetValue(fl form.Field, v string) {
	for i, f := range form.Fields {
		if f == fl {
			e.inputs[i].SetValue(v)
		}
	}
}

// Apply copies every input into the draft. The first rejected value is
// returned, noted on the panel, and its input is focused.
func (e *FormEditor) Apply() error {
	e.note = ""
	for i, fl := range form.Fields {
		if err := e.form.Update(fl, e.inputs[i].Value()); err != nil {
			e.setFocus(i)
			e.note = api.UserMessage(err)
			return err
		}
	}
	return nil
}

// Update forwards a key to the focused input. Input is ignored while the
// form is submitting.
func (e *FormEditor) Update(msg tea.Msg) tea.Cmd {
	if e.form.Busy() {
		return nil
	}
	var cmd tea.Cmd
	e.inputs[e.focus], cmd = e.inputs[e.focus].Update(msg)
	return cmd
}

// View renders the form panel.
func (e *FormEditor) View() string {
	var b strings.Builder

	verb := "New"
	if e.form.Mode() == form.ModeEdit {
		verb = "Edit"
	}
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s %s", verb, e.form.Kind().Label())) + "\n\n")

	for i, fl := range form.Fields {
		label := fmt.Sprintf("%-12s", fl.Label())
		marker := "  "
		if i == e.focus {
			marker = promptStyle.Render("▶ ")
		}
		b.WriteString(marker + labelStyle.Render(label) + " " + e.inputs[i].View() + "\n")
	}

	b.WriteString("\n")
	switch {
	case e.form.Busy():
		b.WriteString(mutedStyle.Render("Saving...") + "\n")
	case e.form.Message() != "":
		b.WriteString(errorStyle.Render(e.form.Message()) + "\n")
	case e.note != "":
		b.WriteString(errorStyle.Render(e.note) + "\n")
	default:
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("Tab/↑↓: field | Enter: save | Esc: cancel"))

	return panelStyle.Render(b.String())
}
