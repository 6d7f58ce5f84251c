package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var promptStyle = lipgloss.NewStyle().
	Foreground(primaryColor).
	Bold(true)

// SearchBar is the "/" query input shown above the list.
type SearchBar struct {
	input   textinput.Model
	focused bool
}

// NewSearchBar creates an unfocused search bar.
func NewSearchBar() *SearchBar {
	ti := textinput.New()
	ti.Placeholder = "search name or description"
	ti.CharLimit = 128
	ti.Prompt = ""
	return &SearchBar{input: ti}
}

// Focus starts editing the query.
func (m *SearchBar) Focus() tea.Cmd {
	m.focused = true
	return m.input.Focus()
}

// Blur stops editing but keeps the query.
func (m *SearchBar) Blur() {
	m.focused = false
	m.input.Blur()
}

// Clear empties the query and blurs.
func (m *SearchBar) Clear() {
	m.input.SetValue("")
	m.Blur()
}

// Focused reports whether keys go to the search bar.
func (m *SearchBar) Focused() bool { return m.focused }

// Value returns the current query.
func (m *SearchBar) Value() string { return m.input.Value() }

// SetValue replaces the query.
func (m *SearchBar) SetValue(v string) { m.input.SetValue(v) }

// SetWidth sizes the input.
func (m *SearchBar) SetWidth(w int) { m.input.Width = w }

// Update forwards a message to the input.
func (m *SearchBar) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

// View renders the bar. An idle empty bar renders a hint.
func (m *SearchBar) View() string {
	if !m.focused && m.input.Value() == "" {
		return helpStyle.Render("Press / to search")
	}
	return inputBoxStyle.Render(promptStyle.Render("/ ") + m.input.View())
}
