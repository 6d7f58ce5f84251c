package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/synergysphere/sphere/internal/metrics"
	"github.com/synergysphere/sphere/internal/models"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(mutedColor)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(secondaryColor).
			MarginTop(1)
)

// View implements tea.Model
func (a *App) View() string {
	var b strings.Builder

	b.WriteString(a.renderHeader() + "\n")
	b.WriteString(strings.Repeat("─", max(a.width, 1)) + "\n")
	b.WriteString(a.renderSummary() + "\n\n")

	contentHeight := a.height - 10
	if contentHeight < 5 {
		contentHeight = 5
	}

	switch a.mode {
	case modeForm:
		if a.editor != nil {
			b.WriteString(a.editor.View())
		}
	case modeDetail:
		b.WriteString(a.renderDetail())
	default:
		b.WriteString(a.search.View() + "\n")
		b.WriteString(a.renderList(contentHeight - 1))
	}

	// Message bar
	b.WriteString("\n")
	if a.message != "" {
		style := successStyle
		if strings.HasPrefix(a.message, "Error") {
			style = errorStyle
		}
		b.WriteString(style.Render(a.message))
	}
	b.WriteString("\n")

	b.WriteString(statusBarStyle.Width(max(a.width, 1)).Render(a.statusLine()))
	return b.String()
}

func (a *App) renderHeader() string {
	header := titleStyle.Render("SynergySphere")
	for i, kind := range tabs {
		label := fmt.Sprintf("%d %s", i+1, kind.Label()+"s")
		if i == a.tab {
			header += " " + activeTabStyle.Render(label)
		} else {
			header += " " + tabStyle.Render(label)
		}
	}
	user := a.session.User.DisplayName()
	if user == "" {
		user = "signed in"
	}
	if a.session.User.Role != "" {
		user += " (" + a.session.User.Role + ")"
	}
	return header + "  " + successStyle.Render("● "+user)
}

// renderSummary shows the derived metrics for the current view. They are
// recomputed on every render.
func (a *App) renderSummary() string {
	s := a.view().Summary(a.now())
	parts := []string{labelStyle.Render(fmt.Sprintf("%d total", s.Total))}
	for _, st := range models.Statuses {
		parts = append(parts, statusStyle(st).Render(fmt.Sprintf("%s %d %s", statusIcon(st), s.ByStatus[st], st)))
	}
	if s.Overdue > 0 {
		parts = append(parts, errorStyle.Render(fmt.Sprintf("%d overdue", s.Overdue)))
	}
	if s.DueSoon > 0 {
		parts = append(parts, lipgloss.NewStyle().Foreground(warningColor).Render(fmt.Sprintf("%d due soon", s.DueSoon)))
	}
	parts = append(parts, mutedStyle.Render(fmt.Sprintf("avg %d%%", s.AvgProgress)))
	return " " + strings.Join(parts, mutedStyle.Render(" · "))
}

func (a *App) renderList(height int) string {
	kind := a.kind()
	d := a.view()
	if a.loading[kind] && !d.Loaded() {
		return fmt.Sprintf("\n  Loading %s...\n", kind.Plural())
	}
	if err := d.LoadError(); err != nil && !d.Loaded() {
		return "\n  " + errorStyle.Render("Could not load "+kind.Plural()) + "  " + helpStyle.Render("press r to retry") + "\n"
	}

	items := d.Visible()
	if len(items) == 0 {
		if d.Query() != "" {
			return fmt.Sprintf("\n  No %s match %q.\n", kind.Plural(), d.Query())
		}
		return fmt.Sprintf("\n  No %s yet. Press n to create one.\n", kind.Plural())
	}

	today := a.now()
	selected := a.selectedIdx[kind]
	lines := make([]string, 0, len(items))
	for i, r := range items {
		name := truncate(r.Name, 32)
		due := metrics.DueLabel(today, r.DueDate)
		if i == selected {
			lines = append(lines, selectedStyle.Render(fmt.Sprintf("▶ %s %-32s  %-11s  %-6s  %3d%%  %s",
				statusIcon(r.Status), name, r.Status, r.Priority, r.Progress, due)))
			continue
		}
		lines = append(lines, itemStyle.Render(fmt.Sprintf("  %s %-32s  %s  %s  %3d%%  %s",
			statusStyle(r.Status).Render(statusIcon(r.Status)),
			name,
			statusStyle(r.Status).Render(fmt.Sprintf("%-11s", r.Status)),
			priorityStyle(r.Priority).Render(fmt.Sprintf("%-6s", r.Priority)),
			r.Progress,
			dueStyle(today, r).Render(due),
		)))
	}

	// Limit visible lines
	if len(lines) > height {
		start := selected - height/2
		if start < 0 {
			start = 0
		}
		end := start + height
		if end > len(lines) {
			end = len(lines)
			start = max(0, end-height)
		}
		lines = lines[start:end]
	}
	return strings.Join(lines, "\n")
}

func (a *App) renderDetail() string {
	r, ok := a.selected()
	if !ok {
		return "\n  Nothing selected.\n"
	}
	today := a.now()

	var b strings.Builder
	b.WriteString(headerStyle.Render(r.Name))
	b.WriteString("\n\n")
	b.WriteString(renderField("ID", r.ID.String()))
	b.WriteString(renderField("Status", statusStyle(r.Status).Render(string(r.Status))))
	b.WriteString(renderField("Priority", priorityStyle(r.Priority).Render(string(r.Priority))))
	b.WriteString(renderField("Progress", progressBar(r.Progress, 20)))
	b.WriteString(renderField("Due", dueStyle(today, r).Render(metrics.DueLabel(today, r.DueDate))))
	if !r.DueDate.IsZero() {
		b.WriteString(renderField("Due date", r.DueDate.String()))
	}
	if r.Description != "" {
		b.WriteString(renderField("Description", r.Description))
	}

	if a.kind() == models.KindProject {
		b.WriteString(sectionStyle.Render(fmt.Sprintf("Members (%d)", r.MemberCount())))
		b.WriteString("\n")
		if len(r.Members) == 0 {
			b.WriteString("  " + mutedStyle.Render("creator only") + "\n")
		}
		for _, m := range r.Members {
			b.WriteString(fmt.Sprintf("  • %s %s\n", m.Name, mutedStyle.Render(m.Email)))
		}
	}

	b.WriteString("\n" + helpStyle.Render("e: edit | Esc: back"))
	return panelStyle.Render(b.String())
}

func renderField(label, value string) string {
	return fmt.Sprintf("  %s %s\n", labelStyle.Render(fmt.Sprintf("%-12s", label)), value)
}

func (a *App) statusLine() string {
	switch a.mode {
	case modeForm:
		return " Tab:next field | Enter:save | Esc:cancel | Ctrl+C:quit"
	case modeSearch:
		return " Type to filter | Enter:keep | Esc:clear"
	case modeDetail:
		return " e:edit | Esc:back | Ctrl+C:quit"
	}
	kind := a.kind()
	d := a.view()
	count := fmt.Sprintf("%d", len(d.Items()))
	if d.Query() != "" {
		count = fmt.Sprintf("%d/%d", len(d.Visible()), len(d.Items()))
	}
	return fmt.Sprintf(" %s: %s | ↑↓:nav | Tab:switch | /:search | n:new | e:edit | Enter:details | r:refresh | q:quit",
		kind.Label()+"s", count)
}

// dueStyle colours a due label: red when overdue, amber when due soon.
// Completed records are never urgent.
func dueStyle(today time.Time, r models.Resource) lipgloss.Style {
	days, ok := metrics.DaysUntilDue(today, r.DueDate)
	switch {
	case !ok || r.Status == models.StatusCompleted:
		return mutedStyle
	case days < 0:
		return errorStyle
	case days <= metrics.DueSoonDays:
		return lipgloss.NewStyle().Foreground(warningColor)
	default:
		return mutedStyle
	}
}

func progressBar(p, width int) string {
	filled := p * width / 100
	return successStyle.Render(strings.Repeat("█", filled)) +
		mutedStyle.Render(strings.Repeat("░", width-filled)) +
		fmt.Sprintf(" %d%%", p)
}

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-3]) + "..."
}
