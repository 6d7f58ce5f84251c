// Package tui provides the interactive terminal dashboard for projects and
// tasks.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/synergysphere/sphere/internal/api"
	"github.com/synergysphere/sphere/internal/dashboard"
	"github.com/synergysphere/sphere/internal/form"
	"github.com/synergysphere/sphere/internal/logging"
	"github.com/synergysphere/sphere/internal/models"
	"github.com/synergysphere/sphere/internal/session"
)

type mode int

const (
	modeList mode = iota
	modeSearch
	modeForm
	modeDetail
)

// tabs lists the views in display order.
var tabs = []models.Kind{models.KindProject, models.KindTask}

// App is the main TUI application model.
type App struct {
	backend dashboard.Backend
	session session.Session
	logger  *slog.Logger
	now     func() time.Time

	views       map[models.Kind]*dashboard.Dashboard
	tab         int
	selectedIdx map[models.Kind]int
	loading     map[models.Kind]bool

	mode    mode
	search  *SearchBar
	editor  *FormEditor
	message string
	width   int
	height  int
}

// Option configures an App.
type Option func(*App)

// WithLogger sets the logger passed to each dashboard.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithClock replaces the clock used for due-date metrics.
func WithClock(now func() time.Time) Option {
	return func(a *App) {
		if now != nil {
			a.now = now
		}
	}
}

// New creates the TUI for an authenticated session. It fails with
// session.ErrNotAuthenticated otherwise.
func New(backend dashboard.Backend, s session.Session, opts ...Option) (*App, error) {
	a := &App{
		backend:     backend,
		session:     s,
		logger:      logging.Discard(),
		now:         time.Now,
		views:       make(map[models.Kind]*dashboard.Dashboard, len(tabs)),
		selectedIdx: make(map[models.Kind]int, len(tabs)),
		loading:     make(map[models.Kind]bool, len(tabs)),
		search:      NewSearchBar(),
		width:       80,
		height:      24,
	}
	for _, opt := range opts {
		opt(a)
	}
	for _, kind := range tabs {
		d, err := dashboard.New(kind, backend, s, dashboard.WithLogger(a.logger))
		if err != nil {
			return nil, err
		}
		a.views[kind] = d
	}
	return a, nil
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	a.dispose()
	return err
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	for _, kind := range tabs {
		if a.views[kind].BeginMount() {
			cmds = append(cmds, a.fetch(kind))
		}
	}
	return tea.Batch(cmds...)
}

func (a *App) kind() models.Kind { return tabs[a.tab] }

func (a *App) view() *dashboard.Dashboard { return a.views[a.kind()] }

// selected returns the highlighted record in the current view.
func (a *App) selected() (models.Resource, bool) {
	vis := a.view().Visible()
	idx := a.selectedIdx[a.kind()]
	if idx < 0 || idx >= len(vis) {
		return models.Resource{}, false
	}
	return vis[idx], true
}

func (a *App) clampSelection(kind models.Kind) {
	n := len(a.views[kind].Visible())
	if a.selectedIdx[kind] >= n {
		a.selectedIdx[kind] = max(0, n-1)
	}
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.search.SetWidth(msg.Width - 8)
		return a, nil

	case loadedMsg:
		a.loading[msg.kind] = false
		if err := a.views[msg.kind].CompleteLoad(msg.items, msg.err); err != nil {
			if err != dashboard.ErrDisposed {
				a.message = "Error: " + api.UserMessage(err)
			}
			return a, nil
		}
		a.clampSelection(msg.kind)
		return a, nil

	case submittedMsg:
		return a, a.completeSubmit(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			a.dispose()
			return a, tea.Quit
		}
		switch a.mode {
		case modeSearch:
			return a, a.updateSearch(msg)
		case modeForm:
			return a, a.updateForm(msg)
		case modeDetail:
			return a, a.updateDetail(msg)
		default:
			return a.updateList(msg)
		}
	}

	if a.mode == modeForm && a.editor != nil {
		return a, a.editor.Update(msg)
	}
	if a.mode == modeSearch {
		return a, a.search.Update(msg)
	}
	return a, nil
}

func (a *App) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	kind := a.kind()
	switch msg.String() {
	case "q":
		a.dispose()
		return a, tea.Quit

	case "tab", "right", "l":
		a.switchTab(a.tab + 1)
	case "shift+tab", "left", "h":
		a.switchTab(a.tab - 1)
	case "1":
		a.switchTab(0)
	case "2":
		a.switchTab(1)

	case "up", "k":
		if a.selectedIdx[kind] > 0 {
			a.selectedIdx[kind]--
		}
	case "down", "j":
		if a.selectedIdx[kind] < len(a.view().Visible())-1 {
			a.selectedIdx[kind]++
		}

	case "/":
		a.mode = modeSearch
		a.message = ""
		return a, a.search.Focus()

	case "r":
		if a.loading[kind] {
			return a, nil
		}
		if a.view().Busy() {
			a.message = "Saving, refresh when it completes"
			return a, nil
		}
		a.message = ""
		return a, a.fetch(kind)

	case "n":
		f := a.view().OpenCreate()
		a.openEditor(f)
		return a, textinput.Blink

	case "e":
		r, ok := a.selected()
		if !ok {
			a.message = "Nothing selected"
			return a, nil
		}
		f, err := a.view().OpenEdit(r.ID)
		if err != nil {
			a.message = "Error: " + api.UserMessage(err)
			return a, nil
		}
		a.openEditor(f)
		return a, textinput.Blink

	case "enter":
		if _, ok := a.selected(); ok {
			a.mode = modeDetail
		}

	case "esc":
		if a.view().Query() != "" {
			a.search.Clear()
			a.view().SetQuery("")
			a.clampSelection(kind)
		}
	}
	return a, nil
}

func (a *App) switchTab(i int) {
	a.tab = (i + len(tabs)) % len(tabs)
	a.search.SetValue(a.view().Query())
	a.message = ""
}

func (a *App) updateSearch(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		a.search.Clear()
		a.view().SetQuery("")
		a.mode = modeList
		a.clampSelection(a.kind())
		return nil
	case "enter":
		a.search.Blur()
		a.mode = modeList
		return nil
	}
	cmd := a.search.Update(msg)
	a.view().SetQuery(a.search.Value())
	a.selectedIdx[a.kind()] = 0
	return cmd
}

func (a *App) updateDetail(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc", "enter", "q":
		a.mode = modeList
	case "e":
		a.mode = modeList
		_, cmd := a.updateList(msg)
		return cmd
	}
	return nil
}

func (a *App) openEditor(f *form.Form) {
	a.editor = NewFormEditor(f)
	a.mode = modeForm
	a.message = ""
}

func (a *App) closeEditor() {
	if a.editor != nil {
		a.editor.Form().Close()
	}
	a.editor = nil
	a.mode = modeList
}

func (a *App) updateForm(msg tea.KeyMsg) tea.Cmd {
	if a.editor == nil {
		a.mode = modeList
		return nil
	}
	switch msg.String() {
	case "esc":
		a.closeEditor()
		return nil
	case "tab", "down":
		a.editor.Next()
		return nil
	case "shift+tab", "up":
		a.editor.Prev()
		return nil
	case "enter", "ctrl+s":
		return a.submit()
	}
	return a.editor.Update(msg)
}

// submit applies the inputs and starts the network call. Nothing is sent
// while a submission is already in flight or the draft is invalid.
func (a *App) submit() tea.Cmd {
	f := a.editor.Form()
	if f.Busy() {
		return nil
	}
	if err := a.editor.Apply(); err != nil {
		return nil
	}

	kind := a.kind()
	d := a.views[kind]
	var (
		payload models.Resource
		err     error
	)
	if f.Mode() == form.ModeCreate {
		payload, err = d.BeginCreate()
	} else {
		payload, err = d.BeginEdit()
	}
	if err != nil {
		if f.Message() == "" {
			a.editor.note = api.UserMessage(err)
		}
		return nil
	}

	backend := a.backend
	formMode := f.Mode()
	return func() tea.Msg {
		ctx := context.Background()
		var (
			saved *models.Resource
			err   error
		)
		if formMode == form.ModeCreate {
			saved, err = backend.Create(ctx, kind, payload)
		} else {
			saved, err = backend.Update(ctx, kind, payload)
		}
		return submittedMsg{kind: kind, mode: formMode, saved: saved, err: err}
	}
}

func (a *App) completeSubmit(msg submittedMsg) tea.Cmd {
	d := a.views[msg.kind]
	var err error
	if msg.mode == form.ModeCreate {
		err = d.CompleteCreate(msg.saved, msg.err)
	} else {
		err = d.CompleteEdit(msg.saved, msg.err)
	}
	if err == dashboard.ErrDisposed {
		return nil
	}
	showing := a.editor != nil && a.mode == modeForm && a.kind() == msg.kind && a.editor.Form().Mode() == msg.mode
	if err != nil {
		// A visible form shows its own message and keeps the draft.
		if !showing {
			a.message = "Error: " + api.UserMessage(err)
		}
		return nil
	}

	verb := "Created"
	if msg.mode == form.ModeEdit {
		verb = "Saved"
	}
	a.message = fmt.Sprintf("✓ %s %s %q", verb, strings.ToLower(msg.kind.Label()), msg.saved.Name)
	if showing {
		a.editor = nil
		a.mode = modeList
	}
	a.clampSelection(msg.kind)
	return nil
}

// fetch loads a view's list in the background.
func (a *App) fetch(kind models.Kind) tea.Cmd {
	a.loading[kind] = true
	backend := a.backend
	return func() tea.Msg {
		items, err := backend.List(context.Background(), kind)
		return loadedMsg{kind: kind, items: items, err: err}
	}
}

func (a *App) dispose() {
	for _, d := range a.views {
		d.Dispose()
	}
}

type loadedMsg struct {
	kind  models.Kind
	items []models.Resource
	err   error
}

type submittedMsg struct {
	kind  models.Kind
	mode  form.Mode
	saved *models.Resource
	err   error
}
