// Package dashboard composes one projects or tasks view: it owns the list
// store for the view, the search query, and the create and edit forms.
//
// A Dashboard is driven from a single goroutine. Network work may run
// elsewhere, but its result must be handed back through the Complete
// methods on the owning goroutine.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/synergysphere/sphere/internal/form"
	"github.com/synergysphere/sphere/internal/liststore"
	"github.com/synergysphere/sphere/internal/logging"
	"github.com/synergysphere/sphere/internal/metrics"
	"github.com/synergysphere/sphere/internal/models"
	"github.com/synergysphere/sphere/internal/search"
	"github.com/synergysphere/sphere/internal/session"
)

var (
	// ErrDisposed is returned for work that completes after the view was
	// disposed. The result is dropped.
	ErrDisposed = errors.New("dashboard disposed")
	// ErrNoForm is returned when completing a form that was never opened.
	ErrNoForm = errors.New("no form open")
)

// Backend is the remote API a dashboard reads and writes through.
// api.Client implements it.
type Backend interface {
	liststore.Loader
	form.Writer
}

// Option configures a Dashboard.
type Option func(*Dashboard)

// WithLogger sets the dashboard's logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dashboard) {
		if l != nil {
			d.logger = l
		}
	}
}

// Dashboard is one mounted resource view.
type Dashboard struct {
	kind    models.Kind
	backend Backend
	session session.Session
	logger  *slog.Logger

	store   *liststore.Store
	query   string
	loadErr error
	mounted bool

	create *form.Form
	edit   *form.Form

	disposed bool
}

// New returns a dashboard for kind. It fails with session.ErrNotAuthenticated
// unless s carries a token.
func New(kind models.Kind, backend Backend, s session.Session, opts ...Option) (*Dashboard, error) {
	if !s.Authenticated() {
		return nil, session.ErrNotAuthenticated
	}
	d := &Dashboard{
		kind:    kind,
		backend: backend,
		session: s,
		logger:  logging.Discard(),
		store:   liststore.New(kind),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Kind returns the resource kind shown.
func (d *Dashboard) Kind() models.Kind { return d.kind }

// Session returns the session the view was opened with.
func (d *Dashboard) Session() session.Session { return d.session }

// Loaded reports whether the list has been fetched successfully.
func (d *Dashboard) Loaded() bool { return d.store.Loaded() }

// LoadError returns the error from the most recent load, if it failed.
func (d *Dashboard) LoadError() error { return d.loadErr }

// Mount fetches the list. It loads at most once per mount; use Refresh to
// fetch again.
func (d *Dashboard) Mount(ctx context.Context) error {
	if d.disposed {
		return ErrDisposed
	}
	if d.mounted {
		return nil
	}
	d.mounted = true
	return d.Refresh(ctx)
}

// BeginMount marks the view mounted and reports whether the caller should
// start a load. Pair with CompleteLoad.
func (d *Dashboard) BeginMount() bool {
	if d.disposed || d.mounted {
		return false
	}
	d.mounted = true
	return true
}

// Busy reports whether a create or edit submission is in flight. Reloads
// should wait until it completes.
func (d *Dashboard) Busy() bool {
	return (d.create != nil && d.create.Busy()) || (d.edit != nil && d.edit.Busy())
}

// Refresh fetches the list again, replacing the current contents.
func (d *Dashboard) Refresh(ctx context.Context) error {
	if d.disposed {
		return ErrDisposed
	}
	items, err := d.backend.List(ctx, d.kind)
	return d.CompleteLoad(items, err)
}

// CompleteLoad applies the result of a list fetch. On failure the previous
// contents are kept.
func (d *Dashboard) CompleteLoad(items []models.Resource, err error) error {
	if d.disposed {
		return ErrDisposed
	}
	if err == nil {
		err = d.store.Set(items)
	}
	d.loadErr = err
	if err != nil {
		d.logger.Warn("load failed", "kind", d.kind, "error", err)
		return err
	}
	d.logger.Debug("loaded", "kind", d.kind, "count", len(items))
	return nil
}

// SetQuery sets the search query applied by Visible.
func (d *Dashboard) SetQuery(q string) { d.query = q }

// Query returns the current search query.
func (d *Dashboard) Query() string { return d.query }

// Items returns every record in the store.
func (d *Dashboard) Items() []models.Resource { return d.store.Items() }

// Visible returns the records matching the current query, in store order.
func (d *Dashboard) Visible() []models.Resource {
	return search.Filter(d.store.Items(), d.query)
}

// Get returns the record with the given id.
func (d *Dashboard) Get(id models.ID) (models.Resource, bool) {
	return d.store.Get(id)
}

// Summary computes the header metrics over the whole store.
func (d *Dashboard) Summary(today time.Time) metrics.Summary {
	return metrics.Summarize(d.store.Items(), today)
}

// OpenCreate shows the create form. After a failure the draft is kept, even
// if the form was closed in between.
func (d *Dashboard) OpenCreate() *form.Form {
	if d.create == nil {
		d.create = form.NewCreate(d.kind, d.session.User.ID)
	} else if !d.create.IsOpen() {
		d.create.Open()
	}
	return d.create
}

// CreateForm returns the create form, or nil if it was never opened.
func (d *Dashboard) CreateForm() *form.Form { return d.create }

// OpenEdit shows an edit form seeded with a copy of the record with id.
func (d *Dashboard) OpenEdit(id models.ID) (*form.Form, error) {
	if d.edit != nil && d.edit.Busy() {
		return nil, form.ErrBusy
	}
	r, ok := d.store.Get(id)
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", d.kind, id, liststore.ErrNotFound)
	}
	d.edit = form.NewEdit(d.kind, r)
	return d.edit, nil
}

// EditForm returns the current edit form, or nil.
func (d *Dashboard) EditForm() *form.Form { return d.edit }

// BeginCreate validates the create draft and returns the payload to send.
func (d *Dashboard) BeginCreate() (models.Resource, error) {
	if d.create == nil {
		return models.Resource{}, ErrNoForm
	}
	return d.create.Begin()
}

// CompleteCreate folds a create response into the store.
func (d *Dashboard) CompleteCreate(saved *models.Resource, err error) error {
	return d.complete(d.create, "create", saved, err)
}

// BeginEdit validates the edit draft and returns the payload to send.
func (d *Dashboard) BeginEdit() (models.Resource, error) {
	if d.edit == nil {
		return models.Resource{}, ErrNoForm
	}
	return d.edit.Begin()
}

// CompleteEdit folds an update response into the store.
func (d *Dashboard) CompleteEdit(saved *models.Resource, err error) error {
	return d.complete(d.edit, "edit", saved, err)
}

// SubmitCreate runs the create form end to end.
func (d *Dashboard) SubmitCreate(ctx context.Context) (*models.Resource, error) {
	if d.disposed {
		return nil, ErrDisposed
	}
	if d.create == nil {
		return nil, ErrNoForm
	}
	saved, err := d.create.Submit(ctx, d.backend, d.store)
	d.logResult("create", saved, err)
	return saved, err
}

// SubmitEdit runs the edit form end to end.
func (d *Dashboard) SubmitEdit(ctx context.Context) (*models.Resource, error) {
	if d.disposed {
		return nil, ErrDisposed
	}
	if d.edit == nil {
		return nil, ErrNoForm
	}
	saved, err := d.edit.Submit(ctx, d.backend, d.store)
	d.logResult("edit", saved, err)
	return saved, err
}

// Dispose detaches the view. Later completions are dropped.
func (d *Dashboard) Dispose() {
	d.disposed = true
}

// Disposed reports whether Dispose was called.
func (d *Dashboard) Disposed() bool { return d.disposed }

func (d *Dashboard) complete(f *form.Form, op string, saved *models.Resource, err error) error {
	if d.disposed {
		d.logger.Debug("dropped late completion", "kind", d.kind, "op", op)
		return ErrDisposed
	}
	if f == nil {
		return ErrNoForm
	}
	cerr := f.Complete(saved, err, d.store)
	d.logResult(op, saved, cerr)
	return cerr
}

func (d *Dashboard) logResult(op string, saved *models.Resource, err error) {
	if err != nil {
		d.logger.Info(op+" failed", "kind", d.kind, "error", err)
		return
	}
	if saved != nil {
		d.logger.Info(op+" succeeded", "kind", d.kind, "id", saved.ID)
	}
}
