// Package liststore holds the in-memory, ordered list of resources shown by
// a dashboard view.
//
// A Store is owned by exactly one view and is mutated only from that view's
// event loop, so it carries no locking.
package liststore

import (
	"context"
	"fmt"

	"github.com/synergysphere/sphere/internal/models"
)

// Loader fetches every resource of a kind from the backend.
type Loader interface {
	List(ctx context.Context, kind models.Kind) ([]models.Resource, error)
}

// Store is an ordered sequence of resources with unique ids.
type Store struct {
	kind   models.Kind
	items  []models.Resource
	loaded bool
}

// New creates an empty store for a resource kind.
func New(kind models.Kind) *Store {
	return &Store{kind: kind}
}

// Kind returns the resource kind held by the store.
func (s *Store) Kind() models.Kind {
	return s.kind
}

// Loaded reports whether a load has completed successfully.
func (s *Store) Loaded() bool {
	return s.loaded
}

// Load fetches the full list and replaces the current contents. On error the
// previous contents are kept.
func (s *Store) Load(ctx context.Context, l Loader) error {
	items, err := l.List(ctx, s.kind)
	if err != nil {
		return err
	}
	return s.Set(items)
}

// Set replaces the contents wholesale. It rejects lists that would break the
// unique-id invariant.
func (s *Store) Set(items []models.Resource) error {
	seen := make(map[models.ID]struct{}, len(items))
	next := make([]models.Resource, 0, len(items))
	for _, r := range items {
		if r.ID.IsZero() {
			return fmt.Errorf("load %s: %w", s.kind.Plural(), ErrMissingID)
		}
		if _, dup := seen[r.ID]; dup {
			return fmt.Errorf("load %s: id %s: %w", s.kind.Plural(), r.ID, ErrDuplicateID)
		}
		seen[r.ID] = struct{}{}
		next = append(next, r.Clone())
	}
	s.items = next
	s.loaded = true
	return nil
}

// Items returns a copy of the current contents in order.
func (s *Store) Items() []models.Resource {
	out := make([]models.Resource, len(s.items))
	for i, r := range s.items {
		out[i] = r.Clone()
	}
	return out
}

// Len returns the number of resources.
func (s *Store) Len() int {
	return len(s.items)
}

// Get returns the resource with the given id.
func (s *Store) Get(id models.ID) (models.Resource, bool) {
	i := s.index(id)
	if i < 0 {
		return models.Resource{}, false
	}
	return s.items[i].Clone(), true
}

// Append adds a newly created resource after the existing ones.
func (s *Store) Append(r models.Resource) error {
	if r.ID.IsZero() {
		return ErrMissingID
	}
	if s.index(r.ID) >= 0 {
		return fmt.Errorf("append %s %s: %w", s.kind, r.ID, ErrDuplicateID)
	}
	s.items = append(s.items, r.Clone())
	return nil
}

// Replace swaps in r for the element with the same id, keeping its position.
// It returns ErrNotFound when no element matches.
func (s *Store) Replace(r models.Resource) error {
	i := s.index(r.ID)
	if i < 0 {
		return fmt.Errorf("replace %s %s: %w", s.kind, r.ID, ErrNotFound)
	}
	s.items[i] = r.Clone()
	return nil
}

// Remove deletes the element with the given id, preserving the order of the
// rest.
func (s *Store) Remove(id models.ID) error {
	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("remove %s %s: %w", s.kind, id, ErrNotFound)
	}
	s.items = append(s.items[:i:i], s.items[i+1:]...)
	return nil
}

func (s *Store) index(id models.ID) int {
	if id.IsZero() {
		return -1
	}
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}
