// Package models defines the core domain types for sphere.
package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Kind names a resource collection on the backend.
type Kind string

const (
	KindProject Kind = "project"
	KindTask    Kind = "task"
)

// Plural returns the collection name used in API paths ("projects", "tasks").
func (k Kind) Plural() string {
	return string(k) + "s"
}

// Label returns a capitalized display name.
func (k Kind) Label() string {
	switch k {
	case KindProject:
		return "Project"
	case KindTask:
		return "Task"
	default:
		return string(k)
	}
}

// ID is an opaque backend-assigned identifier. The backend may send it as a
// JSON number or a JSON string; numeric ids are re-encoded as numbers.
type ID string

// IsZero reports whether no id has been assigned.
func (id ID) IsZero() bool { return id == "" }

func (id ID) String() string { return string(id) }

// MarshalJSON implements json.Marshaler.
func (id ID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte("null"), nil
	}
	if isDigits(string(id)) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func isDigits(s string) bool {
	if s == "" || len(s) > 18 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Member is a reference to a user participating in a project.
type Member struct {
	ID    ID     `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// Resource is a Project or Task record managed by the backend. Both kinds
// share one shape; Members is only populated for projects.
type Resource struct {
	ID          ID       `json:"id,omitempty"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Status      Status   `json:"status"`
	Priority    Priority `json:"priority"`
	DueDate     Date     `json:"due_date"`
	Progress    int      `json:"progress"`
	CreatedBy   ID       `json:"created_by,omitempty"`
	Members     []Member `json:"members,omitempty"`
}

// NewResource returns a draft with the default field values.
func NewResource() Resource {
	return Resource{
		Status:   StatusPlanning,
		Priority: PriorityMedium,
	}
}

// Clone returns a deep copy so edits to the copy never reach the original.
func (r Resource) Clone() Resource {
	c := r
	if r.Members != nil {
		c.Members = make([]Member, len(r.Members))
		copy(c.Members, r.Members)
	}
	return c
}

// Equal reports field-by-field equality.
func (r Resource) Equal(o Resource) bool {
	if r.ID != o.ID || r.Name != o.Name || r.Description != o.Description ||
		r.Status != o.Status || r.Priority != o.Priority || r.DueDate != o.DueDate ||
		r.Progress != o.Progress || r.CreatedBy != o.CreatedBy || len(r.Members) != len(o.Members) {
		return false
	}
	for i := range r.Members {
		if r.Members[i] != o.Members[i] {
			return false
		}
	}
	return true
}

// MemberCount returns the number of members. A record without a member list
// has one implicit member, its creator.
func (r Resource) MemberCount() int {
	if len(r.Members) == 0 {
		return 1
	}
	return len(r.Members)
}

// UnmarshalJSON applies defaults for fields the backend omits and folds
// known status and priority spellings (in_progress, To-Do, HIGH) onto the
// canonical values. Unknown values are kept as sent.
func (r *Resource) UnmarshalJSON(data []byte) error {
	type plain Resource
	p := plain(NewResource())
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if st, err := ParseStatus(string(p.Status)); err == nil {
		p.Status = st
	}
	if pr, err := ParsePriority(string(p.Priority)); err == nil {
		p.Priority = pr
	}
	p.Progress = ClampProgress(p.Progress)
	*r = Resource(p)
	return nil
}

// User is the identity of a signed-in user.
type User struct {
	ID    ID     `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

// DisplayName returns the name, falling back to the email.
func (u User) DisplayName() string {
	if strings.TrimSpace(u.Name) != "" {
		return u.Name
	}
	return u.Email
}
