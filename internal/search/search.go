// Package search derives filtered views of resource lists.
package search

import (
	"strings"

	"github.com/synergysphere/sphere/internal/models"
)

// Filter returns the resources whose name or description contains query,
// ignoring case, in their original order. An empty query returns items
// unchanged. The input slice is never modified.
func Filter(items []models.Resource, query string) []models.Resource {
	if query == "" {
		return items
	}
	needle := strings.ToLower(query)
	out := make([]models.Resource, 0, len(items))
	for _, r := range items {
		if Matches(r, needle) {
			out = append(out, r)
		}
	}
	return out
}

// Matches reports whether r matches an already lower-cased needle.
func Matches(r models.Resource, needle string) bool {
	return strings.Contains(strings.ToLower(r.Name), needle) ||
		strings.Contains(strings.ToLower(r.Description), needle)
}
