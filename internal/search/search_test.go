package search

import (
	"strings"
	"testing"

	"github.com/synergysphere/sphere/internal/models"
)

func sample() []models.Resource {
	return []models.Resource{
		{ID: "1", Name: "Website Redesign", Description: "New landing page"},
		{ID: "2", Name: "Mobile App", Description: "iOS and Android release"},
		{ID: "3", Name: "API Gateway", Description: "Rate limits for the website"},
		{ID: "4", Name: "Hiring plan", Description: ""},
	}
}

func TestFilterEmptyQueryReturnsAll(t *testing.T) {
	items := sample()
	got := Filter(items, "")
	if len(got) != len(items) {
		t.Fatalf("Expected %d items, got %d", len(items), len(got))
	}
	for i := range items {
		if !got[i].Equal(items[i]) {
			t.Errorf("Item %d changed: %+v", i, got[i])
		}
	}
}

func TestFilterMatchesNameOrDescription(t *testing.T) {
	tests := []struct {
		query string
		want  []models.ID
	}{
		{"website", []models.ID{"1", "3"}},
		{"WEBSITE", []models.ID{"1", "3"}},
		{"android", []models.ID{"2"}},
		{"app", []models.ID{"2"}},
		{"a", []models.ID{"1", "2", "3", "4"}},
		{"nothing here", nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := Filter(sample(), tt.query)
			if len(got) != len(tt.want) {
				t.Fatalf("Expected %d results, got %d", len(tt.want), len(got))
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Errorf("Result %d: expected id %s, got %s", i, id, got[i].ID)
				}
			}
		})
	}
}

func TestFilterIsOrderedSubsequence(t *testing.T) {
	items := sample()
	for _, q := range []string{"e", "i", "Re", "page", "x"} {
		got := Filter(items, q)
		j := 0
		for _, r := range got {
			for j < len(items) && items[j].ID != r.ID {
				j++
			}
			if j == len(items) {
				t.Fatalf("query %q: result %s is out of order or not from input", q, r.ID)
			}
			j++
			lq := strings.ToLower(q)
			if !strings.Contains(strings.ToLower(r.Name), lq) && !strings.Contains(strings.ToLower(r.Description), lq) {
				t.Errorf("query %q: result %s does not match", q, r.ID)
			}
		}
	}
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	items := sample()
	before := make([]models.Resource, len(items))
	copy(before, items)

	Filter(items, "mobile")

	for i := range items {
		if !items[i].Equal(before[i]) {
			t.Errorf("Input item %d was modified", i)
		}
	}
}
