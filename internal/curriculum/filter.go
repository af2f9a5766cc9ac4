package curriculum

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

// Values offered by the course editor and the new-course form.
var (
	Levels             = []string{"Foundation", "Intermediate", "Advanced", "Elite"}
	StandardCategories = []string{"Standard Curriculum", "Robotics", "AI Foundations", "Digital Literacy", "Starter Program", "Mover Program"}
	Templates          = []string{
		"Starter Level 1", "Starter Level 2", "Starter Level 3", "Starter Level 4",
		"Mover Level 1", "Mover Level 2", "Mover Level 3", "Mover Level 4", "Mover Level 5",
	}
)

// Placeholder filter values that mean "no restriction".
const (
	AllLevels     = "All Levels"
	AllCategories = "All Categories"
)

// Filter narrows the catalog listing. Zero values match everything.
type Filter struct {
	Search   string // case-insensitive substring of name or category
	Level    string
	Category string
	// Restrict limits results to IDs. An empty IDs with Restrict set matches nothing.
	Restrict bool
	IDs      []string
}

// Filter returns the committed courses matching f, in catalog order.
func (s *Store) Filter(f Filter) []Course {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m := f.matcher()
	out := []Course{}
	for _, c := range s.courses {
		if m.match(c) {
			out = append(out, c.Clone())
		}
	}
	return out
}

// Categories returns the distinct non-empty categories in catalog order.
func (s *Store) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []string{}
	for _, c := range s.courses {
		if c.Category != "" && !slices.Contains(out, c.Category) {
			out = append(out, c.Category)
		}
	}
	return out
}

// Match reports whether a single course passes the filter.
func (f Filter) Match(c Course) bool {
	return f.matcher().match(c)
}

type courseMatcher struct {
	f      Filter
	fold   cases.Caser
	search string
}

func (f Filter) matcher() courseMatcher {
	fold := cases.Fold()
	return courseMatcher{
		f:      f,
		fold:   fold,
		search: fold.String(strings.TrimSpace(f.Search)),
	}
}

func (m courseMatcher) match(c Course) bool {
	if m.f.Restrict && !slices.Contains(m.f.IDs, c.ID) {
		return false
	}
	if m.f.Level != "" && m.f.Level != AllLevels && c.Level != m.f.Level {
		return false
	}
	if m.f.Category != "" && m.f.Category != AllCategories && c.Category != m.f.Category {
		return false
	}
	if m.search == "" {
		return true
	}
	return m.contains(c.Name) || (c.Category != "" && m.contains(c.Category))
}

func (m courseMatcher) contains(s string) bool {
	return strings.Contains(m.fold.String(s), m.search)
}
