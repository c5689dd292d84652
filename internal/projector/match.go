package projector

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/erazemk/najdeno/internal/model"
)

// matcher applies the filter predicates of one set of controls. A matcher
// holds a stateful caser and must not be shared between goroutines.
type matcher struct {
	controls model.Controls
	lower    cases.Caser
	term     string
}

func newMatcher(c model.Controls) *matcher {
	m := &matcher{
		controls: c.Normalize(),
		lower:    cases.Lower(language.Und),
	}
	m.term = m.lower.String(m.controls.Search)
	return m
}

// Match reports whether it passes the type, status, and search filters.
func (m *matcher) Match(it model.Item) bool {
	if m.controls.Type != model.FilterAll && it.ItemType != m.controls.Type {
		return false
	}
	if m.controls.Status != model.FilterAll && it.Status != m.controls.Status {
		return false
	}
	if m.term == "" {
		return true
	}
	return m.contains(it.ItemName) || m.contains(it.Location) || m.contains(it.Description)
}

func (m *matcher) contains(field string) bool {
	return strings.Contains(m.lower.String(field), m.term)
}

// Matches reports whether a single item passes the given controls.
func Matches(it model.Item, c model.Controls) bool {
	return newMatcher(c).Match(it)
}
