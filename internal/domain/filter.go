package domain

import "strings"

// Combinator controls how multiple active tags are combined when filtering.
type Combinator string

const (
	// CombinatorAny keeps resources carrying at least one active tag.
	CombinatorAny Combinator = "any"
	// CombinatorAll keeps only resources carrying every active tag.
	CombinatorAll Combinator = "all"
)

// FilterQuery is the active catalog query: a free-text term plus a set
// of active tags joined by a combinator. The zero value matches everything.
type FilterQuery struct {
	Term       string
	Tags       []string
	Combinator Combinator
}

// IsEmpty reports whether the query imposes no constraint at all.
func (q FilterQuery) IsEmpty() bool {
	return strings.TrimSpace(q.Term) == "" && len(q.Tags) == 0
}

// Matches evaluates one resource against the query.
// Text and tag constraints are ANDed: both must pass.
func (q FilterQuery) Matches(r *Resource) bool {
	return q.matchesTerm(r) && q.matchesTags(r)
}

// Filter computes the visible subset of resources for the query,
// preserving catalog order. It is pure: no state is kept between calls,
// so the result can never go stale against the catalog.
func (q FilterQuery) Filter(resources []*Resource) []*Resource {
	visible := make([]*Resource, 0, len(resources))
	for _, r := range resources {
		if q.Matches(r) {
			visible = append(visible, r)
		}
	}
	return visible
}

// matchesTerm does a case-insensitive substring match against the
// concatenation of title, description, primary location value and tags.
func (q FilterQuery) matchesTerm(r *Resource) bool {
	term := strings.ToLower(strings.TrimSpace(q.Term))
	if term == "" {
		return true
	}

	haystack := strings.ToLower(strings.Join([]string{
		r.Title,
		r.Description,
		r.PrimaryLocation.Value,
		strings.Join(r.Tags, " "),
	}, " "))

	return strings.Contains(haystack, term)
}

// matchesTags applies the combinator. An empty active-tag set imposes
// no tag constraint.
func (q FilterQuery) matchesTags(r *Resource) bool {
	if len(q.Tags) == 0 {
		return true
	}

	switch q.Combinator {
	case CombinatorAll:
		for _, tag := range q.Tags {
			if !r.HasTag(tag) {
				return false
			}
		}
		return true
	default:
		// ANY is the default when the combinator is unset or unknown.
		for _, tag := range q.Tags {
			if r.HasTag(tag) {
				return true
			}
		}
		return false
	}
}
