package index

import (
	"sort"
	"strings"
	"sync"

	"github.com/keepdeck/keep/internal/domain"
)

// TagIndex is the derived tag structure over the resource catalog:
// unique tag set with per-tag usage counts and frequency-ranked
// suggestions. It is rebuilt whenever any resource's tag set changes.
type TagIndex struct {
	mu     sync.RWMutex
	counts map[string]int // tag -> number of resources carrying it
}

// NewTagIndex creates an empty tag index.
func NewTagIndex() *TagIndex {
	return &TagIndex{
		counts: make(map[string]int),
	}
}

// Rebuild recomputes the whole index from the current catalog contents.
// A tag referenced by zero resources disappears from the index.
func (idx *TagIndex) Rebuild(resources []*domain.Resource) {
	counts := make(map[string]int)
	for _, r := range resources {
		for _, tag := range r.Tags {
			counts[tag]++
		}
	}

	idx.mu.Lock()
	idx.counts = counts
	idx.mu.Unlock()
}

// AllTags returns every indexed tag in ascending lexical order.
func (idx *TagIndex) AllTags() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	tags := make([]string, 0, len(idx.counts))
	for tag := range idx.counts {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Count returns the number of resources carrying tag, 0 if absent.
func (idx *TagIndex) Count(tag string) int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.counts[tag]
}

// suggestion pairs a tag with its usage count for ranking.
type suggestion struct {
	tag   string
	count int
}

// Suggest returns up to limit tag names for autocompletion.
//
// Ranking is two-tier: tags whose lowercase form starts with the
// lowercase prefix come first, tags that merely contain it second.
// Within a tier, higher usage frequency wins, ties broken by ascending
// lexical order. Tags in exclude, or equal to the prefix ignoring case,
// are never returned. Prefix relevance outranks raw frequency.
func (idx *TagIndex) Suggest(prefix string, exclude []string, limit int) []string {
	if limit <= 0 {
		return nil
	}

	lowered := strings.ToLower(strings.TrimSpace(prefix))

	excluded := make(map[string]bool, len(exclude))
	for _, tag := range exclude {
		excluded[tag] = true
	}

	idx.mu.RLock()
	var prefixMatches, containsMatches []suggestion
	for tag, count := range idx.counts {
		if excluded[tag] {
			continue
		}
		lt := strings.ToLower(tag)
		if lt == lowered {
			continue
		}
		switch {
		case lowered == "":
			// Empty prefix: every tag is a prefix match.
			prefixMatches = append(prefixMatches, suggestion{tag, count})
		case strings.HasPrefix(lt, lowered):
			prefixMatches = append(prefixMatches, suggestion{tag, count})
		case strings.Contains(lt, lowered):
			containsMatches = append(containsMatches, suggestion{tag, count})
		}
	}
	idx.mu.RUnlock()

	rank(prefixMatches)
	rank(containsMatches)

	results := make([]string, 0, limit)
	for _, s := range prefixMatches {
		if len(results) == limit {
			return results
		}
		results = append(results, s.tag)
	}
	for _, s := range containsMatches {
		if len(results) == limit {
			return results
		}
		results = append(results, s.tag)
	}
	return results
}

// rank sorts suggestions by descending frequency, then ascending tag name.
func rank(suggestions []suggestion) {
	sort.Slice(suggestions, func(i, j int) bool {
		if suggestions[i].count != suggestions[j].count {
			return suggestions[i].count > suggestions[j].count
		}
		return suggestions[i].tag < suggestions[j].tag
	})
}
