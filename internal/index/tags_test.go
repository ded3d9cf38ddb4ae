package index

import (
	"reflect"
	"testing"

	"github.com/keepdeck/keep/internal/domain"
)

func resourcesWithTags(tagSets ...[]string) []*domain.Resource {
	resources := make([]*domain.Resource, 0, len(tagSets))
	for _, tags := range tagSets {
		resources = append(resources, &domain.Resource{Tags: tags})
	}
	return resources
}

func TestNewTagIndex(t *testing.T) {
	idx := NewTagIndex()
	if idx == nil {
		t.Fatal("NewTagIndex() returned nil")
	}
	if tags := idx.AllTags(); len(tags) != 0 {
		t.Errorf("NewTagIndex() should start empty, got %v", tags)
	}
}

func TestRebuildCounts(t *testing.T) {
	idx := NewTagIndex()
	idx.Rebuild(resourcesWithTags(
		[]string{"go", "reading"},
		[]string{"go", "work"},
		[]string{"go"},
	))

	tests := []struct {
		tag  string
		want int
	}{
		{"go", 3},
		{"reading", 1},
		{"work", 1},
		{"absent", 0},
	}
	for _, tt := range tests {
		if got := idx.Count(tt.tag); got != tt.want {
			t.Errorf("Count(%q) = %d, want %d", tt.tag, got, tt.want)
		}
	}
}

func TestAllTagsLexicalOrder(t *testing.T) {
	idx := NewTagIndex()
	idx.Rebuild(resourcesWithTags(
		[]string{"zebra", "alpha"},
		[]string{"mid"},
	))

	want := []string{"alpha", "mid", "zebra"}
	if got := idx.AllTags(); !reflect.DeepEqual(got, want) {
		t.Errorf("AllTags() = %v, want %v", got, want)
	}
}

// Removing the last resource carrying a tag removes the tag entirely.
func TestRebuildDropsOrphanedTags(t *testing.T) {
	idx := NewTagIndex()
	idx.Rebuild(resourcesWithTags([]string{"draft"}, []string{"final"}))

	if idx.Count("draft") != 1 {
		t.Fatalf("Count(draft) = %d, want 1", idx.Count("draft"))
	}

	idx.Rebuild(resourcesWithTags([]string{"final"}))

	if idx.Count("draft") != 0 {
		t.Errorf("Count(draft) after rebuild = %d, want 0", idx.Count("draft"))
	}
	for _, tag := range idx.AllTags() {
		if tag == "draft" {
			t.Error("AllTags() still lists 'draft' after last reference removed")
		}
	}
}

func TestSuggestTwoTierRanking(t *testing.T) {
	idx := NewTagIndex()
	// Frequencies: golang=3, go-tools=1, django=2, logo=2, blog=1
	idx.Rebuild(resourcesWithTags(
		[]string{"golang", "django", "logo"},
		[]string{"golang", "django"},
		[]string{"golang", "go-tools", "logo", "blog"},
	))

	got := idx.Suggest("go", nil, 10)

	// Prefix tier: golang(3), go-tools(1). Contains tier: django(2), logo(2), blog(1).
	// django vs logo tie on frequency, lexical order breaks it.
	want := []string{"golang", "go-tools", "django", "logo", "blog"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Suggest(go) = %v, want %v", got, want)
	}
}

func TestSuggestExcludesAndPrefixEquality(t *testing.T) {
	idx := NewTagIndex()
	idx.Rebuild(resourcesWithTags(
		[]string{"go", "golang", "go-tools", "django"},
	))

	got := idx.Suggest("GO", []string{"go-tools"}, 10)

	// "go" equals the prefix case-insensitively, "go-tools" is excluded.
	want := []string{"golang", "django"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Suggest(GO, exclude go-tools) = %v, want %v", got, want)
	}
}

func TestSuggestLimitAndTierOrderInvariant(t *testing.T) {
	idx := NewTagIndex()
	idx.Rebuild(resourcesWithTags(
		[]string{"alpha-one", "alpha-two", "alpha-three"},
		[]string{"meta-alpha", "ultra-alpha"},
	))

	got := idx.Suggest("alpha", nil, 2)
	if len(got) > 2 {
		t.Fatalf("Suggest() returned %d results, limit was 2", len(got))
	}
	// With limit 2 only prefix-tier tags may appear.
	for _, tag := range got {
		if tag == "meta-alpha" || tag == "ultra-alpha" {
			t.Errorf("Suggest() returned contains-tier tag %q before exhausting prefix tier", tag)
		}
	}

	if got := idx.Suggest("alpha", nil, 0); got != nil {
		t.Errorf("Suggest() with limit 0 = %v, want nil", got)
	}
}

func TestSuggestEmptyPrefixRanksByFrequency(t *testing.T) {
	idx := NewTagIndex()
	idx.Rebuild(resourcesWithTags(
		[]string{"common", "rare"},
		[]string{"common"},
	))

	want := []string{"common", "rare"}
	if got := idx.Suggest("", nil, 10); !reflect.DeepEqual(got, want) {
		t.Errorf("Suggest(\"\") = %v, want %v", got, want)
	}
}
