package catalog

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/keepdeck/keep/internal/domain"
	"github.com/keepdeck/keep/internal/logger"
)

// fakeBackend is an in-memory Backend with switchable failure modes.
type fakeBackend struct {
	resources map[string]*domain.Resource
	order     []string
	nextID    int
	failAll   bool
	snapshot  []*domain.Resource
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{resources: make(map[string]*domain.Resource)}
}

var errBackendDown = errors.New("backend unavailable")

func (f *fakeBackend) GetAllResources(_ context.Context) ([]*domain.Resource, error) {
	if f.failAll {
		return nil, errBackendDown
	}
	out := make([]*domain.Resource, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, f.resources[id])
	}
	return out, nil
}

func (f *fakeBackend) AddResource(_ context.Context, r *domain.Resource) (*domain.Resource, error) {
	if f.failAll {
		return nil, errBackendDown
	}
	if r.ID == "" {
		f.nextID++
		r.ID = fmt.Sprintf("res-%d", f.nextID)
	}
	r.URI = domain.URIFromID(r.ID)
	f.resources[r.ID] = r
	f.order = append(f.order, r.ID)
	return r, nil
}

func (f *fakeBackend) UpdateResource(_ context.Context, r *domain.Resource) (*domain.Resource, error) {
	if f.failAll {
		return nil, errBackendDown
	}
	f.resources[r.ID] = r
	return r, nil
}

func (f *fakeBackend) RemoveResource(_ context.Context, id string) error {
	if f.failAll {
		return errBackendDown
	}
	delete(f.resources, id)
	for i, existing := range f.order {
		if existing == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeBackend) SaveCatalog(_ context.Context, resources []*domain.Resource) error {
	if f.failAll {
		return errBackendDown
	}
	f.snapshot = resources
	return nil
}

func newTestCatalog(t *testing.T) (*Catalog, *fakeBackend) {
	t.Helper()
	backend := newFakeBackend()
	return New(backend, logger.NewNop()), backend
}

func TestAddAssignsBackendID(t *testing.T) {
	c, _ := newTestCatalog(t)

	stored, err := c.Add(context.Background(), &domain.Resource{
		Title: "notes",
		Kind:  domain.KindInternal,
		Tags:  []string{"work"},
	})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if stored.ID == "" {
		t.Error("Add() did not propagate a backend-assigned ID")
	}
	if stored.URI != domain.URIFromID(stored.ID) {
		t.Errorf("Add() URI = %q, want derived from ID", stored.URI)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
	if c.Tags().Count("work") != 1 {
		t.Errorf("tag index not updated after Add: Count(work) = %d", c.Tags().Count("work"))
	}
}

func TestAddFailClosed(t *testing.T) {
	c, backend := newTestCatalog(t)
	backend.failAll = true

	if _, err := c.Add(context.Background(), &domain.Resource{Title: "x"}); err == nil {
		t.Fatal("Add() should fail when backend rejects")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d after rejected Add, want 0 (fail-closed)", c.Len())
	}
}

func TestAddTagRoundTrip(t *testing.T) {
	c, _ := newTestCatalog(t)
	stored, err := c.Add(context.Background(), &domain.Resource{Title: "x", Tags: []string{"a"}})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	before := append([]string(nil), mustGet(t, c, stored.ID).Tags...)

	added, err := c.AddTag(context.Background(), stored.ID, "b")
	if err != nil || !added {
		t.Fatalf("AddTag() = (%v, %v), want (true, nil)", added, err)
	}
	if err := c.RemoveTag(context.Background(), stored.ID, "b"); err != nil {
		t.Fatalf("RemoveTag() error = %v", err)
	}

	after := mustGet(t, c, stored.ID).Tags
	if !reflect.DeepEqual(before, after) {
		t.Errorf("addTag/removeTag round-trip: tags %v, want %v", after, before)
	}
}

func TestAddTagAlreadyPresentIsNoOp(t *testing.T) {
	c, backend := newTestCatalog(t)
	stored, _ := c.Add(context.Background(), &domain.Resource{Title: "x", Tags: []string{"a"}})

	// Backend failures must not matter: already-present never reaches it.
	backend.failAll = true

	added, err := c.AddTag(context.Background(), stored.ID, "a")
	if err != nil {
		t.Fatalf("AddTag() error = %v, want nil for already-present", err)
	}
	if added {
		t.Error("AddTag() = true for already-present tag, want false")
	}
}

func TestRemoveTagNotPresent(t *testing.T) {
	c, _ := newTestCatalog(t)
	stored, _ := c.Add(context.Background(), &domain.Resource{Title: "x", Tags: []string{"a"}})

	err := c.RemoveTag(context.Background(), stored.ID, "missing")
	if !errors.Is(err, ErrTagNotPresent) {
		t.Errorf("RemoveTag() error = %v, want ErrTagNotPresent", err)
	}
}

func TestTagMutationFailClosed(t *testing.T) {
	c, backend := newTestCatalog(t)
	stored, _ := c.Add(context.Background(), &domain.Resource{Title: "x", Tags: []string{"a"}})

	backend.failAll = true

	if _, err := c.AddTag(context.Background(), stored.ID, "b"); err == nil {
		t.Fatal("AddTag() should fail when backend rejects")
	}
	if got := mustGet(t, c, stored.ID).Tags; !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("local tags mutated on backend rejection: %v", got)
	}
}

func TestRemoveDropsOrphanedTagFromIndex(t *testing.T) {
	c, _ := newTestCatalog(t)
	stored, _ := c.Add(context.Background(), &domain.Resource{Title: "x", Tags: []string{"draft"}})
	_, _ = c.Add(context.Background(), &domain.Resource{Title: "y", Tags: []string{"final"}})

	if err := c.Remove(context.Background(), stored.ID); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	for _, tag := range c.Tags().AllTags() {
		if tag == "draft" {
			t.Error("tag index still lists 'draft' after its only resource was removed")
		}
	}
}

func TestLoadReplacesMirror(t *testing.T) {
	c, backend := newTestCatalog(t)
	_, _ = backend.AddResource(context.Background(), &domain.Resource{Title: "seeded", Tags: []string{"seed"}})

	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.Len() != 1 {
		t.Errorf("Len() after Load = %d, want 1", c.Len())
	}
	if c.Tags().Count("seed") != 1 {
		t.Errorf("tag index not rebuilt on Load")
	}
}

func TestFilteredUsesCurrentState(t *testing.T) {
	c, _ := newTestCatalog(t)
	stored, _ := c.Add(context.Background(), &domain.Resource{Title: "x", Tags: []string{"a"}})

	q := domain.FilterQuery{Tags: []string{"b"}, Combinator: domain.CombinatorAny}
	if got := c.Filtered(q); len(got) != 0 {
		t.Fatalf("Filtered() = %d resources, want 0", len(got))
	}

	// No stale cache: the same query sees the mutation immediately.
	if _, err := c.AddTag(context.Background(), stored.ID, "b"); err != nil {
		t.Fatalf("AddTag() error = %v", err)
	}
	if got := c.Filtered(q); len(got) != 1 {
		t.Errorf("Filtered() after AddTag = %d resources, want 1", len(got))
	}
}

func mustGet(t *testing.T, c *Catalog, id string) *domain.Resource {
	t.Helper()
	r, ok := c.Get(id)
	if !ok {
		t.Fatalf("resource %s not found", id)
	}
	return r
}
