package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/keepdeck/keep/internal/domain"
	"github.com/keepdeck/keep/internal/index"
	"github.com/keepdeck/keep/internal/logger"
)

var (
	// ErrTagNotPresent is returned when removing a tag the resource
	// does not carry. Distinct from a backend failure.
	ErrTagNotPresent = errors.New("tag not present on resource")
	// ErrNotFound is returned when a resource ID is unknown locally.
	ErrNotFound = errors.New("resource not in catalog")
)

// Backend is the persistence collaborator contract the catalog mirrors.
// The Redis store implements it; tests substitute a fake.
type Backend interface {
	GetAllResources(ctx context.Context) ([]*domain.Resource, error)
	AddResource(ctx context.Context, resource *domain.Resource) (*domain.Resource, error)
	UpdateResource(ctx context.Context, resource *domain.Resource) (*domain.Resource, error)
	RemoveResource(ctx context.Context, id string) error
	SaveCatalog(ctx context.Context, resources []*domain.Resource) error
}

// Catalog is the in-memory mirror of the persisted resource collection,
// the single source of truth for a running session. All mutations are
// fail-closed: the backend is written first and the local copy only
// changes once the backend accepted the operation.
type Catalog struct {
	mu       sync.RWMutex
	backend  Backend
	logger   logger.Logger
	ordered  []*domain.Resource          // catalog order, preserved for display
	byID     map[string]*domain.Resource // ID -> resource
	tagIndex *index.TagIndex
}

// New creates an empty catalog over the given backend.
func New(backend Backend, log logger.Logger) *Catalog {
	return &Catalog{
		backend:  backend,
		logger:   log,
		ordered:  []*domain.Resource{},
		byID:     make(map[string]*domain.Resource),
		tagIndex: index.NewTagIndex(),
	}
}

// Load fetches all resources from the backend and replaces the
// in-memory set.
func (c *Catalog) Load(ctx context.Context) error {
	resources, err := c.backend.GetAllResources(ctx)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	c.mu.Lock()
	c.ordered = resources
	c.byID = make(map[string]*domain.Resource, len(resources))
	for _, r := range resources {
		c.byID[r.ID] = r
	}
	c.mu.Unlock()

	c.tagIndex.Rebuild(resources)

	c.logger.Info("catalog loaded",
		logger.Int("resources", len(resources)))
	return nil
}

// Add sends a new resource to the backend and inserts the backend's
// normalized copy locally.
func (c *Catalog) Add(ctx context.Context, resource *domain.Resource) (*domain.Resource, error) {
	stored, err := c.backend.AddResource(ctx, resource)
	if err != nil {
		return nil, fmt.Errorf("failed to add resource: %w", err)
	}

	c.mu.Lock()
	c.ordered = append(c.ordered, stored)
	c.byID[stored.ID] = stored
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.tagIndex.Rebuild(snapshot)
	return stored, nil
}

// Remove deletes a resource remotely then locally.
func (c *Catalog) Remove(ctx context.Context, id string) error {
	c.mu.RLock()
	_, known := c.byID[id]
	c.mu.RUnlock()
	if !known {
		return ErrNotFound
	}

	if err := c.backend.RemoveResource(ctx, id); err != nil {
		return fmt.Errorf("failed to remove resource: %w", err)
	}

	c.mu.Lock()
	delete(c.byID, id)
	for i, r := range c.ordered {
		if r.ID == id {
			c.ordered = append(c.ordered[:i], c.ordered[i+1:]...)
			break
		}
	}
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.tagIndex.Rebuild(snapshot)
	return nil
}

// AddTag adds a tag to one resource via the backend.
// Adding a tag the resource already carries is a no-op reported as
// already-present (added=false, nil error), not a failure.
func (c *Catalog) AddTag(ctx context.Context, id, tag string) (added bool, err error) {
	c.mu.RLock()
	current, ok := c.byID[id]
	c.mu.RUnlock()
	if !ok {
		return false, ErrNotFound
	}
	if current.HasTag(tag) {
		return false, nil
	}

	// Mutate a clone so a backend rejection leaves the mirror untouched.
	updated := cloneResource(current)
	updated.AddTag(tag)

	stored, err := c.backend.UpdateResource(ctx, updated)
	if err != nil {
		return false, fmt.Errorf("failed to add tag: %w", err)
	}

	c.replace(stored)
	return true, nil
}

// RemoveTag removes a tag from one resource via the backend.
// Removing a tag the resource does not carry is ErrTagNotPresent.
func (c *Catalog) RemoveTag(ctx context.Context, id, tag string) error {
	c.mu.RLock()
	current, ok := c.byID[id]
	c.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	if !current.HasTag(tag) {
		return ErrTagNotPresent
	}

	updated := cloneResource(current)
	updated.RemoveTag(tag)

	stored, err := c.backend.UpdateResource(ctx, updated)
	if err != nil {
		return fmt.Errorf("failed to remove tag: %w", err)
	}

	c.replace(stored)
	return nil
}

// Update persists an already-mutated resource copy and swaps it into
// the mirror. Used by the location verifier.
func (c *Catalog) Update(ctx context.Context, resource *domain.Resource) error {
	stored, err := c.backend.UpdateResource(ctx, resource)
	if err != nil {
		return fmt.Errorf("failed to update resource: %w", err)
	}
	c.replace(stored)
	return nil
}

// Export snapshots the catalog and bulk-writes it through the backend's
// saveCatalog contract.
func (c *Catalog) Export(ctx context.Context) error {
	return c.backend.SaveCatalog(ctx, c.All())
}

// Get retrieves one resource by ID.
func (c *Catalog) Get(id string) (*domain.Resource, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	r, ok := c.byID[id]
	return r, ok
}

// All returns the resources in catalog order.
func (c *Catalog) All() []*domain.Resource {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.snapshotLocked()
}

// Filtered computes the visible subset for the query, re-derived from
// current catalog state on every call.
func (c *Catalog) Filtered(q domain.FilterQuery) []*domain.Resource {
	return q.Filter(c.All())
}

// Tags exposes the derived tag index.
func (c *Catalog) Tags() *index.TagIndex {
	return c.tagIndex
}

// Len returns the number of cataloged resources.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.ordered)
}

func (c *Catalog) snapshotLocked() []*domain.Resource {
	out := make([]*domain.Resource, len(c.ordered))
	copy(out, c.ordered)
	return out
}

func (c *Catalog) replace(stored *domain.Resource) {
	c.mu.Lock()
	c.byID[stored.ID] = stored
	for i, r := range c.ordered {
		if r.ID == stored.ID {
			c.ordered[i] = stored
			break
		}
	}
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.tagIndex.Rebuild(snapshot)
}

func cloneResource(r *domain.Resource) *domain.Resource {
	clone := *r
	clone.Tags = append([]string(nil), r.Tags...)
	clone.AlternativeLocations = append([]domain.Location(nil), r.AlternativeLocations...)
	clone.ArchivalRecords = append([]domain.ArchivalRecord(nil), r.ArchivalRecords...)
	return &clone
}
