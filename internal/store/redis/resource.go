package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/keepdeck/keep/internal/domain"
	"github.com/redis/go-redis/v9"
)

// ErrResourceNotFound is returned when a resource ID has no entry.
var ErrResourceNotFound = errors.New("resource not found")

// Store handles Redis persistence for the resource catalog.
// It is the backend collaborator the in-memory catalog mirrors.
type Store struct {
	client *redis.Client
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
	}
}

// AddResource persists a new resource. The backend assigns the ID and
// derives the URI when the incoming record carries none; timestamps are
// normalized at creation. The stored resource is returned.
func (s *Store) AddResource(ctx context.Context, resource *domain.Resource) (*domain.Resource, error) {
	if resource.ID == "" {
		resource.ID = uuid.NewString()
	}
	resource.URI = domain.URIFromID(resource.ID)

	now := time.Now()
	if resource.Timestamps.Created.IsZero() {
		resource.Timestamps = domain.Timestamps{
			Created:      now,
			Modified:     now,
			LastAccessed: now,
		}
	}

	if err := s.saveResource(ctx, resource); err != nil {
		return nil, err
	}
	return resource, nil
}

// UpdateResource overwrites an existing resource in place.
func (s *Store) UpdateResource(ctx context.Context, resource *domain.Resource) (*domain.Resource, error) {
	if resource.ID == "" {
		return nil, fmt.Errorf("cannot update resource without ID")
	}
	if err := s.saveResource(ctx, resource); err != nil {
		return nil, err
	}
	return resource, nil
}

func (s *Store) saveResource(ctx context.Context, resource *domain.Resource) error {
	data, err := json.Marshal(resource)
	if err != nil {
		return fmt.Errorf("failed to marshal resource: %w", err)
	}

	key := ResourceKey(resource.ID)

	// Store resource data. Catalog entries never expire on their own.
	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save resource: %w", err)
	}

	// Add to set of all resources
	if err := s.client.SAdd(ctx, AllResourcesKey(), resource.ID).Err(); err != nil {
		return fmt.Errorf("failed to add resource to set: %w", err)
	}

	return nil
}

// GetResource retrieves a resource from Redis by ID
func (s *Store) GetResource(ctx context.Context, id string) (*domain.Resource, error) {
	key := ResourceKey(id)
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", ErrResourceNotFound, id)
		}
		return nil, fmt.Errorf("failed to get resource: %w", err)
	}

	var resource domain.Resource
	if err := json.Unmarshal(data, &resource); err != nil {
		return nil, fmt.Errorf("failed to unmarshal resource: %w", err)
	}

	return &resource, nil
}

// GetAllResources retrieves the full catalog from Redis
func (s *Store) GetAllResources(ctx context.Context) ([]*domain.Resource, error) {
	ids, err := s.client.SMembers(ctx, AllResourcesKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get resource IDs: %w", err)
	}

	if len(ids) == 0 {
		return []*domain.Resource{}, nil
	}

	resources := make([]*domain.Resource, 0, len(ids))
	for _, id := range ids {
		resource, err := s.GetResource(ctx, id)
		if err != nil {
			// Skip entries that couldn't be retrieved
			continue
		}
		resources = append(resources, resource)
	}

	return resources, nil
}

// RemoveResource deletes a resource from Redis
func (s *Store) RemoveResource(ctx context.Context, id string) error {
	key := ResourceKey(id)

	// Delete resource data
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete resource: %w", err)
	}

	// Remove from set of all resources
	if err := s.client.SRem(ctx, AllResourcesKey(), id).Err(); err != nil {
		return fmt.Errorf("failed to remove resource from set: %w", err)
	}

	return nil
}

// SaveCatalog replaces the persisted catalog with the given snapshot
// (bulk overwrite, used by the export/rebuild flows).
func (s *Store) SaveCatalog(ctx context.Context, resources []*domain.Resource) error {
	existing, err := s.client.SMembers(ctx, AllResourcesKey()).Result()
	if err != nil {
		return fmt.Errorf("failed to list existing resources: %w", err)
	}

	pipe := s.client.Pipeline()

	for _, id := range existing {
		pipe.Del(ctx, ResourceKey(id))
	}
	pipe.Del(ctx, AllResourcesKey())

	for _, resource := range resources {
		data, err := json.Marshal(resource)
		if err != nil {
			return fmt.Errorf("failed to marshal resource %s: %w", resource.ID, err)
		}
		pipe.Set(ctx, ResourceKey(resource.ID), data, 0)
		pipe.SAdd(ctx, AllResourcesKey(), resource.ID)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save catalog snapshot: %w", err)
	}

	return nil
}
