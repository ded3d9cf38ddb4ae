package export

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/keepdeck/keep/internal/domain"
)

// WriteSnapshot serializes the catalog to path. The write is atomic:
// content goes to a temp file first and replaces the target with a
// rename, and any previous snapshot is kept as a .bak alongside.
func WriteSnapshot(path string, resources []*domain.Resource) error {
	data, err := Marshal(resources)
	if err != nil {
		return err
	}

	// Keep the previous snapshot around before replacing it.
	if _, err := os.Stat(path); err == nil {
		if prev, err := os.ReadFile(path); err == nil {
			_ = os.WriteFile(path+".bak", prev, 0o644)
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}

	return nil
}

// Marshal serializes resources to snapshot YAML without touching disk.
func Marshal(resources []*domain.Resource) ([]byte, error) {
	snapshot := Snapshot{
		Version:    SnapshotVersion,
		ExportedAt: time.Now(),
		Resources:  make([]ResourceEntry, 0, len(resources)),
	}
	for _, r := range resources {
		snapshot.Resources = append(snapshot.Resources, toEntry(r))
	}

	data, err := yaml.Marshal(&snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return data, nil
}

// LoadSnapshot reads and parses a snapshot file back into resources.
func LoadSnapshot(path string) ([]*domain.Resource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}

	var snapshot Snapshot
	if err := yaml.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot yaml: %w", err)
	}
	if snapshot.Version > SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d is newer than supported %d", snapshot.Version, SnapshotVersion)
	}

	resources := make([]*domain.Resource, 0, len(snapshot.Resources))
	for _, entry := range snapshot.Resources {
		resources = append(resources, fromEntry(entry))
	}
	return resources, nil
}

func toEntry(r *domain.Resource) ResourceEntry {
	entry := ResourceEntry{
		ID:          r.ID,
		URI:         r.URI,
		ContentHash: r.ContentHash,
		Title:       r.Title,
		Description: r.Description,
		Tags:        r.Tags,
		Kind:        string(r.Kind),
		Primary:     toLocationEntry(r.PrimaryLocation),
		Created:     r.Timestamps.Created,
		Modified:    r.Timestamps.Modified,
	}
	for _, loc := range r.AlternativeLocations {
		entry.Alternative = append(entry.Alternative, toLocationEntry(loc))
	}
	for _, rec := range r.ArchivalRecords {
		entry.Archival = append(entry.Archival, ArchivalEntry{
			Hash:      rec.Hash,
			Timestamp: rec.Timestamp,
			Link:      rec.Link,
			Tags:      rec.Tags,
		})
	}
	return entry
}

func fromEntry(entry ResourceEntry) *domain.Resource {
	r := &domain.Resource{
		ID:              entry.ID,
		URI:             entry.URI,
		ContentHash:     entry.ContentHash,
		Title:           entry.Title,
		Description:     entry.Description,
		Tags:            entry.Tags,
		Kind:            domain.Kind(entry.Kind),
		PrimaryLocation: fromLocationEntry(entry.Primary),
		Timestamps: domain.Timestamps{
			Created:      entry.Created,
			Modified:     entry.Modified,
			LastAccessed: entry.Modified,
		},
	}
	for _, loc := range entry.Alternative {
		r.AlternativeLocations = append(r.AlternativeLocations, fromLocationEntry(loc))
	}
	for _, rec := range entry.Archival {
		r.ArchivalRecords = append(r.ArchivalRecords, domain.ArchivalRecord{
			Hash:      rec.Hash,
			Timestamp: rec.Timestamp,
			Link:      rec.Link,
			Tags:      rec.Tags,
		})
	}
	return r
}

func toLocationEntry(loc domain.Location) LocationEntry {
	return LocationEntry{
		Type:         string(loc.Type),
		Value:        loc.Value,
		Accessible:   loc.Accessible,
		LastVerified: loc.LastVerified,
	}
}

func fromLocationEntry(entry LocationEntry) domain.Location {
	return domain.Location{
		Type:         domain.LocationType(entry.Type),
		Value:        entry.Value,
		Accessible:   entry.Accessible,
		LastVerified: entry.LastVerified,
	}
}
