package export

import "time"

// SnapshotVersion is bumped when the snapshot layout changes.
const SnapshotVersion = 1

// Snapshot is the root structure of a catalog snapshot file.
type Snapshot struct {
	Version    int             `yaml:"version"`
	ExportedAt time.Time       `yaml:"exported_at"`
	Resources  []ResourceEntry `yaml:"resources"`
}

// ResourceEntry is one resource in the snapshot.
type ResourceEntry struct {
	ID          string          `yaml:"id"`
	URI         string          `yaml:"uri"`
	ContentHash string          `yaml:"content_hash,omitempty"`
	Title       string          `yaml:"title"`
	Description string          `yaml:"description,omitempty"`
	Tags        []string        `yaml:"tags,omitempty"`
	Kind        string          `yaml:"kind"`
	Primary     LocationEntry   `yaml:"primary"`
	Alternative []LocationEntry `yaml:"alternative,omitempty"`
	Archival    []ArchivalEntry `yaml:"archival,omitempty"`
	Created     time.Time       `yaml:"created"`
	Modified    time.Time       `yaml:"modified"`
}

// LocationEntry is one location in the snapshot.
type LocationEntry struct {
	Type         string    `yaml:"type"`
	Value        string    `yaml:"value"`
	Accessible   bool      `yaml:"accessible"`
	LastVerified time.Time `yaml:"last_verified,omitempty"`
}

// ArchivalEntry is one permanent-storage upload record.
type ArchivalEntry struct {
	Hash      string    `yaml:"hash"`
	Timestamp time.Time `yaml:"timestamp"`
	Link      string    `yaml:"link"`
	Tags      []string  `yaml:"tags,omitempty"`
}
