package domain

import "time"

// Kind discriminates the two resource families the catalog tracks.
type Kind string

const (
	// KindInternal is a resource backed by a local file.
	KindInternal Kind = "internal"
	// KindExternal is a resource backed by a remote web page.
	KindExternal Kind = "external"
)

// LocationType describes how a Location's Value must be interpreted.
type LocationType string

const (
	// LocationFilePath means Value is a filesystem path.
	LocationFilePath LocationType = "file-path"
	// LocationHTTPURL means Value is an http(s) URL.
	LocationHTTPURL LocationType = "http-url"
)

// Location is one place a resource's content can be found.
type Location struct {
	Type         LocationType `json:"type"`
	Value        string       `json:"value"`
	Accessible   bool         `json:"accessible"`
	LastVerified time.Time    `json:"last_verified"`
}

// ArchivalRecord is the proof of one successful upload to the
// permanent storage network. The sequence on a resource is append-only.
type ArchivalRecord struct {
	Hash      string    `json:"hash"`
	Timestamp time.Time `json:"timestamp"`
	Link      string    `json:"link"`
	Tags      []string  `json:"tags,omitempty"`
}

// Timestamps groups the lifecycle times of a resource.
type Timestamps struct {
	Created      time.Time `json:"created"`
	Modified     time.Time `json:"modified"`
	LastAccessed time.Time `json:"last_accessed"`
}

// Resource represents a cataloged reference to a local file or web page.
type Resource struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is the canonical unique identifier, assigned by the backend
	// at creation time.
	ID string `json:"id"`

	// URI is the stable logical identifier derived from ID.
	// Example: keep://resource/6f1c9a3e-...
	URI string `json:"uri"`

	// ContentHash is a fingerprint of the primary location's content.
	// Used upstream for duplicate detection; not enforced here.
	ContentHash string `json:"content_hash,omitempty"`

	// ─────────────────────────────
	// Descriptive metadata
	// ─────────────────────────────

	Title       string `json:"title"`
	Description string `json:"description,omitempty"`

	// Tags drive Tag Index membership. Insertion order is irrelevant
	// for matching but preserved for display.
	Tags []string `json:"tags"`

	// Kind discriminates internal (local file) from external (web page).
	Kind Kind `json:"kind"`

	// ─────────────────────────────
	// Locations
	// ─────────────────────────────

	// PrimaryLocation never silently changes to an archival pointer.
	// Archival is additive, not a migration.
	PrimaryLocation Location `json:"primary_location"`

	// AlternativeLocations holds additional places the content lives,
	// e.g. permanent-storage gateway URLs.
	AlternativeLocations []Location `json:"alternative_locations,omitempty"`

	// ArchivalRecords holds one entry per successful permanent-storage
	// upload, append-only. Empty if never archived.
	ArchivalRecords []ArchivalRecord `json:"archival_records,omitempty"`

	// ─────────────────────────────
	// Lifecycle
	// ─────────────────────────────

	Timestamps Timestamps `json:"timestamps"`
}

// URIFromID derives the stable logical identifier for a resource ID.
func URIFromID(id string) string {
	return "keep://resource/" + id
}

// HasTag reports whether the resource carries tag exactly.
func (r *Resource) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// AddTag appends tag to the resource's tag set.
// Returns false if the tag was already present (no-op, not an error).
func (r *Resource) AddTag(tag string) bool {
	if r.HasTag(tag) {
		return false
	}
	r.Tags = append(r.Tags, tag)
	r.Timestamps.Modified = time.Now()
	return true
}

// RemoveTag deletes tag from the resource's tag set.
// Returns false if the tag was not present.
func (r *Resource) RemoveTag(tag string) bool {
	for i, t := range r.Tags {
		if t == tag {
			r.Tags = append(r.Tags[:i], r.Tags[i+1:]...)
			r.Timestamps.Modified = time.Now()
			return true
		}
	}
	return false
}

// AppendArchivalRecord records one successful permanent-storage upload
// and mirrors it as an alternative location.
func (r *Resource) AppendArchivalRecord(rec ArchivalRecord) {
	r.ArchivalRecords = append(r.ArchivalRecords, rec)
	r.AlternativeLocations = append(r.AlternativeLocations, Location{
		Type:         LocationHTTPURL,
		Value:        rec.Link,
		Accessible:   true,
		LastVerified: rec.Timestamp,
	})
	r.Timestamps.Modified = time.Now()
}
