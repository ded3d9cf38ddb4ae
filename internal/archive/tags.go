package archive

import (
	"errors"
	"strings"
)

var (
	// ErrEmptyTagKey means the key sanitized down to nothing.
	ErrEmptyTagKey = errors.New("tag key empty after sanitization")
	// ErrDuplicateTagKey means the sanitized key collides with an
	// existing key in the plan.
	ErrDuplicateTagKey = errors.New("tag key already present")
)

// UploadTag is one key/value pair attached to a permanent-storage upload.
type UploadTag struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// SanitizeTagKey normalizes a proposed upload tag key: internal
// whitespace runs collapse to a single hyphen and anything outside
// [A-Za-z0-9_-] is stripped. Returns ErrEmptyTagKey when nothing
// survives.
func SanitizeTagKey(key string) (string, error) {
	key = strings.TrimSpace(key)

	var b strings.Builder
	pendingHyphen := false
	for _, r := range key {
		if r == ' ' || r == '\t' {
			pendingHyphen = true
			continue
		}
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		}
	}

	sanitized := b.String()
	if sanitized == "" {
		return "", ErrEmptyTagKey
	}
	return sanitized, nil
}

// FlattenTags renders upload tags as the key:value strings the
// archival network's upload primitive expects.
func FlattenTags(tags []UploadTag) []string {
	flat := make([]string, 0, len(tags))
	for _, t := range tags {
		flat = append(flat, t.Key+":"+t.Value)
	}
	return flat
}
