package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DisplayPrefs is the persisted collapse/expand preference of the
// catalog view. Not part of the catalog itself.
type DisplayPrefs struct {
	GlobalState  string   `json:"global_state"` // "expanded" | "collapsed"
	CollapsedIDs []string `json:"collapsed_ids"`
}

// SaveDisplayPrefs persists the display preferences.
func (s *Store) SaveDisplayPrefs(ctx context.Context, prefs DisplayPrefs) error {
	data, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("failed to marshal display prefs: %w", err)
	}
	if err := s.client.Set(ctx, KeyDisplayPrefs, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save display prefs: %w", err)
	}
	return nil
}

// GetDisplayPrefs retrieves the display preferences, returning the
// expanded default when none were ever saved.
func (s *Store) GetDisplayPrefs(ctx context.Context) (DisplayPrefs, error) {
	data, err := s.client.Get(ctx, KeyDisplayPrefs).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return DisplayPrefs{GlobalState: "expanded", CollapsedIDs: []string{}}, nil
		}
		return DisplayPrefs{}, fmt.Errorf("failed to get display prefs: %w", err)
	}

	var prefs DisplayPrefs
	if err := json.Unmarshal(data, &prefs); err != nil {
		return DisplayPrefs{}, fmt.Errorf("failed to unmarshal display prefs: %w", err)
	}
	return prefs, nil
}
