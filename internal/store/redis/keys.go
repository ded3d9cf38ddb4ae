package redis

import "fmt"

const (
	// KeyPrefixResource is the prefix for resource keys
	KeyPrefixResource = "keep:resource:"
	// KeyAllResources is the key for the set of all resource IDs
	KeyAllResources = "keep:resources:all"
	// KeyDisplayPrefs is the key for the persisted display preferences
	KeyDisplayPrefs = "keep:prefs:display"
)

// ResourceKey returns the Redis key for a resource by ID
func ResourceKey(id string) string {
	return KeyPrefixResource + id
}

// AllResourcesKey returns the key for the set of all resource IDs
func AllResourcesKey() string {
	return KeyAllResources
}

// ExtractResourceID extracts the resource ID from a Redis key
func ExtractResourceID(key string) (string, error) {
	if len(key) <= len(KeyPrefixResource) {
		return "", fmt.Errorf("invalid resource key: %s", key)
	}
	return key[len(KeyPrefixResource):], nil
}
