package utils

import "strings"

const userCacheKeyPrefix = "user:v1:"

// BuildUserCacheKey keys every spelling of the same uuid identically.
func BuildUserCacheKey(id string) string {
	if canonical, ok := CanonicalUUID(strings.TrimSpace(id)); ok {
		return userCacheKeyPrefix + canonical
	}
	return userCacheKeyPrefix + strings.ToLower(strings.TrimSpace(id))
}
