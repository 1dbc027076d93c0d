package utils

import "github.com/google/uuid"

// CanonicalUUID parses any form uuid.Parse accepts (hyphenless, braced, urn)
// and returns the lowercase hyphenated form.
func CanonicalUUID(s string) (string, bool) {
	u, err := uuid.Parse(s)
	if err != nil {
		return "", false
	}
	return u.String(), true
}
