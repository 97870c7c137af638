package common

import (
	"regexp"
	"strings"
)

// Principal ids come from the identity provider as opaque strings. They are
// embedded in store paths and channel ids, so characters that collide with
// the path separator or the channel separator are rejected up front.
var idPattern = regexp.MustCompile(`^[a-zA-Z0-9-]+$`)

func ValidatePrincipalID(id string) error {
	if id == "" {
		return InvalidInput("principal id is required")
	}
	if len(id) > 128 {
		return InvalidInput("principal id is too long")
	}
	if !idPattern.MatchString(id) {
		return InvalidInput("principal id may only contain letters, digits, and hyphens")
	}
	return nil
}

var emailRegex = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)

func ValidateEmail(email string) error {
	if email == "" {
		return nil
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if !emailRegex.MatchString(email) {
		return InvalidInput("invalid email format")
	}

	return nil
}
