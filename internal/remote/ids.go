package remote

import (
	"strings"

	"github.com/google/uuid"
)

// UniqueID returns a fresh document/file id. The platform accepts up to 36
// characters from [a-zA-Z0-9._-], not starting with a special character.
func UniqueID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}
