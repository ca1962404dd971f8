// Package uuid generates and validates the time-ordered identifiers used as
// primary keys for every ledger table.
package uuid

import (
	googleuuid "github.com/google/uuid"
)

// New returns a UUIDv7 string. UUIDv7 sorts by creation time, which keeps
// ledger rows clustered in insertion order on the primary key index.
func New() string {
	id, err := googleuuid.NewV7()
	if err != nil {
		// The random source failed; a v4 is still a valid, unique key.
		return googleuuid.New().String()
	}
	return id.String()
}

// Parse validates s and returns its canonical lower-case form.
func Parse(s string) (string, error) {
	parsed, err := googleuuid.Parse(s)
	if err != nil {
		return "", err
	}
	return parsed.String(), nil
}

// IsValid reports whether s is a well-formed UUID.
func IsValid(s string) bool {
	_, err := googleuuid.Parse(s)
	return err == nil
}
