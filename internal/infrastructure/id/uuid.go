// Package id generates entity identifiers.
package id

import "github.com/google/uuid"

// UUID issues random version 4 identifiers.
type UUID struct{}

func (UUID) NewID() string { return uuid.NewString() }

// Valid reports whether s is a well-formed identifier.
func Valid(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
