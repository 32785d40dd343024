package repository

import "github.com/google/uuid"

// newMessageID returns a UUIDv7. Its string form sorts in creation order,
// which the stores use to break created_at ties.
func newMessageID() string {
	return uuid.Must(uuid.NewV7()).String()
}
