package uid

import "github.com/google/uuid"

// UUID issues time-ordered (v7) UUIDs for correlation and token ids. It falls
// back to a random v4 if the v7 source fails.
type UUID struct{}

func NewUUID() *UUID {
	return &UUID{}
}

func (*UUID) Generate() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}
