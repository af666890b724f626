package uid

import "github.com/google/uuid"

// UUID produces time-ordered (version 7) identifiers, used for correlation
// IDs, activity rows and export object keys. Version 4 is used if the clock
// source fails.
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
