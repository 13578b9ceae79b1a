package domain

import (
	"time"

	"github.com/google/uuid"
)

// Species is reference taxonomy data. The import pipeline only resolves
// species by exact scientific name; it never creates or updates them.
type Species struct {
	ID             uuid.UUID `json:"id"`
	ScientificName string    `json:"scientific_name"`
	CommonName     string    `json:"common_name"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewSpecies creates a species reference entry.
func NewSpecies(scientificName, commonName string) Species {
	now := time.Now()
	return Species{
		ID:             uuid.New(),
		ScientificName: scientificName,
		CommonName:     commonName,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}
