package repository

import (
	"context"
	"errors"

	"github.com/dbca-wa/wastd-sub002/internal/domain"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a lookup matches no rows.
var ErrNotFound = errors.New("not found")

// SpeciesRepository defines read access to the species reference table.
// The import pipeline resolves species strictly by exact scientific name.
type SpeciesRepository interface {
	GetByScientificName(ctx context.Context, scientificName string) (domain.Species, error)
	List(ctx context.Context) ([]domain.Species, error)
}

// StrandingRepository defines the interface for stranding record operations.
type StrandingRepository interface {
	Create(ctx context.Context, record domain.StrandingRecord) (domain.StrandingRecord, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.StrandingRecord, error)
	// ExistsByRecordID reports whether a record with the externally supplied
	// identifier has already been imported.
	ExistsByRecordID(ctx context.Context, recordID string) (bool, error)
	// ExistsMatching reports whether a record matching the composite identity
	// is already stored. The point clause is only applied when the key
	// carries coordinates.
	ExistsMatching(ctx context.Context, key domain.CompositeKey) (bool, error)
	List(ctx context.Context, filter *domain.StrandingFilter, limit, offset int) ([]domain.StrandingRecord, int, error)
}

// ImportLogRepository stores import row errors for observability.
type ImportLogRepository interface {
	Record(ctx context.Context, entry domain.ImportLogEntry) error
	List(ctx context.Context, fileName string, limit, offset int) ([]domain.ImportLogEntry, error)
}
