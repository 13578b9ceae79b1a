package importer

import (
	"context"
	"fmt"

	"github.com/dbca-wa/wastd-sub002/internal/domain"
	"github.com/dbca-wa/wastd-sub002/internal/repository"
)

// Duplicate classification reasons surfaced in failed-row reports.
const (
	ReasonDuplicateID       = "duplicate ID"
	ReasonDuplicateIncident = "duplicate incident"
)

// DuplicateDetector decides whether a normalized candidate already exists in
// the store, so re-submitted error-corrected spreadsheets never import the
// same incident twice. Duplicates are skipped and reported, never merged.
type DuplicateDetector struct {
	strandings repository.StrandingRepository
}

// NewDuplicateDetector builds a detector over the stranding store.
func NewDuplicateDetector(strandings repository.StrandingRepository) *DuplicateDetector {
	return &DuplicateDetector{strandings: strandings}
}

// Classify runs the identity check first, then the composite check; the
// first match wins. The returned reason is empty for new records.
func (d *DuplicateDetector) Classify(ctx context.Context, record domain.StrandingRecord) (string, error) {
	if record.RecordID != nil && *record.RecordID != "" {
		exists, err := d.strandings.ExistsByRecordID(ctx, *record.RecordID)
		if err != nil {
			return "", fmt.Errorf("check record id: %w", err)
		}
		if exists {
			return ReasonDuplicateID, nil
		}
	}

	exists, err := d.strandings.ExistsMatching(ctx, record.Key())
	if err != nil {
		return "", fmt.Errorf("check composite identity: %w", err)
	}
	if exists {
		return ReasonDuplicateIncident, nil
	}

	return "", nil
}
