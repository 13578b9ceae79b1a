package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StrandingRecord is one observed marine-mammal incident.
//
// RecordID carries the externally supplied identifier from field teams'
// spreadsheets, when present; it is the primary identity for duplicate
// detection across repeated uploads. Length and weight are fixed to two
// decimal places at normalization time.
type StrandingRecord struct {
	ID       uuid.UUID `json:"id"`
	RecordID *string   `json:"record_id,omitempty"`

	SpeciesID      uuid.UUID `json:"species_id"`
	ScientificName string    `json:"scientific_name"`

	IncidentDate time.Time  `json:"incident_date"`
	IncidentTime *time.Time `json:"incident_time,omitempty"`
	IncidentType string     `json:"incident_type"`

	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	LocationName string   `json:"location_name"`

	NumberOfAnimals int  `json:"number_of_animals"`
	MassIncident    bool `json:"mass_incident"`

	GeneticallyConfirmed bool `json:"genetically_confirmed"`

	Sex       string           `json:"sex"`
	AgeClass  string           `json:"age_class"`
	Condition string           `json:"condition"`
	Outcome   string           `json:"outcome"`
	LengthCM  *decimal.Decimal `json:"length_cm,omitempty"`
	WeightKG  *decimal.Decimal `json:"weight_kg,omitempty"`

	WeightEstimated  bool   `json:"weight_estimated"`
	CarcassFate      string `json:"carcass_fate"`
	EntanglementGear string `json:"entanglement_gear"`
	DBCAAttended     bool   `json:"dbca_attended"`
	PhotosTaken      bool   `json:"photos_taken"`
	SamplesTaken     bool   `json:"samples_taken"`
	PostMortem       bool   `json:"post_mortem"`

	CauseOfDeath string `json:"cause_of_death"`
	Comments     string `json:"comments"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewStrandingRecord stamps identity and timestamps onto a candidate record.
func NewStrandingRecord(record StrandingRecord) StrandingRecord {
	now := time.Now()
	record.ID = uuid.New()
	record.CreatedAt = now
	record.UpdatedAt = now
	if record.NumberOfAnimals == 0 {
		record.NumberOfAnimals = 1
	}
	return record
}

// HasPoint reports whether the record carries a complete geographic point.
func (r StrandingRecord) HasPoint() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// CompositeKey is the fallback identity used for duplicate detection when no
// external record ID is present: species + date + time + type, plus the
// geographic point when the candidate has one.
type CompositeKey struct {
	SpeciesID    uuid.UUID
	IncidentDate time.Time
	IncidentTime *time.Time
	IncidentType string
	Latitude     *float64
	Longitude    *float64
}

// Key returns the record's composite identity.
func (r StrandingRecord) Key() CompositeKey {
	return CompositeKey{
		SpeciesID:    r.SpeciesID,
		IncidentDate: r.IncidentDate,
		IncidentTime: r.IncidentTime,
		IncidentType: r.IncidentType,
		Latitude:     r.Latitude,
		Longitude:    r.Longitude,
	}
}

// Validate applies model-level checks against the supplied vocabularies.
// It reports the first violation found; the import pipeline converts the
// error into a FailedRow rather than aborting the batch.
func (r StrandingRecord) Validate(vocabs Vocabularies) error {
	if r.SpeciesID == uuid.Nil {
		return errors.New("species reference is required")
	}
	if r.IncidentDate.IsZero() {
		return errors.New("incident date is required")
	}
	if r.NumberOfAnimals < 1 {
		return fmt.Errorf("number of animals must be at least 1, got %d", r.NumberOfAnimals)
	}
	if !vocabs.IncidentType.Values()[r.IncidentType] {
		return fmt.Errorf("incident type %q is not a recognised value", r.IncidentType)
	}
	if !vocabs.Sex.Values()[r.Sex] {
		return fmt.Errorf("sex %q is not a recognised value", r.Sex)
	}
	if !vocabs.Condition.Values()[r.Condition] {
		return fmt.Errorf("condition %q is not a recognised value", r.Condition)
	}
	if !vocabs.Outcome.Values()[r.Outcome] {
		return fmt.Errorf("outcome %q is not a recognised value", r.Outcome)
	}
	if (r.Latitude == nil) != (r.Longitude == nil) {
		return errors.New("latitude and longitude must be supplied together")
	}
	if r.Latitude != nil && (*r.Latitude < -90 || *r.Latitude > 90) {
		return fmt.Errorf("latitude %v out of range", *r.Latitude)
	}
	if r.Longitude != nil && (*r.Longitude < -180 || *r.Longitude > 180) {
		return fmt.Errorf("longitude %v out of range", *r.Longitude)
	}
	if r.LengthCM != nil && r.LengthCM.IsNegative() {
		return fmt.Errorf("length %s cm must not be negative", r.LengthCM)
	}
	if r.WeightKG != nil && r.WeightKG.IsNegative() {
		return fmt.Errorf("weight %s kg must not be negative", r.WeightKG)
	}
	return nil
}
