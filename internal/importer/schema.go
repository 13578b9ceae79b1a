package importer

import (
	"fmt"
	"strings"
)

// CellKind describes how a column's raw cells are normalized.
type CellKind int

const (
	CellText CellKind = iota
	CellDate
	CellTimeOfDay
	CellCoordinate
	CellCount
	CellMeasurement
	CellFlag
	CellUnused
)

// Column names in the stranding upload contract. Access to row cells goes
// through these names so that the positional contract lives in one place.
const (
	ColScientificName       = "scientific_name"
	ColLatitude             = "latitude"
	ColLongitude            = "longitude"
	ColRecordID             = "record_id"
	ColIncidentDate         = "incident_date"
	ColIncidentTime         = "incident_time"
	ColGeneticallyConfirmed = "genetically_confirmed"
	ColLocationName         = "location_name"
	ColReserved             = "reserved"
	ColNumberOfAnimals      = "number_of_animals"
	ColMassIncident         = "mass_incident"
	ColIncidentType         = "incident_type"
	ColSex                  = "sex"
	ColAgeClass             = "age_class"
	ColLengthCM             = "length_cm"
	ColWeightKG             = "weight_kg"
	ColWeightEstimated      = "weight_estimated"
	ColCarcassFate          = "carcass_fate"
	ColEntanglementGear     = "entanglement_gear"
	ColDBCAAttended         = "dbca_attended"
	ColCondition            = "condition"
	ColOutcome              = "outcome"
	ColCauseOfDeath         = "cause_of_death"
	ColPhotosTaken          = "photos_taken"
	ColSamplesTaken         = "samples_taken"
	ColPostMortem           = "post_mortem"
	ColComments             = "comments"
)

// Column is one entry in the positional upload contract.
type Column struct {
	Name string
	Kind CellKind
}

// Schema is the ordered column contract for stranding uploads. The order is
// fixed and position-dependent; header labels in the file are kept only for
// the error report.
type Schema struct {
	columns []Column
	index   map[string]int
}

// StrandingSchema returns the 27-column stranding upload contract.
func StrandingSchema() Schema {
	columns := []Column{
		{ColScientificName, CellText},
		{ColLatitude, CellCoordinate},
		{ColLongitude, CellCoordinate},
		{ColRecordID, CellText},
		{ColIncidentDate, CellDate},
		{ColIncidentTime, CellTimeOfDay},
		{ColGeneticallyConfirmed, CellFlag},
		{ColLocationName, CellText},
		{ColReserved, CellUnused},
		{ColNumberOfAnimals, CellCount},
		{ColMassIncident, CellFlag},
		{ColIncidentType, CellText},
		{ColSex, CellText},
		{ColAgeClass, CellText},
		{ColLengthCM, CellMeasurement},
		{ColWeightKG, CellMeasurement},
		{ColWeightEstimated, CellFlag},
		{ColCarcassFate, CellText},
		{ColEntanglementGear, CellText},
		{ColDBCAAttended, CellFlag},
		{ColCondition, CellText},
		{ColOutcome, CellText},
		{ColCauseOfDeath, CellText},
		{ColPhotosTaken, CellFlag},
		{ColSamplesTaken, CellFlag},
		{ColPostMortem, CellFlag},
		{ColComments, CellText},
	}
	index := make(map[string]int, len(columns))
	for i, column := range columns {
		index[column.Name] = i
	}
	return Schema{columns: columns, index: index}
}

// Width returns the number of columns the contract expects.
func (s Schema) Width() int {
	return len(s.columns)
}

// ValidateHeader checks the uploaded header against the contract in a single
// pass. Column-order mistakes surface here as a whole-file error instead of
// as scattered per-row index failures.
func (s Schema) ValidateHeader(header []string) error {
	if len(header) < len(s.columns) {
		return fmt.Errorf("expected %d columns, file has %d", len(s.columns), len(header))
	}
	return nil
}

// Cell returns the trimmed raw value for the named column, or the empty
// string when the row is short.
func (s Schema) Cell(row []string, name string) string {
	idx, ok := s.index[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
