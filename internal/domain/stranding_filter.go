package domain

import "time"

// StrandingFilter represents filtering options for listing stranding records.
type StrandingFilter struct {
	ScientificName string
	IncidentType   string
	DateFrom       *time.Time
	DateTo         *time.Time
}
