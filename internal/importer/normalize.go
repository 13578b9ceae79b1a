package importer

import (
	"strconv"
	"strings"
	"time"

	"github.com/dbca-wa/wastd-sub002/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

var (
	dateLayouts = []string{
		"2006-01-02",
		"2006-01-02 15:04:05",
		"2006/01/02",
		"02/01/2006",
	}

	timeOfDayLayouts = []string{
		"15:04:05",
		"15:04",
	}
)

// Normalizer converts raw cell values into domain-canonical values. The
// categorical vocabularies are injected so alternate controlled lists can be
// swapped in without touching the pipeline.
type Normalizer struct {
	vocabs domain.Vocabularies
}

// NewNormalizer builds a normalizer over the given vocabularies.
func NewNormalizer(vocabs domain.Vocabularies) *Normalizer {
	return &Normalizer{vocabs: vocabs}
}

// Vocabularies exposes the injected vocabularies for validation reuse.
func (n *Normalizer) Vocabularies() domain.Vocabularies {
	return n.vocabs
}

// IncidentType maps a raw incident type token to its canonical value,
// falling back to "Stranding" when the token is unrecognised. The fallback
// is silent: uncoded field observations default to the most common event.
func (n *Normalizer) IncidentType(raw string) string {
	return n.vocabs.IncidentType.Canonical(raw)
}

// Sex maps a raw sex token, defaulting to "Unknown".
func (n *Normalizer) Sex(raw string) string {
	return n.vocabs.Sex.Canonical(raw)
}

// Condition maps a raw carcass condition token, defaulting to "Unknown".
func (n *Normalizer) Condition(raw string) string {
	return n.vocabs.Condition.Canonical(raw)
}

// Outcome maps a raw outcome token, defaulting to "Unknown".
func (n *Normalizer) Outcome(raw string) string {
	return n.vocabs.Outcome.Canonical(raw)
}

// Flag normalizes boolean-flag cells: the literal token "Y" means true,
// anything else (including empty) means false.
func (n *Normalizer) Flag(raw string) bool {
	return strings.TrimSpace(raw) == "Y"
}

// Date normalizes a date cell. Accepted shapes: fixed-format strings and
// numeric spreadsheet date serials. Unparseable values normalize to nil;
// whether a missing date fails the row is decided at write time, not here.
func (n *Normalizer) Date(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			day := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
			return &day
		}
	}

	if serial, err := strconv.ParseFloat(raw, 64); err == nil && serial >= 1 {
		ts, convErr := excelize.ExcelDateToTime(serial, false)
		if convErr == nil {
			day := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
			return &day
		}
	}

	return nil
}

// TimeOfDay normalizes a time cell. Accepted shapes: fixed-format strings
// and fractional spreadsheet time serials. Unparseable values normalize to
// nil rather than failing the row.
func (n *Normalizer) TimeOfDay(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	for _, layout := range timeOfDayLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			clock := time.Date(0, time.January, 1, ts.Hour(), ts.Minute(), ts.Second(), 0, time.UTC)
			return &clock
		}
	}

	if serial, err := strconv.ParseFloat(raw, 64); err == nil && serial >= 0 {
		ts, convErr := excelize.ExcelDateToTime(serial, false)
		if convErr == nil {
			clock := time.Date(0, time.January, 1, ts.Hour(), ts.Minute(), ts.Second(), 0, time.UTC)
			return &clock
		}
	}

	return nil
}

// Measurement coerces a length/weight cell to a 2-decimal-place fixed-point
// value, rounding half away from zero. Non-numeric or absent values
// normalize to nil rather than failing the row.
func (n *Normalizer) Measurement(raw string) *decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return nil
	}
	rounded := value.Round(2)
	return &rounded
}

// Count parses a positive whole-number cell, returning fallback when the
// cell is absent or not a number.
func (n *Normalizer) Count(raw string, fallback int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	if value, err := strconv.Atoi(raw); err == nil {
		return value
	}
	// Spreadsheets frequently store counts as floats.
	if value, err := strconv.ParseFloat(raw, 64); err == nil {
		return int(value)
	}
	return fallback
}

// Point parses a latitude/longitude pair. A point exists only when both
// cells parse; otherwise the record carries no geographic point.
func (n *Normalizer) Point(latRaw, lngRaw string) (*float64, *float64) {
	lat, latErr := strconv.ParseFloat(strings.TrimSpace(latRaw), 64)
	lng, lngErr := strconv.ParseFloat(strings.TrimSpace(lngRaw), 64)
	if latErr != nil || lngErr != nil {
		return nil, nil
	}
	return &lat, &lng
}
