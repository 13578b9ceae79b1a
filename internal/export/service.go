package export

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/dbca-wa/wastd-sub002/internal/domain"
	"github.com/dbca-wa/wastd-sub002/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Format selects the export artifact type.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

var exportHeaders = []string{
	"Record ID", "Scientific Name", "Incident Date", "Incident Time", "Incident Type",
	"Latitude", "Longitude", "Location", "Number of Animals", "Mass Incident",
	"Genetically Confirmed", "Sex", "Age Class", "Condition", "Outcome",
	"Length (cm)", "Weight (kg)", "Weight Estimated", "Carcass Fate",
	"Entanglement Gear", "DBCA Attended", "Photos Taken", "Samples Taken",
	"Post-mortem", "Cause of Death", "Comments",
}

// Service exports filtered stranding records as spreadsheets. Exports run
// synchronously within the calling request and stream page by page from the
// store.
type Service struct {
	strandings repository.StrandingRepository
	pageSize   int
}

// Option customizes service construction.
type Option func(*Service)

// WithPageSize controls how many records are fetched per store round trip.
func WithPageSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.pageSize = size
		}
	}
}

// NewService creates a new export service.
func NewService(strandings repository.StrandingRepository, opts ...Option) *Service {
	service := &Service{
		strandings: strandings,
		pageSize:   1000,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Export writes the filtered records to w in the requested format and
// returns the number of data rows written.
func (s *Service) Export(ctx context.Context, filter *domain.StrandingFilter, format Format, w io.Writer) (int, error) {
	switch format {
	case FormatCSV:
		return s.exportCSV(ctx, filter, w)
	case FormatXLSX:
		return s.exportXLSX(ctx, filter, w)
	default:
		return 0, fmt.Errorf("unsupported export format %q", format)
	}
}

func (s *Service) exportCSV(ctx context.Context, filter *domain.StrandingFilter, w io.Writer) (int, error) {
	buffered := bufio.NewWriterSize(w, 1<<20)
	csvWriter := csv.NewWriter(buffered)

	if err := csvWriter.Write(exportHeaders); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	rows := 0
	err := s.eachRecord(ctx, filter, func(record domain.StrandingRecord) error {
		if err := csvWriter.Write(recordCells(record)); err != nil {
			return fmt.Errorf("write record row: %w", err)
		}
		rows++
		return nil
	})
	if err != nil {
		return rows, err
	}

	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return rows, fmt.Errorf("flush rows: %w", err)
	}
	if err := buffered.Flush(); err != nil {
		return rows, fmt.Errorf("flush buffered rows: %w", err)
	}

	log.Printf("[export] csv export completed (rows=%d)", rows)
	return rows, nil
}

func (s *Service) exportXLSX(ctx context.Context, filter *domain.StrandingFilter, w io.Writer) (int, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	sheet := f.GetSheetName(0)

	header := make([]any, len(exportHeaders))
	for i, name := range exportHeaders {
		header[i] = name
	}
	if err := setRow(f, sheet, 1, header); err != nil {
		return 0, err
	}

	rows := 0
	err := s.eachRecord(ctx, filter, func(record domain.StrandingRecord) error {
		cells := recordCells(record)
		values := make([]any, len(cells))
		for i, cell := range cells {
			values[i] = cell
		}
		if err := setRow(f, sheet, rows+2, values); err != nil {
			return err
		}
		rows++
		return nil
	})
	if err != nil {
		return rows, err
	}

	if _, err := f.WriteTo(w); err != nil {
		return rows, fmt.Errorf("write workbook: %w", err)
	}

	log.Printf("[export] xlsx export completed (rows=%d)", rows)
	return rows, nil
}

func (s *Service) eachRecord(ctx context.Context, filter *domain.StrandingFilter, fn func(domain.StrandingRecord) error) error {
	offset := 0
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		records, _, err := s.strandings.List(ctx, filter, s.pageSize, offset)
		if err != nil {
			return fmt.Errorf("list stranding records: %w", err)
		}
		if len(records) == 0 {
			return nil
		}
		for _, record := range records {
			if err := fn(record); err != nil {
				return err
			}
		}
		if len(records) < s.pageSize {
			return nil
		}
		offset += s.pageSize
	}
}

func recordCells(record domain.StrandingRecord) []string {
	return []string{
		stringValue(record.RecordID),
		record.ScientificName,
		record.IncidentDate.Format("2006-01-02"),
		timeValue(record.IncidentTime),
		record.IncidentType,
		floatValue(record.Latitude),
		floatValue(record.Longitude),
		record.LocationName,
		fmt.Sprintf("%d", record.NumberOfAnimals),
		flagValue(record.MassIncident),
		flagValue(record.GeneticallyConfirmed),
		record.Sex,
		record.AgeClass,
		record.Condition,
		record.Outcome,
		decimalValue(record.LengthCM),
		decimalValue(record.WeightKG),
		flagValue(record.WeightEstimated),
		record.CarcassFate,
		record.EntanglementGear,
		flagValue(record.DBCAAttended),
		flagValue(record.PhotosTaken),
		flagValue(record.SamplesTaken),
		flagValue(record.PostMortem),
		record.CauseOfDeath,
		record.Comments,
	}
}

func stringValue(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func timeValue(value *time.Time) string {
	if value == nil {
		return ""
	}
	return value.Format("15:04:05")
}

func floatValue(value *float64) string {
	if value == nil {
		return ""
	}
	return fmt.Sprintf("%g", *value)
}

func flagValue(value bool) string {
	if value {
		return "Y"
	}
	return "N"
}

func decimalValue(value *decimal.Decimal) string {
	if value == nil {
		return ""
	}
	return value.StringFixed(2)
}

func setRow(f *excelize.File, sheet string, rowNumber int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNumber)
	if err != nil {
		return fmt.Errorf("resolve cell for row %d: %w", rowNumber, err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write row %d: %w", rowNumber, err)
	}
	return nil
}
