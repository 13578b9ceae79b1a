package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"testing"
	"time"

	"github.com/dbca-wa/wastd-sub002/internal/domain"
	"github.com/dbca-wa/wastd-sub002/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

func sampleRecords(count int) []domain.StrandingRecord {
	records := make([]domain.StrandingRecord, 0, count)
	for i := 0; i < count; i++ {
		recordID := uuid.New().String()
		lat, lng := -31.95, 115.86
		length := decimal.NewFromFloat(212.345).Round(2)
		clock := time.Date(0, time.January, 1, 14, 30, 0, 0, time.UTC)
		records = append(records, domain.NewStrandingRecord(domain.StrandingRecord{
			RecordID:       &recordID,
			SpeciesID:      uuid.New(),
			ScientificName: "Tursiops aduncus",
			IncidentDate:   time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			IncidentTime:   &clock,
			IncidentType:   domain.IncidentTypeStranding,
			Latitude:       &lat,
			Longitude:      &lng,
			LocationName:   "Cottesloe Beach",
			Sex:            domain.SexFemale,
			Condition:      domain.ConditionAlive,
			Outcome:        domain.OutcomeReleased,
			LengthCM:       &length,
			PhotosTaken:    true,
		}))
	}
	return records
}

func TestExportCSV(t *testing.T) {
	repo := &stubStrandingRepo{records: sampleRecords(3)}
	service := NewService(repo)

	var buf bytes.Buffer
	rows, err := service.Export(context.Background(), nil, FormatCSV, &buf)
	if err != nil {
		t.Fatalf("export returned error: %v", err)
	}
	if rows != 3 {
		t.Fatalf("expected 3 rows, got %d", rows)
	}

	parsed, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("reparse csv: %v", err)
	}
	if len(parsed) != 4 {
		t.Fatalf("expected header plus 3 rows, got %d", len(parsed))
	}
	if parsed[0][0] != "Record ID" || len(parsed[0]) != len(exportHeaders) {
		t.Fatalf("unexpected header row: %v", parsed[0])
	}

	row := parsed[1]
	if row[1] != "Tursiops aduncus" {
		t.Fatalf("unexpected scientific name: %q", row[1])
	}
	if row[2] != "2024-05-01" {
		t.Fatalf("unexpected incident date: %q", row[2])
	}
	if row[3] != "14:30:00" {
		t.Fatalf("unexpected incident time: %q", row[3])
	}
	if row[15] != "212.35" {
		t.Fatalf("expected fixed two decimal places, got %q", row[15])
	}
	if row[21] != "Y" || row[9] != "N" {
		t.Fatalf("unexpected flag cells: photos=%q mass=%q", row[21], row[9])
	}
}

func TestExportXLSX(t *testing.T) {
	repo := &stubStrandingRepo{records: sampleRecords(2)}
	service := NewService(repo)

	var buf bytes.Buffer
	rows, err := service.Export(context.Background(), nil, FormatXLSX, &buf)
	if err != nil {
		t.Fatalf("export returned error: %v", err)
	}
	if rows != 2 {
		t.Fatalf("expected 2 rows, got %d", rows)
	}

	workbook, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer func() { _ = workbook.Close() }()

	sheetRows, err := workbook.GetRows(workbook.GetSheetName(0))
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	if len(sheetRows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(sheetRows))
	}
	if sheetRows[1][1] != "Tursiops aduncus" {
		t.Fatalf("unexpected cell: %q", sheetRows[1][1])
	}
}

func TestExportPagesThroughStore(t *testing.T) {
	repo := &stubStrandingRepo{records: sampleRecords(5)}
	service := NewService(repo, WithPageSize(2))

	var buf bytes.Buffer
	rows, err := service.Export(context.Background(), nil, FormatCSV, &buf)
	if err != nil {
		t.Fatalf("export returned error: %v", err)
	}
	if rows != 5 {
		t.Fatalf("expected 5 rows, got %d", rows)
	}
	if repo.listCalls != 3 {
		t.Fatalf("expected 3 page fetches, got %d", repo.listCalls)
	}
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	service := NewService(&stubStrandingRepo{})

	var buf bytes.Buffer
	if _, err := service.Export(context.Background(), nil, Format("pdf"), &buf); err == nil {
		t.Fatalf("expected unknown format to be rejected")
	}
}

func TestExportStopsOnCancelledContext(t *testing.T) {
	repo := &stubStrandingRepo{records: sampleRecords(5)}
	service := NewService(repo, WithPageSize(1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	if _, err := service.Export(ctx, nil, FormatCSV, &buf); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
}

type stubStrandingRepo struct {
	records   []domain.StrandingRecord
	listCalls int
}

func (s *stubStrandingRepo) Create(ctx context.Context, record domain.StrandingRecord) (domain.StrandingRecord, error) {
	return domain.StrandingRecord{}, errors.New("not implemented")
}

func (s *stubStrandingRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.StrandingRecord, error) {
	return domain.StrandingRecord{}, errors.New("not implemented")
}

func (s *stubStrandingRepo) ExistsByRecordID(ctx context.Context, recordID string) (bool, error) {
	return false, errors.New("not implemented")
}

func (s *stubStrandingRepo) ExistsMatching(ctx context.Context, key domain.CompositeKey) (bool, error) {
	return false, errors.New("not implemented")
}

func (s *stubStrandingRepo) List(ctx context.Context, filter *domain.StrandingFilter, limit, offset int) ([]domain.StrandingRecord, int, error) {
	s.listCalls++
	if offset >= len(s.records) {
		return nil, len(s.records), nil
	}
	end := offset + limit
	if end > len(s.records) {
		end = len(s.records)
	}
	page := append([]domain.StrandingRecord(nil), s.records[offset:end]...)
	return page, len(s.records), nil
}

var _ repository.StrandingRepository = (*stubStrandingRepo)(nil)
