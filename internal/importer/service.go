package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dbca-wa/wastd-sub002/internal/domain"
	"github.com/dbca-wa/wastd-sub002/internal/repository"
)

// ErrorKind tags the failure class of an import row.
type ErrorKind string

const (
	ErrorKindParse       ErrorKind = "parse"
	ErrorKindDuplicate   ErrorKind = "duplicate"
	ErrorKindValidation  ErrorKind = "validation"
	ErrorKindPersistence ErrorKind = "persistence"
)

// RowError is a tagged per-row failure. Rows fail individually; a RowError
// never propagates out of the row loop.
type RowError struct {
	Kind    ErrorKind
	Message string
}

func (e RowError) Error() string {
	return e.Message
}

// FailedRow retains a row that could not be imported, for the error report.
// It holds the row's position in the upload, its raw unparsed cells, and the
// failure. FailedRows are never persisted; they are flushed into the
// error-report workbook at the end of the run.
type FailedRow struct {
	RowNumber int
	Cells     []string
	Err       RowError
}

// Summary returns import run metrics.
type Summary struct {
	TotalRows int     `json:"totalRows"`
	Imported  int     `json:"imported"`
	Failed    int     `json:"failed"`
	Report    *Report `json:"report,omitempty"`
}

// Request describes the import input.
type Request struct {
	FileName string
	Data     io.Reader
}

// Service runs the stranding import pipeline: read the upload, normalize
// each row, classify duplicates, validate, and persist row by row. Rows are
// processed strictly in spreadsheet order and each write commits before the
// next row's duplicate check runs.
type Service struct {
	speciesRepo   repository.SpeciesRepository
	strandingRepo repository.StrandingRepository
	logRepo       repository.ImportLogRepository

	schema     Schema
	normalizer *Normalizer
	detector   *DuplicateDetector
	reporter   *Reporter
	now        func() time.Time
}

// Option customizes service construction.
type Option func(*Service)

// WithVocabularies swaps the categorical vocabularies used by the normalizer
// and validator.
func WithVocabularies(vocabs domain.Vocabularies) Option {
	return func(s *Service) {
		s.normalizer = NewNormalizer(vocabs)
	}
}

// WithReportDirectory sets where error-report workbooks are written.
func WithReportDirectory(dir string) Option {
	return func(s *Service) {
		if strings.TrimSpace(dir) != "" {
			s.reporter = NewReporter(filepath.Clean(dir))
		}
	}
}

// WithClock overrides the time source used for report file names.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a new import service.
func NewService(
	speciesRepo repository.SpeciesRepository,
	strandingRepo repository.StrandingRepository,
	logRepo repository.ImportLogRepository,
	opts ...Option,
) *Service {
	service := &Service{
		speciesRepo:   speciesRepo,
		strandingRepo: strandingRepo,
		logRepo:       logRepo,
		schema:        StrandingSchema(),
		normalizer:    NewNormalizer(domain.DefaultVocabularies()),
		detector:      NewDuplicateDetector(strandingRepo),
		reporter:      NewReporter(filepath.Join(os.TempDir(), "wastd-import-reports")),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Import runs the pipeline to completion within the calling request. A
// file-level parse failure aborts the whole run; every row-level failure is
// recovered locally, logged, and surfaced only through the error report.
func (s *Service) Import(ctx context.Context, req Request) (Summary, error) {
	summary := Summary{}

	if strings.TrimSpace(req.FileName) == "" {
		return summary, errors.New("file name is required")
	}
	if req.Data == nil {
		return summary, errors.New("data reader is required")
	}

	payload, err := io.ReadAll(req.Data)
	if err != nil {
		return summary, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(payload) == 0 {
		return summary, fmt.Errorf("%w: file is empty", ErrMalformedInput)
	}

	parsed, err := parseTable(req.FileName, payload)
	if err != nil {
		return summary, err
	}
	if err := s.schema.ValidateHeader(parsed.header); err != nil {
		return summary, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}

	summary.TotalRows = len(parsed.rows)

	var failed []FailedRow
	for rowIdx, row := range parsed.rows {
		rowNumber := rowIdx + 2 // 1-based, header included

		if rowErr := s.importRow(ctx, row); rowErr != nil {
			failed = append(failed, FailedRow{
				RowNumber: rowNumber,
				Cells:     row,
				Err:       *rowErr,
			})
			s.logRowError(ctx, req.FileName, rowNumber, *rowErr)
			continue
		}

		summary.Imported++
	}

	summary.Failed = len(failed)
	if len(failed) > 0 {
		report, reportErr := s.reporter.Write(parsed.header, failed, s.now())
		if reportErr != nil {
			return summary, fmt.Errorf("failed to write error report: %w", reportErr)
		}
		summary.Report = &report
	}

	log.Printf("[import] %s processed (rows=%d imported=%d failed=%d)",
		req.FileName, summary.TotalRows, summary.Imported, summary.Failed)
	return summary, nil
}

// importRow runs one row through normalize → duplicate check → validate →
// write. A nil return means the row was persisted.
func (s *Service) importRow(ctx context.Context, row []string) *RowError {
	record, rowErr := s.buildRecord(ctx, row)
	if rowErr != nil {
		return rowErr
	}

	reason, err := s.detector.Classify(ctx, record)
	if err != nil {
		return &RowError{Kind: ErrorKindPersistence, Message: err.Error()}
	}
	if reason != "" {
		return &RowError{Kind: ErrorKindDuplicate, Message: reason}
	}

	if err := record.Validate(s.normalizer.Vocabularies()); err != nil {
		return &RowError{Kind: ErrorKindValidation, Message: err.Error()}
	}

	if _, err := s.strandingRepo.Create(ctx, record); err != nil {
		return &RowError{Kind: ErrorKindPersistence, Message: err.Error()}
	}

	return nil
}

// buildRecord normalizes one raw row into a candidate stranding record.
func (s *Service) buildRecord(ctx context.Context, row []string) (domain.StrandingRecord, *RowError) {
	scientificName := s.schema.Cell(row, ColScientificName)
	if scientificName == "" {
		return domain.StrandingRecord{}, &RowError{
			Kind:    ErrorKindValidation,
			Message: "species scientific name is empty",
		}
	}

	species, err := s.speciesRepo.GetByScientificName(ctx, scientificName)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.StrandingRecord{}, &RowError{
				Kind:    ErrorKindValidation,
				Message: fmt.Sprintf("species %q is not in the reference list", scientificName),
			}
		}
		return domain.StrandingRecord{}, &RowError{Kind: ErrorKindPersistence, Message: err.Error()}
	}

	record := domain.StrandingRecord{
		SpeciesID:      species.ID,
		ScientificName: species.ScientificName,

		IncidentType: s.normalizer.IncidentType(s.schema.Cell(row, ColIncidentType)),
		LocationName: s.schema.Cell(row, ColLocationName),

		NumberOfAnimals: s.normalizer.Count(s.schema.Cell(row, ColNumberOfAnimals), 1),
		MassIncident:    s.normalizer.Flag(s.schema.Cell(row, ColMassIncident)),

		GeneticallyConfirmed: s.normalizer.Flag(s.schema.Cell(row, ColGeneticallyConfirmed)),

		Sex:       s.normalizer.Sex(s.schema.Cell(row, ColSex)),
		AgeClass:  s.schema.Cell(row, ColAgeClass),
		Condition: s.normalizer.Condition(s.schema.Cell(row, ColCondition)),
		Outcome:   s.normalizer.Outcome(s.schema.Cell(row, ColOutcome)),

		LengthCM: s.normalizer.Measurement(s.schema.Cell(row, ColLengthCM)),
		WeightKG: s.normalizer.Measurement(s.schema.Cell(row, ColWeightKG)),

		WeightEstimated:  s.normalizer.Flag(s.schema.Cell(row, ColWeightEstimated)),
		CarcassFate:      s.schema.Cell(row, ColCarcassFate),
		EntanglementGear: s.schema.Cell(row, ColEntanglementGear),
		DBCAAttended:     s.normalizer.Flag(s.schema.Cell(row, ColDBCAAttended)),
		PhotosTaken:      s.normalizer.Flag(s.schema.Cell(row, ColPhotosTaken)),
		SamplesTaken:     s.normalizer.Flag(s.schema.Cell(row, ColSamplesTaken)),
		PostMortem:       s.normalizer.Flag(s.schema.Cell(row, ColPostMortem)),

		CauseOfDeath: s.schema.Cell(row, ColCauseOfDeath),
		Comments:     s.schema.Cell(row, ColComments),
	}

	if recordID := s.schema.Cell(row, ColRecordID); recordID != "" {
		record.RecordID = &recordID
	}
	if rawDate := s.schema.Cell(row, ColIncidentDate); rawDate != "" {
		date := s.normalizer.Date(rawDate)
		if date == nil {
			return domain.StrandingRecord{}, &RowError{
				Kind:    ErrorKindParse,
				Message: fmt.Sprintf("incident date %q could not be parsed", rawDate),
			}
		}
		record.IncidentDate = *date
	}
	record.IncidentTime = s.normalizer.TimeOfDay(s.schema.Cell(row, ColIncidentTime))
	record.Latitude, record.Longitude = s.normalizer.Point(
		s.schema.Cell(row, ColLatitude),
		s.schema.Cell(row, ColLongitude),
	)

	return domain.NewStrandingRecord(record), nil
}

func (s *Service) logRowError(ctx context.Context, fileName string, rowNumber int, rowErr RowError) {
	if s.logRepo == nil {
		return
	}
	entry := domain.ImportLogEntry{
		FileName:     fileName,
		RowNumber:    &rowNumber,
		ErrorKind:    string(rowErr.Kind),
		ErrorMessage: rowErr.Message,
	}
	if err := s.logRepo.Record(ctx, entry); err != nil {
		log.Printf("[import] failed to record import log for %s row %d: %v", fileName, rowNumber, err)
	}
}
