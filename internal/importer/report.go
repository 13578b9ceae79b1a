package importer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"
)

const errorMessageHeader = "Error Message"

// Report describes a generated error-report workbook.
type Report struct {
	FileName string `json:"fileName"`
	Path     string `json:"-"`
	Rows     int    `json:"rows"`
}

// Reporter writes failed import rows into a downloadable workbook: the
// original header plus a trailing error-message column, one row per failure
// with the row's raw cells untouched.
type Reporter struct {
	dir string
}

// NewReporter writes reports into dir.
func NewReporter(dir string) *Reporter {
	return &Reporter{dir: dir}
}

// Write builds failed_imports_<timestamp>.xlsx. The file lands atomically:
// it is assembled in a temp file and renamed into place.
func (r *Reporter) Write(header []string, failed []FailedRow, now time.Time) (Report, error) {
	if len(failed) == 0 {
		return Report{}, errors.New("no failed rows to report")
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return Report{}, fmt.Errorf("ensure report directory: %w", err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	sheet := f.GetSheetName(0)

	headerRow := make([]any, 0, len(header)+1)
	for _, cell := range header {
		headerRow = append(headerRow, cell)
	}
	headerRow = append(headerRow, errorMessageHeader)
	if err := setRow(f, sheet, 1, headerRow); err != nil {
		return Report{}, err
	}

	for i, row := range failed {
		cells := make([]any, 0, len(row.Cells)+1)
		for _, cell := range row.Cells {
			cells = append(cells, cell)
		}
		cells = append(cells, row.Err.Message)
		if err := setRow(f, sheet, i+2, cells); err != nil {
			return Report{}, err
		}
	}

	fileName := fmt.Sprintf("failed_imports_%s.xlsx", now.Format("20060102T150405"))
	finalPath := filepath.Join(r.dir, fileName)

	tempFile, err := os.CreateTemp(r.dir, "failed_imports_*.xlsx.tmp")
	if err != nil {
		return Report{}, fmt.Errorf("create temp report file: %w", err)
	}
	tempPath := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = tempFile.Close()
			_ = os.Remove(tempPath)
		}
	}()

	if _, err := f.WriteTo(tempFile); err != nil {
		return Report{}, fmt.Errorf("write report workbook: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return Report{}, fmt.Errorf("close report file: %w", err)
	}
	if err := os.Rename(tempPath, finalPath); err != nil {
		return Report{}, fmt.Errorf("promote report file: %w", err)
	}
	cleanup = false

	return Report{FileName: fileName, Path: finalPath, Rows: len(failed)}, nil
}

// Open returns the named report for streaming to the client. The name is
// validated against path traversal before touching the filesystem.
func (r *Reporter) Open(fileName string) (*os.File, error) {
	if fileName != filepath.Base(fileName) || filepath.Ext(fileName) != ".xlsx" {
		return nil, errors.New("invalid report file name")
	}
	file, err := os.Open(filepath.Join(r.dir, fileName))
	if err != nil {
		return nil, fmt.Errorf("open report file: %w", err)
	}
	return file, nil
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
