package importer

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrMalformedInput is returned when an upload cannot be parsed as a
	// spreadsheet at all. This is a whole-file failure: the import aborts
	// without processing any rows.
	ErrMalformedInput = errors.New("malformed spreadsheet")

	// ErrUnsupportedFormat is returned when an uploaded file is not supported.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	byteOrderMark = []byte{0xEF, 0xBB, 0xBF}
)

// table holds the parsed upload: the header row, kept verbatim for the error
// report, and the data rows in spreadsheet order.
type table struct {
	header []string
	rows   [][]string
}

// parseTable reads an uploaded CSV or XLSX payload into an ordered table.
func parseTable(fileName string, payload []byte) (table, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".csv":
		return parseCSV(payload)
	case ".xlsx":
		return parseExcel(payload)
	default:
		return table{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

func parseCSV(payload []byte) (table, error) {
	reader := bufio.NewReader(bytes.NewReader(payload))
	if prefix, err := reader.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = reader.Discard(len(byteOrderMark))
	}

	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return table{}, fmt.Errorf("%w: failed to read csv: %v", ErrMalformedInput, err)
	}

	return normalizeTable(records)
}

func parseExcel(payload []byte) (table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return table{}, fmt.Errorf("%w: failed to open xlsx: %v", ErrMalformedInput, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return table{}, fmt.Errorf("%w: excel file has no sheets", ErrMalformedInput)
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return table{}, fmt.Errorf("%w: failed to read rows from xlsx: %v", ErrMalformedInput, err)
	}

	return normalizeTable(rows)
}

func normalizeTable(records [][]string) (table, error) {
	if len(records) == 0 {
		return table{}, fmt.Errorf("%w: no rows found in file", ErrMalformedInput)
	}

	var header []string
	var dataRows [][]string
	for _, row := range records {
		if isBlankRow(row) {
			continue
		}
		if header == nil {
			header = row
			continue
		}
		dataRows = append(dataRows, row)
	}

	if header == nil {
		return table{}, fmt.Errorf("%w: header row could not be detected", ErrMalformedInput)
	}

	for i := range dataRows {
		dataRows[i] = padRow(dataRows[i], len(header))
	}

	return table{header: header, rows: dataRows}, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func padRow(row []string, length int) []string {
	if len(row) >= length {
		return row
	}
	padded := make([]string, length)
	copy(padded, row)
	return padded
}
