package importer

import (
	"bytes"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestParseTableCSV(t *testing.T) {
	payload := []byte("a,b,c\n1,2,3\n\n4,5\n")

	parsed, err := parseTable("upload.csv", payload)
	if err != nil {
		t.Fatalf("parse returned error: %v", err)
	}

	if len(parsed.header) != 3 {
		t.Fatalf("expected 3 header cells, got %d", len(parsed.header))
	}
	if len(parsed.rows) != 2 {
		t.Fatalf("expected 2 data rows, got %d", len(parsed.rows))
	}
	// Short rows are padded to the header width.
	if len(parsed.rows[1]) != 3 || parsed.rows[1][2] != "" {
		t.Fatalf("expected padded row, got %v", parsed.rows[1])
	}
}

func TestParseTableCSVStripsByteOrderMark(t *testing.T) {
	payload := append([]byte{0xEF, 0xBB, 0xBF}, []byte("name\nvalue\n")...)

	parsed, err := parseTable("upload.csv", payload)
	if err != nil {
		t.Fatalf("parse returned error: %v", err)
	}
	if parsed.header[0] != "name" {
		t.Fatalf("expected BOM stripped from header, got %q", parsed.header[0])
	}
}

func TestParseTableXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"scientific_name", "latitude"},
		{"Tursiops aduncus", -31.95},
		{}, // blank rows are skipped
		{"Orcinus orca", -33.10},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}

	parsed, err := parseTable("upload.xlsx", buf.Bytes())
	if err != nil {
		t.Fatalf("parse returned error: %v", err)
	}
	if len(parsed.rows) != 2 {
		t.Fatalf("expected 2 data rows, got %d", len(parsed.rows))
	}
	if parsed.rows[0][0] != "Tursiops aduncus" {
		t.Fatalf("unexpected first cell: %q", parsed.rows[0][0])
	}
}

func TestParseTableRejectsUnknownExtension(t *testing.T) {
	_, err := parseTable("upload.pdf", []byte("%PDF"))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected unsupported format, got %v", err)
	}
}

func TestParseTableRejectsGarbageXLSX(t *testing.T) {
	_, err := parseTable("upload.xlsx", []byte("this is not a zip archive"))
	if !errors.Is(err, ErrMalformedInput) {
		t.Fatalf("expected malformed input, got %v", err)
	}
}

func TestParseTableRejectsHeaderOnlyBlankFile(t *testing.T) {
	_, err := parseTable("upload.csv", []byte("\n\n  \n"))
	if !errors.Is(err, ErrMalformedInput) {
		t.Fatalf("expected malformed input, got %v", err)
	}
}
