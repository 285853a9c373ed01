// Package sheet reads spreadsheet rows into records and writes result workbooks.
package sheet

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	ErrEmptyWorkbook = errors.New("workbook is empty or has no data rows")
	ErrInvalidFile   = errors.New("file is not a readable xlsx workbook")
)

// Record is one data row keyed by the header row. Keys keep column order.
type Record struct {
	Keys   []string
	Values []string
}

// Pairs renders "Key: Value" for every column.
func (r Record) Pairs() []string {
	out := make([]string, len(r.Keys))
	for i, k := range r.Keys {
		out[i] = k + ": " + r.Values[i]
	}
	return out
}

// Content is the QR text: "Key: Value" lines, or the values alone when
// header is false.
func (r Record) Content(header bool) string {
	if header {
		return strings.Join(r.Pairs(), "\n")
	}
	return strings.Join(r.nonEmptyValues(), "\n")
}

// BarcodeText joins the trimmed, non-empty values with "-".
func (r Record) BarcodeText() string {
	return strings.Join(r.nonEmptyValues(), "-")
}

// DisplayText is the human readable caption printed under a barcode.
func (r Record) DisplayText() string {
	return strings.Join(r.Pairs(), " | ")
}

func (r Record) nonEmptyValues() []string {
	out := make([]string, 0, len(r.Values))
	for _, v := range r.Values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// ReadRecords parses the first sheet. The first row is the header and every
// record is keyed over the widest row; blank rows are skipped and missing
// trailing cells read as "".
func ReadRecords(r io.Reader) ([]Record, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyWorkbook
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, ErrEmptyWorkbook
	}

	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}
	keys := headerKeys(rows[0], width)
	var records []Record
	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		values := make([]string, len(keys))
		copy(values, row)
		records = append(records, Record{Keys: keys, Values: values})
	}
	if len(records) == 0 {
		return nil, ErrEmptyWorkbook
	}
	return records, nil
}

// headerKeys names width columns from header. Missing or empty headers become
// __EMPTY and repeated names get the first free _N suffix.
func headerKeys(header []string, width int) []string {
	keys := make([]string, width)
	used := make(map[string]bool, width)
	next := make(map[string]int)
	for i := range keys {
		h := ""
		if i < len(header) {
			h = strings.TrimSpace(header[i])
		}
		if h == "" {
			h = "__EMPTY"
		}
		key := h
		for used[key] {
			next[h]++
			key = fmt.Sprintf("%s_%d", h, next[h])
		}
		used[key] = true
		keys[i] = key
	}
	return keys
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
