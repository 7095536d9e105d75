// Package dataset loads item tables (value, weight, available units per item
// type) from CSV and Excel files. It supports delimiter detection and
// case-insensitive header recognition, including the German column names of
// the original equipment list.
package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/eugenenazirov/cargo-allocator/internal/knapsack"
)

var (
	// ErrEmptyTable is returned when a table contains no item rows.
	ErrEmptyTable = errors.New("table contains no items")
	// ErrMissingColumn is returned when a header row lacks a required column.
	ErrMissingColumn = errors.New("required column missing")
	// ErrUnsupportedFormat is returned for file extensions without a parser.
	ErrUnsupportedFormat = errors.New("unsupported table format")
)

// Source provides the item definitions for an allocation run.
type Source interface {
	Load() ([]knapsack.Item, error)
}

// StaticSource serves a fixed slice of items.
type StaticSource []knapsack.Item

// Load returns a copy of the items.
func (s StaticSource) Load() ([]knapsack.Item, error) {
	if len(s) == 0 {
		return nil, ErrEmptyTable
	}
	out := make([]knapsack.Item, len(s))
	copy(out, s)
	return out, nil
}

// FileSource reads items from a CSV or XLSX file. Sheet selects the worksheet
// of an Excel workbook; empty means the first one.
type FileSource struct {
	Path  string
	Sheet string
}

// Load parses the file according to its extension.
func (f FileSource) Load() ([]knapsack.Item, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open item table: %w", err)
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(f.Path)) {
	case ".csv", ".txt", ".tsv":
		return ParseCSV(file)
	case ".xlsx", ".xlsm":
		return ParseXLSX(file, f.Sheet)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(f.Path))
	}
}

// columnMapping maps column roles to their indices in a row.
type columnMapping struct {
	Name   int
	Value  int
	Weight int
	Units  int
}

// headerAliases maps canonical column names to their accepted aliases (all lowercase).
var headerAliases = map[string][]string{
	"name":   {"name", "item", "label", "description", "hardware", "bezeichnung"},
	"value":  {"value", "utility", "score", "priority", "nutzwert"},
	"weight": {"weight", "mass", "grams", "g", "gewicht"},
	"units":  {"units", "count", "quantity", "qty", "stock", "available", "units available", "einheiten"},
}

// detectDelimiter picks the delimiter that yields the most consistent
// multi-column layout.
func detectDelimiter(data []byte) rune {
	best := ','
	bestScore := 0

	for _, delim := range []rune{',', ';', '\t', '|'} {
		reader := csv.NewReader(bytes.NewReader(data))
		reader.Comma = delim
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1

		records, err := reader.ReadAll()
		if err != nil || len(records) == 0 || len(records[0]) < 2 {
			continue
		}

		consistent := 0
		for _, row := range records {
			if len(row) == len(records[0]) {
				consistent++
			}
		}
		if score := consistent*10 + len(records[0]); score > bestScore {
			bestScore = score
			best = delim
		}
	}

	return best
}

// detectColumns inspects a header row. Without recognisable headers it falls
// back to the positional layout name, value, weight, units.
func detectColumns(row []string) (columnMapping, bool, error) {
	mapping := columnMapping{Name: -1, Value: -1, Weight: -1, Units: -1}

	isHeader := false
	for i, cell := range row {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for role, aliases := range headerAliases {
			for _, alias := range aliases {
				if normalized != alias {
					continue
				}
				isHeader = true
				switch role {
				case "name":
					if mapping.Name == -1 {
						mapping.Name = i
					}
				case "value":
					if mapping.Value == -1 {
						mapping.Value = i
					}
				case "weight":
					if mapping.Weight == -1 {
						mapping.Weight = i
					}
				case "units":
					if mapping.Units == -1 {
						mapping.Units = i
					}
				}
			}
		}
	}

	if !isHeader {
		return columnMapping{Name: 0, Value: 1, Weight: 2, Units: 3}, false, nil
	}

	for role, idx := range map[string]int{"value": mapping.Value, "weight": mapping.Weight, "units": mapping.Units} {
		if idx == -1 {
			return mapping, true, fmt.Errorf("%w: %s", ErrMissingColumn, role)
		}
	}
	return mapping, true, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// parseRow converts one data row into an item.
func parseRow(row []string, mapping columnMapping, line int) (knapsack.Item, error) {
	name := cell(row, mapping.Name)
	if name == "" {
		name = fmt.Sprintf("Item %d", line)
	}

	rawValue := cell(row, mapping.Value)
	value, err := parseDecimal(rawValue)
	if err != nil {
		return knapsack.Item{}, fmt.Errorf("row %d: invalid value %q", line, rawValue)
	}

	rawWeight := cell(row, mapping.Weight)
	weight, err := strconv.Atoi(rawWeight)
	if err != nil {
		return knapsack.Item{}, fmt.Errorf("row %d: invalid weight %q", line, rawWeight)
	}

	rawUnits := cell(row, mapping.Units)
	units, err := strconv.Atoi(rawUnits)
	if err != nil {
		return knapsack.Item{}, fmt.Errorf("row %d: invalid units %q", line, rawUnits)
	}

	item := knapsack.Item{Name: name, Value: value, Weight: weight, MaxCount: units}
	if err := knapsack.Validate(0, []knapsack.Item{item}); err != nil {
		return knapsack.Item{}, fmt.Errorf("row %d: %w", line, err)
	}
	return item, nil
}

// parseDecimal accepts a point or a single comma as the decimal mark. Values
// with grouping separators are ambiguous and rejected.
func parseDecimal(raw string) (float64, error) {
	commas := strings.Count(raw, ",")
	switch {
	case commas > 1, commas == 1 && strings.Contains(raw, "."):
		return 0, fmt.Errorf("ambiguous separators in %q", raw)
	case commas == 1:
		raw = strings.Replace(raw, ",", ".", 1)
	}
	return strconv.ParseFloat(raw, 64)
}

func parseRecords(records [][]string) ([]knapsack.Item, error) {
	for len(records) > 0 && isBlank(records[0]) {
		records = records[1:]
	}
	if len(records) == 0 {
		return nil, ErrEmptyTable
	}

	mapping, hasHeader, err := detectColumns(records[0])
	if err != nil {
		return nil, err
	}
	start := 0
	if hasHeader {
		start = 1
	}

	items := make([]knapsack.Item, 0, len(records)-start)
	for i := start; i < len(records); i++ {
		if isBlank(records[i]) {
			continue
		}
		item, err := parseRow(records[i], mapping, i+1)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if len(items) == 0 {
		return nil, ErrEmptyTable
	}
	return items, nil
}

// ParseCSV reads a delimited item table.
func ParseCSV(r io.Reader) ([]knapsack.Item, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read item table: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = detectDelimiter(data)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse item table: %w", err)
	}
	return parseRecords(records)
}

// ParseXLSX reads an item table from an Excel workbook. An empty sheet name
// selects the first worksheet.
func ParseXLSX(r io.Reader, sheet string) ([]knapsack.Item, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer book.Close()

	if sheet == "" {
		sheets := book.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrEmptyTable
		}
		sheet = sheets[0]
	}

	rows, err := book.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return parseRecords(rows)
}
