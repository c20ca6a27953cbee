package export

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

const (
	maxSheetName     = 31
	unknownSheetName = "Class_Unknown"
	defaultSheetName = "Sheet1"
)

// XLSXExporter renders datasets into workbooks, one worksheet per group.
type XLSXExporter struct{}

// NewXLSXExporter constructs an xlsx exporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// Render writes the dataset with a bold header row and columns sized to their longest value.
func (e *XLSXExporter) Render(data Dataset) ([]byte, error) {
	return e.RenderBook(data)
}

// RenderBook writes several datasets into one workbook. Sheet names stay unique across datasets.
func (e *XLSXExporter) RenderBook(datasets ...Dataset) ([]byte, error) {
	if len(datasets) == 0 {
		return nil, fmt.Errorf("xlsx requires at least one dataset")
	}
	for _, data := range datasets {
		if len(data.Headers) == 0 {
			return nil, fmt.Errorf("xlsx requires at least one header")
		}
	}

	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	used := make(map[string]struct{})
	first := true
	nextSheet := func(name string) (string, error) {
		name = uniqueSheetName(name, used)
		if first {
			first = false
			return name, f.SetSheetName(defaultSheetName, name)
		}
		_, err := f.NewSheet(name)
		return name, err
	}

	for _, data := range datasets {
		if err := writeDataset(f, data, nextSheet, bold); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeDataset(f *excelize.File, data Dataset, nextSheet func(string) (string, error), bold int) error {
	if len(data.Rows) == 0 {
		name := data.EmptySheet
		if name == "" {
			name = "No Data"
		}
		sheet, err := nextSheet(SheetName(name))
		if err != nil {
			return fmt.Errorf("create sheet: %w", err)
		}
		return writeSheet(f, sheet, data.Headers, nil, bold)
	}

	order, grouped := data.Groups()
	for _, group := range order {
		name := data.Sheet
		if data.GroupBy != "" {
			name = group
		}
		if name == "" && data.GroupBy == "" {
			name = defaultSheetName
		}
		sheet, err := nextSheet(SheetName(name))
		if err != nil {
			return fmt.Errorf("create sheet: %w", err)
		}
		if err := writeSheet(f, sheet, data.Headers, grouped[group], bold); err != nil {
			return err
		}
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, headers []string, rows []map[string]string, headerStyle int) error {
	widths := make([]int, len(headers))
	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
		widths[i] = utf8.RuneCountInString(h)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	lastHeader, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", lastHeader, headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for r, row := range rows {
		values := make([]interface{}, len(headers))
		for i, h := range headers {
			values[i] = row[h]
			if n := utf8.RuneCountInString(row[h]); n > widths[i] {
				widths[i] = n
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", r+2, err)
		}
	}

	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, float64(w+2)); err != nil {
			return fmt.Errorf("size column %s: %w", col, err)
		}
	}
	return nil
}

// SheetName keeps letters, digits, spaces and underscores, trims the result and caps it at the
// worksheet name limit. Names left empty become Class_Unknown.
func SheetName(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '_' {
			b.WriteRune(r)
		}
	}
	name := truncate(strings.TrimSpace(b.String()), maxSheetName)
	if name == "" {
		return unknownSheetName
	}
	return name
}

func uniqueSheetName(name string, used map[string]struct{}) string {
	candidate := name
	for i := 2; ; i++ {
		key := strings.ToLower(candidate)
		if _, taken := used[key]; !taken {
			used[key] = struct{}{}
			return candidate
		}
		suffix := "_" + strconv.Itoa(i)
		candidate = truncate(name, maxSheetName-len(suffix)) + suffix
	}
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
