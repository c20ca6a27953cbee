package export

// Dataset defines tabular export content. Rows are keyed by header; GroupBy may name a row key
// that is not itself a column.
type Dataset struct {
	Headers []string
	Rows    []map[string]string

	// GroupBy splits spreadsheet output into one sheet per distinct value.
	GroupBy string
	// Sheet names the single sheet of an ungrouped workbook.
	Sheet string
	// EmptySheet names the header-only sheet written when there are no rows.
	EmptySheet string
}

// Groups returns the rows partitioned by GroupBy, in first-appearance order.
func (d Dataset) Groups() ([]string, map[string][]map[string]string) {
	order := make([]string, 0)
	grouped := make(map[string][]map[string]string)
	for _, row := range d.Rows {
		key := ""
		if d.GroupBy != "" {
			key = row[d.GroupBy]
		}
		if _, ok := grouped[key]; !ok {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], row)
	}
	return order, grouped
}
