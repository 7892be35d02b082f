package domain

import "strings"

// Table is a parsed tabular source: a header row followed by data rows.
// Every row has exactly len(Headers) cells.
type Table struct {
	Name    string     `json:"name,omitempty"`
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// NewTable builds a table from raw rows, treating the first row as the header.
// Short rows are padded and long rows truncated to the header width.
func NewTable(name string, raw [][]string) Table {
	t := Table{Name: name}
	if len(raw) == 0 {
		return t
	}

	t.Headers = make([]string, len(raw[0]))
	for i, h := range raw[0] {
		t.Headers[i] = strings.TrimSpace(h)
	}

	t.Rows = make([][]string, 0, len(raw)-1)
	for _, r := range raw[1:] {
		t.Rows = append(t.Rows, normalizeRow(r, len(t.Headers)))
	}
	return t
}

func normalizeRow(row []string, width int) []string {
	out := make([]string, width)
	copy(out, row)
	return out
}

// Column returns the cells of the column at idx, top to bottom.
func (t Table) Column(idx int) []string {
	if idx < 0 || idx >= len(t.Headers) {
		return nil
	}
	cells := make([]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		cells = append(cells, r[idx])
	}
	return cells
}

// IndexOf returns the position of the header equal to name ignoring case
// and surrounding whitespace, or -1.
func (t Table) IndexOf(name string) int {
	want := strings.TrimSpace(name)
	for i, h := range t.Headers {
		if strings.EqualFold(strings.TrimSpace(h), want) {
			return i
		}
	}
	return -1
}

// IsEmpty reports whether the table has no header row.
func (t Table) IsEmpty() bool {
	return len(t.Headers) == 0
}
