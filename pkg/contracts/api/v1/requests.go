// Package api contains the request contracts of the costsheet HTTP API.
// Version v1 is the current stable API version.
package api

import (
	"bytes"
	"encoding/json"

	"costsheet/pkg/contracts/domain"
)

// ExtractionStartRequest starts (or joins) a live extraction run.
type ExtractionStartRequest struct {
	Source string `json:"source" validate:"omitempty,oneof=browser api"`
	URL    string `json:"url,omitempty" validate:"omitempty,sheeturl"`
}

// SourceKind maps the requested source onto the domain value.
func (r ExtractionStartRequest) SourceKind() domain.SourceKind {
	if r.Source == string(domain.SourceAPI) {
		return domain.SourceAPI
	}
	return domain.SourceBrowser
}

// SummarizeValuesRequest summarizes a caller-supplied list of raw cells.
type SummarizeValuesRequest struct {
	Values []Cell `json:"values" validate:"required,max=100000"`
}

// Cells returns the values as raw cell text.
func (r SummarizeValuesRequest) Cells() []string {
	out := make([]string, len(r.Values))
	for i, c := range r.Values {
		out[i] = string(c)
	}
	return out
}

// Cell is one raw value. It decodes from a JSON string, or from any other
// literal as that literal's text, so numbers keep their written form and
// null becomes an empty cell.
type Cell string

// UnmarshalJSON implements json.Unmarshaler.
func (c *Cell) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*c = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Cell(s)
	default:
		*c = Cell(data)
	}
	return nil
}

// SaveSheetURLRequest stores the sheet URL in the env file.
type SaveSheetURLRequest struct {
	URL string `json:"url" validate:"required,sheeturl"`
}

// ExportRequest selects the export format for a run.
type ExportRequest struct {
	Format string `json:"format" validate:"required,oneof=csv xlsx pdf"`
}
