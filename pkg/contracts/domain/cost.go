// Package domain contains the data contracts shared by the extraction
// pipelines, the HTTP API and the CLI.
package domain

// SummaryStatus is the outcome of a single summarization.
type SummaryStatus string

const (
	StatusSuccess SummaryStatus = "success"
	// StatusEmpty means the source was read but held no numeric cost data.
	StatusEmpty SummaryStatus = "empty"
	StatusError SummaryStatus = "error"
)

// SourceKind names where the observations came from.
type SourceKind string

const (
	SourceBrowser SourceKind = "browser"
	SourceAPI     SourceKind = "api"
	SourceUpload  SourceKind = "upload"
	SourceValues  SourceKind = "values"
)

// Error codes carried by non-success summaries.
const (
	CodeNoCostData        = "no_cost_data"
	CodeColumnNotFound    = "column_not_found"
	CodeSourceUnreachable = "source_unreachable"
	CodeSignInRequired    = "sign_in_required"
	CodeOutOfRange        = "out_of_range"
	CodeInternal          = "internal"
)

// MatchReason explains how the cost column was chosen.
type MatchReason string

const (
	MatchExact   MatchReason = "exact"
	MatchNumeric MatchReason = "numeric"
	MatchManual  MatchReason = "manual"
)

// ColumnMatch identifies the column whose values are summed.
type ColumnMatch struct {
	Index  int         `json:"index"`
	Header string      `json:"header"`
	Reason MatchReason `json:"reason"`
}

// CostSummary is the result record of one run. Average and Maximum are nil
// when Count is zero.
type CostSummary struct {
	Status    SummaryStatus `json:"status"`
	Total     float64       `json:"total_expense"`
	Count     int           `json:"count"`
	Average   *float64      `json:"average,omitempty"`
	Maximum   *float64      `json:"maximum,omitempty"`
	Message   string        `json:"message"`
	Values    []float64     `json:"values_found"`
	Column    string        `json:"column,omitempty"`
	Source    SourceKind    `json:"source,omitempty"`
	ErrorCode string        `json:"error_code,omitempty"`
}

// ErrorSummary builds a failed result with no observations.
func ErrorSummary(source SourceKind, code, message string) CostSummary {
	return CostSummary{
		Status:    StatusError,
		Message:   message,
		Values:    []float64{},
		Source:    source,
		ErrorCode: code,
	}
}

// OK reports whether the summary carries at least one value.
func (s CostSummary) OK() bool {
	return s.Status == StatusSuccess
}
