package dataprocessing

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"costsheet/pkg/contracts/domain"
)

// NoCostDataMessage is reported when a source yields no numeric values.
const NoCostDataMessage = "no numeric cost data present"

// OutOfRangeMessage is reported when the total cannot be held in a float64.
const OutOfRangeMessage = "total out of range"

// Summarize aggregates already-coerced values. An empty input yields a
// StatusEmpty summary with nil Average and Maximum. A total or average too
// large for a float64 yields an out_of_range error summary.
func Summarize(values []float64) domain.CostSummary {
	out := make([]float64, len(values))
	copy(out, values)

	if len(out) == 0 {
		return domain.CostSummary{
			Status:    domain.StatusEmpty,
			Message:   NoCostDataMessage,
			Values:    out,
			ErrorCode: domain.CodeNoCostData,
		}
	}

	sum := decimal.Zero
	maximum := out[0]
	for _, v := range out {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return domain.ErrorSummary("", domain.CodeOutOfRange, OutOfRangeMessage)
		}
		sum = sum.Add(decimal.NewFromFloat(v))
		if v > maximum {
			maximum = v
		}
	}

	total, _ := sum.Float64()
	average, _ := sum.Div(decimal.NewFromInt(int64(len(out)))).Float64()
	if math.IsInf(total, 0) || math.IsInf(average, 0) {
		return domain.ErrorSummary("", domain.CodeOutOfRange, OutOfRangeMessage)
	}

	return domain.CostSummary{
		Status:  domain.StatusSuccess,
		Total:   total,
		Count:   len(out),
		Average: &average,
		Maximum: &maximum,
		Message: fmt.Sprintf("Successfully calculated total from %d cost entries", len(out)),
		Values:  out,
	}
}

// SummarizeCells coerces raw cells and aggregates what converts.
func SummarizeCells(cells []string) domain.CostSummary {
	return Summarize(CoerceAll(cells))
}

// SummarizeTable resolves the cost column (or uses column when given) and
// summarizes it. When no column can be resolved it returns an empty summary
// tagged column_not_found together with ErrColumnNotFound so callers can
// offer a manual choice.
func SummarizeTable(t domain.Table, column string) (domain.CostSummary, domain.ColumnMatch, error) {
	var (
		match domain.ColumnMatch
		err   error
	)
	if column != "" {
		match, err = SelectColumn(t, column)
	} else {
		match, err = ResolveCostColumn(t)
	}

	if err != nil {
		summary := Summarize(nil)
		summary.ErrorCode = domain.CodeColumnNotFound
		summary.Message = "no column labeled \"cost\" and no numeric column found"
		if errors.Is(err, ErrUnknownColumn) {
			summary.Message = err.Error()
		}
		return summary, match, err
	}

	summary := SummarizeCells(t.Column(match.Index))
	summary.Column = match.Header
	return summary, match, nil
}
