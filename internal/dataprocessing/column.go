package dataprocessing

import (
	"errors"
	"fmt"
	"strings"

	"costsheet/pkg/contracts/domain"
)

// CostHeader is the label matched first when resolving the cost column.
const CostHeader = "cost"

var (
	// ErrColumnNotFound means neither a "cost" header nor a numeric column exists.
	ErrColumnNotFound = errors.New("cost column not found")
	// ErrUnknownColumn means an explicitly chosen header is not in the table.
	ErrUnknownColumn = errors.New("unknown column")
)

// ResolveCostColumn picks the column to sum. An exact case-insensitive
// "cost" header wins; otherwise the first uniformly numeric column is used.
// It returns ErrColumnNotFound when neither exists.
func ResolveCostColumn(t domain.Table) (domain.ColumnMatch, error) {
	if idx := t.IndexOf(CostHeader); idx >= 0 {
		return domain.ColumnMatch{Index: idx, Header: t.Headers[idx], Reason: domain.MatchExact}, nil
	}

	for idx, h := range t.Headers {
		if isUniformlyNumeric(t.Column(idx)) {
			return domain.ColumnMatch{Index: idx, Header: h, Reason: domain.MatchNumeric}, nil
		}
	}

	return domain.ColumnMatch{Index: -1}, ErrColumnNotFound
}

// SelectColumn resolves a caller-chosen header.
func SelectColumn(t domain.Table, header string) (domain.ColumnMatch, error) {
	idx := t.IndexOf(header)
	if idx < 0 {
		return domain.ColumnMatch{Index: -1}, fmt.Errorf("%w: %q", ErrUnknownColumn, strings.TrimSpace(header))
	}
	return domain.ColumnMatch{Index: idx, Header: t.Headers[idx], Reason: domain.MatchManual}, nil
}

// NumericColumns lists the headers of every uniformly numeric column, for
// offering a manual choice.
func NumericColumns(t domain.Table) []string {
	var out []string
	for idx, h := range t.Headers {
		if isUniformlyNumeric(t.Column(idx)) {
			out = append(out, h)
		}
	}
	return out
}
