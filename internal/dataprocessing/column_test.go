package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"costsheet/pkg/contracts/domain"
)

func TestResolveCostColumn(t *testing.T) {
	tests := []struct {
		name       string
		table      domain.Table
		wantHeader string
		wantReason domain.MatchReason
		wantErr    error
	}{
		{
			name: "exact header wins over earlier numeric column",
			table: domain.NewTable("t", [][]string{
				{"Qty", "Item", "COST"},
				{"1", "pen", "2.5"},
			}),
			wantHeader: "COST",
			wantReason: domain.MatchExact,
		},
		{
			name: "header with surrounding whitespace",
			table: domain.NewTable("t", [][]string{
				{"Item", "  Cost  "},
				{"pen", "n/a"},
			}),
			wantHeader: "Cost",
			wantReason: domain.MatchExact,
		},
		{
			name: "cost substring is not an exact match",
			table: domain.NewTable("t", [][]string{
				{"Item", "Total Cost", "Amount"},
				{"pen", "two", "3"},
			}),
			wantHeader: "Amount",
			wantReason: domain.MatchNumeric,
		},
		{
			name: "first uniformly numeric column",
			table: domain.NewTable("t", [][]string{
				{"Item", "Mixed", "Price", "Qty"},
				{"pen", "1", "2.5", "4"},
				{"ink", "x", "", "1"},
			}),
			wantHeader: "Price",
			wantReason: domain.MatchNumeric,
		},
		{
			name: "nothing numeric",
			table: domain.NewTable("t", [][]string{
				{"Item", "Note"},
				{"pen", "blue"},
			}),
			wantErr: ErrColumnNotFound,
		},
		{
			name:    "header only",
			table:   domain.NewTable("t", [][]string{{"Item", "Amount"}}),
			wantErr: ErrColumnNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveCostColumn(tt.table)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, -1, got.Index)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHeader, got.Header)
			assert.Equal(t, tt.wantReason, got.Reason)
		})
	}
}

func TestResolveCostColumnIsIdempotent(t *testing.T) {
	table := domain.NewTable("t", [][]string{
		{"Item", "Amount", "Cost"},
		{"pen", "3", "4"},
	})

	first, err := ResolveCostColumn(table)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := ResolveCostColumn(table)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestSelectColumn(t *testing.T) {
	table := domain.NewTable("t", [][]string{{"Item", "Amount"}, {"pen", "3"}})

	got, err := SelectColumn(table, "amount")
	require.NoError(t, err)
	assert.Equal(t, domain.ColumnMatch{Index: 1, Header: "Amount", Reason: domain.MatchManual}, got)

	_, err = SelectColumn(table, "Price")
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestNumericColumns(t *testing.T) {
	table := domain.NewTable("t", [][]string{
		{"Item", "Amount", "Tax"},
		{"pen", "3", "0.2"},
	})
	assert.Equal(t, []string{"Amount", "Tax"}, NumericColumns(table))
}
