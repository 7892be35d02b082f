// Package dataprocessing turns a tabular source into a cost summary.
//
// The flow has three parts:
//
//  1. Parser: reads CSV, TSV and XLSX/XLSM files into a domain.Table
//  2. Column resolution: picks the cost column (exact "cost" header, then
//     the first uniformly numeric column, then an explicit caller choice)
//  3. Summarizer: coerces cells to numbers, dropping the ones that do not
//     convert, and aggregates total, count, average and maximum
//
// Basic usage:
//
//	table, err := dataprocessing.ParseFile("expenses.xlsx")
//	if err != nil {
//	    return err
//	}
//	summary, match, err := dataprocessing.SummarizeTable(table, "")
package dataprocessing
