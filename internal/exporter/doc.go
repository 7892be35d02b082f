// Package exporter renders a finished run as CSV, XLSX or PDF.
//
// Every format carries the same content: the summary figures followed by
// the individual values that were summed.
//
//	var buf bytes.Buffer
//	err := exporter.Export(&buf, run, exporter.FormatXLSX)
package exporter
