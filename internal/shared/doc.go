// Package shared groups helpers that several packages use but that belong
// to no single layer. The testutil subpackage holds log capture and
// spreadsheet fixture builders for tests.
package shared
