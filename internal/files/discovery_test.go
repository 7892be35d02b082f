package files

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name string, mod time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("Cost\n1\n"), 0o600))
	require.NoError(t, os.Chtimes(path, mod, mod))
	return path
}

func TestFindSpreadsheets(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	writeFile(t, dir, "old.csv", base)
	writeFile(t, dir, "new.XLSX", base.Add(2*time.Hour))
	writeFile(t, dir, "middle.tsv", base.Add(time.Hour))
	writeFile(t, dir, "notes.pdf", base.Add(3*time.Hour))
	writeFile(t, dir, "~$new.xlsx", base.Add(4*time.Hour))
	writeFile(t, dir, ".hidden.csv", base.Add(5*time.Hour))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.csv"), 0o755))

	d := NewDiscovery("", ".csv", ".tsv", ".xlsx")
	found, err := d.FindSpreadsheets(dir)
	require.NoError(t, err)

	names := make([]string, len(found))
	for i, f := range found {
		names[i] = f.Name
	}
	assert.Equal(t, []string{"new.XLSX", "middle.tsv", "old.csv"}, names)
	assert.Equal(t, int64(len("Cost\n1\n")), found[0].Size)
}

func TestFindSpreadsheetsRelativeToBase(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(base, "Downloads"), 0o755))
	writeFile(t, filepath.Join(base, "Downloads"), "sheet.csv", time.Now())

	found, err := NewDiscovery(base, ".csv").FindSpreadsheets("Downloads")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, filepath.Join(base, "Downloads", "sheet.csv"), found[0].Path)
}

func TestFindSpreadsheetsMissingDir(t *testing.T) {
	_, err := NewDiscovery("", ".csv").FindSpreadsheets(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestLatest(t *testing.T) {
	dir := t.TempDir()
	d := NewDiscovery("", ".csv")

	_, err := d.Latest(dir)
	assert.ErrorIs(t, err, ErrNoFiles)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	writeFile(t, dir, "a.csv", base)
	want := writeFile(t, dir, "b.csv", base.Add(time.Minute))

	got, err := d.Latest(dir)
	require.NoError(t, err)
	assert.Equal(t, want, got.Path)
}

func TestResolveInput(t *testing.T) {
	dir := t.TempDir()
	d := NewDiscovery("", ".csv")
	file := writeFile(t, dir, "export.csv", time.Now())

	got, err := d.ResolveInput(file)
	require.NoError(t, err)
	assert.Equal(t, file, got)

	got, err = d.ResolveInput(dir)
	require.NoError(t, err)
	assert.Equal(t, file, got)

	_, err = d.ResolveInput(filepath.Join(dir, "nope.csv"))
	assert.Error(t, err)
}
