package validation

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "costsheet/internal/errors"
)

func newValidator() *FileValidator {
	return NewFileValidator(1024, []string{".csv", "xlsx", " .TSV "}, nil)
}

func TestValidateUpload(t *testing.T) {
	v := newValidator()

	tests := []struct {
		name       string
		file       string
		size       int64
		wantStatus int
	}{
		{name: "csv", file: "costs.csv", size: 10},
		{name: "upper case ext", file: "COSTS.XLSX", size: 10},
		{name: "tsv", file: "a.tsv", size: -1},
		{name: "unknown size", file: "a.csv", size: -1},
		{name: "legacy xls", file: "old.xls", size: 10, wantStatus: http.StatusUnsupportedMediaType},
		{name: "lock file", file: "~$costs.xlsx", size: 10, wantStatus: http.StatusUnsupportedMediaType},
		{name: "too large", file: "big.csv", size: 2048, wantStatus: http.StatusRequestEntityTooLarge},
		{name: "missing", file: "", size: 0, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateUpload(tt.file, tt.size)
			if tt.wantStatus == 0 {
				assert.NoError(t, err)
				return
			}
			var apiErr *apierrors.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.wantStatus, apiErr.StatusCode)
		})
	}
}

func TestValidateFile(t *testing.T) {
	v := newValidator()
	dir := t.TempDir()

	good := filepath.Join(dir, "costs.csv")
	require.NoError(t, os.WriteFile(good, []byte("Cost\n1\n"), 0o644))
	assert.NoError(t, v.ValidateFile(good))

	assert.Error(t, v.ValidateFile(filepath.Join(dir, "missing.csv")))
	assert.Error(t, v.ValidateFile(dir))
}

func TestSupported(t *testing.T) {
	assert.Equal(t, []string{".csv", ".tsv", ".xlsx"}, newValidator().Supported())
}
