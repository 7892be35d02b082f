// Package validation checks spreadsheet files before they are parsed.
package validation

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	apierrors "costsheet/internal/errors"
)

// FileValidator enforces the upload size limit and allowed extensions.
type FileValidator struct {
	maxBytes   int64
	extensions map[string]bool
	logger     *slog.Logger
}

// NewFileValidator creates a new file validator. Extensions are matched
// case-insensitively and may be given with or without the leading dot.
func NewFileValidator(maxBytes int64, extensions []string, logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	allowed := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		allowed[ext] = true
	}
	return &FileValidator{
		maxBytes:   maxBytes,
		extensions: allowed,
		logger:     logger,
	}
}

// MaxBytes is the configured size limit.
func (v *FileValidator) MaxBytes() int64 {
	return v.maxBytes
}

// ValidateUpload checks a file by name and size. A negative size means
// unknown and skips the size check.
func (v *FileValidator) ValidateUpload(name string, size int64) error {
	base := filepath.Base(name)
	if name == "" || base == "." || base == string(filepath.Separator) {
		return apierrors.NewWithDetails(http.StatusBadRequest, apierrors.CodeMissingFile, "No file was uploaded", nil)
	}

	if strings.HasPrefix(base, "~$") {
		v.logger.Warn("rejected temporary office file", slog.String("file", base))
		return apierrors.NewWithDetails(http.StatusUnsupportedMediaType, apierrors.CodeUnsupportedFile,
			"Temporary Office lock files cannot be summarized", map[string]interface{}{"file": base})
	}

	ext := strings.ToLower(filepath.Ext(base))
	if !v.extensions[ext] {
		v.logger.Warn("rejected unsupported file type",
			slog.String("file", base),
			slog.String("extension", ext))
		return apierrors.NewWithDetails(http.StatusUnsupportedMediaType, apierrors.CodeUnsupportedFile,
			fmt.Sprintf("Unsupported file type %q", ext), map[string]interface{}{
				"file":      base,
				"supported": v.Supported(),
			})
	}

	if v.maxBytes > 0 && size > v.maxBytes {
		v.logger.Warn("rejected oversized file",
			slog.String("file", base),
			slog.Int64("size", size),
			slog.Int64("max_size", v.maxBytes))
		return apierrors.NewWithDetails(http.StatusRequestEntityTooLarge, apierrors.CodeFileTooLarge,
			"Uploaded file exceeds the size limit", map[string]interface{}{
				"max_size": v.maxBytes,
				"size":     size,
			})
	}

	return nil
}

// ValidateFile checks a local file the same way as an upload. It also
// fails when path does not exist or is a directory.
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("file %s does not exist", path)
	}
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not a file", path)
	}

	v.logger.Debug("file validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return v.ValidateUpload(path, info.Size())
}

// Supported lists the allowed extensions in a stable order.
func (v *FileValidator) Supported() []string {
	out := make([]string, 0, len(v.extensions))
	for _, ext := range []string{".csv", ".tsv", ".xlsx", ".xlsm"} {
		if v.extensions[ext] {
			out = append(out, ext)
		}
	}
	for ext := range v.extensions {
		switch ext {
		case ".csv", ".tsv", ".xlsx", ".xlsm":
		default:
			out = append(out, ext)
		}
	}
	return out
}
