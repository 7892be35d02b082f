package services

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"costsheet/internal/config"
	apierrors "costsheet/internal/errors"
	"costsheet/internal/sheetsapi"
)

// ConfigStatus is what the dashboard needs to know about the setup. It
// never carries the API key or credentials path.
type ConfigStatus struct {
	SheetConfigured    bool     `json:"sheet_configured"`
	SheetURL           string   `json:"sheet_url,omitempty"`
	SheetID            string   `json:"sheet_id,omitempty"`
	ProfileConfigured  bool     `json:"profile_configured"`
	ProfileDir         string   `json:"profile_dir,omitempty"`
	ChromePath         string   `json:"chrome_path,omitempty"`
	Headless           bool     `json:"headless"`
	HTMLView           bool     `json:"html_view"`
	APISourceAvailable bool     `json:"api_source_available"`
	UploadMaxBytes     int64    `json:"upload_max_bytes"`
	AllowedExtensions  []string `json:"allowed_extensions"`
	EnvFile            string   `json:"env_file"`
}

// ConfigService guards the live configuration shared by the dashboard and
// the run pipeline.
type ConfigService struct {
	mu     sync.RWMutex
	cfg    *config.Config
	logger *slog.Logger
}

// NewConfigService wraps cfg. Later updates go through SaveSheetURL.
func NewConfigService(cfg *config.Config, logger *slog.Logger) *ConfigService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConfigService{
		cfg:    cfg,
		logger: logger.With(slog.String("service", "config")),
	}
}

// SheetURL returns the configured sheet URL, or "".
func (s *ConfigService) SheetURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return strings.TrimSpace(s.cfg.Sheet.URL)
}

// Status summarizes the current configuration.
func (s *ConfigService) Status() ConfigStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := ConfigStatus{
		SheetConfigured:    s.cfg.SheetConfigured(),
		SheetURL:           strings.TrimSpace(s.cfg.Sheet.URL),
		ProfileConfigured:  s.cfg.Browser.ProfileDir != "",
		ProfileDir:         s.cfg.Browser.ProfileDir,
		ChromePath:         s.cfg.Browser.ChromePath,
		Headless:           s.cfg.Browser.Headless,
		HTMLView:           s.cfg.Browser.HTMLView,
		APISourceAvailable: s.cfg.APISourceConfigured(),
		UploadMaxBytes:     s.cfg.Upload.MaxBytes,
		AllowedExtensions:  append([]string(nil), s.cfg.Upload.AllowedExtensions...),
		EnvFile:            s.cfg.EnvFile,
	}
	if ref, err := sheetsapi.ParseSheetURL(status.SheetURL); err == nil {
		status.SheetID = ref.ID
	}
	return status
}

// SaveSheetURL validates raw, writes it to the env file and makes it the
// live sheet URL.
func (s *ConfigService) SaveSheetURL(ctx context.Context, raw string) (ConfigStatus, error) {
	raw = strings.TrimSpace(raw)
	if _, err := sheetsapi.ParseSheetURL(raw); err != nil {
		return ConfigStatus{}, apierrors.NewAppValidationError(err.Error())
	}

	s.mu.Lock()
	envFile := s.cfg.EnvFile
	if err := config.SaveEnvValue(envFile, config.EnvSheetURL, raw); err != nil {
		s.mu.Unlock()
		s.logger.ErrorContext(ctx, "failed to save sheet URL",
			slog.String("env_file", envFile),
			slog.String("error", err.Error()))
		return ConfigStatus{}, apierrors.NewAppError(apierrors.ErrTypeInternal, "failed to save sheet URL", err)
	}
	s.cfg.Sheet.URL = raw
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "sheet URL updated",
		slog.String("env_file", envFile))
	return s.Status(), nil
}
