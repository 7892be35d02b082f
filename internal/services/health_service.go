package services

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"costsheet/pkg/contracts"
	"costsheet/pkg/contracts/domain"
)

// HubStatus is what the health checks need from the websocket hub.
type HubStatus interface {
	Running() bool
	ClientCount() int
}

// RunLister lists recent runs.
type RunLister interface {
	List(limit int) []domain.Run
}

// HealthService provides health check functionality
type HealthService struct {
	hub       HubStatus
	runs      RunLister
	config    *ConfigService
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
}

// NewHealthService creates a new health service. Any dependency may be nil
// and is then reported as not configured.
func NewHealthService(hub HubStatus, runs RunLister, cfg *ConfigService, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("HealthService initialized",
		slog.String("version", contracts.Version))

	return &HealthService{
		hub:       hub,
		runs:      runs,
		config:    cfg,
		startTime: time.Now(),
		logger:    logger.With(slog.String("service", "health")),
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.DebugContext(ctx, "HealthCheck: performing health check",
		slog.String("uptime", time.Since(hs.startTime).String()))

	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   contracts.Version,
	}
}

// ReadinessCheck returns readiness status. A missing sheet URL does not make
// the service unready since uploads still work.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   contracts.Version,
		Services:  make(map[string]interface{}),
	}

	status.Services["websocket"] = hs.checkWebSocketHealth()
	status.Services["runs"] = hs.checkRunsHealth()
	status.Services["sheet"] = hs.checkSheetHealth()

	for _, service := range status.Services {
		if sh, ok := service.(ServiceHealth); ok && sh.Status != "ready" {
			status.Status = "not_ready"
			break
		}
	}
	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   contracts.Version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	info := contracts.GetVersionInfo()
	return map[string]interface{}{
		"version":      info.Version,
		"api_version":  info.APIVersion,
		"build_time":   info.BuildTime,
		"git_commit":   info.GitCommit,
		"go_version":   info.GoVersion,
		"os":           info.OS,
		"arch":         info.Architecture,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}
}

func (hs *HealthService) checkWebSocketHealth() ServiceHealth {
	if hs.hub == nil {
		return ServiceHealth{Status: "not_configured", Message: "websocket hub not initialized"}
	}
	if !hs.hub.Running() {
		return ServiceHealth{Status: "stopped", Message: "websocket hub is not running"}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("%d clients connected", hs.hub.ClientCount()),
		Uptime:  time.Since(hs.startTime).Round(time.Second).String(),
	}
}

func (hs *HealthService) checkRunsHealth() ServiceHealth {
	if hs.runs == nil {
		return ServiceHealth{Status: "not_configured", Message: "run manager not initialized"}
	}
	active := 0
	for _, run := range hs.runs.List(0) {
		if !run.Status.IsTerminal() {
			active++
		}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("%d active runs", active),
	}
}

func (hs *HealthService) checkSheetHealth() ServiceHealth {
	if hs.config == nil {
		return ServiceHealth{Status: "ready", Message: "no configuration service"}
	}
	if hs.config.SheetURL() == "" {
		return ServiceHealth{Status: "ready", Message: "no sheet URL configured; uploads only"}
	}
	return ServiceHealth{Status: "ready", Message: "sheet URL configured"}
}
