package http

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"costsheet/pkg/contracts"
)

//go:embed web/index.html
var webFS embed.FS

var dashboardTemplate = template.Must(template.ParseFS(webFS, "web/index.html"))

type dashboardData struct {
	Version    string
	APIVersion string
}

// ServeDashboard serves the single-page dashboard.
func ServeDashboard(logger *slog.Logger) http.HandlerFunc {
	data := dashboardData{
		Version:    contracts.Version,
		APIVersion: contracts.APIVersion,
	}
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")

		if err := dashboardTemplate.Execute(w, data); err != nil {
			logger.ErrorContext(r.Context(), "Error rendering dashboard",
				slog.String("error", err.Error()))
			http.Error(w, "Error rendering page", http.StatusInternalServerError)
		}
	}
}
