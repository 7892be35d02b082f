package http

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gorilla/websocket"

	"costsheet/internal/config"
	"costsheet/internal/middleware"
	ws "costsheet/internal/websocket"
)

// WebSocketHandler upgrades /ws requests and attaches them to the hub.
type WebSocketHandler struct {
	hub      *ws.Hub
	cfg      config.WebSocketConfig
	origins  map[string]bool
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewWebSocketHandler creates a WebSocketHandler. Requests without an Origin
// header and same-host origins are always accepted.
func NewWebSocketHandler(hub *ws.Hub, cfg config.WebSocketConfig, allowedOrigins []string, logger *slog.Logger) *WebSocketHandler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &WebSocketHandler{
		hub:     hub,
		cfg:     cfg,
		origins: make(map[string]bool, len(allowedOrigins)),
		logger:  logger.With(slog.String("handler", "websocket")),
	}
	for _, o := range allowedOrigins {
		h.origins[o] = true
	}

	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin:     h.checkOrigin,
		Error: func(w http.ResponseWriter, r *http.Request, status int, reason error) {
			h.logger.WarnContext(r.Context(), "WebSocket upgrade error",
				slog.Int("status", status),
				slog.String("reason", reason.Error()),
				slog.String("origin", r.Header.Get("Origin")))
			http.Error(w, http.StatusText(status), status)
		},
	}
	return h
}

// ServeHTTP handles GET /ws
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already replied.
		return
	}

	traceID := middleware.GetRequestID(r.Context())
	h.logger.InfoContext(r.Context(), "WebSocket client connected",
		slog.String("remote_addr", middleware.GetRealIP(r)))
	ws.ServeWS(h.hub, conn, h.cfg, traceID)
}

func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || h.origins["*"] || h.origins[origin] {
		return true
	}
	if u, err := url.Parse(origin); err == nil && u.Host == r.Host {
		return true
	}

	h.logger.WarnContext(r.Context(), "WebSocket origin check - origin not allowed",
		slog.String("origin", origin))
	return false
}
