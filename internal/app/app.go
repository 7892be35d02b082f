package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"golang.org/x/sync/errgroup"

	"costsheet/internal/config"
	apierrors "costsheet/internal/errors"
	"costsheet/internal/infrastructure"
	"costsheet/internal/middleware"
	"costsheet/internal/operations"
	"costsheet/internal/scraper"
	"costsheet/internal/services"
	"costsheet/internal/sheetsapi"
	httphandlers "costsheet/internal/transport/http"
	"costsheet/internal/validation"
	ws "costsheet/internal/websocket"
	"costsheet/pkg/contracts"
	"costsheet/pkg/contracts/domain"
)

// Application represents the main application
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics
	WebSocketHub  *ws.Hub
	Runner        *operations.Runner
	Services      *ServiceContainer

	browser      scraper.Browser
	extraSources []operations.Source
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Config     *services.ConfigService
	Extraction *services.ExtractionService
	Summary    *services.SummaryService
	Health     *services.HealthService
}

// Option customizes NewApplication.
type Option func(*Application)

// WithBrowser replaces the Chrome browser used by the live pipeline.
func WithBrowser(b scraper.Browser) Option {
	return func(a *Application) { a.browser = b }
}

// WithSources registers extra sources. A source replaces the configured
// one of the same kind.
func WithSources(sources ...operations.Source) Option {
	return func(a *Application) { a.extraSources = append(a.extraSources, sources...) }
}

// NewApplication creates a new application instance. A nil logger falls
// back to the logger configured by cfg.Logging.
func NewApplication(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Application, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	if logger == nil {
		var err error
		logger, err = infrastructure.InitializeLogger(cfg.Logging)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
	}

	app := &Application{
		Config: cfg,
		Logger: logger,
	}
	for _, opt := range opts {
		opt(app)
	}

	if err := app.initializeTelemetry(); err != nil {
		return nil, err
	}

	if err := app.initializeServices(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	if err := app.performStartupHealthCheck(context.Background()); err != nil {
		app.Logger.Warn("Startup health check reported issues", slog.String("error", err.Error()))
	}

	return app, nil
}

func (a *Application) initializeTelemetry() error {
	otelCfg := infrastructure.DefaultOTelConfig()
	if a.Config.Telemetry.ServiceName != "" {
		otelCfg.ServiceName = a.Config.Telemetry.ServiceName
	}
	otelCfg.EnableMetrics = a.Config.Telemetry.EnableMetrics
	otelCfg.EnableTracing = a.Config.Telemetry.EnableTracing

	providers, err := infrastructure.InitializeOTel(otelCfg, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	a.OTelProviders = providers

	metrics, err := infrastructure.CreateBusinessMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("failed to create business metrics: %w", err)
	}
	a.Metrics = metrics
	return nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices(ctx context.Context) error {
	a.WebSocketHub = ws.NewHub(a.Logger)
	a.WebSocketHub.Start()

	browser := a.browser
	if browser == nil {
		browser = scraper.NewChromeBrowser(a.Config.Browser)
	}
	sources := BuildSources(ctx, a.Config, browser, a.Metrics, a.Logger)
	sources = append(sources, a.extraSources...)

	a.Runner = operations.NewRunner(
		operations.NewMemoryRunStore(a.Config.Runs.HistoryLimit),
		ws.NewRunPublisher(a.WebSocketHub),
		a.Metrics,
		a.Logger,
		operations.RunnerConfig{Timeout: a.Config.Runs.Timeout},
		sources...,
	)

	configSvc := services.NewConfigService(a.Config, a.Logger)
	fileValidator := validation.NewFileValidator(a.Config.Upload.MaxBytes, a.Config.Upload.AllowedExtensions, a.Logger)

	a.Services = &ServiceContainer{
		Config:     configSvc,
		Extraction: services.NewExtractionService(a.Runner, configSvc, a.Logger),
		Summary:    services.NewSummaryService(fileValidator, a.Runner, a.Metrics, a.Logger),
		Health:     services.NewHealthService(a.WebSocketHub, a.Runner, configSvc, a.Logger),
	}

	a.Logger.InfoContext(ctx, "Services initialized",
		slog.Int("sources", len(sources)),
		slog.Bool("api_source", a.Runner.HasSource(domain.SourceAPI)))
	return nil
}

// BuildSources returns the browser source and, when credentials are
// configured, the Sheets API source. A Sheets client that cannot be built
// is logged and skipped.
func BuildSources(ctx context.Context, cfg *config.Config, browser scraper.Browser, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) []operations.Source {
	sources := []operations.Source{
		scraper.NewExtractor(browser, cfg.Browser, logger, scraper.WithMetrics(metrics)),
	}

	if !cfg.APISourceConfigured() {
		return sources
	}

	client, err := sheetsapi.NewClient(ctx, cfg.Sheet, logger)
	if err != nil {
		infrastructure.WithError(logger, err).WarnContext(ctx, "Sheets API source disabled")
		return sources
	}
	return append(sources, services.NewAPISource(client, logger))
}

// setupRouter configures all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()
	errHandler := apierrors.NewErrorHandler(a.Logger, a.Config.Logging.Development)
	validator := middleware.NewValidator()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	// WebSocket connections skip the response-wrapping middleware.
	wsHandler := httphandlers.NewWebSocketHandler(a.WebSocketHub, a.Config.WebSocket, a.Config.Security.AllowedOrigins, a.Logger)
	r.Get("/ws", wsHandler.ServeHTTP)

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewOTelMiddleware(a.OTelProviders, a.Metrics).Handler)
		r.Use(middleware.StructuredLogger(a.Logger))
		r.Use(middleware.Recoverer(errHandler))
		r.Use(middleware.SecurityHeaders)
		if a.Config.Security.EnableCORS {
			r.Use(middleware.CORS(a.getCORSConfig()))
		}
		if rl := a.Config.Security.RateLimit; rl.Enabled {
			r.Use(middleware.NewRateLimiter(rl.RPS, rl.Burst, errHandler).Handler)
		}

		r.Route("/api", func(r chi.Router) {
			r.Use(render.SetContentType(render.ContentTypeJSON))
			a.setupAPIRoutes(r, validator, errHandler)
		})

		r.Mount("/metrics", a.OTelProviders.PrometheusHTTP)
		r.Get("/", httphandlers.ServeDashboard(a.Logger))
	})

	r.NotFound(errHandler.NotFound)
	r.MethodNotAllowed(errHandler.MethodNotAllowed)

	a.Router = r
}

// setupAPIRoutes configures API routes
func (a *Application) setupAPIRoutes(r chi.Router, validator *middleware.Validator, errHandler *apierrors.ErrorHandler) {
	healthHandler := httphandlers.NewHealthHandler(a.Services.Health, a.Logger)
	r.Mount("/health", healthHandler.Routes())
	r.Get("/version", healthHandler.Version)

	// Live runs return 202 immediately; only the other routes are bounded.
	extractionHandler := httphandlers.NewExtractionHandler(a.Services.Extraction, validator, errHandler, a.Logger)
	r.Mount("/extractions", extractionHandler.Routes())

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(a.Config.Server.RequestTimeout))

		configHandler := httphandlers.NewConfigHandler(a.Services.Config, validator, errHandler, a.Logger)
		r.Mount("/config", configHandler.Routes())

		summaryHandler := httphandlers.NewSummaryHandler(a.Services.Summary, validator, errHandler, a.Config.Upload.MaxBytes, a.Logger)
		r.Mount("/summaries", summaryHandler.Routes())
	})
}

func (a *Application) getCORSConfig() middleware.CORSConfig {
	origins := a.Config.Security.AllowedOrigins
	if len(origins) == 0 {
		port := a.Config.Server.Port
		origins = []string{
			fmt.Sprintf("http://localhost:%d", port),
			fmt.Sprintf("http://127.0.0.1:%d", port),
		}
	}

	return middleware.CORSConfig{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID", "traceparent"},
		ExposedHeaders: []string{"Location", "Content-Disposition", "X-Request-ID"},
		MaxAge:         300,
	}
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           a.Config.Address(),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Serve accepts connections on ln until Stop is called.
func (a *Application) Serve(ln net.Listener) error {
	a.Logger.Info("Starting HTTP server",
		slog.String("address", ln.Addr().String()),
		slog.String("version", contracts.Version))

	if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Start listens on the configured address and serves until Stop is called.
func (a *Application) Start() error {
	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}
	return a.Serve(ln)
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	logger := infrastructure.WithComponent(a.Logger, "app")
	logger.InfoContext(ctx, "Shutting down server")

	var errs []error
	if err := a.Server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown: %w", err))
	}
	if err := a.Runner.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("runner shutdown: %w", err))
	}
	a.WebSocketHub.Stop()
	if err := a.OTelProviders.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("telemetry shutdown: %w", err))
	}

	if err := errors.Join(errs...); err != nil {
		infrastructure.WithError(logger, err).ErrorContext(ctx, "Shutdown finished with errors")
		return err
	}
	logger.InfoContext(ctx, "Server stopped")
	return nil
}

// Run serves until ctx is cancelled or SIGINT/SIGTERM arrives, then shuts
// down within the configured timeout.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.Serve(ln)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
		defer cancel()
		return a.Stop(shutdownCtx)
	})

	return g.Wait()
}

// DashboardURL is the address a local browser should open.
func (a *Application) DashboardURL() string {
	host := a.Config.Server.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s:%d/", host, a.Config.Server.Port)
}

// performStartupHealthCheck reports configuration that will make live runs fail.
func (a *Application) performStartupHealthCheck(ctx context.Context) error {
	var warnings []string

	if !a.Config.SheetConfigured() {
		a.Logger.InfoContext(ctx, "No sheet link configured; save one from the dashboard")
	}

	if dir := a.Config.Browser.ProfileDir; dir == "" {
		warnings = append(warnings, "browser profile directory not set; live runs will need a manual sign-in")
	} else if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		warnings = append(warnings, fmt.Sprintf("browser profile directory not found: %s", dir))
	}

	if path := a.Config.Browser.ChromePath; path != "" {
		if _, err := os.Stat(path); err != nil {
			warnings = append(warnings, fmt.Sprintf("chrome executable not found: %s", path))
		}
	}

	if envFile := a.Config.EnvFile; envFile != "" {
		dir := filepath.Dir(envFile)
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			warnings = append(warnings, fmt.Sprintf("env file directory not found: %s", dir))
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("startup health check warnings: %s", strings.Join(warnings, "; "))
	}

	a.Logger.InfoContext(ctx, "Startup health check passed")
	return nil
}

// OpenBrowser opens url in the desktop's default browser.
func OpenBrowser(ctx context.Context, url string) error {
	var lastErr error
	for _, method := range browserOpenMethods(url) {
		cmdCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := exec.CommandContext(cmdCtx, method.cmd, method.args...).Start()
		cancel()
		if err == nil {
			slog.InfoContext(ctx, "Browser opened", slog.String("method", method.name), slog.String("url", url))
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("failed to open browser: %w", lastErr)
}

type browserMethod struct {
	name string
	cmd  string
	args []string
}

func browserOpenMethods(url string) []browserMethod {
	switch runtime.GOOS {
	case "windows":
		return []browserMethod{
			{name: "rundll32", cmd: "rundll32", args: []string{"url.dll,FileProtocolHandler", url}},
			{name: "start_command", cmd: "cmd", args: []string{"/c", "start", "", url}},
		}
	case "darwin":
		return []browserMethod{{name: "open", cmd: "open", args: []string{url}}}
	default:
		return []browserMethod{
			{name: "xdg-open", cmd: "xdg-open", args: []string{url}},
			{name: "sensible-browser", cmd: "sensible-browser", args: []string{url}},
		}
	}
}
