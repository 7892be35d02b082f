package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable read by Load.
const EnvPrefix = "COSTSHEET"

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	WebSocket WebSocketConfig `yaml:"websocket" envconfig:"WEBSOCKET"`
	Sheet     SheetConfig     `yaml:"sheet" envconfig:"SHEET"`
	Browser   BrowserConfig   `yaml:"browser" envconfig:"BROWSER"`
	Upload    UploadConfig    `yaml:"upload" envconfig:"UPLOAD"`
	Runs      RunsConfig      `yaml:"runs" envconfig:"RUNS"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	EnvFile   string          `yaml:"env_file" envconfig:"ENV_FILE"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"HOST"`
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL"`
	Format      string `yaml:"format" envconfig:"FORMAT"`
	Output      string `yaml:"output" envconfig:"OUTPUT"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT"`
}

// SheetConfig describes the Google Sheet to read.
type SheetConfig struct {
	URL             string `yaml:"url" envconfig:"URL"`
	APIKey          string `yaml:"api_key" envconfig:"API_KEY"`
	CredentialsFile string `yaml:"credentials_file" envconfig:"CREDENTIALS_FILE"`
	Range           string `yaml:"range" envconfig:"RANGE"`
}

// BrowserConfig drives the live extraction pipeline. ProfileDir must hold a
// Chrome profile that is already signed in to Google.
type BrowserConfig struct {
	ChromePath        string        `yaml:"chrome_path" envconfig:"CHROME_PATH"`
	ProfileDir        string        `yaml:"profile_dir" envconfig:"PROFILE_DIR"`
	Headless          bool          `yaml:"headless" envconfig:"HEADLESS"`
	NavigationTimeout time.Duration `yaml:"navigation_timeout" envconfig:"NAVIGATION_TIMEOUT"`
	RenderWait        time.Duration `yaml:"render_wait" envconfig:"RENDER_WAIT"`
	HoldOpen          time.Duration `yaml:"hold_open" envconfig:"HOLD_OPEN"`
	WindowWidth       int           `yaml:"window_width" envconfig:"WINDOW_WIDTH"`
	WindowHeight      int           `yaml:"window_height" envconfig:"WINDOW_HEIGHT"`
	// HTMLView opens the read-only htmlview rendering instead of the editor.
	HTMLView bool `yaml:"html_view" envconfig:"HTML_VIEW"`
}

// UploadConfig bounds file uploads.
type UploadConfig struct {
	MaxBytes          int64    `yaml:"max_bytes" envconfig:"MAX_BYTES"`
	AllowedExtensions []string `yaml:"allowed_extensions" envconfig:"ALLOWED_EXTENSIONS"`
}

// RunsConfig bounds the in-memory run history and each live run.
type RunsConfig struct {
	HistoryLimit int           `yaml:"history_limit" envconfig:"HISTORY_LIMIT"`
	Timeout      time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
}

// TelemetryConfig controls OpenTelemetry exporters.
type TelemetryConfig struct {
	ServiceName   string `yaml:"service_name" envconfig:"SERVICE_NAME"`
	EnableMetrics bool   `yaml:"enable_metrics" envconfig:"ENABLE_METRICS"`
	EnableTracing bool   `yaml:"enable_tracing" envconfig:"ENABLE_TRACING"`
}

// Load loads configuration from defaults, the first config file found,
// the .env file and the environment.
func Load() (*Config, error) {
	return LoadWithFile(getConfigFilePath())
}

// LoadWithFile is Load with an explicit YAML file; an empty path skips it.
func LoadWithFile(configFile string) (*Config, error) {
	envFile := os.Getenv(EnvPrefix + "_ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read env file %s: %w", envFile, err)
	}

	cfg := Default()
	cfg.EnvFile = envFile

	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := applyLegacyEnv(cfg); err != nil {
		return nil, err
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays a YAML file onto cfg; keys absent from the file
// keep their current value.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyLegacyEnv honours the unprefixed variable names used by earlier
// releases of the tool.
func applyLegacyEnv(cfg *Config) error {
	if v := os.Getenv("GOOGLE_SHEET_URL"); v != "" {
		cfg.Sheet.URL = v
	}
	if v := os.Getenv("CHROME_PATH"); v != "" {
		cfg.Browser.ChromePath = v
	}
	if v := os.Getenv("HEADLESS"); v != "" {
		headless, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid HEADLESS value %q: %w", v, err)
		}
		cfg.Browser.Headless = headless
	}
	return nil
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Security.EnableCORS && len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified")
	}

	if c.Browser.NavigationTimeout <= 0 {
		return fmt.Errorf("browser navigation timeout must be positive")
	}

	if c.Browser.RenderWait < 0 || c.Browser.HoldOpen < 0 {
		return fmt.Errorf("browser waits must not be negative")
	}

	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("upload size limit must be positive")
	}

	if c.Runs.HistoryLimit <= 0 {
		return fmt.Errorf("run history limit must be positive")
	}

	if c.Runs.Timeout <= 0 {
		return fmt.Errorf("run timeout must be positive")
	}

	if !strings.EqualFold(c.Logging.Format, "text") {
		c.Logging.Format = "json"
	}
	switch strings.ToLower(c.Logging.Output) {
	case "console", "file", "both":
	default:
		c.Logging.Output = "both"
	}
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/costsheet.log"
	}

	return nil
}

// Address returns the listen address of the HTTP server.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// SheetConfigured reports whether a sheet URL is set.
func (c *Config) SheetConfigured() bool {
	return strings.TrimSpace(c.Sheet.URL) != ""
}

// APISourceConfigured reports whether the Sheets API source has credentials.
func (c *Config) APISourceConfigured() bool {
	return c.Sheet.APIKey != "" || c.Sheet.CredentialsFile != ""
}

// HoldOpenFor is how long a visible browser stays open after a run.
// Headless browsers close immediately.
func (b BrowserConfig) HoldOpenFor() time.Duration {
	if b.Headless {
		return 0
	}
	return b.HoldOpen
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    5 * time.Minute,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20,
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  30 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080", "http://127.0.0.1:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     20,
				Burst:   40,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/costsheet.log",
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			PingPeriod:      54 * time.Second,
			PongWait:        60 * time.Second,
		},
		Sheet: SheetConfig{
			Range: "A1:ZZ",
		},
		Browser: BrowserConfig{
			Headless:          false,
			NavigationTimeout: 30 * time.Second,
			RenderWait:        2 * time.Second,
			HoldOpen:          5 * time.Second,
			WindowWidth:       1280,
			WindowHeight:      900,
			HTMLView:          true,
		},
		Upload: UploadConfig{
			MaxBytes:          10 << 20,
			AllowedExtensions: []string{".csv", ".tsv", ".xlsx", ".xlsm"},
		},
		Runs: RunsConfig{
			HistoryLimit: 20,
			Timeout:      3 * time.Minute,
		},
		Telemetry: TelemetryConfig{
			ServiceName:   "costsheet",
			EnableMetrics: true,
		},
		EnvFile: ".env",
	}
}
