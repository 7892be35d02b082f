package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"costsheet/internal/app"
	"costsheet/internal/config"
	"costsheet/internal/console"
	"costsheet/internal/exporter"
	"costsheet/internal/files"
	"costsheet/internal/infrastructure"
	"costsheet/internal/operations"
	"costsheet/internal/scraper"
	"costsheet/internal/services"
	"costsheet/internal/validation"
	"costsheet/pkg/contracts"
	"costsheet/pkg/contracts/domain"
)

// errSummaryFailed marks a run whose failure has already been printed.
var errSummaryFailed = errors.New("summary failed")

// sourceFactory builds the live sources available to extract.
type sourceFactory func(ctx context.Context, cfg *config.Config, logger *slog.Logger) []operations.Source

func chromeSources(ctx context.Context, cfg *config.Config, logger *slog.Logger) []operations.Source {
	return app.BuildSources(ctx, cfg, scraper.NewChromeBrowser(cfg.Browser), nil, logger)
}

// CLI is the costsheet command tree.
type CLI struct {
	rootCmd *cobra.Command
	out     io.Writer
	errOut  io.Writer
	sources sourceFactory

	configFile string
	verbose    bool
	noColor    bool
}

func newCLI(out, errOut io.Writer) *CLI {
	c := &CLI{out: out, errOut: errOut, sources: chromeSources}

	root := &cobra.Command{
		Use:           "costsheet",
		Short:         "Total the cost column of a Google Sheet",
		Version:       contracts.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if c.noColor {
				console.DisableColor()
			}
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.SetVersionTemplate(`{{printf "costsheet version %s\n" .Version}}`)

	root.PersistentFlags().StringVarP(&c.configFile, "config", "c", "", "Path to a YAML configuration file")
	root.PersistentFlags().BoolVar(&c.verbose, "verbose", false, "Log debug output to stderr")
	root.PersistentFlags().BoolVar(&c.noColor, "no-color", false, "Disable colored output")

	root.AddCommand(
		c.serveCmd(),
		c.extractCmd(),
		c.summarizeCmd(),
		c.exportCmd(),
		c.versionCmd(),
	)
	c.rootCmd = root
	return c
}

// Execute runs the command tree against os.Args.
func (c *CLI) Execute() error {
	return c.rootCmd.Execute()
}

func (c *CLI) loadConfig() (*config.Config, error) {
	if c.configFile != "" {
		return config.LoadWithFile(c.configFile)
	}
	return config.Load()
}

// cliLogger keeps structured logs on stderr, away from command output.
func (c *CLI) cliLogger() *slog.Logger {
	level := "warn"
	if c.verbose {
		level = "debug"
	}
	return infrastructure.WithComponent(infrastructure.NewLogger(c.errOut, level), "cli")
}

func (c *CLI) serveCmd() *cobra.Command {
	var (
		port int
		open bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			defer infrastructure.CloseLogFile()

			application, err := app.NewApplication(cfg, nil)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}

			console.New(c.out).Info("Dashboard available at %s", application.DashboardURL())
			if open {
				go func() {
					if err := app.OpenBrowser(cmd.Context(), application.DashboardURL()); err != nil {
						application.Logger.Warn("Could not open browser", slog.String("error", err.Error()))
					}
				}()
			}
			return application.Run(cmd.Context())
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "Port to listen on")
	cmd.Flags().BoolVar(&open, "open", false, "Open the dashboard in the default browser")
	return cmd
}

func (c *CLI) extractCmd() *cobra.Command {
	var (
		url      string
		headless bool
		source   string
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Read the cost column from the live sheet",
		Long: `Opens the configured Google Sheet and totals its cost column.

The browser source reuses the Chrome profile in COSTSHEET_BROWSER_PROFILE_DIR,
which must already be signed in to Google. The api source reads the sheet
through the Sheets API with COSTSHEET_SHEET_API_KEY or a credentials file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if url != "" {
				cfg.Sheet.URL = url
			}
			if cmd.Flags().Changed("headless") {
				cfg.Browser.Headless = headless
			}
			if !cfg.SheetConfigured() {
				return errors.New("no sheet link configured; pass --url or save one from the dashboard")
			}

			ctx, stop := signal.NotifyContext(infrastructure.EnsureTraceID(cmd.Context()), os.Interrupt, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithTimeout(ctx, cfg.Runs.Timeout)
			defer cancel()

			src, err := pickSource(c.sources(ctx, cfg, c.cliLogger()), domain.SourceKind(source))
			if err != nil {
				return err
			}

			if asJSON {
				summary := src.Run(ctx, cfg.Sheet.URL, scraper.NopReporter{})
				return c.finish(writeJSON(c.out, summary), summary)
			}

			con := console.New(c.out)
			reporter := con.NewStepReporter("Extracting cost column")
			summary := src.Run(ctx, cfg.Sheet.URL, reporter)
			reporter.Stop(summary.OK(), summary.Message)
			con.PrintSummary(summary)
			return c.finish(nil, summary)
		},
	}
	cmd.Flags().StringVarP(&url, "url", "u", "", "Google Sheet link (overrides the configured one)")
	cmd.Flags().BoolVar(&headless, "headless", false, "Run Chrome without a window")
	cmd.Flags().StringVarP(&source, "source", "s", string(domain.SourceBrowser), "Source to read from: browser or api")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the summary as JSON")
	return cmd
}

func pickSource(sources []operations.Source, kind domain.SourceKind) (operations.Source, error) {
	var available []string
	for _, src := range sources {
		if src.Kind() == kind {
			return src, nil
		}
		available = append(available, string(src.Kind()))
	}
	return nil, fmt.Errorf("source %q is not available (available: %s)", kind, strings.Join(available, ", "))
}

// resolveInput picks the newest accepted export when path is a directory.
func resolveInput(cfg *config.Config, path string) (string, error) {
	return files.NewDiscovery("", cfg.Upload.AllowedExtensions...).ResolveInput(path)
}

// summaryService builds a SummaryService that records nothing.
func (c *CLI) summaryService(cfg *config.Config) *services.SummaryService {
	logger := c.cliLogger()
	fv := validation.NewFileValidator(cfg.Upload.MaxBytes, cfg.Upload.AllowedExtensions, logger)
	return services.NewSummaryService(fv, nil, nil, logger)
}

func (c *CLI) summarizeCmd() *cobra.Command {
	var (
		column string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "summarize FILE|DIR",
		Short: "Total the cost column of a CSV, TSV or XLSX file",
		Long: `Totals the cost column of a spreadsheet export. Given a directory,
the most recently modified export in it is used.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}

			path, err := resolveInput(cfg, args[0])
			if err != nil {
				return err
			}
			result, err := c.summaryService(cfg).SummarizeFile(cmd.Context(), path, column)
			if err != nil {
				return err
			}

			if asJSON {
				return c.finish(writeJSON(c.out, result), *result.Summary)
			}
			con := console.New(c.out)
			con.PrintSummary(*result.Summary)
			con.PrintColumns(result.Columns, result.NumericColumns)
			return c.finish(nil, *result.Summary)
		},
	}
	cmd.Flags().StringVar(&column, "column", "", "Header of the column to total")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	return cmd
}

func (c *CLI) exportCmd() *cobra.Command {
	var (
		format string
		out    string
		column string
	)
	cmd := &cobra.Command{
		Use:   "export FILE|DIR",
		Short: "Summarize a file and write the report as CSV, XLSX or PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := exporter.ParseFormat(format)
			if err != nil {
				return err
			}
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}

			path, err := resolveInput(cfg, args[0])
			if err != nil {
				return err
			}
			result, err := c.summaryService(cfg).SummarizeFile(cmd.Context(), path, column)
			if err != nil {
				return err
			}

			if out == "" {
				out = f.FileName(result.Run)
			}
			if err := writeReport(out, result.Run, f); err != nil {
				return err
			}

			console.New(c.out).Success("Wrote %s report to %s (total %s)",
				strings.ToUpper(string(f)), out, console.Money(result.Summary.Total))
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(exporter.FormatCSV), "Report format: csv, xlsx or pdf")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output path (default: a name derived from the run)")
	cmd.Flags().StringVar(&column, "column", "", "Header of the column to total")
	return cmd
}

func writeReport(path string, run domain.Run, f exporter.Format) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := file.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()
	return exporter.Export(file, run, f)
}

func (c *CLI) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(c.out, contracts.GetFullVersionString())
		},
	}
}

// finish turns an error summary into errSummaryFailed so the process
// exits non-zero without printing the failure twice.
func (c *CLI) finish(err error, summary domain.CostSummary) error {
	if err != nil {
		return err
	}
	if summary.Status == domain.StatusError {
		return errSummaryFailed
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
