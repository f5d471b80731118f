// Package main provides the pdftext command-line tool. It runs the same
// extraction, search and export operations as the server against a PDF on
// local disk.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Shimizu-Technology/pdf-text-tools/internal/app"
	"github.com/Shimizu-Technology/pdf-text-tools/internal/config"
	"github.com/Shimizu-Technology/pdf-text-tools/internal/logging"
	"github.com/Shimizu-Technology/pdf-text-tools/internal/models"
	"github.com/Shimizu-Technology/pdf-text-tools/internal/services/export"
	"github.com/Shimizu-Technology/pdf-text-tools/internal/services/extract"
	"github.com/Shimizu-Technology/pdf-text-tools/internal/services/ocr"
	"github.com/Shimizu-Technology/pdf-text-tools/internal/services/pdf"
	"github.com/Shimizu-Technology/pdf-text-tools/internal/services/raster"
	"github.com/Shimizu-Technology/pdf-text-tools/internal/services/search"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var (
	// Global flags
	cfgFile    string
	languages  []string
	dpi        int
	exportDir  string
	formatFlag string
	logLevel   string
	timeout    time.Duration
	outputJSON bool
	noColor    bool

	cfg    *config.Config
	logger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "pdftext",
	Short: "Extract and search the text of PDF files, with OCR for scanned pages",
	Long: `pdftext reads the text layer of a PDF and falls back to Tesseract OCR for
pages that have none. It can also OCR the images embedded in a page, search
a document, and export any result as TXT, DOCX or PDF.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfgFile != "" {
			if err := os.Setenv("PDFTEXT_CONFIG", cfgFile); err != nil {
				return err
			}
		}

		// The CLI is quieter than the server unless configured otherwise.
		defaults := config.Defaults()
		defaults.LogLevel = "warn"

		var err error
		cfg, err = config.LoadFrom(defaults)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		applyFlags(cmd, cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}

		logger = logging.New(logging.Options{
			Level:   cfg.LogLevel,
			Format:  "console",
			Output:  os.Stderr,
			Service: "pdftext-cli",
		})
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "YAML config file (default: env vars only)")
	rootCmd.PersistentFlags().StringSliceVarP(&languages, "lang", "l", nil, "Tesseract languages, e.g. eng,deu")
	rootCmd.PersistentFlags().IntVar(&dpi, "dpi", 0, "resolution for rendering pages that have no text layer")
	rootCmd.PersistentFlags().StringVar(&exportDir, "export-dir", "", "directory export files are written to")
	rootCmd.PersistentFlags().StringVarP(&formatFlag, "export", "e", "", "also export the result: txt, docx or pdf")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Minute, "give up after this long")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "print the response as JSON")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// applyFlags lets explicitly set flags win over file and environment values.
func applyFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("lang") {
		c.OCRLanguages = languages
	}
	if flags.Changed("dpi") {
		c.RasterDPI = dpi
	}
	if flags.Changed("export-dir") {
		c.ExportDir = exportDir
	}
	if flags.Changed("log-level") {
		c.LogLevel = logLevel
	}
}

// newApp wires the services the same way the server does.
func newApp() *app.App {
	engine := ocr.NewTesseract(cfg.OCRLanguages...)
	logger.Debug().Str("engine", engine.Name()).Str("version", engine.Version()).Msg("OCR engine ready")

	orchestrator := extract.New(
		extract.OpenPDF,
		pdf.NewImageSource(),
		raster.NewFitz(),
		engine,
		extract.Options{DPI: float64(cfg.RasterDPI)},
		logger,
	)
	return app.New(orchestrator, search.New(orchestrator, logger), export.New(cfg.ExportDir, logger), logger)
}

// execute runs one operation and prints its outcome.
func execute(req models.Request) error {
	format, ok := models.ParseFormat(formatFlag)
	if !ok {
		return fmt.Errorf("unsupported export format %q (use txt, docx or pdf)", formatFlag)
	}
	req.Format = format

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	resp := newApp().Handle(ctx, req)

	ui := NewUI(os.Stdout, noColor, outputJSON)
	if err := ui.Response(resp, cfg.ExportDir); err != nil {
		return err
	}
	if resp.Result.Status == models.StatusError {
		return errOperationFailed
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if err != errOperationFailed {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
