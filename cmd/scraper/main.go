package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/aluiziolira/bookscraper/config"
	"github.com/aluiziolira/bookscraper/models"
	"github.com/aluiziolira/bookscraper/scraper"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	defaults, err := configFromEnv(config.DefaultConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid environment: %v\n", err)
		os.Exit(1)
	}

	baseURL := flag.String("base-url", defaults.BaseURL, "Catalog root to crawl")
	csvDir := flag.String("csv-dir", defaults.CSVDir, "Directory for per-category record files")
	imagesDir := flag.String("images-dir", defaults.ImagesDir, "Directory for cover images")
	outputFormat := flag.String("format", defaults.OutputFormat, "Output format: csv, json, or dual")
	skipImages := flag.Bool("skip-images", defaults.SkipImages, "Export records without downloading covers")
	timeout := flag.Duration("timeout", defaults.Timeout, "Per-request timeout")
	userAgent := flag.String("user-agent", defaults.UserAgent, "User-Agent header sent with every request")
	trackerSize := flag.Int("tracker-size", defaults.OverwriteTrackerSize, "Image names remembered for overwrite detection")
	verbose := flag.Bool("v", false, "Enable verbose logging")
	metricsAddr := flag.String("metrics-addr", defaults.MetricsAddr, "Prometheus metrics listen address (e.g. :9090)")

	flag.Parse()

	logger, level := newLogger(*verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	cfg := config.DefaultConfig()
	cfg.BaseURL = *baseURL
	cfg.CSVDir = *csvDir
	cfg.ImagesDir = *imagesDir
	cfg.OutputFormat = strings.ToLower(*outputFormat)
	cfg.SkipImages = *skipImages
	cfg.Timeout = *timeout
	cfg.UserAgent = *userAgent
	cfg.OverwriteTrackerSize = *trackerSize
	cfg.Verbose = *verbose
	cfg.MetricsAddr = *metricsAddr
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	slog.Info("starting scrape",
		slog.String("base_url", cfg.BaseURL),
		slog.String("csv_dir", cfg.CSVDir),
		slog.String("images_dir", cfg.ImagesDir),
		slog.String("format", cfg.OutputFormat),
	)

	s, err := scraper.NewScraper(cfg)
	if err != nil {
		slog.Error("initialising scraper", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received, stopping after the current request")
	}()

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" && s.Metrics != nil {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(s.Metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	summary, runErr := s.Run(ctx)

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	if runErr != nil {
		slog.Error("scraping failed",
			slog.Any("error", runErr),
			slog.Int("categories_completed", summary.Categories),
			slog.Int("books", summary.BooksProcessed),
		)
		os.Exit(1)
	}

	printSummary(summary)
}

// configFromEnv overlays SCRAPER_* variables on cfg. Flags still win.
func configFromEnv(cfg *config.Config) (*config.Config, error) {
	if value, ok := config.EnvString("SCRAPER_BASE_URL"); ok {
		cfg.BaseURL = value
	}
	if value, ok := config.EnvString("SCRAPER_CSV_DIR"); ok {
		cfg.CSVDir = value
	}
	if value, ok := config.EnvString("SCRAPER_IMAGES_DIR"); ok {
		cfg.ImagesDir = value
	}
	if value, ok := config.EnvString("SCRAPER_METRICS_ADDR"); ok {
		cfg.MetricsAddr = value
	}
	if value, ok, err := config.EnvDuration("SCRAPER_TIMEOUT"); err != nil {
		return nil, err
	} else if ok {
		cfg.Timeout = value
	}
	if value, ok, err := config.EnvInt("SCRAPER_TRACKER_SIZE"); err != nil {
		return nil, err
	} else if ok {
		cfg.OverwriteTrackerSize = value
	}
	return cfg, nil
}

func printSummary(summary *models.RunSummary) {
	duration := summary.EndTime.Sub(summary.StartTime)
	booksPerSec := 0.0
	if duration.Seconds() > 0 {
		booksPerSec = float64(summary.BooksProcessed) / duration.Seconds()
	}

	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Scrape complete")
	fmt.Printf("  Categories:    %d\n", summary.Categories)
	fmt.Printf("  Books:         %d\n", summary.BooksProcessed)
	fmt.Printf("  Images:        %d\n", summary.ImagesWritten)
	if summary.ImageOverwrites > 0 {
		fmt.Printf("  Overwrites:    %d\n", summary.ImageOverwrites)
	}
	fmt.Printf("  Requests:      %d\n", summary.RequestCount)
	fmt.Printf("  Degraded:      %d\n", summary.DegradedFields)
	if len(summary.DegradedByField) > 0 {
		fields := make([]string, 0, len(summary.DegradedByField))
		for field := range summary.DegradedByField {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		for _, field := range fields {
			fmt.Printf("    %-22s %d\n", field+":", summary.DegradedByField[field])
		}
	}
	fmt.Printf("  Duration:      %v\n", duration)
	fmt.Printf("  Books/sec:     %.2f\n", booksPerSec)
	fmt.Printf("  Output files:  %d\n", len(summary.OutputFiles))
	fmt.Println(separator)
	fmt.Printf("Scraping completed. Total: %d books scraped.\n", summary.BooksProcessed)
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
