package scraper

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aluiziolira/bookscraper/config"
	"github.com/aluiziolira/bookscraper/export"
	"github.com/aluiziolira/bookscraper/models"
)

// ExportResult summarises one category export.
type ExportResult struct {
	Category        models.Category
	Records         []*models.BookRecord
	Failures        []FieldFailure
	Files           []string
	ImagesWritten   int
	ImageOverwrites int
}

// CategoryExporter extracts every book of a category and writes the
// record file and cover images.
type CategoryExporter struct {
	cfg       *config.Config
	fetcher   PageFetcher
	extractor *BookRecordExtractor
	metrics   *Metrics

	images *export.ImageStore
}

// NewCategoryExporter wires the exporter to its collaborators.
func NewCategoryExporter(cfg *config.Config, fetcher PageFetcher, extractor *BookRecordExtractor, metrics *Metrics) *CategoryExporter {
	return &CategoryExporter{
		cfg:       cfg,
		fetcher:   fetcher,
		extractor: extractor,
		metrics:   metrics,
	}
}

// Export processes bookURLs in order. Extraction, writing and image
// downloads are not retried; the first fetch or write failure is returned.
func (x *CategoryExporter) Export(ctx context.Context, category models.Category, bookURLs []string) (*ExportResult, error) {
	result := &ExportResult{Category: category}

	for _, bookURL := range bookURLs {
		extraction, err := x.extractor.Extract(ctx, bookURL)
		if err != nil {
			return nil, err
		}
		result.Records = append(result.Records, extraction.Record)
		result.Failures = append(result.Failures, extraction.Failures...)
	}
	slog.Info("books parsed",
		slog.String("category", category.Name),
		slog.Int("count", len(result.Records)),
	)

	files, err := x.writeRecords(category, result.Records)
	if err != nil {
		return nil, err
	}
	result.Files = files
	slog.Info("data exported",
		slog.String("category", category.Name),
		slog.Any("files", files),
	)

	if !x.cfg.SkipImages {
		slog.Info("downloading images", slog.String("category", category.Name))
		if err := x.saveImages(ctx, result); err != nil {
			return nil, err
		}
		slog.Info("images saved",
			slog.String("category", category.Name),
			slog.Int("count", result.ImagesWritten),
			slog.String("dir", x.images.Dir()),
		)
	}

	x.metrics.IncCategories()
	return result, nil
}

func (x *CategoryExporter) writeRecords(category models.Category, records []*models.BookRecord) ([]string, error) {
	if err := export.EnsureDir(x.cfg.CSVDir); err != nil {
		return nil, err
	}

	writer, err := export.NewWriter(x.cfg.OutputFormat, x.cfg.CSVDir, category.Name)
	if err != nil {
		return nil, fmt.Errorf("create writer for %q: %w", category.Name, err)
	}

	if err := writer.Write(records); err != nil {
		writer.Close()
		return nil, fmt.Errorf("write %q: %w", category.Name, err)
	}
	if err := writer.Validate(); err != nil {
		writer.Close()
		return nil, fmt.Errorf("validate %q: %w", category.Name, err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close %q: %w", category.Name, err)
	}
	return writer.Files(), nil
}

func (x *CategoryExporter) saveImages(ctx context.Context, result *ExportResult) error {
	store, err := x.imageStore()
	if err != nil {
		return err
	}

	for _, record := range result.Records {
		data, err := x.fetcher.Fetch(ctx, record.ImageURL, PhaseImage)
		if err != nil {
			return err
		}

		saved, err := store.Save(record.UniversalProductCode, record.ProductPageURL, data)
		if err != nil {
			return err
		}
		result.ImagesWritten++
		x.metrics.IncImages()

		if saved.Overwrote {
			result.ImageOverwrites++
			x.metrics.IncOverwrites()
			slog.Warn("image overwritten",
				slog.String("file", saved.Path),
				slog.String("previous_url", saved.PreviousURL),
				slog.String("url", record.ProductPageURL),
			)
		}
	}
	return nil
}

func (x *CategoryExporter) imageStore() (*export.ImageStore, error) {
	if x.images != nil {
		return x.images, nil
	}
	store, err := export.NewImageStore(x.cfg.ImagesDir, x.cfg.OverwriteTrackerSize)
	if err != nil {
		return nil, err
	}
	x.images = store
	return store, nil
}
