package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aluiziolira/bookscraper/config"
	"github.com/aluiziolira/bookscraper/models"
)

// Scraper runs the full crawl: categories, then each category's listing,
// detail pages, record file and images, one at a time.
type Scraper struct {
	cfg     *config.Config
	fetcher *Fetcher
	Metrics *Metrics

	categories *CategoryIndexReader
	paginator  *ListingPaginator
	extractor  *BookRecordExtractor
	exporter   *CategoryExporter
}

// NewScraper builds a scraper instance configured from cfg.
func NewScraper(cfg *config.Config) (*Scraper, error) {
	metrics := NewMetrics()
	fetcher, err := NewFetcher(cfg, metrics)
	if err != nil {
		return nil, err
	}

	extractor := NewBookRecordExtractor(fetcher, cfg.SiteRoot(), metrics)
	return &Scraper{
		cfg:        cfg,
		fetcher:    fetcher,
		Metrics:    metrics,
		categories: NewCategoryIndexReader(fetcher, cfg.SiteRoot()),
		paginator:  NewListingPaginator(fetcher, cfg.CatalogueRoot()),
		extractor:  extractor,
		exporter:   NewCategoryExporter(cfg, fetcher, extractor, metrics),
	}, nil
}

// Run crawls every category. The first fetch, structure or write failure
// ends the run; the summary returned alongside covers the categories
// completed before it.
func (s *Scraper) Run(ctx context.Context) (*models.RunSummary, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	summary := &models.RunSummary{
		StartTime:       time.Now(),
		DegradedByField: make(map[string]int),
	}
	finish := func() *models.RunSummary {
		summary.EndTime = time.Now()
		summary.RequestCount = s.fetcher.Requests()
		return summary
	}

	categories, err := s.categories.ListCategories(ctx, s.cfg.IndexURL())
	if err != nil {
		return finish(), fmt.Errorf("list categories: %w", err)
	}

	for i, category := range categories {
		slog.Info("parsing category",
			slog.Int("index", i+1),
			slog.Int("total", len(categories)),
			slog.String("category", category.Name),
		)

		bookURLs, err := s.paginator.ListBookURLs(ctx, category.ListingURL)
		if err != nil {
			return finish(), fmt.Errorf("category %q: %w", category.Name, err)
		}
		slog.Info("books found",
			slog.String("category", category.Name),
			slog.Int("count", len(bookURLs)),
		)

		result, err := s.exporter.Export(ctx, category, bookURLs)
		if err != nil {
			return finish(), fmt.Errorf("category %q: %w", category.Name, err)
		}

		summary.Categories++
		summary.BooksProcessed += len(result.Records)
		summary.ImagesWritten += result.ImagesWritten
		summary.ImageOverwrites += result.ImageOverwrites
		summary.DegradedFields += len(result.Failures)
		for _, failure := range result.Failures {
			summary.DegradedByField[failure.Field]++
		}
		summary.OutputFiles = append(summary.OutputFiles, result.Files...)
	}

	return finish(), nil
}
