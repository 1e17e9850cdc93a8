package scraper

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/aluiziolira/bookscraper/models"
	"github.com/jarcoal/httpmock"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestScraper_Integration(t *testing.T) {
	cfg := newTestConfig(t)

	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", testBaseURL, htmlResponder(buildIndexPage(
		sidebarEntry{name: "Travel", href: "catalogue/category/books/travel_2/index.html"},
		sidebarEntry{name: "Historical Fiction", href: "catalogue/category/books/historical-fiction_4/index.html"},
	)))

	urls := registerBooks(transport, 3, func(i int, d *detailFixture) {
		if i == 3 {
			d.noDescription = true
		}
	})
	transport.RegisterResponder("GET", testListingURL,
		htmlResponder(buildListingPage("page-2.html", "book-1_1", "book-2_2")))
	transport.RegisterResponder("GET", "http://example.test/catalogue/category/books/travel_2/page-2.html",
		htmlResponder(buildListingPage("", "book-3_3")))
	transport.RegisterResponder("GET", "http://example.test/catalogue/category/books/historical-fiction_4/index.html",
		htmlResponder(buildListingPage("")))

	s, err := NewScraper(cfg)
	if err != nil {
		t.Fatalf("new scraper: %v", err)
	}
	s.fetcher.collector.WithTransport(transport)

	summary, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if summary.Categories != 2 {
		t.Fatalf("categories = %d, want 2", summary.Categories)
	}
	if summary.BooksProcessed != 3 {
		t.Fatalf("books = %d, want 3", summary.BooksProcessed)
	}
	if summary.ImagesWritten != 3 {
		t.Fatalf("images = %d, want 3", summary.ImagesWritten)
	}
	if summary.DegradedFields != 1 || summary.DegradedByField[models.FieldProductDescription] != 1 {
		t.Fatalf("degraded = %d %v", summary.DegradedFields, summary.DegradedByField)
	}
	// index + 3 listing pages + 3 details + 3 images
	if summary.RequestCount != 10 {
		t.Fatalf("requests = %d, want 10", summary.RequestCount)
	}
	if summary.EndTime.Before(summary.StartTime) {
		t.Fatalf("end %v before start %v", summary.EndTime, summary.StartTime)
	}

	travelRows := readCSV(t, filepath.Join(cfg.CSVDir, "travel.csv"))
	if len(travelRows) != 4 {
		t.Fatalf("travel rows = %d, want 4", len(travelRows))
	}
	for i, row := range travelRows[1:] {
		if row[0] != urls[i] {
			t.Fatalf("row %d url = %q, want %q", i, row[0], urls[i])
		}
	}
	if got := travelRows[3][6]; got != models.Placeholder {
		t.Fatalf("description = %q, want placeholder", got)
	}

	fictionRows := readCSV(t, filepath.Join(cfg.CSVDir, "historical_fiction.csv"))
	if len(fictionRows) != 1 {
		t.Fatalf("historical fiction rows = %d, want header only", len(fictionRows))
	}

	for i := 1; i <= 3; i++ {
		if _, err := os.Stat(filepath.Join(cfg.ImagesDir, fmt.Sprintf("upc%04d.jpg", i))); err != nil {
			t.Fatalf("image %d: %v", i, err)
		}
	}
	if len(summary.OutputFiles) != 2 {
		t.Fatalf("output files = %v", summary.OutputFiles)
	}

	if got := testutil.ToFloat64(s.Metrics.RequestsTotal.WithLabelValues(PhaseListing)); got != 3 {
		t.Fatalf("listing requests metric = %v, want 3", got)
	}
	if got := testutil.ToFloat64(s.Metrics.CategoriesExported); got != 2 {
		t.Fatalf("categories metric = %v, want 2", got)
	}
}

func TestScraperStopsAtFirstFailure(t *testing.T) {
	cfg := newTestConfig(t)

	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", testBaseURL, htmlResponder(buildIndexPage(
		sidebarEntry{name: "Travel", href: "catalogue/category/books/travel_2/index.html"},
		sidebarEntry{name: "Mystery", href: "catalogue/category/books/mystery_3/index.html"},
	)))
	transport.RegisterResponder("GET", testListingURL, httpmock.NewStringResponder(404, ""))

	s, err := NewScraper(cfg)
	if err != nil {
		t.Fatalf("new scraper: %v", err)
	}
	s.fetcher.collector.WithTransport(transport)

	summary, err := s.Run(context.Background())
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("error = %v, want *FetchError", err)
	}
	if fetchErr.URL != testListingURL {
		t.Fatalf("failed url = %q, want %q", fetchErr.URL, testListingURL)
	}
	if summary == nil || summary.Categories != 0 {
		t.Fatalf("summary = %+v, want zero completed categories", summary)
	}
	if calls := transport.GetCallCountInfo()["GET http://example.test/catalogue/category/books/mystery_3/index.html"]; calls != 0 {
		t.Fatalf("mystery requested %d times after failure", calls)
	}
	if _, err := os.Stat(filepath.Join(cfg.CSVDir, "travel.csv")); !os.IsNotExist(err) {
		t.Fatalf("travel.csv should not exist, stat err = %v", err)
	}
}

func TestScraperMissingSidebar(t *testing.T) {
	cfg := newTestConfig(t)

	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", testBaseURL, htmlResponder("<html><body></body></html>"))

	s, err := NewScraper(cfg)
	if err != nil {
		t.Fatalf("new scraper: %v", err)
	}
	s.fetcher.collector.WithTransport(transport)

	_, err = s.Run(context.Background())
	var structErr *StructureError
	if !errors.As(err, &structErr) {
		t.Fatalf("error = %v, want *StructureError", err)
	}
}

func TestScraperCancelled(t *testing.T) {
	cfg := newTestConfig(t)
	transport := httpmock.NewMockTransport()

	s, err := NewScraper(cfg)
	if err != nil {
		t.Fatalf("new scraper: %v", err)
	}
	s.fetcher.collector.WithTransport(transport)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if got := transport.GetTotalCallCount(); got != 0 {
		t.Fatalf("calls = %d, want 0", got)
	}
}
