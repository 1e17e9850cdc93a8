package scraper

import (
	"context"
	"log/slog"

	"github.com/PuerkitoBio/goquery"
	"github.com/aluiziolira/bookscraper/models"
	"github.com/aluiziolira/bookscraper/parser"
)

const (
	sidebarSelector    = "div.side_categories"
	sidebarLeafEntries = "ul ul li"
)

// CategoryIndexReader enumerates the categories listed in the home page sidebar.
type CategoryIndexReader struct {
	fetcher  PageFetcher
	siteRoot string
}

// NewCategoryIndexReader resolves category links against siteRoot.
func NewCategoryIndexReader(fetcher PageFetcher, siteRoot string) *CategoryIndexReader {
	return &CategoryIndexReader{fetcher: fetcher, siteRoot: siteRoot}
}

// ListCategories returns the sidebar categories in document order.
func (r *CategoryIndexReader) ListCategories(ctx context.Context, indexURL string) ([]models.Category, error) {
	slog.Info("checking book categories", slog.String("url", indexURL))

	body, err := r.fetcher.Fetch(ctx, indexURL, PhaseIndex)
	if err != nil {
		return nil, err
	}
	doc, err := NewDocument(indexURL, body)
	if err != nil {
		return nil, err
	}

	sidebar, err := doc.First(sidebarSelector)
	if err != nil {
		return nil, &StructureError{URL: indexURL, Selector: sidebarSelector}
	}

	var (
		categories []models.Category
		structErr  error
	)
	sidebar.Find(sidebarLeafEntries).EachWithBreak(func(i int, item *goquery.Selection) bool {
		anchor := item.Find("a").First()
		if anchor.Length() == 0 {
			structErr = &StructureError{URL: indexURL, Selector: sidebarLeafEntries + " a", Detail: "entry without link"}
			return false
		}
		name := parser.NormalizeText(anchor.Text())
		href, ok := anchor.Attr("href")
		if name == "" || !ok || href == "" {
			structErr = &StructureError{URL: indexURL, Selector: sidebarLeafEntries + " a", Detail: "entry without name or href"}
			return false
		}
		categories = append(categories, models.Category{
			Name:       name,
			ListingURL: r.siteRoot + "/" + href,
		})
		return true
	})
	if structErr != nil {
		return nil, structErr
	}

	slog.Info("categories found", slog.Int("count", len(categories)))
	return categories, nil
}
