package scraper

import (
	"context"
	"log/slog"

	"github.com/PuerkitoBio/goquery"
	"github.com/aluiziolira/bookscraper/parser"
)

const (
	gridSelector     = "ol"
	gridItemSelector = "li"
	nextSelector     = "li.next"
)

// ListingPaginator collects book detail URLs across the listing pages
// of one category.
type ListingPaginator struct {
	fetcher       PageFetcher
	catalogueRoot string
}

// NewListingPaginator resolves book links against catalogueRoot.
func NewListingPaginator(fetcher PageFetcher, catalogueRoot string) *ListingPaginator {
	return &ListingPaginator{fetcher: fetcher, catalogueRoot: catalogueRoot}
}

// ListBookURLs walks the "next" chain from firstPageURL and returns every
// book URL, page order then document order. Duplicates are kept. Any
// failed fetch aborts the walk without a partial result.
func (p *ListingPaginator) ListBookURLs(ctx context.Context, firstPageURL string) ([]string, error) {
	var urls []string
	visited := make(map[string]struct{})

	current := firstPageURL
	for {
		if _, seen := visited[current]; seen {
			return nil, &StructureError{URL: current, Selector: nextSelector, Detail: "pagination loops back to a visited page"}
		}
		visited[current] = struct{}{}

		body, err := p.fetcher.Fetch(ctx, current, PhaseListing)
		if err != nil {
			return nil, err
		}
		doc, err := NewDocument(current, body)
		if err != nil {
			return nil, err
		}

		pageURLs, next, err := p.readPage(doc)
		if err != nil {
			return nil, err
		}
		urls = append(urls, pageURLs...)

		slog.Debug("listing page read",
			slog.String("url", current),
			slog.Int("books", len(pageURLs)),
			slog.Bool("has_next", next != ""),
		)

		if next == "" {
			return urls, nil
		}
		current = parser.SwapLastSegment(current, next)
	}
}

// readPage returns the page's book URLs and the bare filename of the next
// page, empty on the last page.
func (p *ListingPaginator) readPage(doc *Document) ([]string, string, error) {
	grid, err := doc.First(gridSelector)
	if err != nil {
		return nil, "", &StructureError{URL: doc.URL(), Selector: gridSelector}
	}

	var (
		urls    []string
		itemErr error
	)
	grid.Find(gridItemSelector).EachWithBreak(func(i int, item *goquery.Selection) bool {
		href, ok := item.Find("a").First().Attr("href")
		if !ok {
			itemErr = &StructureError{URL: doc.URL(), Selector: gridSelector + " " + gridItemSelector + " a", Detail: "book entry without href"}
			return false
		}
		urls = append(urls, parser.ResolveBookURL(p.catalogueRoot, href))
		return true
	})
	if itemErr != nil {
		return nil, "", itemErr
	}

	nextItem := doc.Find(nextSelector).First()
	if nextItem.Length() == 0 {
		return urls, "", nil
	}
	next, ok := nextItem.Find("a").First().Attr("href")
	if !ok || next == "" {
		return nil, "", &StructureError{URL: doc.URL(), Selector: nextSelector + " a", Detail: "next link without href"}
	}
	return urls, next, nil
}
