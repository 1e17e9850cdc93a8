package scraper

import (
	"context"
	"log/slog"

	"github.com/aluiziolira/bookscraper/models"
	"github.com/aluiziolira/bookscraper/parser"
)

const (
	productTable        = "table.table-striped"
	titleSelector       = "#content_inner h1"
	descriptionMarker   = "div#product_description"
	ratingSelector      = "div.product_main p.star-rating"
	coverImageSelector  = "div.item.active img"
	descriptionSiblings = 2
)

// Column indexes inside the product information table.
const (
	cellUPC = iota
	cellCategory
	cellPriceExcludingTax
	cellPriceIncludingTax
	_ // tax
	cellAvailability
)

// FieldResult is the outcome of one extraction rule.
type FieldResult struct {
	Field string
	Value string
	Err   error
}

// Extraction is a record plus the fields that fell back to the placeholder.
type Extraction struct {
	Record   *models.BookRecord
	Failures []FieldFailure
}

// Degraded reports whether any field used the placeholder.
func (e *Extraction) Degraded() bool {
	return len(e.Failures) > 0
}

type fieldRule struct {
	field   string
	extract func(*Document) (string, error)
}

// BookRecordExtractor turns a detail page into a BookRecord.
type BookRecordExtractor struct {
	fetcher PageFetcher
	metrics *Metrics
	rules   []fieldRule
}

// NewBookRecordExtractor builds the extractor; siteRoot prefixes image paths.
func NewBookRecordExtractor(fetcher PageFetcher, siteRoot string, metrics *Metrics) *BookRecordExtractor {
	return &BookRecordExtractor{
		fetcher: fetcher,
		metrics: metrics,
		rules:   fieldRules(siteRoot),
	}
}

func fieldRules(siteRoot string) []fieldRule {
	return []fieldRule{
		{models.FieldUniversalProductCode, cellRule(cellUPC)},
		{models.FieldTitle, extractTitle},
		{models.FieldPriceIncludingTax, cellRule(cellPriceIncludingTax)},
		{models.FieldPriceExcludingTax, cellRule(cellPriceExcludingTax)},
		{models.FieldNumberAvailable, extractNumberAvailable},
		{models.FieldProductDescription, extractDescription},
		{models.FieldCategory, cellRule(cellCategory)},
		{models.FieldReviewRating, extractReviewRating},
		{models.FieldImageURL, func(doc *Document) (string, error) {
			return extractImageURL(doc, siteRoot)
		}},
	}
}

// Extract fetches detailURL and extracts its record. Only the fetch can
// fail; missing fields become placeholders.
func (e *BookRecordExtractor) Extract(ctx context.Context, detailURL string) (*Extraction, error) {
	body, err := e.fetcher.Fetch(ctx, detailURL, PhaseDetail)
	if err != nil {
		return nil, err
	}
	doc, err := NewDocument(detailURL, body)
	if err != nil {
		return nil, err
	}
	return e.ExtractDocument(doc), nil
}

// ExtractDocument applies every field rule to an already parsed page.
func (e *BookRecordExtractor) ExtractDocument(doc *Document) *Extraction {
	results := make([]FieldResult, 0, len(e.rules))
	for _, rule := range e.rules {
		value, err := rule.extract(doc)
		results = append(results, FieldResult{Field: rule.field, Value: value, Err: err})
	}

	extraction := AssembleRecord(doc.URL(), results)
	for _, failure := range extraction.Failures {
		slog.Warn("field not available",
			slog.String("field", failure.Field),
			slog.String("url", failure.URL),
			slog.Any("error", failure.Err),
		)
		e.metrics.IncDegraded(failure.Field)
	}
	e.metrics.IncBooks()
	return extraction
}

// AssembleRecord applies the placeholder policy: a failed rule leaves
// models.Placeholder in its field and is reported in Failures.
func AssembleRecord(productPageURL string, results []FieldResult) *Extraction {
	record := models.NewBookRecord(productPageURL)
	extraction := &Extraction{Record: record}

	for _, result := range results {
		if result.Err != nil {
			extraction.Failures = append(extraction.Failures, FieldFailure{
				Field: result.Field,
				URL:   productPageURL,
				Err:   result.Err,
			})
			continue
		}
		record.Set(result.Field, result.Value)
	}
	return extraction
}

func cellRule(index int) func(*Document) (string, error) {
	return func(doc *Document) (string, error) {
		return doc.Cell(productTable, index)
	}
}

func extractTitle(doc *Document) (string, error) {
	return doc.StringOf(titleSelector)
}

func extractNumberAvailable(doc *Document) (string, error) {
	sentence, err := doc.Cell(productTable, cellAvailability)
	if err != nil {
		return "", err
	}
	return parser.ParseNumberAvailable(sentence)
}

func extractDescription(doc *Document) (string, error) {
	text, err := doc.SiblingString(descriptionMarker, descriptionSiblings)
	if err != nil {
		return "", err
	}
	return parser.TrimDescriptionSuffix(text), nil
}

func extractReviewRating(doc *Document) (string, error) {
	class, err := doc.AttrOf(ratingSelector, "class")
	if err != nil {
		return "", err
	}
	return parser.RatingFromClass(class)
}

func extractImageURL(doc *Document, siteRoot string) (string, error) {
	src, err := doc.AttrOf(coverImageSelector, "src")
	if err != nil {
		return "", err
	}
	return parser.ImageURLFromSrc(siteRoot, src), nil
}
