// Package models defines data structures for the scraper.
package models

import "time"

// Placeholder replaces any field that could not be extracted.
const Placeholder = "not available"

// Field names in export order.
const (
	FieldProductPageURL       = "product_page_url"
	FieldUniversalProductCode = "universal_product_code"
	FieldTitle                = "title"
	FieldPriceIncludingTax    = "price_including_tax"
	FieldPriceExcludingTax    = "price_excluding_tax"
	FieldNumberAvailable      = "number_available"
	FieldProductDescription   = "product_description"
	FieldCategory             = "category"
	FieldReviewRating         = "review_rating"
	FieldImageURL             = "image_url"
)

// FieldNames is the fixed header row of every export.
var FieldNames = []string{
	FieldProductPageURL,
	FieldUniversalProductCode,
	FieldTitle,
	FieldPriceIncludingTax,
	FieldPriceExcludingTax,
	FieldNumberAvailable,
	FieldProductDescription,
	FieldCategory,
	FieldReviewRating,
	FieldImageURL,
}

// Category is one entry of the catalog sidebar.
type Category struct {
	Name       string `json:"name"`
	ListingURL string `json:"listing_url"`
}

// BookRecord holds the ten exported fields of a book detail page.
type BookRecord struct {
	ProductPageURL       string `csv:"product_page_url" json:"product_page_url"`
	UniversalProductCode string `csv:"universal_product_code" json:"universal_product_code"`
	Title                string `csv:"title" json:"title"`
	PriceIncludingTax    string `csv:"price_including_tax" json:"price_including_tax"`
	PriceExcludingTax    string `csv:"price_excluding_tax" json:"price_excluding_tax"`
	NumberAvailable      string `csv:"number_available" json:"number_available"`
	ProductDescription   string `csv:"product_description" json:"product_description"`
	Category             string `csv:"category" json:"category"`
	ReviewRating         string `csv:"review_rating" json:"review_rating"`
	ImageURL             string `csv:"image_url" json:"image_url"`
}

// NewBookRecord returns a record whose fields all hold the placeholder.
func NewBookRecord(productPageURL string) *BookRecord {
	r := &BookRecord{}
	for _, name := range FieldNames {
		r.Set(name, Placeholder)
	}
	r.ProductPageURL = productPageURL
	return r
}

// Values returns the fields in FieldNames order.
func (r *BookRecord) Values() []string {
	return []string{
		r.ProductPageURL,
		r.UniversalProductCode,
		r.Title,
		r.PriceIncludingTax,
		r.PriceExcludingTax,
		r.NumberAvailable,
		r.ProductDescription,
		r.Category,
		r.ReviewRating,
		r.ImageURL,
	}
}

// Set assigns a field by name. Unknown names report false.
func (r *BookRecord) Set(field, value string) bool {
	switch field {
	case FieldProductPageURL:
		r.ProductPageURL = value
	case FieldUniversalProductCode:
		r.UniversalProductCode = value
	case FieldTitle:
		r.Title = value
	case FieldPriceIncludingTax:
		r.PriceIncludingTax = value
	case FieldPriceExcludingTax:
		r.PriceExcludingTax = value
	case FieldNumberAvailable:
		r.NumberAvailable = value
	case FieldProductDescription:
		r.ProductDescription = value
	case FieldCategory:
		r.Category = value
	case FieldReviewRating:
		r.ReviewRating = value
	case FieldImageURL:
		r.ImageURL = value
	default:
		return false
	}
	return true
}

// Get reads a field by name.
func (r *BookRecord) Get(field string) (string, bool) {
	for i, name := range FieldNames {
		if name == field {
			return r.Values()[i], true
		}
	}
	return "", false
}

// RecordFromValues rebuilds a record from a row in FieldNames order.
func RecordFromValues(values []string) (*BookRecord, bool) {
	if len(values) != len(FieldNames) {
		return nil, false
	}
	r := &BookRecord{}
	for i, name := range FieldNames {
		r.Set(name, values[i])
	}
	return r, true
}

// RunSummary holds the overall result of a crawl.
type RunSummary struct {
	StartTime       time.Time
	EndTime         time.Time
	Categories      int
	BooksProcessed  int
	ImagesWritten   int
	ImageOverwrites int
	DegradedFields  int
	DegradedByField map[string]int
	RequestCount    int
	OutputFiles     []string
}
