// Package parser holds the text rules applied to values read from catalog pages.
package parser

import (
	"errors"
	"regexp"
	"strings"
)

var (
	// ErrNoDigits is returned when an in-stock sentence carries no count.
	ErrNoDigits = errors.New("parser: no digits in availability")
	// ErrNoRating is returned when no star class matches.
	ErrNoRating = errors.New("parser: no star rating class")
)

const (
	inStockPrefix = "In stock"

	// descriptionSuffixLen is the length of the " ...more" tail the site
	// appends to every description. The cut is positional.
	descriptionSuffixLen = 8

	// imageSrcPrefixLen drops "../.." from "../../media/...", keeping the slash.
	imageSrcPrefixLen = 5

	listingRelativePrefix = "../../.."
)

var digitsRe = regexp.MustCompile(`\d+`)

// ratingVocabulary is scanned in order; first match wins.
var ratingVocabulary = []struct {
	class string
	value string
}{
	{"One", "1"},
	{"Two", "2"},
	{"Three", "3"},
	{"Four", "4"},
	{"Five", "5"},
}

// ParseNumberAvailable turns "In stock (7 available)" into "7" and any
// sentence not starting with "In stock" into "0".
func ParseNumberAvailable(sentence string) (string, error) {
	sentence = strings.TrimSpace(sentence)
	if !strings.HasPrefix(sentence, inStockPrefix) {
		return "0", nil
	}
	digits := digitsRe.FindString(sentence)
	if digits == "" {
		return "", ErrNoDigits
	}
	return digits, nil
}

// TrimDescriptionSuffix removes the last eight characters of text.
// Shorter strings come back empty.
func TrimDescriptionSuffix(text string) string {
	runes := []rune(text)
	if len(runes) <= descriptionSuffixLen {
		return ""
	}
	return string(runes[:len(runes)-descriptionSuffixLen])
}

// RatingFromClass maps a class attribute such as "star-rating Three" to "3".
func RatingFromClass(classAttr string) (string, error) {
	tokens := strings.Fields(classAttr)
	for _, candidate := range ratingVocabulary {
		for _, token := range tokens {
			if token == candidate.class {
				return candidate.value, nil
			}
		}
	}
	return "", ErrNoRating
}

// ImageURLFromSrc drops the relative prefix of a cover src and prepends root.
func ImageURLFromSrc(siteRoot, src string) string {
	runes := []rune(src)
	if len(runes) <= imageSrcPrefixLen {
		return siteRoot
	}
	return siteRoot + string(runes[imageSrcPrefixLen:])
}

// ResolveBookURL rewrites a listing href ("../../../foo/index.html")
// against the catalogue root.
func ResolveBookURL(catalogueRoot, href string) string {
	return strings.ReplaceAll(href, listingRelativePrefix, catalogueRoot)
}

// SwapLastSegment replaces everything after the final "/" of pageURL with file.
func SwapLastSegment(pageURL, file string) string {
	idx := strings.LastIndex(pageURL, "/")
	if idx < 0 {
		return file
	}
	return pageURL[:idx+1] + file
}

// NormalizeText trims surrounding whitespace from scraped text.
func NormalizeText(text string) string {
	return strings.TrimSpace(text)
}
