package scraper

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var (
	// ErrMissingElement is returned when a selector matches nothing.
	ErrMissingElement = errors.New("element not found")
	// ErrMissingAttribute is returned when an element lacks an attribute.
	ErrMissingAttribute = errors.New("attribute not found")
	// ErrNoString is returned when a node has no single string child.
	ErrNoString = errors.New("element has no single string")
)

// Document wraps a parsed page with the structural queries the
// extraction rules need.
type Document struct {
	url string
	doc *goquery.Document
}

// NewDocument parses body as HTML.
func NewDocument(pageURL string, body []byte) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}
	return &Document{url: pageURL, doc: doc}, nil
}

// URL returns the address the document was fetched from.
func (d *Document) URL() string {
	return d.url
}

// Find returns every element matching selector.
func (d *Document) Find(selector string) *goquery.Selection {
	return d.doc.Find(selector)
}

// First returns the first element matching selector.
func (d *Document) First(selector string) (*goquery.Selection, error) {
	return first(d.doc.Selection, selector)
}

// StringOf returns the single string held by the first match of selector.
func (d *Document) StringOf(selector string) (string, error) {
	sel, err := d.First(selector)
	if err != nil {
		return "", err
	}
	return selectionString(sel, selector)
}

// AttrOf returns attr of the first match of selector.
func (d *Document) AttrOf(selector, attr string) (string, error) {
	sel, err := d.First(selector)
	if err != nil {
		return "", err
	}
	return attrOf(sel, selector, attr)
}

// Cell returns the single string of the index-th td inside the first
// table matching tableSelector.
func (d *Document) Cell(tableSelector string, index int) (string, error) {
	table, err := d.First(tableSelector)
	if err != nil {
		return "", err
	}
	cells := table.Find("td")
	if index < 0 || index >= cells.Length() {
		return "", fmt.Errorf("%s td[%d]: %w", tableSelector, index, ErrMissingElement)
	}
	return selectionString(cells.Eq(index), fmt.Sprintf("%s td[%d]", tableSelector, index))
}

// SiblingString walks steps raw siblings (text nodes included) from the
// first match of selector and returns that node's single string.
func (d *Document) SiblingString(selector string, steps int) (string, error) {
	sel, err := d.First(selector)
	if err != nil {
		return "", err
	}
	node := sel.Nodes[0]
	for i := 0; i < steps; i++ {
		node = node.NextSibling
		if node == nil {
			return "", fmt.Errorf("%s sibling %d: %w", selector, i+1, ErrMissingElement)
		}
	}
	s, ok := nodeString(node)
	if !ok {
		return "", fmt.Errorf("%s sibling %d: %w", selector, steps, ErrNoString)
	}
	return s, nil
}

func first(root *goquery.Selection, selector string) (*goquery.Selection, error) {
	sel := root.Find(selector).First()
	if sel.Length() == 0 {
		return nil, fmt.Errorf("%s: %w", selector, ErrMissingElement)
	}
	return sel, nil
}

func attrOf(sel *goquery.Selection, selector, attr string) (string, error) {
	value, ok := sel.Attr(attr)
	if !ok {
		return "", fmt.Errorf("%s[%s]: %w", selector, attr, ErrMissingAttribute)
	}
	return value, nil
}

func selectionString(sel *goquery.Selection, selector string) (string, error) {
	if sel.Length() == 0 {
		return "", fmt.Errorf("%s: %w", selector, ErrMissingElement)
	}
	s, ok := nodeString(sel.Nodes[0])
	if !ok {
		return "", fmt.Errorf("%s: %w", selector, ErrNoString)
	}
	return s, nil
}

// nodeString follows single-child chains down to a text node. Elements
// with zero or several children have no string.
func nodeString(n *html.Node) (string, bool) {
	for n != nil {
		switch n.Type {
		case html.TextNode:
			return n.Data, true
		case html.ElementNode:
			if n.FirstChild == nil || n.FirstChild != n.LastChild {
				return "", false
			}
			n = n.FirstChild
		default:
			return "", false
		}
	}
	return "", false
}
