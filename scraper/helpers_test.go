package scraper

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/aluiziolira/bookscraper/config"
	"github.com/jarcoal/httpmock"
)

const testBaseURL = "http://example.test/"

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.BaseURL = testBaseURL
	cfg.CSVDir = t.TempDir()
	cfg.ImagesDir = t.TempDir()
	return cfg
}

func newTestFetcher(t *testing.T, transport http.RoundTripper) *Fetcher {
	t.Helper()
	f, err := NewFetcher(newTestConfig(t), NewMetrics())
	if err != nil {
		t.Fatalf("new fetcher: %v", err)
	}
	f.collector.WithTransport(transport)
	return f
}

func htmlResponder(body string) httpmock.Responder {
	resp := httpmock.NewStringResponse(200, body)
	resp.Header.Set("Content-Type", "text/html")
	return httpmock.ResponderFromResponse(resp)
}

func imageResponder(body string) httpmock.Responder {
	resp := httpmock.NewStringResponse(200, body)
	resp.Header.Set("Content-Type", "image/jpeg")
	return httpmock.ResponderFromResponse(resp)
}

type sidebarEntry struct {
	name string
	href string
}

func buildIndexPage(entries ...sidebarEntry) string {
	var builder strings.Builder
	builder.WriteString("<html><body><div class=\"side_categories\"><ul><li><a href=\"catalogue/category/books_1/index.html\">Books</a><ul>")
	for _, entry := range entries {
		fmt.Fprintf(&builder, "<li>\n<a href=\"%s\">\n    %s\n</a>\n</li>", entry.href, entry.name)
	}
	builder.WriteString("</ul></li></ul></div></body></html>")
	return builder.String()
}

// buildListingPage renders a category page whose grid links to each slug.
// next is the bare filename of the following page, empty on the last one.
func buildListingPage(next string, slugs ...string) string {
	var builder strings.Builder
	builder.WriteString("<html><body><section><ol class=\"row\">")
	for _, slug := range slugs {
		fmt.Fprintf(&builder, "<li><article class=\"product_pod\"><h3><a href=\"../../../%s/index.html\">%s</a></h3></article></li>", slug, slug)
	}
	builder.WriteString("</ol>")
	if next != "" {
		fmt.Fprintf(&builder, "<ul class=\"pager\"><li class=\"current\">Page</li><li class=\"next\"><a href=\"%s\">next</a></li></ul>", next)
	}
	builder.WriteString("</section></body></html>")
	return builder.String()
}

type detailFixture struct {
	title         string
	upc           string
	category      string
	priceExcl     string
	priceIncl     string
	availability  string
	description   string
	rating        string
	imageSrc      string
	noDescription bool
}

func defaultDetail() detailFixture {
	return detailFixture{
		title:        "A Light in the Attic",
		upc:          "a897fe39b1053632",
		category:     "Books",
		priceExcl:    "£51.77",
		priceIncl:    "£51.77",
		availability: "In stock (22 available)",
		description:  "It's hilarious and wise ...more",
		rating:       "Three",
		imageSrc:     "../../media/cache/fe/72/fe72f0532301ec28892ae79a629a293c.jpg",
	}
}

func buildDetailPage(d detailFixture) string {
	var builder strings.Builder
	builder.WriteString("<html><body><div id=\"content_inner\"><article class=\"product_page\"><div class=\"row\">")
	fmt.Fprintf(&builder, "<div class=\"col-sm-6\"><div id=\"product_gallery\"><div class=\"carousel-inner\"><div class=\"item active\"><img src=\"%s\" alt=\"%s\"/></div></div></div></div>", d.imageSrc, d.title)
	fmt.Fprintf(&builder, "<div class=\"col-sm-6 product_main\"><h1>%s</h1><p class=\"price_color\">%s</p>", d.title, d.priceIncl)
	fmt.Fprintf(&builder, "<p class=\"star-rating %s\"><i class=\"icon-star\"></i></p></div></div>\n", d.rating)
	if !d.noDescription {
		builder.WriteString("<div id=\"product_description\" class=\"sub-header\"><h2>Product Description</h2></div>\n")
		fmt.Fprintf(&builder, "<p>%s</p>\n", d.description)
	}
	builder.WriteString("<div class=\"sub-header\"><h2>Product Information</h2></div>\n")
	builder.WriteString("<table class=\"table table-striped\">")
	fmt.Fprintf(&builder, "<tr><th>UPC</th><td>%s</td></tr>", d.upc)
	fmt.Fprintf(&builder, "<tr><th>Product Type</th><td>%s</td></tr>", d.category)
	fmt.Fprintf(&builder, "<tr><th>Price (excl. tax)</th><td>%s</td></tr>", d.priceExcl)
	fmt.Fprintf(&builder, "<tr><th>Price (incl. tax)</th><td>%s</td></tr>", d.priceIncl)
	builder.WriteString("<tr><th>Tax</th><td>£0.00</td></tr>")
	fmt.Fprintf(&builder, "<tr><th>Availability</th><td>%s</td></tr>", d.availability)
	builder.WriteString("<tr><th>Number of reviews</th><td>0</td></tr>")
	builder.WriteString("</table></article></div></body></html>")
	return builder.String()
}
