package extractor

import (
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/aluiziolira/go-scrape-search/parser"
)

func mustDocument(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

func TestLocatorPrefersMostSpecificStrategy(t *testing.T) {
	doc := mustDocument(t, `<html><body>
		<div class="s-result-item" data-asin="B0SPONSOR"><h2><a><span>Sponsored</span></a></h2></div>
		<div data-component-type="s-search-result" data-asin="B01"><h2><a><span>First</span></a></h2></div>
		<div data-component-type="s-search-result" data-asin="B02"><h2><a><span>Second</span></a></h2></div>
	</body></html>`)

	name, regions := NewLocator().Match(doc)
	if name != "search-result" {
		t.Fatalf("strategy = %q, want search-result", name)
	}
	if len(regions) != 2 {
		t.Fatalf("regions = %d, want 2", len(regions))
	}
	if got := regions[0].AttrOr("data-asin", ""); got != "B01" {
		t.Fatalf("first region asin = %q, want B01", got)
	}
	if got := regions[1].AttrOr("data-asin", ""); got != "B02" {
		t.Fatalf("second region asin = %q, want B02", got)
	}
}

func TestLocatorFallbacks(t *testing.T) {
	tests := []struct {
		name         string
		html         string
		wantStrategy string
		wantRegions  int
	}{
		{
			name:         "result item class",
			html:         `<div class="s-result-item">a</div><div class="s-result-item">b</div><div data-asin="B09">c</div>`,
			wantStrategy: "result-item",
			wantRegions:  2,
		},
		{
			name:         "asin attribute skips empty values",
			html:         `<div data-asin="">empty</div><div data-asin="B01">one</div><div data-asin="B02">two</div>`,
			wantStrategy: "asin",
			wantRegions:  2,
		},
		{
			name:         "nothing recognisable",
			html:         `<div class="product">x</div><div data-asin="">y</div>`,
			wantStrategy: "",
			wantRegions:  0,
		},
		{
			name:         "empty document",
			html:         ``,
			wantStrategy: "",
			wantRegions:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, regions := NewLocator().Match(mustDocument(t, tt.html))
			if name != tt.wantStrategy {
				t.Fatalf("strategy = %q, want %q", name, tt.wantStrategy)
			}
			if len(regions) != tt.wantRegions {
				t.Fatalf("regions = %d, want %d", len(regions), tt.wantRegions)
			}
		})
	}
}

func TestLocatorNilDocument(t *testing.T) {
	if regions := NewLocator().Locate(nil); len(regions) != 0 {
		t.Fatalf("regions = %d, want 0", len(regions))
	}
}

func TestLocatorCustomStrategies(t *testing.T) {
	locator := NewLocator(Strategy{Name: "card", Selector: DefaultStrategies[2].Selector})
	doc := mustDocument(t, `<div data-component-type="s-search-result" data-asin="B01">x</div>`)
	name, regions := locator.Match(doc)
	if name != "card" || len(regions) != 1 {
		t.Fatalf("got %q with %d regions, want card with 1", name, len(regions))
	}
}

func firstRegion(t *testing.T, html string) *goquery.Selection {
	t.Helper()
	regions := NewLocator().Locate(mustDocument(t, html))
	if len(regions) == 0 {
		t.Fatalf("no regions located")
	}
	return regions[0]
}

func TestExtractCompleteListing(t *testing.T) {
	region := firstRegion(t, `<div data-component-type="s-search-result" data-asin="B01">
		<img class="s-image" src="https://m.media-amazon.com/images/I/71abc._AC_UY218_.jpg">
		<h2><a href="/dp/B01"><span>  Noise Cancelling
			Headphones  </span></a></h2>
		<i class="a-icon-star-small"><span class="a-icon-alt">4.6 out of 5 stars</span></i>
		<a href="/dp/B01#customerReviews"><span>(12,873)</span></a>
	</div>`)

	product, err := NewExtractor().Extract(region, 0)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if product.ID != 1 {
		t.Fatalf("id = %d, want 1", product.ID)
	}
	if product.Title != "Noise Cancelling Headphones" {
		t.Fatalf("title = %q", product.Title)
	}
	if product.Rating != "4.6" {
		t.Fatalf("rating = %q, want 4.6", product.Rating)
	}
	if product.Reviews != 12873 {
		t.Fatalf("reviews = %d, want 12873", product.Reviews)
	}
	if product.ImageURL != "https://m.media-amazon.com/images/I/71abc._AC_UL320_.jpg" {
		t.Fatalf("image = %q", product.ImageURL)
	}
}

func TestExtractMissingReviewsDefaultsToZero(t *testing.T) {
	region := firstRegion(t, `<div data-component-type="s-search-result">
		<h2><a><span>Desk Lamp</span></a></h2>
		<span class="a-icon-alt">4.2 out of 5 stars</span>
	</div>`)

	product, err := NewExtractor().Extract(region, 3)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if product.Title != "Desk Lamp" || product.Rating != "4.2" {
		t.Fatalf("title/rating = %q/%q, want Desk Lamp/4.2", product.Title, product.Rating)
	}
	if product.Reviews != 0 {
		t.Fatalf("reviews = %d, want 0", product.Reviews)
	}
	if product.ImageURL != parser.NotAvailable {
		t.Fatalf("image = %q, want sentinel", product.ImageURL)
	}
}

func TestExtractFieldCascades(t *testing.T) {
	tests := []struct {
		name  string
		html  string
		check func(t *testing.T, title, rating string, reviews int, image string)
	}{
		{
			name: "title from recipe label when heading is empty",
			html: `<div data-component-type="s-search-result">
				<h2><a><span>   </span></a></h2>
				<div data-cy="title-recipe-title">Recipe Title</div>
			</div>`,
			check: func(t *testing.T, title, _ string, _ int, _ string) {
				if title != "Recipe Title" {
					t.Fatalf("title = %q, want Recipe Title", title)
				}
			},
		},
		{
			name: "title from generic small text",
			html: `<div data-component-type="s-search-result"><div class="a-size-mini"><span>Mini Title</span></div></div>`,
			check: func(t *testing.T, title, _ string, _ int, _ string) {
				if title != "Mini Title" {
					t.Fatalf("title = %q, want Mini Title", title)
				}
			},
		},
		{
			name: "rating prefers aria label",
			html: `<div data-component-type="s-search-result">
				<h2><a><span>Kettle</span></a></h2>
				<span aria-label="3.9 out of 5 stars">rated highly</span>
			</div>`,
			check: func(t *testing.T, _, rating string, _ int, _ string) {
				if rating != "3.9" {
					t.Fatalf("rating = %q, want 3.9", rating)
				}
			},
		},
		{
			name: "rating without digits is sentinel",
			html: `<div data-component-type="s-search-result">
				<h2><a><span>Kettle</span></a></h2>
				<span class="a-icon-alt">No ratings yet</span>
			</div>`,
			check: func(t *testing.T, _, rating string, _ int, _ string) {
				if rating != parser.NotAvailable {
					t.Fatalf("rating = %q, want sentinel", rating)
				}
			},
		},
		{
			name: "reviews from generic text",
			html: `<div data-component-type="s-search-result">
				<h2><a><span>Kettle</span></a></h2>
				<span class="a-size-base">2,041</span>
			</div>`,
			check: func(t *testing.T, _, _ string, reviews int, _ string) {
				if reviews != 2041 {
					t.Fatalf("reviews = %d, want 2041", reviews)
				}
			},
		},
		{
			name: "image from lazy load attribute",
			html: `<div data-component-type="s-search-result">
				<h2><a><span>Kettle</span></a></h2>
				<img data-src="https://m.media-amazon.com/images/I/61k._SY300_.jpg">
			</div>`,
			check: func(t *testing.T, _, _ string, _ int, image string) {
				if image != "https://m.media-amazon.com/images/I/61k._AC_UL320_.jpg" {
					t.Fatalf("image = %q", image)
				}
			},
		},
		{
			name: "relative image is sentinel",
			html: `<div data-component-type="s-search-result">
				<h2><a><span>Kettle</span></a></h2>
				<img src="/img/kettle.jpg">
			</div>`,
			check: func(t *testing.T, _, _ string, _ int, image string) {
				if image != parser.NotAvailable {
					t.Fatalf("image = %q, want sentinel", image)
				}
			},
		},
		{
			name: "missing title uses fallback",
			html: `<div data-component-type="s-search-result"><span class="a-icon-alt">4.0 out of 5 stars</span></div>`,
			check: func(t *testing.T, title, rating string, _ int, _ string) {
				if title != parser.TitleNotFound {
					t.Fatalf("title = %q, want fallback", title)
				}
				if rating != "4.0" {
					t.Fatalf("rating = %q, want 4.0", rating)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			product, err := NewExtractor().Extract(firstRegion(t, tt.html), 0)
			if err != nil {
				t.Fatalf("extract: %v", err)
			}
			tt.check(t, product.Title, product.Rating, product.Reviews, product.ImageURL)
		})
	}
}

func TestExtractEmptyRegion(t *testing.T) {
	product, err := NewExtractor().Extract(nil, 4)
	if product != nil {
		t.Fatalf("expected no product, got %+v", product)
	}
	var regionErr *RegionError
	if !errors.As(err, &regionErr) {
		t.Fatalf("expected RegionError, got %v", err)
	}
	if regionErr.Index != 4 {
		t.Fatalf("index = %d, want 4", regionErr.Index)
	}
	if !errors.Is(err, errEmptyRegion) {
		t.Fatalf("expected errEmptyRegion, got %v", err)
	}
}

func TestExtractMalformedRegionRecovers(t *testing.T) {
	region := &goquery.Selection{Nodes: []*html.Node{nil}}

	product, err := NewExtractor().Extract(region, 2)
	if product != nil {
		t.Fatalf("expected no product, got %+v", product)
	}
	var regionErr *RegionError
	if !errors.As(err, &regionErr) {
		t.Fatalf("expected RegionError, got %v", err)
	}
	if regionErr.Index != 2 {
		t.Fatalf("index = %d, want 2", regionErr.Index)
	}
	if errors.Is(err, errEmptyRegion) {
		t.Fatalf("malformed region should not be reported as empty")
	}
	if !strings.Contains(err.Error(), "panic") {
		t.Fatalf("error = %q, want recovered panic", err.Error())
	}
}
