package extractor

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"github.com/aluiziolira/go-scrape-search/models"
	"github.com/aluiziolira/go-scrape-search/parser"
)

// lookup reads one candidate value for a field out of a region.
type lookup func(region *goquery.Selection) string

// cascade tries its lookups in order and keeps the first non-empty result.
type cascade []lookup

func (c cascade) first(region *goquery.Selection) string {
	for _, l := range c {
		if value := strings.TrimSpace(l(region)); value != "" {
			return value
		}
	}
	return ""
}

// textOf reads the text of the first matching element that has any.
func textOf(selector string) lookup {
	sel := cascadia.MustCompile(selector)
	return func(region *goquery.Selection) string {
		var text string
		region.FindMatcher(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text = strings.TrimSpace(s.Text())
			return text == ""
		})
		return text
	}
}

// labelOf prefers the element's aria-label and falls back to its text.
func labelOf(selector string) lookup {
	sel := cascadia.MustCompile(selector)
	return func(region *goquery.Selection) string {
		var text string
		region.FindMatcher(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if label, ok := s.Attr("aria-label"); ok && strings.TrimSpace(label) != "" {
				text = strings.TrimSpace(label)
			} else {
				text = strings.TrimSpace(s.Text())
			}
			return text == ""
		})
		return text
	}
}

// attrOf reads the first non-empty attribute among attrs on matching elements.
func attrOf(selector string, attrs ...string) lookup {
	sel := cascadia.MustCompile(selector)
	return func(region *goquery.Selection) string {
		var value string
		region.FindMatcher(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			for _, attr := range attrs {
				if v, ok := s.Attr(attr); ok && strings.TrimSpace(v) != "" {
					value = strings.TrimSpace(v)
					return false
				}
			}
			return true
		})
		return value
	}
}

// Extractor builds products from listing regions.
type Extractor struct {
	title   cascade
	rating  cascade
	reviews cascade
	image   cascade
}

// NewExtractor returns an extractor wired with the marketplace field cascades.
func NewExtractor() *Extractor {
	return &Extractor{
		title: cascade{
			textOf(`h2 a span`),
			textOf(`[data-cy="title-recipe-title"]`),
			textOf(`.a-size-mini span`),
			textOf(`h2 span`),
		},
		rating: cascade{
			labelOf(`.a-icon-alt`),
			labelOf(`[aria-label*="star"]`),
		},
		reviews: cascade{
			textOf(`a[href*="#customerReviews"] span`),
			textOf(`span.s-underline-text`),
			textOf(`.a-size-base`),
		},
		image: cascade{
			attrOf(`img.s-image`, "src", "data-src"),
			attrOf(`img`, "src", "data-src"),
		},
	}
}

// Extract reads one region. The returned product carries parser.TitleNotFound
// when no title was located; rejecting it is left to the caller. An error is
// only returned when the region itself could not be walked.
func (e *Extractor) Extract(region *goquery.Selection, index int) (product *models.Product, err error) {
	defer func() {
		if r := recover(); r != nil {
			product = nil
			err = &RegionError{Index: index, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if region == nil || region.Length() == 0 {
		return nil, &RegionError{Index: index, Err: errEmptyRegion}
	}

	title := parser.NormalizeTitle(e.title.first(region))
	if title == "" {
		title = parser.TitleNotFound
	}

	return &models.Product{
		ID:       index + 1,
		Title:    title,
		Rating:   parser.ParseRating(e.rating.first(region)),
		Reviews:  parser.ParseReviewCount(e.reviews.first(region)),
		ImageURL: parser.NormalizeImageURL(e.image.first(region)),
	}, nil
}
