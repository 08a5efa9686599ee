package extractor

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// Strategy is one way of recognising product listings on a page.
type Strategy struct {
	Name     string
	Selector cascadia.Selector
}

// DefaultStrategies are ordered from the most to the least specific markup.
var DefaultStrategies = []Strategy{
	{Name: "search-result", Selector: cascadia.MustCompile(`[data-component-type="s-search-result"]`)},
	{Name: "result-item", Selector: cascadia.MustCompile(`.s-result-item`)},
	{Name: "asin", Selector: cascadia.MustCompile(`[data-asin]:not([data-asin=""])`)},
}

// Locator finds the regions of a document that hold individual listings.
type Locator struct {
	strategies []Strategy
}

// NewLocator returns a locator using strategies, or DefaultStrategies when none are given.
func NewLocator(strategies ...Strategy) *Locator {
	if len(strategies) == 0 {
		strategies = DefaultStrategies
	}
	return &Locator{strategies: strategies}
}

// Locate returns the listing regions in document order. Only the first
// strategy that matches anything is used, so layouts are never mixed.
func (l *Locator) Locate(doc *goquery.Document) []*goquery.Selection {
	_, regions := l.Match(doc)
	return regions
}

// Match is Locate that also reports the name of the winning strategy.
// An empty name means nothing matched.
func (l *Locator) Match(doc *goquery.Document) (string, []*goquery.Selection) {
	if doc == nil {
		return "", nil
	}

	for _, strategy := range l.strategies {
		matches := doc.FindMatcher(strategy.Selector)
		if matches.Length() == 0 {
			continue
		}

		regions := make([]*goquery.Selection, 0, matches.Length())
		matches.Each(func(_ int, s *goquery.Selection) {
			regions = append(regions, s)
		})
		return strategy.Name, regions
	}
	return "", nil
}
