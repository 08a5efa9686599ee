// Package pipeline turns a search results page into an ordered product list.
package pipeline

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/PuerkitoBio/goquery"

	"github.com/aluiziolira/go-scrape-search/extractor"
	"github.com/aluiziolira/go-scrape-search/models"
	"github.com/aluiziolira/go-scrape-search/parser"
)

// Result is the outcome of one extraction run.
type Result struct {
	Products []*models.Product
	Strategy string
	Regions  int
	Dropped  int
}

// Pipeline runs the region locator and product extractor over a document.
// It keeps no state between runs and is safe for concurrent use.
type Pipeline struct {
	locate    func(doc *goquery.Document) (string, []*goquery.Selection)
	extractor *extractor.Extractor
	logger    *slog.Logger
}

// NewPipeline builds a pipeline with the default selector cascades.
func NewPipeline(logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		locate:    extractor.NewLocator().Match,
		extractor: extractor.NewExtractor(),
		logger:    logger,
	}
}

// RunHTML parses markup and runs the pipeline over it.
func (p *Pipeline) RunHTML(r io.Reader) (Result, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Result{}, fmt.Errorf("parse html: %w", err)
	}
	return p.Run(doc), nil
}

// Run extracts every listing in document order. Listings without a title and
// listings that fail to extract are dropped; IDs are renumbered densely from 1
// over what remains.
func (p *Pipeline) Run(doc *goquery.Document) Result {
	strategy, regions := p.locate(doc)
	result := Result{
		Products: make([]*models.Product, 0, len(regions)),
		Strategy: strategy,
		Regions:  len(regions),
	}
	if len(regions) == 0 {
		p.logger.Debug("no product regions found")
		return result
	}

	for i, region := range regions {
		product, err := p.extractor.Extract(region, i)
		if err != nil {
			result.Dropped++
			var regionErr *extractor.RegionError
			if errors.As(err, &regionErr) {
				p.logger.Warn("region extraction failed",
					slog.Int("region", regionErr.Index+1),
					slog.Any("error", regionErr.Err),
				)
			}
			continue
		}
		if err := parser.ValidateProduct(product); err != nil {
			result.Dropped++
			p.logger.Debug("dropping region", slog.Int("region", i+1), slog.Any("error", err))
			continue
		}

		product.ID = len(result.Products) + 1
		result.Products = append(result.Products, product)
	}

	p.logger.Debug("extraction complete",
		slog.String("strategy", strategy),
		slog.Int("regions", result.Regions),
		slog.Int("products", len(result.Products)),
		slog.Int("dropped", result.Dropped),
	)
	return result
}
