// Package scraper fetches marketplace search pages and hands them to the
// extraction pipeline.
package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net"
	"net/http"
	"net/url"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/google/uuid"
	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"

	"github.com/aluiziolira/go-scrape-search/config"
	"github.com/aluiziolira/go-scrape-search/models"
	"github.com/aluiziolira/go-scrape-search/pipeline"
)

const (
	acceptHeader   = "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8"
	acceptEncoding = "gzip"
)

// Scraper wraps the colly collector, the politeness limiter and the
// extraction pipeline. It is safe for concurrent searches.
type Scraper struct {
	cfg       *config.Config
	collector *colly.Collector
	limiter   *rate.Limiter
	pipeline  *pipeline.Pipeline
	logger    *slog.Logger
	Metrics   *Metrics
}

// NewScraper builds a scraper instance configured from cfg.
func NewScraper(cfg *config.Config, logger *slog.Logger) (*Scraper, error) {
	parsed, err := url.Parse(cfg.SearchURL)
	if err != nil {
		return nil, fmt.Errorf("parse search url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("search url must include a host")
	}
	if logger == nil {
		logger = slog.Default()
	}

	collector := colly.NewCollector(
		colly.AllowURLRevisit(),
		colly.AllowedDomains(parsed.Hostname()),
		colly.UserAgent(cfg.UserAgent),
	)

	collector.SetRequestTimeout(cfg.Timeout)
	collector.IgnoreRobotsTxt = true
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	if err := collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: cfg.Parallelism,
	}); err != nil {
		return nil, fmt.Errorf("configure rate limits: %w", err)
	}

	limit := rate.Inf
	if cfg.Delay > 0 {
		limit = rate.Every(cfg.Delay)
	}

	return &Scraper{
		cfg:       cfg,
		collector: collector,
		limiter:   rate.NewLimiter(limit, 1),
		pipeline:  pipeline.NewPipeline(logger),
		logger:    logger,
		Metrics:   NewMetrics(),
	}, nil
}

// Search fetches the first results page for keyword and extracts its
// products. Keyword validation is the caller's job. Failures are returned as
// ErrTimeout, ErrForbidden, ErrNotFound, ErrRateLimited, ErrConnection or a
// plain error; extraction never runs for a failed fetch.
func (s *Scraper) Search(ctx context.Context, keyword string) (*models.SearchResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	result := &models.SearchResult{
		ID:        uuid.NewString(),
		Keyword:   keyword,
		StartTime: time.Now(),
	}
	logger := s.logger.With(
		slog.String("search_id", result.ID),
		slog.String("keyword", keyword),
	)

	searchURL, err := s.cfg.BuildSearchURL(keyword)
	if err != nil {
		return nil, s.fail(logger, err)
	}
	result.URL = searchURL

	if err := s.wait(ctx); err != nil {
		return nil, s.fail(logger, classifyError(err, 0))
	}

	logger.Info("fetching search page", slog.String("url", searchURL))
	body, contentType, err := s.fetch(ctx, searchURL)
	if err != nil {
		return nil, s.fail(logger, err)
	}

	doc, err := goquery.NewDocumentFromReader(decodeBody(body, contentType))
	if err != nil {
		return nil, s.fail(logger, fmt.Errorf("parse html: %w", err))
	}

	extracted := s.pipeline.Run(doc)
	if extracted.Regions == 0 && isCaptcha(doc) {
		return nil, s.fail(logger, ErrForbidden{Err: errCaptcha})
	}

	result.Products = extracted.Products
	result.RegionCount = extracted.Regions
	result.DroppedCount = extracted.Dropped
	result.Timestamp = time.Now()

	s.Metrics.IncRequest("completed")
	s.Metrics.AddProducts(len(result.Products))
	s.Metrics.AddDropped(result.DroppedCount)

	logger.Info("search complete",
		slog.Int("products", result.TotalCount()),
		slog.Int("regions", result.RegionCount),
		slog.Int("dropped", result.DroppedCount),
		slog.Duration("duration", result.Duration()),
	)
	return result, nil
}

// wait applies the politeness delay and then the process-wide limiter, so
// concurrent searches are still spaced at least Delay apart.
func (s *Scraper) wait(ctx context.Context) error {
	delay := s.cfg.Delay
	if s.cfg.RandomDelay > 0 {
		delay += rand.N(s.cfg.RandomDelay)
	}
	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	if err := s.limiter.Wait(ctx); err != nil {
		if ctx.Err() == nil {
			if _, ok := ctx.Deadline(); ok {
				return fmt.Errorf("politeness limiter: %w", context.DeadlineExceeded)
			}
		}
		return fmt.Errorf("politeness limiter: %w", err)
	}
	return nil
}

// fetch issues the GET on a clone of the shared collector so that callbacks
// belong to this search only.
func (s *Scraper) fetch(ctx context.Context, target string) ([]byte, string, error) {
	c := s.collector.Clone()

	var (
		body        []byte
		contentType string
		statusCode  int
		fetchErr    error
		start       time.Time
	)

	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
			return
		}
		r.Headers.Set("Accept", acceptHeader)
		r.Headers.Set("Accept-Language", s.cfg.AcceptLanguage)
		r.Headers.Set("Accept-Encoding", acceptEncoding)
		r.Headers.Set("Connection", "keep-alive")
		r.Headers.Set("Upgrade-Insecure-Requests", "1")
		start = time.Now()
		s.Metrics.IncRequest("started")
	})

	c.OnResponse(func(r *colly.Response) {
		statusCode = r.StatusCode
		body = r.Body
		contentType = r.Headers.Get("Content-Type")
		s.Metrics.ObserveDuration(time.Since(start))
	})

	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			statusCode = r.StatusCode
		}
		fetchErr = err
		if !start.IsZero() {
			s.Metrics.ObserveDuration(time.Since(start))
		}
	})

	visitErr := c.Visit(target)
	if fetchErr == nil {
		fetchErr = visitErr
	}
	if fetchErr == nil && ctx.Err() != nil {
		fetchErr = ctx.Err()
	}
	if fetchErr != nil {
		return nil, "", classifyError(fetchErr, statusCode)
	}
	if body == nil {
		return nil, "", fmt.Errorf("empty response from %s", target)
	}
	return body, contentType, nil
}

// decodeBody converts legacy-encoded pages to UTF-8. Colly only transcodes
// when the Content-Type header names a charset, so a meta tag is honored here.
func decodeBody(body []byte, contentType string) io.Reader {
	if utf8.Valid(body) {
		return bytes.NewReader(body)
	}
	enc, _, _ := charset.DetermineEncoding(body, contentType)
	return enc.NewDecoder().Reader(bytes.NewReader(body))
}

func (s *Scraper) fail(logger *slog.Logger, err error) error {
	category := errorTypeLabel(err)
	s.Metrics.IncError(category)
	logger.Error("search failed",
		slog.String("category", category),
		slog.Any("error", err),
	)
	return err
}

func isCaptcha(doc *goquery.Document) bool {
	if doc.Find(`form[action*="validateCaptcha"], #captchacharacters`).Length() > 0 {
		return true
	}
	return doc.Find("title").First().Text() == "Robot Check"
}

func classifyError(err error, statusCode int) error {
	if err == nil && statusCode == 0 {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout{Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout{Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrConnection{Err: err}
	}

	if statusCode != 0 {
		wrapped := err
		if wrapped == nil {
			wrapped = fmt.Errorf("http status %d", statusCode)
		}
		switch statusCode {
		case http.StatusForbidden:
			return ErrForbidden{Err: wrapped}
		case http.StatusNotFound:
			return ErrNotFound{Err: wrapped}
		case http.StatusTooManyRequests:
			return ErrRateLimited{Err: wrapped}
		}
	}

	if err == nil {
		return fmt.Errorf("http status %d", statusCode)
	}
	return err
}
