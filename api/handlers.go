// Package api exposes keyword searches over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/aluiziolira/go-scrape-search/models"
	"github.com/aluiziolira/go-scrape-search/parser"
	"github.com/aluiziolira/go-scrape-search/scraper"
)

const (
	// timestampLayout renders UTC instants with millisecond precision.
	timestampLayout = "2006-01-02T15:04:05.000Z07:00"

	searchIDHeader = "X-Search-ID"
	exampleQuery   = "/api/scrape?keyword=smartphone"
	statusMessage  = "Marketplace scraper API is running"
)

// Searcher runs one keyword search.
type Searcher interface {
	Search(ctx context.Context, keyword string) (*models.SearchResult, error)
}

// ScrapeResponse is returned for a successful search.
type ScrapeResponse struct {
	Success       bool              `json:"success"`
	Keyword       string            `json:"keyword"`
	TotalProducts int               `json:"totalProducts"`
	Products      []*models.Product `json:"products"`
	Timestamp     string            `json:"timestamp"`
}

// ErrorResponse is returned when a search fails after validation.
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Keyword   string `json:"keyword,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// ValidationResponse is returned for a missing or unusable keyword.
type ValidationResponse struct {
	Error   string `json:"error"`
	Example string `json:"example"`
}

// StatusResponse reports liveness.
type StatusResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Message   string `json:"message"`
}

// Handlers serves the search and status routes.
type Handlers struct {
	searcher Searcher
	logger   *slog.Logger
	now      func() time.Time
}

// NewHandlers builds handlers that delegate searches to searcher.
func NewHandlers(searcher Searcher, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		searcher: searcher,
		logger:   logger,
		now:      time.Now,
	}
}

// Scrape handles GET /api/scrape?keyword=. Responses echo the keyword as
// received; the trimmed form is what gets searched.
func (h *Handlers) Scrape(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("keyword")
	keyword, err := parser.ValidateKeyword(raw)
	if err != nil {
		message := "Query parameter keyword is required"
		if errors.Is(err, parser.ErrKeywordTooShort) {
			message = "Query parameter keyword must be at least 2 characters"
		}
		h.respondJSON(w, http.StatusBadRequest, ValidationResponse{
			Error:   message,
			Example: exampleQuery,
		})
		return
	}

	result, err := h.searcher.Search(r.Context(), keyword)
	if err != nil {
		h.logger.Error("scrape failed",
			slog.String("keyword", keyword),
			slog.Any("error", err),
		)
		h.respondJSON(w, scraper.StatusCode(err), ErrorResponse{
			Success:   false,
			Error:     scraper.Message(err),
			Keyword:   raw,
			Timestamp: formatTime(h.now()),
		})
		return
	}

	products := result.Products
	if products == nil {
		products = []*models.Product{}
	}
	timestamp := result.Timestamp
	if timestamp.IsZero() {
		timestamp = h.now()
	}

	if result.ID != "" {
		w.Header().Set(searchIDHeader, result.ID)
	}
	h.respondJSON(w, http.StatusOK, ScrapeResponse{
		Success:       true,
		Keyword:       raw,
		TotalProducts: len(products),
		Products:      products,
		Timestamp:     formatTime(timestamp),
	})
}

// Status handles GET /api/status.
func (h *Handlers) Status(w http.ResponseWriter, _ *http.Request) {
	h.respondJSON(w, http.StatusOK, StatusResponse{
		Status:    "online",
		Timestamp: formatTime(h.now()),
		Message:   statusMessage,
	})
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", slog.Any("error", err))
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, ErrorResponse{Success: false, Error: message})
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}
