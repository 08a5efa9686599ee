package parser

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/aluiziolira/go-scrape-search/models"
)

const (
	// NotAvailable is the placeholder for optional fields that could not be read.
	NotAvailable = "N/A"

	// TitleNotFound marks a product whose title could not be located.
	TitleNotFound = "title not found"

	// MaxTitleLength is the maximum title length in characters.
	MaxTitleLength = 200

	// MinKeywordLength is the shortest keyword accepted at the API boundary.
	MinKeywordLength = 2

	// ImageSizeDelimiter starts the size/quality modifiers in marketplace image URLs.
	ImageSizeDelimiter = "._"

	// ImageSizeSuffix replaces whatever modifiers the page used.
	ImageSizeSuffix = "._AC_UL320_.jpg"

	maxRating = 5.0
)

var (
	// ErrKeywordMissing is returned when no search keyword was supplied.
	ErrKeywordMissing = errors.New("keyword parameter is required")
	// ErrKeywordTooShort is returned for keywords below MinKeywordLength.
	ErrKeywordTooShort = fmt.Errorf("keyword must be at least %d characters", MinKeywordLength)
)

var (
	ratingPattern  = regexp.MustCompile(`\d+(?:\.\d+)?`)
	reviewsPattern = regexp.MustCompile(`\(?(\d{1,3}(?:,\d{3})+|\d+)\)?`)
)

// ValidateProduct ensures the extractor captured a usable title.
func ValidateProduct(p *models.Product) error {
	if p == nil {
		return fmt.Errorf("product is nil")
	}
	title := strings.TrimSpace(p.Title)
	if title == "" || title == TitleNotFound {
		return fmt.Errorf("product missing title")
	}
	return nil
}

// ValidateKeyword trims the keyword and checks it is long enough to search for.
func ValidateKeyword(keyword string) (string, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return "", ErrKeywordMissing
	}
	if utf8.RuneCountInString(keyword) < MinKeywordLength {
		return "", ErrKeywordTooShort
	}
	return keyword, nil
}

// NormalizeTitle collapses whitespace and truncates to MaxTitleLength runes.
func NormalizeTitle(raw string) string {
	title := strings.Join(strings.Fields(raw), " ")
	if utf8.RuneCountInString(title) <= MaxTitleLength {
		return title
	}
	runes := []rune(title)
	return strings.TrimSpace(string(runes[:MaxTitleLength]))
}

// ParseRating returns the first decimal number in raw, or NotAvailable.
func ParseRating(raw string) string {
	match := ratingPattern.FindString(raw)
	if match == "" {
		return NotAvailable
	}
	value, err := strconv.ParseFloat(match, 64)
	if err != nil || value < 0 || value > maxRating {
		return NotAvailable
	}
	return match
}

// ParseReviewCount extracts a review count such as "(1,234)"; anything unusable is 0.
func ParseReviewCount(raw string) int {
	match := reviewsPattern.FindStringSubmatch(raw)
	if len(match) < 2 {
		return 0
	}
	count, err := strconv.Atoi(strings.ReplaceAll(match[1], ",", ""))
	if err != nil || count < 0 {
		return 0
	}
	return count
}

// NormalizeImageURL strips size modifiers from an absolute image URL and
// appends ImageSizeSuffix. Relative or malformed values become NotAvailable.
func NormalizeImageURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return NotAvailable
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return NotAvailable
	}

	base := raw
	if idx := strings.Index(base, ImageSizeDelimiter); idx >= 0 {
		base = base[:idx]
	} else {
		if idx := strings.IndexAny(base, "?#"); idx >= 0 {
			base = base[:idx]
		}
		base = strings.TrimSuffix(base, path.Ext(parsed.Path))
	}
	return base + ImageSizeSuffix
}
