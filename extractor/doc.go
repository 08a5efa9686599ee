// Package extractor locates product listings in a search results page and
// turns each one into a models.Product.
//
// Both steps are driven by ordered selector cascades: the Locator tries its
// region strategies from most to least specific and keeps the first that
// matches, and the Extractor reads each field through its own list of
// lookups, stopping at the first that yields text. Field lookups never fail;
// missing data falls back to the sentinels defined in package parser.
package extractor
