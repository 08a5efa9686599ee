// Package main provides the entry point for the marketplace search scraper.
//
// Usage:
//
//	scraper serve
//	scraper search <keyword>
//	scraper extract <saved-page.html>
//
// See --help for all available options.
package main

func main() {
	Execute()
}
