package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aluiziolira/go-scrape-search/models"
	"github.com/aluiziolira/go-scrape-search/parser"
	"github.com/aluiziolira/go-scrape-search/pipeline"
	"github.com/aluiziolira/go-scrape-search/scraper"
)

// NewSearchCmd creates the search command.
func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <keyword>",
		Short: "Search once and print the extracted products",
		Long: `Search fetches the results page for a keyword and writes the extracted
products to stdout (or --output) as JSON lines or CSV. Logs go to stderr.

Examples:
  scraper search "usb c hub"
  scraper search wireless mouse --format csv -o mice.csv`,
		Args: cobra.MinimumNArgs(1),
		RunE: runSearchCmd,
	}

	cmd.Flags().StringP("format", "f", "json", "Output format: json or csv")
	cmd.Flags().StringP("output", "o", "", "Output file (default stdout)")
	addFetchFlags(cmd)

	return cmd
}

func runSearchCmd(cmd *cobra.Command, args []string) error {
	keyword, err := parser.ValidateKeyword(strings.Join(args, " "))
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, _ := newLogger(cfg.Verbose, os.Stderr)

	format, _ := cmd.Flags().GetString("format")
	outputFile, _ := cmd.Flags().GetString("output")

	s, err := scraper.NewScraper(cfg, logger)
	if err != nil {
		return fmt.Errorf("initialising scraper: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := s.Search(ctx, keyword)
	if err != nil {
		return fmt.Errorf("%s (HTTP %d): %w", scraper.Message(err), scraper.StatusCode(err), err)
	}

	if err := writeProducts(cmd.OutOrStdout(), outputFile, strings.ToLower(format), result.Products); err != nil {
		return err
	}

	logger.Info("search summary",
		slog.String("search_id", result.ID),
		slog.Int("products", result.TotalCount()),
		slog.Int("dropped", result.DroppedCount),
		slog.Duration("duration", result.Duration()),
	)
	return nil
}

// writeProducts renders products to path, or to stdout when path is empty.
func writeProducts(stdout io.Writer, path, format string, products []*models.Product) (err error) {
	out := stdout
	if path != "" {
		file, createErr := os.Create(path) //nolint:gosec // path comes from the operator
		if createErr != nil {
			return fmt.Errorf("create output: %w", createErr)
		}
		defer func() {
			if cerr := file.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("close output: %w", cerr)
			}
		}()
		out = file
	}

	writer, err := pipeline.NewWriter(format, out)
	if err != nil {
		return err
	}
	if err := writer.Write(products); err != nil {
		return fmt.Errorf("write products: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("flush products: %w", err)
	}
	return nil
}
