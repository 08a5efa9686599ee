package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aluiziolira/go-scrape-search/pipeline"
)

// NewExtractCmd creates the extract command.
func NewExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <file>",
		Short: "Run the extraction engine over a saved results page",
		Long: `Extract reads a search results page saved to disk and prints the products
it contains. No network request is made. Useful when checking selector
changes against captured markup.

Examples:
  scraper extract testdata/results.html
  scraper extract page.html --format csv`,
		Args: cobra.ExactArgs(1),
		RunE: runExtractCmd,
	}

	cmd.Flags().StringP("format", "f", "json", "Output format: json or csv")
	cmd.Flags().StringP("output", "o", "", "Output file (default stdout)")

	return cmd
}

func runExtractCmd(cmd *cobra.Command, args []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	logger, _ := newLogger(verbose, os.Stderr)

	file, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open page: %w", err)
	}
	defer file.Close()

	result, err := pipeline.NewPipeline(logger).RunHTML(file)
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	outputFile, _ := cmd.Flags().GetString("output")
	if err := writeProducts(cmd.OutOrStdout(), outputFile, strings.ToLower(format), result.Products); err != nil {
		return err
	}

	logger.Info("extraction summary",
		slog.String("strategy", result.Strategy),
		slog.Int("regions", result.Regions),
		slog.Int("products", len(result.Products)),
		slog.Int("dropped", result.Dropped),
	)
	return nil
}
