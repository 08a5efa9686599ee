package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/aluiziolira/go-scrape-search/config"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scraper",
		Short: "Marketplace search results scraper",
		Long: `Scraper fetches the first page of marketplace search results for a keyword
and extracts each listing's title, star rating, review count and image URL.

Configuration is layered: built-in defaults, SCRAPER_* environment variables
(optionally loaded from a .env file), a YAML file given with --config, and
finally command-line flags.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "", "Path to a YAML configuration file")
	cmd.PersistentFlags().String("env-file", ".env", "Dotenv file to load before reading SCRAPER_* variables")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewSearchCmd())
	cmd.AddCommand(NewExtractCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// addFetchFlags registers the flags shared by commands that hit the marketplace.
func addFetchFlags(cmd *cobra.Command) {
	cmd.Flags().Duration("delay", 0, "Politeness delay before each request (default from config: 1s)")
	cmd.Flags().Duration("random-delay", 0, "Random jitter added to the delay")
	cmd.Flags().Duration("timeout", 0, "Upstream request timeout (default from config: 10s)")
	cmd.Flags().String("search-url", "", "Search endpoint, e.g. https://www.amazon.com/s")
}

// loadConfig resolves the layered configuration for cmd and validates it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("verbose") {
		cfg.Verbose, _ = flags.GetBool("verbose")
	}
	if flags.Lookup("delay") != nil {
		if flags.Changed("delay") {
			cfg.Delay, _ = flags.GetDuration("delay")
		}
		if flags.Changed("random-delay") {
			cfg.RandomDelay, _ = flags.GetDuration("random-delay")
		}
		if flags.Changed("timeout") {
			cfg.Timeout, _ = flags.GetDuration("timeout")
		}
		if flags.Changed("search-url") {
			cfg.SearchURL, _ = flags.GetString("search-url")
		}
	}
	if flags.Lookup("addr") != nil && flags.Changed("addr") {
		cfg.ListenAddr, _ = flags.GetString("addr")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(verbose bool, out *os.File) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(out) {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
