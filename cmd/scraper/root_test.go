package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/aluiziolira/go-scrape-search/parser"
)

func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()

	if cmd.Use != "scraper" {
		t.Errorf("expected use 'scraper', got %q", cmd.Use)
	}
	if cmd.Version == "" {
		t.Error("expected non-empty version")
	}

	flag := cmd.PersistentFlags().Lookup("verbose")
	if flag == nil {
		t.Fatal("expected verbose flag")
	}
	if flag.Shorthand != "v" {
		t.Errorf("expected shorthand 'v', got %q", flag.Shorthand)
	}

	want := map[string]bool{"serve": false, "search": false, "extract": false, "version": false}
	for _, sub := range cmd.Commands() {
		if _, ok := want[sub.Name()]; ok {
			want[sub.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("expected subcommand %q", name)
		}
	}
}

// parsedCommand returns the subcommand named name with args parsed, without running it.
func parsedCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	root := NewRootCmd()
	cmd, rest, err := root.Find(args)
	if err != nil {
		t.Fatalf("find command: %v", err)
	}
	if err := cmd.ParseFlags(rest); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return cmd
}

func TestLoadConfigPrecedence(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "scraper.yaml")
	if err := os.WriteFile(configPath, []byte("delay: 3s\ntimeout: 4s\nlisten_addr: \":9000\"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("SCRAPER_PARALLEL=5\n"), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("SCRAPER_PARALLEL") })

	cmd := parsedCommand(t, "serve", "--config", configPath, "--env-file", envPath, "--delay", "2s")
	cfg, err := loadConfig(cmd)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Delay != 2*time.Second {
		t.Errorf("delay = %v, want flag value 2s", cfg.Delay)
	}
	if cfg.Timeout != 4*time.Second {
		t.Errorf("timeout = %v, want file value 4s", cfg.Timeout)
	}
	if cfg.ListenAddr != ":9000" {
		t.Errorf("listen addr = %q, want :9000", cfg.ListenAddr)
	}
	if cfg.Parallelism != 5 {
		t.Errorf("parallelism = %d, want env value 5", cfg.Parallelism)
	}
}

func TestLoadConfigMissingEnvFileIsIgnored(t *testing.T) {
	cmd := parsedCommand(t, "serve", "--env-file", filepath.Join(t.TempDir(), "absent.env"))
	if _, err := loadConfig(cmd); err != nil {
		t.Fatalf("load config: %v", err)
	}
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	cmd := parsedCommand(t, "serve", "--timeout=-1s")
	if _, err := loadConfig(cmd); err == nil {
		t.Fatal("expected validation error for negative timeout")
	}
}

func TestLoadConfigRejectsDisabledDelay(t *testing.T) {
	cmd := parsedCommand(t, "serve", "--delay=0s")
	if _, err := loadConfig(cmd); err == nil || !strings.Contains(err.Error(), "delay") {
		t.Fatalf("expected delay validation error, got %v", err)
	}
}

func TestSearchRejectsShortKeywordBeforeFetching(t *testing.T) {
	root := NewRootCmd()
	root.SetArgs([]string{"search", "a", "--search-url", "http://127.0.0.1:1/s"})
	root.SetOut(&bytes.Buffer{})

	err := root.Execute()
	if !errors.Is(err, parser.ErrKeywordTooShort) {
		t.Fatalf("expected ErrKeywordTooShort, got %v", err)
	}
}

func TestExtractCommand(t *testing.T) {
	page := `<html><body>
		<div data-component-type="s-search-result">
			<h2><a><span>Standing Desk</span></a></h2>
			<span class="a-icon-alt">4.4 out of 5 stars</span>
			<a href="/dp/B01#customerReviews"><span>(2,310)</span></a>
			<img class="s-image" src="https://m.media-amazon.com/images/I/desk._AC_UY218_.jpg">
		</div>
		<div data-component-type="s-search-result"><span class="a-icon-alt">3.0 out of 5 stars</span></div>
	</body></html>`
	path := filepath.Join(t.TempDir(), "results.html")
	if err := os.WriteFile(path, []byte(page), 0o600); err != nil {
		t.Fatalf("write page: %v", err)
	}

	var out bytes.Buffer
	root := NewRootCmd()
	root.SetArgs([]string{"extract", path, "--format", "csv"})
	root.SetOut(&out)

	if err := root.Execute(); err != nil {
		t.Fatalf("extract: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want header plus one product:\n%s", len(lines), out.String())
	}
	want := "1,Standing Desk,4.4,2310,https://m.media-amazon.com/images/I/desk._AC_UL320_.jpg"
	if lines[1] != want {
		t.Fatalf("row = %q, want %q", lines[1], want)
	}
}

func TestWriteProductsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	if err := writeProducts(&bytes.Buffer{}, path, "json", nil); err != nil {
		t.Fatalf("write products: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("output file not created: %v", err)
	}

	if err := writeProducts(&bytes.Buffer{}, "", "xml", nil); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
