package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"media-explorer/internal/logging"
	"media-explorer/internal/thumbcache"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"golang.org/x/term"
)

// config is the subset of the server's environment this tool needs.
type config struct {
	CacheDir        string `envconfig:"CACHE_DIR" default:".thumb_cache"`
	CacheMaxAgeDays int    `envconfig:"THUMB_CACHE_MAX_AGE_DAYS" default:"1"`
	CacheMaxMB      int64  `envconfig:"THUMB_CACHE_MAX_MB" default:"500"`
	LogLevel        string `envconfig:"LOG_LEVEL" default:"warn"`
}

func loadConfig() (*config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	var cfg config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.CacheMaxAgeDays < 0 || cfg.CacheMaxMB < 0 {
		return nil, fmt.Errorf("cache limits must not be negative")
	}
	return &cfg, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stdout)
		os.Exit(1)
	}

	// Create a context that cancels on interrupt signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, shutting down...")
		cancel()
	}()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logging.SetLevel(logging.ParseLevel(cfg.LogLevel))

	os.Exit(run(ctx, cfg, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(ctx context.Context, cfg *config, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	command := args[0]
	janitor := thumbcache.NewJanitor(cfg.CacheDir, thumbcache.LimitsFrom(cfg.CacheMaxAgeDays, cfg.CacheMaxMB))

	switch command {
	case "maintain":
		fmt.Fprintf(stdout, "Maintaining %s (max age %d days, max size %s)\n",
			cfg.CacheDir, cfg.CacheMaxAgeDays, humanize.IBytes(uint64(cfg.CacheMaxMB)*1024*1024))
		fmt.Fprintln(stdout, janitor.Maintain())
		return 0

	case "stats":
		return showStats(cfg.CacheDir, stdout, stderr)

	case "purge":
		fs := flag.NewFlagSet("purge", flag.ContinueOnError)
		fs.SetOutput(stderr)
		yes := fs.Bool("yes", false, "skip the confirmation prompt")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		if !*yes {
			ok, err := confirm(ctx, stdin, stdout, fmt.Sprintf("Delete every thumbnail in %s? [y/N] ", cfg.CacheDir))
			if err != nil {
				fmt.Fprintf(stderr, "Error: %v\n", err)
				return 1
			}
			if !ok {
				fmt.Fprintln(stdout, "Aborted.")
				return 1
			}
		}
		fmt.Fprintln(stdout, janitor.Purge())
		return 0

	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", sanitizeCommand(command))
		printUsage(stdout)
		return 1
	}
}

// sanitizeCommand replaces anything outside [a-zA-Z0-9_-] with '_' so the
// echoed command cannot inject terminal sequences.
func sanitizeCommand(cmd string) string {
	var b strings.Builder
	b.Grow(len(cmd))
	for _, r := range cmd {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Media Explorer Thumbnail Cache Maintenance")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage: thumbjanitor <command>")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  maintain     - Remove expired thumbnails, then the oldest until under quota")
	fmt.Fprintln(w, "  stats        - Show thumbnail count and total size")
	fmt.Fprintln(w, "  purge [-yes] - Remove every thumbnail")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  CACHE_DIR                - Thumbnail cache directory (default: .thumb_cache)")
	fmt.Fprintln(w, "  THUMB_CACHE_MAX_AGE_DAYS - Maximum thumbnail age in days, 0 disables (default: 1)")
	fmt.Fprintln(w, "  THUMB_CACHE_MAX_MB       - Maximum cache size in MiB, 0 disables (default: 500)")
}

func showStats(dir string, stdout, stderr io.Writer) int {
	count, total, err := thumbcache.DirStats(dir)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintf(stdout, "Cache %s does not exist\n", dir)
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "Cache:      %s\n", dir)
	fmt.Fprintf(stdout, "Thumbnails: %s\n", humanize.Comma(int64(count)))
	fmt.Fprintf(stdout, "Size:       %s\n", humanize.IBytes(uint64(total)))
	return 0
}

// confirm asks a yes/no question. Without a terminal on stdin it refuses
// rather than reading piped input as consent.
func confirm(ctx context.Context, stdin io.Reader, stdout io.Writer, prompt string) (bool, error) {
	if f, ok := stdin.(*os.File); ok && !term.IsTerminal(int(f.Fd())) {
		return false, fmt.Errorf("stdin is not a terminal; pass -yes to purge non-interactively")
	}

	fmt.Fprint(stdout, prompt)
	answer := make(chan string, 1)
	go func() {
		line, _ := bufio.NewReader(stdin).ReadString('\n')
		answer <- strings.ToLower(strings.TrimSpace(line))
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case a := <-answer:
		return a == "y" || a == "yes", nil
	}
}
