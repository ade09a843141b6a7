// Command ingest indexes PDF files into the knowledge base used by the API server.
//
// Usage:
//
//	ingest [-config medassist.yaml] file.pdf dir/ ...
//
// Directories are searched recursively for .pdf files.
package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"medassist/internal/app"
	"medassist/internal/config"
	"medassist/internal/indexer"
	"medassist/internal/service"
)

type fileOutcome struct {
	path   string
	result service.UploadResult
	err    error
}

func main() {
	configFile := flag.String("config", "", "YAML config file (defaults to $CONFIG_FILE)")
	verbose := flag.Bool("v", false, "log indexing progress")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <file.pdf|dir>...\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*configFile, *verbose, flag.Args()); err != nil {
		color.Red("✗ %v", err)
		os.Exit(1)
	}
}

func run(configFile string, verbose bool, args []string) error {
	cfg, err := config.LoadFile(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.VectorStore == config.VectorStoreMemory {
		return fmt.Errorf("VECTOR_STORE=%s does not outlive this process; use %s", config.VectorStoreMemory, config.VectorStoreQdrant)
	}

	level := slog.LevelWarn
	if verbose {
		level = cfg.LogLevel
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	paths, err := collectPDFs(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no PDF files found")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	components, err := app.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = components.Close()
	}()
	if err := app.ValidateEmbedder(ctx, components.Embedder, cfg.QdrantVectorSize); err != nil {
		return err
	}

	uploads := service.NewUploadService(components.Pipeline, cfg.UploadDir)

	color.Blue("Indexing %d file(s) into %s\n", len(paths), cfg.QdrantCollection)
	bar := getProgressBar(len(paths), "Indexing")

	outcomes := make([]fileOutcome, 0, len(paths))
	for _, path := range paths {
		if ctx.Err() != nil {
			break
		}
		bar.Describe(color.BlueString("Indexing %s", filepath.Base(path)))
		result, err := indexFile(ctx, uploads, path)
		outcomes = append(outcomes, fileOutcome{path: path, result: result, err: err})
		_ = bar.Add(1)
	}
	_ = bar.Finish()
	fmt.Println()

	failed := printSummary(outcomes)
	if ctx.Err() != nil {
		return fmt.Errorf("interrupted after %d of %d file(s)", len(outcomes), len(paths))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed", failed, len(paths))
	}
	return nil
}

func indexFile(ctx context.Context, uploads service.UploadService, path string) (service.UploadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return service.UploadResult{}, err
	}
	defer func() {
		_ = f.Close()
	}()
	return uploads.Upload(ctx, filepath.Base(path), f)
}

// printSummary reports one line per file and returns the number of failures.
func printSummary(outcomes []fileOutcome) int {
	failed := 0
	for _, o := range outcomes {
		switch {
		case o.err != nil:
			failed++
			color.Red("✗ %s: %v", o.path, o.err)
		case o.result.Duplicate:
			color.Yellow("= %s: already indexed as %s", o.path, o.result.DocumentID)
		default:
			color.Green("✓ %s: %d chunks (%s)%s", o.path, o.result.IndexedChunkCount, o.result.DocumentID, formatTokenStats(o.result.TokenStats))
		}
	}
	return failed
}

// formatTokenStats renders estimated tokens per chunk, or "" when there are none.
func formatTokenStats(stats *indexer.ChunkTokenStats) string {
	if stats == nil {
		return ""
	}
	return fmt.Sprintf(", tokens/chunk min %d mean %.1f p95 %d max %d", stats.Min, stats.Mean, stats.P95, stats.Max)
}

// collectPDFs expands directories into the .pdf files beneath them. Explicit file
// arguments are kept as given so a wrong extension is reported per file.
func collectPDFs(args []string) ([]string, error) {
	var paths []string
	seen := make(map[string]bool)
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(filepath.Clean(arg))
			continue
		}
		err = filepath.WalkDir(arg, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.EqualFold(filepath.Ext(p), ".pdf") {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", arg, err)
		}
	}
	return paths, nil
}

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("files"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)
}
