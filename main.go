package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"dicom-viewer/internal/config"
	"dicom-viewer/internal/detect"
	"dicom-viewer/internal/logging"
	"dicom-viewer/internal/pipeline"
	"dicom-viewer/internal/pixel"
	"dicom-viewer/internal/record"
	"dicom-viewer/internal/scan"
	"dicom-viewer/internal/store"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to YAML config file")
		dir        = flag.String("dir", "", "directory to ingest (overrides config)")
		recursive  = flag.Bool("recursive", true, "descend into subdirectories")
		scanOnly   = flag.Bool("scan-only", false, "classify files without loading metadata")
		ledger     = flag.String("ledger", "", "sqlite ledger path (overrides config)")
		preview    = flag.Bool("preview", false, "export a PNG preview per series")
		previewDir = flag.String("preview-dir", "", "preview output directory (overrides config)")
		quiet      = flag.Bool("quiet", false, "suppress progress output")
	)
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Read(*configPath)
		if err != nil {
			logging.Fatal("%v", err)
		}
		cfg = loaded
	}
	if *dir != "" {
		cfg.RootDir = *dir
	}
	if *ledger != "" {
		cfg.LedgerPath = *ledger
	}
	if *previewDir != "" {
		cfg.PreviewDir = *previewDir
	}
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "recursive" {
			cfg.Recursive = *recursive
		}
	})
	if *quiet {
		logging.SetLevel(logging.LevelWarn)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := pipeline.New(detect.New())

	// Interrupt stops the current run; queued messages still drain so a
	// partial scan result is reported before exit.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, stopping...")
		p.Stop()
	}()

	pollInterval := time.Duration(cfg.PollIntervalMs) * time.Millisecond

	candidates := runScan(ctx, p, cfg.RootDir, cfg.Recursive, pollInterval, *quiet)
	printScanSummary(candidates)
	if *scanOnly {
		return
	}

	var paths []string
	for _, c := range candidates {
		if c.Class == scan.ClassRecord || c.Class == scan.ClassVideo {
			paths = append(paths, c.Path)
		}
	}
	if len(paths) == 0 {
		logging.Info("Nothing to load")
		return
	}

	series := runLoad(ctx, p, paths, pollInterval, *quiet)
	printSeriesSummary(series)

	if cfg.LedgerPath != "" {
		saveToLedger(ctx, cfg.LedgerPath, series)
	}
	if *preview || cfg.PreviewDir != "" {
		outDir := cfg.PreviewDir
		if outDir == "" {
			outDir = "previews"
		}
		exportPreviews(outDir, cfg.PreviewMaxDim, series)
	}
}

// runScan drives a scan run to completion and returns its candidates.
func runScan(ctx context.Context, p *pipeline.Pipeline, root string, recursive bool, interval time.Duration, quiet bool) []scan.Candidate {
	if !p.ScanAsync(root, recursive) {
		logging.Fatal("pipeline busy")
	}

	var candidates []scan.Candidate
	failed := false
	p.Run(ctx, interval, func(m pipeline.Message) {
		switch msg := m.(type) {
		case pipeline.Progress:
			if !quiet {
				fmt.Printf("\r%5.1f%%  %s", msg.Percent, msg.Text)
			}
		case pipeline.Completed:
			candidates = msg.Result.Candidates
		case pipeline.Error:
			failed = true
			logging.Error("scan failed: %s", msg.Text)
		}
	})
	if !quiet {
		fmt.Println()
	}
	if failed {
		os.Exit(1)
	}
	return candidates
}

// runLoad drives a load run to completion and returns its series.
func runLoad(ctx context.Context, p *pipeline.Pipeline, paths []string, interval time.Duration, quiet bool) []record.Series {
	if !p.LoadAsync(paths) {
		logging.Fatal("pipeline busy")
	}

	var series []record.Series
	failed := false
	p.Run(ctx, interval, func(m pipeline.Message) {
		switch msg := m.(type) {
		case pipeline.Progress:
			if !quiet {
				fmt.Printf("\r%5.1f%%  %s", msg.Percent, msg.Text)
			}
		case pipeline.Completed:
			series = msg.Result.Series
		case pipeline.Error:
			failed = true
			logging.Error("load failed: %s", msg.Text)
		}
	})
	if !quiet {
		fmt.Println()
	}
	if failed {
		os.Exit(1)
	}
	return series
}

func printScanSummary(candidates []scan.Candidate) {
	records := 0
	for _, c := range candidates {
		if c.Class == scan.ClassRecord || c.Class == scan.ClassVideo {
			records++
		}
	}
	fmt.Printf("Found %d record(s) among %d candidate(s)\n", records, len(candidates))
}

func printSeriesSummary(series []record.Series) {
	fmt.Printf("Organized into %d series\n", len(series))
	for _, s := range series {
		fmt.Printf("  %s: %d file(s)\n", s.Key, len(s.Records))
		if logging.IsDebugEnabled() && len(s.Records) > 0 {
			fmt.Println(indent(s.Records[0].Info(), "    "))
		}
	}
}

func saveToLedger(ctx context.Context, path string, series []record.Series) {
	db, err := store.Open(ctx, path)
	if err != nil {
		logging.Error("%v", err)
		return
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Warn("failed to close ledger: %v", err)
		}
	}()

	saved, err := db.SaveSeries(ctx, series)
	if err != nil {
		logging.Error("failed to save to ledger: %v", err)
		return
	}
	logging.Info("Saved %d record(s) to ledger %s", saved, path)
}

// exportPreviews writes the first frame of the first record of each
// series as a PNG into dir.
func exportPreviews(dir string, maxDim int, series []record.Series) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logging.Error("failed to create preview directory %s: %v", dir, err)
		return
	}

	for _, s := range series {
		if len(s.Records) == 0 {
			continue
		}
		buf, err := pixel.Decode(s.Records[0].Path)
		if err != nil {
			logging.Warn("no preview for %s: %v", s.Key, err)
			continue
		}
		out := filepath.Join(dir, sanitizeName(s.Key)+".png")
		if err := buf.Display().SavePreview(out, 0, maxDim); err != nil {
			logging.Warn("no preview for %s: %v", s.Key, err)
			continue
		}
		logging.Info("Wrote preview %s", out)
	}
}

// sanitizeName maps a series key to a safe file name.
func sanitizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
		case r == '-' || r == '_' || r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
