package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"runtime"
	"time"

	"predsheet/pkg/config"
	"predsheet/pkg/ocr"
	"predsheet/pkg/predictions"
	"predsheet/process/batch"
)

// Scans a directory of tip-sheet images and writes one filled template per image,
// optionally watching the directory for new files.
func main() {
	dir := flag.String("dir", "inbox", "directory to scan for images")
	tpl := flag.String("template", "", "spreadsheet template to fill (required)")
	outDir := flag.String("out", "filled", "directory for filled workbooks")
	processed := flag.String("processed-dir", "processed", "move handled images here (empty keeps them)")
	date := flag.String("date", time.Now().Format("2006-01-02"), "date written into Date columns")
	configPath := flag.String("config", os.Getenv("PREDSHEET_CONFIG"), "optional YAML config file")
	dryRun := flag.Bool("dry-run", false, "only print parsed records")
	watch := flag.Bool("watch", false, "watch directory for new files")
	workers := flag.Int("workers", 0, "worker pool size (default NumCPU)")
	verbose := flag.Bool("verbose", false, "verbose per-file logging")
	flag.Parse()

	if *tpl == "" && !*dryRun {
		log.Fatal("--template is required")
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	r := &batch.Runner{
		Dir:          *dir,
		Template:     *tpl,
		OutDir:       *outDir,
		ProcessedDir: *processed,
		Date:         *date,
		Cutoff:       cfg.OCR.AutocontrastCutoff,
		DryRun:       *dryRun,
		Verbose:      *verbose,
		Recognizer:   ocr.NewTesseractRecognizer(),
		Parser:       predictions.NewParser(cfg.Parser.LeagueKeywords),
	}
	n := *workers
	if n <= 0 {
		n = runtime.NumCPU()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	files := batch.ListImageFiles(*dir)
	log.Printf("Scanning %d files (workers=%d)", len(files), n)
	results := r.Run(ctx, files, n)
	log.Printf("Processed %d/%d files", len(results), len(files))

	if *watch {
		if err := r.Watch(ctx, n); err != nil && ctx.Err() == nil {
			log.Fatalf("watch failed: %v", err)
		}
	}
}
