// Package batch fills spreadsheet templates from a directory of tip-sheet images.
package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"predsheet/pkg/ocr"
	"predsheet/pkg/predictions"
	"predsheet/pkg/sheet"
)

// Runner processes images from Dir into filled copies of Template under OutDir.
type Runner struct {
	Dir          string
	Template     string
	OutDir       string
	ProcessedDir string
	Date         string
	Cutoff       float64
	DryRun       bool
	Verbose      bool

	Recognizer ocr.Recognizer
	Parser     *predictions.Parser
	// Stdout receives dry-run output; defaults to os.Stdout.
	Stdout io.Writer
}

// Result describes one processed image.
type Result struct {
	Name    string
	Records []predictions.MatchRecord
	Output  string
}

func (r *Runner) logV(format string, args ...any) {
	if r.Verbose {
		log.Printf(format, args...)
	}
}

func (r *Runner) stdout() io.Writer {
	if r.Stdout != nil {
		return r.Stdout
	}
	return os.Stdout
}

// OutputPath is where the filled workbook for image name is written.
func (r *Runner) OutputPath(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	return filepath.Join(r.OutDir, base+".filled"+templateExt(r.Template))
}

func templateExt(path string) string {
	if ext := strings.ToLower(filepath.Ext(path)); ext == ".xlsm" {
		return ext
	}
	return ".xlsx"
}

// ProcessFile runs OCR, parses the text and writes the filled workbook for one image.
func (r *Runner) ProcessFile(ctx context.Context, name string) (Result, error) {
	res := Result{Name: name}
	full := filepath.Join(r.Dir, name)
	data, err := os.ReadFile(full)
	if err != nil {
		return res, fmt.Errorf("read %s: %w", name, err)
	}
	text, err := ocr.ExtractText(ctx, r.Recognizer, data, r.Cutoff)
	if err != nil {
		return res, fmt.Errorf("ocr %s: %w", name, err)
	}
	res.Records = r.Parser.Parse(text)
	if r.DryRun {
		b, _ := json.Marshal(res.Records)
		fmt.Fprintf(r.stdout(), "DRY: %s records=%d %s\n", name, len(res.Records), b)
		return res, nil
	}
	if err := os.MkdirAll(r.OutDir, 0o755); err != nil {
		return res, err
	}
	out := r.OutputPath(name)
	wr, err := sheet.ApplyFile(r.Template, out, res.Records, r.Date)
	if err != nil {
		return res, fmt.Errorf("write %s: %w", name, err)
	}
	res.Output = out
	log.Printf("FILLED %s rows=%d start_row=%d out=%s", name, wr.Written, wr.Layout.StartRow, out)
	if r.ProcessedDir != "" {
		if err := moveToProcessed(full, r.ProcessedDir); err != nil {
			log.Printf("WARN failed to move processed file %s: %v", name, err)
		} else {
			r.logV("moved processed %s to %s", name, r.ProcessedDir)
		}
	}
	return res, nil
}

// Run processes files with a pool of workers and returns once all are done.
func (r *Runner) Run(ctx context.Context, files []string, workers int) []Result {
	ch := make(chan string, len(files))
	for _, f := range files {
		ch <- f
	}
	close(ch)
	var mu sync.Mutex
	var out []Result
	r.runWorkers(ctx, ch, workers, func(res Result) {
		mu.Lock()
		out = append(out, res)
		mu.Unlock()
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *Runner) runWorkers(ctx context.Context, files <-chan string, workers int, done func(Result)) {
	if workers <= 0 {
		workers = 1
	}
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range files {
				if ctx.Err() != nil {
					return
				}
				res, err := r.ProcessFile(ctx, name)
				if err != nil {
					log.Printf("ERROR %v", err)
					continue
				}
				if done != nil {
					done(res)
				}
			}
		}()
	}
	wg.Wait()
}

// Watch feeds newly created images in Dir to the worker pool until ctx is cancelled.
// Create events are debounced so half-written files are not picked up.
func (r *Runner) Watch(ctx context.Context, workers int) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(r.Dir); err != nil {
		return err
	}
	log.Printf("Watching %s (debounced) ...", r.Dir)

	fileCh := make(chan string, 256)
	go func() {
		defer close(fileCh)
		pending := map[string]time.Time{}
		ticker := time.NewTicker(250 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 {
					name := filepath.Base(ev.Name)
					if !IsSupportedExt(name) {
						continue
					}
					pending[name] = time.Now()
				}
			case <-ticker.C:
				now := time.Now()
				for name, t := range pending {
					if now.Sub(t) > 300*time.Millisecond { // stable
						select {
						case fileCh <- name:
						case <-ctx.Done():
							return
						}
						delete(pending, name)
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Printf("watch error: %v", err)
			}
		}
	}()
	r.runWorkers(ctx, fileCh, workers, nil)
	return ctx.Err()
}

// ListImageFiles returns the supported image names in dir, sorted.
func ListImageFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !IsSupportedExt(e.Name()) {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out
}

// IsSupportedExt reports whether name looks like an image the pipeline accepts.
func IsSupportedExt(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".tif", ".tiff":
		return true
	}
	return false
}

// moveToProcessed moves src into dir, falling back to copy+remove across devices.
func moveToProcessed(src, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	dst := filepath.Join(dir, filepath.Base(src))
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	return copyRemove(src, dst)
}

func copyRemove(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
