// Package scan implements the one-shot scan command: load one or more page
// snapshots, detect artifacts in each, and route the results through the
// running coordinator.
package scan

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/SWORDIntel/ARTIFACTOR-sub003/internal/runtime"
	"github.com/SWORDIntel/ARTIFACTOR-sub003/models"
	"github.com/SWORDIntel/ARTIFACTOR-sub003/pkg/naming"
	"github.com/SWORDIntel/ARTIFACTOR-sub003/pkg/scanner"
	"github.com/SWORDIntel/ARTIFACTOR-sub003/pkg/source"
	"github.com/urfave/cli/v2"
)

// Job is one page to scan.
type Job struct {
	Ref string
}

// Result is the outcome of scanning one page.
type Result struct {
	Ref       string            `json:"ref"`
	PageURL   string            `json:"page_url,omitempty"`
	Artifacts []ArtifactSummary `json:"artifacts,omitempty"`
	Error     string            `json:"error,omitempty"`
	ErrorType string            `json:"error_type,omitempty"`
}

// ArtifactSummary is the per-artifact output line.
type ArtifactSummary struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Kind     string `json:"kind"`
	Language string `json:"language,omitempty"`
	Size     int    `json:"size"`
	Checksum string `json:"checksum"`
	Filename string `json:"filename"`
}

// Stats aggregates a scan run.
type Stats struct {
	Pages     int `json:"pages"`
	Scanned   int `json:"scanned"`
	Failed    int `json:"failed"`
	Artifacts int `json:"artifacts"`
}

// FinalOutput is the JSON document the command prints.
type FinalOutput struct {
	Status  string   `json:"status"`
	Results []Result `json:"results"`
	Stats   Stats    `json:"stats"`
}

func ScanAction(c *cli.Context) error {
	logger := runtime.Logger(c.Bool("quiet"))

	refs := gatherRefs(c)
	if len(refs) == 0 {
		return fmt.Errorf("no pages to scan: pass file paths or URLs as arguments or via --pages")
	}

	rt, err := runtime.Build(c.Context, logger, c.String("db"))
	if err != nil {
		return err
	}
	defer rt.Close()

	src, err := newSource(c)
	if err != nil {
		return err
	}

	settings := rt.Coordinator.Settings()
	highlight := settings.Highlight && settings.Detection

	results := runWorkers(c.Context, logger, refs, workerConfig{
		workers:    c.Int("workers"),
		targetHost: c.String("host"),
		highlight:  highlight,
		namingMode: settings.NamingMode,
		src:        src,
		rt:         rt,
	})

	if c.Bool("download") {
		if err := downloadAll(c.Context, rt, results); err != nil {
			logger.Error("batch download failed", "error", err)
		}
	}

	return printOutput(results, len(refs))
}

type workerConfig struct {
	workers    int
	targetHost string
	highlight  bool
	namingMode models.NamingMode
	src        *source.Source
	rt         *runtime.Runtime
}

// runWorkers scans every ref through a small worker pool. Each worker owns
// its own scanner; per-page failures become failed results, never aborts.
func runWorkers(ctx context.Context, logger *slog.Logger, refs []string, cfg workerConfig) []Result {
	workers := cfg.workers
	if workers <= 0 {
		workers = 4
	}
	if workers > len(refs) {
		workers = len(refs)
	}

	logger.Info("starting scan", "pages", len(refs), "workers", workers)

	var wg sync.WaitGroup
	jobs := make(chan Job, len(refs))
	results := make(chan Result, len(refs))

	for w := 1; w <= workers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			sc := scanner.New(logger, cfg.targetHost, cfg.highlight)
			for job := range jobs {
				results <- scanOne(ctx, id, logger, sc, job.Ref, cfg)
			}
		}(w)
	}

	for _, ref := range refs {
		jobs <- Job{Ref: ref}
	}
	close(jobs)

	wg.Wait()
	close(results)

	all := make([]Result, 0, len(refs))
	for r := range results {
		all = append(all, r)
	}
	return all
}

func scanOne(ctx context.Context, id int, logger *slog.Logger, sc *scanner.Scanner, ref string, cfg workerConfig) Result {
	logger.Info("worker started page", "worker_id", id, "ref", ref)
	result := Result{Ref: ref}

	doc, pageURL, err := cfg.src.Load(ref)
	if err != nil {
		logger.Error("failed to load page", "worker_id", id, "ref", ref, "error", err)
		result.Error = err.Error()
		result.ErrorType = "load_error"
		return result
	}
	result.PageURL = pageURL

	detection, err := sc.Scan(doc, pageURL)
	if err != nil {
		logger.Error("scan rejected page", "worker_id", id, "ref", ref, "error", err)
		result.Error = err.Error()
		result.ErrorType = "scan_error"
		return result
	}

	if err := sc.Emit(ctx, cfg.rt.Bus, detection); err != nil {
		logger.Error("failed to deliver detection", "worker_id", id, "ref", ref, "error", err)
		result.Error = err.Error()
		result.ErrorType = "dispatch_error"
		return result
	}

	now := time.Now()
	for _, a := range detection.Artifacts {
		result.Artifacts = append(result.Artifacts, ArtifactSummary{
			ID:       a.ID,
			Title:    a.Title,
			Kind:     string(a.Kind),
			Language: a.Language,
			Size:     a.Size,
			Checksum: a.Checksum,
			Filename: naming.Filename(a.Title, a.Kind, a.Language, now, cfg.namingMode),
		})
	}

	logger.Info("worker finished page", "worker_id", id, "ref", ref, "artifacts", len(detection.Artifacts))
	return result
}

// downloadAll submits every detected artifact as one batch per page.
func downloadAll(ctx context.Context, rt *runtime.Runtime, results []Result) error {
	var ids []string
	for _, r := range results {
		for _, a := range r.Artifacts {
			ids = append(ids, a.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	msg, err := models.NewMessage(models.MsgDownloadArtifact, models.SourcePopup, models.DownloadRequest{ArtifactIDs: ids})
	if err != nil {
		return err
	}
	resp, err := rt.Bus.Send(ctx, msg)
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("download rejected: %s", resp.Error)
	}
	return nil
}

func printOutput(results []Result, pages int) error {
	stats := Stats{Pages: pages}
	for _, r := range results {
		if r.Error != "" {
			stats.Failed++
			continue
		}
		stats.Scanned++
		stats.Artifacts += len(r.Artifacts)
	}

	status := "success"
	if stats.Failed > 0 {
		status = "partial"
	}
	if stats.Scanned == 0 {
		status = "failed"
	}

	out, err := json.MarshalIndent(FinalOutput{Status: status, Results: results, Stats: stats}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func gatherRefs(c *cli.Context) []string {
	refs := c.Args().Slice()
	if pages := c.String("pages"); pages != "" {
		for _, p := range strings.Split(pages, ",") {
			if p = strings.TrimSpace(p); p != "" {
				refs = append(refs, p)
			}
		}
	}
	return refs
}

func newSource(c *cli.Context) (*source.Source, error) {
	cacheDir := c.String("cache-dir")
	if cacheDir == "" {
		return source.New(nil), nil
	}
	maxAge, err := time.ParseDuration(c.String("max-age"))
	if err != nil {
		return nil, fmt.Errorf("invalid max-age duration: %w", err)
	}
	cache, err := source.NewCache(cacheDir, maxAge)
	if err != nil {
		return nil, err
	}
	return source.New(cache), nil
}
