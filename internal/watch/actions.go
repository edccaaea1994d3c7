// Package watch implements the long-running watch command: a page snapshot
// file observed with fsnotify stands in for live document mutations, and
// every settled burst of changes triggers a rescan.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/PuerkitoBio/goquery"
	"github.com/SWORDIntel/ARTIFACTOR-sub003/internal/runtime"
	"github.com/SWORDIntel/ARTIFACTOR-sub003/models"
	"github.com/SWORDIntel/ARTIFACTOR-sub003/pkg/scanner"
	"github.com/SWORDIntel/ARTIFACTOR-sub003/pkg/source"
	"github.com/fsnotify/fsnotify"
	"github.com/urfave/cli/v2"
)

func WatchAction(c *cli.Context) error {
	logger := runtime.Logger(c.Bool("quiet"))

	ref := c.Args().First()
	if ref == "" {
		return fmt.Errorf("no snapshot file to watch: pass a path as the first argument")
	}
	if _, err := os.Stat(ref); err != nil {
		return fmt.Errorf("cannot watch %s: %w", ref, err)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := runtime.Build(ctx, logger, c.String("db"))
	if err != nil {
		return err
	}
	defer rt.Close()

	changes, err := watchFile(ctx, logger, ref)
	if err != nil {
		return err
	}

	settings := rt.Coordinator.Settings()
	sc := scanner.New(logger, c.String("host"), settings.Highlight && settings.Detection)

	// Re-read settings before each rescan so a highlight toggle applied
	// through the coordinator takes effect mid-watch.
	snapshot := source.New(nil).Loader(ref)
	load := func() (*goquery.Document, string, error) {
		current := rt.Coordinator.Settings()
		sc.SetHighlight(current.Highlight && current.Detection)
		return snapshot()
	}

	emit := func(result models.DetectionResult) {
		if err := sc.Emit(ctx, rt.Bus, result); err != nil {
			logger.Error("failed to deliver detection", "error", err)
		}
	}

	logger.Info("watching snapshot", "path", ref, "debounce", scanner.DebounceDelay)
	if err := sc.Watch(ctx, changes, load, emit); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// watchFile observes the file's directory and signals on writes to the
// file itself. Watching the directory survives editors that replace the
// file on save instead of writing it in place.
func watchFile(ctx context.Context, logger *slog.Logger, ref string) (<-chan struct{}, error) {
	abs, err := filepath.Abs(ref)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve watch path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch directory: %w", err)
	}

	changes := make(chan struct{}, 1)
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != abs {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				logger.Debug("snapshot changed", "op", event.Op.String())
				select {
				case changes <- struct{}{}:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("file watcher error", "error", err)
			}
		}
	}()
	return changes, nil
}
