// Package watch re-runs the analysis pass when vault files change.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/notamaton/internal/analyzer"
)

// debounceDelay batches bursts of file events (editors often write a file
// several times in quick succession) into a single analysis pass.
const debounceDelay = 500 * time.Millisecond

// Watch starts an fsnotify watcher on the vault root and re-runs the
// analyze pass, debounced, after note changes until ctx is cancelled.
// skipNames lists vault files (relative to root) whose events are ignored
// so the analyzer's own ledger and report writes do not loop.
func Watch(ctx context.Context, a *analyzer.Analyzer, vaultRoot string, skipNames []string, logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, vaultRoot); err != nil {
		return err
	}

	skip := make(map[string]struct{}, len(skipNames))
	for _, n := range skipNames {
		skip[n] = struct{}{}
	}

	logger.Info("watcher: started", slog.String("root", vaultRoot))

	var debounce *time.Timer
	var debounceCh <-chan time.Time

	schedule := func() {
		if debounce == nil {
			debounce = time.NewTimer(debounceDelay)
			debounceCh = debounce.C
		} else {
			debounce.Reset(debounceDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-debounceCh:
			if _, err := a.Analyze(ctx); err != nil {
				logger.Error("watcher: analysis failed", slog.String("error", err.Error()))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			// New directories join the watch list.
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					schedule()
					continue
				}
			}

			if !strings.HasSuffix(ev.Name, ".md") {
				continue
			}
			rel, relErr := filepath.Rel(vaultRoot, ev.Name)
			if relErr != nil {
				continue
			}
			rel = filepath.ToSlash(rel)
			if _, ignored := skip[rel]; ignored {
				continue
			}

			logger.Debug("watcher: change", slog.String("path", rel), slog.String("op", ev.Op.String()))
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// addDirsRecursive adds root and all its subdirectories to the watcher,
// skipping dot directories the way discovery does.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
