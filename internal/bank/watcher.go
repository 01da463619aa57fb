package bank

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/glossaryqf/internal/glossary"
	"github.com/starford/glossaryqf/internal/storage"
)

// Watcher event kinds.
const (
	EventImported = "imported"
	EventRemoved  = "removed"
)

// EventCallback is called after a watcher-driven bank change.
type EventCallback func(kind string, path string)

const reconcileDelay = 200 * time.Millisecond

// Watch starts an fsnotify watcher on the workspace root and keeps the bank
// in step with glossary documents until ctx is cancelled. cb, if non-nil,
// runs after each successful change.
//
// Directories created at runtime join the watch list. Rename events trigger
// a reconciliation pass that drops sources whose files no longer exist.
func Watch(ctx context.Context, db *DB, store storage.Provider, im *glossary.Importer, root string, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

	notify := func(kind, path string) {
		if cb != nil {
			cb(kind, path)
		}
	}

	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(reconcileDelay)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(reconcileDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			reconcile(db, store, im, logger, notify)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			absPath := ev.Name

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, absPath); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", absPath),
							slog.String("error", addErr.Error()))
					}
					importNewDir(db, store, im, root, absPath, logger, notify)
					continue
				}
			}

			if !storage.IsDocument(absPath) {
				continue
			}

			rel, relErr := filepath.Rel(root, absPath)
			if relErr != nil {
				continue
			}
			rel = filepath.ToSlash(rel)

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				data, readErr := store.Read(rel)
				if readErr != nil {
					logger.Warn("watcher: read failed", slog.String("path", rel), slog.String("error", readErr.Error()))
					continue
				}
				n, changed, impErr := importIfChanged(db, im, rel, data)
				if impErr != nil {
					logger.Warn("watcher: import failed", slog.String("path", rel), slog.String("error", impErr.Error()))
					continue
				}
				if !changed {
					logger.Debug("watcher: unchanged", slog.String("path", rel))
					continue
				}
				logger.Debug("watcher: imported", slog.String("path", rel), slog.Int("questions", n))
				notify(EventImported, rel)

			case ev.Op&fsnotify.Remove != 0:
				if delErr := db.DeleteSource(rel); delErr != nil {
					logger.Debug("watcher: delete skipped", slog.String("path", rel), slog.String("error", delErr.Error()))
					continue
				}
				logger.Debug("watcher: removed", slog.String("path", rel))
				notify(EventRemoved, rel)

			case ev.Op&fsnotify.Rename != 0:
				// Rename fires on the old path only; the new path arrives as
				// a Create if it stays inside a watched directory.
				if delErr := db.DeleteSource(rel); delErr == nil {
					logger.Debug("watcher: rename old removed", slog.String("path", rel))
					notify(EventRemoved, rel)
				}
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// reconcile drops sources without a file on disk and imports documents whose
// checksum differs from the stored one.
func reconcile(db *DB, store storage.Provider, im *glossary.Importer, logger *slog.Logger, notify EventCallback) {
	checksums, err := db.SourceChecksums()
	if err != nil {
		logger.Warn("reconcile: source checksums failed", slog.String("error", err.Error()))
		return
	}

	metas, err := store.List("")
	if err != nil {
		logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]string, len(metas))
	for _, m := range metas {
		disk[m.Path] = m.Checksum
	}

	for p := range checksums {
		if _, ok := disk[p]; ok {
			continue
		}
		if delErr := db.DeleteSource(p); delErr == nil {
			logger.Debug("reconcile: removed stale", slog.String("path", p))
			notify(EventRemoved, p)
		}
	}

	for p, cs := range disk {
		if checksums[p] == cs {
			continue
		}
		data, readErr := store.Read(p)
		if readErr != nil {
			continue
		}
		if _, impErr := ImportFile(db, im, p, data); impErr == nil {
			logger.Debug("reconcile: imported", slog.String("path", p))
			notify(EventImported, p)
		}
	}
}

// importNewDir imports documents already present in a newly created directory.
func importNewDir(db *DB, store storage.Provider, im *glossary.Importer, root, dirPath string, logger *slog.Logger, notify EventCallback) {
	_ = filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !storage.IsDocument(path) {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		data, readErr := store.Read(rel)
		if readErr != nil {
			return nil
		}
		if _, changed, impErr := importIfChanged(db, im, rel, data); impErr == nil && changed {
			logger.Debug("watcher: imported from new dir", slog.String("path", rel))
			notify(EventImported, rel)
		}
		return nil
	})
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
