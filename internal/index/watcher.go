package index

import (
	"context"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/wordhop/internal/checksum"
	"github.com/starford/wordhop/internal/storage"
)

// Event kinds passed to EventCallback.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

const (
	// settleDelay lets editors finish multi-chunk writes before a rebuild.
	settleDelay    = 150 * time.Millisecond
	reconcileDelay = 200 * time.Millisecond
)

// EventCallback is called after a watcher-driven snapshot change with the
// affected vocabulary name. kind is one of EventCreated, EventUpdated, EventDeleted.
type EventCallback func(kind string, name string)

// Watch keeps the snapshot index in step with the vocabulary directory until
// ctx is cancelled.
//
// Writes are coalesced per file and rebuilt once the file has been quiet for
// a short moment; files whose checksum did not change are not rebuilt.
// Directories created at runtime are watched and their files indexed. A
// rename drops the old snapshot at once and schedules a reconciliation pass
// that indexes the new name. cb, when non-nil, runs after each change.
func Watch(ctx context.Context, db *DB, store storage.Provider, root string, logger *slog.Logger, cb EventCallback) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	if err := watchTree(fsw, root); err != nil {
		return err
	}

	w := &watcher{
		fsw:       fsw,
		db:        db,
		store:     store,
		root:      root,
		logger:    logger,
		notify:    cb,
		pending:   make(map[string]string),
		settle:    idleTimer(),
		reconcile: idleTimer(),
	}
	if w.notify == nil {
		w.notify = func(string, string) {}
	}
	defer w.settle.Stop()
	defer w.reconcile.Stop()

	logger.Info("watcher: started", slog.String("root", root))
	for {
		select {
		case <-ctx.Done():
			logger.Info("watcher: stopped")
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case <-w.settle.C:
			w.flush()
		case <-w.reconcile.C:
			w.reconcileAll()
		case werr, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", werr.Error()))
		}
	}
}

type watcher struct {
	fsw    *fsnotify.Watcher
	db     *DB
	store  storage.Provider
	root   string
	logger *slog.Logger
	notify EventCallback

	// pending maps a relative path awaiting rebuild to its event kind.
	pending   map[string]string
	settle    *time.Timer
	reconcile *time.Timer
}

func idleTimer() *time.Timer {
	t := time.NewTimer(time.Hour)
	t.Stop()
	return t
}

func (w *watcher) handle(ev fsnotify.Event) {
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if !hidden(ev.Name) {
				w.addDir(ev.Name)
			}
			return
		}
	}
	if !storage.IsVocabularyFile(ev.Name) {
		return
	}
	rel, ok := w.rel(ev.Name)
	if !ok {
		return
	}

	switch {
	case ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write):
		w.queue(rel, ev.Has(fsnotify.Create))
	case ev.Has(fsnotify.Remove):
		delete(w.pending, rel)
		w.remove(rel)
	case ev.Has(fsnotify.Rename):
		// The new path, if still watched, arrives as its own Create.
		delete(w.pending, rel)
		w.remove(rel)
		w.reconcile.Reset(reconcileDelay)
	}
}

func (w *watcher) queue(rel string, created bool) {
	switch {
	case created:
		w.pending[rel] = EventCreated
	case w.pending[rel] == "":
		w.pending[rel] = EventUpdated
	}
	w.settle.Reset(settleDelay)
}

// addDir watches a new directory tree and queues the files already in it.
func (w *watcher) addDir(dir string) {
	if err := watchTree(w.fsw, dir); err != nil {
		w.logger.Warn("watcher: add dir failed", slog.String("path", dir), slog.String("error", err.Error()))
		return
	}
	w.logger.Debug("watcher: watching new dir", slog.String("path", dir))
	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if p != dir && hidden(p) {
				return filepath.SkipDir
			}
			return nil
		}
		if !storage.IsVocabularyFile(p) {
			return nil
		}
		if rel, ok := w.rel(p); ok {
			w.queue(rel, true)
		}
		return nil
	})
}

func (w *watcher) flush() {
	for _, rel := range slices.Sorted(maps.Keys(w.pending)) {
		w.index(rel, w.pending[rel])
	}
	clear(w.pending)
}

// index rebuilds the snapshot of one file unless its checksum is unchanged.
func (w *watcher) index(rel, kind string) {
	if w.shadowed(rel) {
		w.logger.Debug("watcher: shadowed", slog.String("path", rel))
		return
	}
	data, err := w.store.Read(rel)
	if err != nil {
		w.logger.Warn("watcher: read failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	name := storage.VocabularyName(rel)
	if cs, _ := w.db.GetChecksum(name); cs != "" && cs == checksum.Sum(data) {
		w.logger.Debug("watcher: unchanged", slog.String("vocabulary", name))
		return
	}
	if err := IndexFile(w.db, rel, data); err != nil {
		w.logger.Warn("watcher: index failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	w.logger.Debug("watcher: indexed", slog.String("vocabulary", name), slog.String("op", kind))
	w.notify(kind, name)
}

// remove drops the snapshot of rel, or falls back to the next file backing
// the same vocabulary when one is still on disk.
func (w *watcher) remove(rel string) {
	if alt, ok := w.survivor(rel); ok {
		w.index(alt, EventUpdated)
		return
	}
	name := storage.VocabularyName(rel)
	if err := w.db.DeleteVocabulary(name); err != nil {
		w.logger.Warn("watcher: delete failed", slog.String("vocabulary", name), slog.String("error", err.Error()))
		return
	}
	w.logger.Debug("watcher: deleted", slog.String("vocabulary", name))
	w.notify(EventDeleted, name)
}

// reconcileAll drops snapshots whose file is gone and indexes files that
// are missing or out of date.
func (w *watcher) reconcileAll() {
	checksums, err := w.db.AllChecksums()
	if err != nil {
		w.logger.Warn("reconcile: checksums failed", slog.String("error", err.Error()))
		return
	}
	files, err := w.store.List("")
	if err != nil {
		w.logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	files, _ = storage.Canonical(files)
	onDisk := make(map[string]struct{}, len(files))
	for _, f := range files {
		name := storage.VocabularyName(f.Path)
		onDisk[name] = struct{}{}
		if checksums[name] != f.Checksum {
			w.index(f.Path, EventCreated)
		}
	}
	for name := range checksums {
		if _, ok := onDisk[name]; !ok {
			if err := w.db.DeleteVocabulary(name); err == nil {
				w.logger.Debug("reconcile: removed stale", slog.String("vocabulary", name))
				w.notify(EventDeleted, name)
			}
		}
	}
}

// shadowed reports whether a file that outranks rel exists for the same
// vocabulary.
func (w *watcher) shadowed(rel string) bool {
	for _, alt := range storage.Alternates(rel) {
		if !storage.Outranks(alt, rel) {
			return false
		}
		if w.exists(alt) {
			return true
		}
	}
	return false
}

// survivor returns the best file still on disk for rel's vocabulary.
func (w *watcher) survivor(rel string) (string, bool) {
	for _, alt := range storage.Alternates(rel) {
		if w.exists(alt) {
			return alt, true
		}
	}
	return "", false
}

func (w *watcher) exists(rel string) bool {
	info, err := os.Stat(filepath.Join(w.root, filepath.FromSlash(rel)))
	return err == nil && !info.IsDir()
}

func (w *watcher) rel(abs string) (string, bool) {
	rel, err := filepath.Rel(w.root, abs)
	if err != nil {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// watchTree adds dir and all its subdirectories to fsw.
func watchTree(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != dir && hidden(p) {
			return filepath.SkipDir
		}
		return fsw.Add(p)
	})
}

func hidden(p string) bool {
	return strings.HasPrefix(filepath.Base(p), ".")
}
