package index

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/wordhop/internal/apperr"
	"github.com/starford/wordhop/internal/checksum"
	"github.com/starford/wordhop/internal/graphfile"
	"github.com/starford/wordhop/internal/metrics"
	"github.com/starford/wordhop/internal/models"
	"github.com/starford/wordhop/internal/storage"
	"github.com/starford/wordhop/internal/wordgraph"
	"github.com/starford/wordhop/internal/wordlist"
)

// Sync walks the vocabulary directory and brings the snapshots up to date:
//   - new/changed files are parsed, built or decoded, and saved
//   - vocabularies whose file was removed are deleted
//
// Changed files are built concurrently; a file that fails to build is logged
// and skipped so one bad file does not block the rest. When several files map
// to one vocabulary name only the one chosen by storage.Canonical is indexed.
func Sync(ctx context.Context, db *DB, store storage.Provider, logger *slog.Logger) error {
	files, err := store.List("")
	if err != nil {
		return err
	}

	files, shadowed := storage.Canonical(files)
	for _, f := range shadowed {
		logger.Warn("sync: shadowed file ignored", slog.String("path", f.Path), slog.String("vocabulary", storage.VocabularyName(f.Path)))
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	var saveMu sync.Mutex
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	disk := make(map[string]struct{}, len(files))
	for _, f := range files {
		name := storage.VocabularyName(f.Path)
		disk[name] = struct{}{}

		if checksums[name] == f.Checksum {
			continue
		}

		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			data, err := store.Read(f.Path)
			if err != nil {
				logger.Warn("sync: read failed", slog.String("path", f.Path), slog.String("error", err.Error()))
				return nil
			}
			row, enc, err := buildSnapshot(f.Path, data)
			if err != nil {
				logger.Warn("sync: build failed", slog.String("path", f.Path), slog.String("error", err.Error()))
				return nil
			}
			saveMu.Lock()
			defer saveMu.Unlock()
			if err := db.SaveGraph(row, enc); err != nil {
				logger.Warn("sync: save failed", slog.String("path", f.Path), slog.String("error", err.Error()))
				return nil
			}
			logger.Debug("sync: indexed", slog.String("vocabulary", row.Name), slog.Int("words", len(enc)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// Remove stale entries.
	for name := range checksums {
		if _, ok := disk[name]; !ok {
			if err := db.DeleteVocabulary(name); err != nil {
				logger.Warn("sync: delete failed", slog.String("vocabulary", name), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("vocabulary", name))
			}
		}
	}

	return nil
}

// IndexFile builds the snapshot for one vocabulary file and saves it.
func IndexFile(db *DB, path string, data []byte) error {
	row, enc, err := buildSnapshot(path, data)
	if err != nil {
		return err
	}
	return db.SaveGraph(row, enc)
}

// buildSnapshot turns a vocabulary file into its canonical encoded graph.
// Word lists run edge discovery; encoded graphs are decoded, which validates
// them and normalizes legacy fields.
func buildSnapshot(path string, data []byte) (VocabularyRow, models.EncodedGraph, error) {
	name := storage.VocabularyName(path)
	row := VocabularyRow{
		Name:      name,
		Title:     name,
		Checksum:  checksum.Sum(data),
		UpdatedAt: time.Now(),
	}

	start := time.Now()
	if storage.IsWordList(path) {
		res, err := wordlist.Parse(data)
		if err != nil {
			metrics.GraphLoadErrors.WithLabelValues("parse").Inc()
			return row, nil, fmt.Errorf("%w: parse %s: %v", apperr.ErrMalformed, path, err)
		}
		row.Title = res.Title(name)
		g := wordgraph.NewFromVocabulary(res.Words)
		metrics.ObserveBuild(metrics.SourceWordList, time.Since(start))
		return row, g.ToEncoded(), nil
	}

	format, ok := graphfile.FormatFromPath(path)
	if !ok {
		return row, nil, fmt.Errorf("%w: unsupported vocabulary file %s", apperr.ErrMalformed, path)
	}
	raw, err := graphfile.Unmarshal(format, data)
	if err != nil {
		metrics.GraphLoadErrors.WithLabelValues("decode").Inc()
		return row, nil, fmt.Errorf("%w: %v", apperr.ErrMalformed, err)
	}
	g, err := wordgraph.NewFromEncoded(raw)
	if err != nil {
		metrics.GraphLoadErrors.WithLabelValues("format").Inc()
		return row, nil, fmt.Errorf("decode %s: %w", path, err)
	}
	metrics.ObserveBuild(metrics.SourceEncoded, time.Since(start))
	return row, g.ToEncoded(), nil
}
