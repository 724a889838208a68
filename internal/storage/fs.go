package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/wordhop/internal/checksum"
	"github.com/starford/wordhop/internal/models"
)

// ErrNotVocabulary is returned when writing a file that is neither a word
// list nor an encoded graph.
var ErrNotVocabulary = errors.New("storage: not a vocabulary file")

const tmpPattern = ".wordhop-tmp-*"

// FS implements Provider on a local vocabulary directory.
type FS struct {
	root string
}

// NewFS opens the vocabulary directory at root, which must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// resolve maps a slash-separated path inside the directory to an absolute
// one. Absolute paths and paths climbing out of the root are rejected.
func (f *FS) resolve(rel string) (string, error) {
	if rel == "" || rel == "." {
		return f.root, nil
	}
	local := filepath.FromSlash(rel)
	if !filepath.IsLocal(local) {
		return "", fmt.Errorf("storage: path outside vocabulary directory: %s", rel)
	}
	return filepath.Join(f.root, local), nil
}

// List returns every word list and encoded graph under dir with its
// checksum. Hidden files and directories are skipped.
func (f *FS) List(dir string) ([]models.VocabularyFile, error) {
	base, err := f.resolve(dir)
	if err != nil {
		return nil, err
	}
	var out []models.VocabularyFile
	err = filepath.WalkDir(base, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if p != base && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !IsVocabularyFile(d.Name()) {
			return nil
		}
		file, err := f.describe(p, d)
		if err != nil {
			return err
		}
		out = append(out, file)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	return out, nil
}

func (f *FS) describe(p string, d fs.DirEntry) (models.VocabularyFile, error) {
	info, err := d.Info()
	if err != nil {
		return models.VocabularyFile{}, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return models.VocabularyFile{}, err
	}
	rel, err := filepath.Rel(f.root, p)
	if err != nil {
		return models.VocabularyFile{}, err
	}
	return models.VocabularyFile{
		Path:      filepath.ToSlash(rel),
		Checksum:  checksum.Sum(data),
		UpdatedAt: info.ModTime(),
	}, nil
}

// Read returns the contents of a vocabulary file.
func (f *FS) Read(path string) ([]byte, error) {
	abs, err := f.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	}
	return data, nil
}

// Write replaces a vocabulary file through a synced temp file and a rename,
// so the watcher and readers never see a partial file.
func (f *FS) Write(path string, content []byte) error {
	if !IsVocabularyFile(path) {
		return fmt.Errorf("%w: %s", ErrNotVocabulary, path)
	}
	abs, err := f.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}
	return writeAtomic(abs, content)
}

func writeAtomic(abs string, content []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(abs), tmpPattern)
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err = os.Rename(tmp.Name(), abs); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	return nil
}

// Delete removes a vocabulary file. Missing files report os.ErrNotExist.
func (f *FS) Delete(path string) error {
	abs, err := f.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		return fmt.Errorf("storage: delete %s: %w", path, err)
	}
	return nil
}
