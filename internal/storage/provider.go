// Package storage defines the vocabulary directory abstraction.
package storage

import (
	"path/filepath"
	"strings"

	"github.com/starford/wordhop/internal/models"
)

// File extensions recognised in the vocabulary directory.
const (
	ExtWordList = ".txt"
	ExtJSON     = ".json"
	ExtMsgpack  = ".mp"
)

// Provider is the interface for vocabulary file operations.
type Provider interface {
	// List returns metadata for every vocabulary file under dir (relative to the root).
	List(dir string) ([]models.VocabularyFile, error)
	// Read returns the raw bytes of the file at path (relative to the root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to the root).
	Write(path string, content []byte) error
	// Delete removes the file at path (relative to the root).
	Delete(path string) error
}

// IsVocabularyFile reports whether path names a word list or an encoded graph.
func IsVocabularyFile(path string) bool {
	switch filepath.Ext(path) {
	case ExtWordList, ExtJSON, ExtMsgpack:
		return !strings.HasPrefix(filepath.Base(path), ".")
	}
	return false
}

// IsWordList reports whether path names a raw word list.
func IsWordList(path string) bool {
	return filepath.Ext(path) == ExtWordList
}

// VocabularyName derives the vocabulary name from a file path:
// "en/basic.txt" becomes "en/basic".
func VocabularyName(path string) string {
	p := filepath.ToSlash(path)
	return strings.TrimSuffix(p, filepath.Ext(p))
}

// precedence orders the files that can back one vocabulary name. Lower wins.
var precedence = map[string]int{
	ExtMsgpack:  0,
	ExtJSON:     1,
	ExtWordList: 2,
}

// Outranks reports whether a is indexed in place of b when both map to the
// same vocabulary. Encoded graphs win over word lists, MessagePack over JSON.
func Outranks(a, b string) bool {
	return precedence[filepath.Ext(a)] < precedence[filepath.Ext(b)]
}

// Alternates returns the other paths that map to the same vocabulary as
// path, highest precedence first.
func Alternates(path string) []string {
	stem := strings.TrimSuffix(path, filepath.Ext(path))
	out := make([]string, 0, len(precedence)-1)
	for _, ext := range []string{ExtMsgpack, ExtJSON, ExtWordList} {
		if alt := stem + ext; alt != path {
			out = append(out, alt)
		}
	}
	return out
}

// Canonical keeps one file per vocabulary name, chosen by Outranks, and
// returns the files it passed over. Order is preserved.
func Canonical(files []models.VocabularyFile) (keep, shadowed []models.VocabularyFile) {
	best := make(map[string]int, len(files))
	for i, f := range files {
		name := VocabularyName(f.Path)
		if j, ok := best[name]; !ok || Outranks(f.Path, files[j].Path) {
			best[name] = i
		}
	}
	for i, f := range files {
		if best[VocabularyName(f.Path)] == i {
			keep = append(keep, f)
		} else {
			shadowed = append(shadowed, f)
		}
	}
	return keep, shadowed
}
