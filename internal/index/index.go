package index

import "github.com/starford/wordhop/internal/models"

// GraphIndex defines the interface for snapshot storage.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with fakes.
type GraphIndex interface {
	SaveGraph(v VocabularyRow, g models.EncodedGraph) error
	LoadGraph(name string) (models.EncodedGraph, error)
	DeleteVocabulary(name string) error
	GetChecksum(name string) (string, error)
	GetVocabulary(name string) (*VocabularyRow, error)
	ListVocabularies() ([]VocabularyRow, error)
	SearchWords(name, query string, limit int) ([]string, error)
	AllChecksums() (map[string]string, error)
	Close() error
}

// Verify *DB satisfies GraphIndex at compile time.
var _ GraphIndex = (*DB)(nil)
