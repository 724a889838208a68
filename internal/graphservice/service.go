// Package graphservice coordinates the snapshot index, the active word graph
// and its linked lexicon.
package graphservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/starford/wordhop/internal/apperr"
	"github.com/starford/wordhop/internal/checksum"
	"github.com/starford/wordhop/internal/editcodec"
	"github.com/starford/wordhop/internal/graphfile"
	"github.com/starford/wordhop/internal/index"
	"github.com/starford/wordhop/internal/linker"
	"github.com/starford/wordhop/internal/metrics"
	"github.com/starford/wordhop/internal/models"
	"github.com/starford/wordhop/internal/storage"
	"github.com/starford/wordhop/internal/vocab"
	"github.com/starford/wordhop/internal/wordgraph"
	"github.com/starford/wordhop/internal/wordlist"
)

// OriginIndex marks a graph activated from the snapshot index.
const OriginIndex = "index"

// Active describes the vocabulary currently served.
type Active struct {
	Name   string `json:"name"`
	Title  string `json:"title"`
	Origin string `json:"origin"`
	Words  int    `json:"words"`
}

// WordDetail is the full view of one word.
type WordDetail struct {
	Word      string             `json:"word"`
	Node      models.EncodedNode `json:"node"`
	Connected []string           `json:"connected"`
	Edges     []models.Edge      `json:"edges"`
}

// LinkedChange is a change with its target spelled out.
type LinkedChange struct {
	Kind     linker.ChangeKind `json:"kind"`
	Position int               `json:"position"`
	Letter   string            `json:"letter,omitempty"`
	Target   string            `json:"target"`
}

// LinkedLetter is the letter view of a linked word.
type LinkedLetter struct {
	Index     int            `json:"index"`
	Char      string         `json:"char"`
	CanDelete bool           `json:"can_delete"`
	Changes   []LinkedChange `json:"changes"`
}

// LinkedGap is the gap view of a linked word.
type LinkedGap struct {
	Index   int            `json:"index"`
	Changes []LinkedChange `json:"changes"`
}

// LinkedWord is a word with every change resolved.
type LinkedWord struct {
	Word    string         `json:"word"`
	Letters []LinkedLetter `json:"letters"`
	Gaps    []LinkedGap    `json:"gaps"`
}

// PathResult is the answer to a shortest-path query.
type PathResult struct {
	From  string   `json:"from"`
	To    string   `json:"to"`
	Found bool     `json:"found"`
	Words []string `json:"words"`
	Hops  int      `json:"hops"`
}

// ErrNotLinked is returned by Changes when the active graph references
// words outside its vocabulary.
var ErrNotLinked = errors.New("graphservice: active graph could not be linked")

type state struct {
	active  Active
	graph   *wordgraph.Graph
	lex     *linker.Lexicon
	linkErr error
}

// Service serves queries against one active vocabulary. Activation builds a
// complete state and swaps it in atomically.
type Service struct {
	store  storage.Provider
	db     *index.DB
	logger *slog.Logger
	cur    atomic.Pointer[state]
}

// NewService creates a service with an empty active graph.
func NewService(store storage.Provider, db *index.DB, logger *slog.Logger) *Service {
	s := &Service{store: store, db: db, logger: logger}
	s.install(Active{}, wordgraph.New())
	return s
}

// Graph returns the active graph.
func (s *Service) Graph() *wordgraph.Graph {
	return s.cur.Load().graph
}

// Active describes the active vocabulary.
func (s *Service) Active() Active {
	return s.cur.Load().active
}

// Activate loads the indexed snapshot of name and makes it active.
func (s *Service) Activate(_ context.Context, name string) (*Active, error) {
	row, err := s.db.GetVocabulary(name)
	if err != nil {
		return nil, err
	}
	enc, err := s.db.LoadGraph(name)
	if err != nil {
		return nil, err
	}
	g, err := wordgraph.NewFromEncoded(enc)
	if err != nil {
		return nil, fmt.Errorf("graphservice: decode %s: %w", name, err)
	}
	a := s.install(Active{Name: name, Title: row.Title, Origin: OriginIndex}, g)
	s.logger.Info("graph: activated", slog.String("vocabulary", name), slog.Int("words", a.Words))
	return &a, nil
}

// Use makes a graph produced by the vocabulary loader active.
func (s *Service) Use(name string, res *vocab.Result) Active {
	a := s.install(Active{Name: name, Title: res.Title, Origin: res.Origin}, res.Graph)
	s.logger.Info("graph: activated", slog.String("vocabulary", name),
		slog.String("origin", res.Origin), slog.Int("words", a.Words))
	return a
}

// Refresh re-activates name if it is the active vocabulary. A deleted active
// vocabulary keeps being served until another one is activated.
func (s *Service) Refresh(ctx context.Context, deleted bool, name string) error {
	a := s.Active()
	if a.Origin != OriginIndex || a.Name != name {
		return nil
	}
	if deleted {
		s.logger.Warn("graph: active vocabulary removed, keeping loaded graph", slog.String("vocabulary", name))
		return nil
	}
	_, err := s.Activate(ctx, name)
	return err
}

func (s *Service) install(a Active, g *wordgraph.Graph) Active {
	st := &state{graph: g}
	st.lex, st.linkErr = linker.Link(g)
	if st.linkErr != nil {
		s.logger.Warn("graph: link failed", slog.String("vocabulary", a.Name), slog.String("error", st.linkErr.Error()))
	}
	a.Words = g.Len()
	st.active = a
	s.cur.Store(st)

	stats := g.Stats()
	metrics.SetGraphSize(stats.Words, stats.Edges)
	return a
}

// Word returns the node, connected words and edges of w.
func (s *Service) Word(_ context.Context, w string) (*WordDetail, error) {
	g := s.Graph()
	node, ok := g.Node(w)
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &WordDetail{
		Word:      w,
		Node:      editcodec.EncodeNode(w, node),
		Connected: g.ConnectedWords(w),
		Edges:     nonNilSlice(g.Edges(w)),
	}, nil
}

// Replacements returns the letters that can replace letter pos of w.
func (s *Service) Replacements(_ context.Context, w string, pos int) ([]string, error) {
	g := s.Graph()
	if !g.HasWord(w) {
		return nil, apperr.ErrNotFound
	}
	return g.PossibleReplacements(w, pos), nil
}

// Insertions returns the letters that can be inserted at gap pos of w.
func (s *Service) Insertions(_ context.Context, w string, pos int) ([]string, error) {
	g := s.Graph()
	if !g.HasWord(w) {
		return nil, apperr.ErrNotFound
	}
	return g.PossibleInsertions(w, pos), nil
}

// Changes returns the linked view of w.
func (s *Service) Changes(_ context.Context, w string) (*LinkedWord, error) {
	st := s.cur.Load()
	if st.linkErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotLinked, st.linkErr)
	}
	word, ok := st.lex.Lookup(w)
	if !ok {
		return nil, apperr.ErrNotFound
	}

	out := &LinkedWord{
		Word:    word.Text,
		Letters: make([]LinkedLetter, len(word.Letters)),
		Gaps:    make([]LinkedGap, len(word.Gaps)),
	}
	for i := range word.Letters {
		l := &word.Letters[i]
		out.Letters[i] = LinkedLetter{
			Index:     l.Index,
			Char:      string(l.Char),
			CanDelete: l.CanDelete(),
			Changes:   linkChanges(st.lex, l.Changes()),
		}
	}
	for i := range word.Gaps {
		p := &word.Gaps[i]
		out.Gaps[i] = LinkedGap{Index: p.Index, Changes: linkChanges(st.lex, p.Changes())}
	}
	return out, nil
}

func linkChanges(lex *linker.Lexicon, changes []linker.Change) []LinkedChange {
	out := make([]LinkedChange, len(changes))
	for i, c := range changes {
		lc := LinkedChange{Kind: c.Kind, Position: c.Position, Target: lex.Follow(c).Text}
		if c.Letter != 0 {
			lc.Letter = string(c.Letter)
		}
		out[i] = lc
	}
	return out
}

// Path finds a shortest chain of single edits between two words. Unknown
// words are reported as apperr.ErrNotFound; an unreachable target is a
// result with Found false.
func (s *Service) Path(_ context.Context, from, to string) (*PathResult, error) {
	g := s.Graph()
	for _, w := range []string{from, to} {
		if !g.HasWord(w) {
			return nil, fmt.Errorf("%w: %q", apperr.ErrNotFound, w)
		}
	}
	res := &PathResult{From: from, To: to, Words: []string{}}
	if words, ok := g.ShortestPath(from, to); ok {
		res.Found = true
		res.Words = words
		res.Hops = len(words) - 1
	}
	return res, nil
}

// Subgraphs returns the connected components of the active graph.
func (s *Service) Subgraphs(_ context.Context) []models.Subgraph {
	return s.Graph().ConnectedSubgraphs()
}

// Report renders the subgraph report of the active graph.
func (s *Service) Report(_ context.Context, opts wordgraph.ReportOptions) string {
	return s.Graph().SubgraphReport(opts)
}

// Stats summarizes the active graph.
func (s *Service) Stats(_ context.Context) wordgraph.Stats {
	return s.Graph().Stats()
}

// Export serializes the active graph.
func (s *Service) Export(_ context.Context, f graphfile.Format) ([]byte, error) {
	return graphfile.Marshal(f, s.Graph().ToEncoded())
}

// Search returns up to limit words of the active vocabulary starting with
// prefix, shortest first.
func (s *Service) Search(_ context.Context, prefix string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 20
	}
	a := s.Active()
	if a.Origin == OriginIndex {
		words, err := s.db.SearchWords(a.Name, prefix, limit)
		return nonNilSlice(words), err
	}

	var out []string
	for _, w := range s.Graph().Words() {
		if strings.HasPrefix(w, prefix) {
			out = append(out, w)
		}
	}
	slices.SortStableFunc(out, func(x, y string) int { return len(x) - len(y) })
	if len(out) > limit {
		out = out[:limit]
	}
	return nonNilSlice(out), nil
}

// Vocabularies lists the indexed vocabularies.
func (s *Service) Vocabularies(_ context.Context) ([]index.VocabularyRow, error) {
	rows, err := s.db.ListVocabularies()
	return nonNilSlice(rows), err
}

// CreateVocabulary writes a new word list and indexes it.
func (s *Service) CreateVocabulary(ctx context.Context, name string, content []byte) (*index.VocabularyRow, error) {
	path := wordListPath(name)
	if _, err := s.store.Read(path); err == nil {
		return nil, apperr.ErrAlreadyExists
	}
	return s.writeVocabulary(ctx, name, path, content)
}

// UpdateVocabulary replaces a word list. A non-empty ifMatch must equal the
// checksum of the current file.
func (s *Service) UpdateVocabulary(ctx context.Context, name string, content []byte, ifMatch string) (*index.VocabularyRow, error) {
	path := wordListPath(name)
	existing, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	if ifMatch != "" && !checksum.Matches(existing, ifMatch) {
		return nil, apperr.ErrConflict
	}
	return s.writeVocabulary(ctx, name, path, content)
}

func (s *Service) writeVocabulary(ctx context.Context, name, path string, content []byte) (*index.VocabularyRow, error) {
	res, err := wordlist.Parse(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrMalformed, err)
	}
	if len(res.Words) == 0 {
		return nil, fmt.Errorf("%w: word list is empty", apperr.ErrMalformed)
	}
	if err := s.store.Write(path, content); err != nil {
		return nil, err
	}
	if err := index.IndexFile(s.db, path, content); err != nil {
		return nil, err
	}
	if err := s.Refresh(ctx, false, name); err != nil {
		return nil, err
	}
	return s.db.GetVocabulary(name)
}

// UploadVocabulary stores a word list or encoded graph file under filename
// and indexes it. Existing files are replaced.
func (s *Service) UploadVocabulary(ctx context.Context, filename string, data []byte) (*index.VocabularyRow, error) {
	if !storage.IsVocabularyFile(filename) {
		return nil, fmt.Errorf("%w: unsupported file type %s", apperr.ErrMalformed, filename)
	}
	for _, alt := range storage.Alternates(filename) {
		if !storage.Outranks(alt, filename) {
			break
		}
		if _, err := s.store.Read(alt); err == nil {
			return nil, fmt.Errorf("%w: %s takes precedence over %s", apperr.ErrConflict, alt, filename)
		}
	}
	if err := index.IndexFile(s.db, filename, data); err != nil {
		return nil, err
	}
	name := storage.VocabularyName(filename)
	if err := s.store.Write(filename, data); err != nil {
		s.restoreSnapshot(filename)
		return nil, err
	}
	if err := s.Refresh(ctx, false, name); err != nil {
		return nil, err
	}
	return s.db.GetVocabulary(name)
}

// restoreSnapshot puts the index back in step with the file at path after a
// failed write: the old file is reindexed, or the snapshot dropped if there
// was none.
func (s *Service) restoreSnapshot(path string) {
	name := storage.VocabularyName(path)
	if old, err := s.store.Read(path); err == nil {
		if err := index.IndexFile(s.db, path, old); err == nil {
			return
		}
	}
	if err := s.db.DeleteVocabulary(name); err != nil {
		s.logger.Warn("graphservice: restore snapshot failed", slog.String("vocabulary", name), slog.String("error", err.Error()))
	}
}

// DeleteVocabulary removes a word list and its snapshot. The active
// vocabulary cannot be deleted.
func (s *Service) DeleteVocabulary(_ context.Context, name string) error {
	if a := s.Active(); a.Origin == OriginIndex && a.Name == name {
		return apperr.ErrConflict
	}
	if err := s.store.Delete(wordListPath(name)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return apperr.ErrNotFound
		}
		return err
	}
	return s.db.DeleteVocabulary(name)
}

func wordListPath(name string) string {
	return name + storage.ExtWordList
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
