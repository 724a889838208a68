package wordgraph

import (
	"slices"
	"sync/atomic"
	"unicode"

	"github.com/starford/wordhop/internal/apperr"
	"github.com/starford/wordhop/internal/editcodec"
	"github.com/starford/wordhop/internal/models"
)

// snapshot is one fully built graph. It is never mutated after publication.
type snapshot struct {
	nodes map[string]models.Node
	words []string // sorted
}

func newSnapshot(nodes map[string]models.Node) *snapshot {
	words := make([]string, 0, len(nodes))
	for w := range nodes {
		words = append(words, w)
	}
	slices.Sort(words)
	return &snapshot{nodes: nodes, words: words}
}

var emptySnapshot = newSnapshot(map[string]models.Node{})

// Graph is the word graph store. Loads build a complete snapshot off to the
// side and publish it with a single atomic store, so concurrent readers see
// either the old graph or the new one.
type Graph struct {
	current atomic.Pointer[snapshot]
}

// New returns an empty graph.
func New() *Graph {
	g := &Graph{}
	g.current.Store(emptySnapshot)
	return g
}

// NewFromVocabulary returns a graph built from words.
func NewFromVocabulary(words []string) *Graph {
	g := New()
	g.LoadFromVocabulary(words)
	return g
}

// NewFromEncoded returns a graph decoded from data.
func NewFromEncoded(data models.EncodedGraph) (*Graph, error) {
	g := New()
	if err := g.LoadFromEncoded(data); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Graph) snap() *snapshot {
	if s := g.current.Load(); s != nil {
		return s
	}
	return emptySnapshot
}

// LoadFromVocabulary replaces the graph with one discovered from words.
func (g *Graph) LoadFromVocabulary(words []string) {
	g.current.Store(newSnapshot(Build(words)))
}

// LoadFromEncoded replaces the graph with the decoded contents of data,
// without running discovery. On a format error the previous graph stays in
// place and the error is returned.
func (g *Graph) LoadFromEncoded(data models.EncodedGraph) error {
	nodes := make(map[string]models.Node, len(data))
	for w, enc := range data {
		node, err := editcodec.DecodeNode(w, enc)
		if err != nil {
			return err
		}
		nodes[w] = node
	}
	g.current.Store(newSnapshot(nodes))
	return nil
}

// ToEncoded returns the compact form of every node. Every word is a key,
// including words without edges.
func (g *Graph) ToEncoded() models.EncodedGraph {
	s := g.snap()
	out := make(models.EncodedGraph, len(s.nodes))
	for w, node := range s.nodes {
		out[w] = editcodec.EncodeNode(w, node)
	}
	return out
}

// Len returns the vocabulary size.
func (g *Graph) Len() int {
	return len(g.snap().words)
}

// Words returns the vocabulary in sorted order.
func (g *Graph) Words() []string {
	return slices.Clone(g.snap().words)
}

// HasWord reports whether w is in the vocabulary.
func (g *Graph) HasWord(w string) bool {
	_, ok := g.snap().nodes[w]
	return ok
}

// Node returns the node for w. The node shares storage with the graph and
// must not be modified.
func (g *Graph) Node(w string) (models.Node, bool) {
	node, ok := g.snap().nodes[w]
	return node, ok
}

// RequiredNode returns the node for w or a *apperr.MissingWordError.
func (g *Graph) RequiredNode(w string) (models.Node, error) {
	node, ok := g.snap().nodes[w]
	if !ok {
		return models.Node{}, &apperr.MissingWordError{Word: w}
	}
	return node, nil
}

// CanDelete reports whether removing letter i of w yields a word.
func (g *Graph) CanDelete(w string, i int) bool {
	node, ok := g.Node(w)
	return ok && i >= 0 && i < len(node.Deletes) && node.Deletes[i]
}

// CanChangeCaseAt reports whether flipping the case of letter i of w yields a word.
func (g *Graph) CanChangeCaseAt(w string, i int) bool {
	node, ok := g.Node(w)
	if !ok || i < 0 || i >= node.Len() {
		return false
	}
	return node.Uppercase[i] || node.Lowercase[i]
}

// PossibleReplacements returns the letters that can replace letter i of w.
func (g *Graph) PossibleReplacements(w string, i int) []string {
	node, ok := g.Node(w)
	if !ok || i < 0 || i >= len(node.Replaces) {
		return []string{}
	}
	return node.Replaces[i].Strings()
}

// PossibleInsertions returns the letters that can be inserted into gap i of
// w. Gap i sits before letter i; gap len(w) is after the last letter.
func (g *Graph) PossibleInsertions(w string, i int) []string {
	node, ok := g.Node(w)
	if !ok || i < 0 || i >= len(node.Inserts) {
		return []string{}
	}
	return node.Inserts[i].Strings()
}

// Edges lists every legal edit of w that leads to a word currently in the
// vocabulary. Candidates are synthesized from the node itself; edges naming
// words that are not present (an encoded graph loaded against a different
// vocabulary) are dropped.
func (g *Graph) Edges(w string) []models.Edge {
	return g.snap().edges(w)
}

func (s *snapshot) edges(w string) []models.Edge {
	node, ok := s.nodes[w]
	if !ok {
		return nil
	}
	rs := []rune(w)
	var out []models.Edge
	add := func(kind models.EdgeKind, pos int, letter string, target string) {
		if _, ok := s.nodes[target]; !ok {
			return
		}
		out = append(out, models.Edge{Kind: kind, Position: pos, Letter: letter, Target: target})
	}

	for i := range rs {
		if i < len(node.Deletes) && node.Deletes[i] {
			add(models.EdgeDelete, i, "", string(rs[:i])+string(rs[i+1:]))
		}
	}
	for i, set := range node.Inserts {
		if i > len(rs) {
			break
		}
		for _, r := range set.Letters() {
			add(models.EdgeInsert, i, string(r), string(rs[:i])+string(r)+string(rs[i:]))
		}
	}
	for i, set := range node.Replaces {
		if i >= len(rs) {
			break
		}
		for _, r := range set.Letters() {
			add(models.EdgeReplace, i, string(r), replaceAt(rs, i, r))
		}
	}
	for i := range rs {
		if i < len(node.Uppercase) && node.Uppercase[i] {
			up := unicode.ToUpper(rs[i])
			add(models.EdgeUppercase, i, string(up), replaceAt(rs, i, up))
		}
		if i < len(node.Lowercase) && node.Lowercase[i] {
			low := unicode.ToLower(rs[i])
			add(models.EdgeLowercase, i, string(low), replaceAt(rs, i, low))
		}
	}
	return out
}

// ConnectedWords returns the distinct words one legal edit away from w, sorted.
func (g *Graph) ConnectedWords(w string) []string {
	return g.snap().connected(w)
}

func (s *snapshot) connected(w string) []string {
	edges := s.edges(w)
	seen := make(map[string]struct{}, len(edges))
	out := make([]string, 0, len(edges))
	for _, e := range edges {
		if e.Target == w {
			continue
		}
		if _, dup := seen[e.Target]; dup {
			continue
		}
		seen[e.Target] = struct{}{}
		out = append(out, e.Target)
	}
	slices.Sort(out)
	return out
}

// ShortestPath returns a minimal chain of single edits from one word to
// another, both ends included. The second result is false when either word is
// unknown or no chain exists.
func (g *Graph) ShortestPath(from, to string) ([]string, bool) {
	s := g.snap()
	if _, ok := s.nodes[from]; !ok {
		return nil, false
	}
	if _, ok := s.nodes[to]; !ok {
		return nil, false
	}
	if from == to {
		return []string{from}, true
	}

	prev := map[string]string{from: ""}
	queue := []string{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range s.connected(cur) {
			if _, seen := prev[next]; seen {
				continue
			}
			prev[next] = cur
			if next == to {
				return walkBack(prev, from, to), true
			}
			queue = append(queue, next)
		}
	}
	return nil, false
}

func walkBack(prev map[string]string, from, to string) []string {
	path := []string{to}
	for cur := to; cur != from; {
		cur = prev[cur]
		path = append(path, cur)
	}
	slices.Reverse(path)
	return path
}

// Stats summarizes the graph's size and edge counts.
type Stats struct {
	Words    int                     `json:"words"`
	Isolated int                     `json:"isolated"`
	Edges    map[models.EdgeKind]int `json:"edges"`
}

// Stats counts words, edge-free words and directed edges per kind.
func (g *Graph) Stats() Stats {
	s := g.snap()
	st := Stats{Words: len(s.words), Edges: make(map[models.EdgeKind]int, len(models.EdgeKinds))}
	for _, k := range models.EdgeKinds {
		st.Edges[k] = 0
	}
	for _, w := range s.words {
		edges := s.edges(w)
		if len(edges) == 0 {
			st.Isolated++
		}
		for _, e := range edges {
			st.Edges[e.Kind]++
		}
	}
	return st
}

func replaceAt(rs []rune, i int, r rune) string {
	out := make([]rune, len(rs))
	copy(out, rs)
	out[i] = r
	return string(out)
}
