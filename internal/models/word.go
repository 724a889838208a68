// Package models defines the domain types for wordhop.
package models

import (
	"encoding/json"
	"slices"
	"strings"
	"time"
)

// LetterSet is an unordered set of letters.
type LetterSet map[rune]struct{}

// Add inserts r into the set.
func (s LetterSet) Add(r rune) {
	s[r] = struct{}{}
}

// Has reports whether r is in the set.
func (s LetterSet) Has(r rune) bool {
	_, ok := s[r]
	return ok
}

// Letters returns the members in ascending order.
func (s LetterSet) Letters() []rune {
	out := make([]rune, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	slices.Sort(out)
	return out
}

// Strings returns the members as one-letter strings in ascending order.
func (s LetterSet) Strings() []string {
	letters := s.Letters()
	out := make([]string, len(letters))
	for i, r := range letters {
		out[i] = string(r)
	}
	return out
}

// String returns the canonical form: letters concatenated in ascending order.
func (s LetterSet) String() string {
	return string(s.Letters())
}

// Node records every legal single edit for one word. Slice lengths are
// fixed by the word's rune count n: Inserts has n+1 gaps, the rest have n.
type Node struct {
	Deletes   []bool
	Inserts   []LetterSet
	Replaces  []LetterSet
	Uppercase []bool
	Lowercase []bool
}

// NewNode returns an edge-free node shaped for word.
func NewNode(word string) Node {
	n := len([]rune(word))
	node := Node{
		Deletes:   make([]bool, n),
		Inserts:   make([]LetterSet, n+1),
		Replaces:  make([]LetterSet, n),
		Uppercase: make([]bool, n),
		Lowercase: make([]bool, n),
	}
	for i := range node.Inserts {
		node.Inserts[i] = LetterSet{}
	}
	for i := range node.Replaces {
		node.Replaces[i] = LetterSet{}
	}
	return node
}

// Len returns the number of letters the node was shaped for.
func (n Node) Len() int {
	return len(n.Deletes)
}

// EncodedNode is the compact serialized form of a Node. Empty fields are omitted.
type EncodedNode struct {
	Delete    string   `json:"delete,omitempty" msgpack:"delete,omitempty"`
	Insert    SetField `json:"insert,omitempty" msgpack:"insert,omitempty"`
	Replace   SetField `json:"replace,omitempty" msgpack:"replace,omitempty"`
	Uppercase string   `json:"uppercase,omitempty" msgpack:"uppercase,omitempty"`
	Lowercase string   `json:"lowercase,omitempty" msgpack:"lowercase,omitempty"`
}

// IsEmpty reports whether the node carries no edges at all.
func (e EncodedNode) IsEmpty() bool {
	return e == EncodedNode{}
}

// SetField holds a slash-joined list of per-position letter sets.
//
// Older graph files stored the list as a JSON array of strings; UnmarshalJSON
// accepts both shapes and always normalizes to the joined string.
type SetField string

// UnmarshalJSON implements json.Unmarshaler.
func (f *SetField) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = SetField(s)
		return nil
	}
	var segments []string
	if err := json.Unmarshal(data, &segments); err != nil {
		return err
	}
	*f = JoinSegments(segments)
	return nil
}

// JoinSegments builds a SetField from per-position segments. A list whose
// segments are all empty becomes the absent field.
func JoinSegments(segments []string) SetField {
	for _, s := range segments {
		if s != "" {
			return SetField(strings.Join(segments, "/"))
		}
	}
	return ""
}

// EncodedGraph maps every vocabulary word to its encoded node.
type EncodedGraph map[string]EncodedNode

// Words returns the graph's vocabulary in sorted order.
func (g EncodedGraph) Words() []string {
	out := make([]string, 0, len(g))
	for w := range g {
		out = append(out, w)
	}
	slices.Sort(out)
	return out
}

// EdgeKind names a single-edit operation.
type EdgeKind string

// Edge kinds.
const (
	EdgeDelete    EdgeKind = "delete"
	EdgeInsert    EdgeKind = "insert"
	EdgeReplace   EdgeKind = "replace"
	EdgeUppercase EdgeKind = "uppercase"
	EdgeLowercase EdgeKind = "lowercase"
)

// EdgeKinds lists every kind in a stable order.
var EdgeKinds = []EdgeKind{EdgeDelete, EdgeInsert, EdgeReplace, EdgeUppercase, EdgeLowercase}

// Edge is one legal edit from a word to Target.
// Letter is empty for deletions.
type Edge struct {
	Kind     EdgeKind `json:"kind"`
	Position int      `json:"position"`
	Letter   string   `json:"letter,omitempty"`
	Target   string   `json:"target"`
}

// Subgraph is a maximal set of mutually reachable words.
type Subgraph struct {
	Words []string `json:"words"`
}

// Size returns the number of words in the subgraph.
func (s Subgraph) Size() int {
	return len(s.Words)
}

// VocabularyFile is a lightweight description of a file in the vocabulary directory.
type VocabularyFile struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
