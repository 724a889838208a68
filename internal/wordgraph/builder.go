// Package wordgraph discovers single-edit relationships between the words of
// a vocabulary and answers queries over the resulting graph.
package wordgraph

import (
	"strings"
	"unicode"

	"github.com/starford/wordhop/internal/models"
)

// placeholder stands in for the masked letter of a replacement pattern. It is
// a noncharacter, so no vocabulary word can contain it.
const placeholder = '\uffff'

// Build computes every legal single edit between the given words and returns
// one node per distinct word. It never fails; words without edges get empty
// nodes.
func Build(words []string) map[string]models.Node {
	nodes := make(map[string]models.Node, len(words))
	letters := make(map[string][]rune, len(words))
	order := make([]string, 0, len(words))
	for _, w := range words {
		if _, dup := nodes[w]; dup {
			continue
		}
		nodes[w] = models.NewNode(w)
		letters[w] = []rune(w)
		order = append(order, w)
	}

	discoverDeletions(order, letters, nodes)
	discoverReplacements(order, letters, nodes)
	discoverCaseChanges(order, letters, nodes)
	return nodes
}

// discoverDeletions marks deletions and the mirrored insertions in one scan:
// if w minus letter i is a word c, then inserting w[i] into c at i gives w.
func discoverDeletions(order []string, letters map[string][]rune, nodes map[string]models.Node) {
	for _, w := range order {
		rs := letters[w]
		for i := range rs {
			candidate := string(rs[:i]) + string(rs[i+1:])
			target, ok := nodes[candidate]
			if !ok {
				continue
			}
			nodes[w].Deletes[i] = true
			target.Inserts[i].Add(rs[i])
		}
	}
}

type maskKey struct {
	pattern  string
	position int
}

// discoverReplacements groups (word, position) pairs by masked pattern. Words
// sharing a pattern differ only at the masked position.
func discoverReplacements(order []string, letters map[string][]rune, nodes map[string]models.Node) {
	groups := make(map[maskKey][]string)
	buf := make([]rune, 0, 32)
	for _, w := range order {
		rs := letters[w]
		for i := range rs {
			buf = append(buf[:0], rs...)
			buf[i] = placeholder
			key := maskKey{pattern: string(buf), position: i}
			groups[key] = append(groups[key], w)
		}
	}

	for key, members := range groups {
		if len(members) < 2 {
			continue
		}
		i := key.position
		for a := 0; a < len(members); a++ {
			w1 := members[a]
			for b := a + 1; b < len(members); b++ {
				w2 := members[b]
				nodes[w1].Replaces[i].Add(letters[w2][i])
				nodes[w2].Replaces[i].Add(letters[w1][i])
			}
		}
	}
}

// discoverCaseChanges pairs words with the same lowercase form and marks the
// position where they differ by case alone.
func discoverCaseChanges(order []string, letters map[string][]rune, nodes map[string]models.Node) {
	groups := make(map[string][]string)
	for _, w := range order {
		lower := strings.ToLower(w)
		groups[lower] = append(groups[lower], w)
	}

	for _, members := range groups {
		// The literal lowercase word is itself a member when present, so
		// pairing members with each other covers pairing against it too.
		if len(members) < 2 {
			continue
		}
		for a := 0; a < len(members); a++ {
			for b := a + 1; b < len(members); b++ {
				markCasePair(members[a], members[b], letters, nodes)
			}
		}
	}
}

func markCasePair(w1, w2 string, letters map[string][]rune, nodes map[string]models.Node) {
	r1, r2 := letters[w1], letters[w2]
	if len(r1) != len(r2) {
		return
	}
	pos := -1
	for i := range r1 {
		if r1[i] == r2[i] {
			continue
		}
		if pos >= 0 || !caseVariants(r1[i], r2[i]) {
			return
		}
		pos = i
	}
	if pos < 0 {
		return
	}
	switch {
	case roundTrips(r1[pos], r2[pos]):
		nodes[w1].Uppercase[pos] = true
		nodes[w2].Lowercase[pos] = true
	case roundTrips(r2[pos], r1[pos]):
		nodes[w1].Lowercase[pos] = true
		nodes[w2].Uppercase[pos] = true
	}
}

func caseVariants(a, b rune) bool {
	return a != b && (unicode.ToLower(a) == unicode.ToLower(b) || unicode.ToUpper(a) == unicode.ToUpper(b))
}

// roundTrips reports whether lower and upper map onto each other exactly.
// Letters such as the Kelvin sign or titlecase digraphs fold to a letter
// other than their partner; those pairs stay plain replacements.
func roundTrips(lower, upper rune) bool {
	return unicode.IsLower(lower) && unicode.ToUpper(lower) == upper && unicode.ToLower(upper) == lower
}
