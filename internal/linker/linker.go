// Package linker turns the string-keyed edges of a word graph into an arena
// of Word entities whose changes point directly at their target words.
//
// The Lexicon owns every Word by value. Changes refer to other words through
// WordID handles into that arena, so the deliberately cyclic
// word -> change -> word structure never involves owning pointers.
package linker

import (
	"errors"
	"fmt"
	"unicode"

	"github.com/starford/wordhop/internal/apperr"
	"github.com/starford/wordhop/internal/models"
)

// WordID is a handle to a Word inside its Lexicon.
type WordID int

// Source is the graph a Lexicon is linked from.
type Source interface {
	Words() []string
	RequiredNode(word string) (models.Node, error)
}

// Resolver maps a word to its handle. Implementations return a
// *apperr.MissingWordError for words they cannot resolve.
type Resolver interface {
	Resolve(word string) (WordID, error)
}

// Lexicon is the linked form of one vocabulary.
type Lexicon struct {
	words []Word
	index map[string]WordID
}

// Resolve implements Resolver over the lexicon's own words.
func (l *Lexicon) Resolve(word string) (WordID, error) {
	id, ok := l.index[word]
	if !ok {
		return 0, &apperr.MissingWordError{Word: word}
	}
	return id, nil
}

// Len returns the number of words in the lexicon.
func (l *Lexicon) Len() int {
	return len(l.words)
}

// Word returns the word with the given handle.
func (l *Lexicon) Word(id WordID) *Word {
	return &l.words[id]
}

// Lookup returns the word spelled text.
func (l *Lexicon) Lookup(text string) (*Word, bool) {
	id, ok := l.index[text]
	if !ok {
		return nil, false
	}
	return &l.words[id], true
}

// Follow returns the word a change leads to.
func (l *Lexicon) Follow(c Change) *Word {
	return &l.words[c.Target]
}

// Link builds a Lexicon from src, resolving edges against the lexicon itself.
func Link(src Source) (*Lexicon, error) {
	return LinkWith(src, nil)
}

// LinkWith builds a Lexicon from src and resolves every edge through r. A
// nil r resolves against the lexicon being built. Any unresolvable edge
// aborts linking with a *apperr.MissingWordError that names the referencing
// word and position.
func LinkWith(src Source, r Resolver) (*Lexicon, error) {
	texts := src.Words()
	lex := &Lexicon{
		words: make([]Word, len(texts)),
		index: make(map[string]WordID, len(texts)),
	}
	for i, text := range texts {
		lex.words[i] = newWord(WordID(i), text)
		lex.index[text] = WordID(i)
	}
	if r == nil {
		r = lex
	}

	for i := range lex.words {
		w := &lex.words[i]
		node, err := src.RequiredNode(w.Text)
		if err != nil {
			return nil, err
		}
		if err := attach(w, node, r); err != nil {
			return nil, err
		}
	}
	return lex, nil
}

func attach(w *Word, node models.Node, r Resolver) error {
	rs := []rune(w.Text)
	resolve := func(kind ChangeKind, pos int, target string) (WordID, error) {
		id, err := r.Resolve(target)
		var missing *apperr.MissingWordError
		if errors.As(err, &missing) {
			return 0, &apperr.MissingWordError{
				Word:     target,
				Referrer: w.Text,
				Position: pos,
				Kind:     string(kind),
			}
		}
		if err != nil {
			return 0, fmt.Errorf("linker: resolve %q from %q: %w", target, w.Text, err)
		}
		return id, nil
	}

	for i := range w.Letters {
		l := &w.Letters[i]
		if i < len(node.Deletes) && node.Deletes[i] {
			id, err := resolve(KindDelete, i, string(rs[:i])+string(rs[i+1:]))
			if err != nil {
				return err
			}
			l.changes = append(l.changes, Change{Kind: KindDelete, Position: i, Target: id})
		}
		if i < len(node.Replaces) {
			for _, letter := range node.Replaces[i].Letters() {
				id, err := resolve(KindReplace, i, replaceAt(rs, i, letter))
				if err != nil {
					return err
				}
				l.changes = append(l.changes, Change{Kind: KindReplace, Position: i, Letter: letter, Target: id})
			}
		}
		flip, ok := flipCase(node, i, rs[i])
		if ok {
			id, err := resolve(KindCase, i, replaceAt(rs, i, flip))
			if err != nil {
				return err
			}
			l.changes = append(l.changes, Change{Kind: KindCase, Position: i, Letter: flip, Target: id})
		}
	}

	for i := range w.Gaps {
		g := &w.Gaps[i]
		if i >= len(node.Inserts) {
			break
		}
		for _, letter := range node.Inserts[i].Letters() {
			id, err := resolve(KindInsert, i, string(rs[:i])+string(letter)+string(rs[i:]))
			if err != nil {
				return err
			}
			g.changes = append(g.changes, Change{Kind: KindInsert, Position: i, Letter: letter, Target: id})
		}
	}

	for i := range w.Letters {
		w.Changes = append(w.Changes, w.Letters[i].changes...)
	}
	for i := range w.Gaps {
		w.Changes = append(w.Changes, w.Gaps[i].changes...)
	}
	return nil
}

func flipCase(node models.Node, i int, r rune) (rune, bool) {
	if i < len(node.Uppercase) && node.Uppercase[i] {
		return unicode.ToUpper(r), true
	}
	if i < len(node.Lowercase) && node.Lowercase[i] {
		return unicode.ToLower(r), true
	}
	return 0, false
}

func replaceAt(rs []rune, i int, r rune) string {
	out := make([]rune, len(rs))
	copy(out, rs)
	out[i] = r
	return string(out)
}
