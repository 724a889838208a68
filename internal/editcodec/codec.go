// Package editcodec converts per-position edit descriptors to and from the
// compact strings stored in encoded graphs.
//
// Flag fields (delete, uppercase, lowercase) are as long as the word: position
// i holds the word's letter when the edit is legal there and '.' otherwise.
// Set fields (insert, replace) are per-position letter sets joined with '/'.
// A field with nothing legal is omitted and decodes back to all-false/empty.
package editcodec

import (
	"fmt"
	"strings"

	"github.com/starford/wordhop/internal/apperr"
	"github.com/starford/wordhop/internal/models"
)

// Field names as they appear in encoded graphs.
const (
	FieldDelete    = "delete"
	FieldInsert    = "insert"
	FieldReplace   = "replace"
	FieldUppercase = "uppercase"
	FieldLowercase = "lowercase"
)

const (
	blank     = '.'
	separator = "/"
)

// EncodeFlags renders flags against word. It returns "" when no flag is set.
func EncodeFlags(word string, flags []bool) string {
	letters := []rune(word)
	legal := false
	out := make([]rune, len(letters))
	for i, r := range letters {
		if i < len(flags) && flags[i] {
			out[i] = r
			legal = true
		} else {
			out[i] = blank
		}
	}
	if !legal {
		return ""
	}
	return string(out)
}

// DecodeFlags parses a flag field for word. The empty field decodes to all false.
func DecodeFlags(word, field, name string) ([]bool, error) {
	n := len([]rune(word))
	flags := make([]bool, n)
	if field == "" {
		return flags, nil
	}
	chars := []rune(field)
	if len(chars) != n {
		return nil, &apperr.FormatError{
			Word:   word,
			Field:  name,
			Reason: fmt.Sprintf("length %d, want %d", len(chars), n),
		}
	}
	for i, c := range chars {
		flags[i] = c != blank
	}
	return flags, nil
}

// EncodeSets joins the canonical form of each set with '/'.
// It returns "" when every set is empty.
func EncodeSets(sets []models.LetterSet) models.SetField {
	segments := make([]string, len(sets))
	for i, s := range sets {
		segments[i] = s.String()
	}
	return models.JoinSegments(segments)
}

// DecodeSets parses a set field that must hold exactly n segments.
// The empty field decodes to n empty sets.
func DecodeSets(word string, field models.SetField, n int, name string) ([]models.LetterSet, error) {
	sets := make([]models.LetterSet, n)
	for i := range sets {
		sets[i] = models.LetterSet{}
	}
	if field == "" {
		return sets, nil
	}
	segments := strings.Split(string(field), separator)
	if len(segments) != n {
		return nil, &apperr.FormatError{
			Word:   word,
			Field:  name,
			Reason: fmt.Sprintf("%d segments, want %d", len(segments), n),
		}
	}
	for i, seg := range segments {
		for _, r := range seg {
			sets[i].Add(r)
		}
	}
	return sets, nil
}

// EncodeNode compacts node for word, omitting empty fields.
func EncodeNode(word string, node models.Node) models.EncodedNode {
	return models.EncodedNode{
		Delete:    EncodeFlags(word, node.Deletes),
		Insert:    EncodeSets(node.Inserts),
		Replace:   EncodeSets(node.Replaces),
		Uppercase: EncodeFlags(word, node.Uppercase),
		Lowercase: EncodeFlags(word, node.Lowercase),
	}
}

// DecodeNode expands enc into a node shaped for word.
func DecodeNode(word string, enc models.EncodedNode) (models.Node, error) {
	n := len([]rune(word))
	var (
		node models.Node
		err  error
	)
	if node.Deletes, err = DecodeFlags(word, enc.Delete, FieldDelete); err != nil {
		return models.Node{}, err
	}
	if node.Inserts, err = DecodeSets(word, enc.Insert, n+1, FieldInsert); err != nil {
		return models.Node{}, err
	}
	if node.Replaces, err = DecodeSets(word, enc.Replace, n, FieldReplace); err != nil {
		return models.Node{}, err
	}
	if node.Uppercase, err = DecodeFlags(word, enc.Uppercase, FieldUppercase); err != nil {
		return models.Node{}, err
	}
	if node.Lowercase, err = DecodeFlags(word, enc.Lowercase, FieldLowercase); err != nil {
		return models.Node{}, err
	}
	return node, nil
}
