package linker

// ChangeKind identifies the edit a Change performs.
type ChangeKind string

// Change kinds.
const (
	KindDelete  ChangeKind = "delete"
	KindInsert  ChangeKind = "insert"
	KindReplace ChangeKind = "replace"
	KindCase    ChangeKind = "case"
)

// Change is one legal edit of a word. Letter is the letter written by the
// edit and is zero for deletions.
type Change struct {
	Kind     ChangeKind
	Position int
	Letter   rune
	Target   WordID
}

// Word is a vocabulary word with its changes resolved to sibling words.
type Word struct {
	ID      WordID
	Text    string
	Letters []Letter
	Gaps    []Position
	// Changes holds every change of the word: letter changes in position
	// order followed by gap insertions.
	Changes []Change
}

// Letter is the view of one letter of a word. It carries the deletions,
// replacements and case flips that apply to that letter.
type Letter struct {
	Index   int
	Char    rune
	changes []Change
}

// Changes returns the letter's legal changes.
func (l *Letter) Changes() []Change {
	return l.changes
}

// CanDelete reports whether the letter can be removed.
func (l *Letter) CanDelete() bool {
	for _, c := range l.changes {
		if c.Kind == KindDelete {
			return true
		}
	}
	return false
}

// Position is the view of one gap of a word: gap i sits before letter i and
// the last gap follows the final letter. It carries the gap's insertions.
type Position struct {
	Index   int
	changes []Change
}

// Changes returns the gap's legal insertions.
func (p *Position) Changes() []Change {
	return p.changes
}

func newWord(id WordID, text string) Word {
	rs := []rune(text)
	w := Word{
		ID:      id,
		Text:    text,
		Letters: make([]Letter, len(rs)),
		Gaps:    make([]Position, len(rs)+1),
	}
	for i, r := range rs {
		w.Letters[i] = Letter{Index: i, Char: r}
	}
	for i := range w.Gaps {
		w.Gaps[i] = Position{Index: i}
	}
	return w
}
