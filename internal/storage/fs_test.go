package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func tempDir(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempDir(t)
	content := []byte("cat\nbat\n")
	if err := s.Write("basic.txt", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("basic.txt")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteCreatesSubdirs(t *testing.T) {
	s := tempDir(t)
	if err := s.Write("en/b/c.txt", []byte("deep")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("en/b/c.txt")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "deep" {
		t.Errorf("content = %q", got)
	}
}

func TestDelete(t *testing.T) {
	s := tempDir(t)
	_ = s.Write("del.txt", []byte("bye"))
	if err := s.Delete("del.txt"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Read("del.txt"); err == nil {
		t.Error("expected error reading deleted file")
	}
}

func TestWriteRejectsOtherFiles(t *testing.T) {
	s := tempDir(t)
	err := s.Write("readme.md", []byte("not a vocabulary"))
	if !errors.Is(err, ErrNotVocabulary) {
		t.Fatalf("err = %v, want ErrNotVocabulary", err)
	}
	if _, err := os.Stat(filepath.Join(s.root, "readme.md")); !os.IsNotExist(err) {
		t.Error("rejected file was written")
	}
}

func TestDeleteMissing(t *testing.T) {
	s := tempDir(t)
	if err := s.Delete("nope.txt"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want os.ErrNotExist", err)
	}
}

func TestList(t *testing.T) {
	s := tempDir(t)
	_ = s.Write("a.txt", []byte("a"))
	_ = s.Write("sub/b.json", []byte("{}"))
	_ = s.Write("sub/c.mp", []byte{0x80})
	_ = os.WriteFile(filepath.Join(s.root, "readme.md"), []byte("not a vocabulary"), 0o644)
	_ = os.WriteFile(filepath.Join(s.root, ".hidden.txt"), []byte("skipped"), 0o644)
	_ = os.MkdirAll(filepath.Join(s.root, ".git"), 0o755)
	_ = os.WriteFile(filepath.Join(s.root, ".git", "words.txt"), []byte("skipped"), 0o644)

	items, err := s.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 3 {
		t.Errorf("len = %d, want 3", len(items))
	}
	for _, it := range items {
		if it.Path == "sub/b.json" && it.Checksum == "" {
			t.Error("missing checksum")
		}
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempDir(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.txt",
		"/etc/shadow.txt",
		"en/../../escape.txt",
	}
	for _, p := range cases {
		if _, err := s.Read(p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
		if err := s.Write(p, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
	}
}

func TestAtomicWriteNoCorruption(t *testing.T) {
	// Verify that if we read during a write the old content is intact
	// (the rename is atomic on POSIX).
	s := tempDir(t)
	original := []byte("original content")
	_ = s.Write("atomic.txt", original)

	// Overwrite with new content.
	updated := []byte("updated content")
	if err := s.Write("atomic.txt", updated); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read("atomic.txt")
	if string(got) != string(updated) {
		t.Errorf("expected updated content, got %q", got)
	}

	// Confirm no leftover temp files.
	matches, _ := filepath.Glob(filepath.Join(s.root, ".wordhop-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS("/tmp/wordhop-does-not-exist-" + t.Name())
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "wordhop-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err := NewFS(f.Name())
	if err == nil {
		t.Error("expected error when root is a file")
	}
}

func TestVocabularyName(t *testing.T) {
	cases := map[string]string{
		"basic.txt":     "basic",
		"en/basic.json": "en/basic",
		"graph.mp":      "graph",
	}
	for in, want := range cases {
		if got := VocabularyName(in); got != want {
			t.Errorf("VocabularyName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsVocabularyFile(t *testing.T) {
	for _, p := range []string{"a.txt", "b/c.json", "d.mp"} {
		if !IsVocabularyFile(p) {
			t.Errorf("%q should be a vocabulary file", p)
		}
	}
	for _, p := range []string{"a.md", ".wordhop-tmp-123.txt", "noext"} {
		if IsVocabularyFile(p) {
			t.Errorf("%q should not be a vocabulary file", p)
		}
	}
	if !IsWordList("x.txt") || IsWordList("x.json") {
		t.Error("IsWordList mismatch")
	}
}

func TestCanonical(t *testing.T) {
	fs := tempDir(t)
	for _, p := range []string{"words.txt", "words.json", "en/basic.txt", "en/basic.mp", "en/basic.json", "solo.txt"} {
		if err := fs.Write(p, []byte("cat\n")); err != nil {
			t.Fatalf("Write %s: %v", p, err)
		}
	}
	files, err := fs.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	keep, shadowed := Canonical(files)
	kept := map[string]bool{}
	for _, f := range keep {
		kept[f.Path] = true
	}
	for _, want := range []string{"words.json", "en/basic.mp", "solo.txt"} {
		if !kept[want] {
			t.Errorf("expected %s to be kept, got %v", want, keep)
		}
	}
	if len(keep) != 3 || len(shadowed) != 3 {
		t.Errorf("keep=%d shadowed=%d, want 3 and 3", len(keep), len(shadowed))
	}
}

func TestAlternates(t *testing.T) {
	got := Alternates("en/basic.json")
	if len(got) != 2 || got[0] != "en/basic.mp" || got[1] != "en/basic.txt" {
		t.Errorf("Alternates = %v", got)
	}
	if !Outranks("a.json", "a.txt") || Outranks("a.txt", "a.mp") {
		t.Error("encoded graphs must outrank word lists")
	}
}
