package index

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/starford/wordhop/internal/apperr"
	"github.com/starford/wordhop/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "wordhop-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleGraph() models.EncodedGraph {
	return models.EncodedGraph{
		"cat":   {Delete: "c..", Replace: "b//"},
		"bat":   {Delete: "b..", Replace: "c//"},
		"at":    {Insert: "bc//"},
		"zebra": {},
	}
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM vocabularies`).Scan(&count); err != nil {
		t.Fatalf("vocabularies table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM nodes`).Scan(&count); err != nil {
		t.Fatalf("nodes table missing: %v", err)
	}
}

func TestSaveAndLoadGraph(t *testing.T) {
	db := testDB(t)
	row := VocabularyRow{Name: "basic", Title: "Basic", Checksum: "abc123", UpdatedAt: time.Now()}
	if err := db.SaveGraph(row, sampleGraph()); err != nil {
		t.Fatalf("SaveGraph: %v", err)
	}

	g, err := db.LoadGraph("basic")
	if err != nil {
		t.Fatalf("LoadGraph: %v", err)
	}
	if len(g) != 4 {
		t.Fatalf("len = %d, want 4", len(g))
	}
	if g["at"].Insert != "bc//" || g["cat"].Delete != "c.." {
		t.Errorf("nodes = %+v", g)
	}
	if !g["zebra"].IsEmpty() {
		t.Errorf("zebra should be empty, got %+v", g["zebra"])
	}

	cs, err := db.GetChecksum("basic")
	if err != nil {
		t.Fatalf("GetChecksum: %v", err)
	}
	if cs != "abc123" {
		t.Errorf("checksum = %q, want %q", cs, "abc123")
	}

	v, err := db.GetVocabulary("basic")
	if err != nil {
		t.Fatalf("GetVocabulary: %v", err)
	}
	if v.WordCount != 4 || v.Title != "Basic" {
		t.Errorf("vocabulary = %+v", v)
	}
}

func TestSaveGraphReplacesNodes(t *testing.T) {
	db := testDB(t)
	_ = db.SaveGraph(VocabularyRow{Name: "v", Checksum: "1"}, sampleGraph())
	_ = db.SaveGraph(VocabularyRow{Name: "v", Checksum: "2"}, models.EncodedGraph{"dog": {}})

	g, _ := db.LoadGraph("v")
	if len(g) != 1 {
		t.Fatalf("old nodes should be replaced, got %v", g.Words())
	}
	cs, _ := db.GetChecksum("v")
	if cs != "2" {
		t.Errorf("checksum = %q, want %q", cs, "2")
	}
}

func TestDeleteVocabulary(t *testing.T) {
	db := testDB(t)
	_ = db.SaveGraph(VocabularyRow{Name: "del", Checksum: "x"}, sampleGraph())

	if err := db.DeleteVocabulary("del"); err != nil {
		t.Fatalf("DeleteVocabulary: %v", err)
	}
	cs, _ := db.GetChecksum("del")
	if cs != "" {
		t.Errorf("deleted vocabulary still has checksum %q", cs)
	}
	if _, err := db.LoadGraph("del"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("LoadGraph err = %v, want ErrNotFound", err)
	}
	var n int
	_ = db.conn.QueryRow(`SELECT count(*) FROM nodes WHERE vocabulary = 'del'`).Scan(&n)
	if n != 0 {
		t.Errorf("expected 0 nodes after delete, got %d", n)
	}
}

func TestGetChecksum_NotFound(t *testing.T) {
	db := testDB(t)
	cs, err := db.GetChecksum("nonexistent")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cs != "" {
		t.Errorf("expected empty checksum, got %q", cs)
	}
}

func TestListVocabularies(t *testing.T) {
	db := testDB(t)
	_ = db.SaveGraph(VocabularyRow{Name: "b", Checksum: "1"}, sampleGraph())
	_ = db.SaveGraph(VocabularyRow{Name: "a", Checksum: "2"}, models.EncodedGraph{"x": {}})

	list, err := db.ListVocabularies()
	if err != nil {
		t.Fatalf("ListVocabularies: %v", err)
	}
	if len(list) != 2 || list[0].Name != "a" || list[1].Name != "b" {
		t.Errorf("list = %+v", list)
	}

	all, _ := db.AllChecksums()
	if all["a"] != "2" || all["b"] != "1" {
		t.Errorf("checksums = %v", all)
	}
}

func TestSearchWords(t *testing.T) {
	db := testDB(t)
	_ = db.SaveGraph(VocabularyRow{Name: "s", Checksum: "1"}, models.EncodedGraph{
		"cat": {}, "cart": {}, "Cat": {}, "bat": {}, "c%t": {},
	})

	got, err := db.SearchWords("s", "ca", 10)
	if err != nil {
		t.Fatalf("SearchWords: %v", err)
	}
	if len(got) != 2 || got[0] != "cat" || got[1] != "cart" {
		t.Errorf("search = %v, want [cat cart]", got)
	}

	got, _ = db.SearchWords("s", "c%", 10)
	if len(got) != 1 || got[0] != "c%t" {
		t.Errorf("wildcards must be literal, got %v", got)
	}

	got, _ = db.SearchWords("other", "ca", 10)
	if len(got) != 0 {
		t.Errorf("search leaked across vocabularies: %v", got)
	}
}
