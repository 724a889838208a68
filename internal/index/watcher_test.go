package index

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/starford/wordhop/internal/graphfile"
	"github.com/starford/wordhop/internal/storage"
	"github.com/starford/wordhop/internal/wordgraph"
)

// watcherTestEnv sets up a vocabulary dir, storage, and DB for watcher tests.
func watcherTestEnv(t *testing.T) (string, storage.Provider, *DB) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store, testDB(t)
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func TestWatcher_NewFileIndexed(t *testing.T) {
	dir, store, db := watcherTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var events []string

	go Watch(ctx, db, store, dir, quietLogger(), func(kind, name string) {
		mu.Lock()
		events = append(events, kind+":"+name)
		mu.Unlock()
	})

	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(dir, "new.txt"), []byte("cat\nbat\n"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum("new")
		return cs != ""
	}, "new file not indexed by watcher")

	eventually(t, 2*time.Second, 50*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, e := range events {
			if e == EventCreated+":new" {
				return true
			}
		}
		return false
	}, "expected created:new callback")
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir, store, db := watcherTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, db, store, dir, quietLogger(), nil)
	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(dir, "notes.md"), []byte("# not words"), 0o644)
	_ = os.WriteFile(filepath.Join(dir, "real.txt"), []byte("dog\n"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum("real")
		return cs != ""
	}, "word list not indexed")

	if cs, _ := db.GetChecksum("notes"); cs != "" {
		t.Error("non-vocabulary file should be ignored")
	}
}

func TestWatcher_NewDirWatched(t *testing.T) {
	dir, store, db := watcherTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, db, store, dir, quietLogger(), nil)
	time.Sleep(100 * time.Millisecond)

	subDir := filepath.Join(dir, "lang")
	_ = os.MkdirAll(subDir, 0o755)
	time.Sleep(200 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(subDir, "fr.txt"), []byte("clair\neclair\n"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum("lang/fr")
		return cs != ""
	}, "file in new subdir not indexed by watcher")
}

func TestWatcher_DeleteRemovesFromIndex(t *testing.T) {
	dir, store, db := watcherTestEnv(t)

	_ = os.WriteFile(filepath.Join(dir, "del.txt"), []byte("cat\n"), 0o644)
	_ = Sync(context.Background(), db, store, quietLogger())

	if cs, _ := db.GetChecksum("del"); cs == "" {
		t.Fatal("precondition: file should be indexed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, db, store, dir, quietLogger(), nil)
	time.Sleep(100 * time.Millisecond)

	_ = os.Remove(filepath.Join(dir, "del.txt"))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum("del")
		return cs == ""
	}, "deleted file still in index")
}

func TestWatcher_RenameReconciles(t *testing.T) {
	dir, store, db := watcherTestEnv(t)

	_ = os.WriteFile(filepath.Join(dir, "old.txt"), []byte("cat\nbat\n"), 0o644)
	_ = Sync(context.Background(), db, store, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, db, store, dir, quietLogger(), nil)
	time.Sleep(100 * time.Millisecond)

	_ = os.Rename(filepath.Join(dir, "old.txt"), filepath.Join(dir, "renamed.txt"))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		oldCS, _ := db.GetChecksum("old")
		newCS, _ := db.GetChecksum("renamed")
		return oldCS == "" && newCS != ""
	}, "rename reconciliation failed: old name should be removed and new name indexed")
}

func TestWatcher_CoalescesWritesAndSkipsUnchanged(t *testing.T) {
	dir, store, db := watcherTestEnv(t)

	path := filepath.Join(dir, "pets.txt")
	_ = os.WriteFile(path, []byte("cat\n"), 0o644)
	_ = Sync(context.Background(), db, store, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var events []string
	go Watch(ctx, db, store, dir, quietLogger(), func(kind, name string) {
		mu.Lock()
		events = append(events, kind+":"+name)
		mu.Unlock()
	})
	time.Sleep(100 * time.Millisecond)

	// Same bytes: nothing to rebuild.
	_ = os.WriteFile(path, []byte("cat\n"), 0o644)
	time.Sleep(400 * time.Millisecond)
	mu.Lock()
	if len(events) != 0 {
		t.Errorf("unchanged rewrite produced events %v", events)
	}
	mu.Unlock()

	// Two quick writes settle into one rebuild.
	_ = os.WriteFile(path, []byte("cat\nbat\n"), 0o644)
	_ = os.WriteFile(path, []byte("cat\nbat\nat\n"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		rows, _ := db.ListVocabularies()
		return len(rows) == 1 && rows[0].WordCount == 3
	}, "final content not indexed")

	time.Sleep(300 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if len(events) != 1 || events[0] != EventUpdated+":pets" {
		t.Errorf("events = %v, want [updated:pets]", events)
	}
}

func TestWatcher_ShadowedWordList(t *testing.T) {
	dir, store, db := watcherTestEnv(t)

	_ = os.WriteFile(filepath.Join(dir, "words.txt"), []byte("cat\nbat\n"), 0o644)
	enc, _ := graphfile.Marshal(graphfile.FormatJSON, wordgraph.NewFromVocabulary([]string{"dog", "fog", "log"}).ToEncoded())
	_ = os.WriteFile(filepath.Join(dir, "words.json"), enc, 0o644)
	_ = Sync(context.Background(), db, store, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, db, store, dir, quietLogger(), nil)
	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(dir, "words.txt"), []byte("cat\nbat\nat\nhat\n"), 0o644)
	time.Sleep(400 * time.Millisecond)
	if v, _ := db.GetVocabulary("words"); v == nil || v.WordCount != 3 {
		t.Fatalf("word list edit replaced the encoded graph: %+v", v)
	}

	_ = os.Remove(filepath.Join(dir, "words.json"))
	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		v, _ := db.GetVocabulary("words")
		return v != nil && v.WordCount == 4
	}, "word list did not take over after the encoded graph was removed")
}

func TestWatcher_SkipsHiddenDirs(t *testing.T) {
	dir, store, db := watcherTestEnv(t)
	_ = os.MkdirAll(filepath.Join(dir, ".git"), 0o755)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, db, store, dir, quietLogger(), nil)
	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(dir, ".git", "words.txt"), []byte("cat\nbat\n"), 0o644)
	_ = os.WriteFile(filepath.Join(dir, "seen.txt"), []byte("cat\n"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum("seen")
		return cs != ""
	}, "visible file not indexed")
	if cs, _ := db.GetChecksum(".git/words"); cs != "" {
		t.Error("file in hidden dir was indexed")
	}
}
