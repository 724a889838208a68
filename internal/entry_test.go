package internal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/wordhop/internal/graphservice"
	"github.com/starford/wordhop/internal/sse"
	"github.com/starford/wordhop/internal/testutil"
	"github.com/starford/wordhop/internal/vocab"
)

func TestActivateDefault_FromIndex(t *testing.T) {
	db, store := testutil.SyncedDB(t, map[string]string{"words.txt": "cat\nbat\n"})
	svc := graphservice.NewService(store, db, testutil.Logger())

	cfg := NewDefaultConfig()
	if err := activateDefault(context.Background(), cfg, svc, testutil.Logger()); err != nil {
		t.Fatalf("activateDefault: %v", err)
	}
	a := svc.Active()
	if a.Name != "words" || a.Origin != graphservice.OriginIndex || a.Words != 2 {
		t.Errorf("active = %+v", a)
	}
}

func TestActivateDefault_FallsBackToWordList(t *testing.T) {
	db, store := testutil.SyncedDB(t, nil)
	svc := graphservice.NewService(store, db, testutil.Logger())

	words := filepath.Join(t.TempDir(), "list.txt")
	if err := os.WriteFile(words, []byte("cold\ncord\ncard\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := NewDefaultConfig()
	cfg.Vocabulary.Words = words

	if err := activateDefault(context.Background(), cfg, svc, testutil.Logger()); err != nil {
		t.Fatalf("activateDefault: %v", err)
	}
	a := svc.Active()
	if a.Origin != vocab.OriginWordList || a.Words != 3 || a.Name != "words" {
		t.Errorf("active = %+v", a)
	}
}

func TestActivateDefault_SampleWithoutName(t *testing.T) {
	db, store := testutil.SyncedDB(t, nil)
	svc := graphservice.NewService(store, db, testutil.Logger())

	cfg := NewDefaultConfig()
	cfg.Vocabulary.Default = ""

	if err := activateDefault(context.Background(), cfg, svc, testutil.Logger()); err != nil {
		t.Fatalf("activateDefault: %v", err)
	}
	a := svc.Active()
	if a.Origin != vocab.OriginSample || a.Name != vocab.OriginSample || a.Words == 0 {
		t.Errorf("active = %+v", a)
	}
}

func TestRootRouter_Health(t *testing.T) {
	db, store := testutil.SyncedDB(t, map[string]string{"words.txt": "cat\nbat\n"})
	svc := graphservice.NewService(store, db, testutil.Logger())
	broker := sse.NewBroker(time.Millisecond)
	t.Cleanup(broker.Close)

	r := newRootRouter(NewDefaultConfig(), svc, broker)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("live status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("ready before activation = %d, want 503", rec.Code)
	}

	if _, err := svc.Activate(context.Background(), "words"); err != nil {
		t.Fatal(err)
	}
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("ready status = %d", rec.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["vocabulary"] != "words" || body["words"] != float64(2) {
		t.Errorf("ready body = %v", body)
	}
}

func TestRootRouter_MetricsAndAPI(t *testing.T) {
	db, store := testutil.SyncedDB(t, map[string]string{"words.txt": "cat\nbat\n"})
	svc := graphservice.NewService(store, db, testutil.Logger())
	if _, err := svc.Activate(context.Background(), "words"); err != nil {
		t.Fatal(err)
	}
	broker := sse.NewBroker(time.Millisecond)
	t.Cleanup(broker.Close)

	r := newRootRouter(NewDefaultConfig(), svc, broker)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/words/cat", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("word status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "wordhop_graph_words") {
		t.Error("metrics output missing wordhop_graph_words")
	}
}
