package vocab

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/wordhop/internal/graphfile"
	"github.com/starford/wordhop/internal/wordgraph"
)

func newLoader() *Loader {
	return NewLoader(slog.New(slog.NewJSONHandler(io.Discard, nil)))
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, data, 0o644))
	return p
}

func TestLoad_EncodedFile(t *testing.T) {
	enc, err := graphfile.Marshal(graphfile.FormatMsgpack, wordgraph.NewFromVocabulary([]string{"cat", "bat"}).ToEncoded())
	require.NoError(t, err)
	path := writeFile(t, "graph.mp", enc)

	res, err := newLoader().Load(context.Background(), Source{Encoded: path})
	require.NoError(t, err)
	assert.Equal(t, OriginEncoded, res.Origin)
	assert.Equal(t, []string{"bat"}, res.Graph.ConnectedWords("cat"))
}

func TestLoad_EncodedURL(t *testing.T) {
	enc, err := graphfile.Marshal(graphfile.FormatJSON, wordgraph.NewFromVocabulary([]string{"dog", "fog"}).ToEncoded())
	require.NoError(t, err)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(enc)
	}))
	defer srv.Close()

	res, err := newLoader().Load(context.Background(), Source{Encoded: srv.URL + "/graph.json"})
	require.NoError(t, err)
	assert.Equal(t, OriginEncoded, res.Origin)
	assert.True(t, res.Graph.HasWord("fog"))
}

func TestLoad_MalformedEncodedFallsBackToWordList(t *testing.T) {
	bad := writeFile(t, "graph.json", []byte(`{"cat":{"delete":"c."}}`))
	words := writeFile(t, "words.txt", []byte("---\ntitle: Tiny\n---\ncat\nat\n"))

	res, err := newLoader().Load(context.Background(), Source{Encoded: bad, Words: words})
	require.NoError(t, err)
	assert.Equal(t, OriginWordList, res.Origin)
	assert.Equal(t, "Tiny", res.Title)
	assert.Equal(t, []string{"at"}, res.Graph.ConnectedWords("cat"))
}

func TestLoad_HTTPErrorFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	words := writeFile(t, "words.txt", []byte("dog\n"))

	res, err := newLoader().Load(context.Background(), Source{Encoded: srv.URL + "/g.json", Words: words})
	require.NoError(t, err)
	assert.Equal(t, OriginWordList, res.Origin)
}

func TestLoad_EverythingMissingUsesSample(t *testing.T) {
	res, err := newLoader().Load(context.Background(), Source{
		Encoded: filepath.Join(t.TempDir(), "missing.json"),
		Words:   filepath.Join(t.TempDir(), "missing.txt"),
	})
	require.NoError(t, err)
	assert.Equal(t, OriginSample, res.Origin)
	assert.Equal(t, "Sample", res.Title)
	assert.True(t, res.Graph.HasWord("cat"))
}

func TestLoad_EmptyWordListUsesSample(t *testing.T) {
	words := writeFile(t, "words.txt", []byte("# nothing\n\n"))
	res, err := newLoader().Load(context.Background(), Source{Words: words})
	require.NoError(t, err)
	assert.Equal(t, OriginSample, res.Origin)
}

func TestSample_ColdToWarm(t *testing.T) {
	path, ok := Sample().Graph.ShortestPath("cold", "warm")
	require.True(t, ok)
	assert.Equal(t, []string{"cold", "cord", "card", "ward", "warm"}, path)
}
