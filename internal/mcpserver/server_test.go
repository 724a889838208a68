package mcpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/wordhop/internal/graphservice"
	"github.com/starford/wordhop/internal/testutil"
)

func testServer(t *testing.T) (*Server, *graphservice.Service) {
	t.Helper()
	db, store := testutil.SyncedDB(t, map[string]string{
		"basic.txt": "cat\nbat\nat\nCat\ncats\nzebra\n",
		"cold.txt":  "cold\ncord\ncard\nward\nwarm\n",
	})
	svc := graphservice.NewService(store, db, testutil.Logger())
	if _, err := svc.Activate(context.Background(), "basic"); err != nil {
		t.Fatal(err)
	}
	return New(svc, "test"), svc
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so the handlers are
	// invoked directly.
	handlers := map[string]func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		"has_word":              srv.hasWord,
		"connected_words":       srv.connectedWords,
		"word_changes":          srv.wordChanges,
		"possible_replacements": srv.possibleReplacements,
		"possible_insertions":   srv.possibleInsertions,
		"shortest_path":         srv.shortestPath,
		"subgraph_report":       srv.subgraphReport,
		"search_words":          srv.searchWords,
		"list_vocabularies":     srv.listVocabularies,
		"activate_vocabulary":   srv.activateVocabulary,
		"import_vocabulary":     srv.importVocabulary,
		"get_encoding_format":   srv.getEncodingFormat,
	}
	h, ok := handlers[name]
	if !ok {
		t.Fatalf("unknown tool: %s", name)
	}
	result, err := h(ctx, req)
	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestHasWord(t *testing.T) {
	srv, _ := testServer(t)
	if got := resultText(callTool(t, srv, "has_word", map[string]any{"word": "cat"})); got != "true" {
		t.Errorf("has_word cat = %q", got)
	}
	if got := resultText(callTool(t, srv, "has_word", map[string]any{"word": "CAT"})); got != "false" {
		t.Errorf("has_word CAT = %q", got)
	}
	if r := callTool(t, srv, "has_word", map[string]any{}); !r.IsError {
		t.Error("expected error for missing argument")
	}
}

func TestConnectedWords(t *testing.T) {
	srv, _ := testServer(t)
	got := resultText(callTool(t, srv, "connected_words", map[string]any{"word": "cat"}))
	if got != "Cat\nat\nbat\ncats" {
		t.Errorf("connected = %q", got)
	}
	if got := resultText(callTool(t, srv, "connected_words", map[string]any{"word": "zebra"})); got != "no connected words" {
		t.Errorf("isolated = %q", got)
	}
	if r := callTool(t, srv, "connected_words", map[string]any{"word": "dog"}); !r.IsError {
		t.Error("expected error for unknown word")
	}
}

func TestWordChanges(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "word_changes", map[string]any{"word": "at"})
	var lw graphservice.LinkedWord
	if err := json.Unmarshal([]byte(resultText(r)), &lw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(lw.Gaps) != 3 || len(lw.Gaps[0].Changes) != 3 {
		t.Errorf("gaps = %+v", lw.Gaps)
	}
}

func TestPossibleLetters(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "possible_replacements", map[string]any{"word": "cat", "position": float64(0)})
	if got := resultText(r); got != "[\n  \"C\",\n  \"b\"\n]" {
		t.Errorf("replacements = %q", got)
	}

	r = callTool(t, srv, "possible_insertions", map[string]any{"word": "cat", "position": float64(3)})
	var letters []string
	_ = json.Unmarshal([]byte(resultText(r)), &letters)
	if len(letters) != 1 || letters[0] != "s" {
		t.Errorf("insertions = %v", letters)
	}

	r = callTool(t, srv, "possible_insertions", map[string]any{"word": "cat"})
	if !r.IsError {
		t.Error("expected error for missing position")
	}
}

func TestShortestPath(t *testing.T) {
	srv, svc := testServer(t)
	if _, err := svc.Activate(context.Background(), "cold"); err != nil {
		t.Fatal(err)
	}
	got := resultText(callTool(t, srv, "shortest_path", map[string]any{"from": "cold", "to": "warm"}))
	if got != "cold -> cord -> card -> ward -> warm" {
		t.Errorf("path = %q", got)
	}
}

func TestShortestPath_NoPath(t *testing.T) {
	srv, _ := testServer(t)
	got := resultText(callTool(t, srv, "shortest_path", map[string]any{"from": "cat", "to": "zebra"}))
	if got != "no path from cat to zebra" {
		t.Errorf("path = %q", got)
	}
}

func TestSubgraphReport(t *testing.T) {
	srv, _ := testServer(t)
	got := resultText(callTool(t, srv, "subgraph_report", map[string]any{"top": float64(1)}))
	if !strings.Contains(got, "Connected subgraphs: 2") || !strings.Contains(got, "zebra") {
		t.Errorf("report = %q", got)
	}
}

func TestSearchWords(t *testing.T) {
	srv, _ := testServer(t)
	if got := resultText(callTool(t, srv, "search_words", map[string]any{"prefix": "ca"})); got != "cat\ncats" {
		t.Errorf("search = %q", got)
	}
	if got := resultText(callTool(t, srv, "search_words", map[string]any{"prefix": "x"})); got != "no matches" {
		t.Errorf("search = %q", got)
	}
}

func TestVocabularyTools(t *testing.T) {
	srv, svc := testServer(t)

	got := resultText(callTool(t, srv, "list_vocabularies", map[string]any{}))
	if !strings.Contains(got, `"name": "cold"`) {
		t.Errorf("list = %q", got)
	}

	r := callTool(t, srv, "activate_vocabulary", map[string]any{"name": "cold"})
	if r.IsError || svc.Active().Name != "cold" {
		t.Errorf("activate failed: %q", resultText(r))
	}

	r = callTool(t, srv, "activate_vocabulary", map[string]any{"name": "missing"})
	if !r.IsError {
		t.Error("expected error for missing vocabulary")
	}
}

func TestImportVocabulary_DataURI(t *testing.T) {
	srv, svc := testServer(t)
	uri := "data:text/plain;base64," + base64.StdEncoding.EncodeToString([]byte("dog\nfog\n"))

	r := callTool(t, srv, "import_vocabulary", map[string]any{"url": uri, "filename": "pets.txt"})
	if r.IsError {
		t.Fatalf("import failed: %q", resultText(r))
	}
	var res importResult
	_ = json.Unmarshal([]byte(resultText(r)), &res)
	if res.Vocabulary != "pets" || res.Words != 2 {
		t.Errorf("import result = %+v", res)
	}
	if _, err := svc.Activate(context.Background(), "pets"); err != nil {
		t.Errorf("imported vocabulary not indexed: %v", err)
	}
}

func TestImportVocabulary_Rejected(t *testing.T) {
	srv, _ := testServer(t)

	bad := "data:application/json;base64," + base64.StdEncoding.EncodeToString([]byte(`{"cat":{"delete":"c"}}`))
	if r := callTool(t, srv, "import_vocabulary", map[string]any{"url": bad, "filename": "bad.json"}); !r.IsError {
		t.Error("expected error for malformed graph")
	}

	png := "data:image/png;base64,iVBORw0KGgo="
	if r := callTool(t, srv, "import_vocabulary", map[string]any{"url": png}); !r.IsError {
		t.Error("expected error for unsupported MIME type")
	}

	if r := callTool(t, srv, "import_vocabulary", map[string]any{"url": "http://127.0.0.1/words.txt"}); !r.IsError {
		t.Error("expected loopback host to be blocked")
	}
}

func TestEncodingFormat(t *testing.T) {
	srv, _ := testServer(t)
	got := resultText(callTool(t, srv, "get_encoding_format", map[string]any{}))
	if !strings.Contains(got, "Mask strings") {
		t.Errorf("contract missing section: %q", got[:80])
	}

	contents, err := srv.readEncodingFormatResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil || len(contents) != 1 {
		t.Fatalf("resource = %v, %v", contents, err)
	}
	if tc, ok := contents[0].(mcp.TextResourceContents); !ok || tc.URI != encodingFormatURI {
		t.Errorf("resource contents = %+v", contents[0])
	}
}

func TestSanitizeFilename(t *testing.T) {
	for in, want := range map[string]string{
		"../../etc/passwd": "passwd",
		"my words.txt":     "my_words.txt",
		".hidden.txt":      "hidden.txt",
	} {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
