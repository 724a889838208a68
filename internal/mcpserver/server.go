// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes word graph queries for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/wordhop/internal/apperr"
	"github.com/starford/wordhop/internal/graphservice"
	"github.com/starford/wordhop/internal/vocab"
	"github.com/starford/wordhop/internal/wordgraph"
)

const encodingFormatURI = "wordhop://encoding-format"

// Server wraps the MCP server with wordhop tools.
type Server struct {
	mcp    *server.MCPServer
	svc    *graphservice.Service
	client *http.Client
}

// New creates a new MCP server with all wordhop tools registered.
func New(svc *graphservice.Service, version string) *Server {
	s := &Server{svc: svc, client: vocab.GuardedClient(30 * time.Second)}

	s.mcp = server.NewMCPServer(
		"wordhop",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("has_word",
		mcp.WithDescription("Report whether a word is in the active vocabulary."),
		mcp.WithString("word", mcp.Required(), mcp.Description("Word to look up (case-sensitive)")),
	), s.hasWord)

	s.mcp.AddTool(mcp.NewTool("connected_words",
		mcp.WithDescription("List the words reachable from a word by one deletion, insertion, "+
			"replacement or case change."),
		mcp.WithString("word", mcp.Required(), mcp.Description("Word to expand")),
	), s.connectedWords)

	s.mcp.AddTool(mcp.NewTool("word_changes",
		mcp.WithDescription("Return every legal single-letter change of a word, grouped by letter "+
			"and by gap, each with the word it produces."),
		mcp.WithString("word", mcp.Required(), mcp.Description("Word to describe")),
	), s.wordChanges)

	s.mcp.AddTool(mcp.NewTool("possible_replacements",
		mcp.WithDescription("Letters that can replace the letter at a position and still form a word."),
		mcp.WithString("word", mcp.Required(), mcp.Description("Word to edit")),
		mcp.WithNumber("position", mcp.Required(), mcp.Description("Zero-based letter index")),
	), s.possibleReplacements)

	s.mcp.AddTool(mcp.NewTool("possible_insertions",
		mcp.WithDescription("Letters that can be inserted at a gap and still form a word. "+
			"Gap 0 is before the first letter; gap len(word) is after the last."),
		mcp.WithString("word", mcp.Required(), mcp.Description("Word to edit")),
		mcp.WithNumber("position", mcp.Required(), mcp.Description("Zero-based gap index")),
	), s.possibleInsertions)

	s.mcp.AddTool(mcp.NewTool("shortest_path",
		mcp.WithDescription("Find a shortest chain of single-letter edits between two words."),
		mcp.WithString("from", mcp.Required(), mcp.Description("Start word")),
		mcp.WithString("to", mcp.Required(), mcp.Description("Target word")),
	), s.shortestPath)

	s.mcp.AddTool(mcp.NewTool("subgraph_report",
		mcp.WithDescription("Plain-text report of the connected components of the active "+
			"vocabulary: totals, largest components and isolated words."),
		mcp.WithNumber("top", mcp.Description("Number of largest components to list (default 10)")),
	), s.subgraphReport)

	s.mcp.AddTool(mcp.NewTool("search_words",
		mcp.WithDescription("Find words of the active vocabulary starting with a prefix."),
		mcp.WithString("prefix", mcp.Required(), mcp.Description("Word prefix")),
		mcp.WithNumber("limit", mcp.Description("Maximum results (default 20)")),
	), s.searchWords)

	s.mcp.AddTool(mcp.NewTool("list_vocabularies",
		mcp.WithDescription("List the indexed vocabularies and the active one."),
	), s.listVocabularies)

	s.mcp.AddTool(mcp.NewTool("activate_vocabulary",
		mcp.WithDescription("Switch the active vocabulary."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Vocabulary name as listed by list_vocabularies")),
	), s.activateVocabulary)

	s.mcp.AddTool(mcp.NewTool("import_vocabulary",
		mcp.WithDescription("Import a word list (.txt) or encoded graph (.json, .mp) from an "+
			"http(s) URL or a base64 data URI. Encoded graphs MUST follow the format returned by "+
			"get_encoding_format or the "+encodingFormatURI+" resource."),
		mcp.WithString("url", mcp.Required(), mcp.Description("http(s) URL or data: URI")),
		mcp.WithString("filename", mcp.Description("Optional file name; its extension selects the format")),
	), s.importVocabulary)

	s.mcp.AddTool(mcp.NewTool("get_encoding_format",
		mcp.WithDescription("Returns the serialized word graph format."),
	), s.getEncodingFormat)

	// Resource: encoded graph format.
	s.mcp.AddResource(
		mcp.NewResource(encodingFormatURI, "Encoded Graph Format",
			mcp.WithResourceDescription("Serialized form of the word graph used by exports and imports."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readEncodingFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func errorResult(err error, word string) *mcp.CallToolResult {
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", word))
	}
	return mcp.NewToolResultError(err.Error())
}

func (s *Server) hasWord(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	word, err := req.RequireString("word")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%t", s.svc.Graph().HasWord(word))), nil
}

func (s *Server) connectedWords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	word, err := req.RequireString("word")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	detail, err := s.svc.Word(ctx, word)
	if err != nil {
		return errorResult(err, word), nil
	}
	if len(detail.Connected) == 0 {
		return mcp.NewToolResultText("no connected words"), nil
	}
	return mcp.NewToolResultText(strings.Join(detail.Connected, "\n")), nil
}

func (s *Server) wordChanges(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	word, err := req.RequireString("word")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	linked, err := s.svc.Changes(ctx, word)
	if err != nil {
		return errorResult(err, word), nil
	}
	return jsonResult(linked), nil
}

func (s *Server) possibleReplacements(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.letters(ctx, req, s.svc.Replacements)
}

func (s *Server) possibleInsertions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.letters(ctx, req, s.svc.Insertions)
}

func (s *Server) letters(ctx context.Context, req mcp.CallToolRequest,
	query func(context.Context, string, int) ([]string, error)) (*mcp.CallToolResult, error) {
	word, err := req.RequireString("word")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	pos, err := req.RequireInt("position")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	letters, err := query(ctx, word, pos)
	if err != nil {
		return errorResult(err, word), nil
	}
	return jsonResult(letters), nil
}

func (s *Server) shortestPath(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	from, err := req.RequireString("from")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	to, err := req.RequireString("to")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.Path(ctx, from, to)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !res.Found {
		return mcp.NewToolResultText(fmt.Sprintf("no path from %s to %s", from, to)), nil
	}
	return mcp.NewToolResultText(strings.Join(res.Words, " -> ")), nil
}

func (s *Server) subgraphReport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts := wordgraph.ReportOptions{Top: req.GetInt("top", 0)}
	return mcp.NewToolResultText(s.svc.Report(ctx, opts)), nil
}

func (s *Server) searchWords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prefix, err := req.RequireString("prefix")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	words, err := s.svc.Search(ctx, prefix, req.GetInt("limit", 20))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(words) == 0 {
		return mcp.NewToolResultText("no matches"), nil
	}
	return mcp.NewToolResultText(strings.Join(words, "\n")), nil
}

func (s *Server) listVocabularies(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rows, err := s.svc.Vocabularies(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"active":       s.svc.Active(),
		"vocabularies": rows,
	}), nil
}

func (s *Server) activateVocabulary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	active, err := s.svc.Activate(ctx, name)
	if err != nil {
		return errorResult(err, name), nil
	}
	return jsonResult(active), nil
}

func (s *Server) getEncodingFormat(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(EncodingFormatContract), nil
}

func (s *Server) readEncodingFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      encodingFormatURI,
			MIMEType: "text/markdown",
			Text:     EncodingFormatContract,
		},
	}, nil
}
