package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/wordhop/internal/storage"
	"github.com/starford/wordhop/internal/vocab"
)

const maxImportSize = 20 << 20

var (
	extByMediaType = map[string]string{
		"text/plain":            storage.ExtWordList,
		"application/json":      storage.ExtJSON,
		"application/msgpack":   storage.ExtMsgpack,
		"application/x-msgpack": storage.ExtMsgpack,
	}

	unsafeFilenameRe = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
)

type importResult struct {
	Vocabulary string `json:"vocabulary"`
	Words      int    `json:"words"`
	SavedPath  string `json:"savedPath"`
}

func (s *Server) importVocabulary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	data, name, err := s.download(ctx, source)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(data) > maxImportSize {
		return mcp.NewToolResultError(fmt.Sprintf("file too large: %d bytes (max %d)", len(data), maxImportSize)), nil
	}

	filename := sanitizeFilename(req.GetString("filename", name))
	if !storage.IsVocabularyFile(filename) {
		return mcp.NewToolResultError(fmt.Sprintf("unsupported file extension %q (allowed: .txt, .json, .mp)", filepath.Ext(filename))), nil
	}
	if textual(filename) && !utf8.Valid(data) {
		return mcp.NewToolResultError(fmt.Sprintf("content of %s is not valid UTF-8", filename)), nil
	}

	row, err := s.svc.UploadVocabulary(ctx, filename, data)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("import %s: %v", filename, err)), nil
	}

	out, _ := json.Marshal(importResult{Vocabulary: row.Name, Words: row.WordCount, SavedPath: filename})
	return mcp.NewToolResultText(string(out)), nil
}

// download reads a data URI or an http(s) URL and proposes a file name. The
// extension comes from the URL path when it names a vocabulary file, else
// from the media type.
func (s *Server) download(ctx context.Context, source string) ([]byte, string, error) {
	if strings.HasPrefix(source, "data:") {
		data, mediaType, err := vocab.DecodeDataURI(source)
		if err != nil {
			return nil, "", err
		}
		ext, ok := extByMediaType[mediaType]
		if !ok {
			return nil, "", fmt.Errorf("unsupported media type in data URI: %s", mediaType)
		}
		return data, uuid.NewString() + ext, nil
	}

	remote, err := vocab.Fetch(ctx, s.client, source, maxImportSize)
	if err != nil {
		return nil, "", err
	}
	if storage.IsVocabularyFile(remote.Name) {
		return remote.Data, remote.Name, nil
	}
	ext, ok := extByMediaType[remote.MediaType]
	if !ok {
		ext = storage.ExtWordList
	}
	return remote.Data, uuid.NewString() + ext, nil
}

// sanitizeFilename keeps the base name and replaces unsafe characters.
func sanitizeFilename(name string) string {
	name = unsafeFilenameRe.ReplaceAllString(filepath.Base(name), "_")
	name = strings.TrimLeft(name, ".")
	if name == "" {
		return uuid.NewString() + storage.ExtWordList
	}
	return name
}

func textual(filename string) bool {
	return storage.IsWordList(filename) || filepath.Ext(filename) == storage.ExtJSON
}
