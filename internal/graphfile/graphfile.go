// Package graphfile reads and writes encoded graphs as JSON or msgpack.
package graphfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/starford/wordhop/internal/models"
)

// Format is a serialization of models.EncodedGraph.
type Format string

// Supported formats.
const (
	FormatJSON    Format = "json"
	FormatMsgpack Format = "msgpack"
)

// ParseFormat maps a user-supplied name to a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json":
		return FormatJSON, nil
	case "msgpack", "mp":
		return FormatMsgpack, nil
	}
	return "", fmt.Errorf("graphfile: unknown format %q", name)
}

// FormatFromPath picks the format from a file extension; ok is false for
// paths that do not name an encoded graph.
func FormatFromPath(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, true
	case ".mp", ".msgpack":
		return FormatMsgpack, true
	}
	return "", false
}

// ContentType returns the HTTP media type for f.
func (f Format) ContentType() string {
	if f == FormatMsgpack {
		return "application/msgpack"
	}
	return "application/json"
}

// Marshal serializes g. JSON output is indented with keys in sorted order.
func Marshal(f Format, g models.EncodedGraph) ([]byte, error) {
	switch f {
	case FormatJSON:
		data, err := json.MarshalIndent(g, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("graphfile: encode json: %w", err)
		}
		return append(data, '\n'), nil
	case FormatMsgpack:
		var buf bytes.Buffer
		enc := msgpack.NewEncoder(&buf)
		enc.SetSortMapKeys(true)
		if err := enc.Encode(g); err != nil {
			return nil, fmt.Errorf("graphfile: encode msgpack: %w", err)
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("graphfile: unknown format %q", f)
}

// Unmarshal parses data in format f. JSON input may use the legacy array
// form for insert and replace fields.
func Unmarshal(f Format, data []byte) (models.EncodedGraph, error) {
	g := models.EncodedGraph{}
	switch f {
	case FormatJSON:
		if err := json.Unmarshal(data, &g); err != nil {
			return nil, fmt.Errorf("graphfile: decode json: %w", err)
		}
	case FormatMsgpack:
		if err := msgpack.Unmarshal(data, &g); err != nil {
			return nil, fmt.Errorf("graphfile: decode msgpack: %w", err)
		}
	default:
		return nil, fmt.Errorf("graphfile: unknown format %q", f)
	}
	if g == nil {
		g = models.EncodedGraph{}
	}
	return g, nil
}
