// Package vocab loads the word graph from its external sources: a pre-built
// encoded graph, the raw word list, or the built-in sample vocabulary.
package vocab

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/starford/wordhop/internal/graphfile"
	"github.com/starford/wordhop/internal/metrics"
	"github.com/starford/wordhop/internal/wordgraph"
	"github.com/starford/wordhop/internal/wordlist"
)

//go:embed sample.txt
var sampleWords []byte

// Origins reported in Result.Origin.
const (
	OriginEncoded  = "encoded"
	OriginWordList = "wordlist"
	OriginSample   = "sample"
)

// maxEncodedSize caps remote downloads.
const maxEncodedSize = 64 << 20

// Source names where a graph may come from. Empty fields are skipped.
type Source struct {
	// Encoded is an http(s) URL or file path of an encoded graph.
	Encoded string
	// Words is the path of a newline-delimited word list.
	Words string
}

// Result is a loaded graph and where it came from.
type Result struct {
	Graph  *wordgraph.Graph
	Origin string
	Title  string
}

// Loader applies the fallback chain encoded graph → word list → sample.
type Loader struct {
	client *http.Client
	logger *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithHTTPClient overrides the client used for remote encoded graphs.
func WithHTTPClient(c *http.Client) Option {
	return func(l *Loader) { l.client = c }
}

// NewLoader returns a loader logging through logger.
func NewLoader(logger *slog.Logger, opts ...Option) *Loader {
	l := &Loader{
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Load returns the first graph that can be obtained from src. It only fails
// when ctx is done; otherwise the built-in sample is the last resort.
func (l *Loader) Load(ctx context.Context, src Source) (*Result, error) {
	if src.Encoded != "" {
		g, err := l.loadEncoded(ctx, src.Encoded)
		if err == nil {
			return &Result{Graph: g, Origin: OriginEncoded, Title: src.Encoded}, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		l.logger.Warn("vocab: encoded graph unavailable, falling back",
			slog.String("source", src.Encoded), slog.String("error", err.Error()))
	}

	if src.Words != "" {
		res, err := l.loadWordList(src.Words)
		if err == nil {
			return res, nil
		}
		l.logger.Warn("vocab: word list unavailable, falling back",
			slog.String("source", src.Words), slog.String("error", err.Error()))
	}

	return Sample(), nil
}

// Sample returns the built-in vocabulary's graph.
func Sample() *Result {
	start := time.Now()
	res, err := wordlist.Parse(sampleWords)
	if err != nil {
		// The embedded file is fixed; a parse error means the binary is broken.
		panic(fmt.Sprintf("vocab: embedded sample: %v", err))
	}
	g := wordgraph.NewFromVocabulary(res.Words)
	metrics.ObserveBuild(metrics.SourceFallback, time.Since(start))
	return &Result{Graph: g, Origin: OriginSample, Title: res.Title("sample")}
}

func (l *Loader) loadEncoded(ctx context.Context, loc string) (*wordgraph.Graph, error) {
	start := time.Now()
	data, name, err := l.fetch(ctx, loc)
	if err != nil {
		metrics.GraphLoadErrors.WithLabelValues("fetch").Inc()
		return nil, err
	}
	format, ok := graphfile.FormatFromPath(name)
	if !ok {
		format = graphfile.FormatJSON
	}
	raw, err := graphfile.Unmarshal(format, data)
	if err != nil {
		metrics.GraphLoadErrors.WithLabelValues("decode").Inc()
		return nil, err
	}
	g, err := wordgraph.NewFromEncoded(raw)
	if err != nil {
		metrics.GraphLoadErrors.WithLabelValues("format").Inc()
		return nil, err
	}
	metrics.ObserveBuild(metrics.SourceEncoded, time.Since(start))
	return g, nil
}

func (l *Loader) loadWordList(path string) (*Result, error) {
	start := time.Now()
	data, err := os.ReadFile(path)
	if err != nil {
		metrics.GraphLoadErrors.WithLabelValues("fetch").Inc()
		return nil, err
	}
	res, err := wordlist.Parse(data)
	if err != nil {
		metrics.GraphLoadErrors.WithLabelValues("parse").Inc()
		return nil, err
	}
	if len(res.Words) == 0 {
		metrics.GraphLoadErrors.WithLabelValues("parse").Inc()
		return nil, errors.New("vocab: word list is empty")
	}
	g := wordgraph.NewFromVocabulary(res.Words)
	metrics.ObserveBuild(metrics.SourceWordList, time.Since(start))
	return &Result{Graph: g, Origin: OriginWordList, Title: res.Title(path)}, nil
}

// fetch reads loc from disk or over HTTP and returns the name used for
// format detection.
func (l *Loader) fetch(ctx context.Context, loc string) ([]byte, string, error) {
	if u, err := url.Parse(loc); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		data, err := os.ReadFile(loc)
		return data, loc, err
	}

	remote, err := Fetch(ctx, l.client, loc, maxEncodedSize)
	if err != nil {
		return nil, "", err
	}
	if strings.Contains(remote.MediaType, "msgpack") {
		return remote.Data, "graph.mp", nil
	}
	return remote.Data, remote.Name, nil
}
