package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/wordhop/internal/checksum"
	"github.com/starford/wordhop/internal/graphfile"
	"github.com/starford/wordhop/internal/graphservice"
	"github.com/starford/wordhop/internal/sse"
	"github.com/starford/wordhop/internal/wordgraph"
)

const maxBodyBytes = 10 << 20

// Publisher receives events emitted by handlers.
type Publisher interface {
	Publish(event sse.Event)
}

// Handler holds API route handlers.
type Handler struct {
	svc    *graphservice.Service
	events Publisher
}

// NewHandler creates a new Handler. events may be nil.
func NewHandler(svc *graphservice.Service, events Publisher) *Handler {
	return &Handler{svc: svc, events: events}
}

// pathParam returns an unescaped URL parameter. Encoded words from clients
// (e.g. %C3%A9clair) are decoded.
func pathParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// vocabularyPath extracts the vocabulary name from the wildcard.
func vocabularyPath(r *http.Request) string {
	return strings.Trim(pathParam(r, "*"), "/")
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	return true
}

// ListVocabularies handles GET /api/vocabularies.
//
//	@Summary		List indexed vocabularies
//	@Tags			vocabularies
//	@Produce		json
//	@Success		200	{object}	VocabularyListResponse
//	@Security		BearerAuth
//	@Router			/vocabularies [get]
func (h *Handler) ListVocabularies(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.Vocabularies(r.Context())
	if err != nil {
		writeError(w, err, "list vocabularies")
		return
	}
	writeJSON(w, http.StatusOK, VocabularyListResponse{Vocabularies: rows, Active: h.svc.Active()})
}

// CreateVocabulary handles POST /api/vocabularies.
//
//	@Summary		Create a word list
//	@Tags			vocabularies
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateVocabularyRequest	true	"Word list to create"
//	@Success		201		{object}	index.VocabularyRow
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/vocabularies [post]
func (h *Handler) CreateVocabulary(w http.ResponseWriter, r *http.Request) {
	var req CreateVocabularyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	row, err := h.svc.CreateVocabulary(r.Context(), req.Name, []byte(req.Content))
	if err != nil {
		writeError(w, err, "create vocabulary", slog.String("name", req.Name))
		return
	}
	w.Header().Set("ETag", checksum.ETag(row.Checksum))
	writeJSON(w, http.StatusCreated, row)
}

// UpdateVocabulary handles PUT /api/vocabularies/*.
//
//	@Summary		Replace a word list with optimistic concurrency
//	@Tags			vocabularies
//	@Accept			json
//	@Produce		json
//	@Param			name		path		string					true	"Vocabulary name"
//	@Param			If-Match	header		string					false	"SHA-256 checksum for optimistic concurrency"
//	@Param			body		body		UpdateVocabularyRequest	true	"Updated word list"
//	@Success		200			{object}	index.VocabularyRow
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/vocabularies/{name} [put]
func (h *Handler) UpdateVocabulary(w http.ResponseWriter, r *http.Request) {
	name := vocabularyPath(r)
	if name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("name is required"))
		return
	}
	var req UpdateVocabularyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	ifMatch := checksum.FromETag(r.Header.Get("If-Match"))

	row, err := h.svc.UpdateVocabulary(r.Context(), name, []byte(req.Content), ifMatch)
	if err != nil {
		writeError(w, err, "update vocabulary", slog.String("name", name))
		return
	}
	w.Header().Set("ETag", checksum.ETag(row.Checksum))
	writeJSON(w, http.StatusOK, row)
}

// DeleteVocabulary handles DELETE /api/vocabularies/*.
//
//	@Summary		Delete a word list
//	@Tags			vocabularies
//	@Param			name	path	string	true	"Vocabulary name"
//	@Success		204		"Vocabulary deleted"
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/vocabularies/{name} [delete]
func (h *Handler) DeleteVocabulary(w http.ResponseWriter, r *http.Request) {
	name := vocabularyPath(r)
	if name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("name is required"))
		return
	}
	if err := h.svc.DeleteVocabulary(r.Context(), name); err != nil {
		writeError(w, err, "delete vocabulary", slog.String("name", name))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetActive handles GET /api/active.
//
//	@Summary		Describe the active vocabulary
//	@Tags			vocabularies
//	@Produce		json
//	@Success		200	{object}	graphservice.Active
//	@Security		BearerAuth
//	@Router			/active [get]
func (h *Handler) GetActive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Active())
}

// SetActive handles PUT /api/active.
//
//	@Summary		Switch the active vocabulary
//	@Tags			vocabularies
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ActivateRequest	true	"Vocabulary to activate"
//	@Success		200		{object}	graphservice.Active
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/active [put]
func (h *Handler) SetActive(w http.ResponseWriter, r *http.Request) {
	var req ActivateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	active, err := h.svc.Activate(r.Context(), req.Name)
	if err != nil {
		writeError(w, err, "activate vocabulary", slog.String("name", req.Name))
		return
	}
	if h.events != nil {
		h.events.Publish(sse.Event{Type: sse.EventGraphActivated, Data: active})
	}
	writeJSON(w, http.StatusOK, active)
}

// Stats handles GET /api/stats.
//
//	@Summary		Count words and edges of the active graph
//	@Tags			graph
//	@Produce		json
//	@Success		200	{object}	wordgraph.Stats
//	@Security		BearerAuth
//	@Router			/stats [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Stats(r.Context()))
}

// GetWord handles GET /api/words/{word}.
//
//	@Summary		Get a word's node, edges and connected words
//	@Tags			words
//	@Produce		json
//	@Param			word	path		string	true	"Word"
//	@Success		200		{object}	WordDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/words/{word} [get]
func (h *Handler) GetWord(w http.ResponseWriter, r *http.Request) {
	word := pathParam(r, "word")
	detail, err := h.svc.Word(r.Context(), word)
	if err != nil {
		writeError(w, err, "get word", slog.String("word", word))
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// GetChanges handles GET /api/words/{word}/changes.
//
//	@Summary		Get the linked letter and gap views of a word
//	@Tags			words
//	@Produce		json
//	@Param			word	path		string	true	"Word"
//	@Success		200		{object}	LinkedWord
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/words/{word}/changes [get]
func (h *Handler) GetChanges(w http.ResponseWriter, r *http.Request) {
	word := pathParam(r, "word")
	linked, err := h.svc.Changes(r.Context(), word)
	if err != nil {
		writeError(w, err, "get changes", slog.String("word", word))
		return
	}
	writeJSON(w, http.StatusOK, linked)
}

// GetReplacements handles GET /api/words/{word}/replacements/{pos}.
//
//	@Summary		Letters that can replace the letter at a position
//	@Tags			words
//	@Produce		json
//	@Param			word	path		string	true	"Word"
//	@Param			pos		path		int		true	"Letter index"
//	@Success		200		{object}	LettersResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/words/{word}/replacements/{pos} [get]
func (h *Handler) GetReplacements(w http.ResponseWriter, r *http.Request) {
	h.letters(w, r, "replacements", h.svc.Replacements)
}

// GetInsertions handles GET /api/words/{word}/insertions/{pos}.
//
//	@Summary		Letters that can be inserted at a gap
//	@Tags			words
//	@Produce		json
//	@Param			word	path		string	true	"Word"
//	@Param			pos		path		int		true	"Gap index"
//	@Success		200		{object}	LettersResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/words/{word}/insertions/{pos} [get]
func (h *Handler) GetInsertions(w http.ResponseWriter, r *http.Request) {
	h.letters(w, r, "insertions", h.svc.Insertions)
}

func (h *Handler) letters(w http.ResponseWriter, r *http.Request, op string,
	query func(ctx context.Context, word string, pos int) ([]string, error)) {
	word := pathParam(r, "word")
	pos, err := strconv.Atoi(chi.URLParam(r, "pos"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("position must be an integer"))
		return
	}
	letters, err := query(r.Context(), word, pos)
	if err != nil {
		writeError(w, err, op, slog.String("word", word))
		return
	}
	writeJSON(w, http.StatusOK, LettersResponse{Word: word, Position: pos, Letters: letters})
}

// ShortestPath handles GET /api/path.
//
//	@Summary		Shortest chain of single edits between two words
//	@Tags			graph
//	@Produce		json
//	@Param			from	query		string	true	"Start word"
//	@Param			to		query		string	true	"Target word"
//	@Success		200		{object}	PathResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/path [get]
func (h *Handler) ShortestPath(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to := q.Get("from"), q.Get("to")
	if from == "" || to == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameters 'from' and 'to' are required"))
		return
	}
	res, err := h.svc.Path(r.Context(), from, to)
	if err != nil {
		writeError(w, err, "shortest path", slog.String("from", from), slog.String("to", to))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Search handles GET /api/search.
//
//	@Summary		Prefix search over the active vocabulary
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Word prefix"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, err, "search", slog.String("query", q))
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Subgraphs handles GET /api/subgraphs.
//
//	@Summary		Connected components of the active graph, largest first
//	@Tags			graph
//	@Produce		json
//	@Param			limit	query		int	false	"Max components"
//	@Success		200		{object}	SubgraphListResponse
//	@Security		BearerAuth
//	@Router			/subgraphs [get]
func (h *Handler) Subgraphs(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	comps := h.svc.Subgraphs(r.Context())
	writeJSON(w, http.StatusOK, SubgraphListResponse{Count: len(comps), Subgraphs: subgraphItems(comps, limit)})
}

// SubgraphReport handles GET /api/subgraphs/report.
//
//	@Summary		Plain-text connectivity report
//	@Tags			graph
//	@Produce		plain
//	@Param			top			query	int	false	"Components to list"
//	@Param			sample		query	int	false	"Words shown per component"
//	@Param			singletons	query	int	false	"Isolated words shown"
//	@Success		200			{string}	string
//	@Security		BearerAuth
//	@Router			/subgraphs/report [get]
func (h *Handler) SubgraphReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := wordgraph.ReportOptions{}
	opts.Top, _ = strconv.Atoi(q.Get("top"))
	opts.SampleSize, _ = strconv.Atoi(q.Get("sample"))
	opts.MaxSingletons, _ = strconv.Atoi(q.Get("singletons"))

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, h.svc.Report(r.Context(), opts))
}

// ExportGraph handles GET /api/graph.
//
//	@Summary		Export the active graph in its encoded form
//	@Tags			graph
//	@Produce		json
//	@Produce		application/msgpack
//	@Param			format	query	string	false	"Encoding"	Enums(json, msgpack)
//	@Success		200		{object}	models.EncodedGraph
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/graph [get]
func (h *Handler) ExportGraph(w http.ResponseWriter, r *http.Request) {
	format, err := graphfile.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	data, err := h.svc.Export(r.Context(), format)
	if err != nil {
		writeError(w, err, "export graph")
		return
	}
	sum := checksum.Sum(data)
	w.Header().Set("ETag", checksum.ETag(sum))
	if checksum.FromETag(r.Header.Get("If-None-Match")) == sum {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
