package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/wordhop/internal/graphservice"
	"github.com/starford/wordhop/internal/metrics"
)

// EventStream is the SSE broker as seen by the router.
type EventStream interface {
	http.Handler
	Publisher
}

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// events, if non-nil, is mounted at GET /events inside the auth group and
// receives activation events.
func NewRouter(svc *graphservice.Service, authEnabled bool, token string, events EventStream) chi.Router {
	var pub Publisher
	if events != nil {
		pub = events
	}
	h := NewHandler(svc, pub)

	r := chi.NewRouter()
	r.Use(metrics.Middleware)
	r.Use(AuthMiddleware(authEnabled, token))

	// Vocabularies.
	r.Get("/vocabularies", h.ListVocabularies)
	r.Post("/vocabularies", h.CreateVocabulary)
	r.Post("/vocabularies/upload", h.UploadVocabulary)
	r.Put("/vocabularies/*", h.UpdateVocabulary)
	r.Delete("/vocabularies/*", h.DeleteVocabulary)
	r.Get("/active", h.GetActive)
	r.Put("/active", h.SetActive)

	// Words.
	r.Get("/words/{word}", h.GetWord)
	r.Get("/words/{word}/changes", h.GetChanges)
	r.Get("/words/{word}/replacements/{pos}", h.GetReplacements)
	r.Get("/words/{word}/insertions/{pos}", h.GetInsertions)

	// Graph.
	r.Get("/path", h.ShortestPath)
	r.Get("/search", h.Search)
	r.Get("/stats", h.Stats)
	r.Get("/subgraphs", h.Subgraphs)
	r.Get("/subgraphs/report", h.SubgraphReport)
	r.Get("/graph", h.ExportGraph)

	// SSE endpoint (protected by same auth middleware).
	if events != nil {
		r.Get("/events", events.ServeHTTP)
	}

	return r
}
