package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/daybook/internal/entryservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *entryservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/entries", h.ListEntries)
	r.Get("/entries/*", h.GetEntry)

	// Previews of what each destination would receive.
	r.Get("/blocks/*", h.Blocks)
	r.Get("/mrkdwn/*", h.Mrkdwn)
	r.Get("/links/*", h.Links)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
