package api

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/daybook/internal/entryservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *entryservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *entryservice.Service) *Handler {
	return &Handler{svc: svc}
}

// entryPath extracts the entry path from the wildcard part of the URL.
// Supports encoded slashes (e.g. 2024%2F2024-01-02.md).
func entryPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListEntries handles GET /api/entries.
//
//	@Summary		List entries, newest first
//	@Tags			entries
//	@Produce		json
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Param			q		query		string	false	"Filter by subject or path"
//	@Success		200		{object}	EntryListResponse
//	@Security		BearerAuth
//	@Router			/entries [get]
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	items, total := h.svc.ListEntries(r.Context(), limit, offset, q.Get("q"))
	writeJSON(w, http.StatusOK, EntryListResponse{Entries: items, Total: total})
}

// GetEntry handles GET /api/entries/*. The response carries an ETag and a
// matching If-None-Match yields 304.
//
//	@Summary		Get a parsed entry
//	@Tags			entries
//	@Produce		json
//	@Param			path	path		string	true	"Entry path"
//	@Success		200		{object}	EntryDetail
//	@Success		304		"Not modified"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/entries/{path} [get]
func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	path := entryPath(r)
	if path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}
	entry, err := h.svc.GetEntry(r.Context(), path)
	if err != nil {
		writeServiceError(w, "get entry", path, err)
		return
	}
	w.Header().Set("ETag", entry.ETag)
	if match := r.Header.Get("If-None-Match"); match != "" && match == entry.ETag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// Blocks handles GET /api/blocks/*.
//
//	@Summary		Preview the content blocks of an entry
//	@Tags			preview
//	@Produce		json
//	@Param			path	path		string	true	"Entry path"
//	@Success		200		{object}	BlocksResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/blocks/{path} [get]
func (h *Handler) Blocks(w http.ResponseWriter, r *http.Request) {
	path := entryPath(r)
	bs, err := h.svc.Blocks(r.Context(), path)
	if err != nil {
		writeServiceError(w, "blocks", path, err)
		return
	}
	writeJSON(w, http.StatusOK, BlocksResponse{Path: path, Blocks: bs})
}

// Mrkdwn handles GET /api/mrkdwn/*.
//
//	@Summary		Preview the chat message of an entry
//	@Tags			preview
//	@Produce		plain
//	@Param			path	path		string	true	"Entry path"
//	@Success		200		{string}	string
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/mrkdwn/{path} [get]
func (h *Handler) Mrkdwn(w http.ResponseWriter, r *http.Request) {
	path := entryPath(r)
	text, err := h.svc.Mrkdwn(r.Context(), path)
	if err != nil {
		writeServiceError(w, "mrkdwn", path, err)
		return
	}
	writeText(w, http.StatusOK, text)
}

// Links handles GET /api/links/*.
//
//	@Summary		List the links of an entry
//	@Tags			preview
//	@Produce		json
//	@Param			path	path		string	true	"Entry path"
//	@Success		200		{object}	LinksResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/links/{path} [get]
func (h *Handler) Links(w http.ResponseWriter, r *http.Request) {
	path := entryPath(r)
	items, err := h.svc.Links(r.Context(), path)
	if err != nil {
		writeServiceError(w, "links", path, err)
		return
	}
	internal := 0
	for _, it := range items {
		if it.Internal {
			internal++
		}
	}
	writeJSON(w, http.StatusOK, LinksResponse{Links: items, Internal: internal})
}
