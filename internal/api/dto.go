package api

import (
	"github.com/starford/daybook/internal/blocks"
	"github.com/starford/daybook/internal/entryservice"
	"github.com/starford/daybook/internal/watch"
)

// EntryDetail is the full entry response type (aliased from the domain layer).
type EntryDetail = entryservice.EntryDetail

// EntryListItem is a lightweight item in a list response.
type EntryListItem = watch.Summary

// EntryListResponse wraps paginated entry listings.
type EntryListResponse struct {
	Entries []EntryListItem `json:"entries" validate:"required"`
	Total   int             `json:"total" example:"42" validate:"required"`
}

// BlocksResponse wraps a block preview.
type BlocksResponse struct {
	Path   string         `json:"path" example:"2024-01-02.md" validate:"required"`
	Blocks []blocks.Block `json:"blocks" validate:"required"`
}

// LinksResponse wraps the references found in an entry.
type LinksResponse struct {
	Links    []entryservice.LinkItem `json:"links" validate:"required"`
	Internal int                     `json:"internal" example:"1" validate:"required"`
}
