package api

import (
	"time"

	"github.com/guichet-dev/guichet/pkg/core"
	"github.com/guichet-dev/guichet/pkg/pipeline"
)

type CommuneResponse struct {
	Slug        string `json:"slug"`
	Nom         string `json:"nom"`
	Departement string `json:"departement"`
}

type ListCommunesResponse struct {
	Communes []CommuneResponse `json:"communes"`
	Count    int               `json:"count"`
}

type ListRecordsResponse struct {
	Commune       string         `json:"commune"`
	Kind          string         `json:"kind"`
	Rows          []pipeline.Row `json:"rows"`
	Page          int            `json:"page"`
	Limit         int            `json:"limit"`
	FilteredCount int            `json:"filtered_count"`
	TotalPages    int            `json:"total_pages"`
	HasMore       bool           `json:"has_more"`
}

type SearchResponse struct {
	Query   string        `json:"query"`
	Commune string        `json:"commune"`
	Records []core.Record `json:"records"`
	Count   int           `json:"count"`
}

type ImportsResponse struct {
	Commune string        `json:"commune"`
	Records []core.Record `json:"records"`
	Count   int           `json:"count"`
}

type StatusRequest struct {
	Status string `json:"statut"`
}

type BulkRequest struct {
	Action string   `json:"action"`
	IDs    []string `json:"ids"`
	Status string   `json:"statut,omitempty"`
}

type BulkResponse struct {
	Done    []string          `json:"done"`
	Failed  map[string]string `json:"failed,omitempty"`
	Summary string            `json:"summary"`
}

type BulkShareRequest struct {
	Kind string   `json:"kind"`
	IDs  []string `json:"ids"`
}

type BulkShareResponse struct {
	Links string `json:"links"`
	Count int    `json:"count"`
}

type FavoritesResponse struct {
	Kind  string   `json:"kind"`
	User  string   `json:"user"`
	IDs   []string `json:"ids"`
	Count int      `json:"count"`
}

type FavoriteToggleResponse struct {
	ID       string `json:"id"`
	Favorite bool   `json:"favori"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}
