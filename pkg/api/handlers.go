package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/guichet-dev/guichet/pkg/bulk"
	"github.com/guichet-dev/guichet/pkg/core"
	"github.com/guichet-dev/guichet/pkg/favorites"
	"github.com/guichet-dev/guichet/pkg/pipeline"
	"github.com/guichet-dev/guichet/pkg/realtime"
	"github.com/guichet-dev/guichet/pkg/storage"
	"github.com/guichet-dev/guichet/pkg/version"
)

func (s *Server) HandleListCommunes(w http.ResponseWriter, r *http.Request) {
	communes := make([]CommuneResponse, 0, len(s.cfg.Communes))
	for _, slug := range s.cfg.ListCommunes() {
		info, err := s.cfg.GetCommune(slug)
		if err != nil {
			continue
		}
		communes = append(communes, CommuneResponse{
			Slug:        slug,
			Nom:         info.Nom,
			Departement: info.Departement,
		})
	}

	s.writeJSON(w, http.StatusOK, ListCommunesResponse{
		Communes: communes,
		Count:    len(communes),
	})
}

// communeKind resolves and validates the {commune} and {kind} path values.
func (s *Server) communeKind(w http.ResponseWriter, r *http.Request) (string, core.Kind, bool) {
	commune := r.PathValue("commune")
	if commune == "" {
		s.writeError(w, http.StatusBadRequest, "Invalid path", "Commune is required")
		return "", "", false
	}

	kind, err := core.ParseKind(r.PathValue("kind"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid kind", err.Error())
		return "", "", false
	}

	return commune, kind, true
}

// HandleListRecords runs the full list pipeline over a commune's records of
// one kind: project with the caller's favorites, filter, sort, paginate.
func (s *Server) HandleListRecords(w http.ResponseWriter, r *http.Request) {
	commune, kind, ok := s.communeKind(w, r)
	if !ok {
		return
	}

	params, err := pipeline.ParseListParams(r.URL.Query(), s.cfg.PageSize)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid date format", err.Error())
		return
	}

	st, err := s.manager.GetStorage(commune)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Storage error", err.Error())
		return
	}

	recs, err := st.ListKind(kind)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to list records", err.Error())
		return
	}

	favs := favorites.Open(s.favStore, kind, userID(r))
	rows := pipeline.ProjectAll(recs, favs)

	view := pipeline.NewView(params.Limit)
	view.Criteria = params.Criteria
	view.Order = params.Order
	view.Page = params.Page

	result := view.Apply(rows)

	s.writeJSON(w, http.StatusOK, ListRecordsResponse{
		Commune:       commune,
		Kind:          string(kind),
		Rows:          result.Rows,
		Page:          result.Page,
		Limit:         result.PageSize,
		FilteredCount: result.FilteredCount,
		TotalPages:    result.TotalPages,
		HasMore:       result.Page < result.TotalPages,
	})
}

func (s *Server) HandleCreateRecord(w http.ResponseWriter, r *http.Request) {
	commune, kind, ok := s.communeKind(w, r)
	if !ok {
		return
	}

	var rec core.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid body", err.Error())
		return
	}

	rec.Kind = kind
	rec.Commune = commune
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if kind == core.KindSignalements && rec.Status == "" {
		rec.Status = core.StatusNouveau
	}

	st, err := s.manager.GetStorage(commune)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Storage error", err.Error())
		return
	}

	if err := st.Store(rec); err != nil {
		s.writeError(w, http.StatusBadRequest, "Failed to store record", err.Error())
		return
	}

	s.hub.Broadcast(realtime.NewRecordEvent(
		rec.ID, rec.Commune, string(rec.Kind), rec.CreatedAt, rec.Title, rec.Category, rec.Metadata,
	))

	s.writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) HandleGetRecord(w http.ResponseWriter, r *http.Request) {
	commune, _, ok := s.communeKind(w, r)
	if !ok {
		return
	}

	st, err := s.manager.GetStorage(commune)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Storage error", err.Error())
		return
	}

	rec, err := st.Get(r.PathValue("id"))
	if errors.Is(err, storage.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "Record not found", fmt.Sprintf("No record with id %q", r.PathValue("id")))
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to get record", err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, rec)
}

func (s *Server) HandleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	commune, kind, ok := s.communeKind(w, r)
	if !ok {
		return
	}

	st, err := s.manager.GetStorage(commune)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Storage error", err.Error())
		return
	}

	id := r.PathValue("id")
	existing, err := st.Get(id)
	if errors.Is(err, storage.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "Record not found", fmt.Sprintf("No record with id %q", id))
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to get record", err.Error())
		return
	}

	var rec core.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid body", err.Error())
		return
	}

	// Identity fields come from the path, never from the body.
	rec.ID = id
	rec.Kind = kind
	rec.Commune = commune
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = existing.CreatedAt
	}

	if err := st.Store(rec); err != nil {
		s.writeError(w, http.StatusBadRequest, "Failed to store record", err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, rec)
}

func (s *Server) HandleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	commune, _, ok := s.communeKind(w, r)
	if !ok {
		return
	}

	st, err := s.manager.GetStorage(commune)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Storage error", err.Error())
		return
	}

	id := r.PathValue("id")
	if err := st.Delete(id); errors.Is(err, storage.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "Record not found", fmt.Sprintf("No record with id %q", id))
		return
	} else if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to delete record", err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) HandleArchiveRecord(w http.ResponseWriter, r *http.Request) {
	s.setArchived(w, r, true)
}

func (s *Server) HandleUnarchiveRecord(w http.ResponseWriter, r *http.Request) {
	s.setArchived(w, r, false)
}

func (s *Server) setArchived(w http.ResponseWriter, r *http.Request, archived bool) {
	commune, _, ok := s.communeKind(w, r)
	if !ok {
		return
	}

	st, err := s.manager.GetStorage(commune)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Storage error", err.Error())
		return
	}

	id := r.PathValue("id")
	if err := st.SetArchived(id, archived); errors.Is(err, storage.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "Record not found", fmt.Sprintf("No record with id %q", id))
		return
	} else if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to update record", err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	commune, _, ok := s.communeKind(w, r)
	if !ok {
		return
	}

	var req StatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid body", err.Error())
		return
	}
	if !core.ValidStatus(req.Status) {
		s.writeError(w, http.StatusBadRequest, "Invalid status", fmt.Sprintf("Unknown status %q", req.Status))
		return
	}

	st, err := s.manager.GetStorage(commune)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Storage error", err.Error())
		return
	}

	id := r.PathValue("id")
	if err := st.SetStatus(id, req.Status); errors.Is(err, storage.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "Record not found", fmt.Sprintf("No record with id %q", id))
		return
	} else if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to update record", err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) HandleListImports(w http.ResponseWriter, r *http.Request) {
	commune := r.PathValue("commune")
	if commune == "" {
		s.writeError(w, http.StatusBadRequest, "Invalid path", "Commune is required")
		return
	}

	st, err := s.manager.GetStorage(commune)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Storage error", err.Error())
		return
	}

	recs, err := st.ListKind(core.KindImports)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to list imports", err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, ImportsResponse{
		Commune: commune,
		Records: recs,
		Count:   len(recs),
	})
}

// HandleImportBatch returns the arrêtés ingested under one import batch.
func (s *Server) HandleImportBatch(w http.ResponseWriter, r *http.Request) {
	commune := r.PathValue("commune")
	if commune == "" {
		s.writeError(w, http.StatusBadRequest, "Invalid path", "Commune is required")
		return
	}

	st, err := s.manager.GetStorage(commune)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Storage error", err.Error())
		return
	}

	recs, err := st.ListByBatch(r.PathValue("batch"))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to list batch", err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, ImportsResponse{
		Commune: commune,
		Records: recs,
		Count:   len(recs),
	})
}

// HandleSearch runs a full-text search against one commune's database.
func (s *Server) HandleSearch(w http.ResponseWriter, r *http.Request) {
	commune := r.PathValue("commune")
	if commune == "" {
		s.writeError(w, http.StatusBadRequest, "Invalid path", "Commune is required")
		return
	}

	params, err := pipeline.ParseListParams(r.URL.Query(), s.cfg.PageSize)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid date format", err.Error())
		return
	}
	if params.Criteria.Search == "" {
		s.writeError(w, http.StatusBadRequest, "Missing query parameter", "Query parameter 'q' is required")
		return
	}

	var kind core.Kind
	if kindParam := r.URL.Query().Get("kind"); kindParam != "" {
		kind, err = core.ParseKind(kindParam)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "Invalid kind", err.Error())
			return
		}
	}

	var start, end *time.Time
	if params.Criteria.Advanced != nil {
		start = params.Criteria.Advanced.Start
		end = params.Criteria.Advanced.End
	}

	st, err := s.manager.GetStorage(commune)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Storage error", err.Error())
		return
	}

	recs, err := st.Search(params.Criteria.Search, kind, params.Limit, start, end)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Search failed", err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, SearchResponse{
		Query:   params.Criteria.Search,
		Commune: commune,
		Records: recs,
		Count:   len(recs),
	})
}

func (s *Server) HandleListFavorites(w http.ResponseWriter, r *http.Request) {
	kind, err := core.ParseKind(r.PathValue("kind"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid kind", err.Error())
		return
	}

	user := userID(r)
	favs := favorites.Open(s.favStore, kind, user)
	ids := favs.IDs()

	s.writeJSON(w, http.StatusOK, FavoritesResponse{
		Kind:  string(kind),
		User:  user,
		IDs:   ids,
		Count: len(ids),
	})
}

func (s *Server) HandleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	kind, err := core.ParseKind(r.PathValue("kind"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid kind", err.Error())
		return
	}

	id := r.PathValue("id")
	favs := favorites.Open(s.favStore, kind, userID(r))
	if err := favs.Toggle(id); err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to persist favorites", err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, FavoriteToggleResponse{
		ID:       id,
		Favorite: favs.Has(id),
	})
}

func (s *Server) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.manager.Stats()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to get stats", err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	health := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Version:   version.APIVersion(),
	}

	s.writeJSON(w, http.StatusOK, health)
}

func (s *Server) HandleBulk(w http.ResponseWriter, r *http.Request) {
	commune := r.PathValue("commune")
	if commune == "" {
		s.writeError(w, http.StatusBadRequest, "Invalid path", "Commune is required")
		return
	}

	var req BulkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid body", err.Error())
		return
	}
	if len(req.IDs) == 0 {
		s.writeError(w, http.StatusBadRequest, "Missing ids", "At least one record id is required")
		return
	}

	st, err := s.manager.GetStorage(commune)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Storage error", err.Error())
		return
	}

	var fn func(ctx context.Context, id string) error
	switch req.Action {
	case "archiver":
		fn = func(_ context.Context, id string) error { return st.SetArchived(id, true) }
	case "desarchiver":
		fn = func(_ context.Context, id string) error { return st.SetArchived(id, false) }
	case "supprimer":
		fn = func(_ context.Context, id string) error { return st.Delete(id) }
	case "statut":
		if !core.ValidStatus(req.Status) {
			s.writeError(w, http.StatusBadRequest, "Invalid status", fmt.Sprintf("Unknown status %q", req.Status))
			return
		}
		fn = func(_ context.Context, id string) error { return st.SetStatus(id, req.Status) }
	default:
		s.writeError(w, http.StatusBadRequest, "Invalid action", fmt.Sprintf("Unknown bulk action %q", req.Action))
		return
	}

	result := bulk.Run(r.Context(), req.IDs, fn)

	failed := make(map[string]string, len(result.Failed))
	for id, ferr := range result.Failed {
		failed[id] = ferr.Error()
	}

	s.writeJSON(w, http.StatusOK, BulkResponse{
		Done:    result.Done,
		Failed:  failed,
		Summary: result.Summary(),
	})
}

// HandleBulkDownload streams the requested records as a tar.gz archive, one
// JSON file per record.
func (s *Server) HandleBulkDownload(w http.ResponseWriter, r *http.Request) {
	commune := r.PathValue("commune")
	if commune == "" {
		s.writeError(w, http.StatusBadRequest, "Invalid path", "Commune is required")
		return
	}

	var req BulkShareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid body", err.Error())
		return
	}
	if len(req.IDs) == 0 {
		s.writeError(w, http.StatusBadRequest, "Missing ids", "At least one record id is required")
		return
	}

	st, err := s.manager.GetStorage(commune)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Storage error", err.Error())
		return
	}

	files := make([]bulk.ArchiveFile, 0, len(req.IDs))
	for _, id := range req.IDs {
		rec, err := st.Get(id)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, "Failed to get record", err.Error())
			return
		}

		data, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, "Failed to encode record", err.Error())
			return
		}

		files = append(files, bulk.ArchiveFile{
			Name:    fmt.Sprintf("%s.json", rec.ID),
			Data:    data,
			ModTime: rec.CreatedAt,
		})
	}

	w.Header().Set("Content-Type", "application/gzip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s-records.tar.gz", commune))
	if err := bulk.WriteArchive(w, files); err != nil {
		logger.Errorf("writing archive: %v", err)
	}
}

// HandleBulkShare builds the shareable link text for a set of records.
func (s *Server) HandleBulkShare(w http.ResponseWriter, r *http.Request) {
	commune := r.PathValue("commune")
	if commune == "" {
		s.writeError(w, http.StatusBadRequest, "Invalid path", "Commune is required")
		return
	}

	var req BulkShareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid body", err.Error())
		return
	}
	if len(req.IDs) == 0 {
		s.writeError(w, http.StatusBadRequest, "Missing ids", "At least one record id is required")
		return
	}

	kind, err := core.ParseKind(req.Kind)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid kind", err.Error())
		return
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	baseURL := fmt.Sprintf("%s://%s", scheme, r.Host)

	links := make([]string, len(req.IDs))
	for i, id := range req.IDs {
		links[i] = bulk.Link(baseURL, commune, string(kind), id)
	}

	s.writeJSON(w, http.StatusOK, BulkShareResponse{
		Links: bulk.ShareLinks(links),
		Count: len(links),
	})
}
