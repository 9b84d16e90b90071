package api

import (
	"net/http"
)

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	// API routes with method-specific routing
	mux.HandleFunc("GET /api/communes", s.HandleListCommunes)
	mux.HandleFunc("GET /api/communes/{commune}/records/{kind}", s.HandleListRecords)
	mux.HandleFunc("POST /api/communes/{commune}/records/{kind}", s.requireToken(s.HandleCreateRecord))
	mux.HandleFunc("GET /api/communes/{commune}/records/{kind}/{id}", s.HandleGetRecord)
	mux.HandleFunc("PUT /api/communes/{commune}/records/{kind}/{id}", s.requireToken(s.HandleUpdateRecord))
	mux.HandleFunc("DELETE /api/communes/{commune}/records/{kind}/{id}", s.requireToken(s.HandleDeleteRecord))
	mux.HandleFunc("POST /api/communes/{commune}/records/{kind}/{id}/archive", s.requireToken(s.HandleArchiveRecord))
	mux.HandleFunc("POST /api/communes/{commune}/records/{kind}/{id}/unarchive", s.requireToken(s.HandleUnarchiveRecord))
	mux.HandleFunc("POST /api/communes/{commune}/records/{kind}/{id}/status", s.requireToken(s.HandleSetStatus))
	mux.HandleFunc("GET /api/communes/{commune}/imports", s.HandleListImports)
	mux.HandleFunc("GET /api/communes/{commune}/imports/{batch}", s.HandleImportBatch)
	mux.HandleFunc("GET /api/communes/{commune}/search", s.HandleSearch)
	mux.HandleFunc("POST /api/communes/{commune}/bulk", s.requireToken(s.HandleBulk))
	mux.HandleFunc("POST /api/communes/{commune}/bulk/download", s.HandleBulkDownload)
	mux.HandleFunc("POST /api/communes/{commune}/bulk/share", s.HandleBulkShare)
	mux.HandleFunc("GET /api/favorites/{kind}", s.HandleListFavorites)
	mux.HandleFunc("POST /api/favorites/{kind}/{id}", s.HandleToggleFavorite)
	mux.HandleFunc("GET /api/firehose/ws", s.HandleFirehoseWS)
	mux.HandleFunc("GET /api/stats", s.HandleStats)
	mux.HandleFunc("GET /health", s.HandleHealth)
}
