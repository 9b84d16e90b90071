package api

import (
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/guichet-dev/guichet/pkg/core"
	"github.com/guichet-dev/guichet/pkg/realtime"
)

const (
	firehoseDefaultLimit = 50
	firehoseMaxLimit     = 200
	firehoseWriteWait    = 10 * time.Second
	firehosePingPeriod   = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The API is CORS-open, the firehose follows suit.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type firehoseInit struct {
	Type    string                 `json:"type"`
	Records []realtime.RecordEvent `json:"records"`
	Count   int                    `json:"count"`
}

// HandleFirehoseWS upgrades the connection, sends an init snapshot of recent
// records and then pushes live events from the hub. Query parameters:
//
//   - commune: restrict the stream to one commune (otherwise all open ones)
//   - kind: restrict to one record kind
//   - limit: snapshot size, capped at 200
//   - since: RFC 3339 cursor, snapshot only includes newer records
func (s *Server) HandleFirehoseWS(w http.ResponseWriter, r *http.Request) {
	communeFilter := r.URL.Query().Get("commune")

	var kindFilter core.Kind
	if kindParam := r.URL.Query().Get("kind"); kindParam != "" {
		kind, err := core.ParseKind(kindParam)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "Invalid kind", err.Error())
			return
		}
		kindFilter = kind
	}

	limit := firehoseDefaultLimit
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		if parsed, err := strconv.Atoi(limitParam); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > firehoseMaxLimit {
		limit = firehoseMaxLimit
	}

	var since *time.Time
	if sinceParam := r.URL.Query().Get("since"); sinceParam != "" {
		parsed, err := time.Parse(time.RFC3339, sinceParam)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "Invalid since cursor", err.Error())
			return
		}
		since = &parsed
	}

	snapshot, err := s.firehoseSnapshot(communeFilter, kindFilter, limit, since)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to build snapshot", err.Error())
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warnf("upgrading firehose connection: %v", err)
		return
	}
	defer func() {
		if err := conn.Close(); err != nil {
			logger.Debugf("closing firehose connection: %v", err)
		}
	}()

	if err := conn.SetWriteDeadline(time.Now().Add(firehoseWriteWait)); err != nil {
		return
	}
	if err := conn.WriteJSON(firehoseInit{Type: "init", Records: snapshot, Count: len(snapshot)}); err != nil {
		logger.Debugf("writing init message: %v", err)
		return
	}

	listenerID, events := s.hub.Register()
	defer s.hub.Unregister(listenerID)

	// Reader goroutine: we never expect client messages, but reading is what
	// surfaces the close frame.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(firehosePingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if communeFilter != "" && ev.Record.Commune != communeFilter {
				continue
			}
			if kindFilter != "" && ev.Record.Kind != string(kindFilter) {
				continue
			}
			if err := conn.SetWriteDeadline(time.Now().Add(firehoseWriteWait)); err != nil {
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(firehoseWriteWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// firehoseSnapshot gathers the most recent records for the init message,
// newest first across the selected communes.
func (s *Server) firehoseSnapshot(commune string, kind core.Kind, limit int, since *time.Time) ([]realtime.RecordEvent, error) {
	communes := s.manager.Communes()
	if commune != "" {
		communes = []string{commune}
	}

	var recs []core.Record
	for _, slug := range communes {
		st, err := s.manager.GetStorage(slug)
		if err != nil {
			return nil, err
		}

		found, err := st.Search("", kind, limit, since, nil)
		if err != nil {
			return nil, err
		}
		recs = append(recs, found...)
	}

	// Per-commune queries are already newest first, merge then re-trim.
	events := make([]realtime.RecordEvent, 0, len(recs))
	for _, rec := range recs {
		events = append(events, realtime.NewRecordEvent(
			rec.ID, rec.Commune, string(rec.Kind), rec.CreatedAt, rec.Title, rec.Category, rec.Metadata,
		))
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].CreatedAt.After(events[j].CreatedAt)
	})
	if len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}
