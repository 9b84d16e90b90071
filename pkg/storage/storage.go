// Package storage persists records in per-commune SQLite databases. Each
// commune gets its own database file with a records table and an FTS5 mirror
// over title, reference and body. The list pipeline consumes whole kind
// slices fetched from here; full-text search serves the CLI and the search
// endpoint.
package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/guichet-dev/guichet/pkg/core"
	"github.com/guichet-dev/guichet/pkg/log"
)

var logger = log.ForService("storage")

// ErrNotFound is returned when a record id does not exist in the commune
// database.
var ErrNotFound = errors.New("record not found")

// CommuneStorage wraps one commune's database.
type CommuneStorage struct {
	db      *sql.DB
	commune string
}

// NewCommuneStorage opens (creating if needed) the database at dbPath and
// applies pending migrations.
func NewCommuneStorage(dbPath, commune string) (*CommuneStorage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Apply performance pragmas
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 30000",
		"PRAGMA cache_size = -64000", // 64MB cache
		"PRAGMA temp_store = memory",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return nil, fmt.Errorf("applying pragma %q: %w", pragma, err)
		}
	}

	if err := NewMigrationManager(db).ApplyPendingMigrations(); err != nil {
		return nil, fmt.Errorf("migrating %s: %w", commune, err)
	}

	return &CommuneStorage{db: db, commune: commune}, nil
}

func (s *CommuneStorage) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection for migrations and stats.
func (s *CommuneStorage) DB() *sql.DB {
	return s.db
}

// Commune returns the commune slug this storage serves.
func (s *CommuneStorage) Commune() string {
	return s.commune
}

// Store persists a single record.
func (s *CommuneStorage) Store(rec core.Record) error {
	return s.StoreMany([]core.Record{rec})
}

// StoreMany upserts records in one transaction, keeping the FTS mirror in
// step with the main table.
func (s *CommuneStorage) StoreMany(recs []core.Record) error {
	if len(recs) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			if err := tx.Rollback(); err != nil {
				logger.Warnf("rolling back transaction: %v", err)
			}
		}
	}()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO records
			(id, kind, commune, titre, categorie, statut, reference, contenu, lot_import, archive, created_at, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			logger.Warnf("closing statement: %v", err)
		}
	}()

	ftsDel, err := tx.Prepare(`
		DELETE FROM records_fts WHERE rowid = (SELECT rowid FROM records WHERE id = ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing FTS delete: %w", err)
	}
	defer func() {
		if err := ftsDel.Close(); err != nil {
			logger.Warnf("closing FTS delete statement: %v", err)
		}
	}()

	ftsStmt, err := tx.Prepare(`
		INSERT INTO records_fts (rowid, titre, reference, contenu)
		VALUES ((SELECT rowid FROM records WHERE id = ?), ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing FTS statement: %w", err)
	}
	defer func() {
		if err := ftsStmt.Close(); err != nil {
			logger.Warnf("closing FTS statement: %v", err)
		}
	}()

	for _, rec := range recs {
		if err := rec.Validate(); err != nil {
			return fmt.Errorf("validating record %s: %w", rec.ID, err)
		}

		metadataJSON, err := json.Marshal(rec.Metadata)
		if err != nil {
			return fmt.Errorf("marshaling metadata for record %s: %w", rec.ID, err)
		}

		// Drop any stale FTS row before the upsert reassigns the rowid.
		if _, err := ftsDel.Exec(rec.ID); err != nil {
			return fmt.Errorf("clearing FTS entry for record %s: %w", rec.ID, err)
		}

		_, err = stmt.Exec(
			rec.ID,
			string(rec.Kind),
			rec.Commune,
			rec.Title,
			rec.Category,
			rec.Status,
			rec.Reference,
			rec.Body,
			rec.ImportBatch,
			boolToInt(rec.Archived),
			rec.CreatedAt,
			string(metadataJSON),
		)
		if err != nil {
			return fmt.Errorf("inserting record %s: %w", rec.ID, err)
		}

		if _, err := ftsStmt.Exec(rec.ID, rec.Title, rec.Reference, rec.Body); err != nil {
			return fmt.Errorf("indexing record %s: %w", rec.ID, err)
		}
	}

	err = tx.Commit()
	if err == nil {
		committed = true
	}
	return err
}

const recordColumns = `id, kind, commune, titre, categorie, statut, reference, contenu, lot_import, archive, created_at, metadata`

// ListKind returns every record of a kind for this commune, newest first.
func (s *CommuneStorage) ListKind(kind core.Kind) ([]core.Record, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM records
		WHERE kind = ?
		ORDER BY created_at DESC`

	return s.queryRecords(query, string(kind))
}

// ListByBatch returns the arrêtés ingested under a named import batch,
// newest first.
func (s *CommuneStorage) ListByBatch(batch string) ([]core.Record, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM records
		WHERE kind = ? AND lot_import = ?
		ORDER BY created_at DESC`

	return s.queryRecords(query, string(core.KindArretes), batch)
}

// Get returns one record by id, ErrNotFound when absent.
func (s *CommuneStorage) Get(id string) (core.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM records WHERE id = ?`

	recs, err := s.queryRecords(query, id)
	if err != nil {
		return core.Record{}, err
	}
	if len(recs) == 0 {
		return core.Record{}, ErrNotFound
	}
	return recs[0], nil
}

// Delete removes a record and its FTS entry.
func (s *CommuneStorage) Delete(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			if err := tx.Rollback(); err != nil {
				logger.Warnf("rolling back transaction: %v", err)
			}
		}
	}()

	if _, err := tx.Exec(`DELETE FROM records_fts WHERE rowid = (SELECT rowid FROM records WHERE id = ?)`, id); err != nil {
		return fmt.Errorf("deleting FTS entry for %s: %w", id, err)
	}

	result, err := tx.Exec(`DELETE FROM records WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting record %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	err = tx.Commit()
	if err == nil {
		committed = true
	}
	return err
}

// SetArchived flips the archive flag on a record.
func (s *CommuneStorage) SetArchived(id string, archived bool) error {
	return s.updateOne(`UPDATE records SET archive = ? WHERE id = ?`, boolToInt(archived), id)
}

// SetStatus updates a signalement's triage status.
func (s *CommuneStorage) SetStatus(id, status string) error {
	if !core.ValidStatus(status) {
		return fmt.Errorf("unknown signalement status %q", status)
	}
	return s.updateOne(`UPDATE records SET statut = ? WHERE id = ?`, status, id)
}

func (s *CommuneStorage) updateOne(query string, args ...any) error {
	result, err := s.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("updating record: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Search runs a full-text query over title, reference and body, optionally
// restricted to a kind and a date range, ordered newest first. An empty
// query lists the most recent records instead.
func (s *CommuneStorage) Search(query string, kind core.Kind, limit int, startDate, endDate *time.Time) ([]core.Record, error) {
	var conditions []string
	var args []any

	if kind != "" {
		conditions = append(conditions, "r.kind = ?")
		args = append(args, string(kind))
	}
	if startDate != nil {
		conditions = append(conditions, "r.created_at >= ?")
		args = append(args, startDate.Format(time.RFC3339))
	}
	if endDate != nil {
		conditions = append(conditions, "r.created_at <= ?")
		args = append(args, endDate.Format(time.RFC3339))
	}

	var sqlQuery string
	if query != "" {
		where := ""
		if len(conditions) > 0 {
			where = " AND " + strings.Join(conditions, " AND ")
		}
		sqlQuery = `
			SELECT ` + prefixedRecordColumns("r") + `
			FROM records r
			JOIN records_fts fts ON r.rowid = fts.rowid
			WHERE records_fts MATCH ?` + where + `
			ORDER BY r.created_at DESC
			LIMIT ?`
		args = append([]any{query}, args...)
		args = append(args, limit)
	} else {
		where := ""
		if len(conditions) > 0 {
			where = " WHERE " + strings.Join(conditions, " AND ")
		}
		sqlQuery = `
			SELECT ` + prefixedRecordColumns("r") + `
			FROM records r` + where + `
			ORDER BY r.created_at DESC
			LIMIT ?`
		args = append(args, limit)
	}

	return s.queryRecords(sqlQuery, args...)
}

// Stats summarizes this commune's database: record counts per kind plus the
// overall date range.
func (s *CommuneStorage) Stats() (map[string]any, error) {
	stats := make(map[string]any)

	var total int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM records").Scan(&total); err != nil {
		return nil, fmt.Errorf("counting records: %w", err)
	}
	stats["total_records"] = total

	rows, err := s.db.Query("SELECT kind, COUNT(*) FROM records GROUP BY kind")
	if err != nil {
		return nil, fmt.Errorf("counting records per kind: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Warnf("closing rows: %v", err)
		}
	}()

	perKind := make(map[string]int)
	for rows.Next() {
		var kind string
		var count int
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, fmt.Errorf("scanning kind count: %w", err)
		}
		perKind[kind] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	stats["records_per_kind"] = perKind

	var oldestStr, newestStr sql.NullString
	err = s.db.QueryRow("SELECT MIN(created_at), MAX(created_at) FROM records").Scan(&oldestStr, &newestStr)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("getting record date range: %w", err)
	}
	if oldestStr.Valid && newestStr.Valid {
		if oldest, err := parseStoredTime(oldestStr.String); err == nil {
			stats["oldest_record"] = oldest
		}
		if newest, err := parseStoredTime(newestStr.String); err == nil {
			stats["newest_record"] = newest
		}
	}

	return stats, nil
}

func (s *CommuneStorage) Optimize() error {
	_, err := s.db.Exec("PRAGMA optimize")
	return err
}

func (s *CommuneStorage) Analyze() error {
	_, err := s.db.Exec("ANALYZE")
	return err
}

func (s *CommuneStorage) Vacuum() error {
	_, err := s.db.Exec("VACUUM")
	return err
}

func (s *CommuneStorage) WALCheckpoint() error {
	_, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return err
}

func (s *CommuneStorage) queryRecords(query string, args ...any) ([]core.Record, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Warnf("closing rows: %v", err)
		}
	}()

	var recs []core.Record
	for rows.Next() {
		var rec core.Record
		var kind, metadataStr string
		var archive int
		var createdAt time.Time

		err = rows.Scan(
			&rec.ID,
			&kind,
			&rec.Commune,
			&rec.Title,
			&rec.Category,
			&rec.Status,
			&rec.Reference,
			&rec.Body,
			&rec.ImportBatch,
			&archive,
			&createdAt,
			&metadataStr,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		rec.Kind = core.Kind(kind)
		rec.Archived = archive != 0
		rec.CreatedAt = createdAt

		if metadataStr != "" && metadataStr != "{}" {
			if err := json.Unmarshal([]byte(metadataStr), &rec.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshaling metadata for record %s: %w", rec.ID, err)
			}
		}

		recs = append(recs, rec)
	}

	return recs, rows.Err()
}

func prefixedRecordColumns(alias string) string {
	cols := strings.Split(recordColumns, ", ")
	for i, col := range cols {
		cols[i] = alias + "." + col
	}
	return strings.Join(cols, ", ")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func parseStoredTime(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t, err = time.Parse("2006-01-02 15:04:05-07:00", value)
	}
	return t, err
}
