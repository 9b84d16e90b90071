package storage

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/guichet-dev/guichet/pkg/core"
)

func newTestStorage(t *testing.T) *CommuneStorage {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	storage, err := NewCommuneStorage(dbPath, "lyon")
	if err != nil {
		t.Fatalf("creating storage: %v", err)
	}
	t.Cleanup(func() {
		if err := storage.Close(); err != nil {
			t.Errorf("closing storage: %v", err)
		}
	})

	return storage
}

func testRecord(id, title string, created time.Time) core.Record {
	return core.Record{
		Kind:      core.KindSignalements,
		ID:        id,
		Commune:   "lyon",
		Title:     title,
		Category:  "voirie",
		Status:    core.StatusNouveau,
		Reference: "REF-" + id,
		Body:      "nid de poule rue de la République",
		CreatedAt: created,
		Metadata:  map[string]any{"source": "test"},
	}
}

func TestStoreAndGet(t *testing.T) {
	storage := newTestStorage(t)

	created := time.Date(2023, 3, 14, 9, 30, 0, 0, time.UTC)
	rec := testRecord("sig-1", "Nid de poule", created)

	if err := storage.Store(rec); err != nil {
		t.Fatalf("storing record: %v", err)
	}

	got, err := storage.Get("sig-1")
	if err != nil {
		t.Fatalf("getting record: %v", err)
	}

	if got.Title != "Nid de poule" {
		t.Errorf("expected title 'Nid de poule', got %q", got.Title)
	}
	if got.Kind != core.KindSignalements {
		t.Errorf("expected kind signalements, got %q", got.Kind)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("expected created_at %v, got %v", created, got.CreatedAt)
	}
	if got.Metadata["source"] != "test" {
		t.Errorf("expected metadata source 'test', got %v", got.Metadata["source"])
	}
}

func TestGetNotFound(t *testing.T) {
	storage := newTestStorage(t)

	_, err := storage.Get("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreUpsert(t *testing.T) {
	storage := newTestStorage(t)

	created := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	rec := testRecord("sig-1", "Original", created)
	if err := storage.Store(rec); err != nil {
		t.Fatalf("storing record: %v", err)
	}

	rec.Title = "Modifié"
	if err := storage.Store(rec); err != nil {
		t.Fatalf("re-storing record: %v", err)
	}

	recs, err := storage.ListKind(core.KindSignalements)
	if err != nil {
		t.Fatalf("listing records: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 record after upsert, got %d", len(recs))
	}
	if recs[0].Title != "Modifié" {
		t.Errorf("expected updated title, got %q", recs[0].Title)
	}
}

func TestListKindOrder(t *testing.T) {
	storage := newTestStorage(t)

	recs := []core.Record{
		testRecord("sig-old", "Ancien", time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC)),
		testRecord("sig-new", "Récent", time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)),
	}
	if err := storage.StoreMany(recs); err != nil {
		t.Fatalf("storing records: %v", err)
	}

	got, err := storage.ListKind(core.KindSignalements)
	if err != nil {
		t.Fatalf("listing records: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].ID != "sig-new" {
		t.Errorf("expected newest record first, got %q", got[0].ID)
	}
}

func TestListByBatch(t *testing.T) {
	storage := newTestStorage(t)

	arrete := testRecord("arr-1", "Arrêté de circulation", time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC))
	arrete.Kind = core.KindArretes
	arrete.ImportBatch = "lot-2023-02"

	other := testRecord("arr-2", "Arrêté hors lot", time.Date(2023, 2, 2, 0, 0, 0, 0, time.UTC))
	other.Kind = core.KindArretes

	if err := storage.StoreMany([]core.Record{arrete, other}); err != nil {
		t.Fatalf("storing records: %v", err)
	}

	got, err := storage.ListByBatch("lot-2023-02")
	if err != nil {
		t.Fatalf("listing batch: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 record in batch, got %d", len(got))
	}
	if got[0].ID != "arr-1" {
		t.Errorf("expected arr-1, got %q", got[0].ID)
	}
}

func TestDelete(t *testing.T) {
	storage := newTestStorage(t)

	rec := testRecord("sig-1", "À supprimer", time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC))
	if err := storage.Store(rec); err != nil {
		t.Fatalf("storing record: %v", err)
	}

	if err := storage.Delete("sig-1"); err != nil {
		t.Fatalf("deleting record: %v", err)
	}

	if _, err := storage.Get("sig-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	if err := storage.Delete("sig-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestSetArchivedAndStatus(t *testing.T) {
	storage := newTestStorage(t)

	rec := testRecord("sig-1", "Signalement", time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC))
	if err := storage.Store(rec); err != nil {
		t.Fatalf("storing record: %v", err)
	}

	if err := storage.SetArchived("sig-1", true); err != nil {
		t.Fatalf("archiving record: %v", err)
	}
	got, err := storage.Get("sig-1")
	if err != nil {
		t.Fatalf("getting record: %v", err)
	}
	if !got.Archived {
		t.Error("expected record to be archived")
	}

	if err := storage.SetStatus("sig-1", core.StatusResolu); err != nil {
		t.Fatalf("setting status: %v", err)
	}
	got, err = storage.Get("sig-1")
	if err != nil {
		t.Fatalf("getting record: %v", err)
	}
	if got.Status != core.StatusResolu {
		t.Errorf("expected status résolu, got %q", got.Status)
	}

	if err := storage.SetStatus("sig-1", "n'importe quoi"); err == nil {
		t.Error("expected error for invalid status")
	}
}

func TestSearch(t *testing.T) {
	storage := newTestStorage(t)

	recs := []core.Record{
		testRecord("sig-1", "Lampadaire cassé", time.Date(2023, 1, 10, 0, 0, 0, 0, time.UTC)),
		testRecord("sig-2", "Dépôt sauvage", time.Date(2023, 2, 10, 0, 0, 0, 0, time.UTC)),
	}
	if err := storage.StoreMany(recs); err != nil {
		t.Fatalf("storing records: %v", err)
	}

	got, err := storage.Search("lampadaire", core.KindSignalements, 10, nil, nil)
	if err != nil {
		t.Fatalf("searching: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 search result, got %d", len(got))
	}
	if got[0].ID != "sig-1" {
		t.Errorf("expected sig-1, got %q", got[0].ID)
	}
}

func TestSearchDateRange(t *testing.T) {
	storage := newTestStorage(t)

	recs := []core.Record{
		testRecord("sig-2022", "Signalement ancien", time.Date(2022, 12, 31, 23, 0, 0, 0, time.UTC)),
		testRecord("sig-2023", "Signalement récent", time.Date(2023, 1, 15, 12, 0, 0, 0, time.UTC)),
	}
	if err := storage.StoreMany(recs); err != nil {
		t.Fatalf("storing records: %v", err)
	}

	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	got, err := storage.Search("signalement", core.KindSignalements, 10, &start, nil)
	if err != nil {
		t.Fatalf("searching: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 result within range, got %d", len(got))
	}
	if got[0].ID != "sig-2023" {
		t.Errorf("expected sig-2023, got %q", got[0].ID)
	}
}

func TestSearchAfterDelete(t *testing.T) {
	storage := newTestStorage(t)

	rec := testRecord("sig-1", "Graffiti sur le mur", time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC))
	if err := storage.Store(rec); err != nil {
		t.Fatalf("storing record: %v", err)
	}
	if err := storage.Delete("sig-1"); err != nil {
		t.Fatalf("deleting record: %v", err)
	}

	got, err := storage.Search("graffiti", core.KindSignalements, 10, nil, nil)
	if err != nil {
		t.Fatalf("searching: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no results after delete, got %d", len(got))
	}
}

func TestStats(t *testing.T) {
	storage := newTestStorage(t)

	sig := testRecord("sig-1", "Signalement", time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC))
	arr := testRecord("arr-1", "Arrêté", time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC))
	arr.Kind = core.KindArretes

	if err := storage.StoreMany([]core.Record{sig, arr}); err != nil {
		t.Fatalf("storing records: %v", err)
	}

	stats, err := storage.Stats()
	if err != nil {
		t.Fatalf("getting stats: %v", err)
	}
	if stats["total_records"] != 2 {
		t.Errorf("expected 2 total records, got %v", stats["total_records"])
	}

	kinds, ok := stats["records_per_kind"].(map[string]int)
	if !ok {
		t.Fatalf("expected per-kind counts, got %T", stats["records_per_kind"])
	}
	if kinds["signalements"] != 1 || kinds["arretes"] != 1 {
		t.Errorf("unexpected kind counts: %v", kinds)
	}
}

func TestStoreInvalidRecord(t *testing.T) {
	storage := newTestStorage(t)

	rec := testRecord("", "Sans identifiant", time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC))
	if err := storage.Store(rec); err == nil {
		t.Error("expected validation error for empty id")
	}
}
