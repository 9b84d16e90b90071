package pipeline

import (
	"testing"
	"time"
)

func dated(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func testRows() []Row {
	return []Row{
		{ID: "1", Title: "Arrêté Voirie", Category: "voirie", Reference: "AR-2023-001", SortDate: dated(2022, 1, 1)},
		{ID: "2", Title: "Arrêté Urbanisme", Category: "urbanisme", Reference: "AR-2023-002", SortDate: dated(2023, 1, 1)},
		{ID: "3", Title: "Stationnement place du marché", Category: "voirie", SortDate: dated(2023, 6, 1), Favorite: true},
		{ID: "4", Title: "Sans titre", Category: SentinelCategory, SortDate: dated(2023, 3, 10)},
	}
}

func idsOf(rows []Row) []string {
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	return ids
}

func expectIDs(t *testing.T, rows []Row, expected ...string) {
	t.Helper()
	got := idsOf(rows)
	if len(got) != len(expected) {
		t.Fatalf("expected ids %v, got %v", expected, got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("expected ids %v, got %v", expected, got)
		}
	}
}

func TestFilterSearchThenClear(t *testing.T) {
	rows := []Row{
		{ID: "1", Title: "Arrêté Voirie"},
		{ID: "2", Title: "Arrêté Urbanisme"},
	}

	matched := Apply(rows, Criteria{Search: "voirie"})
	expectIDs(t, matched, "1")

	cleared := Apply(rows, Criteria{Search: ""})
	expectIDs(t, cleared, "1", "2")
}

func TestFilterSearchWhitespaceNoOp(t *testing.T) {
	rows := testRows()
	filtered := Apply(rows, Criteria{Search: "   "})
	if len(filtered) != len(rows) {
		t.Fatalf("whitespace search should be a no-op, got %d rows", len(filtered))
	}
}

func TestFilterSearchMatchesReference(t *testing.T) {
	filtered := Apply(testRows(), Criteria{Search: "ar-2023-002"})
	expectIDs(t, filtered, "2")
}

func TestFilterCategory(t *testing.T) {
	tests := []struct {
		name     string
		category string
		expected []string
	}{
		{"exact label", "voirie", []string{"1", "3"}},
		{"sentinel is a valid target", SentinelCategory, []string{"4"}},
		{"favorites token", FavoritesToken, []string{"3"}},
		{"empty is a no-op", "", []string{"1", "2", "3", "4"}},
		{"unknown label matches nothing", "culture", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filtered := Apply(testRows(), Criteria{Category: tt.category})
			expectIDs(t, filtered, tt.expected...)
		})
	}
}

func TestFilterDateRangeExclusion(t *testing.T) {
	start := dated(2023, 1, 1)
	end := dated(2023, 12, 31)
	rows := []Row{
		{ID: "a", SortDate: dated(2022, 1, 1)},
		{ID: "b", SortDate: dated(2023, 1, 1)},
		{ID: "c", SortDate: dated(2023, 6, 1)},
	}

	filtered := Apply(rows, Criteria{Advanced: &Advanced{Start: &start, End: &end}})
	expectIDs(t, filtered, "b", "c")
}

func TestFilterDateRangeOneSided(t *testing.T) {
	start := dated(2023, 2, 1)
	filtered := Apply(testRows(), Criteria{Advanced: &Advanced{Start: &start}})
	expectIDs(t, filtered, "3", "4")

	end := dated(2022, 12, 31)
	filtered = Apply(testRows(), Criteria{Advanced: &Advanced{End: &end}})
	expectIDs(t, filtered, "1")
}

func TestFilterDateRangeDayBounds(t *testing.T) {
	// A bound given mid-day still covers the whole calendar day.
	start := time.Date(2023, 6, 1, 18, 0, 0, 0, time.UTC)
	end := start
	rows := []Row{
		{ID: "early", SortDate: time.Date(2023, 6, 1, 0, 30, 0, 0, time.UTC)},
		{ID: "late", SortDate: time.Date(2023, 6, 1, 23, 45, 0, 0, time.UTC)},
		{ID: "before", SortDate: time.Date(2023, 5, 31, 23, 59, 0, 0, time.UTC)},
		{ID: "after", SortDate: time.Date(2023, 6, 2, 0, 1, 0, 0, time.UTC)},
	}

	filtered := Apply(rows, Criteria{Advanced: &Advanced{Start: &start, End: &end}})
	expectIDs(t, filtered, "early", "late")
}

func TestFilterThemes(t *testing.T) {
	filtered := Apply(testRows(), Criteria{Advanced: &Advanced{Themes: []string{"urbanisme", SentinelCategory}}})
	expectIDs(t, filtered, "2", "4")

	// Empty theme list is a no-op.
	filtered = Apply(testRows(), Criteria{Advanced: &Advanced{Themes: nil}})
	expectIDs(t, filtered, "1", "2", "3", "4")
}

func TestFilterStagesAreANDs(t *testing.T) {
	start := dated(2023, 1, 1)
	criteria := Criteria{
		Search:   "arrêté",
		Category: "urbanisme",
		Advanced: &Advanced{Start: &start},
	}
	filtered := Apply(testRows(), criteria)
	expectIDs(t, filtered, "2")
}

func TestFilterMonotonicity(t *testing.T) {
	rows := testRows()
	start := dated(2023, 1, 1)
	criterias := []Criteria{
		{},
		{Search: "arrêté"},
		{Category: "voirie"},
		{Category: FavoritesToken},
		{Advanced: &Advanced{Start: &start}},
		{Search: "a", Category: "voirie", Advanced: &Advanced{Themes: []string{"voirie"}}},
	}

	for _, c := range criterias {
		if got := Apply(rows, c); len(got) > len(rows) {
			t.Fatalf("filter must never grow the set: criteria %+v produced %d rows from %d", c, len(got), len(rows))
		}
	}
}

func TestFilterNilRows(t *testing.T) {
	filtered := Apply(nil, Criteria{Search: "x"})
	if len(filtered) != 0 {
		t.Fatalf("nil rows should filter to empty, got %v", filtered)
	}
}
