package pipeline

import (
	"testing"
	"time"
)

func TestSortToggle(t *testing.T) {
	rows := []Row{
		{ID: "jan2022", SortDate: dated(2022, 1, 15)},
		{ID: "jun2023", SortDate: dated(2023, 6, 15)},
		{ID: "jan2023", SortDate: dated(2023, 1, 15)},
	}

	recent := SortRows(rows, OrderRecent)
	expectIDs(t, recent, "jun2023", "jan2023", "jan2022")

	ancien := SortRows(rows, OrderAncien)
	expectIDs(t, ancien, "jan2022", "jan2023", "jun2023")
}

func TestSortStability(t *testing.T) {
	same := dated(2023, 4, 1)
	rows := []Row{
		{ID: "first", SortDate: same},
		{ID: "second", SortDate: same},
		{ID: "third", SortDate: same},
	}

	for _, order := range []Order{OrderRecent, OrderAncien} {
		sorted := SortRows(rows, order)
		expectIDs(t, sorted, "first", "second", "third")
	}
}

func TestSortDoesNotMutateInput(t *testing.T) {
	rows := []Row{
		{ID: "old", SortDate: dated(2020, 1, 1)},
		{ID: "new", SortDate: dated(2024, 1, 1)},
	}

	_ = SortRows(rows, OrderRecent)

	expectIDs(t, rows, "old", "new")
}

func TestSortUsesSortDateNotFormattedString(t *testing.T) {
	// "1 août 2023" sorts lexically before "2 janv. 2023"; real dates do not.
	rows := []Row{
		{ID: "jan", FormattedDate: "2 janv. 2023", SortDate: time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)},
		{ID: "aou", FormattedDate: "1 août 2023", SortDate: time.Date(2023, 8, 1, 0, 0, 0, 0, time.UTC)},
	}

	sorted := SortRows(rows, OrderRecent)
	expectIDs(t, sorted, "aou", "jan")
}

func TestParseOrder(t *testing.T) {
	if ParseOrder("ancien") != OrderAncien {
		t.Error("expected ancien")
	}
	if ParseOrder("recent") != OrderRecent {
		t.Error("expected recent")
	}
	if ParseOrder("") != OrderRecent {
		t.Error("empty order should default to recent")
	}
	if ParseOrder("alphabetique") != OrderRecent {
		t.Error("unknown order should default to recent")
	}
}
