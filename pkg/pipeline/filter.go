package pipeline

import (
	"strings"
	"time"
)

// Advanced is the advanced filter object: an optional date range plus an
// optional multi-select theme list.
type Advanced struct {
	Start  *time.Time `json:"start_date,omitempty"`
	End    *time.Time `json:"end_date,omitempty"`
	Themes []string   `json:"themes,omitempty"`
}

// Criteria holds every filter criterion of a list view. The zero value
// filters nothing.
type Criteria struct {
	// Search is a case-insensitive substring matched against title and
	// reference. Whitespace-only search is a no-op.
	Search string `json:"search"`
	// Category filters on exact category-label equality, including the
	// "Sans catégorie" sentinel. The reserved FavoritesToken filters to
	// favorite rows instead. Empty is a no-op.
	Category string `json:"category"`
	// Advanced is the optional date-range + themes filter.
	Advanced *Advanced `json:"advanced,omitempty"`
}

// IsZero reports whether no criterion is set.
func (c Criteria) IsZero() bool {
	if strings.TrimSpace(c.Search) != "" || c.Category != "" {
		return false
	}
	if c.Advanced != nil && (c.Advanced.Start != nil || c.Advanced.End != nil || len(c.Advanced.Themes) > 0) {
		return false
	}
	return true
}

// Apply runs the filter stages in their fixed order: search, category, date
// range, themes. Each stage narrows the previous stage's result, never the
// original set; stages are independent ANDs with no OR across them.
func Apply(rows []Row, c Criteria) []Row {
	rows = filterSearch(rows, c.Search)
	rows = filterCategory(rows, c.Category)
	if c.Advanced != nil {
		rows = filterDateRange(rows, c.Advanced.Start, c.Advanced.End)
		rows = filterThemes(rows, c.Advanced.Themes)
	}
	return rows
}

func filterSearch(rows []Row, search string) []Row {
	needle := strings.ToLower(strings.TrimSpace(search))
	if needle == "" {
		return rows
	}
	filtered := make([]Row, 0, len(rows))
	for _, row := range rows {
		if strings.Contains(strings.ToLower(row.Title), needle) ||
			strings.Contains(strings.ToLower(row.Reference), needle) {
			filtered = append(filtered, row)
		}
	}
	return filtered
}

func filterCategory(rows []Row, category string) []Row {
	if category == "" {
		return rows
	}
	filtered := make([]Row, 0, len(rows))
	for _, row := range rows {
		if category == FavoritesToken {
			if row.Favorite {
				filtered = append(filtered, row)
			}
			continue
		}
		if row.Category == category {
			filtered = append(filtered, row)
		}
	}
	return filtered
}

// filterDateRange keeps rows whose sort date falls inside
// [start 00:00:00, end 23:59:59.999999999]. A missing bound is unbounded on
// that side only; a lone start date still excludes rows before it.
func filterDateRange(rows []Row, start, end *time.Time) []Row {
	if start == nil && end == nil {
		return rows
	}

	var lower, upper time.Time
	if start != nil {
		lower = startOfDay(*start)
	}
	if end != nil {
		upper = endOfDay(*end)
	}

	filtered := make([]Row, 0, len(rows))
	for _, row := range rows {
		if start != nil && row.SortDate.Before(lower) {
			continue
		}
		if end != nil && row.SortDate.After(upper) {
			continue
		}
		filtered = append(filtered, row)
	}
	return filtered
}

func filterThemes(rows []Row, themes []string) []Row {
	if len(themes) == 0 {
		return rows
	}
	wanted := make(map[string]struct{}, len(themes))
	for _, theme := range themes {
		wanted[theme] = struct{}{}
	}
	filtered := make([]Row, 0, len(rows))
	for _, row := range rows {
		if _, ok := wanted[row.Category]; ok {
			filtered = append(filtered, row)
		}
	}
	return filtered
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999999999, t.Location())
}
