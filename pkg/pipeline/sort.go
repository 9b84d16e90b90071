package pipeline

import "sort"

// Order selects the list ordering. Date is the only sort key; there is no
// secondary key, so equal timestamps keep their input order (stable sort).
type Order string

const (
	// OrderRecent orders rows most recent first.
	OrderRecent Order = "recent"
	// OrderAncien orders rows oldest first.
	OrderAncien Order = "ancien"
)

// ParseOrder normalizes an order slug, defaulting to OrderRecent.
func ParseOrder(s string) Order {
	if Order(s) == OrderAncien {
		return OrderAncien
	}
	return OrderRecent
}

// SortRows returns a new sequence of rows ordered by sort date; the input is
// never mutated. OrderRecent sorts descending, OrderAncien ascending.
func SortRows(rows []Row, order Order) []Row {
	sorted := make([]Row, len(rows))
	copy(sorted, rows)

	sort.SliceStable(sorted, func(i, j int) bool {
		if order == OrderAncien {
			return sorted[i].SortDate.Before(sorted[j].SortDate)
		}
		return sorted[i].SortDate.After(sorted[j].SortDate)
	})
	return sorted
}
