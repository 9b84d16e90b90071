package pipeline

// View is the single source of truth for one list page's pipeline state:
// filter criteria, sort order, pagination and selection, gathered in one
// serializable struct instead of scattered per-widget state.
//
// Invariant: any change to a filter criterion or the sort order resets the
// current page to 1, so a stale page index can never reference rows that the
// narrower result no longer has.
type View struct {
	Criteria  Criteria   `json:"criteria"`
	Order     Order      `json:"order"`
	Page      int        `json:"page"`
	PageSize  int        `json:"page_size"`
	Selection *Selection `json:"selection"`
}

// PageResult is one derived page plus its metadata.
type PageResult struct {
	Rows          []Row `json:"rows"`
	Page          int   `json:"page"`
	PageSize      int   `json:"page_size"`
	FilteredCount int   `json:"filtered_count"`
	TotalPages    int   `json:"total_pages"`
}

// NewView returns a view on page 1 with the default recent-first order.
func NewView(pageSize int) *View {
	return &View{
		Order:     OrderRecent,
		Page:      1,
		PageSize:  pageSize,
		Selection: NewSelection(),
	}
}

// SetSearch updates the free-text search and resets to page 1.
func (v *View) SetSearch(search string) {
	v.Criteria.Search = search
	v.Page = 1
}

// SetCategory updates the active category (or the favorites token) and
// resets to page 1.
func (v *View) SetCategory(category string) {
	v.Criteria.Category = category
	v.Page = 1
}

// SetAdvanced replaces the advanced filter object and resets to page 1.
func (v *View) SetAdvanced(advanced *Advanced) {
	v.Criteria.Advanced = advanced
	v.Page = 1
}

// SetOrder changes the sort order and resets to page 1.
func (v *View) SetOrder(order Order) {
	v.Order = order
	v.Page = 1
}

// SetPage moves to a page, clamping below at 1.
func (v *View) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	v.Page = page
}

// Apply runs the full derivation over projected rows: filter, prune the
// selection to the filtered id set, sort, paginate. The input rows are not
// mutated.
func (v *View) Apply(rows []Row) PageResult {
	filtered := Apply(rows, v.Criteria)

	if v.Selection != nil {
		v.Selection.Prune(rowIDs(filtered))
	}

	sorted := SortRows(filtered, v.Order)

	return PageResult{
		Rows:          Paginate(sorted, v.Page, v.PageSize),
		Page:          v.Page,
		PageSize:      v.PageSize,
		FilteredCount: len(sorted),
		TotalPages:    TotalPages(len(sorted), v.PageSize),
	}
}

// SelectAllFiltered applies the select-all toggle against the current
// filtered set.
func (v *View) SelectAllFiltered(rows []Row) {
	if v.Selection == nil {
		v.Selection = NewSelection()
	}
	v.Selection.SelectAll(rowIDs(Apply(rows, v.Criteria)))
}

func rowIDs(rows []Row) []string {
	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	return ids
}
