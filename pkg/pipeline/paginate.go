package pipeline

// Paginate returns the contiguous slice of rows for a 1-based page. Pages
// past the end (a stale page index referencing now-absent rows) yield an
// empty page rather than an error.
func Paginate(rows []Row, page, pageSize int) []Row {
	if pageSize <= 0 || page <= 0 {
		return []Row{}
	}
	start := (page - 1) * pageSize
	if start >= len(rows) {
		return []Row{}
	}
	end := start + pageSize
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}

// TotalPages returns ceil(count/pageSize), 0 when the sequence is empty.
func TotalPages(count, pageSize int) int {
	if count <= 0 || pageSize <= 0 {
		return 0
	}
	return (count + pageSize - 1) / pageSize
}
