package pipeline

import (
	"strconv"
	"time"
)

// ListParams carries the pipeline inputs parsed from an HTTP query string.
type ListParams struct {
	Criteria Criteria
	Order    Order
	Page     int
	Limit    int
}

// ParseListParams parses HTTP query parameters into ListParams with sensible
// defaults (page 1, the given default limit, recent-first order).
//
// Supported parameters:
//   - q: free-text search
//   - categorie: category label or the "favoris" token
//   - theme: advanced theme filter (can be specified multiple times)
//   - start_date: YYYY-MM-DD, inclusive lower bound
//   - end_date: YYYY-MM-DD, promoted to end of day
//   - tri: "recent" or "ancien"
//   - page, limit: positive integers; invalid values keep the defaults
//
// Invalid date formats return an error; everything else degrades to the
// defaults.
func ParseListParams(queryParams map[string][]string, defaultLimit int) (ListParams, error) {
	params := ListParams{
		Order: OrderRecent,
		Page:  1,
		Limit: defaultLimit,
	}

	if q := queryParams["q"]; len(q) > 0 {
		params.Criteria.Search = q[0]
	}

	if cat := queryParams["categorie"]; len(cat) > 0 {
		params.Criteria.Category = cat[0]
	}

	if tri := queryParams["tri"]; len(tri) > 0 {
		params.Order = ParseOrder(tri[0])
	}

	if pageStr := queryParams["page"]; len(pageStr) > 0 && pageStr[0] != "" {
		if parsed, err := strconv.Atoi(pageStr[0]); err == nil && parsed > 0 {
			params.Page = parsed
		}
	}

	if limitStr := queryParams["limit"]; len(limitStr) > 0 && limitStr[0] != "" {
		if parsed, err := strconv.Atoi(limitStr[0]); err == nil && parsed > 0 {
			params.Limit = parsed
		}
	}

	advanced := &Advanced{}
	hasAdvanced := false

	if themes := queryParams["theme"]; len(themes) > 0 {
		advanced.Themes = themes
		hasAdvanced = true
	}

	if startDateStr := queryParams["start_date"]; len(startDateStr) > 0 && startDateStr[0] != "" {
		parsed, err := time.Parse("2006-01-02", startDateStr[0])
		if err != nil {
			return params, err
		}
		advanced.Start = &parsed
		hasAdvanced = true
	}

	if endDateStr := queryParams["end_date"]; len(endDateStr) > 0 && endDateStr[0] != "" {
		parsed, err := time.Parse("2006-01-02", endDateStr[0])
		if err != nil {
			return params, err
		}
		endOfDay := time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 23, 59, 59, 999999999, parsed.Location())
		advanced.End = &endOfDay
		hasAdvanced = true
	}

	if hasAdvanced {
		params.Criteria.Advanced = advanced
	}

	return params, nil
}
