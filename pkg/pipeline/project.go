package pipeline

import (
	"fmt"
	"time"

	"github.com/guichet-dev/guichet/pkg/core"
)

const (
	// PlaceholderTitle substitutes a missing title; rows never render an
	// empty title.
	PlaceholderTitle = "Sans titre"

	// SentinelCategory substitutes a missing category. The sentinel is a
	// valid filter target: uncategorized records can be selected
	// explicitly, they are never silently dropped by category filters.
	SentinelCategory = "Sans catégorie"

	// FavoritesToken is the reserved category value that filters to
	// favorite rows instead of matching a category label.
	FavoritesToken = "favoris"
)

// Row is the display-ready projection of a raw record. Rows are rebuilt on
// every derivation and never mutated in place; filtering and sorting produce
// new sequences.
//
// FormattedDate and SortDate are carried separately on purpose: the
// formatted string is lossy for ordering (French month abbreviations do not
// sort lexically by date), so comparisons always use SortDate.
type Row struct {
	ID            string    `json:"id"`
	Title         string    `json:"titre"`
	Category      string    `json:"categorie"`
	Reference     string    `json:"reference,omitempty"`
	Status        string    `json:"statut,omitempty"`
	FormattedDate string    `json:"date"`
	SortDate      time.Time `json:"-"`
	Favorite      bool      `json:"favori"`
}

// FavoriteChecker reports whether a record id belongs to the current user's
// favorites. A nil checker means no favorites.
type FavoriteChecker interface {
	Has(id string) bool
}

// frMonths holds the fr-FR abbreviated month names used by the fixed
// "2 janv. 2006" display style.
var frMonths = [...]string{
	"janv.", "févr.", "mars", "avr.", "mai", "juin",
	"juil.", "août", "sept.", "oct.", "nov.", "déc.",
}

// FormatDateFR renders t in the fixed French display style: numeric day,
// abbreviated month, numeric year ("2 janv. 2023").
func FormatDateFR(t time.Time) string {
	return fmt.Sprintf("%d %s %d", t.Day(), frMonths[t.Month()-1], t.Year())
}

// Project maps one raw record into a display row. It is a pure function of
// (record, favorites): calling it twice with identical inputs yields
// structurally equal rows. Favorite is the only field sourced from
// client-local state rather than the record itself.
func Project(rec core.Record, favorites FavoriteChecker) Row {
	title := rec.Title
	if title == "" {
		title = PlaceholderTitle
	}
	category := rec.Category
	if category == "" {
		category = SentinelCategory
	}

	favorite := false
	if favorites != nil {
		favorite = favorites.Has(rec.ID)
	}

	return Row{
		ID:            rec.ID,
		Title:         title,
		Category:      category,
		Reference:     rec.Reference,
		Status:        rec.Status,
		FormattedDate: FormatDateFR(rec.CreatedAt),
		SortDate:      rec.CreatedAt,
		Favorite:      favorite,
	}
}

// ProjectAll projects a raw collection. A nil collection (fetch still in
// flight) projects to an empty row set.
func ProjectAll(recs []core.Record, favorites FavoriteChecker) []Row {
	rows := make([]Row, len(recs))
	for i, rec := range recs {
		rows[i] = Project(rec, favorites)
	}
	return rows
}
