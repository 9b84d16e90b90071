package core

import (
	"fmt"
	"strings"
	"time"
)

// Kind identifies a record family. Every kind flows through the same list
// pipeline; the kind only selects which table slice is fetched and which
// favorites bucket applies.
type Kind string

const (
	// KindSignalements are resident-submitted incident reports.
	KindSignalements Kind = "signalements"
	// KindArretes are municipal orders, optionally ingested in named batches.
	KindArretes Kind = "arretes"
	// KindLois are the regulations browsable by residents and staff.
	KindLois Kind = "lois"
	// KindImports are import-history rows, one per ingested batch.
	KindImports Kind = "imports"
)

// Kinds lists every record kind, in display order.
func Kinds() []Kind {
	return []Kind{KindSignalements, KindArretes, KindLois, KindImports}
}

// ParseKind validates a kind slug coming from a URL path or CLI flag.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case KindSignalements, KindArretes, KindLois, KindImports:
		return k, nil
	}
	return "", fmt.Errorf("unknown record kind %q", s)
}

// Signalement statuses, in triage order.
const (
	StatusNouveau = "nouveau"
	StatusEnCours = "en cours"
	StatusResolu  = "résolu"
)

// ValidStatus reports whether s is a known signalement status.
func ValidStatus(s string) bool {
	switch s {
	case StatusNouveau, StatusEnCours, StatusResolu:
		return true
	}
	return false
}

// Record is the raw row shape shared by all kinds. The backend owns these
// fields; the pipeline only ever reads them. Metadata carries kind-specific
// extras (location for signalements, file URL for arrêtés, ...) that the
// pipeline does not interpret.
type Record struct {
	Kind        Kind           `json:"kind"`
	ID          string         `json:"id"`
	Commune     string         `json:"commune"`
	Title       string         `json:"titre"`
	Category    string         `json:"categorie,omitempty"`
	Status      string         `json:"statut,omitempty"`
	Reference   string         `json:"reference,omitempty"`
	Body        string         `json:"contenu,omitempty"`
	ImportBatch string         `json:"lot_import,omitempty"`
	Archived    bool           `json:"archive"`
	CreatedAt   time.Time      `json:"created_at"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// SearchText returns the content indexed for full-text search: title,
// reference and body joined with spaces. Empty parts are skipped.
func (r Record) SearchText() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{r.Title, r.Reference, r.Body} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// Validate checks the fields storage requires before persisting.
func (r Record) Validate() error {
	if _, err := ParseKind(string(r.Kind)); err != nil {
		return err
	}
	if r.ID == "" {
		return fmt.Errorf("record id is required")
	}
	if r.Commune == "" {
		return fmt.Errorf("record commune is required")
	}
	if r.CreatedAt.IsZero() {
		return fmt.Errorf("record created_at is required")
	}
	if r.Kind == KindSignalements && r.Status != "" && !ValidStatus(r.Status) {
		return fmt.Errorf("unknown signalement status %q", r.Status)
	}
	return nil
}
