// Package pipeline implements the list view pipeline shared by every record
// listing surface (API list endpoints, CLI list pages): project raw records
// into display rows, then filter, sort and paginate them in memory.
//
// All stages are pure and nil-safe: a nil record slice (backend still
// loading, or an empty commune) flows through every stage as an empty
// sequence. The only state the pipeline reads besides the records themselves
// is the per-user favorites set, joined into rows at projection time.
//
// The same five stages are instantiated for each record kind (signalements,
// arrêtés, lois, import history) instead of being re-implemented per page;
// kinds only differ in which fields the projector finds populated.
package pipeline
