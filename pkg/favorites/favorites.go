// Package favorites tracks per-user favorite record ids. The set lives in
// memory and is written through to a durable key-value store on every
// mutation; concurrent writers are not merged (last writer wins).
package favorites

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/guichet-dev/guichet/pkg/core"
	"github.com/guichet-dev/guichet/pkg/log"
)

var logger = log.ForService("favorites")

// Store is the durable key-value capability favorites are persisted
// through. Keeping it an interface lets the persistence mechanism (local
// disk today, a backend-synced table tomorrow) be swapped without touching
// any pipeline logic.
type Store interface {
	// Get returns the stored value for key, or (nil, nil) when absent.
	Get(key string) ([]byte, error)
	// Set durably stores value under key.
	Set(key string, value []byte) error
}

// Key builds the storage key for one user's favorites of one record kind.
func Key(kind core.Kind, userID string) string {
	return fmt.Sprintf("favorites_%s_%s", kind, userID)
}

// Favorites is one user's favorite set for one record kind.
type Favorites struct {
	kind   core.Kind
	userID string
	store  Store
	ids    map[string]struct{}
}

// Open loads the persisted set for (kind, user). A corrupt or unreadable
// persisted copy degrades to an empty set: it is logged, never surfaced to
// the caller.
func Open(store Store, kind core.Kind, userID string) *Favorites {
	f := &Favorites{
		kind:   kind,
		userID: userID,
		store:  store,
		ids:    make(map[string]struct{}),
	}

	if store == nil {
		return f
	}

	data, err := store.Get(Key(kind, userID))
	if err != nil {
		logger.Warnf("reading favorites %s: %v", Key(kind, userID), err)
		return f
	}
	if len(data) == 0 {
		return f
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		logger.Warnf("corrupt favorites %s, starting empty: %v", Key(kind, userID), err)
		return f
	}
	for _, id := range ids {
		f.ids[id] = struct{}{}
	}
	return f
}

// Has reports whether id is a favorite. Implements pipeline.FavoriteChecker.
func (f *Favorites) Has(id string) bool {
	_, ok := f.ids[id]
	return ok
}

// Len returns the favorite count.
func (f *Favorites) Len() int {
	return len(f.ids)
}

// IDs returns the favorite ids, sorted.
func (f *Favorites) IDs() []string {
	ids := make([]string, 0, len(f.ids))
	for id := range f.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Toggle flips membership of id and immediately persists the full set
// (write-through, no debounce). The in-memory flip survives a persistence
// failure; the error is returned for the caller to surface.
func (f *Favorites) Toggle(id string) error {
	if _, ok := f.ids[id]; ok {
		delete(f.ids, id)
	} else {
		f.ids[id] = struct{}{}
	}
	return f.persist()
}

func (f *Favorites) persist() error {
	if f.store == nil {
		return nil
	}
	data, err := json.Marshal(f.IDs())
	if err != nil {
		return fmt.Errorf("marshaling favorites: %w", err)
	}
	if err := f.store.Set(Key(f.kind, f.userID), data); err != nil {
		return fmt.Errorf("persisting favorites: %w", err)
	}
	return nil
}
