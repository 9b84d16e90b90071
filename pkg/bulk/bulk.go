// Package bulk applies an action to many records at once. Actions settle
// independently: one failing record never aborts the rest, and the caller
// gets a per-record account of what happened.
package bulk

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/guichet-dev/guichet/pkg/log"
)

var logger = log.ForService("bulk")

// DefaultConcurrency bounds how many record actions run at once.
const DefaultConcurrency = 8

// Result is the outcome of a bulk run over a set of record ids.
type Result struct {
	Done   []string         `json:"done"`
	Failed map[string]error `json:"-"`
}

// Succeeded reports whether every record settled without error.
func (r Result) Succeeded() bool {
	return len(r.Failed) == 0
}

// FailedIDs returns the ids that failed, sorted.
func (r Result) FailedIDs() []string {
	ids := make([]string, 0, len(r.Failed))
	for id := range r.Failed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Summary renders a one-line account of the run.
func (r Result) Summary() string {
	if r.Succeeded() {
		return fmt.Sprintf("%d enregistrements traités", len(r.Done))
	}
	return fmt.Sprintf("%d enregistrements traités, %d en échec", len(r.Done), len(r.Failed))
}

// Run applies fn to every id with bounded concurrency. All ids settle even
// when some fail; per-id errors land in Result.Failed. Cancelling ctx stops
// scheduling new actions but already started ones run to completion.
func Run(ctx context.Context, ids []string, fn func(ctx context.Context, id string) error) Result {
	result := Result{Failed: make(map[string]error)}
	if len(ids) == 0 {
		return result
	}

	var mu sync.Mutex
	g := &errgroup.Group{}
	g.SetLimit(DefaultConcurrency)

	for _, id := range ids {
		if ctx.Err() != nil {
			mu.Lock()
			result.Failed[id] = ctx.Err()
			mu.Unlock()
			continue
		}

		id := id
		g.Go(func() error {
			err := fn(ctx, id)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed[id] = err
			} else {
				result.Done = append(result.Done, id)
			}
			return nil
		})
	}

	// Goroutines never return errors, only the limiter matters here.
	_ = g.Wait()

	sort.Strings(result.Done)
	return result
}

// OpenFunc opens one link, typically in a browser tab.
type OpenFunc func(link string) error

// OpenAll opens every link and returns how many were blocked. Blocked links
// are reported once, as a single aggregate warning, rather than one warning
// per link.
func OpenAll(links []string, open OpenFunc) int {
	blocked := 0
	for _, link := range links {
		if err := open(link); err != nil {
			blocked++
		}
	}
	if blocked > 0 {
		logger.Warnf("%d onglet(s) bloqué(s) sur %d", blocked, len(links))
	}
	return blocked
}

// ShareLinks renders links for sharing: a single link as-is, several joined
// one per line.
func ShareLinks(links []string) string {
	if len(links) == 1 {
		return links[0]
	}
	return strings.Join(links, "\n")
}

// Link builds the public URL of a record.
func Link(baseURL, commune, kind, id string) string {
	return fmt.Sprintf("%s/%s/%s/%s", strings.TrimRight(baseURL, "/"), commune, kind, id)
}
