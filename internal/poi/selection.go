package poi

import (
	"context"
	"sync"
	"time"

	"saferoute/internal/model"
)

// SelectionFetcher serializes POI fetches for a "current selection" context:
// at most one fetch in flight, a newer selection cancels the older one, and
// bursts of selection changes coalesce behind a debounce window. Late
// results from superseded fetches are dropped by sequence comparison.

// Selection identifies one route choice. Seq must increase monotonically per
// logical selection context.
type Selection struct {
	Seq     uint64
	RouteID string
	Path    model.Polyline
}

// SelectionResult is delivered to the sink for the winning selection only.
type SelectionResult struct {
	Selection Selection
	POIs      model.POISet
	Err       error
}

type SelectionFetcher struct {
	fetcher  *Fetcher
	debounce time.Duration
	sink     func(SelectionResult)

	mu      sync.Mutex
	seq     uint64
	timer   *time.Timer
	pending Selection
	cancel  context.CancelFunc
}

// NewSelectionFetcher delivers results to sink. The sink runs on the fetch
// goroutine and must not block for long.
func NewSelectionFetcher(f *Fetcher, debounce time.Duration, sink func(SelectionResult)) *SelectionFetcher {
	return &SelectionFetcher{fetcher: f, debounce: debounce, sink: sink}
}

// Select registers a new selection. Any pending debounce timer is reset so
// rapid changes collapse into one fetch; any in-flight fetch for an older
// selection is cancelled immediately.
func (s *SelectionFetcher) Select(sel Selection) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sel.Seq <= s.seq {
		return // stale or replayed selection
	}
	s.seq = sel.Seq
	s.pending = sel

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, s.fire)
}

func (s *SelectionFetcher) fire() {
	s.mu.Lock()
	sel := s.pending
	if sel.Seq != s.seq {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.mu.Unlock()

	set, err := s.fetcher.Fetch(ctx, sel.Path)

	s.mu.Lock()
	current := s.seq
	if s.cancel != nil && sel.Seq == s.seq {
		s.cancel = nil
	}
	s.mu.Unlock()

	// A newer selection arrived while we were fetching: discard this result.
	if sel.Seq != current || ctx.Err() != nil {
		return
	}
	s.sink(SelectionResult{Selection: sel, POIs: set, Err: err})
}

// Close cancels any in-flight fetch and pending timer.
func (s *SelectionFetcher) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.seq = ^uint64(0) // refuse further selections
}
