package poi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"saferoute/internal/config"
	"saferoute/internal/model"
)

func fetcherFor(t *testing.T, srv *httptest.Server, mutate func(*config.Config)) (*Fetcher, *MemoryCache) {
	t.Helper()
	cfg := config.Default()
	cfg.Upstream.OverpassURL = srv.URL
	cfg.POI.RateLimit = 1000 // keep tests fast
	if mutate != nil {
		mutate(&cfg)
	}
	client := NewClient(cfg.Upstream, cfg.POI)
	client.sleep = func(context.Context, time.Duration) error { return nil }
	cache := NewMemoryCache(cfg.POI.CacheTTL.Std())
	return NewFetcher(client, cache, NewClassifier(cfg.POI), cfg.POI), cache
}

func lampBody(lat, lng float64) string {
	return fmt.Sprintf(`{"elements":[{"type":"node","id":1,"lat":%f,"lon":%f,"tags":{"highway":"street_lamp"}}]}`, lat, lng)
}

func TestFetchCachesWithinTTL(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(lampBody(offsetLat(5), 0.005)))
	}))
	defer srv.Close()

	f, _ := fetcherFor(t, srv, nil)
	for i := 0; i < 2; i++ {
		set, err := f.Fetch(context.Background(), testRoute)
		if err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
		if len(set.StreetLamps) != 1 {
			t.Fatalf("fetch %d lamps: %+v", i, set.StreetLamps)
		}
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("upstream calls = %d, want 1 (second fetch served from cache)", n)
	}
}

func TestFetchExpandsRadiusWhenEmpty(t *testing.T) {
	var radii []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		data := r.FormValue("data")
		i := strings.Index(data, "around:")
		radii = append(radii, data[i+len("around:"):i+len("around:")+3])
		if len(radii) == 1 {
			w.Write([]byte(`{"elements":[]}`))
			return
		}
		w.Write([]byte(lampBody(offsetLat(5), 0.005)))
	}))
	defer srv.Close()

	f, _ := fetcherFor(t, srv, nil)
	set, err := f.Fetch(context.Background(), testRoute)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(set.StreetLamps) != 1 {
		t.Fatalf("lamps: %+v", set.StreetLamps)
	}
	if len(radii) != 2 || radii[0] != "60," || radii[1] != "110" {
		t.Fatalf("radii = %v, want base 60 then 110", radii)
	}
}

func TestFetchDegradesToEmptyOnUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f, _ := fetcherFor(t, srv, nil)
	set, err := f.Fetch(context.Background(), testRoute)
	if err != nil {
		t.Fatalf("expected graceful degradation, got %v", err)
	}
	lamps, signals, shops := set.Counts()
	if lamps+signals+shops != 0 {
		t.Fatalf("expected empty set, got %+v", set)
	}
}

func TestFetchPreciseUsesSeparateCacheKey(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(lampBody(offsetLat(5), 0.005)))
	}))
	defer srv.Close()

	f, _ := fetcherFor(t, srv, nil)
	if _, err := f.Fetch(context.Background(), testRoute); err != nil {
		t.Fatal(err)
	}
	if _, err := f.FetchPrecise(context.Background(), testRoute); err != nil {
		t.Fatal(err)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Fatalf("upstream calls = %d, want 2 (precise must not reuse coarse entry)", n)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache(10 * time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }

	c.Set(context.Background(), "k", []RawElement{{ID: 1}})
	if _, ok := c.Get(context.Background(), "k"); !ok {
		t.Fatal("expected fresh entry")
	}
	now = now.Add(11 * time.Minute)
	if _, ok := c.Get(context.Background(), "k"); ok {
		t.Fatal("expected entry to expire")
	}
}

func TestSelectionDebounceCollapsesRapidChanges(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(lampBody(offsetLat(5), 0.005)))
	}))
	defer srv.Close()

	f, _ := fetcherFor(t, srv, nil)

	var mu sync.Mutex
	var got []SelectionResult
	done := make(chan struct{}, 4)
	sf := NewSelectionFetcher(f, 30*time.Millisecond, func(r SelectionResult) {
		mu.Lock()
		got = append(got, r)
		mu.Unlock()
		done <- struct{}{}
	})
	defer sf.Close()

	routes := []model.Polyline{
		{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 0.01}},
		{{Lat: 0.1, Lng: 0}, {Lat: 0.1, Lng: 0.01}},
		testRoute,
	}
	for i, r := range routes {
		sf.Select(Selection{Seq: uint64(i + 1), RouteID: fmt.Sprintf("route-%d", i), Path: r})
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for selection result")
	}
	time.Sleep(100 * time.Millisecond) // allow any spurious deliveries

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 {
		t.Fatalf("results = %d, want 1 (only last selection delivered)", len(got))
	}
	if got[0].Selection.Seq != 3 || got[0].Selection.RouteID != "route-2" {
		t.Fatalf("delivered selection %+v, want seq 3", got[0].Selection)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("upstream calls = %d, want 1", n)
	}
}

func TestSelectionIgnoresStaleSeq(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"elements":[]}`))
	}))
	defer srv.Close()

	f, _ := fetcherFor(t, srv, nil)
	done := make(chan SelectionResult, 2)
	sf := NewSelectionFetcher(f, 10*time.Millisecond, func(r SelectionResult) { done <- r })
	defer sf.Close()

	sf.Select(Selection{Seq: 5, RouteID: "new", Path: testRoute})
	sf.Select(Selection{Seq: 4, RouteID: "old", Path: testRoute}) // out of order, dropped

	select {
	case r := <-done:
		if r.Selection.Seq != 5 {
			t.Fatalf("delivered seq %d, want 5", r.Selection.Seq)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out")
	}
	select {
	case r := <-done:
		t.Fatalf("unexpected extra delivery: %+v", r)
	case <-time.After(100 * time.Millisecond):
	}
}
