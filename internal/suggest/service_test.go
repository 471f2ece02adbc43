package suggest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/crawldesk/internal/job"
	"github.com/jonesrussell/crawldesk/internal/logger"
)

func newBackend(t *testing.T, matches map[string][]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		keyword := r.URL.Query().Get("keyword")
		w.Header().Set("Content-Type", "application/json")
		if m, ok := matches[keyword]; ok {
			writeMatches(w, m)
			return
		}
		writeMatches(w, nil)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeMatches(w http.ResponseWriter, m []string) {
	out := `{"matches":[`
	for i, s := range m {
		if i > 0 {
			out += ","
		}
		out += `"` + s + `"`
	}
	out += `]}`
	_, _ = w.Write([]byte(out))
}

func TestLookupServerMatches(t *testing.T) {
	srv := newBackend(t, map[string][]string{"ask": {"askreddit", "askscience"}})
	svc := NewService(srv.URL, logger.NewNop())

	got := svc.Lookup(context.Background(), job.SiteReddit, "ask")
	require.Len(t, got, 2)
	assert.Equal(t, "askreddit", got[0].Value)
}

func TestLookupShortInputReturnsEmpty(t *testing.T) {
	svc := NewService("http://127.0.0.1:1", logger.NewNop())
	assert.Empty(t, svc.Lookup(context.Background(), job.SiteReddit, "a"))
	assert.Empty(t, svc.Lookup(context.Background(), job.SiteReddit, " "))
}

func TestLookupLemmyEmptyReturnsPopular(t *testing.T) {
	svc := NewService("http://127.0.0.1:1", logger.NewNop())
	got := svc.Lookup(context.Background(), job.SiteLemmy, "")
	require.NotEmpty(t, got)
	assert.Equal(t, "technology@lemmy.world", got[0].Value)
}

func TestLookupUniversalURLReturnsEmpty(t *testing.T) {
	svc := NewService("http://127.0.0.1:1", logger.NewNop())
	assert.Empty(t, svc.Lookup(context.Background(), job.SiteUniversal, "https://example.com/board"))
	// host/path shorthand counts as a URL too.
	assert.Empty(t, svc.Lookup(context.Background(), job.SiteUniversal, "example.com/board"))
}

func TestLookupBBCStaticSections(t *testing.T) {
	// No backend involved at all.
	svc := NewService("http://127.0.0.1:1", logger.NewNop())

	got := svc.Lookup(context.Background(), job.SiteBBC, "sp")
	require.Len(t, got, 1)
	assert.Equal(t, "sport", got[0].Value)

	// Korean synonym resolves to the News section.
	got = svc.Lookup(context.Background(), job.SiteBBC, "뉴스")
	require.Len(t, got, 1)
	assert.Equal(t, "news", got[0].Value)

	// The length gate applies to BBC like everywhere else.
	assert.Empty(t, svc.Lookup(context.Background(), job.SiteBBC, "s"))
	assert.Empty(t, svc.Lookup(context.Background(), job.SiteBBC, ""))
}

func TestLookupOfflineFallback(t *testing.T) {
	// Unreachable backend degrades to the seed list, filtered.
	svc := NewService("http://127.0.0.1:1", logger.NewNop())

	got := svc.Lookup(context.Background(), job.SiteReddit, "ask")
	require.NotEmpty(t, got)
	assert.Equal(t, "askreddit", got[0].Value)
}

func TestLookupFallbackOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	svc := NewService(srv.URL, logger.NewNop())
	got := svc.Lookup(context.Background(), job.SiteReddit, "game")
	require.NotEmpty(t, got)
	assert.Equal(t, "gaming", got[0].Value)
}

func TestRankPrefixAboveSubstring(t *testing.T) {
	matches := []Suggestion{
		{Value: "hardware"},  // substring hit for "war"
		{Value: "warcraft"},  // prefix hit
		{Value: "starwars"},  // substring hit
		{Value: "warhammer"}, // prefix hit
	}
	ranked := rankAndCap(matches, "war")
	assert.Equal(t, "warcraft", ranked[0].Value)
	assert.Equal(t, "warhammer", ranked[1].Value)
	// Ties keep the incoming order.
	assert.Equal(t, "hardware", ranked[2].Value)
	assert.Equal(t, "starwars", ranked[3].Value)
}

// countingLookuper records lookups for debounce assertions.
type countingLookuper struct {
	mu       sync.Mutex
	keywords []string
	delay    time.Duration
}

func (c *countingLookuper) Lookup(_ context.Context, _ job.Site, keyword string) []Suggestion {
	c.mu.Lock()
	c.keywords = append(c.keywords, keyword)
	c.mu.Unlock()
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	return []Suggestion{{Value: keyword}}
}

func (c *countingLookuper) seen() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.keywords...)
}

func TestDebounceCoalescesBurst(t *testing.T) {
	lookups := &countingLookuper{}
	var mu sync.Mutex
	var delivered [][]Suggestion
	d := NewDebouncer(lookups, 50*time.Millisecond, func(s []Suggestion) {
		mu.Lock()
		delivered = append(delivered, s)
		mu.Unlock()
	})
	defer d.Stop()

	// Three keystrokes inside one window: only the last executes.
	d.Input(job.SiteReddit, "a")
	d.Input(job.SiteReddit, "as")
	d.Input(job.SiteReddit, "ask")

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(delivered) == 1
	}, time.Second, 10*time.Millisecond)

	assert.Equal(t, []string{"ask"}, lookups.seen())
	mu.Lock()
	assert.Equal(t, "ask", delivered[0][0].Value)
	mu.Unlock()
}

func TestDebounceDiscardsStaleResponse(t *testing.T) {
	lookups := &countingLookuper{delay: 80 * time.Millisecond}
	var mu sync.Mutex
	var delivered []string
	d := NewDebouncer(lookups, 10*time.Millisecond, func(s []Suggestion) {
		mu.Lock()
		delivered = append(delivered, s[0].Value)
		mu.Unlock()
	})
	defer d.Stop()

	d.Input(job.SiteReddit, "old")
	// Let the first lookup launch, then supersede it mid-flight.
	time.Sleep(30 * time.Millisecond)
	d.Input(job.SiteReddit, "new")

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(delivered) >= 1
	}, time.Second, 10*time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"new"}, delivered, "stale response must be discarded")
}
