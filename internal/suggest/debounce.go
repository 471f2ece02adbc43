package suggest

import (
	"context"
	"sync"
	"time"

	"github.com/jonesrussell/crawldesk/internal/job"
)

// DebounceWindow coalesces keystrokes arriving within this interval.
const DebounceWindow = 150 * time.Millisecond

// Lookuper answers a single autocomplete lookup. *Service implements it.
type Lookuper interface {
	Lookup(ctx context.Context, site job.Site, keyword string) []Suggestion
}

// Debouncer coalesces bursts of input into at most one lookup, and
// discards responses that arrive after a newer query was issued.
type Debouncer struct {
	svc     Lookuper
	window  time.Duration
	deliver func([]Suggestion)

	mu      sync.Mutex
	timer   *time.Timer
	seq     uint64
	site    job.Site
	keyword string
	stopped bool
}

// NewDebouncer creates a Debouncer delivering results to the given
// callback. The callback runs on the lookup goroutine.
func NewDebouncer(svc Lookuper, window time.Duration, deliver func([]Suggestion)) *Debouncer {
	if window <= 0 {
		window = DebounceWindow
	}
	return &Debouncer{svc: svc, window: window, deliver: deliver}
}

// Input records a keystroke. Successive calls within the window replace
// the pending query; only the most recent executes.
func (d *Debouncer) Input(site job.Site, keyword string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	d.site = site
	d.keyword = keyword
	d.seq++

	if d.timer != nil {
		d.timer.Stop()
	}
	id := d.seq
	d.timer = time.AfterFunc(d.window, func() { d.fire(id) })
}

// fire runs the lookup for query id, unless a newer input superseded it.
func (d *Debouncer) fire(id uint64) {
	d.mu.Lock()
	if d.stopped || id != d.seq {
		d.mu.Unlock()
		return
	}
	site, keyword := d.site, d.keyword
	d.mu.Unlock()

	suggestions := d.svc.Lookup(context.Background(), site, keyword)

	// The response may be stale by the time the lookup returns.
	d.mu.Lock()
	stale := d.stopped || id != d.seq
	d.mu.Unlock()
	if stale {
		return
	}
	d.deliver(suggestions)
}

// Stop drops any pending query. Responses in flight are discarded.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
}
