package session

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonesrussell/crawldesk/internal/i18n"
	"github.com/jonesrussell/crawldesk/internal/job"
	"github.com/jonesrussell/crawldesk/internal/logger"
	"github.com/jonesrussell/crawldesk/internal/results"
	"github.com/jonesrussell/crawldesk/internal/transport"
)

// ErrSessionActive is returned when Start is called while a session is
// already running. The caller treats it as a no-op.
var ErrSessionActive = errors.New("a session is already active")

// etaFloor is the displayed percent below which the ETA reads as
// "calculating" instead of a number.
const etaFloor = 10.0

// Progress is a snapshot of streaming progress for views.
type Progress struct {
	// Percent is the displayed bar value, non-decreasing per session.
	Percent float64
	// StatusKey and StatusVars localize the status line when present;
	// Status is the raw fallback text.
	StatusKey  string
	StatusVars map[string]any
	Status     string
	// ETASeconds is the remaining-time estimate, -1 while calculating.
	ETASeconds int
	Elapsed    time.Duration
}

// Outcome is the terminal result of a session.
type Outcome struct {
	State   State
	Count   int
	Failure *Failure
}

// Snapshot is the full observable session state.
type Snapshot struct {
	State    State
	Progress Progress
	Count    int
	Failure  *Failure
}

// Controller runs exactly one crawl at a time. It is the only writer of
// session state and of the result store.
type Controller struct {
	jobs   *job.Store
	store  *results.Store
	dialer transport.Dialer
	log    logger.Logger

	mu       sync.Mutex
	state    State
	channel  transport.Channel
	crawlID  string
	started  time.Time
	percent  float64
	progress Progress
	count    int
	failure  *Failure
	cancel   bool

	progressFns []func(Progress)
	terminalFns []func(Outcome)
}

// New creates a Controller in the Idle state.
func New(jobs *job.Store, store *results.Store, dialer transport.Dialer, log logger.Logger) *Controller {
	return &Controller{
		jobs:   jobs,
		store:  store,
		dialer: dialer,
		log:    log,
		state:  StateIdle,
	}
}

// OnProgress registers a listener for progress updates. Listeners are
// invoked from the frame-consuming goroutine in arrival order.
func (c *Controller) OnProgress(fn func(Progress)) {
	c.mu.Lock()
	c.progressFns = append(c.progressFns, fn)
	c.mu.Unlock()
}

// OnTerminal registers a listener for terminal transitions.
func (c *Controller) OnTerminal(fn func(Outcome)) {
	c.mu.Lock()
	c.terminalFns = append(c.terminalFns, fn)
	c.mu.Unlock()
}

// State returns the current session state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Terminal reports whether no session is active. Exporters use this as
// their guard.
func (c *Controller) Terminal() bool {
	return c.State().Terminal()
}

// Snapshot returns the full observable state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{State: c.state, Progress: c.progress, Count: c.count, Failure: c.failure}
}

// Start validates the current job description and, if it passes, opens a
// channel and begins streaming. Duplicate starts while a session is
// active return ErrSessionActive without side effects. A validation
// failure is returned as a *Failure and the previous terminal state is
// kept; no network traffic happens.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if !c.state.Terminal() {
		c.mu.Unlock()
		return ErrSessionActive
	}
	prev := c.state
	c.state = StateValidating

	desc := c.jobs.Get()
	if v := job.Validate(desc); !v.OK {
		c.state = prev
		c.mu.Unlock()
		return &Failure{Kind: FailureValidation, Code: v.Reason}
	}

	c.state = StateConnecting
	c.crawlID = uuid.NewString()
	c.started = time.Now()
	c.percent = 0
	c.progress = Progress{ETASeconds: -1}
	c.count = 0
	c.failure = nil
	c.cancel = false
	id := c.crawlID
	c.mu.Unlock()

	// A new session never shows stale results alongside its progress.
	c.store.Clear()

	c.log.Info("session starting",
		zap.String("crawl_id", id),
		zap.String("site", string(desc.Site)),
		zap.String("board", desc.Board))

	go c.run(ctx, desc)
	return nil
}

// Cancel moves an active session to Cancelling, closes the channel, and
// issues the best-effort out-of-band cancel. It is a no-op outside
// Validating, Connecting, and Streaming.
func (c *Controller) Cancel() {
	c.mu.Lock()
	if !c.state.cancellable() {
		c.mu.Unlock()
		return
	}
	c.state = StateCancelling
	c.cancel = true
	ch := c.channel
	id := c.crawlID
	c.mu.Unlock()

	go c.dialer.SendCancel(context.Background(), id)
	if ch != nil {
		_ = ch.Close()
	}
}

// Shutdown cancels any active session on page-unload/SIGINT. No UI
// updates happen; the out-of-band cancel is still issued.
func (c *Controller) Shutdown(ctx context.Context) {
	c.mu.Lock()
	active := c.state.cancellable()
	ch := c.channel
	id := c.crawlID
	if active {
		c.state = StateCancelled
		c.cancel = true
	}
	c.mu.Unlock()

	if !active {
		return
	}
	c.dialer.SendCancel(ctx, id)
	if ch != nil {
		_ = ch.Close()
	}
}

// run owns the connect and frame-consuming loop for one session.
func (c *Controller) run(ctx context.Context, desc job.Description) {
	req := transport.NewRequest(desc)
	ch, err := c.dialer.Open(ctx, req)

	c.mu.Lock()
	if c.cancel {
		c.mu.Unlock()
		if ch != nil {
			_ = ch.Close()
		}
		c.finish(Outcome{State: StateCancelled})
		return
	}
	if err != nil {
		c.mu.Unlock()
		c.finish(Outcome{State: StateFailed, Failure: &Failure{Kind: FailureConnection, Detail: err.Error()}})
		return
	}
	c.channel = ch
	c.state = StateStreaming
	c.mu.Unlock()

	for frame := range ch.Frames() {
		if c.dropping() {
			continue
		}
		if done := c.handleFrame(desc, frame); done {
			_ = ch.Close()
			// Drain so the reader goroutine can exit.
			for range ch.Frames() {
			}
			return
		}
	}

	// Stream ended without a terminal frame.
	c.mu.Lock()
	cancelled := c.cancel
	c.mu.Unlock()
	if cancelled {
		c.finish(Outcome{State: StateCancelled})
		return
	}
	reason := ch.Reason()
	detail := ""
	if reason.Err != nil {
		detail = reason.Err.Error()
	}
	c.finish(Outcome{State: StateFailed, Failure: &Failure{Kind: FailureDropped, Detail: detail}})
}

// dropping reports whether inbound frames should be ignored. After a
// cancel no frame may mutate state or results.
func (c *Controller) dropping() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancel
}

// handleFrame processes one frame; it returns true when the session
// reached a terminal state.
func (c *Controller) handleFrame(desc job.Description, frame transport.Frame) bool {
	switch frame.Kind {
	case transport.KindProgress:
		c.applyProgress(frame)
		return false

	case transport.KindDone:
		doneAt := time.Now()
		c.mu.Lock()
		started := c.started
		c.mu.Unlock()
		rs := results.NewResultSet(frame.Posts, results.Meta{
			StartRank: desc.RankRange.Start,
			Site:      desc.Site,
			StartedAt: started,
			DoneAt:    doneAt,
			Advanced:  desc.Advanced,
		})
		c.finishWith(Outcome{State: StateCompleted, Count: rs.Summary.Count}, &rs)
		return true

	case transport.KindError:
		c.finish(Outcome{State: StateFailed, Failure: &Failure{
			Kind:   FailureBackend,
			Code:   frame.ErrorCode,
			Detail: frame.ErrorDetail,
		}})
		return true

	case transport.KindCancelled:
		c.finish(Outcome{State: StateCancelled})
		return true

	case transport.KindProtocolError:
		c.finish(Outcome{State: StateFailed, Failure: &Failure{
			Kind:   FailureProtocol,
			Detail: frame.ErrorDetail,
		}})
		return true

	default:
		return false
	}
}

// applyProgress updates the displayed progress. The bar is monotonic: a
// lower percent from the server is ignored, but its status still shows.
func (c *Controller) applyProgress(frame transport.Frame) {
	c.mu.Lock()
	if frame.Percent > c.percent {
		c.percent = frame.Percent
	}
	elapsed := time.Since(c.started)
	p := Progress{
		Percent:    c.percent,
		StatusKey:  frame.StatusKey,
		StatusVars: frame.StatusVars,
		Status:     frame.Status,
		ETASeconds: estimateETA(c.percent, elapsed),
		Elapsed:    elapsed,
	}
	c.progress = p
	fns := make([]func(Progress), len(c.progressFns))
	copy(fns, c.progressFns)
	c.mu.Unlock()

	for _, fn := range fns {
		fn(p)
	}
}

// estimateETA derives remaining seconds from elapsed time and the
// displayed percent. Returns -1 ("calculating") at or below the floor.
func estimateETA(percent float64, elapsed time.Duration) int {
	if percent <= etaFloor {
		return -1
	}
	remaining := elapsed.Seconds() * (100 - percent) / percent
	return int(math.Ceil(remaining))
}

// finish records the terminal transition, releases the channel, and
// notifies listeners.
func (c *Controller) finish(out Outcome) {
	c.finishWith(out, nil)
}

// finishWith additionally publishes a result set with the transition.
// A cancel that landed after the frame passed the drop check still
// wins: the outcome is coerced to Cancelled and rs is discarded, so a
// cancelled session never mutates the result store.
func (c *Controller) finishWith(out Outcome, rs *results.ResultSet) {
	c.mu.Lock()
	if c.cancel && out.State != StateCancelled {
		out = Outcome{State: StateCancelled}
		rs = nil
	}
	if rs != nil {
		c.store.Set(*rs)
	}
	c.state = out.State
	c.count = out.Count
	c.failure = out.Failure
	ch := c.channel
	c.channel = nil
	fns := make([]func(Outcome), len(c.terminalFns))
	copy(fns, c.terminalFns)
	id := c.crawlID
	c.mu.Unlock()

	if ch != nil {
		_ = ch.Close()
	}

	c.log.Info("session finished",
		zap.String("crawl_id", id),
		zap.String("state", out.State.String()),
		zap.Int("count", out.Count))

	for _, fn := range fns {
		fn(out)
	}
}

// StatusText resolves the progress status line: status_key wins, then
// the raw status, then a generic processing message.
func (p Progress) StatusText(tr *i18n.Translator) string {
	if p.StatusKey != "" {
		return tr.T(p.StatusKey, i18n.Vars(p.StatusVars))
	}
	if p.Status != "" {
		return p.Status
	}
	return tr.T("crawlingStatus.processing", nil)
}
