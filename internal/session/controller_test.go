package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/crawldesk/internal/i18n"
	"github.com/jonesrussell/crawldesk/internal/job"
	"github.com/jonesrussell/crawldesk/internal/logger"
	"github.com/jonesrussell/crawldesk/internal/results"
	"github.com/jonesrussell/crawldesk/internal/transport"
)

// fakeChannel is a scriptable transport.Channel.
type fakeChannel struct {
	frames chan transport.Frame
	closed atomic.Bool
	reason transport.CloseReason
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{frames: make(chan transport.Frame, 32)}
}

func (f *fakeChannel) Frames() <-chan transport.Frame { return f.frames }

func (f *fakeChannel) Close() error {
	f.closed.Store(true)
	return nil
}

func (f *fakeChannel) Reason() transport.CloseReason { return f.reason }

func (f *fakeChannel) push(fr transport.Frame) { f.frames <- fr }
func (f *fakeChannel) end()                    { close(f.frames) }

// fakeDialer hands out a scripted channel and records calls.
type fakeDialer struct {
	mu        sync.Mutex
	ch        *fakeChannel
	openErr   error
	openCalls int
	lastReq   transport.Request
	cancels   []string
}

func (d *fakeDialer) Open(_ context.Context, req transport.Request) (transport.Channel, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.openCalls++
	d.lastReq = req
	if d.openErr != nil {
		return nil, d.openErr
	}
	return d.ch, nil
}

func (d *fakeDialer) SendCancel(_ context.Context, crawlID string) {
	d.mu.Lock()
	d.cancels = append(d.cancels, crawlID)
	d.mu.Unlock()
}

func (d *fakeDialer) cancelCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.cancels)
}

type fixture struct {
	jobs    *job.Store
	store   *results.Store
	dialer  *fakeDialer
	ctrl    *Controller
	outcome chan Outcome
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	jobs := job.NewStore()
	site := job.SiteReddit
	board := "askreddit"
	sort := "top"
	jobs.Set(job.Patch{Site: &site, Board: &board, SortKey: &sort})

	dialer := &fakeDialer{ch: newFakeChannel()}
	store := results.NewStore()
	ctrl := New(jobs, store, dialer, logger.NewNop())

	outcome := make(chan Outcome, 1)
	ctrl.OnTerminal(func(o Outcome) { outcome <- o })

	return &fixture{jobs: jobs, store: store, dialer: dialer, ctrl: ctrl, outcome: outcome}
}

func (f *fixture) waitOutcome(t *testing.T) Outcome {
	t.Helper()
	select {
	case o := <-f.outcome:
		return o
	case <-time.After(2 * time.Second):
		t.Fatal("no terminal outcome")
		return Outcome{}
	}
}

func progressFrame(percent float64, statusKey string) transport.Frame {
	return transport.Frame{Kind: transport.KindProgress, Percent: percent, StatusKey: statusKey}
}

func TestHappyPath(t *testing.T) {
	f := newFixture(t)

	var percents []float64
	f.ctrl.OnProgress(func(p Progress) { percents = append(percents, p.Percent) })

	require.NoError(t, f.ctrl.Start(context.Background()))

	f.dialer.ch.push(progressFrame(10, "crawlingStatus.connecting"))
	f.dialer.ch.push(progressFrame(60, "crawlingStatus.collecting"))
	f.dialer.ch.push(transport.Frame{Kind: transport.KindDone, Posts: []map[string]any{
		{"title": "A", "link": "u1"},
		{"title": "B", "link": "u2"},
		{"title": "C", "link": "u3"},
	}})

	out := f.waitOutcome(t)
	assert.Equal(t, StateCompleted, out.State)
	assert.Equal(t, 3, out.Count)
	assert.Equal(t, StateCompleted, f.ctrl.State())
	assert.Equal(t, []float64{10, 60}, percents)

	rs, ok := f.store.Get()
	require.True(t, ok)
	require.Len(t, rs.Posts, 3)
	assert.Equal(t, 1, rs.Posts[0].Rank)
	assert.Equal(t, 3, rs.Posts[2].Rank)
	assert.Zero(t, rs.Posts[0].Views)
	assert.Equal(t, "u1", rs.Posts[0].URL)

	// The channel was released on the terminal transition.
	assert.True(t, f.dialer.ch.closed.Load())
}

func TestValidationFailureNoNetwork(t *testing.T) {
	f := newFixture(t)
	board := "technology" // missing @instance
	site := job.SiteLemmy
	f.jobs.Set(job.Patch{Site: &site, Board: &board})

	err := f.ctrl.Start(context.Background())
	var failure *Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, FailureValidation, failure.Kind)
	assert.Equal(t, "crawlButtonMessages.lemmyFormatError", failure.Code)

	assert.Equal(t, StateIdle, f.ctrl.State())
	assert.Equal(t, 0, f.dialer.openCalls)
}

func TestDuplicateStartIsNoOp(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.ctrl.Start(context.Background()))
	err := f.ctrl.Start(context.Background())
	assert.ErrorIs(t, err, ErrSessionActive)

	f.dialer.ch.push(transport.Frame{Kind: transport.KindDone})
	f.waitOutcome(t)

	// Exactly one channel was opened and one request sent.
	assert.Equal(t, 1, f.dialer.openCalls)
	assert.Equal(t, "askreddit", f.dialer.lastReq.Input)
}

func TestMonotonicProgress(t *testing.T) {
	f := newFixture(t)

	var seen []Progress
	f.ctrl.OnProgress(func(p Progress) { seen = append(seen, p) })

	require.NoError(t, f.ctrl.Start(context.Background()))
	f.dialer.ch.push(progressFrame(40, ""))
	f.dialer.ch.push(progressFrame(20, "crawlingStatus.filtering"))
	f.dialer.ch.push(progressFrame(70, ""))
	f.dialer.ch.push(transport.Frame{Kind: transport.KindDone})
	f.waitOutcome(t)

	require.Len(t, seen, 3)
	assert.Equal(t, []float64{40, 40, 70}, []float64{seen[0].Percent, seen[1].Percent, seen[2].Percent})
	// The lower frame's status still surfaced.
	assert.Equal(t, "crawlingStatus.filtering", seen[1].StatusKey)
}

func TestCancelMidStreamDropsLateDone(t *testing.T) {
	f := newFixture(t)

	progressed := make(chan struct{}, 4)
	f.ctrl.OnProgress(func(Progress) { progressed <- struct{}{} })

	require.NoError(t, f.ctrl.Start(context.Background()))
	f.dialer.ch.push(progressFrame(10, "crawlingStatus.connecting"))
	<-progressed

	f.ctrl.Cancel()
	assert.Equal(t, StateCancelling, f.ctrl.State())

	// The backend keeps talking; everything after cancel is dropped.
	f.dialer.ch.push(transport.Frame{Kind: transport.KindDone, Posts: []map[string]any{{"title": "late"}}})
	f.dialer.ch.end()

	out := f.waitOutcome(t)
	assert.Equal(t, StateCancelled, out.State)

	_, ok := f.store.Get()
	assert.False(t, ok, "late Done must not write results")

	require.Eventually(t, func() bool { return f.dialer.cancelCount() == 1 },
		time.Second, 10*time.Millisecond, "out-of-band cancel not sent")
}

func TestCancelRacingDoneFrameWins(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctrl.Start(context.Background()))

	require.Eventually(t, func() bool { return f.ctrl.State() == StateStreaming },
		time.Second, time.Millisecond)

	// Interleaving: a Done frame passes the drop check, then Cancel
	// lands on another goroutine before the frame is handled.
	f.ctrl.mu.Lock()
	f.ctrl.state = StateCancelling
	f.ctrl.cancel = true
	f.ctrl.mu.Unlock()

	done := f.ctrl.handleFrame(f.jobs.Get(), transport.Frame{
		Kind:  transport.KindDone,
		Posts: []map[string]any{{"title": "late", "link": "u1"}},
	})
	require.True(t, done)

	out := f.waitOutcome(t)
	assert.Equal(t, StateCancelled, out.State)
	assert.Equal(t, StateCancelled, f.ctrl.State())

	_, ok := f.store.Get()
	assert.False(t, ok, "racing Done must not write results")

	f.dialer.ch.end()
}

func TestBackendErrorFrame(t *testing.T) {
	f := newFixture(t)
	f.store.Set(results.ResultSet{Posts: []results.Post{{Title: "stale"}}})

	require.NoError(t, f.ctrl.Start(context.Background()))
	f.dialer.ch.push(transport.Frame{Kind: transport.KindError, ErrorCode: "quota_exceeded"})

	out := f.waitOutcome(t)
	assert.Equal(t, StateFailed, out.State)
	require.NotNil(t, out.Failure)
	assert.Equal(t, FailureBackend, out.Failure.Kind)
	assert.Equal(t, "quota_exceeded", out.Failure.Code)

	tr := i18n.New(i18n.English)
	assert.Equal(t, "Daily usage quota exceeded", out.Failure.Localize(tr))

	// Results were cleared at start and never repopulated.
	_, ok := f.store.Get()
	assert.False(t, ok)
}

func TestConnectionFailure(t *testing.T) {
	f := newFixture(t)
	f.dialer.openErr = transport.ErrConnect

	require.NoError(t, f.ctrl.Start(context.Background()))
	out := f.waitOutcome(t)
	assert.Equal(t, StateFailed, out.State)
	assert.Equal(t, FailureConnection, out.Failure.Kind)

	// A failed session is terminal: a new start is allowed.
	f.dialer.openErr = nil
	f.dialer.ch = newFakeChannel()
	require.NoError(t, f.ctrl.Start(context.Background()))
	f.dialer.ch.push(transport.Frame{Kind: transport.KindDone})
	f.waitOutcome(t)
	assert.Equal(t, StateCompleted, f.ctrl.State())
}

func TestProtocolErrorFailsSession(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.ctrl.Start(context.Background()))
	f.dialer.ch.push(transport.Frame{Kind: transport.KindProtocolError, ErrorDetail: "garbage"})

	out := f.waitOutcome(t)
	assert.Equal(t, StateFailed, out.State)
	assert.Equal(t, FailureProtocol, out.Failure.Kind)
}

func TestChannelDropped(t *testing.T) {
	f := newFixture(t)
	f.dialer.ch.reason = transport.CloseReason{Code: 1006, Clean: false}

	require.NoError(t, f.ctrl.Start(context.Background()))
	f.dialer.ch.push(progressFrame(50, ""))
	f.dialer.ch.end()

	out := f.waitOutcome(t)
	assert.Equal(t, StateFailed, out.State)
	assert.Equal(t, FailureDropped, out.Failure.Kind)
}

func TestEstimateETA(t *testing.T) {
	assert.Equal(t, -1, estimateETA(0, time.Minute))
	assert.Equal(t, -1, estimateETA(10, time.Minute))
	// 20s elapsed at 50% leaves ~20s.
	assert.Equal(t, 20, estimateETA(50, 20*time.Second))
}

func TestStatusTextResolution(t *testing.T) {
	tr := i18n.New(i18n.English)

	p := Progress{StatusKey: "crawlingStatus.eta", StatusVars: map[string]any{"seconds": 9}}
	assert.Equal(t, "About 9s remaining", p.StatusText(tr))

	p = Progress{Status: "raw backend text"}
	assert.Equal(t, "raw backend text", p.StatusText(tr))

	p = Progress{}
	assert.Equal(t, "Processing...", p.StatusText(tr))
}
