package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/crawldesk/internal/logger"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return parsed
}

var upgrader = websocket.Upgrader{}

// newStreamServer runs a WebSocket endpoint that reads the request frame
// and then plays back the given raw frames.
func newStreamServer(t *testing.T, frames []string, closeCode int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var requests atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/ws/crawl", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		var req Request
		require.NoError(t, conn.ReadJSON(&req))
		requests.Add(1)

		for _, f := range frames {
			// The client may close early (e.g. TestCloseDropsPendingFrames),
			// failing this write after the test has completed; asserting here
			// would panic, so just stop writing.
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		deadline := time.Now().Add(time.Second)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(closeCode, ""), deadline)
		// Wait for the client to go away.
		_, _, _ = conn.ReadMessage()
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &requests
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func newTestTransport(srv *httptest.Server) *Transport {
	tr := New(wsURL(srv), srv.URL, logger.NewNop())
	tr.AttemptTimeout = 2 * time.Second
	tr.Backoff = 10 * time.Millisecond
	return tr
}

func TestOpenStreamsFrames(t *testing.T) {
	srv, requests := newStreamServer(t, []string{
		`{"progress": 10, "status_key": "crawlingStatus.connecting"}`,
		`{"done": true, "data": [{"title": "A"}]}`,
	}, websocket.CloseNormalClosure)

	tr := newTestTransport(srv)
	ch, err := tr.Open(context.Background(), Request{Input: "askreddit", Site: "reddit"})
	require.NoError(t, err)
	defer ch.Close()

	var kinds []Kind
	for f := range ch.Frames() {
		kinds = append(kinds, f.Kind)
	}
	assert.Equal(t, []Kind{KindProgress, KindDone}, kinds)
	assert.Equal(t, int32(1), requests.Load())

	reason := ch.Reason()
	assert.True(t, reason.Clean)
	assert.Equal(t, websocket.CloseNormalClosure, reason.Code)
}

func TestOpenSendsRequestExactlyOnce(t *testing.T) {
	srv, requests := newStreamServer(t, []string{`{"done": true}`}, websocket.CloseNormalClosure)

	tr := newTestTransport(srv)
	ch, err := tr.Open(context.Background(), Request{Input: "golang"})
	require.NoError(t, err)
	for range ch.Frames() {
	}
	_ = ch.Close()

	assert.Equal(t, int32(1), requests.Load())
}

func TestUncleanCloseReason(t *testing.T) {
	srv, _ := newStreamServer(t, []string{
		`{"progress": 30}`,
	}, websocket.CloseInternalServerErr)

	tr := newTestTransport(srv)
	ch, err := tr.Open(context.Background(), Request{})
	require.NoError(t, err)
	defer ch.Close()

	for range ch.Frames() {
	}
	reason := ch.Reason()
	assert.False(t, reason.Clean)
	assert.Equal(t, websocket.CloseInternalServerErr, reason.Code)
}

func TestConnectRetryExhaustion(t *testing.T) {
	// A plain HTTP handler refuses the upgrade, so every attempt fails.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	tr := newTestTransport(srv)
	start := time.Now()
	_, err := tr.Open(context.Background(), Request{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConnect)
	// One backoff between the two attempts.
	assert.GreaterOrEqual(t, time.Since(start), tr.Backoff)
}

func TestCloseDropsPendingFrames(t *testing.T) {
	srv, _ := newStreamServer(t, []string{
		`{"progress": 10}`,
		`{"progress": 20}`,
		`{"progress": 30}`,
	}, websocket.CloseNormalClosure)

	tr := newTestTransport(srv)
	ch, err := tr.Open(context.Background(), Request{})
	require.NoError(t, err)

	require.NoError(t, ch.Close())
	// The frame stream ends without blocking even though nobody drained it.
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-ch.Frames():
			if !ok {
				assert.True(t, ch.Reason().Clean)
				return
			}
		case <-deadline:
			t.Fatal("frames channel never closed after Close")
		}
	}
}

func TestSendCancelBestEffort(t *testing.T) {
	var gotBody cancelRequest
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/cancel-crawl", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	tr := New("ws://unused", srv.URL, logger.NewNop())
	tr.SendCancel(context.Background(), "session-123")

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "session-123", gotBody.CrawlID)
	assert.Equal(t, "cancel", gotBody.Action)

	// A dead endpoint must not panic or surface an error.
	dead := New("ws://unused", "http://127.0.0.1:1", logger.NewNop())
	dead.SendCancel(context.Background(), "session-456")
}
