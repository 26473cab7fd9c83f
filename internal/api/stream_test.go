package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"carf/internal/types"
)

var upgrader = websocket.Upgrader{}

// streamServer serves the websocket endpoint, pushing entries from push.
func streamServer(t *testing.T, push chan types.LogEntry) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/developer/logs/stream" {
			http.NotFound(w, r)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for entry := range push {
			data, _ := json.Marshal(entry)
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		}
		// Keep the socket open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func waitForState(t *testing.T, s *LogStream, want StreamState) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case state := <-s.States():
			if state == want {
				return
			}
		case <-deadline:
			t.Fatalf("stream never reached state %q", want)
		}
	}
}

func TestStreamDeliversWebSocketEntries(t *testing.T) {
	defer goleak.VerifyNone(t)

	push := make(chan types.LogEntry, 1)
	srv := streamServer(t, push)
	defer srv.Close()

	stream := NewLogStream(NewClient(srv.URL, time.Second))
	stream.Start()
	defer stream.Stop()

	waitForState(t, stream, StreamConnected)

	want := types.LogEntry{
		Timestamp: time.Now().UTC().Truncate(time.Second),
		Level:     "info",
		Source:    "router",
		Message:   "classified as complicated",
	}
	push <- want
	close(push)

	select {
	case got := <-stream.Entries():
		require.Equal(t, want.Message, got.Message)
		require.Equal(t, want.Source, got.Source)
	case <-time.After(5 * time.Second):
		t.Fatal("no entry delivered")
	}
}

func TestStreamFallsBackToPolling(t *testing.T) {
	defer goleak.VerifyNone(t)

	// No websocket endpoint; only the polling route answers.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/developer/logs" {
			w.Write([]byte(`{"logs": [{"timestamp": "2026-08-26T10:00:00Z", "level": "info", "source": "poll", "message": "fallback line"}]}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	stream := NewLogStream(NewClient(srv.URL, time.Second))
	stream.Start()
	defer stream.Stop()

	waitForState(t, stream, StreamPolling)

	select {
	case got := <-stream.Entries():
		require.Equal(t, "fallback line", got.Message)
	case <-time.After(10 * time.Second):
		t.Fatal("polling fallback never delivered")
	}
}

func TestStreamPauseResume(t *testing.T) {
	defer goleak.VerifyNone(t)

	push := make(chan types.LogEntry)
	srv := streamServer(t, push)
	defer srv.Close()
	defer close(push)

	stream := NewLogStream(NewClient(srv.URL, time.Second))
	stream.Start()
	waitForState(t, stream, StreamConnected)

	stream.Pause()
	require.True(t, stream.Paused())
	waitForState(t, stream, StreamPaused)

	stream.Resume()
	require.False(t, stream.Paused())
	waitForState(t, stream, StreamConnected)

	stream.Stop()
}

func TestStreamStopIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	stream := NewLogStream(NewClient("http://127.0.0.1:1", 200*time.Millisecond))
	stream.Start()
	stream.Stop()
	stream.Stop()

	// Entries channel is closed after Stop.
	_, open := <-stream.Entries()
	require.False(t, open)
}
