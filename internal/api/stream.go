package api

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"carf/internal/logging"
	"carf/internal/types"
)

// StreamState is the connection state of the live log stream.
type StreamState string

const (
	StreamConnecting StreamState = "connecting"
	StreamConnected  StreamState = "connected"
	StreamPolling    StreamState = "polling"
	StreamPaused     StreamState = "paused"
	StreamStopped    StreamState = "stopped"
)

const pollInterval = 3 * time.Second

// LogStream delivers developer log entries over a channel. It connects to the
// backend's WebSocket stream and falls back to interval polling when the
// socket cannot be established or drops. Pause tears down the active
// connection; Resume re-establishes it; Stop is terminal.
type LogStream struct {
	client *Client
	log    *zap.Logger

	entries chan types.LogEntry
	states  chan StreamState

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	paused  bool
	stopped bool
}

// NewLogStream builds a stream bound to the client's backend. Call Start to
// begin delivery.
func NewLogStream(client *Client) *LogStream {
	return &LogStream{
		client:  client,
		log:     logging.Get(logging.CategoryStream),
		entries: make(chan types.LogEntry, 256),
		states:  make(chan StreamState, 8),
	}
}

// Entries delivers log lines from the socket or the polling fallback.
func (s *LogStream) Entries() <-chan types.LogEntry {
	return s.entries
}

// States delivers connection-state transitions for the status indicator.
func (s *LogStream) States() <-chan StreamState {
	return s.states
}

// Start begins the connect loop. No-op if already running or stopped.
func (s *LogStream) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || s.cancel != nil {
		return
	}
	s.paused = false
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.wg.Add(1)
	go s.run(ctx)
}

// Pause tears down the socket or polling ticker. Entries stop arriving until
// Resume.
func (s *LogStream) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || s.paused {
		return
	}
	s.paused = true
	s.teardownLocked()
	s.setState(StreamPaused)
}

// Resume re-establishes delivery after Pause.
func (s *LogStream) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || !s.paused {
		return
	}
	s.paused = false
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.wg.Add(1)
	go s.run(ctx)
}

// Paused reports whether delivery is paused.
func (s *LogStream) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// Stop shuts the stream down for good and waits for the worker to exit.
func (s *LogStream) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.teardownLocked()
	s.mu.Unlock()

	s.wg.Wait()
	s.setState(StreamStopped)
	close(s.entries)
}

func (s *LogStream) teardownLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// run drives one connection lifetime: try the socket, fall back to polling.
func (s *LogStream) run(ctx context.Context) {
	defer s.wg.Done()

	s.setState(StreamConnecting)

	conn, err := s.dial(ctx)
	if err != nil {
		s.log.Warn("websocket unavailable, falling back to polling", zap.Error(err))
		s.setState(StreamPolling)
		s.poll(ctx)
		return
	}

	s.setState(StreamConnected)
	s.readSocket(ctx, conn)

	// Socket dropped mid-session: keep delivering via polling.
	if ctx.Err() == nil {
		s.setState(StreamPolling)
		s.poll(ctx)
	}
}

func (s *LogStream) dial(ctx context.Context) (*websocket.Conn, error) {
	wsURL := strings.Replace(s.client.BaseURL(), "http", "ws", 1) + "/developer/logs/stream"
	dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, wsURL, nil)
	return conn, err
}

func (s *LogStream) readSocket(ctx context.Context, conn *websocket.Conn) {
	defer conn.Close()

	// Unblock ReadMessage when the context is cancelled.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				s.log.Warn("websocket read failed", zap.Error(err))
			}
			return
		}
		var entry types.LogEntry
		if err := json.Unmarshal(data, &entry); err != nil {
			s.log.Debug("skipping malformed log frame", zap.Error(err))
			continue
		}
		if !s.deliver(ctx, entry) {
			return
		}
	}
}

// poll fetches recent logs on a ticker, forwarding only entries newer than
// the last one seen.
func (s *LogStream) poll(ctx context.Context) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	var lastSeen time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			logs, err := s.client.RecentLogs(ctx, 100)
			if err != nil {
				if ctx.Err() == nil {
					s.log.Debug("log poll failed", zap.Error(err))
				}
				continue
			}
			for _, entry := range logs {
				if !entry.Timestamp.After(lastSeen) {
					continue
				}
				lastSeen = entry.Timestamp
				if !s.deliver(ctx, entry) {
					return
				}
			}
		}
	}
}

func (s *LogStream) deliver(ctx context.Context, entry types.LogEntry) bool {
	select {
	case s.entries <- entry:
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *LogStream) setState(state StreamState) {
	select {
	case s.states <- state:
	default:
		// State channel full; the latest indicator update wins anyway.
	}
}
