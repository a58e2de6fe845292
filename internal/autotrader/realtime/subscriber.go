// Package realtime maintains a websocket subscription to the scanner-results
// change channel and debounces it into realtime-path triggers for C1.
package realtime

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
)

const (
	dialTimeout = 30 * time.Second

	baseReconnectDelay   = 5 * time.Second
	maxReconnectDelay    = 5 * time.Minute
	maxReconnectAttempts = 10
)

// Subscriber listens on a websocket channel that emits one message per write
// to the scanner-results table (ticker, mode, timestamp — the payload shape
// is not otherwise interpreted) and invokes OnChange for every message, after
// which the caller (C1's debouncer) decides whether and when to run.
type Subscriber struct {
	url string

	mu         sync.RWMutex
	conn       *websocket.Conn
	connCtx    context.Context
	cancelFunc context.CancelFunc
	connected  bool
	reconnecting bool
	stopChan   chan struct{}
	stopped    bool

	onChange func()
	log      zerolog.Logger
}

// New builds a Subscriber that calls onChange once per inbound message.
func New(url string, onChange func(), log zerolog.Logger) *Subscriber {
	return &Subscriber{
		url:      url,
		onChange: onChange,
		log:      log.With().Str("component", "realtime_subscriber").Logger(),
		stopChan: make(chan struct{}),
	}
}

// Start dials the channel and begins reading in the background. A failed
// initial dial does not return an error to the caller beyond logging it —
// the reconnect loop takes over, matching the fail-open posture the rest of
// the scheduling surface uses for unavailable external dependencies.
func (s *Subscriber) Start() {
	s.log.Info().Msg("starting realtime scanner-change subscriber")

	if err := s.Connect(); err != nil {
		s.log.Warn().Err(err).Msg("initial websocket connection failed, retrying in background")
		go s.reconnectLoop()
		return
	}

	s.mu.RLock()
	ctx := s.connCtx
	s.mu.RUnlock()
	go s.readMessages(ctx)
}

// Stop gracefully shuts the subscription down.
func (s *Subscriber) Stop() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	s.mu.Unlock()

	close(s.stopChan)
	return s.Disconnect()
}

// Connect dials the websocket channel.
func (s *Subscriber) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dialCtx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	conn, _, err := websocket.Dial(dialCtx, s.url, nil)
	if err != nil {
		return fmt.Errorf("dial realtime channel: %w", err)
	}

	connCtx, connCancel := context.WithCancel(context.Background())
	s.conn = conn
	s.connCtx = connCtx
	s.cancelFunc = connCancel
	s.connected = true

	return nil
}

// Disconnect closes the underlying connection, if any.
func (s *Subscriber) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil
	}

	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}

	err := s.conn.Close(websocket.StatusNormalClosure, "")
	s.conn = nil
	s.connCtx = nil
	s.connected = false

	if err != nil {
		return fmt.Errorf("close realtime channel: %w", err)
	}
	return nil
}

func (s *Subscriber) readMessages(ctx context.Context) {
	defer func() {
		s.mu.RLock()
		stopped := s.stopped
		s.mu.RUnlock()
		if !stopped {
			go s.reconnectLoop()
		}
	}()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		default:
		}

		s.mu.RLock()
		conn := s.conn
		s.mu.RUnlock()
		if conn == nil {
			return
		}

		_, _, err := conn.Read(ctx)
		if err != nil {
			closeStatus := websocket.CloseStatus(err)
			if closeStatus != websocket.StatusNormalClosure && closeStatus != websocket.StatusGoingAway && ctx.Err() == nil {
				s.log.Error().Err(err).Msg("unexpected realtime channel read error")
			}
			return
		}

		if s.onChange != nil {
			s.onChange()
		}
	}
}

func (s *Subscriber) reconnectLoop() {
	s.mu.Lock()
	if s.reconnecting || s.stopped {
		s.mu.Unlock()
		return
	}
	s.reconnecting = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.reconnecting = false
		s.mu.Unlock()
	}()

	attempt := 0
	for {
		select {
		case <-s.stopChan:
			return
		default:
		}

		attempt++
		delay := calculateBackoff(attempt)

		select {
		case <-time.After(delay):
		case <-s.stopChan:
			return
		}

		if err := s.Connect(); err != nil {
			s.log.Error().Err(err).Int("attempt", attempt).Msg("realtime channel reconnect failed")
			continue
		}

		s.log.Info().Int("attempt", attempt).Msg("realtime channel reconnected")
		s.mu.RLock()
		ctx := s.connCtx
		s.mu.RUnlock()
		go s.readMessages(ctx)
		return
	}
}

func calculateBackoff(attempt int) time.Duration {
	delay := float64(baseReconnectDelay) * math.Pow(2, float64(attempt-1))
	if delay > float64(maxReconnectDelay) {
		delay = float64(maxReconnectDelay)
	}
	return time.Duration(delay)
}

// IsConnected reports current connection status.
func (s *Subscriber) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}
