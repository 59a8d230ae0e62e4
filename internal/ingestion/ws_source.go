package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"chain-sentinel/internal/domain"
)

// WSConfig configures WebSocket feed behavior.
type WSConfig struct {
	// ReconnectDelay is the initial delay before a reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is the maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is the interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is the timeout for reading messages.
	ReadTimeout time.Duration
	// Buffer is the capacity of the delivered event channel.
	Buffer int
}

// DefaultWSConfig returns default WebSocket feed configuration.
func DefaultWSConfig() WSConfig {
	return WSConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		Buffer:            1024,
	}
}

// WSFeedSource subscribes to a WebSocket transaction feed. Each message
// is one JSON-encoded TransactionEvent. The source reconnects with
// exponential backoff; events arriving while disconnected are simply
// missed, which the engine tolerates (the window is advisory history,
// not a ledger).
type WSFeedSource struct {
	endpoint string
	config   WSConfig
	logger   *log.Logger

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	events    chan *domain.TransactionEvent
	subscribe sync.Once
}

// NewWSFeedSource creates a WebSocket feed source for the endpoint.
func NewWSFeedSource(endpoint string, config *WSConfig, logger *log.Logger) *WSFeedSource {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}
	if logger == nil {
		logger = log.Default()
	}

	return &WSFeedSource{
		endpoint: endpoint,
		config:   cfg,
		logger:   logger,
		events:   make(chan *domain.TransactionEvent, cfg.Buffer),
	}
}

var _ Source = (*WSFeedSource)(nil)

// Subscribe connects and starts the read loop. The returned channel is
// closed when the context is cancelled or Close is called.
func (s *WSFeedSource) Subscribe(ctx context.Context) (<-chan *domain.TransactionEvent, error) {
	var err error
	s.subscribe.Do(func() {
		if err = s.connect(ctx); err != nil {
			return
		}
		go s.readLoop(ctx)
		go s.pingLoop(ctx)
	})
	if err != nil {
		return nil, err
	}
	return s.events, nil
}

// Close tears down the connection and stops delivery.
func (s *WSFeedSource) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// connect establishes the WebSocket connection.
func (s *WSFeedSource) connect(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, s.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	s.connMu.Lock()
	s.conn = conn
	s.connMu.Unlock()
	return nil
}

// readLoop reads feed messages, decodes them, and delivers them in order.
// On read failure it reconnects with exponential backoff until the
// context ends.
func (s *WSFeedSource) readLoop(ctx context.Context) {
	defer close(s.events)

	delay := s.config.ReconnectDelay

	for {
		if ctx.Err() != nil || s.closed.Load() {
			return
		}

		s.connMu.Lock()
		conn := s.conn
		s.connMu.Unlock()

		conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || s.closed.Load() {
				return
			}
			s.logger.Printf("Feed read error: %v, reconnecting in %v", err, delay)
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			delay *= 2
			if delay > s.config.MaxReconnectDelay {
				delay = s.config.MaxReconnectDelay
			}
			if err := s.connect(ctx); err != nil {
				s.logger.Printf("Feed reconnect failed: %v", err)
			}
			continue
		}
		delay = s.config.ReconnectDelay

		event := new(domain.TransactionEvent)
		if err := json.Unmarshal(data, event); err != nil {
			s.logger.Printf("Skipping undecodable feed message: %v", err)
			continue
		}
		event.Normalize()

		select {
		case s.events <- event:
		case <-ctx.Done():
			return
		}
	}
}

// pingLoop keeps the connection alive.
func (s *WSFeedSource) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.closed.Load() {
				return
			}
			s.connMu.Lock()
			conn := s.conn
			s.connMu.Unlock()
			if conn == nil {
				continue
			}
			deadline := time.Now().Add(10 * time.Second)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				s.logger.Printf("Feed ping failed: %v", err)
			}
		}
	}
}
