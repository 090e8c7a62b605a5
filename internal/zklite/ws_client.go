package zklite

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"zklite-ledger/internal/observability"
)

// WSFeedConfig configures feed client behavior.
type WSFeedConfig struct {
	// ReconnectDelay is the initial delay before a reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay caps the delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is the interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is the timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is the timeout for writing messages.
	WriteTimeout time.Duration
}

// DefaultWSFeedConfig returns default feed configuration.
func DefaultWSFeedConfig() WSFeedConfig {
	return WSFeedConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// subscribeRequest is the outbound subscription control message.
type subscribeRequest struct {
	Op      string `json:"op"`
	Address string `json:"address"`
}

// feedMessage is one inbound notification.
type feedMessage struct {
	Address string         `json:"address"`
	Tx      RawTransaction `json:"tx"`
}

// WSFeed implements FeedClient using gorilla/websocket. On connection loss it
// reconnects with backoff and resubscribes all active addresses; subscription
// channels stay open across reconnects.
type WSFeed struct {
	endpoint string
	config   WSFeedConfig

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	// subs maps subscribed address to its delivery channel.
	subs   map[string]chan RawTransaction
	subsMu sync.RWMutex

	done chan struct{}
	wg   sync.WaitGroup

	// Reconnects counts connection re-establishments since startup.
	Reconnects atomic.Uint64
}

// NewWSFeed creates a feed client and connects to the endpoint.
func NewWSFeed(ctx context.Context, endpoint string, config *WSFeedConfig) (*WSFeed, error) {
	cfg := DefaultWSFeedConfig()
	if config != nil {
		cfg = *config
	}

	f := &WSFeed{
		endpoint: endpoint,
		config:   cfg,
		subs:     make(map[string]chan RawTransaction),
		done:     make(chan struct{}),
	}

	if err := f.connect(ctx); err != nil {
		return nil, err
	}

	f.wg.Add(1)
	go f.readLoop()

	f.wg.Add(1)
	go f.pingLoop()

	return f, nil
}

var _ FeedClient = (*WSFeed)(nil)

// connect establishes the websocket connection.
func (f *WSFeed) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: f.config.WriteTimeout}
	conn, _, err := dialer.DialContext(ctx, f.endpoint, nil)
	if err != nil {
		return fmt.Errorf("dial feed %s: %w", f.endpoint, err)
	}

	f.connMu.Lock()
	f.conn = conn
	f.connMu.Unlock()
	return nil
}

// SubscribeAccount subscribes to an address's settlement feed.
func (f *WSFeed) SubscribeAccount(ctx context.Context, address string) (<-chan RawTransaction, error) {
	if f.closed.Load() {
		return nil, fmt.Errorf("feed is closed")
	}

	f.subsMu.Lock()
	if ch, exists := f.subs[address]; exists {
		f.subsMu.Unlock()
		return ch, nil
	}
	ch := make(chan RawTransaction, 64)
	f.subs[address] = ch
	f.subsMu.Unlock()

	if err := f.sendSubscribe(address); err != nil {
		f.subsMu.Lock()
		delete(f.subs, address)
		f.subsMu.Unlock()
		return nil, err
	}
	return ch, nil
}

func (f *WSFeed) sendSubscribe(address string) error {
	msg, err := json.Marshal(subscribeRequest{Op: "subscribe", Address: address})
	if err != nil {
		return fmt.Errorf("marshal subscribe: %w", err)
	}

	f.connMu.Lock()
	defer f.connMu.Unlock()
	if f.conn == nil {
		return fmt.Errorf("feed not connected")
	}
	f.conn.SetWriteDeadline(time.Now().Add(f.config.WriteTimeout))
	if err := f.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		return fmt.Errorf("write subscribe: %w", err)
	}
	return nil
}

// readLoop reads notifications and routes them to subscription channels,
// reconnecting with backoff on failure.
func (f *WSFeed) readLoop() {
	defer f.wg.Done()

	for {
		select {
		case <-f.done:
			return
		default:
		}

		f.connMu.Lock()
		conn := f.conn
		f.connMu.Unlock()
		if conn == nil {
			return
		}

		conn.SetReadDeadline(time.Now().Add(f.config.ReadTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			if f.closed.Load() {
				return
			}
			if !f.reconnect() {
				return
			}
			continue
		}

		var msg feedMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			// Control acks and malformed frames are skipped; record
			// validity is the normalizer's concern, not transport's.
			continue
		}
		if msg.Tx.TxHash == "" {
			continue
		}

		f.subsMu.RLock()
		ch, ok := f.subs[msg.Address]
		f.subsMu.RUnlock()
		if !ok {
			continue
		}

		select {
		case ch <- msg.Tx:
		case <-f.done:
			return
		}
	}
}

// reconnect re-establishes the connection with exponential backoff and
// resubscribes all active addresses. Returns false when the feed is closed.
func (f *WSFeed) reconnect() bool {
	delay := f.config.ReconnectDelay

	for {
		select {
		case <-f.done:
			return false
		case <-time.After(delay):
		}

		ctx, cancel := context.WithTimeout(context.Background(), f.config.WriteTimeout)
		err := f.connect(ctx)
		cancel()
		if err == nil {
			f.Reconnects.Add(1)
			observability.RecordFeedReconnect()

			f.subsMu.RLock()
			addresses := make([]string, 0, len(f.subs))
			for address := range f.subs {
				addresses = append(addresses, address)
			}
			f.subsMu.RUnlock()

			ok := true
			for _, address := range addresses {
				if err := f.sendSubscribe(address); err != nil {
					ok = false
					break
				}
			}
			if ok {
				return true
			}
		}

		delay *= 2
		if delay > f.config.MaxReconnectDelay {
			delay = f.config.MaxReconnectDelay
		}
	}
}

// pingLoop keeps the connection alive.
func (f *WSFeed) pingLoop() {
	defer f.wg.Done()

	ticker := time.NewTicker(f.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-f.done:
			return
		case <-ticker.C:
			f.connMu.Lock()
			conn := f.conn
			if conn != nil {
				conn.SetWriteDeadline(time.Now().Add(f.config.WriteTimeout))
				conn.WriteMessage(websocket.PingMessage, nil)
			}
			f.connMu.Unlock()
		}
	}
}

// Close closes the feed connection and all subscription channels.
func (f *WSFeed) Close() error {
	if !f.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(f.done)

	f.connMu.Lock()
	if f.conn != nil {
		f.conn.Close()
	}
	f.connMu.Unlock()

	f.wg.Wait()

	f.subsMu.Lock()
	for address, ch := range f.subs {
		close(ch)
		delete(f.subs, address)
	}
	f.subsMu.Unlock()
	return nil
}
