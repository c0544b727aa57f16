// Package push maintains the WebSocket subscription that delivers real-time
// notification events into the feed store.
package push

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/careercoach/pulse/internal/feed/domain/model"
	"github.com/careercoach/pulse/internal/feed/domain/state"
	"github.com/careercoach/pulse/internal/feed/faults"
	"github.com/careercoach/pulse/internal/platform/backoff"
	"github.com/careercoach/pulse/internal/platform/config"
	"github.com/careercoach/pulse/internal/platform/logger"
	"github.com/careercoach/pulse/internal/platform/metrics"
	"github.com/careercoach/pulse/internal/session"
)

const writeWait = 10 * time.Second

// envelope is the wire frame exchanged with the push service. Client to
// server it carries subscriptions; server to client it carries stream events
// and protocol rejections.
type envelope struct {
	Type    string          `json:"type"`
	Channel string          `json:"channel,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

const (
	frameSubscribe = "subscribe"
	frameEvent     = "event"
	frameError     = "error"
)

// NotifyFunc receives each newly pushed notification, on top of the store
// dispatch. The UI layer hangs its toast on this.
type NotifyFunc func(model.Notification)

// Manager holds at most one live push subscription per session. Connect is a
// no-op while a subscription (or its reconnection) is active; Disconnect
// tears everything down and is safe to call at any time.
type Manager struct {
	cfg      config.PushConfig
	sessions session.Store
	store    *state.Store
	log      logger.Logger
	onNotify NotifyFunc

	mu      sync.Mutex
	running chan struct{} // nil when idle; closed when the run goroutine exits
	cancel  context.CancelFunc
}

// Option configures a Manager.
type Option func(*Manager)

// WithNotifyFunc registers the new-notification callback.
func WithNotifyFunc(fn NotifyFunc) Option {
	return func(m *Manager) { m.onNotify = fn }
}

// NewManager creates a connection manager feeding the given store.
func NewManager(cfg config.PushConfig, sessions session.Store, store *state.Store, log logger.Logger, opts ...Option) *Manager {
	m := &Manager{
		cfg:      cfg,
		sessions: sessions,
		store:    store,
		log:      log,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Connect opens the push channel for userID and subscribes to the three
// per-user streams. Already connected is a no-op. A missing credential fails
// immediately without touching the network. A failed dial records a transport
// error and hands over to the bounded reconnect loop.
func (m *Manager) Connect(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connectLocked(ctx, userID)
}

func (m *Manager) connectLocked(ctx context.Context, userID string) error {
	if m.running != nil {
		return nil
	}

	sess, ok := m.sessions.Current()
	if !ok {
		err := faults.AuthRequired()
		m.store.Dispatch(state.SetError{Err: err})
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	m.running = done
	m.cancel = cancel

	conn, err := m.dial(runCtx, userID, sess.Token)
	if err != nil {
		terr := faults.Wrap(faults.KindTransport, "push channel connection failed", err)
		m.store.Dispatch(state.SetError{Err: terr})
		go func() {
			defer close(done)
			if next, rerr := m.redial(runCtx, userID); rerr == nil {
				m.run(runCtx, userID, next)
			}
		}()
		return terr
	}

	go func() {
		defer close(done)
		m.run(runCtx, userID, conn)
	}()
	return nil
}

// Disconnect tears down the subscription and clears connection state.
// Idempotent; safe to call when not connected.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	cancel, done := m.cancel, m.running
	m.cancel, m.running = nil, nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
	m.setConnected(false)
}

// dial opens the transport session with the bearer credential attached and
// issues the three logical subscriptions.
func (m *Manager) dial(ctx context.Context, userID, token string) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: m.cfg.HandshakeTimeout}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	conn, resp, err := dialer.DialContext(ctx, m.cfg.URL, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: status %d: %w", m.cfg.URL, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("dial %s: %w", m.cfg.URL, err)
	}

	for _, channel := range userChannels(userID) {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(envelope{Type: frameSubscribe, Channel: channel}); err != nil {
			conn.Close()
			return nil, fmt.Errorf("subscribe %s: %w", channel, err)
		}
	}
	return conn, nil
}

func userChannels(userID string) []string {
	return []string{
		fmt.Sprintf("/user/%s/queue/notifications", userID),
		fmt.Sprintf("/user/%s/queue/notification-updates", userID),
		fmt.Sprintf("/user/%s/queue/unread-count", userID),
	}
}

// run serves one connection after another until the context is canceled, the
// server rejects the subscription, or the reconnect budget is spent.
func (m *Manager) run(ctx context.Context, userID string, conn *websocket.Conn) {
	for {
		err := m.serve(ctx, userID, conn)
		if ctx.Err() != nil {
			return
		}

		if !faults.IsKind(err, faults.KindProtocol) {
			err = faults.Wrap(faults.KindTransport, "push channel lost", err)
		}
		if !faults.Retryable(err) {
			// The server refused us for a reason other than a network blip;
			// retrying the same subscription would only be refused again.
			m.log.Warn("push subscription rejected", "user_id", userID, "error", err)
			m.store.Dispatch(state.SetError{Err: err})
			m.clearRunning()
			return
		}

		m.store.Dispatch(state.SetError{Err: err})

		next, rerr := m.redial(ctx, userID)
		if rerr != nil {
			return
		}
		conn = next
	}
}

// redial attempts reconnection with exponential backoff. Exhausting the
// budget leaves the channel disconnected until a manual Connect; a vanished
// credential aborts immediately.
func (m *Manager) redial(ctx context.Context, userID string) (*websocket.Conn, error) {
	bcfg := backoff.Config{
		MaxAttempts:   m.cfg.Reconnect.MaxAttempts,
		InitialDelay:  m.cfg.Reconnect.InitialDelay,
		MaxDelay:      m.cfg.Reconnect.MaxDelay,
		BackoffFactor: m.cfg.Reconnect.BackoffFactor,
		JitterFactor:  m.cfg.Reconnect.JitterFactor,
	}

	var lastErr error
	for attempt := 1; attempt <= bcfg.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(bcfg.Delay(attempt)):
		}

		sess, ok := m.sessions.Current()
		if !ok {
			err := faults.AuthRequired()
			m.store.Dispatch(state.SetError{Err: err})
			m.clearRunning()
			return nil, err
		}

		metrics.RecordReconnectAttempt()
		m.log.Info("reconnecting push channel", "user_id", userID, "attempt", attempt)

		conn, err := m.dial(ctx, userID, sess.Token)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		m.log.Warn("push channel reconnect failed", "user_id", userID, "attempt", attempt, "error", err)
	}

	if ctx.Err() == nil {
		m.store.Dispatch(state.SetError{
			Err: faults.Wrap(faults.KindTransport, "push channel reconnect attempts exhausted", lastErr),
		})
	}
	m.clearRunning()
	return nil, fmt.Errorf("reconnect attempts exhausted: %w", lastErr)
}

// serve pumps one live connection: a heartbeat pinger, a read loop, and a
// single consumer draining the bounded event queue in arrival order.
func (m *Manager) serve(ctx context.Context, userID string, conn *websocket.Conn) error {
	connID := uuid.New().String()
	log := m.log.WithFields(map[string]interface{}{"conn_id": connID, "user_id": userID})
	log.Info("push channel connected")

	m.setConnected(true)
	defer m.setConnected(false)

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Unblock the read loop when the context goes away.
	stop := context.AfterFunc(connCtx, func() { conn.Close() })
	defer stop()

	go m.ping(connCtx, conn)

	events := make(chan envelope, m.cfg.QueueSize)
	consumed := make(chan struct{})
	go func() {
		defer close(consumed)
		m.consume(events, log)
	}()

	err := m.readLoop(conn, events, log)
	close(events)
	<-consumed
	return err
}

// readLoop receives frames until the connection dies or the server rejects
// the subscription. Events are queued for the consumer; a full queue drops
// the event (delivery is at-most-once, there is no acknowledgment protocol).
func (m *Manager) readLoop(conn *websocket.Conn, events chan<- envelope, log logger.Logger) error {
	pongWait := 3 * m.cfg.HeartbeatInterval
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))

		var ev envelope
		if err := json.Unmarshal(raw, &ev); err != nil {
			log.Warn("dropping unparsable push frame", "error", err)
			metrics.RecordPushDropped("malformed_frame")
			continue
		}

		switch ev.Type {
		case frameError:
			return protocolError(ev.Data)
		case frameEvent:
			select {
			case events <- ev:
			default:
				log.Warn("push event queue full, dropping event", "channel", ev.Channel)
				metrics.RecordPushDropped("queue_full")
			}
		default:
			log.Debug("ignoring push frame", "type", ev.Type)
		}
	}
}

// consume is the single consumer of the event queue: it normalizes each
// event, dispatches the action, and emits the new-notification callback.
// Malformed payloads are logged and dropped without touching the channel.
func (m *Manager) consume(events <-chan envelope, log logger.Logger) {
	for ev := range events {
		stream, ok := streamOf(ev.Channel)
		if !ok {
			log.Warn("push event on unknown channel", "channel", ev.Channel)
			metrics.RecordPushDropped("unknown_stream")
			continue
		}
		metrics.RecordPushEvent(string(stream))

		action, err := Normalize(stream, ev.Data)
		if err != nil {
			log.Warn("dropping malformed push payload", "stream", string(stream), "error", err)
			metrics.RecordPushDropped("malformed_payload")
			continue
		}

		m.store.Dispatch(action)

		if add, ok := action.(state.AddNotification); ok && m.onNotify != nil {
			m.onNotify(add.Notification)
		}
	}
}

func (m *Manager) ping(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(m.cfg.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (m *Manager) setConnected(connected bool) {
	m.store.Dispatch(state.SetConnected{Connected: connected})
	metrics.SetConnected(connected)
}

func (m *Manager) clearRunning() {
	m.mu.Lock()
	m.cancel = nil
	m.running = nil
	m.mu.Unlock()
}

func protocolError(data json.RawMessage) error {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Message != "" {
		return faults.New(faults.KindProtocol, body.Message)
	}
	return faults.New(faults.KindProtocol, "subscription rejected by notification service")
}
