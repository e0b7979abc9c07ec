package internal

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ConnState is the connection state of the duplex channel.
type ConnState string

const (
	StateConnecting   ConnState = "connecting"
	StateOpen         ConnState = "open"
	StateClosed       ConnState = "closed"
	StateReconnecting ConnState = "reconnecting"
)

// DefaultReconnectDelay is the fixed delay before a reconnect attempt.
const DefaultReconnectDelay = 3 * time.Second

// ErrTransportNotOpen is returned by Send when the channel is not open;
// callers fall back to the HTTP send path instead of queuing.
var ErrTransportNotOpen = errors.New("transport is not open")

// TransportEvent is delivered on the inbound event stream. Exactly one of
// Frame or a state change is described: when Frame is nil the event
// reports a transition to State (Err carries the cause, if any).
type TransportEvent struct {
	Frame *InboundFrame
	State ConnState
	Err   error
}

// Duplex is the connection surface the session controller depends on.
type Duplex interface {
	Connect()
	Send(frame OutboundFrame) error
	Events() <-chan TransportEvent
	State() ConnState
	Close()
	Terminated() bool
}

// Transport owns one live websocket connection to the support service and
// keeps it alive: any disconnect schedules a reconnect after a fixed
// delay, indefinitely, until Close tears the transport down for good.
type Transport struct {
	url    string
	dialer *websocket.Dialer
	delay  time.Duration
	events chan TransportEvent

	mu         sync.Mutex
	state      ConnState
	conn       *websocket.Conn
	reconnect  *time.Timer
	terminated bool
}

// NewTransport creates a transport for the given ws(s) URL. The transport
// is inert until Connect is called.
func NewTransport(url string) *Transport {
	return &Transport{
		url:    url,
		dialer: websocket.DefaultDialer,
		delay:  DefaultReconnectDelay,
		events: make(chan TransportEvent, 64),
		state:  StateClosed,
	}
}

// SetReconnectDelay overrides the fixed reconnect delay. Must be called
// before Connect.
func (t *Transport) SetReconnectDelay(d time.Duration) {
	t.delay = d
}

// Events returns the inbound event stream. The channel is never closed;
// a terminal StateClosed event marks the end of the stream.
func (t *Transport) Events() <-chan TransportEvent {
	return t.events
}

// State returns the current connection state.
func (t *Transport) State() ConnState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Terminated reports whether Close has been called.
func (t *Transport) Terminated() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.terminated
}

// Connect starts connecting. Idempotent: calling while already open or
// connecting is a no-op, so a reconnect timer firing during a manual
// connect cannot double-dial.
func (t *Transport) Connect() {
	t.mu.Lock()
	if t.terminated || t.state == StateOpen || t.state == StateConnecting {
		t.mu.Unlock()
		return
	}
	if t.reconnect != nil {
		t.reconnect.Stop()
		t.reconnect = nil
	}
	t.state = StateConnecting
	t.emitLocked(TransportEvent{State: StateConnecting})
	t.mu.Unlock()

	go t.dial()
}

func (t *Transport) dial() {
	conn, resp, err := t.dialer.Dial(t.url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		LogWarn("websocket dial failed: %v", err)
		t.connectionLost(&NetworkError{Op: "dial", Err: err})
		return
	}

	t.mu.Lock()
	if t.terminated {
		t.mu.Unlock()
		conn.Close()
		return
	}
	t.conn = conn
	t.state = StateOpen
	t.emitLocked(TransportEvent{State: StateOpen})
	t.mu.Unlock()

	t.readLoop(conn)
}

// readLoop delivers parsed frames in arrival order until the connection
// drops. Malformed payloads are dropped and logged, never fatal.
func (t *Transport) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				LogWarn("websocket read error: %v", err)
			}
			t.connectionLost(err)
			return
		}

		frame, err := ParseInboundFrame(data)
		if err != nil {
			LogWarn("dropping inbound frame: %v", err)
			continue
		}

		t.mu.Lock()
		t.emitLocked(TransportEvent{Frame: frame, State: StateOpen})
		t.mu.Unlock()
	}
}

// connectionLost records the disconnect and schedules a reconnect attempt
// unless the transport was explicitly closed.
func (t *Transport) connectionLost(cause error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.terminated {
		return
	}
	if t.conn != nil {
		t.conn.Close()
		t.conn = nil
	}

	t.state = StateClosed
	t.emitLocked(TransportEvent{State: StateClosed, Err: cause})

	t.state = StateReconnecting
	t.emitLocked(TransportEvent{State: StateReconnecting, Err: cause})
	t.reconnect = time.AfterFunc(t.delay, t.Connect)
}

// Send transmits a frame. Valid only while open; otherwise callers must
// use the HTTP fallback, since outbound events are not buffered across
// reconnects.
func (t *Transport) Send(frame OutboundFrame) error {
	t.mu.Lock()
	conn := t.conn
	open := t.state == StateOpen && conn != nil
	t.mu.Unlock()

	if !open {
		return ErrTransportNotOpen
	}
	if err := conn.WriteJSON(frame); err != nil {
		return &NetworkError{Op: "send", Err: err}
	}
	return nil
}

// Close transitions to the terminal closed state and cancels any pending
// reconnect. The transport cannot be reused afterwards.
func (t *Transport) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.terminated {
		return
	}
	t.terminated = true
	if t.reconnect != nil {
		t.reconnect.Stop()
		t.reconnect = nil
	}
	if t.conn != nil {
		t.conn.Close()
		t.conn = nil
	}
	t.state = StateClosed
	t.emitLocked(TransportEvent{State: StateClosed})
}

// emitLocked delivers an event without blocking; the buffer is large
// enough for normal operation and a stalled consumer must not wedge the
// read loop. Callers hold t.mu.
func (t *Transport) emitLocked(ev TransportEvent) {
	select {
	case t.events <- ev:
	default:
		LogWarn("transport event buffer full, dropping %s event", ev.State)
	}
}

// StatusText maps a connection state to the user-visible status line.
func StatusText(state ConnState, err error) string {
	switch state {
	case StateOpen:
		return "Connected"
	case StateConnecting:
		return "Connecting..."
	case StateReconnecting, StateClosed:
		if err != nil {
			return "Connection Error"
		}
		return "Disconnected"
	default:
		return "Disconnected"
	}
}
