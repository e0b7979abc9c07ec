package internal

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// UIEventKind classifies events the presentation layer consumes.
type UIEventKind int

const (
	// EventNeedProfile asks the presentation layer to collect name+email
	// before the session can be bootstrapped.
	EventNeedProfile UIEventKind = iota
	EventSessionStarted
	EventTimelineReplaced
	EventMessageAppended
	EventConnectionStatus
	EventConversationClosed
	EventConversationReopened
	EventUnreadChanged
	EventError
)

// UIEvent is a renderable state change emitted by the Controller.
type UIEvent struct {
	Kind     UIEventKind
	Message  *Message
	Timeline []Message
	Status   string
	Session  *ChatSession
	By       string
	Unread   string
	Err      error
}

// Controller owns the chat session and its lifecycle: it bootstraps the
// session, bridges transport events to renderable state, and enforces the
// conversation state machine. One Controller instance owns one session,
// one transport and one notification tracker; there are no package-level
// singletons.
type Controller struct {
	cfg      *Config
	api      *APIClient
	ids      *IdentityStore
	notifier *Notifier
	dedup    *MessageDeduper

	// dial builds the duplex transport for an endpoint; replaceable in
	// tests.
	dial func(url string) Duplex

	mu         sync.Mutex
	widget     WidgetConfig
	conn       Duplex
	session    *ChatSession
	timeline   []Message
	pending    *Attachment
	collapsed  bool
	needResync bool

	events   chan UIEvent
	done     chan struct{}
	teardown sync.Once
}

// NewController wires a controller from its collaborators.
func NewController(cfg *Config, api *APIClient, ids *IdentityStore, notifier *Notifier) *Controller {
	return &Controller{
		cfg:      cfg,
		api:      api,
		ids:      ids,
		notifier: notifier,
		dedup:    NewMessageDeduper(),
		widget:   DefaultWidgetConfig(),
		dial:     func(url string) Duplex { return NewTransport(url) },
		// The widget starts collapsed, so messages arriving before the
		// first expand count as unread.
		collapsed: true,
		events:    make(chan UIEvent, 128),
		done:      make(chan struct{}),
	}
}

// Events returns the stream of renderable state changes.
func (c *Controller) Events() <-chan UIEvent {
	return c.events
}

// Widget returns the effective widget configuration.
func (c *Controller) Widget() WidgetConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.widget
}

// Session returns a copy of the current chat session, or nil before
// bootstrap completes.
func (c *Controller) Session() *ChatSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	s := *c.session
	return &s
}

// Timeline returns a copy of the rendered timeline.
func (c *Controller) Timeline() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.timeline))
	copy(out, c.timeline)
	return out
}

// Bootstrap fetches widget configuration and either starts the session
// right away (stored profile present) or asks the presentation layer to
// collect one first. The remote service needs an identified customer
// before a session can be created, hence the two paths.
func (c *Controller) Bootstrap() error {
	if remote, err := c.api.WidgetConfig(); err != nil {
		LogWarn("widget config fetch failed, using defaults: %v", err)
	} else {
		c.mu.Lock()
		c.widget = *remote
		c.mu.Unlock()
	}

	customerID, err := c.ids.GetOrCreateCustomerID()
	if err != nil {
		return err
	}

	profile, err := c.ids.Profile()
	if err != nil {
		return err
	}
	if profile == nil {
		c.emit(UIEvent{Kind: EventNeedProfile})
		return nil
	}

	return c.startSession(customerID, profile)
}

// SubmitProfile validates and persists the profile, then performs the
// deferred session bootstrap. Invalid input is rejected without any
// network call.
func (c *Controller) SubmitProfile(name, email string) error {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if name == "" {
		return &ValidationError{Field: "name", Reason: "name is required"}
	}
	if !ValidEmail(email) {
		return &ValidationError{Field: "email", Reason: "malformed email address"}
	}

	if err := c.ids.SetProfile(name, email); err != nil {
		return err
	}
	customerID, err := c.ids.GetOrCreateCustomerID()
	if err != nil {
		return err
	}
	return c.startSession(customerID, &Profile{Name: name, Email: email})
}

// startSession performs the start-or-resume exchange, then history load
// and transport connect, in that order. The service resumes an existing
// open session for the customer id; the client does no dedup of its own.
func (c *Controller) startSession(customerID string, profile *Profile) error {
	session, err := c.api.StartSession(customerID, profile.Name, profile.Email)
	if err != nil {
		berr := &SessionBootstrapError{Err: err}
		c.emit(UIEvent{Kind: EventError, Err: berr})
		return berr
	}
	if c.stale(customerID) {
		return nil
	}

	c.mu.Lock()
	c.session = session
	c.mu.Unlock()
	c.emit(UIEvent{Kind: EventSessionStarted, Session: session})

	c.loadHistory(customerID)
	return c.connectTransport(customerID)
}

// loadHistory fetches the ordered message log and replaces the rendered
// timeline wholesale, so stale rendered state can never duplicate fresh
// history. Failure degrades to an empty history.
func (c *Controller) loadHistory(customerID string) {
	history, err := c.api.History(customerID)
	if err != nil {
		LogWarn("history load failed, starting empty: %v", err)
		history = nil
	}
	if c.stale(customerID) {
		return
	}

	c.mu.Lock()
	c.dedup.Reset()
	c.timeline = c.timeline[:0]
	if c.widget.WelcomeMessage != "" {
		welcome := Message{
			Content:    c.widget.WelcomeMessage,
			SenderType: SenderSystem,
			SenderName: c.widget.Name,
		}
		c.dedup.Remember(welcome)
		c.timeline = append(c.timeline, welcome)
	}
	for _, msg := range history {
		c.dedup.Remember(msg)
		c.timeline = append(c.timeline, msg)
	}
	snapshot := make([]Message, len(c.timeline))
	copy(snapshot, c.timeline)
	c.mu.Unlock()

	c.emit(UIEvent{Kind: EventTimelineReplaced, Timeline: snapshot})
}

func (c *Controller) connectTransport(customerID string) error {
	endpoint, err := c.cfg.WebSocketURL(customerID)
	if err != nil {
		c.emit(UIEvent{Kind: EventError, Err: err})
		return err
	}

	conn := c.dial(endpoint)
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	go c.consume(conn)
	conn.Connect()
	return nil
}

// consume processes one transport's inbound stream strictly in arrival
// order. It exits when the transport reaches its terminal state or the
// controller is torn down.
func (c *Controller) consume(conn Duplex) {
	for {
		select {
		case <-c.done:
			return
		case ev := <-conn.Events():
			if ev.Frame != nil {
				c.handleInbound(ev.Frame)
				continue
			}
			c.emit(UIEvent{Kind: EventConnectionStatus, Status: StatusText(ev.State, ev.Err)})
			if ev.State == StateClosed && conn.Terminated() {
				return
			}
		}
	}
}

// handleInbound applies one frame to the conversation state machine.
func (c *Controller) handleInbound(frame *InboundFrame) {
	switch frame.Type {
	case FrameChatMessage:
		// The service is assumed not to echo the sender's own live
		// message back; customer-typed frames are dropped as self-echo,
		// and the id dedup below catches the case where that assumption
		// breaks down.
		if frame.SenderType == SenderCustomer {
			return
		}
		msg := frame.AsMessage()

		c.mu.Lock()
		if c.dedup.Seen(msg) {
			c.mu.Unlock()
			return
		}
		c.timeline = append(c.timeline, msg)
		collapsed := c.collapsed
		c.mu.Unlock()

		c.emit(UIEvent{Kind: EventMessageAppended, Message: &msg})
		if collapsed {
			c.notifier.InboundWhileCollapsed(msg.SenderName, msg.Content)
			c.emit(UIEvent{Kind: EventUnreadChanged, Unread: c.notifier.UnreadDisplay()})
		}

	case FrameConversationClosed:
		c.applyClosed(frame.ClosedBy)

	case FrameConversationReopened:
		c.applyReopened(frame.ReopenedBy)
	}
}

// SendMessage uploads any pending attachment, then transmits one combined
// message over the duplex channel, falling back to HTTP when it is not
// open. The local echo is rendered optimistically before any
// acknowledgment.
func (c *Controller) SendMessage(text string) error {
	text = strings.TrimSpace(text)

	c.mu.Lock()
	pending := c.pending
	session := c.session
	conn := c.conn
	c.mu.Unlock()

	if text == "" && pending == nil {
		return &ValidationError{Field: "message", Reason: "message text or attachment is required"}
	}
	if session == nil {
		return &ValidationError{Field: "session", Reason: "no active session"}
	}
	if session.Status == StatusClosed {
		return &ValidationError{Field: "session", Reason: "conversation is closed"}
	}

	customerID, err := c.ids.GetOrCreateCustomerID()
	if err != nil {
		return err
	}
	senderName := c.senderName()

	var upload *UploadResult
	if pending != nil {
		upload, err = c.api.Upload(customerID, senderName, pending)
		if err != nil {
			// Keep the pending attachment so the user can retry the send.
			c.emit(UIEvent{Kind: EventError, Err: err})
			return err
		}
	}

	msg := Message{
		ID:         uuid.NewString(),
		Content:    text,
		SenderType: SenderCustomer,
		SenderName: senderName,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
	if upload != nil {
		msg.AttachmentURL = upload.AttachmentURL
	}

	c.mu.Lock()
	c.dedup.Remember(msg)
	c.timeline = append(c.timeline, msg)
	c.pending = nil
	c.mu.Unlock()
	c.emit(UIEvent{Kind: EventMessageAppended, Message: &msg})

	frame := OutboundFrame{
		Type:       FrameChatMessage,
		Message:    text,
		SenderType: SenderCustomer,
		SenderName: senderName,
		MessageID:  msg.ID,
	}
	if upload != nil {
		frame.AttachmentPath = upload.AttachmentPath
		frame.AttachmentURL = upload.AttachmentURL
	}

	if conn != nil {
		if err := conn.Send(frame); err == nil {
			return nil
		} else if err != ErrTransportNotOpen {
			LogWarn("duplex send failed, falling back to HTTP: %v", err)
		}
	}

	if err := c.api.SendMessage(customerID, text, senderName); err != nil {
		c.emit(UIEvent{Kind: EventError, Err: err})
		return err
	}
	return nil
}

// AttachFile validates and stages a file as the pending attachment. At
// most one attachment is pending at a time.
func (c *Controller) AttachFile(path string) (*Attachment, error) {
	att, err := LoadAttachment(path)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.pending = att
	c.mu.Unlock()
	return att, nil
}

// RemoveAttachment discards the pending attachment.
func (c *Controller) RemoveAttachment() {
	c.mu.Lock()
	c.pending = nil
	c.mu.Unlock()
}

// PendingAttachment returns the staged attachment, if any.
func (c *Controller) PendingAttachment() *Attachment {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// CloseConversation closes the conversation. The confirmation gate is the
// caller's: confirmed must be true, so the presentation layer cannot
// close without asking the user first.
func (c *Controller) CloseConversation(confirmed bool) error {
	if !confirmed {
		return &ValidationError{Field: "confirmation", Reason: "close requires confirmation"}
	}

	c.mu.Lock()
	session := c.session
	conn := c.conn
	c.mu.Unlock()

	if session == nil || session.Status == StatusClosed {
		return nil
	}
	senderName := c.senderName()

	sent := false
	if conn != nil {
		err := conn.Send(OutboundFrame{Type: FrameCloseConversation, SenderName: senderName})
		sent = err == nil
	}
	if !sent {
		if err := c.api.UpdateSessionStatus(session.ID, StatusClosed); err != nil {
			c.emit(UIEvent{Kind: EventError, Err: err})
			return err
		}
	}

	c.applyClosed(senderName)
	return nil
}

// applyClosed performs the local closed transition: status change, a
// synthetic system message, and transport teardown. Idempotent.
func (c *Controller) applyClosed(closedBy string) {
	if closedBy == "" {
		closedBy = "Support"
	}

	c.mu.Lock()
	if c.session == nil || c.session.Status == StatusClosed {
		c.mu.Unlock()
		return
	}
	c.session.Status = StatusClosed
	notice := Message{
		Content:    "Conversation closed by " + closedBy,
		SenderType: SenderSystem,
		SenderName: "System",
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
	c.dedup.Remember(notice)
	c.timeline = append(c.timeline, notice)
	conn := c.conn
	c.mu.Unlock()

	c.emit(UIEvent{Kind: EventMessageAppended, Message: &notice})
	c.emit(UIEvent{Kind: EventConversationClosed, By: closedBy})

	if conn != nil {
		conn.Close()
	}
}

// applyReopened transitions back to an open conversation and restores the
// duplex channel if it is not already live.
func (c *Controller) applyReopened(reopenedBy string) {
	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return
	}
	c.session.Status = StatusOpen
	conn := c.conn
	c.mu.Unlock()

	c.emit(UIEvent{Kind: EventConversationReopened, By: reopenedBy})

	if conn == nil || conn.Terminated() {
		customerID, err := c.ids.GetOrCreateCustomerID()
		if err != nil {
			c.emit(UIEvent{Kind: EventError, Err: err})
			return
		}
		_ = c.connectTransport(customerID)
		return
	}
	if conn.State() != StateOpen {
		conn.Connect()
	}
}

// StartNewConversation discards the stored identity, clears the session
// and timeline, and re-bootstraps from scratch. This is the only path
// that changes the customer id mid-lifetime.
func (c *Controller) StartNewConversation() error {
	if _, err := c.ids.ResetIdentity(); err != nil {
		return err
	}

	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.session = nil
	c.timeline = nil
	c.pending = nil
	c.dedup.Reset()
	c.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	c.notifier.WidgetExpanded()
	c.emit(UIEvent{Kind: EventUnreadChanged, Unread: c.notifier.UnreadDisplay()})
	c.emit(UIEvent{Kind: EventTimelineReplaced, Timeline: nil})

	return c.Bootstrap()
}

// Expand marks the widget expanded and resets the unread count.
func (c *Controller) Expand() {
	c.mu.Lock()
	c.collapsed = false
	c.mu.Unlock()
	c.notifier.WidgetExpanded()
	c.emit(UIEvent{Kind: EventUnreadChanged, Unread: c.notifier.UnreadDisplay()})
}

// Collapse marks the widget collapsed; inbound agent and system messages
// now count as unread.
func (c *Controller) Collapse() {
	c.mu.Lock()
	c.collapsed = true
	c.mu.Unlock()
}

// Teardown stops the controller and its transport.
func (c *Controller) Teardown() {
	c.teardown.Do(func() {
		close(c.done)
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
	})
}

// stale reports whether a response was issued for a customer id that is
// no longer current (a new conversation was started while the request was
// in flight); such responses are discarded, not applied.
func (c *Controller) stale(customerID string) bool {
	current, err := c.ids.GetOrCreateCustomerID()
	if err != nil {
		return false
	}
	if current != customerID {
		LogWarn("discarding stale response for replaced customer id")
		return true
	}
	return false
}

func (c *Controller) senderName() string {
	profile, err := c.ids.Profile()
	if err != nil || profile == nil || profile.Name == "" {
		return "Customer"
	}
	return profile.Name
}

// emit delivers a UI event without blocking; a stalled presentation
// layer must not wedge the controller. A dropped event would leave an
// incrementally built view permanently out of date, so after any drop
// the next append is upgraded to a wholesale timeline snapshot.
func (c *Controller) emit(ev UIEvent) {
	switch ev.Kind {
	case EventMessageAppended:
		if c.takeResync() {
			ev = UIEvent{Kind: EventTimelineReplaced, Timeline: c.Timeline()}
		}
	case EventTimelineReplaced:
		c.takeResync()
	}

	select {
	case c.events <- ev:
	default:
		LogWarn("UI event buffer full, dropping event")
		c.mu.Lock()
		c.needResync = true
		c.mu.Unlock()
	}
}

// takeResync consumes the pending-resync flag set by a dropped event.
func (c *Controller) takeResync() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	pending := c.needResync
	c.needResync = false
	return pending
}
