package internal

import (
	"strconv"
	"sync"
	"time"
)

// notifyThrottle is the minimum wall-clock gap between two externally
// visible notifications, regardless of message volume.
const notifyThrottle = 3 * time.Second

// unreadDisplayCap is the rendered ceiling for the unread badge. The true
// count is kept internally.
const unreadDisplayCap = 99

// NotifyFunc raises an external (system) notification.
type NotifyFunc func(senderName, text string)

// Notifier tracks unseen messages while the widget is collapsed and
// throttles external notifications. Inbound messages arrive on the
// controller's consume goroutine while expand/collapse comes from the
// presentation layer, so access is synchronized internally.
type Notifier struct {
	mu           sync.Mutex
	count        int
	lastNotified time.Time
	now          func() time.Time
	notify       NotifyFunc
}

// NewNotifier creates a Notifier. notify may be nil when external
// notifications are unavailable; the unread count still accumulates.
func NewNotifier(notify NotifyFunc) *Notifier {
	return &Notifier{
		now:    time.Now,
		notify: notify,
	}
}

// InboundWhileCollapsed records an agent or system message that arrived
// while the widget was collapsed.
func (n *Notifier) InboundWhileCollapsed(senderName, text string) {
	n.mu.Lock()
	n.count++

	if n.notify == nil {
		n.mu.Unlock()
		return
	}
	now := n.now()
	if !n.lastNotified.IsZero() && now.Sub(n.lastNotified) < notifyThrottle {
		n.mu.Unlock()
		return
	}
	n.lastNotified = now
	n.mu.Unlock()

	// The callback runs unlocked so a slow notification hook cannot
	// stall the counting path.
	n.notify(senderName, text)
}

// WidgetExpanded resets the unread count; called exactly when the widget
// transitions to the expanded state.
func (n *Notifier) WidgetExpanded() {
	n.mu.Lock()
	n.count = 0
	n.mu.Unlock()
}

// Unread returns the true unread count.
func (n *Notifier) Unread() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.count
}

// UnreadDisplay returns the badge text for the unread count, empty when
// there is nothing unread and capped at "99+".
func (n *Notifier) UnreadDisplay() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	switch {
	case n.count == 0:
		return ""
	case n.count > unreadDisplayCap:
		return "99+"
	default:
		return strconv.Itoa(n.count)
	}
}
