package internal

import (
	"crypto/sha256"
	"encoding/hex"
)

const dedupWindow = 512

// MessageDeduper suppresses duplicate timeline entries. History replay and
// live delivery can both describe the same message, and the transport is
// not assumed to deliver at most once, so every rendered message is
// remembered by id (or by content hash when no id is present) and later
// copies are dropped.
type MessageDeduper struct {
	seen  map[string]bool
	order []string
}

// NewMessageDeduper creates an empty deduper.
func NewMessageDeduper() *MessageDeduper {
	return &MessageDeduper{seen: make(map[string]bool)}
}

// Key returns the dedup key for a message: its id when present, otherwise
// a hash of its identifying content.
func (d *MessageDeduper) Key(m Message) string {
	if m.ID != "" {
		return m.ID
	}
	h := sha256.New()
	h.Write([]byte(m.SenderType))
	h.Write([]byte(m.SenderName))
	h.Write([]byte(m.Content))
	h.Write([]byte(m.Timestamp))
	return hex.EncodeToString(h.Sum(nil))
}

// Seen reports whether an equivalent message was already rendered, and if
// not, remembers this one.
func (d *MessageDeduper) Seen(m Message) bool {
	key := d.Key(m)
	if d.seen[key] {
		return true
	}
	d.remember(key)
	return false
}

// Remember records a key without a seen check, used for optimistic local
// echoes whose id may come back on a relayed copy.
func (d *MessageDeduper) Remember(m Message) {
	d.remember(d.Key(m))
}

// Reset forgets everything, used when the timeline is replaced wholesale.
func (d *MessageDeduper) Reset() {
	d.seen = make(map[string]bool)
	d.order = nil
}

func (d *MessageDeduper) remember(key string) {
	if d.seen[key] {
		return
	}
	d.seen[key] = true
	d.order = append(d.order, key)
	if len(d.order) > dedupWindow {
		oldest := d.order[0]
		d.order = d.order[1:]
		delete(d.seen, oldest)
	}
}
