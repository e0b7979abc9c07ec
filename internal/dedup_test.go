package internal

import (
	"fmt"
	"testing"
)

func TestDeduperSeenByID(t *testing.T) {
	d := NewMessageDeduper()

	msg := CreateTestMessage("msg-1", SenderAdmin, "hello")
	if d.Seen(msg) {
		t.Error("First Seen() = true, want false")
	}
	if !d.Seen(msg) {
		t.Error("Second Seen() = false, want true")
	}

	// Same id with different content is still the same message.
	relayed := msg
	relayed.Content = "hello (edited)"
	if !d.Seen(relayed) {
		t.Error("Seen() for same id = false, want true")
	}
}

func TestDeduperContentHashFallback(t *testing.T) {
	d := NewMessageDeduper()

	msg := Message{Content: "hello", SenderType: SenderAdmin, SenderName: "Agent", Timestamp: "t1"}
	if d.Seen(msg) {
		t.Error("First Seen() = true, want false")
	}
	if !d.Seen(msg) {
		t.Error("Duplicate content Seen() = false, want true")
	}

	other := msg
	other.Content = "different"
	if d.Seen(other) {
		t.Error("Seen() for different content = true, want false")
	}
}

func TestDeduperRememberThenSeen(t *testing.T) {
	d := NewMessageDeduper()

	echo := CreateTestMessage("local-uuid-1", SenderCustomer, "my message")
	d.Remember(echo)

	if !d.Seen(echo) {
		t.Error("Seen() after Remember() = false, want true")
	}
}

func TestDeduperReset(t *testing.T) {
	d := NewMessageDeduper()

	msg := CreateTestMessage("msg-1", SenderAdmin, "hello")
	d.Remember(msg)
	d.Reset()

	if d.Seen(msg) {
		t.Error("Seen() after Reset() = true, want false")
	}
}

func TestDeduperWindowEviction(t *testing.T) {
	d := NewMessageDeduper()

	first := CreateTestMessage("msg-0", SenderAdmin, "oldest")
	d.Remember(first)
	for i := 1; i <= dedupWindow; i++ {
		d.Remember(CreateTestMessage(fmt.Sprintf("msg-%d", i), SenderAdmin, "filler"))
	}

	// The oldest key was evicted once the window overflowed.
	if d.Seen(first) {
		t.Error("Seen() for evicted key = true, want false")
	}

	recent := CreateTestMessage(fmt.Sprintf("msg-%d", dedupWindow), SenderAdmin, "filler")
	if !d.Seen(recent) {
		t.Error("Seen() for recent key = false, want true")
	}
}
