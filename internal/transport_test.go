package internal

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/oliversimiyu/support-defmis/testutil"
)

func wsEndpoint(srv *testutil.ChatServer, customerID string) string {
	return strings.Replace(srv.URL(), "http://", "ws://", 1) + "/ws/chat/" + customerID + "/"
}

// waitForState drains events until the wanted state transition arrives.
func waitForState(t *testing.T, events <-chan TransportEvent, want ConnState) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Frame == nil && ev.State == want {
				return
			}
		case <-deadline:
			t.Fatalf("Timed out waiting for state %s", want)
		}
	}
}

// waitForFrame drains events until the next inbound frame arrives.
func waitForFrame(t *testing.T, events <-chan TransportEvent) *InboundFrame {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Frame != nil {
				return ev.Frame
			}
		case <-deadline:
			t.Fatal("Timed out waiting for inbound frame")
		}
	}
}

func TestTransportDeliversFramesInOrder(t *testing.T) {
	srv := testutil.NewChatServer(t)
	tr := NewTransport(wsEndpoint(srv, "customer_1"))
	defer tr.Close()

	tr.Connect()
	waitForState(t, tr.Events(), StateOpen)

	for i := 1; i <= 3; i++ {
		srv.Push(map[string]interface{}{
			"type":        "chat_message",
			"message":     fmt.Sprintf("reply %d", i),
			"sender_type": "admin",
			"sender_name": "Agent",
		})
	}

	for i := 1; i <= 3; i++ {
		frame := waitForFrame(t, tr.Events())
		want := fmt.Sprintf("reply %d", i)
		if frame.Message != want {
			t.Errorf("Frame %d message = %q, want %q", i, frame.Message, want)
		}
	}
}

func TestTransportSendReachesServer(t *testing.T) {
	srv := testutil.NewChatServer(t)
	tr := NewTransport(wsEndpoint(srv, "customer_1"))
	defer tr.Close()

	tr.Connect()
	waitForState(t, tr.Events(), StateOpen)

	err := tr.Send(OutboundFrame{
		Type:       FrameChatMessage,
		Message:    "hello",
		SenderType: SenderCustomer,
		SenderName: "Jane",
		MessageID:  "local-1",
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	deadline := time.After(5 * time.Second)
	for len(srv.Received()) == 0 {
		select {
		case <-deadline:
			t.Fatal("Server never received the frame")
		case <-time.After(10 * time.Millisecond):
		}
	}

	got := srv.Received()[0]
	if got["type"] != "chat_message" || got["message"] != "hello" {
		t.Errorf("Received frame = %v", got)
	}
	if got["message_id"] != "local-1" {
		t.Errorf("message_id = %v, want local-1", got["message_id"])
	}
}

func TestTransportSendWhenNotOpen(t *testing.T) {
	tr := NewTransport("ws://127.0.0.1:1/ws/chat/customer_1/")
	defer tr.Close()

	err := tr.Send(OutboundFrame{Type: FrameChatMessage, Message: "hi"})
	if !errors.Is(err, ErrTransportNotOpen) {
		t.Errorf("Send() error = %v, want ErrTransportNotOpen", err)
	}
}

func TestTransportReconnectsAfterDrop(t *testing.T) {
	srv := testutil.NewChatServer(t)
	tr := NewTransport(wsEndpoint(srv, "customer_1"))
	defer tr.Close()
	tr.SetReconnectDelay(20 * time.Millisecond)

	tr.Connect()
	waitForState(t, tr.Events(), StateOpen)

	srv.CloseConnections()
	waitForState(t, tr.Events(), StateReconnecting)
	waitForState(t, tr.Events(), StateOpen)

	if got := srv.ConnCount(); got < 2 {
		t.Errorf("Connection count = %d, want at least 2", got)
	}
}

func TestTransportKeepsRetryingWhileServerDown(t *testing.T) {
	tr := NewTransport("ws://127.0.0.1:1/ws/chat/customer_1/")
	defer tr.Close()
	tr.SetReconnectDelay(10 * time.Millisecond)

	tr.Connect()

	// Every failed dial schedules another attempt; observe several cycles.
	for i := 0; i < 3; i++ {
		waitForState(t, tr.Events(), StateReconnecting)
	}
}

func TestTransportCloseCancelsReconnect(t *testing.T) {
	srv := testutil.NewChatServer(t)
	tr := NewTransport(wsEndpoint(srv, "customer_1"))
	tr.SetReconnectDelay(500 * time.Millisecond)

	tr.Connect()
	waitForState(t, tr.Events(), StateOpen)
	before := srv.ConnCount()

	srv.CloseConnections()
	waitForState(t, tr.Events(), StateReconnecting)
	tr.Close()

	if !tr.Terminated() {
		t.Fatal("Terminated() = false after Close()")
	}

	time.Sleep(time.Second)
	if got := srv.ConnCount(); got != before {
		t.Errorf("Connection count after Close() = %d, want %d", got, before)
	}
	if got := tr.State(); got != StateClosed {
		t.Errorf("State() after Close() = %s, want closed", got)
	}
}

func TestTransportDropsMalformedFrames(t *testing.T) {
	srv := testutil.NewChatServer(t)
	tr := NewTransport(wsEndpoint(srv, "customer_1"))
	defer tr.Close()

	tr.Connect()
	waitForState(t, tr.Events(), StateOpen)

	// An unknown frame type is dropped; the stream stays usable.
	srv.Push(map[string]interface{}{"type": "typing_indicator"})
	srv.Push(map[string]interface{}{
		"type":        "chat_message",
		"message":     "still alive",
		"sender_type": "admin",
	})

	frame := waitForFrame(t, tr.Events())
	if frame.Message != "still alive" {
		t.Errorf("Frame message = %q, want the valid frame only", frame.Message)
	}
}

func TestTransportConnectIdempotent(t *testing.T) {
	srv := testutil.NewChatServer(t)
	tr := NewTransport(wsEndpoint(srv, "customer_1"))
	defer tr.Close()

	tr.Connect()
	waitForState(t, tr.Events(), StateOpen)
	tr.Connect()
	tr.Connect()

	time.Sleep(50 * time.Millisecond)
	if got := srv.ConnCount(); got != 1 {
		t.Errorf("Connection count = %d, want 1", got)
	}
}

func TestStatusText(t *testing.T) {
	tests := []struct {
		state ConnState
		err   error
		want  string
	}{
		{StateOpen, nil, "Connected"},
		{StateConnecting, nil, "Connecting..."},
		{StateClosed, nil, "Disconnected"},
		{StateClosed, errors.New("refused"), "Connection Error"},
		{StateReconnecting, errors.New("refused"), "Connection Error"},
		{StateReconnecting, nil, "Disconnected"},
	}

	for _, tt := range tests {
		if got := StatusText(tt.state, tt.err); got != tt.want {
			t.Errorf("StatusText(%s, %v) = %q, want %q", tt.state, tt.err, got, tt.want)
		}
	}
}
