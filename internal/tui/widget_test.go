package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/oliversimiyu/support-defmis/internal"
)

func testModel() *Model {
	cfg := &internal.Config{BaseURL: "http://localhost:8000"}
	ctrl := internal.NewController(cfg, internal.NewAPIClient(cfg.BaseURL), nil, internal.NewNotifier(nil))
	m := New(ctrl)
	m.ready = true
	m.width = 80
	m.height = 24
	return m
}

func TestApplyEventTransitions(t *testing.T) {
	tests := []struct {
		name     string
		start    viewMode
		event    internal.UIEvent
		wantMode viewMode
	}{
		{
			name:     "need profile shows form",
			start:    modeCollapsed,
			event:    internal.UIEvent{Kind: internal.EventNeedProfile},
			wantMode: modeProfile,
		},
		{
			name:     "session started leaves profile form",
			start:    modeProfile,
			event:    internal.UIEvent{Kind: internal.EventSessionStarted},
			wantMode: modeChat,
		},
		{
			name:     "conversation closed while chatting",
			start:    modeChat,
			event:    internal.UIEvent{Kind: internal.EventConversationClosed, By: "Agent"},
			wantMode: modeClosed,
		},
		{
			name:     "conversation closed while collapsed stays collapsed",
			start:    modeCollapsed,
			event:    internal.UIEvent{Kind: internal.EventConversationClosed, By: "Agent"},
			wantMode: modeCollapsed,
		},
		{
			name:     "reopened returns to chat",
			start:    modeClosed,
			event:    internal.UIEvent{Kind: internal.EventConversationReopened, By: "Agent"},
			wantMode: modeChat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := testModel()
			m.mode = tt.start
			m.applyEvent(tt.event)
			if m.mode != tt.wantMode {
				t.Errorf("Mode = %d, want %d", m.mode, tt.wantMode)
			}
		})
	}
}

func TestApplyEventTimeline(t *testing.T) {
	m := testModel()

	timeline := internal.CreateTestTimeline(2)
	m.applyEvent(internal.UIEvent{Kind: internal.EventTimelineReplaced, Timeline: timeline})
	if len(m.messages) != 2 {
		t.Fatalf("Messages = %d, want 2", len(m.messages))
	}

	appended := internal.CreateTestMessage("msg-3", internal.SenderAdmin, "one more")
	m.applyEvent(internal.UIEvent{Kind: internal.EventMessageAppended, Message: &appended})
	if len(m.messages) != 3 {
		t.Fatalf("Messages after append = %d, want 3", len(m.messages))
	}
	if m.messages[2].Content != "one more" {
		t.Errorf("Appended content = %q", m.messages[2].Content)
	}
}

func TestApplyEventStatusAndUnread(t *testing.T) {
	m := testModel()

	m.applyEvent(internal.UIEvent{Kind: internal.EventConnectionStatus, Status: "Connected"})
	if m.status != "Connected" {
		t.Errorf("Status = %q, want Connected", m.status)
	}

	m.applyEvent(internal.UIEvent{Kind: internal.EventUnreadChanged, Unread: "3"})
	if m.unread != "3" {
		t.Errorf("Unread = %q, want 3", m.unread)
	}

	m.applyEvent(internal.UIEvent{Kind: internal.EventError, Err: errors.New("boom")})
	if m.errText != "boom" {
		t.Errorf("Error text = %q, want boom", m.errText)
	}
}

func TestSlashCommands(t *testing.T) {
	tests := []struct {
		text        string
		wantHandled bool
	}{
		{"/close", true},
		{"/new", true},
		{"/remove", true},
		{"/attach /tmp/file.png", true},
		{"hello there", false},
		{"/unknown", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			m := testModel()
			m.mode = modeChat
			_, handled := m.slashCommand(tt.text)
			if handled != tt.wantHandled {
				t.Errorf("slashCommand(%q) handled = %v, want %v", tt.text, handled, tt.wantHandled)
			}
		})
	}
}

func TestSlashCloseAsksForConfirmation(t *testing.T) {
	m := testModel()
	m.mode = modeChat

	if _, handled := m.slashCommand("/close"); !handled {
		t.Fatal("slashCommand(/close) not handled")
	}
	if m.mode != modeConfirmClose {
		t.Errorf("Mode = %d, want confirm-close", m.mode)
	}

	// Declining returns to the chat view without closing.
	model, _ := m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})
	m = model.(*Model)
	if m.mode != modeChat {
		t.Errorf("Mode after decline = %d, want chat", m.mode)
	}
}

func TestRenderMessageFallbackNames(t *testing.T) {
	m := testModel()

	tests := []struct {
		sender internal.SenderType
		want   string
	}{
		{internal.SenderCustomer, "You:"},
		{internal.SenderAdmin, "Support:"},
		{internal.SenderSystem, "System:"},
	}

	for _, tt := range tests {
		msg := internal.Message{Content: "hi", SenderType: tt.sender}
		line := m.renderMessage(msg)
		if !containsPlain(line, tt.want) {
			t.Errorf("renderMessage(%s) = %q, want %q label", tt.sender, line, tt.want)
		}
	}
}

// containsPlain reports whether s contains sub, ignoring ANSI styling.
func containsPlain(s, sub string) bool {
	var plain strings.Builder
	inEscape := false
	for _, r := range s {
		switch {
		case r == '\x1b':
			inEscape = true
		case inEscape:
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				inEscape = false
			}
		default:
			plain.WriteRune(r)
		}
	}
	return strings.Contains(plain.String(), sub)
}
