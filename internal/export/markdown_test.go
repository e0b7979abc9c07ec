package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/oliversimiyu/support-defmis/internal"
)

func TestMarkdownExport(t *testing.T) {
	transcript := &Transcript{
		Session:  internal.CreateTestSession(),
		Messages: internal.CreateTestTimeline(2),
	}

	var buf bytes.Buffer
	if err := (&MarkdownExporter{}).Export(transcript, &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, "# Conversation session-1") {
		t.Error("Output missing conversation header")
	}
	if !strings.Contains(out, "**Customer:** Test Customer") {
		t.Error("Output missing customer line")
	}
	if !strings.Contains(out, "**Messages:** 2") {
		t.Error("Output missing message count")
	}
	if !strings.Contains(out, "Message number 1") || !strings.Contains(out, "Message number 2") {
		t.Error("Output missing message bodies")
	}
}

func TestMarkdownExportWithoutSession(t *testing.T) {
	transcript := &Transcript{Messages: internal.CreateTestTimeline(1)}

	var buf bytes.Buffer
	if err := (&MarkdownExporter{}).Export(transcript, &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if !strings.Contains(buf.String(), "# Conversation\n") {
		t.Error("Output missing generic header")
	}
}

func TestMarkdownExportAttachmentLink(t *testing.T) {
	msg := internal.CreateTestMessage("msg-1", internal.SenderAdmin, "see attached")
	msg.AttachmentURL = "/media/chat_attachments/doc.pdf"
	transcript := &Transcript{Messages: []internal.Message{msg}}

	var buf bytes.Buffer
	if err := (&MarkdownExporter{}).Export(transcript, &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if !strings.Contains(buf.String(), "[attachment](/media/chat_attachments/doc.pdf)") {
		t.Error("Output missing attachment link")
	}
}

func TestEscapeMarkdown(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bold markers", "this is **bold**", `this is \*\*bold\*\*`},
		{"underscores", "an __emphasis__", `an \_\_emphasis\_\_`},
		{"plain text", "nothing special", "nothing special"},
		{"code block preserved", "```\n**not bold**\n```", "```\n**not bold**\n```"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := escapeMarkdown(tt.input); got != tt.want {
				t.Errorf("escapeMarkdown(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
