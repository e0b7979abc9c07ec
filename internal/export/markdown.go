package export

import (
	"fmt"
	"io"
	"strings"
)

// MarkdownExporter exports transcripts in Markdown format
type MarkdownExporter struct{}

// Export exports a transcript to Markdown format
func (e *MarkdownExporter) Export(t *Transcript, w io.Writer) error {
	if t.Session != nil {
		_, _ = fmt.Fprintf(w, "# Conversation %s\n\n", t.Session.ID)
		if t.Session.CustomerName != "" {
			_, _ = fmt.Fprintf(w, "**Customer:** %s  \n", t.Session.CustomerName)
		}
		_, _ = fmt.Fprintf(w, "**Status:** %s  \n", t.Session.Status)
	} else {
		_, _ = fmt.Fprintf(w, "# Conversation\n\n")
	}
	_, _ = fmt.Fprintf(w, "**Messages:** %d\n\n", len(t.Messages))

	_, _ = fmt.Fprintf(w, "---\n\n")
	_, _ = fmt.Fprintf(w, "## Messages\n\n")

	for i, msg := range t.Messages {
		timestamp := ""
		if msg.Timestamp != "" {
			timestamp = fmt.Sprintf(" (%s)", msg.Timestamp)
		}

		sender := msg.SenderName
		if sender == "" {
			sender = string(msg.SenderType)
		}

		content := escapeMarkdown(msg.Content)
		_, _ = fmt.Fprintf(w, "**%s:**%s\n\n%s\n\n", sender, timestamp, content)

		if msg.AttachmentURL != "" {
			_, _ = fmt.Fprintf(w, "[attachment](%s)\n\n", msg.AttachmentURL)
		}

		if i < len(t.Messages)-1 {
			_, _ = fmt.Fprintf(w, "---\n\n")
		}
	}

	return nil
}

// escapeMarkdown escapes markdown special characters
func escapeMarkdown(text string) string {
	lines := strings.Split(text, "\n")
	var result []string
	inCodeBlock := false

	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			inCodeBlock = !inCodeBlock
			result = append(result, line)
		} else if inCodeBlock {
			result = append(result, line)
		} else {
			line = strings.ReplaceAll(line, "**", "\\*\\*")
			line = strings.ReplaceAll(line, "__", "\\_\\_")
			result = append(result, line)
		}
	}

	return strings.Join(result, "\n")
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
