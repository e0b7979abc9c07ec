package export

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSONExporter exports transcripts in indented JSON format
type JSONExporter struct{}

// Export exports a transcript to JSON format
func (e *JSONExporter) Export(t *Transcript, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(t); err != nil {
		return fmt.Errorf("failed to encode transcript: %w", err)
	}
	return nil
}

// Extension returns the file extension for this format
func (e *JSONExporter) Extension() string {
	return "json"
}
