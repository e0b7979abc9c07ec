package internal

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidateAttachment(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		size     int64
		wantErr  bool
	}{
		{"small jpeg", "photo.jpg", 2 << 20, false},
		{"png at limit", "shot.png", MaxAttachmentSize, false},
		{"pdf document", "invoice.pdf", 512, false},
		{"word document", "letter.docx", 1024, false},
		{"spreadsheet", "report.xlsx", 1024, false},
		{"plain text", "notes.txt", 10, false},
		{"uppercase extension", "PHOTO.JPG", 1024, false},
		{"oversized file", "big.pdf", 11 << 20, true},
		{"executable", "setup.exe", 1024, true},
		{"archive", "bundle.zip", 1024, true},
		{"no extension", "README", 10, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAttachment(tt.fileName, tt.size)
			if tt.wantErr && err == nil {
				t.Errorf("ValidateAttachment(%q, %d) = nil, want error", tt.fileName, tt.size)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ValidateAttachment(%q, %d) = %v, want nil", tt.fileName, tt.size, err)
			}
			if tt.wantErr && err != nil && !IsValidation(err) {
				t.Errorf("Error type = %T, want *ValidationError", err)
			}
		})
	}
}

func TestLoadAttachment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.jpg")
	content := []byte("fake jpeg bytes")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	att, err := LoadAttachment(path)
	if err != nil {
		t.Fatalf("LoadAttachment() error = %v", err)
	}
	if att.Name != "photo.jpg" {
		t.Errorf("Name = %q, want photo.jpg", att.Name)
	}
	if att.MIME != "image/jpeg" {
		t.Errorf("MIME = %q, want image/jpeg", att.MIME)
	}
	if att.Size != int64(len(content)) {
		t.Errorf("Size = %d, want %d", att.Size, len(content))
	}
	if string(att.Data) != string(content) {
		t.Error("Data does not match file contents")
	}
}

func TestLoadAttachmentRejectsDisallowedType(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "script.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := LoadAttachment(path); !IsValidation(err) {
		t.Errorf("LoadAttachment() error = %v, want ValidationError", err)
	}
}

func TestLoadAttachmentMissingFile(t *testing.T) {
	if _, err := LoadAttachment(filepath.Join(t.TempDir(), "missing.png")); !IsValidation(err) {
		t.Errorf("LoadAttachment() error = %v, want ValidationError", err)
	}
}
