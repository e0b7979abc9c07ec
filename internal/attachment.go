package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MaxAttachmentSize is the largest attachment accepted client-side.
const MaxAttachmentSize = 10 << 20 // 10 MiB

// allowedAttachmentTypes maps file extensions to the MIME types the
// service accepts: common image formats, PDF, Word, Excel and plain text.
var allowedAttachmentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".txt":  "text/plain",
	".csv":  "text/csv",
}

// Attachment is an unsent file selection held client-side. At most one is
// pending at a time; it is cleared on send, on explicit removal, or kept
// for retry when the upload fails.
type Attachment struct {
	Name string
	MIME string
	Size int64
	Data []byte
}

// ValidateAttachment checks size and type limits without touching the
// file contents. Violations fail fast and never reach the network.
func ValidateAttachment(name string, size int64) error {
	if size > MaxAttachmentSize {
		return &ValidationError{
			Field:  "attachment",
			Reason: fmt.Sprintf("file exceeds %d MiB limit", MaxAttachmentSize>>20),
		}
	}

	ext := strings.ToLower(filepath.Ext(name))
	if _, ok := allowedAttachmentTypes[ext]; !ok {
		return &ValidationError{
			Field:  "attachment",
			Reason: fmt.Sprintf("file type %q is not allowed", ext),
		}
	}
	return nil
}

// LoadAttachment validates and reads a file into a pending Attachment.
func LoadAttachment(path string) (*Attachment, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &ValidationError{Field: "attachment", Reason: err.Error()}
	}
	if err := ValidateAttachment(info.Name(), info.Size()); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ValidationError{Field: "attachment", Reason: err.Error()}
	}

	return &Attachment{
		Name: info.Name(),
		MIME: allowedAttachmentTypes[strings.ToLower(filepath.Ext(info.Name()))],
		Size: info.Size(),
		Data: data,
	}, nil
}
