package model

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// TimeLayout is the ISO-8601 layout used for FileRecord.UploadedAt.
const TimeLayout = time.RFC3339

// MediaKind classifies a file by its MIME type.
type MediaKind string

const (
	KindImage MediaKind = "image"
	KindVideo MediaKind = "video"
	KindOther MediaKind = "other"
)

// KindOf returns the media kind for a MIME type such as "image/jpeg".
func KindOf(mimeType string) MediaKind {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return KindImage
	case strings.HasPrefix(mimeType, "video/"):
		return KindVideo
	default:
		return KindOther
	}
}

// FileRecord describes one stored file. Records are never mutated after the
// backend (or the mock fallback) returns them.
type FileRecord struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	Size       int64  `json:"size"`
	URL        string `json:"url"`
	UploadedAt string `json:"uploadedAt"` // ISO-8601
}

// UploadedTime parses UploadedAt.
func (f FileRecord) UploadedTime() (time.Time, error) {
	t, err := time.Parse(TimeLayout, f.UploadedAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("model: parse uploadedAt %q: %w", f.UploadedAt, err)
	}
	return t, nil
}

// Kind returns the media kind of the record.
func (f FileRecord) Kind() MediaKind {
	return KindOf(f.Type)
}

// LocalFile is an in-memory file selected for upload.
type LocalFile struct {
	Name string
	Type string
	Size int64
	Data []byte
}

// NewLocalFile wraps raw bytes, detecting the MIME type from the name and
// falling back to content sniffing.
func NewLocalFile(name string, data []byte) LocalFile {
	return LocalFile{
		Name: name,
		Type: DetectType(name, data),
		Size: int64(len(data)),
		Data: data,
	}
}

// ReadLocalFile loads a file from disk for upload.
func ReadLocalFile(path string) (LocalFile, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path chosen by the CLI user
	if err != nil {
		return LocalFile{}, fmt.Errorf("model: read local file: %w", err)
	}
	return NewLocalFile(filepath.Base(path), data), nil
}

// DetectType guesses a MIME type without parameters.
func DetectType(name string, data []byte) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); t != "" {
		if mediaType, _, err := mime.ParseMediaType(t); err == nil {
			return mediaType
		}
		return t
	}
	sniffed := http.DetectContentType(data)
	if mediaType, _, err := mime.ParseMediaType(sniffed); err == nil {
		return mediaType
	}
	return "application/octet-stream"
}
