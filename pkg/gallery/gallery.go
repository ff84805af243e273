// Package gallery keeps the list of files a user is looking at, newest
// first, and derives the summary figures shown above it.
package gallery

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/NicolasHaas/pixndrive/pkg/model"
)

// Gallery is an ordered file list. It is safe for concurrent use.
type Gallery struct {
	mu    sync.RWMutex
	files []model.FileRecord
}

// New returns a gallery seeded with files (copied).
func New(files ...model.FileRecord) *Gallery {
	g := &Gallery{}
	g.Replace(files)
	return g
}

// Replace swaps in a freshly fetched list.
func (g *Gallery) Replace(files []model.FileRecord) {
	cp := make([]model.FileRecord, len(files))
	copy(cp, files)
	g.mu.Lock()
	g.files = cp
	g.mu.Unlock()
}

// Prepend puts newly uploaded files ahead of the existing ones, keeping
// their given order.
func (g *Gallery) Prepend(files ...model.FileRecord) {
	g.mu.Lock()
	defer g.mu.Unlock()
	merged := make([]model.FileRecord, 0, len(files)+len(g.files))
	merged = append(merged, files...)
	g.files = append(merged, g.files...)
}

// Files returns a copy of the current list.
func (g *Gallery) Files() []model.FileRecord {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]model.FileRecord, len(g.files))
	copy(out, g.files)
	return out
}

// Len returns the number of files.
func (g *Gallery) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.files)
}

// Stats summarises a gallery.
type Stats struct {
	TotalFiles  int
	TotalBytes  int64
	StorageUsed string // "12.3 MB"
	LastUpload  string // date of the newest file, or "None"
}

// Stats computes the summary. LastUpload is taken from the first record,
// which is the newest by construction.
func (g *Gallery) Stats() Stats {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var total int64
	for _, f := range g.files {
		total += f.Size
	}
	s := Stats{
		TotalFiles:  len(g.files),
		TotalBytes:  total,
		StorageUsed: fmt.Sprintf("%.1f MB", float64(total)/(1024*1024)),
		LastUpload:  "None",
	}
	if len(g.files) > 0 {
		if t, err := g.files[0].UploadedTime(); err == nil {
			s.LastUpload = t.Format(time.DateOnly)
		} else {
			s.LastUpload = g.files[0].UploadedAt
		}
	}
	return s
}

// RecordFromUpload builds the gallery entry for a just-uploaded file.
func RecordFromUpload(f model.LocalFile, res model.UploadResponse, now time.Time) model.FileRecord {
	return model.FileRecord{
		ID:         res.FileID,
		Name:       f.Name,
		Type:       f.Type,
		Size:       f.Size,
		URL:        res.FileURL,
		UploadedAt: now.UTC().Format(model.TimeLayout),
	}
}

// Accepts reports whether a MIME type passes the upload filter (images and
// videos only).
func Accepts(mimeType string) bool {
	return model.KindOf(mimeType) != model.KindOther
}

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatFileSize renders a byte count with 1024-based units and at most two
// decimals, e.g. "1.5 MB".
func FormatFileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}
	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(1024)))
	if i >= len(sizeUnits) {
		i = len(sizeUnits) - 1
	}
	value := float64(bytes) / math.Pow(1024, float64(i))
	num := strconv.FormatFloat(value, 'f', 2, 64)
	num = strings.TrimRight(strings.TrimRight(num, "0"), ".")
	return num + " " + sizeUnits[i]
}
