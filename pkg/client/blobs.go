package client

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/NicolasHaas/pixndrive/pkg/model"
)

// BlobPrefix starts every process-local file URL.
const BlobPrefix = "blob:pixndrive/"

// Blobs hands out ephemeral URLs for in-memory files. URLs are only
// meaningful inside the process that created them.
type Blobs struct {
	mu    sync.RWMutex
	files map[string]model.LocalFile
}

// NewBlobs creates an empty registry.
func NewBlobs() *Blobs {
	return &Blobs{files: make(map[string]model.LocalFile)}
}

// Register stores f and returns its URL.
func (b *Blobs) Register(f model.LocalFile) string {
	url := BlobPrefix + uuid.NewString()
	b.mu.Lock()
	b.files[url] = f
	b.mu.Unlock()
	return url
}

// Resolve returns the file behind url.
func (b *Blobs) Resolve(url string) (model.LocalFile, bool) {
	if !IsBlobURL(url) {
		return model.LocalFile{}, false
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	f, ok := b.files[url]
	return f, ok
}

// Revoke forgets url. Unknown URLs are ignored.
func (b *Blobs) Revoke(url string) {
	b.mu.Lock()
	delete(b.files, url)
	b.mu.Unlock()
}

// Len returns the number of live blob URLs.
func (b *Blobs) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.files)
}

// IsBlobURL reports whether url was issued by a Blobs registry.
func IsBlobURL(url string) bool {
	return strings.HasPrefix(url, BlobPrefix)
}
