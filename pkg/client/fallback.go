package client

import (
	"fmt"
	"sync"
	"time"

	"github.com/NicolasHaas/pixndrive/pkg/model"
)

// Canned values served when the backend cannot be reached.
const (
	MockUserID    = "1"
	MockUserName  = "John Doe"
	MockUserPhone = "+1 (555) 123-4567"

	mockTokenPrefix  = "mock-token-"
	mockUploadPrefix = "mock-"
)

var mockFiles = []model.FileRecord{
	{
		ID:         "1",
		Name:       "sunset-beach.jpg",
		Type:       "image/jpeg",
		Size:       2048576,
		URL:        "https://images.pexels.com/photos/417074/pexels-photo-417074.jpeg?auto=compress&cs=tinysrgb&w=800",
		UploadedAt: "2024-01-15T10:30:00Z",
	},
	{
		ID:         "2",
		Name:       "mountain-view.jpg",
		Type:       "image/jpeg",
		Size:       3145728,
		URL:        "https://images.pexels.com/photos/709552/pexels-photo-709552.jpeg?auto=compress&cs=tinysrgb&w=800",
		UploadedAt: "2024-01-14T15:45:00Z",
	},
}

// MockBackend produces the demo data the client substitutes for failed
// calls. It is the only place synthetic values are made.
type MockBackend struct {
	mu     sync.Mutex
	now    func() time.Time
	lastID int64
}

// NewMockBackend creates a MockBackend. A nil clock means time.Now.
func NewMockBackend(now func() time.Time) *MockBackend {
	if now == nil {
		now = time.Now
	}
	return &MockBackend{now: now}
}

// Login returns the fixed demo profile for email and a time-derived token.
func (m *MockBackend) Login(email string) model.LoginResponse {
	return model.LoginResponse{
		User: model.UserProfile{
			ID:    MockUserID,
			Name:  MockUserName,
			Email: email,
			Phone: MockUserPhone,
		},
		Token: fmt.Sprintf("%s%d", mockTokenPrefix, m.now().UnixMilli()),
	}
}

// Files returns a fresh copy of the two demo records.
func (m *MockBackend) Files() []model.FileRecord {
	out := make([]model.FileRecord, len(mockFiles))
	copy(out, mockFiles)
	return out
}

// Upload returns a successful reply pointing at blobURL.
func (m *MockBackend) Upload(blobURL string) model.UploadResponse {
	return model.UploadResponse{
		Success: true,
		FileURL: blobURL,
		FileID:  m.nextUploadID(),
	}
}

// nextUploadID is millisecond-derived but strictly increasing, so two uploads
// inside the same millisecond still get distinct ids.
func (m *MockBackend) nextUploadID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.now().UnixMilli()
	if id <= m.lastID {
		id = m.lastID + 1
	}
	m.lastID = id
	return fmt.Sprintf("%s%d", mockUploadPrefix, id)
}
