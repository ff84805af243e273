// Package session owns the single bearer token a PixNDrive client holds.
//
// A Session is created once by the application, passed by reference to
// whatever needs authenticated calls, and writes every change through to a
// datastore.KeyValueStore under datastore.KeyAuthToken.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/NicolasHaas/pixndrive/pkg/datastore"
)

// Session holds at most one token.
type Session struct {
	// writeMu serializes Set and Clear across the memory update and the
	// store write, so the persisted token always matches the last writer.
	writeMu sync.Mutex

	mu    sync.RWMutex
	token string
	store datastore.KeyValueStore
}

// New loads any persisted token from st.
func New(ctx context.Context, st datastore.KeyValueStore) (*Session, error) {
	token, _, err := st.Get(ctx, datastore.KeyAuthToken)
	if err != nil {
		return nil, fmt.Errorf("session: load token: %w", err)
	}
	return &Session{token: token, store: st}, nil
}

// Token returns the current token, or "" when logged out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// HasToken reports whether a token is held.
func (s *Session) HasToken() bool {
	return s.Token() != ""
}

// Authorization returns the Authorization header value. An absent token
// yields "" rather than an error: the backend decides what to do with it.
func (s *Session) Authorization() string {
	token := s.Token()
	if token == "" {
		return ""
	}
	return "Bearer " + token
}

// Set replaces any prior token and persists the new one. The in-memory value
// is updated even if persisting fails.
func (s *Session) Set(ctx context.Context, token string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	if err := s.store.Set(ctx, datastore.KeyAuthToken, token); err != nil {
		return fmt.Errorf("session: persist token: %w", err)
	}
	return nil
}

// Clear drops the token from memory and from the store.
func (s *Session) Clear(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()

	if err := s.store.Delete(ctx, datastore.KeyAuthToken); err != nil {
		return fmt.Errorf("session: delete token: %w", err)
	}
	return nil
}
