package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/NicolasHaas/pixndrive/pkg/datastore"
	"github.com/NicolasHaas/pixndrive/pkg/session"
)

// failingStore persists nothing.
type failingStore struct {
	datastore.KeyValueStore
}

var errDisk = errors.New("disk full")

func (failingStore) Set(context.Context, string, string) error { return errDisk }
func (failingStore) Delete(context.Context, string) error      { return errDisk }

// gatedStore blocks its first Set until release is closed.
type gatedStore struct {
	datastore.KeyValueStore
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (g *gatedStore) Set(ctx context.Context, key, value string) error {
	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.entered)
		<-g.release
	}
	return g.KeyValueStore.Set(ctx, key, value)
}

func TestOverlappingWritesKeepStoreInSync(t *testing.T) {
	tcases := map[string]func(ctx context.Context, sess *session.Session) error{
		"set": func(ctx context.Context, sess *session.Session) error {
			return sess.Set(ctx, "B")
		},
		"clear": func(ctx context.Context, sess *session.Session) error {
			return sess.Clear(ctx)
		},
	}

	for name, second := range tcases {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			st := &gatedStore{
				KeyValueStore: datastore.NewMemory(),
				entered:       make(chan struct{}),
				release:       make(chan struct{}),
			}
			sess, err := session.New(ctx, st)
			if err != nil {
				t.Fatalf("New: %v", err)
			}

			var wg sync.WaitGroup
			wg.Add(2)
			go func() {
				defer wg.Done()
				if err := sess.Set(ctx, "A"); err != nil {
					t.Errorf("Set(A): %v", err)
				}
			}()
			<-st.entered

			// Readers are not held up by a pending store write.
			if got := sess.Token(); got != "A" {
				t.Errorf("Token() during write = %q, want A", got)
			}

			go func() {
				defer wg.Done()
				if err := second(ctx, sess); err != nil {
					t.Errorf("second write: %v", err)
				}
			}()
			close(st.release)
			wg.Wait()

			persisted, _, err := st.Get(ctx, datastore.KeyAuthToken)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if persisted != sess.Token() {
				t.Errorf("memory=%q persisted=%q, want equal", sess.Token(), persisted)
			}
		})
	}
}

func TestNewLoadsPersistedToken(t *testing.T) {
	ctx := context.Background()
	st := datastore.NewMemory()
	if err := st.Set(ctx, datastore.KeyAuthToken, "abc"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	sess, err := session.New(ctx, st)
	if err != nil {
		t.Fatalf("New: unexpected error: %v", err)
	}
	if sess.Token() != "abc" {
		t.Errorf("Token() = %q, want abc", sess.Token())
	}
	if got := sess.Authorization(); got != "Bearer abc" {
		t.Errorf("Authorization() = %q", got)
	}
}

func TestEmptyAtStartup(t *testing.T) {
	sess, err := session.New(context.Background(), datastore.NewMemory())
	if err != nil {
		t.Fatalf("New: unexpected error: %v", err)
	}
	if sess.HasToken() {
		t.Errorf("HasToken() = true for a fresh store")
	}
	if got := sess.Authorization(); got != "" {
		t.Errorf("Authorization() = %q, want empty", got)
	}
}

func TestSetOverwritesAndPersists(t *testing.T) {
	ctx := context.Background()
	st := datastore.NewMemory()
	sess, err := session.New(ctx, st)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for _, tok := range []string{"first", "second"} {
		if err := sess.Set(ctx, tok); err != nil {
			t.Fatalf("Set(%q): %v", tok, err)
		}
	}

	if sess.Token() != "second" {
		t.Errorf("Token() = %q, want second", sess.Token())
	}
	persisted, ok, _ := st.Get(ctx, datastore.KeyAuthToken)
	if !ok || persisted != "second" {
		t.Errorf("persisted token = (%q, %v), want second", persisted, ok)
	}
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	st := datastore.NewMemory()
	sess, _ := session.New(ctx, st)
	_ = sess.Set(ctx, "tok")

	if err := sess.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if sess.HasToken() {
		t.Errorf("HasToken() after Clear = true")
	}
	if _, ok, _ := st.Get(ctx, datastore.KeyAuthToken); ok {
		t.Errorf("token still persisted after Clear")
	}
}

func TestStoreFailureStillUpdatesMemory(t *testing.T) {
	ctx := context.Background()
	sess, err := session.New(ctx, failingStore{datastore.NewMemory()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := sess.Set(ctx, "tok"); !errors.Is(err, errDisk) {
		t.Errorf("Set error = %v, want %v", err, errDisk)
	}
	if sess.Token() != "tok" {
		t.Errorf("Token() = %q, want tok", sess.Token())
	}

	if err := sess.Clear(ctx); !errors.Is(err, errDisk) {
		t.Errorf("Clear error = %v, want %v", err, errDisk)
	}
	if sess.HasToken() {
		t.Errorf("HasToken() after failed Clear = true")
	}
}
