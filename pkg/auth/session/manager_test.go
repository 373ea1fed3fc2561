package session

import (
	"context"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
)

type stubStore struct {
	values map[string]string
	ttls   map[string]time.Duration
}

func newStubStore() *stubStore {
	return &stubStore{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (s *stubStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	s.values[key] = "1"
	s.ttls[key] = ttl
	return nil
}

func (s *stubStore) Get(ctx context.Context, key string) (string, error) {
	value, ok := s.values[key]
	if !ok {
		return "", redislib.Nil
	}
	return value, nil
}

func (s *stubStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.values, key)
	}
	return nil
}

type stubKeyer struct{}

func (stubKeyer) SessionKey(accessID string) string {
	return "test:session:" + accessID
}

func newTestManager(store *stubStore) *Manager {
	return &Manager{store: store, keyer: stubKeyer{}, ttl: time.Hour}
}

func TestManagerCreateAndCheckSession(t *testing.T) {
	store := newStubStore()
	mgr := newTestManager(store)

	if err := mgr.Create(context.Background(), "access-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.ttls["test:session:access-1"] != time.Hour {
		t.Fatalf("expected session ttl to be applied, got %v", store.ttls["test:session:access-1"])
	}

	live, err := mgr.HasSession(context.Background(), "access-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !live {
		t.Fatal("expected session to be live")
	}
}

func TestManagerHasSessionMissingKeyIsNotAnError(t *testing.T) {
	mgr := newTestManager(newStubStore())

	live, err := mgr.HasSession(context.Background(), "never-created")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if live {
		t.Fatal("expected no session")
	}
}

func TestManagerRevokeEndsSession(t *testing.T) {
	store := newStubStore()
	mgr := newTestManager(store)

	if err := mgr.Create(context.Background(), "access-2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mgr.Revoke(context.Background(), "access-2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	live, err := mgr.HasSession(context.Background(), "access-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if live {
		t.Fatal("expected session to be gone")
	}
}

func TestManagerRejectsEmptyAccessID(t *testing.T) {
	mgr := newTestManager(newStubStore())

	if err := mgr.Create(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty access id on create")
	}
	if err := mgr.Revoke(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty access id on revoke")
	}
	if _, err := mgr.HasSession(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty access id on check")
	}
}

func TestNewAccessIDIsUnique(t *testing.T) {
	if NewAccessID() == NewAccessID() {
		t.Fatal("expected distinct access ids")
	}
}
