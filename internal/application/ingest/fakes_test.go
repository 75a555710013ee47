package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/alokemajumder/rrweb-server/internal/domain"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type mapRegistry map[string]domain.TenantEntry

func (m mapRegistry) Lookup(id string) (domain.TenantEntry, bool) {
	e, ok := m[id]
	return e, ok
}

// memStore is an in-memory ObjectStore. Presigned URLs are
// "mem://<bucket>/<key>?ttl=<seconds>".
type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    int
	signs   int
	putErr  error
	signErr error
	lastTTL time.Duration
}

func newMemStore() *memStore { return &memStore{objects: map[string][]byte{}} }

func (m *memStore) PutObject(ctx context.Context, bucket, key string, body []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if m.putErr != nil {
		return m.putErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	id := bucket + "/" + key
	if _, exists := m.objects[id]; exists {
		return errors.New("object overwritten: " + id)
	}
	m.objects[id] = append([]byte(nil), body...)
	return nil
}

func (m *memStore) PresignGetObject(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signs++
	m.lastTTL = ttl
	if m.signErr != nil {
		return "", m.signErr
	}
	return fmt.Sprintf("mem://%s/%s?ttl=%d", bucket, key, int(ttl.Seconds())), nil
}

// resolve returns the object a mem:// URL points at.
func (m *memStore) resolve(url string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var id string
	if _, err := fmt.Sscanf(url, "mem://%s", &id); err != nil {
		return nil, false
	}
	for i := len(id) - 1; i >= 0; i-- {
		if id[i] == '?' {
			id = id[:i]
			break
		}
	}
	b, ok := m.objects[id]
	return b, ok
}

func (m *memStore) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.objects))
	for k := range m.objects {
		out = append(out, k)
	}
	return out
}

func (m *memStore) putCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.puts
}

type MockStore struct {
	mock.Mock
}

func (m *MockStore) PutObject(ctx context.Context, bucket, key string, body []byte, contentType string) error {
	args := m.Called(ctx, bucket, key, body, contentType)
	return args.Error(0)
}

func (m *MockStore) PresignGetObject(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, bucket, key, ttl)
	return args.String(0), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishSessionStored(ctx context.Context, ev domain.SessionStored) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}
