package ingest

import (
	"context"
	"time"

	"github.com/alokemajumder/rrweb-server/internal/domain"
)

type Clock interface {
	Now() time.Time
}

// Registry resolves a claimed tenant id. *tenant.Registry implements it.
type Registry interface {
	Lookup(tenantID string) (domain.TenantEntry, bool)
}

// ObjectStore is the storage backend. PutObject must only return nil once the
// object is durably committed.
type ObjectStore interface {
	PutObject(ctx context.Context, bucket, key string, body []byte, contentType string) error
	PresignGetObject(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)
}

// SessionPublisher announces stored sessions. Delivery is best effort.
type SessionPublisher interface {
	PublishSessionStored(ctx context.Context, ev domain.SessionStored) error
}
