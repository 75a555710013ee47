package ingest

import (
	"context"
	"time"

	"github.com/alokemajumder/rrweb-server/internal/domain"
)

// GrantTTL is the fixed validity of every signed retrieval URL.
const GrantTTL = time.Hour

const contentTypeJSON = "application/json"

// Placer commits a session body and then signs a read URL for it. It never
// retries and never signs an object whose write did not succeed.
type Placer struct {
	store ObjectStore
	clock Clock
}

func NewPlacer(store ObjectStore, clock Clock) *Placer {
	return &Placer{store: store, clock: clock}
}

func (p *Placer) Place(ctx context.Context, bucket, key string, body []byte) (domain.AccessGrant, error) {
	if err := p.store.PutObject(ctx, bucket, key, body, contentTypeJSON); err != nil {
		return domain.AccessGrant{}, domain.ErrStorage(domain.StageStore, err)
	}

	issuedAt := p.clock.Now()
	url, err := p.store.PresignGetObject(ctx, bucket, key, GrantTTL)
	if err != nil {
		return domain.AccessGrant{}, domain.ErrStorage(domain.StageSign, err)
	}

	return domain.AccessGrant{URL: url, ExpiresAt: issuedAt.Add(GrantTTL)}, nil
}
