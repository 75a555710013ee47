package ingest

import (
	"context"

	"github.com/alokemajumder/rrweb-server/internal/domain"
)

type NoopPublisher struct{}

func (NoopPublisher) PublishSessionStored(ctx context.Context, ev domain.SessionStored) error {
	return nil
}
