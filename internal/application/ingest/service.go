package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/alokemajumder/rrweb-server/internal/domain"
	"github.com/alokemajumder/rrweb-server/internal/logger"
	"github.com/alokemajumder/rrweb-server/internal/metrics"
	"github.com/alokemajumder/rrweb-server/internal/tracing"
)

// Service runs one ingestion request through
// validate -> authorize -> key -> store -> sign.
// Each stage depends on the previous one and the first failure ends the
// request. It holds no per-request state and no locks.
type Service struct {
	registry Registry
	keys     *KeyGenerator
	placer   *Placer
	pub      SessionPublisher
	clock    Clock
}

func New(registry Registry, store ObjectStore, pub SessionPublisher, clock Clock) *Service {
	if pub == nil {
		pub = NoopPublisher{}
	}
	return &Service{
		registry: registry,
		keys:     NewKeyGenerator(clock),
		placer:   NewPlacer(store, clock),
		pub:      pub,
		clock:    clock,
	}
}

// Ingest returns a grant for exactly one newly stored object, or an
// *domain.AppError and no object.
func (s *Service) Ingest(ctx context.Context, raw []byte) (domain.AccessGrant, error) {
	start := time.Now()
	ctx, span := tracing.StartSpan(ctx, "ingest.session")
	defer span.End()

	rec, err := Validate(raw)
	if err != nil {
		return s.reject(ctx, start, err)
	}
	span.SetAttributes(attribute.String("rrweb.host", rec.Host))

	tenant, err := Authorize(rec.Host, rec.DomainToken, s.registry)
	if err != nil {
		return s.reject(ctx, start, err)
	}

	key := s.keys.Generate(rec.SessionID)
	body, err := json.Marshal(domain.NewStoredSession(rec, tenant.TenantID))
	if err != nil {
		return s.reject(ctx, start, domain.ErrInternal(domain.StageKey, err))
	}

	grant, err := s.placer.Place(ctx, tenant.Bucket, key, body)
	if err != nil {
		return s.reject(ctx, start, err)
	}

	metrics.RecordGranted(time.Since(start), len(body))
	logger.Ctx(ctx).Info().
		Str("tenant", tenant.TenantID).
		Str("bucket", tenant.Bucket).
		Str("key", key).
		Int("bytes", len(body)).
		Int("events", len(rec.Events)).
		Msg("session stored")

	ev := domain.SessionStored{
		TenantID:  tenant.TenantID,
		Bucket:    tenant.Bucket,
		Key:       key,
		SessionID: rec.SessionID,
		Size:      len(body),
		StoredAt:  s.clock.Now().UTC(),
	}
	if err := s.pub.PublishSessionStored(ctx, ev); err != nil {
		metrics.RecordPublishFailure()
		logger.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("failed to publish session stored notification")
	}

	return grant, nil
}

func (s *Service) reject(ctx context.Context, start time.Time, err error) (domain.AccessGrant, error) {
	var ae *domain.AppError
	if !errors.As(err, &ae) {
		ae = domain.ErrInternal("", err).(*domain.AppError)
	}

	metrics.RecordRejected(string(ae.Stage), string(ae.Code), time.Since(start))
	trace.SpanFromContext(ctx).SetStatus(codes.Error, string(ae.Code))

	l := logger.Ctx(ctx)
	ev := l.Error()
	if ae.IsClientFault() {
		ev = l.Warn()
	}
	ev.Err(ae.Err).
		Str("stage", string(ae.Stage)).
		Str("code", string(ae.Code)).
		Str("reason", ae.Message).
		Msg("session rejected")

	return domain.AccessGrant{}, ae
}
