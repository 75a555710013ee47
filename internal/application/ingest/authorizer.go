package ingest

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/alokemajumder/rrweb-server/internal/domain"
)

// Internal causes of a forbidden outcome. Callers only ever see
// domain.MsgForbidden; these are for logs.
var (
	ErrUnknownTenant = errors.New("unknown tenant")
	ErrTokenMismatch = errors.New("domain token mismatch")
)

// Authorize admits host only when it is registered, the presented token
// matches and the tenant has a bucket.
func Authorize(host, domainToken string, reg Registry) (domain.TenantEntry, error) {
	entry, ok := reg.Lookup(host)
	if !ok {
		return domain.TenantEntry{}, domain.ErrForbidden(ErrUnknownTenant)
	}
	if subtle.ConstantTimeCompare([]byte(entry.Token), []byte(domainToken)) != 1 {
		return domain.TenantEntry{}, domain.ErrForbidden(ErrTokenMismatch)
	}
	if strings.TrimSpace(entry.Bucket) == "" {
		return domain.TenantEntry{}, domain.ErrConfig(fmt.Errorf("tenant %q has no bucket configured", host))
	}
	return entry, nil
}
