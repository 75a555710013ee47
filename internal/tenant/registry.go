package tenant

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/alokemajumder/rrweb-server/internal/domain"
)

var (
	ErrDuplicateTenant = errors.New("duplicate tenant id")
	ErrEmptyTenantID   = errors.New("empty tenant id")
)

// Registry maps tenant ids to their bucket and shared token. It is built once
// and never mutated, so it is safe for any number of concurrent readers.
type Registry struct {
	entries map[string]domain.TenantEntry
}

// New builds a registry from entries. Tenant ids must be unique and non-empty.
func New(entries []domain.TenantEntry) (*Registry, error) {
	m := make(map[string]domain.TenantEntry, len(entries))
	for _, e := range entries {
		if strings.TrimSpace(e.TenantID) == "" {
			return nil, ErrEmptyTenantID
		}
		if _, ok := m[e.TenantID]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateTenant, e.TenantID)
		}
		m[e.TenantID] = e
	}
	return &Registry{entries: m}, nil
}

// Lookup returns the entry registered for tenantID.
func (r *Registry) Lookup(tenantID string) (domain.TenantEntry, bool) {
	e, ok := r.entries[tenantID]
	return e, ok
}

func (r *Registry) Len() int { return len(r.entries) }

// Buckets returns the distinct configured buckets, sorted. Tenants without a
// bucket are skipped.
func (r *Registry) Buckets() []string {
	seen := make(map[string]struct{}, len(r.entries))
	out := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		if e.Bucket == "" {
			continue
		}
		if _, ok := seen[e.Bucket]; ok {
			continue
		}
		seen[e.Bucket] = struct{}{}
		out = append(out, e.Bucket)
	}
	sort.Strings(out)
	return out
}
