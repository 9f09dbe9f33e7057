package services

import (
	"context"
	"time"

	"github.com/parchmint/ingest-cli/internal/cache"
	"github.com/parchmint/ingest-cli/internal/core/domain"
	"github.com/parchmint/ingest-cli/internal/core/ports/driven"
)

// Ensure CachedOrgStore implements the interface.
var _ driven.OrgStore = (*CachedOrgStore)(nil)

// CachedOrgStore decorates an OrgStore with a TTL cache. The cache is
// owned by this instance and handed to it at construction; writes go
// through Invalidate so readers never see metadata older than the TTL
// after a known change.
type CachedOrgStore struct {
	inner driven.OrgStore
	cache *cache.Cache[*domain.Organisation]
}

// NewCachedOrgStore wraps inner with a cache of the given TTL.
func NewCachedOrgStore(inner driven.OrgStore, ttl time.Duration) *CachedOrgStore {
	return &CachedOrgStore{
		inner: inner,
		cache: cache.New[*domain.Organisation](ttl),
	}
}

// Get returns the organisation, from cache when fresh.
func (s *CachedOrgStore) Get(ctx context.Context, orgID string) (*domain.Organisation, error) {
	if org, ok := s.cache.Get(orgID); ok {
		return org, nil
	}
	org, err := s.inner.Get(ctx, orgID)
	if err != nil {
		return nil, err
	}
	s.cache.Set(orgID, org)
	return org, nil
}

// Invalidate drops the cached entry for an organisation. Called after
// any metadata write.
func (s *CachedOrgStore) Invalidate(orgID string) {
	s.cache.Invalidate(orgID)
}
