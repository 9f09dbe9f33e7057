package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parchmint/ingest-cli/internal/core/domain"
)

// countingOrgStore serves fixed organisations and counts lookups.
type countingOrgStore struct {
	orgs  map[string]*domain.Organisation
	calls int
}

func (s *countingOrgStore) Get(_ context.Context, orgID string) (*domain.Organisation, error) {
	s.calls++
	org, ok := s.orgs[orgID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return org, nil
}

func TestCachedOrgStore_CachesLookups(t *testing.T) {
	inner := &countingOrgStore{orgs: map[string]*domain.Organisation{
		"org-1": {ID: "org-1", Name: "Acme"},
	}}
	cached := NewCachedOrgStore(inner, time.Minute)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		org, err := cached.Get(ctx, "org-1")
		require.NoError(t, err)
		assert.Equal(t, "Acme", org.Name)
	}
	assert.Equal(t, 1, inner.calls)
}

func TestCachedOrgStore_MissesAreNotCached(t *testing.T) {
	inner := &countingOrgStore{orgs: map[string]*domain.Organisation{}}
	cached := NewCachedOrgStore(inner, time.Minute)
	ctx := context.Background()

	_, err := cached.Get(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = cached.Get(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedOrgStore_InvalidateForcesReload(t *testing.T) {
	inner := &countingOrgStore{orgs: map[string]*domain.Organisation{
		"org-1": {ID: "org-1", Name: "Acme"},
	}}
	cached := NewCachedOrgStore(inner, time.Minute)
	ctx := context.Background()

	_, err := cached.Get(ctx, "org-1")
	require.NoError(t, err)

	inner.orgs["org-1"] = &domain.Organisation{ID: "org-1", Name: "Acme Ltd"}
	cached.Invalidate("org-1")

	org, err := cached.Get(ctx, "org-1")
	require.NoError(t, err)
	assert.Equal(t, "Acme Ltd", org.Name)
	assert.Equal(t, 2, inner.calls)
}
