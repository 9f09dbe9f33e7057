package file

import (
	"context"
	"fmt"

	"github.com/parchmint/ingest-cli/internal/core/domain"
	"github.com/parchmint/ingest-cli/internal/core/ports/driven"
)

// Ensure OrgStore implements the interface.
var _ driven.OrgStore = (*OrgStore)(nil)

// OrgStore serves organisation profiles straight from the configuration
// file. Lookups are read-only; editing profiles means editing the file.
type OrgStore struct {
	orgs map[string]*domain.Organisation
}

// NewOrgStore builds a store from the configured profiles.
func NewOrgStore(cfg *Config) *OrgStore {
	orgs := make(map[string]*domain.Organisation, len(cfg.Orgs))
	for _, section := range cfg.Orgs {
		orgs[section.ID] = section.Organisation()
	}
	return &OrgStore{orgs: orgs}
}

// Get returns the organisation's profile, or ErrNotFound when the
// configuration has no entry for it.
func (s *OrgStore) Get(_ context.Context, orgID string) (*domain.Organisation, error) {
	org, ok := s.orgs[orgID]
	if !ok {
		return nil, fmt.Errorf("%w: organisation %s", domain.ErrNotFound, orgID)
	}
	return org, nil
}
