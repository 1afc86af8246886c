package processor

import (
	"github.com/certen/cert-registry/pkg/registry"
	"github.com/certen/cert-registry/pkg/state"
	"github.com/certen/cert-registry/pkg/txerrors"
	"github.com/certen/cert-registry/pkg/validator"
)

func applyCreateStandard(p *validator.CreateStandardPayload, signer string, s *state.Store) error {
	_, org, err := signerOrganization(signer, s)
	if err != nil {
		return err
	}
	if org.Kind != registry.StandardsBody {
		return txerrors.Invalid("signer organization %s is not a STANDARDS_BODY", org.ID)
	}
	if !hasRole(org, signer, registry.RoleTransactor) {
		return txerrors.Invalid("signer is not TRANSACTOR of organization %s", org.ID)
	}

	_, exists, err := s.GetStandard(p.ID)
	if err != nil {
		return txerrors.Internal(err)
	}
	if exists {
		return txerrors.Invalid("standard %s already exists", p.ID)
	}

	return s.SetStandard(registry.Standard{
		ID:             p.ID,
		Name:           p.Name,
		OrganizationID: org.ID,
		Versions: []registry.StandardVersion{{
			Version:      p.Version,
			Description:  p.Description,
			Link:         p.Link,
			ApprovalDate: p.ApprovalDate,
		}},
	})
}

func applyUpdateStandard(p *validator.UpdateStandardPayload, signer string, s *state.Store) error {
	std, found, err := s.GetStandard(p.ID)
	if err != nil {
		return txerrors.Internal(err)
	}
	if !found {
		return txerrors.Invalid("standard %s does not exist", p.ID)
	}
	for _, v := range std.Versions {
		if v.Version == p.Version {
			return txerrors.Invalid("standard %s already has version %s", p.ID, p.Version)
		}
	}

	_, org, err := signerOrganization(signer, s)
	if err != nil {
		return err
	}
	if org.Kind != registry.StandardsBody {
		return txerrors.Invalid("signer organization %s is not a STANDARDS_BODY", org.ID)
	}
	if !hasRole(org, signer, registry.RoleTransactor) {
		return txerrors.Invalid("signer is not TRANSACTOR of organization %s", org.ID)
	}
	if std.OrganizationID != org.ID {
		return txerrors.Invalid("standard %s is not owned by organization %s", p.ID, org.ID)
	}

	std.Versions = append(std.Versions, registry.StandardVersion{
		Version:      p.Version,
		Description:  p.Description,
		Link:         p.Link,
		ApprovalDate: p.ApprovalDate,
	})
	return s.SetStandard(std)
}
