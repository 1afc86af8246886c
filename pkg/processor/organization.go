package processor

import (
	"github.com/certen/cert-registry/pkg/registry"
	"github.com/certen/cert-registry/pkg/state"
	"github.com/certen/cert-registry/pkg/txerrors"
	"github.com/certen/cert-registry/pkg/validator"
)

func applyCreateOrganization(p *validator.CreateOrganizationPayload, signer string, s *state.Store) error {
	_, exists, err := s.GetOrganization(p.ID)
	if err != nil {
		return txerrors.Internal(err)
	}
	if exists {
		return txerrors.Invalid("organization %s already exists", p.ID)
	}

	agent, found, err := s.GetAgent(signer)
	if err != nil {
		return txerrors.Internal(err)
	}
	if !found {
		return txerrors.Invalid("signer agent does not exist")
	}
	if agent.OrganizationID != "" {
		return txerrors.Invalid("signer agent already belongs to an organization")
	}

	org := registry.Organization{
		ID:       p.ID,
		Name:     p.Name,
		Kind:     p.Kind,
		Contacts: p.Contacts,
		Authorizations: []registry.Authorization{
			{PublicKey: signer, Role: registry.RoleAdmin},
			{PublicKey: signer, Role: registry.RoleTransactor},
		},
	}
	if p.Kind == registry.Factory {
		org.FactoryDetail = p.Address
	}

	agent.OrganizationID = p.ID
	if err := s.SetAgent(agent); err != nil {
		return txerrors.Internal(err)
	}
	if err := s.SetOrganization(org); err != nil {
		return txerrors.Internal(err)
	}
	return nil
}

// applyUpdateOrganization requires the signer's agent organization_id to
// be explicitly non-empty before dispatching to the FACTORY branch.
func applyUpdateOrganization(p *validator.UpdateOrganizationPayload, signer string, s *state.Store) error {
	agent, found, err := s.GetAgent(signer)
	if err != nil {
		return txerrors.Internal(err)
	}
	if !found {
		return txerrors.Invalid("signer agent does not exist")
	}
	if agent.OrganizationID == "" {
		return txerrors.Invalid("signer agent has no organization")
	}

	org, found, err := s.GetOrganization(agent.OrganizationID)
	if err != nil {
		return txerrors.Internal(err)
	}
	if !found {
		return txerrors.Invalid("signer organization does not exist")
	}
	if !hasRole(org, signer, registry.RoleAdmin) {
		return txerrors.Invalid("signer is not ADMIN of organization %s", org.ID)
	}

	if p.Address != nil {
		if org.Kind != registry.Factory {
			return txerrors.Invalid("address may only be set on FACTORY organizations")
		}
		org.FactoryDetail = p.Address
	}
	if len(p.Contacts) > 0 {
		org.Contacts = p.Contacts
	}
	return s.SetOrganization(org)
}
