// Package processor implements the transaction processor: a pure,
// deterministic function that validates and applies one action
// against the state accessor, action by action.
package processor

import (
	"github.com/certen/cert-registry/pkg/registry"
	"github.com/certen/cert-registry/pkg/state"
	"github.com/certen/cert-registry/pkg/txerrors"
	"github.com/certen/cert-registry/pkg/validator"
)

// Apply validates and applies a single action against s, as the signer.
// On any precondition failure it returns an InvalidTransaction error and
// leaves s unmodified: every handler reads all the state it needs before
// writing any of it, so a late failure never leaves a partial write.
func Apply(p *validator.Payload, signer string, s *state.Store) error {
	if err := validator.Validate(p); err != nil {
		return err
	}
	switch p.Action {
	case validator.ActionCreateAgent:
		return applyCreateAgent(p.CreateAgent, signer, s)
	case validator.ActionCreateOrganization:
		return applyCreateOrganization(p.CreateOrganization, signer, s)
	case validator.ActionUpdateOrganization:
		return applyUpdateOrganization(p.UpdateOrganization, signer, s)
	case validator.ActionAuthorizeAgent:
		return applyAuthorizeAgent(p.AuthorizeAgent, signer, s)
	case validator.ActionIssueCertificate:
		return applyIssueCertificate(p.IssueCertificate, signer, s)
	case validator.ActionOpenRequest:
		return applyOpenRequest(p.OpenRequest, signer, s)
	case validator.ActionChangeRequestStatus:
		return applyChangeRequestStatus(p.ChangeRequestStatus, signer, s)
	case validator.ActionCreateStandard:
		return applyCreateStandard(p.CreateStandard, signer, s)
	case validator.ActionUpdateStandard:
		return applyUpdateStandard(p.UpdateStandard, signer, s)
	case validator.ActionAccreditCertifyingBody:
		return applyAccreditCertifyingBody(p.AccreditCertifyingBody, signer, s)
	default:
		return txerrors.Invalid("action must be set")
	}
}

// hasRole reports whether publicKey holds role in org.
func hasRole(org registry.Organization, publicKey string, role registry.Role) bool {
	for _, a := range org.Authorizations {
		if a.PublicKey == publicKey && a.Role == role {
			return true
		}
	}
	return false
}

// signerOrganization resolves the signer's agent and its organization.
// Returns InvalidTransaction if the agent doesn't exist or has no
// organization.
func signerOrganization(signer string, s *state.Store) (registry.Agent, registry.Organization, error) {
	agent, found, err := s.GetAgent(signer)
	if err != nil {
		return registry.Agent{}, registry.Organization{}, txerrors.Internal(err)
	}
	if !found {
		return registry.Agent{}, registry.Organization{}, txerrors.Invalid("signer agent does not exist")
	}
	if agent.OrganizationID == "" {
		return registry.Agent{}, registry.Organization{}, txerrors.Invalid("signer agent has no organization")
	}
	org, found, err := s.GetOrganization(agent.OrganizationID)
	if err != nil {
		return registry.Agent{}, registry.Organization{}, txerrors.Internal(err)
	}
	if !found {
		return registry.Agent{}, registry.Organization{}, txerrors.Invalid("signer organization does not exist")
	}
	return agent, org, nil
}
