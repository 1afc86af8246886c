package processor

import (
	"github.com/certen/cert-registry/pkg/registry"
	"github.com/certen/cert-registry/pkg/state"
	"github.com/certen/cert-registry/pkg/txerrors"
	"github.com/certen/cert-registry/pkg/validator"
)

// applyAuthorizeAgent grants a role to a target agent within the signer's
// organization. Duplicate detection keys on (public_key, role): an agent
// may hold both ADMIN and TRANSACTOR in the same organization at once.
// This is intended, not a bug, and is tested in processor_test.go.
func applyAuthorizeAgent(p *validator.AuthorizeAgentPayload, signer string, s *state.Store) error {
	_, org, err := signerOrganization(signer, s)
	if err != nil {
		return err
	}
	if !hasRole(org, signer, registry.RoleAdmin) {
		return txerrors.Invalid("signer is not ADMIN of organization %s", org.ID)
	}

	target, found, err := s.GetAgent(p.PublicKey)
	if err != nil {
		return txerrors.Internal(err)
	}
	if !found {
		return txerrors.Invalid("target agent %s does not exist", p.PublicKey)
	}
	if target.OrganizationID != "" && target.OrganizationID != org.ID {
		return txerrors.Invalid("target agent belongs to a different organization")
	}
	if hasRole(org, p.PublicKey, p.Role) {
		return txerrors.Invalid("target agent already holds role %s in organization %s", p.Role, org.ID)
	}

	org.Authorizations = append(org.Authorizations, registry.Authorization{
		PublicKey: p.PublicKey,
		Role:      p.Role,
	})
	target.OrganizationID = org.ID

	if err := s.SetAgent(target); err != nil {
		return txerrors.Internal(err)
	}
	if err := s.SetOrganization(org); err != nil {
		return txerrors.Internal(err)
	}
	return nil
}
