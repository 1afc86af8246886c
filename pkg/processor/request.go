package processor

import (
	"github.com/certen/cert-registry/pkg/registry"
	"github.com/certen/cert-registry/pkg/state"
	"github.com/certen/cert-registry/pkg/txerrors"
	"github.com/certen/cert-registry/pkg/validator"
)

func applyOpenRequest(p *validator.OpenRequestPayload, signer string, s *state.Store) error {
	_, org, err := signerOrganization(signer, s)
	if err != nil {
		return err
	}
	if org.Kind != registry.Factory {
		return txerrors.Invalid("signer organization %s is not a FACTORY", org.ID)
	}
	if !hasRole(org, signer, registry.RoleTransactor) {
		return txerrors.Invalid("signer is not TRANSACTOR of organization %s", org.ID)
	}

	_, exists, err := s.GetRequest(p.ID)
	if err != nil {
		return txerrors.Internal(err)
	}
	if exists {
		return txerrors.Invalid("request %s already exists", p.ID)
	}

	_, found, err := s.GetStandard(p.StandardID)
	if err != nil {
		return txerrors.Internal(err)
	}
	if !found {
		return txerrors.Invalid("standard %s does not exist", p.StandardID)
	}

	return s.SetRequest(registry.Request{
		ID:          p.ID,
		FactoryID:   org.ID,
		StandardID:  p.StandardID,
		Status:      registry.StatusOpen,
		RequestDate: p.RequestDate,
	})
}

func applyChangeRequestStatus(p *validator.ChangeRequestStatusPayload, signer string, s *state.Store) error {
	req, found, err := s.GetRequest(p.RequestID)
	if err != nil {
		return txerrors.Internal(err)
	}
	if !found {
		return txerrors.Invalid("request %s does not exist", p.RequestID)
	}

	factory, found, err := s.GetOrganization(req.FactoryID)
	if err != nil {
		return txerrors.Internal(err)
	}
	if !found {
		return txerrors.Invalid("request %s's factory no longer exists", p.RequestID)
	}
	if !hasRole(factory, signer, registry.RoleTransactor) {
		return txerrors.Invalid("signer is not TRANSACTOR of request %s's factory", p.RequestID)
	}

	switch req.Status {
	case registry.StatusOpen, registry.StatusInProgress:
	default:
		return txerrors.Invalid("request %s is in terminal status %s", p.RequestID, req.Status)
	}

	req.Status = p.Status
	return s.SetRequest(req)
}
