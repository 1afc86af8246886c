package processor

import (
	"github.com/certen/cert-registry/pkg/registry"
	"github.com/certen/cert-registry/pkg/state"
	"github.com/certen/cert-registry/pkg/txerrors"
	"github.com/certen/cert-registry/pkg/validator"
)

func applyCreateAgent(p *validator.CreateAgentPayload, signer string, s *state.Store) error {
	_, found, err := s.GetAgent(signer)
	if err != nil {
		return txerrors.Internal(err)
	}
	if found {
		return txerrors.Invalid("agent %s already exists", signer)
	}
	return s.SetAgent(registry.Agent{
		PublicKey: signer,
		Name:      p.Name,
		Timestamp: p.Timestamp,
	})
}
