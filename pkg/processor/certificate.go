package processor

import (
	"github.com/certen/cert-registry/pkg/registry"
	"github.com/certen/cert-registry/pkg/state"
	"github.com/certen/cert-registry/pkg/txerrors"
	"github.com/certen/cert-registry/pkg/validator"
)

// applyIssueCertificate issues a Certificate, reading every entity the
// action touches before writing any of them (cross-entity
// atomicity: both the certificate and, for FROM_REQUEST, the request are
// written together or not at all).
func applyIssueCertificate(p *validator.IssueCertificatePayload, signer string, s *state.Store) error {
	if p.ValidTo <= p.ValidFrom {
		return txerrors.Invalid("valid_to must be after valid_from")
	}

	_, exists, err := s.GetCertificate(p.ID)
	if err != nil {
		return txerrors.Internal(err)
	}
	if exists {
		return txerrors.Invalid("certificate %s already exists", p.ID)
	}

	_, cb, err := signerOrganization(signer, s)
	if err != nil {
		return err
	}
	if cb.Kind != registry.CertifyingBody {
		return txerrors.Invalid("signer organization %s is not a CERTIFYING_BODY", cb.ID)
	}
	if !hasRole(cb, signer, registry.RoleTransactor) {
		return txerrors.Invalid("signer is not TRANSACTOR of organization %s", cb.ID)
	}

	var (
		factoryID  string
		standardID string
		fromReq    registry.Request
	)

	switch p.Source {
	case registry.SourceFromRequest:
		req, found, err := s.GetRequest(p.RequestID)
		if err != nil {
			return txerrors.Internal(err)
		}
		if !found {
			return txerrors.Invalid("request %s does not exist", p.RequestID)
		}
		if req.Status != registry.StatusInProgress {
			return txerrors.Invalid("request %s is not IN_PROGRESS", p.RequestID)
		}
		fromReq = req
		factoryID = req.FactoryID
		standardID = req.StandardID
	case registry.SourceIndependent:
		factory, found, err := s.GetOrganization(p.FactoryID)
		if err != nil {
			return txerrors.Internal(err)
		}
		if !found {
			return txerrors.Invalid("factory %s does not exist", p.FactoryID)
		}
		if factory.Kind != registry.Factory {
			return txerrors.Invalid("organization %s is not a FACTORY", p.FactoryID)
		}
		factoryID = p.FactoryID
		standardID = p.StandardID
	default:
		return txerrors.Invalid("issue source must be set")
	}

	accreditation, found := latestAccreditationForStandard(cb, standardID)
	if !found {
		return txerrors.Invalid("certifying body %s holds no accreditation for standard %s", cb.ID, standardID)
	}

	cert := registry.Certificate{
		ID:               p.ID,
		CertifyingBodyID: cb.ID,
		FactoryID:        factoryID,
		StandardID:       standardID,
		StandardVersion:  accreditation.StandardVersion,
		ValidFrom:        p.ValidFrom,
		ValidTo:          p.ValidTo,
		CertificateData:  p.CertificateData,
	}

	if err := s.SetCertificate(cert); err != nil {
		return txerrors.Internal(err)
	}
	if p.Source == registry.SourceFromRequest {
		fromReq.Status = registry.StatusCertified
		if err := s.SetRequest(fromReq); err != nil {
			return txerrors.Internal(err)
		}
	}
	return nil
}
