package processor

import (
	"github.com/certen/cert-registry/pkg/registry"
	"github.com/certen/cert-registry/pkg/state"
	"github.com/certen/cert-registry/pkg/txerrors"
	"github.com/certen/cert-registry/pkg/validator"
)

// latestAccreditationForStandard returns the last accreditation entry in
// org.Accreditations matching standardID, and whether one was found.
// The last matching entry is authoritative.
func latestAccreditationForStandard(org registry.Organization, standardID string) (registry.Accreditation, bool) {
	var latest registry.Accreditation
	found := false
	for _, a := range org.Accreditations {
		if a.StandardID == standardID {
			latest = a
			found = true
		}
	}
	return latest, found
}

func applyAccreditCertifyingBody(p *validator.AccreditCertifyingBodyPayload, signer string, s *state.Store) error {
	_, signerOrg, err := signerOrganization(signer, s)
	if err != nil {
		return err
	}
	if signerOrg.Kind != registry.StandardsBody {
		return txerrors.Invalid("signer organization %s is not a STANDARDS_BODY", signerOrg.ID)
	}
	if !hasRole(signerOrg, signer, registry.RoleTransactor) {
		return txerrors.Invalid("signer is not TRANSACTOR of organization %s", signerOrg.ID)
	}

	cb, found, err := s.GetOrganization(p.CertifyingBodyID)
	if err != nil {
		return txerrors.Internal(err)
	}
	if !found {
		return txerrors.Invalid("certifying body %s does not exist", p.CertifyingBodyID)
	}
	if cb.Kind != registry.CertifyingBody {
		return txerrors.Invalid("organization %s is not a CERTIFYING_BODY", p.CertifyingBodyID)
	}

	std, found, err := s.GetStandard(p.StandardID)
	if err != nil {
		return txerrors.Internal(err)
	}
	if !found {
		return txerrors.Invalid("standard %s does not exist", p.StandardID)
	}
	if std.OrganizationID != signerOrg.ID {
		return txerrors.Invalid("standard %s is not owned by organization %s", p.StandardID, signerOrg.ID)
	}

	latestVersion := std.LatestVersion()
	if latestVersion == nil {
		return txerrors.Invalid("standard %s has no versions", p.StandardID)
	}

	for _, a := range cb.Accreditations {
		if a.StandardID == p.StandardID && a.StandardVersion == latestVersion.Version {
			return txerrors.Invalid("certifying body %s is already accredited for %s version %s",
				p.CertifyingBodyID, p.StandardID, latestVersion.Version)
		}
	}
	if p.ValidFrom < latestVersion.ApprovalDate {
		return txerrors.Invalid("valid_from must not precede the standard version's approval date")
	}
	if p.ValidTo <= p.ValidFrom {
		return txerrors.Invalid("valid_to must be after valid_from")
	}

	cb.Accreditations = append(cb.Accreditations, registry.Accreditation{
		StandardID:      p.StandardID,
		StandardVersion: latestVersion.Version,
		AccreditorID:    signerOrg.ID,
		ValidFrom:       p.ValidFrom,
		ValidTo:         p.ValidTo,
	})
	return s.SetOrganization(cb)
}
