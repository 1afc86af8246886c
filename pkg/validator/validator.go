package validator

import (
	"github.com/certen/cert-registry/pkg/registry"
	"github.com/certen/cert-registry/pkg/txerrors"
)

// Validate performs every structural, non-empty-field check required
// before an action may be applied. It never reads state.
func Validate(p *Payload) error {
	if p == nil {
		return txerrors.Malformed("payload is nil")
	}
	switch p.Action {
	case ActionCreateAgent:
		return validateCreateAgent(p.CreateAgent)
	case ActionCreateOrganization:
		return validateCreateOrganization(p.CreateOrganization)
	case ActionUpdateOrganization:
		return validateUpdateOrganization(p.UpdateOrganization)
	case ActionAuthorizeAgent:
		return validateAuthorizeAgent(p.AuthorizeAgent)
	case ActionIssueCertificate:
		return validateIssueCertificate(p.IssueCertificate)
	case ActionOpenRequest:
		return validateOpenRequest(p.OpenRequest)
	case ActionChangeRequestStatus:
		return validateChangeRequestStatus(p.ChangeRequestStatus)
	case ActionCreateStandard:
		return validateCreateStandard(p.CreateStandard)
	case ActionUpdateStandard:
		return validateUpdateStandard(p.UpdateStandard)
	case ActionAccreditCertifyingBody:
		return validateAccreditCertifyingBody(p.AccreditCertifyingBody)
	default:
		return txerrors.Invalid("action must be set")
	}
}

func validateCreateAgent(p *CreateAgentPayload) error {
	if p == nil {
		return txerrors.Invalid("create_agent payload missing")
	}
	if p.Name == "" {
		return txerrors.Invalid("agent name must not be empty")
	}
	return nil
}

func validateCreateOrganization(p *CreateOrganizationPayload) error {
	if p == nil {
		return txerrors.Invalid("create_organization payload missing")
	}
	if p.ID == "" {
		return txerrors.Invalid("organization id must not be empty")
	}
	if p.Name == "" {
		return txerrors.Invalid("organization name must not be empty")
	}
	if len(p.Contacts) == 0 {
		return txerrors.Invalid("organization contacts must not be empty")
	}
	switch p.Kind {
	case registry.StandardsBody, registry.CertifyingBody:
		if p.Address != nil {
			return txerrors.Invalid("address must not be set for organization kind %s", p.Kind)
		}
	case registry.Factory:
		if p.Address == nil {
			return txerrors.Invalid("address is required for FACTORY organizations")
		}
		if p.Address.StreetLine1 == "" || p.Address.City == "" || p.Address.Country == "" {
			return txerrors.Invalid("factory address requires street_line_1, city, and country")
		}
	default:
		return txerrors.Invalid("organization kind must be set")
	}
	return nil
}

func validateUpdateOrganization(p *UpdateOrganizationPayload) error {
	if p == nil {
		return txerrors.Invalid("update_organization payload missing")
	}
	if p.Address != nil {
		if p.Address.StreetLine1 == "" || p.Address.City == "" || p.Address.Country == "" {
			return txerrors.Invalid("factory address requires street_line_1, city, and country")
		}
	}
	return nil
}

func validateAuthorizeAgent(p *AuthorizeAgentPayload) error {
	if p == nil {
		return txerrors.Invalid("authorize_agent payload missing")
	}
	if p.PublicKey == "" {
		return txerrors.Invalid("target public key must not be empty")
	}
	switch p.Role {
	case registry.RoleAdmin, registry.RoleTransactor:
	default:
		return txerrors.Invalid("role must be ADMIN or TRANSACTOR")
	}
	return nil
}

func validateIssueCertificate(p *IssueCertificatePayload) error {
	if p == nil {
		return txerrors.Invalid("issue_certificate payload missing")
	}
	if p.ID == "" {
		return txerrors.Invalid("certificate id must not be empty")
	}
	switch p.Source {
	case registry.SourceFromRequest:
		if p.RequestID == "" {
			return txerrors.Invalid("request_id is required when source is FROM_REQUEST")
		}
	case registry.SourceIndependent:
		if p.FactoryID == "" || p.StandardID == "" {
			return txerrors.Invalid("factory_id and standard_id are required when source is INDEPENDENT")
		}
	default:
		return txerrors.Invalid("issue source must be set")
	}
	if p.ValidFrom == 0 {
		return txerrors.Invalid("valid_from must not be zero")
	}
	if p.ValidTo == 0 {
		return txerrors.Invalid("valid_to must not be zero")
	}
	return nil
}

func validateOpenRequest(p *OpenRequestPayload) error {
	if p == nil {
		return txerrors.Invalid("open_request payload missing")
	}
	if p.ID == "" {
		return txerrors.Invalid("request id must not be empty")
	}
	if p.StandardID == "" {
		return txerrors.Invalid("standard_id must not be empty")
	}
	return nil
}

func validateChangeRequestStatus(p *ChangeRequestStatusPayload) error {
	if p == nil {
		return txerrors.Invalid("change_request_status payload missing")
	}
	if p.RequestID == "" {
		return txerrors.Invalid("request_id must not be empty")
	}
	switch p.Status {
	case registry.StatusInProgress, registry.StatusClosed:
	default:
		return txerrors.Invalid("target status must be IN_PROGRESS or CLOSED")
	}
	return nil
}

func validateCreateStandard(p *CreateStandardPayload) error {
	if p == nil {
		return txerrors.Invalid("create_standard payload missing")
	}
	if p.ID == "" || p.Name == "" || p.Version == "" || p.Description == "" || p.Link == "" {
		return txerrors.Invalid("standard id, name, version, description, and link must not be empty")
	}
	if p.ApprovalDate == 0 {
		return txerrors.Invalid("approval_date must not be zero")
	}
	return nil
}

func validateUpdateStandard(p *UpdateStandardPayload) error {
	if p == nil {
		return txerrors.Invalid("update_standard payload missing")
	}
	if p.ID == "" || p.Version == "" || p.Description == "" || p.Link == "" {
		return txerrors.Invalid("standard id, version, description, and link must not be empty")
	}
	if p.ApprovalDate == 0 {
		return txerrors.Invalid("approval_date must not be zero")
	}
	return nil
}

func validateAccreditCertifyingBody(p *AccreditCertifyingBodyPayload) error {
	if p == nil {
		return txerrors.Invalid("accredit_certifying_body payload missing")
	}
	if p.CertifyingBodyID == "" {
		return txerrors.Invalid("certifying_body_id must not be empty")
	}
	if p.StandardID == "" {
		return txerrors.Invalid("standard_id must not be empty")
	}
	if p.ValidFrom == 0 {
		return txerrors.Invalid("valid_from must not be zero")
	}
	if p.ValidTo == 0 {
		return txerrors.Invalid("valid_to must not be zero")
	}
	return nil
}
