// Package validator performs stateless structural validation of inbound
// action payloads, before any state read happens.
package validator

import "github.com/certen/cert-registry/pkg/registry"

// ActionKind tags which of the ten actions a Payload carries.
type ActionKind string

const (
	ActionUnset                  ActionKind = ""
	ActionCreateAgent            ActionKind = "CREATE_AGENT"
	ActionCreateOrganization     ActionKind = "CREATE_ORGANIZATION"
	ActionUpdateOrganization     ActionKind = "UPDATE_ORGANIZATION"
	ActionAuthorizeAgent         ActionKind = "AUTHORIZE_AGENT"
	ActionIssueCertificate       ActionKind = "ISSUE_CERTIFICATE"
	ActionOpenRequest            ActionKind = "OPEN_REQUEST"
	ActionChangeRequestStatus    ActionKind = "CHANGE_REQUEST_STATUS"
	ActionCreateStandard         ActionKind = "CREATE_STANDARD"
	ActionUpdateStandard         ActionKind = "UPDATE_STANDARD"
	ActionAccreditCertifyingBody ActionKind = "ACCREDIT_CERTIFYING_BODY"
)

// CreateAgentPayload creates an Agent for the signer.
type CreateAgentPayload struct {
	Name      string
	Timestamp int64
}

// CreateOrganizationPayload creates an Organization owned by the signer.
type CreateOrganizationPayload struct {
	ID       string
	Name     string
	Kind     registry.OrganizationKind
	Contacts []registry.Contact
	Address  *registry.Address
}

// UpdateOrganizationPayload replaces the signer's organization's address
// and/or contacts.
type UpdateOrganizationPayload struct {
	Address  *registry.Address
	Contacts []registry.Contact
}

// AuthorizeAgentPayload grants a role to a target agent within the
// signer's organization.
type AuthorizeAgentPayload struct {
	PublicKey string
	Role      registry.Role
}

// IssueCertificatePayload issues a Certificate, either FROM_REQUEST or
// INDEPENDENT.
type IssueCertificatePayload struct {
	ID              string
	Source          registry.IssueSource
	RequestID       string
	FactoryID       string
	StandardID      string
	ValidFrom       int64
	ValidTo         int64
	CertificateData []registry.CertificateDataEntry
}

// OpenRequestPayload opens a certification Request against a Standard.
type OpenRequestPayload struct {
	ID          string
	StandardID  string
	RequestDate int64
}

// ChangeRequestStatusPayload advances a Request's status.
type ChangeRequestStatusPayload struct {
	RequestID string
	Status    registry.RequestStatus
}

// CreateStandardPayload creates a Standard with its first version.
type CreateStandardPayload struct {
	ID           string
	Name         string
	Version      string
	Description  string
	Link         string
	ApprovalDate int64
}

// UpdateStandardPayload appends a new version to an existing Standard.
type UpdateStandardPayload struct {
	ID           string
	Version      string
	Description  string
	Link         string
	ApprovalDate int64
}

// AccreditCertifyingBodyPayload grants a certifying body an accreditation
// against the signer's latest standard version.
type AccreditCertifyingBodyPayload struct {
	CertifyingBodyID string
	StandardID       string
	ValidFrom        int64
	ValidTo          int64
}

// Payload is the inbound tagged union: exactly one of the
// pointer fields matching Action is populated.
type Payload struct {
	Action ActionKind

	CreateAgent            *CreateAgentPayload
	CreateOrganization     *CreateOrganizationPayload
	UpdateOrganization     *UpdateOrganizationPayload
	AuthorizeAgent         *AuthorizeAgentPayload
	IssueCertificate       *IssueCertificatePayload
	OpenRequest            *OpenRequestPayload
	ChangeRequestStatus    *ChangeRequestStatusPayload
	CreateStandard         *CreateStandardPayload
	UpdateStandard         *UpdateStandardPayload
	AccreditCertifyingBody *AccreditCertifyingBodyPayload
}
