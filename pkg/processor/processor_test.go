package processor

import (
	"testing"

	"github.com/certen/cert-registry/pkg/chainkv"
	"github.com/certen/cert-registry/pkg/registry"
	"github.com/certen/cert-registry/pkg/state"
	"github.com/certen/cert-registry/pkg/txerrors"
	"github.com/certen/cert-registry/pkg/validator"
)

func newStore() *state.Store {
	return state.New(chainkv.NewMemKV())
}

func mustApply(t *testing.T, p *validator.Payload, signer string, s *state.Store) {
	t.Helper()
	if err := Apply(p, signer, s); err != nil {
		t.Fatalf("apply %s failed: %v", p.Action, err)
	}
}

// Scenario 1: agent without organization creates an organization.
func TestScenario_CreateOrganizationSeedsAdminAndTransactor(t *testing.T) {
	s := newStore()
	mustApply(t, &validator.Payload{
		Action:      validator.ActionCreateAgent,
		CreateAgent: &validator.CreateAgentPayload{Name: "Alice"},
	}, "pk1", s)

	mustApply(t, &validator.Payload{
		Action: validator.ActionCreateOrganization,
		CreateOrganization: &validator.CreateOrganizationPayload{
			ID: "org1", Name: "Acme", Kind: registry.StandardsBody,
			Contacts: []registry.Contact{{Name: "Alice"}},
		},
	}, "pk1", s)

	agent, _, _ := s.GetAgent("pk1")
	if agent.OrganizationID != "org1" {
		t.Fatalf("agent organization not set: %+v", agent)
	}
	org, _, _ := s.GetOrganization("org1")
	if !hasRole(org, "pk1", registry.RoleAdmin) || !hasRole(org, "pk1", registry.RoleTransactor) {
		t.Fatalf("expected signer to hold ADMIN and TRANSACTOR, got %+v", org.Authorizations)
	}
}

// Scenario 2: unauthorized update is rejected, state unchanged.
func TestScenario_UnauthorizedUpdateRejected(t *testing.T) {
	s := newStore()
	mustApply(t, &validator.Payload{Action: validator.ActionCreateAgent, CreateAgent: &validator.CreateAgentPayload{Name: "Alice"}}, "pk1", s)
	mustApply(t, &validator.Payload{
		Action: validator.ActionCreateOrganization,
		CreateOrganization: &validator.CreateOrganizationPayload{
			ID: "org1", Name: "Acme", Kind: registry.StandardsBody,
			Contacts: []registry.Contact{{Name: "Alice"}},
		},
	}, "pk1", s)

	// pk2 joins as TRANSACTOR only.
	mustApply(t, &validator.Payload{Action: validator.ActionCreateAgent, CreateAgent: &validator.CreateAgentPayload{Name: "Bob"}}, "pk2", s)
	mustApply(t, &validator.Payload{
		Action:         validator.ActionAuthorizeAgent,
		AuthorizeAgent: &validator.AuthorizeAgentPayload{PublicKey: "pk2", Role: registry.RoleTransactor},
	}, "pk1", s)

	before, _, _ := s.GetOrganization("org1")

	err := Apply(&validator.Payload{
		Action:             validator.ActionUpdateOrganization,
		UpdateOrganization: &validator.UpdateOrganizationPayload{Contacts: []registry.Contact{{Name: "Bob"}}},
	}, "pk2", s)
	if !txerrors.IsInvalid(err) {
		t.Fatalf("expected invalid error, got %v", err)
	}

	after, _, _ := s.GetOrganization("org1")
	if len(after.Contacts) != len(before.Contacts) || after.Contacts[0].Name != before.Contacts[0].Name {
		t.Fatalf("organization state changed after rejected update: before=%+v after=%+v", before, after)
	}
}

// Scenario 3: issue from request flips the request to CERTIFIED and
// pins the certificate's standard_version, atomically.
func TestScenario_IssueCertificateFromRequest(t *testing.T) {
	s := newStore()

	// Standards body "sb" owns standard "s" with version "v1" then "v2".
	mustApply(t, &validator.Payload{Action: validator.ActionCreateAgent, CreateAgent: &validator.CreateAgentPayload{Name: "SB admin"}}, "sb-admin", s)
	mustApply(t, &validator.Payload{Action: validator.ActionCreateOrganization, CreateOrganization: &validator.CreateOrganizationPayload{
		ID: "sb", Name: "Standards Body", Kind: registry.StandardsBody, Contacts: []registry.Contact{{Name: "x"}},
	}}, "sb-admin", s)
	mustApply(t, &validator.Payload{Action: validator.ActionCreateStandard, CreateStandard: &validator.CreateStandardPayload{
		ID: "s", Name: "Standard S", Version: "v1", Description: "d", Link: "l", ApprovalDate: 5,
	}}, "sb-admin", s)
	mustApply(t, &validator.Payload{Action: validator.ActionUpdateStandard, UpdateStandard: &validator.UpdateStandardPayload{
		ID: "s", Version: "v2", Description: "d2", Link: "l2", ApprovalDate: 5,
	}}, "sb-admin", s)

	// Certifying body "cb" accredited for standard "s" (latest version v2).
	mustApply(t, &validator.Payload{Action: validator.ActionCreateAgent, CreateAgent: &validator.CreateAgentPayload{Name: "CB admin"}}, "cb-admin", s)
	mustApply(t, &validator.Payload{Action: validator.ActionCreateOrganization, CreateOrganization: &validator.CreateOrganizationPayload{
		ID: "cb", Name: "Certifying Body", Kind: registry.CertifyingBody, Contacts: []registry.Contact{{Name: "x"}},
	}}, "cb-admin", s)
	mustApply(t, &validator.Payload{Action: validator.ActionAccreditCertifyingBody, AccreditCertifyingBody: &validator.AccreditCertifyingBodyPayload{
		CertifyingBodyID: "cb", StandardID: "s", ValidFrom: 10, ValidTo: 1000,
	}}, "sb-admin", s)

	// Factory "f" opens a request against standard "s", moved to IN_PROGRESS.
	mustApply(t, &validator.Payload{Action: validator.ActionCreateAgent, CreateAgent: &validator.CreateAgentPayload{Name: "F admin"}}, "f-admin", s)
	mustApply(t, &validator.Payload{Action: validator.ActionCreateOrganization, CreateOrganization: &validator.CreateOrganizationPayload{
		ID: "f", Name: "Factory", Kind: registry.Factory, Contacts: []registry.Contact{{Name: "x"}},
		Address: &registry.Address{StreetLine1: "1 Main St", City: "Springfield", Country: "US"},
	}}, "f-admin", s)
	mustApply(t, &validator.Payload{Action: validator.ActionOpenRequest, OpenRequest: &validator.OpenRequestPayload{
		ID: "r1", StandardID: "s",
	}}, "f-admin", s)
	mustApply(t, &validator.Payload{Action: validator.ActionChangeRequestStatus, ChangeRequestStatus: &validator.ChangeRequestStatusPayload{
		RequestID: "r1", Status: registry.StatusInProgress,
	}}, "f-admin", s)

	// cb's transactor (cb-admin) issues certificate c1 from request r1.
	mustApply(t, &validator.Payload{Action: validator.ActionIssueCertificate, IssueCertificate: &validator.IssueCertificatePayload{
		ID: "c1", Source: registry.SourceFromRequest, RequestID: "r1", ValidFrom: 10, ValidTo: 20,
	}}, "cb-admin", s)

	cert, found, _ := s.GetCertificate("c1")
	if !found {
		t.Fatal("expected certificate c1 to exist")
	}
	if cert.StandardVersion != "v2" {
		t.Fatalf("expected standard_version v2, got %s", cert.StandardVersion)
	}
	req, _, _ := s.GetRequest("r1")
	if req.Status != registry.StatusCertified {
		t.Fatalf("expected request CERTIFIED, got %s", req.Status)
	}
}

// Scenario 6: accreditation dated before the standard version's approval
// date is rejected.
func TestScenario_AccreditationDateRejection(t *testing.T) {
	s := newStore()
	mustApply(t, &validator.Payload{Action: validator.ActionCreateAgent, CreateAgent: &validator.CreateAgentPayload{Name: "SB admin"}}, "sb-admin", s)
	mustApply(t, &validator.Payload{Action: validator.ActionCreateOrganization, CreateOrganization: &validator.CreateOrganizationPayload{
		ID: "sb", Name: "Standards Body", Kind: registry.StandardsBody, Contacts: []registry.Contact{{Name: "x"}},
	}}, "sb-admin", s)
	mustApply(t, &validator.Payload{Action: validator.ActionCreateStandard, CreateStandard: &validator.CreateStandardPayload{
		ID: "s", Name: "Standard S", Version: "v1", Description: "d", Link: "l", ApprovalDate: 1000,
	}}, "sb-admin", s)
	mustApply(t, &validator.Payload{Action: validator.ActionCreateAgent, CreateAgent: &validator.CreateAgentPayload{Name: "CB admin"}}, "cb-admin", s)
	mustApply(t, &validator.Payload{Action: validator.ActionCreateOrganization, CreateOrganization: &validator.CreateOrganizationPayload{
		ID: "cb", Name: "Certifying Body", Kind: registry.CertifyingBody, Contacts: []registry.Contact{{Name: "x"}},
	}}, "cb-admin", s)

	err := Apply(&validator.Payload{Action: validator.ActionAccreditCertifyingBody, AccreditCertifyingBody: &validator.AccreditCertifyingBodyPayload{
		CertifyingBodyID: "cb", StandardID: "s", ValidFrom: 999, ValidTo: 2000,
	}}, "sb-admin", s)
	if !txerrors.IsInvalid(err) {
		t.Fatalf("expected invalid error, got %v", err)
	}
}

// Agents may hold both ADMIN and TRANSACTOR simultaneously in the same
// organization. This is intended, not a bug.
func TestAuthorizeAgent_DualRolePermitted(t *testing.T) {
	s := newStore()
	mustApply(t, &validator.Payload{Action: validator.ActionCreateAgent, CreateAgent: &validator.CreateAgentPayload{Name: "Alice"}}, "pk1", s)
	mustApply(t, &validator.Payload{Action: validator.ActionCreateOrganization, CreateOrganization: &validator.CreateOrganizationPayload{
		ID: "org1", Name: "Acme", Kind: registry.StandardsBody, Contacts: []registry.Contact{{Name: "x"}},
	}}, "pk1", s)
	mustApply(t, &validator.Payload{Action: validator.ActionCreateAgent, CreateAgent: &validator.CreateAgentPayload{Name: "Bob"}}, "pk2", s)
	mustApply(t, &validator.Payload{
		Action:         validator.ActionAuthorizeAgent,
		AuthorizeAgent: &validator.AuthorizeAgentPayload{PublicKey: "pk2", Role: registry.RoleTransactor},
	}, "pk1", s)
	mustApply(t, &validator.Payload{
		Action:         validator.ActionAuthorizeAgent,
		AuthorizeAgent: &validator.AuthorizeAgentPayload{PublicKey: "pk2", Role: registry.RoleAdmin},
	}, "pk1", s)

	org, _, _ := s.GetOrganization("org1")
	if !hasRole(org, "pk2", registry.RoleAdmin) || !hasRole(org, "pk2", registry.RoleTransactor) {
		t.Fatalf("expected pk2 to hold both roles, got %+v", org.Authorizations)
	}
}

func TestAuthorizeAgent_DuplicateRoleRejected(t *testing.T) {
	s := newStore()
	mustApply(t, &validator.Payload{Action: validator.ActionCreateAgent, CreateAgent: &validator.CreateAgentPayload{Name: "Alice"}}, "pk1", s)
	mustApply(t, &validator.Payload{Action: validator.ActionCreateOrganization, CreateOrganization: &validator.CreateOrganizationPayload{
		ID: "org1", Name: "Acme", Kind: registry.StandardsBody, Contacts: []registry.Contact{{Name: "x"}},
	}}, "pk1", s)
	err := Apply(&validator.Payload{
		Action:         validator.ActionAuthorizeAgent,
		AuthorizeAgent: &validator.AuthorizeAgentPayload{PublicKey: "pk1", Role: registry.RoleAdmin},
	}, "pk1", s)
	if !txerrors.IsInvalid(err) {
		t.Fatalf("expected invalid error for duplicate role, got %v", err)
	}
}

func TestCreateAgent_RejectsExisting(t *testing.T) {
	s := newStore()
	mustApply(t, &validator.Payload{Action: validator.ActionCreateAgent, CreateAgent: &validator.CreateAgentPayload{Name: "Alice"}}, "pk1", s)
	err := Apply(&validator.Payload{Action: validator.ActionCreateAgent, CreateAgent: &validator.CreateAgentPayload{Name: "Alice2"}}, "pk1", s)
	if !txerrors.IsInvalid(err) {
		t.Fatalf("expected invalid error, got %v", err)
	}
}

func TestUpdateStandard_RejectsWrongOwner(t *testing.T) {
	s := newStore()
	mustApply(t, &validator.Payload{Action: validator.ActionCreateAgent, CreateAgent: &validator.CreateAgentPayload{Name: "SB1"}}, "sb1", s)
	mustApply(t, &validator.Payload{Action: validator.ActionCreateOrganization, CreateOrganization: &validator.CreateOrganizationPayload{
		ID: "sb1-org", Name: "SB1", Kind: registry.StandardsBody, Contacts: []registry.Contact{{Name: "x"}},
	}}, "sb1", s)
	mustApply(t, &validator.Payload{Action: validator.ActionCreateStandard, CreateStandard: &validator.CreateStandardPayload{
		ID: "s", Name: "S", Version: "v1", Description: "d", Link: "l", ApprovalDate: 1,
	}}, "sb1", s)

	mustApply(t, &validator.Payload{Action: validator.ActionCreateAgent, CreateAgent: &validator.CreateAgentPayload{Name: "SB2"}}, "sb2", s)
	mustApply(t, &validator.Payload{Action: validator.ActionCreateOrganization, CreateOrganization: &validator.CreateOrganizationPayload{
		ID: "sb2-org", Name: "SB2", Kind: registry.StandardsBody, Contacts: []registry.Contact{{Name: "x"}},
	}}, "sb2", s)

	err := Apply(&validator.Payload{Action: validator.ActionUpdateStandard, UpdateStandard: &validator.UpdateStandardPayload{
		ID: "s", Version: "v2", Description: "d", Link: "l", ApprovalDate: 1,
	}}, "sb2", s)
	if !txerrors.IsInvalid(err) {
		t.Fatalf("expected invalid error, got %v", err)
	}
}
