package database

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/certen/cert-registry/pkg/config"
	"github.com/certen/cert-registry/pkg/registry"
)

// Repository tests run against a real Postgres instance, following the
// validator platform's pattern of gating integration suites behind an
// environment variable rather than mocking the driver.
var (
	testDB     *sql.DB
	testClient *Client
	testRepos  *Repositories
)

func TestMain(m *testing.M) {
	connStr := os.Getenv("CERT_REGISTRY_TEST_DB")
	if connStr == "" {
		os.Exit(0)
	}

	cfg := &config.Config{DatabaseURL: connStr, DatabaseMaxConns: 5, DatabaseMinConns: 1, DatabaseMaxIdleTime: 60, DatabaseMaxLifetime: 300}
	client, err := NewClient(cfg)
	if err != nil {
		panic("failed to connect to test database: " + err.Error())
	}
	if err := client.MigrateUp(context.Background()); err != nil {
		panic("failed to migrate test database: " + err.Error())
	}

	testDB = client.DB()
	testClient = client
	testRepos = NewRepositories(client)

	code := m.Run()
	testDB.Close()
	os.Exit(code)
}

func TestAgentRepository_InsertAndGetLive(t *testing.T) {
	if testDB == nil {
		t.Skip("test database not configured")
	}
	ctx := context.Background()
	defer testDB.ExecContext(ctx, "DELETE FROM agents WHERE public_key = $1", "pubkey-agent-1")

	tx, err := testClient.BeginTx(ctx)
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	agent := &registry.Agent{PublicKey: "pubkey-agent-1", Name: "Alice", OrganizationID: "", Timestamp: 100}
	if err := testRepos.Agents.Insert(ctx, tx, agent, 10); err != nil {
		t.Fatalf("insert agent: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	got, err := testRepos.Agents.GetLive(ctx, "pubkey-agent-1")
	if err != nil {
		t.Fatalf("get live agent: %v", err)
	}
	if got.Name != "Alice" {
		t.Errorf("name = %q, want Alice", got.Name)
	}
}

func TestAgentRepository_GetLive_NotFound(t *testing.T) {
	if testDB == nil {
		t.Skip("test database not configured")
	}
	_, err := testRepos.Agents.GetLive(context.Background(), "does-not-exist")
	if err != ErrAgentNotFound {
		t.Errorf("err = %v, want ErrAgentNotFound", err)
	}
}

func TestOrganizationRepository_InsertWithChildrenAndCloseAll(t *testing.T) {
	if testDB == nil {
		t.Skip("test database not configured")
	}
	ctx := context.Background()
	orgID := "org-test-1"
	defer func() {
		for _, table := range []string{"organizations", "contacts", "authorizations", "addresses", "accreditations"} {
			testDB.ExecContext(ctx, "DELETE FROM "+table+" WHERE organization_id = $1", orgID)
		}
	}()

	org := &registry.Organization{
		ID:   orgID,
		Name: "Acme Factory",
		Kind: registry.Factory,
		Contacts: []registry.Contact{{Name: "Bob", LanguageCode: "en", Phone: "555-0100"}},
		Authorizations: []registry.Authorization{{PublicKey: "pubkey-agent-1", Role: registry.RoleAdmin}},
		FactoryDetail: &registry.Address{StreetLine1: "1 Main St", City: "Springfield", Country: "US"},
	}

	tx, err := testClient.BeginTx(ctx)
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	if err := testRepos.Organizations.Insert(ctx, tx, org, 20); err != nil {
		t.Fatalf("insert organization: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	got, err := testRepos.Organizations.GetLive(ctx, orgID)
	if err != nil {
		t.Fatalf("get live organization: %v", err)
	}
	if got.FactoryDetail == nil || got.FactoryDetail.City != "Springfield" {
		t.Errorf("factory detail missing or wrong, got %+v", got.FactoryDetail)
	}
	if len(got.Contacts) != 1 || len(got.Authorizations) != 1 {
		t.Errorf("children not reassembled: %+v", got)
	}

	tx2, err := testClient.BeginTx(ctx)
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	if err := testRepos.Organizations.CloseAllForOrg(ctx, tx2, orgID, 25); err != nil {
		t.Fatalf("close all for org: %v", err)
	}
	if err := tx2.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	if _, err := testRepos.Organizations.GetLive(ctx, orgID); err != ErrOrganizationNotFound {
		t.Errorf("org should no longer be live after close, err = %v", err)
	}
	atOld, err := testRepos.Organizations.GetAt(ctx, orgID, 22)
	if err != nil {
		t.Fatalf("get at block 22: %v", err)
	}
	if atOld.Name != "Acme Factory" {
		t.Errorf("point-in-time read returned wrong row: %+v", atOld)
	}
}

func TestStandardRepository_UpdateAppendsVersionWithoutClosingOldOnes(t *testing.T) {
	if testDB == nil {
		t.Skip("test database not configured")
	}
	ctx := context.Background()
	stdID := "std-test-1"
	defer func() {
		testDB.ExecContext(ctx, "DELETE FROM standards WHERE standard_id = $1", stdID)
		testDB.ExecContext(ctx, "DELETE FROM standard_versions WHERE standard_id = $1", stdID)
	}()

	std := &registry.Standard{
		ID: stdID, Name: "ISO Test", OrganizationID: "org-sb-1",
		Versions: []registry.StandardVersion{{Version: "1.0", ApprovalDate: 100}},
	}
	tx, _ := testClient.BeginTx(ctx)
	if err := testRepos.Standards.Insert(ctx, tx, std, 5); err != nil {
		t.Fatalf("insert standard: %v", err)
	}
	tx.Commit()

	existing, err := testRepos.Standards.ExistingVersions(ctx, stdID)
	if err != nil {
		t.Fatalf("existing versions: %v", err)
	}
	if !existing["1.0"] {
		t.Fatalf("expected version 1.0 to be recorded")
	}

	tx2, _ := testClient.BeginTx(ctx)
	if err := testRepos.Standards.CloseMeta(ctx, tx2, stdID, 6); err != nil {
		t.Fatalf("close meta: %v", err)
	}
	if err := testRepos.Standards.Insert(ctx, tx2, &registry.Standard{ID: stdID, Name: "ISO Test", OrganizationID: "org-sb-1"}, 6); err != nil {
		t.Fatalf("reinsert standard meta: %v", err)
	}
	if err := testRepos.Standards.InsertVersion(ctx, tx2, stdID, registry.StandardVersion{Version: "2.0", ApprovalDate: 200}, 6); err != nil {
		t.Fatalf("insert version: %v", err)
	}
	tx2.Commit()

	got, err := testRepos.Standards.GetLive(ctx, stdID)
	if err != nil {
		t.Fatalf("get live standard: %v", err)
	}
	if len(got.Versions) != 2 {
		t.Fatalf("expected both versions to remain live, got %d", len(got.Versions))
	}
}
