package readmodel

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/certen/cert-registry/pkg/config"
	"github.com/certen/cert-registry/pkg/database"
	"github.com/certen/cert-registry/pkg/indexer"
	"github.com/certen/cert-registry/pkg/registry"
)

var (
	testDB     *sql.DB
	testClient *database.Client
	testQ      *Queries
)

func TestMain(m *testing.M) {
	connStr := os.Getenv("CERT_REGISTRY_TEST_DB")
	if connStr == "" {
		os.Exit(0)
	}

	cfg := &config.Config{DatabaseURL: connStr, DatabaseMaxConns: 5, DatabaseMinConns: 1, DatabaseMaxIdleTime: 60, DatabaseMaxLifetime: 300}
	client, err := database.NewClient(cfg)
	if err != nil {
		panic("failed to connect to test database: " + err.Error())
	}
	if err := client.MigrateUp(context.Background()); err != nil {
		panic("failed to migrate test database: " + err.Error())
	}

	testDB = client.DB()
	testClient = client
	testQ = New(client, database.NewRepositories(client))

	code := m.Run()
	testDB.Close()
	os.Exit(code)
}

// TestTemporalRead_VisibleAtStartInvisibleAtEnd covers the temporal-read
// property: at head = start_block_num a row is visible; at
// head = end_block_num it is not.
func TestTemporalRead_VisibleAtStartInvisibleAtEnd(t *testing.T) {
	if testDB == nil {
		t.Skip("test database not configured")
	}
	ctx := context.Background()
	orgID := "org-temporal-test"
	defer func() {
		for _, table := range []string{"organizations", "contacts", "authorizations", "addresses", "accreditations"} {
			testDB.ExecContext(ctx, "DELETE FROM "+table+" WHERE organization_id = $1", orgID)
		}
		testDB.ExecContext(ctx, "DELETE FROM blocks WHERE block_num >= $1", 70)
	}()

	repos := database.NewRepositories(testClient)
	ix := indexer.New(testClient, repos, nil, nil)

	if err := ix.ApplyBlock(ctx, indexer.Block{
		BlockNum: 70, BlockID: "temporal-a",
		Organizations: []registry.Organization{{ID: orgID, Name: "Temporal Org", Kind: registry.StandardsBody}},
	}); err != nil {
		t.Fatalf("apply block 70: %v", err)
	}
	if err := ix.ApplyBlock(ctx, indexer.Block{
		BlockNum: 75, BlockID: "temporal-b",
		Organizations: []registry.Organization{{ID: orgID, Name: "Temporal Org Renamed", Kind: registry.StandardsBody}},
	}); err != nil {
		t.Fatalf("apply block 75: %v", err)
	}

	atStart, err := testQ.Organization(ctx, orgID, 70)
	if err != nil {
		t.Fatalf("organization at start_block_num 70: %v", err)
	}
	if atStart.Name != "Temporal Org" {
		t.Errorf("name at 70 = %q, want original name", atStart.Name)
	}

	atEnd, err := testQ.Organization(ctx, orgID, 75)
	if err != nil {
		t.Fatalf("organization at block 75: %v", err)
	}
	if atEnd.Name != "Temporal Org Renamed" {
		t.Errorf("organization at its own end_block_num 75 should not be visible as the OLD version, name = %q", atEnd.Name)
	}
}

func TestRetailerFactories_ListsLiveFactoryWithAddress(t *testing.T) {
	if testDB == nil {
		t.Skip("test database not configured")
	}
	ctx := context.Background()
	orgID := "org-retailer-test"
	defer func() {
		for _, table := range []string{"organizations", "contacts", "authorizations", "addresses", "accreditations"} {
			testDB.ExecContext(ctx, "DELETE FROM "+table+" WHERE organization_id = $1", orgID)
		}
	}()

	repos := database.NewRepositories(testClient)
	tx, err := testClient.BeginTx(ctx)
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	org := &registry.Organization{
		ID: orgID, Name: "Retailer Test Factory", Kind: registry.Factory,
		FactoryDetail: &registry.Address{StreetLine1: "10 Market St", City: "Gotham", Country: "US"},
	}
	if err := repos.Organizations.Insert(ctx, tx, org, 1); err != nil {
		t.Fatalf("insert org: %v", err)
	}
	tx.Commit()

	factories, err := testQ.RetailerFactories(ctx)
	if err != nil {
		t.Fatalf("retailer factories: %v", err)
	}
	found := false
	for _, f := range factories {
		if f.FactoryID == orgID {
			found = true
			if f.City != "Gotham" {
				t.Errorf("city = %q, want Gotham", f.City)
			}
		}
	}
	if !found {
		t.Errorf("expected factory %s in retailer_factories listing", orgID)
	}
}
