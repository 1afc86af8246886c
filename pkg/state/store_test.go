package state

import (
	"testing"

	"github.com/certen/cert-registry/pkg/chainkv"
	"github.com/certen/cert-registry/pkg/registry"
)

func newTestStore() *Store {
	return New(chainkv.NewMemKV())
}

func TestStore_SetAndGetAgent(t *testing.T) {
	s := newTestStore()
	if err := s.SetAgent(registry.Agent{PublicKey: "pk1", Name: "Alice"}); err != nil {
		t.Fatalf("set agent: %v", err)
	}
	a, found, err := s.GetAgent("pk1")
	if err != nil {
		t.Fatalf("get agent: %v", err)
	}
	if !found {
		t.Fatal("expected agent to be found")
	}
	if a.Name != "Alice" {
		t.Fatalf("name mismatch: got %q", a.Name)
	}
}

func TestStore_GetMissingAgent(t *testing.T) {
	s := newTestStore()
	_, found, err := s.GetAgent("missing")
	if err != nil {
		t.Fatalf("get agent: %v", err)
	}
	if found {
		t.Fatal("expected agent not to be found")
	}
}

func TestStore_SetReplacesExisting(t *testing.T) {
	s := newTestStore()
	_ = s.SetAgent(registry.Agent{PublicKey: "pk1", Name: "Alice"})
	_ = s.SetAgent(registry.Agent{PublicKey: "pk1", Name: "Alice Updated"})
	a, _, _ := s.GetAgent("pk1")
	if a.Name != "Alice Updated" {
		t.Fatalf("expected replaced entry, got %q", a.Name)
	}
}

// TestStore_BucketCollisionPreservesBothEntries verifies the container
// bucket correctly holds two distinct entities whose addresses collide.
func TestStore_BucketCollisionPreservesBothEntries(t *testing.T) {
	kv := chainkv.NewMemKV()
	s2 := New(kv)

	// Simulate a collision directly against the KV: two orgs stored at
	// the identical address, as would happen if their hashes collided.
	c := registry.Container[registry.Organization]{Entries: []registry.Organization{
		{ID: "org-a", Name: "A", Kind: registry.StandardsBody},
		{ID: "org-b", Name: "B", Kind: registry.StandardsBody},
	}}
	raw, err := registry.Encode(c)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	const sharedAddr = "deadbeef"
	if err := kv.Set([]byte(sharedAddr), raw); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := bucketGet[registry.Organization](s2, sharedAddr)
	if err != nil {
		t.Fatalf("bucket get: %v", err)
	}
	if len(got.Entries) != 2 {
		t.Fatalf("expected 2 colliding entries, got %d", len(got.Entries))
	}
}

func TestStore_DeleteAgentRemovesEntry(t *testing.T) {
	s := newTestStore()
	_ = s.SetAgent(registry.Agent{PublicKey: "pk1", Name: "Alice"})
	if err := s.DeleteAgent("pk1"); err != nil {
		t.Fatalf("delete agent: %v", err)
	}
	_, found, _ := s.GetAgent("pk1")
	if found {
		t.Fatal("expected agent to be deleted")
	}
}

func TestStore_OrganizationRoundTrip(t *testing.T) {
	s := newTestStore()
	org := registry.Organization{
		ID:   "org1",
		Name: "Acme",
		Kind: registry.Factory,
		Authorizations: []registry.Authorization{
			{PublicKey: "pk1", Role: registry.RoleAdmin},
		},
		FactoryDetail: &registry.Address{StreetLine1: "1 Main St", City: "Springfield", Country: "US"},
	}
	if err := s.SetOrganization(org); err != nil {
		t.Fatalf("set org: %v", err)
	}
	got, found, err := s.GetOrganization("org1")
	if err != nil {
		t.Fatalf("get org: %v", err)
	}
	if !found {
		t.Fatal("expected org to be found")
	}
	if got.FactoryDetail == nil || got.FactoryDetail.City != "Springfield" {
		t.Fatalf("factory detail not preserved: %+v", got.FactoryDetail)
	}
}
