package state

import (
	"github.com/certen/cert-registry/pkg/addressing"
	"github.com/certen/cert-registry/pkg/registry"
)

func agentKey(a registry.Agent) string             { return a.PublicKey }
func organizationKey(o registry.Organization) string { return o.ID }
func standardKey(s registry.Standard) string        { return s.ID }
func requestKey(r registry.Request) string          { return r.ID }
func certificateKey(c registry.Certificate) string  { return c.ID }

// GetAgent returns the Agent with the given public key, and whether it
// was found.
func (s *Store) GetAgent(publicKey string) (registry.Agent, bool, error) {
	c, err := bucketGet[registry.Agent](s, addressing.AgentAddress(publicKey))
	if err != nil {
		return registry.Agent{}, false, err
	}
	e, idx := getEntry(c, agentKey, publicKey)
	return e, idx >= 0, nil
}

// SetAgent inserts or replaces the Agent with the same public key.
func (s *Store) SetAgent(a registry.Agent) error {
	addr := addressing.AgentAddress(a.PublicKey)
	c, err := bucketGet[registry.Agent](s, addr)
	if err != nil {
		return err
	}
	c = setEntry(c, agentKey, a)
	return bucketPut(s, addr, c)
}

// GetOrganization returns the Organization with the given id, and
// whether it was found.
func (s *Store) GetOrganization(id string) (registry.Organization, bool, error) {
	c, err := bucketGet[registry.Organization](s, addressing.OrganizationAddress(id))
	if err != nil {
		return registry.Organization{}, false, err
	}
	e, idx := getEntry(c, organizationKey, id)
	return e, idx >= 0, nil
}

// SetOrganization inserts or replaces the Organization with the same id.
func (s *Store) SetOrganization(o registry.Organization) error {
	addr := addressing.OrganizationAddress(o.ID)
	c, err := bucketGet[registry.Organization](s, addr)
	if err != nil {
		return err
	}
	c = setEntry(c, organizationKey, o)
	return bucketPut(s, addr, c)
}

// GetStandard returns the Standard with the given id, and whether it was found.
func (s *Store) GetStandard(id string) (registry.Standard, bool, error) {
	c, err := bucketGet[registry.Standard](s, addressing.StandardAddress(id))
	if err != nil {
		return registry.Standard{}, false, err
	}
	e, idx := getEntry(c, standardKey, id)
	return e, idx >= 0, nil
}

// SetStandard inserts or replaces the Standard with the same id.
func (s *Store) SetStandard(st registry.Standard) error {
	addr := addressing.StandardAddress(st.ID)
	c, err := bucketGet[registry.Standard](s, addr)
	if err != nil {
		return err
	}
	c = setEntry(c, standardKey, st)
	return bucketPut(s, addr, c)
}

// GetRequest returns the Request with the given id, and whether it was found.
func (s *Store) GetRequest(id string) (registry.Request, bool, error) {
	c, err := bucketGet[registry.Request](s, addressing.RequestAddress(id))
	if err != nil {
		return registry.Request{}, false, err
	}
	e, idx := getEntry(c, requestKey, id)
	return e, idx >= 0, nil
}

// SetRequest inserts or replaces the Request with the same id.
func (s *Store) SetRequest(r registry.Request) error {
	addr := addressing.RequestAddress(r.ID)
	c, err := bucketGet[registry.Request](s, addr)
	if err != nil {
		return err
	}
	c = setEntry(c, requestKey, r)
	return bucketPut(s, addr, c)
}

// GetCertificate returns the Certificate with the given id, and whether
// it was found.
func (s *Store) GetCertificate(id string) (registry.Certificate, bool, error) {
	c, err := bucketGet[registry.Certificate](s, addressing.CertificateAddress(id))
	if err != nil {
		return registry.Certificate{}, false, err
	}
	e, idx := getEntry(c, certificateKey, id)
	return e, idx >= 0, nil
}

// SetCertificate inserts or replaces the Certificate with the same id.
func (s *Store) SetCertificate(cert registry.Certificate) error {
	addr := addressing.CertificateAddress(cert.ID)
	c, err := bucketGet[registry.Certificate](s, addr)
	if err != nil {
		return err
	}
	c = setEntry(c, certificateKey, cert)
	return bucketPut(s, addr, c)
}

// DeleteAgent removes the Agent with the given public key, if present.
// When the bucket is left empty, the address itself is deleted.
func (s *Store) DeleteAgent(publicKey string) error {
	addr := addressing.AgentAddress(publicKey)
	c, err := bucketGet[registry.Agent](s, addr)
	if err != nil {
		return err
	}
	c = deleteEntry(c, agentKey, publicKey)
	if len(c.Entries) == 0 {
		return s.kv.Delete([]byte(addr))
	}
	return bucketPut(s, addr, c)
}
