// Package addressing maps (kind, id) pairs to fixed-length state addresses.
package addressing

import (
	"crypto/sha512"
	"encoding/hex"
)

// FamilyNamespace is the stable 6-hex-char prefix for every address this
// transaction family writes, analogous to a Sawtooth family namespace.
const FamilyNamespace = "a4ce19"

// Kind discriminators: 2 hex chars each, assigned distinctly per entity kind.
const (
	KindAgent        = "ae"
	KindOrganization = "4f"
	KindStandard     = "ad"
	KindRequest      = "eb"
	KindCertificate  = "c0"
)

// addressLen is FamilyNamespace(6) + kind(2) + hash(62) = 70 hex characters.
const addressLen = 70
const hashLen = addressLen - len(FamilyNamespace) - 2

// Address returns the fixed-length hex address for the given kind and id.
// It is a pure function of (kind, id): identical inputs always produce the
// identical address, which the state accessor relies on for determinism.
func Address(kind, id string) string {
	sum := sha512.Sum512([]byte(id))
	h := hex.EncodeToString(sum[:])
	return FamilyNamespace + kind + h[:hashLen]
}

// AgentAddress returns the address of the Agent with the given public key.
func AgentAddress(publicKey string) string { return Address(KindAgent, publicKey) }

// OrganizationAddress returns the address of the Organization with the given id.
func OrganizationAddress(id string) string { return Address(KindOrganization, id) }

// StandardAddress returns the address of the Standard with the given id.
func StandardAddress(id string) string { return Address(KindStandard, id) }

// RequestAddress returns the address of the Request with the given id.
func RequestAddress(id string) string { return Address(KindRequest, id) }

// CertificateAddress returns the address of the Certificate with the given id.
func CertificateAddress(id string) string { return Address(KindCertificate, id) }
