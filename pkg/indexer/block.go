// Package indexer implements the fork-aware block indexer:
// it mirrors committed chain operations into the bitemporal relational
// read model, one block per atomic transaction.
package indexer

import "github.com/certen/cert-registry/pkg/registry"

// Block is one committed unit of work delivered to the indexer.
// Operations are grouped by entity kind; the indexer does not
// distinguish "create" from "update", since the insert-with-close
// pattern handles both uniformly.
type Block struct {
	BlockNum int64
	BlockID  string

	Agents        []registry.Agent
	Organizations []registry.Organization
	Certificates  []registry.Certificate
	Requests      []registry.Request
	Standards     []registry.Standard
}
