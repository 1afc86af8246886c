package readmodel

import (
	"context"

	"github.com/certen/cert-registry/pkg/database"
	"github.com/certen/cert-registry/pkg/registry"
)

// Agent returns the Agent valid as of asOf (database.MaxBlockNum for
// "currently live").
func (q *Queries) Agent(ctx context.Context, publicKey string, asOf int64) (*registry.Agent, error) {
	head, err := q.resolveHead(ctx, asOf)
	if err != nil {
		return nil, err
	}
	if head == database.MaxBlockNum {
		return q.repos.Agents.GetLive(ctx, publicKey)
	}
	return q.repos.Agents.GetAt(ctx, publicKey, head)
}

// Organization returns the Organization valid as of asOf.
func (q *Queries) Organization(ctx context.Context, orgID string, asOf int64) (*registry.Organization, error) {
	head, err := q.resolveHead(ctx, asOf)
	if err != nil {
		return nil, err
	}
	if head == database.MaxBlockNum {
		return q.repos.Organizations.GetLive(ctx, orgID)
	}
	return q.repos.Organizations.GetAt(ctx, orgID, head)
}

// Standard returns the Standard valid as of asOf, with every version
// recorded up to that height.
func (q *Queries) Standard(ctx context.Context, standardID string, asOf int64) (*registry.Standard, error) {
	head, err := q.resolveHead(ctx, asOf)
	if err != nil {
		return nil, err
	}
	if head == database.MaxBlockNum {
		return q.repos.Standards.GetLive(ctx, standardID)
	}
	return q.repos.Standards.GetAt(ctx, standardID, head)
}

// Request returns the Request valid as of asOf.
func (q *Queries) Request(ctx context.Context, requestID string, asOf int64) (*registry.Request, error) {
	head, err := q.resolveHead(ctx, asOf)
	if err != nil {
		return nil, err
	}
	if head == database.MaxBlockNum {
		return q.repos.Requests.GetLive(ctx, requestID)
	}
	return q.repos.Requests.GetAt(ctx, requestID, head)
}

// Certificate returns the currently live Certificate. Certificates are
// never updated after issuance, so there is no separate
// as-of variant.
func (q *Queries) Certificate(ctx context.Context, certificateID string) (*registry.Certificate, error) {
	return q.repos.Certificates.GetLive(ctx, certificateID)
}
