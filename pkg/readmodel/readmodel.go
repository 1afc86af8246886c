// Package readmodel provides point-in-time query helpers over the
// indexer's relational read model, plus a few derived reporting
// queries layered on top of it.
package readmodel

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/certen/cert-registry/pkg/database"
)

// Queries bundles read-only query helpers over a database client's
// repositories. It issues no writes and holds no long-running
// transaction.
type Queries struct {
	db    *sql.DB
	repos *database.Repositories
}

// New constructs a Queries bound to client.
func New(client *database.Client, repos *database.Repositories) *Queries {
	return &Queries{db: client.DB(), repos: repos}
}

// HeadBlockNum returns the highest applied block_num, used as the
// default "as-of" height when a query doesn't name one explicitly.
func (q *Queries) HeadBlockNum(ctx context.Context) (int64, error) {
	return q.repos.Blocks.HeadBlockNum(ctx)
}

// resolveHead returns asOf unchanged unless it's the live sentinel
// (database.MaxBlockNum), in which case it substitutes the current
// head block_num.
func (q *Queries) resolveHead(ctx context.Context, asOf int64) (int64, error) {
	if asOf != database.MaxBlockNum {
		return asOf, nil
	}
	return q.HeadBlockNum(ctx)
}

// FactorySummary is one row of the retailer-factories report: a
// denormalized snapshot of a currently live FACTORY organization, its
// live address, and one of its live contacts. A factory with several
// contacts appears once per contact.
type FactorySummary struct {
	FactoryID    string
	FactoryName  string
	StreetLine1  string
	StreetLine2  string
	City         string
	State        string
	Country      string
	PostalCode   string
	ContactName  string
	ContactPhone string
}

// RetailerFactories lists every currently live FACTORY organization via
// the retailer_factories view (migration 0002). This is strictly a
// read-path convenience: nothing in the indexer writes through it.
func (q *Queries) RetailerFactories(ctx context.Context) ([]FactorySummary, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT factory_id, factory_name,
		       coalesce(street_line_1, ''), coalesce(street_line_2, ''),
		       coalesce(city, ''), coalesce(state, ''), coalesce(country, ''), coalesce(postal_code, ''),
		       coalesce(contact_name, ''), coalesce(contact_phone, '')
		FROM retailer_factories
		ORDER BY factory_name`)
	if err != nil {
		return nil, fmt.Errorf("list retailer factories: %w", err)
	}
	defer rows.Close()

	var out []FactorySummary
	for rows.Next() {
		var f FactorySummary
		if err := rows.Scan(&f.FactoryID, &f.FactoryName, &f.StreetLine1, &f.StreetLine2,
			&f.City, &f.State, &f.Country, &f.PostalCode, &f.ContactName, &f.ContactPhone); err != nil {
			return nil, fmt.Errorf("scan retailer factory: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
