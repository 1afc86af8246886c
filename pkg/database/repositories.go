package database

import (
	"context"
	"database/sql"
)

// MaxBlockNum marks a row as currently live: the open end of
// the half-open [start_block_num, end_block_num) validity interval.
const MaxBlockNum = int64(9223372036854775807)

// querier is satisfied by both *sql.DB and *sql.Tx, so repository
// methods that only read or write rows (no commit/rollback) can run
// either standalone or inside the indexer's per-block transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Repositories holds all repository instances, constructed once per
// Client and handed to the indexer and read-model query helpers alike.
type Repositories struct {
	Blocks        *BlockRepository
	Agents        *AgentRepository
	Organizations *OrganizationRepository
	Standards     *StandardRepository
	Requests      *RequestRepository
	Certificates  *CertificateRepository
}

// NewRepositories creates all repositories backed by client.
func NewRepositories(client *Client) *Repositories {
	return &Repositories{
		Blocks:        &BlockRepository{db: client.DB()},
		Agents:        &AgentRepository{db: client.DB()},
		Organizations: &OrganizationRepository{db: client.DB()},
		Standards:     &StandardRepository{db: client.DB()},
		Requests:      &RequestRepository{db: client.DB()},
		Certificates:  &CertificateRepository{db: client.DB()},
	}
}
