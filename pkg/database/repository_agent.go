package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/certen/cert-registry/pkg/registry"
)

// AgentRepository is the bitemporal read-model mirror of registry.Agent.
type AgentRepository struct {
	db *sql.DB
}

func scanAgent(row *sql.Row) (*registry.Agent, error) {
	a := &registry.Agent{}
	err := row.Scan(&a.PublicKey, &a.Name, &a.OrganizationID, &a.Timestamp)
	if err == sql.ErrNoRows {
		return nil, ErrAgentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan agent: %w", err)
	}
	return a, nil
}

// GetLive returns the currently live row for publicKey.
func (r *AgentRepository) GetLive(ctx context.Context, publicKey string) (*registry.Agent, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT public_key, name, organization_id, agent_timestamp
		FROM agents WHERE public_key = $1 AND end_block_num = $2`,
		publicKey, MaxBlockNum)
	return scanAgent(row)
}

// GetAt returns the row valid at blockNum.
func (r *AgentRepository) GetAt(ctx context.Context, publicKey string, blockNum int64) (*registry.Agent, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT public_key, name, organization_id, agent_timestamp
		FROM agents WHERE public_key = $1 AND start_block_num <= $2 AND end_block_num > $2`,
		publicKey, blockNum)
	return scanAgent(row)
}

// Insert opens a new live row at startBlock.
func (r *AgentRepository) Insert(ctx context.Context, tx *sql.Tx, a *registry.Agent, startBlock int64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO agents (public_key, name, organization_id, agent_timestamp, start_block_num, end_block_num)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		a.PublicKey, a.Name, a.OrganizationID, a.Timestamp, startBlock, MaxBlockNum)
	if err != nil {
		return fmt.Errorf("insert agent %s: %w", a.PublicKey, err)
	}
	return nil
}

// Close ends the live row's validity at endBlock.
func (r *AgentRepository) Close(ctx context.Context, tx *sql.Tx, publicKey string, endBlock int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE agents SET end_block_num = $1 WHERE public_key = $2 AND end_block_num = $3`,
		endBlock, publicKey, MaxBlockNum)
	if err != nil {
		return fmt.Errorf("close agent %s: %w", publicKey, err)
	}
	return nil
}

// ReopenFrom reverses every close performed at or after blockNum, the
// second step of a fork rewind.
func (r *AgentRepository) ReopenFrom(ctx context.Context, tx *sql.Tx, blockNum int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE agents SET end_block_num = $1 WHERE end_block_num >= $2 AND end_block_num != $1`,
		MaxBlockNum, blockNum)
	if err != nil {
		return fmt.Errorf("reopen agents from %d: %w", blockNum, err)
	}
	return nil
}

// DeleteFrom removes rows opened at or after blockNum, the first step
// of a fork rewind.
func (r *AgentRepository) DeleteFrom(ctx context.Context, tx *sql.Tx, blockNum int64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM agents WHERE start_block_num >= $1`, blockNum)
	if err != nil {
		return fmt.Errorf("delete agents from %d: %w", blockNum, err)
	}
	return nil
}
