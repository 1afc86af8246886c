package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/certen/cert-registry/pkg/registry"
)

// RequestRepository mirrors registry.Request, the OPEN -> IN_PROGRESS
// -> {CLOSED|CERTIFIED} certification request.
type RequestRepository struct {
	db *sql.DB
}

func scanRequest(row *sql.Row) (*registry.Request, error) {
	req := &registry.Request{}
	var status string
	if err := row.Scan(&req.ID, &req.FactoryID, &req.StandardID, &status, &req.RequestDate); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("scan request: %w", err)
	}
	req.Status = registry.RequestStatus(status)
	return req, nil
}

// GetLive returns the currently live row for requestID.
func (r *RequestRepository) GetLive(ctx context.Context, requestID string) (*registry.Request, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT request_id, factory_id, standard_id, status, request_date
		FROM requests WHERE request_id = $1 AND end_block_num = $2`, requestID, MaxBlockNum)
	return scanRequest(row)
}

// GetAt returns the row valid at blockNum.
func (r *RequestRepository) GetAt(ctx context.Context, requestID string, blockNum int64) (*registry.Request, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT request_id, factory_id, standard_id, status, request_date
		FROM requests WHERE request_id = $1 AND start_block_num <= $2 AND end_block_num > $2`,
		requestID, blockNum)
	return scanRequest(row)
}

// Insert opens a new live row at startBlock.
func (r *RequestRepository) Insert(ctx context.Context, tx *sql.Tx, req *registry.Request, startBlock int64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO requests (request_id, factory_id, standard_id, status, request_date, start_block_num, end_block_num)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		req.ID, req.FactoryID, req.StandardID, string(req.Status), req.RequestDate, startBlock, MaxBlockNum)
	if err != nil {
		return fmt.Errorf("insert request %s: %w", req.ID, err)
	}
	return nil
}

// Close ends the live row's validity at endBlock, used before inserting
// the next status transition.
func (r *RequestRepository) Close(ctx context.Context, tx *sql.Tx, requestID string, endBlock int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE requests SET end_block_num = $1 WHERE request_id = $2 AND end_block_num = $3`,
		endBlock, requestID, MaxBlockNum)
	if err != nil {
		return fmt.Errorf("close request %s: %w", requestID, err)
	}
	return nil
}

// ReopenFrom reverses every close at or after blockNum.
func (r *RequestRepository) ReopenFrom(ctx context.Context, tx *sql.Tx, blockNum int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE requests SET end_block_num = $1 WHERE end_block_num >= $2 AND end_block_num != $1`,
		MaxBlockNum, blockNum)
	if err != nil {
		return fmt.Errorf("reopen requests from %d: %w", blockNum, err)
	}
	return nil
}

// DeleteFrom removes rows opened at or after blockNum.
func (r *RequestRepository) DeleteFrom(ctx context.Context, tx *sql.Tx, blockNum int64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM requests WHERE start_block_num >= $1`, blockNum)
	if err != nil {
		return fmt.Errorf("delete requests from %d: %w", blockNum, err)
	}
	return nil
}
