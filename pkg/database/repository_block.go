package database

import (
	"context"
	"database/sql"
	"fmt"
)

// BlockRepository tracks the chain of blocks the indexer has applied,
// used to detect duplicates and forks.
type BlockRepository struct {
	db *sql.DB
}

// BlockRecord is one row of the blocks table.
type BlockRecord struct {
	BlockNum int64
	BlockID  string
}

// GetBlock returns the block_id recorded at blockNum, or ErrBlockNotFound.
func (r *BlockRepository) GetBlock(ctx context.Context, blockNum int64) (*BlockRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT block_num, block_id FROM blocks WHERE block_num = $1`, blockNum)
	rec := &BlockRecord{}
	if err := row.Scan(&rec.BlockNum, &rec.BlockID); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrBlockNotFound
		}
		return nil, fmt.Errorf("get block %d: %w", blockNum, err)
	}
	return rec, nil
}

// HeadBlockNum returns the highest known block_num, or -1 if the chain
// is empty.
func (r *BlockRepository) HeadBlockNum(ctx context.Context) (int64, error) {
	var head sql.NullInt64
	err := r.db.QueryRowContext(ctx, `SELECT max(block_num) FROM blocks`).Scan(&head)
	if err != nil {
		return 0, fmt.Errorf("head block num: %w", err)
	}
	if !head.Valid {
		return -1, nil
	}
	return head.Int64, nil
}

// InsertBlock records a newly applied block within tx.
func (r *BlockRepository) InsertBlock(ctx context.Context, tx *sql.Tx, blockNum int64, blockID string) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO blocks (block_num, block_id) VALUES ($1, $2)`, blockNum, blockID)
	if err != nil {
		return fmt.Errorf("insert block %d: %w", blockNum, err)
	}
	return nil
}

// DeleteBlocksFrom removes every block row at or above blockNum, the
// final step of a fork rewind.
func (r *BlockRepository) DeleteBlocksFrom(ctx context.Context, tx *sql.Tx, blockNum int64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM blocks WHERE block_num >= $1`, blockNum)
	if err != nil {
		return fmt.Errorf("delete blocks from %d: %w", blockNum, err)
	}
	return nil
}
