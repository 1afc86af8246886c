package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/certen/cert-registry/pkg/registry"
)

// StandardRepository mirrors registry.Standard and its version history.
type StandardRepository struct {
	db *sql.DB
}

// GetLive reassembles the currently live Standard, including every
// version ever recorded for it, or returns ErrStandardNotFound.
func (r *StandardRepository) GetLive(ctx context.Context, standardID string) (*registry.Standard, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT standard_id, name, organization_id FROM standards
		WHERE standard_id = $1 AND end_block_num = $2`, standardID, MaxBlockNum)

	std := &registry.Standard{}
	if err := row.Scan(&std.ID, &std.Name, &std.OrganizationID); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrStandardNotFound
		}
		return nil, fmt.Errorf("get standard %s: %w", standardID, err)
	}

	versions, err := r.versionsLive(ctx, standardID)
	if err != nil {
		return nil, err
	}
	std.Versions = versions
	return std, nil
}

// GetAt reassembles the Standard valid at blockNum, including every
// version recorded up to and including that height.
func (r *StandardRepository) GetAt(ctx context.Context, standardID string, blockNum int64) (*registry.Standard, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT standard_id, name, organization_id FROM standards
		WHERE standard_id = $1 AND start_block_num <= $2 AND end_block_num > $2`, standardID, blockNum)

	std := &registry.Standard{}
	if err := row.Scan(&std.ID, &std.Name, &std.OrganizationID); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrStandardNotFound
		}
		return nil, fmt.Errorf("get standard %s at %d: %w", standardID, blockNum, err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT version, description, link, approval_date FROM standard_versions
		WHERE standard_id = $1 AND start_block_num <= $2 ORDER BY approval_date, version`,
		standardID, blockNum)
	if err != nil {
		return nil, fmt.Errorf("list versions for %s at %d: %w", standardID, blockNum, err)
	}
	defer rows.Close()

	for rows.Next() {
		var v registry.StandardVersion
		if err := rows.Scan(&v.Version, &v.Description, &v.Link, &v.ApprovalDate); err != nil {
			return nil, fmt.Errorf("scan standard version: %w", err)
		}
		std.Versions = append(std.Versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return std, nil
}

// versionsLive returns every currently-live version row for standardID,
// in approval order. A standard's version history only ever grows, so
// "live" versions ARE the full history: versions are never closed
// individually, only superseded as "latest" by appending.
func (r *StandardRepository) versionsLive(ctx context.Context, standardID string) ([]registry.StandardVersion, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT version, description, link, approval_date FROM standard_versions
		WHERE standard_id = $1 AND end_block_num = $2 ORDER BY approval_date, version`,
		standardID, MaxBlockNum)
	if err != nil {
		return nil, fmt.Errorf("list versions for %s: %w", standardID, err)
	}
	defer rows.Close()

	var out []registry.StandardVersion
	for rows.Next() {
		var v registry.StandardVersion
		if err := rows.Scan(&v.Version, &v.Description, &v.Link, &v.ApprovalDate); err != nil {
			return nil, fmt.Errorf("scan standard version: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Insert opens a new live standard row and its initial version(s) at
// startBlock.
func (r *StandardRepository) Insert(ctx context.Context, tx *sql.Tx, std *registry.Standard, startBlock int64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO standards (standard_id, name, organization_id, start_block_num, end_block_num)
		VALUES ($1, $2, $3, $4, $5)`,
		std.ID, std.Name, std.OrganizationID, startBlock, MaxBlockNum)
	if err != nil {
		return fmt.Errorf("insert standard %s: %w", std.ID, err)
	}
	for _, v := range std.Versions {
		if err := r.InsertVersion(ctx, tx, std.ID, v, startBlock); err != nil {
			return err
		}
	}
	return nil
}

// InsertVersion appends one live version row. Appending a version
// never closes an earlier one.
func (r *StandardRepository) InsertVersion(ctx context.Context, tx *sql.Tx, standardID string, v registry.StandardVersion, startBlock int64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO standard_versions (standard_id, version, description, link, approval_date, start_block_num, end_block_num)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		standardID, v.Version, v.Description, v.Link, v.ApprovalDate, startBlock, MaxBlockNum)
	if err != nil {
		return fmt.Errorf("insert standard version for %s: %w", standardID, err)
	}
	return nil
}

// CloseMeta ends the validity of the standards row only; a standard's
// version rows are never closed by an update, since a standard's
// version history only ever grows.
func (r *StandardRepository) CloseMeta(ctx context.Context, tx *sql.Tx, standardID string, endBlock int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE standards SET end_block_num = $1 WHERE standard_id = $2 AND end_block_num = $3`,
		endBlock, standardID, MaxBlockNum)
	if err != nil {
		return fmt.Errorf("close standard %s: %w", standardID, err)
	}
	return nil
}

// ExistingVersions returns the set of version strings already recorded
// for standardID, live or not, so the indexer can insert only newly
// appended versions from a CreateStandard-group record that carries
// the standard's complete version history.
func (r *StandardRepository) ExistingVersions(ctx context.Context, standardID string) (map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT version FROM standard_versions WHERE standard_id = $1`, standardID)
	if err != nil {
		return nil, fmt.Errorf("existing versions for %s: %w", standardID, err)
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan existing version: %w", err)
		}
		out[v] = true
	}
	return out, rows.Err()
}

// ReopenFrom reverses every close at or after blockNum across the
// standard and standard_versions tables.
func (r *StandardRepository) ReopenFrom(ctx context.Context, tx *sql.Tx, blockNum int64) error {
	for _, table := range []string{"standards", "standard_versions"} {
		_, err := tx.ExecContext(ctx, fmt.Sprintf(`
			UPDATE %s SET end_block_num = $1 WHERE end_block_num >= $2 AND end_block_num != $1`, table),
			MaxBlockNum, blockNum)
		if err != nil {
			return fmt.Errorf("reopen %s from %d: %w", table, blockNum, err)
		}
	}
	return nil
}

// DeleteFrom removes rows opened at or after blockNum across the
// standard and standard_versions tables.
func (r *StandardRepository) DeleteFrom(ctx context.Context, tx *sql.Tx, blockNum int64) error {
	for _, table := range []string{"standards", "standard_versions"} {
		_, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE start_block_num >= $1`, table), blockNum)
		if err != nil {
			return fmt.Errorf("delete %s from %d: %w", table, blockNum, err)
		}
	}
	return nil
}
