package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/certen/cert-registry/pkg/registry"
)

// CertificateRepository mirrors registry.Certificate and its arbitrary
// key-value data entries.
type CertificateRepository struct {
	db *sql.DB
}

// GetLive reassembles the currently live Certificate, or returns
// ErrCertificateNotFound.
func (r *CertificateRepository) GetLive(ctx context.Context, certificateID string) (*registry.Certificate, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT certificate_id, certifying_body_id, factory_id, standard_id, standard_version, valid_from, valid_to
		FROM certificates WHERE certificate_id = $1 AND end_block_num = $2`, certificateID, MaxBlockNum)

	cert := &registry.Certificate{}
	if err := row.Scan(&cert.ID, &cert.CertifyingBodyID, &cert.FactoryID, &cert.StandardID, &cert.StandardVersion, &cert.ValidFrom, &cert.ValidTo); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCertificateNotFound
		}
		return nil, fmt.Errorf("get certificate %s: %w", certificateID, err)
	}

	data, err := r.dataLive(ctx, certificateID)
	if err != nil {
		return nil, err
	}
	cert.CertificateData = data
	return cert, nil
}

func (r *CertificateRepository) dataLive(ctx context.Context, certificateID string) ([]registry.CertificateDataEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT field, value FROM certificate_data
		WHERE certificate_id = $1 AND end_block_num = $2 ORDER BY field`, certificateID, MaxBlockNum)
	if err != nil {
		return nil, fmt.Errorf("list certificate data for %s: %w", certificateID, err)
	}
	defer rows.Close()

	var out []registry.CertificateDataEntry
	for rows.Next() {
		var e registry.CertificateDataEntry
		if err := rows.Scan(&e.Field, &e.Value); err != nil {
			return nil, fmt.Errorf("scan certificate data: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Insert opens a new live certificate row and its data entries at
// startBlock.
func (r *CertificateRepository) Insert(ctx context.Context, tx *sql.Tx, cert *registry.Certificate, startBlock int64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO certificates (certificate_id, certifying_body_id, factory_id, standard_id, standard_version, valid_from, valid_to, start_block_num, end_block_num)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		cert.ID, cert.CertifyingBodyID, cert.FactoryID, cert.StandardID, cert.StandardVersion, cert.ValidFrom, cert.ValidTo, startBlock, MaxBlockNum)
	if err != nil {
		return fmt.Errorf("insert certificate %s: %w", cert.ID, err)
	}
	for _, e := range cert.CertificateData {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO certificate_data (certificate_id, field, value, start_block_num, end_block_num)
			VALUES ($1, $2, $3, $4, $5)`,
			cert.ID, e.Field, e.Value, startBlock, MaxBlockNum)
		if err != nil {
			return fmt.Errorf("insert certificate data for %s: %w", cert.ID, err)
		}
	}
	return nil
}

// Close ends the validity of a certificate and its data entries, the
// first half of the insert-with-close pattern applied when
// certificate_id already has a live row (a redelivered block).
func (r *CertificateRepository) Close(ctx context.Context, tx *sql.Tx, certificateID string, endBlock int64) error {
	if _, err := tx.ExecContext(ctx, `
		UPDATE certificates SET end_block_num = $1 WHERE certificate_id = $2 AND end_block_num = $3`,
		endBlock, certificateID, MaxBlockNum); err != nil {
		return fmt.Errorf("close certificate %s: %w", certificateID, err)
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE certificate_data SET end_block_num = $1 WHERE certificate_id = $2 AND end_block_num = $3`,
		endBlock, certificateID, MaxBlockNum); err != nil {
		return fmt.Errorf("close certificate data for %s: %w", certificateID, err)
	}
	return nil
}

// ReopenFrom reverses every close at or after blockNum across the
// certificate and certificate_data tables.
func (r *CertificateRepository) ReopenFrom(ctx context.Context, tx *sql.Tx, blockNum int64) error {
	for _, table := range []string{"certificates", "certificate_data"} {
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
// certificate and certificate_data tables.
func (r *CertificateRepository) DeleteFrom(ctx context.Context, tx *sql.Tx, blockNum int64) error {
	for _, table := range []string{"certificates", "certificate_data"} {
		_, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE start_block_num >= $1`, table), blockNum)
		if err != nil {
			return fmt.Errorf("delete %s from %d: %w", table, blockNum, err)
		}
	}
	return nil
}
