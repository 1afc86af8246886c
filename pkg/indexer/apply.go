package indexer

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/certen/cert-registry/pkg/database"
	"github.com/certen/cert-registry/pkg/registry"
)

// applyOperations runs the insert-with-close pattern
// for every operation in the block, grouped by entity kind.
func (ix *Indexer) applyOperations(ctx context.Context, tx *sql.Tx, b Block) error {
	rowsClosed, rowsInserted := 0, 0

	for _, a := range b.Agents {
		closed, err := ix.closeLiveAgent(ctx, tx, a.PublicKey, b.BlockNum)
		if err != nil {
			return err
		}
		if closed {
			rowsClosed++
		}
		if err := ix.repos.Agents.Insert(ctx, tx, &a, b.BlockNum); err != nil {
			return err
		}
		rowsInserted++
	}

	for _, org := range b.Organizations {
		closed, err := ix.closeLiveOrg(ctx, tx, org.ID, b.BlockNum)
		if err != nil {
			return err
		}
		if closed {
			rowsClosed++
		}
		if err := ix.repos.Organizations.Insert(ctx, tx, &org, b.BlockNum); err != nil {
			return err
		}
		rowsInserted++
	}

	for _, std := range b.Standards {
		n, err := ix.applyStandard(ctx, tx, std, b.BlockNum)
		if err != nil {
			return err
		}
		rowsInserted += n
	}

	for _, req := range b.Requests {
		closed, err := ix.closeLiveRequest(ctx, tx, req.ID, b.BlockNum)
		if err != nil {
			return err
		}
		if closed {
			rowsClosed++
		}
		if err := ix.repos.Requests.Insert(ctx, tx, &req, b.BlockNum); err != nil {
			return err
		}
		rowsInserted++
	}

	for _, cert := range b.Certificates {
		closed, err := ix.closeLiveCertificate(ctx, tx, cert.ID, b.BlockNum)
		if err != nil {
			return err
		}
		if closed {
			rowsClosed++
		}
		if err := ix.repos.Certificates.Insert(ctx, tx, &cert, b.BlockNum); err != nil {
			return err
		}
		rowsInserted++
	}

	if ix.metrics != nil {
		ix.metrics.RowsClosed.Add(float64(rowsClosed))
		ix.metrics.RowsInserted.Add(float64(rowsInserted))
	}
	return nil
}

func (ix *Indexer) closeLiveAgent(ctx context.Context, tx *sql.Tx, publicKey string, blockNum int64) (bool, error) {
	if _, err := ix.repos.Agents.GetLive(ctx, publicKey); err != nil {
		if err == database.ErrAgentNotFound {
			return false, nil
		}
		return false, fmt.Errorf("check live agent %s: %w", publicKey, err)
	}
	return true, ix.repos.Agents.Close(ctx, tx, publicKey, blockNum)
}

func (ix *Indexer) closeLiveOrg(ctx context.Context, tx *sql.Tx, orgID string, blockNum int64) (bool, error) {
	if _, err := ix.repos.Organizations.GetLive(ctx, orgID); err != nil {
		if err == database.ErrOrganizationNotFound {
			return false, nil
		}
		return false, fmt.Errorf("check live organization %s: %w", orgID, err)
	}
	return true, ix.repos.Organizations.CloseAllForOrg(ctx, tx, orgID, blockNum)
}

func (ix *Indexer) closeLiveRequest(ctx context.Context, tx *sql.Tx, requestID string, blockNum int64) (bool, error) {
	if _, err := ix.repos.Requests.GetLive(ctx, requestID); err != nil {
		if err == database.ErrRequestNotFound {
			return false, nil
		}
		return false, fmt.Errorf("check live request %s: %w", requestID, err)
	}
	return true, ix.repos.Requests.Close(ctx, tx, requestID, blockNum)
}

func (ix *Indexer) closeLiveCertificate(ctx context.Context, tx *sql.Tx, certificateID string, blockNum int64) (bool, error) {
	if _, err := ix.repos.Certificates.GetLive(ctx, certificateID); err != nil {
		if err == database.ErrCertificateNotFound {
			return false, nil
		}
		return false, fmt.Errorf("check live certificate %s: %w", certificateID, err)
	}
	return true, ix.repos.Certificates.Close(ctx, tx, certificateID, blockNum)
}

// applyStandard closes the standards metadata row if it already
// exists, then inserts the updated metadata plus only the versions not
// already recorded. A standard's version history only ever grows, so a
// group record carrying the full accumulated version list must not
// re-insert versions already live from an earlier block.
// Returns the number of rows inserted, for the indexer's row metrics.
func (ix *Indexer) applyStandard(ctx context.Context, tx *sql.Tx, std registry.Standard, blockNum int64) (int, error) {
	inserted := 0

	_, err := ix.repos.Standards.GetLive(ctx, std.ID)
	switch err {
	case nil:
		if err := ix.repos.Standards.CloseMeta(ctx, tx, std.ID, blockNum); err != nil {
			return 0, err
		}
	case database.ErrStandardNotFound:
		// first time this standard is seen, nothing to close
	default:
		return 0, fmt.Errorf("check live standard %s: %w", std.ID, err)
	}

	meta := registry.Standard{ID: std.ID, Name: std.Name, OrganizationID: std.OrganizationID}
	if err := ix.repos.Standards.Insert(ctx, tx, &meta, blockNum); err != nil {
		return 0, err
	}
	inserted++

	existing, err := ix.repos.Standards.ExistingVersions(ctx, std.ID)
	if err != nil {
		return 0, err
	}
	for _, v := range std.Versions {
		if existing[v.Version] {
			continue
		}
		if err := ix.repos.Standards.InsertVersion(ctx, tx, std.ID, v, blockNum); err != nil {
			return 0, err
		}
		inserted++
	}

	return inserted, nil
}
