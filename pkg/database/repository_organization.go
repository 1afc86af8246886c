package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/certen/cert-registry/pkg/registry"
)

// OrganizationRepository mirrors registry.Organization and its
// kind-specific children: contacts, authorizations, the FACTORY
// address, and CERTIFYING_BODY accreditations.
type OrganizationRepository struct {
	db *sql.DB
}

// GetLive reassembles the currently live Organization, including its
// children, or returns ErrOrganizationNotFound.
func (r *OrganizationRepository) GetLive(ctx context.Context, orgID string) (*registry.Organization, error) {
	return r.getAt(ctx, orgID, MaxBlockNum, true)
}

// GetAt reassembles the Organization valid at blockNum.
func (r *OrganizationRepository) GetAt(ctx context.Context, orgID string, blockNum int64) (*registry.Organization, error) {
	return r.getAt(ctx, orgID, blockNum, false)
}

func (r *OrganizationRepository) getAt(ctx context.Context, orgID string, blockNum int64, live bool) (*registry.Organization, error) {
	var row *sql.Row
	if live {
		row = r.db.QueryRowContext(ctx, `
			SELECT organization_id, name, kind FROM organizations
			WHERE organization_id = $1 AND end_block_num = $2`, orgID, MaxBlockNum)
	} else {
		row = r.db.QueryRowContext(ctx, `
			SELECT organization_id, name, kind FROM organizations
			WHERE organization_id = $1 AND start_block_num <= $2 AND end_block_num > $2`, orgID, blockNum)
	}

	org := &registry.Organization{}
	var kind string
	if err := row.Scan(&org.ID, &org.Name, &kind); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("get organization %s: %w", orgID, err)
	}
	org.Kind = registry.OrganizationKind(kind)

	pointInTime := blockNum
	if live {
		pointInTime = MaxBlockNum
	}

	contacts, err := r.contactsAt(ctx, orgID, pointInTime, live)
	if err != nil {
		return nil, err
	}
	org.Contacts = contacts

	auths, err := r.authorizationsAt(ctx, orgID, pointInTime, live)
	if err != nil {
		return nil, err
	}
	org.Authorizations = auths

	switch org.Kind {
	case registry.Factory:
		addr, err := r.addressAt(ctx, orgID, pointInTime, live)
		if err != nil && err != ErrNotFound {
			return nil, err
		}
		org.FactoryDetail = addr
	case registry.CertifyingBody:
		accs, err := r.accreditationsAt(ctx, orgID, pointInTime, live)
		if err != nil {
			return nil, err
		}
		org.Accreditations = accs
	}

	return org, nil
}

func (r *OrganizationRepository) liveOrAt(live bool, blockNum int64) (string, []interface{}) {
	if live {
		return "end_block_num = $2", []interface{}{MaxBlockNum}
	}
	return "start_block_num <= $2 AND end_block_num > $2", []interface{}{blockNum}
}

func (r *OrganizationRepository) contactsAt(ctx context.Context, orgID string, blockNum int64, live bool) ([]registry.Contact, error) {
	cond, args := r.liveOrAt(live, blockNum)
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT name, language_code, phone_number FROM contacts
		WHERE organization_id = $1 AND %s ORDER BY name`, cond),
		append([]interface{}{orgID}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("list contacts for %s: %w", orgID, err)
	}
	defer rows.Close()

	var out []registry.Contact
	for rows.Next() {
		var c registry.Contact
		if err := rows.Scan(&c.Name, &c.LanguageCode, &c.Phone); err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *OrganizationRepository) authorizationsAt(ctx context.Context, orgID string, blockNum int64, live bool) ([]registry.Authorization, error) {
	cond, args := r.liveOrAt(live, blockNum)
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT public_key, role FROM authorizations
		WHERE organization_id = $1 AND %s ORDER BY public_key, role`, cond),
		append([]interface{}{orgID}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("list authorizations for %s: %w", orgID, err)
	}
	defer rows.Close()

	var out []registry.Authorization
	for rows.Next() {
		var a registry.Authorization
		var role string
		if err := rows.Scan(&a.PublicKey, &role); err != nil {
			return nil, fmt.Errorf("scan authorization: %w", err)
		}
		a.Role = registry.Role(role)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *OrganizationRepository) addressAt(ctx context.Context, orgID string, blockNum int64, live bool) (*registry.Address, error) {
	cond, args := r.liveOrAt(live, blockNum)
	row := r.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT street_line_1, street_line_2, city, state, country, postal_code
		FROM addresses WHERE organization_id = $1 AND %s`, cond),
		append([]interface{}{orgID}, args...)...)

	var a registry.Address
	if err := row.Scan(&a.StreetLine1, &a.StreetLine2, &a.City, &a.State, &a.Country, &a.PostalCode); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get address for %s: %w", orgID, err)
	}
	return &a, nil
}

func (r *OrganizationRepository) accreditationsAt(ctx context.Context, orgID string, blockNum int64, live bool) ([]registry.Accreditation, error) {
	cond, args := r.liveOrAt(live, blockNum)
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT standard_id, standard_version, accreditor_id, valid_from, valid_to
		FROM accreditations WHERE organization_id = $1 AND %s ORDER BY standard_id, standard_version`, cond),
		append([]interface{}{orgID}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("list accreditations for %s: %w", orgID, err)
	}
	defer rows.Close()

	var out []registry.Accreditation
	for rows.Next() {
		var a registry.Accreditation
		if err := rows.Scan(&a.StandardID, &a.StandardVersion, &a.AccreditorID, &a.ValidFrom, &a.ValidTo); err != nil {
			return nil, fmt.Errorf("scan accreditation: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Insert opens a new live organization row and its current children at
// startBlock. Children slices may be empty.
func (r *OrganizationRepository) Insert(ctx context.Context, tx *sql.Tx, org *registry.Organization, startBlock int64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO organizations (organization_id, name, kind, start_block_num, end_block_num)
		VALUES ($1, $2, $3, $4, $5)`,
		org.ID, org.Name, string(org.Kind), startBlock, MaxBlockNum)
	if err != nil {
		return fmt.Errorf("insert organization %s: %w", org.ID, err)
	}

	for _, c := range org.Contacts {
		if err := r.InsertContact(ctx, tx, org.ID, c, startBlock); err != nil {
			return err
		}
	}
	for _, a := range org.Authorizations {
		if err := r.InsertAuthorization(ctx, tx, org.ID, a, startBlock); err != nil {
			return err
		}
	}
	if org.FactoryDetail != nil {
		if err := r.InsertAddress(ctx, tx, org.ID, *org.FactoryDetail, startBlock); err != nil {
			return err
		}
	}
	for _, acc := range org.Accreditations {
		if err := r.InsertAccreditation(ctx, tx, org.ID, acc, startBlock); err != nil {
			return err
		}
	}
	return nil
}

// InsertContact adds one live contact row.
func (r *OrganizationRepository) InsertContact(ctx context.Context, tx *sql.Tx, orgID string, c registry.Contact, startBlock int64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO contacts (organization_id, name, language_code, phone_number, start_block_num, end_block_num)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		orgID, c.Name, c.LanguageCode, c.Phone, startBlock, MaxBlockNum)
	if err != nil {
		return fmt.Errorf("insert contact for %s: %w", orgID, err)
	}
	return nil
}

// InsertAuthorization adds one live authorization row.
func (r *OrganizationRepository) InsertAuthorization(ctx context.Context, tx *sql.Tx, orgID string, a registry.Authorization, startBlock int64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO authorizations (organization_id, public_key, role, start_block_num, end_block_num)
		VALUES ($1, $2, $3, $4, $5)`,
		orgID, a.PublicKey, string(a.Role), startBlock, MaxBlockNum)
	if err != nil {
		return fmt.Errorf("insert authorization for %s: %w", orgID, err)
	}
	return nil
}

// InsertAddress adds the live FACTORY address row.
func (r *OrganizationRepository) InsertAddress(ctx context.Context, tx *sql.Tx, orgID string, a registry.Address, startBlock int64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO addresses (organization_id, street_line_1, street_line_2, city, state, country, postal_code, start_block_num, end_block_num)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		orgID, a.StreetLine1, a.StreetLine2, a.City, a.State, a.Country, a.PostalCode, startBlock, MaxBlockNum)
	if err != nil {
		return fmt.Errorf("insert address for %s: %w", orgID, err)
	}
	return nil
}

// InsertAccreditation adds one live accreditation row.
func (r *OrganizationRepository) InsertAccreditation(ctx context.Context, tx *sql.Tx, orgID string, a registry.Accreditation, startBlock int64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO accreditations (organization_id, standard_id, standard_version, accreditor_id, valid_from, valid_to, start_block_num, end_block_num)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		orgID, a.StandardID, a.StandardVersion, a.AccreditorID, a.ValidFrom, a.ValidTo, startBlock, MaxBlockNum)
	if err != nil {
		return fmt.Errorf("insert accreditation for %s: %w", orgID, err)
	}
	return nil
}

// Close ends the live organization row's validity. It does not close
// children; the indexer uses CloseAllForOrg instead, which closes the
// organization row and every live child row together.
func (r *OrganizationRepository) Close(ctx context.Context, tx *sql.Tx, orgID string, endBlock int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE organizations SET end_block_num = $1 WHERE organization_id = $2 AND end_block_num = $3`,
		endBlock, orgID, MaxBlockNum)
	if err != nil {
		return fmt.Errorf("close organization %s: %w", orgID, err)
	}
	return nil
}

// CloseAuthorization ends the validity of one live authorization row
// matching (orgID, publicKey, role).
func (r *OrganizationRepository) CloseAuthorization(ctx context.Context, tx *sql.Tx, orgID, publicKey string, role registry.Role, endBlock int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE authorizations SET end_block_num = $1
		WHERE organization_id = $2 AND public_key = $3 AND role = $4 AND end_block_num = $5`,
		endBlock, orgID, publicKey, string(role), MaxBlockNum)
	if err != nil {
		return fmt.Errorf("close authorization for %s: %w", orgID, err)
	}
	return nil
}

// CloseAllForOrg ends the validity of the organization row and every
// live child row (contacts, authorizations, address, accreditations)
// for orgID. The indexer calls this before inserting a fresh snapshot,
// since every CreateOrganization-group record carries the complete
// post-action state of the organization and the indexer has no way to
// tell which action produced it.
func (r *OrganizationRepository) CloseAllForOrg(ctx context.Context, tx *sql.Tx, orgID string, endBlock int64) error {
	for _, table := range []string{"organizations", "contacts", "authorizations", "addresses", "accreditations"} {
		column := "organization_id"
		_, err := tx.ExecContext(ctx, fmt.Sprintf(`
			UPDATE %s SET end_block_num = $1 WHERE %s = $2 AND end_block_num = $3`, table, column),
			endBlock, orgID, MaxBlockNum)
		if err != nil {
			return fmt.Errorf("close %s for %s: %w", table, orgID, err)
		}
	}
	return nil
}

// ReopenFrom reverses every close at or after blockNum across the
// organization table and all of its children tables.
func (r *OrganizationRepository) ReopenFrom(ctx context.Context, tx *sql.Tx, blockNum int64) error {
	for _, table := range []string{"organizations", "contacts", "authorizations", "addresses", "accreditations"} {
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
// organization table and all of its children tables.
func (r *OrganizationRepository) DeleteFrom(ctx context.Context, tx *sql.Tx, blockNum int64) error {
	for _, table := range []string{"organizations", "contacts", "authorizations", "addresses", "accreditations"} {
		_, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE start_block_num >= $1`, table), blockNum)
		if err != nil {
			return fmt.Errorf("delete %s from %d: %w", table, blockNum, err)
		}
	}
	return nil
}
