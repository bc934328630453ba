package invoices

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const invoiceColumns = `id, user_id, file_url, file_name, storage_key, document_type, custom_fields, status, parsed_data, created_at, updated_at`

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sqlx.DB
}

type invoiceRow struct {
	ID           string       `db:"id"`
	UserID       string       `db:"user_id"`
	FileURL      string       `db:"file_url"`
	FileName     string       `db:"file_name"`
	StorageKey   string       `db:"storage_key"`
	DocumentType string       `db:"document_type"`
	CustomFields CustomFields `db:"custom_fields"`
	Status       string       `db:"status"`
	ParsedData   []byte       `db:"parsed_data"`
	CreatedAt    time.Time    `db:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at"`
}

func (r invoiceRow) toInvoice() Invoice {
	inv := Invoice{
		ID:           r.ID,
		UserID:       r.UserID,
		FileURL:      r.FileURL,
		FileName:     r.FileName,
		StorageKey:   r.StorageKey,
		DocumentType: r.DocumentType,
		CustomFields: r.CustomFields,
		Status:       Status(r.Status),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if len(r.ParsedData) > 0 {
		inv.ParsedData = json.RawMessage(r.ParsedData)
	}
	return inv
}

// Insert creates a record and returns the stored row.
func (r *PGRepo) Insert(ctx context.Context, inv Invoice) (Invoice, error) {
	const query = `
INSERT INTO invoices (
    id,
    user_id,
    file_url,
    file_name,
    storage_key,
    document_type,
    custom_fields,
    status,
    created_at,
    updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING ` + invoiceColumns

	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}

	var row invoiceRow
	err := r.DB.GetContext(
		ctx,
		&row,
		query,
		inv.ID,
		inv.UserID,
		inv.FileURL,
		inv.FileName,
		inv.StorageKey,
		inv.DocumentType,
		inv.CustomFields,
		string(inv.Status),
		inv.CreatedAt,
		inv.UpdatedAt,
	)
	if err != nil {
		return Invoice{}, err
	}
	return row.toInvoice(), nil
}

// UpdateByID sets the parse outcome on a record that is still processing.
func (r *PGRepo) UpdateByID(ctx context.Context, id string, patch Patch) (Invoice, error) {
	const query = `
UPDATE invoices
SET parsed_data = $2, status = $3, updated_at = $4
WHERE id = $1 AND status = 'processing'
RETURNING ` + invoiceColumns

	if !validID(id) {
		return Invoice{}, ErrNotFound
	}

	var parsed any
	if len(patch.ParsedData) > 0 {
		parsed = string(patch.ParsedData)
	}

	var row invoiceRow
	err := r.DB.GetContext(ctx, &row, query, id, parsed, string(patch.Status), patch.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Invoice{}, ErrNotFound
		}
		return Invoice{}, err
	}
	return row.toInvoice(), nil
}

// ListByOwner returns one page of the owner's records, newest first, and the
// total number of records matching the filter.
func (r *PGRepo) ListByOwner(ctx context.Context, ownerID string, q ListQuery) ([]Invoice, int, error) {
	q = q.Normalize()

	where := `WHERE user_id = $1`
	args := []any{ownerID}
	if q.Status != "" {
		where += ` AND status = $2`
		args = append(args, q.Status)
	}

	var total int
	if err := r.DB.GetContext(ctx, &total, `SELECT COUNT(*) FROM invoices `+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count invoices: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM invoices %s ORDER BY created_at DESC, id ASC LIMIT $%d OFFSET $%d`,
		invoiceColumns, where, len(args)+1, len(args)+2)
	args = append(args, q.Limit, q.Offset)

	var rows []invoiceRow
	if err := r.DB.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list invoices: %w", err)
	}

	out := make([]Invoice, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toInvoice())
	}
	return out, total, nil
}

// GetByID fetches a record by id for its owner.
func (r *PGRepo) GetByID(ctx context.Context, ownerID, id string) (Invoice, error) {
	const query = `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1 AND user_id = $2`

	if !validID(id) {
		return Invoice{}, ErrNotFound
	}

	var row invoiceRow
	if err := r.DB.GetContext(ctx, &row, query, id, ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Invoice{}, ErrNotFound
		}
		return Invoice{}, err
	}
	return row.toInvoice(), nil
}

// DeleteByID removes a record owned by ownerID.
func (r *PGRepo) DeleteByID(ctx context.Context, ownerID, id string) error {
	const query = `DELETE FROM invoices WHERE id = $1 AND user_id = $2`

	if !validID(id) {
		return ErrNotFound
	}

	res, err := r.DB.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

var _ Repo = (*PGRepo)(nil)
