package invoices

import "context"

// Repo defines persistence operations for invoice records.
type Repo interface {
	Insert(ctx context.Context, inv Invoice) (Invoice, error)
	// UpdateByID applies patch to a record still in processing; ErrNotFound otherwise.
	UpdateByID(ctx context.Context, id string, patch Patch) (Invoice, error)
	ListByOwner(ctx context.Context, ownerID string, q ListQuery) ([]Invoice, int, error)
	GetByID(ctx context.Context, ownerID, id string) (Invoice, error)
	DeleteByID(ctx context.Context, ownerID, id string) error
}
