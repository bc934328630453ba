package invoices

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryRepo is an in-memory implementation of Repo for dev and tests.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Invoice // id -> invoice
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[string]Invoice),
	}
}

// Insert stores a new record, assigning an id when none is set.
func (r *MemoryRepo) Insert(ctx context.Context, inv Invoice) (Invoice, error) {
	if err := ctx.Err(); err != nil {
		return Invoice{}, err
	}
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[inv.ID] = inv
	return inv, nil
}

// UpdateByID applies patch when the record is still processing.
func (r *MemoryRepo) UpdateByID(ctx context.Context, id string, patch Patch) (Invoice, error) {
	if err := ctx.Err(); err != nil {
		return Invoice{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.data[id]
	if !ok || inv.Status != StatusProcessing {
		return Invoice{}, ErrNotFound
	}
	inv.ParsedData = append([]byte(nil), patch.ParsedData...)
	inv.Status = patch.Status
	inv.UpdatedAt = patch.UpdatedAt
	r.data[id] = inv
	return inv, nil
}

// ListByOwner returns the owner's records newest first with the unpaged total.
func (r *MemoryRepo) ListByOwner(ctx context.Context, ownerID string, q ListQuery) ([]Invoice, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	q = q.Normalize()

	r.mu.RLock()
	matched := make([]Invoice, 0)
	for _, inv := range r.data {
		if inv.UserID != ownerID {
			continue
		}
		if q.Status != "" && string(inv.Status) != q.Status {
			continue
		}
		matched = append(matched, inv)
	}
	r.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	total := len(matched)
	if q.Offset >= total {
		return []Invoice{}, total, nil
	}
	end := total
	if q.Limit < total-q.Offset {
		end = q.Offset + q.Limit
	}
	return matched[q.Offset:end], total, nil
}

// GetByID returns the record when it belongs to ownerID.
func (r *MemoryRepo) GetByID(ctx context.Context, ownerID, id string) (Invoice, error) {
	if err := ctx.Err(); err != nil {
		return Invoice{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	inv, ok := r.data[id]
	if !ok || inv.UserID != ownerID {
		return Invoice{}, ErrNotFound
	}
	return inv, nil
}

// DeleteByID removes the record when it belongs to ownerID.
func (r *MemoryRepo) DeleteByID(ctx context.Context, ownerID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.data[id]
	if !ok || inv.UserID != ownerID {
		return ErrNotFound
	}
	delete(r.data, id)
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
