package invoices

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepoUpdateRequiresProcessing(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	inv, err := repo.Insert(ctx, Invoice{UserID: "user-1", Status: StatusProcessing})
	require.NoError(t, err)
	require.NotEmpty(t, inv.ID)

	patch := Patch{ParsedData: []byte(`{"a":1}`), Status: StatusCompleted, UpdatedAt: time.Now()}
	_, err = repo.UpdateByID(ctx, inv.ID, patch)
	require.NoError(t, err)

	_, err = repo.UpdateByID(ctx, inv.ID, patch)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRepoListPagesNewestFirst(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		_, err := repo.Insert(ctx, Invoice{UserID: "user-1", Status: StatusCompleted, CreatedAt: base.Add(time.Duration(i) * time.Minute)})
		require.NoError(t, err)
	}
	_, err := repo.Insert(ctx, Invoice{UserID: "user-2", Status: StatusCompleted, CreatedAt: base})
	require.NoError(t, err)

	page, total, err := repo.ListByOwner(ctx, "user-1", ListQuery{Limit: 2, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	require.Len(t, page, 2)
	assert.Equal(t, base.Add(2*time.Minute), page[0].CreatedAt)
	assert.Equal(t, base.Add(time.Minute), page[1].CreatedAt)

	empty, total, err := repo.ListByOwner(ctx, "user-1", ListQuery{Offset: 10})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Empty(t, empty)
}

func TestMemoryRepoListHugeLimit(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := repo.Insert(ctx, Invoice{UserID: "user-1", Status: StatusCompleted, CreatedAt: time.Now()})
		require.NoError(t, err)
	}

	page, total, err := repo.ListByOwner(ctx, "user-1", ListQuery{Limit: math.MaxInt, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, page, 2)
}

func TestMemoryRepoListOrderIsStableForEqualTimes(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	ids := []string{"c", "a", "d", "b"}
	for _, id := range ids {
		_, err := repo.Insert(ctx, Invoice{ID: id, UserID: "user-1", Status: StatusCompleted, CreatedAt: at})
		require.NoError(t, err)
	}

	for i := 0; i < 5; i++ {
		first, _, err := repo.ListByOwner(ctx, "user-1", ListQuery{Limit: 2})
		require.NoError(t, err)
		second, _, err := repo.ListByOwner(ctx, "user-1", ListQuery{Limit: 2, Offset: 2})
		require.NoError(t, err)
		assert.Equal(t, "a", first[0].ID)
		assert.Equal(t, "b", first[1].ID)
		assert.Equal(t, "c", second[0].ID)
		assert.Equal(t, "d", second[1].ID)
	}
}

func TestCustomFieldsColumnValue(t *testing.T) {
	v, err := CustomFields(nil).Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = CustomFields{{Field: "vat", Description: "VAT number"}}.Value()
	require.NoError(t, err)
	assert.Equal(t, `[{"field":"vat","description":"VAT number"}]`, v)

	var scanned CustomFields
	require.NoError(t, scanned.Scan(`[{"field":"vat","description":"VAT number"}]`))
	assert.Equal(t, CustomFields{{Field: "vat", Description: "VAT number"}}, scanned)

	require.NoError(t, scanned.Scan([]byte(`[]`)))
	assert.Nil(t, scanned)

	assert.Error(t, scanned.Scan(42))
}
