package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/escabi/escabiapi/internal/domain/order"
	"github.com/escabi/escabiapi/internal/infrastructure/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateStatusCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewOrderRepository()
	require.NoError(t, repo.Insert(ctx, &order.Order{ID: "o1", UserID: "u1", Status: order.StatusPending}))

	change := order.StatusChange{From: order.StatusPending, To: order.StatusCancelled, At: time.Now().UTC()}
	updated, err := repo.UpdateStatus(ctx, "o1", change)
	require.NoError(t, err)
	assert.Equal(t, order.StatusCancelled, updated.Status)

	_, err = repo.UpdateStatus(ctx, "o1", change)
	assert.ErrorIs(t, err, order.ErrStatusConflict)

	_, err = repo.UpdateStatus(ctx, "missing", change)
	assert.ErrorIs(t, err, order.ErrNotFound)
}

func TestListByUserNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewOrderRepository()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Insert(ctx, &order.Order{ID: "old", UserID: "u1", CreatedAt: base}))
	require.NoError(t, repo.Insert(ctx, &order.Order{ID: "new", UserID: "u1", CreatedAt: base.Add(time.Hour)}))
	require.NoError(t, repo.Insert(ctx, &order.Order{ID: "other", UserID: "u2", CreatedAt: base}))

	got, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "new", got[0].ID)
	assert.Equal(t, "old", got[1].ID)
}
