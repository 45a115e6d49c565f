package memory_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/escabi/escabiapi/internal/domain/catalog"
	"github.com/escabi/escabiapi/internal/infrastructure/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, repo *memory.ProductRepository, id string, stock int) {
	t.Helper()
	require.NoError(t, repo.Insert(context.Background(), &catalog.Product{ID: id, Name: "Stout " + id, Price: 900, Stock: stock}))
}

func TestDecrementIfAvailableNeverGoesNegative(t *testing.T) {
	repo := memory.NewProductRepository()
	seed(t, repo, "p1", 5)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.DecrementIfAvailable(context.Background(), "p1", 1); err == nil {
				wins.Add(1)
			} else {
				assert.ErrorIs(t, err, catalog.ErrInsufficientStock)
			}
		}()
	}
	wg.Wait()

	p, err := repo.Get(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, int32(5), wins.Load())
	assert.Equal(t, 0, p.Stock)
}

func TestStockPrimitives(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewProductRepository()
	seed(t, repo, "p1", 2)

	stock, err := repo.AdjustStock(ctx, "p1", 3)
	require.NoError(t, err)
	assert.Equal(t, 5, stock)

	_, err = repo.DecrementIfAvailable(ctx, "p1", 6)
	var short *catalog.InsufficientStockError
	require.ErrorAs(t, err, &short)
	assert.Equal(t, 5, short.Available)
	assert.Equal(t, 6, short.Requested)

	require.NoError(t, repo.SetStock(ctx, "p1", 1))
	assert.ErrorIs(t, repo.SetStock(ctx, "p1", -1), catalog.ErrNegativeStock)

	_, err = repo.AdjustStock(ctx, "missing", 1)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewProductRepository()
	seed(t, repo, "p1", 2)

	p, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	p.Stock = 100

	again, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, again.Stock)
}
