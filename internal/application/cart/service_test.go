package cart_test

import (
	"context"
	"testing"

	"github.com/escabi/escabiapi/internal/application"
	appcart "github.com/escabi/escabiapi/internal/application/cart"
	"github.com/escabi/escabiapi/internal/domain/catalog"
	domuser "github.com/escabi/escabiapi/internal/domain/user"
	"github.com/escabi/escabiapi/internal/infrastructure/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var verified = domuser.Identity{UserID: "u1", AgeVerified: true}

func newService(t *testing.T) *appcart.Service {
	t.Helper()
	products := memory.NewProductRepository()
	require.NoError(t, products.Insert(context.Background(), &catalog.Product{ID: "p1", Name: "Gin", Price: 250, Stock: 3}))
	require.NoError(t, products.Insert(context.Background(), &catalog.Product{ID: "p2", Name: "Tonic", Price: 50, Stock: 10}))
	return appcart.NewService(memory.NewCartRepository(), products, application.NewInstrumentation(nil, "test"))
}

func TestAddItemSumsQuantities(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, verified, "p1", 1)
	require.NoError(t, err)
	v, err := svc.AddItem(ctx, verified, "p1", 2)
	require.NoError(t, err)

	require.Len(t, v.Items, 1)
	assert.Equal(t, 3, v.Items[0].Quantity)
	assert.Equal(t, int64(750), v.Total)

	_, err = svc.AddItem(ctx, verified, "p1", 1)
	assert.ErrorIs(t, err, catalog.ErrInsufficientStock)
}

func TestAddItemErrors(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, verified, "ghost", 1)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
	_, err = svc.AddItem(ctx, verified, "p1", 0)
	assert.ErrorIs(t, err, appcart.ErrValidation)
	_, err = svc.AddItem(ctx, domuser.Identity{UserID: "u2"}, "p1", 1)
	assert.ErrorIs(t, err, appcart.ErrAgeNotVerified)
}

func TestUpdateAndRemove(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, verified, "p1", 1)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, verified, "p2", 4)
	require.NoError(t, err)

	v, err := svc.UpdateItem(ctx, verified, "p2", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(350), v.Total)

	_, err = svc.UpdateItem(ctx, verified, "p1", 9)
	assert.ErrorIs(t, err, catalog.ErrInsufficientStock)

	v, err = svc.UpdateItem(ctx, verified, "p1", 0)
	require.NoError(t, err)
	require.Len(t, v.Items, 1)
	assert.Equal(t, "p2", v.Items[0].ProductID)

	_, err = svc.UpdateItem(ctx, verified, "p1", 1)
	assert.ErrorIs(t, err, appcart.ErrItemNotFound)
	_, err = svc.RemoveItem(ctx, verified, "p1")
	assert.ErrorIs(t, err, appcart.ErrItemNotFound)

	v, err = svc.RemoveItem(ctx, verified, "p2")
	require.NoError(t, err)
	assert.Empty(t, v.Items)
}

func TestClear(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, verified, "p2", 1)
	require.NoError(t, err)
	require.NoError(t, svc.Clear(ctx, verified))

	v, err := svc.Get(ctx, verified)
	require.NoError(t, err)
	assert.Empty(t, v.Items)
	assert.Zero(t, v.Total)
}
