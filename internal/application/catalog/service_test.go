package catalog_test

import (
	"context"
	"testing"

	"github.com/escabi/escabiapi/internal/application"
	appcatalog "github.com/escabi/escabiapi/internal/application/catalog"
	domcatalog "github.com/escabi/escabiapi/internal/domain/catalog"
	domuser "github.com/escabi/escabiapi/internal/domain/user"
	"github.com/escabi/escabiapi/internal/infrastructure/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedID string

func (f fixedID) NewID() string { return string(f) }

var admin = domuser.Identity{UserID: "a", Roles: []domuser.Role{domuser.RoleAdmin}}

func TestCreateAndList(t *testing.T) {
	svc := appcatalog.NewService(memory.NewProductRepository(), fixedID("p1"), nil, application.NewInstrumentation(nil, "test"))
	ctx := context.Background()

	p, err := svc.Create(ctx, admin, domcatalog.NewProductParams{Name: "Quilmes", Price: 900, Category: "beer", Stock: 24})
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, domcatalog.CategoryBeer, p.Category)

	got, err := svc.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Quilmes", got.Name)

	beers, err := svc.List(ctx, "beer")
	require.NoError(t, err)
	assert.Len(t, beers, 1)
	gins, err := svc.List(ctx, "gin")
	require.NoError(t, err)
	assert.Empty(t, gins)

	_, err = svc.List(ctx, "absinthe")
	assert.ErrorIs(t, err, appcatalog.ErrValidation)
}

func TestCreateRules(t *testing.T) {
	svc := appcatalog.NewService(memory.NewProductRepository(), fixedID("p1"), nil, application.NewInstrumentation(nil, "test"))
	ctx := context.Background()

	_, err := svc.Create(ctx, domuser.Identity{UserID: "u"}, domcatalog.NewProductParams{Name: "Quilmes", Price: 900, Category: "beer"})
	assert.ErrorIs(t, err, appcatalog.ErrForbidden)

	_, err = svc.Create(ctx, admin, domcatalog.NewProductParams{Name: "Quilmes", Price: 0, Category: "beer"})
	assert.ErrorIs(t, err, appcatalog.ErrValidation)
	assert.ErrorIs(t, err, domcatalog.ErrInvalidProduct)

	_, err = svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, domcatalog.ErrNotFound)
}
