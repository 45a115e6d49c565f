package catalog_test

import (
	"errors"
	"testing"

	"github.com/escabi/escabiapi/internal/domain/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestNewValidation(t *testing.T) {
	valid := catalog.NewProductParams{Name: "Malbec Reserva", Price: 1500, Category: "red_wine", Stock: 4}

	tests := []struct {
		name   string
		mutate func(*catalog.NewProductParams)
		want   error
	}{
		{"valid", func(*catalog.NewProductParams) {}, nil},
		{"short name", func(p *catalog.NewProductParams) { p.Name = "ab" }, catalog.ErrInvalidProduct},
		{"zero price", func(p *catalog.NewProductParams) { p.Price = 0 }, catalog.ErrInvalidProduct},
		{"negative stock", func(p *catalog.NewProductParams) { p.Stock = -1 }, catalog.ErrNegativeStock},
		{"abv out of range", func(p *catalog.NewProductParams) { p.ABV = ptr(101.0) }, catalog.ErrInvalidProduct},
		{"zero volume", func(p *catalog.NewProductParams) { p.VolumeML = ptr(0) }, catalog.ErrInvalidProduct},
		{"unknown category", func(p *catalog.NewProductParams) { p.Category = "mead" }, catalog.ErrInvalidProduct},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := valid
			tt.mutate(&params)
			p, err := catalog.New("p1", params)
			if tt.want == nil {
				require.NoError(t, err)
				assert.Equal(t, catalog.CategoryRedWine, p.Category)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestInsufficientStockErrorMatchesSentinel(t *testing.T) {
	var err error = &catalog.InsufficientStockError{ProductID: "p1", Available: 1, Requested: 2}
	assert.ErrorIs(t, err, catalog.ErrInsufficientStock)

	var target *catalog.InsufficientStockError
	require.True(t, errors.As(err, &target))
	assert.Equal(t, 1, target.Available)
}

func TestCloneIsDeep(t *testing.T) {
	p := &catalog.Product{ID: "p1", ABV: ptr(5.0)}
	c := p.Clone()
	*c.ABV = 7
	assert.Equal(t, 5.0, *p.ABV)
}
