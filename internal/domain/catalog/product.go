package catalog

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound          = errors.New("catalog: product not found")
	ErrInvalidProduct    = errors.New("catalog: invalid product")
	ErrInsufficientStock = errors.New("catalog: insufficient stock")
	ErrInvalidQuantity   = errors.New("catalog: quantity must be greater than zero")
	ErrNegativeStock     = errors.New("catalog: stock must be zero or greater")
)

type Category string

const (
	CategoryBeer      Category = "beer"
	CategoryRedWine   Category = "red_wine"
	CategoryWhiteWine Category = "white_wine"
	CategoryRoseWine  Category = "rose_wine"
	CategoryWhisky    Category = "whisky"
	CategoryVodka     Category = "vodka"
	CategoryGin       Category = "gin"
	CategoryRum       Category = "rum"
	CategoryTequila   Category = "tequila"
	CategorySoda      Category = "soda"
	CategoryOther     Category = "other"
)

var categories = map[Category]struct{}{
	CategoryBeer: {}, CategoryRedWine: {}, CategoryWhiteWine: {}, CategoryRoseWine: {},
	CategoryWhisky: {}, CategoryVodka: {}, CategoryGin: {}, CategoryRum: {},
	CategoryTequila: {}, CategorySoda: {}, CategoryOther: {},
}

// ParseCategory validates a category literal.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := categories[c]; !ok {
		return "", fmt.Errorf("%w: unknown category %q", ErrInvalidProduct, s)
	}
	return c, nil
}

// Product is a catalog entry. Price is expressed in minor currency units.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       int64
	Category    Category
	Stock       int
	ImageURL    string
	ABV         *float64
	VolumeML    *int
	Origin      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type NewProductParams struct {
	Name        string
	Description string
	Price       int64
	Category    string
	Stock       int
	ImageURL    string
	ABV         *float64
	VolumeML    *int
	Origin      string
}

func New(id string, p NewProductParams) (*Product, error) {
	name := strings.TrimSpace(p.Name)
	switch {
	case len(name) < 3 || len(name) > 100:
		return nil, fmt.Errorf("%w: name must be 3 to 100 characters", ErrInvalidProduct)
	case len(p.Description) > 500:
		return nil, fmt.Errorf("%w: description must be at most 500 characters", ErrInvalidProduct)
	case p.Price <= 0:
		return nil, fmt.Errorf("%w: price must be greater than zero", ErrInvalidProduct)
	case p.Stock < 0:
		return nil, ErrNegativeStock
	case p.ABV != nil && (*p.ABV < 0 || *p.ABV > 100):
		return nil, fmt.Errorf("%w: abv must be between 0 and 100", ErrInvalidProduct)
	case p.VolumeML != nil && *p.VolumeML <= 0:
		return nil, fmt.Errorf("%w: volume must be greater than zero", ErrInvalidProduct)
	case len(p.Origin) > 50:
		return nil, fmt.Errorf("%w: origin must be at most 50 characters", ErrInvalidProduct)
	}
	category, err := ParseCategory(p.Category)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Product{
		ID:          id,
		Name:        name,
		Description: p.Description,
		Price:       p.Price,
		Category:    category,
		Stock:       p.Stock,
		ImageURL:    p.ImageURL,
		ABV:         p.ABV,
		VolumeML:    p.VolumeML,
		Origin:      p.Origin,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	clone := *p
	if p.ABV != nil {
		v := *p.ABV
		clone.ABV = &v
	}
	if p.VolumeML != nil {
		v := *p.VolumeML
		clone.VolumeML = &v
	}
	return &clone
}

// InsufficientStockError reports a stock shortage for one product.
// It matches ErrInsufficientStock with errors.Is.
type InsufficientStockError struct {
	ProductID string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("catalog: insufficient stock for product %s: available %d, requested %d",
		e.ProductID, e.Available, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// NotFoundError names the missing product. It matches ErrNotFound.
type NotFoundError struct {
	ProductID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("catalog: product %s not found", e.ProductID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }
