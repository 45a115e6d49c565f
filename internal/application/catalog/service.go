package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/escabi/escabiapi/internal/application"
	domcatalog "github.com/escabi/escabiapi/internal/domain/catalog"
	domuser "github.com/escabi/escabiapi/internal/domain/user"

	"go.opentelemetry.io/otel/attribute"
)

var (
	ErrForbidden  = errors.New("catalog: forbidden")
	ErrValidation = errors.New("catalog: validation failed")
)

type IDGenerator interface {
	NewID() string
}

// StockObserver is notified when a new product enters the catalog.
type StockObserver interface {
	OnStockChanged(ctx context.Context, productID string)
}

type Service struct {
	products domcatalog.Repository
	ids      IDGenerator
	observer StockObserver
	in       application.Instrumentation
}

func NewService(products domcatalog.Repository, ids IDGenerator, observer StockObserver, in application.Instrumentation) *Service {
	return &Service{products: products, ids: ids, observer: observer, in: in}
}

// List returns every product, or only those of category when it is set.
func (s *Service) List(ctx context.Context, category string) (_ []*domcatalog.Product, err error) {
	ctx, iv := s.in.Begin(ctx, "catalog.list", "ListProducts", attribute.String("product.category", category))
	defer func() { iv.End(ctx, err) }()

	var c domcatalog.Category
	if category != "" {
		if c, err = domcatalog.ParseCategory(category); err != nil {
			iv.Fail("CATEGORY_INVALID")
			return nil, fmt.Errorf("%w: %w", ErrValidation, err)
		}
	}
	out, err := s.products.List(ctx, c)
	if err != nil {
		iv.Fail("REPO_LIST_FAILED")
		return nil, err
	}
	iv.Field("count", len(out))
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (_ *domcatalog.Product, err error) {
	ctx, iv := s.in.Begin(ctx, "catalog.get", "GetProduct", attribute.String("product.id", id))
	defer func() { iv.End(ctx, err) }()

	p, err := s.products.Get(ctx, id)
	if err != nil {
		iv.Fail("PRODUCT_LOOKUP_FAILED")
		return nil, err
	}
	return p, nil
}

// Create adds a product. Admin only.
func (s *Service) Create(ctx context.Context, caller domuser.Identity, params domcatalog.NewProductParams) (_ *domcatalog.Product, err error) {
	ctx, iv := s.in.Begin(ctx, "catalog.create", "CreateProduct")
	defer func() { iv.End(ctx, err) }()

	if !caller.IsAdmin() {
		iv.Fail("FORBIDDEN")
		return nil, ErrForbidden
	}
	p, err := domcatalog.New(s.ids.NewID(), params)
	if err != nil {
		iv.Fail("PRODUCT_INVALID")
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if err = s.products.Insert(ctx, p); err != nil {
		iv.Fail("REPO_INSERT_FAILED")
		return nil, err
	}
	iv.Field("product_id", p.ID)
	if s.observer != nil {
		s.observer.OnStockChanged(ctx, p.ID)
	}
	return p, nil
}
