package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/escabi/escabiapi/internal/application"
	domcart "github.com/escabi/escabiapi/internal/domain/cart"
	domcatalog "github.com/escabi/escabiapi/internal/domain/catalog"
	domuser "github.com/escabi/escabiapi/internal/domain/user"

	"go.opentelemetry.io/otel/attribute"
)

var (
	ErrValidation     = errors.New("cart: validation failed")
	ErrAgeNotVerified = domuser.ErrAgeNotVerified
	ErrItemNotFound   = domcart.ErrItemNotFound
)

// Line is a cart item priced at the current catalog price.
type Line struct {
	ProductID string
	Name      string
	Price     int64
	Quantity  int
	Subtotal  int64
}

// View is the priced cart returned to callers.
type View struct {
	UserID string
	Items  []Line
	Total  int64
}

type Service struct {
	carts    domcart.Repository
	products domcatalog.Repository
	in       application.Instrumentation
}

func NewService(carts domcart.Repository, products domcatalog.Repository, in application.Instrumentation) *Service {
	return &Service{carts: carts, products: products, in: in}
}

func (s *Service) Get(ctx context.Context, caller domuser.Identity) (_ *View, err error) {
	ctx, iv := s.in.Begin(ctx, "cart.get", "GetCart")
	defer func() { iv.End(ctx, err) }()

	if !caller.AgeVerified {
		iv.Fail("AGE_NOT_VERIFIED")
		return nil, ErrAgeNotVerified
	}
	c, err := s.carts.GetOrCreate(ctx, caller.UserID)
	if err != nil {
		iv.Fail("CART_LOOKUP_FAILED")
		return nil, err
	}
	return s.view(ctx, c)
}

// AddItem adds quantity to the product's line, creating it when absent.
func (s *Service) AddItem(ctx context.Context, caller domuser.Identity, productID string, quantity int) (_ *View, err error) {
	ctx, iv := s.in.Begin(ctx, "cart.add_item", "AddCartItem", attribute.String("product.id", productID))
	defer func() { iv.End(ctx, err) }()

	if !caller.AgeVerified {
		iv.Fail("AGE_NOT_VERIFIED")
		return nil, ErrAgeNotVerified
	}
	if quantity <= 0 {
		iv.Fail("QUANTITY_INVALID")
		return nil, fmt.Errorf("%w: quantity must be greater than zero", ErrValidation)
	}
	c, err := s.carts.GetOrCreate(ctx, caller.UserID)
	if err != nil {
		iv.Fail("CART_LOOKUP_FAILED")
		return nil, err
	}
	if err = s.ensureStock(ctx, productID, c.Quantity(productID)+quantity); err != nil {
		iv.Fail("STOCK_CHECK_FAILED")
		return nil, err
	}
	if err = c.Add(productID, quantity); err != nil {
		iv.Fail("CART_UPDATE_FAILED")
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if err = s.carts.Save(ctx, c); err != nil {
		iv.Fail("REPO_SAVE_FAILED")
		return nil, err
	}
	return s.view(ctx, c)
}

// UpdateItem sets the line quantity; zero removes the line.
func (s *Service) UpdateItem(ctx context.Context, caller domuser.Identity, productID string, quantity int) (_ *View, err error) {
	ctx, iv := s.in.Begin(ctx, "cart.update_item", "UpdateCartItem", attribute.String("product.id", productID))
	defer func() { iv.End(ctx, err) }()

	if !caller.AgeVerified {
		iv.Fail("AGE_NOT_VERIFIED")
		return nil, ErrAgeNotVerified
	}
	if quantity < 0 {
		iv.Fail("QUANTITY_INVALID")
		return nil, fmt.Errorf("%w: quantity must be zero or greater", ErrValidation)
	}
	c, err := s.carts.GetOrCreate(ctx, caller.UserID)
	if err != nil {
		iv.Fail("CART_LOOKUP_FAILED")
		return nil, err
	}
	if c.Quantity(productID) == 0 {
		iv.Fail("ITEM_NOT_FOUND")
		return nil, ErrItemNotFound
	}
	if quantity > 0 {
		if err = s.ensureStock(ctx, productID, quantity); err != nil {
			iv.Fail("STOCK_CHECK_FAILED")
			return nil, err
		}
	}
	if err = c.Update(productID, quantity); err != nil {
		iv.Fail("CART_UPDATE_FAILED")
		return nil, err
	}
	if err = s.carts.Save(ctx, c); err != nil {
		iv.Fail("REPO_SAVE_FAILED")
		return nil, err
	}
	return s.view(ctx, c)
}

func (s *Service) RemoveItem(ctx context.Context, caller domuser.Identity, productID string) (_ *View, err error) {
	ctx, iv := s.in.Begin(ctx, "cart.remove_item", "RemoveCartItem", attribute.String("product.id", productID))
	defer func() { iv.End(ctx, err) }()

	if !caller.AgeVerified {
		iv.Fail("AGE_NOT_VERIFIED")
		return nil, ErrAgeNotVerified
	}
	c, err := s.carts.GetOrCreate(ctx, caller.UserID)
	if err != nil {
		iv.Fail("CART_LOOKUP_FAILED")
		return nil, err
	}
	if err = c.Remove(productID); err != nil {
		iv.Fail("ITEM_NOT_FOUND")
		return nil, err
	}
	if err = s.carts.Save(ctx, c); err != nil {
		iv.Fail("REPO_SAVE_FAILED")
		return nil, err
	}
	return s.view(ctx, c)
}

func (s *Service) Clear(ctx context.Context, caller domuser.Identity) (err error) {
	ctx, iv := s.in.Begin(ctx, "cart.clear", "ClearCart")
	defer func() { iv.End(ctx, err) }()

	if !caller.AgeVerified {
		iv.Fail("AGE_NOT_VERIFIED")
		return ErrAgeNotVerified
	}
	if err = s.carts.Clear(ctx, caller.UserID); err != nil {
		iv.Fail("REPO_CLEAR_FAILED")
	}
	return err
}

func (s *Service) ensureStock(ctx context.Context, productID string, want int) error {
	p, err := s.products.Get(ctx, productID)
	if err != nil {
		return err
	}
	if p.Stock < want {
		return &domcatalog.InsufficientStockError{ProductID: p.ID, Available: p.Stock, Requested: want}
	}
	return nil
}

// view prices the cart. Lines whose product disappeared are kept unpriced.
func (s *Service) view(ctx context.Context, c *domcart.Cart) (*View, error) {
	v := &View{UserID: c.UserID, Items: make([]Line, 0, len(c.Items))}
	for _, it := range c.Items {
		line := Line{ProductID: it.ProductID, Quantity: it.Quantity}
		p, err := s.products.Get(ctx, it.ProductID)
		switch {
		case err == nil:
			line.Name = p.Name
			line.Price = p.Price
			line.Subtotal = p.Price * int64(it.Quantity)
		case !errors.Is(err, domcatalog.ErrNotFound):
			return nil, err
		}
		v.Total += line.Subtotal
		v.Items = append(v.Items, line)
	}
	return v, nil
}
