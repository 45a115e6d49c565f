package cart

import (
	"errors"
	"time"
)

var (
	ErrItemNotFound    = errors.New("cart: item not found")
	ErrInvalidQuantity = errors.New("cart: quantity must be greater than zero")
)

type Item struct {
	ProductID string
	Quantity  int
}

// Cart belongs to exactly one user. Items are unique per product.
type Cart struct {
	UserID    string
	Items     []Item
	UpdatedAt time.Time
}

func New(userID string) *Cart {
	return &Cart{UserID: userID, Items: []Item{}, UpdatedAt: time.Now().UTC()}
}

func (c *Cart) IsEmpty() bool { return len(c.Items) == 0 }

// Quantity returns the quantity held for productID, or zero.
func (c *Cart) Quantity(productID string) int {
	if i := c.index(productID); i >= 0 {
		return c.Items[i].Quantity
	}
	return 0
}

// Add sums qty onto an existing line or appends a new one.
func (c *Cart) Add(productID string, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if i := c.index(productID); i >= 0 {
		c.Items[i].Quantity += qty
	} else {
		c.Items = append(c.Items, Item{ProductID: productID, Quantity: qty})
	}
	c.touch()
	return nil
}

// Update sets the quantity of an existing line. Zero removes it.
func (c *Cart) Update(productID string, qty int) error {
	if qty < 0 {
		return ErrInvalidQuantity
	}
	i := c.index(productID)
	if i < 0 {
		return ErrItemNotFound
	}
	if qty == 0 {
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
	} else {
		c.Items[i].Quantity = qty
	}
	c.touch()
	return nil
}

func (c *Cart) Remove(productID string) error {
	return c.Update(productID, 0)
}

func (c *Cart) Clear() {
	c.Items = []Item{}
	c.touch()
}

func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Items = append([]Item{}, c.Items...)
	return &clone
}

func (c *Cart) index(productID string) int {
	for i, it := range c.Items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) touch() {
	c.UpdatedAt = time.Now().UTC()
}
