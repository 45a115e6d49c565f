package mongo

import (
	"strings"
	"time"

	domcart "github.com/escabi/escabiapi/internal/domain/cart"
	domcatalog "github.com/escabi/escabiapi/internal/domain/catalog"
	dominv "github.com/escabi/escabiapi/internal/domain/inventory"
	domorder "github.com/escabi/escabiapi/internal/domain/order"
	dompay "github.com/escabi/escabiapi/internal/domain/payment"
	domuser "github.com/escabi/escabiapi/internal/domain/user"
)

type productDoc struct {
	ID          string    `bson:"_id"`
	Name        string    `bson:"name"`
	Description string    `bson:"description,omitempty"`
	Price       int64     `bson:"price"`
	Category    string    `bson:"category"`
	Stock       int       `bson:"stock"`
	ImageURL    string    `bson:"image_url,omitempty"`
	ABV         *float64  `bson:"abv,omitempty"`
	VolumeML    *int      `bson:"volume_ml,omitempty"`
	Origin      string    `bson:"origin,omitempty"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

func toProductDoc(p *domcatalog.Product) productDoc {
	return productDoc{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Category:    string(p.Category),
		Stock:       p.Stock,
		ImageURL:    p.ImageURL,
		ABV:         p.ABV,
		VolumeML:    p.VolumeML,
		Origin:      p.Origin,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (d productDoc) domain() *domcatalog.Product {
	return &domcatalog.Product{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Price:       d.Price,
		Category:    domcatalog.Category(d.Category),
		Stock:       d.Stock,
		ImageURL:    d.ImageURL,
		ABV:         d.ABV,
		VolumeML:    d.VolumeML,
		Origin:      d.Origin,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}

type cartItemDoc struct {
	ProductID string `bson:"product_id"`
	Quantity  int    `bson:"quantity"`
}

type cartDoc struct {
	UserID    string        `bson:"_id"`
	Items     []cartItemDoc `bson:"items"`
	UpdatedAt time.Time     `bson:"updated_at"`
}

func toCartDoc(c *domcart.Cart) cartDoc {
	items := make([]cartItemDoc, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, cartItemDoc{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return cartDoc{UserID: c.UserID, Items: items, UpdatedAt: c.UpdatedAt}
}

func (d cartDoc) domain() *domcart.Cart {
	items := make([]domcart.Item, 0, len(d.Items))
	for _, it := range d.Items {
		items = append(items, domcart.Item{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return &domcart.Cart{UserID: d.UserID, Items: items, UpdatedAt: d.UpdatedAt.UTC()}
}

type orderItemDoc struct {
	ProductID       string `bson:"product_id"`
	Name            string `bson:"name"`
	Quantity        int    `bson:"quantity"`
	PriceAtPurchase int64  `bson:"price_at_purchase"`
}

type addressDoc struct {
	Street  string `bson:"street"`
	City    string `bson:"city"`
	State   string `bson:"state"`
	ZipCode string `bson:"zip_code"`
	Country string `bson:"country"`
}

type orderDoc struct {
	ID              string         `bson:"_id"`
	UserID          string         `bson:"user_id"`
	Items           []orderItemDoc `bson:"items"`
	TotalAmount     int64          `bson:"total_amount"`
	ShippingAddress addressDoc     `bson:"shipping_address"`
	Status          string         `bson:"status"`
	PaymentID       string         `bson:"payment_id,omitempty"`
	PreferenceID    string         `bson:"payment_preference_id,omitempty"`
	CreatedAt       time.Time      `bson:"created_at"`
	UpdatedAt       time.Time      `bson:"updated_at"`
}

func toOrderDoc(o *domorder.Order) orderDoc {
	items := make([]orderItemDoc, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orderItemDoc{
			ProductID:       it.ProductID,
			Name:            it.Name,
			Quantity:        it.Quantity,
			PriceAtPurchase: it.PriceAtPurchase,
		})
	}
	a := o.ShippingAddress
	return orderDoc{
		ID:              o.ID,
		UserID:          o.UserID,
		Items:           items,
		TotalAmount:     o.TotalAmount,
		ShippingAddress: addressDoc{Street: a.Street, City: a.City, State: a.State, ZipCode: a.ZipCode, Country: a.Country},
		Status:          string(o.Status),
		PaymentID:       o.PaymentID,
		PreferenceID:    o.PreferenceID,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func (d orderDoc) domain() *domorder.Order {
	items := make([]domorder.Item, 0, len(d.Items))
	for _, it := range d.Items {
		items = append(items, domorder.Item{
			ProductID:       it.ProductID,
			Name:            it.Name,
			Quantity:        it.Quantity,
			PriceAtPurchase: it.PriceAtPurchase,
		})
	}
	a := d.ShippingAddress
	return &domorder.Order{
		ID:              d.ID,
		UserID:          d.UserID,
		Items:           items,
		TotalAmount:     d.TotalAmount,
		ShippingAddress: domorder.Address{Street: a.Street, City: a.City, State: a.State, ZipCode: a.ZipCode, Country: a.Country},
		Status:          domorder.Status(d.Status),
		PaymentID:       d.PaymentID,
		PreferenceID:    d.PreferenceID,
		CreatedAt:       d.CreatedAt.UTC(),
		UpdatedAt:       d.UpdatedAt.UTC(),
	}
}

type reservationDoc struct {
	ProductID string `bson:"product_id"`
	Quantity  int    `bson:"quantity"`
}

type intentDoc struct {
	OrderID   string           `bson:"_id"`
	UserID    string           `bson:"user_id"`
	Reserved  []reservationDoc `bson:"reserved"`
	State     string           `bson:"state"`
	CreatedAt time.Time        `bson:"created_at"`
	UpdatedAt time.Time        `bson:"updated_at"`
}

func toIntentDoc(i *domorder.Intent) intentDoc {
	res := make([]reservationDoc, 0, len(i.Reserved))
	for _, r := range i.Reserved {
		res = append(res, reservationDoc{ProductID: r.ProductID, Quantity: r.Quantity})
	}
	return intentDoc{
		OrderID:   i.OrderID,
		UserID:    i.UserID,
		Reserved:  res,
		State:     string(i.State),
		CreatedAt: i.CreatedAt,
		UpdatedAt: i.UpdatedAt,
	}
}

func (d intentDoc) domain() *domorder.Intent {
	res := make([]domorder.Reservation, 0, len(d.Reserved))
	for _, r := range d.Reserved {
		res = append(res, domorder.Reservation{ProductID: r.ProductID, Quantity: r.Quantity})
	}
	return &domorder.Intent{
		OrderID:   d.OrderID,
		UserID:    d.UserID,
		Reserved:  res,
		State:     domorder.IntentState(d.State),
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

// paymentDoc keeps the gateway payload verbatim as a string.
type paymentDoc struct {
	ID                string    `bson:"_id"`
	Gateway           string    `bson:"gateway"`
	PaymentID         string    `bson:"payment_id"`
	ExternalReference string    `bson:"external_reference,omitempty"`
	Status            string    `bson:"status"`
	Raw               string    `bson:"raw"`
	ReceivedAt        time.Time `bson:"received_at"`
}

func toPaymentDoc(r *dompay.Record) paymentDoc {
	return paymentDoc{
		ID:                r.ID,
		Gateway:           r.Gateway,
		PaymentID:         r.PaymentID,
		ExternalReference: r.ExternalReference,
		Status:            string(r.Status),
		Raw:               string(r.Raw),
		ReceivedAt:        r.ReceivedAt,
	}
}

func (d paymentDoc) domain() *dompay.Record {
	return &dompay.Record{
		ID:                d.ID,
		Gateway:           d.Gateway,
		PaymentID:         d.PaymentID,
		ExternalReference: d.ExternalReference,
		Status:            dompay.Status(d.Status),
		Raw:               []byte(d.Raw),
		ReceivedAt:        d.ReceivedAt.UTC(),
	}
}

type alertDoc struct {
	ID           string    `bson:"_id"`
	ProductID    string    `bson:"product_id"`
	ProductName  string    `bson:"product_name"`
	CurrentStock int       `bson:"current_stock"`
	Threshold    int       `bson:"threshold"`
	Message      string    `bson:"message"`
	Timestamp    time.Time `bson:"timestamp"`
}

func toAlertDoc(a *dominv.Alert) alertDoc {
	return alertDoc{
		ID:           a.ID,
		ProductID:    a.ProductID,
		ProductName:  a.ProductName,
		CurrentStock: a.CurrentStock,
		Threshold:    a.Threshold,
		Message:      a.Message,
		Timestamp:    a.Timestamp,
	}
}

func (d alertDoc) domain() *dominv.Alert {
	return &dominv.Alert{
		ID:           d.ID,
		ProductID:    d.ProductID,
		ProductName:  d.ProductName,
		CurrentStock: d.CurrentStock,
		Threshold:    d.Threshold,
		Message:      d.Message,
		Timestamp:    d.Timestamp.UTC(),
	}
}

// userDoc stores a lowercased username next to the display form so the unique
// index is case-insensitive.
type userDoc struct {
	ID            string     `bson:"_id"`
	Username      string     `bson:"username"`
	UsernameLower string     `bson:"username_lower"`
	Email         string     `bson:"email"`
	PasswordHash  string     `bson:"password_hash"`
	BirthDate     *time.Time `bson:"birth_date,omitempty"`
	Roles         []string   `bson:"roles"`
	AgeVerified   bool       `bson:"age_verified"`
	CreatedAt     time.Time  `bson:"created_at"`
}

func toUserDoc(u *domuser.User) userDoc {
	roles := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		roles = append(roles, string(r))
	}
	return userDoc{
		ID:            u.ID,
		Username:      u.Username,
		UsernameLower: strings.ToLower(u.Username),
		Email:         strings.ToLower(u.Email),
		PasswordHash:  u.PasswordHash,
		BirthDate:     u.BirthDate,
		Roles:         roles,
		AgeVerified:   u.AgeVerified,
		CreatedAt:     u.CreatedAt,
	}
}

func (d userDoc) domain() *domuser.User {
	roles := make([]domuser.Role, 0, len(d.Roles))
	for _, r := range d.Roles {
		roles = append(roles, domuser.Role(r))
	}
	u := &domuser.User{
		ID:           d.ID,
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Roles:        roles,
		AgeVerified:  d.AgeVerified,
		CreatedAt:    d.CreatedAt.UTC(),
	}
	if d.BirthDate != nil {
		b := d.BirthDate.UTC()
		u.BirthDate = &b
	}
	return u
}
