package httppresentation

import (
	"time"

	appauth "github.com/escabi/escabiapi/internal/application/auth"
	appcart "github.com/escabi/escabiapi/internal/application/cart"
	domcatalog "github.com/escabi/escabiapi/internal/domain/catalog"
	dominv "github.com/escabi/escabiapi/internal/domain/inventory"
	domorder "github.com/escabi/escabiapi/internal/domain/order"
	domuser "github.com/escabi/escabiapi/internal/domain/user"
)

// Amounts on the wire are integers in minor currency units.

const dateLayout = "2006-01-02"

type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func toTokenResponse(t *appauth.Token) tokenResponse {
	return tokenResponse{AccessToken: t.AccessToken, TokenType: t.TokenType, ExpiresAt: t.ExpiresAt}
}

type userResponse struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	BirthDate   string    `json:"birth_date,omitempty"`
	Roles       []string  `json:"roles"`
	AgeVerified bool      `json:"age_verified"`
	CreatedAt   time.Time `json:"created_at"`
}

func toUserResponse(u *domuser.User) userResponse {
	roles := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		roles = append(roles, string(r))
	}
	out := userResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Roles:       roles,
		AgeVerified: u.AgeVerified,
		CreatedAt:   u.CreatedAt,
	}
	if u.BirthDate != nil {
		out.BirthDate = u.BirthDate.Format(dateLayout)
	}
	return out
}

type productResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       int64     `json:"price"`
	Category    string    `json:"category"`
	Stock       int       `json:"stock"`
	ImageURL    string    `json:"image_url,omitempty"`
	ABV         *float64  `json:"abv,omitempty"`
	VolumeML    *int      `json:"volume_ml,omitempty"`
	Origin      string    `json:"origin,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toProductResponse(p *domcatalog.Product) productResponse {
	return productResponse{
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

type cartLineResponse struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
	Subtotal  int64  `json:"subtotal"`
}

type cartResponse struct {
	UserID string             `json:"user_id"`
	Items  []cartLineResponse `json:"items"`
	Total  int64              `json:"total"`
}

func toCartResponse(v *appcart.View) cartResponse {
	items := make([]cartLineResponse, 0, len(v.Items))
	for _, l := range v.Items {
		items = append(items, cartLineResponse{
			ProductID: l.ProductID,
			Name:      l.Name,
			Price:     l.Price,
			Quantity:  l.Quantity,
			Subtotal:  l.Subtotal,
		})
	}
	return cartResponse{UserID: v.UserID, Items: items, Total: v.Total}
}

type orderItemResponse struct {
	ProductID       string `json:"product_id"`
	Name            string `json:"name"`
	Quantity        int    `json:"quantity"`
	PriceAtPurchase int64  `json:"price_at_purchase"`
}

type addressPayload struct {
	Street  string `json:"street" binding:"required"`
	City    string `json:"city" binding:"required"`
	State   string `json:"state" binding:"required"`
	ZipCode string `json:"zip_code" binding:"required"`
	Country string `json:"country" binding:"required"`
}

type orderResponse struct {
	ID              string              `json:"id"`
	UserID          string              `json:"user_id"`
	Items           []orderItemResponse `json:"items"`
	TotalAmount     int64               `json:"total_amount"`
	ShippingAddress addressPayload      `json:"shipping_address"`
	Status          string              `json:"status"`
	PaymentID       string              `json:"payment_id,omitempty"`
	PreferenceID    string              `json:"preference_id,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

func toOrderResponse(o *domorder.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orderItemResponse{
			ProductID:       it.ProductID,
			Name:            it.Name,
			Quantity:        it.Quantity,
			PriceAtPurchase: it.PriceAtPurchase,
		})
	}
	a := o.ShippingAddress
	return orderResponse{
		ID:              o.ID,
		UserID:          o.UserID,
		Items:           items,
		TotalAmount:     o.TotalAmount,
		ShippingAddress: addressPayload{Street: a.Street, City: a.City, State: a.State, ZipCode: a.ZipCode, Country: a.Country},
		Status:          string(o.Status),
		PaymentID:       o.PaymentID,
		PreferenceID:    o.PreferenceID,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

type alertResponse struct {
	ID           string    `json:"id"`
	ProductID    string    `json:"product_id"`
	ProductName  string    `json:"product_name"`
	CurrentStock int       `json:"current_stock"`
	Threshold    int       `json:"threshold"`
	Message      string    `json:"message"`
	Timestamp    time.Time `json:"timestamp"`
}

func toAlertResponse(a *dominv.Alert) alertResponse {
	return alertResponse{
		ID:           a.ID,
		ProductID:    a.ProductID,
		ProductName:  a.ProductName,
		CurrentStock: a.CurrentStock,
		Threshold:    a.Threshold,
		Message:      a.Message,
		Timestamp:    a.Timestamp,
	}
}
