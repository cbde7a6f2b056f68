package domain

import "github.com/shopspring/decimal"

// Product is a catalog entry as served by the backend.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url"`
}

// CartSnapshot converts a catalog product into the priced snapshot stored
// in the cart at add-time.
func (p Product) CartSnapshot() CartProduct {
	return CartProduct{
		ID:        p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		ImageRef:  p.ImageURL,
	}
}
