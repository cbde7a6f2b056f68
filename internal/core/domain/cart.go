package domain

import "github.com/shopspring/decimal"

// CartProduct is the priced snapshot of a catalog item taken when it is
// added to the cart. Later catalog price changes do not affect it.
type CartProduct struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	ImageRef  string          `json:"image_ref"`
}

// CartLineItem aggregates one product at a quantity. ID equals the product id,
// so a cart holds at most one line per distinct product.
type CartLineItem struct {
	ID       string      `json:"id"`
	Product  CartProduct `json:"product"`
	Quantity int         `json:"quantity"`
}

// LineTotal returns unit price times quantity.
func (li CartLineItem) LineTotal() decimal.Decimal {
	return li.Product.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// CartState is a fully priced cart snapshot. Items keep insertion order.
// Subtotal, DiscountAmount and Total are always consistent with Items and
// the discount fields; snapshots are never published half-recomputed.
type CartState struct {
	Items              []CartLineItem  `json:"items"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	DiscountPercentage int             `json:"discount_percentage"`
	DiscountApplied    bool            `json:"discount_applied"`
	DiscountAmount     decimal.Decimal `json:"discount_amount"`
	Total              decimal.Decimal `json:"total"`
}

// EmptyCartState returns a priced snapshot of an empty cart.
func EmptyCartState() CartState {
	return CartState{
		Items:          []CartLineItem{},
		Subtotal:       decimal.Zero,
		DiscountAmount: decimal.Zero,
		Total:          decimal.Zero,
	}
}
