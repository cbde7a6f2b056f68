package domain

// DefaultDiscountCodes returns the built-in discount table, mapping
// normalized codes to a percentage off the cart subtotal. A fresh map is
// returned on every call so callers and tests can mutate their own copy.
func DefaultDiscountCodes() map[string]int {
	return map[string]int{
		"PROMO10":    10,
		"PROMO20":    20,
		"NEXTBYTE20": 20,
		"DESCUENTO5": 5,
	}
}
