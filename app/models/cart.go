package models

import "github.com/shopspring/decimal"

// ProductSnapshot is the copy of a product taken when it enters the cart
type ProductSnapshot struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Image string          `json:"image,omitempty"`
}

// SnapshotOf copies the fields of p that a cart line keeps
func SnapshotOf(p Product) ProductSnapshot {
	return ProductSnapshot{ID: p.ID, Name: p.Name, Price: p.Price, Image: p.Image}
}

// CartLine is one product-and-quantity entry of the cart
type CartLine struct {
	Product  ProductSnapshot `json:"product"`
	Quantity int             `json:"quantity"`
	Notes    string          `json:"notes,omitempty"`
}

// LineTotal is price times quantity
func (l CartLine) LineTotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// CartTotals holds the values derived from the cart on read
type CartTotals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// CartState is a consistent read of the whole cart
type CartState struct {
	Lines     []CartLine `json:"lines"`
	OrderType OrderType  `json:"orderType"`
	Totals    CartTotals `json:"totals"`
	ItemCount int        `json:"itemCount"`
}
