package services

import (
	"sync"

	"PosTerminal/app/models"

	"github.com/shopspring/decimal"
)

// DefaultTaxRate is applied to the cart subtotal
var DefaultTaxRate = decimal.RequireFromString("0.08")

// CartService holds the working order of a sales session.
// Every operation is local and cannot fail except SetOrderType on bad input.
type CartService struct {
	mu        sync.RWMutex
	lines     []models.CartLine
	orderType models.OrderType
	taxRate   decimal.Decimal
}

// NewCartService creates an empty dine-in cart
func NewCartService(taxRate decimal.Decimal) *CartService {
	if taxRate.IsNegative() {
		taxRate = DefaultTaxRate
	}
	return &CartService{
		orderType: models.OrderTypeDineIn,
		taxRate:   taxRate,
	}
}

// indexOf returns the line position of productID or -1; callers hold mu
func (s *CartService) indexOf(productID string) int {
	for i, line := range s.lines {
		if line.Product.ID == productID {
			return i
		}
	}
	return -1
}

// AddToCart adds one unit of product, snapshotting it on first add
func (s *CartService) AddToCart(product models.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(product.ID); i >= 0 {
		s.lines[i].Quantity++
		return
	}
	s.lines = append(s.lines, models.CartLine{
		Product:  models.SnapshotOf(product),
		Quantity: 1,
	})
}

// RemoveFromCart deletes the line for productID; unknown ids are ignored
func (s *CartService) RemoveFromCart(productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(productID); i >= 0 {
		s.lines = append(s.lines[:i], s.lines[i+1:]...)
	}
}

// UpdateQuantity changes a line's quantity by delta.
// A change that would leave the quantity at zero or below is ignored.
func (s *CartService) UpdateQuantity(productID string, delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(productID)
	if i < 0 {
		return
	}
	if next := s.lines[i].Quantity + delta; next > 0 {
		s.lines[i].Quantity = next
	}
}

// SetNotes attaches a kitchen note to a line
func (s *CartService) SetNotes(productID, notes string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(productID); i >= 0 {
		s.lines[i].Notes = notes
	}
}

// ClearCart drops every line; the order type is kept
func (s *CartService) ClearCart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = nil
}

// SetOrderType switches between dine-in and takeaway
func (s *CartService) SetOrderType(orderType models.OrderType) error {
	if !orderType.Valid() {
		return models.NewValidationError("orderType", "must be dine-in or takeaway")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orderType = orderType
	return nil
}

// OrderType returns the current order type
func (s *CartService) OrderType() models.OrderType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.orderType
}

// Lines returns a copy of the lines in display order
func (s *CartService) Lines() []models.CartLine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.CartLine(nil), s.lines...)
}

// ItemCount is the sum of all quantities
func (s *CartService) ItemCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.itemCount()
}

func (s *CartService) itemCount() int {
	count := 0
	for _, line := range s.lines {
		count += line.Quantity
	}
	return count
}

// Totals computes subtotal, tax and total from the current lines
func (s *CartService) Totals() models.CartTotals {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totals()
}

func (s *CartService) totals() models.CartTotals {
	subtotal := decimal.Zero
	for _, line := range s.lines {
		subtotal = subtotal.Add(line.LineTotal())
	}
	tax := subtotal.Mul(s.taxRate)
	return models.CartTotals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}
}

// State returns lines, order type and totals read under one lock
func (s *CartService) State() models.CartState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.CartState{
		Lines:     append([]models.CartLine{}, s.lines...),
		OrderType: s.orderType,
		Totals:    s.totals(),
		ItemCount: s.itemCount(),
	}
}
