package services

import (
	"context"
	"fmt"
	"strings"

	"PosTerminal/app/models"

	"github.com/skip2/go-qrcode"
)

// OrderBroadcaster pushes order events to connected kitchen and POS devices
type OrderBroadcaster interface {
	OrderCreated(order models.Order)
	OrderUpdated(order models.Order)
}

// KitchenBoard groups active orders by status, oldest first
type KitchenBoard struct {
	Pending   []models.Order `json:"pending"`
	Preparing []models.Order `json:"preparing"`
	Ready     []models.Order `json:"ready"`
}

// KitchenService turns carts into orders and moves them across the kitchen board
type KitchenService struct {
	*BaseService
	store       OrderStore
	broadcaster OrderBroadcaster
}

// NewKitchenService creates a new kitchen service
func NewKitchenService(store OrderStore, base *BaseService) *KitchenService {
	return &KitchenService{BaseService: base, store: store}
}

// SetBroadcaster sets where order events are sent
func (s *KitchenService) SetBroadcaster(b OrderBroadcaster) {
	s.broadcaster = b
}

// Checkout sends the cart to the kitchen. The cart is cleared only when the order is stored.
func (s *KitchenService) Checkout(ctx context.Context, cart *CartService, tableID, cashierID string) (*models.Order, error) {
	state := cart.State()
	if len(state.Lines) == 0 {
		return nil, models.NewValidationError("cart", "cart is empty")
	}

	order := &models.Order{
		TableID:   strings.TrimSpace(tableID),
		Status:    models.OrderStatusPending,
		Type:      state.OrderType,
		Subtotal:  state.Totals.Subtotal,
		Tax:       state.Totals.Tax,
		Total:     state.Totals.Total,
		CashierID: cashierID,
	}
	if order.Type == models.OrderTypeTakeaway {
		order.TableID = ""
	}
	for _, line := range state.Lines {
		order.Items = append(order.Items, models.OrderItem{
			ProductID: line.Product.ID,
			Name:      line.Product.Name,
			Price:     line.Product.Price,
			Quantity:  line.Quantity,
			Notes:     line.Notes,
		})
	}

	created, err := s.store.CreateOrder(ctx, order)
	if err != nil {
		return nil, s.persistFailure("checkout", err)
	}
	cart.ClearCart()

	s.logInfo("Order sent to kitchen", fmt.Sprintf("#%d total=%s", created.Number, created.Total))
	s.notify(models.ToastSuccess, fmt.Sprintf("Order #%d sent to kitchen", created.Number))
	if s.broadcaster != nil {
		s.broadcaster.OrderCreated(*created)
	}
	return created, nil
}

// Board returns the active orders grouped by status
func (s *KitchenService) Board(ctx context.Context) (*KitchenBoard, error) {
	orders, err := s.store.GetOrders(ctx, models.ActiveOrderStatuses...)
	if err != nil {
		return nil, s.fetchFailure("orders", err)
	}

	board := &KitchenBoard{
		Pending:   []models.Order{},
		Preparing: []models.Order{},
		Ready:     []models.Order{},
	}
	for _, o := range orders {
		switch o.Status {
		case models.OrderStatusPending:
			board.Pending = append(board.Pending, o)
		case models.OrderStatusPreparing:
			board.Preparing = append(board.Preparing, o)
		case models.OrderStatusReady:
			board.Ready = append(board.Ready, o)
		}
	}
	return board, nil
}

// Order returns a single order with its items
func (s *KitchenService) Order(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, s.persistFailure("load order", err)
	}
	return order, nil
}

// Advance moves an order to its next status
func (s *KitchenService) Advance(ctx context.Context, orderID string) (*models.Order, error) {
	current, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, s.persistFailure("advance order", err)
	}
	next, ok := current.Status.Next()
	if !ok {
		return nil, fmt.Errorf("order #%d is %s: %w", current.Number, current.Status, models.ErrInvalidTransition)
	}

	updated, err := s.store.UpdateOrderStatus(ctx, orderID, next)
	if err != nil {
		return nil, s.persistFailure("advance order", err)
	}

	if next == models.OrderStatusReady {
		s.notify(models.ToastInfo, fmt.Sprintf("Order #%d is ready", updated.Number))
	}
	if s.broadcaster != nil {
		s.broadcaster.OrderUpdated(*updated)
	}
	return updated, nil
}

// TicketQR renders the pickup QR code printed on takeaway tickets as a PNG
func (s *KitchenService) TicketQR(order models.Order, size int) ([]byte, error) {
	if size <= 0 {
		size = 256
	}
	payload := fmt.Sprintf("ORDER:%s:%d", order.ID, order.Number)
	png, err := qrcode.Encode(payload, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code: %w", err)
	}
	return png, nil
}
