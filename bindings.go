package main

import (
	"encoding/base64"
	"errors"

	"PosTerminal/app/models"
	"PosTerminal/app/services"

	"github.com/shopspring/decimal"
)

var errSetupIncomplete = errors.New("setup has not been completed")

// require checks that a user is logged in and holds every permission in perms
func (a *App) require(perms ...services.Permission) error {
	a.mu.Lock()
	session := a.session
	a.mu.Unlock()

	if session == nil {
		return models.ErrInvalidCredentials
	}
	for _, p := range perms {
		if !session.Can(p) {
			a.LoggerService.LogWarning("Permission denied", "User: "+session.User.Username, "Permission: "+string(p))
			a.ToastService.Warning("You do not have permission to do that")
			return models.ErrForbidden
		}
	}
	return nil
}

func (a *App) currentUserID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session == nil {
		return ""
	}
	return a.session.User.ID
}

// Session

// Login starts a session for a username or e-mail
func (a *App) Login(identifier, password string) (*services.Session, error) {
	if a.AuthService == nil {
		return nil, errSetupIncomplete
	}
	session, err := a.AuthService.Login(a.ctx, identifier, password)
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	a.session = session
	a.mu.Unlock()
	return session, nil
}

// Register creates a cashier account and logs it in
func (a *App) Register(name, email, password string) (*services.Session, error) {
	if a.AuthService == nil {
		return nil, errSetupIncomplete
	}
	session, err := a.AuthService.Register(a.ctx, name, email, password)
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	a.session = session
	a.mu.Unlock()
	return session, nil
}

// Logout ends the session and empties the cart
func (a *App) Logout() {
	a.mu.Lock()
	a.session = nil
	a.mu.Unlock()
	a.CartService.ClearCart()
}

// CurrentSession returns the logged in session, or nil
func (a *App) CurrentSession() *services.Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session
}

// GetPermissions lists what the logged in user may do
func (a *App) GetPermissions() []services.Permission {
	session := a.CurrentSession()
	if session == nil {
		return []services.Permission{}
	}
	return session.Permissions.List()
}

// UpdateProfile changes the name and e-mail of the logged in user
func (a *App) UpdateProfile(name, email string) (*models.User, error) {
	if err := a.require(services.PermEditProfile); err != nil {
		return nil, err
	}
	user, err := a.AuthService.UpdateProfile(a.ctx, a.currentUserID(), name, email)
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	if a.session != nil {
		a.session.User = *user
	}
	a.mu.Unlock()
	return user, nil
}

// ChangePassword replaces the password of the logged in user
func (a *App) ChangePassword(current, next string) error {
	if err := a.require(services.PermEditProfile); err != nil {
		return err
	}
	return a.AuthService.ChangePassword(a.ctx, a.currentUserID(), current, next)
}

// Categories

// GetCategories refetches the categories in display order
func (a *App) GetCategories() ([]models.Category, error) {
	if err := a.require(); err != nil {
		return nil, err
	}
	return a.CategoryService.ListCategories(a.ctx)
}

// SelectCategory changes the category shown on the terminal
func (a *App) SelectCategory(id string) error {
	if err := a.require(services.PermViewTerminal); err != nil {
		return err
	}
	return a.CategoryService.Select(id)
}

// CreateCategory appends a category
func (a *App) CreateCategory(name string) (*models.Category, error) {
	if err := a.require(services.PermManageCatalog); err != nil {
		return nil, err
	}
	return a.CategoryService.CreateCategory(a.ctx, name)
}

// RenameCategory renames a category
func (a *App) RenameCategory(id, name string) (*models.Category, error) {
	if err := a.require(services.PermManageCatalog); err != nil {
		return nil, err
	}
	return a.CategoryService.RenameCategory(a.ctx, id, name)
}

// DeleteCategory removes a category and its products
func (a *App) DeleteCategory(id string) error {
	if err := a.require(services.PermManageCatalog); err != nil {
		return err
	}
	return a.CategoryService.DeleteCategory(a.ctx, id)
}

// ReorderCategories applies a full new order and returns the resulting list
func (a *App) ReorderCategories(ids []string) ([]models.Category, error) {
	if err := a.require(services.PermManageCatalog); err != nil {
		return nil, err
	}
	err := a.CategoryService.Reorder(a.ctx, ids)
	categories := a.CategoryService.Categories()
	if err == nil && a.WSServer != nil {
		a.WSServer.BroadcastCategoryOrder(categories)
	}
	return categories, err
}

// MoveCategory moves the category at from to position to
func (a *App) MoveCategory(from, to int) ([]models.Category, error) {
	if err := a.require(services.PermManageCatalog); err != nil {
		return nil, err
	}
	err := a.CategoryService.MoveCategory(a.ctx, from, to)
	categories := a.CategoryService.Categories()
	if err == nil && a.WSServer != nil {
		a.WSServer.BroadcastCategoryOrder(categories)
	}
	return categories, err
}

// Products

// GetProducts lists the products of a category, or all when categoryID is empty
func (a *App) GetProducts(categoryID string) ([]models.Product, error) {
	if err := a.require(); err != nil {
		return nil, err
	}
	return a.ProductService.ListProducts(a.ctx, categoryID)
}

// SearchProducts matches names and SKUs
func (a *App) SearchProducts(query string) ([]models.Product, error) {
	if err := a.require(); err != nil {
		return nil, err
	}
	return a.ProductService.SearchProducts(a.ctx, query)
}

// CreateProduct adds a product to the menu
func (a *App) CreateProduct(product models.Product) (*models.Product, error) {
	if err := a.require(services.PermManageCatalog); err != nil {
		return nil, err
	}
	return a.ProductService.CreateProduct(a.ctx, product)
}

// UpdateProduct applies a partial update
func (a *App) UpdateProduct(id string, patch models.ProductPatch) (*models.Product, error) {
	if err := a.require(services.PermManageCatalog); err != nil {
		return nil, err
	}
	return a.ProductService.UpdateProduct(a.ctx, id, patch)
}

// PreviewPrice returns the price of productID with the chosen variant options
func (a *App) PreviewPrice(productID string, selections map[string]string) (decimal.Decimal, error) {
	if err := a.require(services.PermViewTerminal); err != nil {
		return decimal.Zero, err
	}
	return a.ProductService.PriceFor(a.ctx, productID, selections)
}

// DeleteProduct removes a product
func (a *App) DeleteProduct(id string) error {
	if err := a.require(services.PermManageCatalog); err != nil {
		return err
	}
	return a.ProductService.DeleteProduct(a.ctx, id)
}

// Cart

// GetCart returns the cart with its totals
func (a *App) GetCart() models.CartState {
	return a.CartService.State()
}

// AddToCart adds one unit of the stored product productID
func (a *App) AddToCart(productID string) (models.CartState, error) {
	if err := a.require(services.PermViewTerminal); err != nil {
		return a.CartService.State(), err
	}
	product, err := a.ProductService.Product(a.ctx, productID)
	if err != nil {
		return a.CartService.State(), err
	}
	a.CartService.AddToCart(*product)
	return a.CartService.State(), nil
}

// RemoveFromCart drops the line of productID
func (a *App) RemoveFromCart(productID string) models.CartState {
	a.CartService.RemoveFromCart(productID)
	return a.CartService.State()
}

// UpdateQuantity changes the quantity of a line by delta
func (a *App) UpdateQuantity(productID string, delta int) models.CartState {
	a.CartService.UpdateQuantity(productID, delta)
	return a.CartService.State()
}

// SetLineNotes attaches a kitchen note to a line
func (a *App) SetLineNotes(productID, notes string) models.CartState {
	a.CartService.SetNotes(productID, notes)
	return a.CartService.State()
}

// ClearCart empties the cart
func (a *App) ClearCart() models.CartState {
	a.CartService.ClearCart()
	return a.CartService.State()
}

// SetOrderType switches between dine-in and takeaway
func (a *App) SetOrderType(orderType models.OrderType) (models.CartState, error) {
	err := a.CartService.SetOrderType(orderType)
	return a.CartService.State(), err
}

// Checkout sends the cart to the kitchen
func (a *App) Checkout(tableID string) (*models.Order, error) {
	if err := a.require(services.PermCheckout); err != nil {
		return nil, err
	}
	return a.KitchenService.Checkout(a.ctx, a.CartService, tableID, a.currentUserID())
}

// Kitchen

// GetKitchenBoard returns the active orders grouped by status
func (a *App) GetKitchenBoard() (*services.KitchenBoard, error) {
	if err := a.require(services.PermViewKitchen); err != nil {
		return nil, err
	}
	return a.KitchenService.Board(a.ctx)
}

// AdvanceOrder moves an order to its next status
func (a *App) AdvanceOrder(orderID string) (*models.Order, error) {
	if err := a.require(services.PermAdvanceKitchen); err != nil {
		return nil, err
	}
	return a.KitchenService.Advance(a.ctx, orderID)
}

// GetTicketQR returns the pickup QR code of an order as a base64 PNG
func (a *App) GetTicketQR(orderID string) (string, error) {
	if err := a.require(services.PermViewTerminal); err != nil {
		return "", err
	}
	order, err := a.KitchenService.Order(a.ctx, orderID)
	if err != nil {
		return "", err
	}
	png, err := a.KitchenService.TicketQR(*order, 256)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(png), nil
}

// Staff

// ListStaff refetches every staff account
func (a *App) ListStaff() ([]models.User, error) {
	if err := a.require(services.PermManageStaff); err != nil {
		return nil, err
	}
	return a.StaffService.ListStaff(a.ctx)
}

// SearchStaff filters the loaded staff list
func (a *App) SearchStaff(query string, role models.UserRole) ([]models.User, error) {
	if err := a.require(services.PermManageStaff); err != nil {
		return nil, err
	}
	return a.StaffService.SearchStaff(query, role), nil
}

// CreateStaff adds an account
func (a *App) CreateStaff(input services.StaffInput) (*models.User, error) {
	if err := a.require(services.PermManageStaff); err != nil {
		return nil, err
	}
	return a.StaffService.CreateStaff(a.ctx, input)
}

// UpdateStaff applies a partial update to an account
func (a *App) UpdateStaff(id string, patch models.UserPatch) (*models.User, error) {
	if err := a.require(services.PermManageStaff); err != nil {
		return nil, err
	}
	return a.StaffService.UpdateStaff(a.ctx, id, patch)
}

// SetStaffStatus activates or deactivates an account
func (a *App) SetStaffStatus(id string, status models.UserStatus) error {
	if err := a.require(services.PermManageStaff); err != nil {
		return err
	}
	return a.StaffService.SetStatus(a.ctx, id, status)
}

// Toasts

// GetToasts returns the visible notifications
func (a *App) GetToasts() []models.Toast {
	return a.ToastService.Toasts()
}

// DismissToast closes a notification before it expires
func (a *App) DismissToast(id string) {
	a.ToastService.Dismiss(id)
}
