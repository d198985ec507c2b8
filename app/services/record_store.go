package services

import (
	"context"

	"PosTerminal/app/models"
)

// CatalogStore persists categories and products
type CatalogStore interface {
	GetCategories(ctx context.Context) ([]models.Category, error)
	// CreateCategory appends the category at display order = current count
	CreateCategory(ctx context.Context, name string) (*models.Category, error)
	UpdateCategory(ctx context.Context, id, name string) (*models.Category, error)
	// DeleteCategory removes the category together with its products
	DeleteCategory(ctx context.Context, id string) error
	// ReorderCategories sets DisplayOrder to each id's index
	ReorderCategories(ctx context.Context, orderedIDs []string) error

	// GetProducts returns every product when categoryID is empty
	GetProducts(ctx context.Context, categoryID string) ([]models.Product, error)
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	UpdateProduct(ctx context.Context, id string, patch models.ProductPatch) (*models.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

// UserStore persists staff accounts. Returned users never carry a password hash
// except from GetUser and GetUserByLogin.
type UserStore interface {
	GetUsers(ctx context.Context) ([]models.User, error)
	CreateUser(ctx context.Context, user *models.User, password string) (*models.User, error)
	UpdateUser(ctx context.Context, id string, patch models.UserPatch) (*models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByLogin(ctx context.Context, identifier string) (*models.User, error)
	SetPassword(ctx context.Context, id, password string) error
}

// OrderStore persists kitchen orders
type OrderStore interface {
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	GetOrders(ctx context.Context, statuses ...models.OrderStatus) ([]models.Order, error)
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error)
}

// RecordStore is the persistence backend the terminal talks to
type RecordStore interface {
	CatalogStore
	UserStore
	OrderStore
}
