package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"PosTerminal/app/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Store is the GORM-backed record store used by the terminal services
type Store struct {
	db *gorm.DB
}

// NewStore wraps an open connection
func NewStore(conn *gorm.DB) *Store {
	return &Store{db: conn}
}

// DB returns the underlying connection
func (s *Store) DB() *gorm.DB {
	return s.db
}

// translate maps driver errors onto the model sentinels
func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ErrNotFound
	}
	return err
}

// GetCategories returns all categories sorted by display order
func (s *Store) GetCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := s.db.WithContext(ctx).Order("display_order ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}
	return categories, nil
}

// CreateCategory appends a category at the end of the display order
func (s *Store) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	category := models.Category{Name: name}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var last struct{ DisplayOrder int }
		if err := tx.Model(&models.Category{}).Select("COALESCE(MAX(display_order), -1) AS display_order").Scan(&last).Error; err != nil {
			return err
		}
		category.DisplayOrder = last.DisplayOrder + 1
		return tx.Create(&category).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return &category, nil
}

// UpdateCategory renames a category
func (s *Store) UpdateCategory(ctx context.Context, id, name string) (*models.Category, error) {
	var category models.Category
	if err := s.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	category.Name = name
	if err := s.db.WithContext(ctx).Save(&category).Error; err != nil {
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	return &category, nil
}

// DeleteCategory deletes a category and every product that belongs to it.
// Categories after it move up one place so display orders stay dense.
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var category models.Category
		if err := tx.First(&category, "id = ?", id).Error; err != nil {
			return translate(err)
		}
		if err := tx.Where("category_id = ?", id).Delete(&models.Product{}).Error; err != nil {
			return fmt.Errorf("failed to delete category products: %w", err)
		}
		if err := tx.Delete(&category).Error; err != nil {
			return fmt.Errorf("failed to delete category: %w", err)
		}
		err := tx.Model(&models.Category{}).
			Where("display_order > ?", category.DisplayOrder).
			UpdateColumn("display_order", gorm.Expr("display_order - 1")).Error
		if err != nil {
			return fmt.Errorf("failed to compact category order: %w", err)
		}
		return nil
	})
}

// ReorderCategories writes the index of each id as its display order
func (s *Store) ReorderCategories(ctx context.Context, orderedIDs []string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, id := range orderedIDs {
			result := tx.Model(&models.Category{}).Where("id = ?", id).Update("display_order", i)
			if result.Error != nil {
				return fmt.Errorf("failed to reorder category %s: %w", id, result.Error)
			}
			if result.RowsAffected == 0 {
				return fmt.Errorf("category %s: %w", id, models.ErrNotFound)
			}
		}
		return nil
	})
}

// GetProducts returns the products of a category, or all products when categoryID is empty
func (s *Store) GetProducts(ctx context.Context, categoryID string) ([]models.Product, error) {
	query := s.db.WithContext(ctx).Order("name ASC")
	if categoryID != "" {
		query = query.Where("category_id = ?", categoryID)
	}
	products := []models.Product{}
	if err := query.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to get products: %w", err)
	}
	return products, nil
}

// GetProduct returns a single product
func (s *Store) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

// CreateProduct inserts a product
func (s *Store) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	created := *product
	if err := s.db.WithContext(ctx).Create(&created).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return &created, nil
}

// UpdateProduct applies a partial update to a product
func (s *Store) UpdateProduct(ctx context.Context, id string, patch models.ProductPatch) (*models.Product, error) {
	var product models.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&product, "id = ?", id).Error; err != nil {
			return translate(err)
		}
		patch.Apply(&product)
		return tx.Save(&product).Error
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// DeleteProduct removes a product
func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

// GetUsers returns all staff accounts without password hashes
func (s *Store) GetUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	for i := range users {
		users[i] = users[i].Sanitized()
	}
	return users, nil
}

// CreateUser inserts a staff account with a bcrypt-hashed password
func (s *Store) CreateUser(ctx context.Context, user *models.User, password string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	created := *user
	created.Email = models.NormalizeEmail(created.Email)
	created.PasswordHash = string(hash)
	if created.Username == "" {
		created.Username = models.UsernameFromEmail(created.Email)
	}
	if created.Status == "" {
		created.Status = models.UserActive
	}
	if created.JoinedDate == "" {
		created.JoinedDate = time.Now().Format("2006-01-02")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", created.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return models.ErrDuplicateEmail
		}

		username, err := uniqueUsername(tx, created.Username)
		if err != nil {
			return err
		}
		created.Username = username
		return tx.Create(&created).Error
	})
	if err != nil {
		if errors.Is(err, models.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	result := created.Sanitized()
	return &result, nil
}

// uniqueUsername appends a counter to base until no account uses it
func uniqueUsername(tx *gorm.DB, base string) (string, error) {
	candidate := base
	for i := 2; ; i++ {
		var count int64
		if err := tx.Model(&models.User{}).Where("username = ?", candidate).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s%d", base, i)
	}
}

// UpdateUser applies a partial update to a staff account
func (s *Store) UpdateUser(ctx context.Context, id string, patch models.UserPatch) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, "id = ?", id).Error; err != nil {
			return translate(err)
		}

		if patch.Email != nil {
			email := models.NormalizeEmail(*patch.Email)
			var count int64
			if err := tx.Model(&models.User{}).Where("email = ? AND id <> ?", email, id).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return models.ErrDuplicateEmail
			}
			user.Email = email
		}
		if patch.Name != nil {
			user.Name = *patch.Name
		}
		if patch.Role != nil {
			user.Role = *patch.Role
		}
		if patch.Status != nil {
			user.Status = *patch.Status
		}
		if patch.Avatar != nil {
			user.Avatar = *patch.Avatar
		}
		if patch.Password != nil && *patch.Password != "" {
			hash, err := bcrypt.GenerateFromPassword([]byte(*patch.Password), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("failed to hash password: %w", err)
			}
			user.PasswordHash = string(hash)
		}
		return tx.Save(&user).Error
	})
	if err != nil {
		return nil, err
	}

	result := user.Sanitized()
	return &result, nil
}

// GetUser returns an account by id, including its password hash
func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// GetUserByLogin finds an account by username or e-mail, case-insensitively.
// The returned user keeps its password hash for verification.
func (s *Store) GetUserByLogin(ctx context.Context, identifier string) (*models.User, error) {
	login := strings.ToLower(strings.TrimSpace(identifier))
	var user models.User
	err := s.db.WithContext(ctx).
		Where("LOWER(username) = ? OR email = ?", login, login).
		First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// SetPassword replaces the password hash of an account
func (s *Store) SetPassword(ctx context.Context, id, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	result := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("password_hash", string(hash))
	if result.Error != nil {
		return fmt.Errorf("failed to set password: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

// CreateOrder inserts an order with its items and assigns the next ticket number
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	created := *order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var last struct{ Number int }
		if err := tx.Model(&models.Order{}).Select("COALESCE(MAX(number), 0) AS number").Scan(&last).Error; err != nil {
			return err
		}
		created.Number = last.Number + 1
		if created.Status == "" {
			created.Status = models.OrderStatusPending
		}
		return tx.Create(&created).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	return &created, nil
}

// GetOrders returns orders oldest first, filtered by status when statuses are given
func (s *Store) GetOrders(ctx context.Context, statuses ...models.OrderStatus) ([]models.Order, error) {
	query := s.db.WithContext(ctx).Preload("Items").Order("created_at ASC").Order("number ASC")
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	orders := []models.Order{}
	if err := query.Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to get orders: %w", err)
	}
	return orders, nil
}

// GetOrder returns a single order with its items
func (s *Store) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

// UpdateOrderStatus moves an order to status
func (s *Store) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Items").First(&order, "id = ?", id).Error; err != nil {
			return translate(err)
		}
		order.Status = status
		return tx.Model(&order).Update("status", status).Error
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}
