package database

import (
	"fmt"

	"PosTerminal/app/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type seedUser struct {
	user     models.User
	password string
}

func intPtr(v int) *int { return &v }

// SeedInitialData seeds the starter menu and staff accounts.
// Each table is only seeded while it is empty, so user edits are never overwritten.
func SeedInitialData(conn *gorm.DB) error {
	var count int64

	if err := conn.Model(&models.Category{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count categories: %w", err)
	}
	if count == 0 {
		categories := []models.Category{
			{ID: "1", Name: "Cà phê", DisplayOrder: 0},
			{ID: "2", Name: "Trà sữa", DisplayOrder: 1},
			{ID: "3", Name: "Sinh tố", DisplayOrder: 2},
			{ID: "4", Name: "Bánh ngọt", DisplayOrder: 3},
			{ID: "5", Name: "Topping", DisplayOrder: 4},
		}
		if err := conn.Create(&categories).Error; err != nil {
			return fmt.Errorf("failed to seed categories: %w", err)
		}

		products := []models.Product{
			{ID: "p1", Name: "Cà phê đen đá", Price: decimal.NewFromInt(25000), CategoryID: "1", SKU: "CF01", Stock: intPtr(100), Status: models.ProductAvailable,
				Image: "https://images.unsplash.com/photo-1559496417-e7f25cb247f3?w=100&h=100&fit=crop"},
			{ID: "p2", Name: "Cà phê sữa đá", Price: decimal.NewFromInt(29000), CategoryID: "1", SKU: "CF02", Stock: intPtr(85), Status: models.ProductAvailable,
				Image: "https://images.unsplash.com/photo-1572442388796-11668a67e53d?w=100&h=100&fit=crop"},
			{ID: "p3", Name: "Bạc xỉu", Price: decimal.NewFromInt(32000), CategoryID: "1", SKU: "CF03", Stock: intPtr(50), Status: models.ProductAvailable,
				Image: "https://images.unsplash.com/photo-1582195655514-6c39a738430a?w=100&h=100&fit=crop"},
			{ID: "p5", Name: "Trà sữa truyền thống", Price: decimal.NewFromInt(35000), CategoryID: "2", SKU: "TS01", Stock: intPtr(200), Status: models.ProductAvailable,
				Image: "https://images.unsplash.com/photo-1556679343-c7306c1976bc?w=100&h=100&fit=crop"},
		}
		if err := conn.Create(&products).Error; err != nil {
			return fmt.Errorf("failed to seed products: %w", err)
		}
		dbLog.WithFields(logrus.Fields{"categories": len(categories), "products": len(products)}).Info("Seeded starter menu")
	}

	if err := conn.Model(&models.User{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if count == 0 {
		users := []seedUser{
			{models.User{ID: "1", Username: "admin", Name: "Admin User", Email: "admin@pos.com", Role: models.RoleAdmin, Status: models.UserActive, JoinedDate: "2023-01-15"}, "admin123"},
			{models.User{ID: "2", Username: "cashier", Name: "Nguyễn Thu Ngân", Email: "cashier@pos.com", Role: models.RoleCashier, Status: models.UserActive, JoinedDate: "2023-02-20"}, "cashier123"},
			{models.User{ID: "3", Username: "kitchen", Name: "Gordon Ramsay", Email: "kitchen@pos.com", Role: models.RoleKitchen, Status: models.UserActive, JoinedDate: "2023-03-10"}, "kitchen123"},
		}
		for _, su := range users {
			hash, err := bcrypt.GenerateFromPassword([]byte(su.password), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("failed to hash seed password: %w", err)
			}
			user := su.user
			user.PasswordHash = string(hash)
			if err := conn.Create(&user).Error; err != nil {
				return fmt.Errorf("failed to seed user %s: %w", user.Username, err)
			}
		}
		dbLog.WithField("users", len(users)).Info("Seeded staff accounts")
	}

	return nil
}
