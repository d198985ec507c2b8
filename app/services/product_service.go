package services

import (
	"context"
	"fmt"
	"strings"

	"PosTerminal/app/models"

	"github.com/shopspring/decimal"
)

// ProductService lists and edits the menu and keeps category counts current
type ProductService struct {
	*BaseService
	store      CatalogStore
	categories *CategoryService
	lowStock   int
}

// NewProductService creates a new product service
func NewProductService(store CatalogStore, categories *CategoryService, base *BaseService, lowStockThreshold int) *ProductService {
	return &ProductService{
		BaseService: base,
		store:       store,
		categories:  categories,
		lowStock:    lowStockThreshold,
	}
}

// ListProducts returns the products of a category, or every product when categoryID is empty
func (s *ProductService) ListProducts(ctx context.Context, categoryID string) ([]models.Product, error) {
	products, err := s.store.GetProducts(ctx, categoryID)
	if err != nil {
		return nil, s.fetchFailure("products", err)
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, nil
}

// Product returns the stored version of a single product
func (s *ProductService) Product(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return nil, s.persistFailure("load product", err)
	}
	return product, nil
}

// PriceFor prices a stored product with the chosen variant options
func (s *ProductService) PriceFor(ctx context.Context, id string, selections map[string]string) (decimal.Decimal, error) {
	product, err := s.Product(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	return EffectivePrice(*product, selections)
}

// SearchProducts matches query against product names and SKUs, case-insensitively
func (s *ProductService) SearchProducts(ctx context.Context, query string) ([]models.Product, error) {
	products, err := s.ListProducts(ctx, "")
	if err != nil {
		return nil, err
	}
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return products, nil
	}

	matches := []models.Product{}
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), query) || strings.Contains(strings.ToLower(p.SKU), query) {
			matches = append(matches, p)
		}
	}
	return matches, nil
}

// CreateProduct validates and stores a new product
func (s *ProductService) CreateProduct(ctx context.Context, product models.Product) (*models.Product, error) {
	product.Name = strings.TrimSpace(product.Name)
	if err := s.validate(product); err != nil {
		return nil, err
	}
	if product.Status == "" {
		product.Status = StatusForStock(product.Stock, s.lowStock)
	}

	created, err := s.store.CreateProduct(ctx, &product)
	if err != nil {
		return nil, s.persistFailure("create product", err)
	}

	s.categories.AdjustCount(created.CategoryID, 1)
	s.notify(models.ToastSuccess, fmt.Sprintf("Product %q added", created.Name))
	return created, nil
}

// UpdateProduct applies patch to a product. A stock change without an explicit
// status recomputes the status from the new stock.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, patch models.ProductPatch) (*models.Product, error) {
	current, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return nil, s.persistFailure("update product", err)
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		patch.Name = &name
	}
	preview := *current
	patch.Apply(&preview)
	if err := s.validate(preview); err != nil {
		return nil, err
	}
	if patch.Stock != nil && patch.Status == nil {
		status := StatusForStock(patch.Stock, s.lowStock)
		patch.Status = &status
	}

	updated, err := s.store.UpdateProduct(ctx, id, patch)
	if err != nil {
		return nil, s.persistFailure("update product", err)
	}

	if updated.CategoryID != current.CategoryID {
		s.categories.AdjustCount(current.CategoryID, -1)
		s.categories.AdjustCount(updated.CategoryID, 1)
	}
	s.notify(models.ToastSuccess, "Product updated")
	return updated, nil
}

// DeleteProduct removes a product
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	current, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return s.persistFailure("delete product", err)
	}
	if err := s.store.DeleteProduct(ctx, id); err != nil {
		return s.persistFailure("delete product", err)
	}

	s.categories.AdjustCount(current.CategoryID, -1)
	s.notify(models.ToastSuccess, fmt.Sprintf("Product %q deleted", current.Name))
	return nil
}

// RecountCategories recomputes every category count from the store
func (s *ProductService) RecountCategories(ctx context.Context) ([]models.Category, error) {
	return s.categories.ListCategories(ctx)
}

func (s *ProductService) validate(p models.Product) error {
	if p.Name == "" {
		return models.NewValidationError("name", "product name is required")
	}
	if p.Price.IsNegative() {
		return models.NewValidationError("price", "price cannot be negative")
	}
	if p.Stock != nil && *p.Stock < 0 {
		return models.NewValidationError("stock", "stock cannot be negative")
	}
	if p.Status != "" && !p.Status.Valid() {
		return models.NewValidationError("status", fmt.Sprintf("unknown status %q", p.Status))
	}
	if p.CategoryID == "" || !s.categories.Exists(p.CategoryID) {
		return models.NewValidationError("category", "choose an existing category")
	}
	for _, group := range p.VariantGroups {
		if strings.TrimSpace(group.Name) == "" {
			return models.NewValidationError("variantGroups", "variant group name is required")
		}
		for _, option := range group.Options {
			if strings.TrimSpace(option.Name) == "" {
				return models.NewValidationError("variantGroups", fmt.Sprintf("option name is required in %s", group.Name))
			}
		}
	}
	return nil
}

// StatusForStock derives availability from a stock level. Untracked stock is always available.
func StatusForStock(stock *int, lowStockThreshold int) models.ProductStatus {
	switch {
	case stock == nil:
		return models.ProductAvailable
	case *stock <= 0:
		return models.ProductOutOfStock
	case *stock <= lowStockThreshold:
		return models.ProductLowStock
	}
	return models.ProductAvailable
}

// EffectivePrice adds the modifiers of the chosen options to the base price.
// selections maps variant group name to option name. The result never drops below zero.
func EffectivePrice(product models.Product, selections map[string]string) (decimal.Decimal, error) {
	price := product.Price
	for groupName, optionName := range selections {
		group, ok := findGroup(product.VariantGroups, groupName)
		if !ok {
			return decimal.Zero, models.NewValidationError("variant", fmt.Sprintf("unknown variant group %q", groupName))
		}
		option, ok := findOption(group, optionName)
		if !ok {
			return decimal.Zero, models.NewValidationError("variant", fmt.Sprintf("unknown option %q in %s", optionName, groupName))
		}
		price = price.Add(option.PriceModifier)
	}
	if price.IsNegative() {
		return decimal.Zero, nil
	}
	return price, nil
}

func findGroup(groups models.VariantGroups, name string) (models.VariantGroup, bool) {
	for _, g := range groups {
		if g.Name == name {
			return g, true
		}
	}
	return models.VariantGroup{}, false
}

func findOption(group models.VariantGroup, name string) (models.VariantOption, bool) {
	for _, o := range group.Options {
		if o.Name == name {
			return o, true
		}
	}
	return models.VariantOption{}, false
}
