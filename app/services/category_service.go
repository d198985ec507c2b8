package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"PosTerminal/app/models"
)

// CategoryService keeps the local category list in step with the record store.
// Reorders are applied optimistically and rolled back when the store rejects them.
type CategoryService struct {
	*BaseService
	store CatalogStore

	mu         sync.Mutex
	categories []models.Category
	selectedID string
	reordering bool
}

// NewCategoryService creates a new category service
func NewCategoryService(store CatalogStore, base *BaseService) *CategoryService {
	return &CategoryService{
		BaseService: base,
		store:       store,
	}
}

// ListCategories refetches categories, recounts their products and replaces the local list.
// On failure the previous local list is kept.
func (s *CategoryService) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.store.GetCategories(ctx)
	if err != nil {
		return nil, s.fetchFailure("categories", err)
	}
	products, err := s.store.GetProducts(ctx, "")
	if err != nil {
		return nil, s.fetchFailure("categories", err)
	}

	counts := make(map[string]int, len(categories))
	for _, p := range products {
		counts[p.CategoryID]++
	}
	for i := range categories {
		categories[i].Count = counts[categories[i].ID]
	}
	sort.SliceStable(categories, func(i, j int) bool {
		return categories[i].DisplayOrder < categories[j].DisplayOrder
	})

	s.mu.Lock()
	s.categories = categories
	s.ensureSelection()
	out := s.snapshot()
	s.mu.Unlock()
	return out, nil
}

// CreateCategory appends a new category at the end of the order
func (s *CategoryService) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, models.NewValidationError("name", "category name is required")
	}

	created, err := s.store.CreateCategory(ctx, name)
	if err != nil {
		return nil, s.persistFailure("create category", err)
	}

	s.mu.Lock()
	s.categories = append(s.categories, *created)
	s.ensureSelection()
	s.mu.Unlock()

	s.logInfo("Category created", created.Name)
	s.notify(models.ToastSuccess, fmt.Sprintf("Category %q added", created.Name))
	return created, nil
}

// RenameCategory changes a category name. An unknown id triggers a refetch.
func (s *CategoryService) RenameCategory(ctx context.Context, id, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, models.NewValidationError("name", "category name is required")
	}

	updated, err := s.store.UpdateCategory(ctx, id, name)
	if err != nil {
		err = s.persistFailure("rename category", err)
		if errors.Is(err, models.ErrNotFound) {
			s.ListCategories(ctx)
		}
		return nil, err
	}

	s.mu.Lock()
	if i := s.indexOf(id); i >= 0 {
		s.categories[i].Name = updated.Name
		updated.Count = s.categories[i].Count
	}
	s.mu.Unlock()

	s.notify(models.ToastSuccess, "Category renamed")
	return updated, nil
}

// DeleteCategory removes a category and its products
func (s *CategoryService) DeleteCategory(ctx context.Context, id string) error {
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		err = s.persistFailure("delete category", err)
		if errors.Is(err, models.ErrNotFound) {
			s.ListCategories(ctx)
		}
		return err
	}

	s.mu.Lock()
	if i := s.indexOf(id); i >= 0 {
		s.categories = append(s.categories[:i], s.categories[i+1:]...)
		s.renumber()
	}
	s.ensureSelection()
	s.mu.Unlock()

	s.logInfo("Category deleted", id)
	s.notify(models.ToastSuccess, "Category deleted")
	return nil
}

// Reorder applies orderedIDs as the new display order before persisting it.
// orderedIDs must be a permutation of the local ids. If the store fails the
// previous order is restored over the categories that still exist. A reorder
// issued while another is in flight is dropped.
func (s *CategoryService) Reorder(ctx context.Context, orderedIDs []string) error {
	s.mu.Lock()
	if s.reordering {
		s.mu.Unlock()
		s.logWarning("Reorder dropped", "another reorder is in flight")
		s.notify(models.ToastWarning, "Please wait for the previous reorder to finish")
		return models.ErrReorderInProgress
	}
	reordered, err := s.permute(orderedIDs)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	previous := s.snapshot()
	s.categories = reordered
	s.reordering = true
	s.mu.Unlock()

	err = s.store.ReorderCategories(ctx, orderedIDs)

	s.mu.Lock()
	s.reordering = false
	if err != nil {
		s.restore(previous)
	}
	s.mu.Unlock()

	if err != nil {
		return s.persistFailure("reorder categories", err)
	}
	return nil
}

// permute builds the category list in the order of ids; callers hold mu
func (s *CategoryService) permute(ids []string) ([]models.Category, error) {
	if len(ids) != len(s.categories) {
		return nil, models.NewValidationError("order", fmt.Sprintf("expected %d category ids, got %d", len(s.categories), len(ids)))
	}
	seen := make(map[string]bool, len(ids))
	out := make([]models.Category, 0, len(ids))
	for i, id := range ids {
		if seen[id] {
			return nil, models.NewValidationError("order", fmt.Sprintf("category %s listed twice", id))
		}
		seen[id] = true
		j := s.indexOf(id)
		if j < 0 {
			return nil, models.NewValidationError("order", fmt.Sprintf("unknown category %s", id))
		}
		c := s.categories[j]
		c.DisplayOrder = i
		out = append(out, c)
	}
	return out, nil
}

// MoveCategory moves the category at index from to index to
func (s *CategoryService) MoveCategory(ctx context.Context, from, to int) error {
	s.mu.Lock()
	n := len(s.categories)
	if from < 0 || from >= n || to < 0 || to >= n {
		s.mu.Unlock()
		return models.NewValidationError("order", fmt.Sprintf("index out of range [0,%d)", n))
	}
	if from == to {
		s.mu.Unlock()
		return nil
	}
	ids := make([]string, 0, n)
	for _, c := range s.categories {
		ids = append(ids, c.ID)
	}
	s.mu.Unlock()

	moved := ids[from]
	ids = append(ids[:from], ids[from+1:]...)
	ids = append(ids[:to], append([]string{moved}, ids[to:]...)...)
	return s.Reorder(ctx, ids)
}

// Categories returns the local list in display order
func (s *CategoryService) Categories() []models.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Exists reports whether id is in the local list
func (s *CategoryService) Exists(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexOf(id) >= 0
}

// Selected returns the selected category, if any
func (s *CategoryService) Selected() (models.Category, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(s.selectedID); i >= 0 {
		return s.categories[i], true
	}
	return models.Category{}, false
}

// Select marks id as the selected category
func (s *CategoryService) Select(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(id) < 0 {
		return models.ErrNotFound
	}
	s.selectedID = id
	return nil
}

// AdjustCount changes the local product count of a category by delta
func (s *CategoryService) AdjustCount(id string, delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		s.categories[i].Count += delta
		if s.categories[i].Count < 0 {
			s.categories[i].Count = 0
		}
	}
}

// SweepOrphans deletes products whose category no longer exists and returns how many were removed
func (s *CategoryService) SweepOrphans(ctx context.Context) (int, error) {
	categories, err := s.store.GetCategories(ctx)
	if err != nil {
		return 0, s.fetchFailure("categories", err)
	}
	products, err := s.store.GetProducts(ctx, "")
	if err != nil {
		return 0, s.fetchFailure("products", err)
	}

	live := make(map[string]bool, len(categories))
	for _, c := range categories {
		live[c.ID] = true
	}

	removed := 0
	for _, p := range products {
		if live[p.CategoryID] {
			continue
		}
		if err := s.store.DeleteProduct(ctx, p.ID); err != nil && !errors.Is(err, models.ErrNotFound) {
			return removed, s.persistFailure("remove orphaned product", err)
		}
		removed++
	}
	if removed > 0 {
		s.logWarning("Removed orphaned products", fmt.Sprintf("count=%d", removed))
	}
	return removed, nil
}

// restore sorts the current categories back into the order of previous.
// Categories deleted since are not brought back and ones created since stay
// at the end. Callers hold mu.
func (s *CategoryService) restore(previous []models.Category) {
	rank := make(map[string]int, len(previous))
	for i, c := range previous {
		rank[c.ID] = i
	}
	sort.SliceStable(s.categories, func(i, j int) bool {
		ri, iok := rank[s.categories[i].ID]
		rj, jok := rank[s.categories[j].ID]
		return iok && (!jok || ri < rj)
	})
	s.renumber()
	s.ensureSelection()
}

// renumber sets each display order to its position; callers hold mu
func (s *CategoryService) renumber() {
	for i := range s.categories {
		s.categories[i].DisplayOrder = i
	}
}

// indexOf returns the position of id or -1; callers hold mu
func (s *CategoryService) indexOf(id string) int {
	for i, c := range s.categories {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// snapshot copies the local list; callers hold mu
func (s *CategoryService) snapshot() []models.Category {
	return append([]models.Category{}, s.categories...)
}

// ensureSelection falls back to the first category when the selection is gone; callers hold mu
func (s *CategoryService) ensureSelection() {
	if s.indexOf(s.selectedID) >= 0 {
		return
	}
	s.selectedID = ""
	if len(s.categories) > 0 {
		s.selectedID = s.categories[0].ID
	}
}
