package services

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	"PosTerminal/app/models"

	"golang.org/x/crypto/bcrypt"
)

// fakeStore is an in-memory RecordStore with switchable failures
type fakeStore struct {
	mu         sync.Mutex
	categories []models.Category
	products   []models.Product
	users      []models.User
	orders     []models.Order
	nextID     int

	failGetCategories error
	failGetProducts   error
	failWrite         error
	failReorder       error
	failUpdateUser    error
	failCreateOrder   error
	reorderStarted    chan struct{}
	reorderRelease    chan struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{}
}

// seeded returns a store holding categories A, B, C and two products in A
func seededFakeStore() *fakeStore {
	s := newFakeStore()
	s.categories = []models.Category{
		{ID: "A", Name: "Cà phê", DisplayOrder: 0},
		{ID: "B", Name: "Trà sữa", DisplayOrder: 1},
		{ID: "C", Name: "Sinh tố", DisplayOrder: 2},
	}
	stock := 100
	s.products = []models.Product{
		{ID: "p1", Name: "Cà phê đen đá", Price: coffee.Price, CategoryID: "A", SKU: "CF01", Stock: &stock, Status: models.ProductAvailable},
		{ID: "p2", Name: "Cà phê sữa đá", Price: coffee.Price, CategoryID: "A", SKU: "CF02", Status: models.ProductAvailable},
	}
	return s
}

func (s *fakeStore) id(prefix string) string {
	s.nextID++
	return prefix + strconv.Itoa(s.nextID)
}

func (s *fakeStore) GetCategories(ctx context.Context) ([]models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failGetCategories != nil {
		return nil, s.failGetCategories
	}
	out := append([]models.Category(nil), s.categories...)
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out, nil
}

func (s *fakeStore) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrite != nil {
		return nil, s.failWrite
	}
	last := -1
	for _, c := range s.categories {
		if c.DisplayOrder > last {
			last = c.DisplayOrder
		}
	}
	c := models.Category{ID: s.id("c"), Name: name, DisplayOrder: last + 1}
	s.categories = append(s.categories, c)
	return &c, nil
}

func (s *fakeStore) UpdateCategory(ctx context.Context, id, name string) (*models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrite != nil {
		return nil, s.failWrite
	}
	for i := range s.categories {
		if s.categories[i].ID == id {
			s.categories[i].Name = name
			c := s.categories[i]
			return &c, nil
		}
	}
	return nil, models.ErrNotFound
}

func (s *fakeStore) DeleteCategory(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrite != nil {
		return s.failWrite
	}
	removed := -1
	kept := s.categories[:0]
	for _, c := range s.categories {
		if c.ID == id {
			removed = c.DisplayOrder
			continue
		}
		kept = append(kept, c)
	}
	s.categories = kept
	if removed < 0 {
		return models.ErrNotFound
	}
	for i := range s.categories {
		if s.categories[i].DisplayOrder > removed {
			s.categories[i].DisplayOrder--
		}
	}
	products := s.products[:0]
	for _, p := range s.products {
		if p.CategoryID != id {
			products = append(products, p)
		}
	}
	s.products = products
	return nil
}

func (s *fakeStore) ReorderCategories(ctx context.Context, orderedIDs []string) error {
	if s.reorderStarted != nil {
		s.reorderStarted <- struct{}{}
	}
	if s.reorderRelease != nil {
		<-s.reorderRelease
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failReorder != nil {
		return s.failReorder
	}
	for i, id := range orderedIDs {
		for j := range s.categories {
			if s.categories[j].ID == id {
				s.categories[j].DisplayOrder = i
			}
		}
	}
	return nil
}

func (s *fakeStore) GetProducts(ctx context.Context, categoryID string) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failGetProducts != nil {
		return nil, s.failGetProducts
	}
	out := []models.Product{}
	for _, p := range s.products {
		if categoryID == "" || p.CategoryID == categoryID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *fakeStore) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, models.ErrNotFound
}

func (s *fakeStore) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrite != nil {
		return nil, s.failWrite
	}
	p := *product
	if p.ID == "" {
		p.ID = s.id("p")
	}
	s.products = append(s.products, p)
	return &p, nil
}

func (s *fakeStore) UpdateProduct(ctx context.Context, id string, patch models.ProductPatch) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrite != nil {
		return nil, s.failWrite
	}
	for i := range s.products {
		if s.products[i].ID == id {
			patch.Apply(&s.products[i])
			p := s.products[i]
			return &p, nil
		}
	}
	return nil, models.ErrNotFound
}

func (s *fakeStore) DeleteProduct(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrite != nil {
		return s.failWrite
	}
	for i, p := range s.products {
		if p.ID == id {
			s.products = append(s.products[:i], s.products[i+1:]...)
			return nil
		}
	}
	return models.ErrNotFound
}

func (s *fakeStore) GetUsers(ctx context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u.Sanitized())
	}
	return out, nil
}

func (s *fakeStore) CreateUser(ctx context.Context, user *models.User, password string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrite != nil {
		return nil, s.failWrite
	}
	email := models.NormalizeEmail(user.Email)
	for _, u := range s.users {
		if u.Email == email {
			return nil, models.ErrDuplicateEmail
		}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}
	u := *user
	u.ID = s.id("u")
	u.Email = email
	if u.Username == "" {
		u.Username = models.UsernameFromEmail(email)
	}
	if u.Status == "" {
		u.Status = models.UserActive
	}
	u.PasswordHash = string(hash)
	s.users = append(s.users, u)
	result := u.Sanitized()
	return &result, nil
}

func (s *fakeStore) UpdateUser(ctx context.Context, id string, patch models.UserPatch) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUpdateUser != nil {
		return nil, s.failUpdateUser
	}
	for i := range s.users {
		if s.users[i].ID != id {
			continue
		}
		if patch.Email != nil {
			email := models.NormalizeEmail(*patch.Email)
			for _, other := range s.users {
				if other.ID != id && other.Email == email {
					return nil, models.ErrDuplicateEmail
				}
			}
			s.users[i].Email = email
		}
		if patch.Name != nil {
			s.users[i].Name = *patch.Name
		}
		if patch.Role != nil {
			s.users[i].Role = *patch.Role
		}
		if patch.Status != nil {
			s.users[i].Status = *patch.Status
		}
		result := s.users[i].Sanitized()
		return &result, nil
	}
	return nil, models.ErrNotFound
}

func (s *fakeStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, models.ErrNotFound
}

func (s *fakeStore) GetUserByLogin(ctx context.Context, identifier string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	login := strings.ToLower(strings.TrimSpace(identifier))
	for _, u := range s.users {
		if strings.ToLower(u.Username) == login || u.Email == login {
			return &u, nil
		}
	}
	return nil, models.ErrNotFound
}

func (s *fakeStore) SetPassword(ctx context.Context, id, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return err
	}
	for i := range s.users {
		if s.users[i].ID == id {
			s.users[i].PasswordHash = string(hash)
			return nil
		}
	}
	return models.ErrNotFound
}

func (s *fakeStore) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreateOrder != nil {
		return nil, s.failCreateOrder
	}
	o := *order
	o.ID = s.id("o")
	o.Number = len(s.orders) + 1
	if o.Status == "" {
		o.Status = models.OrderStatusPending
	}
	s.orders = append(s.orders, o)
	return &o, nil
}

func (s *fakeStore) GetOrders(ctx context.Context, statuses ...models.OrderStatus) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Order{}
	for _, o := range s.orders {
		if len(statuses) == 0 {
			out = append(out, o)
			continue
		}
		for _, st := range statuses {
			if o.Status == st {
				out = append(out, o)
				break
			}
		}
	}
	return out, nil
}

func (s *fakeStore) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.ID == id {
			return &o, nil
		}
	}
	return nil, models.ErrNotFound
}

func (s *fakeStore) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.orders {
		if s.orders[i].ID == id {
			s.orders[i].Status = status
			o := s.orders[i]
			return &o, nil
		}
	}
	return nil, models.ErrNotFound
}

var _ RecordStore = (*fakeStore)(nil)
