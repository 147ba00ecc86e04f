// Package memstore holds the reference backend's in-memory datasets. It backs
// the bakeryd server so the storefront can be exercised end to end without a
// real document store behind it.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/doceencanto/storefront-go/internal/domain"
)

// ProductStore keeps the product catalog in memory, keyed by id.
type ProductStore struct {
	mu       sync.RWMutex
	products map[string]domain.Product
}

// NewProductStore creates a product store seeded with the demo catalog.
func NewProductStore() *ProductStore {
	s := &ProductStore{products: make(map[string]domain.Product)}
	for _, p := range seedProducts() {
		s.products[p.ID] = p
	}
	return s
}

func seedProducts() []domain.Product {
	base := time.Now().UTC()
	return []domain.Product{
		{
			ID:          uuid.NewString(),
			Name:        "Bolo de Chocolate",
			Category:    "Bolos",
			Price:       45.5,
			Description: "Bolo de chocolate com cobertura de brigadeiro",
			Quantity:    10,
			CreatedAt:   base.Add(-2 * time.Hour),
		},
		{
			ID:          uuid.NewString(),
			Name:        "Cupcake de Baunilha",
			Category:    "Cupcakes",
			Price:       8.0,
			Description: "Cupcake de baunilha com chantilly",
			Quantity:    25,
			CreatedAt:   base.Add(-1 * time.Hour),
		},
	}
}

// ListProducts returns all products ordered by creation time, oldest first.
func (s *ProductStore) ListProducts(ctx context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// GetProduct returns a single product or ErrNotFound.
func (s *ProductStore) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "product", ID: id}
	}
	return &p, nil
}

// AddProduct stores a new product with a generated id and creation timestamp.
func (s *ProductStore) AddProduct(ctx context.Context, in *domain.NewProductInput) (*domain.Product, error) {
	p := domain.Product{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Category:    in.Category,
		Price:       in.Price,
		Description: in.Description,
		Quantity:    in.Quantity,
		CreatedAt:   time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.products[p.ID] = p
	return &p, nil
}

// UpdateProductQuantity replaces the stock level of an existing product.
func (s *ProductStore) UpdateProductQuantity(ctx context.Context, id string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return &domain.ErrNotFound{Resource: "product", ID: id}
	}
	p.Quantity = quantity
	s.products[id] = p
	return nil
}

// UpdateProduct replaces the mutable fields of an existing product.
func (s *ProductStore) UpdateProduct(ctx context.Context, id string, in *domain.NewProductInput) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "product", ID: id}
	}
	p.Name = in.Name
	p.Category = in.Category
	p.Price = in.Price
	p.Description = in.Description
	p.Quantity = in.Quantity
	s.products[id] = p
	return &p, nil
}

// DeleteProduct removes a product.
func (s *ProductStore) DeleteProduct(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return &domain.ErrNotFound{Resource: "product", ID: id}
	}
	delete(s.products, id)
	return nil
}

// SalesStore keeps the completed sales in memory.
type SalesStore struct {
	mu    sync.RWMutex
	sales []domain.Sale
}

// NewSalesStore creates a sales store seeded with a small history so the
// vendor reports screen has something to show.
func NewSalesStore() *SalesStore {
	base := time.Now().UTC()
	return &SalesStore{sales: []domain.Sale{
		{ID: uuid.NewString(), Product: "Bolo de Chocolate", Total: 45.5, CreatedAt: base.Add(-30 * time.Minute)},
		{ID: uuid.NewString(), Product: "Cupcake de Baunilha", Total: 16.0, CreatedAt: base.Add(-20 * time.Minute)},
	}}
}

// ListSales returns all sales, newest first.
func (s *SalesStore) ListSales(ctx context.Context) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Sale, len(s.sales))
	copy(out, s.sales)
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// AddSale appends a completed sale.
func (s *SalesStore) AddSale(ctx context.Context, sale domain.Sale) error {
	if sale.ID == "" {
		sale.ID = uuid.NewString()
	}
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sales = append(s.sales, sale)
	return nil
}

// User is an account record held by the identity emulator. PasswordHash is a
// bcrypt digest, never the raw password.
type User struct {
	UID          string
	Email        string
	Name         string
	Role         domain.Role
	PasswordHash []byte
}

// UserStore keeps identity-emulator accounts in memory, indexed by uid and email.
type UserStore struct {
	mu      sync.RWMutex
	byUID   map[string]User
	byEmail map[string]string
}

// NewUserStore creates an empty user store.
func NewUserStore() *UserStore {
	return &UserStore{
		byUID:   make(map[string]User),
		byEmail: make(map[string]string),
	}
}

// CreateUser stores a new account. Returns ErrConflict when the email is taken.
func (s *UserStore) CreateUser(ctx context.Context, u User) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byEmail[u.Email]; taken {
		return User{}, &domain.ErrConflict{Message: "EMAIL_EXISTS"}
	}
	if u.UID == "" {
		u.UID = uuid.NewString()
	}
	s.byUID[u.UID] = u
	s.byEmail[u.Email] = u.UID
	return u, nil
}

// GetUserByEmail looks an account up by email.
func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	uid, ok := s.byEmail[email]
	if !ok {
		return User{}, &domain.ErrNotFound{Resource: "user", ID: email}
	}
	return s.byUID[uid], nil
}

// GetUser looks an account up by uid.
func (s *UserStore) GetUser(ctx context.Context, uid string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byUID[uid]
	if !ok {
		return User{}, &domain.ErrNotFound{Resource: "user", ID: uid}
	}
	return u, nil
}
