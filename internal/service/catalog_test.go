package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/doceencanto/storefront-go/internal/domain"
	"github.com/doceencanto/storefront-go/internal/infra/cache"
	"github.com/doceencanto/storefront-go/internal/infra/observability"
)

// fakeRest simulates the REST data-access layer with scriptable envelopes.
type fakeRest struct {
	products   domain.Envelope[[]domain.Product]
	categories domain.Envelope[[]string]
	created    domain.Envelope[domain.Product]
	patched    domain.Envelope[domain.Product]
	sales      domain.Envelope[[]domain.Sale]

	listCalls   int
	createCalls int
	patchCalls  int
	salesCalls  int
}

func (f *fakeRest) ListProducts(ctx context.Context) domain.Envelope[[]domain.Product] {
	f.listCalls++
	return f.products
}

func (f *fakeRest) ListCategories(ctx context.Context) domain.Envelope[[]string] {
	return f.categories
}

func (f *fakeRest) CreateProduct(ctx context.Context, in *domain.NewProductInput) domain.Envelope[domain.Product] {
	f.createCalls++
	return f.created
}

func (f *fakeRest) UpdateProductQuantity(ctx context.Context, id string, quantity int) domain.Envelope[domain.Product] {
	f.patchCalls++
	return f.patched
}

func (f *fakeRest) SalesReport(ctx context.Context) domain.Envelope[[]domain.Sale] {
	f.salesCalls++
	return f.sales
}

// fakeProductStore is the document-store side.
type fakeProductStore struct {
	products   []domain.Product
	err        error
	listCalls  int
	addCalls   int
	patchCalls int
}

func (f *fakeProductStore) ListProducts(ctx context.Context) ([]domain.Product, error) {
	f.listCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.products, nil
}

func (f *fakeProductStore) AddProduct(ctx context.Context, in *domain.NewProductInput) (*domain.Product, error) {
	f.addCalls++
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Product{ID: "store-1", Name: in.Name, Category: in.Category, Price: in.Price, Quantity: in.Quantity, CreatedAt: time.Now()}, nil
}

func (f *fakeProductStore) UpdateProductQuantity(ctx context.Context, id string, quantity int) error {
	f.patchCalls++
	return f.err
}

func newTestCatalog(api *fakeRest, store *fakeProductStore) *CatalogService {
	return NewCatalogService(api, store, cache.New[[]string](time.Minute), observability.NewMetrics(), zap.NewNop())
}

func sampleProducts() []domain.Product {
	return []domain.Product{
		{ID: "p1", Name: "Bolo de Chocolate", Category: "Bolos", Price: 45.5, Quantity: 10},
		{ID: "p2", Name: "Cupcake de Baunilha", Category: "Cupcakes", Price: 8.0, Quantity: 25},
		{ID: "p3", Name: "Bolo de Cenoura", Category: "Bolos", Price: 40, Quantity: 4},
	}
}

func TestListProductsRestServes(t *testing.T) {
	api := &fakeRest{products: domain.OK(sampleProducts(), 200)}
	store := &fakeProductStore{}
	svc := newTestCatalog(api, store)

	products, err := svc.ListProducts(context.Background(), domain.CategoryAll, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(products) != 3 {
		t.Errorf("got %d products", len(products))
	}
	if store.listCalls != 0 {
		t.Errorf("store should not be consulted when rest serves, got %d calls", store.listCalls)
	}
}

func TestListProductsFallsBackToStore(t *testing.T) {
	api := &fakeRest{products: domain.Fail[[]domain.Product]("network error")}
	store := &fakeProductStore{products: sampleProducts()}
	svc := newTestCatalog(api, store)

	products, err := svc.ListProducts(context.Background(), domain.CategoryAll, "")
	if err != nil {
		t.Fatalf("rest failure must be hidden when store serves: %v", err)
	}
	if len(products) != 3 {
		t.Errorf("got %d products", len(products))
	}
	if store.listCalls != 1 {
		t.Errorf("store consulted %d times, want exactly 1", store.listCalls)
	}
}

func TestListProductsBothTiersDown(t *testing.T) {
	api := &fakeRest{products: domain.Fail[[]domain.Product]("network error")}
	store := &fakeProductStore{err: errors.New("store down")}
	svc := newTestCatalog(api, store)

	_, err := svc.ListProducts(context.Background(), domain.CategoryAll, "")
	if err == nil {
		t.Fatal("expected error when both tiers fail")
	}
}

func TestListProductsAppliesConjunctiveFilter(t *testing.T) {
	api := &fakeRest{products: domain.OK(sampleProducts(), 200)}
	svc := newTestCatalog(api, &fakeProductStore{})

	products, err := svc.ListProducts(context.Background(), "Bolos", "choco")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(products) != 1 || products[0].Name != "Bolo de Chocolate" {
		t.Errorf("unexpected filter result %+v", products)
	}
}

func TestLowStock(t *testing.T) {
	api := &fakeRest{products: domain.OK(sampleProducts(), 200)}
	svc := newTestCatalog(api, &fakeProductStore{})

	low, err := svc.LowStock(context.Background())
	if err != nil {
		t.Fatalf("low stock: %v", err)
	}
	if len(low) != 1 || low[0].ID != "p3" {
		t.Errorf("expected only the quantity-4 product, got %+v", low)
	}
}

func TestCategoriesCachedAfterFirstFetch(t *testing.T) {
	api := &fakeRest{categories: domain.OK([]string{"Bolos", "Tortas"}, 200)}
	svc := newTestCatalog(api, &fakeProductStore{})

	first := svc.Categories(context.Background())
	if len(first) != 2 {
		t.Fatalf("got %v", first)
	}

	// Second read must come from the cache even if the rest tier changes.
	api.categories = domain.Fail[[]string]("down")
	second := svc.Categories(context.Background())
	if len(second) != 2 {
		t.Errorf("expected cached categories, got %v", second)
	}
}

func TestCategoriesFixedSetWhenRestDown(t *testing.T) {
	api := &fakeRest{categories: domain.Fail[[]string]("down")}
	svc := newTestCatalog(api, &fakeProductStore{})

	got := svc.Categories(context.Background())
	if len(got) != len(domain.Categories) {
		t.Errorf("expected fixed category set, got %v", got)
	}
}
