package integration

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/doceencanto/storefront-go/internal/domain"
	"github.com/doceencanto/storefront-go/internal/handler"
	"github.com/doceencanto/storefront-go/internal/infra/apiclient"
	"github.com/doceencanto/storefront-go/internal/infra/cache"
	"github.com/doceencanto/storefront-go/internal/infra/identity"
	"github.com/doceencanto/storefront-go/internal/infra/memstore"
	"github.com/doceencanto/storefront-go/internal/infra/observability"
	"github.com/doceencanto/storefront-go/internal/infra/resilience"
	"github.com/doceencanto/storefront-go/internal/service"
	"github.com/doceencanto/storefront-go/internal/session"
)

// startBackend boots bakeryd on an httptest listener and returns the wired
// REST and identity clients pointed at it.
func startBackend(t *testing.T, authRequired bool) (*httptest.Server, *apiclient.Client, *identity.Client) {
	t.Helper()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()

	backend := service.NewBackendService(memstore.NewProductStore(), memstore.NewSalesStore(), logger)
	idsvc := service.NewIdentityService(memstore.NewUserStore(), "integration-secret", time.Hour, logger)

	srv := httptest.NewServer(handler.NewRouter(backend, idsvc, metrics, logger, authRequired))
	t.Cleanup(srv.Close)

	auth := identity.NewClient(srv.Client(), srv.URL+"/identity", "", resilience.NewCircuitBreaker("identity"), logger)
	api := apiclient.NewClient(srv.Client(), srv.URL+"/api", auth, logger)
	return srv, api, auth
}

func TestProductRoundTrip(t *testing.T) {
	_, api, _ := startBackend(t, false)
	ctx := context.Background()

	created := api.CreateProduct(ctx, &domain.NewProductInput{
		Name:     "Torta de Limão",
		Category: "Tortas",
		Price:    62.0,
		Quantity: 4,
	})
	if !created.Success {
		t.Fatalf("CreateProduct failed: %s (status %d)", created.Error, created.Status)
	}
	if created.Status != http.StatusCreated {
		t.Fatalf("expected 201, got %d", created.Status)
	}
	if created.Data.ID == "" || created.Data.CreatedAt.IsZero() {
		t.Fatalf("expected generated id and timestamp, got %+v", created.Data)
	}

	got := api.GetProduct(ctx, created.Data.ID)
	if !got.Success {
		t.Fatalf("GetProduct failed: %s", got.Error)
	}
	if got.Data.Name != "Torta de Limão" || got.Data.Quantity != 4 {
		t.Fatalf("round-trip mismatch: %+v", got.Data)
	}
	if !got.Data.LowStock() {
		t.Fatal("quantity 4 should be flagged as low stock")
	}
}

func TestUnknownProductEnvelope(t *testing.T) {
	_, api, _ := startBackend(t, false)

	env := api.GetProduct(context.Background(), "no-such-id")
	if env.Success {
		t.Fatal("expected failure envelope for unknown id")
	}
	if env.Status != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", env.Status)
	}
	var nf *domain.ErrNotFound
	if !errors.As(env.Err(), &nf) {
		t.Fatalf("expected not-found error, got %v", env.Err())
	}
}

func TestHealthEndpoint(t *testing.T) {
	_, api, _ := startBackend(t, false)

	env := api.Health(context.Background())
	if !env.Success {
		t.Fatalf("Health failed: %s", env.Error)
	}
	if env.Data.Status != "ok" {
		t.Fatalf("expected status ok, got %q", env.Data.Status)
	}
	if _, err := time.Parse(time.RFC3339, env.Data.Timestamp); err != nil {
		t.Fatalf("timestamp not RFC3339: %q", env.Data.Timestamp)
	}
}

func TestAuthenticatedMutationFlow(t *testing.T) {
	_, api, auth := startBackend(t, true)
	ctx := context.Background()

	// No token yet: the data access layer must refuse locally, not call out.
	env := api.CreateProduct(ctx, &domain.NewProductInput{
		Name: "Pão de Mel", Category: "Doces", Price: 9.5, Quantity: 20,
	})
	if env.Success || env.Error != "not authenticated" {
		t.Fatalf("expected local auth refusal, got %+v", env)
	}

	if _, err := auth.SignUp(ctx, "vendor@doceencanto.dev", "segredo123"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	env = api.CreateProduct(ctx, &domain.NewProductInput{
		Name: "Pão de Mel", Category: "Doces", Price: 9.5, Quantity: 20,
	})
	if !env.Success {
		t.Fatalf("authenticated create failed: %s (status %d)", env.Error, env.Status)
	}

	// Reads stay public even when mutations are guarded.
	if list := api.ListProducts(ctx); !list.Success {
		t.Fatalf("public read failed: %s", list.Error)
	}
}

func TestSignInRejectsBadPassword(t *testing.T) {
	_, _, auth := startBackend(t, false)
	ctx := context.Background()

	if _, err := auth.SignUp(ctx, "cliente@doceencanto.dev", "segredo123"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if err := auth.SignOut(ctx); err != nil {
		t.Fatalf("SignOut: %v", err)
	}

	if _, err := auth.SignIn(ctx, "cliente@doceencanto.dev", "errada999"); err == nil {
		t.Fatal("expected sign-in rejection")
	}
	if auth.CurrentToken(ctx) != "" {
		t.Fatal("rejected sign-in must not leave a token behind")
	}
}

// memProfiles is a ProfileStore over a plain map, standing in for the
// document database in session tests.
type memProfiles struct {
	mu       sync.Mutex
	profiles map[string]domain.Role
}

func (m *memProfiles) GetProfile(ctx context.Context, uid string) (*domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	role, ok := m.profiles[uid]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "profile", ID: uid}
	}
	return &domain.Profile{UID: uid, Role: role}, nil
}

func (m *memProfiles) SetProfile(ctx context.Context, p *domain.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.UID] = p.Role
	return nil
}

func TestSessionAgainstIdentityEmulator(t *testing.T) {
	_, _, auth := startBackend(t, false)
	ctx := context.Background()

	principal, err := auth.SignUp(ctx, "dona@doceencanto.dev", "segredo123")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if err := auth.SignOut(ctx); err != nil {
		t.Fatalf("SignOut: %v", err)
	}

	profiles := &memProfiles{profiles: map[string]domain.Role{principal.UID: domain.RoleVendor}}
	mgr := session.NewManager(auth, profiles, 2*time.Second, zap.NewNop(), observability.NewMetrics())
	mgr.Start()
	defer mgr.Close()

	if err := mgr.Login(ctx, "dona@doceencanto.dev", "segredo123"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		snap := mgr.Snapshot()
		if snap.SignedIn() && snap.Role == domain.RoleVendor && !snap.Loading {
			break
		}
		select {
		case <-mgr.Changes():
		case <-deadline:
			t.Fatalf("session never settled: %+v", mgr.Snapshot())
		}
	}

	if err := mgr.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if snap := mgr.Snapshot(); snap.SignedIn() {
		t.Fatalf("logout left a principal behind: %+v", snap)
	}
}

func TestCatalogFallsBackWhenRESTIsDown(t *testing.T) {
	logger := zap.NewNop()

	// A server that is already closed stands in for an unreachable backend.
	dead := httptest.NewServer(http.NotFoundHandler())
	dead.Close()

	auth := identity.NewClient(&http.Client{Timeout: time.Second}, dead.URL+"/identity", "", resilience.NewCircuitBreaker("identity"), logger)
	api := apiclient.NewClient(&http.Client{Timeout: time.Second}, dead.URL+"/api", auth, logger)

	store := memstore.NewProductStore()
	catalog := service.NewCatalogService(api, store, cache.New[[]string](time.Minute), observability.NewMetrics(), logger)

	products, err := catalog.ListProducts(context.Background(), domain.CategoryAll, "")
	if err != nil {
		t.Fatalf("fallback path failed: %v", err)
	}
	if len(products) == 0 {
		t.Fatal("expected seeded products from the document store")
	}
}

func TestCatalogPrefersRESTWhenHealthy(t *testing.T) {
	_, api, _ := startBackend(t, false)
	logger := zap.NewNop()

	// Secondary store left empty so any result proves the REST path served.
	empty := &emptyProducts{}
	catalog := service.NewCatalogService(api, empty, cache.New[[]string](time.Minute), observability.NewMetrics(), logger)

	products, err := catalog.ListProducts(context.Background(), domain.CategoryAll, "")
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if len(products) == 0 {
		t.Fatal("expected the REST backend's seeded products")
	}
	if empty.calls != 0 {
		t.Fatalf("secondary consulted %d times while primary was healthy", empty.calls)
	}
}

type emptyProducts struct {
	calls int
}

func (e *emptyProducts) ListProducts(ctx context.Context) ([]domain.Product, error) {
	e.calls++
	return nil, nil
}

func (e *emptyProducts) AddProduct(ctx context.Context, in *domain.NewProductInput) (*domain.Product, error) {
	e.calls++
	return nil, &domain.ErrExternalService{Service: "firestore"}
}

func (e *emptyProducts) UpdateProductQuantity(ctx context.Context, id string, quantity int) error {
	e.calls++
	return &domain.ErrExternalService{Service: "firestore"}
}
