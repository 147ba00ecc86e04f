package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/doceencanto/storefront-go/internal/domain"
)

type staticTokens string

func (s staticTokens) CurrentToken(ctx context.Context) string { return string(s) }

func newTestClient(t *testing.T, token string, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(
		&http.Client{Timeout: 2 * time.Second},
		srv.URL+"/api",
		staticTokens(token),
		zap.NewNop(),
	)
}

func TestListProductsSuccessEnvelope(t *testing.T) {
	c := newTestClient(t, "tok-1", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/products" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("Authorization = %q", got)
		}
		json.NewEncoder(w).Encode([]domain.Product{
			{ID: "p1", Name: "Bolo de Chocolate", Price: 45.5, Quantity: 10},
		})
	})

	env := c.ListProducts(context.Background())
	if !env.Success {
		t.Fatalf("expected success, got %q", env.Error)
	}
	if env.Status != http.StatusOK {
		t.Errorf("status = %d", env.Status)
	}
	if len(env.Data) != 1 || env.Data[0].Name != "Bolo de Chocolate" {
		t.Errorf("unexpected data %+v", env.Data)
	}
}

func TestGetProductNotFoundEnvelope(t *testing.T) {
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"product not found"}`))
	})

	env := c.GetProduct(context.Background(), "ghost")
	if env.Success {
		t.Fatal("expected failure envelope")
	}
	if env.Status != http.StatusNotFound {
		t.Errorf("status = %d, want 404", env.Status)
	}
	if env.Error != "product not found" {
		t.Errorf("error = %q", env.Error)
	}
}

func TestCreateProductRequiresToken(t *testing.T) {
	called := false
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	env := c.CreateProduct(context.Background(), &domain.NewProductInput{Name: "Bolo"})
	if env.Success {
		t.Fatal("expected failure envelope")
	}
	if env.Error != "not authenticated" {
		t.Errorf("error = %q, want \"not authenticated\"", env.Error)
	}
	if called {
		t.Error("no request should be made without a token")
	}
}

func TestCreateProductCreated(t *testing.T) {
	c := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		var in domain.NewProductInput
		json.NewDecoder(r.Body).Decode(&in)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(domain.Product{
			ID: "gen-1", Name: in.Name, Category: in.Category,
			Price: in.Price, Quantity: in.Quantity, CreatedAt: time.Now(),
		})
	})

	env := c.CreateProduct(context.Background(), &domain.NewProductInput{
		Name: "Torta de Limão", Category: "Tortas", Price: 30, Description: "d", Quantity: 5,
	})
	if !env.Success {
		t.Fatalf("expected success, got %q", env.Error)
	}
	if env.Status != http.StatusCreated {
		t.Errorf("status = %d, want 201", env.Status)
	}
	if env.Data.ID != "gen-1" {
		t.Errorf("id = %q", env.Data.ID)
	}
}

func TestTransportFailureBecomesEnvelope(t *testing.T) {
	// Server closed before the call: the failure must come back as an
	// envelope, never as a panic or error return.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewClient(&http.Client{Timeout: time.Second}, srv.URL+"/api", staticTokens(""), zap.NewNop())

	env := c.ListProducts(context.Background())
	if env.Success {
		t.Fatal("expected failure envelope")
	}
	if env.Status != 0 {
		t.Errorf("transport failure should carry no HTTP status, got %d", env.Status)
	}
	if env.Error == "" {
		t.Error("expected error message")
	}
}

func TestTimeoutBecomesEnvelope(t *testing.T) {
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	})
	c.httpClient = &http.Client{Timeout: 20 * time.Millisecond}

	env := c.Health(context.Background())
	if env.Success {
		t.Fatal("expected failure envelope")
	}
}

func TestDeleteNoContent(t *testing.T) {
	c := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	env := c.DeleteProduct(context.Background(), "p1")
	if !env.Success {
		t.Fatalf("expected success, got %q", env.Error)
	}
	if env.Status != http.StatusNoContent {
		t.Errorf("status = %d", env.Status)
	}
}
