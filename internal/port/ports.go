// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the session and
// service layers from the concrete auth provider, document store and REST
// backend clients.
package port

import (
	"context"

	"github.com/doceencanto/storefront-go/internal/domain"
)

// AuthProvider is the boundary to the external authentication provider.
type AuthProvider interface {
	// Subscribe registers a callback for auth-state changes. The callback
	// receives the current principal or nil when signed out, and fires once
	// immediately with the current state. The returned function removes the
	// subscription.
	Subscribe(onChange func(*domain.Principal)) (unsubscribe func())

	SignIn(ctx context.Context, email, password string) (*domain.Principal, error)
	SignOut(ctx context.Context) error

	// CurrentToken returns the bearer credential for the signed-in principal,
	// or "" when none is available. Fetched fresh on every data-access call.
	CurrentToken(ctx context.Context) string
}

// TokenSource is the slice of AuthProvider the data-access layer needs.
type TokenSource interface {
	CurrentToken(ctx context.Context) string
}

// ProfileStore resolves per-principal profile documents.
type ProfileStore interface {
	GetProfile(ctx context.Context, uid string) (*domain.Profile, error)
	SetProfile(ctx context.Context, profile *domain.Profile) error
}

// ProductStore is the document-store side of the product catalog, used as the
// fallback when the REST tier is absent or down.
type ProductStore interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	AddProduct(ctx context.Context, in *domain.NewProductInput) (*domain.Product, error)
	UpdateProductQuantity(ctx context.Context, id string, quantity int) error
}

// SalesStore reads the sales collection for vendor reports.
type SalesStore interface {
	ListSales(ctx context.Context) ([]domain.Sale, error)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
