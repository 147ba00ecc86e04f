// Package firestore provides a client for the Firestore REST API. It is the
// document-store side of the dual-backend catalog: the durable system of
// record the storefront falls back to when the REST tier is down.
package firestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/doceencanto/storefront-go/internal/domain"
	"github.com/doceencanto/storefront-go/internal/infra/resilience"
	"github.com/doceencanto/storefront-go/internal/port"
)

var tracer = otel.Tracer("firestore")

// Client wraps HTTP calls to the Firestore documents API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	project    string
	tokens     port.TokenSource
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
	logger     *zap.Logger
}

// NewClient creates a Firestore client. The token source is consulted on
// every request so each call carries the current credential.
func NewClient(httpClient *http.Client, baseURL, project string, tokens port.TokenSource, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		project:    project,
		tokens:     tokens,
		cb:         cb,
		cfg:        cfg,
		logger:     logger,
	}
}

// docPath builds the path under the project's default database.
func (c *Client) docPath(parts string) string {
	return fmt.Sprintf("%s/v1/projects/%s/databases/(default)/documents/%s", c.baseURL, c.project, parts)
}

// doRequest executes one documents-API request. A 404 surfaces as errMissing
// so typed callers can map it to the right ErrNotFound.
var errMissing = fmt.Errorf("document missing")

func (c *Client) doRequest(ctx context.Context, method, url string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.tokens.CurrentToken(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("firestore: request failed",
			zap.String("method", method),
			zap.String("url", url),
			zap.Error(err),
		)
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, errMissing
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("firestore: non-2xx response",
			zap.String("method", method),
			zap.String("url", url),
			zap.Int("status", resp.StatusCode),
		)
		return nil, fmt.Errorf("firestore returned status %d: %s", resp.StatusCode, string(raw))
	}

	c.logger.Debug("firestore: request OK",
		zap.String("method", method),
		zap.Int("status", resp.StatusCode),
	)
	return raw, nil
}

// execute runs fn behind the circuit breaker with retries, wrapping terminal
// failures as external-service errors. Document misses pass through untouched.
func (c *Client) execute(service string, ctx context.Context, fn func() error) error {
	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, fn)
	})
	if err != nil {
		var nf *domain.ErrNotFound
		if errors.As(err, &nf) {
			return nf
		}
		return &domain.ErrExternalService{Service: service, Err: err}
	}
	return nil
}

// --- Profiles ("users" collection, doc id = principal uid) ---

// GetProfile reads the role-bearing profile document for a principal.
func (c *Client) GetProfile(ctx context.Context, uid string) (*domain.Profile, error) {
	ctx, span := tracer.Start(ctx, "Firestore.GetProfile")
	defer span.End()
	span.SetAttributes(attribute.String("user.uid", uid))

	var profile *domain.Profile
	err := c.execute("firestore/users", ctx, func() error {
		raw, err := c.doRequest(ctx, http.MethodGet, c.docPath("users/"+uid), nil)
		if err == errMissing {
			return &domain.ErrNotFound{Resource: "profile", ID: uid}
		}
		if err != nil {
			return err
		}

		var doc document
		if err := json.Unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("failed to decode profile document: %w", err)
		}
		profile = &domain.Profile{
			UID:   uid,
			Name:  doc.str("name"),
			Email: doc.str("email"),
			Role:  domain.ParseRole(doc.str("userType")),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// SetProfile upserts the profile document for a principal.
func (c *Client) SetProfile(ctx context.Context, profile *domain.Profile) error {
	ctx, span := tracer.Start(ctx, "Firestore.SetProfile")
	defer span.End()
	span.SetAttributes(attribute.String("user.uid", profile.UID))

	doc := newDocument().
		set("name", strVal(profile.Name)).
		set("email", strVal(profile.Email)).
		set("userType", strVal(string(profile.Role)))

	return c.execute("firestore/users", ctx, func() error {
		_, err := c.doRequest(ctx, http.MethodPatch, c.docPath("users/"+profile.UID), doc)
		return err
	})
}

// --- Products collection ---

// ListProducts reads the whole products collection, normalizing partial
// documents so missing numeric fields display as zero.
func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	ctx, span := tracer.Start(ctx, "Firestore.ListProducts")
	defer span.End()

	var products []domain.Product
	err := c.execute("firestore/products", ctx, func() error {
		raw, err := c.doRequest(ctx, http.MethodGet, c.docPath("products"), nil)
		if err == errMissing {
			products = []domain.Product{}
			return nil
		}
		if err != nil {
			return err
		}

		var list documentList
		if err := json.Unmarshal(raw, &list); err != nil {
			return fmt.Errorf("failed to decode products: %w", err)
		}

		products = make([]domain.Product, 0, len(list.Documents))
		for _, doc := range list.Documents {
			p := docToProduct(doc)
			p.Normalize()
			products = append(products, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return products, nil
}

// AddProduct creates a product document with a store-generated id.
func (c *Client) AddProduct(ctx context.Context, in *domain.NewProductInput) (*domain.Product, error) {
	ctx, span := tracer.Start(ctx, "Firestore.AddProduct")
	defer span.End()
	span.SetAttributes(attribute.String("product.name", in.Name))

	doc := newDocument().
		set("name", strVal(in.Name)).
		set("category", strVal(in.Category)).
		set("price", doubleVal(in.Price)).
		set("description", strVal(in.Description)).
		set("quantity", intVal(in.Quantity))

	var created *domain.Product
	err := c.execute("firestore/products", ctx, func() error {
		raw, err := c.doRequest(ctx, http.MethodPost, c.docPath("products"), doc)
		if err != nil {
			return err
		}

		var out document
		if err := json.Unmarshal(raw, &out); err != nil {
			return fmt.Errorf("failed to decode created product: %w", err)
		}
		p := docToProduct(out)
		created = &p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateProductQuantity patches only the quantity field of a product document.
func (c *Client) UpdateProductQuantity(ctx context.Context, id string, quantity int) error {
	ctx, span := tracer.Start(ctx, "Firestore.UpdateProductQuantity")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", id), attribute.Int("product.quantity", quantity))

	doc := newDocument().set("quantity", intVal(quantity))
	url := c.docPath("products/"+id) + "?updateMask.fieldPaths=quantity"

	return c.execute("firestore/products", ctx, func() error {
		_, err := c.doRequest(ctx, http.MethodPatch, url, doc)
		if err == errMissing {
			return &domain.ErrNotFound{Resource: "product", ID: id}
		}
		return err
	})
}

// --- Sales collection ---

// ListSales reads the sales collection for vendor reports.
func (c *Client) ListSales(ctx context.Context) ([]domain.Sale, error) {
	ctx, span := tracer.Start(ctx, "Firestore.ListSales")
	defer span.End()

	var sales []domain.Sale
	err := c.execute("firestore/sales", ctx, func() error {
		raw, err := c.doRequest(ctx, http.MethodGet, c.docPath("sales"), nil)
		if err == errMissing {
			sales = []domain.Sale{}
			return nil
		}
		if err != nil {
			return err
		}

		var list documentList
		if err := json.Unmarshal(raw, &list); err != nil {
			return fmt.Errorf("failed to decode sales: %w", err)
		}

		sales = make([]domain.Sale, 0, len(list.Documents))
		for _, doc := range list.Documents {
			sales = append(sales, domain.Sale{
				ID:        doc.id(),
				Product:   doc.str("product"),
				Total:     doc.double("total"),
				CreatedAt: doc.createdAt(),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sales, nil
}

func docToProduct(doc document) domain.Product {
	p := domain.Product{
		ID:          doc.id(),
		Name:        doc.str("name"),
		Category:    doc.str("category"),
		Price:       doc.double("price"),
		Description: doc.str("description"),
		Quantity:    doc.integer("quantity"),
		CreatedAt:   doc.createdAt(),
	}
	if img := doc.str("image"); img != "" {
		p.Image = &img
	}
	return p
}
