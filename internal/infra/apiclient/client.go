// Package apiclient is the REST data-access layer. Every resource operation
// is a typed call over one shared http.Client, and every outcome, success or
// failure, comes back as an Envelope. Network, timeout and provider errors
// never escape as Go errors; callers branch on Envelope.Success.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/doceencanto/storefront-go/internal/domain"
	"github.com/doceencanto/storefront-go/internal/port"
)

var tracer = otel.Tracer("apiclient")

// Client issues authenticated requests against the storefront REST backend.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     port.TokenSource
	logger     *zap.Logger
}

// NewClient creates the data-access client. The http.Client's Timeout bounds
// every call; the token source is consulted fresh on each request.
func NewClient(httpClient *http.Client, baseURL string, tokens port.TokenSource, logger *zap.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		tokens:     tokens,
		logger:     logger,
	}
}

// serverError is the failure body the backend sends on non-2xx responses.
type serverError struct {
	Error string `json:"error"`
}

// request executes one REST call and classifies the outcome into an envelope.
// requireAuth marks mutations: without a current token they fail before any
// network I/O.
func request[T any](ctx context.Context, c *Client, method, path string, payload any, requireAuth bool) domain.Envelope[T] {
	ctx, span := tracer.Start(ctx, "API "+method+" "+path)
	defer span.End()

	token := c.tokens.CurrentToken(ctx)
	if requireAuth && token == "" {
		return domain.Fail[T]("not authenticated")
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return domain.Fail[T](fmt.Sprintf("failed to encode request: %v", err))
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return domain.Fail[T](fmt.Sprintf("failed to build request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		msg := "network error"
		var ne net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
			msg = "request timed out"
		}
		c.logger.Warn("api: request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return domain.Fail[T](msg)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Fail[T]("failed to read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := http.StatusText(resp.StatusCode)
		var se serverError
		if json.Unmarshal(raw, &se) == nil && se.Error != "" {
			msg = se.Error
		}
		c.logger.Warn("api: non-2xx response",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return domain.FailStatus[T](msg, resp.StatusCode)
	}

	var data T
	if len(raw) > 0 && resp.StatusCode != http.StatusNoContent {
		if err := json.Unmarshal(raw, &data); err != nil {
			return domain.Fail[T](fmt.Sprintf("failed to decode response: %v", err))
		}
	}
	return domain.OK(data, resp.StatusCode)
}

// --- Health ---

func (c *Client) Health(ctx context.Context) domain.Envelope[domain.APIHealth] {
	return request[domain.APIHealth](ctx, c, http.MethodGet, "/health", nil, false)
}

// --- Products ---

func (c *Client) ListProducts(ctx context.Context) domain.Envelope[[]domain.Product] {
	return request[[]domain.Product](ctx, c, http.MethodGet, "/products", nil, false)
}

func (c *Client) GetProduct(ctx context.Context, id string) domain.Envelope[domain.Product] {
	return request[domain.Product](ctx, c, http.MethodGet, "/products/"+url.PathEscape(id), nil, false)
}

func (c *Client) CreateProduct(ctx context.Context, in *domain.NewProductInput) domain.Envelope[domain.Product] {
	return request[domain.Product](ctx, c, http.MethodPost, "/products", in, true)
}

func (c *Client) UpdateProduct(ctx context.Context, id string, in *domain.NewProductInput) domain.Envelope[domain.Product] {
	return request[domain.Product](ctx, c, http.MethodPut, "/products/"+url.PathEscape(id), in, true)
}

type quantityPatch struct {
	Quantity int `json:"quantity"`
}

func (c *Client) UpdateProductQuantity(ctx context.Context, id string, quantity int) domain.Envelope[domain.Product] {
	return request[domain.Product](ctx, c, http.MethodPatch, "/products/"+url.PathEscape(id), quantityPatch{Quantity: quantity}, true)
}

func (c *Client) DeleteProduct(ctx context.Context, id string) domain.Envelope[struct{}] {
	return request[struct{}](ctx, c, http.MethodDelete, "/products/"+url.PathEscape(id), nil, true)
}

// --- Categories ---

func (c *Client) ListCategories(ctx context.Context) domain.Envelope[[]string] {
	return request[[]string](ctx, c, http.MethodGet, "/categories", nil, false)
}

// --- Orders ---

func (c *Client) ListOrders(ctx context.Context) domain.Envelope[[]domain.Order] {
	return request[[]domain.Order](ctx, c, http.MethodGet, "/orders", nil, true)
}

func (c *Client) GetOrder(ctx context.Context, id string) domain.Envelope[domain.Order] {
	return request[domain.Order](ctx, c, http.MethodGet, "/orders/"+url.PathEscape(id), nil, true)
}

func (c *Client) CreateOrder(ctx context.Context, order *domain.Order) domain.Envelope[domain.Order] {
	return request[domain.Order](ctx, c, http.MethodPost, "/orders", order, true)
}

// --- Profile ---

func (c *Client) GetProfile(ctx context.Context) domain.Envelope[domain.Profile] {
	return request[domain.Profile](ctx, c, http.MethodGet, "/profile", nil, true)
}

func (c *Client) UpdateProfile(ctx context.Context, profile *domain.Profile) domain.Envelope[domain.Profile] {
	return request[domain.Profile](ctx, c, http.MethodPut, "/profile", profile, true)
}

// --- Addresses ---

func (c *Client) ListAddresses(ctx context.Context) domain.Envelope[[]domain.Address] {
	return request[[]domain.Address](ctx, c, http.MethodGet, "/addresses", nil, true)
}

func (c *Client) AddAddress(ctx context.Context, addr *domain.Address) domain.Envelope[domain.Address] {
	return request[domain.Address](ctx, c, http.MethodPost, "/addresses", addr, true)
}

func (c *Client) DeleteAddress(ctx context.Context, id string) domain.Envelope[struct{}] {
	return request[struct{}](ctx, c, http.MethodDelete, "/addresses/"+url.PathEscape(id), nil, true)
}

// --- Payments ---

func (c *Client) ListPaymentMethods(ctx context.Context) domain.Envelope[[]domain.PaymentMethod] {
	return request[[]domain.PaymentMethod](ctx, c, http.MethodGet, "/payments/methods", nil, true)
}

func (c *Client) AddPaymentMethod(ctx context.Context, pm *domain.PaymentMethod) domain.Envelope[domain.PaymentMethod] {
	return request[domain.PaymentMethod](ctx, c, http.MethodPost, "/payments/methods", pm, true)
}

// --- Reports ---

func (c *Client) SalesReport(ctx context.Context) domain.Envelope[[]domain.Sale] {
	return request[[]domain.Sale](ctx, c, http.MethodGet, "/reports/sales", nil, false)
}

func (c *Client) TopProducts(ctx context.Context) domain.Envelope[[]domain.TopProduct] {
	return request[[]domain.TopProduct](ctx, c, http.MethodGet, "/reports/top-products", nil, false)
}

// --- Reviews ---

func (c *Client) ListReviews(ctx context.Context, productID string) domain.Envelope[[]domain.Review] {
	return request[[]domain.Review](ctx, c, http.MethodGet, "/products/"+url.PathEscape(productID)+"/reviews", nil, false)
}

func (c *Client) AddReview(ctx context.Context, review *domain.Review) domain.Envelope[domain.Review] {
	return request[domain.Review](ctx, c, http.MethodPost, "/products/"+url.PathEscape(review.ProductID)+"/reviews", review, true)
}

// --- Coupons ---

func (c *Client) ValidateCoupon(ctx context.Context, code string) domain.Envelope[domain.Coupon] {
	return request[domain.Coupon](ctx, c, http.MethodGet, "/coupons/"+url.PathEscape(code), nil, true)
}

// --- Support ---

func (c *Client) CreateSupportTicket(ctx context.Context, ticket *domain.SupportTicket) domain.Envelope[domain.SupportTicket] {
	return request[domain.SupportTicket](ctx, c, http.MethodPost, "/support/tickets", ticket, true)
}
