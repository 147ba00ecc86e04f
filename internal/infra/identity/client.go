// Package identity provides the client for the external authentication
// provider (Firebase-style accounts REST API, or the bakeryd emulator of it).
// It owns the signed-in principal, the bearer token, and the auth-state
// subscription hub the session manager attaches to.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/doceencanto/storefront-go/internal/domain"
)

var tracer = otel.Tracer("identity")

// Client talks to the accounts API and tracks the local auth state.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	cb         *gobreaker.CircuitBreaker
	logger     *zap.Logger

	mu        sync.Mutex
	principal *domain.Principal
	token     string
	subs      map[int]func(*domain.Principal)
	nextSub   int
}

// NewClient creates an identity client. apiKey may be empty when talking to
// the emulator.
func NewClient(httpClient *http.Client, baseURL, apiKey string, cb *gobreaker.CircuitBreaker, logger *zap.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
		cb:         cb,
		logger:     logger,
		subs:       make(map[int]func(*domain.Principal)),
	}
}

type credentialsRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type tokenResponse struct {
	IDToken string `json:"idToken"`
	LocalID string `json:"localId"`
	Email   string `json:"email"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// postAccounts calls an accounts:<action> endpoint. Credential rejections come
// back as ErrUnauthorized or ErrConflict; everything else is a transport error.
func (c *Client) postAccounts(ctx context.Context, action string, payload any) (*tokenResponse, error) {
	url := fmt.Sprintf("%s/v1/accounts:%s", c.baseURL, action)
	if c.apiKey != "" {
		url += "?key=" + c.apiKey
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("identity: request failed",
			zap.String("action", action),
			zap.Error(err),
		)
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var er errorResponse
		_ = json.Unmarshal(raw, &er)
		c.logger.Warn("identity: provider rejected request",
			zap.String("action", action),
			zap.Int("status", resp.StatusCode),
			zap.String("code", er.Error.Message),
		)
		switch er.Error.Message {
		case "EMAIL_EXISTS":
			return nil, &domain.ErrConflict{Message: "e-mail já cadastrado"}
		case "EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS":
			return nil, &domain.ErrUnauthorized{Message: "e-mail ou senha inválidos"}
		}
		return nil, fmt.Errorf("identity provider returned status %d: %s", resp.StatusCode, string(raw))
	}

	var tok tokenResponse
	if err := json.Unmarshal(raw, &tok); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	return &tok, nil
}

// SignIn authenticates with email and password and publishes the new principal
// to subscribers.
func (c *Client) SignIn(ctx context.Context, email, password string) (*domain.Principal, error) {
	ctx, span := tracer.Start(ctx, "Identity.SignIn")
	defer span.End()
	span.SetAttributes(attribute.String("auth.email", email))

	res, err := c.cb.Execute(func() (any, error) {
		return c.postAccounts(ctx, "signInWithPassword", credentialsRequest{
			Email:             email,
			Password:          password,
			ReturnSecureToken: true,
		})
	})
	if err != nil {
		return nil, classifyAuthErr("signin", err)
	}

	tok := res.(*tokenResponse)
	principal := &domain.Principal{UID: tok.LocalID, Email: tok.Email}
	c.setState(principal, tok.IDToken)
	return principal, nil
}

// SignUp registers a new account and signs it in.
func (c *Client) SignUp(ctx context.Context, email, password string) (*domain.Principal, error) {
	ctx, span := tracer.Start(ctx, "Identity.SignUp")
	defer span.End()

	res, err := c.cb.Execute(func() (any, error) {
		return c.postAccounts(ctx, "signUp", credentialsRequest{
			Email:             email,
			Password:          password,
			ReturnSecureToken: true,
		})
	})
	if err != nil {
		return nil, classifyAuthErr("signup", err)
	}

	tok := res.(*tokenResponse)
	principal := &domain.Principal{UID: tok.LocalID, Email: tok.Email}
	c.setState(principal, tok.IDToken)
	return principal, nil
}

// SignOut drops the local credentials and publishes the signed-out state.
// The token is a self-contained JWT, so there is no remote session to revoke.
func (c *Client) SignOut(ctx context.Context) error {
	c.setState(nil, "")
	return nil
}

// CurrentToken returns the bearer token of the signed-in principal, or ""
// when nobody is signed in.
func (c *Client) CurrentToken(ctx context.Context) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// Subscribe registers an auth-state callback. It fires once synchronously
// with the current state, then on every sign-in and sign-out. The returned
// function removes the subscription.
func (c *Client) Subscribe(onChange func(*domain.Principal)) func() {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = onChange
	current := c.principal
	c.mu.Unlock()

	onChange(current)

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

func (c *Client) setState(p *domain.Principal, token string) {
	c.mu.Lock()
	c.principal = p
	c.token = token
	subs := make([]func(*domain.Principal), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(p)
	}
}

// classifyAuthErr keeps credential and conflict errors as-is so callers can
// surface precise messages, and wraps everything else as an external failure.
func classifyAuthErr(op string, err error) error {
	switch err.(type) {
	case *domain.ErrUnauthorized, *domain.ErrConflict:
		return err
	}
	return &domain.ErrExternalService{Service: "identity/" + op, Err: err}
}
