package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/doceencanto/storefront-go/internal/domain"
	"github.com/doceencanto/storefront-go/internal/infra/memstore"
)

const bcryptCost = 12

// TokenGrant is the identity emulator's token response payload, shaped like
// the accounts API the storefront client speaks.
type TokenGrant struct {
	IDToken   string `json:"idToken"`
	Email     string `json:"email"`
	LocalID   string `json:"localId"`
	ExpiresIn string `json:"expiresIn"`
}

// IDClaims are the custom claims inside an emulator-issued ID token.
type IDClaims struct {
	Email    string `json:"email"`
	UserType string `json:"userType"`
	jwt.RegisteredClaims
}

// IdentityService is the local stand-in for the external auth provider:
// bcrypt-verified accounts in memory, HS256-signed ID tokens out.
type IdentityService struct {
	users     *memstore.UserStore
	jwtSecret []byte
	accessTTL time.Duration
	logger    *zap.Logger
}

// NewIdentityService creates the identity emulator service.
func NewIdentityService(users *memstore.UserStore, jwtSecret string, accessTTL time.Duration, logger *zap.Logger) *IdentityService {
	return &IdentityService{
		users:     users,
		jwtSecret: []byte(jwtSecret),
		accessTTL: accessTTL,
		logger:    logger,
	}
}

// SignUp registers an account and signs it in. Error messages carry the
// provider's error codes so the client maps them the same way it maps the
// real provider's.
func (s *IdentityService) SignUp(ctx context.Context, email, password, name string, role domain.Role) (*TokenGrant, error) {
	ctx, span := tracer.Start(ctx, "IdentityService.SignUp")
	defer span.End()

	if !strings.Contains(email, "@") {
		return nil, &domain.ErrValidation{Field: "email", Message: "INVALID_EMAIL"}
	}
	if len(password) < 6 {
		return nil, &domain.ErrValidation{Field: "password", Message: "WEAK_PASSWORD"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.users.CreateUser(ctx, memstore.User{
		Email:        email,
		Name:         name,
		Role:         role,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("identity: account created",
		zap.String("uid", user.UID),
		zap.String("role", string(role)),
	)
	return s.grant(user)
}

// SignInWithPassword verifies credentials and issues an ID token.
func (s *IdentityService) SignInWithPassword(ctx context.Context, email, password string) (*TokenGrant, error) {
	ctx, span := tracer.Start(ctx, "IdentityService.SignInWithPassword")
	defer span.End()

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		var nf *domain.ErrNotFound
		if errors.As(err, &nf) {
			return nil, &domain.ErrUnauthorized{Message: "EMAIL_NOT_FOUND"}
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		s.logger.Warn("identity: password mismatch", zap.String("uid", user.UID))
		return nil, &domain.ErrUnauthorized{Message: "INVALID_PASSWORD"}
	}

	return s.grant(user)
}

// GetProfile exposes the stored account as a profile document, so a locally
// running storefront can resolve roles without a real document store.
func (s *IdentityService) GetProfile(ctx context.Context, uid string) (*domain.Profile, error) {
	user, err := s.users.GetUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	return &domain.Profile{
		UID:   user.UID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	}, nil
}

// ValidateIDToken parses and verifies an emulator-issued token.
func (s *IdentityService) ValidateIDToken(tokenString string) (*IDClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &IDClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, &domain.ErrUnauthorized{Message: "INVALID_ID_TOKEN"}
	}

	claims, ok := token.Claims.(*IDClaims)
	if !ok || !token.Valid {
		return nil, &domain.ErrUnauthorized{Message: "INVALID_ID_TOKEN"}
	}
	return claims, nil
}

func (s *IdentityService) grant(user memstore.User) (*TokenGrant, error) {
	now := time.Now()
	claims := IDClaims{
		Email:    user.Email,
		UserType: string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.UID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			Issuer:    "bakeryd-identity",
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign id token: %w", err)
	}

	return &TokenGrant{
		IDToken:   signed,
		Email:     user.Email,
		LocalID:   user.UID,
		ExpiresIn: strconv.Itoa(int(s.accessTTL.Seconds())),
	}, nil
}
