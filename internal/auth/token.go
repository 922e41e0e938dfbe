// Package auth issues and verifies session tokens and resolves them to users.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"unibuddy/backend/internal/apperr"
	"unibuddy/backend/internal/models"
	"unibuddy/backend/internal/storage"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "unibuddy-backend"

// Claims is the session token payload.
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies HS256 session tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a signed token for userID.
func (s *TokenService) Issue(userID string) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	})
	return token.SignedString(s.secret)
}

// Verify checks the signature and expiry and returns the user id.
func (s *TokenService) Verify(tokenString string) (string, error) {
	if tokenString == "" {
		return "", apperr.ErrUnauthenticated
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid || claims.UserID == "" {
		return "", apperr.ErrInvalidToken
	}
	return claims.UserID, nil
}

// Resolver turns a token into the stored user it names.
type Resolver struct {
	tokens *TokenService
	users  storage.UserStore
}

func NewResolver(tokens *TokenService, users storage.UserStore) *Resolver {
	return &Resolver{tokens: tokens, users: users}
}

// Resolve returns the user for tokenString. Unknown users are reported as
// unauthenticated, not as not found.
func (r *Resolver) Resolve(ctx context.Context, tokenString string) (*models.User, error) {
	userID, err := r.tokens.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	user, err := r.users.GetUserByID(ctx, userID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, fmt.Errorf("user not found: %w", apperr.ErrUnauthenticated)
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}
