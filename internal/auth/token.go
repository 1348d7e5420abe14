package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/virevo/virevo/internal/config"
)

// ErrInvalidToken is returned for malformed, expired or wrongly signed tokens.
var ErrInvalidToken = errors.New("invalid token")

// Identity is the account data carried inside tokens.
type Identity struct {
	AccountID     string `json:"_id"`
	AnonymousName string `json:"anonymousName"`
	Email         string `json:"email"`
	Role          string `json:"role"`
}

// Claims are the JWT claims of both token kinds.
type Claims struct {
	Identity
	jwt.RegisteredClaims
}

// TokenPair is a freshly issued access and refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	// RefreshID is the jti of RefreshToken.
	RefreshID string
}

// Tokens signs and verifies HS256 tokens.
type Tokens struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewTokens creates a token service from the auth configuration.
func NewTokens(cfg config.AuthConfig) *Tokens {
	return &Tokens{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		now:           time.Now,
	}
}

// RefreshTTL returns the lifetime of refresh tokens.
func (t *Tokens) RefreshTTL() time.Duration { return t.refreshTTL }

// Issue signs a new access and refresh token for id.
func (t *Tokens) Issue(id Identity) (TokenPair, error) {
	access, _, err := t.sign(id, t.accessSecret, t.accessTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("failed to sign access token: %w", err)
	}
	refresh, jti, err := t.sign(id, t.refreshSecret, t.refreshTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh, RefreshID: jti}, nil
}

// ParseAccess verifies an access token.
func (t *Tokens) ParseAccess(token string) (*Claims, error) {
	return t.parse(token, t.accessSecret)
}

// ParseRefresh verifies a refresh token.
func (t *Tokens) ParseRefresh(token string) (*Claims, error) {
	return t.parse(token, t.refreshSecret)
}

func (t *Tokens) sign(id Identity, secret []byte, ttl time.Duration) (string, string, error) {
	now := t.now()
	jti := uuid.NewString()
	claims := Claims{
		Identity: id,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   id.AccountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", "", err
	}
	return signed, jti, nil
}

func (t *Tokens) parse(token string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.AccountID == "" || claims.ID == "" {
		return nil, fmt.Errorf("%w: missing account or token id", ErrInvalidToken)
	}
	return claims, nil
}
