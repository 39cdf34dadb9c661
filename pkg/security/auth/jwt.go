// Package auth issues and validates the session tokens the API runs on.
// Guest sessions get a token like any other; the Guest claim is what routes
// their data to the local store.
package auth

import (
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ewellner/daybridge/pkg/config"
)

// Claims carries the session identity inside the JWT.
type Claims struct {
	UID         string `json:"uid"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Guest       bool   `json:"guest"`
	jwt.RegisteredClaims
}

// JWTService signs, validates and refreshes session tokens.
type JWTService struct {
	secretKey     []byte
	tokenDuration time.Duration
	issuer        string
}

func NewJWTService(cfg *config.Config) *JWTService {
	hours := cfg.Auth.JWTExpiryHours
	if hours == 0 {
		hours = 72
	}
	return &JWTService{
		secretKey:     []byte(cfg.Auth.JWTSecret),
		tokenDuration: time.Duration(hours) * time.Hour,
		issuer:        cfg.Auth.JWTIssuer,
	}
}

// GenerateToken signs a session token for the given identity.
func (s *JWTService) GenerateToken(uid, email, displayName string, guest bool) (string, error) {
	now := time.Now()
	claims := Claims{
		UID:         uid,
		Email:       email,
		DisplayName: displayName,
		Guest:       guest,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   uid,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies a session token.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}

// RefreshToken issues a new token when the current one is within six hours
// of expiry; otherwise the original is returned unchanged.
func (s *JWTService) RefreshToken(tokenString string) (string, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return "", err
	}

	threshold := claims.ExpiresAt.Add(-6 * time.Hour)
	if time.Now().Before(threshold) {
		return tokenString, nil
	}
	return s.GenerateToken(claims.UID, claims.Email, claims.DisplayName, claims.Guest)
}

// TokenBlacklist tracks tokens revoked by sign-out until they expire.
type TokenBlacklist struct {
	blacklist map[string]time.Time
	mu        sync.RWMutex
}

var (
	blacklist     *TokenBlacklist
	blacklistOnce sync.Once
)

func GetTokenBlacklist() *TokenBlacklist {
	blacklistOnce.Do(func() {
		blacklist = &TokenBlacklist{blacklist: make(map[string]time.Time)}
	})
	return blacklist
}

func (tb *TokenBlacklist) AddToBlacklist(tokenString string, expiry time.Time) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.blacklist[tokenString] = expiry
	now := time.Now()
	for token, exp := range tb.blacklist {
		if now.After(exp) {
			delete(tb.blacklist, token)
		}
	}
}

func (tb *TokenBlacklist) IsBlacklisted(tokenString string) bool {
	tb.mu.RLock()
	defer tb.mu.RUnlock()
	_, exists := tb.blacklist[tokenString]
	return exists
}
