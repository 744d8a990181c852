package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"finhub/internal/model"
)

const (
	// RefreshTokenExpiry is the duration for which refresh tokens are valid.
	RefreshTokenExpiry = 30 * 24 * time.Hour

	tokenTypeSession = "session"
	tokenTypeRefresh = "refresh"
)

// Claims represents JWT claims. RegisteredClaims.ID is the token id used for
// revocation.
type Claims struct {
	UserID    uuid.UUID  `json:"user_id"`
	Email     string     `json:"email"`
	Role      model.Role `json:"role"`
	CompanyID string     `json:"company_id"`
	TokenType string     `json:"typ"`
	jwt.RegisteredClaims
}

// Remaining returns how long the token stays valid.
func (c *Claims) Remaining() time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return time.Until(c.ExpiresAt.Time)
}

// JWTService handles JWT token generation and validation.
type JWTService struct {
	secret     []byte
	sessionTTL time.Duration
}

// NewJWTService creates a new JWT service with the given secret.
func NewJWTService(secret string, sessionTTL time.Duration) *JWTService {
	return &JWTService{
		secret:     []byte(secret),
		sessionTTL: sessionTTL,
	}
}

// Secret returns the signing key, for the echo JWT middleware.
func (s *JWTService) Secret() []byte {
	return s.secret
}

// SessionTTL returns the lifetime of session tokens.
func (s *JWTService) SessionTTL() time.Duration {
	return s.sessionTTL
}

// GenerateSessionToken issues a session token for the user.
func (s *JWTService) GenerateSessionToken(user *model.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, s.claims(user, tokenTypeSession, s.sessionTTL))
	return token.SignedString(s.secret)
}

// GenerateRefreshToken generates a new refresh token for the user.
// The refresh token ID is returned separately for storage in Redis.
func (s *JWTService) GenerateRefreshToken(user *model.User) (tokenID string, token string, err error) {
	claims := s.claims(user, tokenTypeRefresh, RefreshTokenExpiry)
	tokenObj := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token, err = tokenObj.SignedString(s.secret)
	return claims.ID, token, err
}

func (s *JWTService) claims(user *model.User, typ string, ttl time.Duration) *Claims {
	now := time.Now()
	return &Claims{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		CompanyID: user.CompanyID,
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
}

// ValidateToken validates a JWT token and returns the claims.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// ValidateRefreshToken validates a refresh token and returns its claims.
func (s *JWTService) ValidateRefreshToken(tokenString string) (*Claims, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != tokenTypeRefresh || claims.ID == "" {
		return nil, errors.New("not a refresh token")
	}
	return claims, nil
}

// IsSession reports whether the claims belong to a session token.
func (c *Claims) IsSession() bool {
	return c.TokenType == tokenTypeSession
}
