package handler

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"finhub/internal/auth"
	"finhub/internal/policy"
	"finhub/internal/service"
)

const (
	// TokenContextKey is where the JWT middleware stores the parsed token.
	TokenContextKey  = "user"
	callerContextKey = "caller"
	// SessionCookie carries the session token for browser clients.
	SessionCookie = "token"
)

// Session resolves the validated token to a caller and stores it on the
// context. It rejects revoked sessions and users that are inactive or not
// approved.
func Session(authService service.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			caller, err := authService.Authenticate(c.Request().Context(), claimsFrom(c))
			if err != nil {
				return fail(err)
			}
			c.Set(callerContextKey, caller)
			return next(c)
		}
	}
}

func claimsFrom(c echo.Context) *auth.Claims {
	token, ok := c.Get(TokenContextKey).(*jwt.Token)
	if !ok {
		return nil
	}
	claims, _ := token.Claims.(*auth.Claims)
	return claims
}

// callerFrom returns the caller set by Session, or nil.
func callerFrom(c echo.Context) *policy.Caller {
	caller, _ := c.Get(callerContextKey).(*policy.Caller)
	return caller
}
