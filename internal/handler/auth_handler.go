package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"finhub/internal/model"
	"finhub/internal/service"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService  service.AuthService
	userService  service.UserService
	cookieSecure bool
}

// NewAuthHandler creates a new auth handler. cookieSecure marks the session
// cookie Secure.
func NewAuthHandler(authService service.AuthService, userService service.UserService, cookieSecure bool) *AuthHandler {
	return &AuthHandler{authService: authService, userService: userService, cookieSecure: cookieSecure}
}

// SignupRequest represents a registration. With is_new_company the user
// founds company_name; otherwise the user joins company_id with role.
type SignupRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
	Name        string `json:"name"`
	NewCompany  bool   `json:"is_new_company"`
	CompanyName string `json:"company_name" validate:"required_if=NewCompany true"`
	CompanyID   string `json:"company_id" validate:"required_if=NewCompany false"`
	Role        string `json:"role" validate:"omitempty,oneof=admin employee"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest represents a token refresh request.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// LogoutRequest optionally names the refresh token to revoke.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// SignupResponse is returned after registration.
type SignupResponse struct {
	Message string      `json:"message"`
	User    *model.User `json:"user"`
}

// MeResponse summarizes the current user.
type MeResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Role        model.Role `json:"role"`
	CompanyID   string     `json:"company_id"`
	CompanyName string     `json:"company_name"`
}

// Signup godoc
// @Summary Register a user, founding or joining a company
// @Tags auth
// @Accept json
// @Produce json
// @Param request body SignupRequest true "Registration data"
// @Success 201 {object} SignupResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /user/signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req SignupRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	role := model.Role(req.Role)
	if !req.NewCompany && role == "" {
		role = model.RoleEmployee
	}

	user, err := h.authService.Signup(c.Request().Context(), service.SignupInput{
		Email:       req.Email,
		Password:    req.Password,
		Name:        req.Name,
		NewCompany:  req.NewCompany,
		CompanyName: req.CompanyName,
		CompanyID:   req.CompanyID,
		Role:        role,
	})
	if err != nil {
		return fail(err)
	}

	message := "user registered successfully, awaiting approval"
	if user.IsApproved() {
		message = "company created successfully"
	}
	return c.JSON(http.StatusCreated, SignupResponse{Message: message, User: user})
}

// Login godoc
// @Summary Login user
// @Description Sets the HTTP-only token cookie and returns the tokens in the body.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} service.Session
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /user/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	session, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return fail(err)
	}

	h.setSessionCookie(c, session.Token, session.ExpiresAt)
	return c.JSON(http.StatusOK, session)
}

// Refresh godoc
// @Summary Exchange a refresh token for a new session token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RefreshRequest true "Refresh token"
// @Success 200 {object} service.Session
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /user/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req RefreshRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	session, err := h.authService.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return fail(err)
	}

	h.setSessionCookie(c, session.Token, session.ExpiresAt)
	return c.JSON(http.StatusOK, session)
}

// Logout godoc
// @Summary Logout user
// @Description Revokes the session token, and the refresh token when given, and clears the cookie.
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body LogoutRequest false "Refresh token"
// @Success 200 {object} MessageResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /user/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	var req LogoutRequest
	if c.Request().ContentLength > 0 {
		if err := bind(c, &req); err != nil {
			return err
		}
	}

	if err := h.authService.Logout(c.Request().Context(), claimsFrom(c), req.RefreshToken); err != nil {
		return fail(err)
	}

	h.setSessionCookie(c, "", time.Unix(0, 0))
	return c.JSON(http.StatusOK, MessageResponse{Message: "logged out successfully"})
}

// Me godoc
// @Summary Current user summary
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} MeResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /user/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	profile, err := h.userService.Profile(c.Request().Context(), callerFrom(c))
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, MeResponse{
		ID:          profile.ID.String(),
		Name:        profile.Name,
		Email:       profile.Email,
		Role:        profile.Role,
		CompanyID:   profile.CompanyID,
		CompanyName: profile.CompanyName,
	})
}

// Profile godoc
// @Summary Current user profile
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.Profile
// @Failure 401 {object} errors.ErrorResponse
// @Router /user/profile [get]
func (h *AuthHandler) Profile(c echo.Context) error {
	profile, err := h.userService.Profile(c.Request().Context(), callerFrom(c))
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, profile)
}

// setSessionCookie writes the session cookie; an empty token expires it.
func (h *AuthHandler) setSessionCookie(c echo.Context, token string, expires time.Time) {
	cookie := &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	if token == "" {
		cookie.MaxAge = -1
	}
	c.SetCookie(cookie)
}
