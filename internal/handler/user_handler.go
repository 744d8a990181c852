package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	apperrors "finhub/internal/errors"
	"finhub/internal/model"
	"finhub/internal/policy"
	"finhub/internal/service"
)

// UserHandler serves the company directory and employee administration.
type UserHandler struct {
	users     service.UserService
	employees service.EmployeeService
}

// NewUserHandler creates a user handler.
func NewUserHandler(users service.UserService, employees service.EmployeeService) *UserHandler {
	return &UserHandler{users: users, employees: employees}
}

// DecisionRequest names the user to approve or reject.
type DecisionRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
}

// Directory godoc
// @Summary List approved colleagues
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {array} service.DirectoryEntry
// @Failure 401 {object} errors.ErrorResponse
// @Router /users [get]
func (h *UserHandler) Directory(c echo.Context) error {
	entries, err := h.users.Directory(c.Request().Context(), callerFrom(c))
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, entries)
}

// ListEmployees godoc
// @Summary List company users, pending first
// @Tags employees
// @Produce json
// @Security BearerAuth
// @Success 200 {array} service.Employee
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /user/employees [get]
func (h *UserHandler) ListEmployees(c echo.Context) error {
	employees, err := h.employees.List(c.Request().Context(), callerFrom(c))
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, employees)
}

// Approve godoc
// @Summary Approve a pending user
// @Tags employees
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body DecisionRequest true "User to approve"
// @Success 200 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /user/employees/approve [post]
func (h *UserHandler) Approve(c echo.Context) error {
	return h.decide(c, h.employees.Approve)
}

// Reject godoc
// @Summary Reject a pending user
// @Tags employees
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body DecisionRequest true "User to reject"
// @Success 200 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /user/employees/reject [post]
func (h *UserHandler) Reject(c echo.Context) error {
	return h.decide(c, h.employees.Reject)
}

func (h *UserHandler) decide(c echo.Context, fn func(ctx context.Context, caller *policy.Caller, id uuid.UUID) (*model.User, error)) error {
	var req DecisionRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	id, err := uuid.Parse(req.UserID)
	if err != nil {
		return fail(apperrors.Validation("invalid request", map[string]string{"user_id": "must be a valid id"}))
	}
	user, err := fn(c.Request().Context(), callerFrom(c), id)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, user)
}
