package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	apperrors "finhub/internal/errors"
	"finhub/internal/model"
	"finhub/internal/service"
)

// TransactionHandler handles ledger endpoints.
type TransactionHandler struct {
	ledger service.LedgerService
}

// NewTransactionHandler creates a new transaction handler.
func NewTransactionHandler(ledger service.LedgerService) *TransactionHandler {
	return &TransactionHandler{ledger: ledger}
}

// TransactionRequest is the payload for creating a transaction.
// The account is given by account_id or, failing that, by bank name.
type TransactionRequest struct {
	Date        string          `json:"date" validate:"required" example:"2024-03-01"`
	Description string          `json:"description" validate:"required"`
	Category    string          `json:"category" validate:"required"`
	Type        string          `json:"type" validate:"required,oneof=income expense"`
	Amount      decimal.Decimal `json:"amount" swaggertype:"string" example:"1500.00"`
	Status      string          `json:"status" validate:"required,oneof=Completed Pending"`
	AccountID   string          `json:"account_id" validate:"omitempty,uuid"`
	Account     string          `json:"account"`
	Client      string          `json:"client"`
	Vendor      string          `json:"vendor"`
	Invoice     string          `json:"invoice"`
	Department  string          `json:"department"`
	PaymentID   string          `json:"payment_id"`
}

// UpdateTransactionRequest carries the fields to change; omitted fields keep
// their stored value.
type UpdateTransactionRequest struct {
	Date        *string          `json:"date" example:"2024-03-01"`
	Description *string          `json:"description"`
	Category    *string          `json:"category"`
	Type        *string          `json:"type" validate:"omitempty,oneof=income expense"`
	Amount      *decimal.Decimal `json:"amount" swaggertype:"string" example:"1500.00"`
	Status      *string          `json:"status" validate:"omitempty,oneof=Completed Pending"`
	AccountID   *string          `json:"account_id" validate:"omitempty,uuid"`
	Account     *string          `json:"account"`
	Client      *string          `json:"client"`
	Vendor      *string          `json:"vendor"`
	Invoice     *string          `json:"invoice"`
	Department  *string          `json:"department"`
	PaymentID   *string          `json:"payment_id"`
}

func (r UpdateTransactionRequest) update() (service.TransactionUpdate, error) {
	out := service.TransactionUpdate{
		Description: r.Description,
		Amount:      r.Amount,
		Account:     r.Account,
		Client:      r.Client,
		Vendor:      r.Vendor,
		Invoice:     r.Invoice,
		PaymentID:   r.PaymentID,
	}
	if r.Date != nil {
		date, err := parseDate(*r.Date)
		if err != nil {
			return out, apperrors.Validation("invalid transaction", map[string]string{"date": "must be a date (YYYY-MM-DD or RFC 3339)"})
		}
		out.Date = &date
	}
	if r.AccountID != nil && *r.AccountID != "" {
		id, err := uuid.Parse(*r.AccountID)
		if err != nil {
			return out, apperrors.Validation("invalid transaction", map[string]string{"account_id": "must be a valid id"})
		}
		out.AccountID = &id
	}
	if r.Category != nil {
		category := model.Category(*r.Category)
		out.Category = &category
	}
	if r.Type != nil {
		direction := model.Direction(*r.Type)
		out.Direction = &direction
	}
	if r.Status != nil {
		status := model.TransactionStatus(*r.Status)
		out.Status = &status
	}
	if r.Department != nil {
		department := model.Department(*r.Department)
		out.Department = &department
	}
	return out, nil
}

func (r TransactionRequest) input() (service.TransactionInput, error) {
	date, err := parseDate(r.Date)
	if err != nil {
		return service.TransactionInput{}, apperrors.Validation("invalid transaction", map[string]string{"date": "must be a date (YYYY-MM-DD or RFC 3339)"})
	}
	var accountID uuid.UUID
	if r.AccountID != "" {
		accountID, err = uuid.Parse(r.AccountID)
		if err != nil {
			return service.TransactionInput{}, apperrors.Validation("invalid transaction", map[string]string{"account_id": "must be a valid id"})
		}
	}
	return service.TransactionInput{
		Date:        date,
		Description: r.Description,
		Category:    model.Category(r.Category),
		Direction:   model.Direction(r.Type),
		Amount:      r.Amount,
		Status:      model.TransactionStatus(r.Status),
		AccountID:   accountID,
		Account:     r.Account,
		Client:      r.Client,
		Vendor:      r.Vendor,
		Invoice:     r.Invoice,
		Department:  model.Department(r.Department),
		PaymentID:   r.PaymentID,
	}, nil
}

// parseDate accepts a calendar date or an RFC 3339 timestamp.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// List godoc
// @Summary List transactions, newest first
// @Tags transactions
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Transaction
// @Failure 401 {object} errors.ErrorResponse
// @Router /transactions [get]
func (h *TransactionHandler) List(c echo.Context) error {
	txns, err := h.ledger.List(c.Request().Context(), callerFrom(c))
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, txns)
}

// Create godoc
// @Summary Record a transaction
// @Description Applies the amount to the account balance. Fails when the balance would go negative.
// @Tags transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body TransactionRequest true "Transaction"
// @Success 201 {object} model.Transaction
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /transactions [post]
func (h *TransactionHandler) Create(c echo.Context) error {
	var req TransactionRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	in, err := req.input()
	if err != nil {
		return fail(err)
	}
	txn, err := h.ledger.Create(c.Request().Context(), callerFrom(c), in)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, txn)
}

// Update godoc
// @Summary Update a transaction
// @Description Merges the given fields, reverses the stored effect and applies the new one, possibly on another account.
// @Tags transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Transaction ID"
// @Param request body UpdateTransactionRequest true "Fields to change"
// @Success 200 {object} model.Transaction
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /transactions/{id} [put]
func (h *TransactionHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req UpdateTransactionRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	u, err := req.update()
	if err != nil {
		return fail(err)
	}
	txn, err := h.ledger.Update(c.Request().Context(), callerFrom(c), id, u)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, txn)
}

// Delete godoc
// @Summary Delete a transaction
// @Description Reverses its effect on the account balance.
// @Tags transactions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Transaction ID"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /transactions/{id} [delete]
func (h *TransactionHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.ledger.Delete(c.Request().Context(), callerFrom(c), id); err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "transaction deleted"})
}
