package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"finhub/internal/model"
	"finhub/internal/service"
)

// BankHandler handles bank account endpoints.
type BankHandler struct {
	banks service.BankService
}

// NewBankHandler creates a new bank handler.
func NewBankHandler(banks service.BankService) *BankHandler {
	return &BankHandler{banks: banks}
}

// BankRequest is the payload for creating or replacing a bank account.
type BankRequest struct {
	BankName       string          `json:"bank_name" validate:"required"`
	IFSCCode       string          `json:"ifsc_code" validate:"required"`
	AccountNumber  string          `json:"account_number" validate:"required"`
	AccountType    string          `json:"account_type" validate:"required,oneof=saving current"`
	CurrentBalance decimal.Decimal `json:"current_balance" swaggertype:"string" example:"15000.00"`
}

func (r BankRequest) input() service.BankInput {
	return service.BankInput{
		BankName:       r.BankName,
		IFSCCode:       r.IFSCCode,
		AccountNumber:  r.AccountNumber,
		AccountType:    model.AccountType(r.AccountType),
		CurrentBalance: r.CurrentBalance,
	}
}

// List godoc
// @Summary List bank accounts
// @Tags banks
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.BankAccount
// @Failure 401 {object} errors.ErrorResponse
// @Router /banks [get]
func (h *BankHandler) List(c echo.Context) error {
	banks, err := h.banks.List(c.Request().Context(), callerFrom(c))
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, banks)
}

// Create godoc
// @Summary Create a bank account
// @Tags banks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body BankRequest true "Bank account"
// @Success 201 {object} model.BankAccount
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /banks [post]
func (h *BankHandler) Create(c echo.Context) error {
	var req BankRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	bank, err := h.banks.Create(c.Request().Context(), callerFrom(c), req.input())
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, bank)
}

// Update godoc
// @Summary Update a bank account
// @Description Admin or owner only. A changed current_balance is applied as a correction.
// @Tags banks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Bank account ID"
// @Param request body BankRequest true "Bank account"
// @Success 200 {object} model.BankAccount
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /banks/{id} [put]
func (h *BankHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req BankRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	bank, err := h.banks.Update(c.Request().Context(), callerFrom(c), id, req.input())
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, bank)
}

// Delete godoc
// @Summary Delete a bank account
// @Description Admin or owner only. Fails while transactions reference the account.
// @Tags banks
// @Produce json
// @Security BearerAuth
// @Param id path string true "Bank account ID"
// @Success 200 {object} MessageResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /banks/{id} [delete]
func (h *BankHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.banks.Delete(c.Request().Context(), callerFrom(c), id); err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "bank account deleted"})
}
