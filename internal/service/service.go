package service

import (
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	apperrors "finhub/internal/errors"
	"finhub/internal/policy"
)

// storeError converts a persistence error into a tagged error. Errors that
// are already tagged pass through unchanged.
func storeError(log *zap.Logger, op string, err error, notFound string) error {
	if err == nil {
		return nil
	}
	var tagged *apperrors.Error
	if errors.As(err, &tagged) {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperrors.NotFound(notFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperrors.Conflict("resource already exists")
	}
	log.Error(op+" failed", zap.Error(err))
	return apperrors.Internal(op, err)
}

// authorize runs the policy check and returns the denial as a tagged error.
func authorize(caller *policy.Caller, res policy.Resource, action policy.Action) error {
	return policy.Authorize(caller, res, action).Err()
}

// fieldError builds a validation error for a single field.
func fieldError(field, message string) error {
	return apperrors.Validation(message, map[string]string{field: message})
}

func orNop(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}

// companyScope describes a company-wide resource of the caller's company.
func companyScope(caller *policy.Caller, kind policy.Kind) policy.Resource {
	res := policy.Resource{Kind: kind}
	if caller != nil {
		res.CompanyID = caller.CompanyID
	}
	return res
}
