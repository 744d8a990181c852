package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	apperrors "finhub/internal/errors"
	"finhub/internal/model"
	"finhub/internal/policy"
	"finhub/internal/repository"
)

// Employee is a company user with approver and rejecter names resolved.
type Employee struct {
	model.User
	ApprovedByName string `json:"approved_by_name,omitempty"`
	RejectedByName string `json:"rejected_by_name,omitempty"`
}

// EmployeeService manages admission of users into a company.
type EmployeeService interface {
	// List returns the caller's company users, pending approvals first.
	List(ctx context.Context, caller *policy.Caller) ([]Employee, error)
	Approve(ctx context.Context, caller *policy.Caller, userID uuid.UUID) (*model.User, error)
	Reject(ctx context.Context, caller *policy.Caller, userID uuid.UUID) (*model.User, error)
}

type employeeService struct {
	store repository.Store
	log   *zap.Logger
}

// NewEmployeeService creates a new employee service.
func NewEmployeeService(store repository.Store, log *zap.Logger) EmployeeService {
	return &employeeService{store: store, log: orNop(log).Named("employees")}
}

func (s *employeeService) List(ctx context.Context, caller *policy.Caller) ([]Employee, error) {
	if err := authorize(caller, companyScope(caller, policy.KindEmployee), policy.ActionRead); err != nil {
		return nil, err
	}

	users, err := s.store.Users().ListByCompany(ctx, caller.CompanyID)
	if err != nil {
		return nil, storeError(s.log, "list employees", err, "company not found")
	}

	names := make(map[uuid.UUID]string, len(users))
	for _, u := range users {
		names[u.ID] = displayName(&u)
	}

	out := make([]Employee, 0, len(users))
	for _, u := range users {
		e := Employee{User: u}
		if u.ApprovedBy != nil {
			e.ApprovedByName = names[*u.ApprovedBy]
		}
		if u.RejectedBy != nil {
			e.RejectedByName = names[*u.RejectedBy]
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *employeeService) Approve(ctx context.Context, caller *policy.Caller, userID uuid.UUID) (*model.User, error) {
	return s.decide(ctx, caller, userID, model.ApprovalApproved)
}

func (s *employeeService) Reject(ctx context.Context, caller *policy.Caller, userID uuid.UUID) (*model.User, error) {
	return s.decide(ctx, caller, userID, model.ApprovalRejected)
}

// decide moves a pending user to a terminal approval state.
func (s *employeeService) decide(ctx context.Context, caller *policy.Caller, userID uuid.UUID, to model.ApprovalStatus) (*model.User, error) {
	if err := authorize(caller, companyScope(caller, policy.KindEmployee), policy.ActionApprove); err != nil {
		return nil, err
	}

	var user *model.User
	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		var err error
		user, err = tx.Users().FindByIDForUpdate(ctx, userID)
		if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && user.CompanyID != caller.CompanyID) {
			return apperrors.NotFound("user not found")
		}
		if err != nil {
			return err
		}

		switch user.ApprovalStatus {
		case model.ApprovalApproved:
			return apperrors.Conflict("user is already approved")
		case model.ApprovalRejected:
			return apperrors.Conflict("user is already rejected")
		}

		now := time.Now()
		deciderID := caller.UserID
		user.ApprovalStatus = to
		if to == model.ApprovalApproved {
			user.ApprovedBy = &deciderID
			user.ApprovedAt = &now
		} else {
			user.RejectedBy = &deciderID
			user.RejectedAt = &now
		}
		return tx.Users().Update(ctx, user)
	})
	if err != nil {
		return nil, storeError(s.log, "update approval", err, "user not found")
	}

	s.log.Info("approval decided",
		zap.String("user_id", user.ID.String()),
		zap.String("status", string(to)),
		zap.String("by", caller.UserID.String()),
	)
	return user, nil
}

func displayName(u *model.User) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
