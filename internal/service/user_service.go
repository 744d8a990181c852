package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"finhub/internal/model"
	"finhub/internal/policy"
	"finhub/internal/repository"
)

// Profile is the caller's own account summary.
type Profile struct {
	ID             uuid.UUID            `json:"id"`
	Name           string               `json:"name"`
	Email          string               `json:"email"`
	Role           model.Role           `json:"role"`
	CompanyID      string               `json:"company_id"`
	CompanyName    string               `json:"company_name"`
	IsActive       bool                 `json:"is_active"`
	ApprovalStatus model.ApprovalStatus `json:"approval_status"`
	LastLogin      *time.Time           `json:"last_login,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
}

// DirectoryEntry is a colleague as shown in pickers.
type DirectoryEntry struct {
	ID    uuid.UUID  `json:"id"`
	Name  string     `json:"name"`
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
}

// UserService exposes read operations on the caller and its colleagues.
type UserService interface {
	Profile(ctx context.Context, caller *policy.Caller) (*Profile, error)
	// Directory lists approved users of the caller's company.
	Directory(ctx context.Context, caller *policy.Caller) ([]DirectoryEntry, error)
}

type userService struct {
	store repository.Store
	log   *zap.Logger
}

// NewUserService builds a UserService.
func NewUserService(store repository.Store, log *zap.Logger) UserService {
	return &userService{store: store, log: orNop(log).Named("users")}
}

func (s *userService) Profile(ctx context.Context, caller *policy.Caller) (*Profile, error) {
	if err := authorize(caller, companyScope(caller, policy.KindDirectory), policy.ActionRead); err != nil {
		return nil, err
	}

	user, err := s.store.Users().FindByID(ctx, caller.UserID)
	if err != nil {
		return nil, storeError(s.log, "find user", err, "user not found")
	}

	companyName := user.CompanyName
	if company, err := s.store.Companies().FindByCompanyID(ctx, user.CompanyID); err == nil {
		companyName = company.Name
	}

	return &Profile{
		ID:             user.ID,
		Name:           user.Name,
		Email:          user.Email,
		Role:           user.Role,
		CompanyID:      user.CompanyID,
		CompanyName:    companyName,
		IsActive:       user.IsActive,
		ApprovalStatus: user.ApprovalStatus,
		LastLogin:      user.LastLogin,
		CreatedAt:      user.CreatedAt,
	}, nil
}

func (s *userService) Directory(ctx context.Context, caller *policy.Caller) ([]DirectoryEntry, error) {
	if err := authorize(caller, companyScope(caller, policy.KindDirectory), policy.ActionRead); err != nil {
		return nil, err
	}

	users, err := s.store.Users().ListByCompany(ctx, caller.CompanyID)
	if err != nil {
		return nil, storeError(s.log, "list users", err, "company not found")
	}

	out := make([]DirectoryEntry, 0, len(users))
	for _, u := range users {
		if !u.IsApproved() || !u.IsActive {
			continue
		}
		out = append(out, DirectoryEntry{ID: u.ID, Name: displayName(&u), Email: u.Email, Role: u.Role})
	}
	return out, nil
}
