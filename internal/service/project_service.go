package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	apperrors "finhub/internal/errors"
	"finhub/internal/model"
	"finhub/internal/policy"
	"finhub/internal/repository"
)

// ProjectInput carries the fields of a new project.
type ProjectInput struct {
	Name         string
	Description  string
	StartDate    time.Time
	EndDate      time.Time
	ClientName   string
	TotalRevenue decimal.Decimal
	Cost         decimal.Decimal
	HeadID       uuid.UUID
	EmployeeIDs  []uuid.UUID
}

// ProjectUpdate carries a partial project update; nil fields are unchanged.
// TotalRevenue, Cost and HeadID require financial rights.
type ProjectUpdate struct {
	Name         *string
	Description  *string
	StartDate    *time.Time
	EndDate      *time.Time
	ClientName   *string
	EmployeeIDs  *[]uuid.UUID
	TotalRevenue *decimal.Decimal
	Cost         *decimal.Decimal
	HeadID       *uuid.UUID
}

func (u ProjectUpdate) touchesFinancials() bool {
	return u.TotalRevenue != nil || u.Cost != nil || u.HeadID != nil
}

// ProjectService manages projects.
type ProjectService interface {
	// List returns live projects; non-privileged callers only see their own.
	List(ctx context.Context, caller *policy.Caller) ([]model.Project, error)
	Get(ctx context.Context, caller *policy.Caller, id uuid.UUID) (*model.Project, error)
	Create(ctx context.Context, caller *policy.Caller, in ProjectInput) (*model.Project, error)
	Update(ctx context.Context, caller *policy.Caller, id uuid.UUID, in ProjectUpdate) (*model.Project, error)
	// Archive hides the project; it is never physically deleted.
	Archive(ctx context.Context, caller *policy.Caller, id uuid.UUID) error
}

type projectService struct {
	store repository.Store
	log   *zap.Logger
}

// NewProjectService creates a new project service.
func NewProjectService(store repository.Store, log *zap.Logger) ProjectService {
	return &projectService{store: store, log: orNop(log).Named("projects")}
}

func (s *projectService) List(ctx context.Context, caller *policy.Caller) ([]model.Project, error) {
	d := policy.Authorize(caller, companyScope(caller, policy.KindProject), policy.ActionRead)
	if d.Unauthenticated {
		return nil, d.Err()
	}
	// Company-wide reads are for privileged callers; others see their own projects.
	memberID := uuid.Nil
	if !d.Allowed {
		memberID = caller.UserID
	}

	projects, err := s.store.Projects().ListByCompany(ctx, caller.CompanyID, memberID)
	if err != nil {
		return nil, storeError(s.log, "list projects", err, "project not found")
	}
	return projects, nil
}

func (s *projectService) Get(ctx context.Context, caller *policy.Caller, id uuid.UUID) (*model.Project, error) {
	project, err := s.find(ctx, s.store, caller, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(caller, policy.ProjectResource(project), policy.ActionRead); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *projectService) Create(ctx context.Context, caller *policy.Caller, in ProjectInput) (*model.Project, error) {
	if err := authorize(caller, companyScope(caller, policy.KindProject), policy.ActionCreate); err != nil {
		return nil, err
	}

	in.Name = strings.TrimSpace(in.Name)
	in.ClientName = strings.TrimSpace(in.ClientName)
	fields := map[string]string{}
	if in.Name == "" {
		fields["name"] = "project name is required"
	}
	if strings.TrimSpace(in.Description) == "" {
		fields["description"] = "project description is required"
	}
	if in.ClientName == "" {
		fields["client_name"] = "client name is required"
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		fields["start_date"] = "start and end dates are required"
	} else if in.EndDate.Before(in.StartDate) {
		fields["end_date"] = "end date must not be before start date"
	}
	if in.HeadID == uuid.Nil {
		fields["head_id"] = "project head is required"
	}
	if in.TotalRevenue.IsNegative() || in.Cost.IsNegative() {
		fields["total_revenue"] = "revenue and cost must be non-negative"
	}
	if len(fields) > 0 {
		return nil, apperrors.Validation("invalid project", fields)
	}

	var project *model.Project
	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		if _, err := companyUsers(ctx, tx, caller.CompanyID, []uuid.UUID{in.HeadID}, "head_id"); err != nil {
			return err
		}
		employees, err := companyUsers(ctx, tx, caller.CompanyID, in.EmployeeIDs, "employee_ids")
		if err != nil {
			return err
		}

		created := &model.Project{
			CompanyID:    caller.CompanyID,
			Name:         in.Name,
			Description:  in.Description,
			StartDate:    in.StartDate,
			EndDate:      in.EndDate,
			ClientName:   in.ClientName,
			TotalRevenue: in.TotalRevenue,
			Cost:         in.Cost,
			HeadID:       in.HeadID,
			Employees:    employees,
		}
		if err := tx.Projects().Create(ctx, created); err != nil {
			return err
		}
		project, err = tx.Projects().FindByID(ctx, caller.CompanyID, created.ID)
		return err
	})
	if err != nil {
		return nil, storeError(s.log, "create project", err, "project not found")
	}
	return project, nil
}

func (s *projectService) Update(ctx context.Context, caller *policy.Caller, id uuid.UUID, in ProjectUpdate) (*model.Project, error) {
	var project *model.Project
	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		var err error
		project, err = s.find(ctx, tx, caller, id)
		if err != nil {
			return err
		}

		res := policy.ProjectResource(project)
		if err := authorize(caller, res, policy.ActionUpdate); err != nil {
			return err
		}
		if in.touchesFinancials() {
			if err := authorize(caller, res, policy.ActionUpdateFinancials); err != nil {
				return err
			}
		}

		if in.Name != nil {
			if strings.TrimSpace(*in.Name) == "" {
				return fieldError("name", "project name is required")
			}
			project.Name = strings.TrimSpace(*in.Name)
		}
		if in.Description != nil {
			project.Description = *in.Description
		}
		if in.ClientName != nil {
			project.ClientName = strings.TrimSpace(*in.ClientName)
		}
		if in.StartDate != nil {
			project.StartDate = *in.StartDate
		}
		if in.EndDate != nil {
			project.EndDate = *in.EndDate
		}
		if project.EndDate.Before(project.StartDate) {
			return fieldError("end_date", "end date must not be before start date")
		}
		if in.TotalRevenue != nil {
			if in.TotalRevenue.IsNegative() {
				return fieldError("total_revenue", "total revenue must be non-negative")
			}
			project.TotalRevenue = *in.TotalRevenue
		}
		if in.Cost != nil {
			if in.Cost.IsNegative() {
				return fieldError("cost", "cost must be non-negative")
			}
			project.Cost = *in.Cost
		}
		if in.HeadID != nil {
			heads, err := companyUsers(ctx, tx, caller.CompanyID, []uuid.UUID{*in.HeadID}, "head_id")
			if err != nil {
				return err
			}
			project.HeadID = heads[0].ID
			project.Head = &heads[0]
		}

		var employees []model.User
		if in.EmployeeIDs != nil {
			employees, err = companyUsers(ctx, tx, caller.CompanyID, *in.EmployeeIDs, "employee_ids")
			if err != nil {
				return err
			}
			if employees == nil {
				employees = []model.User{}
			}
		}
		if err := tx.Projects().Update(ctx, project, employees); err != nil {
			return err
		}
		project, err = tx.Projects().FindByID(ctx, caller.CompanyID, id)
		return err
	})
	if err != nil {
		return nil, storeError(s.log, "update project", err, "project not found")
	}
	return project, nil
}

func (s *projectService) Archive(ctx context.Context, caller *policy.Caller, id uuid.UUID) error {
	project, err := s.find(ctx, s.store, caller, id)
	if err != nil {
		return err
	}
	if err := authorize(caller, policy.ProjectResource(project), policy.ActionDelete); err != nil {
		return err
	}
	if err := s.store.Projects().Archive(ctx, project.ID); err != nil {
		return storeError(s.log, "archive project", err, "project not found")
	}
	s.log.Info("project archived", zap.String("project_id", id.String()), zap.String("by", caller.UserID.String()))
	return nil
}

// find loads a live project of the caller's company. Session problems are
// reported before lookups so that they never surface as NotFound.
func (s *projectService) find(ctx context.Context, store repository.Store, caller *policy.Caller, id uuid.UUID) (*model.Project, error) {
	if d := policy.Authorize(caller, companyScope(caller, policy.KindProject), policy.ActionRead); d.Unauthenticated {
		return nil, d.Err()
	}
	project, err := store.Projects().FindByID(ctx, caller.CompanyID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("project not found")
	}
	if err != nil {
		return nil, storeError(s.log, "find project", err, "project not found")
	}
	return project, nil
}

// companyUsers loads ids and fails with a validation error on field when any
// of them is not a user of the company.
func companyUsers(ctx context.Context, tx repository.Store, companyID string, ids []uuid.UUID, field string) ([]model.User, error) {
	unique := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	if len(unique) == 0 {
		return nil, nil
	}

	users, err := tx.Users().FindByIDs(ctx, companyID, unique)
	if err != nil {
		return nil, err
	}
	if len(users) != len(unique) {
		return nil, fieldError(field, "users must belong to your company")
	}
	return users, nil
}
