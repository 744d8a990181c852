package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	apperrors "finhub/internal/errors"
	"finhub/internal/model"
	"finhub/internal/policy"
	"finhub/internal/repository"
)

// TaskInput carries the fields of a new task.
type TaskInput struct {
	ProjectID   uuid.UUID
	Name        string
	Description string
	AssigneeID  *uuid.UUID
}

// TaskUpdate carries a partial task update; nil fields are unchanged.
// UnassignAssignee clears the assignee.
type TaskUpdate struct {
	Name             *string
	Description      *string
	AssigneeID       *uuid.UUID
	UnassignAssignee bool
	Status           *model.TaskStatus
}

func (u TaskUpdate) touchesDetails() bool {
	return u.Name != nil || u.Description != nil || u.AssigneeID != nil || u.UnassignAssignee
}

// TaskService manages tasks inside projects.
type TaskService interface {
	Create(ctx context.Context, caller *policy.Caller, in TaskInput) (*model.Task, error)
	Update(ctx context.Context, caller *policy.Caller, id uuid.UUID, in TaskUpdate) (*model.Task, error)
	Delete(ctx context.Context, caller *policy.Caller, id uuid.UUID) error
}

type taskService struct {
	store repository.Store
	log   *zap.Logger
	now   func() time.Time
}

// NewTaskService creates a new task service.
func NewTaskService(store repository.Store, log *zap.Logger) TaskService {
	return &taskService{store: store, log: orNop(log).Named("tasks"), now: time.Now}
}

func (s *taskService) Create(ctx context.Context, caller *policy.Caller, in TaskInput) (*model.Task, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, fieldError("name", "task name is required")
	}

	project, err := s.project(ctx, s.store, caller, in.ProjectID, "project not found")
	if err != nil {
		return nil, err
	}
	if err := authorize(caller, policy.TaskResource(project, nil), policy.ActionCreate); err != nil {
		return nil, err
	}

	task := &model.Task{
		ProjectID:   project.ID,
		Name:        in.Name,
		Description: in.Description,
		Status:      model.TaskStatusToDo,
	}
	if in.AssigneeID != nil {
		assignees, err := companyUsers(ctx, s.store, caller.CompanyID, []uuid.UUID{*in.AssigneeID}, "assignee_id")
		if err != nil {
			return nil, storeError(s.log, "find assignee", err, "user not found")
		}
		task.AssigneeID = &assignees[0].ID
		task.Assignee = &assignees[0]
	}

	if err := s.store.Tasks().Create(ctx, task); err != nil {
		return nil, storeError(s.log, "create task", err, "task not found")
	}
	return task, nil
}

func (s *taskService) Update(ctx context.Context, caller *policy.Caller, id uuid.UUID, in TaskUpdate) (*model.Task, error) {
	if in.Status != nil && !validTaskStatus(*in.Status) {
		return nil, fieldError("status", "status must be To Do, In Progress or Done")
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, fieldError("name", "task name is required")
	}

	var task *model.Task
	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		var project *model.Project
		var err error
		task, project, err = s.load(ctx, tx, caller, id)
		if err != nil {
			return err
		}

		res := policy.TaskResource(project, task)
		if in.touchesDetails() {
			if err := authorize(caller, res, policy.ActionUpdate); err != nil {
				return err
			}
		}
		if in.Status != nil {
			if err := authorize(caller, res, policy.ActionUpdateStatus); err != nil {
				return err
			}
		}

		if in.Name != nil {
			task.Name = strings.TrimSpace(*in.Name)
		}
		if in.Description != nil {
			task.Description = *in.Description
		}
		switch {
		case in.UnassignAssignee:
			task.AssigneeID = nil
			task.Assignee = nil
		case in.AssigneeID != nil:
			assignees, err := companyUsers(ctx, tx, caller.CompanyID, []uuid.UUID{*in.AssigneeID}, "assignee_id")
			if err != nil {
				return err
			}
			task.AssigneeID = &assignees[0].ID
			task.Assignee = &assignees[0]
		}
		if in.Status != nil {
			task.SetStatus(*in.Status, s.now())
		}
		return tx.Tasks().Update(ctx, task)
	})
	if err != nil {
		return nil, storeError(s.log, "update task", err, "task not found")
	}
	return task, nil
}

func (s *taskService) Delete(ctx context.Context, caller *policy.Caller, id uuid.UUID) error {
	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		task, project, err := s.load(ctx, tx, caller, id)
		if err != nil {
			return err
		}
		if err := authorize(caller, policy.TaskResource(project, task), policy.ActionDelete); err != nil {
			return err
		}
		return tx.Tasks().Delete(ctx, task.ID)
	})
	if err != nil {
		return storeError(s.log, "delete task", err, "task not found")
	}
	return nil
}

// load returns a task and its project. Tasks of other companies or of
// archived projects are reported as missing.
func (s *taskService) load(ctx context.Context, store repository.Store, caller *policy.Caller, id uuid.UUID) (*model.Task, *model.Project, error) {
	if d := policy.Authorize(caller, companyScope(caller, policy.KindTask), policy.ActionRead); d.Unauthenticated {
		return nil, nil, d.Err()
	}
	task, err := store.Tasks().FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, apperrors.NotFound("task not found")
	}
	if err != nil {
		return nil, nil, err
	}
	project, err := s.project(ctx, store, caller, task.ProjectID, "task not found")
	if err != nil {
		return nil, nil, err
	}
	return task, project, nil
}

func (s *taskService) project(ctx context.Context, store repository.Store, caller *policy.Caller, id uuid.UUID, notFound string) (*model.Project, error) {
	if d := policy.Authorize(caller, companyScope(caller, policy.KindTask), policy.ActionRead); d.Unauthenticated {
		return nil, d.Err()
	}
	project, err := store.Projects().FindByID(ctx, caller.CompanyID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound(notFound)
	}
	if err != nil {
		return nil, storeError(s.log, "find project", err, notFound)
	}
	return project, nil
}

func validTaskStatus(status model.TaskStatus) bool {
	switch status {
	case model.TaskStatusToDo, model.TaskStatusInProgress, model.TaskStatusDone:
		return true
	}
	return false
}
