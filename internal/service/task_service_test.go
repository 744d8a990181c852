package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "finhub/internal/errors"
	"finhub/internal/model"
)

func TestTaskService_Lifecycle(t *testing.T) {
	pf := newProjectFixture(t)
	ctx := context.Background()
	svc := NewTaskService(pf.store, nil)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.(*taskService).now = func() time.Time { return fixed }

	_, err := svc.Create(ctx, pf.member, TaskInput{ProjectID: pf.project.ID, Name: "Design"})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	task, err := svc.Create(ctx, pf.head, TaskInput{ProjectID: pf.project.ID, Name: "Design", AssigneeID: &pf.member.UserID})
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusToDo, task.Status)
	assert.Nil(t, task.CompletedAt)

	name := "Design mockups"
	updated, err := svc.Update(ctx, pf.member, task.ID, TaskUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)

	done := model.TaskStatusDone
	_, err = svc.Update(ctx, pf.member, task.ID, TaskUpdate{Status: &done})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	updated, err = svc.Update(ctx, pf.head, task.ID, TaskUpdate{Status: &done})
	require.NoError(t, err)
	require.NotNil(t, updated.CompletedAt)
	assert.True(t, fixed.Equal(*updated.CompletedAt))

	inProgress := model.TaskStatusInProgress
	updated, err = svc.Update(ctx, pf.admin, task.ID, TaskUpdate{Status: &inProgress})
	require.NoError(t, err)
	assert.Nil(t, updated.CompletedAt)

	stored, err := pf.store.Tasks().FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusInProgress, stored.Status)
	assert.Nil(t, stored.CompletedAt)

	assert.ErrorIs(t, svc.Delete(ctx, pf.member, task.ID), apperrors.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, pf.head, task.ID))
	_, err = svc.Update(ctx, pf.head, task.ID, TaskUpdate{Name: &name})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestTaskService_Validation(t *testing.T) {
	pf := newProjectFixture(t)
	ctx := context.Background()
	svc := NewTaskService(pf.store, nil)

	_, err := svc.Create(ctx, pf.head, TaskInput{ProjectID: pf.project.ID, Name: "x", AssigneeID: &pf.outsider.UserID})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = svc.Create(ctx, pf.head, TaskInput{ProjectID: pf.project.ID, Name: "  "})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	task, err := svc.Create(ctx, pf.admin, TaskInput{ProjectID: pf.project.ID, Name: "Deploy"})
	require.NoError(t, err)

	bogus := model.TaskStatus("Blocked")
	_, err = svc.Update(ctx, pf.admin, task.ID, TaskUpdate{Status: &bogus})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = svc.Update(ctx, pf.outsider, task.ID, TaskUpdate{Status: &bogus})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	name := "Deploy"
	_, err = svc.Update(ctx, pf.outsider, task.ID, TaskUpdate{Name: &name})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
