package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "finhub/internal/errors"
	"finhub/internal/model"
)

func TestEmployeeService_ApprovalIsTerminal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewEmployeeService(f.store, nil)

	pending := f.addUser("COMP_A", model.RoleEmployee, model.ApprovalPending)
	rejected := f.addUser("COMP_A", model.RoleEmployee, model.ApprovalPending)

	_, err := svc.Approve(ctx, f.employee, pending.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	approved, err := svc.Approve(ctx, f.admin, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ApprovalApproved, approved.ApprovalStatus)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, f.admin.UserID, *approved.ApprovedBy)
	assert.NotNil(t, approved.ApprovedAt)

	_, err = svc.Approve(ctx, f.admin, pending.ID)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	_, err = svc.Reject(ctx, f.admin, pending.ID)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	_, err = svc.Reject(ctx, f.admin, rejected.ID)
	require.NoError(t, err)
	_, err = svc.Approve(ctx, f.admin, rejected.ID)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	_, err = svc.Approve(ctx, f.outsider, rejected.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = svc.Approve(ctx, f.admin, uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestEmployeeService_List(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewEmployeeService(f.store, nil)

	joiner := f.addUser("COMP_A", model.RoleEmployee, model.ApprovalPending)
	approvedJoiner := f.addUser("COMP_A", model.RoleEmployee, model.ApprovalPending)
	_, err := svc.Approve(ctx, f.admin, approvedJoiner.ID)
	require.NoError(t, err)

	_, err = svc.List(ctx, f.employee)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	employees, err := svc.List(ctx, f.admin)
	require.NoError(t, err)
	require.Len(t, employees, 4)
	assert.Equal(t, joiner.ID, employees[0].ID)
	for _, e := range employees {
		assert.Equal(t, "COMP_A", e.CompanyID)
		if e.ID == approvedJoiner.ID {
			assert.Equal(t, f.admin.Name, e.ApprovedByName)
		}
	}
}

func TestUserService_Directory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser("COMP_A", model.RoleEmployee, model.ApprovalPending)

	entries, err := NewUserService(f.store, nil).Directory(ctx, f.employee)
	require.NoError(t, err)
	ids := make([]uuid.UUID, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	assert.ElementsMatch(t, []uuid.UUID{f.admin.UserID, f.employee.UserID}, ids)

	profile, err := NewUserService(f.store, nil).Profile(ctx, f.employee)
	require.NoError(t, err)
	assert.Equal(t, f.employee.Email, profile.Email)
	assert.Equal(t, model.RoleEmployee, profile.Role)
}
