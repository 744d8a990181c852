package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "finhub/internal/errors"
	"finhub/internal/model"
	"finhub/internal/policy"
)

type projectFixture struct {
	*fixture
	head    *policy.Caller
	member  *policy.Caller
	project *model.Project
}

func newProjectFixture(t *testing.T) *projectFixture {
	f := newFixture(t)
	pf := &projectFixture{
		fixture: f,
		head:    policy.CallerFromUser(f.addUser("COMP_A", model.RoleEmployee, model.ApprovalApproved)),
		member:  policy.CallerFromUser(f.addUser("COMP_A", model.RoleEmployee, model.ApprovalApproved)),
	}

	project, err := NewProjectService(f.store, nil).Create(context.Background(), f.admin, ProjectInput{
		Name:         "Website",
		Description:  "Corporate site rebuild",
		StartDate:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
		ClientName:   "Globex",
		TotalRevenue: decimal.NewFromInt(50000),
		Cost:         decimal.NewFromInt(20000),
		HeadID:       pf.head.UserID,
		EmployeeIDs:  []uuid.UUID{pf.member.UserID},
	})
	require.NoError(t, err)
	pf.project = project
	return pf
}

func TestProjectService_Create(t *testing.T) {
	pf := newProjectFixture(t)
	assert.Equal(t, pf.head.UserID, pf.project.HeadID)
	require.NotNil(t, pf.project.Head)
	require.Len(t, pf.project.Employees, 1)
	assert.Equal(t, pf.member.UserID, pf.project.Employees[0].ID)

	svc := NewProjectService(pf.store, nil)
	_, err := svc.Create(context.Background(), pf.employee, ProjectInput{Name: "x"})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	in := ProjectInput{
		Name: "Foreign head", Description: "d", ClientName: "c",
		StartDate: time.Now(), EndDate: time.Now(),
		HeadID: pf.outsider.UserID,
	}
	_, err = svc.Create(context.Background(), pf.admin, in)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestProjectService_Visibility(t *testing.T) {
	pf := newProjectFixture(t)
	ctx := context.Background()
	svc := NewProjectService(pf.store, nil)

	for _, caller := range []*policy.Caller{pf.admin, pf.head, pf.member} {
		projects, err := svc.List(ctx, caller)
		require.NoError(t, err)
		assert.Len(t, projects, 1)

		_, err = svc.Get(ctx, caller, pf.project.ID)
		assert.NoError(t, err)
	}

	projects, err := svc.List(ctx, pf.employee)
	require.NoError(t, err)
	assert.Empty(t, projects)
	_, err = svc.Get(ctx, pf.employee, pf.project.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = svc.Get(ctx, pf.outsider, pf.project.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestProjectService_Update(t *testing.T) {
	pf := newProjectFixture(t)
	ctx := context.Background()
	svc := NewProjectService(pf.store, nil)

	name := "Website v2"
	updated, err := svc.Update(ctx, pf.head, pf.project.ID, ProjectUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)

	revenue := decimal.NewFromInt(1)
	_, err = svc.Update(ctx, pf.head, pf.project.ID, ProjectUpdate{TotalRevenue: &revenue})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = svc.Update(ctx, pf.member, pf.project.ID, ProjectUpdate{Name: &name})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	none := []uuid.UUID{}
	updated, err = svc.Update(ctx, pf.admin, pf.project.ID, ProjectUpdate{TotalRevenue: &revenue, EmployeeIDs: &none})
	require.NoError(t, err)
	assert.Equal(t, "1.00", updated.TotalRevenue.StringFixed(2))
	assert.Empty(t, updated.Employees)

	projects, err := svc.List(ctx, pf.member)
	require.NoError(t, err)
	assert.Empty(t, projects)
}

func TestProjectService_Archive(t *testing.T) {
	pf := newProjectFixture(t)
	ctx := context.Background()
	svc := NewProjectService(pf.store, nil)

	assert.ErrorIs(t, svc.Archive(ctx, pf.head, pf.project.ID), apperrors.ErrForbidden)
	require.NoError(t, svc.Archive(ctx, pf.admin, pf.project.ID))

	_, err := svc.Get(ctx, pf.admin, pf.project.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	projects, err := svc.List(ctx, pf.admin)
	require.NoError(t, err)
	assert.Empty(t, projects)
}
