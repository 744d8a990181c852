package policy

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	apperrors "finhub/internal/errors"
	"finhub/internal/model"
)

func caller(role model.Role) *Caller {
	return &Caller{UserID: uuid.New(), Role: role, CompanyID: "COMP_A", Active: true, Approved: true}
}

func TestAuthorize(t *testing.T) {
	admin := caller(model.RoleAdmin)
	owner := caller(model.RoleOwner)
	head := caller(model.RoleEmployee)
	member := caller(model.RoleEmployee)
	assignee := caller(model.RoleEmployee)
	outsider := caller(model.RoleEmployee)
	pending := caller(model.RoleEmployee)
	pending.Approved = false

	project := Resource{Kind: KindProject, CompanyID: "COMP_A", HeadID: head.UserID, MemberIDs: []uuid.UUID{member.UserID}}
	task := project
	task.Kind = KindTask
	task.AssigneeID = assignee.UserID

	tests := []struct {
		name     string
		caller   *Caller
		res      Resource
		action   Action
		allowed  bool
		wantKind apperrors.Kind
	}{
		{"no session", nil, Resource{Kind: KindBank}, ActionRead, false, apperrors.KindUnauthorized},
		{"unapproved user", pending, Resource{Kind: KindBank, CompanyID: "COMP_A"}, ActionRead, false, apperrors.KindUnauthorized},
		{"other company", admin, Resource{Kind: KindBank, CompanyID: "COMP_B"}, ActionRead, false, apperrors.KindForbidden},
		{"employee creates bank", outsider, Resource{Kind: KindBank, CompanyID: "COMP_A"}, ActionCreate, true, ""},
		{"employee deletes bank", outsider, Resource{Kind: KindBank, CompanyID: "COMP_A"}, ActionDelete, false, apperrors.KindForbidden},
		{"owner deletes bank", owner, Resource{Kind: KindBank, CompanyID: "COMP_A"}, ActionDelete, true, ""},
		{"employee records transaction", outsider, Resource{Kind: KindTransaction, CompanyID: "COMP_A"}, ActionCreate, true, ""},
		{"employee approves", outsider, Resource{Kind: KindEmployee, CompanyID: "COMP_A"}, ActionApprove, false, apperrors.KindForbidden},
		{"admin approves", admin, Resource{Kind: KindEmployee, CompanyID: "COMP_A"}, ActionApprove, true, ""},
		{"member reads project", member, project, ActionRead, true, ""},
		{"outsider reads project", outsider, project, ActionRead, false, apperrors.KindForbidden},
		{"head edits project", head, project, ActionUpdate, true, ""},
		{"member edits project", member, project, ActionUpdate, false, apperrors.KindForbidden},
		{"head edits financials", head, project, ActionUpdateFinancials, false, apperrors.KindForbidden},
		{"owner edits financials", owner, project, ActionUpdateFinancials, true, ""},
		{"head archives project", head, project, ActionDelete, false, apperrors.KindForbidden},
		{"employee creates project", outsider, Resource{Kind: KindProject, CompanyID: "COMP_A"}, ActionCreate, false, apperrors.KindForbidden},
		{"head creates task", head, task, ActionCreate, true, ""},
		{"member creates task", member, task, ActionCreate, false, apperrors.KindForbidden},
		{"head changes status", head, task, ActionUpdateStatus, true, ""},
		{"assignee changes status", assignee, task, ActionUpdateStatus, false, apperrors.KindForbidden},
		{"assignee edits task", assignee, task, ActionUpdate, true, ""},
		{"member edits task", member, task, ActionUpdate, true, ""},
		{"outsider edits task", outsider, task, ActionUpdate, false, apperrors.KindForbidden},
		{"member deletes task", member, task, ActionDelete, false, apperrors.KindForbidden},
		{"admin deletes task", admin, task, ActionDelete, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Authorize(tt.caller, tt.res, tt.action)
			assert.Equal(t, tt.allowed, d.Allowed, d.Reason)
			if tt.allowed {
				assert.NoError(t, d.Err())
				return
			}
			assert.NotEmpty(t, d.Reason)
			assert.Equal(t, tt.wantKind, apperrors.KindOf(d.Err()))
		})
	}
}

func TestTaskResourceCarriesProject(t *testing.T) {
	headID := uuid.New()
	assigneeID := uuid.New()
	p := &model.Project{CompanyID: "COMP_A", HeadID: headID, Employees: []model.User{{ID: uuid.New()}}}

	res := TaskResource(p, &model.Task{AssigneeID: &assigneeID})
	assert.Equal(t, KindTask, res.Kind)
	assert.Equal(t, headID, res.HeadID)
	assert.Equal(t, assigneeID, res.AssigneeID)
	assert.Len(t, res.MemberIDs, 1)
}
