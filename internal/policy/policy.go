// Package policy decides whether a caller may perform an action on a resource.
// Every service asks Authorize before reading or writing.
package policy

import (
	"github.com/google/uuid"

	apperrors "finhub/internal/errors"
	"finhub/internal/model"
)

// Caller is the authenticated identity behind a request.
type Caller struct {
	UserID    uuid.UUID
	Name      string
	Email     string
	Role      model.Role
	CompanyID string
	Active    bool
	Approved  bool
}

// CallerFromUser builds a Caller from a loaded user.
func CallerFromUser(u *model.User) *Caller {
	return &Caller{
		UserID:    u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CompanyID: u.CompanyID,
		Active:    u.IsActive,
		Approved:  u.IsApproved(),
	}
}

// Privileged reports whether the caller is an admin or owner.
func (c *Caller) Privileged() bool {
	return c != nil && c.Role.Privileged()
}

// Kind names a protected resource type.
type Kind string

const (
	KindBank        Kind = "bank"
	KindTransaction Kind = "transaction"
	KindProject     Kind = "project"
	KindTask        Kind = "task"
	KindEmployee    Kind = "employee"
	KindDirectory   Kind = "directory"
	KindDashboard   Kind = "dashboard"
)

// Action is an operation on a resource.
type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	// ActionUpdateFinancials covers project revenue, cost and head reassignment.
	ActionUpdateFinancials Action = "update_financials"
	// ActionUpdateStatus covers task status changes.
	ActionUpdateStatus Action = "update_status"
	ActionApprove      Action = "approve"
)

// Resource describes the target of an action. Project fields are filled for
// projects and for tasks (with the owning project's values).
type Resource struct {
	Kind       Kind
	CompanyID  string
	HeadID     uuid.UUID
	MemberIDs  []uuid.UUID
	AssigneeID uuid.UUID
}

// ProjectResource describes a project for authorization.
func ProjectResource(p *model.Project) Resource {
	members := make([]uuid.UUID, 0, len(p.Employees))
	for _, e := range p.Employees {
		members = append(members, e.ID)
	}
	return Resource{Kind: KindProject, CompanyID: p.CompanyID, HeadID: p.HeadID, MemberIDs: members}
}

// TaskResource describes a task inside its project.
func TaskResource(p *model.Project, t *model.Task) Resource {
	res := ProjectResource(p)
	res.Kind = KindTask
	if t != nil && t.AssigneeID != nil {
		res.AssigneeID = *t.AssigneeID
	}
	return res
}

// Decision is the outcome of Authorize.
type Decision struct {
	Allowed bool
	Reason  string
	// Unauthenticated marks denials caused by a missing or unusable session.
	Unauthenticated bool
}

func allow() Decision { return Decision{Allowed: true} }

func deny(reason string) Decision { return Decision{Reason: reason} }

// Err converts a denial into a tagged error, or nil when allowed.
func (d Decision) Err() error {
	switch {
	case d.Allowed:
		return nil
	case d.Unauthenticated:
		return apperrors.Unauthorized(d.Reason)
	default:
		return apperrors.Forbidden(d.Reason)
	}
}

// Authorize decides whether caller may perform action on res.
func Authorize(caller *Caller, res Resource, action Action) Decision {
	if caller == nil || caller.UserID == uuid.Nil {
		return Decision{Reason: "authentication required", Unauthenticated: true}
	}
	if !caller.Active {
		return Decision{Reason: "account is inactive", Unauthenticated: true}
	}
	if !caller.Approved {
		return Decision{Reason: "account is not approved", Unauthenticated: true}
	}
	if res.CompanyID != "" && res.CompanyID != caller.CompanyID {
		return deny("resource belongs to another company")
	}

	switch res.Kind {
	case KindBank:
		return authorizeBank(caller, action)
	case KindTransaction, KindDirectory, KindDashboard:
		// Any approved member of the company.
		return allow()
	case KindEmployee:
		if caller.Privileged() {
			return allow()
		}
		return deny("only admins or owners can manage employees")
	case KindProject:
		return authorizeProject(caller, res, action)
	case KindTask:
		return authorizeTask(caller, res, action)
	}
	return deny("unknown resource")
}

func authorizeBank(caller *Caller, action Action) Decision {
	switch action {
	case ActionRead, ActionCreate:
		return allow()
	}
	if caller.Privileged() {
		return allow()
	}
	return deny("only admins or owners can modify bank accounts")
}

func authorizeProject(caller *Caller, res Resource, action Action) Decision {
	if caller.Privileged() {
		return allow()
	}
	isHead := res.HeadID == caller.UserID

	switch action {
	case ActionRead:
		if isHead || contains(res.MemberIDs, caller.UserID) {
			return allow()
		}
		return deny("not a member of this project")
	case ActionUpdate:
		if isHead {
			return allow()
		}
		return deny("only the project head, admins or owners can edit this project")
	case ActionUpdateFinancials:
		return deny("only admins or owners can change project financials or head")
	default:
		return deny("only admins or owners can " + string(action) + " projects")
	}
}

func authorizeTask(caller *Caller, res Resource, action Action) Decision {
	if caller.Privileged() || res.HeadID == caller.UserID {
		return allow()
	}

	switch action {
	case ActionRead, ActionUpdate:
		if contains(res.MemberIDs, caller.UserID) || res.AssigneeID == caller.UserID {
			return allow()
		}
		return deny("not a member of this project")
	case ActionUpdateStatus:
		return deny("only the project head can update task status")
	default:
		return deny("only the project head, admins or owners can " + string(action) + " tasks")
	}
}

func contains(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
