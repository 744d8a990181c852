package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	apperrors "finhub/internal/errors"
	"finhub/internal/service"
)

// ProjectHandler handles project endpoints.
type ProjectHandler struct {
	projects service.ProjectService
}

// NewProjectHandler creates a new project handler.
func NewProjectHandler(projects service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

// CreateProjectRequest is the payload for a new project.
type CreateProjectRequest struct {
	Name         string          `json:"name" validate:"required"`
	Description  string          `json:"description" validate:"required"`
	StartDate    string          `json:"start_date" validate:"required" example:"2024-01-01"`
	EndDate      string          `json:"end_date" validate:"required" example:"2024-06-30"`
	ClientName   string          `json:"client_name" validate:"required"`
	HeadID       string          `json:"project_head" validate:"required,uuid"`
	EmployeeIDs  []string        `json:"employees" validate:"dive,uuid"`
	TotalRevenue decimal.Decimal `json:"total_revenue" swaggertype:"string" example:"50000.00"`
	Cost         decimal.Decimal `json:"cost" swaggertype:"string" example:"20000.00"`
}

// UpdateProjectRequest carries the fields to change. Revenue, cost and head
// are writable by admins and owners only.
type UpdateProjectRequest struct {
	Name         *string          `json:"name"`
	Description  *string          `json:"description"`
	StartDate    *string          `json:"start_date"`
	EndDate      *string          `json:"end_date"`
	ClientName   *string          `json:"client_name"`
	HeadID       *string          `json:"project_head" validate:"omitempty,uuid"`
	EmployeeIDs  *[]string        `json:"employees" validate:"omitempty,dive,uuid"`
	TotalRevenue *decimal.Decimal `json:"total_revenue" swaggertype:"string"`
	Cost         *decimal.Decimal `json:"cost" swaggertype:"string"`
}

func (r CreateProjectRequest) input() (service.ProjectInput, error) {
	start, err := parseDate(r.StartDate)
	if err != nil {
		return service.ProjectInput{}, dateError("start_date")
	}
	end, err := parseDate(r.EndDate)
	if err != nil {
		return service.ProjectInput{}, dateError("end_date")
	}
	head, err := uuid.Parse(r.HeadID)
	if err != nil {
		return service.ProjectInput{}, idError("project_head")
	}
	employees, err := parseIDs(r.EmployeeIDs)
	if err != nil {
		return service.ProjectInput{}, idError("employees")
	}
	return service.ProjectInput{
		Name:         r.Name,
		Description:  r.Description,
		StartDate:    start,
		EndDate:      end,
		ClientName:   r.ClientName,
		TotalRevenue: r.TotalRevenue,
		Cost:         r.Cost,
		HeadID:       head,
		EmployeeIDs:  employees,
	}, nil
}

func (r UpdateProjectRequest) update() (service.ProjectUpdate, error) {
	out := service.ProjectUpdate{
		Name:         r.Name,
		Description:  r.Description,
		ClientName:   r.ClientName,
		TotalRevenue: r.TotalRevenue,
		Cost:         r.Cost,
	}
	if r.StartDate != nil {
		t, err := parseDate(*r.StartDate)
		if err != nil {
			return out, dateError("start_date")
		}
		out.StartDate = &t
	}
	if r.EndDate != nil {
		t, err := parseDate(*r.EndDate)
		if err != nil {
			return out, dateError("end_date")
		}
		out.EndDate = &t
	}
	if r.HeadID != nil {
		id, err := uuid.Parse(*r.HeadID)
		if err != nil {
			return out, idError("project_head")
		}
		out.HeadID = &id
	}
	if r.EmployeeIDs != nil {
		ids, err := parseIDs(*r.EmployeeIDs)
		if err != nil {
			return out, idError("employees")
		}
		if ids == nil {
			ids = []uuid.UUID{}
		}
		out.EmployeeIDs = &ids
	}
	return out, nil
}

func parseIDs(raw []string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func dateError(field string) error {
	return apperrors.Validation("invalid request", map[string]string{field: "must be a date (YYYY-MM-DD or RFC 3339)"})
}

func idError(field string) error {
	return apperrors.Validation("invalid request", map[string]string{field: "must be a valid id"})
}

// List godoc
// @Summary List projects
// @Description Admins and owners see every live project; others see projects they head or belong to.
// @Tags projects
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Project
// @Failure 401 {object} errors.ErrorResponse
// @Router /projects [get]
func (h *ProjectHandler) List(c echo.Context) error {
	projects, err := h.projects.List(c.Request().Context(), callerFrom(c))
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, projects)
}

// Get godoc
// @Summary Get a project with head, employees and tasks
// @Tags projects
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Success 200 {object} model.Project
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /projects/{id} [get]
func (h *ProjectHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	project, err := h.projects.Get(c.Request().Context(), callerFrom(c), id)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, project)
}

// Create godoc
// @Summary Create a project
// @Tags projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateProjectRequest true "Project"
// @Success 201 {object} model.Project
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /projects [post]
func (h *ProjectHandler) Create(c echo.Context) error {
	var req CreateProjectRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	in, err := req.input()
	if err != nil {
		return fail(err)
	}
	project, err := h.projects.Create(c.Request().Context(), callerFrom(c), in)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, project)
}

// Update godoc
// @Summary Update a project
// @Tags projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Param request body UpdateProjectRequest true "Fields to change"
// @Success 200 {object} model.Project
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /projects/{id} [put]
func (h *ProjectHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req UpdateProjectRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	in, err := req.update()
	if err != nil {
		return fail(err)
	}
	project, err := h.projects.Update(c.Request().Context(), callerFrom(c), id, in)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, project)
}

// Archive godoc
// @Summary Archive a project
// @Tags projects
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Success 200 {object} MessageResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /projects/{id} [delete]
func (h *ProjectHandler) Archive(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.projects.Archive(c.Request().Context(), callerFrom(c), id); err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "project archived"})
}
