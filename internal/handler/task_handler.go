package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"finhub/internal/model"
	"finhub/internal/service"
)

// TaskHandler handles task endpoints.
type TaskHandler struct {
	tasks service.TaskService
}

// NewTaskHandler creates a new task handler.
func NewTaskHandler(tasks service.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

// CreateTaskRequest is the payload for a new task.
type CreateTaskRequest struct {
	ProjectID   string `json:"project" validate:"required,uuid"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	AssigneeID  string `json:"assigned_to" validate:"omitempty,uuid"`
}

// UpdateTaskRequest carries the fields to change. assigned_to set to null
// removes the assignee. status is writable by admins, owners and the project head.
type UpdateTaskRequest struct {
	Name        *string         `json:"name"`
	Description *string         `json:"description"`
	AssigneeID  json.RawMessage `json:"assigned_to" swaggertype:"string"`
	Status      *string         `json:"status"`
}

func (r UpdateTaskRequest) update() (service.TaskUpdate, error) {
	out := service.TaskUpdate{Name: r.Name, Description: r.Description}
	if r.Status != nil {
		status := model.TaskStatus(*r.Status)
		out.Status = &status
	}
	if len(r.AssigneeID) == 0 {
		return out, nil
	}
	if string(r.AssigneeID) == "null" {
		out.UnassignAssignee = true
		return out, nil
	}
	var raw string
	if err := json.Unmarshal(r.AssigneeID, &raw); err != nil {
		return out, idError("assigned_to")
	}
	if raw == "" {
		out.UnassignAssignee = true
		return out, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return out, idError("assigned_to")
	}
	out.AssigneeID = &id
	return out, nil
}

// Create godoc
// @Summary Create a task in a project
// @Tags tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateTaskRequest true "Task"
// @Success 201 {object} model.Task
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /tasks [post]
func (h *TaskHandler) Create(c echo.Context) error {
	var req CreateTaskRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		return fail(idError("project"))
	}
	in := service.TaskInput{ProjectID: projectID, Name: req.Name, Description: req.Description}
	if req.AssigneeID != "" {
		id, err := uuid.Parse(req.AssigneeID)
		if err != nil {
			return fail(idError("assigned_to"))
		}
		in.AssigneeID = &id
	}

	task, err := h.tasks.Create(c.Request().Context(), callerFrom(c), in)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, task)
}

// Update godoc
// @Summary Update a task
// @Tags tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Param request body UpdateTaskRequest true "Fields to change"
// @Success 200 {object} model.Task
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /tasks/{id} [put]
func (h *TaskHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req UpdateTaskRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	in, err := req.update()
	if err != nil {
		return fail(err)
	}
	task, err := h.tasks.Update(c.Request().Context(), callerFrom(c), id, in)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, task)
}

// Delete godoc
// @Summary Delete a task
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Success 200 {object} MessageResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /tasks/{id} [delete]
func (h *TaskHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.tasks.Delete(c.Request().Context(), callerFrom(c), id); err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "task deleted"})
}
