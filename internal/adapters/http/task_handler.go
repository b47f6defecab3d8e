package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskboard/core/internal/domain/entities"
	"github.com/taskboard/core/internal/infrastructure/logger"
	"github.com/taskboard/core/internal/ports"
)

// TaskHandler handles task-related requests
type TaskHandler struct {
	taskService ports.TaskService
	logger      *logger.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(taskService ports.TaskService, logger *logger.Logger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		logger:      logger,
	}
}

// CreateTask handles task creation
// @Summary Create a task
// @Description Create a task reported by the caller and assigned to at least one user
// @Tags tasks
// @Accept json
// @Produce json
// @Param request body CreateTaskRequest true "Task data"
// @Success 201 {object} entities.TaskView
// @Failure 400 {object} ports.ErrorResponse
// @Failure 401 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /tasks [post]
func (h *TaskHandler) CreateTask(c echo.Context) error {
	requester, err := getUserIDFromContext(c)
	if err != nil {
		return toHTTPError(err)
	}

	var req CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	task, err := h.taskService.CreateTask(c.Request().Context(), requester, req.toPort())
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusCreated, task)
}

// ListTasks handles task listing
// @Summary List tasks
// @Description List all tasks, optionally filtered by status, priority and due-soon window
// @Tags tasks
// @Produce json
// @Param status query string false "Todo, In Progress or Done"
// @Param priority query string false "Low, Medium or High"
// @Param dueSoon query string false "true to limit to tasks due within three days"
// @Success 200 {array} entities.TaskView
// @Failure 401 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /tasks [get]
func (h *TaskHandler) ListTasks(c echo.Context) error {
	requester, err := getUserIDFromContext(c)
	if err != nil {
		return toHTTPError(err)
	}

	query := ports.ListTasksQuery{
		Status:   c.QueryParam("status"),
		Priority: c.QueryParam("priority"),
		DueSoon:  c.QueryParam("dueSoon") == "true",
	}

	tasks, err := h.taskService.ListTasks(c.Request().Context(), requester, query)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, tasks)
}

// GetTask handles getting a task by ID
// @Summary Get task by ID
// @Tags tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} entities.TaskView
// @Failure 404 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /tasks/{id} [get]
func (h *TaskHandler) GetTask(c echo.Context) error {
	requester, err := getUserIDFromContext(c)
	if err != nil {
		return toHTTPError(err)
	}

	id, err := parseID(c, entities.ErrTaskNotFound)
	if err != nil {
		return toHTTPError(err)
	}

	task, err := h.taskService.GetTask(c.Request().Context(), requester, id)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, task)
}

// UpdateTask handles task updates. Assignees may only change status.
// @Summary Update a task
// @Description Reporters may change any field; assignees may only change status. Other fields are ignored.
// @Tags tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param request body UpdateTaskRequest true "Fields to change"
// @Success 200 {object} entities.TaskView
// @Failure 400 {object} ports.ErrorResponse
// @Failure 403 {object} ports.ErrorResponse
// @Failure 404 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /tasks/{id} [put]
func (h *TaskHandler) UpdateTask(c echo.Context) error {
	requester, err := getUserIDFromContext(c)
	if err != nil {
		return toHTTPError(err)
	}

	id, err := parseID(c, entities.ErrTaskNotFound)
	if err != nil {
		return toHTTPError(err)
	}

	var req UpdateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	task, err := h.taskService.UpdateTask(c.Request().Context(), requester, id, req.toPatch())
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, task)
}

// DeleteTask handles task deletion
// @Summary Delete a task
// @Description Only the reporter may delete a task
// @Tags tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} ports.MessageResponse
// @Failure 403 {object} ports.ErrorResponse
// @Failure 404 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /tasks/{id} [delete]
func (h *TaskHandler) DeleteTask(c echo.Context) error {
	requester, err := getUserIDFromContext(c)
	if err != nil {
		return toHTTPError(err)
	}

	id, err := parseID(c, entities.ErrTaskNotFound)
	if err != nil {
		return toHTTPError(err)
	}

	if err := h.taskService.DeleteTask(c.Request().Context(), requester, id); err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, ports.MessageResponse{Message: "Task deleted successfully"})
}

// WatchTask handles adding the caller to the watchers
// @Summary Watch a task
// @Tags tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} ports.WatchersResponse
// @Failure 404 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /tasks/{id}/watch [put]
func (h *TaskHandler) WatchTask(c echo.Context) error {
	requester, err := getUserIDFromContext(c)
	if err != nil {
		return toHTTPError(err)
	}

	id, err := parseID(c, entities.ErrTaskNotFound)
	if err != nil {
		return toHTTPError(err)
	}

	watchers, err := h.taskService.WatchTask(c.Request().Context(), requester, id)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, ports.WatchersResponse{Watchers: watchers})
}

// UnwatchTask handles removing the caller from the watchers
// @Summary Unwatch a task
// @Tags tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} ports.WatchersResponse
// @Failure 404 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /tasks/{id}/unwatch [put]
func (h *TaskHandler) UnwatchTask(c echo.Context) error {
	requester, err := getUserIDFromContext(c)
	if err != nil {
		return toHTTPError(err)
	}

	id, err := parseID(c, entities.ErrTaskNotFound)
	if err != nil {
		return toHTTPError(err)
	}

	watchers, err := h.taskService.UnwatchTask(c.Request().Context(), requester, id)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, ports.WatchersResponse{Watchers: watchers})
}
