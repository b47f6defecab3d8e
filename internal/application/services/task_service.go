package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/taskboard/core/internal/domain/entities"
	"github.com/taskboard/core/internal/infrastructure/logger"
	"github.com/taskboard/core/internal/ports"
)

const (
	msgMissingFields    = "Please fill all required fields and assign at least one user"
	msgInvalidStatus    = "Invalid status"
	msgInvalidPriority  = "Invalid priority"
	msgInvalidDueDate   = "Invalid due date"
	msgTitleTooLong     = "Title must be at most 200 characters"
	msgTitleRequired    = "Title cannot be empty"
	msgAssigneeRequired = "Assign at least one user"
	msgInvalidAssignee  = "Invalid assignee id"
	msgUpdateForbidden  = "You are not authorized to update this task"
	msgDeleteForbidden  = "Only the reporter can delete this task"
)

// OperationObserver receives the outcome of every task operation
type OperationObserver interface {
	ObserveTaskOperation(operation string, err error)
}

type noopObserver struct{}

func (noopObserver) ObserveTaskOperation(string, error) {}

// TaskService enforces who may do what to a task and applies the resulting mutations
type TaskService struct {
	taskRepo  ports.TaskRepository
	directory ports.UserDirectory
	logger    *logger.Logger
	observer  OperationObserver
	now       func() time.Time
}

// NewTaskService creates a new task service
func NewTaskService(taskRepo ports.TaskRepository, directory ports.UserDirectory, logger *logger.Logger) *TaskService {
	return &TaskService{
		taskRepo:  taskRepo,
		directory: directory,
		logger:    logger,
		observer:  noopObserver{},
		now:       time.Now,
	}
}

// WithClock replaces the time source used for timestamps and the due-soon window
func (s *TaskService) WithClock(now func() time.Time) *TaskService {
	s.now = now
	return s
}

// WithObserver registers an observer for operation outcomes
func (s *TaskService) WithObserver(observer OperationObserver) *TaskService {
	if observer != nil {
		s.observer = observer
	}
	return s
}

// CreateTask validates the request and stores a task reported by requester
func (s *TaskService) CreateTask(ctx context.Context, requester uuid.UUID, req ports.CreateTaskRequest) (view *entities.TaskView, err error) {
	defer func() { s.observer.ObserveTaskOperation("create", err) }()

	dueDate, err := validateCreate(req)
	if err != nil {
		return nil, err
	}

	status := entities.TaskStatus(req.Status)
	if status == "" {
		status = entities.TaskStatusTodo
	}

	now := s.now().UTC()
	task := &entities.Task{
		ID:           uuid.New(),
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		ReporterID:   requester,
		AssigneeIDs:  entities.UniqueIDs(req.Assignees),
		Organization: req.Organization,
		DueDate:      dueDate,
		Priority:     entities.Priority(req.Priority),
		Status:       status,
		WatcherIDs:   []uuid.UUID{},
		Tags:         req.Tags,
		SubTasks:     req.SubTasks,
		Attachments:  req.Attachments,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.logger.LogUserAction(requester.String(), "task_created", map[string]interface{}{
		"task_id":   task.ID,
		"assignees": len(task.AssigneeIDs),
	})

	return s.view(ctx, task)
}

// GetTask returns a task to any authenticated user
func (s *TaskService) GetTask(ctx context.Context, requester uuid.UUID, id uuid.UUID) (view *entities.TaskView, err error) {
	defer func() { s.observer.ObserveTaskOperation("get", err) }()

	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return s.view(ctx, task)
}

// ListTasks returns every task matching the query, ordered by due date
func (s *TaskService) ListTasks(ctx context.Context, requester uuid.UUID, query ports.ListTasksQuery) (views []*entities.TaskView, err error) {
	defer func() { s.observer.ObserveTaskOperation("list", err) }()

	var filter ports.TaskFilter

	if query.Status != "" {
		// unknown values are kept so the filter matches nothing
		status := entities.TaskStatus(query.Status)
		filter.Status = &status
	}

	if query.Priority != "" {
		priority := entities.Priority(query.Priority)
		filter.Priority = &priority
	}

	if query.DueSoon {
		deadline := s.now().UTC().Add(entities.DueSoonWindow)
		filter.DueBefore = &deadline
	}

	tasks, err := s.taskRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	return s.views(ctx, tasks)
}

// UpdateTask applies the fields of patch the requester is permitted to change.
// Fields outside the requester's permissions are dropped without error.
func (s *TaskService) UpdateTask(ctx context.Context, requester uuid.UUID, id uuid.UUID, patch entities.TaskPatch) (view *entities.TaskView, err error) {
	defer func() { s.observer.ObserveTaskOperation("update", err) }()

	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	role := task.RoleOf(requester)
	if !role.IsMember() {
		s.logger.LogSecurityEvent("task_update_denied", requester.String(), "", map[string]interface{}{
			"task_id": id,
		})
		return nil, &entities.ForbiddenError{Reason: msgUpdateForbidden}
	}

	permitted, dropped := patch.Permitted(role)
	if len(dropped) > 0 {
		s.logger.Debugw("Dropped fields outside requester permissions",
			"task_id", id,
			"user_id", requester,
			"role", role.String(),
			"fields", dropped,
		)
	}

	if permitted.IsEmpty() {
		return s.view(ctx, task)
	}

	if err := applyPatch(task, permitted); err != nil {
		return nil, err
	}
	task.UpdatedAt = s.now().UTC()

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	s.logger.LogUserAction(requester.String(), "task_updated", map[string]interface{}{
		"task_id": id,
		"fields":  permitted.Fields(),
		"status":  task.Status,
	})

	return s.view(ctx, task)
}

// DeleteTask removes a task. Only its reporter may do so.
func (s *TaskService) DeleteTask(ctx context.Context, requester uuid.UUID, id uuid.UUID) (err error) {
	defer func() { s.observer.ObserveTaskOperation("delete", err) }()

	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get task: %w", err)
	}

	if !task.IsReporter(requester) {
		s.logger.LogSecurityEvent("task_delete_denied", requester.String(), "", map[string]interface{}{
			"task_id": id,
		})
		return &entities.ForbiddenError{Reason: msgDeleteForbidden}
	}

	if err := s.taskRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.logger.LogUserAction(requester.String(), "task_deleted", map[string]interface{}{
		"task_id": id,
	})

	return nil
}

// WatchTask adds the requester to the task's watchers
func (s *TaskService) WatchTask(ctx context.Context, requester uuid.UUID, id uuid.UUID) (watchers []uuid.UUID, err error) {
	defer func() { s.observer.ObserveTaskOperation("watch", err) }()

	watchers, err = s.taskRepo.AddWatcher(ctx, id, requester)
	if err != nil {
		return nil, fmt.Errorf("failed to watch task: %w", err)
	}

	return watchers, nil
}

// UnwatchTask removes the requester from the task's watchers
func (s *TaskService) UnwatchTask(ctx context.Context, requester uuid.UUID, id uuid.UUID) (watchers []uuid.UUID, err error) {
	defer func() { s.observer.ObserveTaskOperation("unwatch", err) }()

	watchers, err = s.taskRepo.RemoveWatcher(ctx, id, requester)
	if err != nil {
		return nil, fmt.Errorf("failed to unwatch task: %w", err)
	}

	return watchers, nil
}

func (s *TaskService) view(ctx context.Context, task *entities.Task) (*entities.TaskView, error) {
	views, err := s.views(ctx, []*entities.Task{task})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// views resolves every referenced user with a single directory lookup
func (s *TaskService) views(ctx context.Context, tasks []*entities.Task) ([]*entities.TaskView, error) {
	var ids []uuid.UUID
	for _, task := range tasks {
		ids = append(ids, task.ReferencedUsers()...)
	}

	summaries, err := s.directory.Summaries(ctx, entities.UniqueIDs(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve users: %w", err)
	}

	views := make([]*entities.TaskView, 0, len(tasks))
	for _, task := range tasks {
		views = append(views, task.View(summaries))
	}
	return views, nil
}

// validateCreate checks a create request in a fixed order and returns the parsed due date
func validateCreate(req ports.CreateTaskRequest) (time.Time, error) {
	if strings.TrimSpace(req.Title) == "" ||
		req.Description == "" ||
		strings.TrimSpace(req.DueDate) == "" ||
		req.Priority == "" ||
		(len(req.Assignees) == 0 && !req.MalformedAssignees) {
		return time.Time{}, entities.NewValidationError("", msgMissingFields)
	}

	if req.MalformedAssignees {
		return time.Time{}, entities.NewValidationError("assignees", msgInvalidAssignee)
	}

	if req.Status != "" && !entities.TaskStatus(req.Status).IsValid() {
		return time.Time{}, entities.NewValidationError("status", msgInvalidStatus)
	}

	if !entities.Priority(req.Priority).IsValid() {
		return time.Time{}, entities.NewValidationError("priority", msgInvalidPriority)
	}

	dueDate, err := entities.ParseDueDate(req.DueDate)
	if err != nil {
		return time.Time{}, entities.NewValidationError("dueDate", msgInvalidDueDate)
	}

	if utf8.RuneCountInString(strings.TrimSpace(req.Title)) > entities.MaxTitleLength {
		return time.Time{}, entities.NewValidationError("title", msgTitleTooLong)
	}

	return dueDate, nil
}

var malformedMessages = map[entities.TaskField]string{
	entities.FieldTitle:       "Invalid title",
	entities.FieldDescription: "Invalid description",
	entities.FieldDueDate:     msgInvalidDueDate,
	entities.FieldPriority:    msgInvalidPriority,
	entities.FieldStatus:      msgInvalidStatus,
	entities.FieldAssignees:   msgInvalidAssignee,
}

// applyPatch validates every present field before mutating the task
func applyPatch(task *entities.Task, patch entities.TaskPatch) error {
	var (
		title     string
		dueDate   time.Time
		assignees []uuid.UUID
	)

	for _, field := range patch.Fields() {
		if patch.IsMalformed(field) {
			return entities.NewValidationError(string(field), malformedMessages[field])
		}
	}

	if patch.Status != nil && !entities.TaskStatus(*patch.Status).IsValid() {
		return entities.NewValidationError("status", msgInvalidStatus)
	}

	if patch.Priority != nil && !entities.Priority(*patch.Priority).IsValid() {
		return entities.NewValidationError("priority", msgInvalidPriority)
	}

	if patch.Title != nil {
		title = strings.TrimSpace(*patch.Title)
		if title == "" {
			return entities.NewValidationError("title", msgTitleRequired)
		}
		if utf8.RuneCountInString(title) > entities.MaxTitleLength {
			return entities.NewValidationError("title", msgTitleTooLong)
		}
	}

	if patch.DueDate != nil {
		parsed, err := entities.ParseDueDate(*patch.DueDate)
		if err != nil {
			return entities.NewValidationError("dueDate", msgInvalidDueDate)
		}
		dueDate = parsed
	}

	if patch.Assignees != nil {
		assignees = entities.UniqueIDs(*patch.Assignees)
		if len(assignees) == 0 {
			return entities.NewValidationError("assignees", msgAssigneeRequired)
		}
	}

	if patch.Status != nil {
		task.Status = entities.TaskStatus(*patch.Status)
	}
	if patch.Priority != nil {
		task.Priority = entities.Priority(*patch.Priority)
	}
	if patch.Title != nil {
		task.Title = title
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.DueDate != nil {
		task.DueDate = dueDate
	}
	if patch.Assignees != nil {
		task.AssigneeIDs = assignees
	}

	return nil
}
