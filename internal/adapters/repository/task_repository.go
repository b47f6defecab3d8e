package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/taskboard/core/internal/domain/entities"
	"github.com/taskboard/core/internal/ports"
)

const taskColumns = `id, title, description, reporter_id, assignee_ids, organization_id, due_date,
	priority, status, watcher_ids, tags, sub_tasks, attachments, comments, is_archived,
	created_at, updated_at`

// taskRow is the stored shape of a task document
type taskRow struct {
	ID             uuid.UUID                        `db:"id"`
	Title          string                           `db:"title"`
	Description    string                           `db:"description"`
	ReporterID     uuid.UUID                        `db:"reporter_id"`
	AssigneeIDs    pq.StringArray                   `db:"assignee_ids"`
	OrganizationID uuid.NullUUID                    `db:"organization_id"`
	DueDate        time.Time                        `db:"due_date"`
	Priority       string                           `db:"priority"`
	Status         string                           `db:"status"`
	WatcherIDs     pq.StringArray                   `db:"watcher_ids"`
	Tags           pq.StringArray                   `db:"tags"`
	SubTasks       jsonColumn[[]entities.SubTask]    `db:"sub_tasks"`
	Attachments    jsonColumn[[]entities.Attachment] `db:"attachments"`
	Comments       jsonColumn[[]entities.Comment]    `db:"comments"`
	IsArchived     bool                             `db:"is_archived"`
	CreatedAt      time.Time                        `db:"created_at"`
	UpdatedAt      time.Time                        `db:"updated_at"`
}

func toTaskRow(task *entities.Task) taskRow {
	row := taskRow{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		ReporterID:  task.ReporterID,
		AssigneeIDs: uuidArray(task.AssigneeIDs),
		DueDate:     task.DueDate,
		Priority:    string(task.Priority),
		Status:      string(task.Status),
		WatcherIDs:  uuidArray(task.WatcherIDs),
		Tags:        append(pq.StringArray{}, task.Tags...),
		SubTasks:    jsonColumn[[]entities.SubTask]{V: append([]entities.SubTask{}, task.SubTasks...)},
		Attachments: jsonColumn[[]entities.Attachment]{V: append([]entities.Attachment{}, task.Attachments...)},
		Comments:    jsonColumn[[]entities.Comment]{V: append([]entities.Comment{}, task.Comments...)},
		IsArchived:  task.IsArchived,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
	if task.Organization != nil {
		row.OrganizationID = uuid.NullUUID{UUID: *task.Organization, Valid: true}
	}
	return row
}

func (row taskRow) toEntity() (*entities.Task, error) {
	assignees, err := parseUUIDArray(row.AssigneeIDs)
	if err != nil {
		return nil, fmt.Errorf("assignees: %w", err)
	}
	watchers, err := parseUUIDArray(row.WatcherIDs)
	if err != nil {
		return nil, fmt.Errorf("watchers: %w", err)
	}

	task := &entities.Task{
		ID:          row.ID,
		Title:       row.Title,
		Description: row.Description,
		ReporterID:  row.ReporterID,
		AssigneeIDs: assignees,
		DueDate:     row.DueDate.UTC(),
		Priority:    entities.Priority(row.Priority),
		Status:      entities.TaskStatus(row.Status),
		WatcherIDs:  watchers,
		Tags:        []string(row.Tags),
		SubTasks:    row.SubTasks.V,
		Attachments: row.Attachments.V,
		Comments:    row.Comments.V,
		IsArchived:  row.IsArchived,
		CreatedAt:   row.CreatedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}
	if row.OrganizationID.Valid {
		org := row.OrganizationID.UUID
		task.Organization = &org
	}
	return task, nil
}

// TaskRepositoryImpl implements the TaskRepository interface on PostgreSQL
type TaskRepositoryImpl struct {
	db *sqlx.DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *sqlx.DB) ports.TaskRepository {
	return &TaskRepositoryImpl{db: db}
}

func (r *TaskRepositoryImpl) Create(ctx context.Context, task *entities.Task) error {
	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES (:id, :title, :description, :reporter_id, :assignee_ids, :organization_id, :due_date,
			:priority, :status, :watcher_ids, :tags, :sub_tasks, :attachments, :comments, :is_archived,
			:created_at, :updated_at)`

	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}

	if _, err := r.db.NamedExecContext(ctx, query, toTaskRow(task)); err != nil {
		return fmt.Errorf("create task: %w", err)
	}

	return nil
}

func (r *TaskRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*entities.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	var row taskRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task by id: %w", err)
	}

	return row.toEntity()
}

// Update overwrites every field except the watcher set, which only AddWatcher and RemoveWatcher touch.
func (r *TaskRepositoryImpl) Update(ctx context.Context, task *entities.Task) error {
	query := `
		UPDATE tasks
		SET title = :title, description = :description, assignee_ids = :assignee_ids,
			organization_id = :organization_id, due_date = :due_date, priority = :priority,
			status = :status, tags = :tags, sub_tasks = :sub_tasks, attachments = :attachments,
			comments = :comments, is_archived = :is_archived, updated_at = :updated_at
		WHERE id = :id`

	result, err := r.db.NamedExecContext(ctx, query, toTaskRow(task))
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}

	return expectAffected(result, entities.ErrTaskNotFound)
}

func (r *TaskRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	return expectAffected(result, entities.ErrTaskNotFound)
}

func (r *TaskRepositoryImpl) List(ctx context.Context, filter ports.TaskFilter) ([]*entities.Task, error) {
	var (
		conditions []string
		args       []interface{}
		argIndex   = 1
	)

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, string(*filter.Status))
		argIndex++
	}

	if filter.Priority != nil {
		conditions = append(conditions, fmt.Sprintf("priority = $%d", argIndex))
		args = append(args, string(*filter.Priority))
		argIndex++
	}

	if filter.DueBefore != nil {
		conditions = append(conditions, fmt.Sprintf("due_date <= $%d", argIndex))
		args = append(args, *filter.DueBefore)
		argIndex++
	}

	query := `SELECT ` + taskColumns + ` FROM tasks`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY due_date ASC, created_at ASC"

	var rows []taskRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	tasks := make([]*entities.Task, 0, len(rows))
	for _, row := range rows {
		task, err := row.toEntity()
		if err != nil {
			return nil, fmt.Errorf("decode task %s: %w", row.ID, err)
		}
		tasks = append(tasks, task)
	}

	return tasks, nil
}

func (r *TaskRepositoryImpl) AddWatcher(ctx context.Context, taskID, userID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		UPDATE tasks
		SET watcher_ids = CASE
			WHEN $2::uuid = ANY(watcher_ids) THEN watcher_ids
			ELSE array_append(watcher_ids, $2::uuid)
		END
		WHERE id = $1
		RETURNING watcher_ids`

	return r.mutateWatchers(ctx, query, taskID, userID)
}

func (r *TaskRepositoryImpl) RemoveWatcher(ctx context.Context, taskID, userID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		UPDATE tasks
		SET watcher_ids = array_remove(watcher_ids, $2::uuid)
		WHERE id = $1
		RETURNING watcher_ids`

	return r.mutateWatchers(ctx, query, taskID, userID)
}

func (r *TaskRepositoryImpl) mutateWatchers(ctx context.Context, query string, taskID, userID uuid.UUID) ([]uuid.UUID, error) {
	var watchers pq.StringArray
	err := r.db.QueryRowContext(ctx, query, taskID, userID).Scan(&watchers)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrTaskNotFound
		}
		return nil, fmt.Errorf("update watchers: %w", err)
	}

	return parseUUIDArray(watchers)
}
