package memory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskboard/core/internal/adapters/repository/memory"
	"github.com/taskboard/core/internal/domain/entities"
	"github.com/taskboard/core/internal/ports"
)

var base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newTask(due time.Time, status entities.TaskStatus, priority entities.Priority) *entities.Task {
	return &entities.Task{
		ID:          uuid.New(),
		Title:       "task",
		Description: "description",
		ReporterID:  uuid.New(),
		AssigneeIDs: []uuid.UUID{uuid.New()},
		DueDate:     due,
		Priority:    priority,
		Status:      status,
		CreatedAt:   base,
		UpdatedAt:   base,
	}
}

func TestTaskRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewTaskRepository()

	task := newTask(base, entities.TaskStatusTodo, entities.PriorityHigh)
	require.NoError(t, repo.Create(ctx, task))

	got, err := repo.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.Title, got.Title)

	got.Title = "mutated outside the store"
	again, err := repo.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "task", again.Title)

	again.Title = "renamed"
	require.NoError(t, repo.Update(ctx, again))
	renamed, err := repo.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", renamed.Title)

	require.NoError(t, repo.Delete(ctx, task.ID))
	_, err = repo.GetByID(ctx, task.ID)
	assert.ErrorIs(t, err, entities.ErrTaskNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, task.ID), entities.ErrTaskNotFound)
	assert.ErrorIs(t, repo.Update(ctx, task), entities.ErrTaskNotFound)
}

func TestTaskRepository_UpdateKeepsWatchersAndReporter(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewTaskRepository()

	task := newTask(base, entities.TaskStatusTodo, entities.PriorityHigh)
	require.NoError(t, repo.Create(ctx, task))

	stale, err := repo.GetByID(ctx, task.ID)
	require.NoError(t, err)

	watcher := uuid.New()
	_, err = repo.AddWatcher(ctx, task.ID, watcher)
	require.NoError(t, err)

	stale.Status = entities.TaskStatusDone
	stale.ReporterID = uuid.New()
	require.NoError(t, repo.Update(ctx, stale))

	got, err := repo.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.TaskStatusDone, got.Status)
	assert.Equal(t, []uuid.UUID{watcher}, got.WatcherIDs)
	assert.Equal(t, task.ReporterID, got.ReporterID)
}

func TestTaskRepository_List(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewTaskRepository()

	late := newTask(base.AddDate(0, 0, 10), entities.TaskStatusTodo, entities.PriorityLow)
	soon := newTask(base.AddDate(0, 0, 2), entities.TaskStatusDone, entities.PriorityHigh)
	overdue := newTask(base.AddDate(0, 0, -1), entities.TaskStatusTodo, entities.PriorityHigh)
	sameDueLater := newTask(base.AddDate(0, 0, 2), entities.TaskStatusTodo, entities.PriorityHigh)
	sameDueLater.CreatedAt = base.Add(time.Hour)

	for _, task := range []*entities.Task{late, sameDueLater, soon, overdue} {
		require.NoError(t, repo.Create(ctx, task))
	}

	ids := func(tasks []*entities.Task) []uuid.UUID {
		out := make([]uuid.UUID, 0, len(tasks))
		for _, task := range tasks {
			out = append(out, task.ID)
		}
		return out
	}

	todo := entities.TaskStatusTodo
	high := entities.PriorityHigh
	deadline := base.AddDate(0, 0, 3)

	tests := []struct {
		name     string
		filter   ports.TaskFilter
		expected []uuid.UUID
	}{
		{name: "no filter orders by due date then creation", filter: ports.TaskFilter{}, expected: []uuid.UUID{overdue.ID, soon.ID, sameDueLater.ID, late.ID}},
		{name: "status", filter: ports.TaskFilter{Status: &todo}, expected: []uuid.UUID{overdue.ID, sameDueLater.ID, late.ID}},
		{name: "priority", filter: ports.TaskFilter{Priority: &high}, expected: []uuid.UUID{overdue.ID, soon.ID, sameDueLater.ID}},
		{name: "due before includes overdue", filter: ports.TaskFilter{DueBefore: &deadline}, expected: []uuid.UUID{overdue.ID, soon.ID, sameDueLater.ID}},
		{name: "combined", filter: ports.TaskFilter{Status: &todo, Priority: &high, DueBefore: &deadline}, expected: []uuid.UUID{overdue.ID, sameDueLater.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks, err := repo.List(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ids(tasks))
		})
	}
}

func TestTaskRepository_WatchersConcurrently(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewTaskRepository()

	task := newTask(base, entities.TaskStatusTodo, entities.PriorityHigh)
	require.NoError(t, repo.Create(ctx, task))

	users := make([]uuid.UUID, 50)
	for i := range users {
		users[i] = uuid.New()
	}

	var wg sync.WaitGroup
	for _, u := range users {
		wg.Add(2)
		go func(u uuid.UUID) {
			defer wg.Done()
			_, _ = repo.AddWatcher(ctx, task.ID, u)
		}(u)
		go func(u uuid.UUID) {
			defer wg.Done()
			_, _ = repo.AddWatcher(ctx, task.ID, u)
		}(u)
	}
	wg.Wait()

	got, err := repo.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, users, got.WatcherIDs)

	watchers, err := repo.RemoveWatcher(ctx, task.ID, users[0])
	require.NoError(t, err)
	assert.Len(t, watchers, len(users)-1)

	_, err = repo.AddWatcher(ctx, uuid.New(), users[0])
	assert.ErrorIs(t, err, entities.ErrTaskNotFound)
	_, err = repo.RemoveWatcher(ctx, uuid.New(), users[0])
	assert.ErrorIs(t, err, entities.ErrTaskNotFound)
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUserRepository()

	zed := &entities.User{ID: uuid.New(), Name: "Zed", Email: "zed@example.com", ProfilePic: "z.png"}
	amy := &entities.User{ID: uuid.New(), Name: "Amy", Email: "amy@example.com"}
	require.NoError(t, repo.Create(ctx, zed))
	require.NoError(t, repo.Create(ctx, amy))

	assert.ErrorIs(t, repo.Create(ctx, &entities.User{Name: "Dup", Email: "zed@example.com"}), entities.ErrEmailTaken)

	byEmail, err := repo.GetByEmail(ctx, "amy@example.com")
	require.NoError(t, err)
	assert.Equal(t, amy.ID, byEmail.ID)

	_, err = repo.GetByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, entities.ErrUserNotFound)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Amy", list[0].Name)

	amy.Email = "zed@example.com"
	assert.ErrorIs(t, repo.Update(ctx, amy), entities.ErrEmailTaken)

	amy.Email = "amy.new@example.com"
	require.NoError(t, repo.Update(ctx, amy))
	_, err = repo.GetByEmail(ctx, "amy@example.com")
	assert.ErrorIs(t, err, entities.ErrUserNotFound)

	summaries, err := repo.GetSummaries(ctx, []uuid.UUID{zed.ID, uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, map[uuid.UUID]entities.UserSummary{zed.ID: {ID: zed.ID, Name: "Zed", ProfilePic: "z.png"}}, summaries)
}
