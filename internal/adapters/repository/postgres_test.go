package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/taskboard/core/internal/adapters/repository"
	"github.com/taskboard/core/internal/domain/entities"
	"github.com/taskboard/core/internal/infrastructure/database"
	"github.com/taskboard/core/internal/ports"
)

// PostgresTestSuite runs the sqlx repositories against a real PostgreSQL
type PostgresTestSuite struct {
	suite.Suite
	ctx       context.Context
	container testcontainers.Container
	db        *sqlx.DB
	users     ports.UserRepository
	tasks     ports.TaskRepository
}

func TestPostgresSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping PostgreSQL integration tests in short mode")
	}
	suite.Run(t, new(PostgresTestSuite))
}

func (s *PostgresTestSuite) SetupSuite() {
	s.ctx = context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(s.ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	s.Require().NoError(err)
	s.container = container

	host, err := container.Host(s.ctx)
	s.Require().NoError(err)
	port, err := container.MappedPort(s.ctx, "5432")
	s.Require().NoError(err)

	dsn := fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())
	s.db, err = sqlx.Connect("postgres", dsn)
	s.Require().NoError(err)

	s.Require().NoError(database.MigrateUp(s.ctx, s.db))

	s.users = repository.NewUserRepository(s.db)
	s.tasks = repository.NewTaskRepository(s.db)
}

func (s *PostgresTestSuite) TearDownSuite() {
	if s.db != nil {
		_ = s.db.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *PostgresTestSuite) SetupTest() {
	_, err := s.db.ExecContext(s.ctx, "TRUNCATE tasks, users")
	s.Require().NoError(err)
}

func (s *PostgresTestSuite) newUser(name string) *entities.User {
	now := time.Now().UTC().Truncate(time.Microsecond)
	user := &entities.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        name + "@example.com",
		PasswordHash: "hash",
		ProfilePic:   name + ".png",
		Role:         entities.UserRoleMember,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.Require().NoError(s.users.Create(s.ctx, user))
	return user
}

func (s *PostgresTestSuite) newTask(reporter uuid.UUID, due time.Time, status entities.TaskStatus, priority entities.Priority, assignees ...uuid.UUID) *entities.Task {
	now := time.Now().UTC().Truncate(time.Microsecond)
	task := &entities.Task{
		ID:          uuid.New(),
		Title:       "Ship v1",
		Description: "Cut the first release",
		ReporterID:  reporter,
		AssigneeIDs: assignees,
		DueDate:     due,
		Priority:    priority,
		Status:      status,
		WatcherIDs:  []uuid.UUID{},
		Tags:        []string{"release"},
		SubTasks:    []entities.SubTask{{Title: "tag the build"}},
		Attachments: []entities.Attachment{{Filename: "notes.md", URL: "https://example.com/notes.md"}},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.Require().NoError(s.tasks.Create(s.ctx, task))
	return task
}

func (s *PostgresTestSuite) TestUserRepository() {
	alice := s.newUser("alice")
	s.newUser("bob")

	got, err := s.users.GetByID(s.ctx, alice.ID)
	s.Require().NoError(err)
	s.Equal("alice@example.com", got.Email)
	s.Equal("hash", got.PasswordHash)

	byEmail, err := s.users.GetByEmail(s.ctx, "alice@example.com")
	s.Require().NoError(err)
	s.Equal(alice.ID, byEmail.ID)

	_, err = s.users.GetByID(s.ctx, uuid.New())
	s.ErrorIs(err, entities.ErrUserNotFound)

	dup := &entities.User{ID: uuid.New(), Name: "Dup", Email: "alice@example.com", PasswordHash: "x", Role: entities.UserRoleMember}
	s.ErrorIs(s.users.Create(s.ctx, dup), entities.ErrEmailTaken)

	alice.Name = "Alice Smith"
	s.Require().NoError(s.users.Update(s.ctx, alice))

	alice.Email = "bob@example.com"
	s.ErrorIs(s.users.Update(s.ctx, alice), entities.ErrEmailTaken)

	list, err := s.users.List(s.ctx)
	s.Require().NoError(err)
	s.Len(list, 2)

	summaries, err := s.users.GetSummaries(s.ctx, []uuid.UUID{alice.ID, uuid.New()})
	s.Require().NoError(err)
	s.Equal(map[uuid.UUID]entities.UserSummary{
		alice.ID: {ID: alice.ID, Name: "Alice Smith", ProfilePic: "alice.png"},
	}, summaries)
}

func (s *PostgresTestSuite) TestTaskRoundTrip() {
	alice := s.newUser("alice")
	bob := s.newUser("bob")
	due := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	task := s.newTask(alice.ID, due, entities.TaskStatusTodo, entities.PriorityHigh, bob.ID)

	got, err := s.tasks.GetByID(s.ctx, task.ID)
	s.Require().NoError(err)
	s.Equal(task.Title, got.Title)
	s.Equal(alice.ID, got.ReporterID)
	s.Equal([]uuid.UUID{bob.ID}, got.AssigneeIDs)
	s.True(due.Equal(got.DueDate))
	s.Equal([]string{"release"}, got.Tags)
	s.Equal(task.SubTasks, got.SubTasks)
	s.Equal(task.Attachments, got.Attachments)
	s.Empty(got.WatcherIDs)
	s.Nil(got.Organization)

	_, err = s.tasks.GetByID(s.ctx, uuid.New())
	s.ErrorIs(err, entities.ErrTaskNotFound)
}

func (s *PostgresTestSuite) TestTaskUpdateLeavesWatchersAlone() {
	alice := s.newUser("alice")
	task := s.newTask(alice.ID, time.Now().UTC(), entities.TaskStatusTodo, entities.PriorityHigh, alice.ID)

	stale, err := s.tasks.GetByID(s.ctx, task.ID)
	s.Require().NoError(err)

	watcher := uuid.New()
	watchers, err := s.tasks.AddWatcher(s.ctx, task.ID, watcher)
	s.Require().NoError(err)
	s.Equal([]uuid.UUID{watcher}, watchers)

	stale.Status = entities.TaskStatusDone
	stale.Title = "Ship v2"
	s.Require().NoError(s.tasks.Update(s.ctx, stale))

	got, err := s.tasks.GetByID(s.ctx, task.ID)
	s.Require().NoError(err)
	s.Equal(entities.TaskStatusDone, got.Status)
	s.Equal("Ship v2", got.Title)
	s.Equal([]uuid.UUID{watcher}, got.WatcherIDs)

	s.ErrorIs(s.tasks.Update(s.ctx, &entities.Task{ID: uuid.New(), Status: entities.TaskStatusTodo, Priority: entities.PriorityLow}), entities.ErrTaskNotFound)
}

func (s *PostgresTestSuite) TestWatchersAreASet() {
	alice := s.newUser("alice")
	task := s.newTask(alice.ID, time.Now().UTC(), entities.TaskStatusTodo, entities.PriorityHigh, alice.ID)
	watcher := uuid.New()

	for i := 0; i < 2; i++ {
		watchers, err := s.tasks.AddWatcher(s.ctx, task.ID, watcher)
		s.Require().NoError(err)
		s.Equal([]uuid.UUID{watcher}, watchers)
	}

	watchers, err := s.tasks.RemoveWatcher(s.ctx, task.ID, uuid.New())
	s.Require().NoError(err)
	s.Equal([]uuid.UUID{watcher}, watchers)

	watchers, err = s.tasks.RemoveWatcher(s.ctx, task.ID, watcher)
	s.Require().NoError(err)
	s.Empty(watchers)

	_, err = s.tasks.AddWatcher(s.ctx, uuid.New(), watcher)
	s.ErrorIs(err, entities.ErrTaskNotFound)
	_, err = s.tasks.RemoveWatcher(s.ctx, uuid.New(), watcher)
	s.ErrorIs(err, entities.ErrTaskNotFound)
}

func (s *PostgresTestSuite) TestListFiltersAndOrder() {
	alice := s.newUser("alice")
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	late := s.newTask(alice.ID, base.AddDate(0, 0, 10), entities.TaskStatusTodo, entities.PriorityLow, alice.ID)
	boundary := s.newTask(alice.ID, base.AddDate(0, 0, 3), entities.TaskStatusDone, entities.PriorityHigh, alice.ID)
	overdue := s.newTask(alice.ID, base.AddDate(0, 0, -1), entities.TaskStatusTodo, entities.PriorityHigh, alice.ID)

	all, err := s.tasks.List(s.ctx, ports.TaskFilter{})
	s.Require().NoError(err)
	s.Equal([]uuid.UUID{overdue.ID, boundary.ID, late.ID}, taskIDs(all))

	deadline := base.AddDate(0, 0, 3)
	dueSoon, err := s.tasks.List(s.ctx, ports.TaskFilter{DueBefore: &deadline})
	s.Require().NoError(err)
	s.Equal([]uuid.UUID{overdue.ID, boundary.ID}, taskIDs(dueSoon))

	todo := entities.TaskStatusTodo
	high := entities.PriorityHigh
	filtered, err := s.tasks.List(s.ctx, ports.TaskFilter{Status: &todo, Priority: &high})
	s.Require().NoError(err)
	s.Equal([]uuid.UUID{overdue.ID}, taskIDs(filtered))
}

func (s *PostgresTestSuite) TestDelete() {
	alice := s.newUser("alice")
	task := s.newTask(alice.ID, time.Now().UTC(), entities.TaskStatusTodo, entities.PriorityHigh, alice.ID)

	s.Require().NoError(s.tasks.Delete(s.ctx, task.ID))
	s.ErrorIs(s.tasks.Delete(s.ctx, task.ID), entities.ErrTaskNotFound)

	_, err := s.tasks.GetByID(s.ctx, task.ID)
	s.ErrorIs(err, entities.ErrTaskNotFound)
}

func (s *PostgresTestSuite) TestMigratorVersion() {
	m, err := database.NewMigrator(s.ctx, s.db)
	s.Require().NoError(err)
	defer func() { require.NoError(s.T(), m.Close()) }()

	version, dirty, err := m.Version()
	s.Require().NoError(err)
	s.Equal(uint(2), version)
	s.False(dirty)

	changed, err := m.Up()
	s.Require().NoError(err)
	s.False(changed)
}

func taskIDs(tasks []*entities.Task) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, task.ID)
	}
	return out
}
