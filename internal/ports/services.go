package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/taskboard/core/internal/domain/entities"
)

// AuthService interface for authentication operations
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	ValidateToken(tokenString string) (*Claims, error)
	TokenTTL() time.Duration
}

// UserService interface for user management operations
type UserService interface {
	CreateUser(ctx context.Context, req CreateUserRequest) (*entities.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*entities.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, req UpdateProfileRequest) (*entities.User, error)
	ListUsers(ctx context.Context) ([]*entities.User, error)
}

// TaskService is the task authorization and mutation engine. Every call carries the
// authenticated requester.
type TaskService interface {
	CreateTask(ctx context.Context, requester uuid.UUID, req CreateTaskRequest) (*entities.TaskView, error)
	GetTask(ctx context.Context, requester uuid.UUID, id uuid.UUID) (*entities.TaskView, error)
	ListTasks(ctx context.Context, requester uuid.UUID, query ListTasksQuery) ([]*entities.TaskView, error)
	UpdateTask(ctx context.Context, requester uuid.UUID, id uuid.UUID, patch entities.TaskPatch) (*entities.TaskView, error)
	DeleteTask(ctx context.Context, requester uuid.UUID, id uuid.UUID) error
	WatchTask(ctx context.Context, requester uuid.UUID, id uuid.UUID) ([]uuid.UUID, error)
	UnwatchTask(ctx context.Context, requester uuid.UUID, id uuid.UUID) ([]uuid.UUID, error)
}

// Request/Response Types

// Auth related types
type RegisterRequest struct {
	Name       string `json:"name" validate:"required,max=100"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=6"`
	ProfilePic string `json:"profilePic" validate:"omitempty,max=2048"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token     string         `json:"token"`
	TokenType string         `json:"tokenType"`
	ExpiresIn int64          `json:"expiresIn"`
	User      *entities.User `json:"user"`
}

// Claims is the verified identity carried by an access token
type Claims struct {
	UserID string            `json:"user_id"`
	Email  string            `json:"email"`
	Role   entities.UserRole `json:"role"`
}

// User related types
type CreateUserRequest struct {
	Name       string            `json:"name" validate:"required,max=100"`
	Email      string            `json:"email" validate:"required,email"`
	Password   string            `json:"password" validate:"required,min=6"`
	ProfilePic string            `json:"profilePic" validate:"omitempty,max=2048"`
	Role       entities.UserRole `json:"role" validate:"omitempty,oneof=member admin"`
}

type UpdateProfileRequest struct {
	Name       *string `json:"name" validate:"omitempty,min=1,max=100"`
	Email      *string `json:"email" validate:"omitempty,email"`
	Password   *string `json:"password" validate:"omitempty,min=6"`
	ProfilePic *string `json:"profilePic" validate:"omitempty,max=2048"`
}

// Task related types

// CreateTaskRequest carries raw client values. Enum and date fields stay strings so the
// engine can report which one is malformed. A nil Assignees means the client did not send an array.
type CreateTaskRequest struct {
	Title        string
	Description  string
	DueDate      string
	Priority     string
	Status       string
	Assignees    []uuid.UUID
	Organization *uuid.UUID
	Tags         []string
	SubTasks     []entities.SubTask
	Attachments  []entities.Attachment

	// MalformedAssignees is set when assignees was sent as an array holding invalid ids
	MalformedAssignees bool
}

// ListTasksQuery holds the raw list filters. Empty strings do not constrain.
type ListTasksQuery struct {
	Status   string
	Priority string
	DueSoon  bool
}

// Response types
type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

type WatchersResponse struct {
	Watchers []uuid.UUID `json:"watchers"`
}
