package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/taskboard/core/internal/domain/entities"
	"github.com/taskboard/core/internal/infrastructure/logger"
	"github.com/taskboard/core/internal/ports"
)

// UserService handles user-related operations
type UserService struct {
	userRepo  ports.UserRepository
	directory ports.UserDirectory
	logger    *logger.Logger
}

// NewUserService creates a new user service
func NewUserService(userRepo ports.UserRepository, directory ports.UserDirectory, logger *logger.Logger) *UserService {
	return &UserService{
		userRepo:  userRepo,
		directory: directory,
		logger:    logger,
	}
}

// CreateUser creates a user with an explicit role
func (s *UserService) CreateUser(ctx context.Context, req ports.CreateUserRequest) (*entities.User, error) {
	email := entities.NormalizeEmail(req.Email)

	existingUser, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil && existingUser != nil {
		return nil, entities.ErrEmailTaken
	}
	if err != nil && !errors.Is(err, entities.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	role := req.Role
	if role == "" {
		role = entities.UserRoleMember
	}
	if !role.IsValid() {
		return nil, entities.NewValidationError("role", "Invalid role")
	}

	hashedPassword, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &entities.User{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hashedPassword,
		ProfilePic:   req.ProfilePic,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Infow("User created successfully", "user_id", user.ID, "email", user.Email, "role", user.Role)

	return user, nil
}

// GetUser retrieves a user by ID
func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// UpdateProfile changes the caller's own profile and drops its cached summary
func (s *UserService) UpdateProfile(ctx context.Context, id uuid.UUID, req ports.UpdateProfileRequest) (*entities.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, entities.NewValidationError("name", "Name cannot be empty")
		}
		user.Name = name
	}

	if req.Email != nil {
		email := entities.NormalizeEmail(*req.Email)
		if email != user.Email {
			other, err := s.userRepo.GetByEmail(ctx, email)
			if err == nil && other != nil && other.ID != user.ID {
				return nil, entities.ErrEmailTaken
			}
			if err != nil && !errors.Is(err, entities.ErrUserNotFound) {
				return nil, fmt.Errorf("failed to check email: %w", err)
			}
			user.Email = email
		}
	}

	if req.Password != nil {
		hashedPassword, err := hashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hashedPassword
	}

	if req.ProfilePic != nil {
		user.ProfilePic = *req.ProfilePic
	}

	user.UpdatedAt = time.Now().UTC()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	if err := s.directory.Invalidate(ctx, user.ID); err != nil {
		s.logger.Warnw("Failed to invalidate cached user summary", "user_id", user.ID, "error", err)
	}

	s.logger.LogUserAction(user.ID.String(), "profile_updated", nil)

	return user, nil
}

// ListUsers returns every registered user
func (s *UserService) ListUsers(ctx context.Context) ([]*entities.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return users, nil
}
