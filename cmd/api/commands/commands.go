package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskboard/core/internal/adapters/repository"
	"github.com/taskboard/core/internal/adapters/repository/memory"
	"github.com/taskboard/core/internal/application/services"
	"github.com/taskboard/core/internal/domain/entities"
	"github.com/taskboard/core/internal/infrastructure/cache"
	"github.com/taskboard/core/internal/infrastructure/config"
	"github.com/taskboard/core/internal/infrastructure/database"
	"github.com/taskboard/core/internal/infrastructure/logger"
	"github.com/taskboard/core/internal/infrastructure/server"
	"github.com/taskboard/core/internal/ports"
)

// Version is overridden at build time with -ldflags
var Version = "dev"

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	var migrateFirst bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Taskboard API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), migrateFirst)
		},
	}

	cmd.Flags().BoolVar(&migrateFirst, "migrate", false, "Apply pending migrations before serving")
	return cmd
}

// NewMigrateCommand creates the migrate command with subcommands
func NewMigrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands",
		Long:  "Manage database migrations (up, down, version)",
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Run all up migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd.Context(), func(m *database.Migrator) error {
				changed, err := m.Up()
				if err != nil {
					return err
				}
				reportMigration(cmd, "up", changed)
				return nil
			})
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Run all down migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd.Context(), func(m *database.Migrator) error {
				changed, err := m.Down()
				if err != nil {
					return err
				}
				reportMigration(cmd, "down", changed)
				return nil
			})
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print current migration version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd.Context(), func(m *database.Migrator) error {
				version, dirty, err := m.Version()
				if err != nil {
					return err
				}
				cmd.Printf("Current migration version: %d\n", version)
				cmd.Printf("Dirty: %t\n", dirty)
				return nil
			})
		},
	})

	return migrateCmd
}

// NewUserCommand creates the user management command
func NewUserCommand() *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "User management commands",
	}

	var (
		req  ports.CreateUserRequest
		role string
	)
	createUserCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Email == "" || req.Password == "" || req.Name == "" {
				return errors.New("name, email and password are required")
			}
			req.Role = entities.UserRole(role)
			return createUser(cmd, req)
		},
	}

	createUserCmd.Flags().StringVar(&req.Name, "name", "", "Display name (required)")
	createUserCmd.Flags().StringVar(&req.Email, "email", "", "User email (required)")
	createUserCmd.Flags().StringVar(&req.Password, "password", "", "User password (required)")
	createUserCmd.Flags().StringVar(&role, "role", string(entities.UserRoleMember), "User role (member, admin)")

	userCmd.AddCommand(createUserCmd)
	return userCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print Taskboard version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("Taskboard %s\n", Version)
		},
	}
}

func runServer(ctx context.Context, migrateFirst bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps := server.Dependencies{Checks: map[string]server.HealthCheck{}}

	switch cfg.Repository.Type {
	case config.RepositoryMemory:
		appLogger.Warn("Using in-memory repositories; data is lost on restart")
		deps.Users = memory.NewUserRepository()
		deps.Tasks = memory.NewTaskRepository()
	default:
		db, err := database.New(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		if migrateFirst {
			if err := database.MigrateUp(ctx, db.DB); err != nil {
				return fmt.Errorf("failed to migrate database: %w", err)
			}
			appLogger.Info("Database migrations applied")
		}

		deps.Users = repository.NewUserRepository(db.DB)
		deps.Tasks = repository.NewTaskRepository(db.DB)
		deps.Checks["database"] = db.HealthCheck
	}

	if cfg.Redis.Enabled {
		redisClient, err := cache.New(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisClient.Close()

		deps.Cache = repository.NewCacheRepository(redisClient.Client)
		deps.Checks["redis"] = redisClient.HealthCheck
	}

	srv, err := server.New(cfg, deps, appLogger)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	appLogger.Infow("Starting Taskboard API server",
		"port", cfg.Server.Port,
		"environment", cfg.App.Environment,
		"repository", cfg.Repository.Type,
		"redis", cfg.Redis.Enabled,
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

func withMigrator(ctx context.Context, fn func(*database.Migrator) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	m, err := database.NewMigrator(ctx, db.DB)
	if err != nil {
		return err
	}
	defer m.Close()

	return fn(m)
}

func reportMigration(cmd *cobra.Command, direction string, changed bool) {
	if !changed {
		cmd.Println("No migrations to run")
		return
	}
	cmd.Printf("Migration %s completed successfully\n", direction)
}

func createUser(cmd *cobra.Command, req ports.CreateUserRequest) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.Repository.Type == config.RepositoryMemory {
		return errors.New("user create requires the postgres repository")
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Close()

	db, err := database.New(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	userRepo := repository.NewUserRepository(db.DB)
	userService := services.NewUserService(userRepo, services.NewUserDirectory(userRepo), appLogger)

	user, err := userService.CreateUser(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	cmd.Printf("User created successfully:\n")
	cmd.Printf("  ID: %s\n", user.ID)
	cmd.Printf("  Name: %s\n", user.Name)
	cmd.Printf("  Email: %s\n", user.Email)
	cmd.Printf("  Role: %s\n", user.Role)
	return nil
}
