package repositories

import "context"

// Repository groups every sub-repository behind one backend-neutral interface
type Repository interface {
	// Accounts
	User() UserRepository

	// Catalog
	Course() CourseRepository
	Module() ModuleRepository
	Lesson() LessonRepository

	// Learning activity
	Enrollment() EnrollmentRepository
	Progress() ProgressRepository
	Comment() CommentRepository

	// Admin dashboard
	Stats() StatsRepository

	// Transaction support. Backends without multi-document transactions run fn
	// directly against the receiver.
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager interface for managing repository lifecycle
type RepositoryManager interface {
	// Initialize repositories with database connections
	Initialize() error

	// Migrate creates tables or indexes
	Migrate(ctx context.Context) error

	// Get repository instance
	GetRepository() Repository

	// Health check for all repositories
	HealthCheck(ctx context.Context) error

	// Graceful shutdown
	Shutdown(ctx context.Context) error
}
