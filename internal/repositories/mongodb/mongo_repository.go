package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/SAP-F-2025/lms-service/internal/repositories"
)

// MongoRepository implements the main Repository interface on a MongoDB database
type MongoRepository struct {
	db *mongo.Database

	user       repositories.UserRepository
	course     repositories.CourseRepository
	module     repositories.ModuleRepository
	lesson     repositories.LessonRepository
	enrollment *enrollmentMongo
	comment    repositories.CommentRepository
	stats      repositories.StatsRepository
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{
		db:         db,
		user:       &userMongo{coll: db.Collection(usersCollection)},
		course:     &courseMongo{db: db},
		module:     &moduleMongo{db: db},
		lesson:     &lessonMongo{db: db},
		enrollment: &enrollmentMongo{coll: db.Collection(enrollmentsCollection)},
		comment:    &commentMongo{coll: db.Collection(commentsCollection)},
		stats:      &statsMongo{db: db},
	}
}

func (r *MongoRepository) User() repositories.UserRepository             { return r.user }
func (r *MongoRepository) Course() repositories.CourseRepository         { return r.course }
func (r *MongoRepository) Module() repositories.ModuleRepository         { return r.module }
func (r *MongoRepository) Lesson() repositories.LessonRepository         { return r.lesson }
func (r *MongoRepository) Enrollment() repositories.EnrollmentRepository { return r.enrollment }

// Progress lives inside enrollment documents
func (r *MongoRepository) Progress() repositories.ProgressRepository { return r.enrollment }
func (r *MongoRepository) Comment() repositories.CommentRepository   { return r.comment }
func (r *MongoRepository) Stats() repositories.StatsRepository       { return r.stats }

// WithTransaction runs fn directly. Standalone deployments have no
// multi-document transactions; every write used by the services is a single
// atomic document update.
func (r *MongoRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(r)
}

func (r *MongoRepository) Ping(ctx context.Context) error {
	if err := r.db.Client().Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("mongo ping failed: %w", err)
	}
	return nil
}

func (r *MongoRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return r.db.Client().Disconnect(ctx)
}

// EnsureIndexes creates the unique and lookup indexes the repositories rely on
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "role", Value: 1}}},
		},
		coursesCollection: {
			{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "published", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		modulesCollection: {
			{Keys: bson.D{{Key: "courseId", Value: 1}, {Key: "position", Value: 1}}},
		},
		lessonsCollection: {
			{Keys: bson.D{{Key: "moduleId", Value: 1}, {Key: "position", Value: 1}}},
			{Keys: bson.D{{Key: "courseId", Value: 1}}},
		},
		enrollmentsCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "courseId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "courseId", Value: 1}}},
		},
		commentsCollection: {
			{Keys: bson.D{{Key: "lessonId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
	}

	for name, idx := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}
	return nil
}

// RepositoryManager implements the RepositoryManager interface for MongoDB
type RepositoryManager struct {
	db   *mongo.Database
	repo *MongoRepository
}

func NewRepositoryManager(db *mongo.Database) repositories.RepositoryManager {
	return &RepositoryManager{db: db}
}

func (rm *RepositoryManager) Initialize() error {
	if rm.db == nil {
		return fmt.Errorf("mongo database is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rm.db.Client().Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("mongo connection failed: %w", err)
	}

	rm.repo = NewMongoRepository(rm.db)
	return nil
}

func (rm *RepositoryManager) Migrate(ctx context.Context) error {
	if rm.db == nil {
		return fmt.Errorf("mongo database is required")
	}
	return EnsureIndexes(ctx, rm.db)
}

func (rm *RepositoryManager) GetRepository() repositories.Repository {
	if rm.repo == nil {
		return nil
	}
	return rm.repo
}

func (rm *RepositoryManager) HealthCheck(ctx context.Context) error {
	if rm.repo == nil {
		return fmt.Errorf("repository not initialized")
	}
	return rm.repo.Ping(ctx)
}

func (rm *RepositoryManager) Shutdown(ctx context.Context) error {
	if rm.repo == nil {
		return nil
	}
	return rm.db.Client().Disconnect(ctx)
}
