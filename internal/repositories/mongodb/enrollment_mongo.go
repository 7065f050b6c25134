package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/SAP-F-2025/lms-service/internal/models"
)

// enrollmentMongo serves both enrollments and their nested progress arrays
type enrollmentMongo struct {
	coll *mongo.Collection
}

func (r *enrollmentMongo) Create(ctx context.Context, enrollment *models.Enrollment) error {
	id, err := assignID(enrollment.ID)
	if err != nil {
		return err
	}
	if enrollment.EnrolledAt.IsZero() {
		enrollment.EnrolledAt = now()
	}

	doc := enrollmentDoc{
		ID:          id,
		UserID:      enrollment.UserID,
		CourseID:    enrollment.CourseID,
		EnrolledAt:  enrollment.EnrolledAt,
		CompletedAt: enrollment.CompletedAt,
		Progress:    []progressDoc{},
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return handleMongoError(err, "create enrollment")
	}
	enrollment.ID = id.Hex()
	enrollment.Progress = []models.LessonProgress{}
	return nil
}

func (r *enrollmentMongo) Get(ctx context.Context, userID, courseID string) (*models.Enrollment, error) {
	var doc enrollmentDoc
	err := r.coll.FindOne(ctx, bson.M{"userId": userID, "courseId": courseID}).Decode(&doc)
	if err != nil {
		return nil, handleMongoError(err, "get enrollment")
	}
	return doc.toModel(), nil
}

func (r *enrollmentMongo) list(ctx context.Context, filter interface{}, sort int, operation string) ([]*models.Enrollment, error) {
	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "enrolledAt", Value: sort}}))
	if err != nil {
		return nil, handleMongoError(err, operation)
	}
	var docs []enrollmentDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, handleMongoError(err, operation)
	}
	out := make([]*models.Enrollment, len(docs))
	for i := range docs {
		out[i] = docs[i].toModel()
	}
	return out, nil
}

func (r *enrollmentMongo) ListByUser(ctx context.Context, userID string) ([]*models.Enrollment, error) {
	enrollments, err := r.list(ctx, bson.M{"userId": userID}, -1, "list user enrollments")
	if err != nil {
		return nil, err
	}
	if len(enrollments) == 0 {
		return enrollments, nil
	}

	// Attach courses, matching the relational preload
	courseIDs := make([]primitive.ObjectID, 0, len(enrollments))
	for _, e := range enrollments {
		if oid, err := primitive.ObjectIDFromHex(e.CourseID); err == nil {
			courseIDs = append(courseIDs, oid)
		}
	}
	cursor, err := r.coll.Database().Collection(coursesCollection).Find(ctx, bson.M{"_id": bson.M{"$in": courseIDs}})
	if err != nil {
		return nil, handleMongoError(err, "load enrolled courses")
	}
	var docs []courseDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, handleMongoError(err, "load enrolled courses")
	}
	courses := make(map[string]*models.Course, len(docs))
	for i := range docs {
		c := docs[i].toModel()
		courses[c.ID] = c
	}
	for _, e := range enrollments {
		e.Course = courses[e.CourseID]
	}
	return enrollments, nil
}

func (r *enrollmentMongo) ListByCourse(ctx context.Context, courseID string) ([]*models.Enrollment, error) {
	return r.list(ctx, bson.M{"courseId": courseID}, 1, "list course enrollments")
}

func (r *enrollmentMongo) Delete(ctx context.Context, userID, courseID string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"userId": userID, "courseId": courseID})
	if err != nil {
		return handleMongoError(err, "delete enrollment")
	}
	if res.DeletedCount == 0 {
		return notFound("delete enrollment")
	}
	return nil
}

func (r *enrollmentMongo) SetCompletedAt(ctx context.Context, enrollmentID string, completedAt *time.Time) error {
	oid, err := parseID(enrollmentID, "set enrollment completion")
	if err != nil {
		return err
	}
	update := bson.M{"$unset": bson.M{"completedAt": ""}}
	if completedAt != nil {
		update = bson.M{"$set": bson.M{"completedAt": completedAt.UTC()}}
	}
	if _, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, update); err != nil {
		return handleMongoError(err, "set enrollment completion")
	}
	return nil
}

// ===== PROGRESS =====

// MarkComplete pushes the lesson only when it is not in the array yet, so
// concurrent completions cannot produce duplicates
func (r *enrollmentMongo) MarkComplete(ctx context.Context, enrollmentID, lessonID string, at time.Time) (bool, error) {
	oid, err := parseID(enrollmentID, "mark lesson complete")
	if err != nil {
		return false, err
	}

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": oid, "progress.lessonId": bson.M{"$ne": lessonID}},
		bson.M{"$push": bson.M{"progress": progressDoc{LessonID: lessonID, CompletedAt: at.UTC()}}},
	)
	if err != nil {
		return false, handleMongoError(err, "mark lesson complete")
	}
	if res.MatchedCount > 0 {
		return true, nil
	}

	// Either already completed or the enrollment is gone
	count, err := r.coll.CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return false, handleMongoError(err, "mark lesson complete")
	}
	if count == 0 {
		return false, notFound("mark lesson complete")
	}
	return false, nil
}

func (r *enrollmentMongo) MarkIncomplete(ctx context.Context, enrollmentID, lessonID string) (bool, error) {
	oid, err := parseID(enrollmentID, "mark lesson incomplete")
	if err != nil {
		return false, err
	}

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$pull": bson.M{"progress": bson.M{"lessonId": lessonID}}},
	)
	if err != nil {
		return false, handleMongoError(err, "mark lesson incomplete")
	}
	if res.MatchedCount == 0 {
		return false, notFound("mark lesson incomplete")
	}
	return res.ModifiedCount > 0, nil
}

func (r *enrollmentMongo) ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.LessonProgress, error) {
	oid, err := parseID(enrollmentID, "list progress")
	if err != nil {
		return nil, err
	}

	var doc enrollmentDoc
	opts := options.FindOne().SetProjection(bson.M{"progress": 1})
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}, opts).Decode(&doc); err != nil {
		return nil, handleMongoError(err, "list progress")
	}
	return progressToModels(enrollmentID, doc.Progress), nil
}
