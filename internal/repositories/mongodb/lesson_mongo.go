package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/SAP-F-2025/lms-service/internal/models"
)

type lessonMongo struct {
	db *mongo.Database
}

func (r *lessonMongo) coll() *mongo.Collection {
	return r.db.Collection(lessonsCollection)
}

func (r *lessonMongo) Create(ctx context.Context, lesson *models.Lesson) error {
	id, err := assignID(lesson.ID)
	if err != nil {
		return err
	}
	stamp(&lesson.CreatedAt, &lesson.UpdatedAt)

	doc := lessonDoc{
		ID:              id,
		ModuleID:        lesson.ModuleID,
		CourseID:        lesson.CourseID,
		Title:           lesson.Title,
		Content:         lesson.Content,
		VideoURL:        lesson.VideoURL,
		Resources:       lesson.Resources,
		DurationMinutes: lesson.DurationMinutes,
		Position:        lesson.Position,
		CreatedAt:       lesson.CreatedAt,
		UpdatedAt:       lesson.UpdatedAt,
	}
	if _, err := r.coll().InsertOne(ctx, doc); err != nil {
		return handleMongoError(err, "create lesson")
	}
	lesson.ID = id.Hex()
	return nil
}

func (r *lessonMongo) GetByID(ctx context.Context, id string) (*models.Lesson, error) {
	oid, err := parseID(id, "get lesson by id")
	if err != nil {
		return nil, err
	}
	var doc lessonDoc
	if err := r.coll().FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, handleMongoError(err, "get lesson by id")
	}
	return doc.toModel(), nil
}

func (r *lessonMongo) Update(ctx context.Context, lesson *models.Lesson) error {
	oid, err := parseID(lesson.ID, "update lesson")
	if err != nil {
		return err
	}
	lesson.UpdatedAt = now()
	res, err := r.coll().UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"title":           lesson.Title,
		"content":         lesson.Content,
		"videoUrl":        lesson.VideoURL,
		"resources":       []models.LessonResource(lesson.Resources),
		"durationMinutes": lesson.DurationMinutes,
		"position":        lesson.Position,
		"updatedAt":       lesson.UpdatedAt,
	}})
	if err != nil {
		return handleMongoError(err, "update lesson")
	}
	if res.MatchedCount == 0 {
		return notFound("update lesson")
	}
	return nil
}

func (r *lessonMongo) Delete(ctx context.Context, id string) error {
	lesson, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := removeLessonData(ctx, r.db, lesson.CourseID, []string{lesson.ID}); err != nil {
		return err
	}

	oid, _ := parseID(lesson.ID, "delete lesson")
	if _, err := r.coll().DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		return handleMongoError(err, "delete lesson")
	}
	return nil
}

func (r *lessonMongo) ListByModule(ctx context.Context, moduleID string) ([]*models.Lesson, error) {
	return listLessons(ctx, r.db, bson.M{"moduleId": moduleID}, "list lessons")
}

func (r *lessonMongo) ListIDsByCourse(ctx context.Context, courseID string) ([]string, error) {
	modules, err := listModules(ctx, r.db, courseID)
	if err != nil {
		return nil, err
	}
	lessons, err := listLessons(ctx, r.db, bson.M{"courseId": courseID}, "list course lessons")
	if err != nil {
		return nil, err
	}

	byModule := make(map[string][]string, len(modules))
	for _, l := range lessons {
		byModule[l.ModuleID] = append(byModule[l.ModuleID], l.ID)
	}

	ids := make([]string, 0, len(lessons))
	for _, m := range modules {
		ids = append(ids, byModule[m.ID]...)
	}
	return ids, nil
}

func (r *lessonMongo) NextPosition(ctx context.Context, moduleID string) (int, error) {
	return nextPosition(ctx, r.coll(), bson.M{"moduleId": moduleID})
}
