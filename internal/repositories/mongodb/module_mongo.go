package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/SAP-F-2025/lms-service/internal/models"
)

type moduleMongo struct {
	db *mongo.Database
}

func (r *moduleMongo) coll() *mongo.Collection {
	return r.db.Collection(modulesCollection)
}

func (r *moduleMongo) Create(ctx context.Context, module *models.Module) error {
	id, err := assignID(module.ID)
	if err != nil {
		return err
	}
	stamp(&module.CreatedAt, &module.UpdatedAt)

	doc := moduleDoc{
		ID:          id,
		CourseID:    module.CourseID,
		Title:       module.Title,
		Description: module.Description,
		Position:    module.Position,
		CreatedAt:   module.CreatedAt,
		UpdatedAt:   module.UpdatedAt,
	}
	if _, err := r.coll().InsertOne(ctx, doc); err != nil {
		return handleMongoError(err, "create module")
	}
	module.ID = id.Hex()
	return nil
}

func (r *moduleMongo) GetByID(ctx context.Context, id string) (*models.Module, error) {
	oid, err := parseID(id, "get module by id")
	if err != nil {
		return nil, err
	}
	var doc moduleDoc
	if err := r.coll().FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, handleMongoError(err, "get module by id")
	}
	return doc.toModel(), nil
}

func (r *moduleMongo) Update(ctx context.Context, module *models.Module) error {
	oid, err := parseID(module.ID, "update module")
	if err != nil {
		return err
	}
	module.UpdatedAt = now()
	res, err := r.coll().UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"title":       module.Title,
		"description": module.Description,
		"position":    module.Position,
		"updatedAt":   module.UpdatedAt,
	}})
	if err != nil {
		return handleMongoError(err, "update module")
	}
	if res.MatchedCount == 0 {
		return notFound("update module")
	}
	return nil
}

func (r *moduleMongo) Delete(ctx context.Context, id string) error {
	module, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	ids, err := lessonIDs(ctx, r.db, bson.M{"moduleId": module.ID})
	if err != nil {
		return err
	}
	if err := removeLessonData(ctx, r.db, module.CourseID, ids); err != nil {
		return err
	}
	if _, err := r.db.Collection(lessonsCollection).DeleteMany(ctx, bson.M{"moduleId": module.ID}); err != nil {
		return handleMongoError(err, "delete module lessons")
	}

	oid, _ := parseID(module.ID, "delete module")
	if _, err := r.coll().DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		return handleMongoError(err, "delete module")
	}
	return nil
}

func (r *moduleMongo) ListByCourse(ctx context.Context, courseID string) ([]*models.Module, error) {
	return listModules(ctx, r.db, courseID)
}

func (r *moduleMongo) NextPosition(ctx context.Context, courseID string) (int, error) {
	return nextPosition(ctx, r.coll(), bson.M{"courseId": courseID})
}

// nextPosition returns one past the highest position among documents matching filter, or 1
func nextPosition(ctx context.Context, coll *mongo.Collection, filter interface{}) (int, error) {
	opts := options.FindOne().
		SetSort(bson.D{{Key: "position", Value: -1}}).
		SetProjection(bson.M{"position": 1})

	var doc struct {
		Position int `bson:"position"`
	}
	err := coll.FindOne(ctx, filter, opts).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return 1, nil
	}
	if err != nil {
		return 0, handleMongoError(err, "next position")
	}
	return doc.Position + 1, nil
}

// removeLessonData drops comments on the lessons and pulls them out of every
// enrollment's progress array
func removeLessonData(ctx context.Context, db *mongo.Database, courseID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := db.Collection(commentsCollection).DeleteMany(ctx, bson.M{"lessonId": bson.M{"$in": ids}}); err != nil {
		return handleMongoError(err, "delete lesson comments")
	}
	_, err := db.Collection(enrollmentsCollection).UpdateMany(ctx,
		bson.M{"courseId": courseID},
		bson.M{"$pull": bson.M{"progress": bson.M{"lessonId": bson.M{"$in": ids}}}},
	)
	if err != nil {
		return handleMongoError(err, "delete lesson progress")
	}
	return nil
}
