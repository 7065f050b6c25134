package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
)

type courseMongo struct {
	db *mongo.Database
}

func (r *courseMongo) coll() *mongo.Collection {
	return r.db.Collection(coursesCollection)
}

// ===== BASIC CRUD OPERATIONS =====

func (r *courseMongo) Create(ctx context.Context, course *models.Course) error {
	id, err := assignID(course.ID)
	if err != nil {
		return err
	}
	stamp(&course.CreatedAt, &course.UpdatedAt)

	doc := courseDoc{
		ID:          id,
		Title:       course.Title,
		Slug:        course.Slug,
		Description: course.Description,
		ImageURL:    course.ImageURL,
		Published:   course.Published,
		CreatedBy:   course.CreatedBy,
		CreatedAt:   course.CreatedAt,
		UpdatedAt:   course.UpdatedAt,
	}
	if _, err := r.coll().InsertOne(ctx, doc); err != nil {
		return handleMongoError(err, "create course")
	}
	course.ID = id.Hex()
	return nil
}

func (r *courseMongo) findOne(ctx context.Context, filter interface{}, operation string) (*models.Course, error) {
	var doc courseDoc
	if err := r.coll().FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, handleMongoError(err, operation)
	}
	return doc.toModel(), nil
}

func (r *courseMongo) GetByID(ctx context.Context, id string) (*models.Course, error) {
	oid, err := parseID(id, "get course by id")
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid}, "get course by id")
}

func (r *courseMongo) GetBySlug(ctx context.Context, slug string) (*models.Course, error) {
	return r.findOne(ctx, bson.M{"slug": slug}, "get course by slug")
}

func (r *courseMongo) GetWithContent(ctx context.Context, id string) (*models.Course, error) {
	course, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	modules, err := listModules(ctx, r.db, course.ID)
	if err != nil {
		return nil, err
	}
	lessons, err := listLessons(ctx, r.db, bson.M{"courseId": course.ID}, "list course lessons")
	if err != nil {
		return nil, err
	}

	byModule := make(map[string][]models.Lesson, len(modules))
	for _, l := range lessons {
		byModule[l.ModuleID] = append(byModule[l.ModuleID], *l)
	}

	course.Modules = make([]models.Module, len(modules))
	for i, m := range modules {
		m.Lessons = byModule[m.ID]
		if m.Lessons == nil {
			m.Lessons = []models.Lesson{}
		}
		course.LessonCount += len(m.Lessons)
		course.Modules[i] = *m
	}
	return course, nil
}

func (r *courseMongo) Update(ctx context.Context, course *models.Course) error {
	oid, err := parseID(course.ID, "update course")
	if err != nil {
		return err
	}
	course.UpdatedAt = now()
	res, err := r.coll().UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"title":       course.Title,
		"slug":        course.Slug,
		"description": course.Description,
		"imageUrl":    course.ImageURL,
		"published":   course.Published,
		"updatedAt":   course.UpdatedAt,
	}})
	if err != nil {
		return handleMongoError(err, "update course")
	}
	if res.MatchedCount == 0 {
		return notFound("update course")
	}
	return nil
}

func (r *courseMongo) Delete(ctx context.Context, id string) error {
	oid, err := parseID(id, "delete course")
	if err != nil {
		return err
	}
	count, err := r.coll().CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return handleMongoError(err, "find course")
	}
	if count == 0 {
		return notFound("delete course")
	}

	lessonIDs, err := lessonIDs(ctx, r.db, bson.M{"courseId": id})
	if err != nil {
		return err
	}
	if len(lessonIDs) > 0 {
		if _, err := r.db.Collection(commentsCollection).DeleteMany(ctx, bson.M{"lessonId": bson.M{"$in": lessonIDs}}); err != nil {
			return handleMongoError(err, "delete course comments")
		}
	}

	for _, name := range []string{enrollmentsCollection, lessonsCollection, modulesCollection} {
		if _, err := r.db.Collection(name).DeleteMany(ctx, bson.M{"courseId": id}); err != nil {
			return handleMongoError(err, "delete course "+name)
		}
	}

	if _, err := r.coll().DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		return handleMongoError(err, "delete course")
	}
	return nil
}

// ===== QUERY OPERATIONS =====

func (r *courseMongo) List(ctx context.Context, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	filter := bson.M{}
	if filters.PublishedOnly {
		filter["published"] = true
	}
	if filters.Query != "" {
		re := containsRegex(filters.Query)
		filter["$or"] = bson.A{bson.M{"title": re}, bson.M{"description": re}}
	}

	total, err := r.coll().CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, handleMongoError(err, "count courses")
	}

	opts := (&findOpts{
		sort:   bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}},
		limit:  filters.Limit,
		offset: filters.Offset,
		paged:  true,
	}).build()
	cursor, err := r.coll().Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, handleMongoError(err, "list courses")
	}
	var docs []courseDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, handleMongoError(err, "list courses")
	}

	courses := make([]*models.Course, len(docs))
	ids := make([]string, len(docs))
	for i := range docs {
		courses[i] = docs[i].toModel()
		ids[i] = courses[i].ID
	}

	counts, err := r.lessonCounts(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for _, c := range courses {
		c.LessonCount = counts[c.ID]
	}
	return courses, total, nil
}

func (r *courseMongo) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	count, err := r.coll().CountDocuments(ctx, bson.M{"slug": slug})
	if err != nil {
		return false, handleMongoError(err, "check course slug")
	}
	return count > 0, nil
}

// ===== HELPER METHODS =====

func (r *courseMongo) lessonCounts(ctx context.Context, courseIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(courseIDs))
	if len(courseIDs) == 0 {
		return counts, nil
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"courseId": bson.M{"$in": courseIDs}}}},
		{{Key: "$group", Value: bson.M{"_id": "$courseId", "total": bson.M{"$sum": 1}}}},
	}
	cursor, err := r.db.Collection(lessonsCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, handleMongoError(err, "count course lessons")
	}

	var rows []struct {
		CourseID string `bson:"_id"`
		Total    int    `bson:"total"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, handleMongoError(err, "count course lessons")
	}
	for _, row := range rows {
		counts[row.CourseID] = row.Total
	}
	return counts, nil
}

var positionSort = bson.D{{Key: "position", Value: 1}, {Key: "createdAt", Value: 1}}

func listModules(ctx context.Context, db *mongo.Database, courseID string) ([]*models.Module, error) {
	cursor, err := db.Collection(modulesCollection).Find(ctx, bson.M{"courseId": courseID}, options.Find().SetSort(positionSort))
	if err != nil {
		return nil, handleMongoError(err, "list modules")
	}
	var docs []moduleDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, handleMongoError(err, "list modules")
	}
	out := make([]*models.Module, len(docs))
	for i := range docs {
		out[i] = docs[i].toModel()
	}
	return out, nil
}

func listLessons(ctx context.Context, db *mongo.Database, filter interface{}, operation string) ([]*models.Lesson, error) {
	cursor, err := db.Collection(lessonsCollection).Find(ctx, filter, options.Find().SetSort(positionSort))
	if err != nil {
		return nil, handleMongoError(err, operation)
	}
	var docs []lessonDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, handleMongoError(err, operation)
	}
	out := make([]*models.Lesson, len(docs))
	for i := range docs {
		out[i] = docs[i].toModel()
	}
	return out, nil
}

// lessonIDs returns the hex ids of lessons matching filter
func lessonIDs(ctx context.Context, db *mongo.Database, filter interface{}) ([]string, error) {
	cursor, err := db.Collection(lessonsCollection).Find(ctx, filter, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, handleMongoError(err, "list lesson ids")
	}
	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, handleMongoError(err, "list lesson ids")
	}
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID.Hex())
	}
	return ids, nil
}
