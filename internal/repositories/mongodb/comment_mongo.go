package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
)

type commentMongo struct {
	coll *mongo.Collection
}

func (r *commentMongo) Create(ctx context.Context, comment *models.Comment) error {
	id, err := assignID(comment.ID)
	if err != nil {
		return err
	}
	stamp(&comment.CreatedAt, &comment.UpdatedAt)

	doc := commentDoc{
		ID:         id,
		LessonID:   comment.LessonID,
		UserID:     comment.UserID,
		AuthorName: comment.AuthorName,
		Body:       comment.Body,
		Reply:      comment.Reply,
		RepliedBy:  comment.RepliedBy,
		RepliedAt:  comment.RepliedAt,
		CreatedAt:  comment.CreatedAt,
		UpdatedAt:  comment.UpdatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return handleMongoError(err, "create comment")
	}
	comment.ID = id.Hex()
	return nil
}

func (r *commentMongo) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	oid, err := parseID(id, "get comment by id")
	if err != nil {
		return nil, err
	}
	var doc commentDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, handleMongoError(err, "get comment by id")
	}
	return doc.toModel(), nil
}

func (r *commentMongo) ListByLesson(ctx context.Context, lessonID string, filters repositories.CommentFilters) ([]*models.Comment, int64, error) {
	filter := bson.M{"lessonId": lessonID}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, handleMongoError(err, "count comments")
	}

	opts := (&findOpts{
		sort:   bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}},
		limit:  filters.Limit,
		offset: filters.Offset,
		paged:  true,
	}).build()
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, handleMongoError(err, "list comments")
	}
	var docs []commentDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, handleMongoError(err, "list comments")
	}

	comments := make([]*models.Comment, len(docs))
	for i := range docs {
		comments[i] = docs[i].toModel()
	}
	return comments, total, nil
}

func (r *commentMongo) SetReply(ctx context.Context, id, reply, adminID string, at time.Time) error {
	oid, err := parseID(id, "reply to comment")
	if err != nil {
		return err
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"reply":     reply,
		"repliedBy": adminID,
		"repliedAt": at.UTC(),
		"updatedAt": at.UTC(),
	}})
	if err != nil {
		return handleMongoError(err, "reply to comment")
	}
	if res.MatchedCount == 0 {
		return notFound("reply to comment")
	}
	return nil
}

func (r *commentMongo) Delete(ctx context.Context, id string) error {
	oid, err := parseID(id, "delete comment")
	if err != nil {
		return err
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return handleMongoError(err, "delete comment")
	}
	if res.DeletedCount == 0 {
		return notFound("delete comment")
	}
	return nil
}
