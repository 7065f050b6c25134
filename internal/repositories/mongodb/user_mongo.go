package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
)

type userMongo struct {
	coll *mongo.Collection
}

func (r *userMongo) Create(ctx context.Context, user *models.User) error {
	id, err := assignID(user.ID)
	if err != nil {
		return err
	}
	stamp(&user.CreatedAt, &user.UpdatedAt)

	doc := userDoc{
		ID:           id,
		Name:         user.Name,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Role:         string(user.Role),
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return handleMongoError(err, "create user")
	}
	user.ID = id.Hex()
	return nil
}

func (r *userMongo) findOne(ctx context.Context, filter interface{}, operation string) (*models.User, error) {
	var doc userDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, handleMongoError(err, operation)
	}
	return doc.toModel(), nil
}

func (r *userMongo) GetByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := parseID(id, "get user by id")
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid}, "get user by id")
}

func (r *userMongo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email}, "get user by email")
}

func (r *userMongo) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	if len(oids) == 0 {
		return []*models.User{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": oids}}, nil, "get users by ids")
}

func (r *userMongo) find(ctx context.Context, filter interface{}, opts *findOpts, operation string) ([]*models.User, error) {
	cursor, err := r.coll.Find(ctx, filter, opts.build())
	if err != nil {
		return nil, handleMongoError(err, operation)
	}
	var docs []userDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, handleMongoError(err, operation)
	}
	users := make([]*models.User, len(docs))
	for i := range docs {
		users[i] = docs[i].toModel()
	}
	return users, nil
}

func (r *userMongo) Update(ctx context.Context, user *models.User) error {
	oid, err := parseID(user.ID, "update user")
	if err != nil {
		return err
	}
	user.UpdatedAt = now()
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"name":      user.Name,
		"email":     user.Email,
		"role":      string(user.Role),
		"updatedAt": user.UpdatedAt,
	}})
	if err != nil {
		return handleMongoError(err, "update user")
	}
	if res.MatchedCount == 0 {
		return notFound("update user")
	}
	return nil
}

func (r *userMongo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	oid, err := parseID(id, "update user password")
	if err != nil {
		return err
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"passwordHash": passwordHash,
		"updatedAt":    now(),
	}})
	if err != nil {
		return handleMongoError(err, "update user password")
	}
	if res.MatchedCount == 0 {
		return notFound("update user password")
	}
	return nil
}

func (r *userMongo) List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error) {
	filter := bson.M{}
	if filters.Query != "" {
		re := containsRegex(filters.Query)
		filter["$or"] = bson.A{bson.M{"name": re}, bson.M{"email": re}}
	}
	if filters.Role != nil {
		filter["role"] = string(*filters.Role)
	}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, handleMongoError(err, "count users")
	}

	users, err := r.find(ctx, filter, &findOpts{
		sort:   bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}},
		limit:  filters.Limit,
		offset: filters.Offset,
		paged:  true,
	}, "list users")
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *userMongo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	count, err := r.coll.CountDocuments(ctx, bson.M{"email": email})
	if err != nil {
		return false, handleMongoError(err, "check user email")
	}
	return count > 0, nil
}
