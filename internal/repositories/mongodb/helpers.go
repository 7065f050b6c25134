package mongodb

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/SAP-F-2025/lms-service/internal/repositories"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// handleMongoError wraps err with the operation name and maps driver errors
// onto the backend-neutral repository errors
func handleMongoError(err error, operation string) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("%s failed: %w", operation, repositories.ErrNotFound)
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%s failed: %w", operation, repositories.ErrDuplicate)
	}
	return fmt.Errorf("%s failed: %w", operation, err)
}

func notFound(operation string) error {
	return fmt.Errorf("%s failed: %w", operation, repositories.ErrNotFound)
}

// parseID converts a hex id. Ids that are not ObjectIDs cannot exist in the store.
func parseID(id string, operation string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, notFound(operation)
	}
	return oid, nil
}

// assignID returns the ObjectID for a new document, generating one when id is empty
func assignID(id string) (primitive.ObjectID, error) {
	if id == "" {
		return primitive.NewObjectID(), nil
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("invalid object id %q: %w", id, err)
	}
	return oid, nil
}

func now() time.Time {
	return time.Now().UTC()
}

// stamp fills zero timestamps the way gorm does on create
func stamp(createdAt, updatedAt *time.Time) {
	if createdAt.IsZero() {
		*createdAt = now()
	}
	if updatedAt.IsZero() {
		*updatedAt = *createdAt
	}
}

type findOpts struct {
	sort   bson.D
	limit  int
	offset int
	paged  bool
}

func (o *findOpts) build() *options.FindOptions {
	if o == nil {
		return options.Find()
	}
	fo := options.Find()
	if o.paged {
		fo = pageOptions(o.limit, o.offset)
	}
	if o.sort != nil {
		fo.SetSort(o.sort)
	}
	return fo
}

func pageOptions(limit, offset int) *options.FindOptions {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return options.Find().SetLimit(int64(limit)).SetSkip(int64(offset))
}

// containsRegex matches q literally and case-insensitively
func containsRegex(q string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}
}
