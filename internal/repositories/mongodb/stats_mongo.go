package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/SAP-F-2025/lms-service/internal/models"
)

type statsMongo struct {
	db *mongo.Database
}

func (r *statsMongo) PlatformStats(ctx context.Context) (*models.PlatformStats, error) {
	stats := &models.PlatformStats{}

	counts := []struct {
		collection string
		filter     bson.M
		dest       *int64
	}{
		{usersCollection, bson.M{}, &stats.TotalUsers},
		{coursesCollection, bson.M{}, &stats.TotalCourses},
		{lessonsCollection, bson.M{}, &stats.TotalLessons},
		{enrollmentsCollection, bson.M{}, &stats.TotalEnrollments},
		{enrollmentsCollection, bson.M{"completedAt": bson.M{"$ne": nil}}, &stats.CompletedEnrollments},
		{commentsCollection, bson.M{}, &stats.TotalComments},
	}

	for _, c := range counts {
		n, err := r.db.Collection(c.collection).CountDocuments(ctx, c.filter)
		if err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", c.collection, err)
		}
		*c.dest = n
	}
	return stats, nil
}
