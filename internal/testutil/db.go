// Package testutil provides fixtures shared by package tests.
package testutil

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/SAP-F-2025/lms-service/internal/repositories/postgres"
)

// NewSQLiteDB opens an isolated in-memory database with the full schema.
// A single connection keeps transactions and plain queries on the same handle.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=off", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, postgres.AutoMigrate(db))
	return db
}

// NewRepository returns the relational repository over a fresh database
func NewRepository(t *testing.T) *postgres.PostgreSQLRepository {
	t.Helper()
	return postgres.NewPostgreSQLRepository(NewSQLiteDB(t))
}
