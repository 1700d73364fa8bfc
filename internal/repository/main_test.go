package repository

import (
	"context"
	"path/filepath"
	"testing"

	"watermyplant/internal/config"
	"watermyplant/internal/database"
	"watermyplant/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newTestDB returns a migrated sqlite database with foreign keys enforced.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := &config.Config{
		Env:          "test",
		DBDriver:     database.DriverSQLite,
		DBName:       filepath.Join(t.TempDir(), "repo.db"),
		DBSchemaMode: database.SchemaModeSQL,
	}
	db, err := database.Connect(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	require.NoError(t, database.ApplySchema(context.Background(), db, cfg))
	return db
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username, PasswordHash: "hash-" + username}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createPlant(t *testing.T, db *gorm.DB, owner *models.User, name string) *models.Plant {
	t.Helper()
	plant := &models.Plant{Name: name, Type: "succulent", OwnerID: owner.ID}
	require.NoError(t, NewPlantRepository(db).Create(context.Background(), plant))
	return plant
}
