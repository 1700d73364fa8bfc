package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"watermyplant/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlantRepository_OwnershipIsolation(t *testing.T) {
	db := newTestDB(t)
	repo := NewPlantRepository(db)
	ctx := context.Background()

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	fern := createPlant(t, db, alice, "Fern")

	got, err := repo.GetByID(ctx, fern.ID, alice.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, alice.ID, got.OwnerID)

	got, err = repo.GetByID(ctx, fern.ID, bob.ID)
	assert.NoError(t, err)
	assert.Nil(t, got)

	got, err = repo.GetByName(ctx, "Fern", bob.ID)
	assert.NoError(t, err)
	assert.Nil(t, got)

	updated, err := repo.Update(ctx, fern.ID, bob.ID, map[string]any{"name": "Stolen"})
	assert.NoError(t, err)
	assert.Nil(t, updated)

	deleted, err := repo.Delete(ctx, fern.ID, bob.ID)
	assert.NoError(t, err)
	assert.False(t, deleted)

	list, err := repo.ListByOwner(ctx, bob.ID)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	got, err = repo.GetByName(ctx, "Fern", alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Fern", got.Name)
}

func TestPlantRepository_NameUniquePerOwner(t *testing.T) {
	db := newTestDB(t)
	repo := NewPlantRepository(db)
	ctx := context.Background()

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	createPlant(t, db, alice, "Fern")
	basil := createPlant(t, db, alice, "Basil")

	err := repo.Create(ctx, &models.Plant{Name: "Fern", Type: "fern", OwnerID: alice.ID})
	assert.True(t, models.HasCode(err, models.CodePlantNameTaken))

	require.NoError(t, repo.Create(ctx, &models.Plant{Name: "Fern", Type: "fern", OwnerID: bob.ID}))

	_, err = repo.Update(ctx, basil.ID, alice.ID, map[string]any{"name": "Fern"})
	assert.True(t, models.HasCode(err, models.CodePlantNameTaken))
}

func TestPlantRepository_ListAndPartialUpdate(t *testing.T) {
	db := newTestDB(t)
	repo := NewPlantRepository(db)
	ctx := context.Background()

	alice := createUser(t, db, "alice")
	description := "by the window"
	first := &models.Plant{Name: "Aloe", Type: "succulent", Description: &description, OwnerID: alice.ID}
	require.NoError(t, repo.Create(ctx, first))
	createPlant(t, db, alice, "Basil")
	createPlant(t, db, alice, "Cactus")

	list, err := repo.ListByOwner(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"Aloe", "Basil", "Cactus"}, []string{list[0].Name, list[1].Name, list[2].Name})

	time.Sleep(5 * time.Millisecond)
	updated, err := repo.Update(ctx, first.ID, alice.ID, map[string]any{"type": "aloe"})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "Aloe", updated.Name)
	assert.Equal(t, "aloe", updated.Type)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "by the window", *updated.Description)
	assert.True(t, updated.UpdatedAt.After(list[0].UpdatedAt))

	unchanged, err := repo.Update(ctx, first.ID, alice.ID, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "aloe", unchanged.Type)
}

func TestPlantRepository_DeleteCascadesEvents(t *testing.T) {
	db := newTestDB(t)
	repo := NewPlantRepository(db)
	watering := NewWateringRepository(db)
	ctx := context.Background()

	alice := createUser(t, db, "alice")
	fern := createPlant(t, db, alice, "Fern")
	for i := 0; i < 3; i++ {
		_, err := watering.Create(ctx, &models.WateringEvent{PlantID: fern.ID}, alice.ID)
		require.NoError(t, err)
	}

	deleted, err := repo.Delete(ctx, fern.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	var events int64
	db.Model(&models.WateringEvent{}).Where("plant_id = ?", fern.ID).Count(&events)
	assert.Zero(t, events)

	got, err := repo.GetByID(ctx, fern.ID, alice.ID)
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestPlantRepository_CreateUniqueViolation(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPlantRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "plants"`)).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.Plant{Name: "Fern", Type: "fern", OwnerID: "u1"})
	assert.True(t, models.HasCode(err, models.CodePlantNameTaken))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlantRepository_GetByID_Query(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPlantRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "type", "owner_id"}).
		AddRow("p1", "Fern", "fern", "u1")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "plants" WHERE plants.owner_id = $1 AND plants.id = $2`)).
		WithArgs("u1", "p1", 1).
		WillReturnRows(rows)

	plant, err := repo.GetByID(context.Background(), "p1", "u1")
	require.NoError(t, err)
	assert.Equal(t, "Fern", plant.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUniqueConstraintError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"pg unique", &pgconn.PgError{Code: "23505"}, true},
		{"pg other", &pgconn.PgError{Code: "23503", Message: "foreign key violation"}, false},
		{"sqlite", assert.AnError, false},
		{"sqlite unique message", errString("UNIQUE constraint failed: plants.owner_id, plants.name"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isUniqueConstraintError(tt.err))
		})
	}
}

type errString string

func (e errString) Error() string { return string(e) }
