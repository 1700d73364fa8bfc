package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"watermyplant/internal/cache"
	"watermyplant/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCachedUserRepo(t *testing.T) (UserRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewUserRepository(newTestDB(t), cache.New(client)), mr
}

func TestUserRepository_CreateAndLookup(t *testing.T) {
	repo, mr := newCachedUserRepo(t)
	ctx := context.Background()

	user := &models.User{Username: "alice", PasswordHash: "secret-hash"}
	require.NoError(t, repo.Create(ctx, user))
	assert.NotEmpty(t, user.ID)

	err := repo.Create(ctx, &models.User{Username: "alice", PasswordHash: "other"})
	assert.True(t, models.HasCode(err, models.CodeUsernameTaken))

	found, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, user.ID, found.ID)
	assert.True(t, found.IsActive)
	assert.Empty(t, found.PasswordHash)
	assert.True(t, mr.Exists(cache.UserKey("alice")))

	creds, err := repo.GetCredentials(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "secret-hash", creds.PasswordHash)

	byID, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)

	missing, err := repo.GetByUsername(ctx, "nobody")
	assert.NoError(t, err)
	assert.Nil(t, missing)
	assert.False(t, mr.Exists(cache.UserKey("nobody")), "misses must not be cached")

	missing, err = repo.GetCredentials(ctx, "nobody")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUserRepository_SetActiveInvalidatesCache(t *testing.T) {
	repo, mr := newCachedUserRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.User{Username: "bob", PasswordHash: "h"}))
	_, err := repo.GetByUsername(ctx, "bob")
	require.NoError(t, err)
	require.True(t, mr.Exists(cache.UserKey("bob")))

	ok, err := repo.SetActive(ctx, "bob", false)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, mr.Exists(cache.UserKey("bob")))

	found, err := repo.GetByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, found.IsActive)

	ok, err = repo.SetActive(ctx, "ghost", true)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUserRepository_DeleteCascades(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db, nil)
	ctx := context.Background()

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	plant := createPlant(t, db, alice, "Fern")
	createPlant(t, db, bob, "Cactus")

	watering := NewWateringRepository(db)
	_, err := watering.Create(ctx, &models.WateringEvent{PlantID: plant.ID}, alice.ID)
	require.NoError(t, err)

	ok, err := repo.Delete(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, ok)

	var plants, events int64
	db.Model(&models.Plant{}).Where("owner_id = ?", alice.ID).Count(&plants)
	db.Model(&models.WateringEvent{}).Count(&events)
	assert.Zero(t, plants)
	assert.Zero(t, events)

	db.Model(&models.Plant{}).Where("owner_id = ?", bob.ID).Count(&plants)
	assert.Equal(t, int64(1), plants)

	ok, err = repo.Delete(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUserRepository_List(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db, nil)

	createUser(t, db, "alice")
	createUser(t, db, "bob")

	users, err := repo.List(context.Background(), 0, 0)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Username)
	for _, u := range users {
		assert.Empty(t, u.PasswordHash)
	}
}

func TestUserRepository_GetByID_DBError(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db, nil)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE id = $1`)).
		WithArgs("u1", 1).
		WillReturnError(errors.New("connection reset"))

	user, err := repo.GetByID(context.Background(), "u1")
	assert.Nil(t, user)
	assert.True(t, models.HasCode(err, models.CodeInternal))
	assert.NoError(t, mock.ExpectationsWereMet())
}
