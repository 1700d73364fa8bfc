package service

import (
	"context"
	"errors"
	"testing"

	"watermyplant/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	createFn         func(context.Context, *models.User) error
	getByUsernameFn  func(context.Context, string) (*models.User, error)
	getCredentialsFn func(context.Context, string) (*models.User, error)
	getByIDFn        func(context.Context, string) (*models.User, error)
	setActiveFn      func(context.Context, string, bool) (bool, error)
	deleteFn         func(context.Context, string) (bool, error)
	listFn           func(context.Context, int, int) ([]models.User, error)
}

func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) GetCredentials(ctx context.Context, username string) (*models.User, error) {
	return s.getCredentialsFn(ctx, username)
}
func (s *userRepoStub) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) SetActive(ctx context.Context, username string, active bool) (bool, error) {
	return s.setActiveFn(ctx, username, active)
}
func (s *userRepoStub) Delete(ctx context.Context, username string) (bool, error) {
	return s.deleteFn(ctx, username)
}
func (s *userRepoStub) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.listFn(ctx, limit, offset)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		createFn:         func(_ context.Context, _ *models.User) error { return nil },
		getByUsernameFn:  func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		getCredentialsFn: func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		getByIDFn:        func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		setActiveFn:      func(_ context.Context, _ string, _ bool) (bool, error) { return true, nil },
		deleteFn:         func(_ context.Context, _ string) (bool, error) { return true, nil },
		listFn:           func(_ context.Context, _, _ int) ([]models.User, error) { return nil, nil },
	}
}

// plantRepoStub is a stub for repository.PlantRepository.
type plantRepoStub struct {
	createFn      func(context.Context, *models.Plant) error
	getByNameFn   func(context.Context, string, string) (*models.Plant, error)
	getByIDFn     func(context.Context, string, string) (*models.Plant, error)
	listByOwnerFn func(context.Context, string) ([]models.Plant, error)
	updateFn      func(context.Context, string, string, map[string]any) (*models.Plant, error)
	deleteFn      func(context.Context, string, string) (bool, error)
}

func (s *plantRepoStub) Create(ctx context.Context, plant *models.Plant) error {
	return s.createFn(ctx, plant)
}
func (s *plantRepoStub) GetByName(ctx context.Context, name, ownerID string) (*models.Plant, error) {
	return s.getByNameFn(ctx, name, ownerID)
}
func (s *plantRepoStub) GetByID(ctx context.Context, id, ownerID string) (*models.Plant, error) {
	return s.getByIDFn(ctx, id, ownerID)
}
func (s *plantRepoStub) ListByOwner(ctx context.Context, ownerID string) ([]models.Plant, error) {
	return s.listByOwnerFn(ctx, ownerID)
}
func (s *plantRepoStub) Update(ctx context.Context, id, ownerID string, fields map[string]any) (*models.Plant, error) {
	return s.updateFn(ctx, id, ownerID, fields)
}
func (s *plantRepoStub) Delete(ctx context.Context, id, ownerID string) (bool, error) {
	return s.deleteFn(ctx, id, ownerID)
}

func noopPlantRepo() *plantRepoStub {
	return &plantRepoStub{
		createFn:      func(_ context.Context, _ *models.Plant) error { return nil },
		getByNameFn:   func(_ context.Context, _, _ string) (*models.Plant, error) { return nil, nil },
		getByIDFn:     func(_ context.Context, id, owner string) (*models.Plant, error) { return &models.Plant{ID: id, OwnerID: owner}, nil },
		listByOwnerFn: func(_ context.Context, _ string) ([]models.Plant, error) { return []models.Plant{}, nil },
		updateFn: func(_ context.Context, id, owner string, _ map[string]any) (*models.Plant, error) {
			return &models.Plant{ID: id, OwnerID: owner}, nil
		},
		deleteFn: func(_ context.Context, _, _ string) (bool, error) { return true, nil },
	}
}

// wateringRepoStub is a stub for repository.WateringRepository.
type wateringRepoStub struct {
	createFn  func(context.Context, *models.WateringEvent, string) (*models.WateringEvent, error)
	historyFn func(context.Context, string, string) ([]models.WateringEvent, error)
	lastFn    func(context.Context, string, string) (*models.WateringEvent, error)
	updateFn  func(context.Context, string, string, map[string]any) (*models.WateringEvent, error)
	deleteFn  func(context.Context, string, string) (bool, error)
}

func (s *wateringRepoStub) Create(ctx context.Context, event *models.WateringEvent, ownerID string) (*models.WateringEvent, error) {
	return s.createFn(ctx, event, ownerID)
}
func (s *wateringRepoStub) History(ctx context.Context, plantID, ownerID string) ([]models.WateringEvent, error) {
	return s.historyFn(ctx, plantID, ownerID)
}
func (s *wateringRepoStub) Last(ctx context.Context, plantID, ownerID string) (*models.WateringEvent, error) {
	return s.lastFn(ctx, plantID, ownerID)
}
func (s *wateringRepoStub) Update(ctx context.Context, eventID, ownerID string, fields map[string]any) (*models.WateringEvent, error) {
	return s.updateFn(ctx, eventID, ownerID, fields)
}
func (s *wateringRepoStub) Delete(ctx context.Context, eventID, ownerID string) (bool, error) {
	return s.deleteFn(ctx, eventID, ownerID)
}

func noopWateringRepo() *wateringRepoStub {
	return &wateringRepoStub{
		createFn: func(_ context.Context, e *models.WateringEvent, _ string) (*models.WateringEvent, error) {
			return e, nil
		},
		historyFn: func(_ context.Context, _, _ string) ([]models.WateringEvent, error) { return []models.WateringEvent{}, nil },
		lastFn:    func(_ context.Context, _, _ string) (*models.WateringEvent, error) { return nil, nil },
		updateFn: func(_ context.Context, id, _ string, _ map[string]any) (*models.WateringEvent, error) {
			return &models.WateringEvent{ID: id}, nil
		},
		deleteFn: func(_ context.Context, _, _ string) (bool, error) { return true, nil },
	}
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertCode(t, err, models.CodeValidation)
}

// assertUnauthorizedError asserts that err is an AppError with code UNAUTHORIZED.
func assertUnauthorizedError(t *testing.T, err error) {
	t.Helper()
	assertCode(t, err, models.CodeUnauthorized)
}

func assertNotFoundError(t *testing.T, err error) {
	t.Helper()
	assertCode(t, err, models.CodeNotFound)
}

func strPtr(s string) *string { return &s }
