// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"regexp"
	"sort"
	"strings"
	"time"

	"watermyplant/internal/auth"
	"watermyplant/internal/models"
	"watermyplant/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
)

// DefaultPassword is the password of every generated user.
const DefaultPassword = "password123"

var (
	plantNames = []string{
		"Monstera", "Pothos", "Fiddle Leaf Fig", "Snake Plant", "Peace Lily",
		"Spider Plant", "Rubber Plant", "ZZ Plant", "Aloe", "Calathea",
		"Basil", "Rosemary", "Mint", "Tomato", "Chili", "Lavender",
		"Orchid", "Boston Fern", "Jade Plant", "Bird of Paradise",
	}

	plantTypes = []string{
		"tropical", "succulent", "herb", "vegetable", "fern", "flowering", "cactus", "vine",
	}

	usernameStrip = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)
)

// Factory builds domain entities and persists them through the repositories.
type Factory struct {
	users    repository.UserRepository
	plants   repository.PlantRepository
	watering repository.WateringRepository
	opts     Options
	rng      *rand.Rand
	hash     string
}

// NewFactory creates a Factory writing through the given repositories.
func NewFactory(
	users repository.UserRepository,
	plants repository.PlantRepository,
	watering repository.WateringRepository,
	opts Options,
) *Factory {
	seed := opts.RandSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gofakeit.Seed(seed)
	//nolint:gosec // Weak random number generator is fine for seeding
	return &Factory{
		users:    users,
		plants:   plants,
		watering: watering,
		opts:     opts.withDefaults(),
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// passwordHash hashes password, reusing the cached hash of DefaultPassword.
func (f *Factory) passwordHash(password string) (string, error) {
	if password != DefaultPassword {
		return auth.HashPassword(password)
	}
	if f.hash == "" {
		h, err := auth.HashPassword(DefaultPassword)
		if err != nil {
			return "", err
		}
		f.hash = h
	}
	return f.hash, nil
}

// FakeUsername returns a random username that passes registration validation.
func FakeUsername() string {
	name := usernameStrip.ReplaceAllString(gofakeit.Username(), "")
	name = strings.Trim(name, "_-")
	if len(name) > 24 {
		name = name[:24]
	}
	if len(name) < 3 {
		name = "gardener"
	}
	return fmt.Sprintf("%s%d", name, gofakeit.Number(100, 999))
}

// CreateUser persists a user with the given password. An empty username is generated.
func (f *Factory) CreateUser(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" {
		username = FakeUsername()
	}
	if password == "" {
		password = DefaultPassword
	}

	hash, err := f.passwordHash(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{Username: username, PasswordHash: hash, IsActive: true}
	if err := f.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// BuildPlant returns an unsaved plant for owner with a fake name, type and description.
func (f *Factory) BuildPlant(owner *models.User) *models.Plant {
	description := gofakeit.Sentence(8)
	return &models.Plant{
		Name:        fmt.Sprintf("%s %s", gofakeit.RandomString(plantNames), gofakeit.LetterN(4)),
		Type:        gofakeit.RandomString(plantTypes),
		Description: &description,
		OwnerID:     owner.ID,
	}
}

// CreatePlant persists p, or a generated plant when p is nil.
func (f *Factory) CreatePlant(ctx context.Context, owner *models.User, p *models.Plant) (*models.Plant, error) {
	if p == nil {
		p = f.BuildPlant(owner)
	}
	p.OwnerID = owner.ID
	if err := f.plants.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// BuildWateringHistory returns n unsaved events within the last MaxDays, oldest first.
func (f *Factory) BuildWateringHistory(plant *models.Plant, n int) []*models.WateringEvent {
	now := time.Now().UTC()
	window := time.Duration(f.opts.MaxDays) * 24 * time.Hour

	events := make([]*models.WateringEvent, 0, n)
	for i := 0; i < n; i++ {
		ago := time.Duration(f.rng.Int63n(int64(window)))
		event := &models.WateringEvent{
			PlantID:        plant.ID,
			WateredAt:      now.Add(-ago).Truncate(time.Minute),
			FertilizerUsed: f.rng.Intn(4) == 0,
		}
		if f.rng.Intn(3) == 0 {
			note := gofakeit.Sentence(6)
			event.Notes = &note
		}
		events = append(events, event)
	}

	sort.Slice(events, func(i, j int) bool {
		return events[i].WateredAt.Before(events[j].WateredAt)
	})
	return events
}

// CreateWateringHistory persists n generated events for a plant owned by owner.
func (f *Factory) CreateWateringHistory(ctx context.Context, owner *models.User, plant *models.Plant, n int) (int, error) {
	created := 0
	for _, event := range f.BuildWateringHistory(plant, n) {
		saved, err := f.watering.Create(ctx, event, owner.ID)
		if err != nil {
			return created, err
		}
		if saved == nil {
			return created, fmt.Errorf("plant %s is not owned by %s", plant.ID, owner.Username)
		}
		created++
	}
	return created, nil
}
