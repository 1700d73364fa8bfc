package seed

import (
	"context"
	"fmt"
	"log/slog"

	"watermyplant/internal/middleware"
	"watermyplant/internal/models"
	"watermyplant/internal/repository"

	"gorm.io/gorm"
)

// Options configures generated data.
type Options struct {
	PlantsPerUser  int
	EventsPerPlant int
	// MaxDays bounds how far back watering history reaches.
	MaxDays int
	// RandSeed makes generation reproducible when non-zero.
	RandSeed int64
}

func (o Options) withDefaults() Options {
	if o.PlantsPerUser <= 0 {
		o.PlantsPerUser = 3
	}
	if o.EventsPerPlant < 0 {
		o.EventsPerPlant = 0
	}
	if o.MaxDays <= 0 {
		o.MaxDays = 60
	}
	return o
}

// Summary counts what a seeding run created.
type Summary struct {
	Users     int
	Plants    int
	Waterings int
}

// Seeder fills the database through the repositories.
type Seeder struct {
	db      *gorm.DB
	users   repository.UserRepository
	factory *Factory
}

// NewSeeder builds a Seeder on db. Lookups are not cached.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	users := repository.NewUserRepository(db, nil)
	plants := repository.NewPlantRepository(db)
	watering := repository.NewWateringRepository(db)

	return &Seeder{
		db:      db,
		users:   users,
		factory: NewFactory(users, plants, watering, opts),
	}
}

// Factory exposes the underlying entity factory.
func (s *Seeder) Factory() *Factory {
	return s.factory
}

// Clear deletes every user. Plants and watering events go with them through the foreign keys.
func (s *Seeder) Clear(ctx context.Context) error {
	middleware.Logger.InfoContext(ctx, "clearing existing data")
	return s.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&models.User{}).Error
}

// Generate creates numUsers fake users, each with plants and watering history.
func (s *Seeder) Generate(ctx context.Context, numUsers int) (Summary, error) {
	var sum Summary
	opts := s.factory.opts

	for i := 0; i < numUsers; i++ {
		user, err := s.factory.CreateUser(ctx, "", "")
		if err != nil {
			return sum, fmt.Errorf("create user: %w", err)
		}
		sum.Users++

		for j := 0; j < opts.PlantsPerUser; j++ {
			plant, err := s.factory.CreatePlant(ctx, user, nil)
			if err != nil {
				if models.HasCode(err, models.CodePlantNameTaken) {
					continue
				}
				return sum, fmt.Errorf("create plant: %w", err)
			}
			sum.Plants++

			n, err := s.factory.CreateWateringHistory(ctx, user, plant, opts.EventsPerPlant)
			sum.Waterings += n
			if err != nil {
				return sum, fmt.Errorf("create watering history: %w", err)
			}
		}
	}

	middleware.Logger.InfoContext(ctx, "seeding completed",
		slog.Int("users", sum.Users),
		slog.Int("plants", sum.Plants),
		slog.Int("waterings", sum.Waterings),
	)
	return sum, nil
}
