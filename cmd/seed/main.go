// Command main runs the database seeder for Water My Plant.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"watermyplant/internal/bootstrap"
	"watermyplant/internal/config"
	"watermyplant/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 10, "Number of users to create")
	numPlants := flag.Int("plants", 3, "Plants per user")
	numWaterings := flag.Int("waterings", 5, "Watering events per plant")
	maxDays := flag.Int("days", 60, "How many days back watering history reaches")
	randSeed := flag.Int64("seed", 0, "Random seed for reproducible data (0 = random)")
	shouldClean := flag.Bool("clean", false, "Delete all users, plants and history before seeding")
	preset := flag.String("preset", "", "Apply a YAML preset file (e.g., seed.yml) instead of random data")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")

	if *preset != "" {
		log.Printf("Applying preset: %s (ignoring generation flags)\n", *preset)
	} else {
		log.Printf("Target: %d users, %d plants each, %d waterings per plant, clean=%v\n",
			*numUsers, *numPlants, *numWaterings, *shouldClean)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{SkipRedis: true})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}
	defer func() { _ = rt.Close() }()

	s := seed.NewSeeder(rt.DB, seed.Options{
		PlantsPerUser:  *numPlants,
		EventsPerPlant: *numWaterings,
		MaxDays:        *maxDays,
		RandSeed:       *randSeed,
	})

	if *shouldClean {
		if err := s.Clear(ctx); err != nil {
			log.Fatalf("❌ Cleanup failed: %v", err)
		}
	}

	var sum seed.Summary
	if *preset != "" {
		p, err := seed.LoadPreset(*preset)
		if err != nil {
			log.Fatalf("❌ %v", err)
		}
		if sum, err = s.ApplyPreset(ctx, p); err != nil {
			log.Fatalf("❌ Preset seeding failed: %v", err)
		}
	} else {
		if sum, err = s.Generate(ctx, *numUsers); err != nil {
			log.Fatalf("❌ Seeding failed: %v", err)
		}
		log.Printf("📧 All generated users have the password: %s\n", seed.DefaultPassword)
	}

	log.Printf("✨ Done: %d users, %d plants, %d watering events\n", sum.Users, sum.Plants, sum.Waterings)
}
