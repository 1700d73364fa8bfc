// Package main provides account management utilities for Water My Plant.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"watermyplant/internal/bootstrap"
	"watermyplant/internal/cache"
	"watermyplant/internal/config"
	"watermyplant/internal/repository"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage:")
		fmt.Println("  go run ./cmd/admin list-users                - List all users")
		fmt.Println("  go run ./cmd/admin show-user <username|id>   - Show one user")
		fmt.Println("  go run ./cmd/admin activate <username>       - Allow a user to sign in")
		fmt.Println("  go run ./cmd/admin deactivate <username>     - Block a user from protected routes")
		fmt.Println("  go run ./cmd/admin delete-user <username>    - Delete a user with all plants and history")
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	// Redis is used only to drop cached lookups of the changed account.
	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{SkipSchema: true})
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer func() { _ = rt.Close() }()
	users := repository.NewUserRepository(rt.DB, cache.New(rt.Redis))

	command := os.Args[1]

	switch command {
	case "list-users":
		listUsers(ctx, users)

	case "show-user":
		if len(os.Args) < 3 {
			fmt.Println("Usage: go run ./cmd/admin show-user <username|id>")
			os.Exit(1)
		}
		showUser(ctx, users, os.Args[2])

	case "activate", "deactivate":
		if len(os.Args) < 3 {
			fmt.Printf("Usage: go run ./cmd/admin %s <username>\n", command)
			os.Exit(1)
		}
		setActive(ctx, users, os.Args[2], command == "activate")

	case "delete-user":
		if len(os.Args) < 3 {
			fmt.Println("Usage: go run ./cmd/admin delete-user <username>")
			os.Exit(1)
		}
		deleteUser(ctx, users, os.Args[2])

	default:
		fmt.Printf("Unknown command: %s\n", command)
		os.Exit(1)
	}
}

func setActive(ctx context.Context, users repository.UserRepository, username string, active bool) {
	changed, err := users.SetActive(ctx, username, active)
	if err != nil {
		log.Fatalf("Database error: %v", err)
	}
	if !changed {
		fmt.Printf("User %s not found\n", username)
		os.Exit(1)
	}

	state := "deactivated"
	if active {
		state = "activated"
	}
	fmt.Printf("✅ Successfully %s %s\n", state, username)
}

func showUser(ctx context.Context, users repository.UserRepository, ref string) {
	user, err := users.GetByUsername(ctx, ref)
	if err != nil {
		log.Fatalf("Database error: %v", err)
	}
	if user == nil {
		if user, err = users.GetByID(ctx, ref); err != nil {
			log.Fatalf("Database error: %v", err)
		}
	}
	if user == nil {
		fmt.Printf("User %s not found\n", ref)
		os.Exit(1)
	}

	fmt.Printf("ID:       %s\n", user.ID)
	fmt.Printf("Username: %s\n", user.Username)
	fmt.Printf("Active:   %t\n", user.IsActive)
	fmt.Printf("Created:  %s\n", user.CreatedAt.Format(time.RFC3339))
}

func deleteUser(ctx context.Context, users repository.UserRepository, username string) {
	deleted, err := users.Delete(ctx, username)
	if err != nil {
		log.Fatalf("Failed to delete user: %v", err)
	}
	if !deleted {
		fmt.Printf("User %s not found\n", username)
		os.Exit(1)
	}
	fmt.Printf("✅ Deleted %s and all of their plants\n", username)
}

func listUsers(ctx context.Context, users repository.UserRepository) {
	const pageSize = 100

	total := 0
	for offset := 0; ; offset += pageSize {
		page, err := users.List(ctx, pageSize, offset)
		if err != nil {
			log.Fatalf("Failed to fetch users: %v", err)
		}
		if offset == 0 {
			if len(page) == 0 {
				fmt.Println("No users found in the system")
				return
			}
			fmt.Println("\n📋 Users:")
			fmt.Println("─────────────────────────────────────")
		}
		for _, u := range page {
			fmt.Printf("ID: %s | Username: %s | Active: %t\n", u.ID, u.Username, u.IsActive)
		}
		total += len(page)
		if len(page) < pageSize {
			break
		}
	}
	fmt.Println("─────────────────────────────────────")
	fmt.Printf("%d user(s)\n", total)
}
