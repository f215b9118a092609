package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/hrygo/bazaarbot/internal/profile"
	"github.com/hrygo/bazaarbot/server"
	"github.com/hrygo/bazaarbot/server/service/assistant"
	"github.com/hrygo/bazaarbot/store"
	"github.com/hrygo/bazaarbot/store/db"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// 1. Load configuration.
	log.Println("loading profile...")
	instanceProfile := &profile.Profile{
		Mode:   "demo",
		Driver: "sqlite",
		DSN:    ":memory:",
	}
	instanceProfile.FromEnv()
	if err := instanceProfile.Validate(); err != nil {
		log.Fatalf("Invalid profile: %v", err)
	}

	// 2. Open the database; demo mode seeds the catalog.
	log.Println("opening database...")
	dbDriver, err := db.NewDBDriver(instanceProfile)
	if err != nil {
		log.Fatalf("Failed to create db driver: %v", err)
	}
	storeInstance := store.New(dbDriver, instanceProfile)
	ctx := context.Background()
	if err := storeInstance.Migrate(ctx); err != nil {
		log.Fatalf("Failed to migrate: %v", err)
	}

	// 3. Build the assistant exactly as the server does.
	log.Println("building assistant...")
	srv, err := server.NewServer(ctx, instanceProfile, storeInstance)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	fmt.Println("\n========================================")
	fmt.Println("  Assistant test run")
	fmt.Println("========================================")

	phrases := []string{
		"Chibai!",
		"plum cake",
		"Christmas cake a awm em?",
		"bicycle ka duh",
		"I want to order 2 plum cakes",
		"do you have red sneakers size 9?",
		"puan thar ka mamawh",
		"that was not what I asked for",
	}

	for i, phrase := range phrases {
		fmt.Printf("\n[%d/%d] %s\n", i+1, len(phrases), phrase)

		startTime := time.Now()
		result, err := srv.Assistant.Handle(ctx, phrase, assistant.Options{UserID: "test-assistant"})
		if err != nil {
			log.Printf("failed: %v\n", err)
			continue
		}

		fmt.Println("intent:  ", result.Parsed.Intent)
		fmt.Println("query:   ", result.Parsed.Query)
		fmt.Println("branch:  ", result.Branch)
		fmt.Println("products:", len(result.Products))
		fmt.Println("reply:   ", result.Reply)
		fmt.Printf("took:     %v\n", time.Since(startTime))
		fmt.Println("------------------------------------------------")
	}

	srv.Shutdown(ctx)
	fmt.Println("\n========================================")
	fmt.Println("  Done")
	fmt.Println("========================================")
}
