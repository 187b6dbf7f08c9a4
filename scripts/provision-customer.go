package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/verdantlane/loyalty-game-server/internal/database"
	"github.com/verdantlane/loyalty-game-server/internal/model"
	"github.com/verdantlane/loyalty-game-server/internal/repository"
	"github.com/verdantlane/loyalty-game-server/internal/util"
)

// Provisions a customer row and prints its API token. The token is shown
// exactly once; only the hash is stored.
//
// Usage: DATABASE_URL=... go run scripts/provision-customer.go -email a@b.example
func main() {
	email := flag.String("email", "", "customer email (optional)")
	rateLimit := flag.Int("rate-limit", 0, "per-minute request limit (0 = server default)")
	flag.Parse()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	db, err := database.Connect(databaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	token, err := util.GenerateToken()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var emailPtr *string
	if *email != "" {
		emailPtr = email
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo := repository.NewCustomerRepository(db.DB)
	customer, err := repo.Create(ctx, model.CreateCustomerParams{
		Email:           emailPtr,
		APITokenHash:    util.HashToken(token),
		RateLimitPerMin: *rateLimit,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("customer_id: %s\n", customer.ID)
	fmt.Printf("api_token:   %s\n", token)
}
