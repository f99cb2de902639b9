// seed inserts the demo user and a week of sample price bars into the local
// dev database.
// Run: go run ./cmd/seed
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/ErlanBelekov/stockbetting/internal/auth"
	"github.com/ErlanBelekov/stockbetting/internal/infrastructure/postgres"
	"github.com/google/uuid"
)

const (
	seedUsername = "alice"
	seedPassword = "pw"
)

type bar struct {
	symbol                 string
	date                   string
	open, high, low, close float64
	volume                 int64
}

var bars = []bar{
	{"AAPL", "2025-01-16", 228.82, 229.00, 225.21, 228.26, 71_759_100},
	{"AAPL", "2025-01-17", 232.12, 232.29, 228.48, 229.98, 68_488_300},
	{"AAPL", "2025-01-21", 224.00, 224.42, 219.38, 222.64, 98_070_400},
	{"AAPL", "2025-01-22", 219.79, 224.12, 219.79, 223.83, 64_126_500},
	{"AAPL", "2025-01-23", 224.74, 227.03, 222.30, 223.66, 60_234_800},
	{"MSFT", "2025-01-21", 430.20, 430.20, 424.02, 428.50, 21_461_700},
	{"MSFT", "2025-01-22", 436.00, 446.20, 435.61, 446.20, 27_016_300},
	{"MSFT", "2025-01-23", 442.00, 446.75, 441.50, 446.71, 18_503_700},
	{"TSLA", "2025-01-22", 416.81, 428.00, 409.34, 415.11, 60_963_300},
	{"TSLA", "2025-01-23", 416.06, 420.73, 408.95, 412.38, 50_690_600},
}

func main() {
	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set; run: direnv allow")
	}

	pool, err := postgres.NewPool(ctx, dbURL)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	hash, err := auth.HashPassword(seedPassword)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	// Upsert demo user; re-running resets the password.
	var userID string
	err = pool.QueryRow(ctx, `
		INSERT INTO users (id, username, password_hash)
		VALUES ($1, $2, $3)
		ON CONFLICT (username) DO UPDATE SET password_hash = EXCLUDED.password_hash
		RETURNING id`,
		uuid.NewString(), seedUsername, hash,
	).Scan(&userID)
	if err != nil {
		log.Fatalf("upsert user: %v", err)
	}

	// Insert bars, skip any (symbol, date) already present
	var inserted, skipped int
	for _, b := range bars {
		tag, err := pool.Exec(ctx, `
			INSERT INTO stock_data (symbol, open, high, low, close, volume, date)
			SELECT $1::text, $2::float8, $3::float8, $4::float8, $5::float8, $6::bigint, $7::text
			WHERE NOT EXISTS (SELECT 1 FROM stock_data WHERE symbol = $1 AND date = $7)`,
			b.symbol, b.open, b.high, b.low, b.close, b.volume, b.date,
		)
		if err != nil {
			log.Fatalf("insert %s %s: %v", b.symbol, b.date, err)
		}
		if tag.RowsAffected() == 0 {
			skipped++
		} else {
			inserted++
		}
	}

	fmt.Println("Seed complete")
	fmt.Println()
	fmt.Printf("  User:         %s / %s\n", seedUsername, seedPassword)
	fmt.Printf("  User ID:      %s\n", userID)
	fmt.Printf("  Bars created: %d  (skipped %d already existing)\n", inserted, skipped)
	fmt.Println()
	fmt.Println("How to test:")
	fmt.Println()
	fmt.Println("  Step 1: get a JWT")
	fmt.Println()
	fmt.Printf("    curl -s -X POST http://localhost:8080/api/auth/login \\\n")
	fmt.Printf("      -H 'Content-Type: application/json' \\\n")
	fmt.Printf("      -d '{\"username\":\"%s\",\"password\":\"%s\"}'\n", seedUsername, seedPassword)
	fmt.Println()
	fmt.Println("  Step 2: read and score data")
	fmt.Println()
	fmt.Println("    export JWT=eyJ...")
	fmt.Println("    curl -s http://localhost:8080/api/stocks/AAPL -H \"Authorization: Bearer $JWT\"")
	fmt.Println("    curl -s -X POST http://localhost:8080/api/stocks/predict \\")
	fmt.Println("      -H \"Authorization: Bearer $JWT\" -H 'Content-Type: application/json' \\")
	fmt.Println("      -d '{\"symbol\":\"AAPL\",\"open\":224.74,\"high\":227.03,\"low\":222.30,\"close\":223.66,\"volume\":60234800}'")
	fmt.Println()
	fmt.Println("  Step 3: see an error envelope")
	fmt.Println()
	fmt.Println("    curl -s http://localhost:8080/api/stocks/ZZZZ -H \"Authorization: Bearer $JWT\"")
}
