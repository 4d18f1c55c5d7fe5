package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"mission-planner-service/internal/adapters/cache"
	"mission-planner-service/internal/adapters/repositories"
	"mission-planner-service/internal/config"
	"mission-planner-service/internal/platform/db"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

func main() {
	purge := flag.Bool("purge", false, "delete expired cache entries after seeding")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	databaseURL := config.Get("DATABASE_URL", "")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	conn, err := db.Open(databaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	seedPath := config.Get("KNOWN_LOCATIONS_PATH", "data/seeds/known_locations.json")
	initAndSeed(conn, seedPath)

	if *purge {
		n, err := cache.NewSQLCache(conn).PurgeExpired(context.Background())
		if err != nil {
			log.Fatalf("cache purge failed: %v", err)
		}
		log.Printf("Purged %d expired cache entries.", n)
	}
}

func initAndSeed(conn *sql.DB, seedPath string) {
	log.Println("Initializing database schema...")
	if err := repositories.InitSchema(conn, db.Postgres); err != nil {
		log.Fatalf("schema initialization failed: %v", err)
	}
	log.Println("Schema ready.")

	log.Println("Seeding known locations...")
	if err := repositories.SeedFromJSON(conn, db.Postgres, seedPath); err != nil {
		log.Fatalf("seeding failed: %v", err)
	}
	log.Println("Seeding complete.")
}
