package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"mission-planner-service/internal/domain"
	"mission-planner-service/internal/platform/db"
	"os"
	"strings"
)

// Initialize the cache and known-location schema for the given dialect.
func InitSchema(conn *sql.DB, dialect db.Dialect) error {
	if conn == nil {
		return errors.New("init schema: DB is nil")
	}

	blobType, floatType := "BLOB", "REAL"
	if dialect == db.Postgres {
		blobType, floatType = "BYTEA", "DOUBLE PRECISION"
	}

	tx, err := conn.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createCacheQuery := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS cache_entries (
        cache_key TEXT PRIMARY KEY,
        value %s NOT NULL,
        expires_at BIGINT NOT NULL DEFAULT 0
    );
	`, blobType)

	createKnownLocationsQuery := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS known_locations (
        name TEXT PRIMARY KEY,
        lon %[1]s NOT NULL,
        lat %[1]s NOT NULL
    );
	`, floatType)

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_cache_entries_expires_at
    ON cache_entries(expires_at);
	`

	statements := []string{
		createCacheQuery,
		createKnownLocationsQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

// Populate known_locations from a JSON array of {name, lon, lat}.
func SeedFromJSON(conn *sql.DB, dialect db.Dialect, jsonPath string) error {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed known locations: read %q: %w", jsonPath, err)
	}

	var data []domain.KnownLocation
	if err := json.Unmarshal(bytes, &data); err != nil {
		return fmt.Errorf("seed known locations: parse json: %w", err)
	}

	return SeedKnownLocations(conn, dialect, data)
}

// SeedKnownLocations upserts validated rows in one transaction.
func SeedKnownLocations(conn *sql.DB, dialect db.Dialect, data []domain.KnownLocation) error {
	rows := make([]domain.KnownLocation, 0, len(data))
	for i, item := range data {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			return fmt.Errorf("seed known locations: item at index %d: name cannot be empty", i+1)
		}
		if math.Abs(item.Lon) > 180 || math.Abs(item.Lat) > 90 {
			return fmt.Errorf("seed known locations: %q: coordinates out of range", name)
		}
		rows = append(rows, domain.KnownLocation{Name: name, Lon: item.Lon, Lat: item.Lat})
	}

	tx, err := conn.Begin()
	if err != nil {
		return fmt.Errorf("seed known locations: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := fmt.Sprintf(`
	INSERT INTO known_locations (name, lon, lat)
	VALUES (%s, %s, %s)
	ON CONFLICT (name) DO UPDATE
	SET lon = EXCLUDED.lon,
		lat = EXCLUDED.lat;
	`, dialect.Placeholder(1), dialect.Placeholder(2), dialect.Placeholder(3))

	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("seed known locations: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, l := range rows {
		if _, err := stmt.Exec(l.Name, l.Lon, l.Lat); err != nil {
			return fmt.Errorf("seed known locations: insert name=%q: %w", l.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed known locations: commit tx: %w", err)
	}

	return nil
}
