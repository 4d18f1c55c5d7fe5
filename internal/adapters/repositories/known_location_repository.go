package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"mission-planner-service/internal/domain"
)

// SQL-backed implementation of the KnownLocationRepository port.
// The query is dialect-neutral, so it serves both SQLite and Postgres.
type SQLKnownLocationRepository struct{ DB *sql.DB }

func NewSQLKnownLocationRepository(db *sql.DB) *SQLKnownLocationRepository {
	return &SQLKnownLocationRepository{DB: db}
}

// Return all seeded locations ordered by name.
func (s *SQLKnownLocationRepository) ListKnownLocations(ctx context.Context) ([]domain.KnownLocation, error) {
	if s.DB == nil {
		return nil, errors.New("known location repository: DB is nil")
	}

	query := `
	SELECT
		name,
		lon,
		lat
	FROM known_locations
	ORDER BY name;
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list known locations: query known_locations table: %w", err)
	}
	defer rows.Close()

	out := make([]domain.KnownLocation, 0, 32)
	for rows.Next() {
		var l domain.KnownLocation
		if err := rows.Scan(&l.Name, &l.Lon, &l.Lat); err != nil {
			return nil, fmt.Errorf("list known locations: scan row: %w", err)
		}
		out = append(out, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list known locations: row iteration: %w", err)
	}

	return out, nil
}
