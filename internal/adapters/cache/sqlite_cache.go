package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// SQLite backed TTL cache over the cache_entries table.
type SqliteCache struct {
	DB  *sql.DB
	now func() time.Time
}

func NewSqliteCache(db *sql.DB) *SqliteCache {
	return &SqliteCache{DB: db, now: time.Now}
}

// Fetch a live entry for key.
func (s *SqliteCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s.DB == nil {
		return nil, false, errors.New("sqlite cache: db is nil")
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return nil, false, nil
	}

	var value []byte
	var expiresAt int64
	err := s.DB.QueryRowContext(ctx, `
	SELECT
        value,
        expires_at
    FROM cache_entries
    WHERE cache_key = ?;
	`, key).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get sqlite cache: query cache_entries table: %w", err)
	}

	if expired(expiresAt, s.now()) {
		return nil, false, nil
	}

	return value, true, nil
}

// Store value under key for ttl.
func (s *SqliteCache) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if s.DB == nil {
		return errors.New("sqlite cache: db is nil")
	}

	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("insert sqlite cache: empty key")
	}

	_, err := s.DB.ExecContext(ctx, `
	INSERT OR REPLACE INTO cache_entries (
        cache_key,
        value,
        expires_at
    )
    VALUES (?, ?, ?);
	`, key, value, expiresAt(s.now(), ttl))
	if err != nil {
		return fmt.Errorf("insert sqlite cache key=%q: %w", key, err)
	}

	return nil
}

// PurgeExpired deletes entries whose TTL has passed.
func (s *SqliteCache) PurgeExpired(ctx context.Context) (int64, error) {
	if s.DB == nil {
		return 0, errors.New("sqlite cache: db is nil")
	}

	res, err := s.DB.ExecContext(ctx, `
	DELETE FROM cache_entries
	WHERE expires_at > 0 AND expires_at <= ?;
	`, s.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("purge sqlite cache: %w", err)
	}
	return res.RowsAffected()
}
