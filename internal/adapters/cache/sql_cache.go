package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"mission-planner-service/internal/platform/obs"
	"strings"
	"time"
)

// SQLCache is a Postgres-backed TTL cache over the cache_entries table.
// expires_at holds unix seconds; 0 means the entry never expires.
type SQLCache struct {
	DB  *sql.DB
	now func() time.Time
}

func NewSQLCache(db *sql.DB) *SQLCache {
	return &SQLCache{DB: db, now: time.Now}
}

// Fetch a live entry for key.
func (s *SQLCache) Get(ctx context.Context, key string) (_ []byte, _ bool, err error) {
	defer obs.Time(ctx, "cache.sql.Get")(&err)

	if s.DB == nil {
		return nil, false, errors.New("sql cache: db is nil")
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return nil, false, nil
	}

	var value []byte
	var expiresAt int64
	err = s.DB.QueryRowContext(ctx, `
	SELECT value, expires_at
    FROM cache_entries
    WHERE cache_key = $1;
	`, key).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get sql cache: query cache_entries table: %w", err)
	}

	if expired(expiresAt, s.now()) {
		return nil, false, nil
	}

	return value, true, nil
}

// Store value under key for ttl.
func (s *SQLCache) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if s.DB == nil {
		return errors.New("sql cache: db is nil")
	}

	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("insert sql cache: empty key")
	}

	_, err := s.DB.ExecContext(ctx, `
	INSERT INTO cache_entries (cache_key, value, expires_at)
    VALUES ($1, $2, $3)
	ON CONFLICT (cache_key) DO UPDATE
	SET value = EXCLUDED.value,
		expires_at = EXCLUDED.expires_at;
	`, key, value, expiresAt(s.now(), ttl))
	if err != nil {
		return fmt.Errorf("insert sql cache key=%q: %w", key, err)
	}

	return nil
}

// PurgeExpired deletes entries whose TTL has passed.
func (s *SQLCache) PurgeExpired(ctx context.Context) (int64, error) {
	if s.DB == nil {
		return 0, errors.New("sql cache: db is nil")
	}

	res, err := s.DB.ExecContext(ctx, `
	DELETE FROM cache_entries
	WHERE expires_at > 0 AND expires_at <= $1;
	`, s.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("purge sql cache: %w", err)
	}
	return res.RowsAffected()
}

func expiresAt(now time.Time, ttl time.Duration) int64 {
	if ttl <= 0 {
		return 0
	}
	return now.Add(ttl).Unix()
}

func expired(expiresAt int64, now time.Time) bool {
	return expiresAt > 0 && expiresAt <= now.Unix()
}
