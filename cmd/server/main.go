package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"mission-planner-service/internal/adapters/cache"
	"mission-planner-service/internal/adapters/distance"
	"mission-planner-service/internal/adapters/llm"
	"mission-planner-service/internal/adapters/repositories"
	"mission-planner-service/internal/api"
	"mission-planner-service/internal/api/handlers"
	"mission-planner-service/internal/config"
	"mission-planner-service/internal/domain"
	"mission-planner-service/internal/geo"
	"mission-planner-service/internal/platform/db"
	"mission-planner-service/internal/ports"
	"mission-planner-service/internal/services"
	"net/http"
	"os"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"
)

// purger is implemented by the SQL-backed caches.
type purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// main is the application composition root.
// It wires concrete adapters (caches, ORS, OSRM, Gemini) behind ports and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}
	ctx := context.Background()

	port := config.Get("PORT", "8080")
	country := config.Get("COUNTRY_CODE", "sn")
	speed := config.GetFloat("AVERAGE_SPEED_KMH", geo.DefaultAverageSpeedKmh)

	settings, err := config.LoadSettings(config.Get("POLICY_PATH", "config/policy.yaml"))
	if err != nil {
		log.Fatal(err)
	}

	store, conn, dialect, err := openCache(ctx, config.Get("CACHE_BACKEND", "sqlite"))
	if err != nil {
		log.Fatal(err)
	}
	if conn != nil {
		defer conn.Close()
	}

	known, err := loadKnownLocations(ctx, conn, dialect, config.Get("KNOWN_LOCATIONS_PATH", "data/seeds/known_locations.json"))
	if err != nil {
		log.Fatal(err)
	}

	if p, ok := store.(purger); ok {
		go purgeLoop(ctx, p, config.GetDuration("CACHE_PURGE_INTERVAL", time.Hour))
	}

	var (
		primary   ports.Geocoder
		orsMatrix ports.MatrixProvider
		aiMatrix  ports.MatrixProvider
		router    ports.RouteProvider
		reporter  ports.TextGenerator
	)

	if key := config.Get("ORS_API_KEY", ""); key != "" {
		ors, err := distance.NewORSProvider(key)
		if err != nil {
			log.Fatal(err)
		}
		primary, orsMatrix, router = ors, ors, ors
	} else {
		log.Println("ORS_API_KEY not set: geocoding falls back to Nominatim and matrices skip ORS")
	}

	if key := config.Get("GEMINI_API_KEY", ""); key != "" {
		gemini, err := llm.NewGeminiClient(ctx, key, config.Get("GEMINI_MODEL", "gemini-2.0-flash"))
		if err != nil {
			log.Fatal(err)
		}
		aiMatrix = distance.NewAIMatrixProvider(gemini)
		reporter = gemini
	}

	osrmEnabled := config.GetBool("OSRM_ENABLED", false)
	osrm := distance.NewOSRMProvider(config.Get("OSRM_BASE_URL", "https://router.project-osrm.org"))
	if router == nil {
		if osrmEnabled {
			router = osrm
		} else {
			router = distance.NewGeometricProvider(speed)
		}
	}

	nominatim := distance.NewNominatimGeocoder(
		config.Get("NOMINATIM_BASE_URL", "https://nominatim.openstreetmap.org"),
		config.Get("NOMINATIM_USER_AGENT", "mission-planner-service/1.0"),
	)

	planner := &services.Planner{
		Resolver: services.NewGeoResolver(services.GeoResolverConfig{
			Offline:     geo.NewOfflineTable(geo.DefaultKnownLocations(), known),
			Primary:     primary,
			Secondary:   nominatim,
			Cache:       store,
			TTL:         config.GetDuration("GEOCODE_CACHE_TTL", services.DefaultGeocodeTTL),
			CountryCode: country,
		}),
		Oracle: services.NewDistanceOracle(services.OracleConfig{
			ORS:         orsMatrix,
			AI:          aiMatrix,
			OSRM:        osrm,
			OSRMEnabled: osrmEnabled,
			SpeedKmh:    speed,
			Cache:       store,
			TTL:         config.GetDuration("MATRIX_CACHE_TTL", services.DefaultMatrixTTL),
		}),
		Repairer: services.SegmentRepairer{Router: router, SpeedKmh: speed},
		SpeedKmh: speed,
	}

	handler := api.NewRouter(&handlers.PlanHandler{
		Planner:     planner,
		Policy:      settings.Policy,
		Fuel:        settings.Fuel,
		Reporter:    reporter,
		DefaultBase: config.Get("BASE_LOCATION", settings.Policy.BaseLocation),
	})

	// Timeouts are tuned for cold-cache planning (external API latency).
	log.Printf("Server listening addr=:%s known_locations=%d", port, len(known))
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	log.Fatal(srv.ListenAndServe())
}

// openCache builds the configured cache backend. SQL backends also return
// their connection so the known-location table can share it.
func openCache(ctx context.Context, backend string) (ports.Cache, *sql.DB, db.Dialect, error) {
	switch backend {
	case "memory":
		return cache.NewMemoryCache(), nil, 0, nil

	case "redis":
		redisDB, err := strconv.Atoi(config.Get("REDIS_DB", "0"))
		if err != nil {
			return nil, nil, 0, fmt.Errorf("open cache: REDIS_DB: %w", err)
		}
		client, err := cache.DialRedis(ctx, config.Get("REDIS_ADDR", "localhost:6379"), os.Getenv("REDIS_PASSWORD"), redisDB)
		if err != nil {
			return nil, nil, 0, fmt.Errorf("open cache: %w", err)
		}
		return cache.NewRedisCache(client), nil, 0, nil

	case "postgres":
		url := config.Get("DATABASE_URL", "")
		if url == "" {
			return nil, nil, 0, errors.New("open cache: DATABASE_URL is required for the postgres backend")
		}
		conn, err := db.Open(url)
		if err != nil {
			return nil, nil, 0, fmt.Errorf("open cache: %w", err)
		}
		if err := repositories.InitSchema(conn, db.Postgres); err != nil {
			conn.Close()
			return nil, nil, 0, fmt.Errorf("open cache: %w", err)
		}
		return cache.NewSQLCache(conn), conn, db.Postgres, nil

	case "sqlite":
		conn, err := db.OpenSqlite(config.Get("DB_PATH", "data/app.db"))
		if err != nil {
			return nil, nil, 0, fmt.Errorf("open cache: %w", err)
		}
		if err := repositories.InitSchema(conn, db.SQLite); err != nil {
			conn.Close()
			return nil, nil, 0, fmt.Errorf("open cache: %w", err)
		}
		return cache.NewSqliteCache(conn), conn, db.SQLite, nil
	}

	return nil, nil, 0, fmt.Errorf("open cache: unknown CACHE_BACKEND %q", backend)
}

// loadKnownLocations seeds the known_locations table from seedPath when a
// database is available and reads it back; without one it reads the file.
func loadKnownLocations(ctx context.Context, conn *sql.DB, dialect db.Dialect, seedPath string) ([]domain.KnownLocation, error) {
	if _, err := os.Stat(seedPath); err != nil {
		log.Printf("known locations seed %q unavailable: %v", seedPath, err)
		seedPath = ""
	}

	if conn == nil {
		if seedPath == "" {
			return nil, nil
		}
		return geo.LoadKnownLocations(seedPath)
	}

	if seedPath != "" {
		if err := repositories.SeedFromJSON(conn, dialect, seedPath); err != nil {
			return nil, err
		}
	}
	return repositories.NewSQLKnownLocationRepository(conn).ListKnownLocations(ctx)
}

func purgeLoop(ctx context.Context, p purger, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()

	for range t.C {
		n, err := p.PurgeExpired(ctx)
		if err != nil {
			log.Printf("op=cache.purge err=%v", err)
			continue
		}
		if n > 0 {
			log.Printf("op=cache.purge removed=%d", n)
		}
	}
}
