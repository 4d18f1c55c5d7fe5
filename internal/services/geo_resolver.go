package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"mission-planner-service/internal/domain"
	"mission-planner-service/internal/geo"
	"mission-planner-service/internal/platform/obs"
	"mission-planner-service/internal/ports"
	"strings"
	"sync"
	"time"

	"github.com/paulmach/orb"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultGeocodeTTL = 7 * 24 * time.Hour
	geocodeFanOut     = 4
)

type GeoResolverConfig struct {
	Offline   *geo.OfflineTable
	Primary   ports.Geocoder
	Secondary ports.Geocoder
	Cache     ports.Cache
	TTL       time.Duration
	// CountryCode scopes provider queries, e.g. "sn".
	CountryCode string
	// Bounds rejects provider hits outside the country; a zero bound accepts all.
	Bounds        orb.Bound
	PreferOffline bool
}

// GeoResolver turns city names into coordinates.
type GeoResolver struct {
	cfg GeoResolverConfig
}

func NewGeoResolver(cfg GeoResolverConfig) *GeoResolver {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultGeocodeTTL
	}
	if cfg.Bounds.IsZero() && cfg.CountryCode != "" {
		if b, ok := geo.CountryBounds(cfg.CountryCode); ok {
			cfg.Bounds = b
		}
	}
	return &GeoResolver{cfg: cfg}
}

// PreferringOffline returns a resolver sharing r's collaborators with the
// offline-first switch set to v.
func (r *GeoResolver) PreferringOffline(v bool) *GeoResolver {
	cfg := r.cfg
	cfg.PreferOffline = v
	return &GeoResolver{cfg: cfg}
}

// Resolve looks a city up in priority order: offline table when preferred,
// cache, primary geocoder, offline table, secondary geocoder.
func (r *GeoResolver) Resolve(ctx context.Context, city string) (domain.Coordinates, error) {
	key := geo.Normalize(city)
	if key == "" {
		return domain.Coordinates{}, &domain.GeocodeFailure{City: city, Err: domain.ErrEmptyCity}
	}

	offline, hasOffline := r.cfg.Offline.Lookup(city)
	if hasOffline && r.cfg.PreferOffline {
		return offline, nil
	}

	cacheKey := "geocode:" + strings.ToLower(r.cfg.CountryCode) + ":" + key
	if c, ok := r.cached(ctx, cacheKey); ok {
		return c, nil
	}

	c, primaryErr := r.lookup(ctx, "primary", r.cfg.Primary, city)
	if primaryErr == nil {
		r.store(ctx, cacheKey, c)
		return c, nil
	}

	if hasOffline {
		log.Printf("op=geocode city=%q primary_err=%v using=offline", city, primaryErr)
		return offline, nil
	}

	c, err := r.lookup(ctx, "secondary", r.cfg.Secondary, city)
	if err == nil {
		r.store(ctx, cacheKey, c)
		return c, nil
	}
	log.Printf("op=geocode city=%q primary_err=%v secondary_err=%v", city, primaryErr, err)

	return domain.Coordinates{}, &domain.GeocodeFailure{City: city, Err: primaryErr}
}

func (r *GeoResolver) lookup(ctx context.Context, name string, g ports.Geocoder, city string) (c domain.Coordinates, err error) {
	if g == nil {
		return domain.Coordinates{}, fmt.Errorf("%s geocoder not configured", name)
	}
	defer obs.Time(ctx, "geocode."+name)(&err)

	c, err = g.Geocode(ctx, city, r.cfg.CountryCode)
	if err != nil {
		return domain.Coordinates{}, err
	}
	if !geo.InBounds(r.cfg.Bounds, c) {
		return domain.Coordinates{}, fmt.Errorf("geocode %q: %s outside %s bounds", city, c.Key(), strings.ToUpper(r.cfg.CountryCode))
	}
	return c, nil
}

func (r *GeoResolver) cached(ctx context.Context, key string) (domain.Coordinates, bool) {
	if r.cfg.Cache == nil {
		return domain.Coordinates{}, false
	}

	b, ok, err := r.cfg.Cache.Get(ctx, key)
	if err != nil {
		log.Printf("op=geocode.cache_get key=%q err=%v", key, err)
		return domain.Coordinates{}, false
	}
	if !ok {
		return domain.Coordinates{}, false
	}

	var c domain.Coordinates
	if err := json.Unmarshal(b, &c); err != nil {
		log.Printf("op=geocode.cache_decode key=%q err=%v", key, err)
		return domain.Coordinates{}, false
	}
	return c, true
}

func (r *GeoResolver) store(ctx context.Context, key string, c domain.Coordinates) {
	if r.cfg.Cache == nil {
		return
	}

	b, err := json.Marshal(c)
	if err != nil {
		return
	}
	if err := r.cfg.Cache.Put(ctx, key, b, r.cfg.TTL); err != nil {
		log.Printf("op=geocode.cache_put key=%q err=%v", key, err)
	}
}

// ResolveAll resolves cities concurrently, resolving each distinct name once.
// The result is index-aligned with cities. When any city fails, the error is
// a domain.GeocodeFailures listing every failure in input order. A cancelled
// ctx aborts the batch with ctx's error.
func (r *GeoResolver) ResolveAll(ctx context.Context, cities []string) ([]domain.Coordinates, error) {
	type outcome struct {
		coords domain.Coordinates
		err    error
	}

	var (
		mu       sync.Mutex
		outcomes = make(map[string]outcome, len(cities))
		g        errgroup.Group
	)
	g.SetLimit(geocodeFanOut)

	seen := make(map[string]bool, len(cities))
	for _, city := range cities {
		key := geo.Normalize(city)
		if seen[key] {
			continue
		}
		seen[key] = true

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			c, err := r.Resolve(ctx, city)
			mu.Lock()
			outcomes[key] = outcome{coords: c, err: err}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("resolve all: %w", err)
	}

	out := make([]domain.Coordinates, len(cities))
	var failures domain.GeocodeFailures
	reported := make(map[string]bool)
	for i, city := range cities {
		key := geo.Normalize(city)
		o := outcomes[key]
		if o.err == nil {
			out[i] = o.coords
			continue
		}
		if reported[key] {
			continue
		}
		reported[key] = true

		var gf *domain.GeocodeFailure
		if !errors.As(o.err, &gf) {
			gf = &domain.GeocodeFailure{City: city, Err: o.err}
		}
		failures = append(failures, gf)
	}

	if len(failures) > 0 {
		return nil, failures
	}
	return out, nil
}
