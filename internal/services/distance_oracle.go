package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"mission-planner-service/internal/domain"
	"mission-planner-service/internal/geo"
	"mission-planner-service/internal/platform/obs"
	"mission-planner-service/internal/ports"
	"strings"
	"time"
)

const DefaultMatrixTTL = 24 * time.Hour

// MatrixMode selects either the fall-through chain or a single provider.
type MatrixMode string

const (
	ModeAuto      MatrixMode = "auto"
	ModeORS       MatrixMode = "ors"
	ModeOSRM      MatrixMode = "osrm"
	ModeAI        MatrixMode = "ai"
	ModeGeometric MatrixMode = "geometric"
)

func ParseMatrixMode(s string) (MatrixMode, error) {
	switch m := MatrixMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeAuto, nil
	case ModeAuto, ModeORS, ModeOSRM, ModeAI, ModeGeometric:
		return m, nil
	}
	return "", fmt.Errorf("unknown matrix mode %q", s)
}

// MatrixStrategy is one way of producing a matrix, tagged with its source.
type MatrixStrategy interface {
	ports.MatrixProvider
	Source() domain.MatrixSource
}

type providerStrategy struct {
	source domain.MatrixSource
	ports.MatrixProvider
}

func (p providerStrategy) Source() domain.MatrixSource { return p.source }

type geometricStrategy struct {
	speedKmh float64
}

func (g geometricStrategy) Source() domain.MatrixSource { return domain.SourceGeometric }

func (g geometricStrategy) Matrix(_ context.Context, points []domain.Coordinates) (domain.Matrix, error) {
	return geo.EstimateMatrix(points, g.speedKmh), nil
}

// Attempt records one failed strategy of a matrix request.
type Attempt struct {
	Source domain.MatrixSource `json:"source"`
	Err    string              `json:"error"`
}

type MatrixResult struct {
	Matrix   domain.Matrix       `json:"matrix"`
	Source   domain.MatrixSource `json:"source"`
	Attempts []Attempt           `json:"attempts,omitempty"`
	Cached   bool                `json:"cached"`
}

type OracleConfig struct {
	ORS  ports.MatrixProvider
	AI   ports.MatrixProvider
	OSRM ports.MatrixProvider
	// OSRMEnabled gates OSRM in the auto chain; explicit osrm mode ignores it.
	OSRMEnabled bool
	SpeedKmh    float64
	Cache       ports.Cache
	TTL         time.Duration
}

// DistanceOracle produces travel matrices from an ordered chain of strategies.
type DistanceOracle struct {
	strategies map[domain.MatrixSource]MatrixStrategy
	auto       []MatrixStrategy
	cache      ports.Cache
	ttl        time.Duration
}

func NewDistanceOracle(cfg OracleConfig) *DistanceOracle {
	if cfg.SpeedKmh <= 0 {
		cfg.SpeedKmh = geo.DefaultAverageSpeedKmh
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultMatrixTTL
	}

	o := &DistanceOracle{
		strategies: make(map[domain.MatrixSource]MatrixStrategy),
		cache:      cfg.Cache,
		ttl:        cfg.TTL,
	}

	add := func(src domain.MatrixSource, p ports.MatrixProvider, inAuto bool) {
		if p == nil {
			return
		}
		s := providerStrategy{source: src, MatrixProvider: p}
		o.strategies[src] = s
		if inAuto {
			o.auto = append(o.auto, s)
		}
	}
	add(domain.SourceORS, cfg.ORS, true)
	add(domain.SourceAI, cfg.AI, true)
	add(domain.SourceOSRM, cfg.OSRM, cfg.OSRMEnabled)

	geometric := geometricStrategy{speedKmh: cfg.SpeedKmh}
	o.strategies[domain.SourceGeometric] = geometric
	o.auto = append(o.auto, geometric)

	return o
}

// AutoChain lists the sources auto mode tries, in order.
func (o *DistanceOracle) AutoChain() []domain.MatrixSource {
	out := make([]domain.MatrixSource, 0, len(o.auto))
	for _, s := range o.auto {
		out = append(out, s.Source())
	}
	return out
}

func (o *DistanceOracle) chain(mode MatrixMode) ([]MatrixStrategy, error) {
	var src domain.MatrixSource
	switch mode {
	case "", ModeAuto:
		return o.auto, nil
	case ModeORS:
		src = domain.SourceORS
	case ModeOSRM:
		src = domain.SourceOSRM
	case ModeAI:
		src = domain.SourceAI
	case ModeGeometric:
		src = domain.SourceGeometric
	default:
		return nil, fmt.Errorf("unknown matrix mode %q", mode)
	}

	s, ok := o.strategies[src]
	if !ok {
		return nil, &domain.MatrixProviderFailure{Source: src, Err: errors.New("provider not configured")}
	}
	return []MatrixStrategy{s}, nil
}

// Matrix returns the n x n travel matrix for coords. In auto mode the first
// strategy that yields a well-formed matrix wins; an explicit mode fails with
// domain.MatrixProviderFailure.
func (o *DistanceOracle) Matrix(ctx context.Context, coords []domain.Coordinates, mode MatrixMode) (res MatrixResult, err error) {
	if len(coords) == 0 {
		return MatrixResult{}, errors.New("matrix: no coordinates")
	}

	strategies, err := o.chain(mode)
	if err != nil {
		return MatrixResult{}, err
	}

	key := matrixCacheKey(mode, coords)
	if cached, ok := o.cached(ctx, key, len(coords)); ok {
		return cached, nil
	}

	defer obs.Time(ctx, "oracle.Matrix")(&err)

	var attempts []Attempt
	var lastErr error
	for _, s := range strategies {
		m, err := s.Matrix(ctx, coords)
		if err == nil {
			err = m.Validate(len(coords))
		}
		if err != nil {
			log.Printf("op=oracle.matrix source=%s n=%d err=%v", s.Source(), len(coords), err)
			attempts = append(attempts, Attempt{Source: s.Source(), Err: err.Error()})
			lastErr = &domain.MatrixProviderFailure{Source: s.Source(), Err: err}
			continue
		}

		for i := range m.Durations {
			m.Durations[i][i] = 0
			m.Distances[i][i] = 0
		}

		res = MatrixResult{Matrix: m, Source: s.Source(), Attempts: attempts}
		o.store(ctx, key, res)
		return res, nil
	}

	return MatrixResult{Attempts: attempts}, lastErr
}

type cachedMatrix struct {
	Matrix domain.Matrix       `json:"matrix"`
	Source domain.MatrixSource `json:"source"`
}

// matrixCacheKey hashes the mode and the rounded coordinate list.
func matrixCacheKey(mode MatrixMode, coords []domain.Coordinates) string {
	if mode == "" {
		mode = ModeAuto
	}
	h := sha256.New()
	for _, c := range coords {
		h.Write([]byte(c.Key()))
		h.Write([]byte{';'})
	}
	return "matrix:" + string(mode) + ":" + hex.EncodeToString(h.Sum(nil))
}

func (o *DistanceOracle) cached(ctx context.Context, key string, n int) (MatrixResult, bool) {
	if o.cache == nil {
		return MatrixResult{}, false
	}

	b, ok, err := o.cache.Get(ctx, key)
	if err != nil {
		log.Printf("op=oracle.cache_get err=%v", err)
		return MatrixResult{}, false
	}
	if !ok {
		return MatrixResult{}, false
	}

	var cm cachedMatrix
	if err := json.Unmarshal(b, &cm); err != nil || cm.Matrix.Validate(n) != nil {
		return MatrixResult{}, false
	}
	return MatrixResult{Matrix: cm.Matrix, Source: cm.Source, Cached: true}, true
}

func (o *DistanceOracle) store(ctx context.Context, key string, res MatrixResult) {
	if o.cache == nil {
		return
	}

	b, err := json.Marshal(cachedMatrix{Matrix: res.Matrix, Source: res.Source})
	if err != nil {
		return
	}
	if err := o.cache.Put(ctx, key, b, o.ttl); err != nil {
		log.Printf("op=oracle.cache_put err=%v", err)
	}
}
