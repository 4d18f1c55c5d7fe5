package distance

import (
	"context"
	"fmt"
	"mission-planner-service/internal/domain"
	"sync"
)

type MockPair struct {
	From, To domain.Coordinates
	Meters   int
	Seconds  int
}

// MockProvider serves a fixed matrix and per-pair routes. It records calls so
// tests can assert which links of a provider chain were used.
type MockProvider struct {
	mu       sync.Mutex
	matrix   domain.Matrix
	routes   map[[2]domain.Coordinates]domain.Segment
	err      error
	Calls    int
	RouteHit int
}

func NewMockProvider(m domain.Matrix, pairs []MockPair) *MockProvider {
	routes := make(map[[2]domain.Coordinates]domain.Segment, len(pairs))
	for _, p := range pairs {
		routes[[2]domain.Coordinates{p.From, p.To}] = domain.Segment{DistanceMeters: p.Meters, DurationSeconds: p.Seconds}
	}
	return &MockProvider{matrix: m, routes: routes}
}

// NewFailingMockProvider returns a provider whose every call fails with err.
func NewFailingMockProvider(err error) *MockProvider {
	return &MockProvider{err: err, routes: map[[2]domain.Coordinates]domain.Segment{}}
}

func (p *MockProvider) Matrix(_ context.Context, points []domain.Coordinates) (domain.Matrix, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls++

	if p.err != nil {
		return domain.Matrix{}, p.err
	}
	if p.matrix.Size() != len(points) {
		return domain.Matrix{}, fmt.Errorf("mock matrix has %d rows, %d points requested", p.matrix.Size(), len(points))
	}
	return p.matrix, nil
}

func (p *MockProvider) Route(_ context.Context, a, b domain.Coordinates) (domain.Segment, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.RouteHit++

	if p.err != nil {
		return domain.Segment{}, p.err
	}
	r, ok := p.routes[[2]domain.Coordinates{a, b}]
	if !ok {
		return domain.Segment{}, fmt.Errorf("missing pair %v -> %v", a, b)
	}
	return r, nil
}
