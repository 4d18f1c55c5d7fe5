package services

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

const (
	defaultSolverTimeLimit = 5 * time.Second
	// glsAlpha scales penalties relative to the average arc cost of the first local optimum.
	glsAlpha = 0.3
)

var ErrSolverNoSolution = errors.New("solver: no solution")

type SolverOptions struct {
	TimeLimit      time.Duration
	ServiceSeconds []int
	// MaxIterations caps penalty rounds; 0 picks a size-based default.
	MaxIterations int
}

// SolveGuidedLocalSearch orders a fixed start/end path with guided local
// search. The arc cost of i -> j is the transit time plus the service time
// spent at i. The result is deterministic for a given input unless the time
// limit cuts the search short.
func SolveGuidedLocalSearch(durations [][]int, opts SolverOptions) ([]int, error) {
	n := len(durations)
	if n < 2 {
		return nil, fmt.Errorf("%w: need at least 2 nodes, got %d", ErrSolverNoSolution, n)
	}
	for i, row := range durations {
		if len(row) != n {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrSolverNoSolution, i, len(row), n)
		}
	}
	if opts.ServiceSeconds != nil && len(opts.ServiceSeconds) != n {
		return nil, fmt.Errorf("%w: %d service times for %d nodes", ErrSolverNoSolution, len(opts.ServiceSeconds), n)
	}
	if n <= 3 {
		return identityOrder(n), nil
	}

	limit := opts.TimeLimit
	if limit <= 0 {
		limit = defaultSolverTimeLimit
	}
	maxIter := opts.MaxIterations
	if maxIter <= 0 {
		maxIter = 100 + 20*n
	}

	s := &glsSearch{
		durations: durations,
		service:   opts.ServiceSeconds,
		penalties: make([][]int, n),
		deadline:  time.Now().Add(limit),
	}
	for i := range s.penalties {
		s.penalties[i] = make([]int, n)
	}

	route := greedyOrder(durations, s.arc)
	s.localSearch(route, s.cost)

	best := slices.Clone(route)
	bestCost := s.cost(route)
	s.lambda = glsAlpha * float64(bestCost) / float64(n-1)

	for iter := 0; iter < maxIter && time.Now().Before(s.deadline); iter++ {
		s.penalize(route)
		s.localSearch(route, s.augmented)

		if c := s.cost(route); c < bestCost {
			bestCost = c
			copy(best, route)
		}
	}

	return best, nil
}

type glsSearch struct {
	durations [][]int
	service   []int
	penalties [][]int
	lambda    float64
	deadline  time.Time
}

func (s *glsSearch) arc(from, to int) int {
	c := s.durations[from][to]
	if s.service != nil {
		c += s.service[from]
	}
	return c
}

func (s *glsSearch) cost(route []int) int {
	total := 0
	for i := 0; i+1 < len(route); i++ {
		total += s.arc(route[i], route[i+1])
	}
	return total
}

func (s *glsSearch) augmented(route []int) int {
	pen := 0
	for i := 0; i+1 < len(route); i++ {
		pen += s.penalties[route[i]][route[i+1]]
	}
	return s.cost(route) + int(s.lambda*float64(pen))
}

// penalize raises the penalty of the route arcs with maximal utility
// cost/(1+penalty).
func (s *glsSearch) penalize(route []int) {
	bestUtil := -1.0
	for i := 0; i+1 < len(route); i++ {
		a, b := route[i], route[i+1]
		if u := float64(s.arc(a, b)) / float64(1+s.penalties[a][b]); u > bestUtil {
			bestUtil = u
		}
	}
	for i := 0; i+1 < len(route); i++ {
		a, b := route[i], route[i+1]
		if float64(s.arc(a, b))/float64(1+s.penalties[a][b]) == bestUtil {
			s.penalties[a][b]++
		}
	}
}

// localSearch applies improving 2-opt and relocate moves in place until
// neither lowers objective. Endpoints stay fixed.
func (s *glsSearch) localSearch(route []int, objective func([]int) int) {
	n := len(route)
	current := objective(route)

	for improved := true; improved && time.Now().Before(s.deadline); {
		improved = false

		for i := 1; i < n-2; i++ {
			for k := i + 1; k < n-1; k++ {
				slices.Reverse(route[i : k+1])
				if c := objective(route); c < current {
					current = c
					improved = true
					continue
				}
				slices.Reverse(route[i : k+1])
			}
		}

		for i := 1; i < n-1; i++ {
			for j := 1; j < n-1; j++ {
				if i == j {
					continue
				}
				relocate(route, i, j)
				if c := objective(route); c < current {
					current = c
					improved = true
					continue
				}
				relocate(route, j, i)
			}
		}
	}
}

// relocate moves the element at position from to position to, shifting the
// elements in between.
func relocate(route []int, from, to int) {
	v := route[from]
	if from < to {
		copy(route[from:to], route[from+1:to+1])
	} else {
		copy(route[to+1:from+1], route[to:from])
	}
	route[to] = v
}
