package services

import (
	"fmt"
	"log"
	"slices"
	"time"
)

// OrderMethod records which algorithm produced an order.
type OrderMethod int

const (
	OrderIdentity OrderMethod = iota + 1
	OrderExhaustive
	OrderNearestNeighbor
	OrderSolver
)

func (m OrderMethod) String() string {
	switch m {
	case OrderIdentity:
		return "identity"
	case OrderExhaustive:
		return "exhaustive_2opt"
	case OrderNearestNeighbor:
		return "nearest_neighbor_2opt"
	case OrderSolver:
		return "guided_local_search"
	}
	return fmt.Sprintf("order_method(%d)", int(m))
}

func (m OrderMethod) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// Exhaustive search is used up to this many nodes, endpoints included.
const maxExhaustiveNodes = 10

type OrderOptions struct {
	UseSolver       bool
	SolverTimeLimit time.Duration
	// ServiceSeconds is the per-node on-site time added to outgoing arcs by the solver.
	ServiceSeconds []int
}

type OrderResult struct {
	Order  []int       `json:"order"`
	Method OrderMethod `json:"method"`
	// Cost is the total transit time of Order in seconds.
	Cost int `json:"cost_seconds"`
	// SolverErr is set when the solver was requested but fell back.
	SolverErr error `json:"-"`
}

// OrderRoute determines the visiting order over a duration matrix with node 0
// and node n-1 pinned as start and end. Cost is transit time, not distance.
func OrderRoute(durations [][]int, opts OrderOptions) OrderResult {
	n := len(durations)
	if n <= 2 {
		order := identityOrder(n)
		return OrderResult{Order: order, Method: OrderIdentity, Cost: RouteCost(durations, order)}
	}

	var solverErr error
	if opts.UseSolver {
		order, err := SolveGuidedLocalSearch(durations, SolverOptions{
			TimeLimit:      opts.SolverTimeLimit,
			ServiceSeconds: opts.ServiceSeconds,
		})
		if err == nil {
			return OrderResult{Order: order, Method: OrderSolver, Cost: RouteCost(durations, order)}
		}
		log.Printf("op=order.solver err=%v fallback=heuristic", err)
		solverErr = err
	}

	var seed []int
	method := OrderNearestNeighbor
	if n <= maxExhaustiveNodes {
		seed = ExhaustiveOrder(durations)
		method = OrderExhaustive
	} else {
		seed = NearestNeighborOrder(durations)
	}

	order := TwoOpt(durations, seed)
	return OrderResult{Order: order, Method: method, Cost: RouteCost(durations, order), SolverErr: solverErr}
}

// RouteCost sums the durations of consecutive legs.
func RouteCost(durations [][]int, order []int) int {
	total := 0
	for i := 0; i+1 < len(order); i++ {
		total += durations[order[i]][order[i+1]]
	}
	return total
}

// ExhaustiveOrder tries every permutation of the interior nodes in
// lexicographic order and keeps the first one with the lowest cost.
func ExhaustiveOrder(durations [][]int) []int {
	n := len(durations)
	if n <= 2 {
		return identityOrder(n)
	}

	perm := identityOrder(n)
	best := slices.Clone(perm)
	bestCost := RouteCost(durations, perm)

	interior := perm[1 : n-1]
	for nextPermutation(interior) {
		if c := RouteCost(durations, perm); c < bestCost {
			bestCost = c
			copy(best, perm)
		}
	}

	return best
}

// nextPermutation rearranges p into its lexicographic successor and reports
// false once p is the last permutation.
func nextPermutation(p []int) bool {
	i := len(p) - 2
	for i >= 0 && p[i] >= p[i+1] {
		i--
	}
	if i < 0 {
		return false
	}

	j := len(p) - 1
	for p[j] <= p[i] {
		j--
	}
	p[i], p[j] = p[j], p[i]
	slices.Reverse(p[i+1:])
	return true
}

// TwoOpt improves order by reversing interior sub-segments, accepting any
// reversal that strictly lowers the total cost, until no reversal helps.
// The first and last positions are never moved. Costs are recomputed in full
// because the matrix may be asymmetric.
func TwoOpt(durations [][]int, order []int) []int {
	route := slices.Clone(order)
	n := len(route)
	if n < 4 {
		return route
	}

	best := RouteCost(durations, route)
	for improved := true; improved; {
		improved = false
		for i := 1; i < n-2; i++ {
			for k := i + 1; k < n-1; k++ {
				slices.Reverse(route[i : k+1])
				if c := RouteCost(durations, route); c < best {
					best = c
					improved = true
					continue
				}
				slices.Reverse(route[i : k+1])
			}
		}
	}

	return route
}
