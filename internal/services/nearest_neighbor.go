package services

import "math"

// NearestNeighborOrder seeds a route over a duration matrix.
//
// Node 0 is the fixed start and node n-1 the fixed end. At each step the
// unvisited interior node with the minimum duration from the current node is
// taken; ties go to the lowest index so the result is deterministic.
func NearestNeighborOrder(durations [][]int) []int {
	return greedyOrder(durations, func(from, to int) int { return durations[from][to] })
}

// greedyOrder builds a fixed-endpoint path by repeatedly extending it with
// the cheapest arc from its current end.
func greedyOrder(durations [][]int, cost func(from, to int) int) []int {
	n := len(durations)
	if n <= 2 {
		return identityOrder(n)
	}

	visited := make([]bool, n)
	visited[0], visited[n-1] = true, true

	order := make([]int, 0, n)
	order = append(order, 0)
	current := 0

	for len(order) < n-1 {
		best := -1
		bestCost := math.MaxInt
		// Select next node by minimum travel duration (greedy step).
		for j := 1; j < n-1; j++ {
			if visited[j] {
				continue
			}
			if c := cost(current, j); c < bestCost {
				bestCost = c
				best = j
			}
		}

		visited[best] = true
		order = append(order, best)
		current = best
	}

	return append(order, n-1)
}

func identityOrder(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
