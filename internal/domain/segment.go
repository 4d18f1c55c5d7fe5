package domain

import "fmt"

// Segment is the travel distance and duration of a single leg.
// A zero value in either field means the provider gave no usable data.
type Segment struct {
	DistanceMeters  int `json:"distance_meters"`
	DurationSeconds int `json:"duration_seconds"`
}

// Missing reports whether the leg must be repaired before scheduling.
func (s Segment) Missing() bool { return s.DistanceMeters <= 0 || s.DurationSeconds <= 0 }

// Matrix holds pairwise travel durations (seconds) and distances (meters).
// Row i, column j is the leg i -> j; the matrix may be asymmetric.
type Matrix struct {
	Durations [][]int `json:"durations"`
	Distances [][]int `json:"distances"`
}

// NewMatrix allocates an n x n zero matrix.
func NewMatrix(n int) Matrix {
	m := Matrix{
		Durations: make([][]int, n),
		Distances: make([][]int, n),
	}
	for i := 0; i < n; i++ {
		m.Durations[i] = make([]int, n)
		m.Distances[i] = make([]int, n)
	}
	return m
}

func (m Matrix) Size() int { return len(m.Durations) }

// Validate checks that both tables are square, of equal size, and non-negative.
func (m Matrix) Validate(n int) error {
	if len(m.Durations) != n || len(m.Distances) != n {
		return fmt.Errorf("matrix: expected %d rows, got durations=%d distances=%d", n, len(m.Durations), len(m.Distances))
	}
	for i := 0; i < n; i++ {
		if len(m.Durations[i]) != n || len(m.Distances[i]) != n {
			return fmt.Errorf("matrix: row %d: expected %d columns", i, n)
		}
		for j := 0; j < n; j++ {
			if m.Durations[i][j] < 0 || m.Distances[i][j] < 0 {
				return fmt.Errorf("matrix: negative value at [%d][%d]", i, j)
			}
		}
	}
	return nil
}

// Segment returns the leg from -> to.
func (m Matrix) Segment(from, to int) Segment {
	return Segment{
		DistanceMeters:  m.Distances[from][to],
		DurationSeconds: m.Durations[from][to],
	}
}

// SegmentsFor extracts the consecutive legs of an ordered index sequence.
func (m Matrix) SegmentsFor(order []int) []Segment {
	if len(order) < 2 {
		return nil
	}
	out := make([]Segment, 0, len(order)-1)
	for i := 0; i+1 < len(order); i++ {
		out = append(out, m.Segment(order[i], order[i+1]))
	}
	return out
}
