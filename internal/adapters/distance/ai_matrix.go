package distance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"mission-planner-service/internal/domain"
	"mission-planner-service/internal/platform/obs"
	"mission-planner-service/internal/ports"
	"strings"
)

// AIMatrixProvider asks an LLM to estimate road durations and distances.
// It is the second link of the automatic matrix chain.
type AIMatrixProvider struct {
	gen ports.TextGenerator
}

func NewAIMatrixProvider(gen ports.TextGenerator) *AIMatrixProvider {
	return &AIMatrixProvider{gen: gen}
}

type aiMatrixAnswer struct {
	DurationsMinutes [][]float64 `json:"durations_minutes"`
	DistancesKm      [][]float64 `json:"distances_km"`
}

func (p *AIMatrixProvider) Matrix(ctx context.Context, points []domain.Coordinates) (_ domain.Matrix, err error) {
	defer obs.Time(ctx, "ai.Matrix")(&err)

	if p.gen == nil {
		return domain.Matrix{}, errors.New("ai matrix: no text generator configured")
	}

	n := len(points)
	if n == 0 {
		return domain.NewMatrix(0), nil
	}

	text, err := p.gen.GenerateText(ctx, matrixPrompt(points))
	if err != nil {
		return domain.Matrix{}, fmt.Errorf("ai matrix: generate: %w", err)
	}

	var ans aiMatrixAnswer
	if err := json.Unmarshal([]byte(cleanJSONBlock(text)), &ans); err != nil {
		return domain.Matrix{}, fmt.Errorf("ai matrix: decode answer: %w", err)
	}

	if len(ans.DurationsMinutes) != n || len(ans.DistancesKm) != n {
		return domain.Matrix{}, fmt.Errorf("ai matrix: expected %d rows, got durations=%d distances=%d", n, len(ans.DurationsMinutes), len(ans.DistancesKm))
	}

	m := domain.NewMatrix(n)
	for i := 0; i < n; i++ {
		if len(ans.DurationsMinutes[i]) != n || len(ans.DistancesKm[i]) != n {
			return domain.Matrix{}, fmt.Errorf("ai matrix: row %d: expected %d columns", i, n)
		}
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			mins, km := ans.DurationsMinutes[i][j], ans.DistancesKm[i][j]
			if mins < 0 || km < 0 || math.IsNaN(mins) || math.IsNaN(km) {
				return domain.Matrix{}, fmt.Errorf("ai matrix: invalid value at [%d][%d]", i, j)
			}
			m.Durations[i][j] = int(math.Round(mins * 60))
			m.Distances[i][j] = int(math.Round(km * 1000))
		}
	}

	return m, nil
}

func matrixPrompt(points []domain.Coordinates) string {
	var b strings.Builder
	b.WriteString("Estimate realistic road travel by car between the following points (longitude, latitude).\n")
	for i, p := range points {
		fmt.Fprintf(&b, "%d: %.5f, %.5f\n", i, p.Lon, p.Lat)
	}
	fmt.Fprintf(&b, "Answer with JSON only: {\"durations_minutes\": [[...]], \"distances_km\": [[...]]}, "+
		"two %dx%d matrices where row i, column j is the trip from point i to point j and the diagonal is 0.", len(points), len(points))
	return b.String()
}

func cleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimSuffix(text, "```")
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
	}
	return strings.TrimSpace(text)
}
