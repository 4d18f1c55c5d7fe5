package services

import (
	"context"
	"errors"
	"fmt"
	"mission-planner-service/internal/domain"
	"mission-planner-service/internal/platform/obs"
	"mission-planner-service/internal/ports"
	"strings"
)

// GenerateReport asks a text generator for a short narrative summary of a
// planned mission. The generator only sees event labels and totals.
func GenerateReport(ctx context.Context, gen ports.TextGenerator, plan *MissionPlan) (_ string, err error) {
	if gen == nil {
		return "", errors.New("generate report: no text generator configured")
	}
	if plan == nil {
		return "", errors.New("generate report: nil plan")
	}
	defer obs.Time(ctx, "report.Generate")(&err)

	text, err := gen.GenerateText(ctx, reportPrompt(plan))
	if err != nil {
		return "", fmt.Errorf("generate report: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func reportPrompt(plan *MissionPlan) string {
	var b strings.Builder

	b.WriteString("You write concise field mission summaries for logistics officers.\n")
	b.WriteString("Summarize the itinerary below in at most 8 sentences: route, number of days, ")
	b.WriteString("notable overnights or relocations, and the fuel estimate. Do not invent events.\n\n")

	fmt.Fprintf(&b, "Days: %d (optimal %d, target %d)\n", plan.Stats.TotalDays, plan.OptimalDays, plan.TargetDays)
	fmt.Fprintf(&b, "Distance: %.1f km\n", plan.Stats.TotalKm)
	fmt.Fprintf(&b, "Visit hours: %.1f\n", plan.Stats.TotalVisitHours)
	fmt.Fprintf(&b, "Fuel: %.1f L, %.0f %s, %.1f kg CO2\n", plan.Fuel.Liters, plan.Fuel.Cost, plan.Fuel.Currency, plan.Fuel.CO2Kg)
	if n := CountRelocations(plan.Events); n > 0 {
		fmt.Fprintf(&b, "Relocations: %d\n", n)
	}
	for _, w := range plan.Warnings {
		fmt.Fprintf(&b, "Warning: %s\n", w)
	}

	b.WriteString("\nEvents:\n")
	day := 0
	for _, e := range plan.Events {
		if e.Day != day {
			day = e.Day
			fmt.Fprintf(&b, "Day %d (%s)\n", day, e.Start.Format("Mon 2006-01-02"))
		}
		if e.Kind.IsMarker() {
			fmt.Fprintf(&b, "  %s %s\n", e.Start.Format("15:04"), e.Label)
			continue
		}
		fmt.Fprintf(&b, "  %s-%s %s\n", e.Start.Format("15:04"), e.End.Format("15:04"), e.Label)
	}

	return b.String()
}

// CountRelocations returns how many forced relocations the itinerary holds.
func CountRelocations(events []domain.ScheduleEvent) int {
	return domain.Itinerary{Events: events}.CountKind(domain.EventRelocationWarning, 0)
}
