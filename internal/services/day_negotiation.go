package services

import (
	"errors"
	"fmt"
	"mission-planner-service/internal/domain"
)

// DayBudget is the caller's day-count request; zero fields are unset.
type DayBudget struct {
	DesiredDays int `json:"desired_days"`
	MaxDays     int `json:"max_days"`
}

type NegotiationMode string

const (
	NegotiationNatural    NegotiationMode = "natural"
	NegotiationCompressed NegotiationMode = "compressed"
	NegotiationStretched  NegotiationMode = "stretched"
)

type Negotiation struct {
	Itinerary   domain.Itinerary
	Mode        NegotiationMode
	OptimalDays int
	TargetDays  int
	Warnings    []string
	Infeasible  bool
}

// ExpandFunc expands one scheduling attempt; ExpandSchedule in production.
type ExpandFunc func(ExpandInput) (domain.Itinerary, error)

// NegotiateDays reconciles the natural day count with the budget. It first
// expands without a budget, then compresses toward a smaller target or
// stretches toward a larger one. Missing the target is reported through
// Warnings and Infeasible, never as an error.
func NegotiateDays(expand ExpandFunc, in ExpandInput, budget DayBudget) (Negotiation, error) {
	if budget.DesiredDays < 0 || budget.MaxDays < 0 {
		return Negotiation{}, errors.New("negotiate days: day budget must be >= 0")
	}
	if expand == nil {
		expand = ExpandSchedule
	}

	natural := in
	natural.Policy.MaxDays = 0
	natural.Policy.StretchDays = false

	it, err := expand(natural)
	if err != nil {
		return Negotiation{}, err
	}

	opt := it.Stats.TotalDays
	n := Negotiation{Itinerary: it, Mode: NegotiationNatural, OptimalDays: opt, TargetDays: opt}

	target := budget.DesiredDays
	if target > 0 && budget.MaxDays > 0 && target > budget.MaxDays {
		n.Warnings = append(n.Warnings, fmt.Sprintf("desired %d days exceeds maximum %d, using %d", target, budget.MaxDays, budget.MaxDays))
		target = budget.MaxDays
	}
	if target == 0 {
		if budget.MaxDays == 0 || opt <= budget.MaxDays {
			return n, nil
		}
		target = budget.MaxDays
	}
	n.TargetDays = target

	switch {
	case target < opt:
		attempt := in
		attempt.Policy.MaxDays = target
		attempt.Policy.StretchDays = false

		it, err := expand(attempt)
		if err != nil {
			return Negotiation{}, err
		}
		n.Itinerary, n.Mode = it, NegotiationCompressed

		if got := it.Stats.TotalDays; got > target {
			n.Infeasible = true
			n.Warnings = append(n.Warnings, fmt.Errorf("%w: needs %d days, budget is %d", domain.ErrInfeasibleDayBudget, got, target).Error())
		}

	case target > opt:
		attempt := in
		attempt.Policy.MaxDays = target
		attempt.Policy.StretchDays = true

		it, err := expand(attempt)
		if err != nil {
			return Negotiation{}, err
		}
		n.Itinerary, n.Mode = it, NegotiationStretched

		if got := it.Stats.TotalDays; got != target {
			n.Warnings = append(n.Warnings, fmt.Sprintf("stretched schedule spans %d days, %d requested", got, target))
		}
	}

	return n, nil
}
