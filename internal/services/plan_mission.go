package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"mission-planner-service/internal/domain"
	"mission-planner-service/internal/platform/obs"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PlanMissionRequest describes one mission to plan. Budget is the only source
// of the day budget: Policy.MaxDays and Policy.StretchDays must be left zero.
type PlanMissionRequest struct {
	Sites        []domain.Site
	BaseLocation string
	StartDate    time.Time
	Policy       domain.Policy
	Budget       DayBudget
	MatrixMode   MatrixMode

	UseSolver       bool
	SolverTimeLimit time.Duration
	PreferOffline   bool

	Fuel FuelProfile
}

// MissionPlan is a fully scheduled mission. Sites and Coords are in visiting
// order; Order indexes the node list built from the request.
type MissionPlan struct {
	ID             string
	Sites          []domain.Site
	Coords         []domain.Coordinates
	Order          []int
	OrderMethod    OrderMethod
	Matrix         domain.Matrix
	MatrixSource   domain.MatrixSource
	MatrixAttempts []Attempt
	Segments       []domain.Segment

	Events []domain.ScheduleEvent
	Stats  domain.ScheduleStats

	Mode        NegotiationMode
	OptimalDays int
	TargetDays  int
	Warnings    []string
	Infeasible  bool

	StartDate    time.Time
	ReturnDate   time.Time
	CalendarDays int

	Fuel FuelEstimate
}

// Planner composes geocoding, matrix building, ordering and scheduling.
type Planner struct {
	Resolver *GeoResolver
	Oracle   *DistanceOracle
	Repairer SegmentRepairer
	SpeedKmh float64
}

// BuildNodes wraps the sites between synthetic base nodes, or appends a
// return node for the first site when there is no base.
func BuildNodes(sites []domain.Site, base string) []domain.Site {
	base = strings.TrimSpace(base)
	nodes := make([]domain.Site, 0, len(sites)+2)
	if base != "" {
		nodes = append(nodes, domain.BaseNode(base))
		nodes = append(nodes, sites...)
		return append(nodes, domain.BaseNode(base))
	}
	nodes = append(nodes, sites...)
	return append(nodes, domain.ReturnNode(sites[0]))
}

// PlanMission turns unordered sites into a scheduled mission.
func (p *Planner) PlanMission(ctx context.Context, req PlanMissionRequest) (_ *MissionPlan, err error) {
	defer obs.Time(ctx, "planner.PlanMission")(&err)

	if err := domain.ValidateSites(req.Sites); err != nil {
		return nil, err
	}
	if p.Resolver == nil || p.Oracle == nil {
		return nil, errors.New("plan mission: planner is not configured")
	}

	policy := req.Policy
	if policy.MaxDays != 0 || policy.StretchDays {
		return nil, fmt.Errorf("plan mission: %w: max_days and stretch_days come from the day budget", domain.ErrInvalidPolicy)
	}
	if base := strings.TrimSpace(req.BaseLocation); base != "" {
		policy.BaseLocation = base
	}
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("plan mission: %w", err)
	}

	start := req.StartDate
	if start.IsZero() {
		start = time.Now()
	}

	nodes := BuildNodes(req.Sites, policy.BaseLocation)
	cities := make([]string, len(nodes))
	for i, n := range nodes {
		cities[i] = n.City
	}

	coords, err := p.Resolver.PreferringOffline(req.PreferOffline).ResolveAll(ctx, cities)
	if err != nil {
		return nil, err
	}

	mres, err := p.Oracle.Matrix(ctx, coords, req.MatrixMode)
	if err != nil {
		return nil, err
	}

	service := make([]int, len(nodes))
	for i, n := range nodes {
		service[i] = int(hoursToDuration(n.VisitDurationHours) / time.Second)
	}
	ordered := OrderRoute(mres.Matrix.Durations, OrderOptions{
		UseSolver:       req.UseSolver,
		SolverTimeLimit: req.SolverTimeLimit,
		ServiceSeconds:  service,
	})

	oSites := make([]domain.Site, len(ordered.Order))
	oCoords := make([]domain.Coordinates, len(ordered.Order))
	for i, idx := range ordered.Order {
		oSites[i] = nodes[idx]
		oCoords[i] = coords[idx]
	}

	segments, err := p.Repairer.RepairSegments(ctx, oCoords, mres.Matrix.SegmentsFor(ordered.Order))
	if err != nil {
		return nil, fmt.Errorf("plan mission: %w", err)
	}

	neg, err := NegotiateDays(ExpandSchedule, ExpandInput{
		Sites:     oSites,
		Coords:    oCoords,
		Segments:  segments,
		StartDate: start,
		Policy:    policy,
		SpeedKmh:  p.SpeedKmh,
	}, req.Budget)
	if err != nil {
		return nil, fmt.Errorf("plan mission: %w", err)
	}

	warnings := neg.Warnings
	if ordered.SolverErr != nil {
		warnings = append(warnings, "solver unavailable, heuristic order used: "+ordered.SolverErr.Error())
	}

	plan := &MissionPlan{
		ID:             uuid.NewString(),
		Sites:          oSites,
		Coords:         oCoords,
		Order:          ordered.Order,
		OrderMethod:    ordered.Method,
		Matrix:         mres.Matrix,
		MatrixSource:   mres.Source,
		MatrixAttempts: mres.Attempts,
		Segments:       segments,
		Events:         neg.Itinerary.Events,
		Stats:          neg.Itinerary.Stats,
		Mode:           neg.Mode,
		OptimalDays:    neg.OptimalDays,
		TargetDays:     neg.TargetDays,
		Warnings:       warnings,
		Infeasible:     neg.Infeasible,
		StartDate:      start,
		Fuel:           EstimateFuel(neg.Itinerary.Stats.TotalKm, req.Fuel),
	}
	plan.ReturnDate, plan.CalendarDays = missionDates(start, neg.Itinerary.Events)

	log.Printf("op=plan_mission id=%s nodes=%d source=%s method=%s days=%d km=%.1f",
		plan.ID, len(nodes), plan.MatrixSource, plan.OrderMethod, plan.Stats.TotalDays, plan.Stats.TotalKm)

	return plan, nil
}

// missionDates returns the date of the last event and the number of calendar
// dates from departure to return, both included.
func missionDates(start time.Time, events []domain.ScheduleEvent) (time.Time, int) {
	if len(events) == 0 {
		return start, 1
	}
	last := events[len(events)-1].End

	y, m, d := start.Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	y, m, d = last.Date()
	to := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	return to, int(to.Sub(from).Hours()/24) + 1
}

// ErrInvalidReschedule marks a reschedule request whose order, coordinates
// or legs do not line up with its sites.
var ErrInvalidReschedule = errors.New("invalid reschedule request")

// RescheduleRequest re-expands a route the caller has already ordered.
// Sites and Coords are node-indexed; Order is a permutation of those nodes.
// Legs come from Matrix when given, otherwise from Segments aligned with
// Order. Missing legs are repaired.
type RescheduleRequest struct {
	Order     []int
	Sites     []domain.Site
	Coords    []domain.Coordinates
	Segments  []domain.Segment
	Matrix    *domain.Matrix
	StartDate time.Time
	Policy    domain.Policy
}

// Reschedule expands a caller-provided order without geocoding or reordering.
func (p *Planner) Reschedule(ctx context.Context, req RescheduleRequest) (_ domain.Itinerary, err error) {
	defer obs.Time(ctx, "planner.Reschedule")(&err)

	n := len(req.Sites)
	if err := checkPermutation(req.Order, n); err != nil {
		return domain.Itinerary{}, fmt.Errorf("reschedule: %w: %w", ErrInvalidReschedule, err)
	}
	if len(req.Coords) != n {
		return domain.Itinerary{}, fmt.Errorf("reschedule: %w: %d coordinates for %d sites", ErrInvalidReschedule, len(req.Coords), n)
	}

	oSites := make([]domain.Site, n)
	oCoords := make([]domain.Coordinates, n)
	for i, idx := range req.Order {
		oSites[i] = req.Sites[idx]
		oCoords[i] = req.Coords[idx]
	}

	var segments []domain.Segment
	switch {
	case req.Matrix != nil:
		if err := req.Matrix.Validate(n); err != nil {
			return domain.Itinerary{}, fmt.Errorf("reschedule: %w: %w", ErrInvalidReschedule, err)
		}
		segments = req.Matrix.SegmentsFor(req.Order)
	case len(req.Segments) == 0:
		segments = make([]domain.Segment, n-1)
	case len(req.Segments) == n-1:
		segments = req.Segments
	default:
		return domain.Itinerary{}, fmt.Errorf("reschedule: %w: %d segments for %d sites", ErrInvalidReschedule, len(req.Segments), n)
	}

	segments, err = p.Repairer.RepairSegments(ctx, oCoords, segments)
	if err != nil {
		return domain.Itinerary{}, fmt.Errorf("reschedule: %w", err)
	}

	return ExpandSchedule(ExpandInput{
		Sites:     oSites,
		Coords:    oCoords,
		Segments:  segments,
		StartDate: req.StartDate,
		Policy:    req.Policy,
		SpeedKmh:  p.SpeedKmh,
	})
}

func checkPermutation(order []int, n int) error {
	if n == 0 {
		return errors.New("no sites")
	}
	if len(order) != n {
		return fmt.Errorf("order has %d entries for %d sites", len(order), n)
	}
	seen := make([]bool, n)
	for _, idx := range order {
		if idx < 0 || idx >= n || seen[idx] {
			return fmt.Errorf("order is not a permutation: index %d", idx)
		}
		seen[idx] = true
	}
	return nil
}
