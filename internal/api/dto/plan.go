package dto

import (
	"encoding/json"
	"mission-planner-service/internal/domain"
	"mission-planner-service/internal/services"
)

type SiteRequest struct {
	City               string  `json:"city"`
	Kind               string  `json:"kind"`
	Activity           string  `json:"activity"`
	VisitDurationHours float64 `json:"visit_duration_hours"`
	MayContinueNextDay bool    `json:"may_continue_next_day"`
	// OvernightAllowed defaults to true when omitted.
	OvernightAllowed *bool `json:"overnight_allowed"`
}

func (s SiteRequest) ToDomain() domain.Site {
	overnight := true
	if s.OvernightAllowed != nil {
		overnight = *s.OvernightAllowed
	}
	return domain.Site{
		City:               s.City,
		Kind:               s.Kind,
		Activity:           s.Activity,
		VisitDurationHours: s.VisitDurationHours,
		MayContinueNextDay: s.MayContinueNextDay,
		OvernightAllowed:   overnight,
	}
}

func SitesToDomain(in []SiteRequest) []domain.Site {
	out := make([]domain.Site, 0, len(in))
	for _, s := range in {
		out = append(out, s.ToDomain())
	}
	return out
}

type PlanRequest struct {
	Sites        []SiteRequest `json:"sites"`
	BaseLocation string        `json:"base_location"`
	// StartDate is "2006-01-02" or RFC 3339; today when empty.
	StartDate string `json:"start_date"`
	// Policy fields override the service defaults one by one.
	Policy      json.RawMessage `json:"policy"`
	DesiredDays int             `json:"desired_days"`
	MaxDays     int             `json:"max_days"`
	MatrixMode  string          `json:"matrix_mode"`

	UseSolver              bool    `json:"use_solver"`
	SolverTimeLimitSeconds float64 `json:"solver_time_limit_seconds"`
	PreferOffline          bool    `json:"prefer_offline"`

	Fuel   *services.FuelProfile `json:"fuel"`
	Report bool                  `json:"report"`
}

type PlanResponse struct {
	ID             string                 `json:"id"`
	Events         []domain.ScheduleEvent `json:"events"`
	Stats          domain.ScheduleStats   `json:"stats"`
	Order          []int                  `json:"order"`
	OrderMethod    services.OrderMethod   `json:"order_method"`
	Sites          []domain.Site          `json:"sites"`
	Coords         []domain.Coordinates   `json:"coords"`
	Matrix         domain.Matrix          `json:"distance_matrix"`
	MatrixSource   domain.MatrixSource    `json:"matrix_source"`
	MatrixAttempts []services.Attempt     `json:"matrix_attempts,omitempty"`

	Mode        services.NegotiationMode `json:"negotiation"`
	OptimalDays int                      `json:"optimal_days"`
	TargetDays  int                      `json:"target_days"`
	Warnings    []string                 `json:"warnings"`
	Infeasible  bool                     `json:"infeasible"`

	StartDate    string `json:"start_date"`
	ReturnDate   string `json:"return_date"`
	CalendarDays int    `json:"calendar_days"`

	Fuel   services.FuelEstimate `json:"fuel"`
	Report string                `json:"report,omitempty"`
}

const dateLayout = "2006-01-02"

func NewPlanResponse(p *services.MissionPlan) PlanResponse {
	warnings := p.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return PlanResponse{
		ID:             p.ID,
		Events:         p.Events,
		Stats:          p.Stats,
		Order:          p.Order,
		OrderMethod:    p.OrderMethod,
		Sites:          p.Sites,
		Coords:         p.Coords,
		Matrix:         p.Matrix,
		MatrixSource:   p.MatrixSource,
		MatrixAttempts: p.MatrixAttempts,
		Mode:           p.Mode,
		OptimalDays:    p.OptimalDays,
		TargetDays:     p.TargetDays,
		Warnings:       warnings,
		Infeasible:     p.Infeasible,
		StartDate:      p.StartDate.Format(dateLayout),
		ReturnDate:     p.ReturnDate.Format(dateLayout),
		CalendarDays:   p.CalendarDays,
		Fuel:           p.Fuel,
	}
}

type RescheduleRequest struct {
	Order     []int                `json:"order"`
	Sites     []SiteRequest        `json:"sites"`
	Coords    []domain.Coordinates `json:"coords"`
	Segments  []domain.Segment     `json:"segments"`
	Matrix    *domain.Matrix       `json:"distance_matrix"`
	StartDate string               `json:"start_date"`
	Policy    json.RawMessage      `json:"policy"`
}

type RescheduleResponse struct {
	Events []domain.ScheduleEvent `json:"events"`
	Stats  domain.ScheduleStats   `json:"stats"`
}

type ErrorResponse struct {
	Error  string             `json:"error"`
	Rows   []domain.SiteError `json:"rows,omitempty"`
	Cities []string           `json:"cities,omitempty"`
}
