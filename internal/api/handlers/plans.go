package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"mission-planner-service/internal/api/dto"
	"mission-planner-service/internal/domain"
	"mission-planner-service/internal/ports"
	"mission-planner-service/internal/services"
	"net/http"
	"strings"
	"time"
)

const maxSolverTimeLimit = 60 * time.Second

type PlanHandler struct {
	Planner     *services.Planner
	Policy      domain.Policy
	Fuel        services.FuelProfile
	Reporter    ports.TextGenerator
	DefaultBase string
	Location    *time.Location
	Now         func() time.Time
}

// Plan geocodes, orders and schedules a mission in one call.
func (h *PlanHandler) Plan(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req dto.PlanRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if len(req.Sites) == 0 {
		writeError(w, r, http.StatusBadRequest, "sites is required")
		return
	}
	if req.DesiredDays < 0 || req.MaxDays < 0 {
		writeError(w, r, http.StatusBadRequest, "desired_days and max_days must be >= 0")
		return
	}
	if req.SolverTimeLimitSeconds < 0 || time.Duration(req.SolverTimeLimitSeconds*float64(time.Second)) > maxSolverTimeLimit {
		writeError(w, r, http.StatusBadRequest, "solver_time_limit_seconds must be between 0 and 60")
		return
	}

	mode, err := services.ParseMatrixMode(req.MatrixMode)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	policy, err := h.policy(req.Policy)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	start, err := h.startDate(req.StartDate)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	base := strings.TrimSpace(req.BaseLocation)
	if base == "" {
		base = strings.TrimSpace(policy.BaseLocation)
	}
	if base == "" {
		base = strings.TrimSpace(h.DefaultBase)
	}

	fuel := h.Fuel
	if req.Fuel != nil {
		fuel = *req.Fuel
	}

	plan, err := h.Planner.PlanMission(r.Context(), services.PlanMissionRequest{
		Sites:           dto.SitesToDomain(req.Sites),
		BaseLocation:    base,
		StartDate:       start,
		Policy:          policy,
		Budget:          services.DayBudget{DesiredDays: req.DesiredDays, MaxDays: req.MaxDays},
		MatrixMode:      mode,
		UseSolver:       req.UseSolver,
		SolverTimeLimit: time.Duration(req.SolverTimeLimitSeconds * float64(time.Second)),
		PreferOffline:   req.PreferOffline,
		Fuel:            fuel,
	})
	if err != nil {
		writeServiceError(w, r, "plan mission", err)
		return
	}

	res := dto.NewPlanResponse(plan)
	if req.Report && h.Reporter != nil {
		text, err := services.GenerateReport(r.Context(), h.Reporter, plan)
		if err != nil {
			log.Printf("op=plan.report id=%s err=%v", plan.ID, err)
			res.Warnings = append(res.Warnings, "report unavailable")
		} else {
			res.Report = text
		}
	}

	writeJSON(w, r, http.StatusOK, res)
}

// Reschedule re-expands an order the caller already chose.
func (h *PlanHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req dto.RescheduleRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	sites := dto.SitesToDomain(req.Sites)
	if err := domain.ValidateSites(sites); err != nil {
		writeServiceError(w, r, "reschedule", err)
		return
	}
	policy, err := h.policy(req.Policy)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	start, err := h.startDate(req.StartDate)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	it, err := h.Planner.Reschedule(r.Context(), services.RescheduleRequest{
		Order:     req.Order,
		Sites:     sites,
		Coords:    req.Coords,
		Segments:  req.Segments,
		Matrix:    req.Matrix,
		StartDate: start,
		Policy:    policy,
	})
	if err != nil {
		if errors.Is(err, services.ErrInvalidReschedule) {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		writeServiceError(w, r, "reschedule", err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.RescheduleResponse{Events: it.Events, Stats: it.Stats})
}

// policy overlays the request's policy fields on the configured defaults.
func (h *PlanHandler) policy(raw json.RawMessage) (domain.Policy, error) {
	p := h.Policy
	if p.Lunch != nil {
		l := *p.Lunch
		p.Lunch = &l
	}
	if p.Prayer != nil {
		pr := *p.Prayer
		p.Prayer = &pr
	}

	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &p); err != nil {
			return domain.Policy{}, fmt.Errorf("invalid policy: %v", err)
		}
	}
	if err := p.Validate(); err != nil {
		return domain.Policy{}, err
	}
	return p, nil
}

func (h *PlanHandler) startDate(s string) (time.Time, error) {
	loc := h.Location
	if loc == nil {
		loc = time.UTC
	}

	s = strings.TrimSpace(s)
	if s == "" {
		now := time.Now
		if h.Now != nil {
			now = h.Now
		}
		y, m, d := now().In(loc).Date()
		return time.Date(y, m, d, 0, 0, 0, 0, loc), nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("start_date %q must be YYYY-MM-DD or RFC 3339", s)
}
