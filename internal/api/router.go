package api

import (
	"mission-planner-service/internal/api/handlers"
	"net/http"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// Handlers only see services and ports, never concrete adapters.
func NewRouter(plans *handlers.PlanHandler) http.Handler {
	mux := http.NewServeMux()

	health := &handlers.HealthHandler{}
	if plans.Planner != nil {
		health.Oracle = plans.Planner.Oracle
	}

	mux.HandleFunc("/health", health.Health)
	mux.HandleFunc("/plans", plans.Plan)
	mux.HandleFunc("/plans/reschedule", plans.Reschedule)

	return requestIDMiddleware(loggingMiddleware(mux))
}
