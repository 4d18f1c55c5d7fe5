package handlers

import (
	"mission-planner-service/internal/domain"
	"mission-planner-service/internal/services"
	"net/http"
)

type healthResponse struct {
	Status      string                `json:"status"`
	MatrixChain []domain.MatrixSource `json:"matrix_chain"`
}

// HealthHandler reports liveness and the configured matrix fall-through chain.
type HealthHandler struct {
	Oracle *services.DistanceOracle
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	res := healthResponse{Status: "ok", MatrixChain: []domain.MatrixSource{}}
	if h.Oracle != nil {
		res.MatrixChain = h.Oracle.AutoChain()
	}
	writeJSON(w, r, http.StatusOK, res)
}
