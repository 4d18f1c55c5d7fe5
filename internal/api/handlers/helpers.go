package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"mission-planner-service/internal/api/dto"
	"mission-planner-service/internal/domain"
	"mission-planner-service/internal/platform/obs"
	"net/http"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode failed: method=%s path=%s err=%v", r.Method, r.URL.Path, err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, dto.ErrorResponse{Error: msg})
}

// decodeBody reads exactly one JSON object with no unknown fields.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		return errors.New("invalid json body")
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("body must contain only one JSON object")
	}
	return nil
}

func requirePost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	return true
}

// writeServiceError maps domain failures onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var (
		invalid  *domain.InvalidSiteData
		failures domain.GeocodeFailures
		geocode  *domain.GeocodeFailure
		provider *domain.MatrixProviderFailure
	)

	switch {
	case errors.As(err, &invalid):
		writeJSON(w, r, http.StatusUnprocessableEntity, dto.ErrorResponse{Error: "invalid site data", Rows: invalid.Rows})
	case errors.As(err, &failures):
		cities := make([]string, 0, len(failures))
		for _, f := range failures {
			cities = append(cities, f.City)
		}
		writeJSON(w, r, http.StatusUnprocessableEntity, dto.ErrorResponse{Error: failures.Error(), Cities: cities})
	case errors.As(err, &geocode):
		writeJSON(w, r, http.StatusUnprocessableEntity, dto.ErrorResponse{Error: geocode.Error(), Cities: []string{geocode.City}})
	case errors.As(err, &provider):
		writeError(w, r, http.StatusBadGateway, provider.Error())
	case errors.Is(err, domain.ErrInvalidPolicy):
		writeError(w, r, http.StatusBadRequest, err.Error())
	default:
		log.Printf("req_id=%s op=%s err=%v", obs.RequestID(r.Context()), op, err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}
