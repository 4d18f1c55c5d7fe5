package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidPolicy = errors.New("invalid schedule policy")
	// ErrInfeasibleDayBudget is attached to negotiation warnings, never returned.
	ErrInfeasibleDayBudget = errors.New("day budget cannot be met")
	ErrSegmentDataMissing  = errors.New("segment data missing")
	ErrEmptyCity           = errors.New("city must be non-empty")
)

// GeocodeFailure reports a city that no provider could resolve.
type GeocodeFailure struct {
	City string
	Err  error
}

func (e *GeocodeFailure) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("geocode %q: unresolved", e.City)
	}
	return fmt.Sprintf("geocode %q: %v", e.City, e.Err)
}

func (e *GeocodeFailure) Unwrap() error { return e.Err }

// GeocodeFailures groups every unresolved city of one planning request.
type GeocodeFailures []*GeocodeFailure

func (f GeocodeFailures) Error() string {
	parts := make([]string, 0, len(f))
	for _, e := range f {
		parts = append(parts, e.Error())
	}
	return strings.Join(parts, "; ")
}

// MatrixProviderFailure reports an exhausted matrix provider chain.
type MatrixProviderFailure struct {
	Source MatrixSource
	Err    error
}

func (e *MatrixProviderFailure) Error() string {
	return fmt.Sprintf("matrix provider %s: %v", e.Source, e.Err)
}

func (e *MatrixProviderFailure) Unwrap() error { return e.Err }

type SiteError struct {
	Row    int    `json:"row"`
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// InvalidSiteData lists every offending site row.
type InvalidSiteData struct {
	Rows []SiteError
}

func (e *InvalidSiteData) Error() string {
	parts := make([]string, 0, len(e.Rows))
	for _, r := range e.Rows {
		parts = append(parts, fmt.Sprintf("row %d %s: %s", r.Row, r.Field, r.Reason))
	}
	return "invalid site data: " + strings.Join(parts, "; ")
}
