package domain

import (
	"fmt"
	"strings"
	"time"
)

// FormatTravelDuration renders "1h05" from one hour up, "45 min" below.
func FormatTravelDuration(d time.Duration) string {
	d = d.Round(time.Minute)
	if d >= time.Hour {
		h := int(d / time.Hour)
		m := int((d % time.Hour) / time.Minute)
		return fmt.Sprintf("%dh%02d", h, m)
	}
	return fmt.Sprintf("%d min", int(d/time.Minute))
}

func travelLabel(d TravelDetail) string {
	dur := FormatTravelDuration(time.Duration(d.DurationSeconds) * time.Second)
	if d.Continued {
		return fmt.Sprintf("%s → %s (continued, %s, %.1f km)", d.From, d.To, dur, d.DistanceKm)
	}
	return fmt.Sprintf("%s → %s (%s, %.1f km)", d.From, d.To, dur, d.DistanceKm)
}

func visitLabel(d VisitDetail) string {
	what := strings.TrimSpace(d.Activity)
	if what == "" {
		what = strings.TrimSpace(d.Kind)
	}
	if what == "" {
		what = "Visit"
	}

	var b strings.Builder
	if d.Continued {
		fmt.Fprintf(&b, "Continuation of %s at %s", what, d.City)
	} else {
		fmt.Fprintf(&b, "%s: %s", d.City, what)
	}

	switch {
	case d.Truncated:
		b.WriteString(" (truncated)")
	case d.Interrupted:
		b.WriteString(" (interrupted, no lodging possible)")
	case d.ToContinue:
		b.WriteString(" (to continue)")
	}
	return b.String()
}

func breakLabel(d BreakDetail) string {
	switch {
	case d.Merged:
		return "Lunch and prayer break"
	case d.Kind == BreakPrayer:
		return "Prayer break"
	default:
		return "Lunch break"
	}
}
