package domain

// ScheduleStats are the aggregates of an event list.
type ScheduleStats struct {
	TotalDays       int     `json:"total_days"`
	TotalKm         float64 `json:"total_km"`
	TotalVisitHours float64 `json:"total_visit_hours"`
}

// Itinerary is the output of schedule expansion.
type Itinerary struct {
	Events []ScheduleEvent `json:"events"`
	Stats  ScheduleStats   `json:"stats"`
}

// RecountStats recomputes the aggregates from travel and visit events only.
func RecountStats(events []ScheduleEvent) ScheduleStats {
	var st ScheduleStats
	for _, e := range events {
		if e.Day > st.TotalDays {
			st.TotalDays = e.Day
		}
		switch e.Kind {
		case EventTravel:
			if e.Travel != nil {
				st.TotalKm += e.Travel.DistanceKm
			}
		case EventVisit:
			if e.Visit != nil {
				st.TotalVisitHours += e.Visit.Hours
			}
		}
	}
	return st
}

// CountKind returns how many events of kind k occur on the given day;
// day 0 counts across all days.
func (it Itinerary) CountKind(k EventKind, day int) int {
	n := 0
	for _, e := range it.Events {
		if e.Kind == k && (day == 0 || e.Day == day) {
			n++
		}
	}
	return n
}
