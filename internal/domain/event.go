package domain

import (
	"fmt"
	"time"
)

// EventKind tags which payload of a ScheduleEvent is populated.
type EventKind int

const (
	EventTravel EventKind = iota + 1
	EventVisit
	EventBreak
	EventDayEnd
	EventOvernight
	EventRelocationWarning
	EventWeekendSkip
	EventMissionEnd
)

var eventKindNames = map[EventKind]string{
	EventTravel:            "travel",
	EventVisit:             "visit",
	EventBreak:             "break",
	EventDayEnd:            "day_end",
	EventOvernight:         "overnight",
	EventRelocationWarning: "relocation_warning",
	EventWeekendSkip:       "weekend_skip",
	EventMissionEnd:        "mission_end",
}

func (k EventKind) String() string {
	if s, ok := eventKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("event_kind(%d)", int(k))
}

func (k EventKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *EventKind) UnmarshalText(b []byte) error {
	for kind, name := range eventKindNames {
		if name == string(b) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown event kind %q", string(b))
}

// IsMarker reports whether events of this kind are zero-duration markers.
func (k EventKind) IsMarker() bool {
	switch k {
	case EventDayEnd, EventOvernight, EventRelocationWarning, EventWeekendSkip, EventMissionEnd:
		return true
	}
	return false
}

type BreakKind int

const (
	BreakLunch BreakKind = iota + 1
	BreakPrayer
)

func (k BreakKind) String() string {
	switch k {
	case BreakLunch:
		return "lunch"
	case BreakPrayer:
		return "prayer"
	}
	return fmt.Sprintf("break_kind(%d)", int(k))
}

func (k BreakKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *BreakKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "lunch":
		*k = BreakLunch
	case "prayer":
		*k = BreakPrayer
	default:
		return fmt.Errorf("unknown break kind %q", string(b))
	}
	return nil
}

// TravelDetail describes one travel piece. A leg split by a break or a day
// boundary yields several pieces; their DistanceKm add up to the leg distance.
type TravelDetail struct {
	From            string  `json:"from"`
	To              string  `json:"to"`
	DistanceKm      float64 `json:"distance_km"`
	DurationSeconds int     `json:"duration_seconds"`
	Continued       bool    `json:"continued"`
}

type VisitDetail struct {
	City        string  `json:"city"`
	Kind        string  `json:"kind"`
	Activity    string  `json:"activity"`
	Hours       float64 `json:"hours"`
	Continued   bool    `json:"continued"`
	ToContinue  bool    `json:"to_continue"`
	Interrupted bool    `json:"interrupted"`
	Truncated   bool    `json:"truncated"`
}

// BreakDetail: Merged marks a lunch that also covers the day's prayer.
type BreakDetail struct {
	Kind   BreakKind `json:"kind"`
	Merged bool      `json:"merged"`
}

// PlaceDetail locates Overnight and MissionEnd markers. Fallback is set when
// the overnight city was found by searching past the current site.
type PlaceDetail struct {
	City     string `json:"city"`
	Fallback bool   `json:"fallback,omitempty"`
}

type RelocationDetail struct {
	City        string `json:"city"`
	LodgingCity string `json:"lodging_city"`
}

type SkipDetail struct {
	Scope string `json:"scope"`
}

// ScheduleEvent is one entry of an itinerary. Exactly one payload pointer
// matching Kind is set; DayEnd carries none.
type ScheduleEvent struct {
	Day   int       `json:"day"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Kind  EventKind `json:"kind"`
	Label string    `json:"label"`

	Travel     *TravelDetail     `json:"travel,omitempty"`
	Visit      *VisitDetail      `json:"visit,omitempty"`
	Break      *BreakDetail      `json:"break,omitempty"`
	Place      *PlaceDetail      `json:"place,omitempty"`
	Relocation *RelocationDetail `json:"relocation,omitempty"`
	Skip       *SkipDetail       `json:"skip,omitempty"`
}

func (e ScheduleEvent) Duration() time.Duration { return e.End.Sub(e.Start) }

func NewTravelEvent(day int, start, end time.Time, d TravelDetail) ScheduleEvent {
	return ScheduleEvent{Day: day, Start: start, End: end, Kind: EventTravel, Label: travelLabel(d), Travel: &d}
}

func NewVisitEvent(day int, start, end time.Time, d VisitDetail) ScheduleEvent {
	return ScheduleEvent{Day: day, Start: start, End: end, Kind: EventVisit, Label: visitLabel(d), Visit: &d}
}

func NewBreakEvent(day int, start, end time.Time, d BreakDetail) ScheduleEvent {
	return ScheduleEvent{Day: day, Start: start, End: end, Kind: EventBreak, Label: breakLabel(d), Break: &d}
}

func NewDayEndEvent(day int, at time.Time) ScheduleEvent {
	return ScheduleEvent{Day: day, Start: at, End: at, Kind: EventDayEnd, Label: fmt.Sprintf("End of day %d", day)}
}

func NewOvernightEvent(day int, at time.Time, d PlaceDetail) ScheduleEvent {
	return ScheduleEvent{Day: day, Start: at, End: at, Kind: EventOvernight, Label: "Overnight in " + d.City, Place: &d}
}

func NewRelocationEvent(day int, at time.Time, d RelocationDetail) ScheduleEvent {
	return ScheduleEvent{
		Day:        day,
		Start:      at,
		End:        at,
		Kind:       EventRelocationWarning,
		Label:      fmt.Sprintf("No lodging in %s, relocate to %s", d.City, d.LodgingCity),
		Relocation: &d,
	}
}

func NewWeekendSkipEvent(day int, at time.Time, d SkipDetail) ScheduleEvent {
	return ScheduleEvent{Day: day, Start: at, End: at, Kind: EventWeekendSkip, Label: "Weekend, " + d.Scope + " skipped", Skip: &d}
}

func NewMissionEndEvent(day int, at time.Time, d PlaceDetail) ScheduleEvent {
	return ScheduleEvent{Day: day, Start: at, End: at, Kind: EventMissionEnd, Label: d.City + ": mission end", Place: &d}
}
