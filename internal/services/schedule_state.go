package services

import (
	"fmt"
	"mission-planner-service/internal/domain"
	"mission-planner-service/internal/geo"
	"time"
)

// maxScheduleDays bounds expansion so a pathological policy cannot loop forever.
const maxScheduleDays = 366

const (
	scopeTravel     = "travel"
	scopeActivities = "activities"
)

// schedulerState is the mutable cursor of one expansion run.
type schedulerState struct {
	p        domain.Policy
	sites    []domain.Site
	segments []domain.Segment

	cur time.Time
	day int
	// date is midnight of the current day; cur may run past it to 24:00.
	date         time.Time
	dayTravelEnd time.Time

	lunchDone  map[int]bool
	prayerDone map[int]bool

	totalKm         float64
	totalVisitHours float64

	// dayWork is the travel and visit time logged on the current day.
	dayWork   time.Duration
	workQuota time.Duration

	events []domain.ScheduleEvent
	err    error
}

func newSchedulerState(in ExpandInput, segments []domain.Segment) *schedulerState {
	p := in.Policy
	date := domain.ClockTime(0).On(in.StartDate)
	start := p.StartTravel.On(date)

	s := &schedulerState{
		p:            p,
		sites:        in.Sites,
		segments:     segments,
		cur:          start,
		day:          1,
		date:         date,
		dayTravelEnd: p.EndTravel.On(date),
		lunchDone:    make(map[int]bool),
		prayerDone:   make(map[int]bool),
	}

	if p.StretchDays && p.MaxDays > 0 {
		var total time.Duration
		for _, seg := range segments {
			total += time.Duration(seg.DurationSeconds) * time.Second
		}
		for _, site := range in.Sites {
			total += hoursToDuration(site.VisitDurationHours)
		}
		s.workQuota = total / time.Duration(p.MaxDays)
	}
	return s
}

func hoursToDuration(h float64) time.Duration {
	if h <= 0 {
		return 0
	}
	return time.Duration(h*3600+0.5) * time.Second
}

func (s *schedulerState) emit(e domain.ScheduleEvent) {
	s.events = append(s.events, e)
}

// rollDay moves the cursor to the next calendar date at the resume clock.
func (s *schedulerState) rollDay(resume domain.ClockTime) {
	y, m, d := s.date.Date()
	next := time.Date(y, m, d+1, 0, 0, 0, 0, s.date.Location())

	s.day++
	s.date = next
	s.cur = resume.On(next)
	s.dayTravelEnd = s.p.EndTravel.On(next)
	s.dayWork = 0

	if s.day > maxScheduleDays {
		s.err = fmt.Errorf("expand schedule: exceeded %d days", maxScheduleDays)
	}
}

// closeDay ends the current day with the overnight placed for site idx and
// resumes on the next date.
func (s *schedulerState) closeDay(idx int, resume domain.ClockTime) {
	s.emit(domain.NewDayEndEvent(s.day, s.cur))
	s.placeOvernight(idx)
	s.rollDay(resume)
}

// placeOvernight emits the overnight marker for a stop at site idx. When the
// site forbids overnights, the next site allowing one is used, then the base.
func (s *schedulerState) placeOvernight(idx int) {
	site := s.sites[idx]
	if site.OvernightAllowed {
		s.emit(domain.NewOvernightEvent(s.day, s.cur, domain.PlaceDetail{City: site.City}))
		return
	}

	lodging := s.lodgingAfter(idx)
	s.emit(domain.NewRelocationEvent(s.day, s.cur, domain.RelocationDetail{City: site.City, LodgingCity: lodging}))
	s.emit(domain.NewOvernightEvent(s.day, s.cur, domain.PlaceDetail{City: lodging, Fallback: true}))
}

func (s *schedulerState) lodgingAfter(idx int) string {
	for j := idx + 1; j < len(s.sites); j++ {
		if s.sites[j].OvernightAllowed {
			return s.sites[j].City
		}
	}
	if s.p.BaseLocation != "" {
		return s.p.BaseLocation
	}
	return s.sites[idx].City
}

// skipWeekend emits one skip marker per weekend day and resumes on the first
// weekday.
func (s *schedulerState) skipWeekend(scope string, resume domain.ClockTime) {
	for s.err == nil && domain.IsWeekend(s.date) {
		s.emit(domain.NewWeekendSkipEvent(s.day, s.cur, domain.SkipDetail{Scope: scope}))
		s.rollDay(resume)
	}
}

// insertBreak records a break at the cursor and advances past it.
func (s *schedulerState) insertBreak(b breakSlot) {
	if b.start.After(s.cur) {
		s.cur = b.start
	}
	end := s.cur.Add(b.dur)
	s.emit(domain.NewBreakEvent(s.day, s.cur, end, domain.BreakDetail{Kind: b.kind, Merged: b.merged}))

	switch b.kind {
	case domain.BreakLunch:
		s.lunchDone[s.day] = true
		if b.merged {
			s.prayerDone[s.day] = true
		}
	case domain.BreakPrayer:
		s.prayerDone[s.day] = true
	}
	s.cur = end
}

// finish places the final overnight unless the mission ends at the base, then
// the mission end marker.
func (s *schedulerState) finish() {
	last := s.sites[len(s.sites)-1]
	atBase := last.Kind == domain.KindBase ||
		(s.p.BaseLocation != "" && geo.Normalize(last.City) == geo.Normalize(s.p.BaseLocation))

	if !atBase {
		switch {
		case last.OvernightAllowed:
			s.emit(domain.NewOvernightEvent(s.day, s.cur, domain.PlaceDetail{City: last.City}))
		case s.p.BaseLocation != "":
			s.emit(domain.NewOvernightEvent(s.day, s.cur, domain.PlaceDetail{City: s.p.BaseLocation, Fallback: true}))
		default:
			s.emit(domain.NewOvernightEvent(s.day, s.cur, domain.PlaceDetail{City: last.City, Fallback: true}))
		}
	}

	s.emit(domain.NewMissionEndEvent(s.day, s.cur, domain.PlaceDetail{City: last.City}))
}

func (s *schedulerState) itinerary() domain.Itinerary {
	return domain.Itinerary{
		Events: s.events,
		Stats: domain.ScheduleStats{
			TotalDays:       s.day,
			TotalKm:         s.totalKm,
			TotalVisitHours: s.totalVisitHours,
		},
	}
}
