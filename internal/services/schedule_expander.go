package services

import (
	"errors"
	"fmt"
	"log"
	"mission-planner-service/internal/domain"
	"time"
)

// ExpandInput is an ordered route ready to be laid out on the calendar.
// Segments[i] is the leg Sites[i] -> Sites[i+1]. Coords is optional and only
// used to estimate legs with missing data.
type ExpandInput struct {
	Sites     []domain.Site
	Coords    []domain.Coordinates
	Segments  []domain.Segment
	StartDate time.Time
	Policy    domain.Policy
	SpeedKmh  float64
}

func (in ExpandInput) validate() error {
	if len(in.Sites) == 0 {
		return errors.New("expand schedule: no sites")
	}
	if len(in.Segments) != len(in.Sites)-1 {
		return fmt.Errorf("expand schedule: %d segments for %d sites", len(in.Segments), len(in.Sites))
	}
	if len(in.Coords) != 0 && len(in.Coords) != len(in.Sites) {
		return fmt.Errorf("expand schedule: %d coordinates for %d sites", len(in.Coords), len(in.Sites))
	}
	if in.StartDate.IsZero() {
		return errors.New("expand schedule: start date is required")
	}
	if err := in.Policy.Validate(); err != nil {
		return fmt.Errorf("expand schedule: %w", err)
	}
	return nil
}

// healedSegments replaces missing legs with a geometric estimate, or the
// floor leg when no coordinates are known.
func (in ExpandInput) healedSegments() []domain.Segment {
	out := make([]domain.Segment, len(in.Segments))
	for i, seg := range in.Segments {
		switch {
		case !seg.Missing():
			out[i] = seg
		case len(in.Coords) > 0:
			out[i] = estimateLeg(in.Coords[i], in.Coords[i+1], in.SpeedKmh)
			log.Printf("op=expand leg=%d err=%v repaired=geometric", i, domain.ErrSegmentDataMissing)
		default:
			out[i] = floorLeg(in.SpeedKmh)
			log.Printf("op=expand leg=%d err=%v repaired=floor", i, domain.ErrSegmentDataMissing)
		}
	}
	return out
}

// ExpandSchedule lays the ordered sites out day by day. It fails only on
// invalid input; every scheduling conflict is resolved in the itinerary.
func ExpandSchedule(in ExpandInput) (domain.Itinerary, error) {
	if err := in.validate(); err != nil {
		return domain.Itinerary{}, err
	}

	s := newSchedulerState(in, in.healedSegments())
	for i := range s.sites {
		if i > 0 {
			s.advanceTravel(i)
		}
		s.advanceVisit(i)
		s.afterSite(i)
		if s.err != nil {
			return domain.Itinerary{}, s.err
		}
	}
	s.finish()

	return s.itinerary(), nil
}

// normalizeForTravel moves the cursor to a moment where driving is allowed.
// Overnights forced here are placed for site idx.
func (s *schedulerState) normalizeForTravel(idx int) {
	for s.err == nil {
		if !s.p.AllowWeekendTravel && domain.IsWeekend(s.date) {
			s.skipWeekend(scopeTravel, s.p.StartTravel)
			continue
		}
		if start := s.p.StartTravel.On(s.date); s.cur.Before(start) {
			s.cur = start
		}
		if !s.cur.Before(s.dayTravelEnd) {
			s.closeDay(idx, s.p.StartTravel)
			continue
		}
		return
	}
}

func (s *schedulerState) normalizeForActivity(idx int) {
	for s.err == nil {
		if !s.p.AllowWeekendActivities && domain.IsWeekend(s.date) {
			s.skipWeekend(scopeActivities, s.p.StartActivity)
			continue
		}
		if start := s.p.StartActivity.On(s.date); s.cur.Before(start) {
			s.cur = start
		}
		if !s.cur.Before(s.p.EndActivity.On(s.date)) {
			s.closeDay(idx, s.p.StartActivity)
			continue
		}
		return
	}
}

// advanceTravel drives the leg into site i, splitting it around breaks and
// day boundaries. Piece distances are proportional to piece durations.
func (s *schedulerState) advanceTravel(i int) {
	from, to := s.sites[i-1], s.sites[i]
	seg := s.segments[i-1]

	legDur := time.Duration(seg.DurationSeconds) * time.Second
	legKm := float64(seg.DistanceMeters) / 1000
	s.totalKm += legKm

	remaining := legDur
	doneKm := 0.0
	continued := false

	piece := func(end time.Time) {
		d := end.Sub(s.cur)
		remaining -= d

		km := legKm * d.Seconds() / legDur.Seconds()
		if remaining <= 0 {
			km = legKm - doneKm
		}
		doneKm += km

		s.emit(domain.NewTravelEvent(s.day, s.cur, end, domain.TravelDetail{
			From:            from.City,
			To:              to.City,
			DistanceKm:      km,
			DurationSeconds: int(d / time.Second),
			Continued:       continued,
		}))
		s.dayWork += d
		s.cur = end
		continued = true
	}

	for remaining > 0 && s.err == nil {
		s.normalizeForTravel(i - 1)
		if s.err != nil {
			return
		}

		arrival := s.cur.Add(remaining)
		arrives := !arrival.After(s.dayTravelEnd)
		pieceEnd := minTime(arrival, s.dayTravelEnd)

		if b, ok := s.travelBreak(s.cur, pieceEnd, arrives); ok {
			if b.start.After(s.cur) {
				piece(b.start)
			}
			s.insertBreak(b)
			continue
		}

		if !arrives {
			piece(s.dayTravelEnd)
			s.closeDay(i-1, s.p.StartTravel)
			continue
		}
		piece(arrival)
	}
}

// advanceVisit schedules the on-site work at site i. A visit that overruns
// the activity window finishes within tolerance, carries over, is
// interrupted, or is truncated, in that order of precedence.
func (s *schedulerState) advanceVisit(i int) {
	site := s.sites[i]
	remaining := hoursToDuration(site.VisitDurationHours)
	tolerance := hoursToDuration(s.p.ToleranceHours)
	continued := false

	detail := func() domain.VisitDetail {
		return domain.VisitDetail{City: site.City, Kind: site.Kind, Activity: site.Activity, Continued: continued}
	}

	for remaining > 0 && s.err == nil {
		s.normalizeForActivity(i)
		if s.err != nil {
			return
		}
		if b, ok := s.breakDue(s.cur); ok {
			s.insertBreak(b)
			continue
		}

		actEnd := s.p.EndActivity.On(s.date)
		full := s.cur.Add(remaining)
		end := full
		d := detail()

		if full.After(actEnd) {
			over := full.Sub(actEnd)
			switch {
			case site.MayContinueNextDay && over <= tolerance:
			case site.MayContinueNextDay && site.OvernightAllowed:
				end, d.ToContinue = actEnd, true
			case site.MayContinueNextDay:
				end, d.Interrupted = actEnd, true
			default:
				end, d.Truncated = actEnd, true
			}
		}
		finishes := end.Equal(full) || d.Truncated

		if b, windowEnd, ok := s.breakWithin(s.cur, end); ok {
			if finishes && !end.After(windowEnd) {
				s.visitPiece(end, d)
				s.insertBreak(s.slotAt(b.kind, end))
				return
			}

			remaining -= b.start.Sub(s.cur)
			s.visitPiece(b.start, detail())
			s.insertBreak(b)
			continued = true
			continue
		}

		remaining -= end.Sub(s.cur)
		s.visitPiece(end, d)
		switch {
		case d.Truncated:
			log.Printf("op=expand site=%q truncated_by=%s", site.City, remaining)
			return
		case d.ToContinue, d.Interrupted:
			continued = true
			s.closeDay(i, s.p.StartActivity)
		}
	}
}

func (s *schedulerState) visitPiece(end time.Time, d domain.VisitDetail) {
	dur := end.Sub(s.cur)
	d.Hours = dur.Hours()

	s.emit(domain.NewVisitEvent(s.day, s.cur, end, d))
	s.totalVisitHours += d.Hours
	s.dayWork += dur
	s.cur = end
}

// afterSite applies the day-closing heuristics once site i is done: lighter
// days when stretching toward a larger budget, and an early stop when too
// little travel time is left. Compression disables the early stop.
func (s *schedulerState) afterSite(i int) {
	if i >= len(s.sites)-1 || s.err != nil || s.dayWork == 0 {
		return
	}

	if s.stretching() && s.day < s.p.MaxDays {
		if s.dayWork >= s.workQuota || s.visitsAfter(i) <= s.p.MaxDays-s.day {
			s.closeDay(i, s.p.StartTravel)
			return
		}
	}

	if s.compressing() {
		return
	}
	if s.dayTravelEnd.Sub(s.cur) <= hoursToDuration(s.p.EndDayEarlyThresholdHours) {
		s.closeDay(i, s.p.StartTravel)
	}
}

func (s *schedulerState) stretching() bool  { return s.p.StretchDays && s.p.MaxDays > 0 }
func (s *schedulerState) compressing() bool { return !s.p.StretchDays && s.p.MaxDays > 0 }

func (s *schedulerState) visitsAfter(i int) int {
	n := 0
	for _, site := range s.sites[i+1:] {
		if !site.IsWaypoint() {
			n++
		}
	}
	return n
}
